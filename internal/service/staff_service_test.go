package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/civic-issue-service/internal/domain"
	"github.com/spec-kit/civic-issue-service/internal/repository"
	apperrors "github.com/spec-kit/civic-issue-service/pkg/util"
)

type fakeStaffRepo struct {
	mu   sync.Mutex
	byID map[string]*domain.StaffProfile
}

func newFakeStaffRepo() *fakeStaffRepo {
	return &fakeStaffRepo{byID: make(map[string]*domain.StaffProfile)}
}

func (f *fakeStaffRepo) Create(_ context.Context, staff *domain.StaffProfile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	staff.ID = uuid.NewString()
	staff.CreatedAt = time.Now()
	staff.UpdatedAt = staff.CreatedAt
	stored := *staff
	f.byID[staff.ID] = &stored
	return nil
}

func (f *fakeStaffRepo) Update(_ context.Context, staff *domain.StaffProfile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[staff.ID]; !ok {
		return pgx.ErrNoRows
	}
	stored := *staff
	stored.UpdatedAt = time.Now()
	f.byID[staff.ID] = &stored
	return nil
}

func (f *fakeStaffRepo) GetByID(_ context.Context, id string) (*domain.StaffProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	staff, ok := f.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *staff
	return &copied, nil
}

func (f *fakeStaffRepo) GetByEmail(_ context.Context, email string) (*domain.StaffProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, staff := range f.byID {
		if staff.Email == email {
			copied := *staff
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeStaffRepo) List(_ context.Context, filter repository.StaffFilter) ([]domain.StaffProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []domain.StaffProfile
	for _, staff := range f.byID {
		if filter.Department != nil && staff.Department != *filter.Department {
			continue
		}
		if filter.Region != nil && staff.Region != *filter.Region {
			continue
		}
		if filter.Active != nil && staff.Active != *filter.Active {
			continue
		}
		result = append(result, *staff)
	}
	return result, nil
}

func (f *fakeStaffRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(f.byID, id)
	return nil
}

func TestStaffCreateAndDuplicate(t *testing.T) {
	svc := NewStaffService(newFakeStaffRepo())

	profile, err := svc.Create(context.Background(), StaffCreateInput{
		Name:       "Worker",
		Email:      "Worker@City.gov",
		Department: "roads",
		Region:     "north",
	})
	require.NoError(t, err)
	assert.Equal(t, "worker@city.gov", profile.Email)
	assert.True(t, profile.Active)

	_, err = svc.Create(context.Background(), StaffCreateInput{Name: "Worker", Email: "worker@city.gov"})
	assert.True(t, apperrors.IsCode(err, "ALREADY_EXISTS"))
}

func TestStaffCreateValidation(t *testing.T) {
	svc := NewStaffService(newFakeStaffRepo())

	_, err := svc.Create(context.Background(), StaffCreateInput{Name: "", Email: "x@city.gov"})
	assert.True(t, apperrors.IsCode(err, "INVALID_ARGUMENT"))
}

func TestStaffUpdatePartialFields(t *testing.T) {
	svc := NewStaffService(newFakeStaffRepo())
	profile, err := svc.Create(context.Background(), StaffCreateInput{
		Name: "Worker", Email: "worker@city.gov", Department: "roads", Region: "north",
	})
	require.NoError(t, err)

	inactive := false
	region := "south"
	updated, err := svc.Update(context.Background(), profile.ID, StaffUpdateInput{Region: &region, Active: &inactive})
	require.NoError(t, err)
	assert.Equal(t, "south", updated.Region)
	assert.False(t, updated.Active)
	assert.Equal(t, "roads", updated.Department, "untouched fields must survive")
	assert.Equal(t, "worker@city.gov", updated.Email)
}

func TestStaffGetAndDeleteErrors(t *testing.T) {
	svc := NewStaffService(newFakeStaffRepo())

	_, err := svc.Get(context.Background(), "not-a-uuid")
	assert.True(t, apperrors.IsCode(err, "INVALID_ARGUMENT"))

	missing := uuid.NewString()
	_, err = svc.Get(context.Background(), missing)
	assert.True(t, apperrors.IsCode(err, "NOT_FOUND"))

	err = svc.Delete(context.Background(), missing)
	assert.True(t, apperrors.IsCode(err, "NOT_FOUND"))
}

func TestStaffListFilters(t *testing.T) {
	svc := NewStaffService(newFakeStaffRepo())
	_, err := svc.Create(context.Background(), StaffCreateInput{Name: "A", Email: "a@city.gov", Department: "roads"})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), StaffCreateInput{Name: "B", Email: "b@city.gov", Department: "parks"})
	require.NoError(t, err)

	dept := "roads"
	listed, err := svc.List(context.Background(), StaffListFilter{Department: &dept})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "a@city.gov", listed[0].Email)
}
