package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/civic-issue-service/internal/domain"
	"github.com/spec-kit/civic-issue-service/internal/repository"
	apperrors "github.com/spec-kit/civic-issue-service/pkg/util"
)

// StaffService manages the staff directory. Authorization for these
// operations is enforced at the boundary (admin only).
type StaffService struct {
	staff repository.StaffRepository
}

// StaffCreateInput describes a new directory entry.
type StaffCreateInput struct {
	Name       string
	Email      string
	Department string
	Region     string
}

// StaffUpdateInput describes directory corrections. Email is immutable.
type StaffUpdateInput struct {
	Name       *string
	Department *string
	Region     *string
	Active     *bool
}

// StaffListFilter describes listing filters.
type StaffListFilter struct {
	Department *string
	Region     *string
	Active     *bool
	Limit      int
	Offset     int
}

// NewStaffService constructs the service.
func NewStaffService(staffRepo repository.StaffRepository) *StaffService {
	return &StaffService{staff: staffRepo}
}

// Create adds a directory entry.
func (s *StaffService) Create(ctx context.Context, input StaffCreateInput) (*domain.StaffProfile, error) {
	email := normalizeEmail(input.Email)
	name := strings.TrimSpace(input.Name)
	if email == "" || name == "" {
		return nil, apperrors.NewInvalidArgument("name and email required", nil)
	}
	if _, err := s.staff.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewAlreadyExists("staff profile", map[string]any{"email": email})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	profile := &domain.StaffProfile{
		Name:       name,
		Email:      email,
		Department: strings.TrimSpace(input.Department),
		Region:     strings.TrimSpace(input.Region),
		Active:     true,
	}
	if err := s.staff.Create(ctx, profile); err != nil {
		return nil, apperrors.MapError(err)
	}
	return profile, nil
}

// Get fetches a directory entry.
func (s *StaffService) Get(ctx context.Context, id string) (*domain.StaffProfile, error) {
	if err := validateStaffID(id); err != nil {
		return nil, err
	}
	profile, err := s.staff.GetByID(ctx, id)
	if err != nil {
		return nil, staffError(err)
	}
	return profile, nil
}

// List returns directory entries matching the filter.
func (s *StaffService) List(ctx context.Context, filter StaffListFilter) ([]domain.StaffProfile, error) {
	profiles, err := s.staff.List(ctx, repository.StaffFilter{
		Department: filter.Department,
		Region:     filter.Region,
		Active:     filter.Active,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return profiles, nil
}

// Update applies directory corrections.
func (s *StaffService) Update(ctx context.Context, id string, input StaffUpdateInput) (*domain.StaffProfile, error) {
	profile, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		profile.Name = strings.TrimSpace(*input.Name)
	}
	if input.Department != nil {
		profile.Department = strings.TrimSpace(*input.Department)
	}
	if input.Region != nil {
		profile.Region = strings.TrimSpace(*input.Region)
	}
	if input.Active != nil {
		profile.Active = *input.Active
	}

	if err := s.staff.Update(ctx, profile); err != nil {
		return nil, staffError(err)
	}
	return profile, nil
}

// Delete removes a directory entry.
func (s *StaffService) Delete(ctx context.Context, id string) error {
	if err := validateStaffID(id); err != nil {
		return err
	}
	if err := s.staff.Delete(ctx, id); err != nil {
		return staffError(err)
	}
	return nil
}

func validateStaffID(id string) error {
	if err := uuid.Validate(id); err != nil {
		return apperrors.NewInvalidArgument("malformed staff id", map[string]any{"id": id})
	}
	return nil
}

func staffError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound("staff profile", nil)
	}
	return apperrors.MapError(err)
}
