package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/civic-issue-service/internal/domain"
	"github.com/spec-kit/civic-issue-service/internal/events"
	"github.com/spec-kit/civic-issue-service/internal/identity"
	"github.com/spec-kit/civic-issue-service/internal/payments"
	"github.com/spec-kit/civic-issue-service/internal/repository"
)

// In-memory fakes backing the service tests. They mirror the conditional
// write semantics of the Postgres repositories: absent rows surface
// pgx.ErrNoRows and duplicate conditional inserts report false.

type fakeIssueRepo struct {
	mu     sync.Mutex
	issues map[string]*domain.Issue
	votes  map[string]map[string]struct{}
}

func newFakeIssueRepo() *fakeIssueRepo {
	return &fakeIssueRepo{
		issues: make(map[string]*domain.Issue),
		votes:  make(map[string]map[string]struct{}),
	}
}

func (f *fakeIssueRepo) Create(_ context.Context, issue *domain.Issue) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	issue.ID = uuid.NewString()
	issue.CreatedAt = time.Now()
	issue.UpdatedAt = issue.CreatedAt
	stored := *issue
	f.issues[issue.ID] = &stored
	return nil
}

func (f *fakeIssueRepo) GetByID(_ context.Context, id string) (*domain.Issue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	issue, ok := f.issues[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *issue
	return &copied, nil
}

func (f *fakeIssueRepo) List(_ context.Context, filter repository.IssueFilter) ([]domain.Issue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []domain.Issue
	for _, issue := range f.issues {
		if filter.ReportedBy != nil && issue.ReportedBy != *filter.ReportedBy {
			continue
		}
		if filter.Priority != nil && issue.Priority != *filter.Priority {
			continue
		}
		if len(filter.Statuses) > 0 {
			match := false
			for _, status := range filter.Statuses {
				if issue.Status == status {
					match = true
					break
				}
			}
			if !match {
				continue
			}
		}
		result = append(result, *issue)
	}
	return result, nil
}

func (f *fakeIssueRepo) SetStatus(_ context.Context, id string, status domain.IssueStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	issue, ok := f.issues[id]
	if !ok {
		return pgx.ErrNoRows
	}
	issue.Status = status
	issue.UpdatedAt = time.Now()
	return nil
}

func (f *fakeIssueRepo) Assign(_ context.Context, id, staffEmail string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	issue, ok := f.issues[id]
	if !ok {
		return pgx.ErrNoRows
	}
	issue.Status = domain.IssueStatusAssigned
	issue.AssignedTo = &staffEmail
	issue.AssignedAt = &at
	return nil
}

func (f *fakeIssueRepo) Boost(_ context.Context, id string, boostedAt *time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	issue, ok := f.issues[id]
	if !ok {
		return pgx.ErrNoRows
	}
	issue.Priority = domain.IssuePriorityHigh
	if boostedAt != nil {
		issue.BoostedAt = boostedAt
	}
	return nil
}

func (f *fakeIssueRepo) ApplyPatch(_ context.Context, id string, patch repository.IssuePatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	issue, ok := f.issues[id]
	if !ok {
		return pgx.ErrNoRows
	}
	if patch.Title != nil {
		issue.Title = *patch.Title
	}
	if patch.Description != nil {
		issue.Description = *patch.Description
	}
	if patch.Category != nil {
		issue.Category = *patch.Category
	}
	if patch.Location != nil {
		issue.Location = *patch.Location
	}
	return nil
}

func (f *fakeIssueRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.issues[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(f.issues, id)
	delete(f.votes, id)
	return nil
}

func (f *fakeIssueRepo) AddUpvote(_ context.Context, id, voterEmail string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	issue, ok := f.issues[id]
	if !ok {
		return false, pgx.ErrNoRows
	}
	voters, ok := f.votes[id]
	if !ok {
		voters = make(map[string]struct{})
		f.votes[id] = voters
	}
	if _, voted := voters[voterEmail]; voted {
		return false, nil
	}
	voters[voterEmail] = struct{}{}
	issue.UpvoteCount++
	return true, nil
}

type fakeHistoryRepo struct {
	mu      sync.Mutex
	entries []domain.StatusChange
}

func (f *fakeHistoryRepo) Append(_ context.Context, change *domain.StatusChange) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	change.ID = uuid.NewString()
	change.ChangedAt = time.Now()
	f.entries = append(f.entries, *change)
	return nil
}

func (f *fakeHistoryRepo) ListByIssue(_ context.Context, issueID string) ([]domain.StatusChange, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []domain.StatusChange
	for _, entry := range f.entries {
		if entry.IssueID == issueID {
			result = append(result, entry)
		}
	}
	return result, nil
}

type fakeUserRepo struct {
	mu           sync.Mutex
	byEmail      map[string]*domain.User
	incrementErr error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byEmail: make(map[string]*domain.User)}
}

func (f *fakeUserRepo) seed(user domain.User) *domain.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	f.byEmail[user.Email] = &user
	return &user
}

func (f *fakeUserRepo) CreateIfAbsent(_ context.Context, user *domain.User) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byEmail[user.Email]; ok {
		return false, nil
	}
	user.ID = uuid.NewString()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	stored := *user
	f.byEmail[user.Email] = &stored
	return true, nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.byEmail {
		if user.ID == id {
			copied := *user
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.byEmail[email]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *user
	return &copied, nil
}

func (f *fakeUserRepo) List(_ context.Context, filter repository.UserFilter) ([]domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []domain.User
	for _, user := range f.byEmail {
		if filter.Role != nil && user.Role != *filter.Role {
			continue
		}
		if filter.Blocked != nil && user.IsBlocked != *filter.Blocked {
			continue
		}
		if filter.Premium != nil && user.IsPremium != *filter.Premium {
			continue
		}
		result = append(result, *user)
	}
	return result, nil
}

func (f *fakeUserRepo) UpdateName(_ context.Context, email, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.byEmail[email]
	if !ok {
		return pgx.ErrNoRows
	}
	user.Name = name
	return nil
}

func (f *fakeUserRepo) UpdateRole(_ context.Context, email string, role domain.UserRole) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.byEmail[email]
	if !ok {
		return pgx.ErrNoRows
	}
	user.Role = role
	return nil
}

func (f *fakeUserRepo) SetBlocked(_ context.Context, email string, blocked bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.byEmail[email]
	if !ok {
		return pgx.ErrNoRows
	}
	user.IsBlocked = blocked
	return nil
}

func (f *fakeUserRepo) ActivatePremium(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.byEmail {
		if user.ID == id {
			user.IsPremium = true
			if user.SubscriptionDate == nil {
				now := time.Now()
				user.SubscriptionDate = &now
			}
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (f *fakeUserRepo) IncrementIssuesReported(_ context.Context, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.incrementErr != nil {
		return f.incrementErr
	}
	user, ok := f.byEmail[email]
	if !ok {
		return pgx.ErrNoRows
	}
	user.IssuesReported++
	return nil
}

type recordingDispatcher struct {
	mu        sync.Mutex
	published []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.published = append(d.published, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *recordingDispatcher) byType(eventType events.EventType) []events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	var result []events.Event
	for _, event := range d.published {
		if event.Type == eventType {
			result = append(result, event)
		}
	}
	return result
}

type fakePaymentGateway struct {
	sessions  map[string]*payments.Session
	created   []payments.CreateSessionInput
	createErr error
}

func newFakePaymentGateway() *fakePaymentGateway {
	return &fakePaymentGateway{sessions: make(map[string]*payments.Session)}
}

func (f *fakePaymentGateway) CreateCheckoutSession(_ context.Context, input payments.CreateSessionInput) (*payments.Session, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, input)
	session := &payments.Session{
		ID:            "cs_" + uuid.NewString(),
		URL:           "https://checkout.example.com/" + uuid.NewString(),
		PaymentStatus: "unpaid",
		AmountTotal:   input.Amount,
		Currency:      input.Currency,
		Metadata:      input.Metadata,
	}
	f.sessions[session.ID] = session
	return session, nil
}

func (f *fakePaymentGateway) RetrieveSession(_ context.Context, sessionID string) (*payments.Session, error) {
	session, ok := f.sessions[sessionID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return session, nil
}

type fakeLedger struct {
	mu         sync.Mutex
	byPayment  map[string]*domain.Payment
	insertErrs error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{byPayment: make(map[string]*domain.Payment)}
}

func (f *fakeLedger) InsertIfAbsent(_ context.Context, payment *domain.Payment) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErrs != nil {
		return false, f.insertErrs
	}
	if _, ok := f.byPayment[payment.PaymentID]; ok {
		return false, nil
	}
	payment.ID = uuid.NewString()
	payment.CreatedAt = time.Now()
	stored := *payment
	f.byPayment[payment.PaymentID] = &stored
	return true, nil
}

func (f *fakeLedger) GetByPaymentID(_ context.Context, paymentID string) (*domain.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	payment, ok := f.byPayment[paymentID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *payment
	return &copied, nil
}

func (f *fakeLedger) ListByUser(_ context.Context, userID string, _, _ int) ([]domain.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []domain.Payment
	for _, payment := range f.byPayment {
		if payment.UserID == userID {
			result = append(result, *payment)
		}
	}
	return result, nil
}

type fakeBooster struct {
	mu       sync.Mutex
	calls    []string
	boostErr error
}

func (f *fakeBooster) BoostIssue(_ context.Context, id, _ string, _ bool, _ string) (*domain.Issue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.boostErr != nil {
		return nil, f.boostErr
	}
	f.calls = append(f.calls, id)
	return &domain.Issue{ID: id, Priority: domain.IssuePriorityHigh}, nil
}

type fakeIdentityGateway struct {
	mu        sync.Mutex
	accounts  map[string]string
	createErr error
}

func newFakeIdentityGateway() *fakeIdentityGateway {
	return &fakeIdentityGateway{accounts: make(map[string]string)}
}

func (f *fakeIdentityGateway) Verify(_ context.Context, token string) (string, error) {
	return token, nil
}

func (f *fakeIdentityGateway) CreateAccount(_ context.Context, input identity.CreateAccountInput) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return "", f.createErr
	}
	f.accounts[input.Email] = input.Secret
	return uuid.NewString(), nil
}

func (f *fakeIdentityGateway) IssueToken(_ context.Context, email, secret string) (string, time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if stored, ok := f.accounts[email]; ok && stored == secret {
		return "token-" + email, time.Now().Add(time.Hour), nil
	}
	return "", time.Time{}, pgx.ErrNoRows
}
