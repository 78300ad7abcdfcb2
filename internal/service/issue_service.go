package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/civic-issue-service/internal/domain"
	"github.com/spec-kit/civic-issue-service/internal/events"
	"github.com/spec-kit/civic-issue-service/internal/repository"
	apperrors "github.com/spec-kit/civic-issue-service/pkg/util"
)

// IssueService owns the issue lifecycle: status transitions, assignment,
// priority boosts, the vote ledger, and the audit timeline.
type IssueService struct {
	issues     repository.IssueRepository
	history    repository.StatusHistoryRepository
	users      repository.UserRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// IssueDependencies bundles requirements for the issue service.
type IssueDependencies struct {
	IssueRepo   repository.IssueRepository
	HistoryRepo repository.StatusHistoryRepository
	UserRepo    repository.UserRepository
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
}

// IssueCreateInput describes issue creation payload. Status, priority and
// vote state are server-owned and never taken from the client.
type IssueCreateInput struct {
	Title       string
	Description string
	Category    string
	Location    string
}

// IssueListFilter describes listing filters.
type IssueListFilter struct {
	ReportedBy *string
	AssignedTo *string
	Statuses   []domain.IssueStatus
	Priority   *domain.IssuePriority
	Category   *string
	Limit      int
	Offset     int
}

// NewIssueService constructs the service.
func NewIssueService(deps IssueDependencies) *IssueService {
	return &IssueService{
		issues:     deps.IssueRepo,
		history:    deps.HistoryRepo,
		users:      deps.UserRepo,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
	}
}

// allowedTransitions is the closed transition table. Re-asserting the current
// status is always accepted and still appends a timeline entry.
var allowedTransitions = map[domain.IssueStatus][]domain.IssueStatus{
	domain.IssueStatusPending:  {domain.IssueStatusAssigned, domain.IssueStatusResolved, domain.IssueStatusRejected},
	domain.IssueStatusAssigned: {domain.IssueStatusResolved, domain.IssueStatusRejected, domain.IssueStatusPending},
	domain.IssueStatusResolved: {domain.IssueStatusAssigned},
	domain.IssueStatusRejected: {domain.IssueStatusPending},
}

func canTransition(current, next domain.IssueStatus) bool {
	if current == next {
		return true
	}
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// CreateIssue files a new issue for a reporter. The reporter's issues_reported
// counter is incremented best-effort: the issue insert is the source of truth
// and a failed increment is logged for manual reconciliation.
func (s *IssueService) CreateIssue(ctx context.Context, reporter string, input IssueCreateInput) (*domain.Issue, error) {
	reporter = strings.TrimSpace(reporter)
	if reporter == "" {
		return nil, apperrors.NewInvalidArgument("reporter identity required", nil)
	}
	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	if title == "" || description == "" {
		return nil, apperrors.NewInvalidArgument("title and description required", nil)
	}

	issue := &domain.Issue{
		Title:       title,
		Description: description,
		Category:    strings.TrimSpace(input.Category),
		Location:    strings.TrimSpace(input.Location),
		ReportedBy:  reporter,
		Status:      domain.IssueStatusPending,
		Priority:    domain.IssuePriorityLow,
	}
	if err := s.issues.Create(ctx, issue); err != nil {
		return nil, apperrors.MapError(err)
	}

	if err := s.history.Append(ctx, &domain.StatusChange{
		IssueID:   issue.ID,
		Status:    domain.IssueStatusPending,
		ChangedBy: reporter,
	}); err != nil {
		return nil, apperrors.MapError(err)
	}

	if err := s.users.IncrementIssuesReported(ctx, reporter); err != nil {
		s.logger.Warn("failed to increment reporter counter",
			zap.String("issue_id", issue.ID),
			zap.String("reporter", reporter),
			zap.Error(err))
	}

	s.publishEvent(ctx, events.Event{
		Type:    events.EventIssueCreated,
		IssueID: issue.ID,
		Actor:   reporter,
		Payload: events.IssueCreatedPayload{
			Title:    issue.Title,
			Category: issue.Category,
			Location: issue.Location,
		},
	})
	return issue, nil
}

// GetIssue fetches an issue with its status timeline.
func (s *IssueService) GetIssue(ctx context.Context, id string) (*domain.Issue, []domain.StatusChange, error) {
	issue, err := s.getIssue(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	timeline, err := s.history.ListByIssue(ctx, issue.ID)
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	return issue, timeline, nil
}

// ListIssues returns issues matching the filter, boosted first.
func (s *IssueService) ListIssues(ctx context.Context, filter IssueListFilter) ([]domain.Issue, error) {
	issues, err := s.issues.List(ctx, repository.IssueFilter{
		ReportedBy: filter.ReportedBy,
		AssignedTo: filter.AssignedTo,
		Statuses:   filter.Statuses,
		Priority:   filter.Priority,
		Category:   filter.Category,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return issues, nil
}

// UpdateStatus transitions an issue and appends to the timeline. Repeating a
// status appends another entry; the timeline is not deduplicated.
func (s *IssueService) UpdateStatus(ctx context.Context, id string, newStatus domain.IssueStatus, actor string) (*domain.Issue, error) {
	if !domain.ValidIssueStatus(newStatus) {
		return nil, apperrors.NewInvalidArgument("unknown status", map[string]any{"status": string(newStatus)})
	}
	issue, err := s.getIssue(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canTransition(issue.Status, newStatus) {
		return nil, apperrors.NewInvalidArgument("invalid status transition", map[string]any{
			"from": string(issue.Status),
			"to":   string(newStatus),
		})
	}

	if err := s.issues.SetStatus(ctx, issue.ID, newStatus); err != nil {
		return nil, apperrors.MapError(err)
	}
	if err := s.history.Append(ctx, &domain.StatusChange{
		IssueID:   issue.ID,
		Status:    newStatus,
		ChangedBy: actor,
	}); err != nil {
		return nil, apperrors.MapError(err)
	}

	oldStatus := issue.Status
	issue.Status = newStatus
	s.publishEvent(ctx, events.Event{
		Type:    events.EventIssueStatusChanged,
		IssueID: issue.ID,
		Actor:   actor,
		Payload: events.IssueStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: newStatus,
		},
	})
	return issue, nil
}

// RejectIssue is the convenience form of UpdateStatus with Rejected. It
// always appends a timeline entry.
func (s *IssueService) RejectIssue(ctx context.Context, id, actor string) (*domain.Issue, error) {
	return s.UpdateStatus(ctx, id, domain.IssueStatusRejected, actor)
}

// AssignStaff assigns an issue to a staff member and transitions it to
// Assigned. Role validation happens at the boundary, not here.
func (s *IssueService) AssignStaff(ctx context.Context, id, staffEmail, actor string) (*domain.Issue, error) {
	staffEmail = strings.TrimSpace(staffEmail)
	if staffEmail == "" {
		return nil, apperrors.NewInvalidArgument("staff identity required", nil)
	}
	issue, err := s.getIssue(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canTransition(issue.Status, domain.IssueStatusAssigned) {
		return nil, apperrors.NewInvalidArgument("issue cannot be assigned in current status", map[string]any{
			"status": string(issue.Status),
		})
	}

	now := time.Now()
	if err := s.issues.Assign(ctx, issue.ID, staffEmail, now); err != nil {
		return nil, apperrors.MapError(err)
	}
	if err := s.history.Append(ctx, &domain.StatusChange{
		IssueID:   issue.ID,
		Status:    domain.IssueStatusAssigned,
		ChangedBy: actor,
	}); err != nil {
		return nil, apperrors.MapError(err)
	}

	issue.Status = domain.IssueStatusAssigned
	issue.AssignedTo = &staffEmail
	issue.AssignedAt = &now
	s.publishEvent(ctx, events.Event{
		Type:    events.EventIssueAssigned,
		IssueID: issue.ID,
		Actor:   actor,
		Payload: events.IssueAssignedPayload{StaffEmail: staffEmail},
	})
	return issue, nil
}

// BoostIssue raises priority to High. Payment-triggered boosts also stamp
// boosted_at. Boosting an already-High issue is a no-op in effect; no
// timeline entry is written.
func (s *IssueService) BoostIssue(ctx context.Context, id, actor string, viaPayment bool, paymentID string) (*domain.Issue, error) {
	issue, err := s.getIssue(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor == "" {
		actor = "system"
	}

	var boostedAt *time.Time
	if viaPayment {
		now := time.Now()
		boostedAt = &now
	}
	if err := s.issues.Boost(ctx, issue.ID, boostedAt); err != nil {
		return nil, apperrors.MapError(err)
	}

	issue.Priority = domain.IssuePriorityHigh
	if boostedAt != nil {
		issue.BoostedAt = boostedAt
	}
	s.publishEvent(ctx, events.Event{
		Type:    events.EventIssueBoosted,
		IssueID: issue.ID,
		Actor:   actor,
		Payload: events.IssueBoostedPayload{ViaPayment: viaPayment, PaymentID: paymentID},
	})
	return issue, nil
}

// UpdateDetails applies a correction to the allow-listed fields only. Server
// owned fields (id, status, priority, assignment, counters, timeline) are not
// reachable through this path.
func (s *IssueService) UpdateDetails(ctx context.Context, id string, patch repository.IssuePatch) (*domain.Issue, error) {
	if err := validateIssueID(id); err != nil {
		return nil, err
	}
	if patch.Empty() {
		return nil, apperrors.NewInvalidArgument("no updatable fields provided", nil)
	}
	if err := s.issues.ApplyPatch(ctx, id, patch); err != nil {
		return nil, issueError(err)
	}
	issue, err := s.issues.GetByID(ctx, id)
	if err != nil {
		return nil, issueError(err)
	}
	return issue, nil
}

// DeleteIssue removes an issue and its dependent rows.
func (s *IssueService) DeleteIssue(ctx context.Context, id string) error {
	if err := validateIssueID(id); err != nil {
		return err
	}
	if err := s.issues.Delete(ctx, id); err != nil {
		return issueError(err)
	}
	return nil
}

// Upvote registers a vote for the issue. The membership check and counter
// increment happen in one conditional store write, so concurrent duplicate
// attempts by the same voter cannot double-count.
func (s *IssueService) Upvote(ctx context.Context, id, voter string) (*domain.Issue, error) {
	voter = strings.TrimSpace(voter)
	if voter == "" {
		return nil, apperrors.NewInvalidArgument("voter identity required", nil)
	}
	issue, err := s.getIssue(ctx, id)
	if err != nil {
		return nil, err
	}

	added, err := s.issues.AddUpvote(ctx, issue.ID, voter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !added {
		return nil, apperrors.NewAlreadyVoted(issue.ID)
	}

	issue.UpvoteCount++
	s.publishEvent(ctx, events.Event{
		Type:    events.EventIssueUpvoted,
		IssueID: issue.ID,
		Actor:   voter,
		Payload: events.IssueUpvotedPayload{Voter: voter, UpvoteCount: issue.UpvoteCount},
	})
	return issue, nil
}

func (s *IssueService) getIssue(ctx context.Context, id string) (*domain.Issue, error) {
	if err := validateIssueID(id); err != nil {
		return nil, err
	}
	issue, err := s.issues.GetByID(ctx, id)
	if err != nil {
		return nil, issueError(err)
	}
	return issue, nil
}

func (s *IssueService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func validateIssueID(id string) error {
	if err := uuid.Validate(id); err != nil {
		return apperrors.NewInvalidArgument("malformed issue id", map[string]any{"id": id})
	}
	return nil
}

func issueError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound("issue", nil)
	}
	return apperrors.MapError(err)
}
