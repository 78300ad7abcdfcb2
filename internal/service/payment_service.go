package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/civic-issue-service/internal/config"
	"github.com/spec-kit/civic-issue-service/internal/domain"
	"github.com/spec-kit/civic-issue-service/internal/events"
	"github.com/spec-kit/civic-issue-service/internal/payments"
	"github.com/spec-kit/civic-issue-service/internal/repository"
	apperrors "github.com/spec-kit/civic-issue-service/pkg/util"
)

// IssueBooster is the slice of the lifecycle engine the reconciler needs to
// apply a paid boost.
type IssueBooster interface {
	BoostIssue(ctx context.Context, id, actor string, viaPayment bool, paymentID string) (*domain.Issue, error)
}

// PaymentService reconciles external settlements into domain side effects.
// The uniqueness of payment_id in the ledger is the idempotency anchor: a
// confirmation is applied exactly once no matter how often it is retried.
type PaymentService struct {
	gateway    payments.Gateway
	ledger     repository.PaymentRepository
	users      repository.UserRepository
	booster    IssueBooster
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.PaymentsConfig
}

// PaymentDependencies bundles requirements for the payment service.
type PaymentDependencies struct {
	Gateway     payments.Gateway
	PaymentRepo repository.PaymentRepository
	UserRepo    repository.UserRepository
	Booster     IssueBooster
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
}

// ConfirmResult reports the outcome of a settlement confirmation.
type ConfirmResult struct {
	Payment          *domain.Payment
	AlreadyProcessed bool
}

// NewPaymentService constructs the service.
func NewPaymentService(cfg config.PaymentsConfig, deps PaymentDependencies) *PaymentService {
	return &PaymentService{
		gateway:    deps.Gateway,
		ledger:     deps.PaymentRepo,
		users:      deps.UserRepo,
		booster:    deps.Booster,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		cfg:        cfg,
	}
}

// CreateCheckoutSession mints a hosted checkout session for a fixed-price
// product and returns the redirect URL. Pure delegation; no domain mutation.
func (s *PaymentService) CreateCheckoutSession(ctx context.Context, kind domain.PaymentType, issueID *string, userID string) (string, error) {
	if userID == "" {
		return "", apperrors.NewInvalidArgument("user id required", nil)
	}

	input := payments.CreateSessionInput{
		Currency:   s.cfg.Currency,
		SuccessURL: s.cfg.SuccessURL,
		CancelURL:  s.cfg.CancelURL,
		Metadata:   map[string]string{"user_id": userID},
	}

	switch kind {
	case domain.PaymentTypeIssueBoost:
		if issueID == nil || uuid.Validate(*issueID) != nil {
			return "", apperrors.NewInvalidArgument("valid issue id required for boost", nil)
		}
		input.ProductName = "Issue priority boost"
		input.Amount = s.cfg.BoostAmount
		input.Metadata["issue_id"] = *issueID
	case domain.PaymentTypeSubscription:
		input.ProductName = "Premium subscription"
		input.Amount = s.cfg.SubscriptionAmount
	default:
		return "", apperrors.NewInvalidArgument("unknown payment type", map[string]any{"type": string(kind)})
	}

	session, err := s.gateway.CreateCheckoutSession(ctx, input)
	if err != nil {
		return "", err
	}
	return session.URL, nil
}

// ConfirmPayment verifies settlement with the gateway and applies the domain
// side effect exactly once. A retried confirmation for an already-recorded
// session returns success without reapplying anything.
func (s *PaymentService) ConfirmPayment(ctx context.Context, sessionID string) (*ConfirmResult, error) {
	session, err := s.gateway.RetrieveSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.Paid() {
		return nil, apperrors.NewPaymentNotCompleted(sessionID)
	}

	userID := session.Metadata["user_id"]
	if userID == "" {
		return nil, apperrors.NewInvalidArgument("session metadata missing user id", nil)
	}
	var issueID *string
	if raw, ok := session.Metadata["issue_id"]; ok && raw != "" {
		issueID = &raw
	}

	payment := &domain.Payment{
		PaymentID: session.ID,
		UserID:    userID,
		IssueID:   issueID,
		Amount:    session.AmountTotal,
		Currency:  session.Currency,
		Status:    domain.PaymentStatusSuccess,
	}
	if issueID != nil {
		payment.PaymentType = domain.PaymentTypeIssueBoost
	} else {
		payment.PaymentType = domain.PaymentTypeSubscription
	}

	created, err := s.ledger.InsertIfAbsent(ctx, payment)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !created {
		existing, err := s.ledger.GetByPaymentID(ctx, session.ID)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		return &ConfirmResult{Payment: existing, AlreadyProcessed: true}, nil
	}

	if err := s.applySideEffect(ctx, payment); err != nil {
		// The ledger row is kept on purpose: a retried confirmation must not
		// double-apply. The partial state needs manual reconciliation.
		s.logger.Error("settlement recorded but side effect failed",
			zap.String("payment_id", payment.PaymentID),
			zap.String("payment_type", string(payment.PaymentType)),
			zap.Error(err))
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:    events.EventPaymentSettled,
		IssueID: derefOrEmpty(issueID),
		Actor:   "system",
		Payload: events.PaymentSettledPayload{
			PaymentID:   payment.PaymentID,
			PaymentType: payment.PaymentType,
			UserID:      payment.UserID,
			Amount:      payment.Amount,
			Currency:    payment.Currency,
		},
	})
	return &ConfirmResult{Payment: payment}, nil
}

// ListForUser returns a user's settlement history, newest first.
func (s *PaymentService) ListForUser(ctx context.Context, userID string, limit, offset int) ([]domain.Payment, error) {
	if userID == "" {
		return nil, apperrors.NewInvalidArgument("user id required", nil)
	}
	result, err := s.ledger.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return result, nil
}

func (s *PaymentService) applySideEffect(ctx context.Context, payment *domain.Payment) error {
	if payment.IssueID != nil {
		_, err := s.booster.BoostIssue(ctx, *payment.IssueID, "system", true, payment.PaymentID)
		return err
	}
	if err := s.users.ActivatePremium(ctx, payment.UserID); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

func (s *PaymentService) publishEvent(ctx context.Context, event events.Event) {
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

func derefOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
