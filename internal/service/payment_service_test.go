package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/civic-issue-service/internal/config"
	"github.com/spec-kit/civic-issue-service/internal/domain"
	"github.com/spec-kit/civic-issue-service/internal/events"
	"github.com/spec-kit/civic-issue-service/internal/payments"
	apperrors "github.com/spec-kit/civic-issue-service/pkg/util"
)

type paymentFixture struct {
	svc        *PaymentService
	gateway    *fakePaymentGateway
	ledger     *fakeLedger
	users      *fakeUserRepo
	booster    *fakeBooster
	dispatcher *recordingDispatcher
}

func newPaymentFixture() *paymentFixture {
	gateway := newFakePaymentGateway()
	ledger := newFakeLedger()
	users := newFakeUserRepo()
	booster := &fakeBooster{}
	dispatcher := &recordingDispatcher{}

	cfg := config.PaymentsConfig{
		Currency:           "usd",
		BoostAmount:        500,
		SubscriptionAmount: 2000,
		SuccessURL:         "https://example.com/ok",
		CancelURL:          "https://example.com/cancel",
	}
	svc := NewPaymentService(cfg, PaymentDependencies{
		Gateway:     gateway,
		PaymentRepo: ledger,
		UserRepo:    users,
		Booster:     booster,
		Dispatcher:  dispatcher,
		Logger:      zap.NewNop(),
	})
	return &paymentFixture{svc: svc, gateway: gateway, ledger: ledger, users: users, booster: booster, dispatcher: dispatcher}
}

func (f *paymentFixture) paidSession(metadata map[string]string) *payments.Session {
	session := &payments.Session{
		ID:            "cs_test_settled",
		PaymentStatus: payments.SessionStatusPaid,
		AmountTotal:   500,
		Currency:      "usd",
		Metadata:      metadata,
	}
	f.gateway.sessions[session.ID] = session
	return session
}

func TestCreateCheckoutSessionBoost(t *testing.T) {
	f := newPaymentFixture()
	issueID := "5a2b7c1e-9d64-4a52-9f5c-0d8f3a1b2c3d"

	url, err := f.svc.CreateCheckoutSession(context.Background(), domain.PaymentTypeIssueBoost, &issueID, "user-1")
	require.NoError(t, err)
	assert.NotEmpty(t, url)

	require.Len(t, f.gateway.created, 1)
	input := f.gateway.created[0]
	assert.Equal(t, int64(500), input.Amount)
	assert.Equal(t, "user-1", input.Metadata["user_id"])
	assert.Equal(t, issueID, input.Metadata["issue_id"])
}

func TestCreateCheckoutSessionValidation(t *testing.T) {
	f := newPaymentFixture()

	_, err := f.svc.CreateCheckoutSession(context.Background(), domain.PaymentTypeIssueBoost, nil, "user-1")
	assert.True(t, apperrors.IsCode(err, "INVALID_ARGUMENT"))

	bad := "not-a-uuid"
	_, err = f.svc.CreateCheckoutSession(context.Background(), domain.PaymentTypeIssueBoost, &bad, "user-1")
	assert.True(t, apperrors.IsCode(err, "INVALID_ARGUMENT"))

	_, err = f.svc.CreateCheckoutSession(context.Background(), domain.PaymentType("GIFT_CARD"), nil, "user-1")
	assert.True(t, apperrors.IsCode(err, "INVALID_ARGUMENT"))

	_, err = f.svc.CreateCheckoutSession(context.Background(), domain.PaymentTypeSubscription, nil, "")
	assert.True(t, apperrors.IsCode(err, "INVALID_ARGUMENT"))
}

func TestCreateCheckoutSessionSubscription(t *testing.T) {
	f := newPaymentFixture()

	_, err := f.svc.CreateCheckoutSession(context.Background(), domain.PaymentTypeSubscription, nil, "user-1")
	require.NoError(t, err)

	require.Len(t, f.gateway.created, 1)
	input := f.gateway.created[0]
	assert.Equal(t, int64(2000), input.Amount)
	_, hasIssue := input.Metadata["issue_id"]
	assert.False(t, hasIssue)
}

func TestConfirmPaymentAppliesBoostExactlyOnce(t *testing.T) {
	f := newPaymentFixture()
	issueID := "5a2b7c1e-9d64-4a52-9f5c-0d8f3a1b2c3d"
	session := f.paidSession(map[string]string{"user_id": "user-1", "issue_id": issueID})

	first, err := f.svc.ConfirmPayment(context.Background(), session.ID)
	require.NoError(t, err)
	assert.False(t, first.AlreadyProcessed)
	assert.Equal(t, domain.PaymentTypeIssueBoost, first.Payment.PaymentType)
	require.Len(t, f.booster.calls, 1)
	assert.Equal(t, issueID, f.booster.calls[0])

	second, err := f.svc.ConfirmPayment(context.Background(), session.ID)
	require.NoError(t, err)
	assert.True(t, second.AlreadyProcessed)
	assert.Equal(t, first.Payment.PaymentID, second.Payment.PaymentID)
	assert.Len(t, f.booster.calls, 1, "side effect must not be reapplied")

	require.Len(t, f.dispatcher.byType(events.EventPaymentSettled), 1)
}

func TestConfirmPaymentSubscriptionActivatesPremium(t *testing.T) {
	f := newPaymentFixture()
	user := f.users.seed(domain.User{Email: "alice@example.com", Role: domain.UserRoleCitizen})
	session := f.paidSession(map[string]string{"user_id": user.ID})

	result, err := f.svc.ConfirmPayment(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentTypeSubscription, result.Payment.PaymentType)

	updated, err := f.users.GetByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.True(t, updated.IsPremium)
	assert.NotNil(t, updated.SubscriptionDate)
	assert.Empty(t, f.booster.calls)
}

func TestConfirmPaymentUnpaidSession(t *testing.T) {
	f := newPaymentFixture()
	f.gateway.sessions["cs_unpaid"] = &payments.Session{
		ID:            "cs_unpaid",
		PaymentStatus: "unpaid",
		Metadata:      map[string]string{"user_id": "user-1"},
	}

	_, err := f.svc.ConfirmPayment(context.Background(), "cs_unpaid")
	assert.True(t, apperrors.IsCode(err, "PAYMENT_NOT_COMPLETED"))
	assert.Empty(t, f.booster.calls)
	_, err = f.ledger.GetByPaymentID(context.Background(), "cs_unpaid")
	assert.Error(t, err, "unsettled sessions never reach the ledger")
}

func TestConfirmPaymentMissingUserMetadata(t *testing.T) {
	f := newPaymentFixture()
	session := f.paidSession(map[string]string{})

	_, err := f.svc.ConfirmPayment(context.Background(), session.ID)
	assert.True(t, apperrors.IsCode(err, "INVALID_ARGUMENT"))
}

func TestConfirmPaymentSideEffectFailureKeepsLedgerEntry(t *testing.T) {
	f := newPaymentFixture()
	issueID := "5a2b7c1e-9d64-4a52-9f5c-0d8f3a1b2c3d"
	session := f.paidSession(map[string]string{"user_id": "user-1", "issue_id": issueID})
	f.booster.boostErr = errors.New("store unavailable")

	_, err := f.svc.ConfirmPayment(context.Background(), session.ID)
	require.Error(t, err)

	// The ledger row stays so a retry cannot double-apply; the retry reports
	// the settlement as already processed.
	entry, err := f.ledger.GetByPaymentID(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusSuccess, entry.Status)

	f.booster.boostErr = nil
	retry, err := f.svc.ConfirmPayment(context.Background(), session.ID)
	require.NoError(t, err)
	assert.True(t, retry.AlreadyProcessed)
	assert.Empty(t, f.booster.calls)
}

func TestListForUser(t *testing.T) {
	f := newPaymentFixture()
	session := f.paidSession(map[string]string{"user_id": "user-1"})
	_, err := f.svc.ConfirmPayment(context.Background(), session.ID)
	require.Error(t, err) // premium activation fails for the unseeded user

	entries, err := f.svc.ListForUser(context.Background(), "user-1", 10, 0)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	_, err = f.svc.ListForUser(context.Background(), "", 10, 0)
	assert.True(t, apperrors.IsCode(err, "INVALID_ARGUMENT"))
}
