package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/civic-issue-service/internal/api/dto"
	"github.com/spec-kit/civic-issue-service/internal/auth"
	"github.com/spec-kit/civic-issue-service/internal/domain"
	"github.com/spec-kit/civic-issue-service/internal/service"
	apperrors "github.com/spec-kit/civic-issue-service/pkg/util"
)

// PaymentsHandler exposes checkout and settlement confirmation endpoints.
// All routes sit behind the auth middleware; the paying user is always the
// verified identity, never a body field.
type PaymentsHandler struct {
	payments *service.PaymentService
	users    *service.UserService
}

// NewPaymentsHandler constructs the handler.
func NewPaymentsHandler(paymentService *service.PaymentService, userService *service.UserService) *PaymentsHandler {
	return &PaymentsHandler{payments: paymentService, users: userService}
}

// CreateCheckout POST /payments/checkout.
func (h *PaymentsHandler) CreateCheckout(c *fiber.Ctx) error {
	var req dto.CreateCheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewInvalidArgument("invalid payload", nil)
	}

	user, err := h.currentUser(c)
	if err != nil {
		return err
	}

	url, err := h.payments.CreateCheckoutSession(c.UserContext(), req.Kind, req.IssueID, user.ID)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.CheckoutResponse{URL: url}})
}

// ConfirmPayment POST /payments/confirm. Safe to retry: a session that was
// already settled returns 200 with already_processed set instead of
// reapplying the side effect.
func (h *PaymentsHandler) ConfirmPayment(c *fiber.Ctx) error {
	var req dto.ConfirmPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewInvalidArgument("invalid payload", nil)
	}
	if req.SessionID == "" {
		return apperrors.NewInvalidArgument("session_id required", nil)
	}

	result, err := h.payments.ConfirmPayment(c.UserContext(), req.SessionID)
	if err != nil {
		return err
	}

	status := http.StatusCreated
	if result.AlreadyProcessed {
		status = http.StatusOK
	}
	return c.Status(status).JSON(fiber.Map{"data": paymentResponse(result.Payment, result.AlreadyProcessed)})
}

// ListMyPayments GET /payments.
func (h *PaymentsHandler) ListMyPayments(c *fiber.Ctx) error {
	user, err := h.currentUser(c)
	if err != nil {
		return err
	}

	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	entries, err := h.payments.ListForUser(c.UserContext(), user.ID, pageSize, (page-1)*pageSize)
	if err != nil {
		return err
	}

	items := make([]dto.PaymentResponse, 0, len(entries))
	for i := range entries {
		items = append(items, paymentResponse(&entries[i], false))
	}
	return c.JSON(fiber.Map{"data": items})
}

func (h *PaymentsHandler) currentUser(c *fiber.Ctx) (*domain.User, error) {
	email, ok := auth.IdentityFromContext(c)
	if !ok {
		return nil, apperrors.NewUnauthorized("verified identity required")
	}
	return h.users.GetByEmail(c.UserContext(), email)
}

func paymentResponse(payment *domain.Payment, alreadyProcessed bool) dto.PaymentResponse {
	return dto.PaymentResponse{
		PaymentID:        payment.PaymentID,
		IssueID:          payment.IssueID,
		Amount:           payment.Amount,
		Currency:         payment.Currency,
		PaymentType:      payment.PaymentType,
		Status:           string(payment.Status),
		AlreadyProcessed: alreadyProcessed,
		CreatedAt:        payment.CreatedAt,
	}
}
