package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/spec-kit/civic-issue-service/internal/config"
	apperrors "github.com/spec-kit/civic-issue-service/pkg/util"
)

// StripeClient talks to the Stripe Checkout REST API. Requests are
// form-encoded per the Stripe wire protocol.
type StripeClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewStripeClient constructs the client from config.
func NewStripeClient(cfg config.PaymentsConfig) *StripeClient {
	return &StripeClient{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(cfg.APIBaseURL, "/"),
		client:  &http.Client{Timeout: cfg.Timeout()},
	}
}

type sessionPayload struct {
	ID            string            `json:"id"`
	URL           string            `json:"url"`
	PaymentStatus string            `json:"payment_status"`
	AmountTotal   int64             `json:"amount_total"`
	Currency      string            `json:"currency"`
	Metadata      map[string]string `json:"metadata"`
}

// CreateCheckoutSession mints a hosted checkout session for a fixed-price
// product and returns its redirect URL.
func (c *StripeClient) CreateCheckoutSession(ctx context.Context, input CreateSessionInput) (*Session, error) {
	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("success_url", input.SuccessURL)
	form.Set("cancel_url", input.CancelURL)
	form.Set("line_items[0][quantity]", "1")
	form.Set("line_items[0][price_data][currency]", input.Currency)
	form.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(input.Amount, 10))
	form.Set("line_items[0][price_data][product_data][name]", input.ProductName)
	for key, val := range input.Metadata {
		form.Set(fmt.Sprintf("metadata[%s]", key), val)
	}

	return c.do(ctx, http.MethodPost, "/v1/checkout/sessions", strings.NewReader(form.Encode()))
}

// RetrieveSession fetches the settlement state of an existing session.
func (c *StripeClient) RetrieveSession(ctx context.Context, sessionID string) (*Session, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, apperrors.NewInvalidArgument("session id required", nil)
	}
	return c.do(ctx, http.MethodGet, "/v1/checkout/sessions/"+url.PathEscape(sessionID), nil)
}

func (c *StripeClient) do(ctx context.Context, method, path string, body io.Reader) (*Session, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, apperrors.NewDependencyUnavailable("payment gateway", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.NewDependencyUnavailable("payment gateway", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, apperrors.NewNotFound("checkout session", nil)
	}
	if resp.StatusCode >= 400 {
		return nil, apperrors.NewDependencyUnavailable("payment gateway",
			fmt.Errorf("gateway returned %d: %s", resp.StatusCode, truncate(string(raw), 200)))
	}

	var payload sessionPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, apperrors.NewDependencyUnavailable("payment gateway", err)
	}
	return &Session{
		ID:            payload.ID,
		URL:           payload.URL,
		PaymentStatus: payload.PaymentStatus,
		AmountTotal:   payload.AmountTotal,
		Currency:      payload.Currency,
		Metadata:      payload.Metadata,
	}, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
