package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/JFernandezWeb/LumenLMS/internal/pkg/env"
)

const defaultStripeAPIBaseURL = "https://api.stripe.com/v1"

type StripeClient struct {
	SecretKey     string
	WebhookSecret string

	APIBaseURL string

	HTTPClient *http.Client
}

type StripePaymentIntent struct {
	ID           string            `json:"id"`
	Status       string            `json:"status"`
	Amount       int64             `json:"amount"`
	Currency     string            `json:"currency"`
	ClientSecret string            `json:"client_secret"`
	Metadata     map[string]string `json:"metadata"`
}

func NewStripeClientFromEnv() *StripeClient {
	return &StripeClient{
		SecretKey:     strings.TrimSpace(env.GetEnv("STRIPE_SECRET_KEY", "")),
		WebhookSecret: strings.TrimSpace(env.GetEnv("STRIPE_WEBHOOK_SECRET", "")),
		APIBaseURL:    strings.TrimSpace(env.GetEnv("STRIPE_API_BASE_URL", defaultStripeAPIBaseURL)),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// CreatePaymentIntent opens a payment for one course purchase. The
// user and course ride along in the metadata bag so the webhook can
// tie the payment back to an enrollment without any server-side state.
func (c *StripeClient) CreatePaymentIntent(ctx context.Context, amountCents int64, currency string, userID, courseID uint64) (*StripePaymentIntent, error) {
	if strings.TrimSpace(c.SecretKey) == "" {
		return nil, errors.New("STRIPE_SECRET_KEY is not configured")
	}
	if amountCents <= 0 {
		return nil, errors.New("amount must be positive")
	}
	if strings.TrimSpace(currency) == "" {
		return nil, errors.New("currency is required")
	}

	form := url.Values{}
	form.Set("amount", strconv.FormatInt(amountCents, 10))
	form.Set("currency", strings.ToLower(strings.TrimSpace(currency)))
	form.Set("metadata[userId]", strconv.FormatUint(userID, 10))
	form.Set("metadata[courseId]", strconv.FormatUint(courseID, 10))
	form.Set("automatic_payment_methods[enabled]", "true")

	return c.doIntentRequest(ctx, http.MethodPost, "/payment_intents", form)
}

// RetrievePaymentIntent fetches the current state of a payment from
// Stripe. Used for synchronous confirmation before any ledger write.
func (c *StripeClient) RetrievePaymentIntent(ctx context.Context, intentID string) (*StripePaymentIntent, error) {
	if strings.TrimSpace(c.SecretKey) == "" {
		return nil, errors.New("STRIPE_SECRET_KEY is not configured")
	}
	id := strings.TrimSpace(intentID)
	if id == "" {
		return nil, errors.New("payment intent id is required")
	}
	return c.doIntentRequest(ctx, http.MethodGet, "/payment_intents/"+url.PathEscape(id), nil)
}

func (c *StripeClient) doIntentRequest(ctx context.Context, method, path string, form url.Values) (*StripePaymentIntent, error) {
	baseURL := strings.TrimRight(c.APIBaseURL, "/")

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.SecretKey)
	req.Header.Set("Accept", "application/json")
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("stripe request failed: status=%d body=%s", resp.StatusCode, string(raw))
	}

	var out StripePaymentIntent
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	if strings.TrimSpace(out.ID) == "" {
		return nil, errors.New("stripe response missing payment intent id")
	}
	return &out, nil
}
