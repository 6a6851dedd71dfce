package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/JFernandezWeb/LumenLMS/internal/pkg/env"
)

const defaultPayPalAPIBaseURL = "https://api-m.paypal.com"

type PayPalClient struct {
	ClientID     string
	ClientSecret string
	WebhookID    string

	APIBaseURL string

	// EnforceWebhookVerification gates webhook acceptance on a passed
	// signature check. The log-only mode exists for legacy deployments
	// and is deprecated; NewPayPalClientFromEnv warns when it is on.
	EnforceWebhookVerification bool

	HTTPClient *http.Client
}

type PayPalOrder struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	Links    []PayPalLink
	CustomID string
	Amount   string
	Currency string
}

type PayPalLink struct {
	Href   string `json:"href"`
	Rel    string `json:"rel"`
	Method string `json:"method"`
}

// PayPalCapture is the capture inside an order capture response.
type PayPalCapture struct {
	OrderID   string
	CaptureID string
	Status    string
	CustomID  string
	Amount    string
	Currency  string
}

func NewPayPalClientFromEnv() *PayPalClient {
	enforce := strings.TrimSpace(env.GetEnv("PAYPAL_WEBHOOK_ENFORCE", "true")) != "false"
	if !enforce {
		log.Warn("[PayPal] PAYPAL_WEBHOOK_ENFORCE=false is deprecated; webhook signatures are logged but not enforced")
	}
	return &PayPalClient{
		ClientID:                   strings.TrimSpace(env.GetEnv("PAYPAL_CLIENT_ID", "")),
		ClientSecret:               strings.TrimSpace(env.GetEnv("PAYPAL_CLIENT_SECRET", "")),
		WebhookID:                  strings.TrimSpace(env.GetEnv("PAYPAL_WEBHOOK_ID", "")),
		APIBaseURL:                 strings.TrimSpace(env.GetEnv("PAYPAL_API_BASE_URL", defaultPayPalAPIBaseURL)),
		EnforceWebhookVerification: enforce,
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// AccessToken fetches a client-credentials OAuth token.
func (c *PayPalClient) AccessToken(ctx context.Context) (string, error) {
	if strings.TrimSpace(c.ClientID) == "" || strings.TrimSpace(c.ClientSecret) == "" {
		return "", errors.New("PAYPAL_CLIENT_ID/PAYPAL_CLIENT_SECRET are not configured")
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")

	baseURL := strings.TrimRight(c.APIBaseURL, "/")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/v1/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(c.ClientID, c.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("paypal token request failed: status=%d body=%s", resp.StatusCode, string(body))
	}

	var out struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", err
	}
	if strings.TrimSpace(out.AccessToken) == "" {
		return "", errors.New("paypal token response missing access_token")
	}
	return out.AccessToken, nil
}

// CreateOrder opens a one-course order. The buyer and course ids are
// packed into the purchase unit's custom_id so the capture webhook
// can reconstruct the enrollment target.
func (c *PayPalClient) CreateOrder(ctx context.Context, amount, currency string, userID, courseID uint64) (*PayPalOrder, error) {
	token, err := c.AccessToken(ctx)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(amount) == "" || strings.TrimSpace(currency) == "" {
		return nil, errors.New("amount and currency are required")
	}

	payload := map[string]interface{}{
		"intent": "CAPTURE",
		"purchase_units": []map[string]interface{}{
			{
				"custom_id": FormatPayPalCustomID(userID, courseID),
				"amount": map[string]string{
					"currency_code": strings.ToUpper(strings.TrimSpace(currency)),
					"value":         strings.TrimSpace(amount),
				},
			},
		},
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	baseURL := strings.TrimRight(c.APIBaseURL, "/")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/v2/checkout/orders", bytes.NewReader(encoded))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("paypal create order failed: status=%d body=%s", resp.StatusCode, string(body))
	}

	var raw struct {
		ID     string       `json:"id"`
		Status string       `json:"status"`
		Links  []PayPalLink `json:"links"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, err
	}
	if strings.TrimSpace(raw.ID) == "" {
		return nil, errors.New("paypal order response missing id")
	}
	return &PayPalOrder{
		ID:       raw.ID,
		Status:   raw.Status,
		Links:    raw.Links,
		CustomID: FormatPayPalCustomID(userID, courseID),
		Amount:   amount,
		Currency: currency,
	}, nil
}

// CaptureOrder captures an approved order and returns the completed
// capture. Used for synchronous confirmation after buyer approval.
func (c *PayPalClient) CaptureOrder(ctx context.Context, orderID string) (*PayPalCapture, error) {
	token, err := c.AccessToken(ctx)
	if err != nil {
		return nil, err
	}
	id := strings.TrimSpace(orderID)
	if id == "" {
		return nil, errors.New("order id is required")
	}

	baseURL := strings.TrimRight(c.APIBaseURL, "/")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/v2/checkout/orders/"+url.PathEscape(id)+"/capture", strings.NewReader("{}"))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("paypal capture failed: status=%d body=%s", resp.StatusCode, string(body))
	}

	var raw struct {
		ID            string `json:"id"`
		Status        string `json:"status"`
		PurchaseUnits []struct {
			Payments struct {
				Captures []struct {
					ID       string `json:"id"`
					Status   string `json:"status"`
					CustomID string `json:"custom_id"`
					Amount   struct {
						CurrencyCode string `json:"currency_code"`
						Value        string `json:"value"`
					} `json:"amount"`
				} `json:"captures"`
			} `json:"payments"`
		} `json:"purchase_units"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, err
	}
	if len(raw.PurchaseUnits) == 0 || len(raw.PurchaseUnits[0].Payments.Captures) == 0 {
		return nil, errors.New("paypal capture response missing captures")
	}

	capture := raw.PurchaseUnits[0].Payments.Captures[0]
	return &PayPalCapture{
		OrderID:   raw.ID,
		CaptureID: capture.ID,
		Status:    capture.Status,
		CustomID:  capture.CustomID,
		Amount:    capture.Amount.Value,
		Currency:  capture.Amount.CurrencyCode,
	}, nil
}

// WebhookVerificationInput is the header set PayPal signs deliveries
// with, plus the raw event body.
type WebhookVerificationInput struct {
	TransmissionID   string
	TransmissionTime string
	TransmissionSig  string
	CertURL          string
	AuthAlgo         string
	Event            json.RawMessage
}

// VerifyWebhookSignature asks PayPal's verification API whether a
// delivery is authentic. Returns true only on an explicit SUCCESS.
func (c *PayPalClient) VerifyWebhookSignature(ctx context.Context, input WebhookVerificationInput) (bool, error) {
	if strings.TrimSpace(c.WebhookID) == "" {
		return false, errors.New("PAYPAL_WEBHOOK_ID is not configured")
	}
	token, err := c.AccessToken(ctx)
	if err != nil {
		return false, err
	}

	payload := map[string]interface{}{
		"transmission_id":   input.TransmissionID,
		"transmission_time": input.TransmissionTime,
		"transmission_sig":  input.TransmissionSig,
		"cert_url":          input.CertURL,
		"auth_algo":         input.AuthAlgo,
		"webhook_id":        c.WebhookID,
		"webhook_event":     input.Event,
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return false, err
	}

	baseURL := strings.TrimRight(c.APIBaseURL, "/")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/v1/notifications/verify-webhook-signature", bytes.NewReader(encoded))
	if err != nil {
		return false, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false, fmt.Errorf("paypal signature verification failed: status=%d body=%s", resp.StatusCode, string(body))
	}

	var out struct {
		VerificationStatus string `json:"verification_status"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return false, err
	}
	return out.VerificationStatus == "SUCCESS", nil
}
