// Package paymentprovider клиент hosted checkout платёжного провайдера
// (Stripe-совместимый API сессий оплаты).
package paymentprovider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// CheckoutRequest параметры сессии оплаты подписки.
type CheckoutRequest struct {
	PriceID    string
	SuccessURL string
	CancelURL  string
	UserID     int64
	PlanID     int64
}

// CheckoutSession созданная у провайдера сессия оплаты.
type CheckoutSession struct {
	ID            string `json:"id"`
	URL           string `json:"url"`
	PaymentIntent string `json:"payment_intent"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

type Client struct {
	secretKey  string
	apiURL     string
	httpClient *http.Client
}

// NewClient создаёт клиент провайдера с ключом secretKey.
func NewClient(secretKey, apiURL string) *Client {
	return &Client{
		secretKey:  secretKey,
		apiURL:     strings.TrimRight(apiURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, form url.Values) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.apiURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req, nil
}

// CreateCheckoutSession создаёт сессию оплаты в режиме подписки. В metadata
// сессии передаются user_id и plan_id, которые вернутся в вебхуке.
func (c *Client) CreateCheckoutSession(ctx context.Context, r CheckoutRequest) (*CheckoutSession, error) {
	const op = "paymentprovider.CreateCheckoutSession"

	form := url.Values{}
	form.Set("mode", "subscription")
	form.Set("line_items[0][price]", r.PriceID)
	form.Set("line_items[0][quantity]", "1")
	form.Set("success_url", r.SuccessURL)
	form.Set("cancel_url", r.CancelURL)
	form.Set("metadata[user_id]", strconv.FormatInt(r.UserID, 10))
	form.Set("metadata[plan_id]", strconv.FormatInt(r.PlanID, 10))

	req, err := c.newRequest(ctx, http.MethodPost, "/v1/checkout/sessions", form)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		var apiErr apiError
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
			return nil, fmt.Errorf("%s: unexpected status %s: %s", op, resp.Status, apiErr.Error.Message)
		}
		return nil, fmt.Errorf("%s: unexpected status %s", op, resp.Status)
	}

	var session CheckoutSession
	if err := json.Unmarshal(body, &session); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if session.ID == "" || session.URL == "" {
		return nil, fmt.Errorf("%s: provider returned incomplete session", op)
	}
	return &session, nil
}
