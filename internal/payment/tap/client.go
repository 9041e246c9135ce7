// Package tap talks to the Tap Payments REST API.
package tap

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"marketplace/internal/payment"

	"github.com/tidwall/gjson"
)

const defaultTimeout = 15 * time.Second

var ErrMissingSecretKey = errors.New("missing Tap secret key")

var _ payment.Gateway = (*Client)(nil)

// APIError is a non-2xx answer from Tap.
type APIError struct {
	StatusCode  int
	Code        string
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("tap: %d %s: %s", e.StatusCode, e.Code, e.Description)
}

type Client struct {
	baseURL     string
	secretKey   string
	redirectURL string
	webhookURL  string
	http        *http.Client
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func NewClient(baseURL, secretKey, redirectURL, webhookURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		secretKey:   secretKey,
		redirectURL: redirectURL,
		webhookURL:  webhookURL,
		http:        &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type urlRef struct {
	URL string `json:"url"`
}

type chargeBody struct {
	Amount       json.Number       `json:"amount"`
	Currency     string            `json:"currency"`
	ThreeDSecure bool              `json:"threeDSecure"`
	SaveCard     bool              `json:"save_card"`
	Description  string            `json:"description,omitempty"`
	Reference    map[string]string `json:"reference"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	Customer     customer          `json:"customer"`
	Source       map[string]string `json:"source"`
	Post         *urlRef           `json:"post,omitempty"`
	Redirect     *urlRef           `json:"redirect,omitempty"`
}

type customer struct {
	FirstName string `json:"first_name"`
	Email     string `json:"email,omitempty"`
}

type refundBody struct {
	ChargeID  string            `json:"charge_id"`
	Amount    json.Number       `json:"amount"`
	Currency  string            `json:"currency"`
	Reason    string            `json:"reason"`
	Reference map[string]string `json:"reference"`
	Post      *urlRef           `json:"post,omitempty"`
}

func (c *Client) CreateCharge(ctx context.Context, req payment.ChargeRequest) (*payment.Charge, error) {
	body := chargeBody{
		Amount:       json.Number(req.Amount.StringFixed(2)),
		Currency:     req.Currency,
		ThreeDSecure: true,
		Description:  req.Description,
		Reference:    map[string]string{"transaction": req.Reference, "order": req.Reference},
		Metadata:     req.Metadata,
		Customer:     customer{FirstName: req.Customer.Name, Email: req.Customer.Email},
		Source:       map[string]string{"id": "src_all"},
	}
	if c.webhookURL != "" {
		body.Post = &urlRef{URL: c.webhookURL}
	}
	if c.redirectURL != "" {
		body.Redirect = &urlRef{URL: c.redirectURL}
	}

	res, err := c.post(ctx, "/charges", body)
	if err != nil {
		return nil, err
	}

	return &payment.Charge{
		ID:             res.Get("id").String(),
		Status:         res.Get("status").String(),
		TransactionURL: res.Get("transaction.url").String(),
	}, nil
}

func (c *Client) CreateRefund(ctx context.Context, req payment.RefundRequest) (*payment.Refund, error) {
	reason := req.Reason
	if reason == "" {
		reason = "requested_by_customer"
	}

	body := refundBody{
		ChargeID:  req.ChargeID,
		Amount:    json.Number(req.Amount.StringFixed(2)),
		Currency:  req.Currency,
		Reason:    reason,
		Reference: map[string]string{"merchant": req.Reference},
	}
	if c.webhookURL != "" {
		body.Post = &urlRef{URL: c.webhookURL}
	}

	res, err := c.post(ctx, "/refunds", body)
	if err != nil {
		return nil, err
	}

	return &payment.Refund{
		ID:     res.Get("id").String(),
		Status: res.Get("status").String(),
	}, nil
}

func (c *Client) post(ctx context.Context, path string, payload interface{}) (gjson.Result, error) {
	if c.secretKey == "" {
		return gjson.Result{}, ErrMissingSecretKey
	}

	buf, err := json.Marshal(payload)
	if err != nil {
		return gjson.Result{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(buf))
	if err != nil {
		return gjson.Result{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("tap %s: %w", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("tap %s: read body: %w", path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return gjson.Result{}, &APIError{
			StatusCode:  resp.StatusCode,
			Code:        gjson.GetBytes(raw, "errors.0.code").String(),
			Description: gjson.GetBytes(raw, "errors.0.description").String(),
		}
	}

	if !gjson.ValidBytes(raw) {
		return gjson.Result{}, fmt.Errorf("tap %s: invalid JSON response", path)
	}
	res := gjson.ParseBytes(raw)
	if res.Get("id").String() == "" {
		return gjson.Result{}, fmt.Errorf("tap %s: response without id", path)
	}
	return res, nil
}
