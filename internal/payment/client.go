// Package payment предоставляет клиент платёжного провайдера и проверку подписи платежа.
package payment

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
)

// ErrProvider возвращается, если провайдер недоступен или ответил ошибкой.
var ErrProvider = errors.New("payment provider error")

// DefaultBaseURL задаёт адрес REST API провайдера по умолчанию.
const DefaultBaseURL = "https://api.razorpay.com/v1"

// Client инкапсулирует HTTP-взаимодействие с платёжным провайдером.
type Client struct {
	baseURL    string
	keyID      string
	keySecret  string
	httpClient *http.Client
	now        func() time.Time
}

// Order описывает заказ на стороне провайдера. Сумма указана в минимальных единицах валюты.
type Order struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt,omitempty"`
	Status   string `json:"status,omitempty"`
}

type createOrderRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

// NewClient создаёт клиент провайдера с ключами API.
func NewClient(baseURL, keyID, keySecret string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		keyID:     keyID,
		keySecret: keySecret,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		now: time.Now,
	}
}

// CreateOrder открывает заказ у провайдера на сумму в минимальных единицах и возвращает его описание без изменений.
func (c *Client) CreateOrder(ctx context.Context, amountMinor int64, currency string) (*Order, error) {
	if c == nil || c.baseURL == "" {
		return nil, fmt.Errorf("%w: client not configured", ErrProvider)
	}
	if amountMinor <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive, got %d", ErrProvider, amountMinor)
	}

	base := c.baseURL
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "https://" + base
	}

	payload, err := json.Marshal(createOrderRequest{
		Amount:   amountMinor,
		Currency: currency,
		Receipt:  fmt.Sprintf("receipt_order_%d", c.now().UnixMilli()),
	})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/orders", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.keyID, c.keySecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: do request: %w", ErrProvider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("%w: unexpected status %d: %s", ErrProvider, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var order Order
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return nil, fmt.Errorf("%w: decode response: %w", ErrProvider, err)
	}
	if order.ID == "" {
		return nil, fmt.Errorf("%w: response without order id", ErrProvider)
	}

	return &order, nil
}
