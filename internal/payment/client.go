package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"machata/internal/config"
	"machata/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Client клиент API ЮKassa. Все запросы идут с Basic-авторизацией
// магазина и ключом идемпотентности.
type Client struct {
	shopID     string
	secretKey  string
	baseURL    string
	returnURL  string
	currency   string
	httpClient *http.Client
	logger     *zerolog.Logger
}

func NewClient(cfg config.PaymentConfig, logger *zerolog.Logger) *Client {
	return &Client{
		shopID:    cfg.ShopID,
		secretKey: cfg.SecretKey,
		baseURL:   cfg.BaseURL,
		returnURL: cfg.ReturnURL,
		currency:  cfg.Currency,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		logger: logger,
	}
}

type amount struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

type createPaymentRequest struct {
	Amount       amount            `json:"amount"`
	Capture      bool              `json:"capture"`
	Confirmation confirmationReq   `json:"confirmation"`
	Description  string            `json:"description"`
	Metadata     map[string]string `json:"metadata"`
	Receipt      *receipt          `json:"receipt,omitempty"`
}

type confirmationReq struct {
	Type      string `json:"type"`
	ReturnURL string `json:"return_url"`
}

type receipt struct {
	Customer receiptCustomer `json:"customer"`
	Items    []receiptItem   `json:"items"`
}

type receiptCustomer struct {
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

type receiptItem struct {
	Description    string `json:"description"`
	Quantity       string `json:"quantity"`
	Amount         amount `json:"amount"`
	VatCode        int    `json:"vat_code"`
	PaymentSubject string `json:"payment_subject"`
	PaymentMode    string `json:"payment_mode"`
}

type paymentResponse struct {
	ID           string            `json:"id"`
	Status       string            `json:"status"`
	Paid         bool              `json:"paid"`
	Confirmation *confirmationResp `json:"confirmation,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

type confirmationResp struct {
	Type            string `json:"type"`
	ConfirmationURL string `json:"confirmation_url"`
}

// CreatePayment регистрирует платеж в шлюзе и возвращает ссылку
// на страницу оплаты. booking_id уходит в metadata и возвращается
// в webhook-уведомлении.
func (c *Client) CreatePayment(ctx context.Context, booking *models.Booking, description string) (*models.Payment, error) {
	reqBody := createPaymentRequest{
		Amount: amount{
			Value:    formatRub(booking.Price),
			Currency: c.currency,
		},
		Capture: true,
		Confirmation: confirmationReq{
			Type:      "redirect",
			ReturnURL: c.returnURL,
		},
		Description: description,
		Metadata: map[string]string{
			"booking_id": strconv.FormatInt(booking.ID, 10),
		},
		Receipt: &receipt{
			Customer: receiptCustomer{
				Email: booking.Email,
				Phone: booking.Phone,
			},
			Items: []receiptItem{
				{
					Description:    description,
					Quantity:       "1",
					Amount:         amount{Value: formatRub(booking.Price), Currency: c.currency},
					VatCode:        1,
					PaymentSubject: "service",
					PaymentMode:    "full_payment",
				},
			},
		},
	}

	data, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payment request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/payments", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to build payment request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotence-Key", uuid.NewString())
	req.SetBasicAuth(c.shopID, c.secretKey)

	return c.do(req)
}

// GetPayment опрашивает статус платежа.
func (c *Client) GetPayment(ctx context.Context, paymentID string) (*models.Payment, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/payments/"+paymentID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build payment status request: %w", err)
	}
	req.SetBasicAuth(c.shopID, c.secretKey)

	return c.do(req)
}

func (c *Client) do(req *http.Request) (*models.Payment, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("payment gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read gateway response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error().
			Int("status", resp.StatusCode).
			Str("body", string(body)).
			Msg("Payment gateway returned error")
		return nil, fmt.Errorf("payment gateway returned status %d", resp.StatusCode)
	}

	var parsed paymentResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode gateway response: %w", err)
	}

	return parsed.toModel(), nil
}

func (p *paymentResponse) toModel() *models.Payment {
	payment := &models.Payment{
		ID:     p.ID,
		Status: p.Status,
		Paid:   p.Paid,
	}
	if p.Confirmation != nil {
		payment.ConfirmationURL = p.Confirmation.ConfirmationURL
	}
	if raw, ok := p.Metadata["booking_id"]; ok {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			payment.BookingID = id
		}
	}
	return payment
}

// Notification тело webhook-уведомления шлюза.
type Notification struct {
	Type   string          `json:"type"`
	Event  string          `json:"event"`
	Object paymentResponse `json:"object"`
}

const EventPaymentSucceeded = "payment.succeeded"

// ParseNotification разбирает webhook и возвращает событие с платежом.
func ParseNotification(data []byte) (string, *models.Payment, error) {
	var n Notification
	if err := json.Unmarshal(data, &n); err != nil {
		return "", nil, fmt.Errorf("failed to decode notification: %w", err)
	}
	if n.Event == "" || n.Object.ID == "" {
		return "", nil, fmt.Errorf("notification missing event or payment id")
	}
	return n.Event, n.Object.toModel(), nil
}

// formatRub копейки шлюзу не передаем, цены в целых рублях
func formatRub(price int) string {
	return strconv.Itoa(price) + ".00"
}
