package payment

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"machata/internal/config"
	"machata/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	logger := zerolog.New(io.Discard)
	return NewClient(config.PaymentConfig{
		ShopID:    "shop-1",
		SecretKey: "secret",
		BaseURL:   srv.URL,
		ReturnURL: "https://t.me/machata_bot",
		Currency:  "RUB",
	}, &logger)
}

func TestCreatePayment(t *testing.T) {
	var gotBody createPaymentRequest

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/payments", r.URL.Path)
		assert.NotEmpty(t, r.Header.Get("Idempotence-Key"))

		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "shop-1", user)
		assert.Equal(t, "secret", pass)

		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "pay-abc",
			"status": "pending",
			"paid": false,
			"confirmation": {"type": "redirect", "confirmation_url": "https://pay.example/abc"},
			"metadata": {"booking_id": "42"}
		}`))
	})

	booking := &models.Booking{
		ID:    42,
		Price: 1890,
		Email: "ivan@example.com",
		Phone: "79991234567",
	}

	p, err := client.CreatePayment(context.Background(), booking, "Репетиция 10:00–13:00")
	require.NoError(t, err)

	assert.Equal(t, "pay-abc", p.ID)
	assert.Equal(t, "https://pay.example/abc", p.ConfirmationURL)
	assert.EqualValues(t, 42, p.BookingID)
	assert.False(t, p.Succeeded())

	assert.Equal(t, "1890.00", gotBody.Amount.Value)
	assert.Equal(t, "RUB", gotBody.Amount.Currency)
	assert.True(t, gotBody.Capture)
	assert.Equal(t, "redirect", gotBody.Confirmation.Type)
	assert.Equal(t, "42", gotBody.Metadata["booking_id"])
	require.NotNil(t, gotBody.Receipt)
	require.Len(t, gotBody.Receipt.Items, 1)
	assert.Equal(t, "1890.00", gotBody.Receipt.Items[0].Amount.Value)
	assert.Equal(t, "ivan@example.com", gotBody.Receipt.Customer.Email)
}

func TestGetPayment(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/payments/pay-abc", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "pay-abc", "status": "succeeded", "paid": true}`))
	})

	p, err := client.GetPayment(context.Background(), "pay-abc")
	require.NoError(t, err)
	assert.True(t, p.Succeeded())
	assert.Equal(t, models.PaymentStatusSucceeded, p.Status)
}

func TestGatewayError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"type": "error", "code": "invalid_credentials"}`))
	})

	_, err := client.GetPayment(context.Background(), "pay-abc")
	assert.ErrorContains(t, err, "status 401")
}

func TestParseNotification(t *testing.T) {
	event, p, err := ParseNotification([]byte(`{
		"type": "notification",
		"event": "payment.succeeded",
		"object": {
			"id": "pay-abc",
			"status": "succeeded",
			"paid": true,
			"metadata": {"booking_id": "7"}
		}
	}`))
	require.NoError(t, err)
	assert.Equal(t, EventPaymentSucceeded, event)
	assert.EqualValues(t, 7, p.BookingID)
	assert.True(t, p.Succeeded())

	_, _, err = ParseNotification([]byte(`{"event": ""}`))
	assert.Error(t, err)

	_, _, err = ParseNotification([]byte(`not json`))
	assert.Error(t, err)
}
