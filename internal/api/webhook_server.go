package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"machata/internal/config"
	"machata/internal/database"
	"machata/internal/domain"
	"machata/internal/metrics"
	"machata/internal/payment"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const maxNotificationBytes = 1 << 20

// WebhookServer принимает уведомления платежного шлюза.
// Шлюз повторяет доставку, пока не получит 2xx, поэтому все
// ошибки обработки отдаются не-2xx статусом.
type WebhookServer struct {
	cfg        config.WebhookConfig
	reconciler domain.PaymentReconciler
	limiter    *rate.Limiter
	server     *http.Server
	logger     *zerolog.Logger
}

func NewWebhookServer(cfg config.WebhookConfig, reconciler domain.PaymentReconciler, logger *zerolog.Logger) *WebhookServer {
	srv := &WebhookServer{
		cfg:        cfg,
		reconciler: reconciler,
		logger:     logger,
	}

	rps := cfg.RPS
	if rps <= 0 {
		rps = 10
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = int(2 * rps)
	}
	srv.limiter = rate.NewLimiter(rate.Limit(rps), burst)

	mux := http.NewServeMux()
	mux.HandleFunc("/payment", srv.handlePaymentNotification)
	mux.HandleFunc("/healthz", srv.handleHealth)

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           srv.loggingMiddleware(mux),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	return srv
}

func (s *WebhookServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("webhook server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("Webhook server listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *WebhookServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *WebhookServer) handlePaymentNotification(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("payment")

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if !s.limiter.Allow() {
		writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxNotificationBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read body")
		return
	}

	event, pay, err := payment.ParseNotification(body)
	if err != nil {
		s.logger.Warn().Err(err).Msg("malformed payment notification")
		writeError(w, http.StatusBadRequest, "invalid notification")
		return
	}

	if event != payment.EventPaymentSucceeded {
		// нас интересует только факт оплаты
		s.logger.Debug().Str("event", event).Str("payment_id", pay.ID).Msg("notification ignored")
		writeJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}

	if err := s.reconciler.HandleSucceededPayment(r.Context(), pay.ID, pay.BookingID); err != nil {
		if errors.Is(err, database.ErrBookingNotFound) {
			// шлюз повторит доставку, бронь может еще не закоммититься
			writeError(w, http.StatusNotFound, "booking not found")
			return
		}
		s.logger.Error().Err(err).Str("payment_id", pay.ID).Int64("booking_id", pay.BookingID).Msg("failed to process payment notification")
		writeError(w, http.StatusInternalServerError, "processing failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *WebhookServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("healthz")

	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *WebhookServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		s.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
