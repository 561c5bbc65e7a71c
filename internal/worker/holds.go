package worker

import (
	"context"
	"time"

	"machata/internal/events"
	"machata/internal/metrics"
	"machata/internal/models"

	"github.com/rs/zerolog"
)

// BookingStore минимум хранилища, нужный воркеру.
type BookingStore interface {
	GetStaleHolds(ctx context.Context, olderThan time.Duration) ([]*models.Booking, error)
	CancelBooking(ctx context.Context, id int64) error
}

// Reconciler сверяет платеж брони со шлюзом.
type Reconciler interface {
	PollPayment(ctx context.Context, booking *models.Booking) (bool, error)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// HoldsWorker снимает удержание слотов с неоплаченных броней.
// Перед отменой бронь сверяется со шлюзом: оплата могла пройти,
// а webhook потеряться.
type HoldsWorker struct {
	store      BookingStore
	reconciler Reconciler
	eventBus   EventPublisher
	holdTTL    time.Duration
	interval   time.Duration
	retry      RetryPolicy
	logger     *zerolog.Logger
}

func NewHoldsWorker(store BookingStore, reconciler Reconciler, eventBus EventPublisher, holdTTL time.Duration, logger *zerolog.Logger) *HoldsWorker {
	if holdTTL <= 0 {
		holdTTL = models.DefaultHoldMinutes * time.Minute
	}
	return &HoldsWorker{
		store:      store,
		reconciler: reconciler,
		eventBus:   eventBus,
		holdTTL:    holdTTL,
		interval:   time.Minute,
		retry: RetryPolicy{
			MaxRetries:    3,
			InitialDelay:  2 * time.Second,
			MaxDelay:      30 * time.Second,
			BackoffFactor: 2,
		},
		logger: logger,
	}
}

func (w *HoldsWorker) Start(ctx context.Context) {
	w.logger.Info().
		Dur("hold_ttl", w.holdTTL).
		Dur("interval", w.interval).
		Msg("Holds worker started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("Holds worker stopped")
			return
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

func (w *HoldsWorker) runOnce(ctx context.Context) {
	holds, err := w.store.GetStaleHolds(ctx, w.holdTTL)
	if err != nil {
		w.logger.Error().Err(err).Msg("failed to list stale holds")
		return
	}

	for _, booking := range holds {
		w.processHold(ctx, booking)
	}
}

func (w *HoldsWorker) processHold(ctx context.Context, booking *models.Booking) {
	paid, err := w.pollWithRetry(ctx, booking)
	if err != nil {
		// шлюз недоступен, бронь не трогаем до следующего цикла
		w.logger.Error().Err(err).Int64("booking_id", booking.ID).Msg("gateway poll failed, keeping hold")
		return
	}
	if paid {
		w.logger.Info().Int64("booking_id", booking.ID).Msg("payment found on poll, hold released as paid")
		return
	}

	if err := w.store.CancelBooking(ctx, booking.ID); err != nil {
		w.logger.Error().Err(err).Int64("booking_id", booking.ID).Msg("failed to cancel expired hold")
		return
	}

	metrics.IncHoldExpired()
	w.logger.Info().
		Int64("booking_id", booking.ID).
		Str("date", booking.Date).
		Msg("Expired hold cancelled, slots released")

	if w.eventBus != nil {
		_ = w.eventBus.PublishJSON(events.EventHoldExpired, events.BookingEventPayload{
			BookingID: booking.ID,
			UserID:    booking.UserID,
			Service:   booking.Service,
			Date:      booking.Date,
			Times:     booking.Times,
			Price:     booking.Price,
			Status:    models.StatusCancelled,
		})
	}
}

func (w *HoldsWorker) pollWithRetry(ctx context.Context, booking *models.Booking) (bool, error) {
	var paid bool
	var err error

	for attempt := 1; attempt <= w.retry.MaxRetries; attempt++ {
		paid, err = w.reconciler.PollPayment(ctx, booking)
		if err == nil {
			return paid, nil
		}

		delay := w.retry.NextDelay(attempt)
		w.logger.Warn().
			Err(err).
			Int64("booking_id", booking.ID).
			Int("attempt", attempt).
			Dur("retry_in", delay).
			Msg("gateway poll attempt failed")

		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(delay):
		}
	}
	return false, err
}
