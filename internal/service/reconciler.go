package service

import (
	"context"
	"errors"
	"fmt"

	"machata/internal/database"
	"machata/internal/domain"
	"machata/internal/events"
	"machata/internal/metrics"
	"machata/internal/models"

	"github.com/rs/zerolog"
)

// ReconcilerService сводит статусы платежей шлюза со статусами броней.
// Работает из двух источников: webhook и фоновый опрос просроченных
// удержаний. Оба пути идемпотентны.
type ReconcilerService struct {
	repo     domain.Repository
	gateway  domain.PaymentGateway
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
}

func NewReconcilerService(repo domain.Repository, gateway domain.PaymentGateway, eventBus domain.EventPublisher, logger *zerolog.Logger) *ReconcilerService {
	return &ReconcilerService{
		repo:     repo,
		gateway:  gateway,
		eventBus: eventBus,
		logger:   logger,
	}
}

// HandleSucceededPayment отмечает бронь оплаченной по событию шлюза.
// Бронь ищется по booking_id из metadata, при его отсутствии по id
// платежа. Повторная доставка того же события не меняет состояние.
func (s *ReconcilerService) HandleSucceededPayment(ctx context.Context, paymentID string, bookingID int64) error {
	var booking *models.Booking
	var err error

	if bookingID > 0 {
		booking, err = s.repo.GetBooking(ctx, bookingID)
	} else {
		booking, err = s.repo.GetBookingByPaymentID(ctx, paymentID)
	}
	if err != nil {
		return err
	}

	// защита от чужого платежа с валидным booking_id в metadata
	if booking.PaymentID != "" && paymentID != "" && booking.PaymentID != paymentID {
		return fmt.Errorf("payment id mismatch for booking %d: got %s, want %s",
			booking.ID, paymentID, booking.PaymentID)
	}

	err = s.repo.MarkPaid(ctx, booking.ID)
	if errors.Is(err, database.ErrAlreadyPaid) {
		s.logger.Info().Int64("booking_id", booking.ID).Msg("duplicate payment notification ignored")
		return nil
	}
	if err != nil {
		return err
	}

	metrics.IncBookingPaid()
	s.logger.Info().
		Int64("booking_id", booking.ID).
		Str("payment_id", paymentID).
		Msg("Booking marked as paid")

	if s.eventBus != nil {
		_ = s.eventBus.PublishJSON(events.EventBookingPaid, events.BookingEventPayload{
			BookingID: booking.ID,
			UserID:    booking.UserID,
			Service:   booking.Service,
			Date:      booking.Date,
			Times:     booking.Times,
			Price:     booking.Price,
			Status:    models.StatusPaid,
			PaymentID: paymentID,
		})
	}
	return nil
}

// PollPayment опрашивает шлюз по платежу брони. Возвращает true, если
// платеж прошел и бронь отмечена оплаченной.
func (s *ReconcilerService) PollPayment(ctx context.Context, booking *models.Booking) (bool, error) {
	if booking.PaymentID == "" {
		return false, nil
	}

	p, err := s.gateway.GetPayment(ctx, booking.PaymentID)
	if err != nil {
		return false, err
	}
	if !p.Succeeded() {
		return false, nil
	}

	if err := s.HandleSucceededPayment(ctx, booking.PaymentID, booking.ID); err != nil {
		return false, err
	}
	return true, nil
}
