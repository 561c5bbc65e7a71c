package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"machata/internal/config"
	"machata/internal/database"
	"machata/internal/domain"
	"machata/internal/events"
	"machata/internal/metrics"
	"machata/internal/models"

	"github.com/rs/zerolog"
)

type BookingService struct {
	repo     domain.Repository
	vips     domain.VIPService
	gateway  domain.PaymentGateway
	pricing  *PricingService
	eventBus domain.EventPublisher
	cfg      config.BookingConfig
	services []models.Service
	logger   *zerolog.Logger
}

func NewBookingService(
	repo domain.Repository,
	vips domain.VIPService,
	gateway domain.PaymentGateway,
	pricing *PricingService,
	eventBus domain.EventPublisher,
	cfg config.BookingConfig,
	services []models.Service,
	logger *zerolog.Logger,
) *BookingService {
	return &BookingService{
		repo:     repo,
		vips:     vips,
		gateway:  gateway,
		pricing:  pricing,
		eventBus: eventBus,
		cfg:      cfg,
		services: services,
		logger:   logger,
	}
}

func (s *BookingService) ServiceByKey(key string) (models.Service, error) {
	for _, svc := range s.services {
		if svc.Key == key {
			return svc, nil
		}
	}
	return models.Service{}, fmt.Errorf("unknown service: %s", key)
}

func (s *BookingService) ValidateBookingDate(date string) error {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		return fmt.Errorf("invalid date %q: %w", date, err)
	}

	// сравниваем календарные даты, не моменты времени
	today, _ := time.Parse("2006-01-02", time.Now().Format("2006-01-02"))
	if d.Before(today) {
		return database.ErrPastDate
	}
	if d.After(today.AddDate(0, 0, s.cfg.HorizonDays)) {
		return database.ErrDateTooFar
	}
	for _, off := range s.cfg.OffDays {
		if int(d.Weekday()) == off {
			return database.ErrDayOff
		}
	}

	return nil
}

// AvailableDates даты в горизонте бронирования без выходных студии.
func (s *BookingService) AvailableDates() []string {
	var dates []string
	now := time.Now()
	for i := 0; i < s.cfg.HorizonDays; i++ {
		d := now.AddDate(0, 0, i)
		if s.isDayOff(d) {
			continue
		}
		// сегодня показываем, только если еще остались рабочие часы
		if i == 0 && now.Hour() >= s.cfg.WorkHourEnd-1 {
			continue
		}
		dates = append(dates, d.Format("2006-01-02"))
	}
	return dates
}

func (s *BookingService) isDayOff(d time.Time) bool {
	for _, off := range s.cfg.OffDays {
		if int(d.Weekday()) == off {
			return true
		}
	}
	return false
}

// BookedHours занятые часы даты для услуги (активные брони).
func (s *BookingService) BookedHours(ctx context.Context, date, service string) (map[int]bool, error) {
	return s.repo.GetBookedHours(ctx, date, service)
}

// AvailableHours свободные часы даты для услуги в рабочем окне.
// Для сегодняшней даты уже прошедшие часы не предлагаются.
func (s *BookingService) AvailableHours(ctx context.Context, date, service string) ([]int, error) {
	if err := s.ValidateBookingDate(date); err != nil {
		return nil, err
	}

	booked, err := s.repo.GetBookedHours(ctx, date, service)
	if err != nil {
		return nil, err
	}

	minHour := s.cfg.WorkHourStart
	if date == time.Now().Format("2006-01-02") && time.Now().Hour()+1 > minHour {
		minHour = time.Now().Hour() + 1
	}

	var hours []int
	for h := minHour; h < s.cfg.WorkHourEnd; h++ {
		if !booked[h] {
			hours = append(hours, h)
		}
	}
	return hours, nil
}

// Quote считает цену по черновику с учетом VIP-статуса пользователя.
func (s *BookingService) Quote(ctx context.Context, draft *models.BookingDraft, userID int64) (Quote, error) {
	svc, err := s.ServiceByKey(draft.Service)
	if err != nil {
		return Quote{}, err
	}

	vip, err := s.vips.GetVIP(ctx, userID)
	if err != nil {
		// реестр недоступен, считаем без скидки
		s.logger.Warn().Err(err).Int64("user_id", userID).Msg("vip lookup failed, pricing without discount")
		vip = nil
	}

	return s.pricing.Calculate(svc, len(draft.SelectedTimes), vip), nil
}

// FinalizeBooking резервирует слоты, регистрирует платеж в шлюзе и
// возвращает бронь со ссылкой на оплату. Если шлюз недоступен, бронь
// откатывается и слоты освобождаются.
func (s *BookingService) FinalizeBooking(ctx context.Context, draft *models.BookingDraft, userID int64) (*models.Booking, error) {
	svc, err := s.ServiceByKey(draft.Service)
	if err != nil {
		return nil, err
	}
	if err := s.ValidateBookingDate(draft.Date); err != nil {
		return nil, err
	}
	if len(draft.SelectedTimes) == 0 {
		return nil, database.ErrNoTimes
	}

	quote, err := s.Quote(ctx, draft, userID)
	if err != nil {
		return nil, err
	}
	if quote.Final <= 0 {
		return nil, fmt.Errorf("refusing to create booking with price %d", quote.Final)
	}

	times := append([]int(nil), draft.SelectedTimes...)
	sort.Ints(times)

	booking := &models.Booking{
		UserID:   userID,
		Service:  draft.Service,
		Date:     draft.Date,
		Times:    times,
		Duration: len(times),
		Name:     draft.Name,
		Email:    draft.Email,
		Phone:    draft.Phone,
		Comment:  draft.Comment,
		Price:    quote.Final,
	}

	if err := s.repo.CreateBookingWithLock(ctx, booking); err != nil {
		return nil, err
	}

	description := fmt.Sprintf("%s %s %s", svc.Name, booking.DateDot(), booking.TimeRange())
	p, err := s.gateway.CreatePayment(ctx, booking, description)
	if err != nil {
		s.logger.Error().Err(err).Int64("booking_id", booking.ID).Msg("payment gateway failed, rolling back booking")
		if cancelErr := s.repo.CancelBooking(ctx, booking.ID); cancelErr != nil {
			s.logger.Error().Err(cancelErr).Int64("booking_id", booking.ID).Msg("rollback failed")
		}
		return nil, fmt.Errorf("create payment: %w", err)
	}

	if err := s.repo.SetPaymentInfo(ctx, booking.ID, p.ID, p.ConfirmationURL); err != nil {
		return nil, err
	}
	booking.PaymentID = p.ID
	booking.PaymentURL = p.ConfirmationURL

	metrics.IncBookingCreated()
	s.publishEvent(events.EventBookingCreated, booking)

	return booking, nil
}

// CancelBooking отменяет бронь. userID 0 пропускает проверку владельца
// (фоновый воркер и админские сценарии).
func (s *BookingService) CancelBooking(ctx context.Context, bookingID, userID int64) error {
	booking, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return err
	}
	if userID != 0 && booking.UserID != userID {
		return database.ErrBookingNotFound
	}

	if err := s.repo.CancelBooking(ctx, bookingID); err != nil {
		return err
	}

	booking.Status = models.StatusCancelled
	s.publishEvent(events.EventBookingCancelled, booking)
	return nil
}

func (s *BookingService) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	return s.repo.GetBooking(ctx, id)
}

func (s *BookingService) GetUserBookings(ctx context.Context, userID int64) ([]*models.Booking, error) {
	return s.repo.GetUserBookings(ctx, userID)
}

func (s *BookingService) GetBookingsByDateRange(ctx context.Context, startDate, endDate string) ([]*models.Booking, error) {
	return s.repo.GetBookingsByDateRange(ctx, startDate, endDate)
}

func (s *BookingService) GetDailyBookings(ctx context.Context, startDate, endDate string) (map[string][]*models.Booking, error) {
	return s.repo.GetDailyBookings(ctx, startDate, endDate)
}

func (s *BookingService) publishEvent(eventType string, booking *models.Booking) {
	if s.eventBus == nil {
		return
	}

	payload := events.BookingEventPayload{
		BookingID: booking.ID,
		UserID:    booking.UserID,
		Service:   booking.Service,
		Date:      booking.Date,
		Times:     booking.Times,
		Price:     booking.Price,
		Status:    booking.Status,
		PaymentID: booking.PaymentID,
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("booking_id", booking.ID).Msg("publish event error")
	}
}
