package service

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"machata/internal/config"
	"machata/internal/database"
	"machata/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) GetBookedHours(ctx context.Context, date, service string) (map[int]bool, error) {
	args := m.Called(ctx, date, service)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int]bool), args.Error(1)
}
func (m *mockRepo) CreateBookingWithLock(ctx context.Context, b *models.Booking) error {
	return m.Called(ctx, b).Error(0)
}
func (m *mockRepo) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}
func (m *mockRepo) GetBookingByPaymentID(ctx context.Context, paymentID string) (*models.Booking, error) {
	args := m.Called(ctx, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}
func (m *mockRepo) SetPaymentInfo(ctx context.Context, id int64, paymentID, paymentURL string) error {
	return m.Called(ctx, id, paymentID, paymentURL).Error(0)
}
func (m *mockRepo) MarkPaid(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}
func (m *mockRepo) CancelBooking(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}
func (m *mockRepo) GetStaleHolds(ctx context.Context, olderThan time.Duration) ([]*models.Booking, error) {
	args := m.Called(ctx, olderThan)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Booking), args.Error(1)
}
func (m *mockRepo) GetUserBookings(ctx context.Context, userID int64) ([]*models.Booking, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Booking), args.Error(1)
}
func (m *mockRepo) GetBookingsByDateRange(ctx context.Context, s, e string) ([]*models.Booking, error) {
	args := m.Called(ctx, s, e)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Booking), args.Error(1)
}
func (m *mockRepo) GetDailyBookings(ctx context.Context, s, e string) (map[string][]*models.Booking, error) {
	args := m.Called(ctx, s, e)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string][]*models.Booking), args.Error(1)
}

type mockVIPs struct {
	mock.Mock
}

func (m *mockVIPs) GetVIP(ctx context.Context, userID int64) (*models.VIPUser, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.VIPUser), args.Error(1)
}
func (m *mockVIPs) UpsertVIP(ctx context.Context, vip *models.VIPUser) error {
	return m.Called(ctx, vip).Error(0)
}
func (m *mockVIPs) DeleteVIP(ctx context.Context, userID int64) error {
	return m.Called(ctx, userID).Error(0)
}
func (m *mockVIPs) ListVIPs(ctx context.Context) ([]*models.VIPUser, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.VIPUser), args.Error(1)
}
func (m *mockVIPs) Refresh() {
	m.Called()
}

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) CreatePayment(ctx context.Context, booking *models.Booking, description string) (*models.Payment, error) {
	args := m.Called(ctx, booking, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}
func (m *mockGateway) GetPayment(ctx context.Context, paymentID string) (*models.Payment, error) {
	args := m.Called(ctx, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

var testServices = []models.Service{
	{Key: "repet", Name: "Репетиция", Rate: 700, PerHour: true, CustomRateEligible: true},
	{Key: "studio", Name: "Студия", Rate: 800, PerHour: true},
	{Key: "full", Name: "Запись под ключ", Rate: 1500},
}

func testBookingConfig() config.BookingConfig {
	return config.BookingConfig{
		WorkHourStart: 9,
		WorkHourEnd:   22,
		HorizonDays:   30,
		HoldMinutes:   30,
	}
}

func newTestBookingService(repo *mockRepo, vips *mockVIPs, gateway *mockGateway) *BookingService {
	logger := zerolog.New(io.Discard)
	return NewBookingService(repo, vips, gateway, NewPricingService(), nil, testBookingConfig(), testServices, &logger)
}

func tomorrow() string {
	return time.Now().AddDate(0, 0, 1).Format("2006-01-02")
}

func TestFinalizeBooking(t *testing.T) {
	repo := new(mockRepo)
	vips := new(mockVIPs)
	gateway := new(mockGateway)
	svc := newTestBookingService(repo, vips, gateway)
	ctx := context.Background()

	draft := &models.BookingDraft{
		Service:       "repet",
		Date:          tomorrow(),
		SelectedTimes: []int{12, 10, 11},
		Name:          "Иван",
		Email:         "ivan@example.com",
		Phone:         "79991234567",
	}

	vips.On("GetVIP", ctx, int64(1)).Return(nil, nil)
	repo.On("CreateBookingWithLock", ctx, mock.AnythingOfType("*models.Booking")).
		Run(func(args mock.Arguments) {
			b := args.Get(1).(*models.Booking)
			b.ID = 42
			b.Status = models.StatusAwaitingPayment
		}).Return(nil)
	gateway.On("CreatePayment", ctx, mock.AnythingOfType("*models.Booking"), mock.AnythingOfType("string")).
		Return(&models.Payment{ID: "pay-1", Status: models.PaymentStatusPending, ConfirmationURL: "https://pay.example/1"}, nil)
	repo.On("SetPaymentInfo", ctx, int64(42), "pay-1", "https://pay.example/1").Return(nil)

	booking, err := svc.FinalizeBooking(ctx, draft, 1)
	require.NoError(t, err)

	assert.EqualValues(t, 42, booking.ID)
	assert.Equal(t, []int{10, 11, 12}, booking.Times, "часы сортируются перед сохранением")
	assert.Equal(t, 1890, booking.Price, "3 часа по 700 со скидкой 10%")
	assert.Equal(t, "https://pay.example/1", booking.PaymentURL)

	repo.AssertExpectations(t)
	gateway.AssertExpectations(t)
}

func TestFinalizeBookingGatewayFailure(t *testing.T) {
	repo := new(mockRepo)
	vips := new(mockVIPs)
	gateway := new(mockGateway)
	svc := newTestBookingService(repo, vips, gateway)
	ctx := context.Background()

	draft := &models.BookingDraft{
		Service:       "repet",
		Date:          tomorrow(),
		SelectedTimes: []int{10},
		Name:          "Иван",
		Email:         "ivan@example.com",
		Phone:         "79991234567",
	}

	vips.On("GetVIP", ctx, int64(1)).Return(nil, nil)
	repo.On("CreateBookingWithLock", ctx, mock.AnythingOfType("*models.Booking")).
		Run(func(args mock.Arguments) {
			args.Get(1).(*models.Booking).ID = 7
		}).Return(nil)
	gateway.On("CreatePayment", ctx, mock.Anything, mock.Anything).
		Return(nil, errors.New("gateway down"))
	// бронь откатывается, слоты освобождаются
	repo.On("CancelBooking", ctx, int64(7)).Return(nil)

	_, err := svc.FinalizeBooking(ctx, draft, 1)
	assert.ErrorContains(t, err, "create payment")
	repo.AssertExpectations(t)
}

func TestFinalizeBookingSlotTaken(t *testing.T) {
	repo := new(mockRepo)
	vips := new(mockVIPs)
	gateway := new(mockGateway)
	svc := newTestBookingService(repo, vips, gateway)
	ctx := context.Background()

	draft := &models.BookingDraft{
		Service:       "repet",
		Date:          tomorrow(),
		SelectedTimes: []int{10},
	}

	vips.On("GetVIP", ctx, int64(1)).Return(nil, nil)
	repo.On("CreateBookingWithLock", ctx, mock.Anything).Return(database.ErrSlotTaken)

	_, err := svc.FinalizeBooking(ctx, draft, 1)
	assert.ErrorIs(t, err, database.ErrSlotTaken)
	gateway.AssertNotCalled(t, "CreatePayment", mock.Anything, mock.Anything, mock.Anything)
}

func TestFinalizeBookingVIPPrice(t *testing.T) {
	repo := new(mockRepo)
	vips := new(mockVIPs)
	gateway := new(mockGateway)
	svc := newTestBookingService(repo, vips, gateway)
	ctx := context.Background()

	draft := &models.BookingDraft{
		Service:       "repet",
		Date:          tomorrow(),
		SelectedTimes: []int{10, 11, 12, 13, 14},
		Name:          "Олег",
		Email:         "oleg@example.com",
		Phone:         "79990000000",
	}

	vips.On("GetVIP", ctx, int64(5)).Return(&models.VIPUser{UserID: 5, Discount: 20}, nil)
	repo.On("CreateBookingWithLock", ctx, mock.AnythingOfType("*models.Booking")).
		Run(func(args mock.Arguments) {
			args.Get(1).(*models.Booking).ID = 9
		}).Return(nil)
	gateway.On("CreatePayment", ctx, mock.Anything, mock.Anything).
		Return(&models.Payment{ID: "pay-9", ConfirmationURL: "https://pay.example/9"}, nil)
	repo.On("SetPaymentInfo", ctx, int64(9), "pay-9", "https://pay.example/9").Return(nil)

	booking, err := svc.FinalizeBooking(ctx, draft, 5)
	require.NoError(t, err)
	// персональные 20% сильнее скидки за 5 часов
	assert.Equal(t, 2800, booking.Price)
}

func TestValidateBookingDate(t *testing.T) {
	svc := newTestBookingService(new(mockRepo), new(mockVIPs), new(mockGateway))

	assert.ErrorIs(t, svc.ValidateBookingDate(time.Now().AddDate(0, 0, -1).Format("2006-01-02")), database.ErrPastDate)
	assert.ErrorIs(t, svc.ValidateBookingDate(time.Now().AddDate(0, 0, 60).Format("2006-01-02")), database.ErrDateTooFar)
	assert.NoError(t, svc.ValidateBookingDate(tomorrow()))
	assert.Error(t, svc.ValidateBookingDate("не дата"))
}

func TestValidateBookingDateDayOff(t *testing.T) {
	repo := new(mockRepo)
	logger := zerolog.New(io.Discard)
	cfg := testBookingConfig()
	target := time.Now().AddDate(0, 0, 3)
	cfg.OffDays = []int{int(target.Weekday())}
	svc := NewBookingService(repo, new(mockVIPs), new(mockGateway), NewPricingService(), nil, cfg, testServices, &logger)

	assert.ErrorIs(t, svc.ValidateBookingDate(target.Format("2006-01-02")), database.ErrDayOff)

	// выходной не попадает в список доступных дат
	for _, d := range svc.AvailableDates() {
		assert.NotEqual(t, target.Format("2006-01-02"), d)
	}
}

func TestAvailableHours(t *testing.T) {
	repo := new(mockRepo)
	svc := newTestBookingService(repo, new(mockVIPs), new(mockGateway))
	ctx := context.Background()
	date := tomorrow()

	repo.On("GetBookedHours", ctx, date, "repet").Return(map[int]bool{10: true, 11: true}, nil)
	repo.On("GetBookedHours", ctx, date, "studio").Return(map[int]bool{}, nil)

	hours, err := svc.AvailableHours(ctx, date, "repet")
	require.NoError(t, err)

	assert.NotContains(t, hours, 10)
	assert.NotContains(t, hours, 11)
	assert.Contains(t, hours, 9)
	assert.Contains(t, hours, 21)
	assert.NotContains(t, hours, 22, "конец рабочего окна не бронируется")

	// занятость часа в одной услуге не закрывает его для другой
	hours, err = svc.AvailableHours(ctx, date, "studio")
	require.NoError(t, err)
	assert.Contains(t, hours, 10)
	assert.Contains(t, hours, 11)
}

func TestCancelBookingOwner(t *testing.T) {
	repo := new(mockRepo)
	svc := newTestBookingService(repo, new(mockVIPs), new(mockGateway))
	ctx := context.Background()

	booking := &models.Booking{ID: 3, UserID: 10, Status: models.StatusAwaitingPayment}
	repo.On("GetBooking", ctx, int64(3)).Return(booking, nil)
	repo.On("CancelBooking", ctx, int64(3)).Return(nil)

	require.NoError(t, svc.CancelBooking(ctx, 3, 10))
	repo.AssertExpectations(t)
}

func TestCancelBookingWrongUser(t *testing.T) {
	repo := new(mockRepo)
	svc := newTestBookingService(repo, new(mockVIPs), new(mockGateway))
	ctx := context.Background()

	booking := &models.Booking{ID: 3, UserID: 10}
	repo.On("GetBooking", ctx, int64(3)).Return(booking, nil)

	err := svc.CancelBooking(ctx, 3, 99)
	assert.ErrorIs(t, err, database.ErrBookingNotFound)
	repo.AssertNotCalled(t, "CancelBooking", mock.Anything, mock.Anything)
}
