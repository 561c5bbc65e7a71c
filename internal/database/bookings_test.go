package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"machata/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func testBooking(userID int64, date string, hours []int) *models.Booking {
	return &models.Booking{
		UserID:   userID,
		Service:  "repet",
		Date:     date,
		Times:    hours,
		Duration: len(hours),
		Name:     "Иван",
		Email:    "ivan@example.com",
		Phone:    "79991234567",
		Price:    700 * len(hours),
	}
}

func TestCreateBookingWithLock(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	b := testBooking(1, "2026-09-10", []int{10, 11, 12})
	err := db.CreateBookingWithLock(ctx, b)
	require.NoError(t, err)
	assert.NotZero(t, b.ID)
	assert.Equal(t, models.StatusAwaitingPayment, b.Status)
	assert.EqualValues(t, 1, b.Version)

	got, err := db.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, []int{10, 11, 12}, got.Times)
	assert.Equal(t, b.Price, got.Price)
}

func TestCreateBookingWithLockOverlap(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.CreateBookingWithLock(ctx, testBooking(1, "2026-09-10", []int{10, 11})))

	// пересечение по часу 11
	err := db.CreateBookingWithLock(ctx, testBooking(2, "2026-09-10", []int{11, 12}))
	assert.ErrorIs(t, err, ErrSlotTaken)

	// те же часы на другую дату свободны
	assert.NoError(t, db.CreateBookingWithLock(ctx, testBooking(2, "2026-09-11", []int{10, 11})))

	// смежные часы той же даты свободны
	assert.NoError(t, db.CreateBookingWithLock(ctx, testBooking(3, "2026-09-10", []int{12, 13})))
}

func TestCreateBookingWithLockServiceIndependence(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.CreateBookingWithLock(ctx, testBooking(1, "2026-09-15", []int{12})))

	// тот же час на другую услугу свободен: часы занимаются в рамках услуги
	other := testBooking(2, "2026-09-15", []int{12})
	other.Service = "studio"
	assert.NoError(t, db.CreateBookingWithLock(ctx, other))

	// а в рамках той же услуги час уже занят
	err := db.CreateBookingWithLock(ctx, testBooking(3, "2026-09-15", []int{12}))
	assert.ErrorIs(t, err, ErrSlotTaken)
}

func TestGetBookedHours(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	b1 := testBooking(1, "2026-09-10", []int{10, 11})
	require.NoError(t, db.CreateBookingWithLock(ctx, b1))
	b2 := testBooking(2, "2026-09-10", []int{15})
	require.NoError(t, db.CreateBookingWithLock(ctx, b2))

	// отмененная бронь не занимает часы
	b3 := testBooking(3, "2026-09-10", []int{18})
	require.NoError(t, db.CreateBookingWithLock(ctx, b3))
	require.NoError(t, db.CancelBooking(ctx, b3.ID))

	// бронь другой услуги не попадает в занятость этой
	b4 := testBooking(4, "2026-09-10", []int{20})
	b4.Service = "studio"
	require.NoError(t, db.CreateBookingWithLock(ctx, b4))

	booked, err := db.GetBookedHours(ctx, "2026-09-10", "repet")
	require.NoError(t, err)
	assert.Equal(t, map[int]bool{10: true, 11: true, 15: true}, booked)

	booked, err = db.GetBookedHours(ctx, "2026-09-10", "studio")
	require.NoError(t, err)
	assert.Equal(t, map[int]bool{20: true}, booked)
}

func TestMarkPaid(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	b := testBooking(1, "2026-09-10", []int{10})
	require.NoError(t, db.CreateBookingWithLock(ctx, b))

	require.NoError(t, db.MarkPaid(ctx, b.ID))

	got, err := db.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPaid, got.Status)
	assert.False(t, got.PaidAt.IsZero())
	firstPaidAt := got.PaidAt

	// повторная отметка не меняет состояние
	err = db.MarkPaid(ctx, b.ID)
	assert.ErrorIs(t, err, ErrAlreadyPaid)

	got, err = db.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPaid, got.Status)
	assert.Equal(t, firstPaidAt.Unix(), got.PaidAt.Unix())
}

func TestMarkPaidCancelled(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	b := testBooking(1, "2026-09-10", []int{10})
	require.NoError(t, db.CreateBookingWithLock(ctx, b))
	require.NoError(t, db.CancelBooking(ctx, b.ID))

	err := db.MarkPaid(ctx, b.ID)
	assert.ErrorIs(t, err, ErrNotPayable)
}

func TestCancelBooking(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	b := testBooking(1, "2026-09-10", []int{10})
	require.NoError(t, db.CreateBookingWithLock(ctx, b))
	require.NoError(t, db.CancelBooking(ctx, b.ID))

	// повторная отмена не ошибка
	assert.NoError(t, db.CancelBooking(ctx, b.ID))

	// оплаченную бронь отменить нельзя
	paid := testBooking(2, "2026-09-10", []int{12})
	require.NoError(t, db.CreateBookingWithLock(ctx, paid))
	require.NoError(t, db.MarkPaid(ctx, paid.ID))
	err := db.CancelBooking(ctx, paid.ID)
	assert.ErrorIs(t, err, ErrAlreadyPaid)

	// часы отмененной брони снова доступны
	assert.NoError(t, db.CreateBookingWithLock(ctx, testBooking(3, "2026-09-10", []int{10})))
}

func TestSetPaymentInfo(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	b := testBooking(1, "2026-09-10", []int{10})
	require.NoError(t, db.CreateBookingWithLock(ctx, b))

	require.NoError(t, db.SetPaymentInfo(ctx, b.ID, "pay-123", "https://pay.example/123"))

	got, err := db.GetBookingByPaymentID(ctx, "pay-123")
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)
	assert.Equal(t, "https://pay.example/123", got.PaymentURL)

	_, err = db.GetBookingByPaymentID(ctx, "unknown")
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestGetStaleHolds(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	stale := testBooking(1, "2026-09-10", []int{10})
	require.NoError(t, db.CreateBookingWithLock(ctx, stale))

	fresh := testBooking(2, "2026-09-10", []int{12})
	require.NoError(t, db.CreateBookingWithLock(ctx, fresh))

	// состарим первую бронь
	_, err := db.ExecContext(ctx, `UPDATE bookings SET created_at = ? WHERE id = ?`,
		time.Now().Add(-time.Hour), stale.ID)
	require.NoError(t, err)

	holds, err := db.GetStaleHolds(ctx, 30*time.Minute)
	require.NoError(t, err)
	require.Len(t, holds, 1)
	assert.Equal(t, stale.ID, holds[0].ID)
}

func TestGetUserBookings(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.CreateBookingWithLock(ctx, testBooking(1, "2026-09-10", []int{10})))
	require.NoError(t, db.CreateBookingWithLock(ctx, testBooking(1, "2026-09-12", []int{10})))
	require.NoError(t, db.CreateBookingWithLock(ctx, testBooking(2, "2026-09-10", []int{15})))

	bookings, err := db.GetUserBookings(ctx, 1)
	require.NoError(t, err)
	require.Len(t, bookings, 2)
	assert.Equal(t, "2026-09-12", bookings[0].Date)

	daily, err := db.GetDailyBookings(ctx, "2026-09-10", "2026-09-12")
	require.NoError(t, err)
	assert.Len(t, daily["2026-09-10"], 2)
	assert.Len(t, daily["2026-09-12"], 1)
}

func TestGetBookingNotFound(t *testing.T) {
	db := setupTestDB(t)

	_, err := db.GetBooking(context.Background(), 9999)
	assert.ErrorIs(t, err, ErrBookingNotFound)
}
