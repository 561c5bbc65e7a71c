package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"machata/internal/models"
)

const bookingColumns = `id, user_id, service, date, times, duration, name, email, phone,
	comment, price, status, payment_id, payment_url, created_at, paid_at, version`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (*models.Booking, error) {
	b := &models.Booking{}
	var timesRaw string
	var paidAt sql.NullTime
	err := row.Scan(
		&b.ID, &b.UserID, &b.Service, &b.Date, &timesRaw, &b.Duration,
		&b.Name, &b.Email, &b.Phone, &b.Comment, &b.Price, &b.Status,
		&b.PaymentID, &b.PaymentURL, &b.CreatedAt, &paidAt, &b.Version,
	)
	if err != nil {
		return nil, err
	}
	if paidAt.Valid {
		b.PaidAt = paidAt.Time
	}
	b.Times, err = decodeHours(timesRaw)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// GetBookedHours возвращает занятые часы на дату и услугу. Занимают слоты
// оплаченные брони и брони в ожидании оплаты (до истечения удержания).
// Разные услуги не конкурируют за часы друг друга.
func (db *DB) GetBookedHours(ctx context.Context, date, service string) (map[int]bool, error) {
	query := `SELECT times FROM bookings WHERE date = ? AND service = ? AND status IN (?, ?)`
	rows, err := db.QueryContext(ctx, query, date, service, models.StatusPaid, models.StatusAwaitingPayment)
	if err != nil {
		return nil, fmt.Errorf("failed to get booked hours: %w", err)
	}
	defer rows.Close()

	booked := make(map[int]bool)
	for rows.Next() {
		var timesRaw string
		if err := rows.Scan(&timesRaw); err != nil {
			return nil, fmt.Errorf("failed to scan times: %w", err)
		}
		hours, err := decodeHours(timesRaw)
		if err != nil {
			return nil, err
		}
		for _, h := range hours {
			booked[h] = true
		}
	}
	return booked, rows.Err()
}

// CreateBookingWithLock проверяет занятость часов и вставляет бронь
// в одной транзакции, исключая двойное бронирование при гонке.
func (db *DB) CreateBookingWithLock(ctx context.Context, booking *models.Booking) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// 1. Проверка занятости внутри транзакции (в рамках одной услуги)
	queryTimes := `SELECT times FROM bookings WHERE date = ? AND service = ? AND status IN (?, ?)`
	rows, err := tx.QueryContext(ctx, queryTimes, booking.Date, booking.Service, models.StatusPaid, models.StatusAwaitingPayment)
	if err != nil {
		return fmt.Errorf("failed to check availability in tx: %w", err)
	}

	taken := make(map[int]bool)
	for rows.Next() {
		var timesRaw string
		if err := rows.Scan(&timesRaw); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan times in tx: %w", err)
		}
		hours, err := decodeHours(timesRaw)
		if err != nil {
			rows.Close()
			return err
		}
		for _, h := range hours {
			taken[h] = true
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()

	for _, h := range booking.Times {
		if taken[h] {
			return ErrSlotTaken
		}
	}

	// 2. Вставка брони
	timesRaw, err := encodeHours(booking.Times)
	if err != nil {
		return err
	}

	queryInsert := `INSERT INTO bookings (
				user_id, service, date, times, duration, name, email, phone,
				comment, price, status, created_at, updated_at, version
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	result, err := tx.ExecContext(ctx, queryInsert,
		booking.UserID,
		booking.Service,
		booking.Date,
		timesRaw,
		booking.Duration,
		booking.Name,
		booking.Email,
		booking.Phone,
		booking.Comment,
		booking.Price,
		models.StatusAwaitingPayment,
		now,
		now,
		1,
	)
	if err != nil {
		return fmt.Errorf("failed to insert booking in tx: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id in tx: %w", err)
	}
	booking.ID = id
	booking.Status = models.StatusAwaitingPayment
	booking.CreatedAt = now
	booking.Version = 1

	return tx.Commit()
}

func (db *DB) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
	booking, err := scanBooking(db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return booking, nil
}

func (db *DB) GetBookingByPaymentID(ctx context.Context, paymentID string) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE payment_id = ?`
	booking, err := scanBooking(db.QueryRowContext(ctx, query, paymentID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking by payment id: %w", err)
	}
	return booking, nil
}

// SetPaymentInfo привязывает платеж шлюза к брони. Разрешено только
// пока бронь ждет оплату.
func (db *DB) SetPaymentInfo(ctx context.Context, id int64, paymentID, paymentURL string) error {
	query := `UPDATE bookings SET payment_id = ?, payment_url = ?, version = version + 1, updated_at = ?
	          WHERE id = ? AND status = ?`
	result, err := db.ExecContext(ctx, query, paymentID, paymentURL, time.Now(), id, models.StatusAwaitingPayment)
	if err != nil {
		return fmt.Errorf("failed to set payment info: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return db.classifyStatusConflict(ctx, id)
	}
	return nil
}

// MarkPaid переводит бронь в оплаченные. Повторный вызов для уже
// оплаченной брони возвращает ErrAlreadyPaid, состояние не меняется.
func (db *DB) MarkPaid(ctx context.Context, id int64) error {
	query := `UPDATE bookings SET status = ?, paid_at = ?, version = version + 1, updated_at = ?
	          WHERE id = ? AND status = ?`
	now := time.Now()
	result, err := db.ExecContext(ctx, query, models.StatusPaid, now, now, id, models.StatusAwaitingPayment)
	if err != nil {
		return fmt.Errorf("failed to mark booking paid: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return db.classifyStatusConflict(ctx, id)
	}
	return nil
}

// CancelBooking отменяет бронь в ожидании оплаты и освобождает её часы.
// Оплаченную бронь отменить нельзя. Повторная отмена не ошибка.
func (db *DB) CancelBooking(ctx context.Context, id int64) error {
	query := `UPDATE bookings SET status = ?, version = version + 1, updated_at = ?
	          WHERE id = ? AND status = ?`
	result, err := db.ExecContext(ctx, query, models.StatusCancelled, time.Now(), id, models.StatusAwaitingPayment)
	if err != nil {
		return fmt.Errorf("failed to cancel booking: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		err := db.classifyStatusConflict(ctx, id)
		if errors.Is(err, ErrNotPayable) {
			// уже отменена
			return nil
		}
		return err
	}
	return nil
}

// classifyStatusConflict объясняет, почему условный UPDATE не нашел строку.
func (db *DB) classifyStatusConflict(ctx context.Context, id int64) error {
	var status string
	err := db.QueryRowContext(ctx, `SELECT status FROM bookings WHERE id = ?`, id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrBookingNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to read booking status: %w", err)
	}
	switch status {
	case models.StatusPaid:
		return ErrAlreadyPaid
	default:
		return ErrNotPayable
	}
}

// GetStaleHolds возвращает брони, которые ждут оплату дольше удержания.
func (db *DB) GetStaleHolds(ctx context.Context, olderThan time.Duration) ([]*models.Booking, error) {
	cutoff := time.Now().Add(-olderThan)
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE status = ? AND created_at < ?`
	rows, err := db.QueryContext(ctx, query, models.StatusAwaitingPayment, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to get stale holds: %w", err)
	}
	defer rows.Close()

	var bookings []*models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

// GetUserBookings брони пользователя за последние 2 недели и будущие.
func (db *DB) GetUserBookings(ctx context.Context, userID int64) ([]*models.Booking, error) {
	twoWeeksAgo := time.Now().AddDate(0, 0, -14).Format("2006-01-02")
	query := `SELECT ` + bookingColumns + ` FROM bookings
	          WHERE user_id = ? AND date >= ? ORDER BY date DESC, created_at DESC`
	rows, err := db.QueryContext(ctx, query, userID, twoWeeksAgo)
	if err != nil {
		return nil, fmt.Errorf("failed to get user bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

func (db *DB) GetBookingsByDateRange(ctx context.Context, startDate, endDate string) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
	          WHERE date >= ? AND date <= ? ORDER BY date ASC, created_at ASC`
	rows, err := db.QueryContext(ctx, query, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("failed to get bookings by date range: %w", err)
	}
	defer rows.Close()

	var bookings []*models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

// GetDailyBookings группирует брони периода по датам.
func (db *DB) GetDailyBookings(ctx context.Context, startDate, endDate string) (map[string][]*models.Booking, error) {
	bookings, err := db.GetBookingsByDateRange(ctx, startDate, endDate)
	if err != nil {
		return nil, err
	}

	daily := make(map[string][]*models.Booking)
	for _, b := range bookings {
		daily[b.Date] = append(daily[b.Date], b)
	}
	return daily, nil
}
