package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"machata/internal/models"
)

// UpsertVIP создает или обновляет запись реестра VIP.
func (db *DB) UpsertVIP(ctx context.Context, vip *models.VIPUser) error {
	query := `
        INSERT INTO vip_users (user_id, name, discount, custom_rate, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?)
        ON CONFLICT(user_id) DO UPDATE SET
            name = excluded.name,
            discount = excluded.discount,
            custom_rate = excluded.custom_rate,
            updated_at = excluded.updated_at
    `
	now := time.Now()
	_, err := db.ExecContext(ctx, query,
		vip.UserID,
		vip.Name,
		vip.Discount,
		vip.CustomRate,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert vip user: %w", err)
	}
	return nil
}

func (db *DB) GetVIP(ctx context.Context, userID int64) (*models.VIPUser, error) {
	query := `SELECT user_id, name, discount, custom_rate, created_at, updated_at
	          FROM vip_users WHERE user_id = ?`

	var vip models.VIPUser
	err := db.QueryRowContext(ctx, query, userID).Scan(
		&vip.UserID,
		&vip.Name,
		&vip.Discount,
		&vip.CustomRate,
		&vip.CreatedAt,
		&vip.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrVIPNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get vip user: %w", err)
	}
	return &vip, nil
}

func (db *DB) DeleteVIP(ctx context.Context, userID int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM vip_users WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("failed to delete vip user: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrVIPNotFound
	}
	return nil
}

func (db *DB) ListVIPs(ctx context.Context) ([]*models.VIPUser, error) {
	query := `SELECT user_id, name, discount, custom_rate, created_at, updated_at
	          FROM vip_users ORDER BY created_at DESC`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list vip users: %w", err)
	}
	defer rows.Close()

	var vips []*models.VIPUser
	for rows.Next() {
		vip := &models.VIPUser{}
		err := rows.Scan(
			&vip.UserID,
			&vip.Name,
			&vip.Discount,
			&vip.CustomRate,
			&vip.CreatedAt,
			&vip.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan vip user: %w", err)
		}
		vips = append(vips, vip)
	}
	return vips, rows.Err()
}
