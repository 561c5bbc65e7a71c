package database

import (
	"context"
	"testing"

	"machata/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVIPCrud(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	_, err := db.GetVIP(ctx, 100)
	assert.ErrorIs(t, err, ErrVIPNotFound)

	vip := &models.VIPUser{UserID: 100, Name: "Олег", Discount: 20}
	require.NoError(t, db.UpsertVIP(ctx, vip))

	got, err := db.GetVIP(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, "Олег", got.Name)
	assert.Equal(t, 20, got.Discount)
	assert.True(t, got.HasDiscount())
	assert.False(t, got.HasCustomRate())

	// апдейт той же записи
	vip.Discount = 0
	vip.CustomRate = 500
	require.NoError(t, db.UpsertVIP(ctx, vip))

	got, err = db.GetVIP(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, 500, got.CustomRate)
	assert.False(t, got.HasDiscount())

	vips, err := db.ListVIPs(ctx)
	require.NoError(t, err)
	assert.Len(t, vips, 1)

	require.NoError(t, db.DeleteVIP(ctx, 100))
	assert.ErrorIs(t, db.DeleteVIP(ctx, 100), ErrVIPNotFound)
}
