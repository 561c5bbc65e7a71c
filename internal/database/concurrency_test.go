package database

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConcurrentBooking(t *testing.T) {
	db, err := NewDB(filepath.Join(t.TempDir(), "concurrency.db"))
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()

	const numGoroutines = 10
	var wg sync.WaitGroup
	wg.Add(numGoroutines)

	results := make(chan error, numGoroutines)

	// все претендуют на один и тот же час
	for i := 0; i < numGoroutines; i++ {
		go func(id int) {
			defer wg.Done()
			results <- db.CreateBookingWithLock(ctx, testBooking(int64(id), "2026-09-10", []int{12}))
		}(i)
	}

	wg.Wait()
	close(results)

	successCount := 0
	conflictCount := 0
	for err := range results {
		switch {
		case err == nil:
			successCount++
		case errors.Is(err, ErrSlotTaken):
			conflictCount++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, 1, successCount, "exactly one booking should win the slot")
	assert.Equal(t, numGoroutines-1, conflictCount)

	booked, err := db.GetBookedHours(ctx, "2026-09-10", "repet")
	require.NoError(t, err)
	assert.Equal(t, map[int]bool{12: true}, booked)
}
