package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/pwsafe/internal/domain/model"
)

func TestCheckoutRepo_RecordAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCheckoutRepo(db)
	ctx := context.Background()

	out := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	rec := model.CheckoutRecord{
		RequestID:    "r-1",
		AccountID:    5,
		SystemID:     6,
		AccountName:  "root",
		SystemName:   "db01",
		CheckedOutAt: out,
		ExpiresAt:    out.Add(time.Hour),
	}
	require.NoError(t, repo.Record(ctx, rec))

	got, err := repo.GetByRequestID(ctx, "r-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.NotZero(t, got.ID)
	assert.Equal(t, "root", got.AccountName)
	assert.Equal(t, int64(6), got.SystemID)
	assert.True(t, out.Equal(got.CheckedOutAt))
	assert.True(t, out.Add(time.Hour).Equal(got.ExpiresAt))
	assert.True(t, got.IsOpen())
}

func TestCheckoutRepo_GetMissing(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCheckoutRepo(db)

	got, err := repo.GetByRequestID(context.Background(), "absent")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCheckoutRepo_UnsetExpiryStaysZero(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCheckoutRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Record(ctx, model.CheckoutRecord{RequestID: "r-1", CheckedOutAt: time.Now()}))

	got, err := repo.GetByRequestID(ctx, "r-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.ExpiresAt.IsZero())
}

func TestCheckoutRepo_ListOpenNewestFirst(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCheckoutRepo(db)
	ctx := context.Background()

	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	for i, id := range []string{"r-1", "r-2", "r-3"} {
		require.NoError(t, repo.Record(ctx, model.CheckoutRecord{
			RequestID:    id,
			CheckedOutAt: base.Add(time.Duration(i) * 500 * time.Millisecond),
		}))
	}
	require.NoError(t, repo.MarkCheckedIn(ctx, "r-2", base.Add(time.Hour)))

	open, err := repo.ListOpen(ctx)
	require.NoError(t, err)
	require.Len(t, open, 2)
	assert.Equal(t, "r-3", open[0].RequestID)
	assert.Equal(t, "r-1", open[1].RequestID)

	closed, err := repo.GetByRequestID(ctx, "r-2")
	require.NoError(t, err)
	require.NotNil(t, closed.CheckedInAt)
	assert.True(t, base.Add(time.Hour).Equal(*closed.CheckedInAt))
}

func TestCheckoutRepo_MarkUnknownIsNoop(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCheckoutRepo(db)

	assert.NoError(t, repo.MarkCheckedIn(context.Background(), "unknown", time.Now()))
}

func TestCheckoutRepo_RecordReopens(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCheckoutRepo(db)
	ctx := context.Background()

	rec := model.CheckoutRecord{RequestID: "r-1", CheckedOutAt: time.Now()}
	require.NoError(t, repo.Record(ctx, rec))
	require.NoError(t, repo.MarkCheckedIn(ctx, "r-1", time.Now()))

	// Conflict recovery can hand back a request id checked in earlier.
	require.NoError(t, repo.Record(ctx, rec))

	open, err := repo.ListOpen(ctx)
	require.NoError(t, err)
	assert.Len(t, open, 1)
}
