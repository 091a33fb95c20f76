package application_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/pwsafe/internal/application"
	"github.com/ericfisherdev/pwsafe/internal/domain/model"
)

func TestLedger_RecordAndCheckIn(t *testing.T) {
	store := newMockCheckoutStore()
	ledger := application.NewLedger(store, nil)
	ctx := context.Background()

	pw := &model.ManagedPassword{
		Password:       "never-stored",
		RequestID:      "r-1",
		AccountID:      5,
		SystemID:       6,
		ExpirationDate: time.Now().Add(time.Hour),
	}
	account := &model.ManagedAccount{AccountName: "root", SystemName: "db01"}

	require.NoError(t, ledger.RecordCheckout(ctx, pw, account))

	rec, err := store.GetByRequestID(ctx, "r-1")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "root", rec.AccountName)
	assert.Equal(t, "db01", rec.SystemName)
	assert.True(t, rec.IsOpen())

	open, err := ledger.Open(ctx, true)
	require.NoError(t, err)
	assert.Len(t, open, 1)

	require.NoError(t, ledger.RecordCheckIn(ctx, "r-1"))
	open, err = ledger.Open(ctx, false)
	require.NoError(t, err)
	assert.Empty(t, open)

	// Unknown ids are not an error.
	require.NoError(t, ledger.RecordCheckIn(ctx, "r-unknown"))
}

func TestLedger_OpenDropsExpired(t *testing.T) {
	store := newMockCheckoutStore()
	ledger := application.NewLedger(store, nil)
	ctx := context.Background()

	require.NoError(t, ledger.RecordCheckout(ctx, &model.ManagedPassword{RequestID: "old"}, nil))
	require.NoError(t, ledger.RecordCheckout(ctx, &model.ManagedPassword{
		RequestID:      "new",
		ExpirationDate: time.Now().Add(time.Hour),
	}, nil))

	all, err := ledger.Open(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	live, err := ledger.Open(ctx, true)
	require.NoError(t, err)
	require.Len(t, live, 1)
	assert.Equal(t, "new", live[0].RequestID)
}

func TestLedger_RecordFailureIsWrapped(t *testing.T) {
	store := newMockCheckoutStore()
	store.recordErr = errors.New("disk full")
	ledger := application.NewLedger(store, nil)

	err := ledger.RecordCheckout(context.Background(), &model.ManagedPassword{RequestID: "r-1"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "r-1")
	assert.ErrorIs(t, err, store.recordErr)
}
