package recon

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sublens-app/sublens/internal/model"
	"github.com/sublens-app/sublens/internal/service"
	"github.com/sublens-app/sublens/internal/testutil"
)

func day(d int) time.Time {
	return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC)
}

func TestHoldPendingOnePerBucket(t *testing.T) {
	ctx := context.Background()
	store := testutil.SetupTestDB(t)
	s := New(store, nil)

	first := testutil.NewTransaction("", 2480, day(5))
	first.Status = model.StatusPending
	action, err := s.HoldPending(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, ActionHeld, action)

	// Same amount one day later lands in the same bucket.
	second := testutil.NewTransaction("", 2480, day(6))
	action, err = s.HoldPending(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, ActionSkipped, action)

	pending, err := store.ListUnresolvedPending(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	// A different amount is a different bucket.
	third := testutil.NewTransaction("", 980, day(5))
	action, err = s.HoldPending(ctx, third)
	require.NoError(t, err)
	assert.Equal(t, ActionHeld, action)
}

func TestReconcileMergesIntoPending(t *testing.T) {
	ctx := context.Background()
	store := testutil.SetupTestDB(t)
	s := New(store, nil)

	pending := testutil.NewTransaction("", 2480, day(5))
	pending.Status = model.StatusPending
	pending.Platform = "楽天カード"
	_, err := s.HoldPending(ctx, pending)
	require.NoError(t, err)

	confirmed := testutil.NewTransaction("Spotify", 2480, day(7))
	confirmed.Category = model.CategorySubscription
	confirmed.IsSubscription = true

	action, merged, err := s.ReconcileOrInsert(ctx, confirmed)
	require.NoError(t, err)
	assert.Equal(t, ActionReconciled, action)

	// The pending record keeps its id but takes the merchant detail.
	assert.Equal(t, pending.ID, merged.ID)
	assert.Equal(t, "Spotify", merged.Merchant)
	assert.Equal(t, model.StatusConfirmed, merged.Status)

	all, err := store.GetTransactions(ctx, service.TransactionFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 1, "merge must not create a second record")
	assert.Equal(t, model.StatusConfirmed, all[0].Status)
}

func TestReconcileOutsideWindowInserts(t *testing.T) {
	ctx := context.Background()
	store := testutil.SetupTestDB(t)
	s := New(store, nil)

	pending := testutil.NewTransaction("", 2480, day(5))
	pending.Status = model.StatusPending
	_, err := s.HoldPending(ctx, pending)
	require.NoError(t, err)

	// Five days later is outside the two-day window.
	confirmed := testutil.NewTransaction("Spotify", 2480, day(10))
	action, _, err := s.ReconcileOrInsert(ctx, confirmed)
	require.NoError(t, err)
	assert.Equal(t, ActionInserted, action)

	all, err := store.GetTransactions(ctx, service.TransactionFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	unresolved, err := s.Unresolved(ctx)
	require.NoError(t, err)
	assert.Len(t, unresolved, 1)
}

func TestReconcilePicksClosestPending(t *testing.T) {
	ctx := context.Background()
	store := testutil.SetupTestDB(t)
	s := New(store, nil)

	far := testutil.NewTransaction("", 1320, day(3))
	far.Status = model.StatusPending
	require.NoError(t, store.SaveTransaction(ctx, far))

	near := testutil.NewTransaction("", 1320, day(5))
	near.Status = model.StatusPending
	require.NoError(t, store.SaveTransaction(ctx, near))

	confirmed := testutil.NewTransaction("Netflix", 1320, day(5))
	action, merged, err := s.ReconcileOrInsert(ctx, confirmed)
	require.NoError(t, err)
	assert.Equal(t, ActionReconciled, action)
	assert.Equal(t, near.ID, merged.ID)
}
