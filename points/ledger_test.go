package points_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loop/rewards-engine/points"
	"github.com/loop/rewards-engine/points/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestLedger() (*points.Ledger, *store.MemoryStore) {
	mem := store.NewMemoryStore()
	return points.NewLedger(mem), mem
}

func scanEntry(user string, ref string, delta int64, at time.Time) points.LedgerEntry {
	return points.LedgerEntry{
		ID:          points.NewEntryID(),
		UserID:      points.UserID(user),
		Source:      points.SourceScan,
		ReferenceID: ref,
		Delta:       points.NewPoints(delta),
		Reason:      "test scan",
		CreatedAt:   at,
	}
}

// =============================================================================
// PARSING
// =============================================================================

func TestParsePoints(t *testing.T) {
	p, err := points.ParsePoints("25.5")
	require.NoError(t, err)
	assert.True(t, p.Equal(points.NewPointsFromFloat(25.5)))

	p, err = points.ParsePoints("-60")
	require.NoError(t, err)
	assert.True(t, p.IsNegative())

	// A corrupt stored value must surface, never read as zero
	_, err = points.ParsePoints("not-a-number")
	assert.Error(t, err)
	_, err = points.ParsePoints("")
	assert.Error(t, err)
}

// =============================================================================
// APPLY - the explicit wallet update
// =============================================================================

func TestApply_AccumulatesDeltas(t *testing.T) {
	// GIVEN: An empty wallet
	// WHEN: Applying +25, +50, -30
	// THEN: Balance is 45 and UpdatedAt tracks the last entry

	t0 := time.Date(2025, time.June, 1, 10, 0, 0, 0, time.UTC)
	w := points.Wallet{UserID: "u-1", Balance: points.Zero()}

	w = points.Apply(w, scanEntry("u-1", "s1", 25, t0))
	w = points.Apply(w, scanEntry("u-1", "s2", 50, t0.Add(time.Hour)))
	w = points.Apply(w, points.LedgerEntry{
		UserID: "u-1", Source: points.SourceRedeem,
		Delta: points.NewPoints(-30), CreatedAt: t0.Add(2 * time.Hour),
	})

	assert.True(t, w.Balance.Equal(points.NewPoints(45)), "balance should be 45, got %s", w.Balance)
	assert.Equal(t, t0.Add(2*time.Hour), w.UpdatedAt)
}

// =============================================================================
// LEDGER OPERATIONS
// =============================================================================

func TestLedger_Append_FillsIDAndTimestamp(t *testing.T) {
	ledger, _ := newTestLedger()
	ctx := context.Background()

	entry, err := ledger.Append(ctx, points.LedgerEntry{
		UserID: "u-1",
		Source: points.SourceAdmin,
		Delta:  points.NewPoints(10),
	})

	require.NoError(t, err)
	assert.NotEmpty(t, entry.ID)
	assert.False(t, entry.CreatedAt.IsZero())
}

func TestLedger_Append_RejectsMissingUser(t *testing.T) {
	ledger, _ := newTestLedger()

	_, err := ledger.Append(context.Background(), points.LedgerEntry{
		Source: points.SourceAdmin,
		Delta:  points.NewPoints(10),
	})

	assert.ErrorIs(t, err, points.ErrEntryFailed)
}

func TestLedger_DuplicateReference_Rejected(t *testing.T) {
	// GIVEN: A scan entry credited for scan event "scan-1"
	// WHEN: The same (source, reference) is appended again
	// THEN: The second append fails and the balance is unchanged

	ledger, mem := newTestLedger()
	ctx := context.Background()
	t0 := time.Date(2025, time.June, 1, 10, 0, 0, 0, time.UTC)

	_, err := ledger.Append(ctx, scanEntry("u-1", "scan-1", 25, t0))
	require.NoError(t, err)

	_, err = ledger.Append(ctx, scanEntry("u-1", "scan-1", 25, t0.Add(time.Second)))
	assert.ErrorIs(t, err, points.ErrDuplicateReference)

	w, err := mem.Wallet(ctx, "u-1")
	require.NoError(t, err)
	assert.True(t, w.Balance.Equal(points.NewPoints(25)))
}

func TestLedger_BalanceEqualsSum_AfterMixedEntries(t *testing.T) {
	// GIVEN: A mix of scan, social, admin, and redeem entries
	// WHEN: Comparing the cached wallet to the recomputed sum
	// THEN: They match exactly

	ledger, mem := newTestLedger()
	ctx := context.Background()
	t0 := time.Date(2025, time.June, 1, 10, 0, 0, 0, time.UTC)

	deltas := []struct {
		source points.Source
		ref    string
		delta  int64
	}{
		{points.SourceScan, "s1", 25},
		{points.SourceScan, "s2", 50},
		{points.SourceSocial, "p1", 100},
		{points.SourceAdmin, "", -15},
		{points.SourceRedeem, "r1", -60},
	}
	for i, d := range deltas {
		_, err := ledger.Append(ctx, points.LedgerEntry{
			UserID:      "u-1",
			Source:      d.source,
			ReferenceID: d.ref,
			Delta:       points.NewPoints(d.delta),
			CreatedAt:   t0.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	sum, err := ledger.Reconcile(ctx, "u-1")
	require.NoError(t, err, "cache must equal ledger sum")
	assert.True(t, sum.Equal(points.NewPoints(100)), "expected 100, got %s", sum)

	w, _ := mem.Wallet(ctx, "u-1")
	assert.True(t, w.Balance.Equal(sum))
}

func TestLedger_History_NewestFirst(t *testing.T) {
	ledger, _ := newTestLedger()
	ctx := context.Background()
	t0 := time.Date(2025, time.June, 1, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		_, err := ledger.Append(ctx, points.LedgerEntry{
			UserID:    "u-1",
			Source:    points.SourceScan,
			Delta:     points.NewPoints(int64(i + 1)),
			CreatedAt: t0.Add(time.Duration(i) * time.Hour),
		})
		require.NoError(t, err)
	}

	history, err := ledger.History(ctx, "u-1", 3)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.True(t, history[0].Delta.Equal(points.NewPoints(5)), "newest entry first")
}

// =============================================================================
// DRIFT DETECTION
// =============================================================================

// driftStore wraps the memory store but reports a stale wallet, to
// verify Reconcile catches a cache that diverged from the ledger.
type driftStore struct {
	*store.MemoryStore
}

func (d *driftStore) Wallet(ctx context.Context, user points.UserID) (points.Wallet, error) {
	return points.Wallet{UserID: user, Balance: points.NewPoints(999)}, nil
}

func TestLedger_Reconcile_DetectsDrift(t *testing.T) {
	mem := store.NewMemoryStore()
	ledger := points.NewLedger(&driftStore{mem})
	ctx := context.Background()

	_, err := ledger.Append(ctx, points.LedgerEntry{
		UserID: "u-1", Source: points.SourceScan, Delta: points.NewPoints(25),
	})
	require.NoError(t, err)

	_, err = ledger.Reconcile(ctx, "u-1")

	var drift *points.DriftError
	require.ErrorAs(t, err, &drift)
	assert.True(t, drift.Cached.Equal(points.NewPoints(999)))
	assert.True(t, drift.Recomputed.Equal(points.NewPoints(25)))
}
