package redeem_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loop/rewards-engine/points"
	"github.com/loop/rewards-engine/redeem"
	"github.com/loop/rewards-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestRedeemer(t *testing.T) (*redeem.Redeemer, *sqlite.Store) {
	t.Helper()

	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return redeem.NewRedeemer(store, nil), store
}

func mustCreateCode(t *testing.T, store *sqlite.Store, c redeem.Code) redeem.Code {
	t.Helper()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Date(2025, time.May, 1, 0, 0, 0, 0, time.UTC)
	}
	require.NoError(t, store.CreateCode(context.Background(), c))
	return c
}

func repeatableCode(token string, value int64) redeem.Code {
	return redeem.Code{
		Token:    token,
		Label:    "Bottle Code",
		Value:    points.NewPoints(value),
		IsUnique: false,
	}
}

func singleUseCode(token string, value int64) redeem.Code {
	return redeem.Code{
		Token:    token,
		Label:    "Special Code",
		Value:    points.NewPoints(value),
		IsUnique: true,
	}
}

var t0 = time.Date(2025, time.June, 10, 12, 0, 0, 0, time.UTC)

// =============================================================================
// REPEATABLE CODES - 24h cooldown per user
// =============================================================================

func TestRedeem_RepeatableCode_CooldownCycle(t *testing.T) {
	// GIVEN: Repeatable code BOTTLE-ABC123 worth 25 points
	// WHEN: User U redeems at T0, T0+1h, and T0+25h
	// THEN: accepted(25, balance 25), rejected(cooldown), accepted(25, balance 50)

	r, store := newTestRedeemer(t)
	ctx := context.Background()
	mustCreateCode(t, store, repeatableCode("BOTTLE-ABC123", 25))

	res, err := r.Redeem(ctx, "user-u", "BOTTLE-ABC123", t0)
	require.NoError(t, err)
	require.True(t, res.Accepted())
	assert.True(t, res.PointsAwarded.Equal(points.NewPoints(25)))
	assert.True(t, res.NewBalance.Equal(points.NewPoints(25)), "balance should be 25, got %s", res.NewBalance)

	res, err = r.Redeem(ctx, "user-u", "BOTTLE-ABC123", t0.Add(time.Hour))
	require.NoError(t, err)
	require.False(t, res.Accepted())
	assert.Equal(t, redeem.ReasonCooldownActive, res.Reason)

	res, err = r.Redeem(ctx, "user-u", "BOTTLE-ABC123", t0.Add(25*time.Hour))
	require.NoError(t, err)
	require.True(t, res.Accepted())
	assert.True(t, res.NewBalance.Equal(points.NewPoints(50)), "balance should be 50, got %s", res.NewBalance)
}

func TestRedeem_RepeatableCode_IndependentUsers(t *testing.T) {
	// GIVEN: A repeatable code
	// WHEN: Two different users redeem at the same instant
	// THEN: Both are accepted; cooldown is per (user, code)

	r, store := newTestRedeemer(t)
	ctx := context.Background()
	mustCreateCode(t, store, repeatableCode("BOTTLE-SHARED", 25))

	resA, err := r.Redeem(ctx, "user-a", "BOTTLE-SHARED", t0)
	require.NoError(t, err)
	assert.True(t, resA.Accepted())

	resB, err := r.Redeem(ctx, "user-b", "BOTTLE-SHARED", t0)
	require.NoError(t, err)
	assert.True(t, resB.Accepted())
}

// =============================================================================
// SINGLE-USE CODES - one accepted scan globally
// =============================================================================

func TestRedeem_SingleUseCode_SecondUserRejected(t *testing.T) {
	// GIVEN: Single-use code SPECIAL-XYZ worth 50 points
	// WHEN: User A redeems, then user B tries the same code
	// THEN: B is rejected with "already claimed"; A's award stands

	r, store := newTestRedeemer(t)
	ctx := context.Background()
	mustCreateCode(t, store, singleUseCode("SPECIAL-XYZ", 50))

	resA, err := r.Redeem(ctx, "user-a", "SPECIAL-XYZ", t0)
	require.NoError(t, err)
	require.True(t, resA.Accepted())
	assert.True(t, resA.NewBalance.Equal(points.NewPoints(50)))

	resB, err := r.Redeem(ctx, "user-b", "SPECIAL-XYZ", t0.Add(time.Minute))
	require.NoError(t, err)
	require.False(t, resB.Accepted())
	assert.Equal(t, redeem.ReasonAlreadyClaimed, resB.Reason)

	// A's balance unaffected by B's attempt
	w, err := store.Wallet(ctx, "user-a")
	require.NoError(t, err)
	assert.True(t, w.Balance.Equal(points.NewPoints(50)))
}

func TestRedeem_SingleUseCode_ConcurrentCallers_ExactlyOneAccepted(t *testing.T) {
	// GIVEN: A single-use code and many concurrent callers
	// WHEN: All redeem simultaneously
	// THEN: Exactly one is accepted; everyone else gets "already claimed"

	r, store := newTestRedeemer(t)
	ctx := context.Background()
	code := mustCreateCode(t, store, singleUseCode("SPECIAL-RACE", 50))

	const callers = 16
	results := make(chan redeem.Result, callers)
	errs := make(chan error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		user := points.UserID("racer-" + string(rune('a'+i)))
		go func() {
			defer wg.Done()
			res, err := r.Redeem(ctx, user, "SPECIAL-RACE", t0)
			if err != nil {
				errs <- err
				return
			}
			results <- res
		}()
	}
	wg.Wait()
	close(results)
	close(errs)

	for err := range errs {
		t.Fatalf("unexpected error: %v", err)
	}

	accepted := 0
	for res := range results {
		if res.Accepted() {
			accepted++
		} else {
			assert.Equal(t, redeem.ReasonAlreadyClaimed, res.Reason)
		}
	}
	assert.Equal(t, 1, accepted, "exactly one concurrent caller may win a single-use code")

	// Storage-level invariant: one accepted scan event for the code
	claimed, err := countAcceptedScans(ctx, store, code.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, claimed)
}

func TestRedeem_RepeatableCode_ConcurrentDoubleSubmit_OneAccepted(t *testing.T) {
	// GIVEN: A repeatable code and one user double-submitting
	// WHEN: Both requests run concurrently at the same instant
	// THEN: One accepted, one "cooldown active"

	r, store := newTestRedeemer(t)
	ctx := context.Background()
	mustCreateCode(t, store, repeatableCode("BOTTLE-DOUBLE", 25))

	const attempts = 8
	results := make(chan redeem.Result, attempts)
	errs := make(chan error, attempts)

	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := r.Redeem(ctx, "user-dup", "BOTTLE-DOUBLE", t0)
			if err != nil {
				errs <- err
				return
			}
			results <- res
		}()
	}
	wg.Wait()
	close(results)
	close(errs)

	for err := range errs {
		t.Fatalf("unexpected error: %v", err)
	}

	accepted := 0
	for res := range results {
		if res.Accepted() {
			accepted++
		} else {
			assert.Equal(t, redeem.ReasonCooldownActive, res.Reason)
		}
	}
	assert.Equal(t, 1, accepted)

	// Balance reflects a single award
	w, err := store.Wallet(ctx, "user-dup")
	require.NoError(t, err)
	assert.True(t, w.Balance.Equal(points.NewPoints(25)), "got %s", w.Balance)
}

// =============================================================================
// INPUT NORMALIZATION AND VALIDATION
// =============================================================================

func TestRedeem_NormalizesInput(t *testing.T) {
	r, store := newTestRedeemer(t)
	ctx := context.Background()
	mustCreateCode(t, store, repeatableCode("BOTTLE-ABC123", 25))

	res, err := r.Redeem(ctx, "user-u", "  bottle-abc123 \n", t0)
	require.NoError(t, err)
	assert.True(t, res.Accepted(), "lowercased, padded input should match the canonical token")
}

func TestRedeem_EmptyCode_NoAuditRecord(t *testing.T) {
	// Malformed input is a validation error, not a policy rejection:
	// no scan event is written.

	r, store := newTestRedeemer(t)
	ctx := context.Background()

	_, err := r.Redeem(ctx, "user-u", "   ", t0)
	assert.ErrorIs(t, err, redeem.ErrEmptyCode)

	scans, err := store.UserScans(ctx, "user-u", 0)
	require.NoError(t, err)
	assert.Empty(t, scans)
}

func TestRedeem_UnknownCode_RejectedAndAudited(t *testing.T) {
	// GIVEN: No code FAKE-000 exists
	// WHEN: A user scans it
	// THEN: rejected "code not found", and a rejected scan event is
	//       persisted with the sentinel code reference and the raw token

	r, store := newTestRedeemer(t)
	ctx := context.Background()

	res, err := r.Redeem(ctx, "user-u", "FAKE-000", t0)
	require.NoError(t, err)
	require.False(t, res.Accepted())
	assert.Equal(t, redeem.ReasonNotFound, res.Reason)

	scans, err := store.UserScans(ctx, "user-u", 0)
	require.NoError(t, err)
	require.Len(t, scans, 1)
	assert.Equal(t, redeem.OutcomeRejected, scans[0].Outcome)
	assert.Equal(t, redeem.SentinelCodeID, scans[0].CodeID)
	assert.Equal(t, "FAKE-000", scans[0].Submitted)
}

func TestRedeem_RejectionIdempotence(t *testing.T) {
	// Submitting the same invalid code twice rejects with the same
	// reason, and each attempt gets its own audit row.

	r, store := newTestRedeemer(t)
	ctx := context.Background()

	res1, err := r.Redeem(ctx, "user-u", "FAKE-000", t0)
	require.NoError(t, err)
	res2, err := r.Redeem(ctx, "user-u", "FAKE-000", t0.Add(time.Minute))
	require.NoError(t, err)

	assert.Equal(t, res1.Reason, res2.Reason)

	scans, _ := store.UserScans(ctx, "user-u", 0)
	assert.Len(t, scans, 2)
}

// =============================================================================
// ACTIVATION WINDOWS
// =============================================================================

func TestRedeem_CodeNotYetActive(t *testing.T) {
	r, store := newTestRedeemer(t)
	ctx := context.Background()

	starts := t0.Add(time.Hour)
	code := repeatableCode("BOTTLE-SOON", 25)
	code.StartsAt = &starts
	mustCreateCode(t, store, code)

	res, err := r.Redeem(ctx, "user-u", "BOTTLE-SOON", t0)
	require.NoError(t, err)
	require.False(t, res.Accepted())
	assert.Equal(t, redeem.ReasonNotYetActive, res.Reason)
}

func TestRedeem_ExpiredCode_RegardlessOfReuseState(t *testing.T) {
	// An expired window wins over reuse state: the code was never
	// redeemed by anyone, and is still rejected as expired.

	r, store := newTestRedeemer(t)
	ctx := context.Background()

	ends := t0.Add(-time.Hour)
	code := singleUseCode("SPECIAL-OLD", 50)
	code.EndsAt = &ends
	code = mustCreateCode(t, store, code)

	res, err := r.Redeem(ctx, "user-u", "SPECIAL-OLD", t0)
	require.NoError(t, err)
	require.False(t, res.Accepted())
	assert.Equal(t, redeem.ReasonExpired, res.Reason)

	// Audit row recorded with the real code reference
	scans, _ := store.UserScans(ctx, "user-u", 0)
	require.Len(t, scans, 1)
	assert.Equal(t, code.ID, scans[0].CodeID)
}

func TestRedeem_WindowBoundaries(t *testing.T) {
	// [StartsAt, EndsAt): inclusive start, exclusive end.

	r, store := newTestRedeemer(t)
	ctx := context.Background()

	starts := t0
	ends := t0.Add(time.Hour)
	code := repeatableCode("BOTTLE-WINDOW", 25)
	code.StartsAt = &starts
	code.EndsAt = &ends
	mustCreateCode(t, store, code)

	res, err := r.Redeem(ctx, "user-a", "BOTTLE-WINDOW", t0)
	require.NoError(t, err)
	assert.True(t, res.Accepted(), "start boundary is inclusive")

	res, err = r.Redeem(ctx, "user-b", "BOTTLE-WINDOW", ends)
	require.NoError(t, err)
	require.False(t, res.Accepted())
	assert.Equal(t, redeem.ReasonExpired, res.Reason, "end boundary is exclusive")
}

// =============================================================================
// LEDGER AND WALLET INVARIANTS
// =============================================================================

func TestRedeem_AcceptedScan_HasMatchingLedgerEntry(t *testing.T) {
	// Every accepted scan has exactly one ledger entry referencing it,
	// and the wallet cache equals the recomputed ledger sum.

	r, store := newTestRedeemer(t)
	ctx := context.Background()
	mustCreateCode(t, store, repeatableCode("BOTTLE-ABC123", 25))
	mustCreateCode(t, store, singleUseCode("SPECIAL-XYZ", 50))

	res1, err := r.Redeem(ctx, "user-u", "BOTTLE-ABC123", t0)
	require.NoError(t, err)
	require.True(t, res1.Accepted())
	res2, err := r.Redeem(ctx, "user-u", "SPECIAL-XYZ", t0.Add(time.Minute))
	require.NoError(t, err)
	require.True(t, res2.Accepted())

	entries, err := store.Entries(ctx, "user-u", 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	refs := map[string]int{}
	for _, e := range entries {
		assert.Equal(t, points.SourceScan, e.Source)
		refs[e.ReferenceID]++
	}
	assert.Equal(t, 1, refs[res1.ScanID], "one entry per accepted scan")
	assert.Equal(t, 1, refs[res2.ScanID])

	ledger := points.NewLedger(store)
	sum, err := ledger.Reconcile(ctx, "user-u")
	require.NoError(t, err, "wallet cache must equal ledger sum")
	assert.True(t, sum.Equal(points.NewPoints(75)))
}

func TestRedeem_RejectedScan_NoLedgerEntry(t *testing.T) {
	r, store := newTestRedeemer(t)
	ctx := context.Background()

	ends := t0.Add(-time.Hour)
	code := repeatableCode("BOTTLE-DEAD", 25)
	code.EndsAt = &ends
	mustCreateCode(t, store, code)

	_, err := r.Redeem(ctx, "user-u", "BOTTLE-DEAD", t0)
	require.NoError(t, err)
	_, err = r.Redeem(ctx, "user-u", "FAKE-000", t0)
	require.NoError(t, err)

	entries, err := store.Entries(ctx, "user-u", 0)
	require.NoError(t, err)
	assert.Empty(t, entries, "rejections never touch the ledger")

	w, err := store.Wallet(ctx, "user-u")
	require.NoError(t, err)
	assert.True(t, w.Balance.IsZero())
}

// =============================================================================
// HELPERS
// =============================================================================

func countAcceptedScans(ctx context.Context, store *sqlite.Store, codeID uuid.UUID) (int, error) {
	// UserScans is per-user, so walk the racers' histories.
	count := 0
	for i := 0; i < 26; i++ {
		user := points.UserID("racer-" + string(rune('a'+i)))
		scans, err := store.UserScans(ctx, user, 0)
		if err != nil {
			return 0, err
		}
		for _, ev := range scans {
			if ev.CodeID == codeID && ev.Outcome == redeem.OutcomeAccepted {
				count++
			}
		}
	}
	return count, nil
}
