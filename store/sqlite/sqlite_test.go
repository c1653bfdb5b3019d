package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courtier/policy-engine/engine"
	"github.com/courtier/policy-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func samplePolicy(id, number string) engine.Policy {
	return engine.Policy{
		ID:                  engine.PolicyID(id),
		PolicyNumber:        number,
		StartDate:           engine.Date(2025, time.January, 1),
		EndDate:             engine.Date(2025, time.December, 31),
		PremiumGross:        engine.MustMoney(413.04),
		AdministrativeState: engine.AdminNormal,
		CreatedAt:           engine.Date(2025, time.January, 1),
	}
}

// =============================================================================
// POLICIES
// =============================================================================

func TestSQLite_PolicyRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Load(ctx, "missing")
	assert.ErrorIs(t, err, engine.ErrPolicyNotFound)

	require.NoError(t, store.Save(ctx, samplePolicy("pol-1", "POL-0001")))

	loaded, err := store.Load(ctx, "pol-1")
	require.NoError(t, err)
	assert.Equal(t, "POL-0001", loaded.PolicyNumber)
	assert.Equal(t, "413.04", loaded.PremiumGross.String())
	assert.Nil(t, loaded.PremiumCurrent)
	assert.Equal(t, engine.Date(2025, time.January, 1), loaded.StartDate)
	assert.Equal(t, engine.AdminNormal, loaded.AdministrativeState)
}

func TestSQLite_PolicyUpdatePreservesImmutableFields(t *testing.T) {
	// Save updates only the mutable columns: premium_current and
	// administrative_state. Dates, number, and gross premium stay fixed.

	store := newTestStore(t)
	ctx := context.Background()

	p := samplePolicy("pol-1", "POL-0001")
	require.NoError(t, store.Save(ctx, p))

	current := engine.MustMoney(300.00)
	p.PremiumCurrent = &current
	p.AdministrativeState = engine.AdminCanceled
	require.NoError(t, store.Save(ctx, p))

	loaded, err := store.Load(ctx, "pol-1")
	require.NoError(t, err)
	require.NotNil(t, loaded.PremiumCurrent)
	assert.Equal(t, "300.00", loaded.PremiumCurrent.String())
	assert.Equal(t, engine.AdminCanceled, loaded.AdministrativeState)
	assert.Equal(t, "413.04", loaded.PremiumGross.String())
}

func TestSQLite_ListOrdersByPolicyNumber(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, samplePolicy("b", "POL-0002")))
	require.NoError(t, store.Save(ctx, samplePolicy("a", "POL-0001")))

	policies, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, policies, 2)
	assert.Equal(t, "POL-0001", policies[0].PolicyNumber)
}

// =============================================================================
// ADVANCES
// =============================================================================

func TestSQLite_AdvanceRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, samplePolicy("pol-1", "POL-0001")))

	schedule, err := engine.PlanInstallments(engine.MustMoney(413.04), 4)
	require.NoError(t, err)
	require.NoError(t, store.SaveSchedule(ctx, "pol-1", schedule))

	advances, err := store.LoadAdvances(ctx, "pol-1")
	require.NoError(t, err)
	require.Len(t, advances, 4)
	assert.Equal(t, 1, advances[0].Number)
	assert.Equal(t, "103.26", advances[0].Amount.String())
	assert.False(t, advances[0].Paid())

	// Stamp advance 2 as paid.
	date := engine.Date(2025, time.February, 1)
	advances[1].PaymentDate = &date
	advances[1].Amount = engine.MustMoney(103.26)
	advances[1].PaymentMethod = "bank_transfer"
	advances[1].Reference = "RCPT-42"
	advances[1].Notes = "paid at agency"
	require.NoError(t, store.SaveAdvance(ctx, "pol-1", advances[1]))

	reloaded, err := store.LoadAdvances(ctx, "pol-1")
	require.NoError(t, err)
	require.True(t, reloaded[1].Paid())
	assert.Equal(t, date, *reloaded[1].PaymentDate)
	assert.Equal(t, "bank_transfer", reloaded[1].PaymentMethod)
	assert.Equal(t, "RCPT-42", reloaded[1].Reference)
	assert.Equal(t, "paid at agency", reloaded[1].Notes)
	assert.False(t, reloaded[0].Paid(), "other advances untouched")
}

// =============================================================================
// REFUNDS
// =============================================================================

func TestSQLite_RefundRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, samplePolicy("pol-1", "POL-0001")))

	penalty := 30.0
	require.NoError(t, store.SaveRefund(ctx, engine.RefundRecord{
		ID:                "ref-1",
		PolicyID:          "pol-1",
		Amount:            engine.MustMoney(289.13),
		Method:            "bank_transfer",
		Reason:            engine.RefundCancellation,
		PenaltyPercentage: &penalty,
		CreatedAt:         engine.Date(2025, time.June, 1),
	}))

	refunds, err := store.LoadRefunds(ctx, "pol-1")
	require.NoError(t, err)
	require.Len(t, refunds, 1)

	r := refunds[0]
	assert.Equal(t, "289.13", r.Amount.String())
	assert.Equal(t, engine.RefundCancellation, r.Reason)
	require.NotNil(t, r.PenaltyPercentage)
	assert.Equal(t, 30.0, *r.PenaltyPercentage)

	// Termination refunds have no penalty percentage.
	require.NoError(t, store.SaveRefund(ctx, engine.RefundRecord{
		ID:        "ref-2",
		PolicyID:  "pol-1",
		Amount:    engine.MustMoney(160.00),
		Reason:    engine.RefundTermination,
		CreatedAt: engine.Date(2025, time.July, 1),
	}))

	refunds, err = store.LoadRefunds(ctx, "pol-1")
	require.NoError(t, err)
	require.Len(t, refunds, 2)
	assert.Nil(t, refunds[1].PenaltyPercentage)
}

// =============================================================================
// END-TO-END WITH THE SERVICE
// =============================================================================

func TestSQLite_ServiceLifecycle(t *testing.T) {
	// The SQLite store drives the same service flow the memory store does:
	// issue, pay, cancel, observe the terminal guard.

	store := newTestStore(t)
	svc := engine.NewService(store, store, store,
		engine.FixedClock{Day: engine.Date(2025, time.June, 15)})
	ctx := context.Background()

	policy, advances, err := svc.IssuePolicy(ctx, engine.IssueRequest{
		PolicyNumber: "POL-2025-0001",
		StartDate:    engine.Date(2025, time.January, 1),
		EndDate:      engine.Date(2025, time.December, 31),
		PremiumGross: engine.MustMoney(413.04),
	})
	require.NoError(t, err)
	require.Len(t, advances, 4)

	_, err = svc.RecordPayment(ctx, policy.ID, 1, engine.PaymentInput{
		Date:   engine.Date(2025, time.February, 1),
		Amount: engine.MustMoney(103.26),
		Method: "cash",
	})
	require.NoError(t, err)

	record, err := svc.CancelPolicy(ctx, policy.ID, engine.RefundRequest{})
	require.NoError(t, err)
	assert.Equal(t, "72.28", record.Amount.String(), "70% of the 103.26 paid")

	_, err = svc.CancelPolicy(ctx, policy.ID, engine.RefundRequest{})
	assert.ErrorIs(t, err, engine.ErrAlreadyTerminal)
}
