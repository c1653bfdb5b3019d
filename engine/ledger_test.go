package engine_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courtier/policy-engine/engine"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestLedger(t *testing.T, premium float64) *engine.Ledger {
	t.Helper()
	total := engine.MustMoney(premium)
	schedule, err := engine.PlanInstallments(total, engine.DefaultAdvances)
	require.NoError(t, err)
	return engine.NewLedger("pol-1", total, schedule)
}

func payment(amount float64) engine.PaymentInput {
	return engine.PaymentInput{
		Date:   engine.Date(2025, time.January, 2),
		Amount: engine.MustMoney(amount),
		Method: "cash",
	}
}

// =============================================================================
// PAYMENT RECORDING
// =============================================================================

func TestLedger_RecordPayment_StampsAdvance(t *testing.T) {
	// GIVEN: a fresh 4-advance schedule over 413.04
	// WHEN: paying advance 1
	// THEN: the advance carries date, amount, and method

	ledger := newTestLedger(t, 413.04)

	paid, err := ledger.RecordPayment(1, engine.PaymentInput{
		Date:      engine.Date(2025, time.January, 2),
		Amount:    engine.MustMoney(103.26),
		Method:    "cash",
		Reference: "RCPT-001",
		Notes:     "first installment",
	})
	require.NoError(t, err)

	assert.True(t, paid.Paid())
	assert.Equal(t, engine.Date(2025, time.January, 2), *paid.PaymentDate)
	assert.Equal(t, "103.26", paid.Amount.String())
	assert.Equal(t, "cash", paid.PaymentMethod)
	assert.Equal(t, "RCPT-001", paid.Reference)
}

func TestLedger_RecordPayment_PaidAdvanceIsImmutable(t *testing.T) {
	// GIVEN: advance 1 already paid
	// WHEN: paying advance 1 again
	// THEN: ErrAlreadyPaid - a paid advance can never be re-paid or edited

	ledger := newTestLedger(t, 413.04)

	_, err := ledger.RecordPayment(1, payment(103.26))
	require.NoError(t, err)

	_, err = ledger.RecordPayment(1, payment(50.00))
	assert.ErrorIs(t, err, engine.ErrAlreadyPaid)

	var apErr *engine.AlreadyPaidError
	require.ErrorAs(t, err, &apErr)
	assert.Equal(t, 1, apErr.AdvanceNumber)
	assert.Equal(t, engine.Date(2025, time.January, 2), apErr.PaidAt)

	// The original payment is untouched.
	advance, ok := ledger.Advance(1)
	require.True(t, ok)
	assert.Equal(t, "103.26", advance.Amount.String())
}

func TestLedger_RecordPayment_UnknownAdvance(t *testing.T) {
	ledger := newTestLedger(t, 413.04)

	for _, number := range []int{0, 5, -1, 42} {
		_, err := ledger.RecordPayment(number, payment(100))
		assert.ErrorIs(t, err, engine.ErrUnknownAdvance, "advance %d", number)
	}
}

func TestLedger_RecordPayment_ManualOverrideAllowed(t *testing.T) {
	// The paid amount is NOT validated against the plan amount: an agent
	// may settle the whole premium on a single advance.
	ledger := newTestLedger(t, 413.04)

	paid, err := ledger.RecordPayment(1, payment(413.04))
	require.NoError(t, err)
	assert.Equal(t, "413.04", paid.Amount.String())
}

// =============================================================================
// AGGREGATE STATUS
// =============================================================================

func TestLedger_Status_FreshSchedule(t *testing.T) {
	ledger := newTestLedger(t, 413.04)
	status := ledger.Status()

	assert.Equal(t, 0, status.PaidAdvances)
	assert.Equal(t, "0.00", status.PaidAmount.String())
	assert.Equal(t, "413.04", status.TotalAmount.String())
	assert.Equal(t, "413.04", status.RemainingAmount.String())
	assert.Equal(t, 0.0, status.PaymentPercentage)
	assert.Equal(t, 4, status.RequiredAdvances)
	assert.False(t, status.IsFullyPaid)
}

func TestLedger_Status_OneAdvancePaid(t *testing.T) {
	// GIVEN: advance 1 paid 103.26 of a 413.04 premium
	// THEN: remaining 309.78, 25% progress, still 4 required advances

	ledger := newTestLedger(t, 413.04)
	_, err := ledger.RecordPayment(1, payment(103.26))
	require.NoError(t, err)

	status := ledger.Status()
	assert.Equal(t, 1, status.PaidAdvances)
	assert.Equal(t, "103.26", status.PaidAmount.String())
	assert.Equal(t, "309.78", status.RemainingAmount.String())
	assert.InDelta(t, 25.0, status.PaymentPercentage, 0.01)
	assert.Equal(t, 4, status.RequiredAdvances)
	assert.False(t, status.IsFullyPaid)
}

func TestLedger_Status_AllAdvancesPaid(t *testing.T) {
	ledger := newTestLedger(t, 413.04)
	for n := 1; n <= 4; n++ {
		_, err := ledger.RecordPayment(n, payment(103.26))
		require.NoError(t, err)
	}

	status := ledger.Status()
	assert.True(t, status.IsFullyPaid)
	assert.Equal(t, 4, status.PaidAdvances)
	assert.Equal(t, 4, status.RequiredAdvances)
	assert.Equal(t, "0.00", status.RemainingAmount.String())
	assert.Equal(t, 100.0, status.PaymentPercentage)
}

func TestLedger_Status_EarlyFullSettlement(t *testing.T) {
	// GIVEN: the whole premium paid via one manual override on advance 1
	// THEN: fully paid with RequiredAdvances = 1 - only advances actually
	// bearing a payment count, not the planned 4

	ledger := newTestLedger(t, 413.04)
	_, err := ledger.RecordPayment(1, payment(413.04))
	require.NoError(t, err)

	status := ledger.Status()
	assert.True(t, status.IsFullyPaid)
	assert.Equal(t, 1, status.PaidAdvances)
	assert.Equal(t, 1, status.RequiredAdvances)
	assert.Equal(t, "0.00", status.RemainingAmount.String())
}

func TestLedger_Status_OverPayment(t *testing.T) {
	// Over-payment floors remaining at zero and caps progress at 100%.
	ledger := newTestLedger(t, 400.00)
	_, err := ledger.RecordPayment(1, payment(500.00))
	require.NoError(t, err)

	status := ledger.Status()
	assert.True(t, status.IsFullyPaid)
	assert.Equal(t, "0.00", status.RemainingAmount.String())
	assert.Equal(t, 100.0, status.PaymentPercentage)
}

func TestLedger_Status_PartialPaymentRequiredAdvances(t *testing.T) {
	// GIVEN: a small partial payment (50 of 400) on advance 1
	// THEN: required = paid(1) + ceil(350/100) = 5, clamped to 4

	ledger := newTestLedger(t, 400.00)
	_, err := ledger.RecordPayment(1, payment(50.00))
	require.NoError(t, err)

	status := ledger.Status()
	assert.Equal(t, 4, status.RequiredAdvances)

	// GIVEN: a larger partial payment (350 of 400)
	// THEN: required = paid(1) + ceil(50/100) = 2
	ledger = newTestLedger(t, 400.00)
	_, err = ledger.RecordPayment(1, payment(350.00))
	require.NoError(t, err)

	assert.Equal(t, 2, ledger.Status().RequiredAdvances)
}

func TestLedger_Status_ZeroTotal(t *testing.T) {
	// A zero-premium policy reports 0% progress and counts as fully paid.
	ledger := newTestLedger(t, 0)
	status := ledger.Status()

	assert.Equal(t, 0.0, status.PaymentPercentage)
	assert.True(t, status.IsFullyPaid)
	assert.Equal(t, "0.00", status.RemainingAmount.String())
}

// =============================================================================
// NEXT UNPAID SELECTION
// =============================================================================

func TestLedger_NextUnpaidAdvance(t *testing.T) {
	// The lowest-numbered unpaid advance is the deterministic default,
	// even when payments land out of order.

	ledger := newTestLedger(t, 400.00)

	next, ok := ledger.NextUnpaidAdvance()
	require.True(t, ok)
	assert.Equal(t, 1, next.Number)

	_, err := ledger.RecordPayment(2, payment(100))
	require.NoError(t, err)

	next, ok = ledger.NextUnpaidAdvance()
	require.True(t, ok)
	assert.Equal(t, 1, next.Number, "advance 1 is still the lowest unpaid")

	_, err = ledger.RecordPayment(1, payment(100))
	require.NoError(t, err)

	next, ok = ledger.NextUnpaidAdvance()
	require.True(t, ok)
	assert.Equal(t, 3, next.Number)

	for _, n := range []int{3, 4} {
		_, err = ledger.RecordPayment(n, payment(100))
		require.NoError(t, err)
	}

	_, ok = ledger.NextUnpaidAdvance()
	assert.False(t, ok, "no unpaid advance remains")
}

func TestLedger_AdvancesReturnsCopy(t *testing.T) {
	ledger := newTestLedger(t, 400.00)

	advances := ledger.Advances()
	advances[0].Amount = engine.MustMoney(999)

	fresh, ok := ledger.Advance(1)
	require.True(t, ok)
	assert.Equal(t, "100.00", fresh.Amount.String(), "internal state must not be aliased")
}
