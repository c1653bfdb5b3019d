/*
ledger.go - Authoritative payment record for one policy

PURPOSE:
  The PaymentLedger tracks which advances of a single policy are paid and
  reports the aggregate payment state: paid amount, remaining balance,
  progress percentage, and the number of advances that actually matter
  under partial or over-payment conditions.

CRITICAL INVARIANTS:
  1. IMMUTABLE ONCE PAID: an advance with a payment date can never be
     re-paid or edited through RecordPayment. Ever.
  2. DENSE NUMBERING: advances are 1-based with no gaps; an unknown
     number is an error, never an implicit creation.
  3. MANUAL OVERRIDE: the paid amount is NOT validated against the
     planned amount. Agents settle policies early with a single larger
     payment; that flexibility is intentional, not a rounding bug.

CONCURRENCY:
  The ledger assumes exclusive access during a call and performs no
  locking. Callers embedding it in a concurrent context wrap mutations
  in a per-policy mutual-exclusion boundary (see service.go).

SEE ALSO:
  - planner.go: produces the schedule the ledger starts from
  - status.go: combines ledger state with policy dates
  - refund.go: bounds refunds by the ledger's paid total
*/
package engine

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// PAYMENT LEDGER
// =============================================================================

// Ledger is the in-memory payment record for one policy. Build it from the
// policy's total due and its persisted advances; mutate it with
// RecordPayment; persist the touched advance back through AdvanceStore.
type Ledger struct {
	policyID PolicyID
	total    Money
	advances []Advance
}

// NewLedger builds a ledger over a policy's advances. The slice is copied
// and ordered by advance number; the caller's slice is never mutated.
func NewLedger(policyID PolicyID, totalDue Money, advances []Advance) *Ledger {
	copied := make([]Advance, len(advances))
	copy(copied, advances)
	sort.Slice(copied, func(i, j int) bool { return copied[i].Number < copied[j].Number })

	return &Ledger{policyID: policyID, total: totalDue, advances: copied}
}

// =============================================================================
// PAYMENT RECORDING
// =============================================================================

// PaymentInput carries the fields stamped onto an advance when it is paid.
type PaymentInput struct {
	Date      time.Time
	Amount    Money
	Method    string
	Reference string
	Notes     string
}

// RecordPayment marks an advance as paid.
//
// Fails with ErrUnknownAdvance when the number is not in the schedule and
// with ErrAlreadyPaid when the advance already carries a payment date.
// On success the advance's amount is REPLACED by the paid amount - the
// plan amount is a default, not a constraint (manual override).
//
// Returns the updated advance so the caller can persist exactly what
// changed.
func (l *Ledger) RecordPayment(advanceNumber int, p PaymentInput) (Advance, error) {
	idx := -1
	for i, a := range l.advances {
		if a.Number == advanceNumber {
			idx = i
			break
		}
	}
	if idx < 0 {
		return Advance{}, &UnknownAdvanceError{
			PolicyID:      l.policyID,
			AdvanceNumber: advanceNumber,
			MaxNumber:     len(l.advances),
		}
	}

	if l.advances[idx].Paid() {
		return Advance{}, &AlreadyPaidError{
			PolicyID:      l.policyID,
			AdvanceNumber: advanceNumber,
			PaidAt:        *l.advances[idx].PaymentDate,
		}
	}

	date := truncateToDay(p.Date)
	l.advances[idx].PaymentDate = &date
	l.advances[idx].Amount = p.Amount
	l.advances[idx].PaymentMethod = p.Method
	l.advances[idx].Reference = p.Reference
	l.advances[idx].Notes = p.Notes

	return l.advances[idx], nil
}

// =============================================================================
// AGGREGATE STATUS
// =============================================================================

// LedgerStatus is the computed payment state of one policy.
type LedgerStatus struct {
	PaidAdvances      int
	PaidAmount        Money
	TotalAmount       Money
	RemainingAmount   Money   // floored at zero under over-payment
	PaymentPercentage float64 // capped at 100; 0 when TotalAmount is 0
	RequiredAdvances  int
	IsFullyPaid       bool
}

// Status computes the aggregate payment state.
//
// RequiredAdvances reflects how payment actually unfolded rather than a
// fixed schedule length: a policy settled in full with a single manual
// override on advance 1 needs exactly 1 advance, not 4. When not fully
// paid, the count is paid + ceil(remaining / (total/4)), clamped to
// [1, MaxAdvances] - the quarter is always of the CURRENT total, which
// makes the count depend on payment order under partial payments. That
// matches the observed back-office behavior and is kept as-is.
func (l *Ledger) Status() LedgerStatus {
	paid := ZeroMoney()
	paidCount := 0
	for _, a := range l.advances {
		if a.Paid() {
			paid = paid.Add(a.Amount)
			paidCount++
		}
	}

	total := l.total
	remaining := total.Sub(paid).Max(ZeroMoney())
	fullyPaid := paid.GreaterThanOrEqual(total)

	percentage := 0.0
	if total.IsPositive() {
		pct := paid.Decimal().
			Div(total.Decimal()).
			Mul(decimal.NewFromInt(100))
		if pct.GreaterThan(decimal.NewFromInt(100)) {
			pct = decimal.NewFromInt(100)
		}
		percentage, _ = pct.Float64()
	}

	required := paidCount
	if !fullyPaid {
		quarter := total.Decimal().Div(decimal.NewFromInt(MaxAdvances))
		needed := remaining.Decimal().Div(quarter).Ceil().IntPart()
		required = paidCount + int(needed)
		if required < 1 {
			required = 1
		}
		if required > MaxAdvances {
			required = MaxAdvances
		}
	}

	return LedgerStatus{
		PaidAdvances:      paidCount,
		PaidAmount:        paid,
		TotalAmount:       total,
		RemainingAmount:   remaining,
		PaymentPercentage: percentage,
		RequiredAdvances:  required,
		IsFullyPaid:       fullyPaid,
	}
}

// NextUnpaidAdvance returns the lowest-numbered unpaid advance. ok is
// false when every advance is paid. Consumers use this as the
// deterministic "what to pay next" default after a successful payment.
func (l *Ledger) NextUnpaidAdvance() (Advance, bool) {
	for _, a := range l.advances {
		if !a.Paid() {
			return a, true
		}
	}
	return Advance{}, false
}

// Advances returns a copy of the schedule, ordered by number.
func (l *Ledger) Advances() []Advance {
	out := make([]Advance, len(l.advances))
	copy(out, l.advances)
	return out
}

// Advance looks up a single advance by number.
func (l *Ledger) Advance(number int) (Advance, bool) {
	for _, a := range l.advances {
		if a.Number == number {
			return a, true
		}
	}
	return Advance{}, false
}
