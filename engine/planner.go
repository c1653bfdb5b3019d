/*
planner.go - Initial advance schedule generation

PURPOSE:
  Splits a policy's total due amount into a bounded sequence of advance
  payments at issuance. The planner is the only place allowed to "adjust"
  an amount: the last advance absorbs rounding drift so the schedule sums
  exactly to the premium. That correction is a deliberate normalization,
  not an error path.

INVARIANT:
  sum(schedule amounts) == premium, exactly, for every premium >= 0 and
  every count in [1, MaxAdvances]. No rounding leakage.

EXAMPLE:
  premium 413.04 over 4 advances -> [103.26, 103.26, 103.26, 103.26]
  premium 100.00 over 3 advances -> [33.33, 33.33, 33.34]

SEE ALSO:
  - ledger.go: consumes the schedule produced here
  - service.go: IssuePolicy persists the schedule
*/
package engine

// =============================================================================
// INSTALLMENT PLANNER
// =============================================================================

const (
	// DefaultAdvances is the standard number of installments at issuance.
	DefaultAdvances = 4

	// MaxAdvances bounds the schedule length.
	MaxAdvances = 4
)

// PlanInstallments produces the advance schedule for a policy:
// maxAdvances records numbered 1..maxAdvances, each round2(premium/n),
// with the LAST advance adjusted so the sum equals premium exactly.
//
// Fails with ErrInvalidAdvanceCount when maxAdvances is outside
// [1, MaxAdvances]. Negative premiums cannot be represented by Money,
// so ErrInvalidAmount is raised at the boundary, before planning.
func PlanInstallments(premium Money, maxAdvances int) ([]Advance, error) {
	if maxAdvances < 1 || maxAdvances > MaxAdvances {
		return nil, ErrInvalidAdvanceCount
	}

	per := premium.DivInt(maxAdvances)

	schedule := make([]Advance, maxAdvances)
	running := ZeroMoney()
	for i := 0; i < maxAdvances-1; i++ {
		schedule[i] = Advance{Number: i + 1, Amount: per}
		running = running.Add(per)
	}

	// Last advance absorbs the rounding drift.
	schedule[maxAdvances-1] = Advance{
		Number: maxAdvances,
		Amount: premium.Sub(running),
	}

	return schedule, nil
}
