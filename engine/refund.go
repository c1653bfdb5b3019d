/*
refund.go - Penalty-adjusted refund computation

PURPOSE:
  Computes the refund proposed (and validated) when a policy leaves the
  Normal administrative state. Two independent modes, both bounded by the
  total actually paid:

  CANCELLATION (penalty model):
    refund = totalPaid - totalPaid * penalty% / 100, rounded to 2 decimals.
    Penalty defaults to 30% and must lie in [0, 100].

  TERMINATION / "resel" (suggested-percentage model):
    suggested refund = 80% of totalPaid; the caller may override within
    [0, totalPaid]. With nothing paid and no override the refund step is
    skipped entirely - the conversion proceeds without a RefundRecord.

  A refund NEVER mutates premiumCurrent. Reducing the current premium is
  a separate, explicit administrative step (Service.ReducePremium) and
  must not be inferred from a refund record.

PROPERTY:
  For every totalPaid >= 0 and penalty in [0, 100], the cancellation
  refund lies in [0, totalPaid].

SEE ALSO:
  - service.go: invokes these modes and persists the RefundRecord
  - ledger.go: source of totalPaid
*/
package engine

import "github.com/shopspring/decimal"

// =============================================================================
// REFUND PARAMETERS
// =============================================================================

// DefaultPenaltyPercentage is withheld on cancellation unless overridden.
const DefaultPenaltyPercentage = 30.0

// terminationRefundRate is the suggested refund fraction on conversion
// to termination (80% of paid; 20% retained loss).
var terminationRefundRate = decimal.NewFromFloat(0.8)

// RefundRequest carries the caller-supplied refund parameters.
type RefundRequest struct {
	// Amount overrides the computed/suggested refund. Must lie within
	// [0, totalPaid]. Nil accepts the computed value.
	Amount *Money

	// PenaltyPercentage applies to cancellation mode only. Nil means
	// DefaultPenaltyPercentage.
	PenaltyPercentage *float64

	Method string
}

// =============================================================================
// CANCELLATION MODE
// =============================================================================

// CancellationRefund computes the penalty-adjusted refund for an outright
// cancellation. Returns the refund amount and the penalty actually applied.
func CancellationRefund(totalPaid Money, req RefundRequest) (Money, float64, error) {
	penalty := DefaultPenaltyPercentage
	if req.PenaltyPercentage != nil {
		penalty = *req.PenaltyPercentage
	}
	if penalty < 0 || penalty > 100 {
		return Money{}, 0, &InvalidRefundError{
			TotalPaid: totalPaid,
			Detail:    "penalty percentage outside [0, 100]",
		}
	}

	withheld := totalPaid.MulRate(decimal.NewFromFloat(penalty).Div(decimal.NewFromInt(100)))
	refund := totalPaid.Sub(withheld)

	if req.Amount != nil {
		if err := validateRefundBounds(*req.Amount, totalPaid); err != nil {
			return Money{}, 0, err
		}
		refund = *req.Amount
	}

	return refund, penalty, nil
}

// =============================================================================
// TERMINATION / "RESEL" MODE
// =============================================================================

// TerminationRefund computes the refund for a conversion to termination.
// ok is false when the refund step should be skipped entirely (nothing
// paid, nothing requested): the caller then creates no RefundRecord.
func TerminationRefund(totalPaid Money, req RefundRequest) (Money, bool, error) {
	if totalPaid.IsZero() {
		if req.Amount != nil && req.Amount.IsPositive() {
			return Money{}, false, &InvalidRefundError{
				Requested: *req.Amount,
				TotalPaid: totalPaid,
				Detail:    "positive refund with nothing paid",
			}
		}
		return Money{}, false, nil
	}

	refund := totalPaid.MulRate(terminationRefundRate)

	if req.Amount != nil {
		if err := validateRefundBounds(*req.Amount, totalPaid); err != nil {
			return Money{}, false, err
		}
		refund = *req.Amount
	}

	return refund, true, nil
}

func validateRefundBounds(amount, totalPaid Money) error {
	if amount.IsNegative() || amount.GreaterThan(totalPaid) {
		return &InvalidRefundError{Requested: amount, TotalPaid: totalPaid}
	}
	return nil
}
