/*
Package engine implements the insurance policy payment and lifecycle engine.

PURPOSE:
  This package contains the pure business rules of the back office:
  splitting a policy's premium into advance payments, tracking which
  advances are paid, deriving the policy's lifecycle status, and computing
  penalty-adjusted refunds on cancellation or conversion to termination.

KEY CONCEPTS IN THIS FILE (policy.go):
  - Policy: the contract (dates, gross/current premium, administrative state)
  - Advance: one installment of the premium, paid or unpaid
  - RefundRecord: immutable record of a cancellation/termination refund

DESIGN PRINCIPLES:
  1. Purity: no I/O, no logging, no clocks - everything injected
  2. Precision: decimal-backed Money, never floats
  3. Immutability: a paid advance is never edited; a refund record is
     written exactly once per administrative transition
  4. Explicitness: nullable source fields become pointers, not zero values

SEE ALSO:
  - planner.go: initial schedule generation
  - ledger.go: payment recording and aggregate status
  - status.go: lifecycle state derivation
  - refund.go: cancellation/termination refund math
  - service.go: orchestration over the store contracts
*/
package engine

import "time"

// =============================================================================
// IDENTIFIERS
// =============================================================================

type PolicyID string

// =============================================================================
// ADMINISTRATIVE STATE - Set exactly once per transition, never reverted
// =============================================================================

type AdministrativeState string

const (
	AdminNormal      AdministrativeState = "normal"
	AdminCanceled    AdministrativeState = "canceled"
	AdminTermination AdministrativeState = "termination" // mid-term "resel" conversion
)

// Terminal reports whether the state can never be left.
func (s AdministrativeState) Terminal() bool {
	return s == AdminCanceled || s == AdminTermination
}

// =============================================================================
// POLICY
// =============================================================================

type Policy struct {
	ID           PolicyID
	PolicyNumber string // unique, immutable once issued

	StartDate time.Time
	EndDate   time.Time // EndDate >= StartDate

	// PremiumGross (primeTTC) is the contractual total due at issuance.
	// Immutable.
	PremiumGross Money

	// PremiumCurrent (primeActuel) is the currently-owed total. Nil means
	// never adjusted: consumers fall back to PremiumGross. Reduced at most
	// once, by an explicit administrative step (Service.ReducePremium).
	PremiumCurrent *Money

	AdministrativeState AdministrativeState

	CreatedAt time.Time
}

// TotalDue is the amount the ledger measures payments against:
// PremiumCurrent when set, PremiumGross otherwise.
func (p Policy) TotalDue() Money {
	if p.PremiumCurrent != nil {
		return *p.PremiumCurrent
	}
	return p.PremiumGross
}

// =============================================================================
// ADVANCE - One installment of the premium
// =============================================================================

type Advance struct {
	Number int   // 1-based, dense within a policy
	Amount Money // planned portion, overwritten by the actual paid amount

	// PaymentDate nil = unpaid. Once set, the advance is immutable.
	PaymentDate   *time.Time
	PaymentMethod string
	Reference     string
	Notes         string
}

// Paid reports whether the advance carries a payment.
func (a Advance) Paid() bool { return a.PaymentDate != nil }

// =============================================================================
// REFUND RECORD - Created exactly once per administrative transition
// =============================================================================

type RefundReason string

const (
	RefundCancellation RefundReason = "cancellation"
	RefundTermination  RefundReason = "termination"
)

type RefundRecord struct {
	ID       string
	PolicyID PolicyID
	Amount   Money
	Method   string
	Reason   RefundReason

	// PenaltyPercentage is set for cancellation refunds only.
	PenaltyPercentage *float64

	CreatedAt time.Time
}
