/*
errors.go - Centralized error types for the policy engine

PURPOSE:
  All error kinds in one place for consistency and discoverability.
  The engine never logs, retries, or auto-corrects: every operation
  returns either a success value or one of these kinds, and the calling
  layer translates them into user-facing messages.

ERROR CATEGORIES:
  1. Input errors      - invalid monetary values, bad advance counts
  2. Ledger errors     - unknown or already-paid advances
  3. Lifecycle errors  - operations on already-terminal policies
  4. Refund errors     - refund amounts outside the paid bounds

USAGE:
  Callers match with errors.Is():

    if errors.Is(err, engine.ErrAlreadyPaid) {
        // 409 Conflict
    }

  Structured variants carry context and unwrap to the sentinel:

    var apErr *engine.AlreadyPaidError
    if errors.As(err, &apErr) {
        fmt.Println(apErr.AdvanceNumber, apErr.PaidAt)
    }

SEE ALSO:
  - ledger.go, refund.go, service.go: producers of these errors
  - api/handlers.go: HTTP status mapping
*/
package engine

import (
	"errors"
	"fmt"
	"time"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidAmount is returned for negative or non-finite monetary input.
	ErrInvalidAmount = errors.New("invalid monetary amount")

	// ErrInvalidAdvanceCount is returned when a schedule is requested with
	// an advance count outside [1, MaxAdvances].
	ErrInvalidAdvanceCount = errors.New("invalid advance count")

	// ErrUnknownAdvance is returned when a payment references an advance
	// number that does not exist in the ledger.
	ErrUnknownAdvance = errors.New("unknown advance")

	// ErrAlreadyPaid is returned when trying to pay an advance that already
	// carries a payment date. Paid advances are immutable.
	ErrAlreadyPaid = errors.New("advance already paid")

	// ErrAlreadyTerminal is returned when canceling or converting a policy
	// that is already Canceled or in Termination. Never a silent no-op.
	ErrAlreadyTerminal = errors.New("policy already in terminal state")

	// ErrInvalidRefund is returned when a refund amount falls outside
	// [0, totalPaid] or the penalty percentage is outside [0, 100].
	ErrInvalidRefund = errors.New("invalid refund")

	// ErrPolicyNotFound is returned when a referenced policy doesn't exist.
	ErrPolicyNotFound = errors.New("policy not found")

	// ErrInvalidPeriod is returned when a policy period is malformed
	// (end date before start date).
	ErrInvalidPeriod = errors.New("invalid period: end before start")

	// ErrPremiumAlreadyReduced is returned when the one-shot premium
	// reduction is attempted a second time.
	ErrPremiumAlreadyReduced = errors.New("premium already reduced")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// UnknownAdvanceError reports a reference to a non-existent advance.
type UnknownAdvanceError struct {
	PolicyID      PolicyID
	AdvanceNumber int
	MaxNumber     int
}

func (e *UnknownAdvanceError) Error() string {
	return fmt.Sprintf("unknown advance %d for policy %s (schedule has %d)",
		e.AdvanceNumber, e.PolicyID, e.MaxNumber)
}

func (e *UnknownAdvanceError) Unwrap() error { return ErrUnknownAdvance }

// AlreadyPaidError reports an attempt to re-pay a paid advance.
type AlreadyPaidError struct {
	PolicyID      PolicyID
	AdvanceNumber int
	PaidAt        time.Time
}

func (e *AlreadyPaidError) Error() string {
	return fmt.Sprintf("advance %d of policy %s already paid on %s",
		e.AdvanceNumber, e.PolicyID, e.PaidAt.Format("2006-01-02"))
}

func (e *AlreadyPaidError) Unwrap() error { return ErrAlreadyPaid }

// AlreadyTerminalError reports a lifecycle operation on a terminal policy.
type AlreadyTerminalError struct {
	PolicyID PolicyID
	State    AdministrativeState
}

func (e *AlreadyTerminalError) Error() string {
	return fmt.Sprintf("policy %s is already %s", e.PolicyID, e.State)
}

func (e *AlreadyTerminalError) Unwrap() error { return ErrAlreadyTerminal }

// InvalidRefundError reports a refund outside the allowed bounds.
type InvalidRefundError struct {
	Requested Money
	TotalPaid Money
	Detail    string
}

func (e *InvalidRefundError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("invalid refund: %s (requested %s, paid %s)",
			e.Detail, e.Requested, e.TotalPaid)
	}
	return fmt.Sprintf("invalid refund: %s outside [0, %s]", e.Requested, e.TotalPaid)
}

func (e *InvalidRefundError) Unwrap() error { return ErrInvalidRefund }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInvalidAdvanceCount) ||
		errors.Is(err, ErrUnknownAdvance) ||
		errors.Is(err, ErrInvalidRefund) ||
		errors.Is(err, ErrInvalidPeriod) ||
		errors.Is(err, ErrPremiumAlreadyReduced)
}

// IsConflict returns true if the error indicates a state conflict (409).
func IsConflict(err error) bool {
	return errors.Is(err, ErrAlreadyPaid) ||
		errors.Is(err, ErrAlreadyTerminal)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrPolicyNotFound)
}
