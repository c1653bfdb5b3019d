/*
status.go - Policy lifecycle state derivation

PURPOSE:
  Derives a policy's displayed/authoritative status from its date range
  and administrative flags. Pure function of (policy, today) - no store
  access, no wall clock.

PRECEDENCE (load-bearing, evaluated in order):
  1. administrativeState == Canceled     -> Canceled
  2. administrativeState == Termination  -> Termination
  3. today > endDate                     -> Expired
  4. otherwise                           -> Active

  An administrative action ALWAYS overrides date-based computation: a
  canceled policy whose end date has passed is Canceled, never Expired.
  Cancellation and termination are mutually exclusive by construction -
  the lifecycle operations refuse to run once either flag is set.

TERMINAL STATES:
  Canceled and Termination. Once entered, Active/Expired can never be
  re-entered for that policy.

SEE ALSO:
  - service.go: CancelPolicy / ConvertToTermination set the flags
  - clock.go: injected "today"
*/
package engine

import "time"

// =============================================================================
// POLICY STATUS
// =============================================================================

type PolicyStatus string

const (
	StatusActive      PolicyStatus = "active"
	StatusExpired     PolicyStatus = "expired"
	StatusCanceled    PolicyStatus = "canceled"
	StatusTermination PolicyStatus = "termination"
)

// Terminal reports whether the status can never be left.
func (s PolicyStatus) Terminal() bool {
	return s == StatusCanceled || s == StatusTermination
}

// ResolveStatus derives the lifecycle status for a policy as of a day.
// Comparison is at day granularity: a policy is Expired only once today
// is strictly after its end date.
func ResolveStatus(p Policy, today time.Time) PolicyStatus {
	switch p.AdministrativeState {
	case AdminCanceled:
		return StatusCanceled
	case AdminTermination:
		return StatusTermination
	}

	if truncateToDay(today).After(truncateToDay(p.EndDate)) {
		return StatusExpired
	}
	return StatusActive
}
