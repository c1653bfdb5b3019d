/*
store.go - Persistence contracts for policies, advances, and refunds

PURPOSE:
  Defines the interface between the engine and whatever persists its
  state. The engine itself never performs persistence: it loads a
  snapshot, applies the pure rules, and hands the changed records back.

IMPLEMENTATIONS:
  - engine/store (memory): mutex-guarded maps for tests and dev
  - store/sqlite: production SQLite with auto-migrated schema

WRITE DISCIPLINE:
  - Advances: SaveSchedule writes the full plan at issuance; SaveAdvance
    updates exactly one advance when it is paid. Paid advances are never
    rewritten (the ledger refuses before the store is reached).
  - Refunds: append-only. A refund record is written exactly once per
    administrative transition and never updated or deleted.

SEE ALSO:
  - service.go: the only consumer of these contracts
*/
package engine

import "context"

// =============================================================================
// STORE CONTRACTS
// =============================================================================

// PolicyStore persists policies.
type PolicyStore interface {
	Load(ctx context.Context, id PolicyID) (Policy, error)
	Save(ctx context.Context, p Policy) error
	List(ctx context.Context) ([]Policy, error)
}

// AdvanceStore persists a policy's advance schedule.
type AdvanceStore interface {
	// LoadAdvances returns the policy's advances ordered by number.
	LoadAdvances(ctx context.Context, id PolicyID) ([]Advance, error)

	// SaveSchedule replaces the full schedule. Used at issuance only.
	SaveSchedule(ctx context.Context, id PolicyID, advances []Advance) error

	// SaveAdvance upserts a single advance (payment stamping).
	SaveAdvance(ctx context.Context, id PolicyID, a Advance) error
}

// RefundStore persists refund records. Append-only.
type RefundStore interface {
	SaveRefund(ctx context.Context, r RefundRecord) error
	LoadRefunds(ctx context.Context, id PolicyID) ([]RefundRecord, error)
}
