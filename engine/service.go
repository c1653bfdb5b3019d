/*
service.go - Orchestration over the pure engine and the store contracts

PURPOSE:
  The Service is what the enclosing application (HTTP API, CLI, tests)
  talks to. It loads policy + advances from the stores, runs the pure
  rules (planner, ledger, status, refund), and persists exactly what
  changed. All business decisions live in the pure functions; this file
  is sequencing and locking only.

CONCURRENCY:
  The pure engine assumes exclusive access during a call. The Service
  provides that boundary with a per-policy mutex: within one policy,
  mutations are strictly serialized, so two concurrent payments against
  the same advance can never both succeed - the second observes
  ErrAlreadyPaid. Different policies proceed in parallel.

LIFECYCLE OPERATIONS:
  CancelPolicy and ConvertToTermination are idempotent FAILURES, not
  silent no-ops: a second call on a terminal policy surfaces
  ErrAlreadyTerminal and the first RefundRecord is never duplicated or
  overwritten.

SEE ALSO:
  - store.go: the contracts this orchestrates
  - api/handlers.go: HTTP consumer
*/
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// SERVICE
// =============================================================================

type Service struct {
	policies PolicyStore
	advances AdvanceStore
	refunds  RefundStore
	clock    Clock

	mu    sync.Mutex
	locks map[PolicyID]*sync.Mutex
}

func NewService(policies PolicyStore, advances AdvanceStore, refunds RefundStore, clock Clock) *Service {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Service{
		policies: policies,
		advances: advances,
		refunds:  refunds,
		clock:    clock,
		locks:    make(map[PolicyID]*sync.Mutex),
	}
}

// lock acquires the per-policy mutex and returns its release func.
func (s *Service) lock(id PolicyID) func() {
	s.mu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// =============================================================================
// ISSUANCE
// =============================================================================

// IssueRequest carries everything needed to issue a policy.
type IssueRequest struct {
	PolicyNumber string
	StartDate    time.Time
	EndDate      time.Time
	PremiumGross Money
	MaxAdvances  int // 0 means DefaultAdvances
}

// IssuePolicy creates the policy in Normal state and seeds its advance
// schedule from the planner.
func (s *Service) IssuePolicy(ctx context.Context, req IssueRequest) (Policy, []Advance, error) {
	if truncateToDay(req.EndDate).Before(truncateToDay(req.StartDate)) {
		return Policy{}, nil, ErrInvalidPeriod
	}

	maxAdvances := req.MaxAdvances
	if maxAdvances == 0 {
		maxAdvances = DefaultAdvances
	}

	schedule, err := PlanInstallments(req.PremiumGross, maxAdvances)
	if err != nil {
		return Policy{}, nil, err
	}

	p := Policy{
		ID:                  PolicyID(uuid.NewString()),
		PolicyNumber:        req.PolicyNumber,
		StartDate:           truncateToDay(req.StartDate),
		EndDate:             truncateToDay(req.EndDate),
		PremiumGross:        req.PremiumGross,
		AdministrativeState: AdminNormal,
		CreatedAt:           s.clock.Today(),
	}

	if err := s.policies.Save(ctx, p); err != nil {
		return Policy{}, nil, err
	}
	if err := s.advances.SaveSchedule(ctx, p.ID, schedule); err != nil {
		return Policy{}, nil, err
	}
	return p, schedule, nil
}

// =============================================================================
// PAYMENTS
// =============================================================================

// PaymentResult reports the outcome of a recorded payment.
type PaymentResult struct {
	Advance    Advance
	NextUnpaid *Advance // nil when fully paid
	Status     LedgerStatus
}

// RecordPayment records a payment against one advance, serialized per
// policy. Generates a payment reference when the caller supplied none.
func (s *Service) RecordPayment(ctx context.Context, id PolicyID, advanceNumber int, in PaymentInput) (PaymentResult, error) {
	unlock := s.lock(id)
	defer unlock()

	_, ledger, err := s.loadLedger(ctx, id)
	if err != nil {
		return PaymentResult{}, err
	}

	if in.Reference == "" {
		in.Reference = uuid.NewString()
	}

	paid, err := ledger.RecordPayment(advanceNumber, in)
	if err != nil {
		return PaymentResult{}, err
	}

	if err := s.advances.SaveAdvance(ctx, id, paid); err != nil {
		return PaymentResult{}, err
	}

	result := PaymentResult{Advance: paid, Status: ledger.Status()}
	if next, ok := ledger.NextUnpaidAdvance(); ok {
		result.NextUnpaid = &next
	}
	return result, nil
}

// =============================================================================
// STATUS
// =============================================================================

// PolicyView bundles the policy with its derived lifecycle status and
// ledger snapshot - the shape every consumer screen reads.
type PolicyView struct {
	Policy     Policy
	Status     PolicyStatus
	Ledger     LedgerStatus
	Advances   []Advance
	NextUnpaid *Advance
}

// PolicyStatus resolves the full view of one policy as of today.
func (s *Service) PolicyStatus(ctx context.Context, id PolicyID) (PolicyView, error) {
	policy, ledger, err := s.loadLedger(ctx, id)
	if err != nil {
		return PolicyView{}, err
	}

	view := PolicyView{
		Policy:   policy,
		Status:   ResolveStatus(policy, s.clock.Today()),
		Ledger:   ledger.Status(),
		Advances: ledger.Advances(),
	}
	if next, ok := ledger.NextUnpaidAdvance(); ok {
		view.NextUnpaid = &next
	}
	return view, nil
}

// =============================================================================
// LIFECYCLE - Cancellation and conversion to termination
// =============================================================================

// CancelPolicy moves the policy to Canceled and records the
// penalty-model refund. Fails with ErrAlreadyTerminal on a policy that
// is already Canceled or in Termination.
func (s *Service) CancelPolicy(ctx context.Context, id PolicyID, req RefundRequest) (RefundRecord, error) {
	unlock := s.lock(id)
	defer unlock()

	policy, ledger, err := s.loadLedger(ctx, id)
	if err != nil {
		return RefundRecord{}, err
	}
	if policy.AdministrativeState.Terminal() {
		return RefundRecord{}, &AlreadyTerminalError{PolicyID: id, State: policy.AdministrativeState}
	}

	totalPaid := ledger.Status().PaidAmount
	amount, penalty, err := CancellationRefund(totalPaid, req)
	if err != nil {
		return RefundRecord{}, err
	}

	record := RefundRecord{
		ID:                uuid.NewString(),
		PolicyID:          id,
		Amount:            amount,
		Method:            req.Method,
		Reason:            RefundCancellation,
		PenaltyPercentage: &penalty,
		CreatedAt:         s.clock.Today(),
	}

	policy.AdministrativeState = AdminCanceled
	if err := s.policies.Save(ctx, policy); err != nil {
		return RefundRecord{}, err
	}
	if err := s.refunds.SaveRefund(ctx, record); err != nil {
		return RefundRecord{}, err
	}
	return record, nil
}

// ConvertToTermination moves the policy to Termination ("resel") and
// records the suggested-percentage refund. With nothing paid and no
// override, the conversion proceeds without a refund record and the
// returned record is nil.
func (s *Service) ConvertToTermination(ctx context.Context, id PolicyID, req RefundRequest) (*RefundRecord, error) {
	unlock := s.lock(id)
	defer unlock()

	policy, ledger, err := s.loadLedger(ctx, id)
	if err != nil {
		return nil, err
	}
	if policy.AdministrativeState.Terminal() {
		return nil, &AlreadyTerminalError{PolicyID: id, State: policy.AdministrativeState}
	}

	totalPaid := ledger.Status().PaidAmount
	amount, withRefund, err := TerminationRefund(totalPaid, req)
	if err != nil {
		return nil, err
	}

	policy.AdministrativeState = AdminTermination
	if err := s.policies.Save(ctx, policy); err != nil {
		return nil, err
	}

	if !withRefund {
		return nil, nil
	}

	record := RefundRecord{
		ID:        uuid.NewString(),
		PolicyID:  id,
		Amount:    amount,
		Method:    req.Method,
		Reason:    RefundTermination,
		CreatedAt: s.clock.Today(),
	}
	if err := s.refunds.SaveRefund(ctx, record); err != nil {
		return nil, err
	}
	return &record, nil
}

// ReducePremium is the explicit, one-shot premiumCurrent reduction
// performed when switching policy type. Never inferred from a refund.
func (s *Service) ReducePremium(ctx context.Context, id PolicyID, newCurrent Money) (Policy, error) {
	unlock := s.lock(id)
	defer unlock()

	policy, err := s.policies.Load(ctx, id)
	if err != nil {
		return Policy{}, err
	}
	if policy.PremiumCurrent != nil {
		return Policy{}, ErrPremiumAlreadyReduced
	}
	if newCurrent.GreaterThan(policy.PremiumGross) {
		return Policy{}, ErrInvalidAmount
	}

	policy.PremiumCurrent = &newCurrent
	if err := s.policies.Save(ctx, policy); err != nil {
		return Policy{}, err
	}
	return policy, nil
}

// =============================================================================
// QUERIES
// =============================================================================

func (s *Service) GetPolicy(ctx context.Context, id PolicyID) (Policy, error) {
	return s.policies.Load(ctx, id)
}

func (s *Service) ListPolicies(ctx context.Context) ([]Policy, error) {
	return s.policies.List(ctx)
}

func (s *Service) ListRefunds(ctx context.Context, id PolicyID) ([]RefundRecord, error) {
	return s.refunds.LoadRefunds(ctx, id)
}

// loadLedger loads a policy and builds its in-memory ledger.
func (s *Service) loadLedger(ctx context.Context, id PolicyID) (Policy, *Ledger, error) {
	policy, err := s.policies.Load(ctx, id)
	if err != nil {
		return Policy{}, nil, err
	}
	advances, err := s.advances.LoadAdvances(ctx, id)
	if err != nil {
		return Policy{}, nil, err
	}
	return policy, NewLedger(id, policy.TotalDue(), advances), nil
}
