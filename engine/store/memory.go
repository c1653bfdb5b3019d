// Package store provides in-memory store implementations for tests and dev.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/courtier/policy-engine/engine"
)

// =============================================================================
// MEMORY STORES - Mutex-guarded maps (for testing/dev)
// =============================================================================

// Memory implements PolicyStore, AdvanceStore, and RefundStore in memory.
type Memory struct {
	mu       sync.RWMutex
	policies map[engine.PolicyID]engine.Policy
	advances map[engine.PolicyID][]engine.Advance
	refunds  map[engine.PolicyID][]engine.RefundRecord
}

func NewMemory() *Memory {
	return &Memory{
		policies: make(map[engine.PolicyID]engine.Policy),
		advances: make(map[engine.PolicyID][]engine.Advance),
		refunds:  make(map[engine.PolicyID][]engine.RefundRecord),
	}
}

// Compile-time interface checks.
var (
	_ engine.PolicyStore  = (*Memory)(nil)
	_ engine.AdvanceStore = (*Memory)(nil)
	_ engine.RefundStore  = (*Memory)(nil)
)

// =============================================================================
// POLICY STORE
// =============================================================================

func (m *Memory) Load(_ context.Context, id engine.PolicyID) (engine.Policy, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.policies[id]
	if !ok {
		return engine.Policy{}, engine.ErrPolicyNotFound
	}
	return p, nil
}

func (m *Memory) Save(_ context.Context, p engine.Policy) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.policies[p.ID] = p
	return nil
}

func (m *Memory) List(_ context.Context) ([]engine.Policy, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]engine.Policy, 0, len(m.policies))
	for _, p := range m.policies {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PolicyNumber < out[j].PolicyNumber })
	return out, nil
}

// =============================================================================
// ADVANCE STORE
// =============================================================================

func (m *Memory) LoadAdvances(_ context.Context, id engine.PolicyID) ([]engine.Advance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]engine.Advance, len(m.advances[id]))
	copy(result, m.advances[id])
	sort.Slice(result, func(i, j int) bool { return result[i].Number < result[j].Number })
	return result, nil
}

func (m *Memory) SaveSchedule(_ context.Context, id engine.PolicyID, advances []engine.Advance) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	copied := make([]engine.Advance, len(advances))
	copy(copied, advances)
	m.advances[id] = copied
	return nil
}

func (m *Memory) SaveAdvance(_ context.Context, id engine.PolicyID, a engine.Advance) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, existing := range m.advances[id] {
		if existing.Number == a.Number {
			m.advances[id][i] = a
			return nil
		}
	}
	m.advances[id] = append(m.advances[id], a)
	return nil
}

// =============================================================================
// REFUND STORE - Append-only
// =============================================================================

func (m *Memory) SaveRefund(_ context.Context, r engine.RefundRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refunds[r.PolicyID] = append(m.refunds[r.PolicyID], r)
	return nil
}

func (m *Memory) LoadRefunds(_ context.Context, id engine.PolicyID) ([]engine.RefundRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]engine.RefundRecord, len(m.refunds[id]))
	copy(result, m.refunds[id])
	return result, nil
}
