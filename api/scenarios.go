/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:
  Provides pre-built scenarios that populate the stores with realistic
  data for demos. Each scenario issues policies and records payments that
  demonstrate a specific payment/lifecycle situation.

AVAILABLE SCENARIOS:
  fresh-portfolio:   Three active policies at different payment stages
  early-settlement:  Policy settled in full with one manual override payment
  cancellations:     A canceled policy (penalty refund) and a resel conversion

NOTE:
  Scenarios add data on top of whatever exists. Only use in
  development/demo environments.

SEE ALSO:
  - handlers.go: writeJSON/writeError helpers
  - server.go: /api/scenarios routes
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/courtier/policy-engine/engine"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

// ScenarioDTO describes a loadable demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest selects the scenario to load.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

var scenarios = []ScenarioDTO{
	{
		ID:          "fresh-portfolio",
		Name:        "Fresh Portfolio",
		Description: "Three active policies: unpaid, one advance paid, fully paid",
	},
	{
		ID:          "early-settlement",
		Name:        "Early Settlement",
		Description: "Policy settled in full with a single manual override payment",
	},
	{
		ID:          "cancellations",
		Name:        "Cancellations",
		Description: "One canceled policy (30% penalty) and one resel conversion",
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// LoadScenario loads the requested demo scenario.
// POST /api/scenarios/load
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ctx := r.Context()
	var err error
	switch req.ScenarioID {
	case "fresh-portfolio":
		err = h.loadFreshPortfolio(ctx)
	case "early-settlement":
		err = h.loadEarlySettlement(ctx)
	case "cancellations":
		err = h.loadCancellations(ctx)
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Unknown scenario: %s", req.ScenarioID), nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load scenario", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"loaded": req.ScenarioID})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func (h *Handler) loadFreshPortfolio(ctx context.Context) error {
	// Untouched policy: full schedule pending.
	if _, _, err := h.issueDemo(ctx, "POL-2025-1001", 413.04); err != nil {
		return err
	}

	// One advance paid.
	p2, adv2, err := h.issueDemo(ctx, "POL-2025-1002", 600.00)
	if err != nil {
		return err
	}
	if err := h.payDemo(ctx, p2.ID, adv2[0].Number, adv2[0].Amount); err != nil {
		return err
	}

	// Fully paid across all four advances.
	p3, adv3, err := h.issueDemo(ctx, "POL-2025-1003", 800.00)
	if err != nil {
		return err
	}
	for _, a := range adv3 {
		if err := h.payDemo(ctx, p3.ID, a.Number, a.Amount); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) loadEarlySettlement(ctx context.Context) error {
	p, _, err := h.issueDemo(ctx, "POL-2025-2001", 413.04)
	if err != nil {
		return err
	}
	// Single manual override payment settles the whole premium on advance 1.
	return h.payDemo(ctx, p.ID, 1, engine.MustMoney(413.04))
}

func (h *Handler) loadCancellations(ctx context.Context) error {
	// Canceled with the default 30% penalty after two paid advances.
	p1, adv1, err := h.issueDemo(ctx, "POL-2025-3001", 413.04)
	if err != nil {
		return err
	}
	for _, a := range adv1[:2] {
		if err := h.payDemo(ctx, p1.ID, a.Number, a.Amount); err != nil {
			return err
		}
	}
	if _, err := h.Service.CancelPolicy(ctx, p1.ID, engine.RefundRequest{Method: "bank_transfer"}); err != nil {
		return err
	}

	// Converted to resel with the suggested 80% refund after one payment.
	p2, adv2, err := h.issueDemo(ctx, "POL-2025-3002", 200.00)
	if err != nil {
		return err
	}
	if err := h.payDemo(ctx, p2.ID, adv2[0].Number, engine.MustMoney(200.00)); err != nil {
		return err
	}
	_, err = h.Service.ConvertToTermination(ctx, p2.ID, engine.RefundRequest{Method: "cash"})
	return err
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) issueDemo(ctx context.Context, number string, premium float64) (engine.Policy, []engine.Advance, error) {
	return h.Service.IssuePolicy(ctx, engine.IssueRequest{
		PolicyNumber: number,
		StartDate:    engine.Date(2025, 1, 1),
		EndDate:      engine.Date(2025, 12, 31),
		PremiumGross: engine.MustMoney(premium),
	})
}

func (h *Handler) payDemo(ctx context.Context, id engine.PolicyID, number int, amount engine.Money) error {
	_, err := h.Service.RecordPayment(ctx, id, number, engine.PaymentInput{
		Date:   engine.Date(2025, 2, 1),
		Amount: amount,
		Method: "cash",
	})
	return err
}
