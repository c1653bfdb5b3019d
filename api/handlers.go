/*
handlers.go - HTTP handlers for the policy payment engine

PURPOSE:
  Exposes the engine via REST. Handles HTTP request/response, JSON
  serialization, boundary validation (floats -> Money, strings -> dates),
  and delegates every decision to the engine service.

ENDPOINTS:
  Policies:
    GET    /api/policies                  List policies
    POST   /api/policies                  Issue a policy (plans installments)
    GET    /api/policies/{id}             Policy with derived status
    GET    /api/policies/{id}/status      Full view (policy + ledger)
    GET    /api/policies/{id}/advances    Installment schedule

  Payments:
    POST   /api/policies/{id}/payments    Record a payment

  Lifecycle:
    POST   /api/policies/{id}/cancel      Cancel + penalty refund
    POST   /api/policies/{id}/terminate   Convert to termination + refund
    POST   /api/policies/{id}/premium     Explicit premiumCurrent reduction
    GET    /api/policies/{id}/refunds     Refund records

ERROR HANDLING:
  Engine error kinds map to HTTP status:
  - 400: invalid amounts, dates, advance counts, refund bounds
  - 404: unknown policy
  - 409: already-paid advance, already-terminal policy
  - 500: store failures

SEE ALSO:
  - dto.go: request/response shapes
  - server.go: routing and middleware
  - engine/service.go: the logic behind every endpoint
*/
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/courtier/policy-engine/engine"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service *engine.Service
	Metrics *Metrics
}

// NewHandler creates a handler around the engine service.
func NewHandler(svc *engine.Service, metrics *Metrics) *Handler {
	return &Handler{Service: svc, Metrics: metrics}
}

// =============================================================================
// POLICY HANDLERS
// =============================================================================

// ListPolicies returns all policies with their derived status.
// GET /api/policies
func (h *Handler) ListPolicies(w http.ResponseWriter, r *http.Request) {
	policies, err := h.Service.ListPolicies(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list policies", err)
		return
	}

	dtos := make([]PolicyDTO, 0, len(policies))
	for _, p := range policies {
		view, err := h.Service.PolicyStatus(r.Context(), p.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to resolve status", err)
			return
		}
		dtos = append(dtos, toPolicyDTO(p, view.Status))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// IssuePolicy creates a policy and seeds its installment schedule.
// POST /api/policies
func (h *Handler) IssuePolicy(w http.ResponseWriter, r *http.Request) {
	var req IssuePolicyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.PolicyNumber == "" {
		writeError(w, http.StatusBadRequest, "policy_number is required", nil)
		return
	}

	start, err := parseDate(req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start_date", err)
		return
	}
	end, err := parseDate(req.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid end_date", err)
		return
	}
	premium, err := engine.NewMoney(req.PremiumGross)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid premium_gross", err)
		return
	}

	policy, advances, err := h.Service.IssuePolicy(r.Context(), engine.IssueRequest{
		PolicyNumber: req.PolicyNumber,
		StartDate:    start,
		EndDate:      end,
		PremiumGross: premium,
		MaxAdvances:  req.MaxAdvances,
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, PolicyViewDTO{
		Policy:   toPolicyDTO(policy, engine.StatusActive),
		Advances: toAdvanceDTOs(advances),
	})
}

// GetPolicy returns one policy with its derived status.
// GET /api/policies/{id}
func (h *Handler) GetPolicy(w http.ResponseWriter, r *http.Request) {
	id := engine.PolicyID(chi.URLParam(r, "id"))

	view, err := h.Service.PolicyStatus(r.Context(), id)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPolicyDTO(view.Policy, view.Status))
}

// GetStatus returns the full view: policy, ledger snapshot, schedule.
// GET /api/policies/{id}/status
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	id := engine.PolicyID(chi.URLParam(r, "id"))

	view, err := h.Service.PolicyStatus(r.Context(), id)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	dto := PolicyViewDTO{
		Policy:   toPolicyDTO(view.Policy, view.Status),
		Ledger:   toLedgerStatusDTO(view.Ledger),
		Advances: toAdvanceDTOs(view.Advances),
	}
	if view.NextUnpaid != nil {
		next := toAdvanceDTO(*view.NextUnpaid)
		dto.NextUnpaid = &next
	}
	writeJSON(w, http.StatusOK, dto)
}

// GetAdvances returns the installment schedule.
// GET /api/policies/{id}/advances
func (h *Handler) GetAdvances(w http.ResponseWriter, r *http.Request) {
	id := engine.PolicyID(chi.URLParam(r, "id"))

	view, err := h.Service.PolicyStatus(r.Context(), id)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAdvanceDTOs(view.Advances))
}

// =============================================================================
// PAYMENT HANDLERS
// =============================================================================

// RecordPayment pays one advance of a policy.
// POST /api/policies/{id}/payments
func (h *Handler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	id := engine.PolicyID(chi.URLParam(r, "id"))

	var req RecordPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	date, err := parseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", err)
		return
	}
	amount, err := engine.NewMoney(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid amount", err)
		return
	}

	result, err := h.Service.RecordPayment(r.Context(), id, req.AdvanceNumber, engine.PaymentInput{
		Date:      date,
		Amount:    amount,
		Method:    req.Method,
		Reference: req.Reference,
		Notes:     req.Notes,
	})
	if err != nil {
		h.Metrics.PaymentsRecorded.WithLabelValues("error").Inc()
		writeEngineError(w, err)
		return
	}

	h.Metrics.PaymentsRecorded.WithLabelValues("ok").Inc()
	h.Metrics.PaymentAmount.Observe(result.Advance.Amount.Float64())

	dto := PaymentResultDTO{
		Advance: toAdvanceDTO(result.Advance),
		Ledger:  toLedgerStatusDTO(result.Status),
	}
	if result.NextUnpaid != nil {
		next := toAdvanceDTO(*result.NextUnpaid)
		dto.NextUnpaid = &next
	}
	writeJSON(w, http.StatusCreated, dto)
}

// =============================================================================
// LIFECYCLE HANDLERS
// =============================================================================

// CancelPolicy cancels a policy with a penalty-model refund.
// POST /api/policies/{id}/cancel
func (h *Handler) CancelPolicy(w http.ResponseWriter, r *http.Request) {
	id := engine.PolicyID(chi.URLParam(r, "id"))

	refundReq, err := decodeRefundRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	record, err := h.Service.CancelPolicy(r.Context(), id, refundReq)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	h.Metrics.LifecycleTransitions.WithLabelValues("cancellation").Inc()
	h.Metrics.RefundAmount.Observe(record.Amount.Float64())
	writeJSON(w, http.StatusCreated, toRefundDTO(record))
}

// ConvertToTermination converts a policy to termination ("resel").
// Returns 204 when nothing was paid and no refund record was created.
// POST /api/policies/{id}/terminate
func (h *Handler) ConvertToTermination(w http.ResponseWriter, r *http.Request) {
	id := engine.PolicyID(chi.URLParam(r, "id"))

	refundReq, err := decodeRefundRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	record, err := h.Service.ConvertToTermination(r.Context(), id, refundReq)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	h.Metrics.LifecycleTransitions.WithLabelValues("termination").Inc()
	if record == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	h.Metrics.RefundAmount.Observe(record.Amount.Float64())
	writeJSON(w, http.StatusCreated, toRefundDTO(*record))
}

// ReducePremium performs the explicit one-shot premiumCurrent reduction.
// POST /api/policies/{id}/premium
func (h *Handler) ReducePremium(w http.ResponseWriter, r *http.Request) {
	id := engine.PolicyID(chi.URLParam(r, "id"))

	var req ReducePremiumRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	current, err := engine.NewMoney(req.PremiumCurrent)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid premium_current", err)
		return
	}

	policy, err := h.Service.ReducePremium(r.Context(), id, current)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	view, err := h.Service.PolicyStatus(r.Context(), id)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPolicyDTO(policy, view.Status))
}

// ListRefunds returns the refund records of a policy.
// GET /api/policies/{id}/refunds
func (h *Handler) ListRefunds(w http.ResponseWriter, r *http.Request) {
	id := engine.PolicyID(chi.URLParam(r, "id"))

	// 404 for unknown policies, empty list for policies without refunds.
	if _, err := h.Service.GetPolicy(r.Context(), id); err != nil {
		writeEngineError(w, err)
		return
	}

	refunds, err := h.Service.ListRefunds(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list refunds", err)
		return
	}

	dtos := make([]RefundRecordDTO, len(refunds))
	for i, rec := range refunds {
		dtos[i] = toRefundDTO(rec)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// HELPERS
// =============================================================================

func decodeRefundRequest(r *http.Request) (engine.RefundRequest, error) {
	var dto RefundRequestDTO
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
			return engine.RefundRequest{}, err
		}
	}

	req := engine.RefundRequest{
		PenaltyPercentage: dto.PenaltyPercentage,
		Method:            dto.Method,
	}
	if dto.Amount != nil {
		amount, err := engine.NewMoney(*dto.Amount)
		if err != nil {
			return engine.RefundRequest{}, err
		}
		req.Amount = &amount
	}
	return req, nil
}

func parseDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeEngineError maps engine error kinds to HTTP status codes.
func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case engine.IsNotFound(err):
		writeError(w, http.StatusNotFound, "Policy not found", err)
	case engine.IsConflict(err):
		writeError(w, http.StatusConflict, "Conflicting state", err)
	case engine.IsClientError(err):
		writeError(w, http.StatusBadRequest, "Invalid request", err)
	default:
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}
