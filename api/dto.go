/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract: Money renders
  as a fixed two-decimal string, nullable domain fields become omitted
  JSON fields, and the engine's types never leak wire concerns.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Monetary fields arrive as float64 and are converted through
  engine.NewMoney in the handlers - the single validation point. DTOs are
  pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/courtier/policy-engine/engine"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// IssuePolicyRequest creates a policy and plans its advance schedule.
type IssuePolicyRequest struct {
	PolicyNumber string  `json:"policy_number"`
	StartDate    string  `json:"start_date"` // ISO date
	EndDate      string  `json:"end_date"`   // ISO date
	PremiumGross float64 `json:"premium_gross"`
	MaxAdvances  int     `json:"max_advances,omitempty"` // default 4
}

// RecordPaymentRequest pays one advance.
type RecordPaymentRequest struct {
	AdvanceNumber int     `json:"advance_number"`
	Date          string  `json:"date"` // ISO date
	Amount        float64 `json:"amount"`
	Method        string  `json:"method,omitempty"`
	Reference     string  `json:"reference,omitempty"`
	Notes         string  `json:"notes,omitempty"`
}

// RefundRequestDTO carries the caller-supplied refund parameters for
// cancellation and termination.
type RefundRequestDTO struct {
	Amount            *float64 `json:"amount,omitempty"` // override, within [0, total paid]
	PenaltyPercentage *float64 `json:"penalty_percentage,omitempty"`
	Method            string   `json:"method,omitempty"`
}

// ReducePremiumRequest is the explicit premiumCurrent reduction step.
type ReducePremiumRequest struct {
	PremiumCurrent float64 `json:"premium_current"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// PolicyDTO represents a policy in API responses.
type PolicyDTO struct {
	ID                  string  `json:"id"`
	PolicyNumber        string  `json:"policy_number"`
	StartDate           string  `json:"start_date"`
	EndDate             string  `json:"end_date"`
	PremiumGross        string  `json:"premium_gross"`
	PremiumCurrent      *string `json:"premium_current,omitempty"`
	AdministrativeState string  `json:"administrative_state"`
	Status              string  `json:"status,omitempty"` // derived lifecycle status
}

// AdvanceDTO represents one installment.
type AdvanceDTO struct {
	Number        int     `json:"number"`
	Amount        string  `json:"amount"`
	PaymentDate   *string `json:"payment_date,omitempty"`
	PaymentMethod string  `json:"payment_method,omitempty"`
	Reference     string  `json:"reference,omitempty"`
	Notes         string  `json:"notes,omitempty"`
	Paid          bool    `json:"paid"`
}

// LedgerStatusDTO is the aggregate payment state of a policy.
type LedgerStatusDTO struct {
	PaidAdvances      int     `json:"paid_advances"`
	PaidAmount        string  `json:"paid_amount"`
	TotalAmount       string  `json:"total_amount"`
	RemainingAmount   string  `json:"remaining_amount"`
	PaymentPercentage float64 `json:"payment_percentage"`
	RequiredAdvances  int     `json:"required_advances"`
	IsFullyPaid       bool    `json:"is_fully_paid"`
}

// PolicyViewDTO bundles a policy with its derived status and ledger.
type PolicyViewDTO struct {
	Policy     PolicyDTO       `json:"policy"`
	Ledger     LedgerStatusDTO `json:"ledger"`
	Advances   []AdvanceDTO    `json:"advances"`
	NextUnpaid *AdvanceDTO     `json:"next_unpaid,omitempty"`
}

// PaymentResultDTO is returned after recording a payment.
type PaymentResultDTO struct {
	Advance    AdvanceDTO      `json:"advance"`
	NextUnpaid *AdvanceDTO     `json:"next_unpaid,omitempty"`
	Ledger     LedgerStatusDTO `json:"ledger"`
}

// RefundRecordDTO represents a persisted refund.
type RefundRecordDTO struct {
	ID                string   `json:"id"`
	PolicyID          string   `json:"policy_id"`
	Amount            string   `json:"amount"`
	Method            string   `json:"method,omitempty"`
	Reason            string   `json:"reason"`
	PenaltyPercentage *float64 `json:"penalty_percentage,omitempty"`
	CreatedAt         string   `json:"created_at"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toPolicyDTO(p engine.Policy, status engine.PolicyStatus) PolicyDTO {
	dto := PolicyDTO{
		ID:                  string(p.ID),
		PolicyNumber:        p.PolicyNumber,
		StartDate:           p.StartDate.Format("2006-01-02"),
		EndDate:             p.EndDate.Format("2006-01-02"),
		PremiumGross:        p.PremiumGross.String(),
		AdministrativeState: string(p.AdministrativeState),
		Status:              string(status),
	}
	if p.PremiumCurrent != nil {
		s := p.PremiumCurrent.String()
		dto.PremiumCurrent = &s
	}
	return dto
}

func toAdvanceDTO(a engine.Advance) AdvanceDTO {
	dto := AdvanceDTO{
		Number:        a.Number,
		Amount:        a.Amount.String(),
		PaymentMethod: a.PaymentMethod,
		Reference:     a.Reference,
		Notes:         a.Notes,
		Paid:          a.Paid(),
	}
	if a.PaymentDate != nil {
		s := a.PaymentDate.Format("2006-01-02")
		dto.PaymentDate = &s
	}
	return dto
}

func toAdvanceDTOs(advances []engine.Advance) []AdvanceDTO {
	dtos := make([]AdvanceDTO, len(advances))
	for i, a := range advances {
		dtos[i] = toAdvanceDTO(a)
	}
	return dtos
}

func toLedgerStatusDTO(s engine.LedgerStatus) LedgerStatusDTO {
	return LedgerStatusDTO{
		PaidAdvances:      s.PaidAdvances,
		PaidAmount:        s.PaidAmount.String(),
		TotalAmount:       s.TotalAmount.String(),
		RemainingAmount:   s.RemainingAmount.String(),
		PaymentPercentage: s.PaymentPercentage,
		RequiredAdvances:  s.RequiredAdvances,
		IsFullyPaid:       s.IsFullyPaid,
	}
}

func toRefundDTO(r engine.RefundRecord) RefundRecordDTO {
	return RefundRecordDTO{
		ID:                r.ID,
		PolicyID:          string(r.PolicyID),
		Amount:            r.Amount.String(),
		Method:            r.Method,
		Reason:            string(r.Reason),
		PenaltyPercentage: r.PenaltyPercentage,
		CreatedAt:         r.CreatedAt.Format(time.RFC3339),
	}
}
