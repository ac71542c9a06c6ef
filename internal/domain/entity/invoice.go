package entity

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/invoicetrust/trustdemo/internal/domain/pipeline"
)

// Invoice is a synthetic invoice shown by the demo dashboard
type Invoice struct {
	ID            string          `json:"id"`
	InvoiceID     string          `json:"invoice_id"`
	SupplierID    string          `json:"supplier_id"`
	SupplierName  string          `json:"supplier_name"`
	VATNumber     string          `json:"vat_number"`
	OrgNumber     string          `json:"org_number"`
	IBAN          string          `json:"iban"`
	Total         decimal.Decimal `json:"total"`
	Currency      string          `json:"currency"`
	InvoiceDate   time.Time       `json:"invoice_date"`
	DueDate       time.Time       `json:"due_date"`
	TrustScore    int             `json:"trust_score"`
	RiskScore     int             `json:"risk_score"`
	Status        Status          `json:"status,omitempty"`
	Flagged       bool            `json:"flagged"`
	PipelineStage pipeline.Stage  `json:"pipeline_stage"`
	FileName      string          `json:"file_name,omitempty"`
	Revealed      RevealState     `json:"revealed"`
	AuditTrail    []AuditEntry    `json:"audit_trail"`
	CreatedAt     time.Time       `json:"created_at"`
	CompletedAt   *time.Time      `json:"completed_at,omitempty"`
}

// AuditEntry is one line of an invoice's audit trail
type AuditEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Event     string    `json:"event"`
	User      string    `json:"user"`
}

// RevealStep names a field revealed while an invoice is being parsed
type RevealStep string

const (
	RevealSupplier  RevealStep = "supplier"
	RevealDate      RevealStep = "date"
	RevealAmount    RevealStep = "amount"
	RevealReference RevealStep = "reference"
)

// RevealOrder is the fixed order in which parsing reveals fields
var RevealOrder = []RevealStep{RevealSupplier, RevealDate, RevealAmount, RevealReference}

// RevealState records which fields the parse animation has already shown
type RevealState struct {
	Supplier  bool `json:"supplier"`
	Date      bool `json:"date"`
	Amount    bool `json:"amount"`
	Reference bool `json:"reference"`
}

// Mark records a reveal step as shown
func (r *RevealState) Mark(step RevealStep) {
	switch step {
	case RevealSupplier:
		r.Supplier = true
	case RevealDate:
		r.Date = true
	case RevealAmount:
		r.Amount = true
	case RevealReference:
		r.Reference = true
	}
}

// Shown reports whether a reveal step has been marked
func (r RevealState) Shown(step RevealStep) bool {
	switch step {
	case RevealSupplier:
		return r.Supplier
	case RevealDate:
		return r.Date
	case RevealAmount:
		return r.Amount
	case RevealReference:
		return r.Reference
	}
	return false
}

// Done returns true once every field has been revealed
func (r RevealState) Done() bool {
	return r.Supplier && r.Date && r.Amount && r.Reference
}

// FullyRevealed returns a reveal state with every step shown
func FullyRevealed() RevealState {
	return RevealState{Supplier: true, Date: true, Amount: true, Reference: true}
}

// ApplyTrustScore sets the trust score and every field derived from it.
// Scores are clamped to 0..100.
func (i *Invoice) ApplyTrustScore(trust int) {
	if trust < 0 {
		trust = 0
	}
	if trust > 100 {
		trust = 100
	}
	i.TrustScore = trust
	i.RiskScore = 100 - trust
	i.Status = StatusForRisk(i.RiskScore)
	i.Flagged = i.Status == StatusFlagged
}

// IsComplete returns true once the invoice reached the terminal pipeline stage
func (i *Invoice) IsComplete() bool {
	return i.PipelineStage == pipeline.StageComplete
}

// Clone returns a copy that shares no mutable state with the original
func (i Invoice) Clone() Invoice {
	if i.AuditTrail != nil {
		i.AuditTrail = append([]AuditEntry(nil), i.AuditTrail...)
	}
	if i.CompletedAt != nil {
		completed := *i.CompletedAt
		i.CompletedAt = &completed
	}
	return i
}
