package entity

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/invoicetrust/trustdemo/internal/domain/pipeline"
)

// RiskBucketCount is the number of risk score histogram buckets (width 20)
const RiskBucketCount = 5

// Stats aggregates the completed invoices of a snapshot
type Stats struct {
	TotalInvoices     int                  `json:"total_invoices"`
	Approved          int                  `json:"approved"`
	NeedsReview       int                  `json:"needs_review"`
	Flagged           int                  `json:"flagged"`
	RiskBuckets       [RiskBucketCount]int `json:"risk_buckets"`
	AverageTrust      float64              `json:"average_trust"`
	FinancialExposure decimal.Decimal      `json:"financial_exposure"`
}

// RiskEvent is a dashboard alert raised by a flagged invoice
type RiskEvent struct {
	ID           string          `json:"id"`
	InvoiceID    string          `json:"invoice_id"`
	SupplierID   string          `json:"supplier_id"`
	SupplierName string          `json:"supplier_name"`
	Severity     string          `json:"severity"`
	Message      string          `json:"message"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency"`
	Timestamp    time.Time       `json:"timestamp"`
}

// UploadingFile is a file queued by an upload simulation
type UploadingFile struct {
	FileName  string         `json:"file_name"`
	InvoiceID string         `json:"invoice_id"`
	Stage     pipeline.Stage `json:"stage"`
}

// Snapshot is the full demo state handed to subscribers.
// Every snapshot is a copy; mutating it has no effect on the engine.
type Snapshot struct {
	Version           uint64          `json:"version"`
	Suppliers         []Supplier      `json:"suppliers"`
	Invoices          []Invoice       `json:"invoices"`
	Stats             Stats           `json:"stats"`
	RiskEvents        []RiskEvent     `json:"risk_events"`
	UploadModalOpen   bool            `json:"upload_modal_open"`
	UploadingFiles    []UploadingFile `json:"uploading_files"`
	IsAnalyzing       bool            `json:"is_analyzing"`
	SimulatedInvoices []string        `json:"simulated_invoices"`
}

// Invoice looks up an invoice by id
func (s Snapshot) Invoice(id string) (Invoice, bool) {
	for _, inv := range s.Invoices {
		if inv.ID == id {
			return inv, true
		}
	}
	return Invoice{}, false
}

// Clone returns a deep copy of the snapshot
func (s Snapshot) Clone() Snapshot {
	out := s
	out.Suppliers = append([]Supplier{}, s.Suppliers...)
	out.Invoices = make([]Invoice, len(s.Invoices))
	for i, inv := range s.Invoices {
		out.Invoices[i] = inv.Clone()
	}
	out.RiskEvents = append([]RiskEvent{}, s.RiskEvents...)
	out.UploadingFiles = append([]UploadingFile{}, s.UploadingFiles...)
	out.SimulatedInvoices = append([]string{}, s.SimulatedInvoices...)
	return out
}
