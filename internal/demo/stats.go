package demo

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/invoicetrust/trustdemo/internal/domain/entity"
)

const riskBucketWidth = 100 / entity.RiskBucketCount

// highSeverityRisk is the risk score from which a risk event is rated high
const highSeverityRisk = 75

// ComputeStats aggregates the invoices that finished analysis
func ComputeStats(invoices []entity.Invoice) entity.Stats {
	stats := entity.Stats{FinancialExposure: decimal.Zero}
	trustSum := 0

	for _, inv := range invoices {
		if !inv.IsComplete() {
			continue
		}

		stats.TotalInvoices++
		trustSum += inv.TrustScore

		switch inv.Status {
		case entity.StatusApproved:
			stats.Approved++
		case entity.StatusNeedsReview:
			stats.NeedsReview++
		case entity.StatusFlagged:
			// every high severity invoice is flagged too
			stats.Flagged++
			stats.FinancialExposure = stats.FinancialExposure.Add(inv.Total)
		}

		bucket := inv.RiskScore / riskBucketWidth
		if bucket >= entity.RiskBucketCount {
			bucket = entity.RiskBucketCount - 1
		}
		if bucket < 0 {
			bucket = 0
		}
		stats.RiskBuckets[bucket]++
	}

	if stats.TotalInvoices > 0 {
		avg := float64(trustSum) / float64(stats.TotalInvoices)
		stats.AverageTrust = math.Round(avg*10) / 10
	}
	return stats
}

// DeriveRiskEvents builds at most limit risk events from flagged invoices,
// in invoice order (newest first)
func DeriveRiskEvents(invoices []entity.Invoice, limit int) []entity.RiskEvent {
	events := make([]entity.RiskEvent, 0, limit)
	for _, inv := range invoices {
		if len(events) >= limit {
			break
		}
		if inv.IsComplete() && inv.Flagged {
			events = append(events, riskEventFor(inv))
		}
	}
	return events
}

func riskEventFor(inv entity.Invoice) entity.RiskEvent {
	severity := entity.SeverityMedium
	if inv.RiskScore >= highSeverityRisk {
		severity = entity.SeverityHigh
	}

	ts := inv.InvoiceDate
	if inv.CompletedAt != nil {
		ts = *inv.CompletedAt
	}

	return entity.RiskEvent{
		ID:           "risk-" + inv.ID,
		InvoiceID:    inv.ID,
		SupplierID:   inv.SupplierID,
		SupplierName: inv.SupplierName,
		Severity:     severity,
		Message:      fmt.Sprintf("Invoice %s from %s flagged with trust score %d", inv.InvoiceID, inv.SupplierName, inv.TrustScore),
		Amount:       inv.Total,
		Currency:     inv.Currency,
		Timestamp:    ts,
	}
}

// prependRiskEvent adds evt in front and trims the list to limit
func prependRiskEvent(events []entity.RiskEvent, evt entity.RiskEvent, limit int) []entity.RiskEvent {
	out := make([]entity.RiskEvent, 0, limit)
	if limit > 0 {
		out = append(out, evt)
	}
	for _, e := range events {
		if len(out) >= limit {
			break
		}
		out = append(out, e)
	}
	return out
}
