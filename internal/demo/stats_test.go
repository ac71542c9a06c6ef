package demo

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invoicetrust/trustdemo/internal/domain/entity"
	"github.com/invoicetrust/trustdemo/internal/domain/pipeline"
)

func completedInvoice(id string, trust int, total string) entity.Invoice {
	inv := entity.Invoice{
		ID:            id,
		InvoiceID:     "F2026-" + id,
		SupplierName:  "Nordvik Logistik AB",
		Total:         decimal.RequireFromString(total),
		Currency:      "SEK",
		InvoiceDate:   testEpoch,
		PipelineStage: pipeline.StageComplete,
	}
	inv.ApplyTrustScore(trust)
	return inv
}

func TestComputeStats(t *testing.T) {
	parsing := completedInvoice("5", 10, "99999.00")
	parsing.PipelineStage = pipeline.StageParsing

	invoices := []entity.Invoice{
		completedInvoice("1", 95, "1000.00"),  // risk 5, approved
		completedInvoice("2", 70, "2000.00"),  // risk 30, needs review
		completedInvoice("3", 45, "3000.50"),  // risk 55, flagged
		completedInvoice("4", 10, "4000.25"),  // risk 90, flagged
		parsing,
	}

	stats := ComputeStats(invoices)

	assert.Equal(t, 4, stats.TotalInvoices)
	assert.Equal(t, 1, stats.Approved)
	assert.Equal(t, 1, stats.NeedsReview)
	assert.Equal(t, 2, stats.Flagged)
	assert.Equal(t, [entity.RiskBucketCount]int{1, 1, 1, 0, 1}, stats.RiskBuckets)
	assert.Equal(t, 55.0, stats.AverageTrust)
	assert.True(t, decimal.RequireFromString("7000.75").Equal(stats.FinancialExposure))
}

func TestComputeStats_ExposureCoversHighRisk(t *testing.T) {
	var invoices []entity.Invoice
	expected := decimal.Zero
	for trust := 0; trust <= 100; trust += 5 {
		inv := completedInvoice(fmt.Sprintf("%d", trust), trust, "100.00")
		invoices = append(invoices, inv)
		if riskEventFor(inv).Severity == entity.SeverityHigh {
			assert.True(t, inv.Flagged, "high severity invoice %s is not flagged", inv.ID)
		}
		if inv.Flagged {
			expected = expected.Add(inv.Total)
		}
	}

	stats := ComputeStats(invoices)
	assert.True(t, expected.Equal(stats.FinancialExposure), "exposure %s, want %s", stats.FinancialExposure, expected)
}

func TestComputeStats_Empty(t *testing.T) {
	stats := ComputeStats(nil)
	assert.Zero(t, stats.TotalInvoices)
	assert.Zero(t, stats.AverageTrust)
	assert.True(t, stats.FinancialExposure.IsZero())
}

func TestComputeStats_RiskOfHundredLandsInLastBucket(t *testing.T) {
	stats := ComputeStats([]entity.Invoice{completedInvoice("1", 0, "10.00")})
	assert.Equal(t, 1, stats.RiskBuckets[entity.RiskBucketCount-1])
}

func TestComputeStats_AverageRoundsToOneDecimal(t *testing.T) {
	stats := ComputeStats([]entity.Invoice{
		completedInvoice("1", 90, "1.00"),
		completedInvoice("2", 91, "1.00"),
		completedInvoice("3", 91, "1.00"),
	})
	assert.Equal(t, 90.7, stats.AverageTrust)
}

func TestDeriveRiskEvents(t *testing.T) {
	invoices := []entity.Invoice{
		completedInvoice("1", 95, "1.00"),
		completedInvoice("2", 20, "2.00"),
		completedInvoice("3", 40, "3.00"),
		completedInvoice("4", 5, "4.00"),
	}

	events := DeriveRiskEvents(invoices, 2)
	require.Len(t, events, 2)
	assert.Equal(t, "2", events[0].InvoiceID)
	assert.Equal(t, entity.SeverityHigh, events[0].Severity)
	assert.Equal(t, "3", events[1].InvoiceID)
	assert.Equal(t, entity.SeverityMedium, events[1].Severity)

	assert.Empty(t, DeriveRiskEvents(invoices, 0))
}

func TestRiskEventFor_UsesCompletionTime(t *testing.T) {
	inv := completedInvoice("1", 10, "5.00")
	done := testEpoch.Add(3 * time.Hour)
	inv.CompletedAt = &done

	evt := riskEventFor(inv)
	assert.Equal(t, done, evt.Timestamp)
	assert.Equal(t, "risk-1", evt.ID)
	assert.Contains(t, evt.Message, "trust score 10")
}

func TestPrependRiskEvent(t *testing.T) {
	existing := []entity.RiskEvent{{ID: "a"}, {ID: "b"}, {ID: "c"}}

	out := prependRiskEvent(existing, entity.RiskEvent{ID: "new"}, 3)
	require.Len(t, out, 3)
	assert.Equal(t, "new", out[0].ID)
	assert.Equal(t, "b", out[2].ID)

	assert.Len(t, existing, 3, "input slice is not modified")
	assert.Empty(t, prependRiskEvent(existing, entity.RiskEvent{ID: "new"}, 0))
}
