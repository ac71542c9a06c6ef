package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStatusForRisk(t *testing.T) {
	tests := []struct {
		risk int
		want Status
	}{
		{0, StatusApproved},
		{20, StatusApproved},
		{21, StatusNeedsReview},
		{50, StatusNeedsReview},
		{51, StatusFlagged},
		{100, StatusFlagged},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusForRisk(tt.risk), "risk %d", tt.risk)
	}
}

func TestInvoice_ApplyTrustScore(t *testing.T) {
	t.Run("derives risk status and flag", func(t *testing.T) {
		var inv Invoice
		inv.ApplyTrustScore(45)

		assert.Equal(t, 45, inv.TrustScore)
		assert.Equal(t, 55, inv.RiskScore)
		assert.Equal(t, StatusFlagged, inv.Status)
		assert.True(t, inv.Flagged)

		inv.ApplyTrustScore(95)
		assert.Equal(t, 5, inv.RiskScore)
		assert.Equal(t, StatusApproved, inv.Status)
		assert.False(t, inv.Flagged)
	})

	t.Run("clamps out of range scores", func(t *testing.T) {
		var inv Invoice
		inv.ApplyTrustScore(140)
		assert.Equal(t, 100, inv.TrustScore)
		assert.Equal(t, 0, inv.RiskScore)

		inv.ApplyTrustScore(-3)
		assert.Equal(t, 0, inv.TrustScore)
		assert.Equal(t, 100, inv.RiskScore)
	})
}

func TestRevealState(t *testing.T) {
	var r RevealState
	for i, step := range RevealOrder {
		assert.False(t, r.Done(), "done before step %d", i)
		r.Mark(step)
	}
	assert.True(t, r.Done())
	assert.Equal(t, FullyRevealed(), r)
}

func TestSnapshot_CloneIsDeep(t *testing.T) {
	now := time.Now()
	snap := Snapshot{
		Invoices: []Invoice{{
			ID:          "inv-1",
			AuditTrail:  []AuditEntry{{Timestamp: now, Event: "Invoice received", User: "system"}},
			CompletedAt: &now,
		}},
		SimulatedInvoices: []string{"inv-1"},
	}

	clone := snap.Clone()
	clone.Invoices[0].AuditTrail[0].Event = "changed"
	*clone.Invoices[0].CompletedAt = now.Add(time.Hour)
	clone.SimulatedInvoices[0] = "other"

	assert.Equal(t, "Invoice received", snap.Invoices[0].AuditTrail[0].Event)
	assert.Equal(t, now, *snap.Invoices[0].CompletedAt)
	assert.Equal(t, "inv-1", snap.SimulatedInvoices[0])

	inv, ok := clone.Invoice("inv-1")
	assert.True(t, ok)
	assert.Equal(t, "inv-1", inv.ID)
	_, ok = clone.Invoice("missing")
	assert.False(t, ok)
}

func TestSnapshot_InvoiceOnReturnedValue(t *testing.T) {
	snap := Snapshot{Invoices: []Invoice{{ID: "inv-7", InvoiceID: "F2026-1007"}}}

	inv, ok := snap.Clone().Invoice("inv-7")
	assert.True(t, ok)
	assert.Equal(t, "F2026-1007", inv.InvoiceID)
}
