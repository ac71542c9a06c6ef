package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/invoicetrust/trustdemo/internal/domain/entity"
	"github.com/invoicetrust/trustdemo/internal/domain/pipeline"
)

func testSnapshot() entity.Snapshot {
	day := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)
	done := day.Add(9 * time.Hour)

	approved := entity.Invoice{
		ID:            "inv-00001",
		InvoiceID:     "F2026-1042",
		SupplierName:  "Nordvik Logistik AB",
		OrgNumber:     "556234-8891",
		Total:         decimal.RequireFromString("12500.50"),
		Currency:      "SEK",
		InvoiceDate:   day,
		DueDate:       day.AddDate(0, 0, 30),
		PipelineStage: pipeline.StageComplete,
		CompletedAt:   &done,
	}
	approved.ApplyTrustScore(95)

	parsing := entity.Invoice{
		ID:            "inv-00002",
		InvoiceID:     "F2026-2210",
		SupplierName:  "Östgöta Transport AB",
		Total:         decimal.RequireFromString("800.00"),
		Currency:      "SEK",
		InvoiceDate:   day,
		DueDate:       day.AddDate(0, 0, 30),
		PipelineStage: pipeline.StageParsing,
	}

	return entity.Snapshot{
		Version:  12,
		Invoices: []entity.Invoice{approved, parsing},
		Stats:    entity.Stats{TotalInvoices: 1, Approved: 1, AverageTrust: 95, FinancialExposure: decimal.Zero, RiskBuckets: [5]int{1, 0, 0, 0, 0}},
	}
}

func TestSnapshotExporter_Write(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewSnapshotExporter(zap.NewNop()).Write(&buf, testSnapshot()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{InvoicesSheet, StatsSheet}, f.GetSheetList())

	rows, err := f.GetRows(InvoicesSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3, "header plus one row per invoice")
	assert.Equal(t, "Invoice", rows[0][0])
	assert.Equal(t, "F2026-1042", rows[1][0])
	assert.Equal(t, "Nordvik Logistik AB", rows[1][1])
	assert.Equal(t, "2026-03-02", rows[1][5])
	assert.Equal(t, "12500.5", rows[1][7])
	assert.Equal(t, "approved", rows[1][11])
	assert.Equal(t, "parsing", rows[2][12])

	stats, err := f.GetRows(StatsSheet)
	require.NoError(t, err)
	assert.Equal(t, []string{"Total invoices", "1"}, stats[2])
	assert.Equal(t, []string{"Risk 80-100", "0"}, stats[len(stats)-1])
}

func TestSnapshotExporter_EmptySnapshot(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewSnapshotExporter(zap.NewNop()).Write(&buf, entity.Snapshot{}))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(InvoicesSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
