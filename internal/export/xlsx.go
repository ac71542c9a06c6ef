// Package export renders demo snapshots as spreadsheets
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/invoicetrust/trustdemo/internal/domain/entity"
)

const (
	InvoicesSheet = "Invoices"
	StatsSheet    = "Stats"

	dateLayout = "2006-01-02"
)

var invoiceHeader = []interface{}{
	"Invoice", "Supplier", "Org number", "VAT number", "IBAN",
	"Invoice date", "Due date", "Total", "Currency",
	"Trust score", "Risk score", "Status", "Stage", "Completed at",
}

// SnapshotExporter writes snapshots as XLSX workbooks
type SnapshotExporter struct {
	logger *zap.Logger
}

// NewSnapshotExporter creates a new exporter
func NewSnapshotExporter(logger *zap.Logger) *SnapshotExporter {
	return &SnapshotExporter{logger: logger}
}

// Write renders snap to w with an Invoices sheet (one row per invoice) and
// a Stats sheet
func (e *SnapshotExporter) Write(w io.Writer, snap entity.Snapshot) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), InvoicesSheet); err != nil {
		return fmt.Errorf("failed to name invoice sheet: %w", err)
	}
	if err := e.fillInvoices(f, snap.Invoices); err != nil {
		return fmt.Errorf("failed to fill invoices: %w", err)
	}

	if _, err := f.NewSheet(StatsSheet); err != nil {
		return fmt.Errorf("failed to create stats sheet: %w", err)
	}
	if err := e.fillStats(f, snap); err != nil {
		return fmt.Errorf("failed to fill stats: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}

	e.logger.Info("Snapshot exported",
		zap.Uint64("version", snap.Version),
		zap.Int("invoices", len(snap.Invoices)))
	return nil
}

func (e *SnapshotExporter) fillInvoices(f *excelize.File, invoices []entity.Invoice) error {
	if err := f.SetSheetRow(InvoicesSheet, "A1", &invoiceHeader); err != nil {
		return err
	}
	if err := e.boldRow(f, InvoicesSheet, "A1", "N1"); err != nil {
		return err
	}

	for i, inv := range invoices {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}

		completed := ""
		if inv.CompletedAt != nil {
			completed = inv.CompletedAt.Format(time.RFC3339)
		}

		row := []interface{}{
			inv.InvoiceID,
			inv.SupplierName,
			inv.OrgNumber,
			inv.VATNumber,
			inv.IBAN,
			inv.InvoiceDate.Format(dateLayout),
			inv.DueDate.Format(dateLayout),
			inv.Total.InexactFloat64(),
			inv.Currency,
			inv.TrustScore,
			inv.RiskScore,
			string(inv.Status),
			inv.PipelineStage.String(),
			completed,
		}
		if err := f.SetSheetRow(InvoicesSheet, cell, &row); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(InvoicesSheet, "A", "N", 16); err != nil {
		return err
	}
	return f.SetColWidth(InvoicesSheet, "B", "B", 30)
}

func (e *SnapshotExporter) fillStats(f *excelize.File, snap entity.Snapshot) error {
	stats := snap.Stats
	rows := [][]interface{}{
		{"Metric", "Value"},
		{"Snapshot version", snap.Version},
		{"Total invoices", stats.TotalInvoices},
		{"Approved", stats.Approved},
		{"Needs review", stats.NeedsReview},
		{"Flagged", stats.Flagged},
		{"Average trust", stats.AverageTrust},
		{"Financial exposure", stats.FinancialExposure.InexactFloat64()},
	}
	for i, count := range stats.RiskBuckets {
		low := i * 20
		high := low + 19
		if i == entity.RiskBucketCount-1 {
			high = 100
		}
		rows = append(rows, []interface{}{fmt.Sprintf("Risk %d-%d", low, high), count})
	}

	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(StatsSheet, cell, &rows[i]); err != nil {
			return err
		}
	}

	if err := e.boldRow(f, StatsSheet, "A1", "B1"); err != nil {
		return err
	}
	return f.SetColWidth(StatsSheet, "A", "A", 22)
}

func (e *SnapshotExporter) boldRow(f *excelize.File, sheet, from, to string) error {
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, from, to, style)
}
