package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/invoicetrust/trustdemo/internal/domain/entity"
)

// DefaultHistoryLimit caps list queries without an explicit limit
const DefaultHistoryLimit = 100

// PipelineHistoryRepository stores demo engine events
type PipelineHistoryRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPipelineHistoryRepository creates a new pipeline history repository
func NewPipelineHistoryRepository(db *sql.DB, logger *zap.Logger) *PipelineHistoryRepository {
	return &PipelineHistoryRepository{
		db:     db,
		logger: logger,
	}
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// Create inserts a history record, inside tx when it is not nil.
// Records with an event id that was already stored are ignored.
func (r *PipelineHistoryRepository) Create(ctx context.Context, tx *sql.Tx, h *entity.PipelineHistory) error {
	query := `
		INSERT OR IGNORE INTO pipeline_history (
			event_id, event_type, invoice_id, batch_id, stage, status,
			trust_score, payload, recorded_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var exec execer = r.db
	if tx != nil {
		exec = tx
	}

	result, err := exec.ExecContext(ctx, query,
		h.EventID,
		h.EventType,
		h.InvoiceID,
		h.BatchID,
		h.Stage,
		h.Status,
		h.TrustScore,
		h.Payload,
		h.RecordedAt.UTC(),
	)
	if err != nil {
		r.logger.Error("Failed to create pipeline history record",
			zap.String("event_id", h.EventID),
			zap.Error(err))
		return fmt.Errorf("failed to create pipeline history: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	h.ID = id
	return nil
}

// ListRecent returns the latest records, newest first
func (r *PipelineHistoryRepository) ListRecent(ctx context.Context, limit int) ([]*entity.PipelineHistory, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	query := `
		SELECT id, event_id, event_type, invoice_id, batch_id, stage, status,
			trust_score, payload, recorded_at
		FROM pipeline_history
		ORDER BY recorded_at DESC, id DESC
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		r.logger.Error("Failed to list pipeline history", zap.Error(err))
		return nil, fmt.Errorf("failed to list pipeline history: %w", err)
	}
	defer rows.Close()

	return scanHistory(rows)
}

// ListByInvoice returns every record of one invoice, oldest first
func (r *PipelineHistoryRepository) ListByInvoice(ctx context.Context, invoiceID string) ([]*entity.PipelineHistory, error) {
	query := `
		SELECT id, event_id, event_type, invoice_id, batch_id, stage, status,
			trust_score, payload, recorded_at
		FROM pipeline_history
		WHERE invoice_id = ?
		ORDER BY recorded_at ASC, id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, invoiceID)
	if err != nil {
		r.logger.Error("Failed to get pipeline history by invoice ID",
			zap.String("invoice_id", invoiceID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get pipeline history: %w", err)
	}
	defer rows.Close()

	return scanHistory(rows)
}

// Count returns the number of stored records
func (r *PipelineHistoryRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM pipeline_history").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count pipeline history: %w", err)
	}
	return n, nil
}

func scanHistory(rows *sql.Rows) ([]*entity.PipelineHistory, error) {
	records := []*entity.PipelineHistory{}
	for rows.Next() {
		var record entity.PipelineHistory
		err := rows.Scan(
			&record.ID,
			&record.EventID,
			&record.EventType,
			&record.InvoiceID,
			&record.BatchID,
			&record.Stage,
			&record.Status,
			&record.TrustScore,
			&record.Payload,
			&record.RecordedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pipeline history record: %w", err)
		}
		records = append(records, &record)
	}
	return records, rows.Err()
}
