package port

import (
	"context"
	"database/sql"

	"github.com/invoicetrust/trustdemo/internal/domain/entity"
)

// HistoryRepository defines pipeline history persistence
type HistoryRepository interface {
	Create(ctx context.Context, tx *sql.Tx, h *entity.PipelineHistory) error
	ListRecent(ctx context.Context, limit int) ([]*entity.PipelineHistory, error)
	ListByInvoice(ctx context.Context, invoiceID string) ([]*entity.PipelineHistory, error)
}
