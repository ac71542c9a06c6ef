package repository

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/invoicetrust/trustdemo/internal/domain/entity"
	"github.com/invoicetrust/trustdemo/migrations"
	"github.com/invoicetrust/trustdemo/pkg/database"
)

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	logger := zap.NewNop()

	db, err := database.New(database.Config{Path: filepath.Join(t.TempDir(), "history.db")}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, database.NewMigrator(db, logger).RunMigrations(context.Background(), migrations.FS))
	return db
}

func historyRecord(eventID, invoiceID string, at time.Time) *entity.PipelineHistory {
	return &entity.PipelineHistory{
		EventID:    eventID,
		EventType:  "invoice.stage_changed",
		InvoiceID:  invoiceID,
		BatchID:    "batch-1",
		Stage:      "parsing",
		Payload:    `{"stage":"parsing"}`,
		RecordedAt: at,
	}
}

func TestPipelineHistoryRepository_CreateAndList(t *testing.T) {
	db := newTestDB(t)
	repo := NewPipelineHistoryRepository(db.DB, zap.NewNop())
	ctx := context.Background()
	base := time.Date(2026, time.March, 12, 9, 0, 0, 0, time.UTC)

	first := historyRecord("evt-1", "inv-00001", base)
	require.NoError(t, repo.Create(ctx, nil, first))
	assert.NotZero(t, first.ID)

	second := historyRecord("evt-2", "inv-00001", base.Add(time.Second))
	second.Stage = "complete"
	second.Status = "approved"
	second.TrustScore = 95
	require.NoError(t, repo.Create(ctx, nil, second))

	require.NoError(t, repo.Create(ctx, nil, historyRecord("evt-3", "inv-00002", base.Add(2*time.Second))))

	recent, err := repo.ListRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "evt-3", recent[0].EventID)
	assert.Equal(t, "evt-2", recent[1].EventID)

	byInvoice, err := repo.ListByInvoice(ctx, "inv-00001")
	require.NoError(t, err)
	require.Len(t, byInvoice, 2)
	assert.Equal(t, "evt-1", byInvoice[0].EventID)
	assert.Equal(t, "approved", byInvoice[1].Status)
	assert.Equal(t, 95, byInvoice[1].TrustScore)
	assert.True(t, base.Equal(byInvoice[0].RecordedAt))

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestPipelineHistoryRepository_DuplicateEventIgnored(t *testing.T) {
	db := newTestDB(t)
	repo := NewPipelineHistoryRepository(db.DB, zap.NewNop())
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, repo.Create(ctx, nil, historyRecord("evt-1", "inv-1", now)))
	require.NoError(t, repo.Create(ctx, nil, historyRecord("evt-1", "inv-1", now)))

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestPipelineHistoryRepository_CreateInTransaction(t *testing.T) {
	db := newTestDB(t)
	repo := NewPipelineHistoryRepository(db.DB, zap.NewNop())
	ctx := context.Background()

	err := db.WithTransaction(ctx, func(tx *sql.Tx) error {
		return repo.Create(ctx, tx, historyRecord("evt-rollback", "inv-1", time.Now()))
	})
	require.NoError(t, err)

	err = db.WithTransaction(ctx, func(tx *sql.Tx) error {
		if err := repo.Create(ctx, tx, historyRecord("evt-discarded", "inv-1", time.Now())); err != nil {
			return err
		}
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestPipelineHistoryRepository_EmptyList(t *testing.T) {
	db := newTestDB(t)
	repo := NewPipelineHistoryRepository(db.DB, zap.NewNop())

	records, err := repo.ListRecent(context.Background(), 0)
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}
