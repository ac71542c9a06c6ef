package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/invoicetrust/trustdemo/internal/application/dispatcher"
	"github.com/invoicetrust/trustdemo/internal/application/port"
	"github.com/invoicetrust/trustdemo/internal/domain/entity"
	"github.com/invoicetrust/trustdemo/internal/domain/event"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// HistoryHandlerName is the dispatcher subscription name of the recorder
const HistoryHandlerName = "pipeline-history"

// HistoryService records demo engine events and serves them back
type HistoryService interface {
	Record(ctx context.Context, evt *event.Event) error
	Recent(ctx context.Context, limit int) ([]*entity.PipelineHistory, error)
	ForInvoice(ctx context.Context, invoiceID string) ([]*entity.PipelineHistory, error)
}

type historyServiceImpl struct {
	repo   port.HistoryRepository
	logger Logger
	now    func() time.Time
}

// NewHistoryService creates a new HistoryService
func NewHistoryService(repo port.HistoryRepository, logger Logger) HistoryService {
	return &historyServiceImpl{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

// RegisterHistoryHandlers subscribes the service to every engine event
func RegisterHistoryHandlers(d dispatcher.Dispatcher, s HistoryService) {
	d.SubscribeAll(HistoryHandlerName, s.Record)
}

// Record stores one event. Errors are logged and returned to the dispatcher;
// they never reach the engine.
func (s *historyServiceImpl) Record(ctx context.Context, evt *event.Event) error {
	if evt == nil {
		return fmt.Errorf("record history: nil event")
	}

	payload, err := json.Marshal(evt.Payload)
	if err != nil {
		s.logger.Error("Failed to encode event payload", "error", err, "event_id", evt.ID)
		return fmt.Errorf("encode payload: %w", err)
	}

	recordedAt := evt.Timestamp
	if recordedAt.IsZero() {
		recordedAt = s.now()
	}

	h := &entity.PipelineHistory{
		EventID:    evt.ID,
		EventType:  evt.Type.String(),
		InvoiceID:  evt.InvoiceID,
		BatchID:    evt.CorrelationID,
		Stage:      evt.GetPayloadString("stage"),
		Status:     evt.GetPayloadString("status"),
		TrustScore: int(evt.GetPayloadInt("trust_score")),
		Payload:    string(payload),
		RecordedAt: recordedAt,
	}
	if evt.Type == event.TypeInvoiceCompleted && h.Stage == "" {
		h.Stage = "complete"
	}

	if err := s.repo.Create(ctx, nil, h); err != nil {
		s.logger.Error("Failed to record pipeline history", "error", err, "event_id", evt.ID, "event_type", evt.Type)
		return fmt.Errorf("create history: %w", err)
	}
	return nil
}

// Recent returns the latest records, newest first
func (s *historyServiceImpl) Recent(ctx context.Context, limit int) ([]*entity.PipelineHistory, error) {
	records, err := s.repo.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent history: %w", err)
	}
	return records, nil
}

// ForInvoice returns the records of one invoice, oldest first
func (s *historyServiceImpl) ForInvoice(ctx context.Context, invoiceID string) ([]*entity.PipelineHistory, error) {
	if invoiceID == "" {
		return nil, fmt.Errorf("invoice id is required")
	}

	records, err := s.repo.ListByInvoice(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("list invoice history: %w", err)
	}
	return records, nil
}
