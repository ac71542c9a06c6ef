// Package demo fabricates a live-looking invoice pipeline for sales demos.
//
// The Engine owns a snapshot of suppliers, invoices, stats and risk events.
// Uploads are simulated with timers that walk each invoice through
// queued -> parsing -> analyzing -> complete, and every state change is
// broadcast to subscribers as a fresh copy of the snapshot.
package demo

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/invoicetrust/trustdemo/internal/domain/entity"
	"github.com/invoicetrust/trustdemo/internal/domain/event"
	"github.com/invoicetrust/trustdemo/internal/domain/pipeline"
)

// Listener receives a snapshot after every state change
type Listener func(entity.Snapshot)

// Publisher receives domain events emitted by the engine
type Publisher interface {
	Publish(ctx context.Context, evt *event.Event)
}

type listenerEntry struct {
	id int
	fn Listener
}

// Engine is the in-memory demo store. Construct one per application (or per
// test) with NewEngine; all methods are safe for concurrent use.
//
// Listeners are called synchronously, in snapshot version order, on the
// goroutine that made the change. They must not call back into the engine.
type Engine struct {
	mu         sync.Mutex
	state      entity.Snapshot
	version    uint64
	generation uint64
	machines   map[string]pipeline.StateMachine
	batchOf    map[string]string
	pending    map[string][]entity.Invoice
	tasks      *taskRegistry
	listeners  []listenerEntry
	nextID     int

	deliverMu sync.Mutex
	delivered uint64

	cfg       Config
	scheduler Scheduler
	gen       *Generator
	stages    pipeline.Builder
	logger    *zap.Logger
	publisher Publisher
}

// Option configures the engine
type Option func(*Engine)

// WithConfig overrides the default sizes and timings
func WithConfig(cfg Config) Option {
	return func(e *Engine) {
		e.cfg = cfg
	}
}

// WithScheduler sets the clock used for every delay
func WithScheduler(s Scheduler) Option {
	return func(e *Engine) {
		e.scheduler = s
	}
}

// WithRand sets the random source for generated data and outcomes
func WithRand(rng *rand.Rand) Option {
	return func(e *Engine) {
		e.gen = NewGenerator(rng)
	}
}

// WithLogger sets a logger for the engine
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithPublisher forwards domain events to p
func WithPublisher(p Publisher) Option {
	return func(e *Engine) {
		e.publisher = p
	}
}

// NewEngine creates an engine and generates its initial data set
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		cfg:    DefaultConfig(),
		tasks:  newTaskRegistry(),
		stages: pipeline.DemoPipeline(),
		logger: zap.NewNop(),
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.scheduler == nil {
		e.scheduler = NewWallScheduler()
	}
	if e.gen == nil {
		e.gen = NewGenerator(rand.New(rand.NewSource(time.Now().UnixNano())))
	}

	e.mu.Lock()
	e.initializeLocked()
	e.mu.Unlock()

	return e
}

// Config returns the engine configuration
func (e *Engine) Config() Config {
	return e.cfg
}

// Initialize cancels outstanding timers, regenerates the supplier pool and
// the backdated invoice set, and broadcasts the new snapshot
func (e *Engine) Initialize() {
	e.mu.Lock()
	cancelled := e.initializeLocked()
	snap, listeners := e.commitLocked()
	e.mu.Unlock()

	e.logger.Info("Demo data initialized",
		zap.Int("suppliers", len(snap.Suppliers)),
		zap.Int("invoices", len(snap.Invoices)),
		zap.Int("cancelled_timers", cancelled))

	e.deliver(snap, listeners)
}

// Reset cancels every timer owned by the engine and starts from fresh state.
// Callbacks already in flight are discarded by the generation check.
func (e *Engine) Reset() {
	e.mu.Lock()
	cancelled := e.initializeLocked()
	generation := e.generation
	now := e.scheduler.Now()
	snap, listeners := e.commitLocked()
	e.mu.Unlock()

	e.logger.Info("Demo engine reset",
		zap.Uint64("generation", generation),
		zap.Int("cancelled_timers", cancelled))

	e.deliver(snap, listeners)
	e.publish(event.NewEvent(event.TypeEngineReset, "", map[string]interface{}{
		"generation":       generation,
		"cancelled_timers": cancelled,
	}).WithTimestamp(now))
}

// Shutdown cancels every timer without regenerating state
func (e *Engine) Shutdown() {
	e.mu.Lock()
	e.generation++
	cancelled := e.tasks.CancelAll()
	e.mu.Unlock()

	e.logger.Info("Demo engine stopped", zap.Int("cancelled_timers", cancelled))
}

// OpenUpload shows the upload modal
func (e *Engine) OpenUpload() {
	e.setUploadModal(true)
}

// CloseUpload hides the upload modal
func (e *Engine) CloseUpload() {
	e.setUploadModal(false)
}

func (e *Engine) setUploadModal(open bool) {
	e.mu.Lock()
	e.state.UploadModalOpen = open
	snap, listeners := e.commitLocked()
	e.mu.Unlock()

	e.deliver(snap, listeners)
}

// StartUploadSimulation queues one invoice, or the four example invoices,
// and schedules the batch to start parsing after the upload delay.
// It returns the batch id.
func (e *Engine) StartUploadSimulation(useExampleData bool) string {
	e.mu.Lock()
	now := e.scheduler.Now()
	batchID := uuid.NewString()
	batch := e.gen.UploadBatch(e.state.Suppliers, useExampleData, now)

	files := make([]string, 0, len(batch))
	for _, inv := range batch {
		e.machines[inv.ID] = e.stages.Build(pipeline.StageQueued)
		e.batchOf[inv.ID] = batchID
		e.state.UploadingFiles = append(e.state.UploadingFiles, entity.UploadingFile{
			FileName:  inv.FileName,
			InvoiceID: inv.ID,
			Stage:     inv.PipelineStage,
		})
		files = append(files, inv.FileName)
	}
	e.pending[batchID] = batch
	e.state.IsAnalyzing = true

	generation := e.generation
	e.tasks.Add(batchID, e.scheduler.AfterFunc(e.cfg.UploadDelay, func() {
		e.processBatch(generation, batchID)
	}))

	snap, listeners := e.commitLocked()
	e.mu.Unlock()

	e.logger.Info("Upload simulation started",
		zap.String("batch_id", batchID),
		zap.Bool("example_data", useExampleData),
		zap.Strings("files", files))

	e.deliver(snap, listeners)
	e.publish(event.NewEventWithCorrelation(event.TypeUploadStarted, "", map[string]interface{}{
		"files":        files,
		"example_data": useExampleData,
	}, batchID).WithTimestamp(now))

	return batchID
}

// processBatch moves a queued batch to parsing, prepends it to the invoice
// list, closes the modal and staggers one lifecycle per invoice
func (e *Engine) processBatch(generation uint64, batchID string) {
	e.mu.Lock()
	if generation != e.generation {
		e.mu.Unlock()
		return
	}

	e.tasks.Cancel(batchID)
	batch := e.pending[batchID]
	delete(e.pending, batchID)

	now := e.scheduler.Now()
	var events []*event.Event
	queued := make(map[string]bool, len(batch))

	for i := range batch {
		inv := &batch[i]
		if e.fireLocked(inv, pipeline.TriggerParse) {
			events = append(events, e.stageEvent(inv, pipeline.StageQueued, batchID, now))
		}
		queued[inv.ID] = true
		e.state.SimulatedInvoices = append(e.state.SimulatedInvoices, inv.ID)
	}

	invoices := make([]entity.Invoice, 0, len(batch)+len(e.state.Invoices))
	invoices = append(invoices, batch...)
	invoices = append(invoices, e.state.Invoices...)
	e.state.Invoices = invoices
	e.state.UploadingFiles = removeUploading(e.state.UploadingFiles, queued)
	e.state.UploadModalOpen = false
	e.state.IsAnalyzing = e.analyzingLocked()

	for i, inv := range batch {
		id := inv.ID
		offset := time.Duration(i) * e.cfg.StaggerDelay
		e.tasks.Add(id, e.scheduler.AfterFunc(offset, func() {
			e.simulateInvoiceLifecycle(generation, id)
		}))
	}

	snap, listeners := e.commitLocked()
	e.mu.Unlock()

	e.logger.Info("Upload batch parsing", zap.String("batch_id", batchID), zap.Int("invoices", len(batch)))

	e.deliver(snap, listeners)
	e.publish(events...)
}

// simulateInvoiceLifecycle starts the reveal ticks for one parsing invoice
func (e *Engine) simulateInvoiceLifecycle(generation uint64, id string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if generation != e.generation {
		return
	}
	if inv := e.invoiceLocked(id); inv == nil || inv.PipelineStage != pipeline.StageParsing {
		return
	}

	e.tasks.Add(id, e.scheduler.Every(e.cfg.RevealInterval, func() {
		e.revealNext(generation, id)
	}))
}

// revealNext marks the next reveal sub-step; after the last one the invoice
// moves to analyzing and its completion is scheduled
func (e *Engine) revealNext(generation uint64, id string) {
	e.mu.Lock()
	if generation != e.generation {
		e.mu.Unlock()
		return
	}

	inv := e.invoiceLocked(id)
	if inv == nil || inv.PipelineStage != pipeline.StageParsing {
		e.mu.Unlock()
		return
	}

	for _, step := range entity.RevealOrder {
		if !inv.Revealed.Shown(step) {
			inv.Revealed.Mark(step)
			break
		}
	}

	var events []*event.Event
	if inv.Revealed.Done() {
		// Stops the reveal interval along with the fired lifecycle timer
		e.tasks.Cancel(id)

		if e.fireLocked(inv, pipeline.TriggerAnalyze) {
			events = append(events, e.stageEvent(inv, pipeline.StageParsing, e.batchOf[id], e.scheduler.Now()))
		}
		e.tasks.Add(id, e.scheduler.AfterFunc(e.cfg.AnalysisDelay, func() {
			e.finishAnalysis(generation, id)
		}))
	}

	snap, listeners := e.commitLocked()
	e.mu.Unlock()

	e.deliver(snap, listeners)
	e.publish(events...)
}

// finishAnalysis assigns the final trust outcome and completes the invoice.
// Complete is terminal: nothing is scheduled for the invoice afterwards.
func (e *Engine) finishAnalysis(generation uint64, id string) {
	e.mu.Lock()
	if generation != e.generation {
		e.mu.Unlock()
		return
	}

	inv := e.invoiceLocked(id)
	if inv == nil || inv.PipelineStage != pipeline.StageAnalyzing {
		e.mu.Unlock()
		return
	}

	e.tasks.Cancel(id)
	now := e.scheduler.Now()
	batchID := e.batchOf[id]

	inv.ApplyTrustScore(e.gen.OutcomeTrust(e.cfg))
	var events []*event.Event
	if e.fireLocked(inv, pipeline.TriggerComplete) {
		inv.CompletedAt = &now
		events = append(events,
			e.stageEvent(inv, pipeline.StageAnalyzing, batchID, now),
			event.NewEventWithCorrelation(event.TypeInvoiceCompleted, inv.ID, map[string]interface{}{
				"status":      string(inv.Status),
				"trust_score": inv.TrustScore,
				"risk_score":  inv.RiskScore,
				"flagged":     inv.Flagged,
				"total":       inv.Total.String(),
				"supplier_id": inv.SupplierID,
			}, batchID).WithTimestamp(now),
		)
	}
	delete(e.machines, id)
	delete(e.batchOf, id)

	if inv.Flagged {
		e.state.RiskEvents = prependRiskEvent(e.state.RiskEvents, riskEventFor(*inv), e.cfg.RiskEventLimit)
	}
	e.state.Stats = ComputeStats(e.state.Invoices)
	e.state.IsAnalyzing = e.analyzingLocked()

	status, trust := inv.Status, inv.TrustScore
	snap, listeners := e.commitLocked()
	e.mu.Unlock()

	e.logger.Info("Invoice analysis finished",
		zap.String("invoice_id", id),
		zap.String("status", string(status)),
		zap.Int("trust_score", trust))

	e.deliver(snap, listeners)
	e.publish(events...)
}

// Subscribe registers a listener and returns a function that removes it
func (e *Engine) Subscribe(l Listener) func() {
	e.mu.Lock()
	e.nextID++
	id := e.nextID
	e.listeners = append(e.listeners, listenerEntry{id: id, fn: l})
	e.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Lock()
			defer e.mu.Unlock()
			for i, entry := range e.listeners {
				if entry.id == id {
					e.listeners = append(e.listeners[:i:i], e.listeners[i+1:]...)
					return
				}
			}
		})
	}
}

// Snapshot returns a copy of the current state
func (e *Engine) Snapshot() entity.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap := e.state.Clone()
	snap.Version = e.version
	return snap
}

// ActiveTimers returns the number of invoices and batches with live timers
func (e *Engine) ActiveTimers() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tasks.Keys()
}

// initializeLocked cancels every timer and regenerates the data set.
// It returns the number of cancelled timers.
func (e *Engine) initializeLocked() int {
	e.generation++
	cancelled := e.tasks.CancelAll()

	e.machines = make(map[string]pipeline.StateMachine)
	e.batchOf = make(map[string]string)
	e.pending = make(map[string][]entity.Invoice)

	suppliers := e.gen.Suppliers(e.cfg.SupplierCount)
	invoices := e.gen.ExistingInvoices(suppliers, e.cfg.InvoiceCount, e.scheduler.Now())

	e.state = entity.Snapshot{
		Suppliers:         suppliers,
		Invoices:          invoices,
		Stats:             ComputeStats(invoices),
		RiskEvents:        DeriveRiskEvents(invoices, e.cfg.RiskEventLimit),
		UploadingFiles:    []entity.UploadingFile{},
		SimulatedInvoices: []string{},
	}
	return cancelled
}

// commitLocked bumps the version and captures what must be delivered
func (e *Engine) commitLocked() (entity.Snapshot, []Listener) {
	e.version++
	snap := e.state.Clone()
	snap.Version = e.version

	listeners := make([]Listener, len(e.listeners))
	for i, entry := range e.listeners {
		listeners[i] = entry.fn
	}
	return snap, listeners
}

// deliver notifies listeners outside the state lock. Snapshots older than
// the last delivered one are dropped so listeners never see time go backwards.
func (e *Engine) deliver(snap entity.Snapshot, listeners []Listener) {
	e.deliverMu.Lock()
	defer e.deliverMu.Unlock()

	if snap.Version <= e.delivered {
		return
	}
	e.delivered = snap.Version

	for _, l := range listeners {
		e.safeNotify(l, snap)
	}
}

func (e *Engine) safeNotify(l Listener, snap entity.Snapshot) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("Snapshot listener panic recovered",
				zap.Uint64("version", snap.Version),
				zap.Any("panic", r))
		}
	}()
	l(snap.Clone())
}

func (e *Engine) publish(events ...*event.Event) {
	if e.publisher == nil {
		return
	}
	for _, evt := range events {
		e.publisher.Publish(context.Background(), evt)
	}
}

// fireLocked applies a pipeline trigger to inv and mirrors the new stage
func (e *Engine) fireLocked(inv *entity.Invoice, trigger pipeline.Trigger) bool {
	m, ok := e.machines[inv.ID]
	if !ok {
		e.logger.Error("No pipeline for invoice", zap.String("invoice_id", inv.ID))
		return false
	}
	if err := m.Fire(context.Background(), trigger); err != nil {
		e.logger.Error("Pipeline transition rejected",
			zap.String("invoice_id", inv.ID),
			zap.String("trigger", trigger.String()),
			zap.Error(err))
		return false
	}
	inv.PipelineStage = m.State()
	return true
}

func (e *Engine) stageEvent(inv *entity.Invoice, from pipeline.Stage, batchID string, now time.Time) *event.Event {
	return event.NewEventWithCorrelation(event.TypeInvoiceStageChanged, inv.ID, map[string]interface{}{
		"previous_stage": from.String(),
		"stage":          inv.PipelineStage.String(),
		"file_name":      inv.FileName,
	}, batchID).WithTimestamp(now)
}

func (e *Engine) invoiceLocked(id string) *entity.Invoice {
	for i := range e.state.Invoices {
		if e.state.Invoices[i].ID == id {
			return &e.state.Invoices[i]
		}
	}
	return nil
}

// analyzingLocked reports whether any simulated invoice is still in flight
func (e *Engine) analyzingLocked() bool {
	if len(e.pending) > 0 {
		return true
	}
	for _, id := range e.state.SimulatedInvoices {
		if inv := e.invoiceLocked(id); inv != nil && !inv.IsComplete() {
			return true
		}
	}
	return false
}

func removeUploading(files []entity.UploadingFile, ids map[string]bool) []entity.UploadingFile {
	out := make([]entity.UploadingFile, 0, len(files))
	for _, f := range files {
		if !ids[f.InvoiceID] {
			out = append(out, f)
		}
	}
	return out
}
