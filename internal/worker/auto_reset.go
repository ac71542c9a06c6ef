package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Resetter is the engine operation the auto reset worker drives
type Resetter interface {
	Reset()
}

// AutoResetWorker restores the demo to a fresh data set on a fixed interval.
// Kiosk deployments use it so every visitor starts from the same state.
type AutoResetWorker struct {
	engine   Resetter
	interval time.Duration
	logger   *zap.Logger

	mu        sync.Mutex
	isRunning bool
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	resets    int
}

// NewAutoResetWorker creates a worker resetting engine every interval
func NewAutoResetWorker(engine Resetter, interval time.Duration, logger *zap.Logger) *AutoResetWorker {
	return &AutoResetWorker{
		engine:   engine,
		interval: interval,
		logger:   logger,
	}
}

// Start starts the reset loop
func (w *AutoResetWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.isRunning {
		return fmt.Errorf("auto reset worker is already running")
	}
	if w.interval <= 0 {
		return fmt.Errorf("auto reset interval must be positive, got %s", w.interval)
	}

	loopCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.isRunning = true

	w.logger.Info("AutoResetWorker started", zap.Duration("interval", w.interval))

	w.wg.Add(1)
	go w.loop(loopCtx)

	return nil
}

// Stop stops the reset loop and waits for it to exit
func (w *AutoResetWorker) Stop() {
	w.mu.Lock()
	if !w.isRunning {
		w.mu.Unlock()
		return
	}
	w.isRunning = false
	w.cancel()
	w.mu.Unlock()

	w.wg.Wait()
	w.logger.Info("AutoResetWorker stopped", zap.Int("resets", w.Resets()))
}

// Name returns the worker name for identification
func (w *AutoResetWorker) Name() string {
	return "AutoResetWorker"
}

// Resets returns how many resets the worker has performed
func (w *AutoResetWorker) Resets() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.resets
}

func (w *AutoResetWorker) loop(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.engine.Reset()

			w.mu.Lock()
			w.resets++
			count := w.resets
			w.mu.Unlock()

			w.logger.Debug("Demo reset", zap.Int("count", count))
		}
	}
}
