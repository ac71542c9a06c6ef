// Package container wires the demo server's components and owns their
// lifecycle: ordered initialization and reverse-order teardown.
package container

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/invoicetrust/trustdemo/internal/application/dispatcher"
	"github.com/invoicetrust/trustdemo/internal/application/service"
	"github.com/invoicetrust/trustdemo/internal/config"
	"github.com/invoicetrust/trustdemo/internal/demo"
	httpapi "github.com/invoicetrust/trustdemo/internal/interfaces/http"
	"github.com/invoicetrust/trustdemo/internal/worker"
	"github.com/invoicetrust/trustdemo/pkg/database"
)

// Container manages all application dependencies and lifecycle
type Container struct {
	config *config.Config
	logger *zap.Logger

	db         *database.DB
	dispatcher dispatcher.Dispatcher
	history    *HistoryBundle
	engine     *demo.Engine
	issuer     *httpapi.TokenIssuer
	server     *httpapi.Server
	workers    *worker.Manager

	mu     sync.Mutex
	cancel context.CancelFunc
	ready  atomic.Bool
	closed atomic.Bool
}

// HealthStatus represents the health of all components
type HealthStatus struct {
	Overall    bool                       `json:"overall"`
	Components map[string]ComponentHealth `json:"components"`
}

// ComponentHealth represents health of a single component
type ComponentHealth struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// NewContainer creates a new container from configuration.
// It does not initialize components; call Start to initialize.
func NewContainer(cfg *config.Config, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Container{
		config: cfg,
		logger: logger,
	}, nil
}

// Start initializes all components in dependency order:
// database, dispatcher and history, demo engine, HTTP server, workers.
func (c *Container) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container has been closed")
	}
	if c.ready.Load() {
		return fmt.Errorf("container already started")
	}

	ctx, c.cancel = context.WithCancel(ctx)
	c.logger.Info("Starting container initialization")

	db, err := ProvideDatabase(ctx, &c.config.Database, c.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	c.db = db
	c.logger.Info("Database initialized", zap.String("path", c.config.Database.Path))

	c.dispatcher = ProvideDispatcher(c.logger)
	c.history = ProvideHistory(c.db, c.dispatcher, c.logger)
	c.logger.Info("Dispatcher and history initialized")

	c.engine = ProvideEngine(c.config.Demo, c.dispatcher, c.logger)
	c.logger.Info("Demo engine initialized",
		zap.Int("suppliers", c.config.Demo.SupplierCount),
		zap.Int("invoices", c.config.Demo.InvoiceCount))

	c.issuer = ProvideTokenIssuer(c.config.Auth)
	c.server = ProvideServer(c.config.Server, c.engine, c.history.Service, c.issuer, c.logger)

	c.workers = ProvideWorkers(c.config.Demo, c.engine, c.logger)
	if err := c.workers.StartAll(ctx); err != nil {
		return fmt.Errorf("failed to start workers: %w", err)
	}
	c.logger.Info("Workers started", zap.Int("count", c.workers.Count()))

	c.ready.Store(true)
	c.logger.Info("Container started successfully")
	return nil
}

// Close shuts down all components in reverse order
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Swap(true) {
		return fmt.Errorf("container already closed")
	}
	c.ready.Store(false)

	c.logger.Info("Closing container")

	if c.cancel != nil {
		c.cancel()
	}

	var errs []error

	if c.workers != nil {
		c.workers.StopAll()
	}

	if c.engine != nil {
		c.engine.Shutdown()
	}

	if c.dispatcher != nil {
		if err := c.dispatcher.Close(); err != nil {
			c.logger.Error("Failed to close dispatcher", zap.Error(err))
			errs = append(errs, fmt.Errorf("close dispatcher: %w", err))
		}
	}

	if c.db != nil {
		if err := c.db.Close(); err != nil {
			c.logger.Error("Failed to close database", zap.Error(err))
			errs = append(errs, fmt.Errorf("close database: %w", err))
		} else {
			c.logger.Info("Database closed")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("container closed with %d errors: %w", len(errs), errs[0])
	}

	c.logger.Info("Container closed successfully")
	return nil
}

// Ready returns true when all components are initialized
func (c *Container) Ready() bool {
	return c.ready.Load()
}

// Health returns health status of all components
func (c *Container) Health() *HealthStatus {
	status := &HealthStatus{
		Overall:    true,
		Components: make(map[string]ComponentHealth),
	}

	set := func(name string, healthy bool, msg string) {
		status.Components[name] = ComponentHealth{Healthy: healthy, Message: msg}
		if !healthy {
			status.Overall = false
		}
	}

	switch {
	case c.db == nil:
		set("database", false, "not initialized")
	default:
		if err := c.db.Ping(); err != nil {
			set("database", false, fmt.Sprintf("ping failed: %v", err))
		} else {
			set("database", true, "")
		}
	}

	if c.engine == nil {
		set("engine", false, "not initialized")
	} else {
		set("engine", true, fmt.Sprintf("active timers: %d", c.engine.ActiveTimers()))
	}

	if c.dispatcher == nil {
		set("dispatcher", false, "not initialized")
	} else {
		set("dispatcher", true, "")
	}

	return status
}

// Engine returns the demo engine
func (c *Container) Engine() *demo.Engine {
	return c.engine
}

// History returns the pipeline history service
func (c *Container) History() service.HistoryService {
	return c.history.Service
}

// Dispatcher returns the event dispatcher
func (c *Container) Dispatcher() dispatcher.Dispatcher {
	return c.dispatcher
}

// Server returns the HTTP server
func (c *Container) Server() *httpapi.Server {
	return c.server
}

// TokenIssuer returns the bearer token issuer
func (c *Container) TokenIssuer() *httpapi.TokenIssuer {
	return c.issuer
}

// Workers returns the worker manager
func (c *Container) Workers() *worker.Manager {
	return c.workers
}

// Logger returns the container's logger
func (c *Container) Logger() *zap.Logger {
	return c.logger
}

// Config returns the container's configuration
func (c *Container) Config() *config.Config {
	return c.config
}
