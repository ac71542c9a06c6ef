package container

import (
	"context"
	"fmt"
	"io/fs"
	"math/rand"
	"os"

	"go.uber.org/zap"

	"github.com/invoicetrust/trustdemo/internal/access"
	"github.com/invoicetrust/trustdemo/internal/application/dispatcher"
	"github.com/invoicetrust/trustdemo/internal/application/service"
	"github.com/invoicetrust/trustdemo/internal/config"
	"github.com/invoicetrust/trustdemo/internal/demo"
	"github.com/invoicetrust/trustdemo/internal/export"
	httpapi "github.com/invoicetrust/trustdemo/internal/interfaces/http"
	"github.com/invoicetrust/trustdemo/internal/repository"
	"github.com/invoicetrust/trustdemo/internal/worker"
	"github.com/invoicetrust/trustdemo/migrations"
	"github.com/invoicetrust/trustdemo/pkg/database"
	"github.com/invoicetrust/trustdemo/pkg/utils"
)

// HistoryBundle holds the persistence side of the pipeline history
type HistoryBundle struct {
	Repository *repository.PipelineHistoryRepository
	Service    service.HistoryService
}

// ProvideDatabase opens the sqlite database and applies pending migrations.
// Migrations come from cfg.MigrationsDir when set, otherwise from the binary.
func ProvideDatabase(ctx context.Context, cfg *config.DatabaseConfig, logger *zap.Logger) (*database.DB, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is required")
	}

	db, err := database.New(database.Config{
		Path:            cfg.Path,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, err
	}

	var fsys fs.FS = migrations.FS
	if cfg.MigrationsDir != "" {
		fsys = os.DirFS(cfg.MigrationsDir)
	}

	if err := database.NewMigrator(db, logger).RunMigrations(ctx, fsys); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

// ProvideDispatcher creates the event dispatcher
func ProvideDispatcher(logger *zap.Logger) dispatcher.Dispatcher {
	return dispatcher.NewDispatcher(dispatcher.WithLogger(utils.NewKVLogger(logger)))
}

// ProvideHistory creates the history repository and service and subscribes
// the service to every engine event
func ProvideHistory(db *database.DB, d dispatcher.Dispatcher, logger *zap.Logger) *HistoryBundle {
	repo := repository.NewPipelineHistoryRepository(db.DB, logger)
	svc := service.NewHistoryService(repo, utils.NewKVLogger(logger))
	service.RegisterHistoryHandlers(d, svc)

	return &HistoryBundle{Repository: repo, Service: svc}
}

// ProvideEngine creates the demo engine publishing to d. A zero seed picks
// a random data set.
func ProvideEngine(cfg config.DemoConfig, d dispatcher.Dispatcher, logger *zap.Logger) *demo.Engine {
	opts := []demo.Option{
		demo.WithConfig(cfg.EngineConfig()),
		demo.WithLogger(logger.Named("demo")),
		demo.WithPublisher(d),
	}
	if cfg.Seed != 0 {
		opts = append(opts, demo.WithRand(rand.New(rand.NewSource(cfg.Seed))))
	}
	return demo.NewEngine(opts...)
}

// ProvideTokenIssuer creates the bearer token issuer
func ProvideTokenIssuer(cfg config.AuthConfig) *httpapi.TokenIssuer {
	return httpapi.NewTokenIssuer(cfg.JWTSecret, cfg.Issuer, cfg.TokenTTL)
}

// ProvideServer creates the HTTP server with all handlers
func ProvideServer(
	cfg config.ServerConfig,
	engine httpapi.DemoEngine,
	history service.HistoryService,
	issuer *httpapi.TokenIssuer,
	logger *zap.Logger,
) *httpapi.Server {
	kv := utils.NewKVLogger(logger)

	handlers := httpapi.NewHandlers(
		engine,
		history,
		export.NewSnapshotExporter(logger),
		access.DefaultRoutes(),
		kv,
	)

	return httpapi.NewServer(httpapi.ServerConfig{
		Host:            cfg.Host,
		Port:            cfg.Port,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
		AllowedOrigins:  cfg.AllowedOrigins,
	}, handlers, issuer, kv)
}

// ProvideWorkers creates the worker manager. The auto reset worker is only
// registered when an interval is configured.
func ProvideWorkers(cfg config.DemoConfig, engine worker.Resetter, logger *zap.Logger) *worker.Manager {
	manager := worker.NewManager(logger)
	if cfg.AutoResetInterval > 0 {
		manager.Register(worker.NewAutoResetWorker(engine, cfg.AutoResetInterval, logger))
	}
	return manager
}
