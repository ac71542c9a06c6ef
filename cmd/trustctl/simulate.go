package main

import (
	"context"
	"fmt"
	"math/rand"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/invoicetrust/trustdemo/internal/demo"
	"github.com/invoicetrust/trustdemo/internal/domain/entity"
	"github.com/invoicetrust/trustdemo/internal/domain/pipeline"
)

type simulateOptions struct {
	example bool
	seed    int64
	timeout time.Duration
}

func newSimulateCmd() *cobra.Command {
	opts := &simulateOptions{}

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Play an upload simulation in the terminal",
		Long: `Run the demo engine on the wall clock, start one upload simulation and log
every snapshot until all uploaded invoices are analyzed.`,
		Example: `  # Single invoice upload
  trustctl simulate

  # The four invoice example batch with a fixed data set
  trustctl simulate --example --seed 7`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := cliLogger(cmd)
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return runSimulate(ctx, opts, logger)
		},
	}

	cmd.Flags().BoolVar(&opts.example, "example", false, "upload the example batch instead of a single file")
	cmd.Flags().Int64Var(&opts.seed, "seed", 0, "random seed for the data set (0 picks one)")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "give up after this long")

	return cmd
}

func runSimulate(ctx context.Context, opts *simulateOptions, logger *zap.Logger) error {
	engineOpts := []demo.Option{demo.WithLogger(logger.Named("demo"))}
	if opts.seed != 0 {
		engineOpts = append(engineOpts, demo.WithRand(rand.New(rand.NewSource(opts.seed))))
	}
	engine := demo.NewEngine(engineOpts...)
	defer engine.Shutdown()

	done := make(chan entity.Snapshot, 1)
	unsubscribe := engine.Subscribe(func(snap entity.Snapshot) {
		logSnapshot(logger, snap)
		if simulationFinished(snap) {
			select {
			case done <- snap:
			default:
			}
		}
	})
	defer unsubscribe()

	batchID := engine.StartUploadSimulation(opts.example)
	logger.Info("Upload started", zap.String("batch_id", batchID), zap.Bool("example", opts.example))

	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()

	select {
	case snap := <-done:
		for _, id := range snap.SimulatedInvoices {
			inv, _ := snap.Invoice(id)
			logger.Info("Invoice analyzed",
				zap.String("invoice", inv.InvoiceID),
				zap.String("supplier", inv.SupplierName),
				zap.Int("trust_score", inv.TrustScore),
				zap.String("status", string(inv.Status)))
		}
		logger.Info("Simulation complete",
			zap.Int("flagged", snap.Stats.Flagged),
			zap.Float64("average_trust", snap.Stats.AverageTrust))
		return nil
	case <-ctx.Done():
		return fmt.Errorf("simulation did not finish: %w", ctx.Err())
	}
}

func logSnapshot(logger *zap.Logger, snap entity.Snapshot) {
	stages := make(map[pipeline.Stage]int)
	for _, id := range snap.SimulatedInvoices {
		if inv, ok := snap.Invoice(id); ok {
			stages[inv.PipelineStage]++
		}
	}

	logger.Debug("Snapshot",
		zap.Uint64("version", snap.Version),
		zap.Int("uploading", len(snap.UploadingFiles)),
		zap.Bool("analyzing", snap.IsAnalyzing),
		zap.Int("stage_parsing", stages[pipeline.StageParsing]),
		zap.Int("stage_analyzing", stages[pipeline.StageAnalyzing]),
		zap.Int("stage_complete", stages[pipeline.StageComplete]))
}

func simulationFinished(snap entity.Snapshot) bool {
	if len(snap.SimulatedInvoices) == 0 || len(snap.UploadingFiles) > 0 {
		return false
	}
	for _, id := range snap.SimulatedInvoices {
		inv, ok := snap.Invoice(id)
		if !ok || inv.PipelineStage != pipeline.StageComplete {
			return false
		}
	}
	return true
}
