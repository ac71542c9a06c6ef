package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/invoicetrust/trustdemo/internal/config"
	"github.com/invoicetrust/trustdemo/internal/container"
	"github.com/invoicetrust/trustdemo/pkg/utils"
)

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the demo HTTP server",
		Example: `  # Run with defaults and JWT_SECRET from the environment or .env
  trustctl serve

  # Run with a config file
  trustctl serve --config configs/config.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			logger, err := utils.NewLogger(utils.LoggerConfig{
				Level:      cfg.Logger.Level,
				OutputPath: cfg.Logger.OutputPath,
				Format:     cfg.Logger.Format,
			})
			if err != nil {
				return err
			}
			defer logger.Sync()

			logger.Info("Starting invoice trust demo server",
				zap.String("version", version),
				zap.Int("port", cfg.Server.Port))

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return container.Serve(ctx, cfg, logger)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to the YAML config file")
	return cmd
}
