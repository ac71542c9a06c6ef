package container

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/invoicetrust/trustdemo/internal/config"
)

// Serve builds a container from cfg, runs the HTTP server until ctx is
// cancelled and tears everything down again
func Serve(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	c, err := NewContainer(cfg, logger)
	if err != nil {
		return err
	}

	if err := c.Start(ctx); err != nil {
		_ = c.Close()
		return fmt.Errorf("failed to start container: %w", err)
	}

	serveErr := c.Server().Start(ctx)
	if err := c.Close(); err != nil {
		logger.Error("Container shutdown error", zap.Error(err))
	}
	return serveErr
}
