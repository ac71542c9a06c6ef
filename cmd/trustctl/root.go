package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/invoicetrust/trustdemo/pkg/utils"
)

var version = "1.0.0"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "trustctl",
		Short: "Operate the invoice trust demo",
		Long: `trustctl runs the invoice trust demo server, plays upload simulations
in the terminal and issues development bearer tokens.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(newServeCmd(), newSimulateCmd(), newTokenCmd())
	return root
}

// cliLogger builds a console logger honouring --log-level
func cliLogger(cmd *cobra.Command) (*zap.Logger, error) {
	level, err := cmd.Flags().GetString("log-level")
	if err != nil {
		return nil, err
	}
	return utils.NewLogger(utils.LoggerConfig{
		Level:      level,
		OutputPath: "stderr",
		Format:     "console",
	})
}
