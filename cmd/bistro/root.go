package main

import (
	"log/slog"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

func newRootCmd(cfg config, logger *slog.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:   "bistro",
		Short: "Bistro order and inventory ledger tools",
		Long: `bistro drives the order lifecycle and FIFO inventory ledger from the
command line.

Environment:
  BISTRO_CURRENCY   currency carts and stock are priced in (default: try)
  BISTRO_TENANT     tenant used when a scenario names none (default: default)
  BISTRO_VAT_BPS    VAT rate in basis points (default: 1800)
  BISTRO_LOG_LEVEL  debug, info, warn or error (default: warn)

A .env file in the working directory is loaded first.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newReplayCmd(cfg, logger))
	root.AddCommand(newTaxCmd(cfg))
	return root
}
