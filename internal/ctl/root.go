// Package ctl implements the nrjctl command line: importing readings and
// printing or charting reports against the configured store.
package ctl

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"nrjtrack/internal/backend"
	"nrjtrack/internal/cli"
	"nrjtrack/internal/config"
	"nrjtrack/internal/core"
	"nrjtrack/internal/log"
)

// NewRootCmd builds the nrjctl command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "nrjctl",
		Short: "Household meter readings from the command line",
		Long: `nrjctl works on the same store as the nrjtrack server.

Configuration comes from the environment (and a .env file when present):
DATA_BACKEND, SQLITE_DB_PATH, SEED_CSV_PATH and FIELDS_CONFIG select the
store and the field schema.

Examples:
  nrjctl import releves.csv
  nrjctl report --view monthly --data-type gaz
  nrjctl report --start 2024-01-01 --format csv > rapport.csv
  nrjctl chart --view weekly --out variation.png`,
		SilenceUsage: true,
	}

	root.AddCommand(newImportCmd(), newReportCmd(), newChartCmd())
	return root
}

// Execute runs the command line and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// env is the opened configuration shared by every subcommand.
type env struct {
	logger *log.Logger
	schema *core.Schema
	store  *backend.BackendResult
}

func openEnv(ctx context.Context) (*env, error) {
	cli.LoadEnvFile()

	cfg, err := cli.LoadConfig()
	if err != nil {
		return nil, err
	}
	// Logs go to stderr so report output can be piped.
	logger := log.New(log.Config{
		Level:     cfg.SlogLevel(),
		Component: log.ComponentCLI,
		Output:    os.Stderr,
	})

	schema, err := config.LoadSchema(cfg.FieldsConfig)
	if err != nil {
		return nil, fmt.Errorf("load field schema: %w", err)
	}

	store, err := cli.OpenStore(ctx, logger, cfg, schema)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	logger.Debug("Store opened", "backend", cfg.DataBackend)
	return &env{logger: logger, schema: schema, store: store}, nil
}

func (e *env) Close() error {
	return e.store.Close()
}
