package ctl

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"nrjtrack/internal/export"
	"nrjtrack/internal/log"
)

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Load readings from a CSV file into the store",
		Long: `Reads a CSV file with a record_date column and one column per field.
The delimiter (',' or ';') is detected from the header line. Existing
readings with the same date are replaced. Rows whose date cannot be
parsed are skipped and counted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e, err := openEnv(ctx)
			if err != nil {
				return err
			}
			defer e.Close()

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open %s: %w", args[0], err)
			}
			defer f.Close()

			res, err := export.ReadCSV(f, e.schema)
			if err != nil {
				return err
			}
			for _, r := range res.Readings {
				if err := e.store.Store.UpsertReading(ctx, r); err != nil {
					return fmt.Errorf("import %s: %w", r.RecordDate, err)
				}
			}

			e.logger.Info("Readings imported",
				log.FieldOperation, log.OpImport,
				"file", args[0],
				"imported", len(res.Readings),
				"skipped", res.Skipped)
			fmt.Fprintf(cmd.OutOrStdout(), "%d readings imported, %d rows skipped\n", len(res.Readings), res.Skipped)
			return nil
		},
	}
}
