package ctl

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"nrjtrack/internal/export"
)

func newChartCmd() *cobra.Command {
	var flags reportFlags
	var out string

	cmd := &cobra.Command{
		Use:   "chart",
		Short: "Write the variation chart as a PNG file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if out == "" {
				return errors.New("--out is required")
			}
			res, err := flags.build(cmd)
			if err != nil {
				return err
			}

			png, err := export.RenderChart(res.Differenced)
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, png, 0o644); err != nil {
				return fmt.Errorf("write chart: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "chart written to %s\n", out)
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output PNG file")
	return cmd
}
