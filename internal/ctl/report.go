package ctl

import (
	"fmt"
	"io"
	"net/url"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"nrjtrack/internal/export"
	"nrjtrack/internal/report"
)

const (
	formatTable = "table"
	formatCSV   = "csv"
)

// reportFlags are the filters shared by report and chart.
type reportFlags struct {
	start    string
	end      string
	view     string
	dataType string
}

func (f *reportFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.start, "start", "", "First date (YYYY-MM-DD), default the first reading")
	cmd.Flags().StringVar(&f.end, "end", "", "Last date (YYYY-MM-DD), default the last reading")
	cmd.Flags().StringVar(&f.view, "view", string(report.DefaultView), "Bucket size: daily, weekly, monthly or yearly")
	cmd.Flags().StringVar(&f.dataType, "data-type", report.AllFields, "Numeric field to report, or all")
}

// params goes through the same parsing as the web query string.
func (f *reportFlags) params() report.Params {
	return report.ParseParams(url.Values{
		"start_date": {f.start},
		"end_date":   {f.end},
		"view":       {f.view},
		"data_type":  {f.dataType},
	})
}

func (f *reportFlags) build(cmd *cobra.Command) (*report.Result, error) {
	e, err := openEnv(cmd.Context())
	if err != nil {
		return nil, err
	}
	defer e.Close()

	readings, err := e.store.Store.ListReadings(cmd.Context())
	if err != nil {
		return nil, fmt.Errorf("list readings: %w", err)
	}
	return report.NewEngine(e.schema).Build(readings, f.params())
}

func newReportCmd() *cobra.Command {
	var flags reportFlags
	var format string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the report and the period comparison",
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != formatTable && format != formatCSV {
				return fmt.Errorf("invalid format %q: must be %s or %s", format, formatTable, formatCSV)
			}
			res, err := flags.build(cmd)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if format == formatCSV {
				return export.WriteCSV(out, res.Report.Table())
			}
			return printReport(out, res)
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&format, "format", formatTable, "Output format: table or csv")
	return cmd
}

func printReport(w io.Writer, res *report.Result) error {
	if res.SingleBucket {
		fmt.Fprintln(w, "Note: a single period is selected, values are means, not variations.")
		fmt.Fprintln(w)
	}
	if res.Summary.Sufficient {
		if err := printTable(w, res.Summary.Table()); err != nil {
			return err
		}
		fmt.Fprintln(w)
	}
	return printTable(w, res.Report.Table())
}

func printTable(w io.Writer, t report.Table) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(t.Header, "\t"))
	for _, row := range t.Rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}
