package report

import (
	"nrjtrack/internal/core"
)

// Table is a rendered grid of strings for templates, CSV and spreadsheets.
type Table struct {
	Header []string
	Rows   [][]string
}

// Row is one line of the merged report.
type Row struct {
	Date    core.Date
	Numbers []core.Quantity
	Texts   []string
}

// Report is the differenced numeric table joined with the text columns.
type Report struct {
	Granularity    core.Granularity
	NumericColumns []string
	TextColumns    []string
	Rows           []Row
}

// Assemble builds one report row per row of diff. Numeric values are
// copied as they are. Each text column carries the latest non-blank value
// recorded on or before the end of the row's bucket, so a comment stays
// visible until a newer one replaces it.
func Assemble(diff Series, texts TextSeries) Report {
	rep := Report{
		Granularity:    diff.Granularity,
		NumericColumns: diff.Columns,
		TextColumns:    texts.Columns,
		Rows:           make([]Row, 0, diff.Len()),
	}

	carried := make([]string, len(texts.Columns))
	next := 0
	for r, d := range diff.Dates {
		end := BucketEnd(d, diff.Granularity)
		for ; next < texts.Len() && !texts.Dates[next].After(end.Time); next++ {
			for c := range texts.Columns {
				if v := texts.Values[c][next]; v != "" {
					carried[c] = v
				}
			}
		}

		row := Row{
			Date:    d,
			Numbers: make([]core.Quantity, len(diff.Columns)),
			Texts:   append([]string(nil), carried...),
		}
		for c := range diff.Columns {
			row.Numbers[c] = diff.Values[c][r]
		}
		rep.Rows = append(rep.Rows, row)
	}
	return rep
}

// Table renders the report with record_date first, then numeric columns
// and text columns.
func (r Report) Table() Table {
	t := Table{Header: make([]string, 0, 1+len(r.NumericColumns)+len(r.TextColumns))}
	t.Header = append(t.Header, core.KeyField)
	t.Header = append(t.Header, r.NumericColumns...)
	t.Header = append(t.Header, r.TextColumns...)

	for _, row := range r.Rows {
		line := make([]string, 0, len(t.Header))
		line = append(line, row.Date.String())
		for _, q := range row.Numbers {
			line = append(line, q.String())
		}
		line = append(line, row.Texts...)
		t.Rows = append(t.Rows, line)
	}
	return t
}

// Table renders the series with record_date first.
func (s Series) Table() Table {
	t := Table{Header: append([]string{core.KeyField}, s.Columns...)}
	for r, d := range s.Dates {
		line := make([]string, 0, len(t.Header))
		line = append(line, d.String())
		for c := range s.Columns {
			line = append(line, s.Values[c][r].String())
		}
		t.Rows = append(t.Rows, line)
	}
	return t
}
