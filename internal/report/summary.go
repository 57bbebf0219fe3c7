package report

import (
	"fmt"
	"sort"

	"nrjtrack/internal/core"
)

// Comparison column headers.
const (
	HeaderCategory   = "Catégorie"
	HeaderRollingAvg = "Moyenne mobile annuelle"
	labelAverage     = "Moyenne"
	comparisonSep    = " ./. "
)

// Delta compares a current value against a baseline. Pct is undefined
// when the baseline is zero or either side is undefined.
type Delta struct {
	Abs core.Quantity
	Pct core.Quantity
}

// KPIRow compares the latest bucket of one column against the previous
// bucket, the same bucket a year earlier and the trailing rolling mean.
type KPIRow struct {
	Field        string
	Category     string
	Current      core.Quantity
	Previous     core.Quantity
	LastYear     core.Quantity
	RollingAvg   core.Quantity
	VsPrevious   Delta
	VsLastYear   Delta
	VsRollingAvg Delta
}

// Labels are the display labels of the compared buckets.
type Labels struct {
	Current  string
	Previous string
	LastYear string
}

// Summary is the KPI result. Sufficient is false when the series had
// fewer than two rows; the other fields are then empty.
type Summary struct {
	Sufficient bool
	View       core.Granularity
	Window     int

	CurrentDate  core.Date
	PreviousDate core.Date
	// LastYearDate is the current date shifted back one calendar year and
	// LastYearBucket the bucket actually used for that comparison.
	LastYearDate   core.Date
	LastYearBucket core.Date

	Labels Labels
	Rows   []KPIRow
}

// KPI is the compact per-field card shown above the report.
type KPI struct {
	TypeNRJ       string
	Current       core.Quantity
	Avg           core.Quantity
	DeltaVsAvg    core.Quantity
	DeltaVsAvgPct core.Quantity
}

// RollingWindow returns the trailing window length used for view.
func RollingWindow(view core.Granularity) int {
	switch view {
	case core.Daily:
		return 365
	case core.Weekly:
		return 52
	case core.Monthly:
		return 12
	case core.Yearly:
		return 1
	default:
		return 52
	}
}

// Summarize computes one KPI row per column of s. The view only drives
// the rolling window and the labels; s must already be bucketed.
func Summarize(s Series, schema *core.Schema, view core.Granularity) Summary {
	n := s.Len()
	if n < 2 {
		return Summary{View: view}
	}

	cur, prev := n-1, n-2
	lastYear := shiftYears(s.Dates[cur], -1)
	ly := nearestIndex(s.Dates, lastYear)
	window := RollingWindow(view)

	sum := Summary{
		Sufficient:     true,
		View:           view,
		Window:         window,
		CurrentDate:    s.Dates[cur],
		PreviousDate:   s.Dates[prev],
		LastYearDate:   lastYear,
		LastYearBucket: s.Dates[ly],
		Labels: Labels{
			Current:  FormatLabel(s.Dates[cur], view),
			Previous: FormatLabel(s.Dates[prev], view),
			LastYear: FormatLabel(lastYear, view),
		},
		Rows: make([]KPIRow, 0, len(s.Columns)),
	}

	for c, name := range s.Columns {
		col := s.Values[c]
		row := KPIRow{
			Field:      name,
			Category:   schema.Label(name),
			Current:    col[cur],
			Previous:   col[prev],
			LastYear:   col[ly],
			RollingAvg: trailingMean(col, window),
		}
		row.VsPrevious = compare(row.Current, row.Previous)
		row.VsLastYear = compare(row.Current, row.LastYear)
		row.VsRollingAvg = compare(row.Current, row.RollingAvg)
		sum.Rows = append(sum.Rows, row)
	}
	return sum
}

func compare(current, baseline core.Quantity) Delta {
	d := Delta{Abs: current.Sub(baseline)}
	if d.Abs.Valid && baseline.Value != 0 {
		d.Pct = core.NewQuantity(d.Abs.Value / baseline.Value * 100)
	}
	return d
}

// trailingMean averages the defined values among the last window rows.
// Short histories use every row available.
func trailingMean(col []core.Quantity, window int) core.Quantity {
	from := len(col) - window
	if from < 0 {
		from = 0
	}
	var sum float64
	var count int
	for _, q := range col[from:] {
		if q.Valid {
			sum += q.Value
			count++
		}
	}
	if count == 0 {
		return core.Quantity{}
	}
	return core.NewQuantity(sum / float64(count))
}

// shiftYears moves d by years calendar years, clamping the day to the
// end of the target month (29 Feb 2024 -> 28 Feb 2023).
func shiftYears(d core.Date, years int) core.Date {
	y, m := d.Year()+years, int(d.Month())
	last := core.NewDate(y, m+1, 0).Day()
	day := d.Day()
	if day > last {
		day = last
	}
	return core.NewDate(y, m, day)
}

// nearestIndex returns the index of target in ascending dates, or of the
// closest date by absolute distance with ties going to the earlier one.
func nearestIndex(dates []core.Date, target core.Date) int {
	i := sort.Search(len(dates), func(i int) bool {
		return !dates[i].Before(target.Time)
	})
	switch {
	case i == 0:
		return 0
	case i == len(dates):
		return len(dates) - 1
	case dates[i].Equal(target.Time):
		return i
	}
	if target.DaysUntil(dates[i]) < dates[i-1].DaysUntil(target) {
		return i
	}
	return i - 1
}

// Cards returns the compact KPI list, one entry per row.
func (s Summary) Cards() []KPI {
	out := make([]KPI, 0, len(s.Rows))
	for _, r := range s.Rows {
		out = append(out, KPI{
			TypeNRJ:       r.Category,
			Current:       r.Current,
			Avg:           r.RollingAvg,
			DeltaVsAvg:    r.VsRollingAvg.Abs,
			DeltaVsAvgPct: r.VsRollingAvg.Pct,
		})
	}
	return out
}

// Table renders the comparison table with its human labels. An
// insufficient summary yields an empty table.
func (s Summary) Table() Table {
	if !s.Sufficient {
		return Table{}
	}
	l := s.Labels
	t := Table{
		Header: []string{
			HeaderCategory,
			l.Current,
			l.Previous,
			l.Current + comparisonSep + l.Previous,
			l.LastYear,
			l.Current + comparisonSep + l.LastYear,
			HeaderRollingAvg,
			l.Current + comparisonSep + labelAverage,
		},
	}
	for _, r := range s.Rows {
		t.Rows = append(t.Rows, []string{
			r.Category,
			formatValue(r.Current),
			formatValue(r.Previous),
			formatDelta(r.VsPrevious),
			formatValue(r.LastYear),
			formatDelta(r.VsLastYear),
			formatValue(r.RollingAvg),
			formatDelta(r.VsRollingAvg),
		})
	}
	return t
}

func formatValue(q core.Quantity) string {
	if !q.Valid {
		return ""
	}
	return fmt.Sprintf("%.2f", q.Value)
}

func formatDelta(d Delta) string {
	if !d.Abs.Valid {
		return ""
	}
	if !d.Pct.Valid {
		return fmt.Sprintf("%+.2f", d.Abs.Value)
	}
	return fmt.Sprintf("%+.2f (%+.1f%%)", d.Abs.Value, d.Pct.Value)
}
