// Package report derives trend reports from cumulative meter readings.
//
// The pipeline is pure and request scoped: BuildSeries densifies the
// readings into a daily series, Aggregate resamples and differences it,
// Summarize compares the latest bucket against three baselines and
// Assemble joins the text columns back for display.
package report

import (
	"sort"

	"nrjtrack/internal/core"
)

// Series is a column-major numeric table indexed by ascending dates.
// Values[c][r] is the value of column c at Dates[r].
type Series struct {
	Granularity core.Granularity
	Dates       []core.Date
	Columns     []string
	Values      [][]core.Quantity
}

// TextSeries holds the text columns of the readings in range, one row
// per actual reading date. Values[c][r] is "" when absent.
type TextSeries struct {
	Dates   []core.Date
	Columns []string
	Values  [][]string
}

// DateRange bounds a report. A zero Start or End means unbounded.
type DateRange struct {
	Start core.Date
	End   core.Date
}

// Len returns the number of rows.
func (s Series) Len() int {
	return len(s.Dates)
}

// Column returns the values of the named column.
func (s Series) Column(name string) ([]core.Quantity, bool) {
	for i, c := range s.Columns {
		if c == name {
			return s.Values[i], true
		}
	}
	return nil, false
}

// Len returns the number of rows.
func (t TextSeries) Len() int {
	return len(t.Dates)
}

type datedReading struct {
	date    core.Date
	reading core.Reading
}

// BuildSeries turns the stored readings into a gap-free daily series of
// the numeric fields and the untouched text rows inside rng.
//
// Readings with an unparseable date are skipped; when two readings share
// a date the later one in input order wins. Both bounds of rng default to
// the available data. A start before the first reading or an end after
// the last one is clamped. Numeric gaps are filled by linear
// interpolation between the surrounding known values, and days outside
// the known values of a field stay undefined.
func BuildSeries(readings []core.Reading, schema *core.Schema, rng DateRange) (Series, TextSeries, error) {
	rows := parseReadings(readings)
	if len(rows) == 0 {
		return Series{}, TextSeries{}, ErrNoData
	}

	first, last := rows[0].date, rows[len(rows)-1].date
	start, end := rng.Start, rng.End
	if start.IsZero() || start.Before(first.Time) {
		start = first
	}
	if end.IsZero() || end.After(last.Time) {
		end = last
	}
	if start.After(end.Time) {
		return Series{}, TextSeries{}, &InvalidRangeError{Start: start, End: end}
	}

	numeric := schema.Numeric()
	days := first.DaysUntil(last) + 1
	offset := first.DaysUntil(start)
	n := start.DaysUntil(end) + 1

	daily := Series{
		Granularity: core.Daily,
		Dates:       make([]core.Date, n),
		Columns:     numeric,
		Values:      make([][]core.Quantity, len(numeric)),
	}
	for i := range daily.Dates {
		daily.Dates[i] = start.AddDays(i)
	}
	for c, name := range numeric {
		full := interpolate(rows, first, days, name)
		daily.Values[c] = full[offset : offset+n]
	}

	return daily, textRows(rows, schema.Text(), start, end), nil
}

func parseReadings(readings []core.Reading) []datedReading {
	byDate := make(map[core.Date]core.Reading, len(readings))
	for _, r := range readings {
		d, err := core.ParseDate(r.RecordDate)
		if err != nil {
			continue
		}
		byDate[d] = r
	}

	rows := make([]datedReading, 0, len(byDate))
	for d, r := range byDate {
		rows = append(rows, datedReading{date: d, reading: r})
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].date.Before(rows[j].date.Time)
	})
	return rows
}

// interpolate returns one value per day from first over days days.
func interpolate(rows []datedReading, first core.Date, days int, field string) []core.Quantity {
	out := make([]core.Quantity, days)

	prev := -1
	var prevValue float64
	for _, r := range rows {
		q := r.reading.Number(field)
		if !q.Valid {
			continue
		}
		idx := first.DaysUntil(r.date)
		out[idx] = q
		if prev >= 0 && idx-prev > 1 {
			step := (q.Value - prevValue) / float64(idx-prev)
			for k := prev + 1; k < idx; k++ {
				out[k] = core.NewQuantity(prevValue + step*float64(k-prev))
			}
		}
		prev, prevValue = idx, q.Value
	}
	return out
}

func textRows(rows []datedReading, columns []string, start, end core.Date) TextSeries {
	ts := TextSeries{
		Columns: columns,
		Values:  make([][]string, len(columns)),
	}
	for _, r := range rows {
		if r.date.Before(start.Time) || r.date.After(end.Time) {
			continue
		}
		ts.Dates = append(ts.Dates, r.date)
		for c, name := range columns {
			ts.Values[c] = append(ts.Values[c], r.reading.Text(name))
		}
	}
	return ts
}
