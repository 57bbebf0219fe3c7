package report

import (
	"nrjtrack/internal/core"
)

// AllFields selects every numeric field.
const AllFields = "all"

// Aggregation is the resampled series and its first differences.
type Aggregation struct {
	Aggregated  Series
	Differenced Series
	// SingleBucket is set when fewer than two buckets exist and the
	// differenced series therefore repeats the aggregated values.
	SingleBucket bool
}

// Aggregate validates the field selector, resamples daily to view by
// averaging the defined values of each bucket, and differences the result.
// An unrecognized view buckets by day.
func Aggregate(daily Series, schema *core.Schema, view core.Granularity, dataType string) (Aggregation, error) {
	selected, err := selectColumns(daily, schema, dataType)
	if err != nil {
		return Aggregation{}, err
	}

	g, ok := core.ParseGranularity(string(view))
	if !ok {
		g = core.Daily
	}

	agg := resample(selected, g)
	diff, single := difference(agg)
	return Aggregation{Aggregated: agg, Differenced: diff, SingleBucket: single}, nil
}

func selectColumns(s Series, schema *core.Schema, dataType string) (Series, error) {
	if dataType == "" || dataType == AllFields {
		return s, nil
	}
	if !schema.IsNumeric(dataType) {
		return Series{}, &UnknownFieldError{Field: dataType}
	}
	col, ok := s.Column(dataType)
	if !ok {
		return Series{}, &UnknownFieldError{Field: dataType}
	}
	return Series{
		Granularity: s.Granularity,
		Dates:       s.Dates,
		Columns:     []string{dataType},
		Values:      [][]core.Quantity{col},
	}, nil
}

// BucketStart returns the first day of the bucket containing d. Weeks run
// Monday to Sunday.
func BucketStart(d core.Date, g core.Granularity) core.Date {
	switch g {
	case core.Weekly:
		return d.AddDays(-((int(d.Weekday()) + 6) % 7))
	case core.Monthly:
		return core.NewDate(d.Year(), int(d.Month()), 1)
	case core.Yearly:
		return core.NewDate(d.Year(), 1, 1)
	default:
		return d
	}
}

// BucketEnd returns the last day of the bucket starting at start.
func BucketEnd(start core.Date, g core.Granularity) core.Date {
	switch g {
	case core.Weekly:
		return start.AddDays(6)
	case core.Monthly:
		return core.Date{Time: start.AddDate(0, 1, 0)}.AddDays(-1)
	case core.Yearly:
		return core.NewDate(start.Year(), 12, 31)
	default:
		return start
	}
}

// resample groups the contiguous daily rows by bucket. Each bucket value
// is the mean of its defined daily values, undefined when there are none.
func resample(daily Series, g core.Granularity) Series {
	out := Series{
		Granularity: g,
		Columns:     daily.Columns,
		Values:      make([][]core.Quantity, len(daily.Columns)),
	}

	type acc struct {
		sum float64
		n   int
	}
	sums := make([]acc, len(daily.Columns))
	flush := func() {
		for c := range sums {
			q := core.Quantity{}
			if sums[c].n > 0 {
				q = core.NewQuantity(sums[c].sum / float64(sums[c].n))
			}
			out.Values[c] = append(out.Values[c], q)
			sums[c] = acc{}
		}
	}

	for r, d := range daily.Dates {
		key := BucketStart(d, g)
		if len(out.Dates) == 0 || !out.Dates[len(out.Dates)-1].Equal(key.Time) {
			if len(out.Dates) > 0 {
				flush()
			}
			out.Dates = append(out.Dates, key)
		}
		for c := range daily.Columns {
			if q := daily.Values[c][r]; q.Valid {
				sums[c].sum += q.Value
				sums[c].n++
			}
		}
	}
	if len(out.Dates) > 0 {
		flush()
	}
	return out
}

// difference returns row[i] - row[i-1] per column with an undefined first
// row. Fewer than two rows return the input values unchanged and true.
func difference(s Series) (Series, bool) {
	out := Series{
		Granularity: s.Granularity,
		Dates:       s.Dates,
		Columns:     s.Columns,
		Values:      make([][]core.Quantity, len(s.Columns)),
	}
	if s.Len() < 2 {
		for c := range s.Values {
			out.Values[c] = append([]core.Quantity(nil), s.Values[c]...)
		}
		return out, true
	}
	for c, col := range s.Values {
		d := make([]core.Quantity, len(col))
		for i := 1; i < len(col); i++ {
			d[i] = col[i].Sub(col[i-1])
		}
		out.Values[c] = d
	}
	return out, false
}
