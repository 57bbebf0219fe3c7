package report

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nrjtrack/internal/core"
)

func dailyFrom(t *testing.T, readings ...core.Reading) Series {
	t.Helper()
	daily, _, err := BuildSeries(readings, testSchema(t), DateRange{})
	require.NoError(t, err)
	return daily
}

func TestAggregate_WeeklyTwoReadings(t *testing.T) {
	daily := dailyFrom(t,
		reading("2024-01-01", map[string]float64{"gaz": 100}, nil),
		reading("2024-01-08", map[string]float64{"gaz": 107}, nil),
	)

	agg, err := Aggregate(daily, testSchema(t), core.Weekly, AllFields)
	require.NoError(t, err)
	assert.False(t, agg.SingleBucket)

	require.Equal(t, 2, agg.Aggregated.Len())
	assert.Equal(t, "2024-01-01", agg.Aggregated.Dates[0].String())
	assert.Equal(t, "2024-01-08", agg.Aggregated.Dates[1].String())
	gaz := values(t, agg.Aggregated, "gaz")
	assert.InDelta(t, 103, gaz[0].Value, 1e-9)
	assert.InDelta(t, 107, gaz[1].Value, 1e-9)

	diff := values(t, agg.Differenced, "gaz")
	assert.False(t, diff[0].Valid)
	assert.InDelta(t, 4, diff[1].Value, 1e-9)
}

func TestAggregate_SingleBucketFallsBackToAggregated(t *testing.T) {
	daily := dailyFrom(t,
		reading("2024-01-01", map[string]float64{"gaz": 100}, nil),
		reading("2024-01-03", map[string]float64{"gaz": 102}, nil),
	)

	agg, err := Aggregate(daily, testSchema(t), core.Weekly, AllFields)
	require.NoError(t, err)
	assert.True(t, agg.SingleBucket)

	diff := values(t, agg.Differenced, "gaz")
	require.Len(t, diff, 1)
	assert.Equal(t, core.NewQuantity(101), diff[0])
	assert.Equal(t, values(t, agg.Aggregated, "gaz"), diff)
}

func TestAggregate_Buckets(t *testing.T) {
	tests := []struct {
		name      string
		readings  []core.Reading
		view      core.Granularity
		wantDates []string
		wantMeans []float64
	}{
		{
			name: "monthly",
			readings: []core.Reading{
				reading("2024-01-30", map[string]float64{"gaz": 0}, nil),
				reading("2024-02-02", map[string]float64{"gaz": 3}, nil),
			},
			view:      core.Monthly,
			wantDates: []string{"2024-01-01", "2024-02-01"},
			wantMeans: []float64{0.5, 2.5},
		},
		{
			name: "yearly",
			readings: []core.Reading{
				reading("2023-12-31", map[string]float64{"gaz": 0}, nil),
				reading("2024-01-01", map[string]float64{"gaz": 1}, nil),
			},
			view:      core.Yearly,
			wantDates: []string{"2023-01-01", "2024-01-01"},
			wantMeans: []float64{0, 1},
		},
		{
			name: "weekly starts on monday",
			readings: []core.Reading{
				reading("2024-01-06", map[string]float64{"gaz": 0}, nil),
				reading("2024-01-09", map[string]float64{"gaz": 3}, nil),
			},
			view:      core.Weekly,
			wantDates: []string{"2024-01-01", "2024-01-08"},
			wantMeans: []float64{0.5, 2.5},
		},
		{
			name: "unknown view buckets by day",
			readings: []core.Reading{
				reading("2024-01-01", map[string]float64{"gaz": 0}, nil),
				reading("2024-01-03", map[string]float64{"gaz": 2}, nil),
			},
			view:      core.Granularity("hourly"),
			wantDates: []string{"2024-01-01", "2024-01-02", "2024-01-03"},
			wantMeans: []float64{0, 1, 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agg, err := Aggregate(dailyFrom(t, tt.readings...), testSchema(t), tt.view, "gaz")
			require.NoError(t, err)

			var dates []string
			for _, d := range agg.Aggregated.Dates {
				dates = append(dates, d.String())
			}
			assert.Equal(t, tt.wantDates, dates)

			gaz := values(t, agg.Aggregated, "gaz")
			for i, want := range tt.wantMeans {
				assert.InDelta(t, want, gaz[i].Value, 1e-9, "bucket %d", i)
			}
		})
	}
}

func TestAggregate_MeanSkipsUndefined(t *testing.T) {
	daily := dailyFrom(t,
		reading("2024-01-01", map[string]float64{"gaz": 0}, nil),
		reading("2024-01-05", map[string]float64{"gaz": 4, "eau": 10}, nil),
		reading("2024-01-07", map[string]float64{"gaz": 6, "eau": 12}, nil),
	)

	agg, err := Aggregate(daily, testSchema(t), core.Weekly, AllFields)
	require.NoError(t, err)

	eau := values(t, agg.Aggregated, "eau")
	require.Len(t, eau, 1)
	assert.InDelta(t, 11, eau[0].Value, 1e-9)
}

func TestAggregate_UndefinedBucketPropagates(t *testing.T) {
	daily := dailyFrom(t,
		reading("2024-01-01", map[string]float64{"gaz": 0}, nil),
		reading("2024-01-10", map[string]float64{"gaz": 9, "eau": 1}, nil),
		reading("2024-01-20", map[string]float64{"gaz": 19, "eau": 11}, nil),
	)

	agg, err := Aggregate(daily, testSchema(t), core.Weekly, "eau")
	require.NoError(t, err)
	assert.Equal(t, []string{"eau"}, agg.Differenced.Columns)

	eau := values(t, agg.Aggregated, "eau")
	require.Len(t, eau, 3)
	assert.False(t, eau[0].Valid)

	diff := values(t, agg.Differenced, "eau")
	assert.False(t, diff[0].Valid)
	assert.False(t, diff[1].Valid)
	assert.True(t, diff[2].Valid)
}

func TestAggregate_UnknownField(t *testing.T) {
	daily := dailyFrom(t, reading("2024-01-01", map[string]float64{"gaz": 1}, nil))

	for _, field := range []string{"unknownfield", "comment"} {
		_, err := Aggregate(daily, testSchema(t), core.Weekly, field)
		require.ErrorIs(t, err, ErrUnknownField)

		var fieldErr *UnknownFieldError
		require.True(t, errors.As(err, &fieldErr))
		assert.Equal(t, field, fieldErr.Field)
	}
}

func TestAggregate_TelescopingSum(t *testing.T) {
	daily := dailyFrom(t,
		reading("2023-11-03", map[string]float64{"gaz": 1000.5, "eau": 12}, nil),
		reading("2023-12-17", map[string]float64{"gaz": 1210.25, "eau": 19.75}, nil),
		reading("2024-02-09", map[string]float64{"gaz": 1544, "eau": 31.2}, nil),
		reading("2024-05-30", map[string]float64{"gaz": 1870.8, "eau": 40}, nil),
	)

	for _, view := range []core.Granularity{core.Daily, core.Weekly, core.Monthly} {
		agg, err := Aggregate(daily, testSchema(t), view, AllFields)
		require.NoError(t, err)
		require.GreaterOrEqual(t, agg.Aggregated.Len(), 2)

		for c, name := range agg.Aggregated.Columns {
			col := agg.Aggregated.Values[c]
			var sum float64
			for _, q := range agg.Differenced.Values[c][1:] {
				sum += q.Value
			}
			want := col[len(col)-1].Value - col[0].Value
			assert.InDelta(t, want, sum, 1e-6, "%s %s", view, name)
		}
	}
}

func TestBucketBounds(t *testing.T) {
	assert.Equal(t, "2024-01-01", BucketStart(day("2024-01-07"), core.Weekly).String())
	assert.Equal(t, "2024-01-08", BucketStart(day("2024-01-08"), core.Weekly).String())
	assert.Equal(t, "2024-01-14", BucketEnd(day("2024-01-08"), core.Weekly).String())
	assert.Equal(t, "2024-02-29", BucketEnd(day("2024-02-01"), core.Monthly).String())
	assert.Equal(t, "2024-12-31", BucketEnd(day("2024-01-01"), core.Yearly).String())
	assert.Equal(t, "2024-03-05", BucketEnd(day("2024-03-05"), core.Daily).String())
}
