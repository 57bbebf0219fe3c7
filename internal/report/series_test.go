package report

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nrjtrack/internal/core"
)

func testSchema(t *testing.T) *core.Schema {
	t.Helper()
	s, err := core.NewSchema([]core.FieldDefinition{
		{Name: "gaz", Kind: core.KindNumeric},
		{Name: "eau", Kind: core.KindNumeric},
		{Name: "comment", Kind: core.KindText},
	})
	require.NoError(t, err)
	return s
}

func reading(date string, nums map[string]float64, texts map[string]string) core.Reading {
	r := core.Reading{
		RecordDate: date,
		Numbers:    make(map[string]core.Quantity, len(nums)),
		Texts:      texts,
	}
	for k, v := range nums {
		r.Numbers[k] = core.NewQuantity(v)
	}
	return r
}

func values(t *testing.T, s Series, col string) []core.Quantity {
	t.Helper()
	v, ok := s.Column(col)
	require.True(t, ok, "column %s missing", col)
	return v
}

func day(s string) core.Date {
	d, err := core.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestBuildSeries_ContiguousAndInterpolated(t *testing.T) {
	readings := []core.Reading{
		reading("2024-01-10", map[string]float64{"gaz": 118}, nil),
		reading("2024-01-01", map[string]float64{"gaz": 100}, nil),
		reading("2024-01-05", map[string]float64{"gaz": 108}, nil),
	}

	daily, _, err := BuildSeries(readings, testSchema(t), DateRange{})
	require.NoError(t, err)
	require.Equal(t, 10, daily.Len())
	assert.Equal(t, core.Daily, daily.Granularity)

	for i := 1; i < daily.Len(); i++ {
		assert.Equal(t, 1, daily.Dates[i-1].DaysUntil(daily.Dates[i]), "gap at %s", daily.Dates[i])
	}
	assert.Equal(t, "2024-01-01", daily.Dates[0].String())
	assert.Equal(t, "2024-01-10", daily.Dates[9].String())

	gaz := values(t, daily, "gaz")
	assert.Equal(t, core.NewQuantity(100), gaz[0])
	assert.Equal(t, core.NewQuantity(108), gaz[4])
	assert.Equal(t, core.NewQuantity(118), gaz[9])
	assert.InDelta(t, 104, gaz[2].Value, 1e-9)
	assert.InDelta(t, 112, gaz[6].Value, 1e-9)
}

func TestBuildSeries_NoExtrapolation(t *testing.T) {
	readings := []core.Reading{
		reading("2024-01-01", map[string]float64{"gaz": 1}, nil),
		reading("2024-01-03", map[string]float64{"gaz": 3, "eau": 1}, nil),
		reading("2024-01-08", map[string]float64{"gaz": 8, "eau": 6}, nil),
		reading("2024-01-10", map[string]float64{"gaz": 10}, nil),
	}

	daily, _, err := BuildSeries(readings, testSchema(t), DateRange{})
	require.NoError(t, err)

	eau := values(t, daily, "eau")
	require.Len(t, eau, 10)
	assert.False(t, eau[0].Valid)
	assert.False(t, eau[1].Valid)
	assert.Equal(t, core.NewQuantity(1), eau[2])
	assert.InDelta(t, 3, eau[4].Value, 1e-9)
	assert.Equal(t, core.NewQuantity(6), eau[7])
	assert.False(t, eau[8].Valid)
	assert.False(t, eau[9].Valid)
}

func TestBuildSeries_NoData(t *testing.T) {
	_, _, err := BuildSeries(nil, testSchema(t), DateRange{})
	assert.ErrorIs(t, err, ErrNoData)

	_, _, err = BuildSeries([]core.Reading{
		reading("not-a-date", map[string]float64{"gaz": 1}, nil),
	}, testSchema(t), DateRange{})
	assert.ErrorIs(t, err, ErrNoData)
}

func TestBuildSeries_SkipsBadDatesAndLastDuplicateWins(t *testing.T) {
	readings := []core.Reading{
		reading("2024-01-01", map[string]float64{"gaz": 1}, nil),
		reading("31/12/2023", map[string]float64{"gaz": 999}, nil),
		reading("2024-01-03", map[string]float64{"gaz": 5}, nil),
		reading("2024-01-03", map[string]float64{"gaz": 3}, nil),
	}

	daily, _, err := BuildSeries(readings, testSchema(t), DateRange{})
	require.NoError(t, err)
	require.Equal(t, 3, daily.Len())
	assert.Equal(t, "2024-01-01", daily.Dates[0].String())
	assert.Equal(t, core.NewQuantity(3), values(t, daily, "gaz")[2])
}

func TestBuildSeries_Range(t *testing.T) {
	readings := []core.Reading{
		reading("2024-01-01", map[string]float64{"gaz": 100}, map[string]string{"comment": "start"}),
		reading("2024-01-04", map[string]float64{"gaz": 106}, map[string]string{"comment": "mid"}),
		reading("2024-01-05", map[string]float64{"gaz": 108}, nil),
		reading("2024-01-10", map[string]float64{"gaz": 118}, map[string]string{"comment": "end"}),
	}
	schema := testSchema(t)

	t.Run("clamped to available bounds", func(t *testing.T) {
		daily, texts, err := BuildSeries(readings, schema, DateRange{Start: day("2023-12-01"), End: day("2030-01-01")})
		require.NoError(t, err)
		assert.Equal(t, 10, daily.Len())
		assert.Equal(t, 4, texts.Len())
	})

	t.Run("sub range keeps interpolation from outside readings", func(t *testing.T) {
		daily, texts, err := BuildSeries(readings, schema, DateRange{Start: day("2024-01-03"), End: day("2024-01-05")})
		require.NoError(t, err)
		require.Equal(t, 3, daily.Len())
		assert.Equal(t, "2024-01-03", daily.Dates[0].String())
		assert.InDelta(t, 104, values(t, daily, "gaz")[0].Value, 1e-9)

		require.Equal(t, 2, texts.Len())
		assert.Equal(t, []string{"comment"}, texts.Columns)
		assert.Equal(t, []string{"mid", ""}, texts.Values[0])
	})

	t.Run("start after end", func(t *testing.T) {
		_, _, err := BuildSeries(readings, schema, DateRange{Start: day("2024-01-08"), End: day("2024-01-03")})
		require.ErrorIs(t, err, ErrInvalidRange)

		var rangeErr *InvalidRangeError
		require.True(t, errors.As(err, &rangeErr))
		assert.Equal(t, "2024-01-08", rangeErr.Start.String())
		assert.Equal(t, "2024-01-03", rangeErr.End.String())
		assert.Contains(t, err.Error(), "2024-01-08")
		assert.Contains(t, err.Error(), "2024-01-03")
	})

	t.Run("start past the last reading", func(t *testing.T) {
		_, _, err := BuildSeries(readings, schema, DateRange{Start: day("2024-02-01")})
		assert.ErrorIs(t, err, ErrInvalidRange)
	})
}
