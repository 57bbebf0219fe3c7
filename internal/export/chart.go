package export

import (
	"encoding/base64"
	"errors"
	"fmt"

	charts "github.com/vicanso/go-charts/v2"

	"nrjtrack/internal/core"
	"nrjtrack/internal/report"
)

const (
	chartWidth  = 1000
	chartHeight = 600
	chartTheme  = "light"
)

// ErrNothingToPlot is returned for a series without rows or columns.
var ErrNothingToPlot = errors.New("nothing to plot")

// RenderChart draws one line per column of the differenced series as PNG.
// Undefined values are left as gaps and columns without any value are
// left out.
func RenderChart(s report.Series) ([]byte, error) {
	if s.Len() == 0 || len(s.Columns) == 0 {
		return nil, ErrNothingToPlot
	}

	labels := make([]string, s.Len())
	for i, d := range s.Dates {
		labels[i] = d.String()
	}

	var values [][]float64
	var legend []string
	for c, name := range s.Columns {
		if !hasValue(s.Values[c]) {
			continue
		}
		legend = append(legend, "Δ "+name)
		values = append(values, plotValues(s.Values[c]))
	}
	if len(values) == 0 {
		return nil, ErrNothingToPlot
	}

	p, err := charts.LineRender(
		values,
		charts.TitleTextOptionFunc(fmt.Sprintf("Variation (%s)", report.ViewTitle(s.Granularity))),
		charts.XAxisDataOptionFunc(labels),
		charts.LegendLabelsOptionFunc(legend, charts.PositionRight),
		charts.ThemeOptionFunc(chartTheme),
		charts.WidthOptionFunc(chartWidth),
		charts.HeightOptionFunc(chartHeight),
		charts.PaddingOptionFunc(charts.Box{
			Top:    20,
			Right:  20,
			Bottom: 20,
			Left:   20,
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("render chart: %w", err)
	}

	buf, err := p.Bytes()
	if err != nil {
		return nil, fmt.Errorf("encode chart: %w", err)
	}
	return buf, nil
}

// RenderChartBase64 returns the PNG encoded for an inline data URI.
func RenderChartBase64(s report.Series) (string, error) {
	buf, err := RenderChart(s)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf), nil
}

func plotValues(col []core.Quantity) []float64 {
	out := make([]float64, len(col))
	for i, q := range col {
		if q.Valid {
			out[i] = q.Value
		} else {
			out[i] = charts.GetNullValue()
		}
	}
	return out
}

func hasValue(col []core.Quantity) bool {
	for _, q := range col {
		if q.Valid {
			return true
		}
	}
	return false
}
