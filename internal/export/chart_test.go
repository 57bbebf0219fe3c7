package export

import (
	"bytes"
	"encoding/base64"
	"errors"
	"testing"

	"nrjtrack/internal/core"
	"nrjtrack/internal/report"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

func TestRenderChart(t *testing.T) {
	s := report.Series{
		Granularity: core.Weekly,
		Dates:       []core.Date{core.NewDate(2024, 1, 1), core.NewDate(2024, 1, 8), core.NewDate(2024, 1, 15)},
		Columns:     []string{"gaz", "eau"},
		Values: [][]core.Quantity{
			{core.NewQuantity(10), core.NewQuantity(12), core.NewQuantity(9)},
			{core.NewQuantity(1), {}, core.NewQuantity(2)},
		},
	}

	buf, err := RenderChart(s)
	if err != nil {
		t.Fatalf("RenderChart() error = %v", err)
	}
	if !bytes.HasPrefix(buf, pngMagic) {
		t.Errorf("RenderChart() did not return a PNG")
	}

	encoded, err := RenderChartBase64(s)
	if err != nil {
		t.Fatalf("RenderChartBase64() error = %v", err)
	}
	if _, err := base64.StdEncoding.DecodeString(encoded); err != nil {
		t.Errorf("RenderChartBase64() is not base64: %v", err)
	}
}

func TestRenderChart_Empty(t *testing.T) {
	tests := []struct {
		name string
		s    report.Series
	}{
		{"no rows", report.Series{Columns: []string{"gaz"}, Values: [][]core.Quantity{nil}}},
		{"no columns", report.Series{Dates: []core.Date{core.NewDate(2024, 1, 1)}}},
		{"only undefined", report.Series{
			Dates:   []core.Date{core.NewDate(2024, 1, 1), core.NewDate(2024, 1, 8)},
			Columns: []string{"gaz"},
			Values:  [][]core.Quantity{{{}, {}}},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := RenderChart(tt.s); !errors.Is(err, ErrNothingToPlot) {
				t.Errorf("RenderChart() error = %v, want ErrNothingToPlot", err)
			}
		})
	}
}
