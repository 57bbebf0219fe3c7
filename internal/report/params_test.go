package report

import (
	"net/url"
	"testing"

	"nrjtrack/internal/core"
)

func TestParseParams(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		wantStart string
		wantEnd   string
		wantView  core.Granularity
		wantType  string
	}{
		{"defaults", "", "", "", core.Weekly, AllFields},
		{"all set", "start_date=2024-01-01&end_date=2024-03-31&view=monthly&data_type=gaz", "2024-01-01", "2024-03-31", core.Monthly, "gaz"},
		{"invalid dates ignored", "start_date=yesterday&end_date=2024-13-01", "", "", core.Weekly, AllFields},
		{"view lower-cased", "view=Yearly", "", "", core.Yearly, AllFields},
		{"unknown view kept", "view=hourly", "", "", core.Granularity("hourly"), AllFields},
		{"blank values use defaults", "view=%20&data_type=", "", "", core.Weekly, AllFields},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := url.ParseQuery(tt.query)
			if err != nil {
				t.Fatal(err)
			}
			p := ParseParams(q)

			if got := dateOrEmpty(p.Range.Start); got != tt.wantStart {
				t.Errorf("Start = %q, want %q", got, tt.wantStart)
			}
			if got := dateOrEmpty(p.Range.End); got != tt.wantEnd {
				t.Errorf("End = %q, want %q", got, tt.wantEnd)
			}
			if p.View != tt.wantView {
				t.Errorf("View = %q, want %q", p.View, tt.wantView)
			}
			if p.DataType != tt.wantType {
				t.Errorf("DataType = %q, want %q", p.DataType, tt.wantType)
			}
		})
	}
}

func TestParamsValuesRoundTrip(t *testing.T) {
	q, _ := url.ParseQuery("start_date=2024-01-01&view=daily&data_type=eau")
	p := ParseParams(q)

	again := ParseParams(p.Values())
	if again != p {
		t.Fatalf("round trip = %+v, want %+v", again, p)
	}
	if p.Values().Has("end_date") {
		t.Errorf("unset end_date should not be encoded")
	}
}

func dateOrEmpty(d core.Date) string {
	if d.IsZero() {
		return ""
	}
	return d.String()
}
