package report

import (
	"net/url"
	"strings"

	"nrjtrack/internal/core"
)

// DefaultView is the view used when the request names none.
const DefaultView = core.Weekly

// Params are the parsed report request parameters.
type Params struct {
	Range    DateRange
	View     core.Granularity
	DataType string
}

// ParseParams reads start_date, end_date, view and data_type.
// Blank or unparseable dates are treated as unset; view is lower-cased
// but kept as given so unknown views reach the pipeline's fallbacks.
func ParseParams(q url.Values) Params {
	p := Params{
		View:     DefaultView,
		DataType: AllFields,
	}
	if d, err := core.ParseDate(q.Get("start_date")); err == nil {
		p.Range.Start = d
	}
	if d, err := core.ParseDate(q.Get("end_date")); err == nil {
		p.Range.End = d
	}
	if v := strings.ToLower(strings.TrimSpace(q.Get("view"))); v != "" {
		p.View = core.Granularity(v)
	}
	if dt := strings.TrimSpace(q.Get("data_type")); dt != "" {
		p.DataType = dt
	}
	return p
}

// Values encodes p back to query parameters.
func (p Params) Values() url.Values {
	q := url.Values{}
	if !p.Range.Start.IsZero() {
		q.Set("start_date", p.Range.Start.String())
	}
	if !p.Range.End.IsZero() {
		q.Set("end_date", p.Range.End.String())
	}
	q.Set("view", string(p.View))
	q.Set("data_type", p.DataType)
	return q
}
