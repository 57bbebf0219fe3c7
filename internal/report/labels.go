package report

import (
	"fmt"
	"strings"

	"nrjtrack/internal/core"
)

const fallbackLabelLayout = "2006-01-02"

var moisFrancais = [...]string{
	"janvier", "février", "mars", "avril", "mai", "juin",
	"juillet", "août", "septembre", "octobre", "novembre", "décembre",
}

// FormatLabel renders a bucket date for display. KPI rows and comparison
// headers are keyed by these labels.
func FormatLabel(d core.Date, view core.Granularity) string {
	switch view {
	case core.Daily:
		return d.Format("02/01/2006")
	case core.Weekly:
		return "Semaine du " + d.Format("02/01/2006")
	case core.Monthly:
		return fmt.Sprintf("%s %d", moisFrancais[d.Month()-1], d.Year())
	case core.Yearly:
		return d.Format("2006")
	default:
		return d.Format(fallbackLabelLayout)
	}
}

// ViewTitle capitalizes a view name for chart titles.
func ViewTitle(view core.Granularity) string {
	s := string(view)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}
