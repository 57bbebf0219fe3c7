package http

import (
	"fmt"
	"html/template"
	"sort"

	"nrjtrack/internal/core"
	"nrjtrack/internal/report"
)

const recentReadings = 10

var templateFuncs = template.FuncMap{
	"num": func(q core.Quantity) string {
		if !q.Valid {
			return "–"
		}
		return fmt.Sprintf("%.2f", q.Value)
	},
	"pct": func(q core.Quantity) string {
		if !q.Valid {
			return ""
		}
		return fmt.Sprintf("%+.1f%%", q.Value)
	},
	"trend": func(q core.Quantity) string {
		switch {
		case !q.Valid:
			return "flat"
		case q.Value > 0:
			return "up"
		case q.Value < 0:
			return "down"
		}
		return "flat"
	},
}

type flash struct {
	Kind    string
	Message string
}

type formField struct {
	Name    string
	Label   string
	Numeric bool
	Value   string
}

type formPage struct {
	RecordDate string
	Editing    bool
	Fields     []formField
	Flash      *flash
	Recent     report.Table
}

type option struct {
	Value    string
	Label    string
	Selected bool
}

type dataPage struct {
	StartDate    string
	EndDate      string
	Views        []option
	DataTypes    []option
	ViewTitle    string
	Report       report.Table
	Summary      report.Table
	Cards        []report.KPI
	Chart        template.URL
	SingleBucket bool
	ExportURL    string
}

var viewOptions = []struct {
	view  core.Granularity
	label string
}{
	{core.Daily, "Jour"},
	{core.Weekly, "Semaine"},
	{core.Monthly, "Mois"},
	{core.Yearly, "Année"},
}

// newFormPage builds the entry form, pre-filled with r when it is not nil.
func newFormPage(schema *core.Schema, date string, r *core.Reading) formPage {
	page := formPage{RecordDate: date, Editing: r != nil}
	for _, f := range schema.Fields() {
		field := formField{Name: f.Name, Label: f.Label(), Numeric: f.Kind == core.KindNumeric}
		if r != nil {
			if field.Numeric {
				field.Value = r.Number(f.Name).String()
			} else {
				field.Value = r.Text(f.Name)
			}
		}
		page.Fields = append(page.Fields, field)
	}
	return page
}

// recentTable lists the latest readings, newest first, with display labels.
func recentTable(schema *core.Schema, readings []core.Reading) report.Table {
	sorted := append([]core.Reading(nil), readings...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].RecordDate > sorted[j].RecordDate })
	if len(sorted) > recentReadings {
		sorted = sorted[:recentReadings]
	}

	fields := schema.Fields()
	t := report.Table{Header: []string{"Date"}}
	for _, f := range fields {
		t.Header = append(t.Header, f.Label())
	}
	for _, r := range sorted {
		row := []string{r.RecordDate}
		for _, f := range fields {
			if f.Kind == core.KindNumeric {
				row = append(row, r.Number(f.Name).String())
			} else {
				row = append(row, r.Text(f.Name))
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// displayReport renders the merged report with bucket labels and field
// labels instead of raw dates and column names.
func displayReport(schema *core.Schema, rep report.Report) report.Table {
	t := report.Table{Header: []string{"Période"}}
	for _, c := range rep.NumericColumns {
		t.Header = append(t.Header, "Δ "+schema.Label(c))
	}
	for _, c := range rep.TextColumns {
		t.Header = append(t.Header, schema.Label(c))
	}
	for _, row := range rep.Rows {
		line := []string{report.FormatLabel(row.Date, rep.Granularity)}
		for _, q := range row.Numbers {
			line = append(line, formatCell(q))
		}
		line = append(line, row.Texts...)
		t.Rows = append(t.Rows, line)
	}
	return t
}

func formatCell(q core.Quantity) string {
	if !q.Valid {
		return ""
	}
	return fmt.Sprintf("%.2f", q.Value)
}

func viewSelect(current core.Granularity) []option {
	out := make([]option, 0, len(viewOptions))
	for _, v := range viewOptions {
		out = append(out, option{Value: string(v.view), Label: v.label, Selected: v.view == current})
	}
	return out
}

func dataTypeSelect(schema *core.Schema, current string) []option {
	out := []option{{Value: report.AllFields, Label: "Tous", Selected: current == report.AllFields}}
	for _, name := range schema.Numeric() {
		out = append(out, option{Value: name, Label: schema.Label(name), Selected: current == name})
	}
	return out
}
