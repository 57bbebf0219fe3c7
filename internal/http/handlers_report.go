package http

import (
	"errors"
	"html/template"
	"net/http"
	"net/url"

	"nrjtrack/internal/export"
	"nrjtrack/internal/log"
	"nrjtrack/internal/report"
	"nrjtrack/internal/services"
)

// handleData runs the report pipeline for the query parameters and
// renders the report, KPI table and chart. Request errors fall back to
// the entry form with a banner.
func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}

	params := report.ParseParams(r.URL.Query())
	out, err := s.reports.Build(r.Context(), params)
	if err != nil {
		if services.IsDomainError(err) {
			status := http.StatusBadRequest
			if errors.Is(err, report.ErrNoData) {
				status = http.StatusOK
			}
			page := s.newForm(r, today(), nil)
			page.Flash = &flash{Kind: "error", Message: reportErrorMessage(err)}
			s.render(w, r, status, "form.html", page)
			return
		}
		InternalServerError("Erreur lors du calcul du rapport").Write(w)
		return
	}
	s.appMetrics.reportsBuilt.Add(1)

	schema := s.reports.Engine().Schema()
	page := dataPage{
		StartDate:    out.Daily.Dates[0].String(),
		EndDate:      out.Daily.Dates[out.Daily.Len()-1].String(),
		Views:        viewSelect(params.View),
		DataTypes:    dataTypeSelect(schema, params.DataType),
		ViewTitle:    report.ViewTitle(params.View),
		Report:       displayReport(schema, out.Report),
		Summary:      out.Summary.Table(),
		Cards:        out.Summary.Cards(),
		SingleBucket: out.SingleBucket,
	}
	if out.ExportToken != "" {
		page.ExportURL = "/export?" + url.Values{"token": {out.ExportToken}}.Encode()
	}

	chart, err := export.RenderChartBase64(out.Differenced)
	switch {
	case err == nil:
		page.Chart = template.URL("data:image/png;base64," + chart)
	case !errors.Is(err, export.ErrNothingToPlot):
		log.FromContext(r.Context()).WarnContext(r.Context(), "Chart rendering failed",
			log.FieldOperation, log.OpRender,
			log.FieldError, err)
	}

	s.render(w, r, http.StatusOK, "data.html", page)
}

// handleExport streams the table stored under token as CSV. A token
// serves one download.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}

	entry, ok := s.reports.Export(r.Context(), r.URL.Query().Get("token"))
	if !ok {
		NotFoundError("Export introuvable ou expiré, relancez le rapport.").Write(w)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.Filename(entry.View)+`"`)
	w.WriteHeader(http.StatusOK)
	if err := export.WriteCSV(w, entry.Table); err != nil {
		log.FromContext(r.Context()).LogError(r.Context(), "Failed to write export", err, log.OpExport, nil)
		return
	}
	s.appMetrics.exportsServed.Add(1)
}

func reportErrorMessage(err error) string {
	var rangeErr *report.InvalidRangeError
	var fieldErr *report.UnknownFieldError
	switch {
	case errors.Is(err, report.ErrNoData):
		return "Aucune donnée disponible, veuillez saisir au moins un relevé."
	case errors.As(err, &rangeErr):
		return "Période invalide : le " + rangeErr.Start.Format("02/01/2006") +
			" est après le " + rangeErr.End.Format("02/01/2006") + "."
	case errors.As(err, &fieldErr):
		return "Type de donnée inconnu : " + fieldErr.Field
	}
	return err.Error()
}
