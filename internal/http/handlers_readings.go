package http

import (
	"errors"
	"net/http"
	"net/url"
	"time"

	"nrjtrack/internal/core"
	"nrjtrack/internal/log"
	"nrjtrack/internal/ports"
	"nrjtrack/internal/services"
)

// handleIndex renders the entry form on GET and saves a reading on POST.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		page := s.newForm(r, today(), nil)
		page.Flash = flashFromQuery(r.URL.Query())
		s.render(w, r, http.StatusOK, "form.html", page)
	case http.MethodPost:
		s.handleSaveReading(w, r)
	default:
		MethodNotAllowedError("GET, POST").Write(w)
	}
}

func (s *Server) handleSaveReading(w http.ResponseWriter, r *http.Request) {
	parser := NewRequestBodyParser(r)
	if err := parser.Parse(); err != nil {
		BadRequestError("Format de requête invalide").Write(w)
		return
	}
	in := ParseReadingInput(parser, s.readings.Schema())

	reading, err := s.readings.Save(r.Context(), in)
	if errors.Is(err, core.ErrInvalidDate) {
		page := s.newForm(r, in.RecordDate, readingFromInput(in, s.readings.Schema()))
		page.Editing = false
		page.Flash = &flash{Kind: "error", Message: "Date invalide : " + in.RecordDate}
		s.render(w, r, http.StatusUnprocessableEntity, "form.html", page)
		return
	}
	if err != nil {
		InternalServerError("Erreur lors de l'enregistrement").Write(w)
		return
	}

	s.appMetrics.readingsSaved.Add(1)
	SeeOther("/?" + url.Values{"saved": {reading.RecordDate}}.Encode()).Write(w)
}

// handleEdit pre-fills the form with the reading of record_date.
func (s *Server) handleEdit(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}

	date := r.URL.Query().Get(core.KeyField)
	reading, err := s.readings.Get(r.Context(), date)
	switch {
	case errors.Is(err, core.ErrInvalidDate):
		page := s.newForm(r, today(), nil)
		page.Flash = &flash{Kind: "error", Message: "Date invalide : " + date}
		s.render(w, r, http.StatusBadRequest, "form.html", page)
	case errors.Is(err, ports.ErrNotFound):
		page := s.newForm(r, date, nil)
		page.Flash = &flash{Kind: "error", Message: "Aucun relevé pour le " + date}
		s.render(w, r, http.StatusNotFound, "form.html", page)
	case err != nil:
		log.FromContext(r.Context()).LogError(r.Context(), "Failed to load reading", err, log.OpList,
			log.LogFields{log.FieldRecordDate: date})
		InternalServerError("Erreur de lecture").Write(w)
	default:
		s.render(w, r, http.StatusOK, "form.html", s.newForm(r, reading.RecordDate, &reading))
	}
}

// handleDelete removes the reading of record_date.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	parser := NewRequestBodyParser(r)
	if err := parser.Parse(); err != nil {
		BadRequestError("Format de requête invalide").Write(w)
		return
	}

	date := parser.Get(core.KeyField)
	err := s.readings.Delete(r.Context(), date)
	if errors.Is(err, core.ErrInvalidDate) {
		page := s.newForm(r, today(), nil)
		page.Flash = &flash{Kind: "error", Message: "Date invalide : " + date}
		s.render(w, r, http.StatusBadRequest, "form.html", page)
		return
	}
	if err != nil {
		log.FromContext(r.Context()).LogError(r.Context(), "Failed to delete reading", err, log.OpDelete,
			log.LogFields{log.FieldRecordDate: date})
		InternalServerError("Erreur lors de la suppression").Write(w)
		return
	}

	d, _ := core.ParseDate(date)
	SeeOther("/?" + url.Values{"deleted": {d.String()}}.Encode()).Write(w)
}

// newForm builds the form page with the latest readings listed below it.
func (s *Server) newForm(r *http.Request, date string, reading *core.Reading) formPage {
	schema := s.readings.Schema()
	page := newFormPage(schema, date, reading)

	readings, err := s.readings.List(r.Context())
	if err != nil {
		log.FromContext(r.Context()).LogError(r.Context(), "Failed to list readings", err, log.OpList, nil)
		return page
	}
	page.Recent = recentTable(schema, readings)
	return page
}

// flashFromQuery turns the post-redirect markers into a banner. Only
// well-formed dates are echoed back.
func flashFromQuery(q url.Values) *flash {
	if d, err := core.ParseDate(q.Get("saved")); err == nil {
		return &flash{Kind: "success", Message: "Relevé du " + d.Format("02/01/2006") + " enregistré."}
	}
	if d, err := core.ParseDate(q.Get("deleted")); err == nil {
		return &flash{Kind: "success", Message: "Relevé du " + d.Format("02/01/2006") + " supprimé."}
	}
	return nil
}

// readingFromInput keeps what the user typed when the form is shown again.
func readingFromInput(in services.ReadingInput, schema *core.Schema) *core.Reading {
	r := &core.Reading{
		RecordDate: in.RecordDate,
		Numbers:    make(map[string]core.Quantity),
		Texts:      make(map[string]string),
	}
	for _, f := range schema.Fields() {
		if f.Kind == core.KindNumeric {
			r.Numbers[f.Name] = core.ParseNumber(in.Values[f.Name])
		} else {
			r.Texts[f.Name] = in.Values[f.Name]
		}
	}
	return r
}

func today() string {
	return time.Now().Format(core.DateLayout)
}
