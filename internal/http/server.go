// Package http serves the reading entry form, the report page and the
// deferred CSV export.
package http

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"nrjtrack/internal/log"
	"nrjtrack/internal/middleware/ratelimit"
	"nrjtrack/internal/middleware/security"
	"nrjtrack/internal/middleware/trace"
	"nrjtrack/internal/services"
	appweb "nrjtrack/web"
)

// ReadyCheck reports whether a dependency can serve requests.
type ReadyCheck func(ctx context.Context) error

type Server struct {
	http.Server
	templates *template.Template
	readings  *services.ReadingService
	reports   *services.ReportService
	ready     ReadyCheck
	logger    *log.Logger

	traceMiddleware *trace.Middleware
	rateLimiter     *ratelimit.Limiter
	appMetrics      *appMetrics

	shutdownOnce sync.Once
}

type appMetrics struct {
	uptime        time.Time
	readingsSaved atomic.Int64
	reportsBuilt  atomic.Int64
	exportsServed atomic.Int64
}

// NewServer configures routes and templates, returning a ready-to-run
// http.Server. ready may be nil.
func NewServer(addr string, readings *services.ReadingService, reports *services.ReportService, ready ReadyCheck, logger *log.Logger) (*Server, error) {
	logger = logger.WithComponent(log.ComponentHTTP)

	t, err := template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	s := &Server{
		templates:       t,
		readings:        readings,
		reports:         reports,
		ready:           ready,
		logger:          logger,
		traceMiddleware: trace.NewMiddleware(logger, clientIP),
		rateLimiter:     ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		appMetrics:      &appMetrics{uptime: time.Now()},
	}

	mux := http.NewServeMux()

	sub, err := fs.Sub(appweb.StaticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("mount static assets: %w", err)
	}
	static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
	mux.Handle("/static/", security.StaticAssetMiddleware(3600)(static))

	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/edit", s.handleEdit)
	mux.HandleFunc("/delete", s.handleDelete)
	mux.HandleFunc("/data", s.handleData)
	mux.Handle("/export", security.NoStore(http.HandlerFunc(s.handleExport)))
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.HandleFunc("/metrics", s.handleMetrics)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	var handler http.Handler = mux
	handler = s.rateLimiter.Middleware(clientIP, s.onRateLimited)(handler)
	handler = headers.Middleware(handler)
	handler = log.Middleware(logger, trace.GetRequestID)(handler)
	handler = s.traceMiddleware.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s, nil
}

// RateLimiter returns the write limiter so its cleanup loop can be run
// alongside the server.
func (s *Server) RateLimiter() *ratelimit.Limiter {
	return s.rateLimiter
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	s.logger.WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, clientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	ErrorResponse(http.StatusTooManyRequests, "Trop de requêtes, réessayez dans une minute.").
		Header("Retry-After", "60").
		Write(w)
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		log.FromContext(r.Context()).LogError(r.Context(), "Template execution failed", err, log.OpRender,
			log.LogFields{"template": name})
		InternalServerError("Erreur d'affichage").Write(w)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
