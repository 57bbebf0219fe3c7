package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"nrjtrack/internal/cache"
	"nrjtrack/internal/core"
	"nrjtrack/internal/log"
	"nrjtrack/internal/ports"
	"nrjtrack/internal/report"
)

// ExportEntry is what an export token resolves to.
type ExportEntry struct {
	View  core.Granularity
	Table report.Table
}

// ReportOutcome is a built report and the token of its deferred export.
type ReportOutcome struct {
	*report.Result
	ExportToken string
}

// ReportService snapshots the store, runs the report engine and keeps
// the differenced table available for one later export.
type ReportService struct {
	store    ports.ReadingLister
	engine   *report.Engine
	exports  cache.Cache[ExportEntry]
	logger   *log.Logger
	newToken func() string
}

// NewReportService wires the service. exports may be nil to disable
// deferred exports.
func NewReportService(store ports.ReadingLister, engine *report.Engine, exports cache.Cache[ExportEntry], logger *log.Logger) *ReportService {
	return &ReportService{
		store:    store,
		engine:   engine,
		exports:  exports,
		logger:   logger.WithComponent(log.ComponentReport),
		newToken: uuid.NewString,
	}
}

// Engine returns the report engine.
func (s *ReportService) Engine() *report.Engine {
	return s.engine
}

// Build runs the pipeline for p on the current readings.
func (s *ReportService) Build(ctx context.Context, p report.Params) (*ReportOutcome, error) {
	readings, err := s.store.ListReadings(ctx)
	if err != nil {
		s.logger.LogError(ctx, "Failed to list readings", err, log.OpList, nil)
		return nil, fmt.Errorf("list readings: %w", err)
	}

	res, err := s.engine.Build(readings, p)
	if err != nil {
		if IsDomainError(err) {
			s.logger.WarnContext(ctx, "Report rejected",
				log.FieldView, string(p.View),
				log.FieldDataType, p.DataType,
				log.FieldError, err)
		} else {
			s.logger.LogError(ctx, "Failed to build report", err, log.OpBuild, nil)
		}
		return nil, err
	}

	out := &ReportOutcome{Result: res}
	if s.exports != nil {
		out.ExportToken = s.newToken()
		s.exports.Set(out.ExportToken, ExportEntry{View: res.Aggregated.Granularity, Table: res.Differenced.Table()})
	}

	s.logger.InfoContext(ctx, "Report built",
		append(log.NewFields().WithReport(string(p.View), p.DataType, len(res.Report.Rows)).ToSlice(),
			log.FieldSingleBucket, res.SingleBucket,
			"summary", res.Summary.Sufficient)...)
	return out, nil
}

// Export resolves a token. Each token resolves at most once.
func (s *ReportService) Export(ctx context.Context, token string) (ExportEntry, bool) {
	if s.exports == nil || token == "" {
		return ExportEntry{}, false
	}
	entry, ok := s.exports.Take(token)
	s.logger.InfoContext(ctx, "Export token resolved",
		log.FieldOperation, log.OpExport,
		log.FieldToken, token,
		log.FieldSuccess, ok)
	return entry, ok
}

// PendingExports returns the number of export tokens not yet consumed.
func (s *ReportService) PendingExports() int {
	if s.exports == nil {
		return 0
	}
	return s.exports.Size()
}

// IsDomainError reports whether err is one of the report request errors
// that should be shown to the user rather than treated as a failure.
func IsDomainError(err error) bool {
	return errors.Is(err, report.ErrNoData) ||
		errors.Is(err, report.ErrInvalidRange) ||
		errors.Is(err, report.ErrUnknownField)
}
