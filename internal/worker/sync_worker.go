// Package worker keeps the spreadsheet copy of the report in step with
// the stored readings.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"nrjtrack/internal/amqp"
	"nrjtrack/internal/log"
	"nrjtrack/internal/ports"
	"nrjtrack/internal/report"
)

// SyncWorker rebuilds the default report and pushes its differenced
// table to the exporter.
type SyncWorker struct {
	store    ports.ReadingLister
	engine   *report.Engine
	exporter ports.TableExporter
	params   report.Params
	logger   *log.Logger

	// Syncs are serialized; each one rewrites the whole sheet.
	mu sync.Mutex
}

func NewSyncWorker(store ports.ReadingLister, engine *report.Engine, exporter ports.TableExporter, logger *log.Logger) *SyncWorker {
	return &SyncWorker{
		store:    store,
		engine:   engine,
		exporter: exporter,
		params:   report.Params{View: report.DefaultView, DataType: report.AllFields},
		logger:   logger.WithComponent(log.ComponentWorker),
	}
}

// HandleReadingChanged is the amqp.Handler of the worker. The message only
// triggers a sync; its content is not needed since the report is rebuilt
// from the full store.
func (w *SyncWorker) HandleReadingChanged(ctx context.Context, msg *amqp.ReadingChangedMessage) error {
	w.logger.InfoContext(ctx, "Processing reading changed message",
		log.FieldRecordDate, msg.RecordDate,
		"action", msg.Action)
	return w.Sync(ctx)
}

// Sync exports the current report. An empty store clears the sheet.
func (w *SyncWorker) Sync(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	readings, err := w.store.ListReadings(ctx)
	if err != nil {
		return fmt.Errorf("list readings: %w", err)
	}

	table := report.Table{}
	res, err := w.engine.Build(readings, w.params)
	switch {
	case errors.Is(err, report.ErrNoData):
		w.logger.InfoContext(ctx, "No readings, clearing sheet")
	case err != nil:
		return fmt.Errorf("build report: %w", err)
	default:
		table = res.Differenced.Table()
	}

	start := time.Now()
	if err := w.exporter.ExportTable(ctx, table); err != nil {
		return fmt.Errorf("export report: %w", err)
	}
	w.logger.InfoContext(ctx, "Report synced",
		log.FieldOperation, log.OpSync,
		log.FieldRows, len(table.Rows),
		log.FieldDuration, time.Since(start).Milliseconds())
	return nil
}

// RunResync syncs every interval until ctx is done, covering messages
// lost while the broker or the worker was down. A non-positive interval
// disables it.
func (w *SyncWorker) RunResync(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := w.Sync(ctx); err != nil {
				w.logger.LogError(ctx, "Periodic resync failed", err, log.OpSync, nil)
			}
		}
	}
}
