// Package ports declares the collaborators the services depend on.
package ports

import (
	"context"
	"errors"

	"nrjtrack/internal/core"
	"nrjtrack/internal/report"
)

// ErrNotFound is returned when no reading exists for a date.
var ErrNotFound = errors.New("reading not found")

// Ports for outbound adapters.
type (
	// ReadingLister returns every stored reading ordered by record_date.
	ReadingLister interface {
		ListReadings(ctx context.Context) ([]core.Reading, error)
	}

	// ReadingGetter returns the reading stored for one date.
	ReadingGetter interface {
		GetReading(ctx context.Context, recordDate string) (core.Reading, error)
	}

	// ReadingWriter inserts a reading or replaces the one with the same date.
	ReadingWriter interface {
		UpsertReading(ctx context.Context, r core.Reading) error
	}

	// ReadingDeleter removes the reading of a date. Deleting a missing
	// date is not an error.
	ReadingDeleter interface {
		DeleteReading(ctx context.Context, recordDate string) error
	}

	// ReadingStore is the full store contract implemented by backends.
	ReadingStore interface {
		ReadingLister
		ReadingGetter
		ReadingWriter
		ReadingDeleter
	}

	// TableExporter pushes a rendered table to an external destination.
	TableExporter interface {
		ExportTable(ctx context.Context, t report.Table) error
	}

	// ChangePublisher announces that a reading changed.
	ChangePublisher interface {
		PublishReadingChanged(ctx context.Context, recordDate, action string) error
		Close() error
	}
)
