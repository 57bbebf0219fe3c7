package services

import (
	"context"
	"fmt"
	"time"

	"nrjtrack/internal/amqp"
	"nrjtrack/internal/core"
	"nrjtrack/internal/log"
	"nrjtrack/internal/ports"
)

// ReadingInput is a reading as typed in the entry form: raw strings keyed
// by field name. An empty RecordDate means today.
type ReadingInput struct {
	RecordDate string
	Values     map[string]string
}

// ReadingService writes readings to the store and announces each change.
type ReadingService struct {
	store     ports.ReadingStore
	publisher ports.ChangePublisher
	schema    *core.Schema
	logger    *log.Logger
	now       func() time.Time
}

// NewReadingService wires the service. publisher may be nil when AMQP is
// not configured.
func NewReadingService(store ports.ReadingStore, publisher ports.ChangePublisher, schema *core.Schema, logger *log.Logger) *ReadingService {
	return &ReadingService{
		store:     store,
		publisher: publisher,
		schema:    schema,
		logger:    logger.WithComponent(log.ComponentReadings),
		now:       time.Now,
	}
}

// Schema returns the configured fields.
func (s *ReadingService) Schema() *core.Schema {
	return s.schema
}

// Save upserts the reading of the input's date, replacing every field.
// Numeric values tolerate a decimal comma; blanks and garbage are stored
// as null. Unknown keys are ignored.
func (s *ReadingService) Save(ctx context.Context, in ReadingInput) (core.Reading, error) {
	date, err := s.recordDate(in.RecordDate)
	if err != nil {
		return core.Reading{}, err
	}

	reading := core.Reading{
		RecordDate: date.String(),
		Numbers:    make(map[string]core.Quantity),
		Texts:      make(map[string]string),
	}
	for _, f := range s.schema.Fields() {
		raw := in.Values[f.Name]
		if f.Kind == core.KindNumeric {
			reading.Numbers[f.Name] = core.ParseNumber(raw)
		} else if v := core.SanitizeText(raw); v != "" {
			reading.Texts[f.Name] = v
		}
	}

	if err := s.store.UpsertReading(ctx, reading); err != nil {
		s.logger.LogError(ctx, "Failed to save reading", err, log.OpUpsert,
			log.LogFields{log.FieldRecordDate: reading.RecordDate})
		return core.Reading{}, fmt.Errorf("save reading: %w", err)
	}
	s.logger.InfoContext(ctx, "Reading saved",
		log.FieldOperation, log.OpUpsert,
		log.FieldRecordDate, reading.RecordDate)

	s.publish(ctx, reading.RecordDate, amqp.ActionUpsert)
	return reading, nil
}

// Delete removes the reading of a date. Deleting a missing date succeeds.
func (s *ReadingService) Delete(ctx context.Context, recordDate string) error {
	date, err := core.ParseDate(recordDate)
	if err != nil {
		return err
	}
	if err := s.store.DeleteReading(ctx, date.String()); err != nil {
		return fmt.Errorf("delete reading: %w", err)
	}
	s.logger.InfoContext(ctx, "Reading deleted",
		log.FieldOperation, log.OpDelete,
		log.FieldRecordDate, date.String())

	s.publish(ctx, date.String(), amqp.ActionDelete)
	return nil
}

// Get returns the stored reading of a date, or ports.ErrNotFound.
func (s *ReadingService) Get(ctx context.Context, recordDate string) (core.Reading, error) {
	date, err := core.ParseDate(recordDate)
	if err != nil {
		return core.Reading{}, err
	}
	return s.store.GetReading(ctx, date.String())
}

// List returns every stored reading ordered by date.
func (s *ReadingService) List(ctx context.Context) ([]core.Reading, error) {
	readings, err := s.store.ListReadings(ctx)
	if err != nil {
		return nil, fmt.Errorf("list readings: %w", err)
	}
	return readings, nil
}

func (s *ReadingService) recordDate(raw string) (core.Date, error) {
	if raw == "" {
		now := s.now()
		return core.NewDate(now.Year(), int(now.Month()), now.Day()), nil
	}
	return core.ParseDate(raw)
}

// publish never fails the write: the reading is already stored.
func (s *ReadingService) publish(ctx context.Context, recordDate, action string) {
	if s.publisher == nil {
		s.logger.Debug("AMQP publisher not configured, skipping change message")
		return
	}
	if err := s.publisher.PublishReadingChanged(ctx, recordDate, action); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish reading changed message",
			log.FieldRecordDate, recordDate,
			"action", action,
			log.FieldError, err)
	}
}

// Close releases the publisher. The store is owned by the backend.
func (s *ReadingService) Close() error {
	if s.publisher == nil {
		return nil
	}
	if err := s.publisher.Close(); err != nil {
		return fmt.Errorf("close publisher: %w", err)
	}
	return nil
}
