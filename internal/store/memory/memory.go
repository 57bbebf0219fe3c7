// Package memory is a reading store kept in process memory, used for
// local runs and tests.
package memory

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"nrjtrack/internal/core"
	"nrjtrack/internal/export"
	"nrjtrack/internal/ports"
)

// SeedFile is the name of the CSV loaded by NewFromDir.
const SeedFile = "energy.csv"

type Store struct {
	mu    sync.Mutex
	items map[string]core.Reading
}

var _ ports.ReadingStore = (*Store)(nil)

func New(readings ...core.Reading) *Store {
	s := &Store{items: make(map[string]core.Reading, len(readings))}
	for _, r := range readings {
		s.items[r.RecordDate] = clone(r)
	}
	return s
}

// NewFromDir seeds the store from SeedFile in dir. A missing file yields
// an empty store.
func NewFromDir(dir string, schema *core.Schema) (*Store, error) {
	return NewFromCSV(filepath.Join(dir, SeedFile), schema)
}

// NewFromCSV seeds the store from a readings CSV. A missing file yields
// an empty store.
func NewFromCSV(path string, schema *core.Schema) (*Store, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()

	res, err := export.ReadCSV(f, schema)
	if err != nil {
		return nil, fmt.Errorf("read seed file %s: %w", path, err)
	}
	return New(res.Readings...), nil
}

// ListReadings returns a copy of every reading ordered by record_date.
func (s *Store) ListReadings(_ context.Context) ([]core.Reading, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]core.Reading, 0, len(s.items))
	for _, r := range s.items {
		out = append(out, clone(r))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RecordDate < out[j].RecordDate })
	return out, nil
}

func (s *Store) GetReading(_ context.Context, recordDate string) (core.Reading, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.items[recordDate]
	if !ok {
		return core.Reading{}, ports.ErrNotFound
	}
	return clone(r), nil
}

// UpsertReading replaces the whole row of the date, like the SQL upsert.
func (s *Store) UpsertReading(_ context.Context, r core.Reading) error {
	if r.RecordDate == "" {
		return fmt.Errorf("upsert reading: %w", core.ErrInvalidDate)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[r.RecordDate] = clone(r)
	return nil
}

func (s *Store) DeleteReading(_ context.Context, recordDate string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, recordDate)
	return nil
}

// Len returns the number of stored readings.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func clone(r core.Reading) core.Reading {
	out := core.Reading{
		RecordDate: r.RecordDate,
		Numbers:    make(map[string]core.Quantity, len(r.Numbers)),
		Texts:      make(map[string]string, len(r.Texts)),
	}
	for k, v := range r.Numbers {
		out.Numbers[k] = v
	}
	for k, v := range r.Texts {
		if v != "" {
			out.Texts[k] = v
		}
	}
	return out
}
