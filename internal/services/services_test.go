package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nrjtrack/internal/amqp"
	"nrjtrack/internal/cache"
	"nrjtrack/internal/core"
	"nrjtrack/internal/log"
	"nrjtrack/internal/ports"
	"nrjtrack/internal/report"
	"nrjtrack/internal/store/memory"
)

type publishedChange struct {
	recordDate string
	action     string
}

type fakePublisher struct {
	mu      sync.Mutex
	changes []publishedChange
	err     error
	closed  bool
}

func (f *fakePublisher) PublishReadingChanged(_ context.Context, recordDate, action string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.changes = append(f.changes, publishedChange{recordDate, action})
	return f.err
}

func (f *fakePublisher) Close() error {
	f.closed = true
	return nil
}

type failingStore struct {
	*memory.Store
}

func (failingStore) UpsertReading(context.Context, core.Reading) error {
	return errors.New("disk full")
}

func (failingStore) ListReadings(context.Context) ([]core.Reading, error) {
	return nil, errors.New("database locked")
}

func newReadingService(store ports.ReadingStore, pub ports.ChangePublisher) *ReadingService {
	s := NewReadingService(store, pub, core.DefaultSchema(), log.Discard())
	s.now = func() time.Time { return time.Date(2024, 3, 10, 18, 30, 0, 0, time.UTC) }
	return s
}

func TestReadingService_Save(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	pub := &fakePublisher{}
	svc := newReadingService(store, pub)

	saved, err := svc.Save(ctx, ReadingInput{
		RecordDate: "2024-03-01",
		Values: map[string]string{
			"gaz":     "1234,5",
			"eau":     "",
			"option1": "abc",
			"comment": "  compteur\x07 changé ",
			"unknown": "42",
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "2024-03-01", saved.RecordDate)
	assert.Equal(t, core.NewQuantity(1234.5), saved.Number("gaz"))
	assert.False(t, saved.Number("eau").Valid)
	assert.False(t, saved.Number("option1").Valid)
	assert.Equal(t, "compteur changé", saved.Text("comment"))
	assert.NotContains(t, saved.Numbers, "unknown")

	stored, err := store.GetReading(ctx, "2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, saved.Number("gaz"), stored.Number("gaz"))

	require.Len(t, pub.changes, 1)
	assert.Equal(t, publishedChange{"2024-03-01", amqp.ActionUpsert}, pub.changes[0])
}

func TestReadingService_SaveDefaultsToToday(t *testing.T) {
	svc := newReadingService(memory.New(), nil)

	saved, err := svc.Save(context.Background(), ReadingInput{Values: map[string]string{"gaz": "1"}})
	require.NoError(t, err)
	assert.Equal(t, "2024-03-10", saved.RecordDate)
}

func TestReadingService_SaveNormalizesDate(t *testing.T) {
	svc := newReadingService(memory.New(), nil)

	saved, err := svc.Save(context.Background(), ReadingInput{RecordDate: "2024/03/05"})
	require.NoError(t, err)
	assert.Equal(t, "2024-03-05", saved.RecordDate)

	_, err = svc.Save(context.Background(), ReadingInput{RecordDate: "05.03.2024"})
	assert.ErrorIs(t, err, core.ErrInvalidDate)
}

func TestReadingService_PublishFailureDoesNotFailSave(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	svc := newReadingService(memory.New(), pub)

	_, err := svc.Save(context.Background(), ReadingInput{RecordDate: "2024-03-01"})
	require.NoError(t, err)
	assert.Len(t, pub.changes, 1)
}

func TestReadingService_StoreFailure(t *testing.T) {
	pub := &fakePublisher{}
	svc := newReadingService(failingStore{memory.New()}, pub)

	_, err := svc.Save(context.Background(), ReadingInput{RecordDate: "2024-03-01"})
	require.Error(t, err)
	assert.Empty(t, pub.changes, "nothing is published when the write failed")
}

func TestReadingService_DeleteAndGet(t *testing.T) {
	ctx := context.Background()
	pub := &fakePublisher{}
	store := memory.New(core.Reading{RecordDate: "2024-03-01"})
	svc := newReadingService(store, pub)

	_, err := svc.Get(ctx, "2024-03-01")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, "2024-03-01"))
	_, err = svc.Get(ctx, "2024-03-01")
	assert.ErrorIs(t, err, ports.ErrNotFound)

	require.Len(t, pub.changes, 1)
	assert.Equal(t, amqp.ActionDelete, pub.changes[0].action)

	assert.ErrorIs(t, svc.Delete(ctx, "garbage"), core.ErrInvalidDate)
}

func TestReadingService_Close(t *testing.T) {
	assert.NoError(t, newReadingService(memory.New(), nil).Close())

	pub := &fakePublisher{}
	require.NoError(t, newReadingService(memory.New(), pub).Close())
	assert.True(t, pub.closed)
}

func weeklyReadings() []core.Reading {
	var out []core.Reading
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		d := start.AddDate(0, 0, 7*i)
		out = append(out, core.Reading{
			RecordDate: d.Format(core.DateLayout),
			Numbers:    map[string]core.Quantity{"gaz": core.NewQuantity(float64(100 + 10*i))},
		})
	}
	return out
}

func newReportService(store ports.ReadingLister) (*ReportService, *cache.LRUCache[ExportEntry]) {
	exports := cache.NewLRUCache[ExportEntry](4, time.Minute)
	svc := NewReportService(store, report.NewEngine(core.DefaultSchema()), exports, log.Discard())
	n := 0
	svc.newToken = func() string {
		n++
		return "tok-" + string(rune('0'+n))
	}
	return svc, exports
}

func TestReportService_BuildStoresExport(t *testing.T) {
	ctx := context.Background()
	svc, exports := newReportService(memory.New(weeklyReadings()...))

	out, err := svc.Build(ctx, report.Params{View: core.Weekly, DataType: "gaz"})
	require.NoError(t, err)
	assert.Equal(t, "tok-1", out.ExportToken)
	assert.Equal(t, 1, exports.Size())
	assert.Equal(t, 1, svc.PendingExports())
	assert.Equal(t, []string{"gaz"}, out.Differenced.Columns)

	entry, ok := svc.Export(ctx, out.ExportToken)
	require.True(t, ok)
	assert.Equal(t, core.Weekly, entry.View)
	assert.Equal(t, []string{core.KeyField, "gaz"}, entry.Table.Header)
	assert.Len(t, entry.Table.Rows, out.Differenced.Len())

	_, ok = svc.Export(ctx, out.ExportToken)
	assert.False(t, ok, "a token is consumed by its first export")
}

func TestReportService_ExportKeepsResolvedView(t *testing.T) {
	ctx := context.Background()
	svc, _ := newReportService(memory.New(weeklyReadings()...))

	out, err := svc.Build(ctx, report.Params{View: "fortnightly", DataType: "gaz"})
	require.NoError(t, err)

	entry, ok := svc.Export(ctx, out.ExportToken)
	require.True(t, ok)
	assert.Equal(t, core.Daily, entry.View)
}

func TestReportService_DomainErrors(t *testing.T) {
	ctx := context.Background()

	svc, exports := newReportService(memory.New())
	_, err := svc.Build(ctx, report.Params{View: core.Weekly, DataType: report.AllFields})
	assert.ErrorIs(t, err, report.ErrNoData)
	assert.True(t, IsDomainError(err))
	assert.Equal(t, 0, exports.Size())

	svc, _ = newReportService(memory.New(weeklyReadings()...))
	_, err = svc.Build(ctx, report.Params{View: core.Weekly, DataType: "fioul"})
	assert.ErrorIs(t, err, report.ErrUnknownField)

	_, err = svc.Build(ctx, report.Params{
		Range:    report.DateRange{Start: core.NewDate(2024, 1, 20), End: core.NewDate(2024, 1, 10)},
		View:     core.Weekly,
		DataType: report.AllFields,
	})
	assert.ErrorIs(t, err, report.ErrInvalidRange)
}

func TestReportService_StoreFailure(t *testing.T) {
	svc, _ := newReportService(failingStore{memory.New()})

	_, err := svc.Build(context.Background(), report.Params{View: core.Weekly, DataType: report.AllFields})
	require.Error(t, err)
	assert.False(t, IsDomainError(err))
}

func TestReportService_ExportUnknownToken(t *testing.T) {
	svc, _ := newReportService(memory.New())
	_, ok := svc.Export(context.Background(), "missing")
	assert.False(t, ok)

	noCache := NewReportService(memory.New(), report.NewEngine(core.DefaultSchema()), nil, log.Discard())
	_, ok = noCache.Export(context.Background(), "anything")
	assert.False(t, ok)
	assert.Equal(t, 0, noCache.PendingExports())
}
