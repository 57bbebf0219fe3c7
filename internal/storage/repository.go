package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"nrjtrack/internal/core"
	"nrjtrack/internal/ports"

	_ "modernc.org/sqlite"
)

const tableName = "energy_usage"

var sqlTypes = map[core.FieldKind]string{
	core.KindNumeric: "REAL",
	core.KindText:    "TEXT",
}

// SQLiteRepository stores one row per record date with one column per
// configured field.
type SQLiteRepository struct {
	db     *sql.DB
	schema *core.Schema
}

var _ ports.ReadingStore = (*SQLiteRepository)(nil)

func NewSQLiteRepository(ctx context.Context, dbPath string, schema *core.Schema) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	repo := &SQLiteRepository{db: db, schema: schema}
	if err := repo.SyncColumns(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return repo, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// SyncColumns adds a column for every configured field missing from the
// table. Columns are never dropped, so removing a field keeps its data.
func (r *SQLiteRepository) SyncColumns(ctx context.Context) error {
	existing, err := r.columns(ctx)
	if err != nil {
		return err
	}
	for _, f := range r.schema.Fields() {
		if _, ok := existing[f.Name]; ok {
			continue
		}
		stmt := fmt.Sprintf(`ALTER TABLE %s ADD COLUMN "%s" %s`, tableName, f.Name, sqlTypes[f.Kind])
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("add column %s: %w", f.Name, err)
		}
	}
	return nil
}

func (r *SQLiteRepository) columns(ctx context.Context) (map[string]struct{}, error) {
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", tableName))
	if err != nil {
		return nil, fmt.Errorf("read table info: %w", err)
	}
	defer rows.Close()

	out := make(map[string]struct{})
	for rows.Next() {
		var (
			cid     int
			name    string
			ctype   string
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("scan table info: %w", err)
		}
		out[name] = struct{}{}
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) selectColumns() string {
	cols := []string{core.KeyField}
	for _, f := range r.schema.Fields() {
		cols = append(cols, `"`+f.Name+`"`)
	}
	return strings.Join(cols, ", ")
}

// ListReadings implements ports.ReadingLister
func (r *SQLiteRepository) ListReadings(ctx context.Context) ([]core.Reading, error) {
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY %s ASC", r.selectColumns(), tableName, core.KeyField)
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list readings: %w", err)
	}
	defer rows.Close()

	var out []core.Reading
	for rows.Next() {
		reading, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, reading)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate readings: %w", err)
	}
	return out, nil
}

// GetReading implements ports.ReadingGetter
func (r *SQLiteRepository) GetReading(ctx context.Context, recordDate string) (core.Reading, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = ?", r.selectColumns(), tableName, core.KeyField)
	rows, err := r.db.QueryContext(ctx, query, recordDate)
	if err != nil {
		return core.Reading{}, fmt.Errorf("get reading %s: %w", recordDate, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return core.Reading{}, fmt.Errorf("get reading %s: %w", recordDate, err)
		}
		return core.Reading{}, ports.ErrNotFound
	}
	return r.scan(rows)
}

// scan reads one row. Values are scanned loosely so rows imported with
// text in numeric columns still load; unparsable numbers become undefined.
func (r *SQLiteRepository) scan(rows *sql.Rows) (core.Reading, error) {
	fields := r.schema.Fields()
	raw := make([]any, len(fields)+1)
	dest := make([]any, len(raw))
	for i := range raw {
		dest[i] = &raw[i]
	}
	if err := rows.Scan(dest...); err != nil {
		return core.Reading{}, fmt.Errorf("scan reading: %w", err)
	}

	reading := core.Reading{
		RecordDate: asText(raw[0]),
		Numbers:    make(map[string]core.Quantity),
		Texts:      make(map[string]string),
	}
	for i, f := range fields {
		v := raw[i+1]
		if f.Kind == core.KindNumeric {
			reading.Numbers[f.Name] = asQuantity(v)
		} else if s := asText(v); s != "" {
			reading.Texts[f.Name] = s
		}
	}
	return reading, nil
}

// UpsertReading implements ports.ReadingWriter
func (r *SQLiteRepository) UpsertReading(ctx context.Context, reading core.Reading) error {
	fields := r.schema.Fields()
	cols := make([]string, 0, len(fields))
	updates := make([]string, 0, len(fields))
	args := make([]any, 0, len(fields)+1)
	args = append(args, reading.RecordDate)

	for _, f := range fields {
		cols = append(cols, `"`+f.Name+`"`)
		updates = append(updates, fmt.Sprintf(`"%s"=excluded."%s"`, f.Name, f.Name))
		if f.Kind == core.KindNumeric {
			if q := reading.Number(f.Name); q.Valid {
				args = append(args, q.Value)
			} else {
				args = append(args, nil)
			}
			continue
		}
		if s := reading.Text(f.Name); s != "" {
			args = append(args, s)
		} else {
			args = append(args, nil)
		}
	}

	query := fmt.Sprintf(
		"INSERT INTO %s (%s, %s) VALUES (?%s) ON CONFLICT(%s) DO UPDATE SET %s",
		tableName, core.KeyField, strings.Join(cols, ", "),
		strings.Repeat(", ?", len(cols)),
		core.KeyField, strings.Join(updates, ", "),
	)
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert reading %s: %w", reading.RecordDate, err)
	}
	return nil
}

// DeleteReading implements ports.ReadingDeleter
func (r *SQLiteRepository) DeleteReading(ctx context.Context, recordDate string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE %s = ?", tableName, core.KeyField)
	if _, err := r.db.ExecContext(ctx, query, recordDate); err != nil {
		return fmt.Errorf("delete reading %s: %w", recordDate, err)
	}
	return nil
}

func asQuantity(v any) core.Quantity {
	switch x := v.(type) {
	case nil:
		return core.Quantity{}
	case float64:
		return core.NewQuantity(x)
	case int64:
		return core.NewQuantity(float64(x))
	case string:
		return core.ParseNumber(x)
	case []byte:
		return core.ParseNumber(string(x))
	default:
		return core.Quantity{}
	}
}

func asText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(x, 10)
	default:
		return fmt.Sprint(x)
	}
}

// IsNotFound reports whether err means the reading does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ports.ErrNotFound)
}
