// Package export renders reports to files: CSV tables, CSV imports of
// readings and PNG charts of the differenced series.
package export

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"nrjtrack/internal/core"
	"nrjtrack/internal/report"
)

// ErrMissingKeyColumn is returned when an imported file has no record_date column.
var ErrMissingKeyColumn = errors.New("csv header has no " + core.KeyField + " column")

// ImportResult is the outcome of reading a readings CSV.
type ImportResult struct {
	Readings []core.Reading
	// Skipped counts rows whose date could not be parsed.
	Skipped int
}

// Filename returns the attachment name of an exported report. Views
// that are not a known granularity are named after the daily fallback.
func Filename(view core.Granularity) string {
	g, ok := core.ParseGranularity(string(view))
	if !ok {
		g = core.Daily
	}
	return fmt.Sprintf("rapport_%s.csv", g)
}

// WriteCSV writes the table with its header row.
func WriteCSV(w io.Writer, t report.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return fmt.Errorf("write csv rows: %w", err)
	}
	return nil
}

// ReadCSV parses a readings file. The delimiter is ',' or ';' whichever
// occurs more in the header line. Columns that are not configured fields
// are ignored; numeric cells go through core.ParseNumber so blanks and
// garbage become undefined.
func ReadCSV(r io.Reader, schema *core.Schema) (ImportResult, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(4096)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return ImportResult{}, fmt.Errorf("read csv: %w", err)
	}

	cr := csv.NewReader(br)
	cr.Comma = SniffDelimiter(string(head))
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return ImportResult{}, nil
	}
	if err != nil {
		return ImportResult{}, fmt.Errorf("read csv header: %w", err)
	}

	keyIdx := -1
	cols := make(map[int]core.FieldDefinition)
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if name == core.KeyField {
			keyIdx = i
			continue
		}
		if f, ok := schema.Lookup(name); ok {
			cols[i] = f
		}
	}
	if keyIdx < 0 {
		return ImportResult{}, ErrMissingKeyColumn
	}

	var res ImportResult
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return res, fmt.Errorf("read csv line %d: %w", line, err)
		}
		if keyIdx >= len(rec) {
			res.Skipped++
			continue
		}
		date, err := core.ParseDate(rec[keyIdx])
		if err != nil {
			res.Skipped++
			continue
		}

		reading := core.Reading{
			RecordDate: date.String(),
			Numbers:    make(map[string]core.Quantity),
			Texts:      make(map[string]string),
		}
		for i, f := range cols {
			if i >= len(rec) {
				continue
			}
			if f.Kind == core.KindNumeric {
				reading.Numbers[f.Name] = core.ParseNumber(rec[i])
			} else if s := core.SanitizeText(rec[i]); s != "" {
				reading.Texts[f.Name] = s
			}
		}
		res.Readings = append(res.Readings, reading)
	}
	return res, nil
}

// SniffDelimiter picks ';' when the first line has more semicolons than
// commas, ',' otherwise.
func SniffDelimiter(sample string) rune {
	if i := strings.IndexAny(sample, "\r\n"); i >= 0 {
		sample = sample[:i]
	}
	if strings.Count(sample, ";") > strings.Count(sample, ",") {
		return ';'
	}
	return ','
}
