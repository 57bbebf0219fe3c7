package ctl

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const readingsCSV = `record_date;gaz;eau;comment
2024-01-01;100;20;
2024-01-08;110;21;chaudière révisée
2024-01-15;120;22;
pas une date;1;1;
2024-01-22;130;23;
`

// setupEnv points the store at a fresh SQLite file and the schema at a
// missing path so the default fields apply.
func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("DATA_BACKEND", "sqlite")
	t.Setenv("SQLITE_DB_PATH", filepath.Join(dir, "energy.db"))
	t.Setenv("FIELDS_CONFIG", filepath.Join(dir, "fields.yaml"))
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("AMQP_URL", "")
	return dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func importFixture(t *testing.T, dir string) {
	t.Helper()
	path := filepath.Join(dir, "releves.csv")
	if err := os.WriteFile(path, []byte(readingsCSV), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	out, err := run(t, "import", path)
	if err != nil {
		t.Fatalf("import error = %v", err)
	}
	if !strings.Contains(out, "4 readings imported, 1 rows skipped") {
		t.Fatalf("import output = %q", out)
	}
}

func TestImportAndReportCSV(t *testing.T) {
	dir := setupEnv(t)
	importFixture(t, dir)

	out, err := run(t, "report", "--view", "weekly", "--data-type", "gaz", "--format", "csv")
	if err != nil {
		t.Fatalf("report error = %v", err)
	}

	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	if err != nil {
		t.Fatalf("report output is not CSV: %v\n%s", err, out)
	}
	if len(records) != 5 {
		t.Fatalf("got %d CSV records, want header and 4 weeks:\n%s", len(records), out)
	}
	header := strings.Join(records[0], ",")
	if !strings.HasPrefix(header, "record_date,gaz") || !strings.Contains(header, "comment") {
		t.Errorf("header = %q", header)
	}
	if records[1][0] != "2024-01-01" {
		t.Errorf("first bucket = %q, want 2024-01-01", records[1][0])
	}
}

func TestReportTable(t *testing.T) {
	dir := setupEnv(t)
	importFixture(t, dir)

	out, err := run(t, "report", "--view", "yearly")
	if err != nil {
		t.Fatalf("report error = %v", err)
	}
	if !strings.Contains(out, "single period") {
		t.Errorf("yearly report should warn about a single period:\n%s", out)
	}
	if !strings.Contains(out, "record_date") {
		t.Errorf("report table missing header:\n%s", out)
	}
}

func TestReportErrors(t *testing.T) {
	tests := []struct {
		name    string
		seed    bool
		args    []string
		wantErr string
	}{
		{"empty store", false, []string{"report"}, "no data"},
		{"bad format", true, []string{"report", "--format", "xml"}, "invalid format"},
		{"inverted range", true, []string{"report", "--start", "2024-02-01", "--end", "2024-01-01"}, "2024-02-01"},
		{"unknown field", true, []string{"report", "--data-type", "fioul"}, "fioul"},
		{"chart without out", true, []string{"chart"}, "--out"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := setupEnv(t)
			if tt.seed {
				importFixture(t, dir)
			}
			_, err := run(t, tt.args...)
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(strings.ToLower(err.Error()), strings.ToLower(tt.wantErr)) {
				t.Errorf("error = %q, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestChart(t *testing.T) {
	dir := setupEnv(t)
	importFixture(t, dir)

	png := filepath.Join(dir, "variation.png")
	if _, err := run(t, "chart", "--view", "weekly", "--out", png); err != nil {
		t.Fatalf("chart error = %v", err)
	}
	data, err := os.ReadFile(png)
	if err != nil {
		t.Fatalf("read chart: %v", err)
	}
	if !bytes.HasPrefix(data, []byte{0x89, 'P', 'N', 'G'}) {
		t.Errorf("chart is not a PNG")
	}
}

func TestImportMissingFile(t *testing.T) {
	setupEnv(t)
	if _, err := run(t, "import", filepath.Join(t.TempDir(), "absent.csv")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
