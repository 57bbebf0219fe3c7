package backend

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"nrjtrack/internal/config"
	"nrjtrack/internal/core"
	"nrjtrack/internal/log"
)

func TestBackendType_IsValid(t *testing.T) {
	tests := []struct {
		bt   BackendType
		want bool
	}{
		{SQLiteBackend, true},
		{MemoryBackend, true},
		{"sheets", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := tt.bt.IsValid(); got != tt.want {
			t.Errorf("BackendType(%q).IsValid() = %v, want %v", tt.bt, got, tt.want)
		}
	}
	if got := GetBackendTypeStrings(); len(got) != 2 || got[0] != "sqlite" {
		t.Errorf("GetBackendTypeStrings() = %v", got)
	}
}

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Error("FromAppConfig(nil) should fail")
	}
	if _, err := FromAppConfig(&config.Config{DataBackend: "postgres"}); err == nil {
		t.Error("FromAppConfig() should reject unknown backends")
	}

	cfg, err := FromAppConfig(&config.Config{DataBackend: "sqlite", SQLiteDBPath: "x.db", SeedCSVPath: "seed.csv"})
	if err != nil {
		t.Fatalf("FromAppConfig() error = %v", err)
	}
	if cfg.Type != SQLiteBackend || cfg.SQLiteDBPath != "x.db" || cfg.SeedCSVPath != "seed.csv" {
		t.Errorf("FromAppConfig() = %+v", cfg)
	}
}

func TestConfig_Validate(t *testing.T) {
	if err := (Config{Type: SQLiteBackend}).Validate(); err == nil {
		t.Error("sqlite without path should be invalid")
	}
	if err := (Config{Type: MemoryBackend}).Validate(); err != nil {
		t.Errorf("memory config error = %v", err)
	}
}

func TestCreateBackend_Memory(t *testing.T) {
	dir := t.TempDir()
	seed := filepath.Join(dir, "energy.csv")
	if err := os.WriteFile(seed, []byte("record_date,gaz\n2024-01-01,10\n"), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}

	f := NewFactory(log.Discard())
	res, err := f.CreateBackend(context.Background(), Config{Type: MemoryBackend, SeedCSVPath: seed}, core.DefaultSchema())
	if err != nil {
		t.Fatalf("CreateBackend() error = %v", err)
	}
	defer res.Close()

	got, err := res.Store.ListReadings(context.Background())
	if err != nil || len(got) != 1 {
		t.Fatalf("ListReadings() = %v, %v", got, err)
	}
	if res.Ping != nil {
		t.Error("memory backend should not need a ping")
	}
}

func TestCreateBackend_SQLite(t *testing.T) {
	ctx := context.Background()
	f := NewFactory(log.Discard())
	res, err := f.CreateBackend(ctx, Config{
		Type:         SQLiteBackend,
		SQLiteDBPath: filepath.Join(t.TempDir(), "nested", "energy.db"),
	}, core.DefaultSchema())
	if err != nil {
		t.Fatalf("CreateBackend() error = %v", err)
	}
	defer res.Close()

	if err := res.Ping(ctx); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
	if err := res.Store.UpsertReading(ctx, core.Reading{RecordDate: "2024-01-01"}); err != nil {
		t.Fatalf("UpsertReading() error = %v", err)
	}
}

func TestCreateBackend_Invalid(t *testing.T) {
	f := NewFactory(nil)
	if _, err := f.CreateBackend(context.Background(), Config{Type: "sheets"}, core.DefaultSchema()); err == nil {
		t.Error("CreateBackend() should reject unknown types")
	}
}
