package backend

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fintrack/internal/config"
	"fintrack/internal/core"
	"fintrack/internal/kv"
	"fintrack/internal/log"
)

func testFactory() Factory {
	return NewFactory(log.New(log.Config{Output: io.Discard}))
}

func TestCreateBackend(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name   string
		config Config
	}{
		{"memory", Config{Type: MemoryBackend}},
		{"file", Config{Type: FileBackend, DataDirectory: filepath.Join(dir, "files")}},
		{"sqlite", Config{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(dir, "fintrack.db")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			res, err := testFactory().CreateBackend(ctx, tt.config)
			if err != nil {
				t.Fatalf("CreateBackend() error = %v", err)
			}
			defer res.Cleanup()

			if err := res.Ready(ctx); err != nil {
				t.Fatalf("Ready() error = %v", err)
			}

			budgets := kv.NewCollection[core.Budget](res.DB, kv.KeyBudgets)
			if err := budgets.Save(ctx, []core.Budget{{ID: "b1", UserID: "u1"}}); err != nil {
				t.Fatalf("save: %v", err)
			}
			got, err := budgets.Load(ctx)
			if err != nil || len(got) != 1 || got[0].ID != "b1" {
				t.Fatalf("load = %+v, %v", got, err)
			}
		})
	}
}

func TestCreateBackendRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr string
	}{
		{"unknown type", Config{Type: "sheets"}, "invalid backend type"},
		{"sqlite without path", Config{Type: SQLiteBackend}, "SQLite database path is required"},
		{"file without directory", Config{Type: FileBackend}, "data directory is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := testFactory().CreateBackend(context.Background(), tt.config)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestMemoryBackendSeedsFromDirectory(t *testing.T) {
	dir := t.TempDir()
	seed := `[{"id":"t1","userId":"u1","amount":5,"description":"seed","type":"DEPOSIT","category":""}]`
	if err := os.WriteFile(filepath.Join(dir, "transactions.json"), []byte(seed), 0o644); err != nil {
		t.Fatal(err)
	}

	res, err := testFactory().CreateBackend(context.Background(), Config{Type: MemoryBackend, DataDirectory: dir})
	if err != nil {
		t.Fatal(err)
	}
	defer res.Cleanup()

	txs, err := kv.NewCollection[core.Transaction](res.DB, kv.KeyTransactions).Load(context.Background())
	if err != nil || len(txs) != 1 || txs[0].Description != "seed" {
		t.Fatalf("seeded transactions = %+v, %v", txs, err)
	}
}

func TestFromAppConfig(t *testing.T) {
	cfg := &config.Config{DataBackend: "file", DataDir: "/tmp/x", SQLiteDBPath: "/tmp/x.db"}
	got, err := FromAppConfig(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if got.Type != FileBackend || got.DataDirectory != "/tmp/x" || got.SQLiteDBPath != "/tmp/x.db" {
		t.Fatalf("unexpected config %+v", got)
	}

	if _, err := FromAppConfig(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
	if _, err := FromAppConfig(&config.Config{DataBackend: "sheets"}); err == nil {
		t.Fatal("expected error for unknown backend")
	}
	if s := GetBackendTypeStrings(); len(s) != 3 || s[0] != "memory" {
		t.Fatalf("backend types = %v", s)
	}
}
