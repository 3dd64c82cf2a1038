package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.DataDir != "./data" {
		t.Fatalf("unexpected default data dir: %s", cfg.DataDir)
	}
	if cfg.DirectoryDBFile != "accounts.db" {
		t.Fatalf("unexpected default directory db: %s", cfg.DirectoryDBFile)
	}
	if cfg.BusyTimeout != 10*time.Second {
		t.Fatalf("unexpected default busy timeout: %v", cfg.BusyTimeout)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("FINANZAS_DATA_DIR", "/tmp/elsewhere")
	t.Setenv("FINANZAS_DIRECTORY_DB", "users.db")
	t.Setenv("FINANZAS_BUSY_TIMEOUT", "3s")

	cfg := Load()
	if cfg.DataDir != "/tmp/elsewhere" {
		t.Fatalf("env data dir not applied: %s", cfg.DataDir)
	}
	if cfg.DirectoryDBFile != "users.db" {
		t.Fatalf("env directory db not applied: %s", cfg.DirectoryDBFile)
	}
	if cfg.BusyTimeout != 3*time.Second {
		t.Fatalf("env busy timeout not applied: %v", cfg.BusyTimeout)
	}
}

func TestPaths(t *testing.T) {
	cfg := &Config{DataDir: "/var/lib/finanzas", DirectoryDBFile: "accounts.db"}

	if got := cfg.DirectoryPath(); got != filepath.Join("/var/lib/finanzas", "accounts.db") {
		t.Fatalf("unexpected directory path: %s", got)
	}
	if got := cfg.StorePath(42); got != filepath.Join("/var/lib/finanzas", "accounts", "account_42.db") {
		t.Fatalf("unexpected store path: %s", got)
	}
}

func TestValidate(t *testing.T) {
	good := &Config{DataDir: t.TempDir(), DirectoryDBFile: "accounts.db", BusyTimeout: 10 * time.Second}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []*Config{
		{DataDir: "", DirectoryDBFile: "accounts.db", BusyTimeout: 10 * time.Second},
		{DataDir: t.TempDir(), DirectoryDBFile: "", BusyTimeout: 10 * time.Second},
		{DataDir: t.TempDir(), DirectoryDBFile: "sub/accounts.db", BusyTimeout: 10 * time.Second},
		{DataDir: t.TempDir(), DirectoryDBFile: "accounts.db", BusyTimeout: 0},
		{DataDir: t.TempDir(), DirectoryDBFile: "accounts.db", BusyTimeout: time.Hour},
	}
	for i, cfg := range bads {
		if err := cfg.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestValidateCreatesDataDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	cfg := &Config{DataDir: dir, DirectoryDBFile: "accounts.db", BusyTimeout: 10 * time.Second}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Fatalf("data dir was not created: %v", err)
	}
}
