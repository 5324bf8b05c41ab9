package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv(EnvDatabase, "")

	c, err := Load("", 0)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.ShmName() != "/shm_timemanager" || c.SemName() != "/sem_timemanager" {
		t.Fatalf("default names: shm=%q sem=%q", c.ShmName(), c.SemName())
	}
	if c.LockTimeout != 5*time.Second {
		t.Fatalf("default lock timeout %v", c.LockTimeout)
	}
	if c.HistoryDSN != "" || c.MetricsListen != "" {
		t.Fatalf("history/metrics not disabled by default: %+v", c)
	}
}

func TestDatabaseSuffix(t *testing.T) {
	t.Setenv(EnvDatabase, "")

	c, err := Load("", 3)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.ShmName() != "/shm_timemanager3" || c.SemName() != "/sem_timemanager3" {
		t.Fatalf("suffixed names: shm=%q sem=%q", c.ShmName(), c.SemName())
	}
}

func TestDatabaseFromEnv(t *testing.T) {
	t.Setenv(EnvDatabase, "2")

	c, err := Load("", 0)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Database != 2 {
		t.Fatalf("database from env = %d, want 2", c.Database)
	}
}

func TestFlagBeatsEnv(t *testing.T) {
	t.Setenv(EnvDatabase, "2")

	c, err := Load("", 4)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Database != 4 {
		t.Fatalf("database = %d, want flag value 4", c.Database)
	}
}

func TestInvalidDatabase(t *testing.T) {
	t.Setenv(EnvDatabase, "")

	if _, err := Load("", 6); !errors.Is(err, ErrInvalidDatabase) {
		t.Fatalf("flag 6: %v, want ErrInvalidDatabase", err)
	}

	t.Setenv(EnvDatabase, "0")
	if _, err := Load("", 0); !errors.Is(err, ErrInvalidDatabase) {
		t.Fatalf("env 0: %v, want ErrInvalidDatabase", err)
	}

	t.Setenv(EnvDatabase, "abc")
	if _, err := Load("", 0); !errors.Is(err, ErrInvalidDatabase) {
		t.Fatalf("env abc: %v, want ErrInvalidDatabase", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	t.Setenv(EnvDatabase, "")

	path := filepath.Join(t.TempDir(), "tm.toml")
	content := `
database = 5
lock_timeout = "10s"
history_dsn = "sqlite://:memory:"
metrics_listen = ":9178"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	c, err := Load(path, 0)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Database != 5 {
		t.Fatalf("database from file = %d", c.Database)
	}
	if c.LockTimeout != 10*time.Second {
		t.Fatalf("lock timeout from file = %v", c.LockTimeout)
	}
	if c.HistoryDSN != "sqlite://:memory:" || c.MetricsListen != ":9178" {
		t.Fatalf("file values not applied: %+v", c)
	}
}
