// Package config resolves the runtime configuration of the tm
// commands: which of the up to five registries to talk to, the object
// names derived from that choice, and tunables that have no command
// line flag of their own.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

const (
	// EnvDatabase supplies the database index when the -d flag is absent.
	EnvDatabase = "TM_DB_NUM"

	// MaxDatabases is the highest usable database index.
	MaxDatabases = 5

	defaultShmName = "/shm_timemanager"
	defaultSemName = "/sem_timemanager"
)

// ErrInvalidDatabase marks an out-of-range database index, a usage error.
var ErrInvalidDatabase = fmt.Errorf("invalid database number (valid 1-%d)", MaxDatabases)

// Config is the resolved runtime configuration.
type Config struct {
	// Database is 0 for the default registry, or 1..5.
	Database int

	ShmBase string `mapstructure:"shm_name"`
	SemBase string `mapstructure:"sem_name"`

	// LockTimeout bounds semaphore waits when no -t flag is given.
	LockTimeout time.Duration `mapstructure:"lock_timeout"`

	// HistoryDSN is the sqlite DSN of the activation history. Empty
	// disables recording.
	HistoryDSN string `mapstructure:"history_dsn"`

	// MetricsListen is the autoextend metrics address, e.g. ":9178".
	// Empty disables the listener.
	MetricsListen string `mapstructure:"metrics_listen"`
}

// ShmName returns the shared memory object name with the database
// suffix applied.
func (c *Config) ShmName() string {
	if c.Database == 0 {
		return c.ShmBase
	}
	return fmt.Sprintf("%s%d", c.ShmBase, c.Database)
}

// SemName returns the semaphore name with the database suffix applied.
func (c *Config) SemName() string {
	if c.Database == 0 {
		return c.SemBase
	}
	return fmt.Sprintf("%s%d", c.SemBase, c.Database)
}

// Load resolves the configuration. flagDB is the -d value, 0 when the
// flag was not given; it wins over the TM_DB_NUM environment variable,
// which wins over the config file. path names an optional TOML file;
// empty falls back to ~/.config/tm/tm.toml when that exists.
func Load(path string, flagDB int) (*Config, error) {
	v := viper.New()
	v.SetDefault("shm_name", defaultShmName)
	v.SetDefault("sem_name", defaultSemName)
	v.SetDefault("lock_timeout", 5*time.Second)
	v.SetDefault("history_dsn", "")
	v.SetDefault("metrics_listen", "")
	v.SetDefault("database", 0)

	if path == "" {
		if home, err := os.UserHomeDir(); err == nil {
			candidate := filepath.Join(home, ".config", "tm", "tm.toml")
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
			}
		}
	}
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	c.Database = v.GetInt("database")

	if env := os.Getenv(EnvDatabase); env != "" {
		n := 0
		if _, err := fmt.Sscanf(env, "%d", &n); err != nil || n < 1 || n > MaxDatabases {
			return nil, fmt.Errorf("%w: %s=%q", ErrInvalidDatabase, EnvDatabase, env)
		}
		c.Database = n
	}
	if flagDB != 0 {
		c.Database = flagDB
	}
	if c.Database != 0 && (c.Database < 1 || c.Database > MaxDatabases) {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidDatabase, c.Database)
	}
	if c.LockTimeout <= 0 {
		return nil, errors.New("config: lock_timeout must be positive")
	}

	return &c, nil
}
