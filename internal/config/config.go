package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config locates the shared account directory and the per-account finance
// stores. Both stores receive it at construction; there is no ambient
// global state.
type Config struct {
	// DataDir is the base directory holding all database files.
	DataDir string

	// DirectoryDBFile is the file name of the shared account directory,
	// relative to DataDir.
	DirectoryDBFile string

	// BusyTimeout is how long a connection waits on a locked database
	// before giving up.
	BusyTimeout time.Duration
}

func Load() *Config {
	return &Config{
		DataDir:         getEnv("FINANZAS_DATA_DIR", "./data"),
		DirectoryDBFile: getEnv("FINANZAS_DIRECTORY_DB", "accounts.db"),
		BusyTimeout:     getEnvDuration("FINANZAS_BUSY_TIMEOUT", 10*time.Second),
	}
}

// DirectoryPath returns the absolute location of the shared account
// directory database.
func (c *Config) DirectoryPath() string {
	return filepath.Join(c.DataDir, c.DirectoryDBFile)
}

// StoreDir returns the directory holding the per-account finance stores.
func (c *Config) StoreDir() string {
	return filepath.Join(c.DataDir, "accounts")
}

// StorePath returns the location of one account's finance store.
func (c *Config) StorePath(accountID int64) string {
	return filepath.Join(c.StoreDir(), fmt.Sprintf("account_%d.db", accountID))
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	var errs []string

	if c.DataDir == "" {
		errs = append(errs, "data directory cannot be empty")
	} else if _, err := os.Stat(c.DataDir); os.IsNotExist(err) {
		if err := os.MkdirAll(c.DataDir, 0755); err != nil {
			errs = append(errs, fmt.Sprintf("cannot create data directory '%s': %v", c.DataDir, err))
		}
	}

	if c.DirectoryDBFile == "" {
		errs = append(errs, "directory database file name cannot be empty")
	} else if strings.ContainsRune(c.DirectoryDBFile, os.PathSeparator) {
		errs = append(errs, fmt.Sprintf("directory database file name '%s' must not contain path separators", c.DirectoryDBFile))
	}

	if c.BusyTimeout < time.Second {
		errs = append(errs, fmt.Sprintf("invalid busy timeout %v: must be at least 1 second", c.BusyTimeout))
	} else if c.BusyTimeout > time.Minute {
		errs = append(errs, fmt.Sprintf("invalid busy timeout %v: must be at most 1 minute", c.BusyTimeout))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
