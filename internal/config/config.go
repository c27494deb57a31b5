// Package config holds runtime configuration for the viewer. Flags are the
// primary interface; environment variables provide defaults, and a YAML
// file can be supplied for anything that should not live on the command
// line. Precedence: flags > config file > environment > built-in defaults.
package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// StorageType controls the snapshot storage backend.
type StorageType string

const (
	StorageSQLite StorageType = "sqlite"
	StorageMemory StorageType = "memory"
)

// Usage is printed when the tool is invoked with no arguments.
const Usage = `usage: cprofilev [-version] [-a ADDRESS] [-p PORT] [-f FILE] [-config FILE] command [arg ...]

An easier way to view call-graph profile statistics.
Serves an HTML view of the live statistics while the command still runs.

  -a, -address    address to listen on (default 127.0.0.1)
  -p, -port       port to listen on (default 4000)
  -f, -file       snapshot database to view; when given, the command is ignored
  -config         YAML configuration file
  -storage        snapshot storage backend: sqlite|memory (default sqlite)
  -snapshot-interval
                  how often a live session is persisted (default 1s)
  -log-level      debug|info|warn|error (default info)
  -version        print version and exit`

// Config contains all runtime configuration for the viewer.
type Config struct {
	Address          string
	Port             int
	File             string // saved snapshot database to view
	Storage          StorageType
	SnapshotInterval time.Duration
	LogLevel         string
	PrintVersion     bool

	// Target is the profiled command and its arguments. Empty when
	// viewing a saved snapshot file.
	Target []string
}

// ListenAddr returns the host:port the HTTP server binds to.
func (c Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Address, c.Port)
}

// fileConfig mirrors the flag surface for the YAML configuration file.
type fileConfig struct {
	Address          string `yaml:"address"`
	Port             int    `yaml:"port"`
	File             string `yaml:"file"`
	Storage          string `yaml:"storage"`
	SnapshotInterval string `yaml:"snapshot_interval"`
	LogLevel         string `yaml:"log_level"`
}

// Load parses args (not including the program name) into a validated Config.
func Load(args []string) (Config, error) {
	cfg := Config{
		Address:          getEnvString("HOST", "127.0.0.1"),
		Port:             getEnvInt("PORT", 4000),
		Storage:          StorageType(getEnvString("STORAGE", string(StorageSQLite))),
		SnapshotInterval: getEnvDuration("SNAPSHOT_INTERVAL", time.Second),
		LogLevel:         getEnvString("LOG_LEVEL", "info"),
	}

	// Apply the config file before flag parsing so explicit flags win.
	if path := configFileArg(args); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return Config{}, err
		}
	}

	fs := flag.NewFlagSet("cprofilev", flag.ContinueOnError)
	fs.Usage = func() { fmt.Fprintln(fs.Output(), Usage) }

	var storage string
	var configPath string
	fs.StringVar(&cfg.Address, "a", cfg.Address, "address to listen on")
	fs.StringVar(&cfg.Address, "address", cfg.Address, "address to listen on")
	fs.IntVar(&cfg.Port, "p", cfg.Port, "port to listen on")
	fs.IntVar(&cfg.Port, "port", cfg.Port, "port to listen on")
	fs.StringVar(&cfg.File, "f", cfg.File, "snapshot database to view")
	fs.StringVar(&cfg.File, "file", cfg.File, "snapshot database to view")
	fs.StringVar(&storage, "storage", string(cfg.Storage), "snapshot storage backend (sqlite|memory)")
	fs.DurationVar(&cfg.SnapshotInterval, "snapshot-interval", cfg.SnapshotInterval, "live snapshot persist interval")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug|info|warn|error)")
	fs.StringVar(&configPath, "config", "", "YAML configuration file")
	fs.BoolVar(&cfg.PrintVersion, "version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	cfg.Storage = StorageType(storage)
	cfg.Target = fs.Args()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks configuration constraints.
func (c Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}

	switch c.Storage {
	case StorageSQLite, StorageMemory:
		// ok
	default:
		return fmt.Errorf("invalid storage: %q (must be sqlite|memory)", c.Storage)
	}

	if c.SnapshotInterval <= 0 {
		return fmt.Errorf("invalid snapshot interval: %v", c.SnapshotInterval)
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "warning", "error":
		// ok
	default:
		return fmt.Errorf("invalid log level: %q", c.LogLevel)
	}

	return nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	if fc.Address != "" {
		c.Address = fc.Address
	}
	if fc.Port != 0 {
		c.Port = fc.Port
	}
	if fc.File != "" {
		c.File = fc.File
	}
	if fc.Storage != "" {
		c.Storage = StorageType(fc.Storage)
	}
	if fc.SnapshotInterval != "" {
		d, err := time.ParseDuration(fc.SnapshotInterval)
		if err != nil {
			return fmt.Errorf("parse snapshot_interval in %s: %w", path, err)
		}
		c.SnapshotInterval = d
	}
	if fc.LogLevel != "" {
		c.LogLevel = fc.LogLevel
	}
	return nil
}

// configFileArg pre-scans args for the -config flag, which has to be known
// before the other flags are parsed since it contributes their defaults.
func configFileArg(args []string) string {
	for i, arg := range args {
		switch {
		case arg == "-config" || arg == "--config":
			if i+1 < len(args) {
				return args[i+1]
			}
		case strings.HasPrefix(arg, "--config="):
			return strings.TrimPrefix(arg, "--config=")
		case strings.HasPrefix(arg, "-config="):
			return strings.TrimPrefix(arg, "-config=")
		}
	}
	return ""
}

func getEnvString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
