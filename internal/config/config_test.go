package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load([]string{"prog.py"})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Address != "127.0.0.1" {
		t.Errorf("Address = %q, want 127.0.0.1", cfg.Address)
	}
	if cfg.Port != 4000 {
		t.Errorf("Port = %d, want 4000", cfg.Port)
	}
	if cfg.Storage != StorageSQLite {
		t.Errorf("Storage = %q, want sqlite", cfg.Storage)
	}
	if cfg.SnapshotInterval != time.Second {
		t.Errorf("SnapshotInterval = %v, want 1s", cfg.SnapshotInterval)
	}
	if len(cfg.Target) != 1 || cfg.Target[0] != "prog.py" {
		t.Errorf("Target = %v, want [prog.py]", cfg.Target)
	}
}

func TestFlags(t *testing.T) {
	cfg, err := Load([]string{"-a", "0.0.0.0", "-p", "8080", "-f", "saved.db"})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Address != "0.0.0.0" {
		t.Errorf("Address = %q, want 0.0.0.0", cfg.Address)
	}
	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.File != "saved.db" {
		t.Errorf("File = %q, want saved.db", cfg.File)
	}
	if len(cfg.Target) != 0 {
		t.Errorf("Target = %v, want empty", cfg.Target)
	}
}

func TestTargetWithArguments(t *testing.T) {
	cfg, err := Load([]string{"-p", "8080", "myprog", "-x", "--flag-for-target"})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := []string{"myprog", "-x", "--flag-for-target"}
	if len(cfg.Target) != 3 || cfg.Target[0] != want[0] || cfg.Target[1] != want[1] || cfg.Target[2] != want[2] {
		t.Errorf("Target = %v, want %v", cfg.Target, want)
	}
}

func TestEnvFallback(t *testing.T) {
	t.Setenv("PORT", "5000")
	t.Setenv("HOST", "0.0.0.0")

	cfg, err := Load([]string{"prog.py"})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != 5000 {
		t.Errorf("Port = %d, want 5000 from env", cfg.Port)
	}
	if cfg.Address != "0.0.0.0" {
		t.Errorf("Address = %q, want 0.0.0.0 from env", cfg.Address)
	}
}

func TestFlagsBeatEnv(t *testing.T) {
	t.Setenv("PORT", "5000")

	cfg, err := Load([]string{"-p", "6000", "prog.py"})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != 6000 {
		t.Errorf("Port = %d, want 6000 from flag", cfg.Port)
	}
}

func TestConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cprofilev.yaml")
	yaml := "port: 9000\naddress: 10.0.0.1\nlog_level: debug\nsnapshot_interval: 5s\n"
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load([]string{"-config", path, "prog.py"})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != 9000 {
		t.Errorf("Port = %d, want 9000 from config file", cfg.Port)
	}
	if cfg.Address != "10.0.0.1" {
		t.Errorf("Address = %q, want 10.0.0.1 from config file", cfg.Address)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug from config file", cfg.LogLevel)
	}
	if cfg.SnapshotInterval != 5*time.Second {
		t.Errorf("SnapshotInterval = %v, want 5s from config file", cfg.SnapshotInterval)
	}
}

func TestFlagsBeatConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cprofilev.yaml")
	if err := os.WriteFile(path, []byte("port: 9000\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load([]string{"-config", path, "-p", "9999", "prog.py"})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != 9999 {
		t.Errorf("Port = %d, want 9999 from flag", cfg.Port)
	}
}

func TestInvalidPort(t *testing.T) {
	if _, err := Load([]string{"-p", "0", "prog.py"}); err == nil {
		t.Error("Load() with port 0 should fail")
	}
}

func TestInvalidStorage(t *testing.T) {
	if _, err := Load([]string{"-storage", "postgres", "prog.py"}); err == nil {
		t.Error("Load() with unknown storage should fail")
	}
}

func TestInvalidLogLevel(t *testing.T) {
	if _, err := Load([]string{"-log-level", "loud", "prog.py"}); err == nil {
		t.Error("Load() with unknown log level should fail")
	}
}

func TestListenAddr(t *testing.T) {
	cfg := Config{Address: "127.0.0.1", Port: 4000}
	if got := cfg.ListenAddr(); got != "127.0.0.1:4000" {
		t.Errorf("ListenAddr() = %q, want 127.0.0.1:4000", got)
	}
}
