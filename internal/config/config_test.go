package config_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"cddasrc/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv(config.EnvDevice, "")
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}
	if want := filepath.Join(tempHome, ".config", "cddasrc", "config.toml"); resolved != want {
		t.Fatalf("resolved = %q, want %q", resolved, want)
	}
	if want := filepath.Join(tempHome, ".local", "share", "cddasrc", "logs"); cfg.Paths.LogDir != want {
		t.Fatalf("log dir = %q, want %q", cfg.Paths.LogDir, want)
	}
	if want := filepath.Join(tempHome, "Music", "cddasrc"); cfg.Paths.OutputDir != want {
		t.Fatalf("output dir = %q, want %q", cfg.Paths.OutputDir, want)
	}
	if cfg.Device.ReadSpeed != config.DefaultReadSpeed {
		t.Fatalf("read speed = %d, want %d", cfg.Device.ReadSpeed, config.DefaultReadSpeed)
	}
	if cfg.Device.Backend != config.BackendIoctl {
		t.Fatalf("backend = %q", cfg.Device.Backend)
	}
	if cfg.Rip.Format != config.FormatFLAC {
		t.Fatalf("rip format = %q", cfg.Rip.Format)
	}
}

func TestLoadDeviceFromEnvironment(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv(config.EnvDevice, " /dev/sr1 ")

	cfg, _, _, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Device.Path != "/dev/sr1" {
		t.Fatalf("device path = %q, want /dev/sr1", cfg.Device.Path)
	}
}

func TestLoadExplicitFileWinsOverEnvironment(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv(config.EnvDevice, "/dev/sr1")

	path := filepath.Join(t.TempDir(), "config.toml")
	content := "[device]\npath = \"/dev/sr0\"\nread_speed = 8\n\n[rip]\nformat = \"WAV\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("resolved=%q exists=%v", resolved, exists)
	}
	if cfg.Device.Path != "/dev/sr0" {
		t.Fatalf("device path = %q", cfg.Device.Path)
	}
	if cfg.Device.ReadSpeed != 8 {
		t.Fatalf("read speed = %d", cfg.Device.ReadSpeed)
	}
	if cfg.Rip.Format != config.FormatWAV {
		t.Fatalf("rip format = %q, want lowercased wav", cfg.Rip.Format)
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[device]\nspeed = 4\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	_, _, _, err := config.Load(path)
	if err == nil {
		t.Fatal("expected error for unknown field")
	}
	if !strings.Contains(err.Error(), "parse config") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(*config.Config) {}},
		{name: "speed lower bound", mutate: func(c *config.Config) { c.Device.ReadSpeed = -1 }},
		{name: "speed zero", mutate: func(c *config.Config) { c.Device.ReadSpeed = 0 }},
		{name: "speed upper bound", mutate: func(c *config.Config) { c.Device.ReadSpeed = 100 }},
		{name: "speed below range", mutate: func(c *config.Config) { c.Device.ReadSpeed = -2 }, wantErr: "device.read_speed"},
		{name: "speed above range", mutate: func(c *config.Config) { c.Device.ReadSpeed = 101 }, wantErr: "device.read_speed"},
		{name: "unknown backend", mutate: func(c *config.Config) { c.Device.Backend = "cdparanoia" }, wantErr: "device.backend"},
		{name: "unknown format", mutate: func(c *config.Config) { c.Rip.Format = "mp3" }, wantErr: "rip.format"},
		{name: "negative retries", mutate: func(c *config.Config) { c.Rip.ReadRetries = -1 }, wantErr: "rip.read_retries"},
		{name: "no workers", mutate: func(c *config.Config) { c.Rip.Workers = 0 }, wantErr: "rip.workers"},
		{name: "bad log level", mutate: func(c *config.Config) { c.Logging.Level = "trace" }, wantErr: "logging.level"},
		{name: "bad log format", mutate: func(c *config.Config) { c.Logging.Format = "xml" }, wantErr: "logging.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate returned error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate error = %v, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestCreateSampleLoads(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv(config.EnvDevice, "")
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		t.Fatalf("sample is not valid TOML: %v", err)
	}
	for _, section := range []string{"device", "paths", "rip", "logging", "monitor"} {
		if _, ok := raw[section]; !ok {
			t.Errorf("sample missing [%s]", section)
		}
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load(sample) returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	if cfg.Device.ReadSpeed != config.DefaultReadSpeed {
		t.Fatalf("sample read speed = %d", cfg.Device.ReadSpeed)
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	cfg := config.Default()
	cfg.Device.Path = "/dev/sr0"
	cfg.Monitor.AutoRip = true

	var buf bytes.Buffer
	if err := cfg.Encode(&buf); err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}
	var decoded config.Config
	if err := toml.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Device.Path != "/dev/sr0" || !decoded.Monitor.AutoRip {
		t.Fatalf("round trip lost values: %+v", decoded)
	}
}

func TestEnsureDirectories(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Device.LockDir = filepath.Join(base, "locks")
	cfg.Paths.CatalogPath = filepath.Join(base, "db", "catalog.db")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories returned error: %v", err)
	}
	for _, dir := range []string{"logs", "locks", "db"} {
		info, err := os.Stat(filepath.Join(base, dir))
		if err != nil || !info.IsDir() {
			t.Errorf("expected directory %s: %v", dir, err)
		}
	}
}
