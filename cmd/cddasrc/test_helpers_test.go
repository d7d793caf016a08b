package main

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cddasrc/internal/cdda"
	"cddasrc/internal/cdda/cddatest"
	"cddasrc/internal/config"
	"cddasrc/internal/disc"
	"cddasrc/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	driver     *cddatest.Driver
	disc       *cddatest.Disc
}

// setupCLITestEnv writes a config into a temp HOME and inserts d into a
// fake /dev/sr0. device.path is left empty so the driver default is used
// and the device preflight check stays optional.
func setupCLITestEnv(t *testing.T, d *cddatest.Disc) *cliTestEnv {
	t.Helper()

	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(config.EnvDevice, "")

	cfg := testsupport.NewConfig(t, testsupport.WithDevice(""))
	configPath := filepath.Join(home, ".config", "cddasrc", "config.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{
		cfg:        cfg,
		configPath: configPath,
		driver:     cddatest.NewDriver("/dev/sr0", d),
		disc:       d,
	}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create config: %v", err)
	}
	defer f.Close()
	if err := cfg.Encode(f); err != nil {
		t.Fatalf("encode config: %v", err)
	}
}

func runCLI(t *testing.T, env *cliTestEnv, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommandWithOptions(rootOptions{
		driver: func(*config.Config, *slog.Logger) (cdda.Driver, error) {
			return env.driver, nil
		},
		driveStatus: func(string) (disc.DriveStatus, error) {
			return disc.DriveStatusDiscOK, nil
		},
	})
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", env.configPath}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, got, want string) {
	t.Helper()
	if !strings.Contains(got, want) {
		t.Fatalf("expected output to contain %q, got:\n%s", want, got)
	}
}
