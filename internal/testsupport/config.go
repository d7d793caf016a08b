// Package testsupport builds configs and stores for package tests.
package testsupport

import (
	"path/filepath"
	"testing"

	"cddasrc/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Device.Path = "/dev/sr0"
	cfgVal.Device.LockDir = filepath.Join(base, "locks")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.OutputDir = filepath.Join(base, "music")
	cfgVal.Paths.CatalogPath = filepath.Join(base, "catalog", "catalog.db")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	if err := builder.cfg.Validate(); err != nil {
		t.Fatalf("test config invalid: %v", err)
	}
	return builder.cfg
}

// WithDevice overrides the drive path on the test config.
func WithDevice(path string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Device.Path = path
	}
}

// WithFormat sets rip.format.
func WithFormat(format string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Rip.Format = format
	}
}

// WithReadSpeed sets device.read_speed.
func WithReadSpeed(speed int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Device.ReadSpeed = speed
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.LogDir)
}
