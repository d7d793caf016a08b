package config

import (
	"fmt"
	"os"
	"strings"
)

// EnvDevice overrides an empty device.path.
const EnvDevice = "CDDASRC_DEVICE"

func (c *Config) normalize() error {
	if err := c.normalizeDevice(); err != nil {
		return err
	}
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeRip()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizeDevice() error {
	c.Device.Path = strings.TrimSpace(c.Device.Path)
	if c.Device.Path == "" {
		if value, ok := os.LookupEnv(EnvDevice); ok {
			c.Device.Path = strings.TrimSpace(value)
		}
	}
	c.Device.Backend = strings.ToLower(strings.TrimSpace(c.Device.Backend))
	if c.Device.Backend == "" {
		c.Device.Backend = BackendIoctl
	}
	if strings.TrimSpace(c.Device.LockDir) == "" {
		c.Device.LockDir = defaultLockDir
	}
	var err error
	if c.Device.LockDir, err = expandPath(c.Device.LockDir); err != nil {
		return fmt.Errorf("device.lock_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.CatalogPath, err = expandPath(c.Paths.CatalogPath); err != nil {
		return fmt.Errorf("paths.catalog_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeRip() {
	c.Rip.Format = strings.ToLower(strings.TrimSpace(c.Rip.Format))
	if c.Rip.Format == "" {
		c.Rip.Format = FormatFLAC
	}
	if c.Rip.Workers == 0 {
		c.Rip.Workers = defaultRipWorkers
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
