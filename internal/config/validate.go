package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateDevice(); err != nil {
		return err
	}
	if err := c.validateRip(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateDevice() error {
	if c.Device.ReadSpeed < DefaultReadSpeed || c.Device.ReadSpeed > MaxReadSpeed {
		return fmt.Errorf("device.read_speed must be between %d and %d (got %d)", DefaultReadSpeed, MaxReadSpeed, c.Device.ReadSpeed)
	}
	switch c.Device.Backend {
	case BackendIoctl, BackendLibcdio:
	default:
		return fmt.Errorf("device.backend: unsupported value %q (want %q or %q)", c.Device.Backend, BackendIoctl, BackendLibcdio)
	}
	return nil
}

func (c *Config) validateRip() error {
	switch c.Rip.Format {
	case FormatWAV, FormatFLAC:
	default:
		return fmt.Errorf("rip.format: unsupported value %q (want %q or %q)", c.Rip.Format, FormatWAV, FormatFLAC)
	}
	if c.Rip.ReadRetries < 0 {
		return errors.New("rip.read_retries must be zero or positive")
	}
	if c.Rip.Workers < 1 {
		return errors.New("rip.workers must be at least 1")
	}
	if c.Paths.OutputDir == "" {
		return errors.New("paths.output_dir must be set")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	if c.Logging.RetentionDays < 0 {
		return errors.New("logging.retention_days must be zero or positive")
	}
	return nil
}
