package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"cddasrc/internal/bus"
	"cddasrc/internal/catalog"
	"cddasrc/internal/cdda"
	"cddasrc/internal/cdda/ioctl"
	"cddasrc/internal/cdda/libcdio"
	"cddasrc/internal/config"
	"cddasrc/internal/disc"
	"cddasrc/internal/logging"
	"cddasrc/internal/rip"
)

// unsetSpeed marks --read-speed as not given.
const unsetSpeed = -2

type driverFactory func(cfg *config.Config, logger *slog.Logger) (cdda.Driver, error)

type commandContext struct {
	configFlag *string
	deviceFlag *string
	speedFlag  *int
	newDriver  driverFactory
	// driveStatus overrides disc.CheckDriveStatus in tests.
	driveStatus disc.StatusFunc

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger

	bus *bus.Bus
}

func newCommandContext(configFlag, deviceFlag *string, speedFlag *int, factory driverFactory) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		deviceFlag: deviceFlag,
		speedFlag:  speedFlag,
		newDriver:  factory,
	}
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(c.configPath())
		if err != nil {
			c.configErr = rip.Wrap(rip.ErrConfiguration, "", "load config", "", err)
			return
		}
		if c.speedFlag != nil && *c.speedFlag != unsetSpeed {
			if _, err := cdda.ParseReadSpeed(*c.speedFlag); err != nil {
				c.configErr = rip.Wrap(rip.ErrConfiguration, "", "--read-speed", "", err)
				return
			}
			cfg.Device.ReadSpeed = *c.speedFlag
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = rip.Wrap(rip.ErrOutput, "", "create directories", "", err)
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

// log returns the process logger, creating it on first use and pruning
// old log files.
func (c *commandContext) log() *slog.Logger {
	c.loggerOnce.Do(func() {
		cfg := c.configValue()
		logger, err := logging.NewFromConfig(cfg, "")
		if err != nil {
			logger = logging.NewNop()
		}
		if cfg != nil {
			logging.PruneLogs(logger, cfg.Paths.LogDir, cfg.Logging.RetentionDays, logging.LogFileName)
		}
		c.logger = logger
	})
	return c.logger
}

func (c *commandContext) eventBus() *bus.Bus {
	if c.bus == nil {
		c.bus = bus.New(c.log())
	}
	return c.bus
}

func (c *commandContext) close() {
	if c.bus != nil {
		c.bus.Wait()
	}
}

func (c *commandContext) driver() (cdda.Driver, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return c.newDriver(cfg, c.log())
}

// device returns the --device flag or device.path; empty means the driver
// default.
func (c *commandContext) device() string {
	if c.deviceFlag != nil {
		if dev := strings.TrimSpace(*c.deviceFlag); dev != "" {
			return disc.NormalizeDevice(dev)
		}
	}
	if cfg := c.configValue(); cfg != nil {
		return disc.NormalizeDevice(cfg.Device.Path)
	}
	return ""
}

// resolvedDevice is device() falling back to the driver default.
func (c *commandContext) resolvedDevice() (string, error) {
	if dev := c.device(); dev != "" {
		return dev, nil
	}
	driver, err := c.driver()
	if err != nil {
		return "", err
	}
	if dev := driver.DefaultDevice(); dev != "" {
		return dev, nil
	}
	return "", errors.New("no CD device found; pass --device or set device.path")
}

// newSession builds an unopened session carrying the configured read speed
// and the selected device as properties.
func (c *commandContext) newSession() (*cdda.Session, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	driver, err := c.driver()
	if err != nil {
		return nil, err
	}
	session := cdda.NewSession(driver, cdda.WithLogger(c.log()), cdda.WithBus(c.eventBus()))
	if err := session.SetProperty(cdda.PropertyReadSpeed, cfg.Device.ReadSpeed); err != nil {
		return nil, err
	}
	if dev := c.device(); dev != "" {
		if err := session.SetProperty(cdda.PropertyDevice, dev); err != nil {
			return nil, err
		}
	}
	return session, nil
}

// openSession opens the selected device. Callers must Close the session.
func (c *commandContext) openSession() (*cdda.Session, error) {
	session, err := c.newSession()
	if err != nil {
		return nil, err
	}
	if err := session.Open(""); err != nil {
		return nil, rip.Wrap(rip.ErrDevice, "", "open disc", "", err)
	}
	return session, nil
}

func (c *commandContext) statusFunc() disc.StatusFunc {
	if c.driveStatus != nil {
		return c.driveStatus
	}
	return disc.CheckDriveStatus
}

func (c *commandContext) openCatalog() (*catalog.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return catalog.Open(cfg)
}

func defaultDriver(cfg *config.Config, logger *slog.Logger) (cdda.Driver, error) {
	switch cfg.Device.Backend {
	case config.BackendLibcdio:
		if !libcdio.Available {
			return nil, fmt.Errorf("device.backend %q: binary built without libcdio (rebuild with -tags libcdio)", cfg.Device.Backend)
		}
		return libcdio.New(logger), nil
	default:
		return ioctl.New(ioctl.WithProbe(disc.ProbeDevices), ioctl.WithLogger(logger)), nil
	}
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

func contextWithTimeout(cmd *cobra.Command, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(commandCtx(cmd), d)
}

func commandCtx(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
