package config

// Backend names accepted in device.backend.
const (
	BackendIoctl   = "ioctl"
	BackendLibcdio = "libcdio"
)

// Rip formats accepted in rip.format.
const (
	FormatWAV  = "wav"
	FormatFLAC = "flac"
)

// Read speed bounds. DefaultReadSpeed leaves the drive at its own speed.
const (
	DefaultReadSpeed = -1
	MaxReadSpeed     = 100
)

const (
	defaultConfigPath       = "~/.config/cddasrc/config.toml"
	defaultLogDir           = "~/.local/share/cddasrc/logs"
	defaultLockDir          = "~/.local/share/cddasrc/locks"
	defaultOutputDir        = "~/Music/cddasrc"
	defaultCatalogPath      = "~/.local/share/cddasrc/catalog.db"
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	defaultLogRetentionDays = 30
	defaultReadRetries      = 3
	defaultRipWorkers       = 2
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Device: Device{
			ReadSpeed: DefaultReadSpeed,
			Backend:   BackendIoctl,
			LockDir:   defaultLockDir,
		},
		Paths: Paths{
			LogDir:      defaultLogDir,
			OutputDir:   defaultOutputDir,
			CatalogPath: defaultCatalogPath,
		},
		Rip: Rip{
			Format:      FormatFLAC,
			ReadRetries: defaultReadRetries,
			Workers:     defaultRipWorkers,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
