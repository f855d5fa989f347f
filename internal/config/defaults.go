package config

const (
	defaultConfigPath          = "~/.config/kdvd/config.toml"
	defaultStateDir            = "~/.local/share/kdvd"
	defaultLogDir              = "~/.local/share/kdvd/logs"
	defaultMaxStreams          = 4
	defaultAvailabilityWorkers = 4
	defaultOpticalDrive        = "/dev/sr0"
	defaultAPIBind             = "127.0.0.1:7490"
	defaultMountWaitSeconds    = 10
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"

	discRootEnv = "KDVD_DISC_ROOT"
	apiTokenEnv = "KDVD_API_TOKEN"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Manifest: Manifest{
			MaxStreams: defaultMaxStreams,
		},
		Catalog: Catalog{
			AvailabilityWorkers: defaultAvailabilityWorkers,
		},
		Daemon: Daemon{
			OpticalDrive:     defaultOpticalDrive,
			APIBind:          defaultAPIBind,
			MountWaitSeconds: defaultMountWaitSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
