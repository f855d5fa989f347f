package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeDaemon()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(strings.TrimSpace(c.Paths.StateDir)); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	root := strings.TrimSpace(c.Paths.DiscRoot)
	if root == "" {
		if value, ok := os.LookupEnv(discRootEnv); ok {
			root = strings.TrimSpace(value)
		}
	}
	if c.Paths.DiscRoot, err = expandPath(root); err != nil {
		return fmt.Errorf("paths.disc_root: %w", err)
	}
	return nil
}

func (c *Config) normalizeDaemon() {
	c.Daemon.OpticalDrive = strings.TrimSpace(c.Daemon.OpticalDrive)
	c.Daemon.APIBind = strings.TrimSpace(c.Daemon.APIBind)
	c.Daemon.APIToken = strings.TrimSpace(c.Daemon.APIToken)
	if c.Daemon.APIToken == "" {
		c.Daemon.APIToken = strings.TrimSpace(os.Getenv(apiTokenEnv))
	}
	if c.Daemon.MountWaitSeconds == 0 {
		c.Daemon.MountWaitSeconds = defaultMountWaitSeconds
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
