package config

import (
	"errors"
	"fmt"
	"net"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateManifest(); err != nil {
		return err
	}
	if err := c.validateCatalog(); err != nil {
		return err
	}
	if err := c.validateDaemon(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateManifest() error {
	if c.Manifest.MaxStreams < 0 {
		return errors.New("manifest.max_streams must be zero (unlimited) or positive")
	}
	return nil
}

func (c *Config) validateCatalog() error {
	if c.Catalog.AvailabilityWorkers <= 0 {
		return errors.New("catalog.availability_workers must be positive")
	}
	return nil
}

func (c *Config) validateDaemon() error {
	if c.Daemon.MountWaitSeconds < 0 {
		return errors.New("daemon.mount_wait_seconds must not be negative")
	}
	if c.Daemon.APIBind == "" {
		return nil
	}
	if _, _, err := net.SplitHostPort(c.Daemon.APIBind); err != nil {
		return fmt.Errorf("daemon.api_bind %q: %w", c.Daemon.APIBind, err)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
