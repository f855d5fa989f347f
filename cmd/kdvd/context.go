package main

import (
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"kdvd/internal/config"
	"kdvd/internal/history"
	"kdvd/internal/logging"
)

type commandContext struct {
	configFlag  *string
	jsonFlag    *bool
	verboseFlag *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string, jsonFlag, verboseFlag *bool) *commandContext {
	return &commandContext{
		configFlag:  configFlag,
		jsonFlag:    jsonFlag,
		verboseFlag: verboseFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(c.configPath())
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) jsonOutput() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

// logger writes to stderr so stdout stays parseable. Without --verbose only
// warnings surface.
func (c *commandContext) logger() *slog.Logger {
	level := "warn"
	format := "console"
	if cfg, err := c.ensureConfig(); err == nil && cfg != nil {
		format = cfg.Logging.Format
		if c.verboseFlag != nil && *c.verboseFlag {
			level = cfg.Logging.Level
		}
	}
	if c.verboseFlag != nil && *c.verboseFlag && level == "warn" {
		level = "info"
	}
	logger, err := logging.New(logging.Options{Level: level, Format: format})
	if err != nil {
		return logging.NewNop()
	}
	return logger
}

// resolveRoot picks the disc root from args or paths.disc_root.
func (c *commandContext) resolveRoot(args []string) (string, error) {
	if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
		return config.ExpandPath(strings.TrimSpace(args[0]))
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return "", err
	}
	if cfg.Paths.DiscRoot == "" {
		return "", errors.New("no disc root given; pass a path or set paths.disc_root (KDVD_DISC_ROOT)")
	}
	return cfg.Paths.DiscRoot, nil
}

func (c *commandContext) withHistory(fn func(*history.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := history.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
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
