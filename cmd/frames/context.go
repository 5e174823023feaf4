package main

import (
	"errors"
	"os"
	"strings"
	"sync"

	"frame-pipeline/internal/config"
	"frame-pipeline/internal/logging"

	"go.uber.org/zap"
)

const defaultConfigPath = "configs/config.yml"

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *zap.Logger
	loggerErr  error
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
	}
}

// ensureConfig loads the --config file, else configs/config.yml when it
// exists, else defaults and the environment.
func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		if path == "" {
			if _, err := os.Stat(defaultConfigPath); err == nil {
				path = defaultConfigPath
			} else if !errors.Is(err, os.ErrNotExist) {
				c.configErr = err
				return
			}
		}

		if path == "" {
			c.config = config.Default()
			return
		}
		c.config, c.configErr = config.LoadConfig(path)
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*zap.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		level := cfg.Logging.Level
		if c.logLevelFlag != nil && *c.logLevelFlag != "" {
			level = *c.logLevelFlag
		}
		c.logger, c.loggerErr = logging.New(logging.Config{
			Level:       level,
			Development: cfg.Logging.Development,
			File:        cfg.Logging.File,
		})
	})
	return c.logger, c.loggerErr
}

// setup returns the loaded configuration and logger for a subcommand.
func (c *commandContext) setup() (*config.Config, *zap.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}
