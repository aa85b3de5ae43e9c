package bootstrap

import (
	"fmt"
	"os"

	"github.com/galaplate/foundry/config"
	"github.com/galaplate/foundry/database"
	"github.com/galaplate/foundry/database/factory"
	"github.com/galaplate/foundry/env"
	"github.com/galaplate/foundry/logger"
)

// Config holds what Init needs to run factories outside a test suite, for
// example from a seeder.
type Config struct {
	EnvFiles       []string
	ConfigPath     string
	Database       []database.OptFunc
	FactoryOptions []factory.Option
	// Models are auto-migrated once connected.
	Models []any
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		EnvFiles:   []string{".env"},
		ConfigPath: "./config",
	}
}

func Init() (*factory.Configuration, error) {
	return InitWithConfig(nil)
}

// InitWithConfig loads env files and configuration, connects database.Connect
// and boots foundry on it. Missing env files and config directories are
// skipped.
func InitWithConfig(cfg *Config) (*factory.Configuration, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	for _, file := range cfg.EnvFiles {
		if _, err := os.Stat(file); err != nil {
			continue
		}
		if err := env.Load(file); err != nil {
			return nil, fmt.Errorf("load env file %s: %w", file, err)
		}
	}

	if cfg.ConfigPath != "" {
		if _, err := os.Stat(cfg.ConfigPath); err == nil {
			if err := config.LoadGlobal(cfg.ConfigPath); err != nil {
				return nil, err
			}
		}
	}

	if level := config.ConfigString("logging.level"); level != "" {
		parsed, err := logger.ParseLogLevel(level)
		if err != nil {
			logger.Warn("invalid logging.level, keeping info", map[string]any{"level": level})
		}
		logger.SetLevel(parsed)
	}

	if err := database.New(cfg.Database...); err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if len(cfg.Models) > 0 {
		if err := database.Connect.AutoMigrate(cfg.Models...); err != nil {
			return nil, fmt.Errorf("migrate models: %w", err)
		}
	}

	foundry := factory.FromConfig(database.Connect, cfg.FactoryOptions...)
	factory.Boot(foundry)

	return foundry, nil
}
