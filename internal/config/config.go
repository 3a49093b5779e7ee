// Package config handles configuration loading and validation for visage.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for visage.
type Config struct {
	Manifest string     `mapstructure:"manifest"`
	Eval     EvalConfig `mapstructure:"eval"`
	Log      LogConfig  `mapstructure:"log"`
}

// EvalConfig holds planner evaluation settings.
type EvalConfig struct {
	// Workers bounds concurrent evaluation of independent derived tables.
	// 0 or 1 evaluates strictly sequentially.
	Workers int `mapstructure:"workers"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

func defaultConfig() *Config {
	return &Config{
		Manifest: "visage.yaml",
		Eval: EvalConfig{
			Workers: 0,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}

// Load reads configuration from an optional file and the environment.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	cfg := defaultConfig()
	v.SetDefault("manifest", cfg.Manifest)
	v.SetDefault("eval.workers", cfg.Eval.Workers)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
	v.SetDefault("log.output", cfg.Log.Output)

	v.SetEnvPrefix("VISAGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("visage.config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.visage")

		// Missing config file is fine, defaults apply.
		_ = v.ReadInConfig()
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that configuration values are sensible.
func (c *Config) Validate() error {
	if c.Eval.Workers < 0 {
		return fmt.Errorf("eval.workers must not be negative, got %d", c.Eval.Workers)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		return fmt.Errorf("invalid log level: %s", c.Log.Level)
	}

	format := strings.ToLower(c.Log.Format)
	if format != "text" && format != "json" {
		return fmt.Errorf("invalid log format: %s", c.Log.Format)
	}
	return nil
}
