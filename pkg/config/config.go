// Package config loads the server's YAML configuration, following the
// teacher's pkg/config layout but trimmed to bind address, port, log
// level and metrics address: no data directory or security section, since
// persistence and authentication are both explicit non-goals here. The
// serve command reads Bind, LogLevel and MetricsAddr; Port is parsed but
// not read, since the listening port comes from serve's argument.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the server's runtime configuration.
type Config struct {
	Bind        string `yaml:"bind"`
	Port        int    `yaml:"port"`
	LogLevel    string `yaml:"log_level"`
	MetricsAddr string `yaml:"metrics_addr"`
}

// DefaultConfig returns the configuration used when no file is loaded.
func DefaultConfig() *Config {
	return &Config{
		Bind:     "0.0.0.0",
		Port:     9000,
		LogLevel: "info",
	}
}

// LoadConfig reads and parses a YAML config file, starting from
// DefaultConfig so an incomplete file still yields sane values for the
// fields it omits.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return config, nil
}
