package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// Config represents the vtkgrid configuration file (~/.config/vtkgrid/config.yaml).
// Pointer fields distinguish "not set" from false.
type Config struct {
	// Output
	Encoding   string `yaml:"encoding"`
	Appended   *bool  `yaml:"appended"`
	ByteOrder  string `yaml:"byte_order"`
	HeaderType string `yaml:"header_type"`

	// Logging
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
	NoColor   *bool  `yaml:"no_color"`

	// Server
	DataDir       string `yaml:"data_dir"`
	ServerAddress string `yaml:"server_address"`
}

func configPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "vtkgrid", "config.yaml")
}

// LoadConfig reads the config file at path. A missing file yields a zero
// Config; a file that exists but does not parse is an error.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		return Config{}, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Config{}, nil
	}
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// applyLoggingConfig applies config file defaults to the logging flags
// when the corresponding CLI flag was not explicitly set.
func applyLoggingConfig(c *cli.Command, cfg Config) {
	if cfg.LogLevel != "" && !c.IsSet("log-level") {
		logLevel = cfg.LogLevel
	}
	if cfg.LogFormat != "" && !c.IsSet("log-format") {
		logFormat = cfg.LogFormat
	}
	if cfg.NoColor != nil && !c.IsSet("no-color") {
		noColor = *cfg.NoColor
	}
}

// applyWireConfig applies config file defaults to the output encoding flags.
func applyWireConfig(c *cli.Command, cfg Config, w *wireFlags) {
	if cfg.Encoding != "" && !c.IsSet("encoding") {
		w.encoding = cfg.Encoding
	}
	if cfg.Appended != nil && !c.IsSet("appended") {
		w.appended = *cfg.Appended
	}
	if cfg.ByteOrder != "" && !c.IsSet("byte-order") {
		w.byteOrder = cfg.ByteOrder
	}
	if cfg.HeaderType != "" && !c.IsSet("header-type") {
		w.headerType = cfg.HeaderType
	}
}

// applyServeConfig applies config file defaults to serve command variables.
func applyServeConfig(c *cli.Command, cfg Config, dir, addr *string) {
	if cfg.DataDir != "" && !c.IsSet("dir") {
		*dir = cfg.DataDir
	}
	if cfg.ServerAddress != "" && !c.IsSet("addr") {
		*addr = cfg.ServerAddress
	}
}
