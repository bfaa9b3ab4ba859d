// Copyright (c) 2025-2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config defines the global configuration structure
type Config struct {
	Relay RelayConfig `mapstructure:"relay"`
	Log   LogConfig   `mapstructure:"log"`
}

// LogConfig defines logging configuration
type LogConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	File       string `mapstructure:"file"`        // Log file path, empty or "-" for stderr
	MaxSize    int    `mapstructure:"max_size"`    // MB before rotation
	MaxBackups int    `mapstructure:"max_backups"` // rotated files kept
	MaxAge     int    `mapstructure:"max_age"`     // days
}

// RelayConfig defines the relay board connection
type RelayConfig struct {
	Device         string `mapstructure:"device"`          // e.g. "/dev/ttyUSB0"
	Driver         string `mapstructure:"driver"`          // "gridx", "bugst", "tarm"
	KeepOpen       bool   `mapstructure:"keep_open"`       // keep the port open between requests
	VerifyChecksum bool   `mapstructure:"verify_checksum"` // reject replies with a bad checksum
}

// Flag names shared by the command line and viper keys.
var flagKeys = map[string]string{
	"device":          "relay.device",
	"driver":          "relay.driver",
	"keep_open":       "relay.keep_open",
	"verify_checksum": "relay.verify_checksum",
	"log_level":       "log.level",
	"log_file":        "log.file",
}

// RegisterFlags defines the command line flags understood by LoadConfig.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.StringP("config", "c", "", "Configuration file path.")
	fs.StringP("device", "f", "/dev/ttyUSB0", "Serial port device name.")
	fs.StringP("driver", "d", "gridx", "Serial driver (gridx, bugst, tarm).")
	fs.BoolP("keep_open", "k", false, "Keep the serial port open between requests.")
	fs.Bool("verify_checksum", false, "Reject replies whose checksum does not match.")
	fs.StringP("log_level", "v", "warn", "Log verbosity level (debug, info, warn, error).")
	fs.StringP("log_file", "L", "", "Log file name ('-' for logging to STDERR only).")
}

// LoadConfig loads configuration from file and the flags registered on fs.
// Flags that were set explicitly take precedence over the file. fs may be nil.
func LoadConfig(configFile string, fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("relay.device", "/dev/ttyUSB0")
	v.SetDefault("relay.driver", "gridx")
	v.SetDefault("relay.keep_open", false)
	v.SetDefault("relay.verify_checksum", false)
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age", 28)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/usbrelay/")
		v.AddConfigPath("$HOME/.usbrelay")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		// Without an explicit file the defaults and flags are enough.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || configFile != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if fs != nil {
		for name, key := range flagKeys {
			if f := fs.Lookup(name); f != nil && f.Changed {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	fixupRelay(&config.Relay)
	config.Log.Level = strings.ToLower(config.Log.Level)

	return &config, nil
}

func fixupRelay(r *RelayConfig) {
	r.Device = strings.TrimSpace(r.Device)
	r.Driver = strings.ToLower(strings.TrimSpace(r.Driver))
}
