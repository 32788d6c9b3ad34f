// Copyright 2026 The ink Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog"
)

type config struct {
	Store     string
	Contract  string
	LogLevel  zerolog.Level
	LogFormat string
}

func defaultConfig() config {
	return config{
		Store:     "ink.snap",
		Contract:  "flipper",
		LogLevel:  zerolog.InfoLevel,
		LogFormat: "console",
	}
}

type fileConfig struct {
	Store     string `toml:"store"`
	Contract  string `toml:"contract"`
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`
}

// loadConfig overlays the keys set in the file at path onto the defaults.
// An empty path yields the defaults.
func loadConfig(path string) (config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return config{}, fmt.Errorf("load inkctl config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return config{}, fmt.Errorf("load inkctl config: unknown key %q", undecoded[0].String())
	}

	if meta.IsDefined("store") {
		if v := strings.TrimSpace(raw.Store); v != "" {
			cfg.Store = v
		}
	}
	if meta.IsDefined("contract") {
		if v := strings.TrimSpace(raw.Contract); v != "" {
			cfg.Contract = v
		}
	}
	if meta.IsDefined("log_level") {
		level, err := zerolog.ParseLevel(strings.TrimSpace(raw.LogLevel))
		if err != nil {
			return config{}, fmt.Errorf("parse log_level: %w", err)
		}
		cfg.LogLevel = level
	}
	if meta.IsDefined("log_format") {
		cfg.LogFormat = strings.TrimSpace(raw.LogFormat)
	}
	if err := cfg.validate(); err != nil {
		return config{}, err
	}
	return cfg, nil
}

func (c config) validate() error {
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("log_format must be console or json, got %q", c.LogFormat)
	}
	if _, ok := contracts[c.Contract]; !ok {
		return fmt.Errorf("unknown contract %q", c.Contract)
	}
	return nil
}

func newLogger(cfg config, w io.Writer) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	if cfg.LogFormat == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).Level(cfg.LogLevel).With().Timestamp().Str("app", "inkctl").Logger()
}
