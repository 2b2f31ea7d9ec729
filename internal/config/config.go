/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package config loads the svgif configuration: defaults, the per-user YAML file, an optional explicit file and
// environment overrides, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"
)

// AppConfig is the user-editable configuration persisted as YAML.
// Environment variables are treated as read-only overrides at runtime.
//
// config_version: bump when the structure changes in a backward-incompatible way.
// Unknown fields are ignored on unmarshal.
type AppConfig struct {
	ConfigVersion int           `yaml:"config_version"`
	Build         BuildConfig   `yaml:"build"`
	Fonts         []FontConfig  `yaml:"fonts"`
	Cache         CacheConfig   `yaml:"cache"`
	Preview       PreviewConfig `yaml:"preview"`
	Logging       LoggingConfig `yaml:"logging"`
}

type BuildConfig struct {
	Loop              bool    `yaml:"loop"`
	Compress          bool    `yaml:"compress"`
	MinCompressLength int     `yaml:"min_compress_length"`
	Scrubber          bool    `yaml:"scrubber"`
	ScrubberSeek      bool    `yaml:"scrubber_seek"`
	TrackTiming       string  `yaml:"track_timing"`
	PointerTiming     string  `yaml:"pointer_timing"`
	CaptionFontSize   float64 `yaml:"caption_font_size"`
	CaptionFontFamily string  `yaml:"caption_font_family"`
}

// FontConfig is an OpenType file used for measurement and embedded into documents that use its family.
type FontConfig struct {
	Family string `yaml:"family"`
	Path   string `yaml:"path"`
	Weight int    `yaml:"weight"`
	Italic bool   `yaml:"italic"`
}

type CacheConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`
}

type PreviewConfig struct {
	Port       int `yaml:"port"`
	DebounceMs int `yaml:"debounce_ms"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		Build: BuildConfig{
			Loop:              true,
			Compress:          true,
			MinCompressLength: 100,
			Scrubber:          true,
			ScrubberSeek:      false,
			TrackTiming:       "ease-in-out",
			PointerTiming:     "ease-out",
			CaptionFontSize:   18,
		},
		Cache:   CacheConfig{Enabled: true, Dir: ".svgif"},
		Preview: PreviewConfig{Port: 8089, DebounceMs: 200},
		Logging: LoggingConfig{Level: "info", Format: "console"},
	}
}

// Env var names used as overrides.
const (
	EnvLoop        = "SVGIF_LOOP"
	EnvCompress    = "SVGIF_COMPRESS"
	EnvCacheDir    = "SVGIF_CACHE_DIR"
	EnvPreviewPort = "SVGIF_PREVIEW_PORT"
	// EnvLogLevel Logging envs
	EnvLogLevel  = "SVGIF_LOG_LEVEL"
	EnvLogFormat = "SVGIF_LOG_FORMAT"
	EnvLogSource = "SVGIF_LOG_SOURCE"
	EnvLogFile   = "SVGIF_LOG_FILE"
)

// ConfigPath returns the per-user config file path.
func ConfigPath() (string, error) {
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" { // fallback
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "svgif")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "svgif")
	default: // linux and others
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			base = filepath.Join(xdg, "svgif")
		} else {
			base = filepath.Join(os.Getenv("HOME"), ".config", "svgif")
		}
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, "config.yaml"), nil
}

// Load applies defaults, the user config file (if present), the explicit file (if non-empty, must exist) and
// environment overrides, then validates the result.
func Load(explicit string) (AppConfig, error) {
	cfg := Defaults()
	if path, err := ConfigPath(); err == nil {
		if err := mergeFile(&cfg, path, false); err != nil {
			return cfg, err
		}
	}
	if explicit != "" {
		if err := mergeFile(&cfg, explicit, true); err != nil {
			return cfg, err
		}
	}
	applyEnvOverrides(&cfg)
	normalize(&cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// mergeFile decodes path over cfg, so keys the file leaves out keep their current value. Relative font paths are
// resolved against the file's directory.
func mergeFile(cfg *AppConfig, path string, required bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if !required && errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config %s: %w", path, err)
	}
	fonts := cfg.Fonts
	cfg.Fonts = nil
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	for i := range cfg.Fonts {
		if p := cfg.Fonts[i].Path; p != "" && !filepath.IsAbs(p) {
			cfg.Fonts[i].Path = filepath.Join(filepath.Dir(path), p)
		}
	}
	// Font lists accumulate across files.
	cfg.Fonts = append(append([]FontConfig(nil), fonts...), cfg.Fonts...)
	return nil
}

func normalize(cfg *AppConfig) {
	cfg.Logging.Level = strings.ToLower(strings.TrimSpace(cfg.Logging.Level))
	cfg.Logging.Format = strings.ToLower(strings.TrimSpace(cfg.Logging.Format))
	cfg.Logging.File = strings.TrimSpace(cfg.Logging.File)
	cfg.Build.TrackTiming = strings.TrimSpace(cfg.Build.TrackTiming)
	cfg.Build.PointerTiming = strings.TrimSpace(cfg.Build.PointerTiming)
	for i := range cfg.Fonts {
		if cfg.Fonts[i].Weight == 0 {
			cfg.Fonts[i].Weight = 400
		}
	}
}

func applyEnvOverrides(cfg *AppConfig) {
	if v, ok := envBool(EnvLoop); ok {
		cfg.Build.Loop = v
	}
	if v, ok := envBool(EnvCompress); ok {
		cfg.Build.Compress = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvCacheDir)); v != "" {
		cfg.Cache.Dir = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvPreviewPort)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Preview.Port = n
		}
	}
	// logging overrides
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = v
	}
	if v, ok := envBool(EnvLogSource); ok {
		cfg.Logging.Source = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

func envBool(key string) (bool, bool) {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if v == "" {
		return false, false
	}
	return v == "1" || v == "true" || v == "on" || v == "yes", true
}

// timingRe accepts CSS easing keywords and function forms.
var timingRe = regexp.MustCompile(`^(linear|ease|ease-in|ease-out|ease-in-out|step-start|step-end|(cubic-bezier|steps|linear)\([0-9.,\s\-a-z%]*\))$`)

// Validate validates the configuration.
func (c *AppConfig) Validate() error {
	if err := c.Build.Validate(); err != nil {
		return fmt.Errorf("build: %w", err)
	}
	for i := range c.Fonts {
		if err := c.Fonts[i].Validate(); err != nil {
			return fmt.Errorf("fonts[%d]: %w", i, err)
		}
	}
	if err := c.Cache.Validate(); err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	if err := c.Preview.Validate(); err != nil {
		return fmt.Errorf("preview: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	return nil
}

func (c *BuildConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.MinCompressLength, validation.Min(0)),
		validation.Field(&c.TrackTiming, validation.Required, validation.Match(timingRe)),
		validation.Field(&c.PointerTiming, validation.Required, validation.Match(timingRe)),
		validation.Field(&c.CaptionFontSize, validation.Required, validation.Min(1.0)),
	)
}

func (c *FontConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Family, validation.Required),
		validation.Field(&c.Path, validation.Required),
		validation.Field(&c.Weight, validation.Min(100), validation.Max(900)),
	)
}

func (c *CacheConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Dir, validation.When(c.Enabled, validation.Required)),
	)
}

func (c *PreviewConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.DebounceMs, validation.Min(0)),
	)
}

func (c *LoggingConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Level, validation.In("debug", "info", "warn", "warning", "error")),
		validation.Field(&c.Format, validation.In("console", "json")),
	)
}
