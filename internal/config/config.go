/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/gogpu/gg"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"giclee/internal/display"
	"giclee/internal/imagecache"
	applog "giclee/internal/log"
	"giclee/internal/telemetry"
)

// AppConfig is the user-editable configuration persisted to a YAML file in the user scope.
// Environment variables are read-only overrides applied at load time.
//
// config_version: bump when the structure changes in a backward-incompatible way.
type AppConfig struct {
	ConfigVersion int             `yaml:"config_version"`
	View          ViewConfig      `yaml:"view"`
	Window        WindowConfig    `yaml:"window"`
	Logging       LoggingConfig   `yaml:"logging"`
	Images        ImagesConfig    `yaml:"images"`
	Server        ServerConfig    `yaml:"server"`
	Telemetry     TelemetryConfig `yaml:"telemetry"`
}

type ViewConfig struct {
	CanPan    bool `yaml:"can_pan"`
	CanRotate bool `yaml:"can_rotate"`
	CanScale  bool `yaml:"can_scale"`
	Debug     bool `yaml:"debug"`
	// Background is a hex colour; "none" leaves the surface cleared.
	Background string  `yaml:"background"`
	WheelStep  float64 `yaml:"wheel_step"`
}

type WindowConfig struct {
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Title  string `yaml:"title"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

type ImagesConfig struct {
	CacheSize int `yaml:"cache_size"`
	TimeoutMs int `yaml:"timeout_ms"`
}

type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// TelemetryConfig is off unless the user opts in. Without URLs nothing is
// sent even when opted in.
type TelemetryConfig struct {
	OptIn     bool   `yaml:"opt_in"`
	EventsURL string `yaml:"events_url"`
	CrashURL  string `yaml:"crash_url"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		View:          ViewConfig{CanPan: true, CanRotate: true, CanScale: true, Background: "#ffffff", WheelStep: 1.1},
		Window:        WindowConfig{Width: 1024, Height: 768, Title: "giclee"},
		Logging:       LoggingConfig{Level: "info", Format: "console"},
		Images:        ImagesConfig{CacheSize: 256, TimeoutMs: 30000},
		Server:        ServerConfig{Addr: ":8080", AllowedOrigins: []string{"localhost:*", "127.0.0.1:*"}},
		Telemetry:     TelemetryConfig{TimeoutMs: 1500},
	}
}

// EnvPrefix prefixes every override variable.
const EnvPrefix = "GICLEE"

// EnvConfigPath points Load and Save at another file.
const EnvConfigPath = "GICLEE_CONFIG"

// envOverrides lists the variables Load honours, named by envconfig's
// split_words rule under EnvPrefix (CanRotate is GICLEE_CAN_ROTATE). Unset
// variables leave their pointer nil so the file value survives.
type envOverrides struct {
	CanPan             *bool    `split_words:"true" key:"view.can_pan"`
	CanRotate          *bool    `split_words:"true" key:"view.can_rotate"`
	CanScale           *bool    `split_words:"true" key:"view.can_scale"`
	Debug              *bool    `key:"view.debug"`
	Background         *string  `key:"view.background"`
	WheelStep          *float64 `split_words:"true" key:"view.wheel_step"`
	WindowWidth        *int     `split_words:"true" key:"window.width"`
	WindowHeight       *int     `split_words:"true" key:"window.height"`
	WindowTitle        *string  `split_words:"true" key:"window.title"`
	LogLevel           *string  `split_words:"true" key:"logging.level"`
	LogFormat          *string  `split_words:"true" key:"logging.format"`
	LogSource          *bool    `split_words:"true" key:"logging.source"`
	LogFile            *string  `split_words:"true" key:"logging.file"`
	ImageCacheSize     *int     `split_words:"true" key:"images.cache_size"`
	ImageTimeoutMs     *int     `split_words:"true" key:"images.timeout_ms"`
	ServerAddr         *string  `split_words:"true" key:"server.addr"`
	AllowedOrigins     []string `split_words:"true" key:"server.allowed_origins"`
	TelemetryOptIn     *bool    `split_words:"true" key:"telemetry.opt_in"`
	TelemetryEventsURL *string  `split_words:"true" key:"telemetry.events_url"`
	TelemetryCrashURL  *string  `split_words:"true" key:"telemetry.crash_url"`
}

var wordRe = regexp.MustCompile("([^A-Z]+|[A-Z]+[^A-Z]+|[A-Z]+)")

// envName spells a field's variable the way envconfig does.
func envName(f reflect.StructField) string {
	name := f.Name
	if f.Tag.Get("split_words") == "true" {
		name = strings.Join(wordRe.FindAllString(name, -1), "_")
	}
	return EnvPrefix + "_" + strings.ToUpper(name)
}

// ConfigPath returns the per-user config file path.
func ConfigPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(EnvConfigPath)); p != "" {
		return p, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("cannot resolve config directory: %w", err)
	}
	return filepath.Join(base, "giclee", "config.yaml"), nil
}

// Load reads the user config file (if present), applies defaults, and merges environment overrides.
func Load() (AppConfig, error) {
	path, err := ConfigPath()
	if err != nil {
		return Defaults(), err
	}
	return LoadFrom(path)
}

// LoadFrom is Load with an explicit file. A missing file is not an error; a
// malformed one is.
func LoadFrom(path string) (AppConfig, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return cfg, err
	default:
		// absent keys keep their defaults
		fileCfg := Defaults()
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
		mergeInto(&cfg, &fileCfg)
	}
	if err := applyEnvOverrides(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Save writes the user config YAML.
func Save(cfg AppConfig) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveTo(path, cfg)
}

func SaveTo(path string, cfg AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	// booleans: copy directly from src (file) so user preferences persist
	dst.View.CanPan = src.View.CanPan
	dst.View.CanRotate = src.View.CanRotate
	dst.View.CanScale = src.View.CanScale
	dst.View.Debug = src.View.Debug
	if v := strings.TrimSpace(src.View.Background); v != "" {
		dst.View.Background = strings.ToLower(v)
	}
	if src.View.WheelStep > 0 {
		dst.View.WheelStep = src.View.WheelStep
	}
	if src.Window.Width > 0 {
		dst.Window.Width = src.Window.Width
	}
	if src.Window.Height > 0 {
		dst.Window.Height = src.Window.Height
	}
	if v := strings.TrimSpace(src.Window.Title); v != "" {
		dst.Window.Title = v
	}
	// logging
	if v := strings.TrimSpace(src.Logging.Level); v != "" {
		dst.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(src.Logging.Format); v != "" {
		dst.Logging.Format = strings.ToLower(v)
	}
	dst.Logging.Source = src.Logging.Source
	if v := strings.TrimSpace(src.Logging.File); v != "" {
		dst.Logging.File = v
	}
	if src.Images.CacheSize > 0 {
		dst.Images.CacheSize = src.Images.CacheSize
	}
	if src.Images.TimeoutMs > 0 {
		dst.Images.TimeoutMs = src.Images.TimeoutMs
	}
	if v := strings.TrimSpace(src.Server.Addr); v != "" {
		dst.Server.Addr = v
	}
	if src.Server.AllowedOrigins != nil {
		dst.Server.AllowedOrigins = src.Server.AllowedOrigins
	}
	dst.Telemetry.OptIn = src.Telemetry.OptIn
	dst.Telemetry.EventsURL = strings.TrimSpace(src.Telemetry.EventsURL)
	dst.Telemetry.CrashURL = strings.TrimSpace(src.Telemetry.CrashURL)
	if src.Telemetry.TimeoutMs > 0 {
		dst.Telemetry.TimeoutMs = src.Telemetry.TimeoutMs
	}
}

func applyEnvOverrides(cfg *AppConfig) error {
	var env envOverrides
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return fmt.Errorf("environment overrides: %w", err)
	}
	setIf(&cfg.View.CanPan, env.CanPan)
	setIf(&cfg.View.CanRotate, env.CanRotate)
	setIf(&cfg.View.CanScale, env.CanScale)
	setIf(&cfg.View.Debug, env.Debug)
	setIf(&cfg.View.Background, env.Background)
	setIf(&cfg.View.WheelStep, env.WheelStep)
	setIf(&cfg.Window.Width, env.WindowWidth)
	setIf(&cfg.Window.Height, env.WindowHeight)
	setIf(&cfg.Window.Title, env.WindowTitle)
	setIf(&cfg.Logging.Level, env.LogLevel)
	setIf(&cfg.Logging.Format, env.LogFormat)
	setIf(&cfg.Logging.Source, env.LogSource)
	setIf(&cfg.Logging.File, env.LogFile)
	setIf(&cfg.Images.CacheSize, env.ImageCacheSize)
	setIf(&cfg.Images.TimeoutMs, env.ImageTimeoutMs)
	setIf(&cfg.Server.Addr, env.ServerAddr)
	if env.AllowedOrigins != nil {
		cfg.Server.AllowedOrigins = env.AllowedOrigins
	}
	setIf(&cfg.Telemetry.OptIn, env.TelemetryOptIn)
	setIf(&cfg.Telemetry.EventsURL, env.TelemetryEventsURL)
	setIf(&cfg.Telemetry.CrashURL, env.TelemetryCrashURL)
	cfg.Logging.Level = strings.ToLower(cfg.Logging.Level)
	cfg.Logging.Format = strings.ToLower(cfg.Logging.Format)
	return nil
}

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
// key is the dotted YAML path, e.g. "view.can_rotate".
func EnvOverrideFor(key string) (string, bool) {
	t := reflect.TypeOf(envOverrides{})
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Tag.Get("key") != key {
			continue
		}
		name := envName(f)
		if os.Getenv(name) != "" {
			return name, true
		}
		return "", false
	}
	return "", false
}

// Validate rejects values the viewer cannot run with.
func (c AppConfig) Validate() error {
	var errs []error
	if c.View.WheelStep <= 1 {
		errs = append(errs, fmt.Errorf("view.wheel_step must be greater than 1, got %g", c.View.WheelStep))
	}
	if _, err := c.View.background(); err != nil {
		errs = append(errs, err)
	}
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		errs = append(errs, fmt.Errorf("window size must be positive, got %dx%d", c.Window.Width, c.Window.Height))
	}
	if c.Images.CacheSize < 0 {
		errs = append(errs, errors.New("images.cache_size must not be negative"))
	}
	return errors.Join(errs...)
}

func (v ViewConfig) background() (color.Color, error) {
	s := strings.TrimSpace(v.Background)
	if s == "" || s == "none" {
		return nil, nil
	}
	hex := strings.TrimPrefix(s, "#")
	switch len(hex) {
	case 3, 4, 6, 8:
	default:
		return nil, fmt.Errorf("view.background %q is not a hex colour", v.Background)
	}
	for _, r := range hex {
		if !strings.ContainsRune("0123456789abcdefABCDEF", r) {
			return nil, fmt.Errorf("view.background %q is not a hex colour", v.Background)
		}
	}
	return gg.Hex(s).Color(), nil
}

// Options maps the view section onto display options. An unparsable
// background falls back to white.
func (v ViewConfig) Options() display.Options {
	opts := display.DefaultOptions()
	opts.CanPan = v.CanPan
	opts.CanRotate = v.CanRotate
	opts.CanScale = v.CanScale
	opts.Debug = v.Debug
	if v.WheelStep > 1 {
		opts.WheelStep = v.WheelStep
	}
	if bg, err := v.background(); err == nil {
		opts.Background = bg
	}
	return opts
}

func (l LoggingConfig) Options() applog.Options {
	return applog.Options{Level: l.Level, Format: l.Format, AddSource: l.Source, File: l.File}
}

func (i ImagesConfig) Options() imagecache.Options {
	opts := imagecache.Options{Capacity: i.CacheSize}
	if i.TimeoutMs > 0 {
		opts.Timeout = time.Duration(i.TimeoutMs) * time.Millisecond
	}
	return opts
}

func (t TelemetryConfig) Options() telemetry.Config {
	return telemetry.Config{
		OptIn:     t.OptIn,
		EventsURL: t.EventsURL,
		CrashURL:  t.CrashURL,
		Timeout:   time.Duration(t.TimeoutMs) * time.Millisecond,
	}
}
