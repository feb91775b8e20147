// Package config loads the per-project runner configuration from
// blockwright.yaml, overlaid with .env and process environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/fentz26/blockwright/internal/dispatch"
	"github.com/fentz26/blockwright/internal/store"
)

// FileName is the config file inside a project directory.
const FileName = "blockwright.yaml"

// Engines that can execute runs.
const (
	EngineLocalExec  = "localexec"
	EngineRod        = "rod"
	EnginePlaywright = "playwright"
)

// Environment variables that override the file.
const (
	EnvEngine         = "BLOCKWRIGHT_ENGINE"
	EnvHeadless       = "BLOCKWRIGHT_HEADLESS"
	EnvBrowsers       = "BLOCKWRIGHT_BROWSERS"
	EnvDefaultBrowser = "BLOCKWRIGHT_DEFAULT_BROWSER"
)

// Config holds runner configuration.
type Config struct {
	// Engine selects how runs execute: localexec, rod or playwright.
	Engine string `yaml:"engine"`
	// Browsers are the selectable targets, matching Playwright project names.
	Browsers []string `yaml:"browsers"`
	// DefaultBrowser runs requests that chose no browser.
	DefaultBrowser string `yaml:"default_browser"`
	Headless       bool   `yaml:"headless"`
	// Strict fails regeneration on invalid actions instead of commenting them out.
	Strict bool `yaml:"strict"`
	// HistoryDB is the run history database, relative to the project.
	HistoryDB  string           `yaml:"history_db"`
	Dispatch   dispatch.Config  `yaml:"dispatch"`
	Rod        RodConfig        `yaml:"rod"`
	Playwright PlaywrightConfig `yaml:"playwright"`
}

// RodConfig tunes the in-process engine.
type RodConfig struct {
	Bin          string `yaml:"bin,omitempty"`
	NoSandbox    bool   `yaml:"no_sandbox"`
	SlowMotionMS int    `yaml:"slow_motion_ms"`
}

// SlowMotion returns the configured delay between actions.
func (r RodConfig) SlowMotion() time.Duration {
	return time.Duration(r.SlowMotionMS) * time.Millisecond
}

// PlaywrightConfig tunes the playwright-go engine.
type PlaywrightConfig struct {
	// Install fetches the driver and browsers on first use.
	Install      bool `yaml:"install"`
	SlowMotionMS int  `yaml:"slow_motion_ms"`
}

// SlowMotion returns the configured delay between actions.
func (p PlaywrightConfig) SlowMotion() time.Duration {
	return time.Duration(p.SlowMotionMS) * time.Millisecond
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() *Config {
	return &Config{
		Engine:         EngineLocalExec,
		Browsers:       []string{"chromium", "firefox", "webkit"},
		DefaultBrowser: "chromium",
		Headless:       true,
		HistoryDB:      store.DefaultPath,
		Dispatch:       *dispatch.DefaultConfig(),
		Rod:            RodConfig{NoSandbox: true},
	}
}

// Load reads the project's config file and applies the environment overlay.
func Load(projectDir string) (*Config, error) {
	cfg, err := LoadConfig(filepath.Join(projectDir, FileName))
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(projectDir); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadConfig loads configuration from a YAML file. A missing file yields the
// defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves configuration to a YAML file, creating parent directories if needed.
func SaveConfig(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// ApplyEnv overlays BLOCKWRIGHT_* values from the project's .env file and
// then from the process environment, which wins.
func (c *Config) ApplyEnv(projectDir string) error {
	vars, err := godotenv.Read(filepath.Join(projectDir, ".env"))
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("reading .env: %w", err)
		}
		vars = map[string]string{}
	}
	for _, k := range []string{EnvEngine, EnvHeadless, EnvBrowsers, EnvDefaultBrowser} {
		if v, ok := os.LookupEnv(k); ok {
			vars[k] = v
		}
	}

	if v, ok := vars[EnvEngine]; ok && v != "" {
		c.Engine = strings.TrimSpace(v)
	}
	if v, ok := vars[EnvHeadless]; ok && v != "" {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s: %w", EnvHeadless, err)
		}
		c.Headless = b
	}
	if v, ok := vars[EnvBrowsers]; ok && v != "" {
		c.Browsers = splitList(v)
	}
	if v, ok := vars[EnvDefaultBrowser]; ok && v != "" {
		c.DefaultBrowser = strings.TrimSpace(v)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	switch c.Engine {
	case EngineLocalExec, EngineRod, EnginePlaywright:
	default:
		return fmt.Errorf("invalid engine %q, must be: %s, %s or %s", c.Engine, EngineLocalExec, EngineRod, EnginePlaywright)
	}

	if len(c.Browsers) == 0 {
		return fmt.Errorf("browsers must list at least one target")
	}
	seen := make(map[string]bool, len(c.Browsers))
	for _, b := range c.Browsers {
		if strings.TrimSpace(b) == "" {
			return fmt.Errorf("browsers must not contain empty names")
		}
		if seen[b] {
			return fmt.Errorf("duplicate browser %q", b)
		}
		seen[b] = true
	}
	if !seen[c.DefaultBrowser] {
		return fmt.Errorf("default_browser %q is not in browsers", c.DefaultBrowser)
	}

	if c.Dispatch.MaxParallel < 0 {
		return fmt.Errorf("dispatch.max_parallel must not be negative")
	}
	for engine, limit := range c.Dispatch.ByEngine {
		if limit < 0 {
			return fmt.Errorf("dispatch.by_engine.%s must not be negative", engine)
		}
	}
	if c.Rod.SlowMotionMS < 0 {
		return fmt.Errorf("rod.slow_motion_ms must not be negative")
	}
	if c.Playwright.SlowMotionMS < 0 {
		return fmt.Errorf("playwright.slow_motion_ms must not be negative")
	}
	return nil
}

// HistoryPath resolves the history database against the project directory.
func (c *Config) HistoryPath(projectDir string) string {
	if c.HistoryDB == "" {
		return filepath.Join(projectDir, store.DefaultPath)
	}
	if filepath.IsAbs(c.HistoryDB) {
		return c.HistoryDB
	}
	return filepath.Join(projectDir, c.HistoryDB)
}

// HasBrowser reports whether name is a configured target.
func (c *Config) HasBrowser(name string) bool {
	for _, b := range c.Browsers {
		if b == name {
			return true
		}
	}
	return false
}
