// Package config provides configuration types, defaults and validation for citehint.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/zjrosen/citehint/internal/citation"
	"github.com/zjrosen/citehint/internal/log"
)

// Config holds all configuration options for citehint.
type Config struct {
	// Strategy selects focus detection: "pattern" (default) or "token".
	Strategy string `mapstructure:"strategy"`

	// Opacity of dimmed text, 0.0 (invisible) to 1.0 (undimmed).
	Opacity float64 `mapstructure:"opacity"`

	// Punctuation glyphs trimmed from the focus of a normal word (token strategy).
	Punctuation []string `mapstructure:"punctuation"`

	// Workers bounds concurrent line analysis. 0 uses GOMAXPROCS.
	Workers int `mapstructure:"workers"`

	// MatchTimeout bounds a single pattern match. 0 disables the bound.
	MatchTimeout time.Duration `mapstructure:"match_timeout"`

	// LogLevel is the minimum level written to the debug log:
	// "debug" (default), "info", "warn" or "error".
	LogLevel string `mapstructure:"log_level"`

	Watch   WatchConfig   `mapstructure:"watch"`
	Theme   ThemeConfig   `mapstructure:"theme"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Tracing TracingConfig `mapstructure:"tracing"`
}

// WatchConfig controls re-analysis when the document changes on disk.
type WatchConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Debounce time.Duration `mapstructure:"debounce"`
}

// ThemeConfig holds the colours the dim colour is blended from.
type ThemeConfig struct {
	Foreground string `mapstructure:"foreground"` // hex e.g. "#CCCCCC"
	Background string `mapstructure:"background"` // hex e.g. "#1E1E1E"
}

// CacheConfig controls the analysed-line cache.
type CacheConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// TracingConfig holds distributed tracing configuration.
type TracingConfig struct {
	// Enabled controls whether distributed tracing is active.
	// Default: false
	Enabled bool `mapstructure:"enabled"`

	// Exporter selects the trace export backend.
	// Options: "none", "file", "stdout", "otlp"
	// Default: "file"
	Exporter string `mapstructure:"exporter"`

	// FilePath is the output file for "file" exporter.
	// Default: ~/.config/citehint/traces/traces.jsonl
	FilePath string `mapstructure:"file_path"`

	// OTLPEndpoint is the collector endpoint for "otlp" exporter.
	// Default: "localhost:4317"
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`

	// SampleRate controls trace sampling (0.0 to 1.0).
	// Default: 1.0
	SampleRate float64 `mapstructure:"sample_rate"`
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	return Config{
		Strategy:    string(citation.StrategyPattern),
		Opacity:     0.4,
		Punctuation: append([]string(nil), citation.DefaultPunctuation...),
		Workers:     0,
		LogLevel:    "debug",
		Watch: WatchConfig{
			Enabled:  true,
			Debounce: 200 * time.Millisecond,
		},
		Theme: ThemeConfig{
			Foreground: "#CCCCCC",
			Background: "#1E1E1E",
		},
		Cache: CacheConfig{
			Enabled:         true,
			TTL:             10 * time.Minute,
			CleanupInterval: 30 * time.Minute,
		},
		Tracing: TracingConfig{
			Enabled:      false,
			Exporter:     "file",
			FilePath:     DefaultTracesFilePath(),
			OTLPEndpoint: "localhost:4317",
			SampleRate:   1.0,
		},
	}
}

// DefaultTracesFilePath returns ~/.config/citehint/traces/traces.jsonl,
// or an empty string if the home directory is unavailable.
func DefaultTracesFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "citehint", "traces", "traces.jsonl")
}

// ParsedStrategy returns the configured strategy.
func (c Config) ParsedStrategy() (citation.Strategy, error) {
	return citation.ParseStrategy(c.Strategy)
}

// Validate checks the whole configuration. Empty values fall back to defaults
// and are valid.
func Validate(c Config) error {
	if _, err := c.ParsedStrategy(); err != nil {
		return fmt.Errorf("strategy: %w", err)
	}
	if c.Opacity < 0.0 || c.Opacity > 1.0 {
		return fmt.Errorf("opacity must be between 0.0 and 1.0, got %v", c.Opacity)
	}
	if err := ValidatePunctuation(c.Punctuation); err != nil {
		return err
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be >= 0, got %d", c.Workers)
	}
	if c.MatchTimeout < 0 {
		return fmt.Errorf("match_timeout must be >= 0, got %v", c.MatchTimeout)
	}
	if !log.ValidLevel(c.LogLevel) {
		return fmt.Errorf("log_level must be \"debug\", \"info\", \"warn\" or \"error\", got %q", c.LogLevel)
	}
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must be >= 0, got %v", c.Watch.Debounce)
	}
	if err := ValidateTheme(c.Theme); err != nil {
		return err
	}
	if c.Cache.TTL < 0 || c.Cache.CleanupInterval < 0 {
		return fmt.Errorf("cache durations must be >= 0")
	}
	return ValidateTracing(c.Tracing)
}

// ValidatePunctuation requires every glyph to be a single non-space rune.
func ValidatePunctuation(glyphs []string) error {
	for i, g := range glyphs {
		r, size := utf8.DecodeRuneInString(g)
		if size == 0 || size != len(g) || unicode.IsSpace(r) {
			return fmt.Errorf("punctuation %d: %q must be a single non-space character", i, g)
		}
	}
	return nil
}

// ValidateTheme checks that configured colours are hex colours.
func ValidateTheme(theme ThemeConfig) error {
	for name, value := range map[string]string{
		"theme.foreground": theme.Foreground,
		"theme.background": theme.Background,
	} {
		if value == "" {
			continue
		}
		if _, err := colorful.Hex(value); err != nil {
			return fmt.Errorf("%s: invalid hex color %q", name, value)
		}
	}
	return nil
}

// ValidateTracing checks tracing configuration for errors.
// Returns nil if the configuration is valid (empty values use defaults).
func ValidateTracing(tracing TracingConfig) error {
	if tracing.SampleRate < 0.0 || tracing.SampleRate > 1.0 {
		return fmt.Errorf("tracing.sample_rate must be between 0.0 and 1.0, got %v", tracing.SampleRate)
	}

	if tracing.Exporter != "" {
		switch tracing.Exporter {
		case "none", "file", "stdout", "otlp":
		default:
			return fmt.Errorf("tracing.exporter must be \"none\", \"file\", \"stdout\", or \"otlp\", got %q", tracing.Exporter)
		}
	}

	// Only validate path requirements when tracing is enabled
	if tracing.Enabled {
		if tracing.Exporter == "file" && tracing.FilePath == "" {
			return fmt.Errorf("tracing.file_path is required when exporter is \"file\"")
		}
		if tracing.Exporter == "otlp" && tracing.OTLPEndpoint == "" {
			return fmt.Errorf("tracing.otlp_endpoint is required when exporter is \"otlp\"")
		}
	}

	return nil
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return `# citehint configuration

# Focus detection: "pattern" (default) or "token"
strategy: pattern

# Opacity of dimmed text, 0.0 (hidden) to 1.0 (undimmed)
opacity: 0.4

# Glyphs trimmed from the end of a word by the token strategy
punctuation: [",", ".", "&", ":", ";"]

# Concurrent line analysis (0 = number of CPUs)
workers: 0

# Minimum level written to the debug log (--debug): debug, info, warn, error
log_level: debug

# Re-analyze when the file changes on disk
watch:
  enabled: true
  debounce: 200ms

# Dimmed text is blended from foreground toward background
theme:
  foreground: "#CCCCCC"
  background: "#1E1E1E"

# Memoize analysed lines
cache:
  enabled: true
  ttl: 10m
  cleanup_interval: 30m

# Distributed tracing
tracing:
  enabled: false
  exporter: file          # none, file, stdout, otlp
  # file_path: ~/.config/citehint/traces/traces.jsonl
  otlp_endpoint: localhost:4317
  sample_rate: 1.0
`
}

// WriteDefaultConfig creates a config file with default settings.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
