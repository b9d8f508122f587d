// Package config provides configuration types and helpers for logsift.
package config

import "strings"

// Default clustering settings. They reproduce the plain `logsift <file>` behavior.
const (
	DefaultMaxSampleLength = 200
	DefaultSeparatorWidth  = 60
	DefaultWorkers         = 1
)

// DefaultNoiseKeywords are the substrings that mark a line as noise.
var DefaultNoiseKeywords = []string{"INFO", "DEBUG"}

// Config holds the application-wide configuration.
type Config struct {
	Format  string        `mapstructure:"format"`
	Verbose bool          `mapstructure:"verbose"`
	Color   string        `mapstructure:"color"`
	Cluster ClusterConfig `mapstructure:"cluster"`
	LLM     LLMConfig     `mapstructure:"llm"`
}

// ClusterConfig holds the settings of a single clustering run.
type ClusterConfig struct {
	// IncludeNoise disables the INFO/DEBUG substring filter.
	IncludeNoise bool `mapstructure:"include_noise"`

	// NoiseKeywords are matched case-sensitively anywhere in a line.
	NoiseKeywords []string `mapstructure:"noise_keywords"`

	// MaxSampleLength is the display limit for samples, in characters.
	MaxSampleLength int `mapstructure:"max_sample_length"`

	// SeparatorWidth is the number of '-' characters around the cluster list.
	SeparatorWidth int `mapstructure:"separator_width"`

	// Workers > 1 enables sharded processing.
	Workers int `mapstructure:"workers"`
}

// DefaultClusterConfig returns the settings used when nothing is configured.
func DefaultClusterConfig() ClusterConfig {
	return ClusterConfig{
		IncludeNoise:    false,
		NoiseKeywords:   append([]string(nil), DefaultNoiseKeywords...),
		MaxSampleLength: DefaultMaxSampleLength,
		SeparatorWidth:  DefaultSeparatorWidth,
		Workers:         DefaultWorkers,
	}
}

// Normalize fills zero values with defaults.
func (c ClusterConfig) Normalize() ClusterConfig {
	if c.NoiseKeywords == nil {
		c.NoiseKeywords = append([]string(nil), DefaultNoiseKeywords...)
	}
	if c.MaxSampleLength <= 0 {
		c.MaxSampleLength = DefaultMaxSampleLength
	}
	if c.SeparatorWidth <= 0 {
		c.SeparatorWidth = DefaultSeparatorWidth
	}
	if c.Workers <= 0 {
		c.Workers = DefaultWorkers
	}
	return c
}

// LLMConfig holds configuration for the explain command's model backend.
type LLMConfig struct {
	// Provider names a registered backend, e.g. "ollama".
	Provider string `mapstructure:"provider"`

	Temperature float32 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`

	Ollama OllamaConfig `mapstructure:"ollama"`
}

// OllamaConfig holds Ollama-specific settings.
type OllamaConfig struct {
	Host      string `mapstructure:"host"`       // API endpoint
	Model     string `mapstructure:"model"`      // Default model name
	KeepAlive string `mapstructure:"keep_alive"` // e.g., "5m"
	NumCtx    int    `mapstructure:"num_ctx"`    // Context window size
}

// LogLevel represents a standard log severity level.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
	LevelUnknown
)

// String returns the string representation of a LogLevel.
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelFatal:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a string to a LogLevel.
func ParseLevel(s string) LogLevel {
	switch strings.ToLower(s) {
	case "debug", "dbg":
		return LevelDebug
	case "info", "inf":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	case "error", "err":
		return LevelError
	case "fatal", "critical", "crit":
		return LevelFatal
	default:
		return LevelUnknown
	}
}
