package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the founder configuration.
type Config struct {
	Matcher MatcherConfig `yaml:"matcher"`
	Lister  ListerConfig  `yaml:"lister"`
	History HistoryConfig `yaml:"history"`
}

// MatcherConfig holds external fuzzy matcher settings.
type MatcherConfig struct {
	Command   string `yaml:"command"`    // Matcher command line (default "fzf-tmux")
	Fallback  string `yaml:"fallback"`   // Used when the command is not on PATH (default "fzf")
	ToggleKey string `yaml:"toggle_key"` // Key that switches listing mode (default "ctrl-t")
}

// ListerConfig holds external file lister settings.
type ListerConfig struct {
	Command    string `yaml:"command"`     // Lister command line (default "fd --type=f")
	HiddenFlag string `yaml:"hidden_flag"` // Appended in local mode (default "--hidden")
}

// HistoryConfig holds selection-history settings.
type HistoryConfig struct {
	File     string `yaml:"file"`      // History file path (empty = XDG default)
	MaxLines int    `yaml:"max_lines"` // Compaction threshold
	Order    string `yaml:"order"`     // "recent" or "frequent"
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		Matcher: MatcherConfig{
			Command:   "fzf-tmux",
			Fallback:  "fzf",
			ToggleKey: "ctrl-t",
		},
		Lister: ListerConfig{
			Command:    "fd --type=f",
			HiddenFlag: "--hidden",
		},
		History: HistoryConfig{
			MaxLines: 1000,
			Order:    "recent",
		},
	}
}

// Load loads configuration from the default path.
func Load() (*Config, error) {
	path := os.Getenv("FOUNDER_CONFIG")
	if path == "" {
		path = DefaultPaths().ConfigFile()
	}
	return LoadFromFile(path)
}

// LoadFromFile loads configuration from the specified file.
// If the file doesn't exist, returns default configuration.
// Environment variable overrides are applied after file loading.
func LoadFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.ApplyEnvOverrides()
			return cfg, cfg.Validate()
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ApplyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// ApplyEnvOverrides applies FOUNDER_* environment variables on top of
// whatever the file provided.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("FOUNDER_MATCHER"); v != "" {
		c.Matcher.Command = v
	}
	if v := os.Getenv("FOUNDER_LISTER"); v != "" {
		c.Lister.Command = v
	}
	if v := os.Getenv("FOUNDER_HISTORY_FILE"); v != "" {
		c.History.File = v
	}
}

// Validate checks the configuration for inconsistencies.
func (c *Config) Validate() error {
	if c.Matcher.Command == "" {
		return fmt.Errorf("matcher.command must not be empty")
	}
	if c.Lister.Command == "" {
		return fmt.Errorf("lister.command must not be empty")
	}
	if c.Matcher.ToggleKey == "" {
		return fmt.Errorf("matcher.toggle_key must not be empty")
	}
	if c.History.MaxLines < 2 {
		return fmt.Errorf("history.max_lines must be at least 2 (got %d)", c.History.MaxLines)
	}
	switch c.History.Order {
	case "recent", "frequent":
	default:
		return fmt.Errorf("history.order must be \"recent\" or \"frequent\" (got %q)", c.History.Order)
	}
	return nil
}

// HistoryFile resolves the configured history location, falling back
// to the XDG default.
func (c *Config) HistoryFile() string {
	if c.History.File != "" {
		return c.History.File
	}
	return DefaultPaths().HistoryFile()
}
