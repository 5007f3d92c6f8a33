package toolstate

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults shared by every tool unless overridden.
const (
	// DefaultOversizeLimit is the per-field serialized byte budget for the
	// address-bar mirror. Fields above it stay live in memory but are not
	// mirrored.
	DefaultOversizeLimit = 2048

	// DefaultDebounce is the idle window after the last text edit before a
	// history commit fires.
	DefaultDebounce = time.Second

	// DefaultRecentCap bounds the recent-tools list.
	DefaultRecentCap = 10

	// DefaultPreviewLen bounds the derived history-entry preview, in runes.
	DefaultPreviewLen = 80
)

// Config configures the engine.
type Config struct {
	// DBPath is the SQLite database path. ":memory:" for ephemeral use.
	DBPath string `yaml:"db_path"`

	// Debounce is the shared history-commit window for text inputs.
	Debounce time.Duration `yaml:"debounce"`

	// OversizeLimit is the per-field mirror byte budget.
	OversizeLimit int `yaml:"oversize_limit"`

	// RecentCap bounds the recent-tools list.
	RecentCap int `yaml:"recent_cap"`

	// PreviewLen bounds entry previews, in runes.
	PreviewLen int `yaml:"preview_len"`

	// Tools holds per-tool overrides keyed by tool identifier.
	Tools map[string]ToolConfig `yaml:"tools"`
}

// ToolConfig overrides engine defaults for one tool.
type ToolConfig struct {
	Debounce time.Duration `yaml:"debounce"`
}

// LoadConfigFile reads a YAML configuration file and applies defaults.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("toolstate: parse config %s: %w", path, err)
	}

	cfg.defaults()
	return &cfg, nil
}

func (c *Config) defaults() {
	if c.Debounce <= 0 {
		c.Debounce = DefaultDebounce
	}
	if c.OversizeLimit <= 0 {
		c.OversizeLimit = DefaultOversizeLimit
	}
	if c.RecentCap <= 0 {
		c.RecentCap = DefaultRecentCap
	}
	if c.PreviewLen <= 0 {
		c.PreviewLen = DefaultPreviewLen
	}
}

// debounceFor returns the effective commit window for a tool.
func (c *Config) debounceFor(toolID string) time.Duration {
	if tc, ok := c.Tools[toolID]; ok && tc.Debounce > 0 {
		return tc.Debounce
	}
	return c.Debounce
}
