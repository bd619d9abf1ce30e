package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all taxreview configuration.
type Config struct {
	// Interactive review settings
	UI UIConfig `yaml:"ui"`

	// PDF export settings
	Export ExportConfig `yaml:"export"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// Valid option sets.
var (
	ValidThemes  = []string{"auto", "light", "dark"}
	ValidEngines = []string{"native", "chrome"}
	ValidLevels  = []string{"debug", "info", "warn", "error"}
	ValidFormats = []string{"console", "json"}
)

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		UI: UIConfig{
			Theme:        "auto",
			PreviewItems: 3,
			ShowNative:   true,
		},
		Export: ExportConfig{
			Dir:    ".",
			Engine: "native",
			Chrome: ChromeConfig{
				Headless: true,
				Timeout:  "60s",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// DefaultPath returns <user config dir>/taxreview/config.yaml.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".taxreview", "config.yaml")
	}
	return filepath.Join(dir, "taxreview", "config.yaml")
}

// Load reads path over the defaults. A missing file yields the defaults.
// Environment overrides are applied in both cases.
func Load(path string) (*Config, error) {
	cfg, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	cfg.applyEnvOverrides()
	return cfg, nil
}

// LoadFile is Load without environment overrides, for rewriting the file.
func LoadFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// Set assigns one value by its command-line key.
func (c *Config) Set(key, value string) error {
	switch key {
	case "theme":
		c.UI.Theme = strings.ToLower(value)
	case "preview":
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			return fmt.Errorf("invalid preview: %q (want a positive integer)", value)
		}
		c.UI.PreviewItems = n
	case "show-native":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid show-native: %q", value)
		}
		c.UI.ShowNative = b
	case "engine":
		c.Export.Engine = strings.ToLower(value)
	case "export-dir":
		c.Export.Dir = value
	case "log-level":
		c.Logging.Level = strings.ToLower(value)
	default:
		return fmt.Errorf("unknown config key %q", key)
	}
	return nil
}

// Save writes the config as YAML, creating the directory if needed.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

func (c *Config) applyEnvOverrides() {
	if dir := os.Getenv("TAXREVIEW_EXPORT_DIR"); dir != "" {
		c.Export.Dir = dir
	}
	if engine := os.Getenv("TAXREVIEW_PDF_ENGINE"); engine != "" {
		c.Export.Engine = strings.ToLower(engine)
	}
	if bin := os.Getenv("TAXREVIEW_CHROME_BIN"); bin != "" {
		c.Export.Chrome.Bin = bin
	}
	if level := os.Getenv("TAXREVIEW_LOG_LEVEL"); level != "" {
		c.Logging.Level = strings.ToLower(level)
	}
	if os.Getenv("TAXREVIEW_DARK_MODE") == "1" {
		c.UI.Theme = "dark"
	}
}

// Validate rejects unknown enum values and malformed durations.
func (c *Config) Validate() error {
	if !oneOf(c.UI.Theme, ValidThemes) {
		return fmt.Errorf("invalid ui.theme: %s (valid: %v)", c.UI.Theme, ValidThemes)
	}
	if !oneOf(c.Export.Engine, ValidEngines) {
		return fmt.Errorf("invalid export.engine: %s (valid: %v)", c.Export.Engine, ValidEngines)
	}
	if !oneOf(c.Logging.Level, ValidLevels) {
		return fmt.Errorf("invalid logging.level: %s (valid: %v)", c.Logging.Level, ValidLevels)
	}
	if !oneOf(c.Logging.Format, ValidFormats) {
		return fmt.Errorf("invalid logging.format: %s (valid: %v)", c.Logging.Format, ValidFormats)
	}
	if c.Export.Chrome.Timeout != "" {
		if _, err := time.ParseDuration(c.Export.Chrome.Timeout); err != nil {
			return fmt.Errorf("invalid export.chrome.timeout: %w", err)
		}
	}
	return nil
}

func oneOf(v string, valid []string) bool {
	for _, ok := range valid {
		if v == ok {
			return true
		}
	}
	return false
}
