package config

import "time"

// ExportConfig configures PDF export.
type ExportConfig struct {
	Dir    string       `yaml:"dir"`
	Engine string       `yaml:"engine"` // native, chrome
	Chrome ChromeConfig `yaml:"chrome"`
}

// ChromeConfig configures the headless Chrome engine.
type ChromeConfig struct {
	Bin      string `yaml:"bin"`
	Headless bool   `yaml:"headless"`
	Timeout  string `yaml:"timeout"`
}

// GetTimeout returns the parsed timeout, falling back to 60s.
func (c ChromeConfig) GetTimeout() time.Duration {
	if d, err := time.ParseDuration(c.Timeout); err == nil && d > 0 {
		return d
	}
	return 60 * time.Second
}
