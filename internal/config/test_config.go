package config

import "time"

// TestConfig returns a config suitable for testing
func TestConfig() *Config {
	def := defaultConfig()
	return &Config{
		Database: DatabaseConfig{
			Path:    ":memory:",
			Timeout: 1 * time.Second,
		},
		List: def.List,
		Import: ImportConfig{
			HTTPTimeout:     5 * time.Second,
			UserAgent:       "pairwatch-test/1.0",
			AddedBy:         "tester",
			RefreshInterval: 0,
		},
		UI:   def.UI,
		Keys: def.Keys,
		Log:  LogConfig{Level: "off"},
	}
}
