// internal/workers/advisory/analyze-deals/config.go
package analyzedeals

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 30 * time.Second,
	}
}
