// internal/workers/marketplace/get-project/config.go
package getproject

import "time"

type Config struct {
	Timeout       time.Duration
	CacheTTL      time.Duration
	ActivityLimit int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:       10 * time.Second,
		CacheTTL:      10 * time.Minute,
		ActivityLimit: 20,
	}
}
