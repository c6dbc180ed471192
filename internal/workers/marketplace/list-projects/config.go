// internal/workers/marketplace/list-projects/config.go
package listprojects

import "time"

type Config struct {
	Index   string
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Index:   "projects",
		Timeout: 10 * time.Second,
	}
}
