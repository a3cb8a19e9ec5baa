// internal/cohost/config.go
package cohost

import (
	"time"

	"cohost-dashboard/internal/common/config"
)

type Config struct {
	BaseURL      string
	Timeout      time.Duration
	StrictSchema bool
}

func LoadConfig(cfg config.CoHostAPIConfig) *Config {
	return &Config{
		BaseURL:      cfg.BaseURL,
		Timeout:      config.GetDuration(cfg.Timeout),
		StrictSchema: cfg.StrictSchema,
	}
}
