// internal/server/config.go
package server

import (
	"time"

	"cohost-dashboard/internal/common/config"
)

const defaultCookieName = "cohost_session"

type Config struct {
	Address         string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	CORSOrigins     []string
	GinMode         string
	CookieName      string
	CookieSecure    bool
	ServiceName     string
	Version         string
}

func LoadConfig(cfg *config.Config) *Config {
	c := &Config{
		Address:         cfg.Server.Address,
		ReadTimeout:     config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout:    config.GetDuration(cfg.Server.WriteTimeout),
		ShutdownTimeout: config.GetDuration(cfg.Server.ShutdownTimeout),
		CORSOrigins:     cfg.Server.CORSOrigins,
		GinMode:         cfg.Server.GinMode,
		CookieName:      cfg.Server.CookieName,
		CookieSecure:    cfg.Server.CookieSecure,
		ServiceName:     cfg.App.Name,
		Version:         cfg.App.Version,
	}
	if c.CookieName == "" {
		c.CookieName = defaultCookieName
	}
	if c.ServiceName == "" {
		c.ServiceName = cfg.Tracing.ServiceName
	}
	return c
}
