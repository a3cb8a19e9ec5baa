// internal/common/config/loader.go
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultCoHostBaseURL is the placeholder deployment address used when nothing else is configured.
const DefaultCoHostBaseURL = "https://your-railway-url.up.railway.app"

// DefaultCORSOrigins mirrors the browser origins the co-host API itself allows.
var DefaultCORSOrigins = []string{
	"http://localhost:3000",
	"http://localhost:3001",
	"https://*.vercel.app",
}

// Load reads configs/config.yaml, merges config.<env>.yaml and applies environment overrides.
func Load() (*Config, error) {
	envFile := loadEnvFile()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")
	if root := findProjectRoot(); root != "" {
		v.AddConfigPath(filepath.Join(root, "configs"))
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	env := v.GetString("app.environment")
	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // optional

	cfg, err := finish(v)
	if err != nil {
		return nil, err
	}
	cfg.EnvFile = envFile
	return cfg, nil
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	envFile := loadEnvFile()

	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg, err := finish(v)
	if err != nil {
		return nil, err
	}
	cfg.EnvFile = envFile
	return cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	registerDefaults(v)

	// The dashboard historically read its API address from NEXT_PUBLIC_API_URL.
	_ = v.BindEnv("cohost_api.base_url", "COHOST_API_BASE_URL", "NEXT_PUBLIC_API_URL")
	_ = v.BindEnv("server.cors_origins", "SERVER_CORS_ORIGINS", "CORS_ORIGINS")
	return v
}

// registerDefaults makes every key known to viper so AutomaticEnv can override it on Unmarshal.
func registerDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "cohost-dashboard")
	v.SetDefault("app.version", "dev")
	v.SetDefault("app.environment", "development")

	v.SetDefault("server.address", ":3000")
	v.SetDefault("server.read_timeout", 15000)
	v.SetDefault("server.write_timeout", 0)
	v.SetDefault("server.shutdown_timeout", 10000)
	v.SetDefault("server.cors_origins", DefaultCORSOrigins)
	v.SetDefault("server.gin_mode", "release")
	v.SetDefault("server.cookie_name", "cohost_session")
	v.SetDefault("server.cookie_secure", false)

	v.SetDefault("cohost_api.timeout", 0)
	v.SetDefault("cohost_api.strict_schema", false)

	v.SetDefault("session.store", "memory")
	v.SetDefault("session.ttl", 2*60*60*1000)
	v.SetDefault("session.requester_id", "test-user")

	v.SetDefault("database.redis.address", "localhost:6379")
	v.SetDefault("database.redis.password", "")
	v.SetDefault("database.redis.db", 0)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")

	v.SetDefault("tracing.service_name", "cohost-dashboard")
	v.SetDefault("tracing.jaeger_endpoint", "")
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// loadEnvFile loads the first .env found and returns its path, or "" when none exists.
func loadEnvFile() string {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}
	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return path
			}
		}
	}
	return ""
}

// findProjectRoot walks up from the working directory looking for go.mod.
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// expandEnvVars resolves ${VAR} placeholders left in string values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			if expanded := os.ExpandEnv(strVal); expanded != strVal && expanded != "" {
				v.Set(key, expanded)
			}
		}
	}
}

// applyDefaults fills fields that were explicitly set to empty values.
func applyDefaults(cfg *Config) {
	cfg.CoHostAPI.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.CoHostAPI.BaseURL), "/")
	if cfg.CoHostAPI.BaseURL == "" {
		cfg.CoHostAPI.BaseURL = DefaultCoHostBaseURL
	}

	origins := make([]string, 0, len(cfg.Server.CORSOrigins))
	for _, o := range cfg.Server.CORSOrigins {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		origins = append(origins, DefaultCORSOrigins...)
	}
	cfg.Server.CORSOrigins = origins

	if cfg.Server.Address == "" {
		cfg.Server.Address = ":3000"
	}
	if cfg.Server.CookieName == "" {
		cfg.Server.CookieName = "cohost_session"
	}
	if cfg.Session.Store == "" {
		cfg.Session.Store = "memory"
	}
	if cfg.Session.RequesterID == "" {
		cfg.Session.RequesterID = "test-user"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}
	if cfg.Tracing.ServiceName == "" {
		cfg.Tracing.ServiceName = cfg.App.Name
	}
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	u, err := url.Parse(cfg.CoHostAPI.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("cohost_api.base_url must be an absolute http(s) URL, got %q", cfg.CoHostAPI.BaseURL)
	}
	if cfg.CoHostAPI.Timeout < 0 {
		return fmt.Errorf("cohost_api.timeout must not be negative")
	}
	// Classify and generate posts answer only after the remote call returns.
	if w := cfg.Server.WriteTimeout; w > 0 && (cfg.CoHostAPI.Timeout == 0 || w <= cfg.CoHostAPI.Timeout) {
		return fmt.Errorf("server.write_timeout (%d ms) must be 0 or exceed cohost_api.timeout (%d ms)", w, cfg.CoHostAPI.Timeout)
	}

	switch cfg.Session.Store {
	case "memory":
	case "redis":
		if cfg.Database.Redis.Address == "" {
			return fmt.Errorf("database.redis.address is required when session.store is redis")
		}
	default:
		return fmt.Errorf("session.store must be memory or redis, got %q", cfg.Session.Store)
	}

	switch cfg.Server.GinMode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("server.gin_mode must be debug, release or test, got %q", cfg.Server.GinMode)
	}
	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
