package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Environment string `toml:"environment"`
	Host        string `toml:"host"`
	Port        int    `toml:"port"`
	// public base URL used to absolutize uploaded file paths,
	// when empty the request host is used
	PublicBaseURL  string   `toml:"public_base_url"`
	AllowedOrigins []string `toml:"allowed_origins"`
	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	SentryEnabled bool   `toml:"sentry_enabled"`
	// postgres
	PostgresHost string `toml:"postgres_host"`
	PostgresPort string `toml:"postgres_port"`
	PostgresDB   string `toml:"postgres_db"`
	PostgresUser string `toml:"postgres_user"`
	ApplySchema  bool   `toml:"apply_schema"`
	// redis
	RedisHost string `toml:"redis_host"`
	RedisPort string `toml:"redis_port"`
	// metrics
	PrometheusMetricsHost string `toml:"prometheus_metrics_host"`
	PrometheusMetricsPort string `toml:"prometheus_metrics_port"`
	// uploads
	UploadsRootPath string `toml:"uploads_root_path"`
	// auth
	AuthRateLimitPerMinute int `toml:"auth_rate_limit_per_minute"`
	BcryptCost             int `toml:"bcrypt_cost"`
	TokenTTLHours          int `toml:"token_ttl_hours"`
	UserCacheSizeMB        int `toml:"user_cache_size_mb"`
	UserCacheTTLSeconds    int `toml:"user_cache_ttl_seconds"`
}

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	var cfg *Config
	switch strings.ToLower(env) {
	case "dev", "development":
		cfg = t.Development
	case "prod", "production":
		cfg = t.Production
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
	if cfg == nil {
		return nil, fmt.Errorf("no config section for env: %s", env)
	}
	return cfg, nil
}

// Load reads the TOML file at path and returns the section for env
// with unset values replaced by defaults.
func Load(env, path string) (*Config, error) {
	var t Toml
	if _, err := toml.DecodeFile(path, &t); err != nil {
		return nil, fmt.Errorf("decode config file [%s]: %w", path, err)
	}

	cfg, err := t.Get(env)
	if err != nil {
		return nil, err
	}
	cfg.applyDefaults(env)

	return cfg, nil
}

func (c *Config) applyDefaults(env string) {
	if c.Environment == "" {
		c.Environment = strings.ToLower(env)
	}
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = 5000
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.PostgresPort == "" {
		c.PostgresPort = "5432"
	}
	if c.PostgresUser == "" {
		c.PostgresUser = "postgres"
	}
	if c.RedisPort == "" {
		c.RedisPort = "6379"
	}
	if c.UploadsRootPath == "" {
		c.UploadsRootPath = "./uploads"
	}
	if c.AuthRateLimitPerMinute <= 0 {
		c.AuthRateLimitPerMinute = 10
	}
	if c.TokenTTLHours <= 0 {
		c.TokenTTLHours = 7 * 24
	}
	if c.UserCacheSizeMB <= 0 {
		c.UserCacheSizeMB = 10
	}
	if c.UserCacheTTLSeconds <= 0 {
		c.UserCacheTTLSeconds = 60
	}
}
