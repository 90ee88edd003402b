package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Upstream  UpstreamConfig
	Reconnect ReconnectConfig
	Refresh   RefreshConfig
	Redis     RedisConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
	Log       LogConfig
}

// ServerConfig holds the view server configuration
type ServerConfig struct {
	Host string
	Port string
	Env  string
}

// UpstreamConfig points at the bot server whose state is mirrored
type UpstreamConfig struct {
	BaseURL         string
	Timeout         time.Duration
	StatusWSPath    string
	DashboardWSPath string
}

// ReconnectConfig controls push channel reconnection
type ReconnectConfig struct {
	Delay    time.Duration
	Policy   string // "fixed" or "backoff"
	MaxDelay time.Duration
}

// RefreshConfig holds the local scheduling intervals
type RefreshConfig struct {
	FallbackInterval time.Duration
	TickInterval     time.Duration
	PulseDuration    time.Duration
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Enabled     bool
	Host        string
	Port        string
	Password    string
	DB          int
	Panel       string
	SnapshotTTL time.Duration
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	AllowedOrigins []string
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RefreshPerMinute int
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string
	Format string
}

const (
	ReconnectPolicyFixed   = "fixed"
	ReconnectPolicyBackoff = "backoff"
)

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnv("SERVER_PORT", "8090"),
			Env:  getEnv("SERVER_ENV", "development"),
		},
		Upstream: UpstreamConfig{
			BaseURL:         strings.TrimRight(getEnv("UPSTREAM_BASE_URL", "http://localhost:8000"), "/"),
			Timeout:         time.Duration(getEnvAsInt("UPSTREAM_TIMEOUT_SECONDS", 10)) * time.Second,
			StatusWSPath:    getEnv("STATUS_WS_PATH", "/ws/deriv/estado/"),
			DashboardWSPath: getEnv("DASHBOARD_WS_PATH", "/ws/dashboard/"),
		},
		Reconnect: ReconnectConfig{
			Delay:    time.Duration(getEnvAsInt("RECONNECT_DELAY_SECONDS", 5)) * time.Second,
			Policy:   getEnv("RECONNECT_POLICY", ReconnectPolicyFixed),
			MaxDelay: time.Duration(getEnvAsInt("RECONNECT_MAX_DELAY_SECONDS", 60)) * time.Second,
		},
		Refresh: RefreshConfig{
			FallbackInterval: time.Duration(getEnvAsInt("FALLBACK_REFRESH_SECONDS", 30)) * time.Second,
			TickInterval:     time.Second,
			PulseDuration:    time.Duration(getEnvAsInt("PULSE_MILLIS", 600)) * time.Millisecond,
		},
		Redis: RedisConfig{
			Enabled:     getEnvAsBool("REDIS_ENABLED", false),
			Host:        getEnv("REDIS_HOST", "localhost"),
			Port:        getEnv("REDIS_PORT", "6379"),
			Password:    getEnv("REDIS_PASSWORD", ""),
			DB:          getEnvAsInt("REDIS_DB", 0),
			Panel:       getEnv("REDIS_PANEL", "default"),
			SnapshotTTL: time.Duration(getEnvAsInt("REDIS_SNAPSHOT_TTL_SECONDS", 120)) * time.Second,
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}, ","),
		},
		RateLimit: RateLimitConfig{
			RefreshPerMinute: getEnvAsInt("RATE_LIMIT_REFRESH_PER_MINUTE", 30),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values Load cannot default away
func (c *Config) Validate() error {
	u, err := url.Parse(c.Upstream.BaseURL)
	if err != nil || u.Host == "" {
		return fmt.Errorf("UPSTREAM_BASE_URL must be an absolute URL, got %q", c.Upstream.BaseURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("UPSTREAM_BASE_URL must use http or https, got %q", u.Scheme)
	}
	if c.Reconnect.Delay <= 0 {
		return fmt.Errorf("RECONNECT_DELAY_SECONDS must be positive")
	}
	switch c.Reconnect.Policy {
	case ReconnectPolicyFixed, ReconnectPolicyBackoff:
	default:
		return fmt.Errorf("RECONNECT_POLICY must be %q or %q, got %q",
			ReconnectPolicyFixed, ReconnectPolicyBackoff, c.Reconnect.Policy)
	}
	if c.Refresh.FallbackInterval <= 0 {
		return fmt.Errorf("FALLBACK_REFRESH_SECONDS must be positive")
	}
	return nil
}

// Address returns the full server address
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// Address returns the full Redis address
func (c *RedisConfig) Address() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsProduction returns true if running in production mode
func (c *ServerConfig) IsProduction() bool {
	return c.Env == "production"
}

// Helper functions

func getEnv(key string, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string, separator string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	return strings.Split(valueStr, separator)
}
