package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig
	Server    ServerConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
	OTLP      OTLPConfig
	Metrics   MetricsConfig
	Admin     AdminConfig
}

type AppConfig struct {
	Name     string
	Version  string
	LogLevel slog.Level
}

type ServerConfig struct {
	Port              string
	Host              string
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
	// TrustProxy takes the client address from X-Forwarded-For / X-Real-IP.
	TrustProxy        bool
}

// Addr returns host:port
func (c ServerConfig) Addr() string {
	return c.Host + ":" + c.Port
}

type CORSConfig struct {
	AllowedOrigins []string
}

type RateLimitConfig struct {
	Enabled bool
	RPS     float64
	Burst   int
}

type OTLPConfig struct {
	Enabled     bool
	Endpoint    string
	ServiceName string
	Environment string
	Version     string
}

type MetricsConfig struct {
	DurationMilliseconds bool
}

type AdminConfig struct {
	ResetEnabled bool
}

var defaults = map[string]any{
	"app_name":                    "Products Backend API",
	"app_version":                 "1.0.0",
	"log_level":                   "INFO",
	"server_host":                 "0.0.0.0",
	"server_port":                 "8080",
	"server_read_header_timeout":  "5s",
	"server_shutdown_timeout":     "10s",
	"server_trust_proxy":          false,
	"cors_allow_origins":          "*",
	"rate_limit_enabled":          false,
	"rate_limit_rps":              10.0,
	"rate_limit_burst":            20,
	"otel_enabled":                false,
	"otel_exporter_otlp_endpoint": "localhost:4317",
	"otel_service_name":           "products-api",
	"otel_environment":            "development",
	"metrics_duration_ms":         false,
	"admin_reset_enabled":         false,
}

// LoadConfig loads configuration from defaults, an optional dotenv file and
// environment variables, in increasing order of precedence. A missing file
// is not an error.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil && !isNotExist(err) {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(v.GetString("log_level"))); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", v.GetString("log_level"), err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:     v.GetString("app_name"),
			Version:  v.GetString("app_version"),
			LogLevel: level,
		},
		Server: ServerConfig{
			Host:              v.GetString("server_host"),
			Port:              v.GetString("server_port"),
			ReadHeaderTimeout: v.GetDuration("server_read_header_timeout"),
			ShutdownTimeout:   v.GetDuration("server_shutdown_timeout"),
			TrustProxy:        v.GetBool("server_trust_proxy"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(v.GetString("cors_allow_origins")),
		},
		RateLimit: RateLimitConfig{
			Enabled: v.GetBool("rate_limit_enabled"),
			RPS:     v.GetFloat64("rate_limit_rps"),
			Burst:   v.GetInt("rate_limit_burst"),
		},
		OTLP: OTLPConfig{
			Enabled:     v.GetBool("otel_enabled"),
			Endpoint:    v.GetString("otel_exporter_otlp_endpoint"),
			ServiceName: v.GetString("otel_service_name"),
			Environment: v.GetString("otel_environment"),
			Version:     v.GetString("app_version"),
		},
		Metrics: MetricsConfig{
			DurationMilliseconds: v.GetBool("metrics_duration_ms"),
		},
		Admin: AdminConfig{
			ResetEnabled: v.GetBool("admin_reset_enabled"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port == "" {
		return errors.New("SERVER_PORT must not be empty")
	}
	if len(c.CORS.AllowedOrigins) == 0 {
		return errors.New("CORS_ALLOW_ORIGINS must list at least one origin")
	}
	if c.RateLimit.Enabled && (c.RateLimit.RPS <= 0 || c.RateLimit.Burst <= 0) {
		return errors.New("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive when rate limiting is enabled")
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func isNotExist(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist)
}
