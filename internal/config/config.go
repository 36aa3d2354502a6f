// Package config loads service configuration from the environment and an
// optional .env file.
package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	HTTPAddr string
	Env      string
	LogLevel string

	DBDriver    string
	DatabaseURL string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	LoginFailureDelay      time.Duration
	NegativeLookupCacheTTL time.Duration
	AuthRateLimitRPM       int
	APIRateLimitRPM        int
	RateLimitFailOpen      bool

	CORSAllowedOrigins        []string
	CORSAllowedOriginSuffixes []string

	ShutdownTimeout time.Duration

	OTELServiceName           string
	OTELEnvironment           string
	OTELExporterOTLPEndpoint  string
	OTELExporterOTLPInsecure  bool
	OTELMetricsEnabled        bool
	OTELTracingEnabled        bool
	OTELLogsEnabled           bool
	OTELMetricsExportInterval time.Duration
	OTELTraceSampleRatio      float64
}

const (
	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
)

// Load reads .env when present, then the process environment, which wins.
func Load() (*Config, error) {
	return LoadFile(".env")
}

func LoadFile(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("env")
		_ = v.ReadInConfig()
	}
	v.AutomaticEnv()
	setDefaults(v)

	cfg, err := build(v)
	if err != nil {
		recordConfigValidationEvent(context.Background(), v.GetString("APP_ENV"), "failure", classifyConfigLoadError(err))
		return nil, err
	}
	recordConfigValidationEvent(context.Background(), cfg.Env, "success", "none")
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DB_DRIVER", DBDriverSQLite)
	v.SetDefault("DATABASE_URL", "file:reading.db?_foreign_keys=on")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("LOGIN_FAILURE_DELAY", "500ms")
	v.SetDefault("NEGATIVE_LOOKUP_CACHE_TTL", "10m")
	v.SetDefault("AUTH_RATE_LIMIT_RPM", 20)
	v.SetDefault("API_RATE_LIMIT_RPM", 300)
	v.SetDefault("RATE_LIMIT_FAIL_OPEN", false)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://127.0.0.1:5500,http://localhost:5500,http://127.0.0.1:5501,http://localhost:5501")
	v.SetDefault("CORS_ALLOWED_ORIGIN_SUFFIXES", "")
	v.SetDefault("SHUTDOWN_TIMEOUT", "15s")
	v.SetDefault("OTEL_SERVICE_NAME", "reading-service")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", true)
	v.SetDefault("OTEL_METRICS_ENABLED", false)
	v.SetDefault("OTEL_TRACING_ENABLED", false)
	v.SetDefault("OTEL_LOGS_ENABLED", false)
	v.SetDefault("OTEL_METRICS_EXPORT_INTERVAL", "15s")
	v.SetDefault("OTEL_TRACE_SAMPLE_RATIO", 1.0)
}

func build(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		HTTPAddr:                  listenAddr(v.GetString("HTTP_ADDR"), v.GetString("PORT")),
		Env:                       strings.TrimSpace(v.GetString("APP_ENV")),
		LogLevel:                  strings.ToLower(strings.TrimSpace(v.GetString("LOG_LEVEL"))),
		DBDriver:                  strings.ToLower(strings.TrimSpace(v.GetString("DB_DRIVER"))),
		DatabaseURL:               strings.TrimSpace(v.GetString("DATABASE_URL")),
		RedisAddr:                 strings.TrimSpace(v.GetString("REDIS_ADDR")),
		RedisPassword:             v.GetString("REDIS_PASSWORD"),
		RedisDB:                   v.GetInt("REDIS_DB"),
		AuthRateLimitRPM:          v.GetInt("AUTH_RATE_LIMIT_RPM"),
		APIRateLimitRPM:           v.GetInt("API_RATE_LIMIT_RPM"),
		RateLimitFailOpen:         v.GetBool("RATE_LIMIT_FAIL_OPEN"),
		CORSAllowedOrigins:        splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		CORSAllowedOriginSuffixes: splitList(v.GetString("CORS_ALLOWED_ORIGIN_SUFFIXES")),
		OTELServiceName:           v.GetString("OTEL_SERVICE_NAME"),
		OTELEnvironment:           v.GetString("APP_ENV"),
		OTELExporterOTLPEndpoint:  v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),
		OTELExporterOTLPInsecure:  v.GetBool("OTEL_EXPORTER_OTLP_INSECURE"),
		OTELMetricsEnabled:        v.GetBool("OTEL_METRICS_ENABLED"),
		OTELTracingEnabled:        v.GetBool("OTEL_TRACING_ENABLED"),
		OTELLogsEnabled:           v.GetBool("OTEL_LOGS_ENABLED"),
		OTELTraceSampleRatio:      v.GetFloat64("OTEL_TRACE_SAMPLE_RATIO"),
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"LOGIN_FAILURE_DELAY", &cfg.LoginFailureDelay},
		{"NEGATIVE_LOOKUP_CACHE_TTL", &cfg.NegativeLookupCacheTTL},
		{"SHUTDOWN_TIMEOUT", &cfg.ShutdownTimeout},
		{"OTEL_METRICS_EXPORT_INTERVAL", &cfg.OTELMetricsExportInterval},
	}
	for _, d := range durations {
		parsed, err := time.ParseDuration(strings.TrimSpace(v.GetString(d.key)))
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", d.key, err)
		}
		*d.dst = parsed
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	switch c.DBDriver {
	case DBDriverPostgres, DBDriverSQLite:
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER must be %q or %q, got %q", DBDriverPostgres, DBDriverSQLite, c.DBDriver))
	}
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if c.LoginFailureDelay < 0 {
		errs = append(errs, errors.New("LOGIN_FAILURE_DELAY must not be negative"))
	}
	if c.IsProduction() && c.LoginFailureDelay < 500*time.Millisecond {
		errs = append(errs, errors.New("LOGIN_FAILURE_DELAY must be at least 500ms in production"))
	}
	if c.IsProduction() && c.DBDriver != DBDriverPostgres {
		errs = append(errs, errors.New("DB_DRIVER must be postgres in production"))
	}
	if c.NegativeLookupCacheTTL < 0 {
		errs = append(errs, errors.New("NEGATIVE_LOOKUP_CACHE_TTL must not be negative"))
	}
	if c.AuthRateLimitRPM <= 0 || c.APIRateLimitRPM <= 0 {
		errs = append(errs, errors.New("rate limits must be positive"))
	}
	if c.OTELTraceSampleRatio < 0 || c.OTELTraceSampleRatio > 1 {
		errs = append(errs, errors.New("OTEL_TRACE_SAMPLE_RATIO must be within [0,1]"))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("SHUTDOWN_TIMEOUT must be positive"))
	}
	return errors.Join(errs...)
}

func (c *Config) IsProduction() bool {
	return normalizeConfigProfile(c.Env) == "production"
}

func (c *Config) RedisEnabled() bool {
	return c.RedisAddr != ""
}

func listenAddr(addr, port string) string {
	addr = strings.TrimSpace(addr)
	if addr != "" {
		return addr
	}
	port = strings.TrimSpace(port)
	if port == "" {
		port = "8080"
	}
	return ":" + port
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
