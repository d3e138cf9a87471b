package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config aggregates application settings that may be sourced from files or environment variables.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Web       WebConfig       `mapstructure:"web"`
	Backend   BackendConfig   `mapstructure:"backend"`
	Session   SessionConfig   `mapstructure:"session"`
	Export    ExportConfig    `mapstructure:"export"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	MinIO     MinIOConfig     `mapstructure:"minio"`
	Log       LogConfig       `mapstructure:"log"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// AppConfig 应用级元信息。
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	Version     string `mapstructure:"version"`
}

// IsProduction reports whether the app runs with production defaults.
func (a AppConfig) IsProduction() bool {
	return strings.EqualFold(a.Environment, "production")
}

// WebConfig contains HTTP server settings.
type WebConfig struct {
	Port                  int           `mapstructure:"port"`
	SiteURL               string        `mapstructure:"site_url"`
	CookieDomain          string        `mapstructure:"cookie_domain"`
	CookieSecure          bool          `mapstructure:"cookie_secure"`
	AuthInitTimeout       time.Duration `mapstructure:"auth_init_timeout"`
	ShutdownTimeout       time.Duration `mapstructure:"shutdown_timeout"`
	LoginRateLimitPerHour int           `mapstructure:"login_rate_limit_per_hour"`
	PublicCacheTTL        time.Duration `mapstructure:"public_cache_ttl"`
	PageSize              int           `mapstructure:"page_size"`
	AllowedOrigins        []string      `mapstructure:"allowed_origins"`
}

// BackendConfig 描述外部 REST 后端。
type BackendConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// SessionConfig 控制会话存储驱动与有效期。
type SessionConfig struct {
	Driver string        `mapstructure:"driver"`
	TTL    time.Duration `mapstructure:"ttl"`
}

// ExportConfig 控制 PDF 导出。
type ExportConfig struct {
	AsyncEnabled bool          `mapstructure:"async_enabled"`
	BrowserBin   string        `mapstructure:"browser_bin"`
	ScaleFactor  float64       `mapstructure:"scale_factor"`
	Timeout      time.Duration `mapstructure:"timeout"`
	LinkTTL      time.Duration `mapstructure:"link_ttl"`
	Concurrency  int           `mapstructure:"concurrency"`
	MaxRetry     int           `mapstructure:"max_retry"`
	MetricsPort  int           `mapstructure:"metrics_port"`
}

// DatabaseConfig contains connection options for PostgreSQL.
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"sslmode"`
}

// RedisConfig 包含 Redis 连接配置。
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns host:port.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// MinIOConfig contains connection options for MinIO/S3-compatible storage.
type MinIOConfig struct {
	Endpoint         string `mapstructure:"endpoint"`
	PublicEndpoint   string `mapstructure:"public_endpoint"`
	AccessKeyID      string `mapstructure:"access_key_id"`
	SecretAccessKey  string `mapstructure:"secret_access_key"`
	UseSSL           bool   `mapstructure:"use_ssl"`
	Bucket           string `mapstructure:"bucket"`
	Region           string `mapstructure:"region"`
	AutoCreateBucket bool   `mapstructure:"auto_create_bucket"`
}

// LogConfig 日志级别与输出格式（json/text）。
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TelemetryConfig OpenTelemetry 导出配置，默认关闭。
type TelemetryConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	Endpoint    string  `mapstructure:"endpoint"`
	Insecure    bool    `mapstructure:"insecure"`
	SampleRate  float64 `mapstructure:"sample_rate"`
	ServiceName string  `mapstructure:"service_name"`
}

// DSN builds a lib/pq compatible connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host,
		d.Port,
		d.User,
		d.Password,
		d.Name,
		d.SSLMode,
	)
}

// Load reads configuration from environment variables (with optional defaults).
// A .env file in the working directory is applied first when present; real env vars win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if err := bindEnv(v); err != nil {
		return nil, fmt.Errorf("bind env: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// MustLoad wraps Load and panics on failure.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "devfolio")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.version", "dev")
	v.SetDefault("web.port", 3000)
	v.SetDefault("web.cookie_secure", false)
	v.SetDefault("web.auth_init_timeout", 3*time.Second)
	v.SetDefault("web.shutdown_timeout", 15*time.Second)
	v.SetDefault("web.login_rate_limit_per_hour", 30)
	v.SetDefault("web.public_cache_ttl", time.Minute)
	v.SetDefault("web.page_size", 9)
	v.SetDefault("backend.base_url", "http://localhost:5000/api")
	v.SetDefault("backend.timeout", 15*time.Second)
	v.SetDefault("session.driver", "redis")
	v.SetDefault("session.ttl", 7*24*time.Hour)
	v.SetDefault("export.async_enabled", false)
	v.SetDefault("export.scale_factor", 2.0)
	v.SetDefault("export.timeout", 60*time.Second)
	v.SetDefault("export.link_ttl", 15*time.Minute)
	v.SetDefault("export.concurrency", 4)
	v.SetDefault("export.max_retry", 3)
	v.SetDefault("export.metrics_port", 9091)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "devfolio")
	v.SetDefault("database.user", "devfolio")
	v.SetDefault("database.password", "devfolio")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("minio.endpoint", "localhost:9000")
	v.SetDefault("minio.public_endpoint", "http://localhost:9000")
	v.SetDefault("minio.use_ssl", false)
	v.SetDefault("minio.bucket", "resume-exports")
	v.SetDefault("minio.auto_create_bucket", true)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.insecure", true)
	v.SetDefault("telemetry.sample_rate", 0.1)
	v.SetDefault("telemetry.service_name", "devfolio-web")
}

func bindEnv(v *viper.Viper) error {
	mappings := map[string]string{
		"app.environment":               "APP_ENV",
		"app.version":                   "APP_VERSION",
		"web.port":                      "PORT",
		"web.site_url":                  "SITE_URL",
		"web.cookie_domain":             "COOKIE_DOMAIN",
		"web.cookie_secure":             "COOKIE_SECURE",
		"web.auth_init_timeout":         "AUTH_INIT_TIMEOUT",
		"web.shutdown_timeout":          "SHUTDOWN_TIMEOUT",
		"web.login_rate_limit_per_hour": "LOGIN_RATE_LIMIT_PER_HOUR",
		"web.public_cache_ttl":          "PUBLIC_CACHE_TTL",
		"web.page_size":                 "PAGE_SIZE",
		"web.allowed_origins":           "WS_ALLOWED_ORIGINS",
		"backend.base_url":              "API_URL",
		"backend.timeout":               "API_TIMEOUT",
		"session.driver":                "SESSION_DRIVER",
		"session.ttl":                   "SESSION_TTL",
		"export.async_enabled":          "EXPORT_ASYNC_ENABLED",
		"export.browser_bin":            "EXPORT_BROWSER_BIN",
		"export.scale_factor":           "EXPORT_SCALE_FACTOR",
		"export.timeout":                "EXPORT_TIMEOUT",
		"export.link_ttl":               "EXPORT_LINK_TTL",
		"export.concurrency":            "EXPORT_CONCURRENCY",
		"export.max_retry":              "EXPORT_MAX_RETRY",
		"export.metrics_port":           "EXPORT_METRICS_PORT",
		"database.host":                 "DATABASE_HOST",
		"database.port":                 "DATABASE_PORT",
		"database.name":                 "POSTGRES_DB",
		"database.user":                 "POSTGRES_USER",
		"database.password":             "POSTGRES_PASSWORD",
		"database.sslmode":              "DATABASE_SSLMODE",
		"redis.host":                    "REDIS_HOST",
		"redis.port":                    "REDIS_PORT",
		"redis.password":                "REDIS_PASSWORD",
		"redis.db":                      "REDIS_DB",
		"minio.endpoint":                "MINIO_ENDPOINT",
		"minio.public_endpoint":         "MINIO_PUBLIC_ENDPOINT",
		"minio.access_key_id":           "MINIO_ACCESS_KEY_ID",
		"minio.secret_access_key":       "MINIO_SECRET_ACCESS_KEY",
		"minio.use_ssl":                 "MINIO_USE_SSL",
		"minio.bucket":                  "MINIO_BUCKET",
		"minio.region":                  "MINIO_REGION",
		"minio.auto_create_bucket":      "MINIO_AUTO_CREATE_BUCKET",
		"log.level":                     "LOG_LEVEL",
		"log.format":                    "LOG_FORMAT",
		"telemetry.enabled":             "OTEL_ENABLED",
		"telemetry.endpoint":            "OTEL_EXPORTER_OTLP_ENDPOINT",
		"telemetry.insecure":            "OTEL_INSECURE",
		"telemetry.sample_rate":         "OTEL_SAMPLE_RATE",
		"telemetry.service_name":        "OTEL_SERVICE_NAME",
	}

	for key, env := range mappings {
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("bind %s to %s: %w", key, env, err)
		}
	}

	return nil
}

func validate(cfg Config) error {
	if cfg.Web.Port <= 0 {
		return errors.New("web port must be positive")
	}
	if strings.TrimSpace(cfg.Backend.BaseURL) == "" {
		return errors.New("backend base url is required")
	}
	if cfg.Web.PageSize <= 0 {
		return errors.New("page size must be positive")
	}
	switch cfg.Session.Driver {
	case "redis", "memory":
	default:
		return fmt.Errorf("unknown session driver %q", cfg.Session.Driver)
	}
	if cfg.Session.TTL <= 0 {
		return errors.New("session ttl must be positive")
	}
	if cfg.Session.Driver == "redis" || cfg.Export.AsyncEnabled {
		if cfg.Redis.Host == "" {
			return errors.New("redis host is required")
		}
		if cfg.Redis.Port <= 0 {
			return errors.New("redis port must be positive")
		}
	}
	if cfg.Export.ScaleFactor <= 0 {
		return errors.New("export scale factor must be positive")
	}
	if !cfg.Export.AsyncEnabled {
		return nil
	}
	if cfg.Database.Host == "" {
		return errors.New("database host is required")
	}
	if cfg.Database.Port <= 0 {
		return errors.New("database port must be positive")
	}
	if cfg.Database.Name == "" {
		return errors.New("database name is required")
	}
	if cfg.Database.User == "" {
		return errors.New("database user is required")
	}
	if cfg.Database.SSLMode == "" {
		return errors.New("database sslmode is required")
	}
	if cfg.MinIO.Endpoint == "" {
		return errors.New("minio endpoint is required")
	}
	if cfg.MinIO.AccessKeyID == "" {
		return errors.New("minio access key id is required")
	}
	if cfg.MinIO.SecretAccessKey == "" {
		return errors.New("minio secret access key is required")
	}
	if cfg.MinIO.Bucket == "" {
		return errors.New("minio bucket is required")
	}
	return nil
}
