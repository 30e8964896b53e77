package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/sethvargo/go-envconfig"
)

const (
	DefaultStaleTime      = time.Minute
	DefaultGCTime         = 5 * time.Minute
	DefaultPageSize       = 20
	DefaultRequestTimeout = 15 * time.Second
)

type Config struct {
	Environment string `toml:"environment" env:"FITCALC_ENVIRONMENT, overwrite"`

	// remote functions
	FunctionsURL   string        `toml:"functions_url" env:"FITCALC_FUNCTIONS_URL, overwrite"`
	AnonKey        string        `toml:"-" env:"FITCALC_ANON_KEY, overwrite"`
	AccessToken    string        `toml:"-" env:"FITCALC_ACCESS_TOKEN, overwrite"`
	RequestTimeout time.Duration `toml:"request_timeout"`

	// query cache
	StaleTime time.Duration `toml:"stale_time"`
	GCTime    time.Duration `toml:"gc_time"`
	PageSize  int           `toml:"page_size"`

	// logging
	LogLevel      string `toml:"log_level" env:"FITCALC_LOG_LEVEL, overwrite"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	SentryEnabled bool   `toml:"sentry_enabled"`

	// dev server
	Host                  string   `toml:"host"`
	Port                  int      `toml:"port" env:"FITCALC_DEVSERVER_PORT, overwrite"`
	PrometheusMetricsHost string   `toml:"prometheus_metrics_host"`
	PrometheusMetricsPort string   `toml:"prometheus_metrics_port"`
	Store                 string   `toml:"store" env:"FITCALC_DEVSERVER_STORE, overwrite"` // memory | redis | postgres
	RedisHost             string   `toml:"redis_host"`
	RedisPort             string   `toml:"redis_port"`
	RedisPassword         string   `toml:"-" env:"FITCALC_REDIS_PASS, overwrite"`
	PostgresHost          string   `toml:"postgres_host"`
	PostgresPort          string   `toml:"postgres_port"`
	PostgresDBName        string   `toml:"postgres_db_name"`
	PostgresUser          string   `toml:"postgres_user"`
	PostgresPassword      string   `toml:"-" env:"FITCALC_POSTGRES_PASS, overwrite"`
	RateLimitPerMin       int      `toml:"rate_limit_per_min"`
	TracingEnabled        bool     `toml:"tracing_enabled" env:"FITCALC_TRACING_ENABLED, overwrite"`
	AllowedOrigins        []string `toml:"allowed_origins"`
}

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	switch strings.ToLower(env) {
	case "dev", "development":
		return t.Development, nil
	case "prod", "production":
		return t.Production, nil
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
}

// Load reads the config section for env from the TOML file at path and
// applies FITCALC_* environment overrides. A missing file is not an error,
// the defaults and the environment are used instead.
func Load(env, path string) (*Config, error) {
	return LoadWith(env, path, envconfig.OsLookuper())
}

func LoadWith(env, path string, lookuper envconfig.Lookuper) (*Config, error) {
	cfg := &Config{}

	var tomlCfg Toml
	if _, err := toml.DecodeFile(path, &tomlCfg); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("decode config file %s: %w", path, err)
		}
		if _, err := tomlCfg.Get(env); err != nil {
			return nil, err
		}
	} else {
		envCfg, err := tomlCfg.Get(env)
		if err != nil {
			return nil, err
		}
		if envCfg == nil {
			return nil, fmt.Errorf("config section for env %s missing in %s", env, path)
		}
		cfg = envCfg
	}

	if err := envconfig.ProcessWith(context.Background(), &envconfig.Config{
		Target:   cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("process env overrides: %w", err)
	}

	cfg.setDefaults(env)
	return cfg, nil
}

func (c *Config) setDefaults(env string) {
	if c.Environment == "" {
		c.Environment = strings.ToLower(env)
	}
	if c.StaleTime <= 0 {
		c.StaleTime = DefaultStaleTime
	}
	if c.GCTime <= 0 {
		c.GCTime = DefaultGCTime
	}
	if c.PageSize <= 0 {
		c.PageSize = DefaultPageSize
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = 54321
	}
	if c.Store == "" {
		c.Store = "memory"
	}
	if c.PostgresUser == "" {
		c.PostgresUser = "postgres"
	}
}
