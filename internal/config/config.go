// Package config loads the application configuration: the core bot sections
// plus weather, chart, location cache and database settings.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	coreconfig "github.com/m3rciful/routeweather/core/config"
	coredatabase "github.com/m3rciful/routeweather/core/database"
	"github.com/m3rciful/routeweather/internal/geocache"
)

// WeatherConfig configures the AccuWeather client.
type WeatherConfig struct {
	APIKey         string `yaml:"api_key" envconfig:"ACCUWEATHER_API_KEY" validate:"required"`
	BaseURL        string `yaml:"base_url" envconfig:"ACCUWEATHER_BASE_URL" validate:"omitempty,url"`
	TimeoutSeconds int    `yaml:"timeout_seconds" envconfig:"WEATHER_TIMEOUT_SECONDS" validate:"gte=0"`
	Language       string `yaml:"language" envconfig:"WEATHER_LANGUAGE"`
}

// Timeout bounds one provider call.
func (w WeatherConfig) Timeout() time.Duration {
	return time.Duration(w.TimeoutSeconds) * time.Second
}

// ChartConfig configures chart output and the artifact janitor.
type ChartConfig struct {
	Dir                  string `yaml:"dir" envconfig:"CHART_DIR"`
	RetentionMinutes     int    `yaml:"retention_minutes" envconfig:"CHART_RETENTION_MINUTES" validate:"gte=0"`
	SweepIntervalMinutes int    `yaml:"sweep_interval_minutes" envconfig:"CHART_SWEEP_INTERVAL_MINUTES" validate:"gte=0"`
}

// RedisConfig addresses the redis location cache.
type RedisConfig struct {
	Addr     string `yaml:"addr" envconfig:"REDIS_ADDR"`
	Password string `yaml:"password" envconfig:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" envconfig:"REDIS_DB" validate:"gte=0"`
}

// LocationCacheConfig selects where city location keys are remembered.
// TTLHours of 0 keeps entries forever.
type LocationCacheConfig struct {
	Backend  string      `yaml:"backend" envconfig:"LOCATION_CACHE_BACKEND" validate:"omitempty,oneof=memory redis postgres"`
	TTLHours int         `yaml:"ttl_hours" envconfig:"LOCATION_CACHE_TTL_HOURS" validate:"gte=0"`
	Redis    RedisConfig `yaml:"redis"`
}

// TTL returns the entry lifetime, zero meaning no expiry.
func (l LocationCacheConfig) TTL() time.Duration {
	return time.Duration(l.TTLHours) * time.Hour
}

// Config is the full application configuration.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Weather       WeatherConfig       `yaml:"weather"`
	Chart         ChartConfig         `yaml:"chart"`
	LocationCache LocationCacheConfig `yaml:"location_cache"`
	Database      coredatabase.Config `yaml:"database"`
}

// CoreConfig exposes the embedded core configuration.
func (c *Config) CoreConfig() *coreconfig.Config {
	if c == nil {
		return nil
	}
	return &c.Config
}

// UsesDatabase reports whether the postgres backend needs a connection.
func (c *Config) UsesDatabase() bool {
	return c != nil && c.LocationCache.Backend == geocache.BackendPostgres
}

var validate = validator.New()

// Load reads the configuration for running the bot: core rules apply, so a
// Telegram token is required.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.LoadInto(path, &cfg); err != nil {
		return nil, err
	}
	if err := coreconfig.Normalize(&cfg.Config); err != nil {
		return nil, err
	}
	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadStandalone reads the configuration for one-off commands that never
// talk to Telegram. Telegram settings are not checked.
func LoadStandalone(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.LoadInto(path, &cfg); err != nil {
		return nil, err
	}
	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates application sections and fills defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}

	cfg.LocationCache.Backend = strings.ToLower(strings.TrimSpace(cfg.LocationCache.Backend))
	if cfg.LocationCache.Backend == "" {
		cfg.LocationCache.Backend = geocache.BackendMemory
	}
	cfg.Weather.APIKey = strings.TrimSpace(cfg.Weather.APIKey)

	if err := validate.Struct(appSections{
		Weather:       cfg.Weather,
		Chart:         cfg.Chart,
		LocationCache: cfg.LocationCache,
	}); err != nil {
		return fmt.Errorf("invalid config: %w", describe(err))
	}

	switch cfg.LocationCache.Backend {
	case geocache.BackendRedis:
		if strings.TrimSpace(cfg.LocationCache.Redis.Addr) == "" {
			return fmt.Errorf("location_cache.redis.addr is required when location_cache.backend is 'redis'")
		}
	case geocache.BackendPostgres:
		if strings.TrimSpace(cfg.Database.Host) == "" || strings.TrimSpace(cfg.Database.Name) == "" {
			return fmt.Errorf("database.host and database.name are required when location_cache.backend is 'postgres'")
		}
		if cfg.Database.Port == "" {
			cfg.Database.Port = "5432"
		}
	}

	if cfg.Weather.TimeoutSeconds == 0 {
		cfg.Weather.TimeoutSeconds = 10
	}
	if cfg.Weather.Language == "" {
		cfg.Weather.Language = "en-us"
	}
	if cfg.Chart.RetentionMinutes == 0 {
		cfg.Chart.RetentionMinutes = 30
	}
	if cfg.Chart.SweepIntervalMinutes == 0 {
		cfg.Chart.SweepIntervalMinutes = 10
	}
	return nil
}

// appSections holds the validated part of Config; the embedded core config
// has its own rules.
type appSections struct {
	Weather       WeatherConfig
	Chart         ChartConfig
	LocationCache LocationCacheConfig
}

// describe flattens validator errors into config key paths.
func describe(err error) error {
	var fields validator.ValidationErrors
	if !errors.As(err, &fields) {
		return err
	}
	msgs := make([]string, 0, len(fields))
	for _, fe := range fields {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", fieldPath(fe.Namespace()), fe.Tag()))
	}
	return errors.New(strings.Join(msgs, "; "))
}

var sectionKeys = map[string]string{
	"Weather":              "weather",
	"Chart":                "chart",
	"LocationCache":        "location_cache",
	"Redis":                "redis",
	"APIKey":               "api_key",
	"BaseURL":              "base_url",
	"TimeoutSeconds":       "timeout_seconds",
	"RetentionMinutes":     "retention_minutes",
	"SweepIntervalMinutes": "sweep_interval_minutes",
	"Backend":              "backend",
	"TTLHours":             "ttl_hours",
	"DB":                   "db",
}

func fieldPath(ns string) string {
	parts := strings.Split(ns, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	for i, p := range parts {
		if k, ok := sectionKeys[p]; ok {
			parts[i] = k
		}
	}
	return strings.Join(parts, ".")
}
