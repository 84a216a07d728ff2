package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Mapbox   MapboxConfig   `mapstructure:"mapbox"`
	Weather  WeatherConfig  `mapstructure:"weather"`
	Routing  RoutingConfig  `mapstructure:"routing"`
	Google   GoogleConfig   `mapstructure:"google"`
	Store    StoreConfig    `mapstructure:"store"`
	Session  SessionConfig  `mapstructure:"session"`
	Valkey   ValkeyConfig   `mapstructure:"valkey"`
	NATS     NATSConfig     `mapstructure:"nats"`
	Search   SearchConfig   `mapstructure:"search"`
	Provider ProviderConfig `mapstructure:"provider"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type MapboxConfig struct {
	Token    string `mapstructure:"token"`
	Language string `mapstructure:"language"`
}

type WeatherConfig struct {
	// Provider is "openweather" or "openmeteo".
	Provider string `mapstructure:"provider"`
	APIKey   string `mapstructure:"api_key"`
	Language string `mapstructure:"language"`
}

type RoutingConfig struct {
	// Router is "mapbox" or "osrm".
	Router  string `mapstructure:"router"`
	OSRMURL string `mapstructure:"osrm_url"`
}

type GoogleConfig struct {
	APIKey string `mapstructure:"api_key"`
}

type StoreConfig struct {
	// Driver is "sqlite", "postgres" or "memory".
	Driver      string `mapstructure:"driver"`
	SQLitePath  string `mapstructure:"sqlite_path"`
	PostgresDSN string `mapstructure:"postgres_dsn"`
	MaxConns    int32  `mapstructure:"max_conns"`
	MaxHistory  int    `mapstructure:"max_history"`
}

type SessionConfig struct {
	TTL           time.Duration `mapstructure:"ttl"`
	PurgeInterval time.Duration `mapstructure:"purge_interval"`
}

type ValkeyConfig struct {
	Addr string `mapstructure:"addr"`
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
}

type SearchConfig struct {
	Concurrency int `mapstructure:"concurrency"`
}

type ProviderConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from .env, an optional config file and environment
// variables, in increasing precedence.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "error", err)
	}

	v := viper.New()
	setDefaults(v)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: ROUTEWEATHER_MAPBOX_TOKEN → mapbox.token
	v.SetEnvPrefix("ROUTEWEATHER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Unprefixed names kept for existing .env files.
	_ = v.BindEnv("mapbox.token", "ROUTEWEATHER_MAPBOX_TOKEN", "MAPBOX_ACCESS_TOKEN")
	_ = v.BindEnv("weather.api_key", "ROUTEWEATHER_WEATHER_API_KEY", "OPENWEATHER_API_KEY")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("mapbox.token", "")
	v.SetDefault("mapbox.language", "ja")
	v.SetDefault("weather.provider", "openweather")
	v.SetDefault("weather.api_key", "")
	v.SetDefault("weather.language", "ja")
	v.SetDefault("routing.router", "mapbox")
	v.SetDefault("routing.osrm_url", "https://router.project-osrm.org")
	v.SetDefault("google.api_key", "")
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.sqlite_path", "route_history.db")
	v.SetDefault("store.postgres_dsn", "")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.max_history", 0)
	v.SetDefault("session.ttl", 24*time.Hour)
	v.SetDefault("session.purge_interval", time.Minute)
	v.SetDefault("valkey.addr", "")
	v.SetDefault("nats.url", "")
	v.SetDefault("search.concurrency", 8)
	v.SetDefault("provider.timeout", 10*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}

	switch c.Weather.Provider {
	case "openweather":
		if c.Weather.APIKey == "" {
			errs = append(errs, "weather.api_key is required for the openweather provider")
		}
	case "openmeteo":
	default:
		errs = append(errs, fmt.Sprintf("weather.provider must be openweather or openmeteo, got %q", c.Weather.Provider))
	}

	switch c.Routing.Router {
	case "mapbox":
	case "osrm":
		if c.Routing.OSRMURL == "" {
			errs = append(errs, "routing.osrm_url is required for the osrm router")
		}
	default:
		errs = append(errs, fmt.Sprintf("routing.router must be mapbox or osrm, got %q", c.Routing.Router))
	}

	// Mapbox is the only geocoder unless a Google key is set.
	if c.Mapbox.Token == "" && (c.Routing.Router == "mapbox" || c.Google.APIKey == "") {
		errs = append(errs, "mapbox.token is required")
	}

	switch c.Store.Driver {
	case "sqlite":
		if c.Store.SQLitePath == "" {
			errs = append(errs, "store.sqlite_path is required for the sqlite driver")
		}
	case "postgres":
		if c.Store.PostgresDSN == "" {
			errs = append(errs, "store.postgres_dsn is required for the postgres driver")
		}
	case "memory":
	default:
		errs = append(errs, fmt.Sprintf("store.driver must be sqlite, postgres or memory, got %q", c.Store.Driver))
	}

	if c.Session.TTL <= 0 {
		errs = append(errs, "session.ttl must be positive")
	}
	if c.Search.Concurrency <= 0 {
		errs = append(errs, "search.concurrency must be positive")
	}
	if c.Provider.Timeout <= 0 {
		errs = append(errs, "provider.timeout must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
