package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsAndEnv(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("MAPBOX_ACCESS_TOKEN", "pk.test")
	t.Setenv("OPENWEATHER_API_KEY", "owm-test")
	t.Setenv("ROUTEWEATHER_SERVER_PORT", "9090")
	t.Setenv("ROUTEWEATHER_PROVIDER_TIMEOUT", "5s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "pk.test", cfg.Mapbox.Token)
	assert.Equal(t, "owm-test", cfg.Weather.APIKey)
	assert.Equal(t, "ja", cfg.Mapbox.Language)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "route_history.db", cfg.Store.SQLitePath)
	assert.Equal(t, 5*time.Second, cfg.Provider.Timeout)
	assert.Equal(t, 24*time.Hour, cfg.Session.TTL)
}

func TestLoad_MissingKeys(t *testing.T) {
	wd, wdErr := os.Getwd()
	require.NoError(t, wdErr)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("MAPBOX_ACCESS_TOKEN", "")
	t.Setenv("OPENWEATHER_API_KEY", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mapbox.token is required")
	assert.Contains(t, err.Error(), "weather.api_key is required")
}

func validConfig() Config {
	return Config{
		Server:   ServerConfig{Port: 8080, ReadTimeout: time.Second, WriteTimeout: time.Second},
		Mapbox:   MapboxConfig{Token: "pk"},
		Weather:  WeatherConfig{Provider: "openmeteo"},
		Routing:  RoutingConfig{Router: "mapbox"},
		Store:    StoreConfig{Driver: "memory"},
		Session:  SessionConfig{TTL: time.Hour},
		Search:   SearchConfig{Concurrency: 4},
		Provider: ProviderConfig{Timeout: time.Second},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"unknown weather provider", func(c *Config) { c.Weather.Provider = "darksky" }, "weather.provider"},
		{"unknown router", func(c *Config) { c.Routing.Router = "here" }, "routing.router"},
		{"postgres without dsn", func(c *Config) { c.Store.Driver = "postgres" }, "store.postgres_dsn"},
		{"unknown driver", func(c *Config) { c.Store.Driver = "mysql" }, "store.driver"},
		{"osrm with google geocoder", func(c *Config) {
			c.Mapbox.Token = ""
			c.Routing = RoutingConfig{Router: "osrm", OSRMURL: "http://osrm"}
			c.Google.APIKey = "g"
		}, ""},
		{"osrm without any geocoder", func(c *Config) {
			c.Mapbox.Token = ""
			c.Routing = RoutingConfig{Router: "osrm", OSRMURL: "http://osrm"}
		}, "mapbox.token"},
		{"zero concurrency", func(c *Config) { c.Search.Concurrency = 0 }, "search.concurrency"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
