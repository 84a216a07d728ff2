package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/sony/gobreaker"

	"github.com/i474232898/route-weather/internal/geo"
	"github.com/i474232898/route-weather/internal/resilience"
	"github.com/i474232898/route-weather/internal/weather"
)

// OpenWeatherProvider implements the weather.Provider interface for OpenWeatherMap.
type OpenWeatherProvider struct {
	name     string
	apiKey   string
	baseURL  string
	language string
	client   *http.Client
	circuit  *gobreaker.CircuitBreaker
}

func NewOpenWeatherProvider(client *http.Client, apiKey, language string) *OpenWeatherProvider {
	if language == "" {
		language = "ja"
	}
	return &OpenWeatherProvider{
		name:     "openweathermap",
		apiKey:   apiKey,
		baseURL:  "https://api.openweathermap.org/data/2.5/weather",
		language: language,
		client:   client,
		circuit:  resilience.NewBreaker("openweather"),
	}
}

// WithBaseURL points the provider at another endpoint, e.g. a test server.
func (p *OpenWeatherProvider) WithBaseURL(u string) *OpenWeatherProvider {
	p.baseURL = strings.TrimRight(u, "/")
	return p
}

func (p *OpenWeatherProvider) Name() string {
	return p.name
}

func (p *OpenWeatherProvider) Observe(ctx context.Context, at geo.Coordinate) (weather.Observation, error) {
	if p.apiKey == "" {
		return weather.Observation{}, fmt.Errorf("openweather api key is not configured")
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("lat", fmt.Sprintf("%f", at.Lat))
		values.Set("lon", fmt.Sprintf("%f", at.Lon))
		values.Set("appid", p.apiKey)
		values.Set("units", "metric")
		values.Set("lang", p.language)

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := resilience.Do(ctx, p.client, p.circuit, buildRequest)
	if err != nil {
		return weather.Observation{}, err
	}
	defer resp.Body.Close()

	var payload struct {
		Main struct {
			Temp float64 `json:"temp"`
		} `json:"main"`
		Weather []struct {
			ID          int    `json:"id"`
			Main        string `json:"main"`
			Description string `json:"description"`
		} `json:"weather"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.Observation{}, fmt.Errorf("decode openweather response: %w", err)
	}
	if len(payload.Weather) == 0 {
		return weather.Observation{}, fmt.Errorf("openweather response has no weather entries")
	}

	w := payload.Weather[0]
	return weather.NewObservation(payload.Main.Temp, w.ID, w.Description), nil
}
