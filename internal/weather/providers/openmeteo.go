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

// OpenMeteoProvider implements the weather.Provider interface for Open-Meteo.
// It needs no API key. WMO weather codes are translated to the equivalent
// OpenWeatherMap condition ids so categorization stays the same.
type OpenMeteoProvider struct {
	name     string
	baseURL  string
	language string
	client   *http.Client
	circuit  *gobreaker.CircuitBreaker
}

func NewOpenMeteoProvider(client *http.Client) *OpenMeteoProvider {
	return &OpenMeteoProvider{
		name:     "openmeteo",
		baseURL:  "https://api.open-meteo.com/v1/forecast",
		language: "ja",
		client:   client,
		circuit:  resilience.NewBreaker("openmeteo"),
	}
}

// WithLanguage selects the description language. Open-Meteo returns no text,
// so only "ja" and English are available; anything other than "ja" is English.
func (p *OpenMeteoProvider) WithLanguage(lang string) *OpenMeteoProvider {
	if lang != "" {
		p.language = strings.ToLower(lang)
	}
	return p
}

// WithBaseURL points the provider at another endpoint, e.g. a test server.
func (p *OpenMeteoProvider) WithBaseURL(u string) *OpenMeteoProvider {
	p.baseURL = strings.TrimRight(u, "/")
	return p
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

func (p *OpenMeteoProvider) Observe(ctx context.Context, at geo.Coordinate) (weather.Observation, error) {
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("latitude", fmt.Sprintf("%f", at.Lat))
		values.Set("longitude", fmt.Sprintf("%f", at.Lon))
		values.Set("current_weather", "true")

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := resilience.Do(ctx, p.client, p.circuit, buildRequest)
	if err != nil {
		return weather.Observation{}, err
	}
	defer resp.Body.Close()

	var payload struct {
		CurrentWeather *struct {
			Temperature float64 `json:"temperature"`
			WeatherCode int     `json:"weathercode"`
		} `json:"current_weather"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.Observation{}, fmt.Errorf("decode openmeteo response: %w", err)
	}
	if payload.CurrentWeather == nil {
		return weather.Observation{}, fmt.Errorf("openmeteo response has no current_weather")
	}

	code, desc := translateWMO(payload.CurrentWeather.WeatherCode)
	if p.language == "ja" {
		desc = japaneseDescriptions[code]
	}
	return weather.NewObservation(payload.CurrentWeather.Temperature, code, desc), nil
}

// translateWMO maps a WMO weather interpretation code to the closest
// OpenWeatherMap condition id and an English description.
func translateWMO(code int) (int, string) {
	switch code {
	case 0:
		return 800, "clear sky"
	case 1:
		return 801, "mainly clear"
	case 2:
		return 802, "partly cloudy"
	case 3:
		return 804, "overcast"
	case 45, 48:
		return 741, "fog"
	case 51:
		return 300, "light drizzle"
	case 53:
		return 301, "drizzle"
	case 55:
		return 302, "dense drizzle"
	case 56, 57:
		return 311, "freezing drizzle"
	case 61:
		return 500, "light rain"
	case 63:
		return 501, "moderate rain"
	case 65:
		return 502, "heavy rain"
	case 66, 67:
		return 511, "freezing rain"
	case 71:
		return 600, "light snow"
	case 73:
		return 601, "snow"
	case 75:
		return 602, "heavy snow"
	case 77:
		return 600, "snow grains"
	case 80:
		return 520, "light rain showers"
	case 81:
		return 521, "rain showers"
	case 82:
		return 522, "violent rain showers"
	case 85:
		return 620, "light snow showers"
	case 86:
		return 622, "heavy snow showers"
	case 95:
		return 211, "thunderstorm"
	case 96:
		return 201, "thunderstorm with hail"
	case 99:
		return 202, "thunderstorm with heavy hail"
	default:
		return 0, "unknown"
	}
}

// japaneseDescriptions follows the wording OpenWeatherMap uses for lang=ja.
var japaneseDescriptions = map[int]string{
	0:   "不明",
	800: "晴天",
	801: "薄い雲",
	802: "雲",
	804: "厚い雲",
	741: "霧",
	300: "弱い霧雨",
	301: "霧雨",
	302: "強い霧雨",
	311: "着氷性の霧雨",
	500: "小雨",
	501: "適度な雨",
	502: "強い雨",
	511: "着氷性の雨",
	520: "弱いにわか雨",
	521: "にわか雨",
	522: "激しいにわか雨",
	600: "小雪",
	601: "雪",
	602: "大雪",
	620: "弱いにわか雪",
	622: "強いにわか雪",
	201: "ひょうを伴う雷雨",
	202: "激しいひょうを伴う雷雨",
	211: "雷雨",
}
