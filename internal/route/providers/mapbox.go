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
	"github.com/i474232898/route-weather/internal/route"
)

// MapboxProvider implements route.Geocoder and route.Router on top of the
// Mapbox geocoding v5 and directions v5 APIs.
type MapboxProvider struct {
	name     string
	token    string
	baseURL  string
	language string
	client   *http.Client
	geocode  *gobreaker.CircuitBreaker
	direct   *gobreaker.CircuitBreaker
}

func NewMapboxProvider(client *http.Client, token, language string) *MapboxProvider {
	if language == "" {
		language = "ja"
	}
	return &MapboxProvider{
		name:     "mapbox",
		token:    token,
		baseURL:  "https://api.mapbox.com",
		language: language,
		client:   client,
		geocode:  resilience.NewBreaker("mapbox-geocoding"),
		direct:   resilience.NewBreaker("mapbox-directions"),
	}
}

// WithBaseURL points the provider at another endpoint, e.g. a test server.
func (p *MapboxProvider) WithBaseURL(u string) *MapboxProvider {
	p.baseURL = strings.TrimRight(u, "/")
	return p
}

func (p *MapboxProvider) Name() string {
	return p.name
}

// Geocode returns the center of the best-matching feature.
func (p *MapboxProvider) Geocode(ctx context.Context, place string) (geo.Coordinate, error) {
	if p.token == "" {
		return geo.Coordinate{}, fmt.Errorf("mapbox access token is not configured")
	}
	place = strings.TrimSpace(place)
	if place == "" {
		return geo.Coordinate{}, route.ErrNoMatch
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("access_token", p.token)
		values.Set("limit", "1")
		values.Set("language", p.language)

		u := fmt.Sprintf("%s/geocoding/v5/mapbox.places/%s.json?%s",
			p.baseURL, url.PathEscape(place), values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := resilience.Do(ctx, p.client, p.geocode, buildRequest)
	if err != nil {
		return geo.Coordinate{}, err
	}
	defer resp.Body.Close()

	var payload struct {
		Features []struct {
			Center []float64 `json:"center"`
		} `json:"features"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return geo.Coordinate{}, fmt.Errorf("decode mapbox geocoding response: %w", err)
	}
	if len(payload.Features) == 0 {
		return geo.Coordinate{}, route.ErrNoMatch
	}

	return geo.FromLonLat(payload.Features[0].Center)
}

// Route fetches the first route with full-detail GeoJSON geometry.
func (p *MapboxProvider) Route(ctx context.Context, start, end geo.Coordinate, profile route.Profile) (route.Result, error) {
	if p.token == "" {
		return route.Result{}, fmt.Errorf("mapbox access token is not configured")
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("access_token", p.token)
		values.Set("geometries", "geojson")
		values.Set("overview", "full")

		u := fmt.Sprintf("%s/directions/v5/mapbox/%s/%s;%s?%s",
			p.baseURL, profile, start.String(), end.String(), values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := resilience.Do(ctx, p.client, p.direct, buildRequest)
	if err != nil {
		return route.Result{}, noRouteFromStatus(err, "mapbox")
	}
	defer resp.Body.Close()

	var payload directionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return route.Result{}, fmt.Errorf("decode mapbox directions response: %w", err)
	}
	return payload.first()
}

// directionsResponse is the subset shared by Mapbox directions and OSRM.
type directionsResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Geometry struct {
			Coordinates [][]float64 `json:"coordinates"`
		} `json:"geometry"`
		Distance float64 `json:"distance"`
		Duration float64 `json:"duration"`
	} `json:"routes"`
}

func (d directionsResponse) first() (route.Result, error) {
	if len(d.Routes) == 0 {
		return route.Result{}, route.ErrNoRoute
	}

	r := d.Routes[0]
	line := make(geo.Polyline, 0, len(r.Geometry.Coordinates))
	for _, pos := range r.Geometry.Coordinates {
		c, err := geo.FromLonLat(pos)
		if err != nil {
			return route.Result{}, err
		}
		line = append(line, c)
	}

	return route.Result{
		Polyline:        line,
		DistanceMeters:  r.Distance,
		DurationSeconds: r.Duration,
	}, nil
}
