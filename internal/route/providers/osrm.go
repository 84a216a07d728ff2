package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/sony/gobreaker"

	"github.com/i474232898/route-weather/internal/geo"
	"github.com/i474232898/route-weather/internal/resilience"
	"github.com/i474232898/route-weather/internal/route"
)

// OSRMProvider implements route.Router against an OSRM HTTP server.
type OSRMProvider struct {
	name    string
	baseURL string
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
}

func NewOSRMProvider(client *http.Client, baseURL string) *OSRMProvider {
	if baseURL == "" {
		baseURL = "https://router.project-osrm.org"
	}
	return &OSRMProvider{
		name:    "osrm",
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		circuit: resilience.NewBreaker("osrm"),
	}
}

func (p *OSRMProvider) Name() string {
	return p.name
}

func (p *OSRMProvider) Route(ctx context.Context, start, end geo.Coordinate, profile route.Profile) (route.Result, error) {
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("overview", "full")
		values.Set("geometries", "geojson")

		u := fmt.Sprintf("%s/route/v1/%s/%s;%s?%s",
			p.baseURL, profile, start.String(), end.String(), values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := resilience.Do(ctx, p.client, p.circuit, buildRequest)
	if err != nil {
		// OSRM answers NoRoute and NoSegment with 400 and a JSON code.
		return route.Result{}, noRouteFromStatus(err, "osrm")
	}
	defer resp.Body.Close()

	var payload directionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return route.Result{}, fmt.Errorf("decode osrm response: %w", err)
	}
	if payload.Code != "" && payload.Code != "Ok" {
		return route.Result{}, fmt.Errorf("%w: osrm code %s", route.ErrNoRoute, payload.Code)
	}
	return payload.first()
}

// noRouteFromStatus turns a 4xx answer carrying a NoRoute or NoSegment code
// into route.ErrNoRoute. Other errors are returned unchanged.
func noRouteFromStatus(err error, provider string) error {
	var se *resilience.StatusError
	if !errors.As(err, &se) {
		return err
	}
	var payload directionsResponse
	if json.Unmarshal(se.Body, &payload) != nil {
		return err
	}
	switch payload.Code {
	case "NoRoute", "NoSegment":
		return fmt.Errorf("%w: %s code %s", route.ErrNoRoute, provider, payload.Code)
	}
	return err
}
