package metrics

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "routeweather",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "routeweather",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"method", "path"})

	// ProviderRequests counts outbound provider calls by result
	// (ok, rate_limited, server_error, unexpected_status, transport_error, circuit_open).
	ProviderRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "routeweather",
		Subsystem: "provider",
		Name:      "requests_total",
		Help:      "Total outbound provider requests",
	}, []string{"provider", "result"})

	ProviderLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "routeweather",
		Subsystem: "provider",
		Name:      "request_duration_seconds",
		Help:      "Outbound provider request latency in seconds",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"provider"})

	// Searches counts search outcomes (success, invalid_argument, location_not_found, route_not_found).
	Searches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "routeweather",
		Subsystem: "search",
		Name:      "outcomes_total",
		Help:      "Total route searches by outcome",
	}, []string{"outcome"})

	WeatherLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "routeweather",
		Subsystem: "search",
		Name:      "weather_lookups_total",
		Help:      "Weather lookups issued for annotated points",
	}, []string{"result"})

	CheckpointsPerSearch = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "routeweather",
		Subsystem: "search",
		Name:      "checkpoints",
		Help:      "Checkpoints sampled per successful search",
		Buckets:   []float64{0, 1, 2, 5, 10, 20, 50, 100},
	})

	HistoryWriteErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "routeweather",
		Subsystem: "history",
		Name:      "write_errors_total",
		Help:      "Search records that could not be persisted",
	})

	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "routeweather",
		Subsystem: "auth",
		Name:      "active_sessions",
		Help:      "Sessions held by the in-memory session store",
	})
)

// ObserveProvider records one outbound provider call.
func ObserveProvider(provider, result string, took time.Duration) {
	ProviderRequests.WithLabelValues(provider, result).Inc()
	ProviderLatency.WithLabelValues(provider).Observe(took.Seconds())
}

// Middleware records request metrics.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		code := c.Response().StatusCode()
		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
		}
		status := strconv.Itoa(code)
		path := routeLabel(c, code)
		method := c.Method()

		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())

		return err
	}
}

// routeLabel returns the registered route pattern, never the raw request
// path. A 404 that did not reach a parameterised route is "unmatched".
func routeLabel(c *fiber.Ctx, code int) string {
	r := c.Route()
	if r == nil || r.Path == "" {
		return "unmatched"
	}
	if code == fiber.StatusNotFound && !strings.Contains(r.Path, ":") {
		return "unmatched"
	}
	return r.Path
}

// Handler returns a Fiber handler serving the Prometheus /metrics endpoint.
func Handler() fiber.Handler {
	handler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	return func(c *fiber.Ctx) error {
		handler(c.Context())
		return nil
	}
}
