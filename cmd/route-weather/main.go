package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	httpapi "github.com/i474232898/route-weather/internal/api/http"
	"github.com/i474232898/route-weather/internal/auth"
	"github.com/i474232898/route-weather/internal/config"
	"github.com/i474232898/route-weather/internal/events"
	"github.com/i474232898/route-weather/internal/history"
	"github.com/i474232898/route-weather/internal/logging"
	"github.com/i474232898/route-weather/internal/route"
	routeproviders "github.com/i474232898/route-weather/internal/route/providers"
	"github.com/i474232898/route-weather/internal/scheduler"
	"github.com/i474232898/route-weather/internal/search"
	"github.com/i474232898/route-weather/internal/session"
	"github.com/i474232898/route-weather/internal/store"
	"github.com/i474232898/route-weather/internal/weather"
	weatherproviders "github.com/i474232898/route-weather/internal/weather/providers"
)

// repository is what every store driver provides.
type repository interface {
	history.Store
	auth.UserRepository
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	checks := make(map[string]func(context.Context) error)

	// Storage
	repo, closeRepo, err := openStore(ctx, cfg.Store, checks)
	if err != nil {
		log.Fatalf("store: %v", err)
	}
	defer closeRepo()

	// Sessions: Valkey when configured, in-memory otherwise.
	var sessions session.Store
	var purger scheduler.Purger
	if cfg.Valkey.Addr != "" {
		vs, err := session.NewValkeyStore(cfg.Valkey.Addr, cfg.Session.TTL)
		if err != nil {
			log.Fatalf("valkey: %v", err)
		}
		defer vs.Close()
		sessions = vs
		checks["valkey"] = vs.Ping
	} else {
		ms := session.NewMemoryStore(cfg.Session.TTL)
		sessions = ms
		purger = ms
	}

	sched := scheduler.New(purger, cfg.Session.PurgeInterval, slog.Default())
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	// Shared HTTP client for outbound provider calls; each call also carries
	// its own context deadline.
	httpClient := &http.Client{Timeout: cfg.Provider.Timeout}

	routes := newRouteClient(cfg, httpClient)
	wx := weather.NewClient(newWeatherProvider(cfg, httpClient), cfg.Provider.Timeout, slog.Default())

	var publisher search.Publisher = events.Nop{}
	if cfg.NATS.URL != "" {
		pub, err := events.NewPublisher(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats unavailable; search events disabled", "error", err)
		} else {
			defer pub.Close()
			publisher = pub
			checks["nats"] = func(context.Context) error {
				if !pub.Connected() {
					return fmt.Errorf("disconnected")
				}
				return nil
			}
		}
	}
	searches := search.NewService(routes, wx, repo,
		search.WithConcurrency(cfg.Search.Concurrency),
		search.WithLogger(slog.Default()),
		search.WithPublisher(publisher),
	)

	app := fiber.New(fiber.Config{
		AppName:               "route-weather",
		DisableStartupMessage: true,
		ReadTimeout:           cfg.Server.ReadTimeout,
		WriteTimeout:          cfg.Server.WriteTimeout,
		BodyLimit:             64 * 1024,
		ErrorHandler:          httpapi.ErrorHandler,
	})
	app.Use(cors.New(cors.Config{
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	httpapi.RegisterRoutes(app, httpapi.Dependencies{
		Accounts:      auth.NewService(repo, 0),
		Sessions:      sessions,
		Searches:      searches,
		History:       repo,
		Checks:        checks,
		AuthRateLimit: 20,
	})

	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("route-weather server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			slog.Error("fiber server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutdown signal received, draining connections")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}
	slog.Info("server stopped")
}

func openStore(ctx context.Context, cfg config.StoreConfig, checks map[string]func(context.Context) error) (repository, func(), error) {
	switch cfg.Driver {
	case "postgres":
		pg, err := store.OpenPostgres(ctx, cfg.PostgresDSN, cfg.MaxConns)
		if err != nil {
			return nil, nil, err
		}
		checks["database"] = pg.Ping
		return pg, pg.Close, nil
	case "memory":
		slog.Warn("using in-memory store; users and history are lost on restart")
		return store.NewMemoryStore(cfg.MaxHistory), func() {}, nil
	default:
		lite, err := store.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		checks["database"] = lite.Ping
		return lite, func() { _ = lite.Close() }, nil
	}
}

func newRouteClient(cfg *config.Config, httpClient *http.Client) *route.Client {
	var geocoders []route.Geocoder
	var router route.Router

	if cfg.Mapbox.Token != "" {
		mapbox := routeproviders.NewMapboxProvider(httpClient, cfg.Mapbox.Token, cfg.Mapbox.Language)
		geocoders = append(geocoders, mapbox)
		router = mapbox
	}
	// Google is consulted only for places Mapbox cannot resolve.
	if cfg.Google.APIKey != "" {
		geocoders = append(geocoders, routeproviders.NewGoogleGeocoder(cfg.Google.APIKey))
	}
	if cfg.Routing.Router == "osrm" {
		router = routeproviders.NewOSRMProvider(httpClient, cfg.Routing.OSRMURL)
	}

	return route.NewClient(geocoders, router, cfg.Provider.Timeout, slog.Default())
}

func newWeatherProvider(cfg *config.Config, httpClient *http.Client) weather.Provider {
	if cfg.Weather.Provider == "openmeteo" {
		return weatherproviders.NewOpenMeteoProvider(httpClient).WithLanguage(cfg.Weather.Language)
	}
	return weatherproviders.NewOpenWeatherProvider(httpClient, cfg.Weather.APIKey, cfg.Weather.Language)
}
