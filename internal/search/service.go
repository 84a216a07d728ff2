package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/i474232898/route-weather/internal/geo"
	"github.com/i474232898/route-weather/internal/history"
	"github.com/i474232898/route-weather/internal/metrics"
	"github.com/i474232898/route-weather/internal/route"
	"github.com/i474232898/route-weather/internal/weather"
)

// DefaultConcurrency bounds the weather lookups in flight for one search.
const DefaultConcurrency = 8

// RouteClient resolves places and routes. Absence is reported with ok=false.
type RouteClient interface {
	Geocode(ctx context.Context, place string) (geo.Coordinate, bool)
	FetchRoute(ctx context.Context, start, end geo.Coordinate, profile route.Profile) (route.Result, bool)
}

// WeatherClient returns the current observation or nil.
type WeatherClient interface {
	Observe(ctx context.Context, at geo.Coordinate) *weather.Observation
}

// Completed is published after every successful search.
type Completed struct {
	UserID          int64     `json:"userId"`
	StartPlace      string    `json:"startPlace"`
	EndPlace        string    `json:"endPlace"`
	DistanceKm      float64   `json:"distanceKm"`
	CheckpointCount int       `json:"checkpointCount"`
	MissingWeather  int       `json:"missingWeather"`
	CompletedAt     time.Time `json:"completedAt"`
}

// Publisher announces completed searches.
type Publisher interface {
	PublishSearchCompleted(ctx context.Context, ev Completed) error
}

type Service struct {
	routes      RouteClient
	weather     WeatherClient
	history     history.Store
	publisher   Publisher
	concurrency int
	log         *slog.Logger
	now         func() time.Time
}

type Option func(*Service)

// WithPublisher sets the publisher notified of completed searches.
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithConcurrency sets how many weather lookups may run at once.
func WithConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

func WithLogger(log *slog.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

func NewService(routes RouteClient, wx WeatherClient, store history.Store, opts ...Option) *Service {
	s := &Service{
		routes:      routes,
		weather:     wx,
		history:     store,
		concurrency: DefaultConcurrency,
		log:         slog.Default(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search geocodes both places, fetches the route, samples checkpoints and
// annotates start, checkpoints and end with the current weather.
//
// Missing weather never fails a search, and neither does a failed history
// write. Geocoding and routing failures return ErrLocationNotFound and
// ErrRouteNotFound before anything is recorded.
func (s *Service) Search(ctx context.Context, req Request) (res *Result, err error) {
	defer func() {
		metrics.Searches.WithLabelValues(Outcome(err)).Inc()
	}()

	req.StartPlace = strings.TrimSpace(req.StartPlace)
	req.EndPlace = strings.TrimSpace(req.EndPlace)
	if err := validate(req); err != nil {
		return nil, err
	}

	start, ok := s.routes.Geocode(ctx, req.StartPlace)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrLocationNotFound, req.StartPlace)
	}
	end, ok := s.routes.Geocode(ctx, req.EndPlace)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrLocationNotFound, req.EndPlace)
	}

	rt, ok := s.routes.FetchRoute(ctx, start, end, req.Profile)
	if !ok {
		return nil, fmt.Errorf("%w: %s -> %s", ErrRouteNotFound, req.StartPlace, req.EndPlace)
	}

	checkpoints, err := geo.Sample(rt.Polyline, req.IntervalKm)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}

	points := s.annotate(ctx, start, end, checkpoints)

	distanceKm := rt.DistanceKm()
	s.record(ctx, req, distanceKm)

	missing := 0
	for _, p := range points {
		if p.Weather == nil {
			missing++
		}
	}
	s.publish(ctx, Completed{
		UserID:          req.UserID,
		StartPlace:      req.StartPlace,
		EndPlace:        req.EndPlace,
		DistanceKm:      distanceKm,
		CheckpointCount: len(checkpoints),
		MissingWeather:  missing,
		CompletedAt:     s.now().UTC(),
	})

	metrics.CheckpointsPerSearch.Observe(float64(len(checkpoints)))
	s.log.Info("search completed",
		"user_id", req.UserID,
		"distance_km", distanceKm,
		"checkpoints", len(checkpoints),
		"missing_weather", missing,
	)

	return &Result{
		Route:  rt,
		Points: points,
		Summary: Summary{
			DistanceKm:      distanceKm,
			CheckpointCount: len(checkpoints),
			Message:         fmt.Sprintf("総距離: %.1f km / 天気ポイント: %d箇所", distanceKm, len(checkpoints)),
		},
	}, nil
}

// Repeat runs a past search of the user again with a new interval.
func (s *Service) Repeat(ctx context.Context, userID, recordID int64, intervalKm float64) (*Result, error) {
	rec, err := s.history.Get(ctx, userID, recordID)
	if err != nil {
		return nil, err
	}
	return s.Search(ctx, Request{
		UserID:     userID,
		StartPlace: rec.StartPlace,
		EndPlace:   rec.EndPlace,
		IntervalKm: intervalKm,
	})
}

func validate(req Request) error {
	if math.IsNaN(req.IntervalKm) || math.IsInf(req.IntervalKm, 0) || req.IntervalKm <= 0 {
		return fmt.Errorf("%w: interval must be a positive number of km, got %v", ErrInvalidArgument, req.IntervalKm)
	}
	if req.StartPlace == "" || req.EndPlace == "" {
		return fmt.Errorf("%w: start and end places are required", ErrInvalidArgument)
	}
	if _, err := route.ParseProfile(string(req.Profile)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	return nil
}

// annotate looks up weather for start, every checkpoint and end. Lookups run
// concurrently; each result is written to its own slot so the output keeps
// traversal order whatever the completion order.
func (s *Service) annotate(ctx context.Context, start, end geo.Coordinate, checkpoints []geo.Checkpoint) []AnnotatedPoint {
	points := make([]AnnotatedPoint, 0, len(checkpoints)+2)
	points = append(points, AnnotatedPoint{Role: RoleStart, Coordinate: start})
	for _, cp := range checkpoints {
		points = append(points, AnnotatedPoint{Role: RoleCheckpoint, Index: cp.Index, Coordinate: cp.Coordinate})
	}
	points = append(points, AnnotatedPoint{Role: RoleEnd, Coordinate: end})

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i := range points {
		i := i
		g.Go(func() error {
			points[i].Weather = s.weather.Observe(ctx, points[i].Coordinate)
			if points[i].Weather == nil {
				metrics.WeatherLookups.WithLabelValues("missing").Inc()
			} else {
				metrics.WeatherLookups.WithLabelValues("ok").Inc()
			}
			return nil
		})
	}
	_ = g.Wait()

	return points
}

func (s *Service) record(ctx context.Context, req Request, distanceKm float64) {
	if s.history == nil {
		return
	}
	err := s.history.Append(ctx, history.Record{
		UserID:     req.UserID,
		StartPlace: req.StartPlace,
		EndPlace:   req.EndPlace,
		DistanceKm: distanceKm,
		CreatedAt:  s.now().UTC(),
	})
	if err != nil {
		metrics.HistoryWriteErrors.Inc()
		s.log.Error("failed to record search", "user_id", req.UserID, "error", err)
	}
}

func (s *Service) publish(ctx context.Context, ev Completed) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishSearchCompleted(ctx, ev); err != nil && !errors.Is(err, context.Canceled) {
		s.log.Warn("failed to publish search event", "user_id", ev.UserID, "error", err)
	}
}
