package httpapi

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"github.com/i474232898/route-weather/internal/auth"
	"github.com/i474232898/route-weather/internal/history"
	"github.com/i474232898/route-weather/internal/metrics"
	"github.com/i474232898/route-weather/internal/search"
	"github.com/i474232898/route-weather/internal/session"
)

var validate = validator.New()

const (
	DefaultIntervalKm = 30
	defaultHistoryLen = 20
)

// Accounts registers users and checks credentials.
type Accounts interface {
	CreateUser(ctx context.Context, username, password string) (bool, error)
	ResolveUser(ctx context.Context, username, password string) (int64, error)
}

// Searcher runs route searches.
type Searcher interface {
	Search(ctx context.Context, req search.Request) (*search.Result, error)
	Repeat(ctx context.Context, userID, recordID int64, intervalKm float64) (*search.Result, error)
}

// Dependencies holds everything the handlers need.
type Dependencies struct {
	Accounts Accounts
	Sessions session.Store
	Searches Searcher
	History  history.Store

	// Checks are run by /health; a nil map reports only liveness.
	Checks map[string]func(ctx context.Context) error

	// AuthRateLimit caps auth requests per IP per minute (0 disables).
	AuthRateLimit int
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, deps Dependencies) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(metrics.Middleware())
	app.Use(AccessLogMiddleware())

	app.Get("/metrics", metrics.Handler())
	app.Get("/health", healthHandler(deps))

	v1 := app.Group("/api/v1")

	authGroup := v1.Group("/auth")
	if deps.AuthRateLimit > 0 {
		authGroup.Use(limiter.New(limiter.Config{
			Max:        deps.AuthRateLimit,
			Expiration: time.Minute,
			KeyGenerator: func(c *fiber.Ctx) string {
				return c.IP()
			},
			LimitReached: func(c *fiber.Ctx) error {
				return newError(c, fiber.StatusTooManyRequests, "rate_limited", "too many requests, please try again later")
			},
		}))
	}
	authGroup.Post("/register", registerHandler(deps))
	authGroup.Post("/login", loginHandler(deps))
	authGroup.Post("/logout", RequireAuth(deps.Sessions), logoutHandler(deps))

	searches := v1.Group("/searches", RequireAuth(deps.Sessions))
	searches.Post("/", searchHandler(deps))
	searches.Get("/history", historyHandler(deps))
	searches.Post("/history/:id/repeat", repeatHandler(deps))
}

type credentials struct {
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"required,max=72"`
}

func registerHandler(deps Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req credentials
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if err := validate.Struct(req); err != nil {
			return errBadRequest(c, "全ての項目を入力してください。")
		}

		created, err := deps.Accounts.CreateUser(c.UserContext(), req.Username, req.Password)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrEmptyCredentials):
				return errBadRequest(c, "全ての項目を入力してください。")
			case errors.Is(err, auth.ErrPasswordTooLong):
				return errBadRequest(c, "パスワードが長すぎます。")
			}
			return errInternal(c, "failed to register user")
		}
		if !created {
			return errConflict(c, "そのユーザー名は既に使用されています。")
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"username": req.Username,
			"message":  "登録完了！ログインしてください。",
		})
	}
}

func loginHandler(deps Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req credentials
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if err := validate.Struct(req); err != nil {
			return errBadRequest(c, "全ての項目を入力してください。")
		}

		userID, err := deps.Accounts.ResolveUser(c.UserContext(), req.Username, req.Password)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidCredentials) || errors.Is(err, auth.ErrEmptyCredentials) {
				return errUnauthorized(c, "ユーザー名かパスワードが間違っています")
			}
			return errInternal(c, "failed to log in")
		}

		token, err := deps.Sessions.Create(c.UserContext(), userID)
		if err != nil {
			return errInternal(c, "failed to create session")
		}

		return c.JSON(fiber.Map{
			"token":    token,
			"userId":   userID,
			"username": req.Username,
		})
	}
}

func logoutHandler(deps Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerToken(c.Get(fiber.HeaderAuthorization))
		if err := deps.Sessions.Delete(c.UserContext(), token); err != nil {
			return errInternal(c, "failed to log out")
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// searchRequest is the body of POST /searches. A zero interval means the default.
type searchRequest struct {
	Start      string  `json:"start" validate:"required,max=200"`
	End        string  `json:"end" validate:"required,max=200"`
	IntervalKm float64 `json:"intervalKm" validate:"omitempty,min=10,max=1000"`
}

func searchHandler(deps Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req searchRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if err := validate.Struct(req); err != nil {
			return errBadRequest(c, err.Error())
		}

		res, err := deps.Searches.Search(c.UserContext(), search.Request{
			UserID:     currentUser(c),
			StartPlace: req.Start,
			EndPlace:   req.End,
			IntervalKm: intervalOrDefault(req.IntervalKm),
		})
		if err != nil {
			return searchError(c, err)
		}
		return c.JSON(res)
	}
}

type historyQuery struct {
	Limit int `validate:"min=1,max=100"`
}

func historyHandler(deps Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := historyQuery{Limit: c.QueryInt("limit", defaultHistoryLen)}
		if err := validate.Struct(q); err != nil {
			return errBadRequest(c, "limit must be between 1 and 100")
		}

		records, err := deps.History.ListFor(c.UserContext(), currentUser(c), q.Limit)
		if err != nil {
			return errInternal(c, "failed to load search history")
		}

		return c.JSON(fiber.Map{
			"records": records,
		})
	}
}

type repeatQuery struct {
	IntervalKm float64 `validate:"omitempty,min=10,max=1000"`
}

func repeatHandler(deps Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := strconv.ParseInt(c.Params("id"), 10, 64)
		if err != nil || id <= 0 {
			return errBadRequest(c, "invalid history id")
		}

		var q repeatQuery
		if raw := c.Query("intervalKm"); raw != "" {
			q.IntervalKm, err = strconv.ParseFloat(raw, 64)
			if err != nil {
				return errBadRequest(c, "intervalKm must be a number")
			}
		}
		if err := validate.Struct(q); err != nil {
			return errBadRequest(c, err.Error())
		}

		res, err := deps.Searches.Repeat(c.UserContext(), currentUser(c), id, intervalOrDefault(q.IntervalKm))
		if err != nil {
			return searchError(c, err)
		}
		return c.JSON(res)
	}
}

func intervalOrDefault(km float64) float64 {
	if km == 0 {
		return DefaultIntervalKm
	}
	return km
}

// searchError maps a failed search to a single message per failure kind.
func searchError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, search.ErrInvalidArgument):
		return errBadRequest(c, search.Message(err))
	case errors.Is(err, search.ErrLocationNotFound), errors.Is(err, search.ErrRouteNotFound):
		return errNotFound(c, search.Message(err))
	case errors.Is(err, history.ErrNotFound):
		return errNotFound(c, "履歴が見つかりませんでした。")
	default:
		return errInternal(c, search.Message(err))
	}
}

func healthHandler(deps Dependencies) fiber.Handler {
	startedAt := time.Now()

	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
		defer cancel()

		checks := make(map[string]string, len(deps.Checks))
		allOK := true
		for name, check := range deps.Checks {
			if err := check(ctx); err != nil {
				checks[name] = "error: " + err.Error()
				allOK = false
			} else {
				checks[name] = "ok"
			}
		}

		status := "ok"
		code := fiber.StatusOK
		if !allOK {
			status = "degraded"
			code = fiber.StatusServiceUnavailable
		}

		return c.Status(code).JSON(fiber.Map{
			"status":  status,
			"service": "route-weather",
			"uptime":  time.Since(startedAt).String(),
			"checks":  checks,
		})
	}
}
