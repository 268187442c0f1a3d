package api

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"inventorydash/internal/config"
	"inventorydash/internal/dashboard"
	"inventorydash/internal/infrastructure"
)

// RequestRecorder receives one observation per served request.
type RequestRecorder interface {
	RecordRequest(ctx context.Context, method, route string, status int, d time.Duration)
}

// ServerDeps are the collaborators of the HTTP surface. Telemetry may be nil.
type ServerDeps struct {
	Service   *dashboard.Service
	Config    *config.Config
	Logger    *slog.Logger
	Telemetry *infrastructure.Telemetry
}

// NewServer builds the echo instance with middleware and every route.
func NewServer(deps ServerDeps) *echo.Echo {
	cfg := deps.Config
	logger := deps.Logger

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	h := NewHandler(deps.Service, cfg.WebSocket, cfg.Server.AllowedOrigins, logger)
	e.Validator = h.validator
	e.HTTPErrorHandler = HTTPErrorHandler(logger)

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
		RequestIDHandler: func(c echo.Context, id string) {
			c.SetRequest(c.Request().WithContext(infrastructure.WithRequestID(c.Request().Context(), id)))
		},
	}))
	e.Use(requestLogger(logger))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:  cfg.Server.AllowedOrigins,
		ExposeHeaders: []string{echo.HeaderContentDisposition},
	}))
	if deps.Telemetry != nil {
		e.Use(requestMetrics(deps.Telemetry))
	}
	if cfg.RateLimit.Enabled {
		e.Use(middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
			Skipper: skipProbes,
			Store: middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
				Rate:      rate.Limit(cfg.RateLimit.RPS),
				Burst:     cfg.RateLimit.Burst,
				ExpiresIn: 3 * time.Minute,
			}),
		}))
	}

	h.RegisterRoutes(e)
	if deps.Telemetry != nil {
		e.GET("/metrics", echo.WrapHandler(deps.Telemetry.Handler))
	}
	return e
}

func skipProbes(c echo.Context) bool {
	p := c.Request().URL.Path
	return p == "/healthz" || p == "/metrics" || strings.HasSuffix(p, "/ws")
}

func requestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
			}
			level := slog.LevelInfo
			if v.Error != nil {
				attrs = append(attrs, slog.String("error", v.Error.Error()))
				if v.Status >= 500 {
					level = slog.LevelError
				}
			}
			logger.LogAttrs(c.Request().Context(), level, "http request", attrs...)
			return nil
		},
	})
}

func requestMetrics(rec RequestRecorder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				status = toAPIError(err).StatusCode
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			rec.RecordRequest(c.Request().Context(), c.Request().Method, route, status, time.Since(start))
			return err
		}
	}
}
