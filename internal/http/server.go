package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/jmehdipour/rate-table-editor/internal/config"
	"github.com/jmehdipour/rate-table-editor/internal/http/middleware"
	"github.com/jmehdipour/rate-table-editor/internal/metrics"
	"github.com/jmehdipour/rate-table-editor/internal/report"
	"github.com/labstack/echo/v4"
	echoMid "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// UsageFetcher serves the dashboard data.
type UsageFetcher interface {
	Fetch(ctx context.Context, days int) (report.Usage, error)
}

type Deps struct {
	Usage    UsageFetcher
	Redis    redis.Cmdable       // optional, enables rate limiting of /data
	Gatherer prometheus.Gatherer // defaults to prometheus.DefaultGatherer, collectors registered there
	Logger   *zap.Logger
}

type Server struct {
	e   *echo.Echo
	log *zap.Logger
}

func NewServer(cfg config.DashboardConfig, d Deps) *Server {
	if d.Gatherer == nil {
		metrics.MustRegisterDefault()
		d.Gatherer = prometheus.DefaultGatherer
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}

	// echo
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echoMid.Recover(), requestLogger(d.Logger), countRequests())

	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))

	// health
	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	// middlewares
	rlMW := middleware.RateLimitMiddleware(middleware.RateLimitConfig{
		Redis:          d.Redis,
		RPS:            cfg.RateLimit.RPS,
		KeyPrefix:      "rl:dash:",
		Window:         time.Second,
		RetryAfterHint: true,
	})

	// routes
	e.GET("/", indexHandler())
	e.POST("/data", usageDataHandler(d.Usage, d.Logger), rlMW)

	return &Server{e: e, log: d.Logger}
}

func (s *Server) Handler() http.Handler { return s.e }

func (s *Server) Start(addr string) error {
	s.log.Info("dashboard listening", zap.String("addr", addr))
	return s.e.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error { return s.e.Shutdown(ctx) }

func requestLogger(log *zap.Logger) echo.MiddlewareFunc {
	return echoMid.RequestLoggerWithConfig(echoMid.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v echoMid.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				log.Warn("request failed", append(fields, zap.Error(v.Error))...)
				return nil
			}
			log.Debug("request", fields...)
			return nil
		},
	})
}

func countRequests() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			metrics.DashboardRequestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
			return err
		}
	}
}
