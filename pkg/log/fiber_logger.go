package log

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

var (
	httpRequestsDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "tgsubs",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "The latency of the HTTP requests.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"api"})

	httpRequestsCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tgsubs",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Number of the HTTP requests.",
	}, []string{"api", "route", "method", "code"})
)

type LoggerConfig struct {
	Name          string
	Logger        *zap.SugaredLogger
	DoMetrics     bool
	LogErrorsOnly bool
}

func NewFiberLogger(conf *LoggerConfig) fiber.Handler {
	if conf == nil {
		conf = &LoggerConfig{Name: "http"}
	}

	logger := conf.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	logger = logger.Named(conf.Name)

	return func(c *fiber.Ctx) error {
		start := time.Now()
		chainErr := c.Next()
		wt := time.Since(start)

		// answer the error here to log the real status
		if chainErr != nil {
			if err := c.App().ErrorHandler(c, chainErr); err != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()

		if conf.DoMetrics {
			metrics(conf.Name, c, status, wt)
		}

		msg := fmt.Sprintf("%d %s %s %s", status, c.Method(), c.Path(), c.Request().URI().QueryArgs().String())

		l := logger.With("client", c.IP(), "status", status, "ms", wt.Milliseconds())

		if chainErr != nil {
			l = l.With("error", chainErr)
		}

		if conf.LogErrorsOnly {
			switch {
			case status < 300:
				l.Debug(msg)
			case status < 400:
				l.Info(msg)
			default:
				l.Warn(msg)
			}
		} else {
			l.Info(msg)
		}

		return nil
	}
}

func metrics(api string, ctx *fiber.Ctx, status int, t time.Duration) {
	httpRequestsDuration.With(prometheus.Labels{"api": api}).Observe(t.Seconds())

	httpRequestsCount.With(prometheus.Labels{
		"api":    api,
		"route":  ctx.Route().Path,
		"method": ctx.Method(),
		"code":   strconv.Itoa(status),
	}).Inc()
}
