// Package backend is the development REST server the admin console talks to.
package backend

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kdudkov/tgsubs/internal/database"
	"github.com/kdudkov/tgsubs/pkg/log"
	"github.com/kdudkov/tgsubs/pkg/model"
)

const (
	defaultPerPage = 10
	maxPerPage     = 100
)

type Server struct {
	f        *fiber.App
	addr     string
	dbm      *database.DatabaseManager
	logger   *zap.SugaredLogger
	validate *validator.Validate
}

func NewServer(dbm *database.DatabaseManager, addr, prefix string, logger *zap.SugaredLogger) *Server {
	s := &Server{
		addr:     addr,
		dbm:      dbm,
		logger:   logger.Named("http"),
		validate: validator.New(),
	}

	s.f = fiber.New(fiber.Config{
		EnablePrintRoutes:     false,
		DisableStartupMessage: true,
		ErrorHandler:          s.errorHandler,
	})

	s.f.Use(log.NewFiberLogger(&log.LoggerConfig{Name: "api", Logger: logger, DoMetrics: true, LogErrorsOnly: true}))

	api := s.f.Group(prefix)

	api.Get("/products", s.getProductsHandler())
	api.Get("/products/:id<int>", s.getProductHandler())
	api.Post("/products", s.createProductHandler())
	api.Put("/products/:id<int>", s.updateProductHandler())
	api.Delete("/products/:id<int>", s.deleteProductHandler())
	api.Post("/products/:id<int>/map", s.mapProductHandler())
	api.Delete("/products/:id<int>/unmap", s.unmapProductHandler())

	api.Get("/groups", s.getGroupsHandler(false))
	api.Get("/groups/unmapped", s.getGroupsHandler(true))

	api.Get("/subscriptions", s.getSubscriptionsHandler())
	api.Post("/subscribe", s.subscribeHandler())
	api.Post("/subscriptions/join", s.joinHandler())
	api.Post("/subscriptions/:id<int>/cancel", s.cancelHandler())

	api.Get("/users", s.getUsersHandler())

	s.f.Get("/metrics", getMetricsHandler())

	return s
}

func (s *Server) App() *fiber.App {
	return s.f
}

func (s *Server) Address() string {
	return s.addr
}

func (s *Server) Listen() error {
	s.logger.Infof("listening at %s", s.addr)

	return s.f.Listen(s.addr)
}

func (s *Server) Shutdown() error {
	return s.f.Shutdown()
}

// errorHandler answers every error with {"message": ...}.
func (s *Server) errorHandler(ctx *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := err.Error()

	var (
		fe *fiber.Error
		de *database.Error
		ve *validationError
	)

	switch {
	case errors.As(err, &ve):
		return ctx.Status(fiber.StatusBadRequest).JSON(model.Message{Message: ve.Error(), Errors: ve.errs})
	case errors.As(err, &de):
		code, msg = de.Code, de.Message
	case errors.As(err, &fe):
		code, msg = fe.Code, fe.Message
	default:
		s.logger.Errorf("%s %s: %s", ctx.Method(), ctx.Path(), err.Error())
	}

	return ctx.Status(code).JSON(model.Message{Message: msg})
}

func getMetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(
		prometheus.DefaultGatherer,
		promhttp.HandlerOpts{DisableCompression: true},
	))
}
