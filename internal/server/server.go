package server

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"winddash/internal/aligner"
	"winddash/internal/cache"
	"winddash/internal/config"
	"winddash/internal/dashboard"
	"winddash/internal/fetchers"
	"winddash/internal/grid"
	"winddash/internal/logger"
)

// Server is the dashboard HTTP API
type Server struct {
	app       *fiber.App
	config    *config.Config
	dashboard *dashboard.Service
	grid      *grid.Loader
	cache     *cache.Store
	log       *logger.Logger
}

// NewServer creates the fiber app and registers every route. store may be nil
// when payloads are not cached, as in mock mode.
func NewServer(cfg *config.Config, svc *dashboard.Service, gridLoader *grid.Loader, store *cache.Store) *Server {
	s := &Server{
		config:    cfg,
		dashboard: svc,
		grid:      gridLoader,
		cache:     store,
		log:       logger.Component("server"),
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "winddash",
		DisableStartupMessage: true,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          60 * time.Second,
		ErrorHandler:          s.errorHandler,
	})
	s.app.Use(recover.New())
	s.app.Use(s.requestLogger)

	s.registerRoutes()
	return s
}

// App exposes the fiber app, mainly for tests
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves on addr until Shutdown is called
func (s *Server) Listen(addr string) error {
	s.log.Info("starting server", logger.Fields{"addr": addr})
	return s.app.Listen(addr)
}

// Shutdown stops accepting connections and waits for in-flight requests
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) registerRoutes() {
	s.app.Get("/health", s.handleHealth)
	s.app.Get("/chart", s.handleChartHTML)
	s.app.Get("/chart.png", s.handleChartPNG)

	v1 := s.app.Group("/api/v1")
	v1.Get("/view", s.handleView)
	v1.Get("/grid/locate", s.handleLocate)
	v1.Get("/grid/cells", s.handleCells)
	v1.Get("/cache/stats", s.handleCacheStats)
}

// errorHandler maps pipeline errors to status codes with a JSON body
func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	code := statusFor(err)
	if code >= fiber.StatusInternalServerError {
		s.log.Error("request failed", err, logger.Fields{"path": c.Path(), "status": code})
	}
	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": err.Error(),
	})
}

func statusFor(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, dashboard.ErrInvalidRequest),
		errors.Is(err, fetchers.ErrInvalidParams),
		errors.Is(err, fetchers.ErrInvalidCollection),
		errors.Is(err, aligner.ErrInvalidAlignment):
		return fiber.StatusBadRequest
	case errors.Is(err, grid.ErrCellNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, fetchers.ErrRemoteRequest):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

func (s *Server) requestLogger(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	status := c.Response().StatusCode()
	if err != nil {
		status = statusFor(err)
	}
	s.log.Debug("request", logger.Fields{
		"method":   c.Method(),
		"path":     c.Path(),
		"status":   status,
		"duration": time.Since(start).String(),
	})
	return err
}
