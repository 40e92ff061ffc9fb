// Package api serves the task and chat HTTP API.
package api

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"

	"github.com/rcliao/todo-bridge/internal/assistant"
	"github.com/rcliao/todo-bridge/internal/gateway"
)

// Config holds the HTTP-facing settings.
type Config struct {
	CORSOrigins     []string
	SessionCookie   string
	SessionIDCookie string
	// AccessLog receives one line per request. Nil disables access logging.
	AccessLog io.Writer
}

type Server struct {
	app       *fiber.App
	cfg       Config
	gateway   *gateway.Gateway
	assistant *assistant.Assistant
	logger    *slog.Logger
}

// New builds the Fiber app and registers every route.
func New(cfg Config, gw *gateway.Gateway, asst *assistant.Assistant, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{cfg: cfg, gateway: gw, assistant: asst, logger: logger}

	s.app = fiber.New(fiber.Config{
		AppName:               "todo-bridge",
		DisableStartupMessage: true,
		ErrorHandler:          s.errorHandler,
	})

	s.app.Use(recover.New())
	s.app.Use(requestid.New(requestid.Config{
		Generator: uuid.NewString,
	}))
	if cfg.AccessLog != nil {
		s.app.Use(fiberlogger.New(fiberlogger.Config{
			Format: "[${time}] ${locals:requestid} ${status} ${method} ${path} ${latency}\n",
			Output: cfg.AccessLog,
		}))
	}
	if len(cfg.CORSOrigins) > 0 {
		origins := strings.Join(cfg.CORSOrigins, ",")
		s.app.Use(cors.New(cors.Config{
			AllowOrigins:     origins,
			AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
			AllowHeaders:     "Content-Type,Authorization",
			AllowCredentials: !strings.Contains(origins, "*"),
		}))
	}

	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.app.Get("/health", s.health)

	tasks := s.app.Group("/tasks", s.sessionMiddleware, s.requireUser)
	tasks.Get("", s.listTasks)
	tasks.Post("", s.createTask)
	tasks.Get("/:id", s.getTask)
	tasks.Put("/:id", s.updateTask)
	tasks.Delete("/:id", s.deleteTask)

	s.app.Post("/chat", s.sessionMiddleware, s.requireUser, s.chat)
}

// App exposes the underlying Fiber app, mainly for app.Test.
func (s *Server) App() *fiber.App { return s.app }

// Listen blocks serving on addr.
func (s *Server) Listen(addr string) error {
	s.logger.Info("http server listening", "addr", addr)
	return s.app.Listen(addr)
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}
