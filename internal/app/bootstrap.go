package app

import (
	"fmt"
	"strings"

	"taste-match/internal/config"
	"taste-match/internal/delivery/http/handler"
	"taste-match/internal/delivery/http/middleware"
	"taste-match/internal/delivery/http/routes"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"go.uber.org/zap"
)

type App struct {
	Fiber *fiber.App
}

func New(c *Container) *App {
	f := fiber.New(fiber.Config{AppName: c.Config.App.AppName})

	registerGlobalMiddleware(f, c.Config, c.Logger)
	registerRoutes(f, c)

	return &App{Fiber: f}
}

// Bootstrap builds the container and the HTTP app. The returned cleanup
// releases the database and cache connections.
func Bootstrap(cfg config.Config, logger *zap.Logger) (*App, func() error, error) {
	c, err := NewContainer(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return New(c), c.Close, nil
}

func registerGlobalMiddleware(app *fiber.App, cfg config.Config, logger *zap.Logger) {
	if app == nil {
		return
	}

	errMw := middleware.NewErrorMiddleware(logger.Named("http"))
	app.Use(errMw.Middleware())

	accessLog := middleware.NewAccessLogMiddleware(logger.Named("access"))
	app.Use(accessLog.Middleware())

	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.App.CORSAllowOrigins,
		AllowHeaders: []string{fiber.HeaderAuthorization, fiber.HeaderContentType, middleware.HeaderRequestID},
	}))
}

func registerRoutes(app *fiber.App, c *Container) {
	if app == nil {
		return
	}

	auth := middleware.NewAuthMiddleware(c.JWT)
	routes.NewRegistry(routes.Handlers{
		Health: handler.NewHealthHandler(c.DB),
		Match:  handler.NewMatchHandler(c.Matches),
		DNA:    handler.NewDNAHandler(c.DNA),
	}, auth.Middleware()).Register(app)
}

func ListenAddr(port string) (string, error) {
	p := strings.TrimSpace(port)
	if p == "" {
		return "", fmt.Errorf("empty HTTP port")
	}
	if strings.HasPrefix(p, ":") {
		return p, nil
	}
	return ":" + p, nil
}
