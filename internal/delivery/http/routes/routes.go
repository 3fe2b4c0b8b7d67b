package routes

import (
	"taste-match/internal/delivery/http/handler"

	"github.com/gofiber/fiber/v3"
)

type Handlers struct {
	Health *handler.HealthHandler
	Match  *handler.MatchHandler
	DNA    *handler.DNAHandler
}

type Registry struct {
	handlers Handlers
	auth     fiber.Handler
}

func NewRegistry(handlers Handlers, auth fiber.Handler) *Registry {
	return &Registry{handlers: handlers, auth: auth}
}

func (r *Registry) Register(app *fiber.App) {
	if app == nil {
		return
	}

	r.registerHealth(app)
	r.registerAPI(app)
}

func (r *Registry) registerHealth(app *fiber.App) {
	if r.handlers.Health != nil {
		r.handlers.Health.RegisterRoutes(app)
	}
}

func (r *Registry) registerAPI(app *fiber.App) {
	api := app.Group("/api")
	RegisterV1(api.Group("/v1"), r.auth, r.handlers)
}
