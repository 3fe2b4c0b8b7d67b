package routes

import (
	v1 "taste-match/internal/delivery/http/routes/v1"

	"github.com/gofiber/fiber/v3"
)

func RegisterV1(r fiber.Router, auth fiber.Handler, handlers Handlers) {
	if r == nil {
		return
	}

	v1.Register(r, auth, handlers.Match, handlers.DNA)
}
