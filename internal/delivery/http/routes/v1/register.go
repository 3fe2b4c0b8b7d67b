package v1

import (
	"taste-match/internal/delivery/http/handler"

	"github.com/gofiber/fiber/v3"
)

// Register mounts the authenticated API. Every route sits behind auth.
func Register(r fiber.Router, auth fiber.Handler, matches *handler.MatchHandler, dna *handler.DNAHandler) {
	if r == nil || auth == nil {
		return
	}

	protected := r.Group("", auth)

	if matches != nil {
		matches.RegisterRoutes(protected)
	}
	if dna != nil {
		dna.RegisterRoutes(protected)
	}
}
