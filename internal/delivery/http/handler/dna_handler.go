package handler

import (
	"taste-match/internal/delivery/http/dto"
	"taste-match/internal/delivery/http/middleware"
	"taste-match/internal/pkg/response"
	"taste-match/internal/usecase"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

type DNAHandler struct {
	uc usecase.DNAUsecase
}

func NewDNAHandler(uc usecase.DNAUsecase) *DNAHandler {
	return &DNAHandler{uc: uc}
}

func (h *DNAHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	grp := r.Group("/dna")
	grp.Get("", h.Get)
	grp.Post("/generate", h.Generate)
}

// Get responds with null data when no profile exists yet.
func (h *DNAHandler) Get(c fiber.Ctx) error {
	userID := middleware.UserID(c)
	if userID == uuid.Nil {
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}

	p, err := h.uc.Get(c.Context(), userID)
	if err != nil {
		return mapMatchUsecaseError(err)
	}
	if p == nil {
		return response.Success(c, fiber.StatusOK, response.MessageOK, nil)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewDNAResponse(*p))
}

func (h *DNAHandler) Generate(c fiber.Ctx) error {
	userID := middleware.UserID(c)
	if userID == uuid.Nil {
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}

	var req dto.GenerateDNARequest
	if err := c.Bind().Body(&req); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	}

	p, err := h.uc.Generate(c.Context(), userID, req.Answers)
	if err != nil {
		return mapMatchUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewDNAResponse(p))
}
