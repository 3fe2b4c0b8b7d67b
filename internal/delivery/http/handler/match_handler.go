package handler

import (
	"errors"

	"taste-match/internal/delivery/http/dto"
	"taste-match/internal/delivery/http/middleware"
	"taste-match/internal/pkg/response"
	"taste-match/internal/usecase"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

type MatchHandler struct {
	uc usecase.MatchUsecase
}

func NewMatchHandler(uc usecase.MatchUsecase) *MatchHandler {
	return &MatchHandler{uc: uc}
}

func (h *MatchHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	grp := r.Group("/matches")
	grp.Get("", h.List)
	grp.Post("/:id/unlock", h.Unlock)
}

func (h *MatchHandler) List(c fiber.Ctx) error {
	userID := middleware.UserID(c)
	if userID == uuid.Nil {
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}

	list, err := h.uc.ListOrCreate(c.Context(), userID)
	if err != nil {
		return mapMatchUsecaseError(err)
	}

	out := make([]dto.MatchResponse, 0, len(list))
	for _, m := range list {
		out = append(out, dto.NewMatchResponse(m))
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, out)
}

func (h *MatchHandler) Unlock(c fiber.Ctx) error {
	userID := middleware.UserID(c)
	if userID == uuid.Nil {
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}

	// A malformed id cannot name a match; report it like any unknown id.
	matchID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return middleware.NewAppError(fiber.StatusNotFound, "Match not found", nil, err)
	}

	res, err := h.uc.Unlock(c.Context(), userID, matchID)
	if err != nil {
		return mapMatchUsecaseError(err)
	}

	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.UnlockResponse{
		Unlocked:        res.Unlocked,
		AlreadyUnlocked: res.AlreadyUnlocked,
		Icebreaker:      res.Icebreaker,
		RestaurantName:  res.RestaurantName,
		Budget:          res.Budget,
		PaymentRule:     res.PaymentRule,
	})
}

func mapMatchUsecaseError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, usecase.ErrMatchNotFound):
		return middleware.NewAppError(fiber.StatusNotFound, "Match not found", nil, err)
	case errors.Is(err, usecase.ErrInsufficientBalance):
		return middleware.NewAppError(fiber.StatusPaymentRequired, "Insufficient balance", nil, err)
	case errors.Is(err, usecase.ErrUnauthorized):
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, err)
	case errors.Is(err, usecase.ErrInvalidInput):
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	default:
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
	}
}
