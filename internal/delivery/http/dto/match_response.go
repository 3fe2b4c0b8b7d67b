package dto

import (
	"time"

	"taste-match/internal/domain/match"

	"github.com/google/uuid"
)

type MatchUserResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	AvatarURL string    `json:"avatar_url"`
}

type MatchResponse struct {
	ID             uuid.UUID         `json:"id"`
	Score          int               `json:"score"`
	Unlocked       bool              `json:"unlocked"`
	Status         string            `json:"status"`
	User           MatchUserResponse `json:"user"`
	DNA            *DNAResponse      `json:"dna"`
	Icebreaker     string            `json:"icebreaker,omitempty"`
	RestaurantName string            `json:"restaurant_name,omitempty"`
	Budget         string            `json:"budget,omitempty"`
	PaymentRule    string            `json:"payment_rule,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UnlockedAt     *time.Time        `json:"unlocked_at,omitempty"`
}

type UnlockResponse struct {
	Unlocked        bool   `json:"unlocked"`
	AlreadyUnlocked bool   `json:"already_unlocked"`
	Icebreaker      string `json:"icebreaker"`
	RestaurantName  string `json:"restaurant_name"`
	Budget          string `json:"budget"`
	PaymentRule     string `json:"payment_rule"`
}

func NewMatchResponse(m match.WithCandidate) MatchResponse {
	out := MatchResponse{
		ID:       m.ID,
		Score:    m.Score,
		Unlocked: m.Unlocked,
		Status:   string(m.Status()),
		User: MatchUserResponse{
			ID:        m.Candidate.UserID,
			Name:      m.Candidate.Name,
			AvatarURL: m.Candidate.AvatarURL,
		},
		CreatedAt:  m.CreatedAt,
		UnlockedAt: m.UnlockedAt,
	}
	if m.Candidate.DNA != nil {
		d := NewDNAResponse(*m.Candidate.DNA)
		out.DNA = &d
	}
	if m.Unlocked {
		out.Icebreaker = value(m.Icebreaker)
		out.RestaurantName = value(m.RestaurantName)
		out.Budget = value(m.Budget)
		out.PaymentRule = value(m.PaymentRule)
	}
	return out
}

func value(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
