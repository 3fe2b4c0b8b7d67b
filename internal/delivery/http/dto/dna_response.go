package dto

import (
	"time"

	"taste-match/internal/domain/dna"
)

type GenerateDNARequest struct {
	Answers dna.Answers `json:"answers"`
}

type DNAResponse struct {
	Title     string      `json:"title"`
	Slogan    string      `json:"slogan"`
	Tags      []string    `json:"tags"`
	RadarData *dna.Vector `json:"radar_data"`
	UpdatedAt *time.Time  `json:"updated_at,omitempty"`
}

func NewDNAResponse(p dna.Profile) DNAResponse {
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	out := DNAResponse{
		Title:     p.Title,
		Slogan:    p.Slogan,
		Tags:      tags,
		RadarData: p.Vector,
	}
	if !p.UpdatedAt.IsZero() {
		t := p.UpdatedAt
		out.UpdatedAt = &t
	}
	return out
}
