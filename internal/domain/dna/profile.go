package dna

import (
	"time"

	"github.com/google/uuid"
)

// Answers holds the questionnaire answers keyed by question id.
type Answers struct {
	Industry string `json:"industry,omitempty"`
	MBTI     string `json:"mbti,omitempty"`
	Dietary  string `json:"dietary,omitempty"`
	Flavor   string `json:"flavor,omitempty"`
	Vibe     string `json:"vibe,omitempty"`
	Budget   string `json:"budget,omitempty"`
}

// Profile is a stored flavor DNA. Vector is nil when the stored radar data
// could not be decoded.
type Profile struct {
	UserID    uuid.UUID `json:"user_id"`
	Title     string    `json:"title"`
	Slogan    string    `json:"slogan"`
	Tags      []string  `json:"tags"`
	Vector    *Vector   `json:"radar_data"`
	Answers   Answers   `json:"answers"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Persona is the part of a profile that is shown to the other party.
type Persona struct {
	Title  string
	Slogan string
}

func (p Profile) Persona() Persona {
	return Persona{Title: p.Title, Slogan: p.Slogan}
}

// Generated is the output of a DNA generation, before it is bound to a user.
type Generated struct {
	Title  string
	Slogan string
	Tags   []string
	Vector Vector
}
