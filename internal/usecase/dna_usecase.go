package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"taste-match/internal/ai"
	"taste-match/internal/domain/dna"
	"taste-match/internal/logger"
	"taste-match/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const dnaPromptTemplate = `Based on the following food preference answers, generate a JSON object for a "口味DNA" profile. Answers: %s

Return ONLY valid JSON in this exact format:
{
  "title": "a fun 2-4 character Chinese title like 麻辣探险家",
  "slogan": "a catchy one-line Chinese slogan about their food personality",
  "tags": ["tag1", "tag2", "tag3", "tag4", "tag5"],
  "radarData": {
    "spicy": 0-100,
    "sweet": 0-100,
    "fresh": 0-100,
    "adventurous": 0-100,
    "social": 0-100,
    "refined": 0-100
  }
}`

type DNASettings struct {
	Timeout  time.Duration
	MaxBytes int
	CacheTTL time.Duration
}

type DNAUsecase interface {
	Generate(ctx context.Context, userID uuid.UUID, answers dna.Answers) (dna.Profile, error)
	Get(ctx context.Context, userID uuid.UUID) (*dna.Profile, error)
}

type DNA struct {
	profiles repository.ProfileRepository
	streamer ai.Streamer
	cache    Cache
	settings DNASettings
	logger   *zap.Logger
}

func NewDNAUsecase(profiles repository.ProfileRepository, streamer ai.Streamer, cache Cache, settings DNASettings, logger *zap.Logger) *DNA {
	if cache == nil {
		cache = noopCache{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if settings.Timeout <= 0 {
		settings.Timeout = 30 * time.Second
	}
	return &DNA{profiles: profiles, streamer: streamer, cache: cache, settings: settings, logger: logger}
}

// Generate derives a profile from the answers and replaces the stored one.
// Generation problems fall back to the deterministic derivation.
func (u *DNA) Generate(ctx context.Context, userID uuid.UUID, answers dna.Answers) (dna.Profile, error) {
	if userID == uuid.Nil {
		return dna.Profile{}, ErrUnauthorized
	}

	gen := u.generate(ctx, answers)
	saved, err := u.profiles.Upsert(ctx, dna.Profile{
		UserID:  userID,
		Title:   gen.Title,
		Slogan:  gen.Slogan,
		Tags:    gen.Tags,
		Vector:  &gen.Vector,
		Answers: answers,
	})
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return dna.Profile{}, ErrUnauthorized
		}
		u.logger.Error("save dna profile failed", zap.String("user_id", userID.String()), zap.Error(err))
		return dna.Profile{}, ErrInternal
	}

	if err := u.cache.Delete(ctx, dnaCacheKey(userID)); err != nil {
		u.logger.Warn("dna cache invalidation failed", zap.String("user_id", userID.String()), zap.Error(err))
	}
	return saved, nil
}

// Get returns nil when the user has not generated a profile yet.
func (u *DNA) Get(ctx context.Context, userID uuid.UUID) (*dna.Profile, error) {
	if userID == uuid.Nil {
		return nil, ErrUnauthorized
	}

	key := dnaCacheKey(userID)
	var cached dna.Profile
	if ok, err := u.cache.GetJSON(ctx, key, &cached); err != nil {
		u.logger.Warn("dna cache read failed", zap.String("user_id", userID.String()), zap.Error(err))
	} else if ok {
		return &cached, nil
	}

	p, err := u.profiles.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			return nil, nil
		}
		u.logger.Error("load dna profile failed", zap.String("user_id", userID.String()), zap.Error(err))
		return nil, ErrInternal
	}

	if err := u.cache.SetJSON(ctx, key, p, u.settings.CacheTTL); err != nil {
		u.logger.Warn("dna cache write failed", zap.String("user_id", userID.String()), zap.Error(err))
	}
	return &p, nil
}

func (u *DNA) generate(ctx context.Context, answers dna.Answers) dna.Generated {
	fallback := dna.Fallback(answers)
	if u.streamer == nil {
		return fallback
	}

	prompt, err := DNAPrompt(answers)
	if err != nil {
		return fallback
	}

	ctx, cancel := context.WithTimeout(ctx, u.settings.Timeout)
	defer cancel()

	text, err := ai.Generate(ctx, u.streamer, prompt, u.settings.MaxBytes)
	if err != nil {
		u.logger.Warn("dna generation failed, using fallback", zap.Error(err))
		return fallback
	}

	gen, err := ParseGenerated(text)
	if err != nil {
		u.logger.Warn("dna generation unparseable, using fallback",
			zap.Error(err),
			zap.String("raw", logger.TruncateForLog(text, 300)),
		)
		return fallback
	}
	if len(gen.Tags) == 0 {
		gen.Tags = fallback.Tags
	}
	return gen
}

func DNAPrompt(answers dna.Answers) (string, error) {
	b, err := json.Marshal(answers)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(dnaPromptTemplate, b), nil
}

type generatedPayload struct {
	Title     string         `json:"title"`
	Slogan    string         `json:"slogan"`
	Tags      []any          `json:"tags"`
	RadarData map[string]any `json:"radarData"`
}

// ParseGenerated reads the first JSON object in text. Out-of-range dimensions
// are clamped; missing or non-numeric ones are an error.
func ParseGenerated(text string) (dna.Generated, error) {
	raw, ok := ai.ExtractJSONObject(text)
	if !ok {
		return dna.Generated{}, errors.New("no json object in response")
	}

	var p generatedPayload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return dna.Generated{}, fmt.Errorf("decode generated dna: %w", err)
	}

	title := strings.TrimSpace(p.Title)
	if title == "" {
		return dna.Generated{}, errors.New("generated dna has no title")
	}

	v, err := dna.VectorFromMap(p.RadarData)
	if err != nil {
		return dna.Generated{}, err
	}

	tags := make([]string, 0, len(p.Tags))
	for _, t := range p.Tags {
		s, ok := t.(string)
		if !ok {
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			tags = append(tags, s)
		}
	}

	return dna.Generated{
		Title:  title,
		Slogan: strings.TrimSpace(p.Slogan),
		Tags:   tags,
		Vector: v,
	}, nil
}
