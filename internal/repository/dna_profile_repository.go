package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"taste-match/internal/database"
	dbpostgres "taste-match/internal/database/postgres"
	"taste-match/internal/domain/dna"

	"github.com/google/uuid"
)

var (
	ErrProfileNotFound = errors.New("dna profile not found")
	ErrUserNotFound    = errors.New("user not found")
)

// Candidate is a user with a completed profile who can be scored against an
// initiator.
type Candidate struct {
	UserID uuid.UUID
	Vector *dna.Vector
	Attrs  dna.Attributes
}

type ProfileRepository interface {
	FindByUserID(ctx context.Context, userID uuid.UUID) (dna.Profile, error)
	Upsert(ctx context.Context, p dna.Profile) (dna.Profile, error)
	FindAttributes(ctx context.Context, userID uuid.UUID) (dna.Attributes, error)
	ListCandidates(ctx context.Context, initiatorID uuid.UUID, limit int) ([]Candidate, error)
}

type PostgresProfileRepository struct {
	db database.DB
}

func NewPostgresProfileRepository(db database.DB) *PostgresProfileRepository {
	return &PostgresProfileRepository{db: db}
}

func (r *PostgresProfileRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (dna.Profile, error) {
	row := r.db.QueryRow(ctx,
		`SELECT user_id, title, slogan, tags, radar_data, answers, created_at, updated_at
		 FROM dna_profiles
		 WHERE user_id = $1`,
		userID,
	)
	p, err := scanProfile(row)
	if err != nil {
		if dbpostgres.IsNoRows(err) {
			return dna.Profile{}, ErrProfileNotFound
		}
		return dna.Profile{}, err
	}
	return p, nil
}

// Upsert replaces the whole profile. Partial updates are not supported.
func (r *PostgresProfileRepository) Upsert(ctx context.Context, p dna.Profile) (dna.Profile, error) {
	if p.UserID == uuid.Nil {
		return dna.Profile{}, ErrUserNotFound
	}
	if p.Vector == nil {
		return dna.Profile{}, fmt.Errorf("%w: missing", dna.ErrMalformedVector)
	}
	radar, err := json.Marshal(p.Vector.Clamp())
	if err != nil {
		return dna.Profile{}, err
	}
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return dna.Profile{}, err
	}
	answers, err := json.Marshal(p.Answers)
	if err != nil {
		return dna.Profile{}, err
	}

	now := time.Now().UTC()
	row := r.db.QueryRow(ctx,
		`INSERT INTO dna_profiles (user_id, title, slogan, tags, radar_data, answers, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		 ON CONFLICT (user_id) DO UPDATE SET
			title = EXCLUDED.title,
			slogan = EXCLUDED.slogan,
			tags = EXCLUDED.tags,
			radar_data = EXCLUDED.radar_data,
			answers = EXCLUDED.answers,
			updated_at = EXCLUDED.updated_at
		 RETURNING user_id, title, slogan, tags, radar_data, answers, created_at, updated_at`,
		p.UserID, p.Title, p.Slogan, tagsJSON, radar, answers, now,
	)
	return scanProfile(row)
}

func (r *PostgresProfileRepository) FindAttributes(ctx context.Context, userID uuid.UUID) (dna.Attributes, error) {
	row := r.db.QueryRow(ctx,
		`SELECT COALESCE(industry, ''), COALESCE(mbti, ''), COALESCE(job, ''), COALESCE(age_range, ''), health_certified
		 FROM users
		 WHERE id = $1`,
		userID,
	)
	var (
		a    dna.Attributes
		mbti string
	)
	if err := row.Scan(&a.Industry, &mbti, &a.JobTitle, &a.AgeRange, &a.HealthCertified); err != nil {
		if dbpostgres.IsNoRows(err) {
			return dna.Attributes{}, ErrUserNotFound
		}
		return dna.Attributes{}, err
	}
	a.MBTI = dna.ParseMBTI(mbti)
	return a, nil
}

// ListCandidates returns users with a profile that the initiator has no match
// with yet, oldest profiles first.
func (r *PostgresProfileRepository) ListCandidates(ctx context.Context, initiatorID uuid.UUID, limit int) ([]Candidate, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.Query(ctx,
		`SELECT u.id, p.radar_data,
			COALESCE(u.industry, ''), COALESCE(u.mbti, ''), COALESCE(u.job, ''), COALESCE(u.age_range, ''), u.health_certified
		 FROM users u
		 JOIN dna_profiles p ON p.user_id = u.id
		 WHERE u.id <> $1
		   AND NOT EXISTS (
			SELECT 1 FROM matches m WHERE m.initiator_id = $1 AND m.candidate_id = u.id
		   )
		 ORDER BY p.created_at ASC, u.id ASC
		 LIMIT $2`,
		initiatorID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Candidate, 0)
	for rows.Next() {
		var (
			c     Candidate
			radar []byte
			mbti  string
		)
		if err := rows.Scan(&c.UserID, &radar, &c.Attrs.Industry, &mbti, &c.Attrs.JobTitle, &c.Attrs.AgeRange, &c.Attrs.HealthCertified); err != nil {
			return nil, err
		}
		c.Attrs.MBTI = dna.ParseMBTI(mbti)
		c.Vector = decodeVector(radar)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func scanProfile(row database.Row) (dna.Profile, error) {
	var (
		p       dna.Profile
		tags    []byte
		radar   []byte
		answers []byte
	)
	if err := row.Scan(&p.UserID, &p.Title, &p.Slogan, &tags, &radar, &answers, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return dna.Profile{}, err
	}
	p.Tags = decodeTags(tags)
	p.Vector = decodeVector(radar)
	if len(answers) > 0 {
		_ = json.Unmarshal(answers, &p.Answers)
	}
	return p, nil
}

// decodeVector returns nil for malformed radar data so scoring can fall back.
func decodeVector(raw []byte) *dna.Vector {
	v, err := dna.ParseVector(raw)
	if err != nil {
		return nil
	}
	return &v
}

func decodeTags(raw []byte) []string {
	tags := []string{}
	if len(raw) == 0 {
		return tags
	}
	if err := json.Unmarshal(raw, &tags); err != nil {
		return []string{}
	}
	return tags
}
