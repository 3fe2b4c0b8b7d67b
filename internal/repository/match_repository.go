package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"taste-match/internal/database"
	dbpostgres "taste-match/internal/database/postgres"
	"taste-match/internal/domain/dna"
	"taste-match/internal/domain/match"

	"github.com/google/uuid"
)

var ErrMatchNotFound = errors.New("match not found")

type MatchRepository interface {
	// CreateIfAbsent inserts m unless the (initiator, candidate) pair already
	// exists, in which case the stored match is returned with created=false.
	CreateIfAbsent(ctx context.Context, m match.Match) (stored match.Match, created bool, err error)
	ListByInitiator(ctx context.Context, initiatorID uuid.UUID) ([]match.WithCandidate, error)
	FindOwned(ctx context.Context, matchID, initiatorID uuid.UUID) (match.WithCandidate, error)
	// Unlock applies u only if the match is still locked. charge runs inside the
	// same transaction; an error from it aborts the unlock. applied=false means
	// the match was already unlocked and nothing was written.
	Unlock(ctx context.Context, u match.Unlock, charge func(ctx context.Context) error) (m match.Match, applied bool, err error)
}

const matchColumns = `id, initiator_id, candidate_id, score, unlocked, icebreaker, restaurant_name, budget, payment_rule, created_at, unlocked_at`

const matchWithCandidateSelect = `SELECT m.id, m.initiator_id, m.candidate_id, m.score, m.unlocked,
		m.icebreaker, m.restaurant_name, m.budget, m.payment_rule, m.created_at, m.unlocked_at,
		u.id, COALESCE(u.name, ''), COALESCE(u.avatar_url, ''),
		p.title, p.slogan, p.tags, p.radar_data, p.created_at, p.updated_at
	 FROM matches m
	 JOIN users u ON u.id = m.candidate_id
	 LEFT JOIN dna_profiles p ON p.user_id = m.candidate_id`

type PostgresMatchRepository struct {
	db database.DB
}

func NewPostgresMatchRepository(db database.DB) *PostgresMatchRepository {
	return &PostgresMatchRepository{db: db}
}

func (r *PostgresMatchRepository) CreateIfAbsent(ctx context.Context, m match.Match) (match.Match, bool, error) {
	if m.InitiatorID == uuid.Nil || m.CandidateID == uuid.Nil || m.InitiatorID == m.CandidateID {
		return match.Match{}, false, fmt.Errorf("invalid match pair %s -> %s", m.InitiatorID, m.CandidateID)
	}
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}

	row := r.db.QueryRow(ctx,
		`INSERT INTO matches (id, initiator_id, candidate_id, score)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (initiator_id, candidate_id) DO NOTHING
		 RETURNING `+matchColumns,
		m.ID, m.InitiatorID, m.CandidateID, m.Score,
	)
	created, err := scanMatch(row)
	if err == nil {
		return created, true, nil
	}
	if !dbpostgres.IsNoRows(err) {
		return match.Match{}, false, err
	}

	// Another writer owns the pair; read its row back.
	row = r.db.QueryRow(ctx,
		`SELECT `+matchColumns+` FROM matches WHERE initiator_id = $1 AND candidate_id = $2`,
		m.InitiatorID, m.CandidateID,
	)
	existing, err := scanMatch(row)
	if err != nil {
		return match.Match{}, false, err
	}
	return existing, false, nil
}

func (r *PostgresMatchRepository) ListByInitiator(ctx context.Context, initiatorID uuid.UUID) ([]match.WithCandidate, error) {
	rows, err := r.db.Query(ctx,
		matchWithCandidateSelect+`
		 WHERE m.initiator_id = $1
		 ORDER BY m.score DESC, m.created_at ASC, m.id ASC`,
		initiatorID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]match.WithCandidate, 0)
	for rows.Next() {
		mc, err := scanMatchWithCandidate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, mc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PostgresMatchRepository) FindOwned(ctx context.Context, matchID, initiatorID uuid.UUID) (match.WithCandidate, error) {
	row := r.db.QueryRow(ctx,
		matchWithCandidateSelect+`
		 WHERE m.id = $1 AND m.initiator_id = $2`,
		matchID, initiatorID,
	)
	mc, err := scanMatchWithCandidate(row)
	if err != nil {
		if dbpostgres.IsNoRows(err) {
			return match.WithCandidate{}, ErrMatchNotFound
		}
		return match.WithCandidate{}, err
	}
	return mc, nil
}

func (r *PostgresMatchRepository) Unlock(ctx context.Context, u match.Unlock, charge func(ctx context.Context) error) (match.Match, bool, error) {
	if u.At.IsZero() {
		u.At = time.Now().UTC()
	}

	var (
		updated match.Match
		applied bool
	)
	err := database.InTx(ctx, r.db, func(txCtx context.Context, tx database.Tx) error {
		// Concurrent updates of the same row serialize on its lock; the loser
		// re-checks unlocked = FALSE after the winner commits and matches nothing.
		row := tx.QueryRow(txCtx,
			`UPDATE matches SET
				unlocked = TRUE,
				icebreaker = $3,
				restaurant_name = $4,
				budget = $5,
				payment_rule = $6,
				unlocked_at = $7
			 WHERE id = $1 AND initiator_id = $2 AND unlocked = FALSE
			 RETURNING `+matchColumns,
			u.MatchID, u.InitiatorID, u.Icebreaker, u.RestaurantName, u.Budget, u.PaymentRule, u.At,
		)
		m, err := scanMatch(row)
		if err != nil {
			if dbpostgres.IsNoRows(err) {
				return nil
			}
			return err
		}
		if charge != nil {
			if err := charge(txCtx); err != nil {
				return err
			}
		}
		updated = m
		applied = true
		return nil
	})
	if err != nil {
		return match.Match{}, false, err
	}
	if applied {
		return updated, true, nil
	}

	current, err := r.FindOwned(ctx, u.MatchID, u.InitiatorID)
	if err != nil {
		return match.Match{}, false, err
	}
	if !current.Unlocked {
		return match.Match{}, false, fmt.Errorf("unlock of match %s was not applied", u.MatchID)
	}
	return current.Match, false, nil
}

func scanMatch(row database.Row) (match.Match, error) {
	var m match.Match
	err := row.Scan(
		&m.ID, &m.InitiatorID, &m.CandidateID, &m.Score, &m.Unlocked,
		&m.Icebreaker, &m.RestaurantName, &m.Budget, &m.PaymentRule, &m.CreatedAt, &m.UnlockedAt,
	)
	if err != nil {
		return match.Match{}, err
	}
	return m, nil
}

func scanMatchWithCandidate(row database.Row) (match.WithCandidate, error) {
	var (
		mc               match.WithCandidate
		title, slogan    *string
		tags, radar      []byte
		profileCreatedAt *time.Time
		profileUpdatedAt *time.Time
	)
	err := row.Scan(
		&mc.ID, &mc.InitiatorID, &mc.CandidateID, &mc.Score, &mc.Unlocked,
		&mc.Icebreaker, &mc.RestaurantName, &mc.Budget, &mc.PaymentRule, &mc.CreatedAt, &mc.UnlockedAt,
		&mc.Candidate.UserID, &mc.Candidate.Name, &mc.Candidate.AvatarURL,
		&title, &slogan, &tags, &radar, &profileCreatedAt, &profileUpdatedAt,
	)
	if err != nil {
		return match.WithCandidate{}, err
	}
	if title != nil {
		p := &dna.Profile{
			UserID: mc.Candidate.UserID,
			Title:  *title,
			Tags:   decodeTags(tags),
			Vector: decodeVector(radar),
		}
		if slogan != nil {
			p.Slogan = *slogan
		}
		if profileCreatedAt != nil {
			p.CreatedAt = *profileCreatedAt
		}
		if profileUpdatedAt != nil {
			p.UpdatedAt = *profileUpdatedAt
		}
		mc.Candidate.DNA = p
	}
	return mc, nil
}
