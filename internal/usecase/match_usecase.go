package usecase

import (
	"context"
	"errors"
	"time"

	"taste-match/internal/domain/dna"
	"taste-match/internal/domain/match"
	"taste-match/internal/domain/matching"
	"taste-match/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

type IcebreakerGenerator interface {
	Generate(ctx context.Context, me, other dna.Persona) string
}

type MatchSettings struct {
	UnlockCost int
	// DiscoveryPageSize bounds one candidate query. Discovery keeps paging
	// until every candidate has a match.
	DiscoveryPageSize int
	DiscoveryCooldown time.Duration
	// UnlockTimeout bounds a shared unlock, which outlives any single caller.
	UnlockTimeout time.Duration
}

const (
	defaultDiscoveryPageSize = 50
	defaultUnlockTimeout     = 30 * time.Second
)

type UnlockResult struct {
	Unlocked        bool
	AlreadyUnlocked bool
	Icebreaker      string
	RestaurantName  string
	Budget          string
	PaymentRule     string
}

type MatchUsecase interface {
	ListOrCreate(ctx context.Context, initiatorID uuid.UUID) ([]match.WithCandidate, error)
	Unlock(ctx context.Context, initiatorID, matchID uuid.UUID) (UnlockResult, error)
}

type Matches struct {
	profiles    repository.ProfileRepository
	matches     repository.MatchRepository
	wallet      repository.WalletRepository
	scorer      *matching.Scorer
	icebreakers IcebreakerGenerator
	picker      match.Picker
	cache       Cache
	settings    MatchSettings
	logger      *zap.Logger

	unlocks singleflight.Group
}

type MatchDeps struct {
	Profiles    repository.ProfileRepository
	Matches     repository.MatchRepository
	Wallet      repository.WalletRepository
	Scorer      *matching.Scorer
	Icebreakers IcebreakerGenerator
	Picker      match.Picker
	Cache       Cache
	Logger      *zap.Logger
}

func NewMatchUsecase(deps MatchDeps, settings MatchSettings) *Matches {
	if deps.Scorer == nil {
		deps.Scorer = matching.NewScorer(nil)
	}
	if deps.Picker == nil {
		deps.Picker = matching.DefaultRand()
	}
	if deps.Cache == nil {
		deps.Cache = noopCache{}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if settings.UnlockCost <= 0 {
		settings.UnlockCost = match.DefaultUnlockCost
	}
	if settings.DiscoveryPageSize <= 0 {
		settings.DiscoveryPageSize = defaultDiscoveryPageSize
	}
	if settings.UnlockTimeout <= 0 {
		settings.UnlockTimeout = defaultUnlockTimeout
	}
	return &Matches{
		profiles:    deps.Profiles,
		matches:     deps.Matches,
		wallet:      deps.Wallet,
		scorer:      deps.Scorer,
		icebreakers: deps.Icebreakers,
		picker:      deps.Picker,
		cache:       deps.Cache,
		settings:    settings,
		logger:      deps.Logger,
	}
}

// ListOrCreate scores and records every not yet matched candidate, then
// returns all of the initiator's matches, best first.
func (u *Matches) ListOrCreate(ctx context.Context, initiatorID uuid.UUID) ([]match.WithCandidate, error) {
	if initiatorID == uuid.Nil {
		return nil, ErrUnauthorized
	}

	if err := u.discover(ctx, initiatorID); err != nil {
		return nil, err
	}

	list, err := u.matches.ListByInitiator(ctx, initiatorID)
	if err != nil {
		u.logger.Error("list matches failed", zap.String("initiator_id", initiatorID.String()), zap.Error(err))
		return nil, ErrInternal
	}
	return list, nil
}

func (u *Matches) discover(ctx context.Context, initiatorID uuid.UUID) error {
	key := discoveryCacheKey(initiatorID)
	acquired, err := u.cache.SetIfNotExists(ctx, key, "1", u.settings.DiscoveryCooldown)
	if err != nil {
		u.logger.Warn("discovery cooldown unavailable", zap.Error(err))
	}
	if !acquired {
		return nil
	}

	if err := u.discoverCandidates(ctx, initiatorID); err != nil {
		if delErr := u.cache.Delete(ctx, key); delErr != nil {
			u.logger.Warn("release discovery cooldown failed", zap.Error(delErr))
		}
		return err
	}
	return nil
}

func (u *Matches) discoverCandidates(ctx context.Context, initiatorID uuid.UUID) error {
	me, err := u.party(ctx, initiatorID)
	if err != nil {
		return err
	}

	var (
		created int
		scanned int
		seen    = map[uuid.UUID]struct{}{}
	)
	// Each page excludes candidates matched by the previous one, so paging
	// needs no offset. A page with nothing new means the store did not see
	// our writes and further pages would repeat it.
	for {
		page, err := u.profiles.ListCandidates(ctx, initiatorID, u.settings.DiscoveryPageSize)
		if err != nil {
			u.logger.Error("list candidates failed", zap.String("initiator_id", initiatorID.String()), zap.Error(err))
			return ErrInternal
		}

		fresh := 0
		for _, c := range page {
			if _, ok := seen[c.UserID]; ok {
				continue
			}
			seen[c.UserID] = struct{}{}
			fresh++

			isNew, err := u.record(ctx, initiatorID, me, c)
			if err != nil {
				return err
			}
			if isNew {
				created++
			}
		}
		scanned += len(page)

		if len(page) < u.settings.DiscoveryPageSize || fresh == 0 {
			break
		}
	}

	if created > 0 {
		u.logger.Info("matches discovered",
			zap.String("initiator_id", initiatorID.String()),
			zap.Int("created", created),
			zap.Int("candidates", scanned),
		)
	}
	return nil
}

func (u *Matches) record(ctx context.Context, initiatorID uuid.UUID, me matching.Party, c repository.Candidate) (bool, error) {
	if c.UserID == initiatorID {
		return false, nil
	}
	bd := u.scorer.Explain(me, matching.Party{Vector: c.Vector, Attrs: c.Attrs})
	if bd.Fallback {
		u.logger.Warn("scored with fallback, profile vector unusable",
			zap.String("initiator_id", initiatorID.String()),
			zap.String("candidate_id", c.UserID.String()),
			zap.Bool("initiator_vector_missing", me.Vector == nil),
			zap.Bool("candidate_vector_missing", c.Vector == nil),
		)
	}

	_, isNew, err := u.matches.CreateIfAbsent(ctx, match.Match{
		InitiatorID: initiatorID,
		CandidateID: c.UserID,
		Score:       bd.Score,
	})
	if err != nil {
		u.logger.Error("create match failed",
			zap.String("initiator_id", initiatorID.String()),
			zap.String("candidate_id", c.UserID.String()),
			zap.Error(err),
		)
		return false, ErrInternal
	}
	return isNew, nil
}

func (u *Matches) party(ctx context.Context, userID uuid.UUID) (matching.Party, error) {
	attrs, err := u.profiles.FindAttributes(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return matching.Party{}, ErrUnauthorized
		}
		u.logger.Error("load attributes failed", zap.String("user_id", userID.String()), zap.Error(err))
		return matching.Party{}, ErrInternal
	}

	p := matching.Party{Attrs: attrs}
	profile, err := u.profiles.FindByUserID(ctx, userID)
	switch {
	case err == nil:
		p.Vector = profile.Vector
	case errors.Is(err, repository.ErrProfileNotFound):
	default:
		u.logger.Error("load profile failed", zap.String("user_id", userID.String()), zap.Error(err))
		return matching.Party{}, ErrInternal
	}
	return p, nil
}

// Unlock reveals a match to its initiator. Repeated or concurrent calls for
// the same match charge once and return the same details.
func (u *Matches) Unlock(ctx context.Context, initiatorID, matchID uuid.UUID) (UnlockResult, error) {
	if initiatorID == uuid.Nil {
		return UnlockResult{}, ErrUnauthorized
	}
	if matchID == uuid.Nil {
		return UnlockResult{}, ErrMatchNotFound
	}

	// The shared call must not die with whichever caller started it; every
	// caller still returns as soon as its own ctx is done.
	key := initiatorID.String() + ":" + matchID.String()
	ch := u.unlocks.DoChan(key, func() (any, error) {
		shared, cancel := context.WithTimeout(context.WithoutCancel(ctx), u.settings.UnlockTimeout)
		defer cancel()
		return u.unlock(shared, initiatorID, matchID)
	})

	select {
	case <-ctx.Done():
		return UnlockResult{}, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return UnlockResult{}, r.Err
		}
		return r.Val.(UnlockResult), nil
	}
}

func (u *Matches) unlock(ctx context.Context, initiatorID, matchID uuid.UUID) (UnlockResult, error) {
	current, err := u.matches.FindOwned(ctx, matchID, initiatorID)
	if err != nil {
		return UnlockResult{}, u.mapUnlockErr(matchID, err)
	}
	if current.Unlocked {
		return unlockResult(current.Match, false), nil
	}

	icebreaker := u.icebreaker(ctx, initiatorID, current.Candidate)
	venue := match.PickVenue(u.picker)

	updated, applied, err := u.matches.Unlock(ctx, match.Unlock{
		MatchID:        matchID,
		InitiatorID:    initiatorID,
		Icebreaker:     icebreaker,
		RestaurantName: venue.RestaurantName,
		Budget:         venue.Budget,
		PaymentRule:    venue.PaymentRule,
		At:             time.Now().UTC(),
	}, func(txCtx context.Context) error {
		return u.wallet.Debit(txCtx, repository.Debit{
			UserID:  initiatorID,
			MatchID: matchID,
			Amount:  u.settings.UnlockCost,
			Reason:  match.TransactionTypeUnlock,
		})
	})
	if err != nil {
		return UnlockResult{}, u.mapUnlockErr(matchID, err)
	}

	if applied {
		u.logger.Info("match unlocked",
			zap.String("match_id", matchID.String()),
			zap.String("initiator_id", initiatorID.String()),
			zap.Int("cost", u.settings.UnlockCost),
		)
	}
	return unlockResult(updated, applied), nil
}

// icebreaker needs both personas; without them the default line is used.
func (u *Matches) icebreaker(ctx context.Context, initiatorID uuid.UUID, other match.Candidate) string {
	if u.icebreakers == nil || other.DNA == nil {
		return match.DefaultIcebreaker
	}
	mine, err := u.profiles.FindByUserID(ctx, initiatorID)
	if err != nil {
		if !errors.Is(err, repository.ErrProfileNotFound) {
			u.logger.Warn("load initiator profile for icebreaker failed", zap.Error(err))
		}
		return match.DefaultIcebreaker
	}
	return u.icebreakers.Generate(ctx, mine.Persona(), other.DNA.Persona())
}

func (u *Matches) mapUnlockErr(matchID uuid.UUID, err error) error {
	switch {
	case errors.Is(err, repository.ErrMatchNotFound):
		return ErrMatchNotFound
	case errors.Is(err, repository.ErrInsufficientBalance):
		return ErrInsufficientBalance
	case errors.Is(err, repository.ErrUserNotFound):
		return ErrUnauthorized
	default:
		u.logger.Error("unlock match failed", zap.String("match_id", matchID.String()), zap.Error(err))
		return ErrInternal
	}
}

func unlockResult(m match.Match, applied bool) UnlockResult {
	return UnlockResult{
		Unlocked:        m.Unlocked,
		AlreadyUnlocked: !applied,
		Icebreaker:      deref(m.Icebreaker),
		RestaurantName:  deref(m.RestaurantName),
		Budget:          deref(m.Budget),
		PaymentRule:     deref(m.PaymentRule),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
