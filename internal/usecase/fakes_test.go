package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"taste-match/internal/ai"
	"taste-match/internal/domain/dna"
	"taste-match/internal/domain/match"
	"taste-match/internal/repository"

	"github.com/google/uuid"
)

// store is an in-memory stand-in for Postgres. It enforces the
// (initiator, candidate) uniqueness and the conditional unlock.
type store struct {
	mu       sync.Mutex
	users    map[uuid.UUID]dna.Attributes
	names    map[uuid.UUID]string
	profiles map[uuid.UUID]dna.Profile
	matches  map[uuid.UUID]match.Match
	balances map[uuid.UUID]int
	txs      []match.Transaction
	seq      int

	findErr   error
	upserts   int
	creates   int
	listCalls int
	unlockIn  chan struct{}
	// waiting counts unlocks parked on unlockIn.
	waiting atomic.Int32
	// staleCandidates makes ListCandidates ignore existing matches.
	staleCandidates bool

	// rowMu plays the row lock taken by the conditional update.
	rowMu sync.Mutex
}

func newStore() *store {
	return &store{
		users:    map[uuid.UUID]dna.Attributes{},
		names:    map[uuid.UUID]string{},
		profiles: map[uuid.UUID]dna.Profile{},
		matches:  map[uuid.UUID]match.Match{},
		balances: map[uuid.UUID]int{},
	}
}

func (s *store) addUser(name string, attrs dna.Attributes, v *dna.Vector, balance int) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New()
	s.users[id] = attrs
	s.names[id] = name
	s.balances[id] = balance
	if v != nil {
		s.seq++
		s.profiles[id] = dna.Profile{
			UserID:    id,
			Title:     name + "的DNA",
			Slogan:    name + "的口号",
			Vector:    v,
			CreatedAt: time.Unix(int64(s.seq), 0),
		}
	}
	return id
}

func (s *store) transactions() []match.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]match.Transaction(nil), s.txs...)
}

func (s *store) matchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.matches)
}

// profile repository

type profileRepo struct{ s *store }

func (r profileRepo) FindByUserID(_ context.Context, userID uuid.UUID) (dna.Profile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.findErr != nil {
		return dna.Profile{}, r.s.findErr
	}
	p, ok := r.s.profiles[userID]
	if !ok {
		return dna.Profile{}, repository.ErrProfileNotFound
	}
	return p, nil
}

func (r profileRepo) Upsert(_ context.Context, p dna.Profile) (dna.Profile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[p.UserID]; !ok {
		return dna.Profile{}, repository.ErrUserNotFound
	}
	r.s.upserts++
	now := time.Now().UTC()
	if old, ok := r.s.profiles[p.UserID]; ok {
		p.CreatedAt = old.CreatedAt
	} else {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	r.s.profiles[p.UserID] = p
	return p, nil
}

func (r profileRepo) FindAttributes(_ context.Context, userID uuid.UUID) (dna.Attributes, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.users[userID]
	if !ok {
		return dna.Attributes{}, repository.ErrUserNotFound
	}
	return a, nil
}

func (r profileRepo) ListCandidates(_ context.Context, initiatorID uuid.UUID, limit int) ([]repository.Candidate, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.listCalls++
	matched := map[uuid.UUID]bool{}
	for _, m := range r.s.matches {
		if m.InitiatorID == initiatorID && !r.s.staleCandidates {
			matched[m.CandidateID] = true
		}
	}
	out := []repository.Candidate{}
	for id, p := range r.s.profiles {
		if id == initiatorID || matched[id] {
			continue
		}
		out = append(out, repository.Candidate{UserID: id, Vector: p.Vector, Attrs: r.s.users[id]})
	}
	sort.Slice(out, func(i, j int) bool {
		return r.s.profiles[out[i].UserID].CreatedAt.Before(r.s.profiles[out[j].UserID].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// match repository

type matchRepo struct{ s *store }

func (r matchRepo) CreateIfAbsent(_ context.Context, m match.Match) (match.Match, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.matches {
		if existing.InitiatorID == m.InitiatorID && existing.CandidateID == m.CandidateID {
			return existing, false, nil
		}
	}
	r.s.creates++
	r.s.seq++
	m.ID = uuid.New()
	m.CreatedAt = time.Unix(int64(r.s.seq), 0)
	r.s.matches[m.ID] = m
	return m, true, nil
}

func (r matchRepo) ListByInitiator(_ context.Context, initiatorID uuid.UUID) ([]match.WithCandidate, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []match.WithCandidate{}
	for _, m := range r.s.matches {
		if m.InitiatorID == initiatorID {
			out = append(out, r.withCandidate(m))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r matchRepo) FindOwned(_ context.Context, matchID, initiatorID uuid.UUID) (match.WithCandidate, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.matches[matchID]
	if !ok || m.InitiatorID != initiatorID {
		return match.WithCandidate{}, repository.ErrMatchNotFound
	}
	return r.withCandidate(m), nil
}

func (r matchRepo) Unlock(ctx context.Context, u match.Unlock, charge func(ctx context.Context) error) (match.Match, bool, error) {
	if r.s.unlockIn != nil {
		r.s.waiting.Add(1)
		<-r.s.unlockIn
	}
	// pgx fails every statement on a done context.
	if err := ctx.Err(); err != nil {
		return match.Match{}, false, err
	}
	r.s.rowMu.Lock()
	defer r.s.rowMu.Unlock()

	r.s.mu.Lock()
	m, ok := r.s.matches[u.MatchID]
	if !ok || m.InitiatorID != u.InitiatorID {
		r.s.mu.Unlock()
		return match.Match{}, false, repository.ErrMatchNotFound
	}
	if m.Unlocked {
		r.s.mu.Unlock()
		return m, false, nil
	}
	balances := map[uuid.UUID]int{}
	for k, v := range r.s.balances {
		balances[k] = v
	}
	txs := len(r.s.txs)
	r.s.mu.Unlock()

	// charge takes the store lock itself through the wallet.
	if err := charge(withTx(ctx)); err != nil {
		r.s.mu.Lock()
		r.s.balances = balances
		r.s.txs = r.s.txs[:txs]
		r.s.mu.Unlock()
		return match.Match{}, false, err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	at := u.At
	m.Unlocked = true
	m.Icebreaker = &u.Icebreaker
	m.RestaurantName = &u.RestaurantName
	m.Budget = &u.Budget
	m.PaymentRule = &u.PaymentRule
	m.UnlockedAt = &at
	r.s.matches[m.ID] = m
	return m, true, nil
}

func (r matchRepo) withCandidate(m match.Match) match.WithCandidate {
	c := match.Candidate{UserID: m.CandidateID, Name: r.s.names[m.CandidateID]}
	if p, ok := r.s.profiles[m.CandidateID]; ok {
		p := p
		c.DNA = &p
	}
	return match.WithCandidate{Match: m, Candidate: c}
}

type txMarker struct{}

func withTx(ctx context.Context) context.Context { return context.WithValue(ctx, txMarker{}, true) }

// wallet

type wallet struct {
	s      *store
	err    error
	sawTx  bool
	debits int
}

func (w *wallet) Balance(_ context.Context, userID uuid.UUID) (int, error) {
	w.s.mu.Lock()
	defer w.s.mu.Unlock()
	return w.s.balances[userID], nil
}

func (w *wallet) Debit(ctx context.Context, d repository.Debit) error {
	w.s.mu.Lock()
	defer w.s.mu.Unlock()
	w.debits++
	w.sawTx = ctx.Value(txMarker{}) != nil
	if w.err != nil {
		return w.err
	}
	if w.s.balances[d.UserID] < d.Amount {
		return repository.ErrInsufficientBalance
	}
	w.s.balances[d.UserID] -= d.Amount
	w.s.txs = append(w.s.txs, match.Transaction{
		ID:      uuid.New(),
		UserID:  d.UserID,
		MatchID: d.MatchID,
		Amount:  d.Amount,
		Type:    d.Reason,
	})
	return nil
}

// randomness

type fixedRand struct{ n int }

func (f fixedRand) IntN(n int) int {
	if f.n >= n {
		return n - 1
	}
	return f.n
}

// collaborators

type fakeIcebreakers struct {
	mu    sync.Mutex
	line  string
	calls int
	delay time.Duration
}

func (f *fakeIcebreakers) Generate(ctx context.Context, me, other dna.Persona) string {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
		}
	}
	return f.line
}

type memCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	locks   map[string]bool
	deleted []string
	err     error
}

func newMemCache() *memCache {
	return &memCache{data: map[string][]byte{}, locks: map[string]bool{}}
}

func (c *memCache) GetJSON(_ context.Context, key string, out any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return false, c.err
	}
	b, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, out)
}

func (c *memCache) SetJSON(_ context.Context, key string, value any, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.data[key] = b
	return nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deleted = append(c.deleted, key)
	delete(c.data, key)
	delete(c.locks, key)
	return c.err
}

func (c *memCache) SetIfNotExists(_ context.Context, key, _ string, _ time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return true, c.err
	}
	if c.locks[key] {
		return false, nil
	}
	c.locks[key] = true
	return true, nil
}

type scriptedStreamer struct {
	text string
	err  error
}

func (s scriptedStreamer) Stream(context.Context, string) (<-chan ai.Fragment, error) {
	if s.err != nil {
		return nil, s.err
	}
	ch := make(chan ai.Fragment, 1)
	ch <- ai.Fragment{Text: s.text}
	close(ch)
	return ch, nil
}

var errStoreDown = errors.New("store down")
