package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"taste-match/internal/database"
	"taste-match/internal/domain/match"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var created = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func strp(s string) *string { return &s }

func matchRow(m match.Match) []any {
	var icebreaker, restaurant, budget, rule, unlockedAt any
	if m.Icebreaker != nil {
		icebreaker = m.Icebreaker
	}
	if m.RestaurantName != nil {
		restaurant = m.RestaurantName
	}
	if m.Budget != nil {
		budget = m.Budget
	}
	if m.PaymentRule != nil {
		rule = m.PaymentRule
	}
	if m.UnlockedAt != nil {
		unlockedAt = m.UnlockedAt
	}
	return []any{
		m.ID, m.InitiatorID, m.CandidateID, m.Score, m.Unlocked,
		icebreaker, restaurant, budget, rule, m.CreatedAt, unlockedAt,
	}
}

// candidateRow appends the candidate columns; a nil title means no profile.
func candidateRow(m match.Match, name string, title *string, radar []byte) []any {
	row := matchRow(m)
	row = append(row, m.CandidateID, name, "")
	if title == nil {
		return append(row, nil, nil, nil, nil, nil, nil)
	}
	return append(row, title, strp("口号"), []byte(`["麻辣"]`), radar, &created, &created)
}

func pendingMatch() match.Match {
	return match.Match{ID: uuid.New(), InitiatorID: uuid.New(), CandidateID: uuid.New(), Score: 77, CreatedAt: created}
}

func unlockedCopy(m match.Match) match.Match {
	at := created.Add(time.Hour)
	m.Unlocked = true
	m.Icebreaker = strp("一起吃饭吧")
	m.RestaurantName = strp("海底捞")
	m.Budget = strp("人均80-120")
	m.PaymentRule = strp("AA制")
	m.UnlockedAt = &at
	return m
}

func TestCreateIfAbsent_Inserts(t *testing.T) {
	m := pendingMatch()
	db := newFakeDB(t, step{match: "insert into matches", row: matchRow(m)})

	got, isNew, err := NewPostgresMatchRepository(db).CreateIfAbsent(context.Background(), m)
	require.NoError(t, err)
	assert.True(t, isNew)
	assert.Equal(t, m.ID, got.ID)
	assert.Equal(t, 77, got.Score)
	assert.Contains(t, db.calls[0].query, "on conflict (initiator_id, candidate_id) do nothing")
	assert.True(t, db.done())
}

func TestCreateIfAbsent_ConflictReadsExistingRow(t *testing.T) {
	m := pendingMatch()
	existing := m
	existing.ID = uuid.New()
	existing.Score = 42

	db := newFakeDB(t,
		step{match: "insert into matches", err: pgx.ErrNoRows},
		step{match: "from matches where initiator_id = $1 and candidate_id = $2", row: matchRow(existing)},
	)

	got, isNew, err := NewPostgresMatchRepository(db).CreateIfAbsent(context.Background(), m)
	require.NoError(t, err)
	assert.False(t, isNew)
	assert.Equal(t, existing.ID, got.ID)
	assert.Equal(t, 42, got.Score)
	assert.Equal(t, []any{m.InitiatorID, m.CandidateID}, db.calls[1].args)
}

func TestCreateIfAbsent_ReadBackFailure(t *testing.T) {
	db := newFakeDB(t,
		step{match: "insert into matches", err: pgx.ErrNoRows},
		step{match: "select", err: pgx.ErrNoRows},
	)

	_, _, err := NewPostgresMatchRepository(db).CreateIfAbsent(context.Background(), pendingMatch())
	require.ErrorIs(t, err, pgx.ErrNoRows)
}

func TestCreateIfAbsent_InsertError(t *testing.T) {
	boom := errors.New("connection reset")
	db := newFakeDB(t, step{match: "insert into matches", err: boom})

	_, _, err := NewPostgresMatchRepository(db).CreateIfAbsent(context.Background(), pendingMatch())
	require.ErrorIs(t, err, boom)
	assert.Len(t, db.calls, 1)
}

func TestCreateIfAbsent_RejectsSelfMatch(t *testing.T) {
	db := newFakeDB(t)
	id := uuid.New()

	_, _, err := NewPostgresMatchRepository(db).CreateIfAbsent(context.Background(), match.Match{InitiatorID: id, CandidateID: id})
	require.Error(t, err)
	assert.Empty(t, db.calls)
}

func TestFindOwned(t *testing.T) {
	m := pendingMatch()
	db := newFakeDB(t, step{match: "where m.id = $1 and m.initiator_id = $2", row: candidateRow(m, "素素", strp("清新派"), []byte(`{"spicy":10,"sweet":55,"fresh":95,"adventurous":35,"social":40,"refined":80}`))})

	got, err := NewPostgresMatchRepository(db).FindOwned(context.Background(), m.ID, m.InitiatorID)
	require.NoError(t, err)
	assert.Equal(t, "素素", got.Candidate.Name)
	require.NotNil(t, got.Candidate.DNA)
	assert.Equal(t, "清新派", got.Candidate.DNA.Title)
	assert.Equal(t, []string{"麻辣"}, got.Candidate.DNA.Tags)
	require.NotNil(t, got.Candidate.DNA.Vector)
	assert.Equal(t, 95.0, got.Candidate.DNA.Vector.Fresh)
}

func TestFindOwned_CandidateWithoutProfile(t *testing.T) {
	m := pendingMatch()
	db := newFakeDB(t, step{match: "from matches m", row: candidateRow(m, "阿杰", nil, nil)})

	got, err := NewPostgresMatchRepository(db).FindOwned(context.Background(), m.ID, m.InitiatorID)
	require.NoError(t, err)
	assert.Nil(t, got.Candidate.DNA)
}

func TestFindOwned_MalformedRadarKeepsProfile(t *testing.T) {
	m := pendingMatch()
	db := newFakeDB(t, step{match: "from matches m", row: candidateRow(m, "阿杰", strp("吃货"), []byte(`{"spicy":"lots"}`))})

	got, err := NewPostgresMatchRepository(db).FindOwned(context.Background(), m.ID, m.InitiatorID)
	require.NoError(t, err)
	require.NotNil(t, got.Candidate.DNA)
	assert.Nil(t, got.Candidate.DNA.Vector)
}

func TestFindOwned_Missing(t *testing.T) {
	db := newFakeDB(t, step{match: "from matches m", err: pgx.ErrNoRows})

	_, err := NewPostgresMatchRepository(db).FindOwned(context.Background(), uuid.New(), uuid.New())
	require.ErrorIs(t, err, ErrMatchNotFound)
}

func TestListByInitiator(t *testing.T) {
	a, b := pendingMatch(), pendingMatch()
	db := newFakeDB(t, step{match: "order by m.score desc, m.created_at asc, m.id asc", rows: [][]any{
		candidateRow(a, "a", nil, nil),
		candidateRow(b, "b", strp("t"), []byte(`{}`)),
	}})

	list, err := NewPostgresMatchRepository(db).ListByInitiator(context.Background(), a.InitiatorID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, a.ID, list[0].ID)
	assert.Equal(t, "b", list[1].Candidate.Name)
}

func unlockOf(m match.Match) match.Unlock {
	return match.Unlock{
		MatchID: m.ID, InitiatorID: m.InitiatorID,
		Icebreaker: "一起吃饭吧", RestaurantName: "海底捞", Budget: "人均80-120", PaymentRule: "AA制",
		At: created.Add(time.Hour),
	}
}

func TestUnlock_AppliesAndChargesInsideTransaction(t *testing.T) {
	m := pendingMatch()
	db := newFakeDB(t,
		step{match: "update matches set unlocked = true", row: matchRow(unlockedCopy(m))},
		step{match: "update users set balance", affected: 1},
	)

	var sawTx bool
	got, applied, err := NewPostgresMatchRepository(db).Unlock(context.Background(), unlockOf(m), func(ctx context.Context) error {
		_, sawTx = database.TxFrom(ctx)
		_, err := database.Conn(ctx, db).Exec(ctx, `UPDATE users SET balance = balance - 10`)
		return err
	})
	require.NoError(t, err)
	assert.True(t, applied)
	assert.True(t, got.Unlocked)
	assert.Equal(t, "海底捞", *got.RestaurantName)
	assert.True(t, sawTx)

	assert.Contains(t, db.calls[0].query, "unlocked = false")
	assert.True(t, db.calls[0].inTx)
	assert.True(t, db.calls[1].inTx, "charge must share the unlock transaction")
	assert.Equal(t, 1, db.committed)
	assert.Zero(t, db.rolledBack)
}

func TestUnlock_ChargeFailureRollsBack(t *testing.T) {
	m := pendingMatch()
	db := newFakeDB(t, step{match: "update matches", row: matchRow(unlockedCopy(m))})

	_, applied, err := NewPostgresMatchRepository(db).Unlock(context.Background(), unlockOf(m), func(context.Context) error {
		return ErrInsufficientBalance
	})
	require.ErrorIs(t, err, ErrInsufficientBalance)
	assert.False(t, applied)
	assert.Zero(t, db.committed)
	assert.Equal(t, 1, db.rolledBack)
}

func TestUnlock_AlreadyUnlockedReturnsStoredDetails(t *testing.T) {
	m := pendingMatch()
	stored := unlockedCopy(m)
	stored.RestaurantName = strp("鼎泰丰")
	db := newFakeDB(t,
		step{match: "update matches", err: pgx.ErrNoRows},
		step{match: "where m.id = $1 and m.initiator_id = $2", row: candidateRow(stored, "素素", nil, nil)},
	)

	charged := false
	got, applied, err := NewPostgresMatchRepository(db).Unlock(context.Background(), unlockOf(m), func(context.Context) error {
		charged = true
		return nil
	})
	require.NoError(t, err)
	assert.False(t, applied)
	assert.False(t, charged)
	assert.Equal(t, "鼎泰丰", *got.RestaurantName)
	assert.False(t, db.calls[1].inTx)
}

func TestUnlock_MissingMatch(t *testing.T) {
	m := pendingMatch()
	db := newFakeDB(t,
		step{match: "update matches", err: pgx.ErrNoRows},
		step{match: "from matches m", err: pgx.ErrNoRows},
	)

	_, _, err := NewPostgresMatchRepository(db).Unlock(context.Background(), unlockOf(m), nil)
	require.ErrorIs(t, err, ErrMatchNotFound)
}

func TestUnlock_NotAppliedButStillLocked(t *testing.T) {
	m := pendingMatch()
	db := newFakeDB(t,
		step{match: "update matches", err: pgx.ErrNoRows},
		step{match: "from matches m", row: candidateRow(m, "素素", nil, nil)},
	)

	_, applied, err := NewPostgresMatchRepository(db).Unlock(context.Background(), unlockOf(m), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "was not applied")
	assert.False(t, applied)
	assert.NotErrorIs(t, err, ErrMatchNotFound)
}
