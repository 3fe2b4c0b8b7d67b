package match

import (
	"time"

	"taste-match/internal/domain/dna"

	"github.com/google/uuid"
)

const (
	TransactionTypeUnlock = "unlock"

	DefaultUnlockCost = 10
	DefaultIcebreaker = "你好呀！看到我们口味很合拍，要不要一起约顿饭？"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusUnlocked Status = "unlocked"
)

// Match is directed: InitiatorID discovered CandidateID. The unlock fields are
// written once, together with Unlocked.
type Match struct {
	ID             uuid.UUID
	InitiatorID    uuid.UUID
	CandidateID    uuid.UUID
	Score          int
	Unlocked       bool
	Icebreaker     *string
	RestaurantName *string
	Budget         *string
	PaymentRule    *string
	CreatedAt      time.Time
	UnlockedAt     *time.Time
}

func (m Match) Status() Status {
	if m.Unlocked {
		return StatusUnlocked
	}
	return StatusPending
}

// Candidate is the public face of the other party of a match.
type Candidate struct {
	UserID    uuid.UUID
	Name      string
	AvatarURL string
	DNA       *dna.Profile
}

type WithCandidate struct {
	Match
	Candidate Candidate
}

type Transaction struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	MatchID   uuid.UUID
	Amount    int
	Type      string
	CreatedAt time.Time
}

// Unlock carries everything written by the locked -> unlocked transition.
type Unlock struct {
	MatchID        uuid.UUID
	InitiatorID    uuid.UUID
	Icebreaker     string
	RestaurantName string
	Budget         string
	PaymentRule    string
	At             time.Time
}
