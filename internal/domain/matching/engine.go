package matching

import (
	"math"
	"math/rand/v2"

	"taste-match/internal/domain/dna"
)

const (
	MinScore = 30
	MaxScore = 99

	BaseWeight    = 70
	IndustryBonus = 10
	MBTIPairBonus = 10
	MBTISameBonus = 5
	JitterSpan    = 10

	fallbackMin  = 50
	fallbackSpan = 30
)

// Rand is the randomness source for jitter, fallback scores, and unlock
// option selection. IntN returns a value in [0, n).
type Rand interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// DefaultRand draws from the process-wide generator and is safe for
// concurrent use.
func DefaultRand() Rand { return globalRand{} }

// complementary MBTI pairs, stored in both directions.
var mbtiPairs = map[[2]dna.MBTI]struct{}{}

func init() {
	for _, p := range [][2]dna.MBTI{
		{"INTJ", "ENFP"},
		{"INFP", "ENTJ"},
		{"ISFJ", "ESTP"},
		{"INFJ", "ENTP"},
		{"INTP", "ENTJ"},
		{"ISTJ", "ESFP"},
		{"ISFP", "ESTJ"},
		{"ISTP", "ESFJ"},
	} {
		mbtiPairs[p] = struct{}{}
		mbtiPairs[[2]dna.MBTI{p[1], p[0]}] = struct{}{}
	}
}

// Party is one side of a comparison. A nil Vector means the profile is missing
// or its stored data was malformed.
type Party struct {
	Vector *dna.Vector
	Attrs  dna.Attributes
}

// Breakdown explains how a score was produced.
type Breakdown struct {
	Cosine   float64
	Base     int
	Industry int
	MBTI     int
	Jitter   int
	Score    int
	Fallback bool
}

type Scorer struct {
	rnd Rand
}

func NewScorer(rnd Rand) *Scorer {
	if rnd == nil {
		rnd = DefaultRand()
	}
	return &Scorer{rnd: rnd}
}

func (s *Scorer) Score(me, other Party) int {
	return s.Explain(me, other).Score
}

func (s *Scorer) Explain(me, other Party) Breakdown {
	if !usable(me.Vector) || !usable(other.Vector) {
		return Breakdown{Score: fallbackMin + s.rnd.IntN(fallbackSpan), Fallback: true}
	}

	cos := Cosine(*me.Vector, *other.Vector)
	b := Breakdown{
		Cosine:   cos,
		Base:     int(math.Round(cos * BaseWeight)),
		Industry: IndustryPoints(me.Attrs.Industry, other.Attrs.Industry),
		MBTI:     MBTIPoints(me.Attrs.MBTI, other.Attrs.MBTI),
		Jitter:   s.rnd.IntN(JitterSpan),
	}
	b.Score = clampInt(b.Base+b.Industry+b.MBTI+b.Jitter, MinScore, MaxScore)
	return b
}

// Cosine returns the cosine similarity of two vectors, or 0 when either has a
// zero norm.
func Cosine(a, b dna.Vector) float64 {
	na, nb := a.Norm(), b.Norm()
	if na == 0 || nb == 0 {
		return 0
	}
	ad, bd := a.Dimensions(), b.Dimensions()
	var dot float64
	for i := range ad {
		dot += ad[i] * bd[i]
	}
	sim := dot / (na * nb)
	if sim > 1 {
		return 1
	}
	if sim < 0 {
		return 0
	}
	return sim
}

// IndustryPoints is case-sensitive: "金融" and "金融 " do not match.
func IndustryPoints(mine, theirs string) int {
	if mine == "" || theirs == "" {
		return 0
	}
	if mine == theirs {
		return IndustryBonus
	}
	return 0
}

func MBTIPoints(mine, theirs dna.MBTI) int {
	if !mine.Valid() || !theirs.Valid() {
		return 0
	}
	if _, ok := mbtiPairs[[2]dna.MBTI{mine, theirs}]; ok {
		return MBTIPairBonus
	}
	if mine == theirs {
		return MBTISameBonus
	}
	return 0
}

func usable(v *dna.Vector) bool {
	return v != nil && v.Validate() == nil
}

func clampInt(v, minV, maxV int) int {
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}
