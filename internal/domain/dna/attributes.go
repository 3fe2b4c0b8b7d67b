package dna

import "strings"

type MBTI string

const MBTIUnknown MBTI = ""

var mbtiCodes = map[MBTI]struct{}{
	"INTJ": {}, "INTP": {}, "ENTJ": {}, "ENTP": {},
	"INFJ": {}, "INFP": {}, "ENFJ": {}, "ENFP": {},
	"ISTJ": {}, "ISFJ": {}, "ESTJ": {}, "ESFJ": {},
	"ISTP": {}, "ISFP": {}, "ESTP": {}, "ESFP": {},
}

// ParseMBTI normalizes free-form input to one of the 16 codes. Anything else,
// including the questionnaire's "不确定", is MBTIUnknown.
func ParseMBTI(s string) MBTI {
	code := MBTI(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := mbtiCodes[code]; ok {
		return code
	}
	return MBTIUnknown
}

func (m MBTI) Valid() bool {
	_, ok := mbtiCodes[m]
	return ok
}

// Attributes are the categorical profile fields. They only contribute bonus
// points to a score.
type Attributes struct {
	Industry        string `json:"industry,omitempty"`
	MBTI            MBTI   `json:"mbti,omitempty"`
	JobTitle        string `json:"job,omitempty"`
	AgeRange        string `json:"age_range,omitempty"`
	HealthCertified bool   `json:"health_certified"`
}
