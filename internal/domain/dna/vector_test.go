package dna

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVector(t *testing.T) {
	cases := []struct {
		name    string
		raw     string
		want    Vector
		wantErr bool
	}{
		{
			name: "valid",
			raw:  `{"spicy":92,"sweet":30,"fresh":40,"adventurous":88,"social":85,"refined":45}`,
			want: Vector{Spicy: 92, Sweet: 30, Fresh: 40, Adventurous: 88, Social: 85, Refined: 45},
		},
		{
			name: "out of range is coerced",
			raw:  `{"spicy":120,"sweet":-5,"fresh":40,"adventurous":88,"social":85,"refined":45}`,
			want: Vector{Spicy: 100, Sweet: 0, Fresh: 40, Adventurous: 88, Social: 85, Refined: 45},
		},
		{
			name: "numeric strings accepted",
			raw:  `{"spicy":"10","sweet":"20","fresh":30,"adventurous":40,"social":50,"refined":60}`,
			want: Vector{Spicy: 10, Sweet: 20, Fresh: 30, Adventurous: 40, Social: 50, Refined: 60},
		},
		{name: "missing dimension", raw: `{"spicy":1,"sweet":2,"fresh":3,"adventurous":4,"social":5}`, wantErr: true},
		{name: "non numeric", raw: `{"spicy":"hot","sweet":2,"fresh":3,"adventurous":4,"social":5,"refined":6}`, wantErr: true},
		{name: "not json", raw: `spicy=1`, wantErr: true},
		{name: "empty", raw: ``, wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseVector([]byte(tc.raw))
			if tc.wantErr {
				require.ErrorIs(t, err, ErrMalformedVector)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestVector_ValidateAndClamp(t *testing.T) {
	v := Vector{Spicy: math.NaN(), Sweet: 101, Fresh: -1, Adventurous: 50, Social: 50, Refined: 50}
	require.ErrorIs(t, v.Validate(), ErrMalformedVector)

	c := v.Clamp()
	require.NoError(t, c.Validate())
	assert.Equal(t, 0.0, c.Spicy)
	assert.Equal(t, 100.0, c.Sweet)
	assert.Equal(t, 0.0, c.Fresh)
}

func TestParseMBTI(t *testing.T) {
	assert.Equal(t, MBTI("INTJ"), ParseMBTI(" intj "))
	assert.Equal(t, MBTIUnknown, ParseMBTI("不确定"))
	assert.Equal(t, MBTIUnknown, ParseMBTI("XXXX"))
	assert.True(t, ParseMBTI("ENFP").Valid())
}
