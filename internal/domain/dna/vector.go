package dna

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	MinDimension = 0
	MaxDimension = 100
)

var ErrMalformedVector = errors.New("malformed flavor vector")

// Vector is the six-dimensional flavor preference profile. Every dimension
// lives in [MinDimension, MaxDimension].
type Vector struct {
	Spicy       float64 `json:"spicy"`
	Sweet       float64 `json:"sweet"`
	Fresh       float64 `json:"fresh"`
	Adventurous float64 `json:"adventurous"`
	Social      float64 `json:"social"`
	Refined     float64 `json:"refined"`
}

var dimensionKeys = [6]string{"spicy", "sweet", "fresh", "adventurous", "social", "refined"}

func (v Vector) Dimensions() [6]float64 {
	return [6]float64{v.Spicy, v.Sweet, v.Fresh, v.Adventurous, v.Social, v.Refined}
}

func (v Vector) Norm() float64 {
	var sum float64
	for _, d := range v.Dimensions() {
		sum += d * d
	}
	return math.Sqrt(sum)
}

func (v Vector) Validate() error {
	for i, d := range v.Dimensions() {
		if math.IsNaN(d) || math.IsInf(d, 0) {
			return fmt.Errorf("%w: %s is not a number", ErrMalformedVector, dimensionKeys[i])
		}
		if d < MinDimension || d > MaxDimension {
			return fmt.Errorf("%w: %s=%v out of range", ErrMalformedVector, dimensionKeys[i], d)
		}
	}
	return nil
}

// Clamp pulls every dimension into range. NaN becomes MinDimension.
func (v Vector) Clamp() Vector {
	return Vector{
		Spicy:       clampDimension(v.Spicy),
		Sweet:       clampDimension(v.Sweet),
		Fresh:       clampDimension(v.Fresh),
		Adventurous: clampDimension(v.Adventurous),
		Social:      clampDimension(v.Social),
		Refined:     clampDimension(v.Refined),
	}
}

// ParseVector decodes a radar JSON object. Missing or non-numeric dimensions
// are rejected; numeric values outside the range are coerced into it.
func ParseVector(raw []byte) (Vector, error) {
	if len(raw) == 0 {
		return Vector{}, fmt.Errorf("%w: empty", ErrMalformedVector)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return Vector{}, fmt.Errorf("%w: %v", ErrMalformedVector, err)
	}
	return VectorFromMap(m)
}

func VectorFromMap(m map[string]any) (Vector, error) {
	var vals [6]float64
	for i, key := range dimensionKeys {
		rv, ok := m[key]
		if !ok || rv == nil {
			return Vector{}, fmt.Errorf("%w: missing %s", ErrMalformedVector, key)
		}
		f, ok := coerceNumber(rv)
		if !ok {
			return Vector{}, fmt.Errorf("%w: %s is not a number", ErrMalformedVector, key)
		}
		vals[i] = f
	}
	v := Vector{
		Spicy:       vals[0],
		Sweet:       vals[1],
		Fresh:       vals[2],
		Adventurous: vals[3],
		Social:      vals[4],
		Refined:     vals[5],
	}
	return v.Clamp(), nil
}

func coerceNumber(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return 0, false
		}
		return val, true
	case int:
		return float64(val), true
	case json.Number:
		f, err := val.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func clampDimension(d float64) float64 {
	if math.IsNaN(d) || d < MinDimension {
		return MinDimension
	}
	if d > MaxDimension {
		return MaxDimension
	}
	return d
}
