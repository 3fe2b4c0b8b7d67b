package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Fragment is one piece of a streamed generation. A non-nil Err ends the
// stream.
type Fragment struct {
	Text string
	Err  error
}

// Streamer sends a prompt to a text-generation service. The returned channel
// is closed when the response ends or ctx is done.
type Streamer interface {
	Stream(ctx context.Context, prompt string) (<-chan Fragment, error)
}

var (
	ErrEmptyResponse    = errors.New("empty generation response")
	ErrResponseTooLarge = errors.New("generation response too large")
)

const DoneSentinel = "[DONE]"

// Collect folds fragments in arrival order. ctx bounds the whole consumption.
// maxBytes <= 0 disables the size limit.
func Collect(ctx context.Context, ch <-chan Fragment, maxBytes int) (string, error) {
	var b strings.Builder
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case f, ok := <-ch:
			if !ok {
				out := strings.TrimSpace(b.String())
				if out == "" {
					return "", ErrEmptyResponse
				}
				return out, nil
			}
			if f.Err != nil {
				return "", f.Err
			}
			if maxBytes > 0 && b.Len()+len(f.Text) > maxBytes {
				return "", fmt.Errorf("%w: over %d bytes", ErrResponseTooLarge, maxBytes)
			}
			b.WriteString(f.Text)
		}
	}
}

// Generate streams prompt through s and collects the whole response.
func Generate(ctx context.Context, s Streamer, prompt string, maxBytes int) (string, error) {
	if s == nil {
		return "", errors.New("nil streamer")
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ch, err := s.Stream(ctx, prompt)
	if err != nil {
		return "", err
	}
	return Collect(ctx, ch, maxBytes)
}

type envelope struct {
	Content *string `json:"content"`
	Data    *struct {
		Content *string `json:"content"`
	} `json:"data"`
}

// DecodeSSEData turns the payload of one `data:` line into text. JSON
// envelopes contribute their content fields; payloads that are not JSON are
// returned as-is. The bool is false for the end-of-stream sentinel, which
// carries no text.
func DecodeSSEData(payload string) (string, bool) {
	if strings.TrimSpace(payload) == DoneSentinel {
		return "", false
	}
	if !json.Valid([]byte(payload)) {
		return payload, true
	}
	var env envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		return "", true
	}
	var out string
	if env.Content != nil {
		out += *env.Content
	}
	if env.Data != nil && env.Data.Content != nil {
		out += *env.Data.Content
	}
	return out, true
}

// ExtractJSONObject returns the first {...} block in s, spanning to the last
// closing brace.
func ExtractJSONObject(s string) (string, bool) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}
