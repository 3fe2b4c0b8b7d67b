package icebreaker

import (
	"context"
	"fmt"
	"strings"
	"time"

	"taste-match/internal/ai"
	"taste-match/internal/domain/dna"
	"taste-match/internal/domain/match"
	"taste-match/internal/logger"

	"go.uber.org/zap"
)

const (
	DefaultTimeout  = 8 * time.Second
	defaultMaxBytes = 4 * 1024

	promptTemplate = "两个人要约饭，A的口味DNA: %s(%s)，B的口味DNA: %s(%s)。请生成一句有趣的破冰开场白，20字以内，中文。只返回开场白文字。"
)

// Generator produces an opening line for two diners. It never fails: any
// collaborator problem yields match.DefaultIcebreaker.
type Generator struct {
	streamer ai.Streamer
	timeout  time.Duration
	maxBytes int
	logger   *zap.Logger
}

func NewGenerator(streamer ai.Streamer, timeout time.Duration, maxBytes int, logger *zap.Logger) *Generator {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if maxBytes <= 0 {
		maxBytes = defaultMaxBytes
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{streamer: streamer, timeout: timeout, maxBytes: maxBytes, logger: logger}
}

func Prompt(me, other dna.Persona) string {
	return fmt.Sprintf(promptTemplate, me.Title, me.Slogan, other.Title, other.Slogan)
}

func (g *Generator) Generate(ctx context.Context, me, other dna.Persona) string {
	if g == nil || g.streamer == nil {
		return match.DefaultIcebreaker
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	text, err := ai.Generate(ctx, g.streamer, Prompt(me, other), g.maxBytes)
	if err != nil {
		g.logger.Warn("icebreaker generation failed, using default",
			zap.Error(err),
			zap.Duration("timeout", g.timeout),
		)
		return match.DefaultIcebreaker
	}

	line := StripQuotes(text)
	if line == "" {
		g.logger.Warn("icebreaker generation returned only quotes, using default",
			zap.String("raw", logger.TruncateForLog(text, 200)),
		)
		return match.DefaultIcebreaker
	}
	return line
}

const quoteRunes = "\"'“”‘’「」"

// StripQuotes trims whitespace and one layer of wrapping quotation marks.
func StripQuotes(s string) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) > 0 && strings.ContainsRune(quoteRunes, r[0]) {
		r = r[1:]
	}
	if len(r) > 0 && strings.ContainsRune(quoteRunes, r[len(r)-1]) {
		r = r[:len(r)-1]
	}
	return strings.TrimSpace(string(r))
}
