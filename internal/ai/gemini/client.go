package gemini

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"

	"taste-match/internal/ai"

	"google.golang.org/genai"
)

const defaultModel = "gemini-2.5-flash"

type contentStreamer interface {
	GenerateContentStream(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) iter.Seq2[*genai.GenerateContentResponse, error]
}

// Client streams generations from the Gemini API.
type Client struct {
	models    contentStreamer
	modelName string
}

func NewClient(ctx context.Context, apiKey, model string) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return newClient(client.Models, model), nil
}

func newClient(models contentStreamer, model string) *Client {
	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}
	return &Client{models: models, modelName: model}
}

func (c *Client) Stream(ctx context.Context, prompt string) (<-chan ai.Fragment, error) {
	if c == nil || c.models == nil {
		return nil, errors.New("gemini client is not initialized")
	}
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, errors.New("prompt must not be empty")
	}

	out := make(chan ai.Fragment)
	go func() {
		defer close(out)
		for resp, err := range c.models.GenerateContentStream(ctx, c.modelName, genai.Text(prompt), nil) {
			f := ai.Fragment{}
			if err != nil {
				f.Err = fmt.Errorf("generate content stream: %w", err)
			} else {
				f.Text = responseText(resp)
				if f.Text == "" {
					continue
				}
			}
			select {
			case out <- f:
			case <-ctx.Done():
				return
			}
			if f.Err != nil {
				return
			}
		}
	}()
	return out, nil
}

func (c *Client) Model() string {
	if c == nil {
		return ""
	}
	return c.modelName
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var b strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil || part.Thought {
				continue
			}
			b.WriteString(part.Text)
		}
	}
	return b.String()
}

var _ ai.Streamer = (*Client)(nil)
