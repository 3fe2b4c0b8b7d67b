package secondme

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"taste-match/internal/ai"

	"go.uber.org/zap"
)

const streamPath = "/api/secondme/chat/stream"

type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *zap.Logger
}

type chatRequest struct {
	Message string `json:"message"`
}

// NewClient returns nil when baseURL is empty. The http.Client carries no
// timeout of its own; callers bound each call through ctx.
func NewClient(baseURL, apiKey string, httpClient *http.Client, logger *zap.Logger) *Client {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  strings.TrimSpace(apiKey),
		client:  httpClient,
		logger:  logger,
	}
}

func (c *Client) Stream(ctx context.Context, prompt string) (<-chan ai.Fragment, error) {
	if c == nil {
		return nil, errors.New("nil secondme client")
	}
	endpoint := c.baseURL + streamPath

	b, err := json.Marshal(chatRequest{Message: prompt})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		rb, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		bodyStr := strings.TrimSpace(string(rb))
		c.logger.Warn("secondme stream rejected",
			zap.String("endpoint", endpoint),
			zap.Int("status", resp.StatusCode),
			zap.String("body", bodyStr),
		)
		return nil, fmt.Errorf("secondme stream failed: status=%d", resp.StatusCode)
	}

	out := make(chan ai.Fragment)
	go func() {
		defer close(out)
		defer resp.Body.Close()

		err := readDataLines(resp.Body, func(payload string) bool {
			text, ok := ai.DecodeSSEData(payload)
			if !ok || text == "" {
				return true
			}
			select {
			case out <- ai.Fragment{Text: text}:
				return true
			case <-ctx.Done():
				return false
			}
		})
		if err != nil && ctx.Err() == nil {
			select {
			case out <- ai.Fragment{Err: err}:
			case <-ctx.Done():
			}
		}
	}()
	return out, nil
}

// readDataLines calls fn with the payload of every `data:` line until the body
// ends or fn returns false. Event names, ids and comments are ignored.
func readDataLines(r io.Reader, fn func(payload string) bool) error {
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			line = strings.TrimRight(line, "\r\n")
			if strings.HasPrefix(line, "data:") {
				if !fn(strings.TrimSpace(strings.TrimPrefix(line, "data:"))) {
					return nil
				}
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}

var _ ai.Streamer = (*Client)(nil)
