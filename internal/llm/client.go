// Package llm talks to the text completion endpoint used for summaries and chat.
//
// The endpoint answers either with one JSON document or with a server-sent
// event stream; both are reduced to a single output text here so callers never
// see the difference.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"github.com/fightingentropy/bird-eye/internal/types"
	"github.com/fightingentropy/bird-eye/lib/helpers"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	bodySnippetLimit = 300
	userAgent        = "bird-eye/1.0"
)

type Config struct {
	URL             string
	Model           string
	CredentialsPath string
	Timeout         time.Duration
}

type Client struct {
	config Config
	http   *http.Client
}

func NewClient(config Config) *Client {
	return &Client{config: config, http: &http.Client{}}
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type request struct {
	Model  string    `json:"model"`
	Stream bool      `json:"stream"`
	Store  bool      `json:"store"`
	Input  []message `json:"input"`
}

// Complete sends prompt as a single user message and returns the generated text
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	token, err := LoadToken(c.config.CredentialsPath)
	if err != nil {
		return "", err
	}

	body, err := json.Marshal(request{
		Model:  c.config.Model,
		Stream: true,
		Input:  []message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", errors.Wrap(err, "encoding LLM request")
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.URL, bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(err, "building LLM request")
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream, application/json")
	req.Header.Set("User-Agent", userAgent)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return "", c.transportError(ctx, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", c.transportError(ctx, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := helpers.Truncate(strings.TrimSpace(string(data)), bodySnippetLimit)
		e := types.NewError(types.KindUpstreamError, "LLM request failed (%d). %s", resp.StatusCode, snippet)
		e.StatusCode = resp.StatusCode
		e.Body = snippet
		return "", e
	}

	log.WithFields(log.Fields{
		"status":   resp.StatusCode,
		"bytes":    len(data),
		"duration": time.Since(start).String(),
	}).Debug("LLM response received")

	return OutputText(resp.Header.Get("Content-Type"), data)
}

func (c *Client) transportError(ctx context.Context, err error) error {
	if ctx.Err() == context.DeadlineExceeded {
		return types.NewError(types.KindTimeout, "LLM request timed out.")
	}
	return errors.Wrap(err, "LLM request failed")
}
