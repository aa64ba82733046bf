package llm

import (
	"context"
	"encoding/json"
	"github.com/fightingentropy/bird-eye/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeCredentials(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "auth.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadToken(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"codex layout", `{"tokens":{"access_token":"tok-1","refresh_token":"r"}}`, "tok-1"},
		{"flat access token", `{"access_token":"tok-2"}`, "tok-2"},
		{"api key", `{"OPENAI_API_KEY":"sk-3"}`, "sk-3"},
		{"bare token", "  tok-4\n", "tok-4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LoadToken(writeCredentials(t, tt.content))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := LoadToken(writeCredentials(t, `{"tokens":{}}`))
	assert.Error(t, err)
	_, err = LoadToken(writeCredentials(t, ""))
	assert.Error(t, err)
	_, err = LoadToken(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestOutputTextStream(t *testing.T) {
	stream := strings.Join([]string{
		"event: response.created",
		`data: {"type":"response.created","response":{"output":[]}}`,
		"",
		"event: response.output_text.delta",
		`data: {"type":"response.output_text.delta","delta":"Title: "}`,
		"",
		`data: {"type":"response.output_text.delta","delta":"Markets"}`,
		`data: {"type":"response.reasoning_summary_text.delta","delta":"ignored"}`,
		`data: not json`,
		`data: {"type":"response.completed","response":{"output":[{"content":[{"type":"output_text","text":"Title: Markets"}]}]}}`,
		"data: [DONE]",
		"",
	}, "\n")

	got, err := OutputText("text/event-stream", []byte(stream))
	require.NoError(t, err)
	assert.Equal(t, "Title: Markets", got)
}

func TestOutputTextStreamWithoutDeltas(t *testing.T) {
	stream := `data: {"type":"response.completed","response":{"output_text":"only final"}}` + "\n"

	got, err := OutputText("", []byte(stream))
	require.NoError(t, err)
	assert.Equal(t, "only final", got)
}

func TestOutputTextDocuments(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"output_text", `{"output_text":"hello"}`},
		{"responses output", `{"output":[{"type":"reasoning"},{"type":"message","content":[{"type":"output_text","text":"hel"},{"type":"output_text","text":"lo"}]}]}`},
		{"chat completions", `{"choices":[{"message":{"role":"assistant","content":"hello"}}]}`},
		{"messages content", `{"content":[{"type":"text","text":"hello"}]}`},
		{"nested response", `{"response":{"output_text":"hello"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := OutputText("application/json", []byte(tt.doc))
			require.NoError(t, err)
			assert.Equal(t, "hello", got)
		})
	}
}

func TestOutputTextEmpty(t *testing.T) {
	_, err := OutputText("application/json", []byte(`{"output":[]}`))
	assert.Equal(t, types.KindMalformedResponse, types.KindOf(err))

	_, err = OutputText("application/json", []byte(`<html>`))
	assert.Equal(t, types.KindMalformedResponse, types.KindOf(err))
}

func TestCompleteSendsRequest(t *testing.T) {
	var got request
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte("data: {\"type\":\"response.output_text.delta\",\"delta\":\"42\"}\n\ndata: [DONE]\n\n"))
	}))
	defer server.Close()

	client := NewClient(Config{
		URL:             server.URL,
		Model:           "test-model",
		CredentialsPath: writeCredentials(t, `{"tokens":{"access_token":"tok-1"}}`),
		Timeout:         time.Second,
	})

	text, err := client.Complete(context.Background(), "what is the answer?")
	require.NoError(t, err)
	assert.Equal(t, "42", text)
	assert.Equal(t, "test-model", got.Model)
	assert.True(t, got.Stream)
	require.Len(t, got.Input, 1)
	assert.Equal(t, message{Role: "user", Content: "what is the answer?"}, got.Input[0])
}

func TestCompleteUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":"slow down"}`))
	}))
	defer server.Close()

	client := NewClient(Config{
		URL:             server.URL,
		CredentialsPath: writeCredentials(t, "tok"),
		Timeout:         time.Second,
	})

	_, err := client.Complete(context.Background(), "hi")
	require.Error(t, err)
	var e *types.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, types.KindUpstreamError, e.Kind)
	assert.Equal(t, http.StatusTooManyRequests, e.StatusCode)
	assert.Equal(t, `{"error":"slow down"}`, e.Body)
	assert.Equal(t, `LLM request failed (429). {"error":"slow down"}`, e.Error())
}

func TestCompleteTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client := NewClient(Config{
		URL:             server.URL,
		CredentialsPath: writeCredentials(t, "tok"),
		Timeout:         50 * time.Millisecond,
	})

	_, err := client.Complete(context.Background(), "hi")
	require.Error(t, err)
	assert.Equal(t, types.KindTimeout, types.KindOf(err))
}
