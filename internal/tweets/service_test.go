package tweets

import (
	"context"
	"encoding/json"
	"github.com/fightingentropy/bird-eye/internal/cache"
	"github.com/fightingentropy/bird-eye/internal/command"
	"github.com/fightingentropy/bird-eye/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeFetcher answers by argument vector and counts calls
type fakeFetcher struct {
	mu        sync.Mutex
	responses map[string]string
	failures  map[string]error
	calls     []string
}

func (f *fakeFetcher) Fetch(_ context.Context, args []string) (interface{}, error) {
	key := strings.Join(args, " ")

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, key)

	if err, found := f.failures[key]; found {
		return nil, err
	}
	var raw interface{}
	if err := json.Unmarshal([]byte(f.responses[key]), &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func newTestService(f *fakeFetcher) *Service {
	store := cache.New[types.TweetPayload](10*time.Minute, 20)
	s := NewService(f, store, 50, 20)
	s.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	return s
}

func TestGetListTimelineScenario(t *testing.T) {
	parsed, err := command.NewParser("1", 50).Parse("bird list-timeline 123 -n 5 --json")
	require.NoError(t, err)

	f := &fakeFetcher{responses: map[string]string{
		"list-timeline 123 -n 5 --json": `[{"id":"9","text":"hi","author":{"username":"a"}}]`,
	}}
	payload, err := newTestService(f).Get(context.Background(), parsed, false)
	require.NoError(t, err)

	require.Len(t, payload.Tweets, 1)
	assert.Equal(t, "9", payload.Tweets[0].ID)
	assert.Equal(t, "hi", payload.Tweets[0].Text)
	assert.Equal(t, "https://x.com/a/status/9", payload.Tweets[0].URL)
	assert.Equal(t, types.Meta{
		FetchedAt: "2026-01-02T03:04:05.000Z",
		Count:     1,
		Source:    "list",
		Command:   "bird list-timeline 123 -n 5 --json",
	}, payload.Meta)
}

func TestGetServesFromCache(t *testing.T) {
	parsed, _ := command.NewParser("1", 50).Parse("bird home -n 2")
	f := &fakeFetcher{responses: map[string]string{
		"home -n 2 --json": `{"tweets":[{"id":"1"},{"id":"2"},{"id":"3"}]}`,
	}}
	s := newTestService(f)

	first, err := s.Get(context.Background(), parsed, false)
	require.NoError(t, err)
	assert.Len(t, first.Tweets, 2, "truncated to the requested count")

	second, err := s.Get(context.Background(), parsed, false)
	require.NoError(t, err)

	a, _ := json.Marshal(first)
	b, _ := json.Marshal(second)
	assert.Equal(t, string(a), string(b))
	assert.Len(t, f.calls, 1)

	// same command written differently shares the entry
	reordered, _ := command.NewParser("1", 50).Parse("bird home --json -n 2")
	_, err = s.Get(context.Background(), reordered, false)
	require.NoError(t, err)
	assert.Len(t, f.calls, 1)
}

func TestGetRefreshBypassesCache(t *testing.T) {
	parsed, _ := command.NewParser("1", 50).Parse("bird home -n 2")
	f := &fakeFetcher{responses: map[string]string{"home -n 2 --json": `[]`}}
	s := newTestService(f)

	_, _ = s.Get(context.Background(), parsed, false)
	_, err := s.Get(context.Background(), parsed, true)
	require.NoError(t, err)
	assert.Len(t, f.calls, 2)
}

func TestGetFallsBackToSmallerCount(t *testing.T) {
	parsed, _ := command.NewParser("77", 50).Parse("")
	f := &fakeFetcher{
		responses: map[string]string{"list-timeline 77 -n 20 --json": `[{"id":"1"}]`},
		failures:  map[string]error{"list-timeline 77 -n 50 --json": types.NewError(types.KindProcessError, "Rate limit exceeded")},
	}
	s := newTestService(f)

	payload, err := s.Get(context.Background(), parsed, false)
	require.NoError(t, err)
	assert.Equal(t, "bird list-timeline 77 -n 20 --json", payload.Meta.Command)
	assert.Equal(t, 1, payload.Meta.Count)
	assert.Equal(t, []string{"list-timeline 77 -n 50 --json", "list-timeline 77 -n 20 --json"}, f.calls)

	// cached under the command that was asked for
	again, err := s.Get(context.Background(), parsed, false)
	require.NoError(t, err)
	assert.Equal(t, payload, again)
	assert.Len(t, f.calls, 2)
}

func TestGetNoFallbackForNonDefaultCount(t *testing.T) {
	parsed, _ := command.NewParser("77", 50).Parse("bird home -n 30")
	f := &fakeFetcher{failures: map[string]error{"home -n 30 --json": types.NewError(types.KindTimeout, "bird request timed out.")}}

	_, err := newTestService(f).Get(context.Background(), parsed, false)
	require.Error(t, err)
	assert.Equal(t, types.KindTimeout, types.KindOf(err))
	assert.Len(t, f.calls, 1)
}

func TestGetFallbackFailureReturnsOriginalError(t *testing.T) {
	parsed, _ := command.NewParser("77", 50).Parse("bird home")
	f := &fakeFetcher{failures: map[string]error{
		"home -n 50 --json": types.NewError(types.KindProcessError, "first"),
		"home -n 20 --json": types.NewError(types.KindProcessError, "second"),
	}}

	_, err := newTestService(f).Get(context.Background(), parsed, false)
	require.Error(t, err)
	assert.Equal(t, "first", err.Error())
	assert.Len(t, f.calls, 2)
}
