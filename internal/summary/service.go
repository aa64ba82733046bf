// Package summary turns fetched tweets into a topic digest or a chat answer
// by way of the LLM, recovering structure from whatever text comes back.
package summary

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"github.com/fightingentropy/bird-eye/internal/cache"
	"github.com/fightingentropy/bird-eye/internal/metrics"
	"github.com/fightingentropy/bird-eye/internal/types"
	log "github.com/sirupsen/logrus"
	"strings"
	"time"
)

// Completer sends one prompt to the LLM and returns its output text
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Service requests summaries and chat answers. Summaries are cached per key;
// chat answers never are.
type Service struct {
	llm       Completer
	cache     *cache.Store[types.SummaryPayload]
	maxTweets int
}

func NewService(llm Completer, store *cache.Store[types.SummaryPayload], maxTweets int) *Service {
	return &Service{llm: llm, cache: store, maxTweets: maxTweets}
}

// ContentKey derives a summary cache key from the command and the tweets that
// would be summarized, so the same timeline is never summarized twice.
// Both id and text are hashed since bird records may lack an id.
func (s *Service) ContentKey(payload types.TweetPayload) string {
	h := sha256.New()
	h.Write([]byte(payload.Meta.Command))
	for _, tweet := range s.window(payload.Tweets) {
		h.Write([]byte{'\n'})
		h.Write([]byte(tweet.ID))
		h.Write([]byte{0})
		h.Write([]byte(tweet.Text))
	}
	return "auto:" + hex.EncodeToString(h.Sum(nil))
}

// Summarize returns the cached summary for key, requesting a new one on a miss.
// An empty key is replaced by the ContentKey of payload.
func (s *Service) Summarize(ctx context.Context, key string, payload types.TweetPayload) (types.SummaryPayload, error) {
	if key == "" {
		key = s.ContentKey(payload)
	}
	logger := log.WithField("key", key)

	if cached, found := s.cache.Get(key); found {
		metrics.CacheResult("summary", true)
		logger.Debug("serving cached summary")
		return cached, nil
	}
	metrics.CacheResult("summary", false)

	summary, err := s.RequestSummary(ctx, payload.Tweets)
	if err != nil {
		return types.SummaryPayload{}, err
	}

	result := types.SummaryPayload{
		Summary:   summary,
		FetchedAt: payload.Meta.FetchedAt,
		Count:     len(s.window(payload.Tweets)),
	}
	s.cache.Set(key, result)
	return result, nil
}

// RequestSummary asks the LLM for a digest of tweets. Output that neither
// strategy can read gets one repair request before giving up.
func (s *Service) RequestSummary(ctx context.Context, tweets []types.Tweet) (types.Summary, error) {
	if len(tweets) == 0 {
		return types.Summary{OverallSummary: "No tweets to summarize.", Topics: []types.Topic{}}, nil
	}

	text, err := s.complete(ctx, "summary", summaryPrompt(tweets, s.maxTweets))
	if err != nil {
		return types.Summary{}, err
	}
	prompted := len(s.window(tweets))

	if summary, name, ok := Recover(text, prompted); ok {
		log.WithFields(log.Fields{"strategy": name, "topics": len(summary.Topics)}).Debug("summary recovered")
		return summary, nil
	}

	log.WithField("text", text).Warn("summary output unreadable, requesting a repair")
	repaired, err := s.complete(ctx, "repair", repairPrompt(text))
	if err != nil {
		return types.Summary{}, err
	}
	if summary, ok := ParseText(repaired); ok {
		return withinWindow(summary, prompted), nil
	}

	log.WithField("text", repaired).Error("repaired summary output unreadable")
	return types.Summary{}, types.NewError(types.KindUnparsableSummary, "Could not read a summary from the LLM response.")
}

// Chat answers question over the tweets of payload
func (s *Service) Chat(ctx context.Context, question string, payload types.TweetPayload) (types.ChatPayload, error) {
	answer, err := s.RequestChatAnswer(ctx, question, payload.Tweets)
	if err != nil {
		return types.ChatPayload{}, err
	}
	return types.ChatPayload{
		Answer:    answer,
		FetchedAt: payload.Meta.FetchedAt,
		Count:     len(s.window(payload.Tweets)),
	}, nil
}

// RequestChatAnswer returns the LLM answer verbatim, trimmed
func (s *Service) RequestChatAnswer(ctx context.Context, question string, tweets []types.Tweet) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", types.NewError(types.KindInvalidRequest, "Question is required.")
	}

	text, err := s.complete(ctx, "chat", chatPrompt(question, tweets, s.maxTweets))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func (s *Service) complete(ctx context.Context, kind, prompt string) (string, error) {
	start := time.Now()
	text, err := s.llm.Complete(ctx, prompt)
	metrics.LLMCalls.WithLabelValues(kind, metrics.Outcome(err)).Inc()

	logger := log.WithFields(log.Fields{"kind": kind, "duration": time.Since(start).String()})
	if err != nil {
		logger.WithError(err).Error("LLM call failed")
		return "", err
	}
	logger.Debug("LLM call finished")
	return text, nil
}

func (s *Service) window(tweets []types.Tweet) []types.Tweet {
	if s.maxTweets > 0 && len(tweets) > s.maxTweets {
		return tweets[:s.maxTweets]
	}
	return tweets
}
