// Package tweets maps bird output into dashboard tweets and caches the result
// per canonical command.
package tweets

import (
	"context"
	"github.com/fightingentropy/bird-eye/internal/cache"
	"github.com/fightingentropy/bird-eye/internal/command"
	"github.com/fightingentropy/bird-eye/internal/metrics"
	"github.com/fightingentropy/bird-eye/internal/types"
	log "github.com/sirupsen/logrus"
	"time"
)

// Fetcher returns bird's decoded JSON output for an argument vector
type Fetcher interface {
	Fetch(ctx context.Context, args []string) (interface{}, error)
}

// Service serves tweet payloads from the cache, fetching on a miss or a forced refresh.
// Two concurrent misses for the same command both fetch; the later write wins.
type Service struct {
	fetcher       Fetcher
	cache         *cache.Store[types.TweetPayload]
	defaultCount  int
	fallbackCount int
	now           func() time.Time
}

func NewService(fetcher Fetcher, store *cache.Store[types.TweetPayload], defaultCount, fallbackCount int) *Service {
	return &Service{
		fetcher:       fetcher,
		cache:         store,
		defaultCount:  defaultCount,
		fallbackCount: fallbackCount,
		now:           time.Now,
	}
}

// Get returns the payload for cmd, keyed by its canonical display string
func (s *Service) Get(ctx context.Context, cmd command.Parsed, refresh bool) (types.TweetPayload, error) {
	logger := log.WithField("command", cmd.Display)

	if !refresh {
		if payload, found := s.cache.Get(cmd.Display); found {
			metrics.CacheResult("tweets", true)
			logger.Debug("serving cached tweets")
			return payload, nil
		}
	}
	metrics.CacheResult("tweets", false)

	payload, err := s.fetch(ctx, cmd)
	if err != nil && s.canFallBack(cmd) {
		fallback := command.WithCount(cmd, s.fallbackCount)
		logger.WithError(err).Warnf("fetch failed, retrying with %d tweets", s.fallbackCount)

		var ferr error
		payload, ferr = s.fetch(ctx, fallback)
		metrics.FallbackFetches.WithLabelValues(metrics.Outcome(ferr)).Inc()
		if ferr == nil {
			err = nil
		} else {
			logger.WithError(ferr).Warn("fallback fetch failed")
		}
	}
	if err != nil {
		return types.TweetPayload{}, err
	}

	s.cache.Set(cmd.Display, payload)
	logger.WithField("count", payload.Meta.Count).Debug("cached fresh tweets")
	return payload, nil
}

func (s *Service) canFallBack(cmd command.Parsed) bool {
	return cmd.Count == s.defaultCount && s.fallbackCount > 0 && s.fallbackCount < cmd.Count
}

func (s *Service) fetch(ctx context.Context, cmd command.Parsed) (types.TweetPayload, error) {
	raw, err := s.fetcher.Fetch(ctx, cmd.Args)
	if err != nil {
		return types.TweetPayload{}, err
	}

	tweets := Normalize(raw)
	if len(tweets) > cmd.Count {
		tweets = tweets[:cmd.Count]
	}

	return types.TweetPayload{
		Tweets: tweets,
		Meta: types.Meta{
			FetchedAt: types.Timestamp(s.now()),
			Count:     len(tweets),
			Source:    cmd.Source,
			Command:   cmd.Display,
		},
	}, nil
}
