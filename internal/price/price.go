// Package price keeps a short lived snapshot of market prices for the
// configured symbols, read from one of several upstream sources.
package price

import (
	"context"
	"github.com/fightingentropy/bird-eye/internal/cache"
	"github.com/fightingentropy/bird-eye/internal/metrics"
	"github.com/fightingentropy/bird-eye/internal/types"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"math"
	"strconv"
	"strings"
	"time"
)

const userAgent = "bird-eye/1.0"

// Source reads current prices for symbols from one upstream
type Source interface {
	Name() string
	Fetch(ctx context.Context, symbols []string) (types.PriceSnapshot, error)
}

// Service serves the price snapshot from a single slot and refreshes it from
// the source once the slot is stale. Snapshots are replaced, never edited.
type Service struct {
	source  Source
	symbols []string
	timeout time.Duration
	slot    *cache.Slot[types.PriceSnapshot]
	breaker *gobreaker.CircuitBreaker
	now     func() time.Time
}

func NewService(source Source, symbols []string, ttl, timeout time.Duration) *Service {
	return &Service{
		source:  source,
		symbols: symbols,
		timeout: timeout,
		slot:    cache.NewSlot[types.PriceSnapshot](ttl),
		breaker: newBreaker(source.Name()),
		now:     time.Now,
	}
}

func newBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "price-" + name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.WithFields(log.Fields{"breaker": name, "from": from.String(), "to": to.String()}).Warn("price breaker changed state")
		},
	})
}

// Symbols lists the tracked symbols in display order
func (s *Service) Symbols() []string {
	return s.symbols
}

// Get returns the cached snapshot, fetching a new one when the slot is stale
func (s *Service) Get(ctx context.Context) (types.PriceSnapshot, error) {
	if snapshot, found := s.slot.Get(); found {
		metrics.CacheResult("prices", true)
		return snapshot, nil
	}
	metrics.CacheResult("prices", false)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	result, err := s.breaker.Execute(func() (interface{}, error) {
		return s.source.Fetch(ctx, s.symbols)
	})
	metrics.PriceFetches.WithLabelValues(s.source.Name(), metrics.Outcome(err)).Inc()

	logger := log.WithFields(log.Fields{"source": s.source.Name(), "duration": time.Since(start).String()})
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			err = types.NewError(types.KindTimeout, "Price request timed out.")
		} else if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			err = types.NewError(types.KindUpstreamError, "Price source %s is unavailable, try again shortly.", s.source.Name())
		}
		logger.WithError(err).Error("price fetch failed")
		return types.PriceSnapshot{}, err
	}

	snapshot := result.(types.PriceSnapshot)
	if snapshot.FetchedAt == "" {
		snapshot.FetchedAt = types.Timestamp(s.now())
	}
	s.slot.Set(snapshot)
	logger.Debug("price snapshot refreshed")
	return snapshot, nil
}

// Store replaces the slot with snapshot, used by the streaming feed
func (s *Service) Store(snapshot types.PriceSnapshot) {
	s.slot.Set(snapshot)
}

// newSnapshot creates an empty snapshot with a null entry per symbol
func newSnapshot(symbols []string, now time.Time, withChanges bool) types.PriceSnapshot {
	snapshot := types.PriceSnapshot{
		FetchedAt: types.Timestamp(now),
		Prices:    make(map[string]*float64, len(symbols)),
	}
	if withChanges {
		snapshot.Changes = make(map[string]*float64, len(symbols))
	}
	for _, symbol := range symbols {
		snapshot.Prices[symbol] = nil
		if withChanges {
			snapshot.Changes[symbol] = nil
		}
	}
	return snapshot
}

// finite returns a pointer to v, or nil for NaN and infinities
func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// parseNumber reads a decimal upstream value, which may be a JSON string or number
func parseNumber(v interface{}) *float64 {
	switch n := v.(type) {
	case float64:
		return finite(n)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return nil
		}
		return finite(f)
	}
	return nil
}

// New builds the Source named by name
func New(name, apiKey string) (Source, error) {
	switch strings.ToLower(name) {
	case "", "hyperliquid":
		return NewHyperliquid(HyperliquidURL), nil
	case "binance":
		return NewBinance(BinanceURL), nil
	case "coinpaprika":
		return NewPaprika(apiKey), nil
	}
	return nil, errors.Errorf("unknown price source %q", name)
}
