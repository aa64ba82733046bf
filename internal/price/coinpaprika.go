package price

import (
	"context"
	"github.com/coinpaprika/coinpaprika-api-go-client/v2/coinpaprika"
	"github.com/fightingentropy/bird-eye/internal/types"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"strings"
	"sync"
	"time"
)

// Paprika reads USD quotes through the CoinPaprika API client.
// Symbols are resolved to coin ids by search once and remembered.
type Paprika struct {
	client *coinpaprika.Client
	now    func() time.Time

	mu  sync.Mutex
	ids map[string]string
}

func NewPaprika(apiProKey string) *Paprika {
	client := coinpaprika.NewClient(nil)
	if apiProKey != "" {
		client = coinpaprika.NewClient(nil, coinpaprika.WithAPIKey(apiProKey))
	}
	return &Paprika{
		client: client,
		now:    time.Now,
		ids: map[string]string{
			"BTC": "btc-bitcoin",
			"ETH": "eth-ethereum",
		},
	}
}

func (p *Paprika) Name() string {
	return "coinpaprika"
}

// Fetch returns prices and 24h changes. The client is not context aware, so
// the call runs aside and is abandoned when ctx ends.
func (p *Paprika) Fetch(ctx context.Context, symbols []string) (types.PriceSnapshot, error) {
	type result struct {
		snapshot types.PriceSnapshot
		err      error
	}
	done := make(chan result, 1)
	go func() {
		snapshot, err := p.fetch(symbols)
		done <- result{snapshot, err}
	}()

	select {
	case r := <-done:
		return r.snapshot, r.err
	case <-ctx.Done():
		return types.PriceSnapshot{}, ctx.Err()
	}
}

func (p *Paprika) fetch(symbols []string) (types.PriceSnapshot, error) {
	snapshot := newSnapshot(symbols, p.now(), true)
	opts := &coinpaprika.TickersOptions{Quotes: "USD"}

	for _, symbol := range symbols {
		id, err := p.coinID(symbol)
		if err != nil {
			log.WithError(err).WithField("symbol", symbol).Warn("skipping unknown coin")
			continue
		}

		ticker, err := p.client.Tickers.GetByID(id, opts)
		if err != nil {
			return types.PriceSnapshot{}, errors.Wrapf(err, "fetching ticker %s", id)
		}
		quote, ok := ticker.Quotes["USD"]
		if !ok {
			continue
		}
		if quote.Price != nil {
			snapshot.Prices[symbol] = finite(*quote.Price)
		}
		if quote.PercentChange24h != nil {
			snapshot.Changes[symbol] = finite(*quote.PercentChange24h)
		}
	}
	return snapshot, nil
}

func (p *Paprika) coinID(symbol string) (string, error) {
	symbol = strings.ToUpper(symbol)

	p.mu.Lock()
	id, found := p.ids[symbol]
	p.mu.Unlock()
	if found {
		return id, nil
	}

	result, err := p.client.Search.Search(&coinpaprika.SearchOptions{
		Query:      symbol,
		Categories: "currencies",
		Modifier:   "symbol_search",
	})
	if err != nil {
		return "", errors.Wrapf(err, "searching coin %s", symbol)
	}
	if len(result.Currencies) == 0 || result.Currencies[0].ID == nil {
		return "", errors.Errorf("no coin found for symbol %s", symbol)
	}

	id = *result.Currencies[0].ID
	p.mu.Lock()
	p.ids[symbol] = id
	p.mu.Unlock()
	log.Debugf("resolved symbol %s to coin %s", symbol, id)
	return id, nil
}
