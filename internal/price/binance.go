package price

import (
	"context"
	"encoding/json"
	"fmt"
	"github.com/fightingentropy/bird-eye/internal/types"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const BinanceURL = "https://fapi.binance.com/fapi/v1/ticker/24hr"

// Binance reads USDT perpetual 24h tickers, one request per symbol
type Binance struct {
	url  string
	http *http.Client
	now  func() time.Time
}

const binanceName = "binance"

func NewBinance(url string) *Binance {
	return &Binance{url: url, http: &http.Client{}, now: time.Now}
}

func (b *Binance) Name() string {
	return binanceName
}

type ticker24h struct {
	Symbol             string      `json:"symbol"`
	LastPrice          interface{} `json:"lastPrice"`
	PriceChangePercent interface{} `json:"priceChangePercent"`
}

// Fetch fills prices and 24h percent changes. Any failed symbol fails the snapshot.
func (b *Binance) Fetch(ctx context.Context, symbols []string) (types.PriceSnapshot, error) {
	snapshot := newSnapshot(symbols, b.now(), true)

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	for _, symbol := range symbols {
		symbol := symbol
		g.Go(func() error {
			t, err := b.ticker(ctx, MarketSymbol(symbol))
			if err != nil {
				return err
			}

			mu.Lock()
			defer mu.Unlock()
			snapshot.Prices[symbol] = parseNumber(t.LastPrice)
			snapshot.Changes[symbol] = parseNumber(t.PriceChangePercent)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return types.PriceSnapshot{}, err
	}
	return snapshot, nil
}

func (b *Binance) ticker(ctx context.Context, market string) (ticker24h, error) {
	endpoint := fmt.Sprintf("%s?symbol=%s", b.url, url.QueryEscape(market))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return ticker24h{}, errors.Wrap(err, "building price request")
	}

	data, err := do(b.http, req)
	if err != nil {
		return ticker24h{}, err
	}

	var t ticker24h
	if err := json.Unmarshal(data, &t); err != nil {
		return ticker24h{}, types.NewError(types.KindMalformedResponse, "Price response was not valid JSON.")
	}
	return t, nil
}

// MarketSymbol maps a coin symbol to its USDT perpetual market
func MarketSymbol(symbol string) string {
	return strings.ToUpper(symbol) + "USDT"
}
