package price

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
	HyperliquidURL   = "https://api.hyperliquid.xyz/info"
	bodySnippetLimit = 300
)

// Hyperliquid reads perpetual mark prices from the metaAndAssetCtxs info query
type Hyperliquid struct {
	url  string
	http *http.Client
	now  func() time.Time
}

func NewHyperliquid(url string) *Hyperliquid {
	return &Hyperliquid{url: url, http: &http.Client{}, now: time.Now}
}

func (h *Hyperliquid) Name() string {
	return "hyperliquid"
}

// Fetch posts {"type":"metaAndAssetCtxs"}. The answer is a two element array
// whose second element holds one context per asset with its markPx.
func (h *Hyperliquid) Fetch(ctx context.Context, symbols []string) (types.PriceSnapshot, error) {
	body, _ := json.Marshal(map[string]string{"type": "metaAndAssetCtxs"})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, bytes.NewReader(body))
	if err != nil {
		return types.PriceSnapshot{}, errors.Wrap(err, "building price request")
	}
	req.Header.Set("Content-Type", "application/json")

	data, err := do(h.http, req)
	if err != nil {
		return types.PriceSnapshot{}, err
	}

	var payload []json.RawMessage
	if err := json.Unmarshal(data, &payload); err != nil {
		return types.PriceSnapshot{}, types.NewError(types.KindMalformedResponse, "Price response was not valid JSON.")
	}

	var assets []struct {
		Coin   string      `json:"coin"`
		MarkPx interface{} `json:"markPx"`
	}
	if len(payload) > 1 {
		// an unexpected second element leaves every price null
		if err := json.Unmarshal(payload[1], &assets); err != nil {
			log.WithError(err).WithField("source", h.Name()).Debug("unexpected asset contexts shape")
		}
	}

	byCoin := make(map[string]interface{}, len(assets))
	for _, asset := range assets {
		byCoin[asset.Coin] = asset.MarkPx
	}

	snapshot := newSnapshot(symbols, h.now(), false)
	for _, symbol := range symbols {
		snapshot.Prices[symbol] = parseNumber(byCoin[symbol])
	}
	return snapshot, nil
}

// do sends req and returns the body of a 2xx answer
func do(client *http.Client, req *http.Request) ([]byte, error) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "price request failed")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "reading price response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := strings.TrimSpace(string(data))
		if snippet == "" {
			snippet = http.StatusText(resp.StatusCode)
		}
		snippet = helpers.Truncate(snippet, bodySnippetLimit)
		e := types.NewError(types.KindUpstreamError, "Price request failed (%d). %s", resp.StatusCode, snippet)
		e.StatusCode = resp.StatusCode
		e.Body = snippet
		return nil, e
	}
	return data, nil
}
