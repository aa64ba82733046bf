package price

import (
	"context"
	"encoding/json"
	"github.com/fightingentropy/bird-eye/internal/types"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"strings"
	"sync"
	"time"
)

const (
	StreamURL  = "wss://fstream.binance.com/stream"
	maxBackoff = time.Minute
)

// Stream follows the Binance combined ticker stream and pushes a fresh
// snapshot into the Service on every tick. It only runs over a Service backed
// by the Binance source, so one snapshot never mixes prices of two venues.
type Stream struct {
	url     string
	service *Service
	dialer  *websocket.Dialer
	now     func() time.Time

	mu      sync.Mutex
	current types.PriceSnapshot
}

func NewStream(baseURL string, service *Service) *Stream {
	return &Stream{
		url:     baseURL,
		service: service,
		dialer:  websocket.DefaultDialer,
		now:     time.Now,
	}
}

// URL subscribes to the ticker of every tracked symbol
func (s *Stream) URL() string {
	streams := make([]string, 0, len(s.service.Symbols()))
	for _, symbol := range s.service.Symbols() {
		streams = append(streams, strings.ToLower(MarketSymbol(symbol))+"@ticker")
	}
	return s.url + "?streams=" + strings.Join(streams, "/")
}

// Run keeps the stream connected until ctx is done, backing off between attempts
func (s *Stream) Run(ctx context.Context) {
	if name := s.service.source.Name(); name != binanceName {
		log.WithField("source", name).Warn("price stream follows binance tickers only, not starting")
		return
	}

	backoff := time.Second
	for {
		s.seed(ctx)
		err := s.listen(ctx)
		if ctx.Err() != nil {
			log.Debug("price stream stopped")
			return
		}
		log.WithError(err).WithField("retry", backoff.String()).Warn("price stream disconnected")

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

// seed bases the next ticks on the latest snapshot the service holds, which
// may have been refreshed over REST while the stream was down
func (s *Stream) seed(ctx context.Context) {
	snapshot, err := s.service.Get(ctx)
	if err != nil {
		log.WithError(err).Debug("price stream starts without a snapshot")
		return
	}
	s.mu.Lock()
	s.current = snapshot
	s.mu.Unlock()
}

func (s *Stream) listen(ctx context.Context) error {
	conn, _, err := s.dialer.DialContext(ctx, s.URL(), nil)
	if err != nil {
		return errors.Wrap(err, "dialing price stream")
	}
	defer conn.Close()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			conn.Close()
		case <-stop:
		}
	}()

	log.WithField("url", s.URL()).Debug("price stream connected")
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return errors.Wrap(err, "reading price stream")
		}
		if snapshot, ok := s.apply(message); ok {
			s.service.Store(snapshot)
		}
	}
}

type streamMessage struct {
	Stream string `json:"stream"`
	Data   struct {
		Symbol             string      `json:"s"`
		LastPrice          interface{} `json:"c"`
		PriceChangePercent interface{} `json:"P"`
	} `json:"data"`
}

// apply builds the next snapshot from a ticker message. The previous snapshot
// is copied, never modified, since readers may still hold its maps.
func (s *Stream) apply(message []byte) (types.PriceSnapshot, bool) {
	var msg streamMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		return types.PriceSnapshot{}, false
	}

	var symbol string
	for _, candidate := range s.service.Symbols() {
		if MarketSymbol(candidate) == strings.ToUpper(msg.Data.Symbol) {
			symbol = candidate
			break
		}
	}
	if symbol == "" {
		return types.PriceSnapshot{}, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := newSnapshot(s.service.Symbols(), s.now(), true)
	for k, v := range s.current.Prices {
		next.Prices[k] = v
	}
	for k, v := range s.current.Changes {
		next.Changes[k] = v
	}
	next.Prices[symbol] = parseNumber(msg.Data.LastPrice)
	next.Changes[symbol] = parseNumber(msg.Data.PriceChangePercent)

	s.current = next
	return next, true
}
