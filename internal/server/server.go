// Package server is the HTTP surface of the dashboard: the JSON API, the
// static assets it is served with, and operational endpoints.
package server

import (
	"context"
	"github.com/fightingentropy/bird-eye/internal/command"
	"github.com/fightingentropy/bird-eye/internal/types"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"net/http"
	"time"
)

type TweetService interface {
	Get(ctx context.Context, cmd command.Parsed, refresh bool) (types.TweetPayload, error)
}

type SummaryService interface {
	Summarize(ctx context.Context, key string, payload types.TweetPayload) (types.SummaryPayload, error)
	Chat(ctx context.Context, question string, payload types.TweetPayload) (types.ChatPayload, error)
}

type PriceService interface {
	Get(ctx context.Context) (types.PriceSnapshot, error)
}

type Server struct {
	parser    *command.Parser
	tweets    TweetService
	summaries SummaryService
	prices    PriceService
	publicDir string
	engine    *gin.Engine
}

func New(parser *command.Parser, tweets TweetService, summaries SummaryService, prices PriceService, publicDir string) *Server {
	s := &Server{
		parser:    parser,
		tweets:    tweets,
		summaries: summaries,
		prices:    prices,
		publicDir: publicDir,
	}
	s.engine = s.routes()
	return s
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(requestID(), requestLogger(), recovery())

	api := r.Group("/api")
	api.GET("/tweets", s.getTweets)
	api.POST("/tweet-summary", s.postSummary)
	api.POST("/tweet-chat", s.postChat)
	api.GET("/prices", s.getPrices)

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.NoMethod(func(c *gin.Context) {
		respondError(c, types.NewError(types.KindMethodNotAllowed, "Method not allowed."))
	})
	r.NoRoute(s.serveStatic)
	return r
}

// Handler exposes the router, mostly for tests
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is cancelled, then drains in-flight requests
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("bird-eye dashboard listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "http server")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutting down http server")
	}
	return nil
}
