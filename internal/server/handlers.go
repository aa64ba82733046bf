package server

import (
	"context"
	"github.com/fightingentropy/bird-eye/internal/types"
	"github.com/fightingentropy/bird-eye/lib/translation"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"io"
	"net/http"
	"strings"
)

type summaryRequest struct {
	Cmd     string `json:"cmd"`
	Key     string `json:"key"`
	Refresh bool   `json:"refresh"`
}

type chatRequest struct {
	Cmd      string `json:"cmd"`
	Question string `json:"question"`
	Refresh  bool   `json:"refresh"`
}

// GET /api/tweets?cmd=<bird command>&refresh=1
func (s *Server) getTweets(c *gin.Context) {
	refresh := c.Query("refresh") == "1" || c.Query("refresh") == "true"

	payload, err := s.loadTweets(c, c.Query("cmd"), refresh)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, payload)
}

// POST /api/tweet-summary {cmd?, key?, refresh?}
func (s *Server) postSummary(c *gin.Context) {
	var body summaryRequest
	if !bindBody(c, &body) {
		return
	}

	payload, err := s.loadTweets(c, body.Cmd, body.Refresh)
	if err != nil {
		respondError(c, err)
		return
	}

	result, err := s.summaries.Summarize(detach(c), strings.TrimSpace(body.Key), payload)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, result)
}

// POST /api/tweet-chat {cmd?, question}
func (s *Server) postChat(c *gin.Context) {
	var body chatRequest
	if !bindBody(c, &body) {
		return
	}
	if strings.TrimSpace(body.Question) == "" {
		respondError(c, types.NewError(types.KindInvalidRequest, "Question is required."))
		return
	}

	payload, err := s.loadTweets(c, body.Cmd, body.Refresh)
	if err != nil {
		respondError(c, err)
		return
	}

	result, err := s.summaries.Chat(detach(c), body.Question, payload)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, result)
}

// GET /api/prices
func (s *Server) getPrices(c *gin.Context) {
	snapshot, err := s.prices.Get(detach(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, snapshot)
}

func (s *Server) loadTweets(c *gin.Context, raw string, refresh bool) (types.TweetPayload, error) {
	cmd, err := s.parser.Parse(raw)
	if err != nil {
		return types.TweetPayload{}, err
	}
	return s.tweets.Get(detach(c), cmd, refresh)
}

// detach keeps request values but drops cancellation: once started, a fetch
// or LLM call runs to completion or its own timeout even if the client leaves
func detach(c *gin.Context) context.Context {
	return context.WithoutCancel(c.Request.Context())
}

// bindBody decodes an optional JSON body, answering 400 itself on failure
func bindBody(c *gin.Context, v interface{}) bool {
	if err := c.ShouldBindJSON(v); err != nil && !errors.Is(err, io.EOF) {
		respondError(c, types.NewError(types.KindInvalidRequest, "Request body must be a JSON object."))
		return false
	}
	return true
}

func respondJSON(c *gin.Context, status int, v interface{}) {
	c.Header("Cache-Control", "no-store")
	c.JSON(status, v)
}

func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.WithError(err).WithField("path", c.Request.URL.Path).Error("request failed")
	}
	_ = c.Error(err)
	respondJSON(c, status, gin.H{"error": message(err)})
}

func statusFor(err error) int {
	if types.IsClientError(err) {
		return http.StatusBadRequest
	}
	switch types.KindOf(err) {
	case types.KindMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case types.KindForbidden:
		return http.StatusForbidden
	case types.KindNotFound:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// message is the user facing text of err, translated when it is classified
func message(err error) string {
	var e *types.Error
	if errors.As(err, &e) {
		return translation.Translate(e.Format, e.Args...)
	}
	return err.Error()
}
