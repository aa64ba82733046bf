package server

import (
	"bytes"
	"github.com/fightingentropy/bird-eye/internal/metrics"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"runtime"
	"strconv"
	"time"
)

const requestIDHeader = "X-Request-ID"

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("requestID", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "static"
		}
		status := c.Writer.Status()
		metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()

		entry := log.WithFields(log.Fields{
			"request_id": c.GetString("requestID"),
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     status,
			"latency":    time.Since(start).String(),
		})
		if len(c.Errors) > 0 {
			entry = entry.WithField("error", c.Errors.Last().Error())
		}
		entry.Debug("request handled")
	}
}

// recovery turns a panicking handler into a 500 and logs its stack
func recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				stackBuf := make([]byte, 4096)
				stackSize := runtime.Stack(stackBuf, false)
				stackTrace := bytes.TrimRight(stackBuf[:stackSize], "\x00")
				log.Errorf("Recovered from panic: %v\nStack trace: %s", r, stackTrace)

				respondError(c, errors.New("Internal server error."))
				c.Abort()
			}
		}()
		c.Next()
	}
}
