// Package bird runs the bird CLI and decodes its JSON output.
package bird

import (
	"bytes"
	"context"
	"encoding/json"
	"github.com/fightingentropy/bird-eye/internal/metrics"
	"github.com/fightingentropy/bird-eye/internal/types"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"os/exec"
	"strings"
	"time"
)

// staleQueryIDSignatures are lower-cased fragments of the errors bird prints
// when its cached GraphQL query ids have rotated upstream.
var staleQueryIDSignatures = []string{
	"http 404",
	"unknown query id",
}

// refreshArgs refetches the query ids bird uses
var refreshArgs = []string{"query-ids", "--fresh"}

// Runner starts the external tool once and returns its stdout
type Runner interface {
	Run(ctx context.Context, args []string) ([]byte, error)
}

// ExecRunner runs a local executable with discrete arguments, never via a shell
type ExecRunner struct {
	Command string
}

func (r *ExecRunner) Run(ctx context.Context, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, r.Command, args...)
	cmd.WaitDelay = time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if ctx.Err() == context.DeadlineExceeded {
		return nil, errTimeout()
	}
	if err == nil {
		return stdout.Bytes(), nil
	}

	message := strings.TrimSpace(stderr.String())
	exitCode := -1
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		exitCode = exitErr.ExitCode()
	}

	var e *types.Error
	switch {
	case message != "":
		e = types.NewError(types.KindProcessError, message)
	case exitCode >= 0:
		e = types.NewError(types.KindProcessError, "bird exited with code %d", exitCode)
	default:
		e = types.NewError(types.KindProcessError, err.Error())
	}
	e.ExitCode = exitCode
	e.Stderr = message
	return nil, e
}

// Client wraps a Runner with the timeout, stale id recovery and JSON decoding
type Client struct {
	runner  Runner
	timeout time.Duration
}

func NewClient(runner Runner, timeout time.Duration) *Client {
	return &Client{runner: runner, timeout: timeout}
}

// Fetch runs bird with args and returns the decoded JSON document.
// A stale query id failure triggers one refresh and one retry; everything
// else is returned as is.
func (c *Client) Fetch(ctx context.Context, args []string) (interface{}, error) {
	logger := log.WithField("args", strings.Join(args, " "))

	stdout, err := c.run(ctx, args)
	if err != nil && isStaleQueryID(err) {
		logger.WithError(err).Warn("bird query ids look stale, refreshing")
		metrics.BirdRecoveries.Inc()

		if _, rerr := c.run(ctx, refreshArgs); rerr != nil {
			return nil, errors.Wrap(rerr, "refreshing bird query ids")
		}
		stdout, err = c.run(ctx, args)
	}
	if err != nil {
		metrics.BirdRuns.WithLabelValues(outcomeOf(err)).Inc()
		return nil, err
	}

	var raw interface{}
	if err := json.Unmarshal(stdout, &raw); err != nil {
		metrics.BirdRuns.WithLabelValues("malformed").Inc()
		logger.WithError(err).Debug("bird printed non JSON output")
		return nil, types.NewError(types.KindMalformedResponse, "Failed to parse bird JSON output.")
	}

	metrics.BirdRuns.WithLabelValues("ok").Inc()
	return raw, nil
}

func (c *Client) run(ctx context.Context, args []string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	type result struct {
		stdout []byte
		err    error
	}
	done := make(chan result, 1)
	go func() {
		stdout, err := c.runner.Run(ctx, args)
		done <- result{stdout: stdout, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil && ctx.Err() == context.DeadlineExceeded {
			return nil, errTimeout()
		}
		return r.stdout, r.err
	case <-ctx.Done():
		if ctx.Err() == context.DeadlineExceeded {
			return nil, errTimeout()
		}
		return nil, errors.Wrap(ctx.Err(), "bird run cancelled")
	}
}

func errTimeout() error {
	return types.NewError(types.KindTimeout, "bird request timed out.")
}

func isStaleQueryID(err error) bool {
	if types.KindOf(err) != types.KindProcessError {
		return false
	}
	message := strings.ToLower(err.Error())
	for _, signature := range staleQueryIDSignatures {
		if strings.Contains(message, signature) {
			return true
		}
	}
	return false
}

func outcomeOf(err error) string {
	if types.KindOf(err) == types.KindTimeout {
		return "timeout"
	}
	return "error"
}
