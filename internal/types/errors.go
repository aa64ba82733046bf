package types

import (
	"fmt"
	"github.com/pkg/errors"
)

// Kind classifies a failure so the HTTP and bot surfaces can react to it
type Kind string

const (
	KindInvalidCommand     Kind = "InvalidCommand"
	KindUnsupportedCommand Kind = "UnsupportedCommand"
	KindInvalidFlag        Kind = "InvalidFlag"
	KindInvalidCount       Kind = "InvalidCount"
	KindUnsupportedFlag    Kind = "UnsupportedFlag"
	KindInvalidRequest     Kind = "InvalidRequest"
	KindTimeout            Kind = "Timeout"
	KindProcessError       Kind = "ProcessError"
	KindMalformedResponse  Kind = "MalformedResponse"
	KindUpstreamError      Kind = "UpstreamError"
	KindUnparsableSummary  Kind = "UnparsableSummary"
	KindMethodNotAllowed   Kind = "MethodNotAllowed"
	KindForbidden          Kind = "Forbidden"
	KindNotFound           Kind = "NotFound"
)

// Error is a classified failure. Format and Args are kept apart so the
// message can be translated before it reaches a user.
type Error struct {
	Kind   Kind
	Format string
	Args   []interface{}

	// ProcessError details
	ExitCode int
	Stderr   string

	// UpstreamError details
	StatusCode int
	Body       string
}

func (e *Error) Error() string {
	if len(e.Args) == 0 {
		return e.Format
	}
	return fmt.Sprintf(e.Format, e.Args...)
}

// NewError builds a classified error with a printf style message
func NewError(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Format: format, Args: args}
}

// KindOf returns the Kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsClientError reports whether err was caused by bad user input
func IsClientError(err error) bool {
	switch KindOf(err) {
	case KindInvalidCommand, KindUnsupportedCommand, KindInvalidFlag, KindInvalidCount, KindUnsupportedFlag,
		KindInvalidRequest:
		return true
	}
	return false
}
