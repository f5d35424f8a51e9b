package probe

import (
	"errors"
	"fmt"
)

// Kind classifies a transport-level probe failure.
type Kind int

const (
	KindUnreachable Kind = iota
	KindMalformedOutput
	KindTimeout
	KindConnectionRefused
)

func (k Kind) String() string {
	switch k {
	case KindUnreachable:
		return "unreachable"
	case KindMalformedOutput:
		return "malformed output"
	case KindTimeout:
		return "timeout"
	case KindConnectionRefused:
		return "connection refused"
	}
	return fmt.Sprintf("unknown probe error kind (%d)", int(k))
}

// Error is a transport-level probe failure. It is retryable by the
// polling layer; it never carries a verdict by itself.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// AsError returns the probe error wrapped in err, if any.
func AsError(err error) (*Error, bool) {
	var pe *Error
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

func newError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}
