package processfromroot

import (
	"fmt"
)

// Kind classifies why a root message could not be relayed.
type Kind int

const (
	KindUnclassified Kind = iota
	KindUnknownDomain
	KindArgBuild
	KindEncoding
	KindUnresolvedDestination
	KindSubmission
	KindCancelled
	KindTimeout
	KindPanic
)

func (k Kind) String() string {
	switch k {
	case KindUnknownDomain:
		return "unknown domain"
	case KindArgBuild:
		return "argument build failure"
	case KindEncoding:
		return "encoding error"
	case KindUnresolvedDestination:
		return "unresolved destination"
	case KindSubmission:
		return "submission failure"
	case KindCancelled:
		return "cancelled"
	case KindTimeout:
		return "timeout"
	case KindPanic:
		return "panic"
	default:
		return "unclassified"
	}
}

// Label is the metric label form of the kind.
func (k Kind) Label() string {
	switch k {
	case KindUnknownDomain:
		return "unknown_domain"
	case KindArgBuild:
		return "arg_build"
	case KindEncoding:
		return "encoding"
	case KindUnresolvedDestination:
		return "unresolved_destination"
	case KindSubmission:
		return "submission"
	case KindCancelled:
		return "cancelled"
	case KindTimeout:
		return "timeout"
	case KindPanic:
		return "panic"
	default:
		return "unclassified"
	}
}

// Retryable reports whether a later batch run may succeed without operator action.
func (k Kind) Retryable() bool {
	switch k {
	case KindArgBuild, KindUnresolvedDestination, KindSubmission, KindCancelled, KindTimeout:
		return true
	default:
		return false
	}
}

// Alert reports whether the failure needs an operator: missing deployment or
// configuration, or a bug hit while processing.
func (k Kind) Alert() bool {
	return k == KindUnknownDomain || k == KindEncoding || k == KindPanic
}

// Error is the failure returned for a single root message.
type Error struct {
	Kind      Kind
	MessageID string
	Err       error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches sentinels of the same kind, so errors.Is(err, ErrArgBuild) works
// regardless of message or cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Err == nil && t.MessageID == "" && t.Kind == e.Kind
}

var (
	ErrUnknownDomain         = &Error{Kind: KindUnknownDomain}
	ErrArgBuild              = &Error{Kind: KindArgBuild}
	ErrEncoding              = &Error{Kind: KindEncoding}
	ErrUnresolvedDestination = &Error{Kind: KindUnresolvedDestination}
	ErrSubmission            = &Error{Kind: KindSubmission}
	ErrCancelled             = &Error{Kind: KindCancelled}
	ErrTimeout               = &Error{Kind: KindTimeout}
	ErrPanic                 = &Error{Kind: KindPanic}
)

// KindOf extracts the kind of err, or KindUnclassified.
func KindOf(err error) Kind {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e.Kind
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return KindUnclassified
		}
		err = u.Unwrap()
	}
	return KindUnclassified
}
