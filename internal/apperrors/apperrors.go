// Package apperrors defines the stable error taxonomy for the ingestion
// pipeline. Callers branch on Kind rather than on error strings.
package apperrors

import (
	"errors"
	"fmt"
)

// Kind classifies a pipeline failure.
type Kind string

const (
	// ArchiveUnavailable - the archive index returned a non-success status.
	ArchiveUnavailable Kind = "archive_unavailable"
	// ProviderUnavailable - a provider board API returned a non-success,
	// non-404 status.
	ProviderUnavailable Kind = "provider_unavailable"
	// ProviderSchema - a provider response decoded but did not match the
	// expected shape.
	ProviderSchema Kind = "provider_schema"
	// CdxParse - an archive index line could not be decoded.
	CdxParse Kind = "cdx_parse"
	// PageFetch - a single archive index page failed; counts against the
	// per-provider error budget.
	PageFetch Kind = "page_fetch"
	// Upsert - a database write failed.
	Upsert Kind = "upsert"
	// InvalidProvider - an unrecognised provider name.
	InvalidProvider Kind = "invalid_provider"
	// Internal - everything else.
	Internal Kind = "internal"
)

// Error carries a Kind, the operation that failed, and the underlying cause.
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

// New creates an Error with a formatted message as its cause.
func New(kind Kind, op, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// Wrap wraps err with a kind and operation. Returns nil when err is nil.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the Kind of err, or Internal when err carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
