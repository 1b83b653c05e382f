package schemas

import (
	"errors"
	"fmt"
)

// FailureKind is the caller-facing taxonomy for extraction failures.
type FailureKind string

const (
	FailUnsupportedDomain FailureKind = "unsupported-domain"
	FailNavigation        FailureKind = "navigation"
	FailDetection         FailureKind = "detection"
	FailNotFound          FailureKind = "not-found"
	FailTimeout           FailureKind = "timeout"
	FailValidation        FailureKind = "validation"
	FailExhausted         FailureKind = "exhausted"
)

// Retryable reports whether the recovery controller may spend another
// attempt on this failure kind. Unsupported domains fail fast and
// exhaustion is terminal by definition.
func (k FailureKind) Retryable() bool {
	switch k {
	case FailUnsupportedDomain, FailExhausted:
		return false
	default:
		return true
	}
}

// ExtractError is the common error shape for every failure the pipeline,
// resolver or session layer can produce. Kind drives the retry decision;
// Signal carries the diagnostic marker when one was observed.
type ExtractError struct {
	Kind   FailureKind
	Msg    string
	Signal string
	Err    error
}

func (e *ExtractError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *ExtractError) Unwrap() error { return e.Err }

// Is lets errors.Is match two ExtractErrors by kind.
func (e *ExtractError) Is(target error) bool {
	var t *ExtractError
	if errors.As(target, &t) {
		return t.Kind == e.Kind
	}
	return false
}

// NewError builds an ExtractError wrapping an optional cause.
func NewError(kind FailureKind, msg string, cause error) *ExtractError {
	return &ExtractError{Kind: kind, Msg: msg, Err: cause}
}

// UnsupportedDomainError marks a share URL whose host is outside the
// supported set. Never retried.
func UnsupportedDomainError(host string) *ExtractError {
	return &ExtractError{Kind: FailUnsupportedDomain, Msg: fmt.Sprintf("host %q is not a recognized terabox domain", host)}
}

// NavigationError marks a DNS, network or HTTP-status failure reaching the
// share page.
func NavigationError(msg string, cause error) *ExtractError {
	return &ExtractError{Kind: FailNavigation, Msg: msg, Err: cause}
}

// DetectionError marks an explicit challenge, CAPTCHA or 403/429 observed
// during an attempt. The signal names what fired.
func DetectionError(signal string) *ExtractError {
	return &ExtractError{Kind: FailDetection, Msg: "session flagged by bot detection", Signal: signal}
}

// NotFoundError marks a full pipeline pass that produced no candidate and
// no detection signal.
func NotFoundError() *ExtractError {
	return &ExtractError{Kind: FailNotFound, Msg: "no download link produced by any layer"}
}

// TimeoutError marks a layer or navigation that exceeded its budget.
func TimeoutError(what string) *ExtractError {
	return &ExtractError{Kind: FailTimeout, Msg: what + " exceeded its time budget"}
}

// ValidationError marks a candidate link that failed normalization or the
// reachability probe.
func ValidationError(msg string) *ExtractError {
	return &ExtractError{Kind: FailValidation, Msg: msg}
}

// ExhaustedError is the terminal failure after maxAttempts. It carries the
// last underlying failure for diagnostics.
func ExhaustedError(attempts int, last error) *ExtractError {
	return &ExtractError{
		Kind: FailExhausted,
		Msg:  fmt.Sprintf("all %d attempts failed", attempts),
		Err:  last,
	}
}

// KindOf extracts the failure kind from any error, defaulting to
// FailNavigation for untyped errors (the most conservative retryable kind).
func KindOf(err error) FailureKind {
	var e *ExtractError
	if errors.As(err, &e) {
		return e.Kind
	}
	return FailNavigation
}
