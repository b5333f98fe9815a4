// Package fault classifies failures of the prompt-to-image flow so the
// relay and its callers can dispatch on a kind instead of on message text.
package fault

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is a failure classification. Its value is the wire name used in
// relay envelopes.
type Kind string

const (
	// Validation is a malformed or missing prompt.
	Validation Kind = "validation"
	// Configuration is a missing or unreadable relay credential.
	Configuration Kind = "configuration"
	// RateLimited is an upstream 429.
	RateLimited Kind = "rate_limited"
	// PaymentRequired is an upstream 402.
	PaymentRequired Kind = "payment_required"
	// UpstreamUnavailable is any other upstream status or a transport failure.
	UpstreamUnavailable Kind = "upstream_unavailable"
	// MalformedUpstreamResponse is a 2xx upstream body without an image.
	MalformedUpstreamResponse Kind = "malformed_upstream_response"
	// Unexpected is anything not otherwise classified.
	Unexpected Kind = "unexpected"
)

var kinds = []Kind{
	Validation,
	Configuration,
	RateLimited,
	PaymentRequired,
	UpstreamUnavailable,
	MalformedUpstreamResponse,
	Unexpected,
}

// ParseKind returns the Kind with wire name s.
func ParseKind(s string) (Kind, bool) {
	for _, k := range kinds {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}

// Error is a classified failure.
type Error struct {
	Kind  Kind
	Msg   string
	Code  int   // HTTP status reported by the relay
	Cause error // underlying error, if any
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Cause)
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func New(kind Kind, code int, msg string, cause error) *Error {
	return &Error{Kind: kind, Msg: msg, Code: code, Cause: cause}
}

func NewValidation(msg string) *Error {
	return New(Validation, http.StatusBadRequest, msg, nil)
}

func NewConfiguration(msg string, cause error) *Error {
	return New(Configuration, http.StatusInternalServerError, msg, cause)
}

func NewUpstreamUnavailable(msg string, cause error) *Error {
	return New(UpstreamUnavailable, http.StatusInternalServerError, msg, cause)
}

func NewMalformed(msg string) *Error {
	return New(MalformedUpstreamResponse, http.StatusInternalServerError, msg, nil)
}

func NewUnexpected(msg string, cause error) *Error {
	return New(Unexpected, http.StatusInternalServerError, msg, cause)
}

// FromStatus classifies a non-2xx upstream status. The code is kept so it
// can be passed through to the relay's caller.
func FromStatus(code int, msg string) *Error {
	switch code {
	case http.StatusTooManyRequests:
		return New(RateLimited, code, msg, nil)
	case http.StatusPaymentRequired:
		return New(PaymentRequired, code, msg, nil)
	default:
		return New(UpstreamUnavailable, code, msg, nil)
	}
}

// KindOf returns the kind of the first *Error in err's chain, Unexpected
// when there is none and "" for a nil error.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return Unexpected
}

// Classified reports whether err carries a *Error.
func Classified(err error) bool {
	var fe *Error
	return errors.As(err, &fe)
}

// Is reports whether err is classified as kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// StatusOf returns the HTTP status for err, 500 when it is unclassified.
func StatusOf(err error) int {
	var fe *Error
	if errors.As(err, &fe) && fe.Code != 0 {
		return fe.Code
	}
	return http.StatusInternalServerError
}
