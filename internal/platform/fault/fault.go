package fault

import (
	"errors"
	"fmt"
	"net/http"

	"go.temporal.io/sdk/temporal"
)

// Kind classifies failures surfaced by external-service clients so that
// workflows and activity retry policies can treat them uniformly.
type Kind string

const (
	KindConfigMissing    Kind = "config_missing"
	KindAuth             Kind = "auth"
	KindRateLimited      Kind = "rate_limited"
	KindTimeout          Kind = "timeout"
	KindUpstream4xx      Kind = "upstream_4xx"
	KindUpstream5xx      Kind = "upstream_5xx"
	KindParse            Kind = "parse"
	KindSchemaValidation Kind = "schema_validation"
	KindQuota            Kind = "quota"
	KindDuplicate        Kind = "duplicate"
	KindPaywalled        Kind = "paywalled"
)

type Error struct {
	Kind    Kind
	Service string
	Msg     string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	s := fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	if e.Service != "" {
		s = e.Service + ": " + s
	}
	if e.Cause != nil {
		s += ": " + e.Cause.Error()
	}
	return s
}

func (e *Error) Unwrap() error { return e.Cause }

func New(kind Kind, service, msg string) *Error {
	return &Error{Kind: kind, Service: service, Msg: msg}
}

func Wrap(kind Kind, service, msg string, cause error) *Error {
	return &Error{Kind: kind, Service: service, Msg: msg, Cause: cause}
}

// FromHTTPStatus maps an upstream response code onto the taxonomy.
func FromHTTPStatus(service string, code int, body string) *Error {
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return New(KindAuth, service, body)
	case code == http.StatusTooManyRequests:
		return New(KindRateLimited, service, body)
	case code == http.StatusPaymentRequired:
		return New(KindQuota, service, body)
	case code == http.StatusRequestTimeout || code == http.StatusGatewayTimeout:
		return New(KindTimeout, service, body)
	case code >= 500:
		return New(KindUpstream5xx, service, fmt.Sprintf("status %d: %s", code, body))
	case code >= 400:
		return New(KindUpstream4xx, service, fmt.Sprintf("status %d: %s", code, body))
	default:
		return New(KindParse, service, fmt.Sprintf("unexpected status %d", code))
	}
}

// KindOf returns the taxonomy kind of err, or "" when err carries none.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}

func Is(err error, kind Kind) bool { return KindOf(err) == kind }

// Retryable reports whether a caller should retry the failed call.
// Only rate limits, timeouts, and upstream 5xx responses qualify.
func Retryable(err error) bool {
	switch KindOf(err) {
	case KindRateLimited, KindTimeout, KindUpstream5xx:
		return true
	default:
		return false
	}
}

// AsActivityError converts a classified error into one the Temporal retry
// machinery understands: retryable kinds pass through unchanged, everything
// else is marked non-retryable with the kind as the error type.
func AsActivityError(err error) error {
	if err == nil {
		return nil
	}
	kind := KindOf(err)
	if kind == "" {
		return err
	}
	if Retryable(err) {
		return temporal.NewApplicationError(err.Error(), string(kind))
	}
	return temporal.NewNonRetryableApplicationError(err.Error(), string(kind), err)
}
