package billing

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidSignature rejects a delivery whose signature does not match the
	// raw body. Nothing is parsed or applied.
	ErrInvalidSignature = errors.New("billing: invalid webhook signature")
	// ErrMalformedPayload means the verified body is not a parseable event.
	ErrMalformedPayload = errors.New("billing: malformed webhook payload")
	// ErrMalformedEvent means a known event type lacks a field its handler
	// needs. It is acknowledged as a no-op.
	ErrMalformedEvent = errors.New("billing: malformed event")
	// ErrStoreUnavailable wraps persistence failures. Webhook callers report it
	// so the processor redelivers.
	ErrStoreUnavailable = errors.New("billing: subscription store unavailable")
	// ErrProfileNotFound is returned when no profile matches a lookup.
	ErrProfileNotFound = errors.New("billing: profile not found")
	// ErrNoSubscription is returned for plan changes on a profile without a
	// provider subscription.
	ErrNoSubscription = errors.New("billing: no active subscription")
	// ErrUnknownPlan is returned for plan tags outside the catalog.
	ErrUnknownPlan = errors.New("billing: unknown plan")
	// ErrGatewayUnavailable wraps payment processor API failures.
	ErrGatewayUnavailable = errors.New("billing: payment gateway unavailable")
)

// MalformedEventError describes which event could not be applied and why.
type MalformedEventError struct {
	EventID string
	Type    string
	Reason  string
}

func (e *MalformedEventError) Error() string {
	return fmt.Sprintf("billing: malformed %s event %s: %s", e.Type, e.EventID, e.Reason)
}

func (e *MalformedEventError) Unwrap() error {
	return ErrMalformedEvent
}
