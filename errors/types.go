package errors

import (
	stderrors "errors"
	"fmt"
	"runtime/debug"
	"time"
)

// ErrorKind classifies failures at the boundary where they are recovered
type ErrorKind string

const (
	// Remote call rejected or connection unavailable
	KindTransport ErrorKind = "transport"
	KindTimeout   ErrorKind = "timeout"

	// Response shape did not match expectations
	KindMalformed ErrorKind = "malformed_payload"

	// Model id has no row in the price table
	KindUnrepairablePricing ErrorKind = "unrepairable_pricing"

	// Persisted entry could not be parsed
	KindCacheCorruption ErrorKind = "cache_corruption"

	KindConfig  ErrorKind = "config"
	KindUnknown ErrorKind = "unknown"
)

// FetchError is the typed error carried by every fetch result
type FetchError struct {
	Kind      ErrorKind
	Group     string
	Op        string
	Message   string
	Cause     error
	Timestamp time.Time
}

func (e *FetchError) Error() string {
	msg := e.Message
	if msg == "" && e.Cause != nil {
		msg = e.Cause.Error()
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, msg)
	}
	return msg
}

func (e *FetchError) Unwrap() error {
	return e.Cause
}

// Retryable reports whether the next poll tick may succeed without intervention
func (e *FetchError) Retryable() bool {
	return e.Kind == KindTransport || e.Kind == KindTimeout
}

// New creates a FetchError of the given kind
func New(kind ErrorKind, group, op string, cause error) *FetchError {
	fe := &FetchError{
		Kind:      kind,
		Group:     group,
		Op:        op,
		Cause:     cause,
		Timestamp: time.Now(),
	}
	if cause != nil {
		fe.Message = cause.Error()
	}
	return fe
}

// Transport wraps a rejected remote call
func Transport(group, op string, cause error) *FetchError {
	return New(KindTransport, group, op, cause)
}

// Malformed wraps a decode failure
func Malformed(group, op string, cause error) *FetchError {
	return New(KindMalformed, group, op, cause)
}

// KindOf extracts the ErrorKind from err, or KindUnknown
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var fe *FetchError
	if stderrors.As(err, &fe) {
		return fe.Kind
	}
	return KindUnknown
}

// Is reports whether err carries the given kind
func Is(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}

// PanicError records a recovered panic inside a fetch or callback
type PanicError struct {
	Component string
	Value     interface{}
	Stack     string
	Timestamp time.Time
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic in %s: %v", e.Component, e.Value)
}

// CapturePanic converts a recovered value into a PanicError, or nil
func CapturePanic(component string, r interface{}) *PanicError {
	if r == nil {
		return nil
	}
	return &PanicError{
		Component: component,
		Value:     r,
		Stack:     string(debug.Stack()),
		Timestamp: time.Now(),
	}
}
