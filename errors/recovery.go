package errors

import (
	"strings"
	"sync"
)

// ErrorCollector gathers errors from concurrent fetches
type ErrorCollector struct {
	errors []error
	mu     sync.Mutex
}

// NewErrorCollector creates an empty collector
func NewErrorCollector() *ErrorCollector {
	return &ErrorCollector{}
}

// Collect records err; nil is ignored
func (ec *ErrorCollector) Collect(err error) {
	if err == nil {
		return
	}
	ec.mu.Lock()
	defer ec.mu.Unlock()

	ec.errors = append(ec.errors, err)
}

// GetErrors returns a copy of the collected errors
func (ec *ErrorCollector) GetErrors() []error {
	ec.mu.Lock()
	defer ec.mu.Unlock()

	result := make([]error, len(ec.errors))
	copy(result, ec.errors)
	return result
}

// Len returns the number of collected errors
func (ec *ErrorCollector) Len() int {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	return len(ec.errors)
}

// Err joins the collected messages, or returns nil when empty
func (ec *ErrorCollector) Err() error {
	errs := ec.GetErrors()
	if len(errs) == 0 {
		return nil
	}
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return &FetchError{Kind: KindOf(errs[0]), Message: strings.Join(msgs, "; ")}
}

// Clear removes all collected errors
func (ec *ErrorCollector) Clear() {
	ec.mu.Lock()
	defer ec.mu.Unlock()

	ec.errors = ec.errors[:0]
}
