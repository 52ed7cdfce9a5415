package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrKilled is returned for requests pushed after the scheduler was halted.
var ErrKilled = errors.New("api: scheduler killed")

// HTTPError is a non-2xx response from the endpoint.
type HTTPError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("%s: %s", e.Status, e.Body)
	}
	return e.Status
}

// SystemError is a failure below HTTP: dial, TLS, reset or timeout.
type SystemError struct {
	Err error
}

func (e *SystemError) Error() string {
	return fmt.Sprintf("system error: %v", e.Err)
}

func (e *SystemError) Unwrap() error {
	return e.Err
}

// QueryError holds the error list of a GraphQL response.
type QueryError struct {
	Errors []map[string]any
}

func (e *QueryError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, item := range e.Errors {
		if msg, ok := item["message"].(string); ok {
			msgs = append(msgs, msg)
		} else if msg, ok := item["error"].(string); ok {
			msgs = append(msgs, msg)
		}
	}
	if len(msgs) == 0 {
		return "query error"
	}
	return strings.Join(msgs, "; ")
}

// Class is the retry class of a failed request.
type Class int

const (
	// ClassQuery failures are final.
	ClassQuery Class = iota
	// ClassRateLimited failures collapse concurrency and retry after five seconds.
	ClassRateLimited
	// ClassTransient failures retry after failCount seconds.
	ClassTransient
)

var transientSignatures = []string{
	"socket hang up",
	"ECONNRESET",
	"connection reset",
	"502 Bad Gateway",
}

// Classify returns the retry class of err.
func Classify(err error) Class {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusTooManyRequests {
		return ClassRateLimited
	}

	var sysErr *SystemError
	if errors.As(err, &sysErr) {
		return ClassTransient
	}

	msg := err.Error()
	for _, sig := range transientSignatures {
		if strings.Contains(msg, sig) {
			return ClassTransient
		}
	}
	return ClassQuery
}

// IsRateLimited reports whether err is a 429 response.
func IsRateLimited(err error) bool {
	return err != nil && Classify(err) == ClassRateLimited
}

// IsTransient reports whether err is retried with backoff.
func IsTransient(err error) bool {
	return err != nil && Classify(err) == ClassTransient
}

// IsAbort reports whether err ends a whole run rather than a single call:
// cancellation, deadline or a killed scheduler.
func IsAbort(err error) bool {
	return errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, ErrKilled)
}
