package domain

import (
	"fmt"
	"sort"
	"strings"
)

// ValidationErrors maps a field path (for example "passenger-0-dateOfBirth"
// or "contactEmail") to a user-facing message. An empty map means valid.
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, v[k]))
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(parts, "; "))
}

// Merge copies every entry of other into v. Last write wins on key clashes.
func (v ValidationErrors) Merge(other ValidationErrors) {
	for k, msg := range other {
		v[k] = msg
	}
}

// TransportError means the external API could not be reached at all. Callers
// with a documented fallback path (demo bookings) recover from it locally.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// UpstreamError means the external API was reachable but rejected the
// request. Message is surfaced verbatim to the user when the API provided
// one.
type UpstreamError struct {
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("upstream request failed with status %d", e.StatusCode)
}
