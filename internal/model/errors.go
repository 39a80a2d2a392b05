package model

import (
	"fmt"
	"sort"
	"strings"
)

// ValidationError reports malformed input. It is raised before any I/O.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "invalid input"
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	msgs := make([]string, 0, len(keys))
	for _, k := range keys {
		msgs = append(msgs, e.Fields[k])
	}
	return "invalid input: " + strings.Join(msgs, "; ")
}

// Permanent marks the error as not worth retrying.
func (e *ValidationError) Permanent() bool { return true }

// UnsupportedChainError reports a chain without a configured endpoint or deployment.
type UnsupportedChainError struct {
	ChainID uint64
}

func (e *UnsupportedChainError) Error() string {
	return fmt.Sprintf("unsupported chain %d", e.ChainID)
}

func (e *UnsupportedChainError) Permanent() bool { return true }

// RemoteError wraps a failed remote read and names the capability behind it.
type RemoteError struct {
	Op  string
	Err error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// NoRouteError is returned when neither routing nor the direct pool produced a quote.
// Unwrap yields the fallback failure; the routing failure is kept for diagnostics.
type NoRouteError struct {
	Routing  error
	Fallback error
}

func (e *NoRouteError) Error() string {
	if e.Routing == nil {
		return fmt.Sprintf("no route: fallback: %v", e.Fallback)
	}
	return fmt.Sprintf("no route: routing: %v; fallback: %v", e.Routing, e.Fallback)
}

func (e *NoRouteError) Unwrap() error { return e.Fallback }
