// Package apperrors provides the error taxonomy shared across the
// ledger, store, graph, matcher, search, and interceptor layers.
//
// Every package that needs to signal a failure constructs an *Error
// with one of the constructors below rather than defining its own
// bespoke error type. Callers that need to branch on the failure kind
// use errors.As to recover the Kind; callers that only need a message
// treat it as a plain error.
package apperrors

import "fmt"

// Kind is a machine-readable error category. Kinds are conceptual, not
// exhaustive of every call site that can fail -- several unrelated
// operations may report the same Kind.
type Kind string

const (
	KindInvalidArgument  Kind = "INVALID_ARGUMENT"
	KindInvalidTransition Kind = "INVALID_TRANSITION"
	KindOutOfRange       Kind = "OUT_OF_RANGE"
	KindOutOfOrder       Kind = "OUT_OF_ORDER"
	KindCyclicDependency Kind = "CYCLIC_DEPENDENCY"
	KindIntegrityFailure Kind = "INTEGRITY_FAILURE"
	KindProtocolError    Kind = "PROTOCOL_ERROR"
	KindQueryParseError  Kind = "QUERY_PARSE_ERROR"
	KindUnavailable      Kind = "UNAVAILABLE"
)

// Error is the single error type used across the module.
type Error struct {
	Kind    Kind
	Message string
	// Details carries structured context specific to the Kind, e.g.
	// the list of cyclic node ids or the tampered sequence number.
	// Left nil when there is nothing beyond Message worth keeping.
	Details any
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func new(kind Kind, message string, details any) *Error {
	return &Error{Kind: kind, Message: message, Details: details}
}

func InvalidArgument(message string) *Error {
	return new(KindInvalidArgument, message, nil)
}

func InvalidTransition(from, to, entity string) *Error {
	return new(KindInvalidTransition,
		fmt.Sprintf("cannot transition %s from %s to %s", entity, from, to), nil)
}

func OutOfRange(message string) *Error {
	return new(KindOutOfRange, message, nil)
}

func OutOfOrder(got, last float64) *Error {
	return new(KindOutOfOrder,
		fmt.Sprintf("out-of-order append: %v < last timestamp %v", got, last),
		map[string]float64{"got": got, "last": last})
}

// CyclicDependency reports the node ids whose in-degree never reached
// zero during a topological sort, i.e. the cycle's participants.
func CyclicDependency(nodes []string) *Error {
	return new(KindCyclicDependency,
		fmt.Sprintf("graph contains a cycle among %d node(s)", len(nodes)), nodes)
}

func IntegrityFailure(message string, details any) *Error {
	return new(KindIntegrityFailure, message, details)
}

func ProtocolError(message string) *Error {
	return new(KindProtocolError, message, nil)
}

func QueryParseError(fragment string) *Error {
	return new(KindQueryParseError,
		fmt.Sprintf("malformed query clause: %q", fragment), fragment)
}

func Unavailable(message string) *Error {
	return new(KindUnavailable, message, nil)
}

// Is reports whether err is an *Error of the given Kind.
func Is(err error, kind Kind) bool {
	ae, ok := err.(*Error)
	return ok && ae.Kind == kind
}
