package uv

// State classifies the outcome of a query that never fails.
type State int

const (
	// Unknown means the query could not be answered (missing binary,
	// command failure, unparsable output).
	Unknown State = iota
	// Empty means the query succeeded with nothing to report.
	Empty
	// OK means Value holds the answer.
	OK
)

func (s State) String() string {
	switch s {
	case OK:
		return "ok"
	case Empty:
		return "empty"
	default:
		return "unknown"
	}
}

// MarshalText renders the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Query is the tri-state result of a never-fail query. Callers can tell
// "nothing there" apart from "could not ask".
type Query[T any] struct {
	State State `json:"state"`
	Value T     `json:"value,omitempty"`
}

// Known wraps an answered query.
func Known[T any](v T) Query[T] {
	return Query[T]{State: OK, Value: v}
}

// None is an answered query with nothing to report.
func None[T any]() Query[T] {
	return Query[T]{State: Empty}
}

// Unanswered is a query that could not be answered.
func Unanswered[T any]() Query[T] {
	return Query[T]{State: Unknown}
}

// OK reports whether the query produced a value.
func (q Query[T]) OK() bool {
	return q.State == OK
}

// ValueOr returns the value, or def when the query did not produce one.
func (q Query[T]) ValueOr(def T) T {
	if q.State != OK {
		return def
	}
	return q.Value
}
