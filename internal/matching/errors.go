package matching

import "fmt"

// InvariantError indicates the book was found in a state the design
// declares impossible — a bug, not a runtime condition. The registry
// poisons the offending book when this is raised (see registry.go); it
// must never be handled as an ordinary error path.
type InvariantError struct {
	Symbol string
	Detail string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("matching: invariant violation on %s: %s", e.Symbol, e.Detail)
}

func invariantViolation(symbol, detail string) *InvariantError {
	return &InvariantError{Symbol: symbol, Detail: detail}
}
