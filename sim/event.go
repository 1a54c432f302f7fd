package sim

import "fmt"

// EventKind classifies the most recent event. The numeric values are part of
// the external contract: hosts compare against -1, 0 and 1.
type EventKind int

const (
	Death       EventKind = -1
	OutOfBounds EventKind = 0 // birth whose offspring landed outside a bounded domain
	Birth       EventKind = 1
)

// String returns the lowercase name used in traces and logs.
func (k EventKind) String() string {
	switch k {
	case Death:
		return "death"
	case OutOfBounds:
		return "out_of_bounds"
	case Birth:
		return "birth"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Event is the last-event tuple: where the event happened and what it was.
// For deaths X is the victim, for births and failed births the offspring.
type Event struct {
	X    float64
	Kind EventKind
}
