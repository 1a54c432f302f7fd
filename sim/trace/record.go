// Package trace provides trajectory recording for birth-death runs.
// This package has no dependencies on sim/. It stores pure data types.
package trace

// Event kind names as recorded in EventRecord.Kind.
const (
	KindDeath       = "death"
	KindBirth       = "birth"
	KindOutOfBounds = "out_of_bounds"
)

// EventRecord captures a single applied event.
type EventRecord struct {
	Index      int64   `json:"index"`      // event counter after the event
	Time       float64 `json:"time"`       // simulation clock after the event
	Kind       string  `json:"kind"`       // one of the Kind* constants
	X          float64 `json:"x"`          // victim or offspring coordinate
	Population int     `json:"population"` // population after the event
}
