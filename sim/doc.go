// Package sim provides the spatial birth-death event engine.
//
// # Reading Guide
//
// Start with these files to understand the engine:
//   - store.go: cells of dense (coordinate, death rate) slots with swap-delete
//     and the per-cell and global death-rate aggregates
//   - grid.go: construction, the Gillespie step (MakeEvent) and the run
//     drivers RunEvents and RunFor
//   - variates.go: every random draw the event loop makes
//
// # Architecture
//
// The sim package owns the mutable state; supporting packages are pure:
//   - sim/kernel/: death kernel and birth displacement quantile, including
//     cutoff trimming and inverse-CDF construction
//   - sim/trace/: per-event trajectory records and their summary
//
// Individuals have no identity beyond a (cell, slot) Ref, which is valid
// only until the next removal from that cell. All rate changes go through
// Store methods so that individual rates, cell sums and the global total
// never disagree by more than rounding.
//
// A Grid is single-threaded and fully determined by its configuration and
// seed.
package sim
