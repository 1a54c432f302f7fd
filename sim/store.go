package sim

import (
	"fmt"
	"iter"
	"math"

	"gonum.org/v1/gonum/floats"
)

// snapTolerance is the magnitude below which a cell's death-rate sum is
// treated as rounding residue and reset to exactly zero.
const snapTolerance = 1e-10

// Ref addresses one individual as (cell index, slot index). A Ref is valid
// only until the next Remove in the same cell: removal moves the cell's last
// individual into the vacated slot.
type Ref struct {
	Cell int
	Slot int
}

// cell holds the residents of one spatial bucket as two index-aligned dense
// slices.
type cell struct {
	coords     []float64
	deathRates []float64
}

// Store partitions [0, Length) into equal-width cells and keeps per-cell and
// global death-rate aggregates in step with every mutation. All changes to
// individual rates go through Insert, Remove, Couple and Accumulate so that
// the individual, its cell sum and the global total move together.
type Store struct {
	cells     []cell
	sums      []float64 // per-cell death-rate sums; categorical weights for deaths
	occupancy []float64 // per-cell populations as weights for parent choice
	length    float64
	width     float64
	periodic  bool

	population int
	deathRate  float64
}

// NewStore creates an empty store with cellCount cells over a domain of the
// given length.
func NewStore(length float64, cellCount int, periodic bool) (*Store, error) {
	if !(length > 0) || math.IsInf(length, 0) {
		return nil, fmt.Errorf("area length must be positive and finite, got %v", length)
	}
	if cellCount < 1 {
		return nil, fmt.Errorf("cell count must be at least 1, got %d", cellCount)
	}
	return &Store{
		cells:     make([]cell, cellCount),
		sums:      make([]float64, cellCount),
		occupancy: make([]float64, cellCount),
		length:    length,
		width:     length / float64(cellCount),
		periodic:  periodic,
	}, nil
}

// CellCount is the number of cells.
func (s *Store) CellCount() int { return len(s.cells) }

// CellWidth is the spatial width of one cell.
func (s *Store) CellWidth() float64 { return s.width }

// Length is the domain length.
func (s *Store) Length() float64 { return s.length }

// Periodic reports whether cell indices and distances wrap around.
func (s *Store) Periodic() bool { return s.periodic }

// Population is the total number of individuals.
func (s *Store) Population() int { return s.population }

// DeathRate is the total death rate over all individuals.
func (s *Store) DeathRate() float64 { return s.deathRate }

// CellIndexFor maps a coordinate to its cell. The right boundary belongs to
// the last cell.
func (s *Store) CellIndexFor(x float64) int {
	n := len(s.cells)
	i := int(math.Floor(x * float64(n) / s.length))
	return min(max(i, 0), n-1)
}

// Wrap maps a cell index that stepped outside [0, CellCount) back into
// range. Only meaningful for periodic stores.
func (s *Store) Wrap(i int) int {
	n := len(s.cells)
	i %= n
	if i < 0 {
		i += n
	}
	return i
}

// Distance is the separation of two coordinates, using the nearest periodic
// image when the store wraps.
func (s *Store) Distance(x1, x2 float64) float64 {
	d := math.Abs(x1 - x2)
	if s.periodic {
		d = math.Mod(d, s.length)
		d = min(d, s.length-d)
	}
	return d
}

// Coord returns the coordinate of an individual.
func (s *Store) Coord(r Ref) float64 { return s.cells[r.Cell].coords[r.Slot] }

// IndividualDeathRate returns the death rate of an individual.
func (s *Store) IndividualDeathRate(r Ref) float64 { return s.cells[r.Cell].deathRates[r.Slot] }

// CellPopulation is the number of residents of cell i.
func (s *Store) CellPopulation(i int) int { return len(s.cells[i].coords) }

// CellDeathRate is the cached death-rate sum of cell i.
func (s *Store) CellDeathRate(i int) float64 { return s.sums[i] }

// Insert appends an individual with the given death rate to cell i and
// returns its address.
func (s *Store) Insert(i int, x, rate float64) Ref {
	c := &s.cells[i]
	c.coords = append(c.coords, x)
	c.deathRates = append(c.deathRates, rate)
	s.sums[i] += rate
	s.occupancy[i]++
	s.population++
	s.deathRate += rate
	return Ref{Cell: i, Slot: len(c.coords) - 1}
}

// Remove deletes an individual in O(1) by moving the cell's last resident
// into its slot. base is subtracted from the cell sum and the total; any
// pairwise contributions must already have been withdrawn with Couple.
// Cell sums within snapTolerance of zero are snapped to exactly zero, and
// the total is reset to zero once the store is empty.
func (s *Store) Remove(r Ref, base float64) {
	c := &s.cells[r.Cell]
	s.sums[r.Cell] -= base
	s.deathRate -= base
	if math.Abs(s.sums[r.Cell]) < snapTolerance || len(c.coords) == 1 {
		s.deathRate -= s.sums[r.Cell]
		s.sums[r.Cell] = 0
	}

	last := len(c.coords) - 1
	c.coords[r.Slot] = c.coords[last]
	c.deathRates[r.Slot] = c.deathRates[last]
	c.coords = c.coords[:last]
	c.deathRates = c.deathRates[:last]

	s.occupancy[r.Cell]--
	s.population--
	if s.population == 0 {
		s.deathRate = 0
	}
}

// Couple adds a symmetric pairwise contribution delta to both individuals,
// to both their cells, and twice to the total. A negative delta withdraws
// the contribution.
func (s *Store) Couple(a, b Ref, delta float64) {
	s.cells[a.Cell].deathRates[a.Slot] += delta
	s.cells[b.Cell].deathRates[b.Slot] += delta
	s.sums[a.Cell] += delta
	s.sums[b.Cell] += delta
	s.deathRate += 2 * delta
}

// Accumulate adds a one-sided contribution to an individual, its cell and
// the total.
func (s *Store) Accumulate(r Ref, delta float64) {
	s.cells[r.Cell].deathRates[r.Slot] += delta
	s.sums[r.Cell] += delta
	s.deathRate += delta
}

// Resum recomputes the total death rate from the cell sums, discarding any
// incrementally accumulated rounding error.
func (s *Store) Resum() float64 {
	s.deathRate = floats.Sum(s.sums)
	return s.deathRate
}

// Neighbors yields every individual in the cells within cull cells of
// center, inclusive. Bounded stores clip the window at the domain edges;
// periodic stores wrap it and visit each cell at most once. The center
// individual itself is included; callers skip it by comparing Refs.
//
// Individual rates may be changed while iterating, but no individual may
// be inserted or removed.
func (s *Store) Neighbors(center, cull int) iter.Seq[Ref] {
	return func(yield func(Ref) bool) {
		n := len(s.cells)
		lo, hi := center-cull, center+cull
		if s.periodic {
			if hi-lo+1 >= n {
				lo, hi = 0, n-1
			}
		} else {
			lo, hi = max(lo, 0), min(hi, n-1)
		}
		for k := lo; k <= hi; k++ {
			i := k
			if s.periodic {
				i = s.Wrap(k)
			}
			for slot := range s.cells[i].coords {
				if !yield(Ref{Cell: i, Slot: slot}) {
					return
				}
			}
		}
	}
}

// CellCoords returns a copy of the coordinates in cell i.
func (s *Store) CellCoords(i int) []float64 {
	return append([]float64(nil), s.cells[i].coords...)
}

// CellDeathRates returns a copy of the individual death rates in cell i.
func (s *Store) CellDeathRates(i int) []float64 {
	return append([]float64(nil), s.cells[i].deathRates...)
}

// CellDeathRateSums returns a copy of all cell sums.
func (s *Store) CellDeathRateSums() []float64 {
	return append([]float64(nil), s.sums...)
}

// CellPopulations returns the population of every cell.
func (s *Store) CellPopulations() []int {
	out := make([]int, len(s.cells))
	for i := range s.cells {
		out[i] = len(s.cells[i].coords)
	}
	return out
}

// AllCoords returns every coordinate, cell by cell.
func (s *Store) AllCoords() []float64 {
	out := make([]float64, 0, s.population)
	for i := range s.cells {
		out = append(out, s.cells[i].coords...)
	}
	return out
}

// AllDeathRates returns every individual death rate, in AllCoords order.
func (s *Store) AllDeathRates() []float64 {
	out := make([]float64, 0, s.population)
	for i := range s.cells {
		out = append(out, s.cells[i].deathRates...)
	}
	return out
}
