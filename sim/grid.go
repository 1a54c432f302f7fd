package sim

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/sirupsen/logrus"

	"github.com/poisson-sim/poisson-sim/sim/kernel"
	"github.com/poisson-sim/poisson-sim/sim/trace"
)

// minCullRadius is the smallest neighbourhood, in cells on each side, that
// any scan covers.
const minCullRadius = 3

// Grid is the event engine: it owns the cell store, the kernel model and the
// event stream, and advances the population one exact stochastic event at a
// time. Not safe for concurrent use.
type Grid struct {
	store    *Store
	model    *kernel.Model
	variates *Variates
	rates    RateConfig
	cull     int
	seed     int64

	populationLimit int
	capReached      bool

	time       float64
	eventCount int64
	last       Event

	Metrics *Metrics
	Trace   *trace.SimulationTrace // nil unless tracing is enabled
}

// NewGrid builds the kernel, places the initial population and seeds every
// individual's death rate with its neighbours' contributions.
func NewGrid(cfg GridConfig) (*Grid, error) {
	r := cfg.Rates
	for _, rate := range []struct {
		name  string
		value float64
	}{{"b", r.B}, {"d", r.D}, {"dd", r.DD}} {
		if !(rate.value >= 0) || math.IsInf(rate.value, 0) {
			return nil, fmt.Errorf("rate %s must be non-negative and finite, got %v", rate.name, rate.value)
		}
	}
	if cfg.Kernel == nil {
		return nil, fmt.Errorf("no kernel configured")
	}
	if !trace.IsValidTraceLevel(string(cfg.TraceLevel)) {
		return nil, fmt.Errorf("unknown trace level %q", cfg.TraceLevel)
	}
	if cfg.TraceLimit < 0 {
		return nil, fmt.Errorf("trace limit must be non-negative, got %d", cfg.TraceLimit)
	}

	model, err := cfg.Kernel.Build()
	if err != nil {
		return nil, fmt.Errorf("build kernel: %w", err)
	}
	store, err := NewStore(cfg.Domain.AreaLength, cfg.Domain.CellCount, cfg.Domain.Periodic)
	if err != nil {
		return nil, fmt.Errorf("build store: %w", err)
	}

	rng := NewPartitionedRNG(NewSimulationKey(cfg.Seed))
	g := &Grid{
		store:           store,
		model:           model,
		variates:        NewVariates(rng.ForSubsystem(SubsystemEvents)),
		rates:           r,
		cull:            max(int(math.Ceil(model.DeathCutoff()/store.CellWidth())), minCullRadius),
		seed:            cfg.Seed,
		populationLimit: cfg.Domain.PopulationLimit,
	}
	if cfg.TraceLevel.Enabled() {
		g.Trace = trace.NewSimulationTrace(trace.TraceConfig{Level: cfg.TraceLevel, Limit: cfg.TraceLimit})
	}

	for _, x := range g.initialCoords(cfg.Initial, rng.ForSubsystem(SubsystemPlacement)) {
		store.Insert(store.CellIndexFor(x), x, r.D)
	}
	if r.DD != 0 {
		g.accumulateInteractions()
	}
	store.Resum()
	g.Metrics = NewMetrics(store.Population())

	logrus.Infof("Grid ready: length=%g cells=%d periodic=%v cull=%d death cutoff=%g birth cutoff=%g population=%d",
		store.Length(), store.CellCount(), store.Periodic(), g.cull,
		model.DeathCutoff(), model.BirthCutoff(), store.Population())
	return g, nil
}

func (g *Grid) initialCoords(cfg PopulationConfig, src rand.Source) []float64 {
	length := g.store.Length()
	if cfg.Coords != nil {
		kept := make([]float64, 0, len(cfg.Coords))
		for _, x := range cfg.Coords {
			if x >= 0 && x <= length {
				kept = append(kept, x)
			}
		}
		if dropped := len(cfg.Coords) - len(kept); dropped > 0 {
			logrus.Debugf("Dropped %d initial coordinates outside [0, %g]", dropped, length)
		}
		return kept
	}
	if !(cfg.Density > 0) {
		return nil
	}
	placement := NewVariates(src)
	coords := make([]float64, int(math.Ceil(length*cfg.Density)))
	for i := range coords {
		coords[i] = placement.Uniform(0, length)
	}
	return coords
}

// accumulateInteractions gives every individual the contributions of all
// its neighbours. Each ordered pair is visited once, so each side receives
// its share from its own scan.
func (g *Grid) accumulateInteractions() {
	for i := range g.store.CellCount() {
		for slot := range g.store.CellPopulation(i) {
			self := Ref{Cell: i, Slot: slot}
			x := g.store.Coord(self)
			for nb := range g.store.Neighbors(i, g.cull) {
				if nb == self {
					continue
				}
				if delta := g.interaction(x, nb); delta != 0 {
					g.store.Accumulate(self, delta)
				}
			}
		}
	}
}

// interaction is the death-rate contribution between an individual at x
// and the neighbour nb.
func (g *Grid) interaction(x float64, nb Ref) float64 {
	dist := g.store.Distance(x, g.store.Coord(nb))
	if dist > g.model.DeathCutoff() {
		return 0
	}
	return g.rates.DD * g.model.Death(dist)
}

// MakeEvent performs one Gillespie step. It is a no-op on an empty grid.
// With a zero total event rate the clock jumps to +Inf and nothing else
// changes.
func (g *Grid) MakeEvent() {
	pop := g.store.Population()
	if pop == 0 {
		return
	}
	birthRate := float64(pop) * g.rates.B
	total := birthRate + max(g.store.DeathRate(), 0)

	g.time += g.variates.Exponential(total)
	g.eventCount++
	g.Metrics.SimEndedTime = g.time
	if !(total > 0) {
		g.Metrics.StalledEvents++
		logrus.Debugf("[event %d] zero total rate with population %d", g.eventCount, pop)
		return
	}

	if g.variates.Bernoulli(birthRate / total) {
		g.spawnRandom()
	} else {
		g.killRandom()
	}

	pop = g.store.Population()
	g.Metrics.record(g.last.Kind, pop)
	if g.Trace != nil {
		g.Trace.RecordEvent(trace.EventRecord{
			Index:      g.eventCount,
			Time:       g.time,
			Kind:       g.last.Kind.String(),
			X:          g.last.X,
			Population: pop,
		})
	}
	logrus.Tracef("[event %d] t=%.6f %s at %.6f, population %d", g.eventCount, g.time, g.last.Kind, g.last.X, pop)
}

func (g *Grid) killRandom() {
	i, ok := g.variates.Categorical(g.store.sums)
	if !ok {
		// Only rounding residue is left in the cell sums.
		i, _ = g.variates.Categorical(g.store.occupancy)
	}
	slot, ok := g.variates.Categorical(g.store.cells[i].deathRates)
	if !ok {
		slot = g.variates.IntN(g.store.CellPopulation(i))
	}
	victim := Ref{Cell: i, Slot: slot}
	x := g.store.Coord(victim)
	g.last = Event{X: x, Kind: Death}

	if g.rates.DD != 0 {
		for nb := range g.store.Neighbors(i, g.cull) {
			if nb == victim {
				continue
			}
			if delta := g.interaction(x, nb); delta != 0 {
				g.store.Couple(victim, nb, -delta)
			}
		}
	}
	g.store.Remove(victim, g.rates.D)
}

func (g *Grid) spawnRandom() {
	i, _ := g.variates.Categorical(g.store.occupancy)
	parent := Ref{Cell: i, Slot: g.variates.IntN(g.store.CellPopulation(i))}

	offset := g.model.Quantile(g.variates.Uniform(0, 1))
	if !g.variates.Bernoulli(0.5) {
		offset = -offset
	}
	x, ok := g.placeOffspring(g.store.Coord(parent) + offset)
	if !ok {
		g.last = Event{X: x, Kind: OutOfBounds}
		return
	}
	g.last = Event{X: x, Kind: Birth}

	c := g.store.CellIndexFor(x)
	child := g.store.Insert(c, x, g.rates.D)
	if g.rates.DD == 0 {
		return
	}
	for nb := range g.store.Neighbors(c, g.cull) {
		if nb == child {
			continue
		}
		if delta := g.interaction(x, nb); delta != 0 {
			g.store.Couple(child, nb, delta)
		}
	}
}

// placeOffspring maps a raw offspring coordinate into the domain. Bounded
// domains reject coordinates outside [0, length]; periodic domains wrap
// them into [0, length).
func (g *Grid) placeOffspring(x float64) (float64, bool) {
	length := g.store.Length()
	if !g.store.Periodic() {
		return x, x >= 0 && x <= length
	}
	x = math.Mod(x, length)
	if x < 0 {
		x += length
	}
	if x >= length {
		// -tiny + length rounds up to length
		x = 0
	}
	return x, true
}

// halted reports whether a run must stop before the next step. The first
// time the population is seen above the limit the cap flag is latched.
func (g *Grid) halted() bool {
	if g.store.Population() == 0 || math.IsInf(g.time, 1) {
		return true
	}
	if g.populationLimit < 0 || g.store.Population() <= g.populationLimit {
		return false
	}
	if !g.capReached {
		g.capReached = true
		logrus.Warnf("Population %d exceeds limit %d at t=%g after %d events; halting",
			g.store.Population(), g.populationLimit, g.time, g.eventCount)
	}
	return true
}

// RunEvents performs up to n events and returns how many were performed.
// It stops early on extinction, on a frozen clock and when the population
// cap is exceeded.
func (g *Grid) RunEvents(n int) int {
	done := 0
	for done < n && !g.halted() {
		g.MakeEvent()
		done++
	}
	return done
}

// RunFor performs events until the clock has advanced by at least duration
// from its value at the call, with the same early stops as RunEvents. It
// returns the number of events performed.
func (g *Grid) RunFor(duration float64) int {
	target := g.time + duration
	done := 0
	for g.time < target && !g.halted() {
		g.MakeEvent()
		done++
	}
	return done
}

// Time is the simulation clock.
func (g *Grid) Time() float64 { return g.time }

// EventCount is the number of steps taken, including stalled ones.
func (g *Grid) EventCount() int64 { return g.eventCount }

// TotalPopulation is the number of living individuals.
func (g *Grid) TotalPopulation() int { return g.store.Population() }

// TotalDeathRate is the sum of all individual death rates.
func (g *Grid) TotalDeathRate() float64 { return g.store.DeathRate() }

// PopulationLimit is the configured cap; negative means none.
func (g *Grid) PopulationLimit() int { return g.populationLimit }

// CapReached reports whether a run was halted by the population cap.
func (g *Grid) CapReached() bool { return g.capReached }

// LastEvent is the most recent applied event. It is the zero Event before
// the first one.
func (g *Grid) LastEvent() Event { return g.last }

// CullRadius is the neighbourhood half-width in cells.
func (g *Grid) CullRadius() int { return g.cull }

// Seed is the seed the event and placement streams were derived from.
func (g *Grid) Seed() int64 { return g.seed }

// AreaLength is the domain length.
func (g *Grid) AreaLength() float64 { return g.store.Length() }

// CellCount is the number of cells.
func (g *Grid) CellCount() int { return g.store.CellCount() }

// CellWidth is the length of one cell.
func (g *Grid) CellWidth() float64 { return g.store.CellWidth() }

// Periodic reports whether coordinates wrap at the domain ends.
func (g *Grid) Periodic() bool { return g.store.Periodic() }

// Kernel is the built kernel model.
func (g *Grid) Kernel() *kernel.Model { return g.model }

// DeathCutoff is the trimmed death kernel radius.
func (g *Grid) DeathCutoff() float64 { return g.model.DeathCutoff() }

// BirthCutoff is the largest birth offset.
func (g *Grid) BirthCutoff() float64 { return g.model.BirthCutoff() }

// AllCoords returns every coordinate, cell by cell.
func (g *Grid) AllCoords() []float64 { return g.store.AllCoords() }

// AllDeathRates returns every death rate in AllCoords order.
func (g *Grid) AllDeathRates() []float64 { return g.store.AllDeathRates() }

// DeathKernelAt evaluates the unscaled death kernel at distance d.
func (g *Grid) DeathKernelAt(d float64) float64 { return g.model.Death(d) }

// BirthKernelAt evaluates the birth kernel at distance d; 0 when the kernel
// was given only as a quantile table.
func (g *Grid) BirthKernelAt(d float64) float64 { return g.model.Birth(d) }

// BirthQuantileAt evaluates the birth displacement quantile at u.
func (g *Grid) BirthQuantileAt(u float64) float64 { return g.model.Quantile(u) }

// CellCoords returns a copy of cell i's coordinates.
func (g *Grid) CellCoords(i int) []float64 { return g.store.CellCoords(i) }

// CellDeathRates returns a copy of cell i's individual death rates.
func (g *Grid) CellDeathRates(i int) []float64 { return g.store.CellDeathRates(i) }

// CellPopulations returns the population of every cell.
func (g *Grid) CellPopulations() []int { return g.store.CellPopulations() }

// CellDeathRateSums returns the death-rate sum of every cell.
func (g *Grid) CellDeathRateSums() []float64 { return g.store.CellDeathRateSums() }
