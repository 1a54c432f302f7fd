package sim

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

// Metrics aggregates counters about a run for final reporting.
type Metrics struct {
	Deaths        int64 // applied deaths
	Births        int64 // applied births
	FailedBirths  int64 // births whose offspring left a bounded domain
	StalledEvents int64 // steps taken with zero total event rate

	InitialPopulation int
	PeakPopulation    int
	MinPopulation     int

	SimEndedTime float64 // simulation clock at the end of the last driver call
}

// NewMetrics creates metrics seeded with the initial population.
func NewMetrics(initialPopulation int) *Metrics {
	return &Metrics{
		InitialPopulation: initialPopulation,
		PeakPopulation:    initialPopulation,
		MinPopulation:     initialPopulation,
	}
}

func (m *Metrics) record(kind EventKind, population int) {
	switch kind {
	case Death:
		m.Deaths++
	case Birth:
		m.Births++
	case OutOfBounds:
		m.FailedBirths++
	}
	m.PeakPopulation = max(m.PeakPopulation, population)
	m.MinPopulation = min(m.MinPopulation, population)
}

// MetricsOutput is the JSON form of a finished run.
type MetricsOutput struct {
	Seed              int64   `json:"seed"`
	Periodic          bool    `json:"periodic"`
	Events            int64   `json:"events"`
	Deaths            int64   `json:"deaths"`
	Births            int64   `json:"births"`
	FailedBirths      int64   `json:"failed_births"`
	StalledEvents     int64   `json:"stalled_events"`
	InitialPopulation int     `json:"initial_population"`
	FinalPopulation   int     `json:"final_population"`
	PeakPopulation    int     `json:"peak_population"`
	MinPopulation     int     `json:"min_population"`
	FinalDeathRate    float64 `json:"final_death_rate"`
	SimEndedTime      float64 `json:"sim_ended_time"`
	CapReached        bool    `json:"cap_reached"`
	WallClockSeconds  float64 `json:"wall_clock_s"`
}

// Output snapshots the grid together with its metrics.
func (g *Grid) Output(started time.Time) MetricsOutput {
	m := g.Metrics
	end := m.SimEndedTime
	if math.IsInf(end, 0) {
		// JSON has no infinity; a frozen grid reports -1.
		end = -1
	}
	return MetricsOutput{
		Seed:              g.seed,
		Periodic:          g.store.Periodic(),
		Events:            g.eventCount,
		Deaths:            m.Deaths,
		Births:            m.Births,
		FailedBirths:      m.FailedBirths,
		StalledEvents:     m.StalledEvents,
		InitialPopulation: m.InitialPopulation,
		FinalPopulation:   g.store.Population(),
		PeakPopulation:    m.PeakPopulation,
		MinPopulation:     m.MinPopulation,
		FinalDeathRate:    g.store.DeathRate(),
		SimEndedTime:      end,
		CapReached:        g.capReached,
		WallClockSeconds:  time.Since(started).Seconds(),
	}
}

// SaveResults prints the run metrics as JSON to w and, when outputPath is
// non-empty, also writes them to that file.
func SaveResults(w io.Writer, out MetricsOutput, outputPath string) error {
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal metrics: %w", err)
	}
	if _, err := fmt.Fprintf(w, "=== Simulation Metrics ===\n%s\n", data); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	if outputPath == "" {
		return nil
	}
	if err := os.WriteFile(outputPath, data, 0o644); err != nil {
		return fmt.Errorf("write metrics file %s: %w", outputPath, err)
	}
	logrus.Infof("Metrics written to: %s", outputPath)
	return nil
}
