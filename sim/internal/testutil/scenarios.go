// Package testutil provides shared test infrastructure for the birth-death
// simulator. It holds the scenario dataset types and numeric assertion
// helpers used across sim/ test packages, and imports nothing from sim/.
package testutil

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// ScenarioDataset represents the structure of testdata/scenarios.json.
type ScenarioDataset struct {
	Scenarios []Scenario `json:"scenarios"`
}

// Scenario is one parameter set with outcomes that hold for every seed.
type Scenario struct {
	Name            string    `json:"name"`
	AreaLength      float64   `json:"area_length_x"`
	CellCount       int       `json:"cell_count_x"`
	B               float64   `json:"b"`
	D               float64   `json:"d"`
	DD              float64   `json:"dd"`
	Seed            int64     `json:"seed"`
	Periodic        bool      `json:"periodic"`
	PopulationLimit *int      `json:"population_limit"`
	InitDensity     float64   `json:"init_density"`
	DeathKernelY    []float64 `json:"death_kernel_y"`
	DeathKernelR    float64   `json:"death_kernel_r"`
	BirthKernelY    []float64 `json:"birth_kernel_y"`
	Events          int       `json:"events"`
	Expect          Outcome   `json:"expect"`
}

// Limit is the scenario's population cap, or -1 (no cap) when unset.
func (s Scenario) Limit() int {
	if s.PopulationLimit == nil {
		return -1
	}
	return *s.PopulationLimit
}

// Outcome is the seed-independent end state of a scenario.
type Outcome struct {
	InitialPopulation int     `json:"initial_population"`
	FinalPopulation   int     `json:"final_population"`
	EventsApplied     int     `json:"events_applied"`
	FinalDeathRate    float64 `json:"final_death_rate"`
	CapReached        bool    `json:"cap_reached"`
}

// LoadScenarios loads the scenario dataset from the testdata directory.
// The path is resolved relative to this source file: sim/internal/testutil/ → testdata/.
func LoadScenarios(t *testing.T) *ScenarioDataset {
	t.Helper()

	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("Failed to get current file path")
	}
	// Navigate from sim/internal/testutil/ to repo root testdata/
	path := filepath.Join(filepath.Dir(thisFile), "..", "..", "..", "testdata", "scenarios.json")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read scenario dataset: %v", err)
	}

	var dataset ScenarioDataset
	if err := json.Unmarshal(data, &dataset); err != nil {
		t.Fatalf("Failed to parse scenario dataset: %v", err)
	}

	return &dataset
}

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}

// AssertNotNegative fails for any value below -tol.
func AssertNotNegative(t *testing.T, name string, values []float64, tol float64) {
	t.Helper()
	for i, v := range values {
		if v < -tol {
			t.Errorf("%s[%d] = %v, want >= %v", name, i, v, -tol)
		}
	}
}
