package trace

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	TotalEvents      int
	Deaths           int
	Births           int
	OutOfBounds      int
	MinPopulation    int
	PeakPopulation   int
	FinalTime        float64
	KindDistribution map[string]int // kind → count of records
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		KindDistribution: make(map[string]int),
	}
	if st == nil || len(st.Events) == 0 {
		return summary
	}

	summary.TotalEvents = len(st.Events)
	summary.MinPopulation = st.Events[0].Population
	for _, e := range st.Events {
		summary.KindDistribution[e.Kind]++
		summary.MinPopulation = min(summary.MinPopulation, e.Population)
		summary.PeakPopulation = max(summary.PeakPopulation, e.Population)
	}
	summary.Deaths = summary.KindDistribution[KindDeath]
	summary.Births = summary.KindDistribution[KindBirth]
	summary.OutOfBounds = summary.KindDistribution[KindOutOfBounds]
	summary.FinalTime = st.Events[len(st.Events)-1].Time

	return summary
}
