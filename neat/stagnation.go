package neat

import (
	"log/slog"
	"math"
)

// Stagnation manages the detection of stagnant species.
type Stagnation struct {
	Config *StagnationConfig
	logger *slog.Logger
}

// NewStagnation creates a new stagnation manager.
func NewStagnation(config *StagnationConfig) *Stagnation {
	return &Stagnation{
		Config: config,
		logger: slog.Default().With(slog.String("component", "stagnation")),
	}
}

// Update records the best member fitness of every species for this generation.
// A species improves when that fitness beats BestFitnessEver; otherwise its
// counter grows. Species whose counter exceeds MaxStagnation are returned in
// stagnant and left out of survivors. Species without members are expected to
// have been removed already.
func (s *Stagnation) Update(species []*Species, fitnessOf func(genomeKey int) float64) (survivors, stagnant []*Species) {
	survivors = make([]*Species, 0, len(species))
	for _, sp := range species {
		best := math.Inf(-1)
		for _, key := range sp.Members {
			best = math.Max(best, fitnessOf(key))
		}

		if best > sp.BestFitnessEver {
			sp.BestFitnessEver = best
			sp.GensSinceImprovement = 0
		} else {
			sp.GensSinceImprovement++
		}

		if sp.GensSinceImprovement > s.Config.MaxStagnation {
			s.logger.Debug("species removed due to stagnation",
				slog.Int("species", sp.Key),
				slog.Float64("best_fitness", sp.BestFitnessEver),
				slog.Int("stagnant_for", sp.GensSinceImprovement))
			stagnant = append(stagnant, sp)
			continue
		}
		survivors = append(survivors, sp)
	}
	return survivors, stagnant
}
