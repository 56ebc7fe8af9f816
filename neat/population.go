package neat

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// EvaluateFunc is the type for the function provided by the user to evaluate
// genome fitness. It must set g.Fitness to a finite value. A returned error
// aborts the epoch; panics are not recovered.
type EvaluateFunc func(g *Genome) error

// Population holds the state of the NEAT evolutionary process.
//
// A Population is driven from a single goroutine: Epoch, speciation and
// reproduction are not reentrant. Only the evaluation callback may run in
// parallel, across genomes.
type Population struct {
	Config       *Config
	Innovations  *InnovationRegistry
	Reproduction *Reproduction
	Stagnation   *Stagnation

	genomes        []*Genome
	species        []*Species
	generation     int
	threshold      float64
	nextSpeciesKey int
	bestEver       *Genome
	runID          uuid.UUID
	logger         *slog.Logger
}

// NewPopulation creates a new Population. It builds the first generation of
// fully connected genomes and speciates it right away.
func NewPopulation(config *Config, innovations *InnovationRegistry) (*Population, error) {
	if config == nil {
		return nil, errors.New("config is required")
	}
	if innovations == nil {
		return nil, errors.New("innovation registry is required")
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	runID := uuid.New()
	p := &Population{
		Config:         config,
		Innovations:    innovations,
		Reproduction:   NewReproduction(config, innovations),
		Stagnation:     NewStagnation(&config.Stagnation),
		threshold:      config.SpeciesSet.CompatibilityThreshold,
		nextSpeciesKey: 1,
		runID:          runID,
		logger: slog.Default().With(
			slog.String("component", "population"),
			slog.String("run", runID.String())),
	}
	p.genomes = p.Reproduction.CreateNewPopulation(config.Neat.PopSize)
	p.speciate()

	p.logger.Info("population created",
		slog.Int("size", len(p.genomes)),
		slog.Int("species", len(p.species)))
	return p, nil
}

// Epoch runs one generation: evaluate every genome, sort by fitness, reproduce,
// and speciate the new generation. Errors wrapping ErrFatal mean the run is
// corrupt.
func (p *Population) Epoch(eval EvaluateFunc) error {
	start := time.Now()

	if err := p.evaluate(eval); err != nil {
		return fmt.Errorf("evaluation failed in generation %d: %w", p.generation, err)
	}

	sort.SliceStable(p.genomes, func(i, j int) bool {
		return p.genomes[i].Fitness > p.genomes[j].Fitness
	})
	p.trackBest()
	evaluated := p.Stats()

	popSize := p.Config.Neat.PopSize
	newPopulation, survivors := p.Reproduction.Reproduce(p.species, p.lookup(), popSize)
	if newPopulation != nil {
		if len(newPopulation) != popSize {
			return fmt.Errorf("%w: reproduction produced %d genomes, want %d (generation %d)",
				ErrPopulationSize, len(newPopulation), popSize, p.generation)
		}
		p.genomes = newPopulation
		p.species = survivors
	}

	for _, sp := range p.species {
		sp.ResetForNextGen()
	}
	p.speciate()
	p.generation++

	p.logger.Info("generation finished",
		slog.Int("generation", evaluated.Generation),
		slog.Float64("best_fitness", evaluated.BestFitness),
		slog.Float64("mean_fitness", evaluated.MeanFitness),
		slog.Float64("stdev_fitness", evaluated.StdevFitness),
		slog.Int("species", len(p.species)),
		slog.Float64("threshold", p.threshold),
		slog.Duration("elapsed", time.Since(start)))
	return nil
}

// Genomes returns the current generation in population order.
func (p *Population) Genomes() []*Genome {
	return p.genomes
}

// Species returns the current species.
func (p *Population) Species() []*Species {
	return p.species
}

// Generation returns the number of completed epochs.
func (p *Population) Generation() int {
	return p.generation
}

// Threshold returns the current compatibility threshold.
func (p *Population) Threshold() float64 {
	return p.threshold
}

// RunID identifies this run in logs and archives.
func (p *Population) RunID() uuid.UUID {
	return p.runID
}

// Best returns the highest-fitness genome of the current population, the
// first one on ties. It fails with ErrPopulationUnderflow when fewer than two
// genomes remain, which only happens if the run is corrupt.
func (p *Population) Best() (*Genome, error) {
	if len(p.genomes) < 2 {
		return nil, fmt.Errorf("%w: population has size %d at generation %d",
			ErrPopulationUnderflow, len(p.genomes), p.generation)
	}
	best := p.genomes[0]
	for _, g := range p.genomes[1:] {
		if g.Fitness > best.Fitness {
			best = g
		}
	}
	return best, nil
}

// BestEver returns a copy of the fittest genome evaluated so far, or nil
// before the first epoch.
func (p *Population) BestEver() *Genome {
	return p.bestEver
}

// GenerationStats summarises the fitness of a population.
type GenerationStats struct {
	Generation   int
	Size         int
	Species      int
	BestFitness  float64
	MeanFitness  float64
	StdevFitness float64
}

// Stats summarises the current population.
func (p *Population) Stats() GenerationStats {
	stats := GenerationStats{
		Generation:  p.generation,
		Size:        len(p.genomes),
		Species:     len(p.species),
		BestFitness: math.Inf(-1),
	}
	if len(p.genomes) == 0 {
		return stats
	}

	fitnesses := make([]float64, len(p.genomes))
	for i, g := range p.genomes {
		fitnesses[i] = g.Fitness
	}
	stats.BestFitness = floats.Max(fitnesses)
	stats.MeanFitness = stat.Mean(fitnesses, nil)
	if len(fitnesses) > 1 {
		stats.StdevFitness = stat.StdDev(fitnesses, nil) // Sample standard deviation
	}
	return stats
}

// Parents returns the keys of the genomes that produced the given genome of
// the current generation: one key for an elite copy, two for a crossover
// child, none for a bootstrap genome. ok is false for unknown keys.
func (p *Population) Parents(genomeKey int) (parents []int, ok bool) {
	keys, ok := p.Reproduction.Ancestors[genomeKey]
	if !ok {
		return nil, false
	}
	return append([]int{}, keys...), true
}

func (p *Population) trackBest() {
	if len(p.genomes) == 0 {
		return
	}
	current := p.genomes[0]
	if p.bestEver == nil || current.Fitness > p.bestEver.Fitness {
		p.bestEver = current.Copy(current.Key)
		p.logger.Debug("new best genome",
			slog.Int("genome", current.Key),
			slog.Float64("fitness", current.Fitness))
	}
}

// lookup indexes the current population by genome key.
func (p *Population) lookup() map[int]*Genome {
	m := make(map[int]*Genome, len(p.genomes))
	for _, g := range p.genomes {
		m[g.Key] = g
	}
	return m
}
