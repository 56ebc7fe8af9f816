package neat

import (
	"errors"
	"math"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// PopulationSuite drives whole generations through a small population.
type PopulationSuite struct {
	suite.Suite
	cfg *Config
	reg *InnovationRegistry
}

func (s *PopulationSuite) SetupTest() {
	s.cfg = testConfig(4, 4, 10)
	s.reg = NewInnovationRegistry(nil)
}

func nodeCountFitness(g *Genome) error {
	g.Fitness = float64(len(g.Nodes))
	return nil
}

// TestBootstrap: I=4, O=4, N=10 gives 20 shared connection genes per genome.
func (s *PopulationSuite) TestBootstrap() {
	p, err := NewPopulation(s.cfg, s.reg)
	require.NoError(s.T(), err)
	require.Len(s.T(), p.Genomes(), 10)
	require.Equal(s.T(), 0, p.Generation())
	require.NotEqual(s.T(), uuid.Nil, p.RunID())
	require.Equal(s.T(), 3.0, p.Threshold())

	want := p.Genomes()[0].SortedInnovations()
	require.Len(s.T(), want, 20)
	for _, g := range p.Genomes() {
		require.Equal(s.T(), want, g.SortedInnovations())
		require.Len(s.T(), g.Nodes, 9)
	}
	require.NotEmpty(s.T(), p.Species())
}

// TestEpochs: five epochs keep the size fixed and count generations.
func (s *PopulationSuite) TestEpochs() {
	s.cfg.Genome.ConnAddProb = 0.5
	s.cfg.Genome.NodeAddProb = 0.5
	p, err := NewPopulation(s.cfg, s.reg)
	require.NoError(s.T(), err)

	for i := 0; i < 5; i++ {
		require.NoError(s.T(), p.Epoch(nodeCountFitness))
		require.Len(s.T(), p.Genomes(), 10)
		require.NotEmpty(s.T(), p.Species())
	}
	require.Equal(s.T(), 5, p.Generation())

	keys := make(map[int]bool)
	for _, g := range p.Genomes() {
		require.False(s.T(), keys[g.Key], "duplicate genome key %d", g.Key)
		keys[g.Key] = true
	}

	members := 0
	for _, sp := range p.Species() {
		members += sp.Size()
		for _, key := range sp.Members {
			require.True(s.T(), keys[key], "species %d holds unknown genome %d", sp.Key, key)
		}
		require.True(s.T(), keys[sp.Representative])
	}
	require.Equal(s.T(), 10, members, "every genome belongs to exactly one species")

	require.NotNil(s.T(), p.BestEver())
	require.GreaterOrEqual(s.T(), p.BestEver().Fitness, 9.0)
}

// TestParallelEvaluation: every genome is evaluated exactly once per epoch.
func (s *PopulationSuite) TestParallelEvaluation() {
	s.cfg.Neat.Workers = 4
	p, err := NewPopulation(s.cfg, s.reg)
	require.NoError(s.T(), err)

	var calls atomic.Int64
	for i := 0; i < 3; i++ {
		require.NoError(s.T(), p.Epoch(func(g *Genome) error {
			calls.Add(1)
			return nodeCountFitness(g)
		}))
	}
	require.Equal(s.T(), int64(30), calls.Load())
	require.Len(s.T(), p.Genomes(), 10)
}

// TestEvaluationError aborts the epoch without advancing the generation.
func (s *PopulationSuite) TestEvaluationError() {
	for _, workers := range []int{1, 3} {
		s.cfg.Neat.Workers = workers
		p, err := NewPopulation(s.cfg, s.reg)
		require.NoError(s.T(), err)

		boom := errors.New("boom")
		err = p.Epoch(func(g *Genome) error { return boom })
		require.ErrorIs(s.T(), err, boom)
		require.Equal(s.T(), 0, p.Generation())
	}
}

// TestZeroFitness still reproduces a full population.
func (s *PopulationSuite) TestZeroFitness() {
	p, err := NewPopulation(s.cfg, s.reg)
	require.NoError(s.T(), err)

	require.NoError(s.T(), p.Epoch(func(g *Genome) error {
		g.Fitness = 0
		return nil
	}))
	require.Len(s.T(), p.Genomes(), 10)
}

func (s *PopulationSuite) TestBest() {
	p, err := NewPopulation(s.cfg, s.reg)
	require.NoError(s.T(), err)

	for i, g := range p.Genomes() {
		g.Fitness = float64(i % 4)
	}
	best, err := p.Best()
	require.NoError(s.T(), err)
	require.Same(s.T(), p.Genomes()[3], best, "first genome on ties")

	p.genomes = p.genomes[:1]
	_, err = p.Best()
	require.ErrorIs(s.T(), err, ErrPopulationUnderflow)
	require.ErrorIs(s.T(), err, ErrFatal)
}

func (s *PopulationSuite) TestStats() {
	p, err := NewPopulation(s.cfg, s.reg)
	require.NoError(s.T(), err)

	for i, g := range p.Genomes() {
		g.Fitness = float64(i) // 0..9
	}
	stats := p.Stats()
	require.Equal(s.T(), 10, stats.Size)
	require.Equal(s.T(), 9.0, stats.BestFitness)
	require.InDelta(s.T(), 4.5, stats.MeanFitness, 1e-12)
	require.InDelta(s.T(), math.Sqrt(82.5/9), stats.StdevFitness, 1e-12)

	p.genomes = p.genomes[:1]
	stats = p.Stats()
	require.Zero(s.T(), stats.StdevFitness)
	require.Equal(s.T(), 0.0, stats.BestFitness)
}

// TestParents: elites have one parent, crossover children two.
func (s *PopulationSuite) TestParents() {
	p, err := NewPopulation(s.cfg, s.reg)
	require.NoError(s.T(), err)

	first := p.Genomes()[0]
	parents, ok := p.Parents(first.Key)
	require.True(s.T(), ok)
	require.Empty(s.T(), parents, "bootstrap genomes have no parents")

	previous := make(map[int]bool)
	for _, g := range p.Genomes() {
		previous[g.Key] = true
	}
	require.NoError(s.T(), p.Epoch(nodeCountFitness))

	for _, g := range p.Genomes() {
		parents, ok := p.Parents(g.Key)
		require.True(s.T(), ok)
		require.True(s.T(), len(parents) == 1 || len(parents) == 2)
		for _, key := range parents {
			require.True(s.T(), previous[key], "parent %d is not from the previous generation", key)
		}
	}
	for _, sp := range p.Species() {
		parents, _ := p.Parents(sp.Representative)
		require.NotEmpty(s.T(), parents)
	}

	_, ok = p.Parents(-1)
	require.False(s.T(), ok)
}

// TestStagnationRemovesSpecies: with constant fitness a species is dropped
// once it has gone more than MaxStagnation generations without improving.
func (s *PopulationSuite) TestStagnationRemovesSpecies() {
	s.cfg.Stagnation.MaxStagnation = 2
	p, err := NewPopulation(s.cfg, s.reg)
	require.NoError(s.T(), err)

	// Bootstrap genomes differ only in weights and share one species.
	require.Len(s.T(), p.Species(), 1)
	key := p.Species()[0].Key
	require.Equal(s.T(), 0, p.Species()[0].GensSinceImprovement)

	for i := 1; i <= 2; i++ {
		p.speciate()
		require.Len(s.T(), p.Species(), 1)
		require.Equal(s.T(), key, p.Species()[0].Key)
		require.Equal(s.T(), i, p.Species()[0].GensSinceImprovement)
	}

	p.speciate()
	require.Empty(s.T(), p.Species(), "species should be removed after exceeding the limit")

	p.speciate()
	require.Len(s.T(), p.Species(), 1)
	require.NotEqual(s.T(), key, p.Species()[0].Key, "a fresh species is founded")
}

// TestThresholdAdjustment: the threshold only moves after generation 0.
func (s *PopulationSuite) TestThresholdAdjustment() {
	p, err := NewPopulation(s.cfg, s.reg)
	require.NoError(s.T(), err)

	p.speciate()
	require.Equal(s.T(), 3.0, p.Threshold())

	// One species against a target of ten lowers the threshold.
	p.generation = 1
	p.speciate()
	require.InDelta(s.T(), 2.7, p.Threshold(), 1e-12)

	s.cfg.SpeciesSet.TargetSpecies = 0
	p.speciate()
	require.InDelta(s.T(), 3.0, p.Threshold(), 1e-12)
}

func (s *PopulationSuite) TestInvalidArguments() {
	_, err := NewPopulation(nil, s.reg)
	require.Error(s.T(), err)
	_, err = NewPopulation(s.cfg, nil)
	require.Error(s.T(), err)

	s.cfg.Neat.PopSize = 1
	_, err = NewPopulation(s.cfg, s.reg)
	require.Error(s.T(), err)
}

func TestPopulationSuite(t *testing.T) {
	suite.Run(t, new(PopulationSuite))
}
