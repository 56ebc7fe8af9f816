package neat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func genomeWithGenes(key int, weights map[int]float64) *Genome {
	g := NewGenome(key, &DefaultConfig().Genome)
	for innov, w := range weights {
		g.AddConnection(&ConnectionGene{Innovation: innov, From: innov, To: innov + 100, Weight: w, Enabled: true})
	}
	return g
}

func TestCompatibilityDistanceCounts(t *testing.T) {
	cfg := DefaultConfig().SpeciesSet
	a := genomeWithGenes(1, map[int]float64{1: 0.5, 2: 1.0, 3: 0.0})
	b := genomeWithGenes(2, map[int]float64{1: 0.0, 2: 1.0, 4: 0.0, 5: 0.0})

	// Matching 1, 2 (mean |dw| 0.25); disjoint 3; excess 4, 5; N clamps to 1.
	want := 1.0*2 + 1.0*1 + 0.4*0.25
	assert.InDelta(t, want, CompatibilityDistance(a, b, cfg), 1e-12)
	assert.InDelta(t, want, CompatibilityDistance(b, a, cfg), 1e-12)
}

func TestCompatibilityDistanceNormalizesLargeGenomes(t *testing.T) {
	cfg := DefaultConfig().SpeciesSet
	cfg.NormalizeThreshold = 2

	a := genomeWithGenes(1, map[int]float64{1: 0, 2: 0})
	b := genomeWithGenes(2, map[int]float64{1: 0, 2: 0, 3: 0, 4: 0})
	assert.InDelta(t, 2.0/4.0, CompatibilityDistance(a, b, cfg), 1e-12)
}

func TestCompatibilityDistanceIdentityAndSymmetry(t *testing.T) {
	cfg := testConfig(3, 2, 6)
	reg := NewInnovationRegistry(nil)
	pop := NewReproduction(cfg, reg).CreateNewPopulation(6)
	for i, g := range pop {
		for j := 0; j <= i; j++ {
			g.MutateAddNode(reg)
			g.MutateAddConnection(reg)
		}
		g.MutateWeights()
	}

	for _, a := range pop {
		require.Zero(t, CompatibilityDistance(a, a, cfg.SpeciesSet))
		require.Zero(t, CompatibilityDistance(a, a.Copy(99), cfg.SpeciesSet))
		for _, b := range pop {
			dab := CompatibilityDistance(a, b, cfg.SpeciesSet)
			dba := CompatibilityDistance(b, a, cfg.SpeciesSet)
			require.Equal(t, dab, dba, "distance(%d,%d)", a.Key, b.Key)
			require.GreaterOrEqual(t, dab, 0.0)
		}
	}
}

func TestCompatibilityDistanceEmptyGenomes(t *testing.T) {
	cfg := DefaultConfig().SpeciesSet
	cfg.NormalizeThreshold = 0
	a := genomeWithGenes(1, nil)
	b := genomeWithGenes(2, nil)
	assert.Zero(t, CompatibilityDistance(a, b, cfg))
}
