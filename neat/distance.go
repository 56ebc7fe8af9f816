package neat

import (
	"math"
	"sort"
)

// CompatibilityDistance measures how far apart two genomes are:
//
//	d = c1*E/N + c2*D/N + c3*W
//
// E counts excess genes (innovation above the other genome's highest id),
// D counts disjoint genes, and W is the mean absolute weight difference of
// matching genes. N is the size of the larger genome, or 1 when that is
// below cfg.NormalizeThreshold.
//
// Genes are visited in ascending innovation order so the result is exactly
// symmetric.
func CompatibilityDistance(a, b *Genome, cfg SpeciesSetConfig) float64 {
	maxA := a.MaxInnovation()
	maxB := b.MaxInnovation()

	excess, disjoint, matching := 0, 0, 0
	weightDiff := 0.0

	for _, innov := range unionInnovations(a, b) {
		ca, inA := a.Connections[innov]
		cb, inB := b.Connections[innov]
		switch {
		case inA && inB:
			matching++
			weightDiff += math.Abs(ca.Weight - cb.Weight)
		case innov > maxA || innov > maxB:
			excess++
		default:
			disjoint++
		}
	}

	meanWeightDiff := 0.0
	if matching > 0 {
		meanWeightDiff = weightDiff / float64(matching)
	}

	n := float64(max(len(a.Connections), len(b.Connections)))
	if n < float64(cfg.NormalizeThreshold) || n < 1 {
		n = 1
	}

	return cfg.ExcessCoefficient*float64(excess)/n +
		cfg.DisjointCoefficient*float64(disjoint)/n +
		cfg.WeightCoefficient*meanWeightDiff
}

// unionInnovations returns every innovation id present in either genome, ascending.
func unionInnovations(a, b *Genome) []int {
	ids := make([]int, 0, len(a.Connections)+len(b.Connections))
	for innov := range a.Connections {
		ids = append(ids, innov)
	}
	for innov := range b.Connections {
		if _, ok := a.Connections[innov]; !ok {
			ids = append(ids, innov)
		}
	}
	sort.Ints(ids)
	return ids
}
