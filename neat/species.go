package neat

import (
	"math"
)

// Species represents a group of genetically similar genomes.
//
// Representative and Members hold genome keys rather than pointers; they are
// resolved against the population the species was last built from.
type Species struct {
	Key                  int     // Unique identifier for the species.
	Created              int     // Generation number when the species was created.
	Representative       int     // Key of the representative genome.
	Members              []int   // Keys of member genomes, rebuilt every generation.
	BestFitnessEver      float64 // Highest member fitness ever observed.
	GensSinceImprovement int     // Generations since BestFitnessEver last rose.
	AdjustedFitnessSum   float64 // Sum of shared fitness of the members.
}

// NewSpecies creates a species founded by the given genome.
func NewSpecies(key, generation int, founder *Genome) *Species {
	return &Species{
		Key:             key,
		Created:         generation,
		Representative:  founder.Key,
		Members:         []int{founder.Key},
		BestFitnessEver: math.Inf(-1),
	}
}

// ResetForNextGen clears the transient membership state. The representative
// and the stagnation history survive.
func (s *Species) ResetForNextGen() {
	s.Members = s.Members[:0]
	s.AdjustedFitnessSum = 0
}

// Size returns the number of members.
func (s *Species) Size() int {
	return len(s.Members)
}
