package neat

import (
	"log/slog"
	"math"
	"math/rand"
	"sort"
)

// Reproduction handles the creation of new genomes, either from scratch or
// through crossover and mutation.
type Reproduction struct {
	Config        *Config
	Innovations   *InnovationRegistry
	NextGenomeKey int           // State for the next genome key
	Ancestors     map[int][]int // Map genome key -> parent keys, for the latest generation only
	logger        *slog.Logger
}

// NewReproduction creates a new reproduction manager.
func NewReproduction(config *Config, innovations *InnovationRegistry) *Reproduction {
	return &Reproduction{
		Config:        config,
		Innovations:   innovations,
		NextGenomeKey: 1, // Start genome keys at 1
		Ancestors:     make(map[int][]int),
		logger:        slog.Default().With(slog.String("component", "reproduction")),
	}
}

// getNextKey gets the next available genome key and increments the internal counter.
func (r *Reproduction) getNextKey() int {
	key := r.NextGenomeKey
	r.NextGenomeKey++
	return key
}

// CreateNewPopulation builds the initial generation. Node ids are laid out as
// inputs [0, I), bias I, outputs [I+1, I+O]; every input and the bias connect
// to every output. All genomes request the same (from, to) pairs, so they
// share innovation ids from the start.
func (r *Reproduction) CreateNewPopulation(popSize int) []*Genome {
	numInputs := r.Config.Neat.NumInputs
	numOutputs := r.Config.Neat.NumOutputs
	biasID := numInputs
	firstOutput := numInputs + 1

	r.Innovations.ReserveIDsBelow(numInputs + numOutputs + 1)

	genomes := make([]*Genome, 0, popSize)
	for i := 0; i < popSize; i++ {
		g := NewGenome(r.getNextKey(), &r.Config.Genome)
		for id := 0; id < numInputs; id++ {
			g.AddNode(NodeGene{ID: id, Role: RoleInput})
		}
		g.AddNode(NodeGene{ID: biasID, Role: RoleBias})
		for j := 0; j < numOutputs; j++ {
			g.AddNode(NodeGene{ID: firstOutput + j, Role: RoleOutput})
		}

		for src := 0; src <= biasID; src++ {
			for dst := firstOutput; dst < firstOutput+numOutputs; dst++ {
				g.AddConnection(&ConnectionGene{
					Innovation: r.Innovations.ConnectionInnovation(src, dst),
					From:       src,
					To:         dst,
					Weight:     randomWeight(),
					Enabled:    true,
				})
			}
		}
		genomes = append(genomes, g)
		r.Ancestors[g.Key] = []int{}
	}
	return genomes
}

// Reproduce creates the next generation from the current species. Offspring
// quotas follow the species' shared fitness and always add up to popSize.
// The returned species are those that received a non-zero quota; each one's
// representative is its elite copy in the new population.
func (r *Reproduction) Reproduce(species []*Species, lookup map[int]*Genome, popSize int) ([]*Genome, []*Species) {
	if len(species) == 0 {
		r.logger.Warn("no species to reproduce from, keeping current population")
		return nil, nil
	}

	// Fitness sharing.
	sums := make([]float64, len(species))
	for i, sp := range species {
		sp.AdjustedFitnessSum = 0
		size := float64(len(sp.Members))
		for _, key := range sp.Members {
			sp.AdjustedFitnessSum += lookup[key].Fitness / size
		}
		sums[i] = sp.AdjustedFitnessSum
	}

	quotas := computeQuotas(sums, popSize)

	newPopulation := make([]*Genome, 0, popSize)
	newAncestors := make(map[int][]int, popSize)
	survivors := make([]*Species, 0, len(species))

	for i, sp := range species {
		quota := quotas[i]
		if quota <= 0 {
			r.logger.Debug("species dropped with zero quota", slog.Int("species", sp.Key))
			continue
		}

		members := make([]*Genome, 0, len(sp.Members))
		for _, key := range sp.Members {
			members = append(members, lookup[key])
		}
		sort.SliceStable(members, func(a, b int) bool {
			return members[a].Fitness > members[b].Fitness
		})

		// Elitism: the best member survives unchanged and represents the species.
		elite := members[0].Copy(r.getNextKey())
		sp.Representative = elite.Key
		newPopulation = append(newPopulation, elite)
		newAncestors[elite.Key] = []int{members[0].Key}

		pick := newRoulette(members)
		for j := 1; j < quota; j++ {
			p1 := members[pick()]
			p2 := members[pick()]
			if p2.Fitness > p1.Fitness {
				p1, p2 = p2, p1
			}

			child := Crossover(p1, p2)
			child.Key = r.getNextKey()
			child.MutateWeights()
			if rand.Float64() < r.Config.Genome.ConnAddProb {
				child.MutateAddConnection(r.Innovations)
			}
			if rand.Float64() < r.Config.Genome.NodeAddProb {
				child.MutateAddNode(r.Innovations)
			}

			newPopulation = append(newPopulation, child)
			newAncestors[child.Key] = []int{p1.Key, p2.Key}
		}
		survivors = append(survivors, sp)
	}
	r.Ancestors = newAncestors

	return newPopulation, survivors
}

// newRoulette returns a picker that draws member indices with probability
// proportional to fitness. Negative fitness counts as zero; when nothing has
// positive fitness every member is equally likely.
func newRoulette(members []*Genome) func() int {
	cumulative := make([]float64, len(members))
	total := 0.0
	for i, g := range members {
		if g.Fitness > 0 && !math.IsInf(g.Fitness, 1) {
			total += g.Fitness
		}
		cumulative[i] = total
	}
	if total <= 0 || math.IsInf(total, 0) || math.IsNaN(total) {
		return func() int { return rand.Intn(len(members)) }
	}
	return func() int {
		x := rand.Float64() * total
		i := sort.Search(len(cumulative), func(i int) bool { return cumulative[i] > x })
		return min(i, len(cumulative)-1)
	}
}

// computeQuotas splits popSize offspring among species in proportion to their
// adjusted fitness sums. Rounded quotas are rebalanced one at a time in order
// of descending sum until they add up to exactly popSize; a positive quota is
// not taken below 1 unless nothing else can give. A non-positive or
// non-finite total falls back to uniform quotas.
func computeQuotas(sums []float64, popSize int) []int {
	quotas := make([]int, len(sums))
	if len(sums) == 0 {
		return quotas
	}

	order := make([]int, len(sums))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return sums[order[a]] > sums[order[b]]
	})

	total := 0.0
	for _, s := range sums {
		total += s
	}

	if total <= 0 || math.IsNaN(total) || math.IsInf(total, 0) {
		base, rem := popSize/len(sums), popSize%len(sums)
		for k, i := range order {
			quotas[i] = base
			if k < rem {
				quotas[i]++
			}
		}
		return quotas
	}

	allocated := 0
	for i, s := range sums {
		q := int(math.Round(s / total * float64(popSize)))
		if q < 0 {
			q = 0
		}
		quotas[i] = q
		allocated += q
	}

	diff := popSize - allocated
	for k := 0; diff > 0; k++ {
		quotas[order[k%len(order)]]++
		diff--
	}
	for diff < 0 {
		progressed := false
		for _, i := range order {
			if diff == 0 {
				break
			}
			if quotas[i] > 1 {
				quotas[i]--
				diff++
				progressed = true
			}
		}
		if !progressed {
			break
		}
	}
	// More species than slots: the weakest give up their last offspring.
	for k := len(order) - 1; k >= 0 && diff < 0; k-- {
		if i := order[k]; quotas[i] > 0 {
			quotas[i]--
			diff++
		}
	}
	return quotas
}
