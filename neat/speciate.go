package neat

import (
	"log/slog"
)

// speciate partitions the population into species.
//
// The compatibility threshold is nudged by one step per generation to hold
// the species count near the target. Each genome joins the first species
// whose representative is within the threshold, or founds a new one. Empty
// species are dropped, survivors are represented by their fittest member,
// and species stagnant for too long are removed.
func (p *Population) speciate() {
	cfg := p.Config.SpeciesSet

	if p.generation > 0 {
		switch {
		case len(p.species) > cfg.TargetSpecies:
			p.threshold += cfg.ThresholdStep
		case len(p.species) < cfg.TargetSpecies && p.threshold > cfg.ThresholdStep:
			p.threshold -= cfg.ThresholdStep
		}
	}

	for _, sp := range p.species {
		sp.ResetForNextGen()
	}

	lookup := p.lookup()
	for _, g := range p.genomes {
		placed := false
		for _, sp := range p.species {
			rep, ok := lookup[sp.Representative]
			if !ok {
				continue
			}
			if CompatibilityDistance(g, rep, cfg) <= p.threshold {
				sp.Members = append(sp.Members, g.Key)
				placed = true
				break
			}
		}
		if !placed {
			sp := NewSpecies(p.nextSpeciesKey, p.generation, g)
			p.nextSpeciesKey++
			p.species = append(p.species, sp)
			p.logger.Debug("created new species",
				slog.Int("species", sp.Key),
				slog.Int("representative", g.Key))
		}
	}

	alive := make([]*Species, 0, len(p.species))
	for _, sp := range p.species {
		if len(sp.Members) == 0 {
			p.logger.Debug("species died out", slog.Int("species", sp.Key))
			continue
		}
		best := lookup[sp.Members[0]]
		for _, key := range sp.Members[1:] {
			if g := lookup[key]; g.Fitness > best.Fitness {
				best = g
			}
		}
		sp.Representative = best.Key
		alive = append(alive, sp)
	}

	survivors, _ := p.Stagnation.Update(alive, func(key int) float64 {
		return lookup[key].Fitness
	})
	p.species = survivors
}
