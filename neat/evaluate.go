package neat

import (
	"fmt"

	"github.com/sourcegraph/conc/pool"
)

// evaluate runs eval once per genome. With more than one configured worker
// the calls are spread over a bounded goroutine pool; each call touches only
// its own genome. A panic in eval is re-raised on the calling goroutine.
func (p *Population) evaluate(eval EvaluateFunc) error {
	workers := p.Config.Neat.Workers
	if workers <= 1 {
		for _, g := range p.genomes {
			if err := eval(g); err != nil {
				return fmt.Errorf("genome %d: %w", g.Key, err)
			}
		}
		return nil
	}

	pl := pool.New().WithErrors().WithMaxGoroutines(workers)
	for _, g := range p.genomes {
		g := g
		pl.Go(func() error {
			if err := eval(g); err != nil {
				return fmt.Errorf("genome %d: %w", g.Key, err)
			}
			return nil
		})
	}
	return pl.Wait()
}
