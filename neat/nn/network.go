package nn

import (
	"fmt"
	"sort"

	"github.com/baldhumanity/neat-grid/neat"
)

// Network is the phenotype of a genome: its enabled connections evaluated
// in topological order. It reads the genome directly, so it goes stale if
// the genome is mutated afterwards.
type Network struct {
	genome      *neat.Genome
	activation  neat.ActivationType
	order       []int         // Topological order over every node touched by an enabled edge
	outgoing    map[int][]int // node id -> innovations of enabled out-edges, ascending
	inputIDs    []int
	outputIDs   []int
	activations map[int]float64
}

// Option configures a Network.
type Option func(*Network)

// WithActivation sets the function applied to hidden and output nodes.
// The default is neat.Tanh.
func WithActivation(fn neat.ActivationType) Option {
	return func(n *Network) {
		if fn != nil {
			n.activation = fn
		}
	}
}

// New builds a network from a genome. The genome must be acyclic over its
// enabled connections; nodes on a cycle would be left out of the order.
func New(g *neat.Genome, opts ...Option) *Network {
	n := &Network{
		genome:      g,
		activation:  neat.Tanh,
		outgoing:    make(map[int][]int),
		inputIDs:    g.NodeIDs(neat.RoleInput),
		outputIDs:   g.NodeIDs(neat.RoleOutput),
		activations: make(map[int]float64),
	}
	for _, opt := range opts {
		opt(n)
	}

	// Kahn's algorithm. Endpoints of a connection take part even when the
	// node map lacks them.
	inDegree := make(map[int]int, len(g.Nodes))
	for id := range g.Nodes {
		inDegree[id] = 0
	}
	for _, innov := range g.SortedInnovations() {
		c := g.Connections[innov]
		if !c.Enabled {
			continue
		}
		if _, ok := inDegree[c.From]; !ok {
			inDegree[c.From] = 0
		}
		inDegree[c.To]++
		n.outgoing[c.From] = append(n.outgoing[c.From], innov)
	}

	ready := make([]int, 0, len(inDegree))
	for id, d := range inDegree {
		if d == 0 {
			ready = append(ready, id)
		}
	}
	sort.Ints(ready)

	n.order = make([]int, 0, len(inDegree))
	for len(ready) > 0 {
		u := ready[0]
		ready = ready[1:]
		n.order = append(n.order, u)

		released := false
		for _, innov := range n.outgoing[u] {
			v := g.Connections[innov].To
			inDegree[v]--
			if inDegree[v] == 0 {
				ready = append(ready, v)
				released = true
			}
		}
		if released {
			sort.Ints(ready) // Keep queue sorted for determinism
		}
	}
	return n
}

// Feed runs one forward pass. Inputs are assigned to input nodes in
// ascending id order and the bias node is held at 1.0. The returned slice
// holds the output node values in ascending id order.
func (n *Network) Feed(inputs []float64) ([]float64, error) {
	if len(inputs) != len(n.inputIDs) {
		return nil, fmt.Errorf("mismatch between input count (%d) and network input nodes (%d)",
			len(inputs), len(n.inputIDs))
	}

	values := make(map[int]float64, len(n.order))
	for i, id := range n.inputIDs {
		values[id] = inputs[i]
	}
	for _, id := range n.genome.NodeIDs(neat.RoleBias) {
		values[id] = 1.0
	}

	// Every predecessor of a node precedes it in the order, so its sum is
	// complete by the time it is reached. The raw sum is what travels along
	// out-edges; hidden and output nodes are squashed afterwards.
	for _, id := range n.order {
		node, ok := n.genome.Nodes[id]
		if !ok {
			continue
		}
		v := values[id]
		for _, innov := range n.outgoing[id] {
			c := n.genome.Connections[innov]
			values[c.To] += v * c.Weight
		}
		if node.Role == neat.RoleHidden || node.Role == neat.RoleOutput {
			values[id] = n.activation(v)
		}
	}

	outputs := make([]float64, len(n.outputIDs))
	for i, id := range n.outputIDs {
		outputs[i] = values[id]
	}
	n.activations = values
	return outputs, nil
}

// Genome returns the genome the network was built from.
func (n *Network) Genome() *neat.Genome {
	return n.genome
}

// Activations returns a copy of the node values from the last Feed.
func (n *Network) Activations() map[int]float64 {
	c := make(map[int]float64, len(n.activations))
	for id, v := range n.activations {
		c[id] = v
	}
	return c
}

// Order returns a copy of the evaluation order.
func (n *Network) Order() []int {
	return append([]int(nil), n.order...)
}
