package neat

import (
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// Genome represents an individual organism in the population.
// It consists of NodeGenes and ConnectionGenes.
type Genome struct {
	Key         int                     `json:"key"`         // Unique identifier within a run.
	Nodes       map[int]NodeGene        `json:"nodes"`       // Map node ID -> NodeGene
	Connections map[int]*ConnectionGene `json:"connections"` // Map innovation -> ConnectionGene
	Fitness     float64                 `json:"fitness"`     // Set by the evaluation callback.
	// Config holds a reference to the mutation parameters.
	Config *GenomeConfig `json:"-"`
}

// NewGenome creates an empty Genome with the specified key and config reference.
func NewGenome(key int, config *GenomeConfig) *Genome {
	return &Genome{
		Key:         key,
		Nodes:       make(map[int]NodeGene),
		Connections: make(map[int]*ConnectionGene),
		Fitness:     0.0,
		Config:      config,
	}
}

// Copy creates a deep copy of the genome, fitness included.
func (g *Genome) Copy(key int) *Genome {
	c := NewGenome(key, g.Config)
	c.Fitness = g.Fitness
	for id, n := range g.Nodes {
		c.Nodes[id] = n
	}
	for innov, conn := range g.Connections {
		c.Connections[innov] = conn.Copy()
	}
	return c
}

// AddNode inserts a node gene, replacing any gene with the same id.
func (g *Genome) AddNode(n NodeGene) {
	g.Nodes[n.ID] = n
}

// AddConnection inserts a connection gene, replacing any gene with the same innovation.
func (g *Genome) AddConnection(c *ConnectionGene) {
	g.Connections[c.Innovation] = c
}

// NodeIDs returns the ids of nodes with the given roles in ascending order.
// With no roles, every node id is returned.
func (g *Genome) NodeIDs(roles ...NodeRole) []int {
	ids := make([]int, 0, len(g.Nodes))
	for id, n := range g.Nodes {
		if len(roles) == 0 || hasRole(n.Role, roles) {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	return ids
}

func hasRole(r NodeRole, roles []NodeRole) bool {
	for _, want := range roles {
		if r == want {
			return true
		}
	}
	return false
}

// SortedInnovations returns the innovation ids of all connection genes in ascending order.
func (g *Genome) SortedInnovations() []int {
	ids := make([]int, 0, len(g.Connections))
	for innov := range g.Connections {
		ids = append(ids, innov)
	}
	sort.Ints(ids)
	return ids
}

// MaxInnovation returns the highest innovation id present, or 0 for a genome without connections.
func (g *Genome) MaxInnovation() int {
	maxID := 0
	for innov := range g.Connections {
		if innov > maxID {
			maxID = innov
		}
	}
	return maxID
}

// hasConnection reports whether a gene from -> to exists, enabled or not.
func (g *Genome) hasConnection(from, to int) bool {
	for _, c := range g.Connections {
		if c.From == from && c.To == to {
			return true
		}
	}
	return false
}

// MutateWeights perturbs or replaces the weight of every connection gene.
// The set of genes never changes.
func (g *Genome) MutateWeights() {
	for _, conn := range g.Connections {
		if rand.Float64() < g.Config.WeightPerturbProb {
			conn.Weight += rand.NormFloat64() * g.Config.WeightPerturbPower
		} else {
			conn.Weight = randomWeight()
		}
	}
}

// MutateAddConnection attempts to add a new connection between two previously
// unconnected nodes. Giving up after the configured number of attempts is not an error.
func (g *Genome) MutateAddConnection(reg *InnovationRegistry) {
	ids := g.NodeIDs()
	if len(ids) < 2 {
		return
	}

	for attempt := 0; attempt < g.Config.AddConnectionAttempts; attempt++ {
		from := ids[rand.Intn(len(ids))]
		to := ids[rand.Intn(len(ids))]
		if from == to {
			continue
		}
		if g.Nodes[to].Role.IsSource() {
			continue // Inputs and the bias never receive connections
		}
		if g.hasConnection(from, to) {
			continue
		}
		if g.createsCycle(from, to) {
			continue // Networks stay acyclic
		}

		innov := reg.ConnectionInnovation(from, to)
		g.AddConnection(&ConnectionGene{
			Innovation: innov,
			From:       from,
			To:         to,
			Weight:     randomWeight(),
			Enabled:    true,
		})
		return
	}
}

// MutateAddNode splits a random enabled connection with a new hidden node.
// The split connection is disabled; the incoming half gets weight 1.0 and the
// outgoing half keeps the original weight.
func (g *Genome) MutateAddNode(reg *InnovationRegistry) {
	candidates := make([]int, 0, len(g.Connections))
	for _, innov := range g.SortedInnovations() {
		if g.Connections[innov].Enabled {
			candidates = append(candidates, innov)
		}
	}
	if len(candidates) == 0 {
		return
	}

	split := g.Connections[candidates[rand.Intn(len(candidates))]]
	split.Enabled = false

	nodeID := reg.SplitNodeID(split.Innovation)
	g.AddNode(NodeGene{ID: nodeID, Role: RoleHidden})

	g.AddConnection(&ConnectionGene{
		Innovation: reg.ConnectionInnovation(split.From, nodeID),
		From:       split.From,
		To:         nodeID,
		Weight:     1.0,
		Enabled:    true,
	})
	g.AddConnection(&ConnectionGene{
		Innovation: reg.ConnectionInnovation(nodeID, split.To),
		From:       nodeID,
		To:         split.To,
		Weight:     split.Weight,
		Enabled:    true,
	})
}

// Crossover creates a child from two parents. The child takes every node of
// the fitter parent, the fitter parent's disjoint and excess genes, and a
// randomly chosen copy of each matching gene. Genes only the weaker parent
// carries are dropped. Fitness ties are broken by a coin flip.
func Crossover(a, b *Genome) *Genome {
	fitter, weaker := a, b
	if b.Fitness > a.Fitness || (b.Fitness == a.Fitness && rand.Float64() < 0.5) {
		fitter, weaker = b, a
	}

	child := NewGenome(0, fitter.Config)
	for id, n := range fitter.Nodes {
		child.Nodes[id] = n
	}

	for innov, fc := range fitter.Connections {
		wc, matching := weaker.Connections[innov]
		if !matching {
			child.Connections[innov] = fc.Copy()
			continue
		}

		src := fc
		if rand.Float64() < 0.5 {
			src = wc
		}
		gene := src.Copy()
		if (!fc.Enabled || !wc.Enabled) && rand.Float64() < fitter.Config.ReenableProb {
			gene.Enabled = true
		}
		child.Connections[innov] = gene
	}
	return child
}

// createsCycle reports whether adding from -> to would close a cycle over the
// genome's connection genes. Disabled genes are included so that re-enabling
// one later can never produce a cycle either.
func (g *Genome) createsCycle(from, to int) bool {
	if from == to {
		return true
	}

	dg := simple.NewDirectedGraph()
	for id := range g.Nodes {
		dg.AddNode(simple.Node(id))
	}
	for _, c := range g.Connections {
		if c.From == c.To {
			continue
		}
		dg.SetEdge(simple.Edge{F: simple.Node(c.From), T: simple.Node(c.To)})
	}
	if dg.Node(int64(from)) == nil || dg.Node(int64(to)) == nil {
		return false
	}
	return topo.PathExistsIn(dg, simple.Node(to), simple.Node(from))
}

// randomWeight draws a weight uniformly from [-1, 1].
func randomWeight() float64 {
	return rand.Float64()*2 - 1
}
