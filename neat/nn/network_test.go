package nn

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baldhumanity/neat-grid/neat"
)

// smallGenome: inputs 0 and 1, bias 2, output 3, hidden 4.
//
//	0 -(1.0)-> 3
//	1 -(2.0)-> 4 -(0.5)-> 3
//	2 -(0.25)-> 3
func smallGenome() *neat.Genome {
	g := neat.NewGenome(1, &neat.DefaultConfig().Genome)
	g.AddNode(neat.NodeGene{ID: 0, Role: neat.RoleInput})
	g.AddNode(neat.NodeGene{ID: 1, Role: neat.RoleInput})
	g.AddNode(neat.NodeGene{ID: 2, Role: neat.RoleBias})
	g.AddNode(neat.NodeGene{ID: 3, Role: neat.RoleOutput})
	g.AddNode(neat.NodeGene{ID: 4, Role: neat.RoleHidden})
	g.AddConnection(&neat.ConnectionGene{Innovation: 1, From: 0, To: 3, Weight: 1.0, Enabled: true})
	g.AddConnection(&neat.ConnectionGene{Innovation: 2, From: 1, To: 4, Weight: 2.0, Enabled: true})
	g.AddConnection(&neat.ConnectionGene{Innovation: 3, From: 4, To: 3, Weight: 0.5, Enabled: true})
	g.AddConnection(&neat.ConnectionGene{Innovation: 4, From: 2, To: 3, Weight: 0.25, Enabled: true})
	return g
}

func TestFeed(t *testing.T) {
	net := New(smallGenome())

	out, err := net.Feed([]float64{0.3, -0.2})
	require.NoError(t, err)
	require.Len(t, out, 1)

	// Successors receive the raw sum of a hidden node, not its squashed value.
	rawHidden := 2.0 * -0.2
	want := math.Tanh(0.3 + 0.5*rawHidden + 0.25)
	assert.InDelta(t, want, out[0], 1e-12)

	acts := net.Activations()
	assert.Equal(t, 0.3, acts[0])
	assert.Equal(t, -0.2, acts[1])
	assert.Equal(t, 1.0, acts[2], "bias is held at 1.0")
	assert.InDelta(t, math.Tanh(rawHidden), acts[4], 1e-12)
	assert.InDelta(t, want, acts[3], 1e-12)
}

func TestFeedIsRepeatable(t *testing.T) {
	net := New(smallGenome())
	first, err := net.Feed([]float64{1, 1})
	require.NoError(t, err)
	second, err := net.Feed([]float64{1, 1})
	require.NoError(t, err)
	assert.Equal(t, first, second, "values must not leak between passes")
}

func TestFeedInputMismatch(t *testing.T) {
	net := New(smallGenome())
	_, err := net.Feed([]float64{1})
	require.Error(t, err)
	_, err = net.Feed([]float64{1, 2, 3})
	require.Error(t, err)
}

func TestOrderIsTopological(t *testing.T) {
	g := smallGenome()
	net := New(g)

	pos := make(map[int]int)
	for i, id := range net.Order() {
		pos[id] = i
	}
	require.Len(t, pos, 5)
	for _, c := range g.Connections {
		assert.Less(t, pos[c.From], pos[c.To], "%d must precede %d", c.From, c.To)
	}
	assert.Equal(t, []int{0, 1, 2, 4, 3}, net.Order(), "ties are broken by ascending id")
}

func TestFeedPropagatesRawSums(t *testing.T) {
	// 0 -(1.5)-> 2 -(2.0)-> 3 -(0.5)-> 1
	g := neat.NewGenome(1, &neat.DefaultConfig().Genome)
	g.AddNode(neat.NodeGene{ID: 0, Role: neat.RoleInput})
	g.AddNode(neat.NodeGene{ID: 1, Role: neat.RoleOutput})
	g.AddNode(neat.NodeGene{ID: 2, Role: neat.RoleHidden})
	g.AddNode(neat.NodeGene{ID: 3, Role: neat.RoleHidden})
	g.AddConnection(&neat.ConnectionGene{Innovation: 1, From: 0, To: 2, Weight: 1.5, Enabled: true})
	g.AddConnection(&neat.ConnectionGene{Innovation: 2, From: 2, To: 3, Weight: 2.0, Enabled: true})
	g.AddConnection(&neat.ConnectionGene{Innovation: 3, From: 3, To: 1, Weight: 0.5, Enabled: true})

	out, err := New(g).Feed([]float64{0.4})
	require.NoError(t, err)
	assert.InDelta(t, math.Tanh(0.4*1.5*2.0*0.5), out[0], 1e-12)

	acts := New(g).Activations()
	assert.Empty(t, acts, "no values before the first Feed")
}

func TestOrderReturnsCopy(t *testing.T) {
	net := New(smallGenome())
	order := net.Order()
	order[0] = 42
	assert.Equal(t, []int{0, 1, 2, 4, 3}, net.Order())
}

func TestDisabledConnectionsAreIgnored(t *testing.T) {
	g := smallGenome()
	g.Connections[3].Enabled = false
	net := New(g)

	out, err := net.Feed([]float64{0.3, -0.2})
	require.NoError(t, err)
	assert.InDelta(t, math.Tanh(0.3+0.25), out[0], 1e-12)
}

func TestOutputWithoutInputs(t *testing.T) {
	g := smallGenome()
	g.AddNode(neat.NodeGene{ID: 5, Role: neat.RoleOutput})
	net := New(g)

	out, err := net.Feed([]float64{0.5, 0.5})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Zero(t, out[1])
}

func TestMissingNodeIsSkipped(t *testing.T) {
	g := smallGenome()
	g.AddConnection(&neat.ConnectionGene{Innovation: 9, From: 4, To: 99, Weight: 1, Enabled: true})
	net := New(g)
	assert.Contains(t, net.Order(), 99)

	out, err := net.Feed([]float64{0.1, 0.1})
	require.NoError(t, err)
	require.Len(t, out, 1)
}

func TestWithActivation(t *testing.T) {
	net := New(smallGenome(), WithActivation(neat.Clamped))
	out, err := net.Feed([]float64{2, 0})
	require.NoError(t, err)
	assert.Equal(t, 1.0, out[0])

	assert.NotNil(t, New(smallGenome(), WithActivation(nil)).activation, "nil keeps the default")
}

func TestActivationsReturnsCopy(t *testing.T) {
	g := smallGenome()
	net := New(g)
	assert.Same(t, g, net.Genome())

	_, err := net.Feed([]float64{0.1, 0.2})
	require.NoError(t, err)
	acts := net.Activations()
	acts[3] = 100
	assert.NotEqual(t, 100.0, net.Activations()[3])
}
