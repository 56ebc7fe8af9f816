package neat

import (
	"fmt"
)

// NodeRole defines what part a node plays in the network.
type NodeRole int

const (
	RoleInput NodeRole = iota
	RoleBias
	RoleHidden
	RoleOutput
)

// String returns the lower-case name of the role.
func (r NodeRole) String() string {
	switch r {
	case RoleInput:
		return "input"
	case RoleBias:
		return "bias"
	case RoleHidden:
		return "hidden"
	case RoleOutput:
		return "output"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// IsSource reports whether nodes of this role never receive connections.
func (r NodeRole) IsSource() bool {
	return r == RoleInput || r == RoleBias
}

// --------------------------- NodeGene ---------------------------

// NodeGene represents a node (neuron) in the genome.
// It is a value type and never changes once created.
type NodeGene struct {
	ID   int      `json:"id"`
	Role NodeRole `json:"role"`
}

// String returns a string representation of the NodeGene.
func (ng NodeGene) String() string {
	return fmt.Sprintf("NodeGene(ID: %d, Role: %s)", ng.ID, ng.Role)
}

// --------------------------- ConnectionGene ---------------------------

// ConnectionGene represents a directed connection between two nodes.
// Innovation is assigned by the InnovationRegistry and identifies the
// structural event across every genome of a run.
type ConnectionGene struct {
	Innovation int     `json:"innovation"`
	From       int     `json:"from"`
	To         int     `json:"to"`
	Weight     float64 `json:"weight"`
	Enabled    bool    `json:"enabled"`
}

// String returns a string representation of the ConnectionGene.
func (cg *ConnectionGene) String() string {
	return fmt.Sprintf("ConnGene(Innov: %d, %d->%d, Weight: %.3f, Enabled: %t)",
		cg.Innovation, cg.From, cg.To, cg.Weight, cg.Enabled)
}

// Copy creates a deep copy of the ConnectionGene.
func (cg *ConnectionGene) Copy() *ConnectionGene {
	c := *cg
	return &c
}

// packConnectionKey folds an ordered (from, to) pair into the key used by the
// registry and its persisted format.
func packConnectionKey(from, to int) uint64 {
	return uint64(uint32(from))<<32 | uint64(uint32(to))
}
