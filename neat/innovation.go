package neat

import (
	"errors"
	"log/slog"
	"sync"
)

// InnovationState is the durable part of an InnovationRegistry.
type InnovationState struct {
	NextConnection int
	NextNode       int
	Connections    map[uint64]int // packed (from, to) -> innovation
	Splits         map[int]int    // connection innovation -> split node id
}

// newInnovationState returns the state of a registry that has allocated nothing.
func newInnovationState() InnovationState {
	return InnovationState{
		NextConnection: 1,
		NextNode:       1,
		Connections:    make(map[uint64]int),
		Splits:         make(map[int]int),
	}
}

// InnovationStore persists registry state between runs.
type InnovationStore interface {
	// LoadInnovations returns ErrStateNotFound when nothing was saved yet.
	LoadInnovations() (InnovationState, error)
	SaveInnovations(state InnovationState) error
}

// InnovationRegistry hands out globally stable identities for structural
// mutations. Identical mutations in different genomes resolve to the same
// ids, which is what makes gene alignment between lineages meaningful.
//
// It is the one component of the engine that is safe for concurrent use.
type InnovationRegistry struct {
	mu     sync.Mutex
	state  InnovationState
	store  InnovationStore
	logger *slog.Logger
}

// NewInnovationRegistry creates a registry and loads any state held by store.
// A nil store keeps the registry purely in memory. Missing state is a fresh
// start; an unreadable store is logged and also treated as a fresh start.
func NewInnovationRegistry(store InnovationStore) *InnovationRegistry {
	r := &InnovationRegistry{
		state:  newInnovationState(),
		store:  store,
		logger: slog.Default().With(slog.String("component", "innovation")),
	}
	if store == nil {
		return r
	}

	state, err := store.LoadInnovations()
	switch {
	case errors.Is(err, ErrStateNotFound):
		r.logger.Debug("no stored innovation state, starting fresh")
	case err != nil:
		r.logger.Error("failed to load innovation state, starting fresh", slog.String("error", err.Error()))
	default:
		if state.Connections == nil {
			state.Connections = make(map[uint64]int)
		}
		if state.Splits == nil {
			state.Splits = make(map[int]int)
		}
		r.state = state
		r.logger.Debug("loaded innovation state",
			slog.Int("connections", len(state.Connections)),
			slog.Int("splits", len(state.Splits)))
	}
	return r
}

// ConnectionInnovation returns the innovation id of the directed connection
// from -> to, allocating the next one if the pair has never been seen.
func (r *InnovationRegistry) ConnectionInnovation(from, to int) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := packConnectionKey(from, to)
	if id, ok := r.state.Connections[key]; ok {
		return id
	}
	id := r.state.NextConnection
	r.state.NextConnection++
	r.state.Connections[key] = id
	return id
}

// SplitNodeID returns the node id created when the connection with the given
// innovation is split, allocating one on first use.
func (r *InnovationRegistry) SplitNodeID(connInnovation int) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.state.Splits[connInnovation]; ok {
		return id
	}
	id := r.state.NextNode
	r.state.NextNode++
	r.state.Splits[connInnovation] = id
	return id
}

// ReserveIDsBelow makes sure node ids below minNodeID are never handed out
// for hidden nodes.
func (r *InnovationRegistry) ReserveIDsBelow(minNodeID int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state.NextNode < minNodeID {
		r.state.NextNode = minNodeID
	}
}

// Snapshot returns a deep copy of the current state.
func (r *InnovationRegistry) Snapshot() InnovationState {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := InnovationState{
		NextConnection: r.state.NextConnection,
		NextNode:       r.state.NextNode,
		Connections:    make(map[uint64]int, len(r.state.Connections)),
		Splits:         make(map[int]int, len(r.state.Splits)),
	}
	for k, v := range r.state.Connections {
		s.Connections[k] = v
	}
	for k, v := range r.state.Splits {
		s.Splits[k] = v
	}
	return s
}

// Close writes the current state back to the store. A failed write is
// logged and returned; the in-memory state stays valid.
func (r *InnovationRegistry) Close() error {
	if r.store == nil {
		return nil
	}
	state := r.Snapshot()
	if err := r.store.SaveInnovations(state); err != nil {
		r.logger.Error("failed to save innovation state", slog.String("error", err.Error()))
		return err
	}
	r.logger.Debug("saved innovation state",
		slog.Int("next_connection", state.NextConnection),
		slog.Int("next_node", state.NextNode))
	return nil
}
