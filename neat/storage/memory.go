package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/baldhumanity/neat-grid/neat"
)

// MemoryStore is an in-process store, mostly useful in tests. It is safe
// for concurrent use.
type MemoryStore struct {
	mu         sync.RWMutex
	state      *neat.InnovationState
	champions  map[uuid.UUID][]Champion
	LoadErr    error // Returned by LoadInnovations when set
	SaveErr    error // Returned by SaveInnovations when set
	SaveCalled int
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{champions: make(map[uuid.UUID][]Champion)}
}

// LoadInnovations returns a copy of the saved state, or neat.ErrStateNotFound.
func (s *MemoryStore) LoadInnovations() (neat.InnovationState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.LoadErr != nil {
		return neat.InnovationState{}, s.LoadErr
	}
	if s.state == nil {
		return neat.InnovationState{}, neat.ErrStateNotFound
	}
	return copyState(*s.state), nil
}

// SaveInnovations keeps a copy of state.
func (s *MemoryStore) SaveInnovations(state neat.InnovationState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.SaveCalled++
	if s.SaveErr != nil {
		return s.SaveErr
	}
	c := copyState(state)
	s.state = &c
	return nil
}

// SaveChampion appends a champion to its run.
func (s *MemoryStore) SaveChampion(_ context.Context, champion Champion) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.champions[champion.RunID] = append(s.champions[champion.RunID], champion)
	return nil
}

// Champions returns the champions of a run ordered by generation.
func (s *MemoryStore) Champions(_ context.Context, runID uuid.UUID) ([]Champion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := append([]Champion(nil), s.champions[runID]...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Generation < out[j].Generation
	})
	return out, nil
}

func copyState(state neat.InnovationState) neat.InnovationState {
	c := neat.InnovationState{
		NextConnection: state.NextConnection,
		NextNode:       state.NextNode,
		Connections:    make(map[uint64]int, len(state.Connections)),
		Splits:         make(map[int]int, len(state.Splits)),
	}
	for k, v := range state.Connections {
		c.Connections[k] = v
	}
	for k, v := range state.Splits {
		c.Splits[k] = v
	}
	return c
}
