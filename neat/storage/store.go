// Package storage holds durable backends for the engine: innovation
// registry stores and a champion archive.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/baldhumanity/neat-grid/neat"
)

// Champion is an archived best genome of one generation of a run.
type Champion struct {
	ID         uuid.UUID
	RunID      uuid.UUID
	Generation int
	Fitness    float64
	Genome     *neat.Genome
	SavedAt    time.Time
}

// NewChampion wraps a copy of g for archiving.
func NewChampion(runID uuid.UUID, generation int, g *neat.Genome) Champion {
	return Champion{
		ID:         uuid.New(),
		RunID:      runID,
		Generation: generation,
		Fitness:    g.Fitness,
		Genome:     g.Copy(g.Key),
		SavedAt:    time.Now().UTC(),
	}
}

// ChampionArchive records the best genomes of a run.
type ChampionArchive interface {
	SaveChampion(ctx context.Context, champion Champion) error
	// Champions returns the champions of a run ordered by generation.
	Champions(ctx context.Context, runID uuid.UUID) ([]Champion, error)
}

var errNotInitialized = errors.New("store is not initialized")

var (
	_ neat.InnovationStore = (*FileStore)(nil)
	_ neat.InnovationStore = (*MemoryStore)(nil)
	_ neat.InnovationStore = (*SQLiteStore)(nil)
	_ ChampionArchive      = (*MemoryStore)(nil)
	_ ChampionArchive      = (*SQLiteStore)(nil)
)
