package neat

import (
	"compress/gzip"
	"encoding/gob"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
)

// checkpointData holds the parts of a Population needed to resume a run.
// The Config is not saved; the caller supplies it again on load, and so the
// innovation registry, which persists through its own store.
type checkpointData struct {
	RunID          uuid.UUID
	Genomes        []*Genome
	Species        []*Species
	Generation     int
	Threshold      float64
	NextSpeciesKey int
	NextGenomeKey  int
	Ancestors      map[int][]int
	BestEver       *Genome // Might be nil
}

// SaveCheckpoint saves the current state of the Population to a file.
// Uses gzip compression for smaller file size.
func (p *Population) SaveCheckpoint(filePath string) (err error) {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create checkpoint file '%s': %w", filePath, err)
	}
	defer func() {
		err = errors.Join(err, file.Close())
	}()

	gzWriter := gzip.NewWriter(file)
	data := checkpointData{
		RunID:          p.runID,
		Genomes:        p.genomes,
		Species:        p.species,
		Generation:     p.generation,
		Threshold:      p.threshold,
		NextSpeciesKey: p.nextSpeciesKey,
		NextGenomeKey:  p.Reproduction.NextGenomeKey,
		Ancestors:      p.Reproduction.Ancestors,
		BestEver:       p.bestEver,
	}
	if err := gob.NewEncoder(gzWriter).Encode(data); err != nil {
		return fmt.Errorf("failed to encode population data: %w", err)
	}
	if err := gzWriter.Close(); err != nil {
		return fmt.Errorf("failed to flush checkpoint '%s': %w", filePath, err)
	}

	p.logger.Info("checkpoint saved",
		slog.String("path", filePath),
		slog.Int("generation", p.generation))
	return nil
}

// LoadCheckpoint restores a Population from a checkpoint file. The config
// should match the one the run was started with; the registry must hold the
// innovations the saved genomes were built from.
func LoadCheckpoint(checkpointPath string, config *Config, innovations *InnovationRegistry) (*Population, error) {
	if config == nil || innovations == nil {
		return nil, errors.New("config and innovation registry are required")
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	file, err := os.Open(checkpointPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open checkpoint file '%s': %w", checkpointPath, err)
	}
	defer file.Close()

	gzReader, err := gzip.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader for checkpoint: %w", err)
	}
	defer gzReader.Close()

	var data checkpointData
	if err := gob.NewDecoder(gzReader).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode population data from checkpoint: %w", err)
	}
	if len(data.Genomes) != config.Neat.PopSize {
		return nil, fmt.Errorf("%w: checkpoint holds %d genomes, config wants %d",
			ErrPopulationSize, len(data.Genomes), config.Neat.PopSize)
	}

	// The genome config is not serialized; re-link it.
	for _, g := range data.Genomes {
		g.Config = &config.Genome
	}
	if data.BestEver != nil {
		data.BestEver.Config = &config.Genome
	}
	if data.Ancestors == nil {
		data.Ancestors = make(map[int][]int)
	}

	reproduction := NewReproduction(config, innovations)
	reproduction.NextGenomeKey = data.NextGenomeKey
	reproduction.Ancestors = data.Ancestors

	p := &Population{
		Config:         config,
		Innovations:    innovations,
		Reproduction:   reproduction,
		Stagnation:     NewStagnation(&config.Stagnation),
		genomes:        data.Genomes,
		species:        data.Species,
		generation:     data.Generation,
		threshold:      data.Threshold,
		nextSpeciesKey: data.NextSpeciesKey,
		bestEver:       data.BestEver,
		runID:          data.RunID,
		logger: slog.Default().With(
			slog.String("component", "population"),
			slog.String("run", data.RunID.String())),
	}

	p.logger.Info("checkpoint loaded",
		slog.String("path", checkpointPath),
		slog.Int("generation", p.generation))
	return p, nil
}
