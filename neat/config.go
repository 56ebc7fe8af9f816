package neat

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"
)

// Config stores the configuration parameters for the NEAT engine.
type Config struct {
	Neat       NeatConfig       `yaml:"neat"`
	Genome     GenomeConfig     `yaml:"genome"`
	SpeciesSet SpeciesSetConfig `yaml:"species_set"`
	Stagnation StagnationConfig `yaml:"stagnation"`
}

// NeatConfig holds run-level parameters.
type NeatConfig struct {
	PopSize    int `ini:"pop_size" yaml:"pop_size"`
	NumInputs  int `ini:"num_inputs" yaml:"num_inputs"`
	NumOutputs int `ini:"num_outputs" yaml:"num_outputs"`
	Workers    int `ini:"workers" yaml:"workers"` // Evaluation goroutines; <= 1 evaluates sequentially
}

// GenomeConfig holds mutation and crossover parameters.
type GenomeConfig struct {
	WeightPerturbProb     float64 `ini:"weight_perturb_prob" yaml:"weight_perturb_prob"`   // Chance to perturb instead of replace
	WeightPerturbPower    float64 `ini:"weight_perturb_power" yaml:"weight_perturb_power"` // Stdev of the Gaussian perturbation
	ConnAddProb           float64 `ini:"conn_add_prob" yaml:"conn_add_prob"`
	NodeAddProb           float64 `ini:"node_add_prob" yaml:"node_add_prob"`
	ReenableProb          float64 `ini:"reenable_prob" yaml:"reenable_prob"` // Matching disabled genes
	AddConnectionAttempts int     `ini:"add_connection_attempts" yaml:"add_connection_attempts"`
	Activation            string  `ini:"activation" yaml:"activation"` // Applied to hidden and output nodes
}

// SpeciesSetConfig holds speciation parameters.
type SpeciesSetConfig struct {
	CompatibilityThreshold float64 `ini:"compatibility_threshold" yaml:"compatibility_threshold"` // Initial value
	ThresholdStep          float64 `ini:"threshold_step" yaml:"threshold_step"`
	TargetSpecies          int     `ini:"target_species" yaml:"target_species"`
	ExcessCoefficient      float64 `ini:"excess_coefficient" yaml:"excess_coefficient"`
	DisjointCoefficient    float64 `ini:"disjoint_coefficient" yaml:"disjoint_coefficient"`
	WeightCoefficient      float64 `ini:"weight_coefficient" yaml:"weight_coefficient"`
	NormalizeThreshold     int     `ini:"normalize_threshold" yaml:"normalize_threshold"` // Genomes smaller than this are not normalized
}

// StagnationConfig holds parameters related to species stagnation.
type StagnationConfig struct {
	MaxStagnation int `ini:"max_stagnation" yaml:"max_stagnation"`
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() *Config {
	return &Config{
		Neat: NeatConfig{
			PopSize:    150,
			NumInputs:  4,
			NumOutputs: 4,
			Workers:    1,
		},
		Genome: GenomeConfig{
			WeightPerturbProb:     0.8,
			WeightPerturbPower:    0.2,
			ConnAddProb:           0.03,
			NodeAddProb:           0.01,
			ReenableProb:          0.05,
			AddConnectionAttempts: 10,
			Activation:            "tanh",
		},
		SpeciesSet: SpeciesSetConfig{
			CompatibilityThreshold: 3.0,
			ThresholdStep:          0.3,
			TargetSpecies:          10,
			ExcessCoefficient:      1.0,
			DisjointCoefficient:    1.0,
			WeightCoefficient:      0.4,
			NormalizeThreshold:     20,
		},
		Stagnation: StagnationConfig{
			MaxStagnation: 100,
		},
	}
}

// LoadConfig loads configuration parameters from a file. Files ending in
// .yaml or .yml are read as YAML, anything else as INI. Keys missing from
// the file keep their DefaultConfig value.
func LoadConfig(filePath string) (*Config, error) {
	var (
		config *Config
		err    error
	)
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".yaml", ".yml":
		config, err = loadYAML(filePath)
	default:
		config, err = loadINI(filePath)
	}
	if err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func loadINI(filePath string) (*Config, error) {
	cfg, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment:         true,
		UnescapeValueCommentSymbols: true,
	}, filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file '%s': %w", filePath, err)
	}

	config := DefaultConfig()

	// Map sections to structs
	if err := cfg.Section("NEAT").MapTo(&config.Neat); err != nil {
		return nil, fmt.Errorf("failed to map [NEAT] section: %w", err)
	}
	if err := cfg.Section("DefaultGenome").MapTo(&config.Genome); err != nil {
		return nil, fmt.Errorf("failed to map [DefaultGenome] section: %w", err)
	}
	if err := cfg.Section("DefaultSpeciesSet").MapTo(&config.SpeciesSet); err != nil {
		return nil, fmt.Errorf("failed to map [DefaultSpeciesSet] section: %w", err)
	}
	if err := cfg.Section("DefaultStagnation").MapTo(&config.Stagnation); err != nil {
		return nil, fmt.Errorf("failed to map [DefaultStagnation] section: %w", err)
	}
	return config, nil
}

func loadYAML(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file '%s': %w", filePath, err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file '%s': %w", filePath, err)
	}
	return config, nil
}

// Validate checks that every parameter is usable.
func (c *Config) Validate() error {
	if c.Neat.PopSize < 2 {
		return fmt.Errorf("config error: pop_size must be at least 2")
	}
	if c.Neat.NumInputs <= 0 {
		return fmt.Errorf("config error: num_inputs must be positive")
	}
	if c.Neat.NumOutputs <= 0 {
		return fmt.Errorf("config error: num_outputs must be positive")
	}
	if c.Neat.Workers < 0 {
		return fmt.Errorf("config error: workers cannot be negative")
	}

	probs := []struct {
		name string
		val  float64
	}{
		{"weight_perturb_prob", c.Genome.WeightPerturbProb},
		{"conn_add_prob", c.Genome.ConnAddProb},
		{"node_add_prob", c.Genome.NodeAddProb},
		{"reenable_prob", c.Genome.ReenableProb},
	}
	for _, p := range probs {
		if p.val < 0 || p.val > 1 {
			return fmt.Errorf("config error: %s must be between 0 and 1", p.name)
		}
	}
	if c.Genome.WeightPerturbPower < 0 {
		return fmt.Errorf("config error: weight_perturb_power cannot be negative")
	}
	if c.Genome.AddConnectionAttempts <= 0 {
		return fmt.Errorf("config error: add_connection_attempts must be positive")
	}
	if _, err := GetActivation(c.Genome.Activation); err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	if c.SpeciesSet.CompatibilityThreshold <= 0 {
		return fmt.Errorf("config error: compatibility_threshold must be positive")
	}
	if c.SpeciesSet.ThresholdStep <= 0 {
		return fmt.Errorf("config error: threshold_step must be positive")
	}
	if c.SpeciesSet.TargetSpecies <= 0 {
		return fmt.Errorf("config error: target_species must be positive")
	}
	if c.SpeciesSet.ExcessCoefficient < 0 || c.SpeciesSet.DisjointCoefficient < 0 || c.SpeciesSet.WeightCoefficient < 0 {
		return fmt.Errorf("config error: compatibility coefficients cannot be negative")
	}
	if c.SpeciesSet.NormalizeThreshold < 0 {
		return fmt.Errorf("config error: normalize_threshold cannot be negative")
	}

	if c.Stagnation.MaxStagnation <= 0 {
		return fmt.Errorf("config error: max_stagnation must be positive")
	}
	return nil
}
