// Package neat is the root of a NEAT (NeuroEvolution of Augmenting
// Topologies) engine. The engine lives in the neat subpackage; neat/nn turns
// genomes into runnable feed-forward networks and neat/storage holds the
// durable backends.
//
// Networks grow from fully connected input-to-output genomes through weight
// perturbation, connection insertion and node splitting. Structural events
// are numbered by a shared innovation registry so that genomes from
// different lineages can be aligned for crossover and compared for
// speciation.
//
// Basic usage:
//
//	config, err := neat.LoadConfig("path/to/config")
//	if err != nil {
//		log.Fatalf("Error loading config: %v", err)
//	}
//
//	registry := neat.NewInnovationRegistry(storage.NewFileStore("innovations.txt"))
//	defer registry.Close()
//
//	pop, err := neat.NewPopulation(config, registry)
//	if err != nil {
//		log.Fatalf("Error creating population: %v", err)
//	}
//
//	for i := 0; i < 100; i++ {
//		err := pop.Epoch(func(g *neat.Genome) error {
//			out, err := nn.New(g).Feed(inputs)
//			if err != nil {
//				return err
//			}
//			g.Fitness = score(out)
//			return nil
//		})
//		if err != nil {
//			log.Fatalf("Error running generation: %v", err)
//		}
//	}
package neat
