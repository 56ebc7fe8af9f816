package neat

import (
	"errors"
	"fmt"
)

// ErrFatal marks invariant violations that indicate a corrupted run.
// Callers decide whether to abort, log or restart; test with errors.Is.
var ErrFatal = errors.New("neat: fatal invariant violation")

// ErrPopulationUnderflow is returned by Best when fewer than two genomes remain.
var ErrPopulationUnderflow = fmt.Errorf("%w: population underflow", ErrFatal)

// ErrPopulationSize is returned by Epoch when reproduction does not yield
// exactly the configured population size.
var ErrPopulationSize = fmt.Errorf("%w: population size drifted", ErrFatal)

// ErrStateNotFound is returned by an InnovationStore that holds no state yet.
// The registry treats it as a fresh start.
var ErrStateNotFound = errors.New("neat: innovation state not found")
