package neat

import (
	"fmt"
	"math"
)

// ActivationType defines the type for activation functions.
type ActivationType func(x float64) float64

// ActivationFunctions maps names to the bounded activation functions a
// network may apply to hidden and output nodes.
var ActivationFunctions = map[string]ActivationType{
	"tanh":    Tanh,
	"sigmoid": Sigmoid,
	"clamped": Clamped,
}

// GetActivation retrieves an activation function by name.
func GetActivation(name string) (ActivationType, error) {
	if fn, ok := ActivationFunctions[name]; ok {
		return fn, nil
	}
	return nil, fmt.Errorf("unknown activation function: %s", name)
}

// Tanh activation function. This is the default.
func Tanh(x float64) float64 {
	return math.Tanh(x)
}

// Sigmoid activation function, logistic with steepness 4.9.
func Sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-4.9*x))
}

// Clamped activation function (clamps output between -1 and 1).
func Clamped(x float64) float64 {
	return math.Max(-1.0, math.Min(x, 1.0))
}
