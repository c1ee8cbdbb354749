// Package nn implements the layers LITSNet is built from.
//
// This package provides:
//   - Module interface: forward pass plus parameter and state access
//   - Parameter: a named float32 tensor owned by a layer
//   - Linear, Conv2D: parameterized layers with framework-default initialization
//   - ReLU, Flatten: stateless layers
//   - Save, Load: .born persistence of any module's state dict
package nn

import (
	"github.com/born-ml/litsnet/internal/tensor"
)

// Module is the base interface for all neural network components.
//
// Type parameter B must satisfy the tensor.Backend interface.
type Module[B tensor.Backend] interface {
	// Forward computes the output of the module. Shape violations panic.
	Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]

	// Parameters returns all parameters of this module, in a stable order.
	// Stateless modules return nil.
	Parameters() []*Parameter[B]

	// StateDict maps parameter names to their raw tensors.
	StateDict() map[string]*tensor.RawTensor

	// LoadStateDict copies values from a state dict into the parameters.
	LoadStateDict(stateDict map[string]*tensor.RawTensor) error
}

// NumParameters counts the scalar parameters of a module.
func NumParameters[B tensor.Backend](m Module[B]) int {
	n := 0
	for _, p := range m.Parameters() {
		n += p.Tensor().NumElements()
	}
	return n
}
