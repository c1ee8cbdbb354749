package nn

import (
	"github.com/born-ml/litsnet/internal/tensor"
)

// ReLU applies max(0, x) element-wise.
type ReLU[B tensor.Backend] struct{}

// NewReLU creates a new ReLU activation module.
func NewReLU[B tensor.Backend]() *ReLU[B] {
	return &ReLU[B]{}
}

// Forward applies ReLU activation.
func (r *ReLU[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return input.ReLU()
}

// Parameters returns nil; ReLU is stateless.
func (r *ReLU[B]) Parameters() []*Parameter[B] { return nil }

// StateDict returns an empty map.
func (r *ReLU[B]) StateDict() map[string]*tensor.RawTensor { return map[string]*tensor.RawTensor{} }

// LoadStateDict is a no-op.
func (r *ReLU[B]) LoadStateDict(map[string]*tensor.RawTensor) error { return nil }

func (r *ReLU[B]) String() string { return "ReLU()" }

// Flatten collapses every dimension from StartDim onwards, so a
// [N, C, H, W] input becomes [N, C*H*W] with the default StartDim of 1.
type Flatten[B tensor.Backend] struct {
	StartDim int
}

// NewFlatten creates a Flatten module starting at dimension 1.
func NewFlatten[B tensor.Backend]() *Flatten[B] {
	return &Flatten[B]{StartDim: 1}
}

// Forward flattens the input.
func (f *Flatten[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return input.Flatten(f.StartDim)
}

// Parameters returns nil; Flatten is stateless.
func (f *Flatten[B]) Parameters() []*Parameter[B] { return nil }

// StateDict returns an empty map.
func (f *Flatten[B]) StateDict() map[string]*tensor.RawTensor { return map[string]*tensor.RawTensor{} }

// LoadStateDict is a no-op.
func (f *Flatten[B]) LoadStateDict(map[string]*tensor.RawTensor) error { return nil }

func (f *Flatten[B]) String() string { return "Flatten()" }
