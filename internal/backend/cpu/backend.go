// Package cpu implements the pure Go CPU backend.
package cpu

import (
	"fmt"

	"github.com/born-ml/litsnet/internal/parallel"
	"github.com/born-ml/litsnet/internal/tensor"
)

// CPUBackend implements tensor operations on CPU.
//
// Heavy kernels (Conv2D, MatMul) are split across goroutines. Every output
// element is produced by a single goroutine with a fixed summation order, so
// results do not depend on the worker count.
type CPUBackend struct {
	device   tensor.Device
	parallel parallel.Config
}

// New creates a CPU backend sized to the host's physical cores.
func New() *CPUBackend {
	return NewWithConfig(parallel.DefaultConfig())
}

// NewWithConfig creates a CPU backend with an explicit parallel config.
func NewWithConfig(cfg parallel.Config) *CPUBackend {
	return &CPUBackend{
		device:   tensor.CPU,
		parallel: cfg,
	}
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return "CPU"
}

// Device returns the compute device.
func (cpu *CPUBackend) Device() tensor.Device {
	return cpu.device
}

// Workers returns the configured worker count.
func (cpu *CPUBackend) Workers() int {
	if !cpu.parallel.Enabled {
		return 1
	}
	return cpu.parallel.NumWorkers
}

// blocks is the parallel config for loops whose items are already coarse.
func (cpu *CPUBackend) blocks() parallel.Config {
	cfg := cpu.parallel
	cfg.MinChunkSize = 1
	return cfg
}

// Reshape returns a copy of t with a new shape of equal element count.
func (cpu *CPUBackend) Reshape(t *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	if err := newShape.Validate(); err != nil {
		panic(fmt.Sprintf("reshape: invalid shape: %v", err))
	}
	if t.NumElements() != newShape.NumElements() {
		panic(fmt.Sprintf("reshape: incompatible shapes: %v -> %v (different number of elements)",
			t.Shape(), newShape))
	}

	result, err := tensor.NewRawFromBytes(newShape, t.DType(), cpu.device, t.Data())
	if err != nil {
		panic(fmt.Sprintf("reshape: %v", err))
	}
	return result
}

// Transpose permutes the dimensions of t. With no axes, all dimensions are reversed.
func (cpu *CPUBackend) Transpose(t *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	shape := t.Shape()
	ndim := len(shape)

	if len(axes) == 0 {
		axes = make([]int, ndim)
		for i := range axes {
			axes[i] = ndim - 1 - i
		}
	}
	if len(axes) != ndim {
		panic(fmt.Sprintf("transpose: axes length %d != ndim %d", len(axes), ndim))
	}

	seen := make([]bool, ndim)
	for _, ax := range axes {
		if ax < 0 || ax >= ndim {
			panic(fmt.Sprintf("transpose: invalid axis %d for %dD tensor", ax, ndim))
		}
		if seen[ax] {
			panic(fmt.Sprintf("transpose: duplicate axis %d", ax))
		}
		seen[ax] = true
	}

	newShape := make(tensor.Shape, ndim)
	for i, ax := range axes {
		newShape[i] = shape[ax]
	}

	result, err := tensor.NewRaw(newShape, t.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("transpose: %v", err))
	}

	transposeBytes(result.Data(), t.Data(), shape, axes, t.DType().Size())
	return result
}

// transposeBytes copies src into dst so that dst[i0..] = src[i_axes[0]..],
// treating elements as opaque runs of elemSize bytes.
func transposeBytes(dst, src []byte, shape tensor.Shape, axes []int, elemSize int) {
	ndim := len(shape)
	srcStrides := shape.ComputeStrides()

	// Source stride for each destination dimension.
	walk := make([]int, ndim)
	dims := make([]int, ndim)
	for i, ax := range axes {
		walk[i] = srcStrides[ax]
		dims[i] = shape[ax]
	}

	idx := make([]int, ndim)
	total := shape.NumElements()
	srcOff := 0
	for d := 0; d < total; d++ {
		copy(dst[d*elemSize:(d+1)*elemSize], src[srcOff*elemSize:(srcOff+1)*elemSize])

		// Advance the destination multi-index and keep srcOff in step.
		for k := ndim - 1; k >= 0; k-- {
			idx[k]++
			srcOff += walk[k]
			if idx[k] < dims[k] {
				break
			}
			srcOff -= walk[k] * dims[k]
			idx[k] = 0
		}
	}
}
