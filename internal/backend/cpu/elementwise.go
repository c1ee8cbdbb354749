package cpu

import (
	"fmt"

	"github.com/born-ml/litsnet/internal/tensor"
)

type number interface {
	~float32 | ~float64 | ~int32 | ~int64
}

// Add performs element-wise addition with NumPy-style broadcasting.
// The dtype of a determines the dtype of the result; b must match it.
func (cpu *CPUBackend) Add(a, b *tensor.RawTensor) *tensor.RawTensor {
	if a.DType() != b.DType() {
		panic(fmt.Sprintf("add: dtype mismatch %s vs %s", a.DType(), b.DType()))
	}

	outShape, needsBroadcast, err := tensor.BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		panic(fmt.Sprintf("add: %v", err))
	}

	result, err := tensor.NewRaw(outShape, a.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("add: failed to create result tensor: %v", err))
	}

	switch a.DType() {
	case tensor.Float32:
		addTyped(result.AsFloat32(), a.AsFloat32(), b.AsFloat32(), a.Shape(), b.Shape(), outShape, needsBroadcast)
	case tensor.Float64:
		addTyped(result.AsFloat64(), a.AsFloat64(), b.AsFloat64(), a.Shape(), b.Shape(), outShape, needsBroadcast)
	case tensor.Int32:
		addTyped(result.AsInt32(), a.AsInt32(), b.AsInt32(), a.Shape(), b.Shape(), outShape, needsBroadcast)
	case tensor.Int64:
		addTyped(result.AsInt64(), a.AsInt64(), b.AsInt64(), a.Shape(), b.Shape(), outShape, needsBroadcast)
	default:
		panic(fmt.Sprintf("add: unsupported dtype %s", a.DType()))
	}
	return result
}

func addTyped[T number](out, a, b []T, aShape, bShape, outShape tensor.Shape, needsBroadcast bool) {
	if !needsBroadcast {
		for i := range out {
			out[i] = a[i] + b[i]
		}
		return
	}

	aStrides := broadcastStrides(aShape, outShape)
	bStrides := broadcastStrides(bShape, outShape)
	idx := make([]int, len(outShape))
	aOff, bOff := 0, 0

	for i := range out {
		out[i] = a[aOff] + b[bOff]

		for k := len(outShape) - 1; k >= 0; k-- {
			idx[k]++
			aOff += aStrides[k]
			bOff += bStrides[k]
			if idx[k] < outShape[k] {
				break
			}
			aOff -= aStrides[k] * outShape[k]
			bOff -= bStrides[k] * outShape[k]
			idx[k] = 0
		}
	}
}

// broadcastStrides returns strides of shape aligned to outShape, with 0 for
// broadcast (size 1 or missing) dimensions.
func broadcastStrides(shape, outShape tensor.Shape) []int {
	strides := make([]int, len(outShape))
	own := shape.ComputeStrides()
	offset := len(outShape) - len(shape)
	for i := range shape {
		if shape[i] != 1 {
			strides[offset+i] = own[i]
		}
	}
	return strides
}

// ReLU computes max(0, x) element-wise.
func (cpu *CPUBackend) ReLU(x *tensor.RawTensor) *tensor.RawTensor {
	result, err := tensor.NewRaw(x.Shape(), x.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("relu: %v", err))
	}

	switch x.DType() {
	case tensor.Float32:
		reluTyped(result.AsFloat32(), x.AsFloat32())
	case tensor.Float64:
		reluTyped(result.AsFloat64(), x.AsFloat64())
	case tensor.Int32:
		reluTyped(result.AsInt32(), x.AsInt32())
	case tensor.Int64:
		reluTyped(result.AsInt64(), x.AsInt64())
	default:
		panic(fmt.Sprintf("relu: unsupported dtype %s", x.DType()))
	}
	return result
}

func reluTyped[T number](out, in []T) {
	for i, v := range in {
		if v > 0 {
			out[i] = v
		}
	}
}
