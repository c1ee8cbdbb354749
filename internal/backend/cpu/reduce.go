package cpu

import (
	"fmt"

	"github.com/born-ml/litsnet/internal/tensor"
)

// Argmax returns the int32 index of the maximum value along dim, removing
// that dimension. Ties resolve to the lowest index; NaN never wins.
func (cpu *CPUBackend) Argmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	shape := x.Shape()
	ndim := len(shape)

	if dim < 0 {
		dim = ndim + dim
	}
	if dim < 0 || dim >= ndim {
		panic(fmt.Sprintf("argmax: dimension %d out of range for %dD tensor", dim, ndim))
	}

	outShape := make(tensor.Shape, 0, ndim-1)
	for i := 0; i < ndim; i++ {
		if i != dim {
			outShape = append(outShape, shape[i])
		}
	}

	result, err := tensor.NewRaw(outShape, tensor.Int32, cpu.device)
	if err != nil {
		panic(fmt.Sprintf("argmax: %v", err))
	}

	switch x.DType() {
	case tensor.Float32:
		argmaxTyped(x.AsFloat32(), result.AsInt32(), shape, dim)
	case tensor.Float64:
		argmaxTyped(x.AsFloat64(), result.AsInt32(), shape, dim)
	case tensor.Int32:
		argmaxTyped(x.AsInt32(), result.AsInt32(), shape, dim)
	case tensor.Int64:
		argmaxTyped(x.AsInt64(), result.AsInt32(), shape, dim)
	default:
		panic(fmt.Sprintf("argmax: unsupported dtype %s", x.DType()))
	}

	return result
}

func argmaxTyped[T number](data []T, result []int32, shape tensor.Shape, dim int) {
	dimSize := shape[dim]
	inner := shape.ComputeStrides()[dim]
	outer := len(data) / (dimSize * inner)

	for o := 0; o < outer; o++ {
		for in := 0; in < inner; in++ {
			base := o*dimSize*inner + in
			best := -1
			var bestVal T
			for d := 0; d < dimSize; d++ {
				v := data[base+d*inner]
				if v != v { //nolint:gocritic // NaN check
					continue
				}
				if best < 0 || v > bestVal {
					best, bestVal = d, v
				}
			}
			if best < 0 {
				best = 0
			}
			result[o*inner+in] = int32(best) //nolint:gosec // dimSize fits in int32
		}
	}
}
