package cpu

import (
	"fmt"

	"github.com/born-ml/litsnet/internal/parallel"
	"github.com/born-ml/litsnet/internal/tensor"
)

// matmulBlock is the number of output columns handled per parallel task.
const matmulBlock = 64

// MatMul performs matrix multiplication: (M, K) @ (K, N) -> (M, N).
func (cpu *CPUBackend) MatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	aShape := a.Shape()
	bShape := b.Shape()

	if len(aShape) != 2 || len(bShape) != 2 {
		panic(fmt.Sprintf("matmul: only 2D tensors supported, got %dD and %dD", len(aShape), len(bShape)))
	}

	m, k := aShape[0], aShape[1]
	kAlt, n := bShape[0], bShape[1]
	if k != kAlt {
		panic(fmt.Sprintf("matmul: shape mismatch [%d,%d] @ [%d,%d]", m, k, kAlt, n))
	}
	if a.DType() != b.DType() {
		panic(fmt.Sprintf("matmul: dtype mismatch %s vs %s", a.DType(), b.DType()))
	}

	result, err := tensor.NewRaw(tensor.Shape{m, n}, a.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("matmul: failed to create result tensor: %v", err))
	}

	cfg := cpu.blocks()
	switch a.DType() {
	case tensor.Float32:
		matmulTyped(result.AsFloat32(), a.AsFloat32(), b.AsFloat32(), m, k, n, cfg)
	case tensor.Float64:
		matmulTyped(result.AsFloat64(), a.AsFloat64(), b.AsFloat64(), m, k, n, cfg)
	case tensor.Int32:
		matmulTyped(result.AsInt32(), a.AsInt32(), b.AsInt32(), m, k, n, cfg)
	case tensor.Int64:
		matmulTyped(result.AsInt64(), a.AsInt64(), b.AsInt64(), m, k, n, cfg)
	default:
		panic(fmt.Sprintf("matmul: unsupported dtype %s", a.DType()))
	}

	return result
}

// matmulTyped computes C[i,j] = sum_k A[i,k] * B[k,j] with k ascending.
// Column blocks of C are independent, so they are spread across workers.
func matmulTyped[T number](c, a, b []T, m, k, n int, cfg parallel.Config) {
	numBlocks := (n + matmulBlock - 1) / matmulBlock

	parallel.For(numBlocks, func(blk int) {
		j0 := blk * matmulBlock
		j1 := min(j0+matmulBlock, n)

		for i := 0; i < m; i++ {
			row := c[i*n+j0 : i*n+j1]
			for kIdx := 0; kIdx < k; kIdx++ {
				aik := a[i*k+kIdx]
				if aik == 0 {
					continue
				}
				bRow := b[kIdx*n+j0 : kIdx*n+j1]
				for j, bv := range bRow {
					row[j] += aik * bv
				}
			}
		}
	}, cfg)
}
