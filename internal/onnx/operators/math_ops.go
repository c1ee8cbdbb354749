package operators

import (
	"fmt"

	"github.com/born-ml/litsnet/internal/tensor"
)

func (r *Registry) registerMathOps() {
	r.Register("Add", handleAdd)
	r.Register("MatMul", handleMatMul)
	r.Register("Gemm", handleGemm)
}

func handleAdd(ctx *Context, _ *Node, inputs []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	if len(inputs) != 2 {
		return nil, fmt.Errorf("add requires 2 inputs, got %d", len(inputs))
	}
	if _, _, err := tensor.BroadcastShapes(inputs[0].Shape(), inputs[1].Shape()); err != nil {
		return nil, fmt.Errorf("add: %w", err)
	}
	return []*tensor.RawTensor{ctx.Backend.Add(inputs[0], inputs[1])}, nil
}

func handleMatMul(ctx *Context, _ *Node, inputs []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	if len(inputs) != 2 {
		return nil, fmt.Errorf("matMul requires 2 inputs, got %d", len(inputs))
	}
	if err := checkMatMul(inputs[0].Shape(), inputs[1].Shape()); err != nil {
		return nil, fmt.Errorf("matMul: %w", err)
	}
	return []*tensor.RawTensor{ctx.Backend.MatMul(inputs[0], inputs[1])}, nil
}

// handleGemm implements Y = alpha*A'*B' + beta*C, where A' and B' are A and B
// optionally transposed.
func handleGemm(ctx *Context, node *Node, inputs []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	if len(inputs) < 2 || len(inputs) > 3 {
		return nil, fmt.Errorf("gemm requires 2 or 3 inputs, got %d", len(inputs))
	}

	alpha := GetAttrFloat(node, "alpha", 1.0)
	beta := GetAttrFloat(node, "beta", 1.0)
	transA := GetAttrInt(node, "transA", 0) != 0
	transB := GetAttrInt(node, "transB", 0) != 0

	a, b := inputs[0], inputs[1]
	if len(a.Shape()) != 2 || len(b.Shape()) != 2 {
		return nil, fmt.Errorf("gemm: inputs must be 2D, got %v and %v", a.Shape(), b.Shape())
	}
	if transA {
		a = ctx.Backend.Transpose(a)
	}
	if transB {
		b = ctx.Backend.Transpose(b)
	}
	if err := checkMatMul(a.Shape(), b.Shape()); err != nil {
		return nil, fmt.Errorf("gemm: %w", err)
	}

	result := ctx.Backend.MatMul(a, b)
	if alpha != 1.0 {
		if err := scaleInPlace(result, alpha); err != nil {
			return nil, fmt.Errorf("gemm: %w", err)
		}
	}

	if len(inputs) == 3 && inputs[2] != nil && beta != 0 {
		c := inputs[2]
		if _, _, err := tensor.BroadcastShapes(result.Shape(), c.Shape()); err != nil {
			return nil, fmt.Errorf("gemm: bias: %w", err)
		}
		if beta != 1.0 {
			c = c.Clone()
			if err := scaleInPlace(c, beta); err != nil {
				return nil, fmt.Errorf("gemm: %w", err)
			}
		}
		result = ctx.Backend.Add(result, c)
	}
	return []*tensor.RawTensor{result}, nil
}

func checkMatMul(a, b tensor.Shape) error {
	if len(a) != 2 || len(b) != 2 {
		return fmt.Errorf("only 2D tensors supported, got %v and %v", a, b)
	}
	if a[1] != b[0] {
		return fmt.Errorf("shape mismatch %v @ %v", a, b)
	}
	return nil
}

// scaleInPlace multiplies every element of t by s. t must not be shared.
func scaleInPlace(t *tensor.RawTensor, s float32) error {
	switch t.DType() {
	case tensor.Float32:
		data := t.AsFloat32()
		for i := range data {
			data[i] *= s
		}
	case tensor.Float64:
		data := t.AsFloat64()
		for i := range data {
			data[i] *= float64(s)
		}
	default:
		return fmt.Errorf("cannot scale %s tensor", t.DType())
	}
	return nil
}
