package operators

import (
	"fmt"

	"github.com/born-ml/litsnet/internal/tensor"
)

func (r *Registry) registerLayerOps() {
	r.Register("Conv", handleConv)
	r.Register("Relu", handleRelu)
	r.Register("Flatten", handleFlatten)
}

// handleConv supports 2D convolution with a single stride and symmetric
// padding, which is what the backend kernel provides.
func handleConv(ctx *Context, node *Node, inputs []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	if len(inputs) < 2 || len(inputs) > 3 {
		return nil, fmt.Errorf("conv requires 2 or 3 inputs, got %d", len(inputs))
	}
	x, w := inputs[0], inputs[1]
	if len(x.Shape()) != 4 || len(w.Shape()) != 4 {
		return nil, fmt.Errorf("conv: only 2D convolution supported, got input %v and weight %v", x.Shape(), w.Shape())
	}
	if x.Shape()[1] != w.Shape()[1] {
		return nil, fmt.Errorf("conv: input has %d channels, weight expects %d", x.Shape()[1], w.Shape()[1])
	}

	if group := GetAttrInt(node, "group", 1); group != 1 {
		return nil, fmt.Errorf("conv: group=%d not supported", group)
	}
	if autoPad := GetAttrString(node, "auto_pad", "NOTSET"); autoPad != "NOTSET" {
		return nil, fmt.Errorf("conv: auto_pad=%s not supported", autoPad)
	}
	if ks := GetAttrInts(node, "kernel_shape"); ks != nil {
		if len(ks) != 2 || int(ks[0]) != w.Shape()[2] || int(ks[1]) != w.Shape()[3] {
			return nil, fmt.Errorf("conv: kernel_shape %v does not match weight %v", ks, w.Shape())
		}
	}
	for _, d := range GetAttrInts(node, "dilations") {
		if d != 1 {
			return nil, fmt.Errorf("conv: dilation %d not supported", d)
		}
	}
	stride, err := uniform(GetAttrInts(node, "strides"), 1, "strides")
	if err != nil {
		return nil, err
	}
	padding, err := uniform(GetAttrInts(node, "pads"), 0, "pads")
	if err != nil {
		return nil, err
	}

	out := ctx.Backend.Conv2D(x, w, stride, padding)

	if len(inputs) == 3 && inputs[2] != nil {
		b := inputs[2]
		cOut := w.Shape()[0]
		if b.NumElements() != cOut {
			return nil, fmt.Errorf("conv: bias has %d elements, want %d", b.NumElements(), cOut)
		}
		out = ctx.Backend.Add(out, ctx.Backend.Reshape(b, tensor.Shape{1, cOut, 1, 1}))
	}
	return []*tensor.RawTensor{out}, nil
}

// uniform collapses a per-axis attribute to one value, rejecting
// attributes whose entries differ.
func uniform(vals []int64, def int, name string) (int, error) {
	if len(vals) == 0 {
		return def, nil
	}
	for _, v := range vals[1:] {
		if v != vals[0] {
			return 0, fmt.Errorf("conv: non-uniform %s %v not supported", name, vals)
		}
	}
	return int(vals[0]), nil
}

func handleRelu(ctx *Context, _ *Node, inputs []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	if len(inputs) != 1 {
		return nil, fmt.Errorf("relu requires 1 input, got %d", len(inputs))
	}
	return []*tensor.RawTensor{ctx.Backend.ReLU(inputs[0])}, nil
}

// handleFlatten reshapes to 2D: dims before axis, dims from axis on.
func handleFlatten(ctx *Context, node *Node, inputs []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	if len(inputs) != 1 {
		return nil, fmt.Errorf("flatten requires 1 input, got %d", len(inputs))
	}
	shape := inputs[0].Shape()
	rank := len(shape)

	axis := int(GetAttrInt(node, "axis", 1))
	if axis < 0 {
		axis += rank
	}
	if axis < 0 || axis > rank {
		return nil, fmt.Errorf("flatten: axis %d out of range for rank %d", GetAttrInt(node, "axis", 1), rank)
	}

	outer, inner := 1, 1
	for i, d := range shape {
		if i < axis {
			outer *= d
		} else {
			inner *= d
		}
	}
	return []*tensor.RawTensor{ctx.Backend.Reshape(inputs[0], tensor.Shape{outer, inner})}, nil
}
