package litsnet

import (
	"fmt"
	"slices"

	"github.com/born-ml/litsnet/internal/onnx"
	"github.com/born-ml/litsnet/internal/tensor"
)

// Graph output names of ONNX artifacts.
const (
	OutputPolicy = "policy"
	OutputValue  = "value"
)

// toONNX converts a trace and its parameters into an ONNX model. The batch
// dimension is symbolic.
func toONNX(trace *Trace, stateDict map[string]*tensor.RawTensor, meta map[string]string) (*onnx.ModelProto, error) {
	if len(trace.Outputs) != 2 {
		return nil, fmt.Errorf("trace has %d outputs, want 2", len(trace.Outputs))
	}
	rename := map[string]string{
		trace.Outputs[0]: OutputPolicy,
		trace.Outputs[1]: OutputValue,
	}
	valueName := func(s string) string {
		if r, ok := rename[s]; ok {
			return r
		}
		return s
	}

	graph := &onnx.GraphProto{Name: ModelType}
	for i := range trace.Ops {
		op := &trace.Ops[i]
		node := onnx.NodeProto{
			Name:    fmt.Sprintf("%s_%d", op.Op, i),
			Inputs:  []string{valueName(op.Input)},
			Outputs: []string{valueName(op.Output)},
		}
		switch op.Op {
		case opConv2D:
			node.OpType = "Conv"
			node.Name = op.Layer
			node.Inputs = append(node.Inputs, op.Params()...)
			s, p := int64(op.Attrs["stride"]), int64(op.Attrs["padding"])
			node.Attributes = []onnx.AttributeProto{
				intsAttr("kernel_shape", int64(op.Attrs["kernel_h"]), int64(op.Attrs["kernel_w"])),
				intsAttr("pads", p, p, p, p),
				intsAttr("strides", s, s),
			}
		case opReLU:
			node.OpType = "Relu"
		case opFlatten:
			node.OpType = "Flatten"
			node.Attributes = []onnx.AttributeProto{intAttr("axis", int64(op.Attrs["start_dim"]))}
		case opLinear:
			node.OpType = "Gemm"
			node.Name = op.Layer
			node.Inputs = append(node.Inputs, op.Params()...)
			node.Attributes = []onnx.AttributeProto{
				floatAttr("alpha", 1),
				floatAttr("beta", 1),
				intAttr("transB", 1),
			}
		default:
			return nil, fmt.Errorf("op %d: cannot export %q", i, op.Op)
		}
		graph.Nodes = append(graph.Nodes, node)
	}

	graph.Inputs = []onnx.ValueInfoProto{valueInfo(trace.Input, trace.InputShape)}
	outputShapes := make(map[string][]int, 2)
	for i := range trace.Ops {
		if name := valueName(trace.Ops[i].Output); name == OutputPolicy || name == OutputValue {
			outputShapes[name] = trace.Ops[i].Shape
		}
	}
	graph.Outputs = []onnx.ValueInfoProto{
		valueInfo(OutputPolicy, outputShapes[OutputPolicy]),
		valueInfo(OutputValue, outputShapes[OutputValue]),
	}

	names := make([]string, 0, len(stateDict))
	for name := range stateDict {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		tp, err := onnx.TensorToProto(name, stateDict[name])
		if err != nil {
			return nil, fmt.Errorf("initializer %s: %w", name, err)
		}
		graph.Initializers = append(graph.Initializers, tp)
	}

	keys := make([]string, 0, len(meta))
	for k := range meta {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	props := make([]onnx.StringStringEntry, len(keys))
	for i, k := range keys {
		props[i] = onnx.StringStringEntry{Key: k, Value: meta[k]}
	}

	return &onnx.ModelProto{
		IRVersion:       onnx.IRVersion,
		OpsetImport:     []onnx.OperatorSetID{{Version: onnx.OpsetVersion}},
		ProducerName:    "litsnet",
		ProducerVersion: Version,
		Graph:           graph,
		MetadataProps:   props,
	}, nil
}

func intAttr(name string, v int64) onnx.AttributeProto {
	return onnx.AttributeProto{Name: name, Type: onnx.AttributeProtoInt, I: v}
}

func intsAttr(name string, vs ...int64) onnx.AttributeProto {
	return onnx.AttributeProto{Name: name, Type: onnx.AttributeProtoInts, Ints: vs}
}

func floatAttr(name string, v float32) onnx.AttributeProto {
	return onnx.AttributeProto{Name: name, Type: onnx.AttributeProtoFloat, F: v}
}

func valueInfo(name string, shape []int) onnx.ValueInfoProto {
	dims := make([]onnx.DimensionProto, len(shape))
	for i, d := range shape {
		if i == 0 {
			dims[i] = onnx.DimensionProto{DimParam: "batch"}
			continue
		}
		dims[i] = onnx.DimensionProto{DimValue: int64(d)}
	}
	return onnx.ValueInfoProto{
		Name: name,
		Type: &onnx.TypeProto{TensorType: &onnx.TensorTypeProto{
			ElemType: onnx.TensorProtoFloat,
			Shape:    &onnx.TensorShapeProto{Dims: dims},
		}},
	}
}

// ONNXModel runs an exported ONNX artifact through the onnx runtime.
type ONNXModel struct {
	model   *onnx.Model
	backend tensor.Backend
}

// LoadONNX loads an ONNX artifact written by Export.
func LoadONNX(path string, backend tensor.Backend) (*ONNXModel, error) {
	model, err := onnx.Load(path, backend)
	if err != nil {
		return nil, err
	}
	outs := model.OutputNames()
	if len(outs) != 2 || outs[0] != OutputPolicy || outs[1] != OutputValue {
		return nil, fmt.Errorf("%s: outputs %v, want [%s %s]", path, outs, OutputPolicy, OutputValue)
	}
	if len(model.InputNames()) != 1 {
		return nil, fmt.Errorf("%s: %d inputs, want 1", path, len(model.InputNames()))
	}
	return &ONNXModel{model: model, backend: backend}, nil
}

// Model returns the underlying runtime model.
func (m *ONNXModel) Model() *onnx.Model {
	return m.model
}

// Evaluate runs the graph on a [batch, 5, 10, 10] input.
func (m *ONNXModel) Evaluate(input *Tensor) (Output, error) {
	shape := input.Shape()
	if len(shape) != 4 || shape[1] != Channels || shape[2] != BoardSize || shape[3] != BoardSize {
		return Output{}, &ShapeError{Layer: "onnx input", Shape: shape, Want: BoardSize, Got: lastDim(shape)}
	}
	outs, err := m.model.ForwardNamed(map[string]*tensor.RawTensor{m.model.InputNames()[0]: input.Raw()})
	if err != nil {
		return Output{}, err
	}
	return Output{
		Policy: tensor.New[float32](outs[OutputPolicy], m.backend),
		Value:  tensor.New[float32](outs[OutputValue], m.backend),
	}, nil
}

func lastDim(shape tensor.Shape) int {
	if len(shape) == 0 {
		return 0
	}
	return shape[len(shape)-1]
}
