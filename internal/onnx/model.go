package onnx

import (
	"fmt"

	"github.com/born-ml/litsnet/internal/onnx/operators"
	"github.com/born-ml/litsnet/internal/tensor"
)

// LoadOptions configures model loading behavior.
type LoadOptions struct {
	// StrictMode fails at load time on operators the registry cannot run.
	// Otherwise the failure surfaces when the node executes.
	StrictMode bool

	// CustomOps provides extra operator handlers.
	CustomOps map[string]operators.OpHandler
}

// DefaultLoadOptions returns default loading options.
func DefaultLoadOptions() LoadOptions {
	return LoadOptions{StrictMode: true}
}

// Load parses an ONNX file and prepares it for inference on backend.
//
// Example:
//
//	model, err := onnx.Load("template.onnx", backend)
//	if err != nil {
//	    return err
//	}
//	out, err := model.ForwardNamed(map[string]*tensor.RawTensor{"input": x})
func Load(path string, backend tensor.Backend, opts ...LoadOptions) (*Model, error) {
	proto, err := ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ONNX file: %w", err)
	}
	return LoadFromProto(proto, backend, pickOptions(opts))
}

// LoadFromBytes loads an ONNX model from bytes.
func LoadFromBytes(data []byte, backend tensor.Backend, opts ...LoadOptions) (*Model, error) {
	proto, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ONNX data: %w", err)
	}
	return LoadFromProto(proto, backend, pickOptions(opts))
}

func pickOptions(opts []LoadOptions) LoadOptions {
	if len(opts) > 0 {
		return opts[0]
	}
	return DefaultLoadOptions()
}

// LoadFromProto prepares a parsed model for inference.
func LoadFromProto(proto *ModelProto, backend tensor.Backend, opt LoadOptions) (*Model, error) {
	registry := operators.NewRegistry()
	for opType, handler := range opt.CustomOps {
		registry.Register(opType, handler)
	}

	m := &Model{
		proto:    proto,
		registry: registry,
		backend:  backend,
	}
	if err := m.compile(); err != nil {
		return nil, err
	}

	if opt.StrictMode {
		for i := range m.sortedNodes {
			node := &m.sortedNodes[i]
			if _, ok := registry.Get(node.OpType); !ok {
				return nil, fmt.Errorf("node %s: unsupported operator %s", node.Name, node.OpType)
			}
		}
	}
	return m, nil
}

// Model is a loaded ONNX graph ready for inference.
type Model struct {
	proto        *ModelProto
	registry     *operators.Registry
	backend      tensor.Backend
	tensors      map[string]*tensor.RawTensor // initializers
	inputNames   []string
	outputNames  []string
	sortedNodes  []NodeProto
	opsetVersion int64
}

// Proto returns the parsed model.
func (m *Model) Proto() *ModelProto {
	return m.proto
}

// InputNames returns the names of model inputs.
func (m *Model) InputNames() []string {
	return m.inputNames
}

// OutputNames returns the names of model outputs.
func (m *Model) OutputNames() []string {
	return m.outputNames
}

// OpsetVersion returns the default-domain opset version.
func (m *Model) OpsetVersion() int64 {
	return m.opsetVersion
}

// Initializer returns the named weight tensor.
func (m *Model) Initializer(name string) (*tensor.RawTensor, bool) {
	t, ok := m.tensors[name]
	return t, ok
}

// Metadata returns model metadata as key-value pairs.
func (m *Model) Metadata() map[string]string {
	meta := make(map[string]string, len(m.proto.MetadataProps)+3)
	for _, prop := range m.proto.MetadataProps {
		meta[prop.Key] = prop.Value
	}
	meta["producer_name"] = m.proto.ProducerName
	meta["producer_version"] = m.proto.ProducerVersion
	meta["domain"] = m.proto.Domain
	return meta
}

// Forward runs inference on a single-input, single-output model.
func (m *Model) Forward(input *tensor.RawTensor) (*tensor.RawTensor, error) {
	if len(m.inputNames) != 1 {
		return nil, fmt.Errorf("model has %d inputs, use ForwardNamed", len(m.inputNames))
	}
	if len(m.outputNames) != 1 {
		return nil, fmt.Errorf("model has %d outputs, use ForwardNamed", len(m.outputNames))
	}

	outputs, err := m.ForwardNamed(map[string]*tensor.RawTensor{m.inputNames[0]: input})
	if err != nil {
		return nil, err
	}
	return outputs[m.outputNames[0]], nil
}

// ForwardNamed runs inference with named inputs and returns every graph
// output by name.
func (m *Model) ForwardNamed(inputs map[string]*tensor.RawTensor) (map[string]*tensor.RawTensor, error) {
	tensors := make(map[string]*tensor.RawTensor, len(m.tensors)+len(inputs))
	for name, t := range m.tensors {
		tensors[name] = t
	}
	for name, t := range inputs {
		tensors[name] = t
	}

	for _, name := range m.inputNames {
		if _, ok := tensors[name]; !ok {
			return nil, fmt.Errorf("missing input: %s", name)
		}
	}

	ctx := &operators.Context{Backend: m.backend}
	for i := range m.sortedNodes {
		node := &m.sortedNodes[i]

		nodeInputs := make([]*tensor.RawTensor, len(node.Inputs))
		for j, name := range node.Inputs {
			if name == "" {
				continue // omitted optional input
			}
			t, ok := tensors[name]
			if !ok {
				return nil, fmt.Errorf("node %s: missing input %s", node.Name, name)
			}
			nodeInputs[j] = t
		}

		outputs, err := m.registry.Execute(ctx, nodeProtoToOperatorNode(node), nodeInputs)
		if err != nil {
			return nil, fmt.Errorf("node %s (%s): %w", node.Name, node.OpType, err)
		}
		for j, name := range node.Outputs {
			if j < len(outputs) {
				tensors[name] = outputs[j]
			}
		}
	}

	result := make(map[string]*tensor.RawTensor, len(m.outputNames))
	for _, name := range m.outputNames {
		t, ok := tensors[name]
		if !ok {
			return nil, fmt.Errorf("missing output: %s", name)
		}
		result[name] = t
	}
	return result, nil
}

func (m *Model) compile() error {
	graph := m.proto.Graph
	if graph == nil {
		return fmt.Errorf("model has no graph")
	}

	m.tensors = make(map[string]*tensor.RawTensor, len(graph.Initializers))
	for i := range graph.Initializers {
		init := &graph.Initializers[i]
		t, err := tensorFromProto(init)
		if err != nil {
			return fmt.Errorf("failed to load initializer %s: %w", init.Name, err)
		}
		m.tensors[init.Name] = t
	}

	// Graph inputs may repeat the initializers; only the rest are fed by callers.
	for i := range graph.Inputs {
		if _, isInit := m.tensors[graph.Inputs[i].Name]; !isInit {
			m.inputNames = append(m.inputNames, graph.Inputs[i].Name)
		}
	}
	for i := range graph.Outputs {
		m.outputNames = append(m.outputNames, graph.Outputs[i].Name)
	}

	m.sortedNodes = topologicalSort(graph.Nodes)

	for _, opset := range m.proto.OpsetImport {
		if opset.Domain == "" || opset.Domain == "ai.onnx" {
			m.opsetVersion = opset.Version
			break
		}
	}
	return nil
}

// tensorFromProto converts an initializer to a RawTensor.
func tensorFromProto(proto *TensorProto) (*tensor.RawTensor, error) {
	shape := make(tensor.Shape, len(proto.Dims))
	for i, dim := range proto.Dims {
		shape[i] = int(dim)
	}

	dtype, err := protoTypeToTensorType(proto.DataType)
	if err != nil {
		return nil, err
	}

	t, err := tensor.NewRaw(shape, dtype, tensor.CPU)
	if err != nil {
		return nil, err
	}

	n := t.NumElements()
	switch {
	case len(proto.RawData) > 0:
		if len(proto.RawData) != t.ByteSize() {
			return nil, fmt.Errorf("raw data has %d bytes, shape %v of %s needs %d",
				len(proto.RawData), shape, dtype, t.ByteSize())
		}
		copy(t.Data(), proto.RawData)
	case len(proto.FloatData) > 0 && dtype == tensor.Float32:
		if len(proto.FloatData) != n {
			return nil, fmt.Errorf("float_data has %d values, want %d", len(proto.FloatData), n)
		}
		copy(t.AsFloat32(), proto.FloatData)
	case len(proto.Int32Data) > 0 && dtype == tensor.Int32:
		if len(proto.Int32Data) != n {
			return nil, fmt.Errorf("int32_data has %d values, want %d", len(proto.Int32Data), n)
		}
		copy(t.AsInt32(), proto.Int32Data)
	case len(proto.Int64Data) > 0 && dtype == tensor.Int64:
		if len(proto.Int64Data) != n {
			return nil, fmt.Errorf("int64_data has %d values, want %d", len(proto.Int64Data), n)
		}
		copy(t.AsInt64(), proto.Int64Data)
	}
	return t, nil
}

// TensorToProto converts a RawTensor to an initializer carrying raw data.
func TensorToProto(name string, t *tensor.RawTensor) (TensorProto, error) {
	dt, err := tensorTypeToProtoType(t.DType())
	if err != nil {
		return TensorProto{}, err
	}
	dims := make([]int64, len(t.Shape()))
	for i, d := range t.Shape() {
		dims[i] = int64(d)
	}
	return TensorProto{
		Name:     name,
		DataType: dt,
		Dims:     dims,
		RawData:  append([]byte(nil), t.Data()...),
	}, nil
}

func protoTypeToTensorType(onnxType int32) (tensor.DataType, error) {
	switch onnxType {
	case TensorProtoFloat:
		return tensor.Float32, nil
	case TensorProtoDouble:
		return tensor.Float64, nil
	case TensorProtoInt32:
		return tensor.Int32, nil
	case TensorProtoInt64:
		return tensor.Int64, nil
	default:
		return 0, fmt.Errorf("unsupported tensor data type %d", onnxType)
	}
}

func tensorTypeToProtoType(dt tensor.DataType) (int32, error) {
	switch dt {
	case tensor.Float32:
		return TensorProtoFloat, nil
	case tensor.Float64:
		return TensorProtoDouble, nil
	case tensor.Int32:
		return TensorProtoInt32, nil
	case tensor.Int64:
		return TensorProtoInt64, nil
	default:
		return 0, fmt.Errorf("unsupported dtype %s", dt)
	}
}

// nodeProtoToOperatorNode converts NodeProto to operators.Node.
func nodeProtoToOperatorNode(proto *NodeProto) *operators.Node {
	attrs := make([]operators.Attribute, len(proto.Attributes))
	for i := range proto.Attributes {
		attr := &proto.Attributes[i]
		attrs[i] = operators.Attribute{
			Name:    attr.Name,
			Type:    attr.Type,
			F:       attr.F,
			I:       attr.I,
			S:       attr.S,
			Floats:  attr.Floats,
			Ints:    attr.Ints,
			Strings: attr.Strings,
		}
	}
	return &operators.Node{
		Name:       proto.Name,
		OpType:     proto.OpType,
		Inputs:     proto.Inputs,
		Outputs:    proto.Outputs,
		Attributes: attrs,
		Domain:     proto.Domain,
	}
}

// topologicalSort orders nodes so that producers run before consumers,
// keeping the original order among independent nodes.
func topologicalSort(nodes []NodeProto) []NodeProto {
	outputToNode := make(map[string]int)
	for i := range nodes {
		for _, output := range nodes[i].Outputs {
			outputToNode[output] = i
		}
	}

	visited := make([]bool, len(nodes))
	result := make([]NodeProto, 0, len(nodes))

	var visit func(i int)
	visit = func(i int) {
		if visited[i] {
			return
		}
		visited[i] = true
		for _, input := range nodes[i].Inputs {
			if dep, ok := outputToNode[input]; ok {
				visit(dep)
			}
		}
		result = append(result, nodes[i])
	}

	for i := range nodes {
		visit(i)
	}
	return result
}
