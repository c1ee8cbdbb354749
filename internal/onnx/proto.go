package onnx

// ONNX protobuf messages, limited to the fields this package reads or writes.

// ModelProto is the top-level ONNX message.
type ModelProto struct {
	IRVersion       int64
	OpsetImport     []OperatorSetID
	ProducerName    string
	ProducerVersion string
	Domain          string
	ModelVersion    int64
	DocString       string
	Graph           *GraphProto
	MetadataProps   []StringStringEntry
}

// GraphProto is the computation graph.
type GraphProto struct {
	Name         string
	Nodes        []NodeProto
	Inputs       []ValueInfoProto
	Outputs      []ValueInfoProto
	Initializers []TensorProto
	DocString    string
	ValueInfo    []ValueInfoProto
}

// NodeProto is a single operation.
type NodeProto struct {
	Name       string
	OpType     string // e.g. "Conv", "Gemm", "Relu"
	Inputs     []string
	Outputs    []string
	Attributes []AttributeProto
	Domain     string
	DocString  string
}

// TensorProto holds an initializer.
type TensorProto struct {
	Name      string
	DataType  int32
	Dims      []int64
	RawData   []byte
	FloatData []float32 // legacy
	Int32Data []int32   // legacy
	Int64Data []int64   // legacy
}

// ValueInfoProto describes a graph input or output.
type ValueInfoProto struct {
	Name string
	Type *TypeProto
}

// TypeProto wraps a tensor type.
type TypeProto struct {
	TensorType *TensorTypeProto
}

// TensorTypeProto describes element type and shape.
type TensorTypeProto struct {
	ElemType int32
	Shape    *TensorShapeProto
}

// TensorShapeProto lists dimensions.
type TensorShapeProto struct {
	Dims []DimensionProto
}

// DimensionProto is either a static size or a named symbolic dimension.
type DimensionProto struct {
	DimValue int64  // e.g. 10
	DimParam string // e.g. "batch"
}

// AttributeProto is a node attribute.
type AttributeProto struct {
	Name    string
	Type    int32
	F       float32
	I       int64
	S       []byte
	T       *TensorProto
	Floats  []float32
	Ints    []int64
	Strings [][]byte
}

// OperatorSetID identifies an opset.
type OperatorSetID struct {
	Domain  string // empty for the default domain
	Version int64
}

// StringStringEntry is a metadata key/value pair.
type StringStringEntry struct {
	Key   string
	Value string
}

// ONNX data types (TensorProto.DataType).
const (
	TensorProtoUndefined = 0
	TensorProtoFloat     = 1  // float32
	TensorProtoInt32     = 6  // int32
	TensorProtoInt64     = 7  // int64
	TensorProtoDouble    = 11 // float64
)

// ONNX attribute types (AttributeProto.Type).
const (
	AttributeProtoUndefined = 0
	AttributeProtoFloat     = 1
	AttributeProtoInt       = 2
	AttributeProtoString    = 3
	AttributeProtoTensor    = 4
	AttributeProtoGraph     = 5
	AttributeProtoFloats    = 6
	AttributeProtoInts      = 7
	AttributeProtoStrings   = 8
)

// Versions written by Marshal.
const (
	IRVersion    = 8
	OpsetVersion = 13
)
