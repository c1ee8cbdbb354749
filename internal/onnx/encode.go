package onnx

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"google.golang.org/protobuf/encoding/protowire"
)

// Marshal encodes a model in protobuf wire format. Fields are written in
// schema order and repeated scalars are never packed.
func Marshal(m *ModelProto) ([]byte, error) {
	if m == nil {
		return nil, errors.New("marshal: nil model")
	}
	if m.Graph == nil {
		return nil, errors.New("marshal: model has no graph")
	}
	return appendModel(nil, m), nil
}

// WriteFile marshals m and writes it to path through a temporary file in
// the same directory, so readers never observe a partial model.
func WriteFile(path string, m *ModelProto) error {
	data, err := Marshal(m)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close() //nolint:errcheck,gosec // the write error is the one worth reporting
		return fmt.Errorf("failed to write model: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

func appendStringField(b []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

// appendRepeatedString keeps empty entries; node inputs use "" for an
// omitted optional input.
func appendRepeatedString(b []byte, num protowire.Number, ss []string) []byte {
	for _, s := range ss {
		b = protowire.AppendTag(b, num, protowire.BytesType)
		b = protowire.AppendString(b, s)
	}
	return b
}

func appendBytesField(b []byte, num protowire.Number, v []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

func appendVarintField(b []byte, num protowire.Number, v int64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, uint64(v))
}

func appendRepeatedVarint(b []byte, num protowire.Number, vs []int64) []byte {
	for _, v := range vs {
		b = protowire.AppendTag(b, num, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(v))
	}
	return b
}

func appendRepeatedFloat(b []byte, num protowire.Number, vs []float32) []byte {
	for _, v := range vs {
		b = protowire.AppendTag(b, num, protowire.Fixed32Type)
		b = protowire.AppendFixed32(b, math.Float32bits(v))
	}
	return b
}

func appendModel(b []byte, m *ModelProto) []byte {
	b = appendVarintField(b, 1, m.IRVersion)
	b = appendStringField(b, 2, m.ProducerName)
	b = appendStringField(b, 3, m.ProducerVersion)
	b = appendStringField(b, 4, m.Domain)
	b = appendVarintField(b, 5, m.ModelVersion)
	b = appendStringField(b, 6, m.DocString)
	b = appendBytesField(b, 7, appendGraph(nil, m.Graph))
	for i := range m.OpsetImport {
		op := &m.OpsetImport[i]
		msg := appendStringField(nil, 1, op.Domain)
		msg = appendVarintField(msg, 2, op.Version)
		b = appendBytesField(b, 8, msg)
	}
	for _, e := range m.MetadataProps {
		msg := appendStringField(nil, 1, e.Key)
		msg = appendStringField(msg, 2, e.Value)
		b = appendBytesField(b, 14, msg)
	}
	return b
}

func appendGraph(b []byte, g *GraphProto) []byte {
	for i := range g.Nodes {
		b = appendBytesField(b, 1, appendNode(nil, &g.Nodes[i]))
	}
	b = appendStringField(b, 2, g.Name)
	for i := range g.Initializers {
		b = appendBytesField(b, 5, appendTensor(nil, &g.Initializers[i]))
	}
	b = appendStringField(b, 10, g.DocString)
	for i := range g.Inputs {
		b = appendBytesField(b, 11, appendValueInfo(nil, &g.Inputs[i]))
	}
	for i := range g.Outputs {
		b = appendBytesField(b, 12, appendValueInfo(nil, &g.Outputs[i]))
	}
	for i := range g.ValueInfo {
		b = appendBytesField(b, 13, appendValueInfo(nil, &g.ValueInfo[i]))
	}
	return b
}

func appendNode(b []byte, n *NodeProto) []byte {
	b = appendRepeatedString(b, 1, n.Inputs)
	b = appendRepeatedString(b, 2, n.Outputs)
	b = appendStringField(b, 3, n.Name)
	b = appendStringField(b, 4, n.OpType)
	for i := range n.Attributes {
		b = appendBytesField(b, 5, appendAttribute(nil, &n.Attributes[i]))
	}
	b = appendStringField(b, 6, n.DocString)
	b = appendStringField(b, 7, n.Domain)
	return b
}

func appendAttribute(b []byte, a *AttributeProto) []byte {
	b = appendStringField(b, 1, a.Name)
	switch a.Type {
	case AttributeProtoFloat:
		b = protowire.AppendTag(b, 2, protowire.Fixed32Type)
		b = protowire.AppendFixed32(b, math.Float32bits(a.F))
	case AttributeProtoInt:
		b = protowire.AppendTag(b, 3, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(a.I))
	case AttributeProtoString:
		b = appendBytesField(b, 4, a.S)
	case AttributeProtoTensor:
		if a.T != nil {
			b = appendBytesField(b, 5, appendTensor(nil, a.T))
		}
	case AttributeProtoFloats:
		b = appendRepeatedFloat(b, 7, a.Floats)
	case AttributeProtoInts:
		b = appendRepeatedVarint(b, 8, a.Ints)
	case AttributeProtoStrings:
		for _, s := range a.Strings {
			b = appendBytesField(b, 9, s)
		}
	}
	return appendVarintField(b, 20, int64(a.Type))
}

func appendTensor(b []byte, t *TensorProto) []byte {
	b = appendRepeatedVarint(b, 1, t.Dims)
	b = appendVarintField(b, 2, int64(t.DataType))
	b = appendRepeatedFloat(b, 4, t.FloatData)
	for _, v := range t.Int32Data {
		b = protowire.AppendTag(b, 5, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(int64(v)))
	}
	b = appendRepeatedVarint(b, 7, t.Int64Data)
	b = appendStringField(b, 8, t.Name)
	if len(t.RawData) > 0 {
		b = appendBytesField(b, 9, t.RawData)
	}
	return b
}

func appendValueInfo(b []byte, vi *ValueInfoProto) []byte {
	b = appendStringField(b, 1, vi.Name)
	if vi.Type == nil || vi.Type.TensorType == nil {
		return b
	}
	tt := vi.Type.TensorType
	msg := appendVarintField(nil, 1, int64(tt.ElemType))
	if tt.Shape != nil {
		var shape []byte
		for _, d := range tt.Shape.Dims {
			dim := appendVarintField(nil, 1, d.DimValue)
			dim = appendStringField(dim, 2, d.DimParam)
			shape = appendBytesField(shape, 1, dim)
		}
		msg = appendBytesField(msg, 2, shape)
	}
	typ := appendBytesField(nil, 1, msg)
	return appendBytesField(b, 2, typ)
}
