package onnx

import (
	"fmt"
	"math"
	"os"

	"google.golang.org/protobuf/encoding/protowire"
)

// ParseFile parses an ONNX model from file.
//
//nolint:gosec // G304: path is supplied by the caller on purpose.
func ParseFile(path string) (*ModelProto, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return Parse(data)
}

// Parse parses an ONNX model from bytes.
func Parse(data []byte) (*ModelProto, error) {
	model := &ModelProto{}
	if err := decodeModel(data, model); err != nil {
		return nil, fmt.Errorf("failed to parse model: %w", err)
	}
	return model, nil
}

// field is one decoded key/value pair of a protobuf message.
type field struct {
	num protowire.Number
	typ protowire.Type
	v   uint64 // varint, fixed32 and fixed64 payloads
	b   []byte // length-delimited payload
}

// eachField walks the top-level fields of a message. Unknown fields are
// handed to fn like any other; fn ignores the ones it does not know.
func eachField(b []byte, fn func(f field) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]

		f := field{num: num, typ: typ}
		switch typ {
		case protowire.VarintType:
			f.v, n = protowire.ConsumeVarint(b)
		case protowire.Fixed32Type:
			var v uint32
			v, n = protowire.ConsumeFixed32(b)
			f.v = uint64(v)
		case protowire.Fixed64Type:
			f.v, n = protowire.ConsumeFixed64(b)
		case protowire.BytesType:
			f.b, n = protowire.ConsumeBytes(b)
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return fmt.Errorf("field %d: %w", num, protowire.ParseError(n))
		}
		b = b[n:]

		if err := fn(f); err != nil {
			return err
		}
	}
	return nil
}

func (f field) wireError() error {
	return fmt.Errorf("field %d: unexpected wire type %d", f.num, f.typ)
}

func (f field) asInt64() (int64, error) {
	if f.typ != protowire.VarintType {
		return 0, f.wireError()
	}
	return int64(f.v), nil
}

func (f field) asInt32() (int32, error) {
	v, err := f.asInt64()
	return int32(v), err
}

func (f field) asBytes() ([]byte, error) {
	if f.typ != protowire.BytesType {
		return nil, f.wireError()
	}
	return f.b, nil
}

func (f field) asString() (string, error) {
	b, err := f.asBytes()
	return string(b), err
}

func (f field) asFloat32() (float32, error) {
	if f.typ != protowire.Fixed32Type {
		return 0, f.wireError()
	}
	return math.Float32frombits(uint32(f.v)), nil
}

// appendVarints decodes a repeated varint field in either packed or
// unpacked form.
func appendVarints(dst []int64, f field) ([]int64, error) {
	switch f.typ {
	case protowire.VarintType:
		return append(dst, int64(f.v)), nil
	case protowire.BytesType:
		b := f.b
		for len(b) > 0 {
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, fmt.Errorf("field %d: %w", f.num, protowire.ParseError(n))
			}
			dst = append(dst, int64(v))
			b = b[n:]
		}
		return dst, nil
	default:
		return nil, f.wireError()
	}
}

// appendFloats decodes a repeated float field in either packed or
// unpacked form.
func appendFloats(dst []float32, f field) ([]float32, error) {
	switch f.typ {
	case protowire.Fixed32Type:
		return append(dst, math.Float32frombits(uint32(f.v))), nil
	case protowire.BytesType:
		if len(f.b)%4 != 0 {
			return nil, fmt.Errorf("field %d: packed floats length %d not a multiple of 4", f.num, len(f.b))
		}
		b := f.b
		for len(b) > 0 {
			v, n := protowire.ConsumeFixed32(b)
			if n < 0 {
				return nil, fmt.Errorf("field %d: %w", f.num, protowire.ParseError(n))
			}
			dst = append(dst, math.Float32frombits(v))
			b = b[n:]
		}
		return dst, nil
	default:
		return nil, f.wireError()
	}
}

func decodeModel(b []byte, m *ModelProto) error {
	return eachField(b, func(f field) error {
		var err error
		switch f.num {
		case 1:
			m.IRVersion, err = f.asInt64()
		case 2:
			m.ProducerName, err = f.asString()
		case 3:
			m.ProducerVersion, err = f.asString()
		case 4:
			m.Domain, err = f.asString()
		case 5:
			m.ModelVersion, err = f.asInt64()
		case 6:
			m.DocString, err = f.asString()
		case 7:
			var msg []byte
			if msg, err = f.asBytes(); err == nil {
				m.Graph = &GraphProto{}
				err = decodeGraph(msg, m.Graph)
			}
		case 8:
			var msg []byte
			if msg, err = f.asBytes(); err == nil {
				var op OperatorSetID
				if err = decodeOperatorSetID(msg, &op); err == nil {
					m.OpsetImport = append(m.OpsetImport, op)
				}
			}
		case 14:
			var msg []byte
			if msg, err = f.asBytes(); err == nil {
				var e StringStringEntry
				if err = decodeStringStringEntry(msg, &e); err == nil {
					m.MetadataProps = append(m.MetadataProps, e)
				}
			}
		}
		if err != nil {
			return fmt.Errorf("model: %w", err)
		}
		return nil
	})
}

func decodeGraph(b []byte, g *GraphProto) error {
	return eachField(b, func(f field) error {
		var err error
		switch f.num {
		case 1:
			var msg []byte
			if msg, err = f.asBytes(); err == nil {
				var n NodeProto
				if err = decodeNode(msg, &n); err == nil {
					g.Nodes = append(g.Nodes, n)
				}
			}
		case 2:
			g.Name, err = f.asString()
		case 5:
			var msg []byte
			if msg, err = f.asBytes(); err == nil {
				var t TensorProto
				if err = decodeTensor(msg, &t); err == nil {
					g.Initializers = append(g.Initializers, t)
				}
			}
		case 10:
			g.DocString, err = f.asString()
		case 11, 12, 13:
			var msg []byte
			if msg, err = f.asBytes(); err == nil {
				var vi ValueInfoProto
				if err = decodeValueInfo(msg, &vi); err == nil {
					switch f.num {
					case 11:
						g.Inputs = append(g.Inputs, vi)
					case 12:
						g.Outputs = append(g.Outputs, vi)
					default:
						g.ValueInfo = append(g.ValueInfo, vi)
					}
				}
			}
		}
		if err != nil {
			return fmt.Errorf("graph: %w", err)
		}
		return nil
	})
}

func decodeNode(b []byte, n *NodeProto) error {
	return eachField(b, func(f field) error {
		var err error
		switch f.num {
		case 1:
			var s string
			if s, err = f.asString(); err == nil {
				n.Inputs = append(n.Inputs, s)
			}
		case 2:
			var s string
			if s, err = f.asString(); err == nil {
				n.Outputs = append(n.Outputs, s)
			}
		case 3:
			n.Name, err = f.asString()
		case 4:
			n.OpType, err = f.asString()
		case 5:
			var msg []byte
			if msg, err = f.asBytes(); err == nil {
				var a AttributeProto
				if err = decodeAttribute(msg, &a); err == nil {
					n.Attributes = append(n.Attributes, a)
				}
			}
		case 6:
			n.DocString, err = f.asString()
		case 7:
			n.Domain, err = f.asString()
		}
		if err != nil {
			return fmt.Errorf("node %q: %w", n.Name, err)
		}
		return nil
	})
}

func decodeAttribute(b []byte, a *AttributeProto) error {
	return eachField(b, func(f field) error {
		var err error
		switch f.num {
		case 1:
			a.Name, err = f.asString()
		case 2:
			a.F, err = f.asFloat32()
		case 3:
			a.I, err = f.asInt64()
		case 4:
			var s []byte
			if s, err = f.asBytes(); err == nil {
				a.S = append([]byte(nil), s...)
			}
		case 5:
			var msg []byte
			if msg, err = f.asBytes(); err == nil {
				a.T = &TensorProto{}
				err = decodeTensor(msg, a.T)
			}
		case 7:
			a.Floats, err = appendFloats(a.Floats, f)
		case 8:
			a.Ints, err = appendVarints(a.Ints, f)
		case 9:
			var s []byte
			if s, err = f.asBytes(); err == nil {
				a.Strings = append(a.Strings, append([]byte(nil), s...))
			}
		case 20:
			a.Type, err = f.asInt32()
		}
		if err != nil {
			return fmt.Errorf("attribute %q: %w", a.Name, err)
		}
		return nil
	})
}

func decodeTensor(b []byte, t *TensorProto) error {
	return eachField(b, func(f field) error {
		var err error
		switch f.num {
		case 1:
			t.Dims, err = appendVarints(t.Dims, f)
		case 2:
			t.DataType, err = f.asInt32()
		case 4:
			t.FloatData, err = appendFloats(t.FloatData, f)
		case 5:
			var vs []int64
			if vs, err = appendVarints(nil, f); err == nil {
				for _, v := range vs {
					t.Int32Data = append(t.Int32Data, int32(v))
				}
			}
		case 7:
			t.Int64Data, err = appendVarints(t.Int64Data, f)
		case 8:
			t.Name, err = f.asString()
		case 9:
			var raw []byte
			if raw, err = f.asBytes(); err == nil {
				t.RawData = append([]byte(nil), raw...)
			}
		}
		if err != nil {
			return fmt.Errorf("tensor %q: %w", t.Name, err)
		}
		return nil
	})
}

func decodeValueInfo(b []byte, vi *ValueInfoProto) error {
	return eachField(b, func(f field) error {
		var err error
		switch f.num {
		case 1:
			vi.Name, err = f.asString()
		case 2:
			var msg []byte
			if msg, err = f.asBytes(); err == nil {
				vi.Type = &TypeProto{}
				err = decodeType(msg, vi.Type)
			}
		}
		return err
	})
}

func decodeType(b []byte, tp *TypeProto) error {
	return eachField(b, func(f field) error {
		if f.num != 1 {
			return nil
		}
		msg, err := f.asBytes()
		if err != nil {
			return err
		}
		tp.TensorType = &TensorTypeProto{}
		return eachField(msg, func(f field) error {
			var err error
			switch f.num {
			case 1:
				tp.TensorType.ElemType, err = f.asInt32()
			case 2:
				var msg []byte
				if msg, err = f.asBytes(); err == nil {
					tp.TensorType.Shape = &TensorShapeProto{}
					err = decodeShape(msg, tp.TensorType.Shape)
				}
			}
			return err
		})
	})
}

func decodeShape(b []byte, s *TensorShapeProto) error {
	return eachField(b, func(f field) error {
		if f.num != 1 {
			return nil
		}
		msg, err := f.asBytes()
		if err != nil {
			return err
		}
		var d DimensionProto
		err = eachField(msg, func(f field) error {
			var err error
			switch f.num {
			case 1:
				d.DimValue, err = f.asInt64()
			case 2:
				d.DimParam, err = f.asString()
			}
			return err
		})
		if err != nil {
			return err
		}
		s.Dims = append(s.Dims, d)
		return nil
	})
}

func decodeOperatorSetID(b []byte, op *OperatorSetID) error {
	return eachField(b, func(f field) error {
		var err error
		switch f.num {
		case 1:
			op.Domain, err = f.asString()
		case 2:
			op.Version, err = f.asInt64()
		}
		return err
	})
}

func decodeStringStringEntry(b []byte, e *StringStringEntry) error {
	return eachField(b, func(f field) error {
		var err error
		switch f.num {
		case 1:
			e.Key, err = f.asString()
		case 2:
			e.Value, err = f.asString()
		}
		return err
	})
}
