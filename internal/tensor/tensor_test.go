package tensor

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// metaBackend only answers metadata queries; creation helpers need nothing else.
type metaBackend struct{ Backend }

func (metaBackend) Name() string   { return "meta" }
func (metaBackend) Device() Device { return CPU }

func TestDataTypeSize(t *testing.T) {
	tests := []struct {
		dtype DataType
		size  int
		name  string
	}{
		{Float32, 4, "float32"},
		{Float64, 8, "float64"},
		{Int32, 4, "int32"},
		{Int64, 8, "int64"},
	}

	for _, tt := range tests {
		if got := tt.dtype.Size(); got != tt.size {
			t.Errorf("%s.Size() = %d, want %d", tt.dtype, got, tt.size)
		}
		if got := tt.dtype.String(); got != tt.name {
			t.Errorf("String() = %q, want %q", got, tt.name)
		}
		parsed, ok := ParseDataType(tt.name)
		if !ok || parsed != tt.dtype {
			t.Errorf("ParseDataType(%q) = %v, %v", tt.name, parsed, ok)
		}
	}

	_, ok := ParseDataType("bfloat16")
	assert.False(t, ok)
}

func TestShape_NumElementsAndStrides(t *testing.T) {
	s := Shape{2, 5, 10, 10}
	assert.Equal(t, 1000, s.NumElements())
	assert.Equal(t, []int{500, 100, 10, 1}, s.ComputeStrides())
	assert.Equal(t, 1, Shape{}.NumElements())
	assert.True(t, s.Equal(s.Clone()))
	assert.False(t, s.Equal(Shape{2, 5, 10}))
}

func TestShape_Validate(t *testing.T) {
	require.NoError(t, Shape{1, 5, 10, 10}.Validate())
	assert.Error(t, Shape{1, 0, 10}.Validate())
	assert.Error(t, Shape{-1}.Validate())
}

func TestBroadcastShapes(t *testing.T) {
	tests := []struct {
		a, b      Shape
		want      Shape
		broadcast bool
		wantErr   bool
	}{
		{Shape{3, 1}, Shape{3, 5}, Shape{3, 5}, true, false},
		{Shape{3, 5}, Shape{3, 5}, Shape{3, 5}, false, false},
		{Shape{2, 1293}, Shape{1, 1293}, Shape{2, 1293}, true, false},
		{Shape{2, 15, 9, 9}, Shape{1, 15, 1, 1}, Shape{2, 15, 9, 9}, true, false},
		{Shape{4}, Shape{2, 4}, Shape{2, 4}, true, false},
		{Shape{3, 4}, Shape{3, 5}, nil, false, true},
	}

	for _, tt := range tests {
		got, broadcast, err := BroadcastShapes(tt.a, tt.b)
		if tt.wantErr {
			assert.Error(t, err, "%v vs %v", tt.a, tt.b)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
		assert.Equal(t, tt.broadcast, broadcast, "%v vs %v", tt.a, tt.b)
	}
}

func TestRawTensor_CloneIsDeep(t *testing.T) {
	raw, err := NewRaw(Shape{2, 2}, Float32, CPU)
	require.NoError(t, err)
	raw.AsFloat32()[0] = 1

	clone := raw.Clone()
	clone.AsFloat32()[0] = 7

	assert.Equal(t, float32(1), raw.AsFloat32()[0])
	assert.Equal(t, float32(7), clone.AsFloat32()[0])
}

func TestRawTensor_WithShape(t *testing.T) {
	raw, err := NewRaw(Shape{1, 25, 8, 8}, Float32, CPU)
	require.NoError(t, err)

	flat, err := raw.WithShape(Shape{1, 1600})
	require.NoError(t, err)
	assert.Equal(t, Shape{1, 1600}, flat.Shape())
	assert.Equal(t, []int{1600, 1}, flat.Strides())

	_, err = raw.WithShape(Shape{1, 1599})
	assert.Error(t, err)
}

func TestRawTensor_DTypeMismatchPanics(t *testing.T) {
	raw, err := NewRaw(Shape{3}, Int32, CPU)
	require.NoError(t, err)
	assert.Panics(t, func() { raw.AsFloat32() })
	assert.Len(t, raw.AsInt32(), 3)
}

func TestNewRawFromBytes(t *testing.T) {
	_, err := NewRawFromBytes(Shape{2}, Float32, CPU, make([]byte, 8))
	require.NoError(t, err)

	_, err = NewRawFromBytes(Shape{2}, Float32, CPU, make([]byte, 7))
	assert.Error(t, err)
}

func TestFromSlice(t *testing.T) {
	b := metaBackend{}

	x, err := FromSlice([]float32{1, 2, 3, 4, 5, 6}, Shape{2, 3}, b)
	require.NoError(t, err)
	assert.Equal(t, float32(6), x.At(1, 2))
	assert.Equal(t, Float32, x.DType())

	x.Set(9, 0, 1)
	assert.Equal(t, []float32{1, 9, 3, 4, 5, 6}, x.Data())
	assert.Panics(t, func() { x.At(2, 0) })
	assert.Panics(t, func() { x.At(0) })

	_, err = FromSlice([]float32{1, 2, 3}, Shape{2, 2}, b)
	assert.Error(t, err)
}

func TestFull(t *testing.T) {
	x := Full[float64](Shape{3}, 0.5, metaBackend{})
	assert.Equal(t, []float64{0.5, 0.5, 0.5}, x.Data())
	assert.Equal(t, "Tensor[float64][3] on CPU", x.String())
}

func TestUniform_Reproducible(t *testing.T) {
	b := metaBackend{}
	first := Uniform[float32](Shape{4, 4}, -0.25, 0.25, rand.New(rand.NewSource(7)), b)
	second := Uniform[float32](Shape{4, 4}, -0.25, 0.25, rand.New(rand.NewSource(7)), b)

	assert.Equal(t, first.Data(), second.Data())
	for _, v := range first.Data() {
		assert.GreaterOrEqual(t, v, float32(-0.25))
		assert.LessOrEqual(t, v, float32(0.25))
	}

	assert.Panics(t, func() {
		Uniform[int32](Shape{2}, 0, 1, rand.New(rand.NewSource(1)), b)
	})
}
