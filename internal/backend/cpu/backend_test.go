package cpu

import (
	"testing"

	"github.com/born-ml/litsnet/internal/parallel"
	"github.com/born-ml/litsnet/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackend_Metadata(t *testing.T) {
	backend := NewWithConfig(parallel.Config{Enabled: true, NumWorkers: 3})
	assert.Equal(t, "CPU", backend.Name())
	assert.Equal(t, tensor.CPU, backend.Device())
	assert.Equal(t, 3, backend.Workers())

	assert.Equal(t, 1, NewWithConfig(parallel.Config{}).Workers())

	var _ tensor.Backend = backend
}

func TestMatMul(t *testing.T) {
	backend := New()

	a := rawFloat32(t, tensor.Shape{2, 3}, []float32{1, 2, 3, 4, 5, 6})
	b := rawFloat32(t, tensor.Shape{3, 2}, []float32{7, 8, 9, 10, 11, 12})

	c := backend.MatMul(a, b)
	require.Equal(t, tensor.Shape{2, 2}, c.Shape())
	assert.Equal(t, []float32{58, 64, 139, 154}, c.AsFloat32())

	assert.Panics(t, func() { backend.MatMul(a, a) })
}

func TestMatMul_DeterministicAcrossWorkers(t *testing.T) {
	a := randomRaw(t, tensor.Shape{3, 300}, 5)
	b := randomRaw(t, tensor.Shape{300, 257}, 6)

	sequential := NewWithConfig(parallel.Config{Enabled: false}).MatMul(a, b)
	concurrent := NewWithConfig(parallel.Config{Enabled: true, NumWorkers: 5}).MatMul(a, b)

	assert.Equal(t, sequential.AsFloat32(), concurrent.AsFloat32())
}

func TestAdd_Broadcast(t *testing.T) {
	backend := New()

	x := rawFloat32(t, tensor.Shape{2, 3}, []float32{1, 2, 3, 4, 5, 6})
	bias := rawFloat32(t, tensor.Shape{1, 3}, []float32{10, 20, 30})

	y := backend.Add(x, bias)
	assert.Equal(t, []float32{11, 22, 33, 14, 25, 36}, y.AsFloat32())
	assert.Equal(t, []float32{1, 2, 3, 4, 5, 6}, x.AsFloat32(), "input must not be mutated")

	same := backend.Add(x, x)
	assert.Equal(t, []float32{2, 4, 6, 8, 10, 12}, same.AsFloat32())

	assert.Panics(t, func() {
		backend.Add(x, rawFloat32(t, tensor.Shape{2, 2}, make([]float32, 4)))
	})
}

func TestAdd_ChannelBias(t *testing.T) {
	backend := New()

	x := rawFloat32(t, tensor.Shape{1, 2, 2, 2}, make([]float32, 8))
	bias := rawFloat32(t, tensor.Shape{1, 2, 1, 1}, []float32{1, -1})

	y := backend.Add(x, bias)
	assert.Equal(t, []float32{1, 1, 1, 1, -1, -1, -1, -1}, y.AsFloat32())
}

func TestReLU(t *testing.T) {
	backend := New()

	x := rawFloat32(t, tensor.Shape{4}, []float32{-1, 0, 0.5, 3})
	assert.Equal(t, []float32{0, 0, 0.5, 3}, backend.ReLU(x).AsFloat32())
	assert.Equal(t, float32(-1), x.AsFloat32()[0])
}

func TestReshapeAndTranspose(t *testing.T) {
	backend := New()

	x := rawFloat32(t, tensor.Shape{2, 3}, []float32{1, 2, 3, 4, 5, 6})

	r := backend.Reshape(x, tensor.Shape{3, 2})
	assert.Equal(t, tensor.Shape{3, 2}, r.Shape())
	assert.Equal(t, x.AsFloat32(), r.AsFloat32())
	assert.Panics(t, func() { backend.Reshape(x, tensor.Shape{4}) })

	tr := backend.Transpose(x)
	assert.Equal(t, tensor.Shape{3, 2}, tr.Shape())
	assert.Equal(t, []float32{1, 4, 2, 5, 3, 6}, tr.AsFloat32())

	y := rawFloat32(t, tensor.Shape{1, 2, 3}, []float32{1, 2, 3, 4, 5, 6})
	p := backend.Transpose(y, 2, 0, 1)
	assert.Equal(t, tensor.Shape{3, 1, 2}, p.Shape())
	assert.Equal(t, []float32{1, 4, 2, 5, 3, 6}, p.AsFloat32())

	assert.Panics(t, func() { backend.Transpose(y, 0, 0, 1) })
}

func TestArgmax(t *testing.T) {
	backend := New()

	x := rawFloat32(t, tensor.Shape{2, 4}, []float32{
		0, 3, 3, 1,
		-5, -1, -2, -1,
	})

	rows := backend.Argmax(x, 1)
	assert.Equal(t, tensor.Shape{2}, rows.Shape())
	assert.Equal(t, []int32{1, 1}, rows.AsInt32(), "ties resolve to the lowest index")

	cols := backend.Argmax(x, 0)
	assert.Equal(t, []int32{0, 0, 0, 0}, cols.AsInt32())

	last := backend.Argmax(x, -1)
	assert.Equal(t, rows.AsInt32(), last.AsInt32())

	assert.Panics(t, func() { backend.Argmax(x, 2) })
}
