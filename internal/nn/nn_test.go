package nn

import (
	"math"
	"math/rand"
	"path/filepath"
	"testing"
	"time"

	"github.com/born-ml/litsnet/internal/backend/cpu"
	"github.com/born-ml/litsnet/internal/serialization"
	"github.com/born-ml/litsnet/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seeded(seed int64) Option {
	return WithRNG(rand.New(rand.NewSource(seed)))
}

func TestLinear_ForwardShape(t *testing.T) {
	backend := cpu.New()
	layer := NewLinear(1600, 256, backend, seeded(1))

	input := tensor.Zeros[float32](tensor.Shape{3, 1600}, backend)
	output := layer.Forward(input)

	assert.Equal(t, tensor.Shape{3, 256}, output.Shape())
	assert.Equal(t, 1600*256+256, NumParameters[*cpu.CPUBackend](layer))
	assert.Equal(t, "Linear(in_features=1600, out_features=256, bias=true)", layer.String())
}

func TestLinear_ForwardValues(t *testing.T) {
	backend := cpu.New()
	layer := NewLinear(3, 2, backend, seeded(1))

	copy(layer.Weight().Tensor().Data(), []float32{1, 2, 3, -1, 0, 1})
	copy(layer.Bias().Tensor().Data(), []float32{0.5, -0.5})

	input, err := tensor.FromSlice([]float32{1, 1, 1, 2, 0, -1}, tensor.Shape{2, 3}, backend)
	require.NoError(t, err)

	output := layer.Forward(input)
	assert.Equal(t, []float32{6.5, -0.5, -0.5, -3.5}, output.Data())
}

// TestLinear_FeatureMismatchPanics checks the fail-fast message at the
// flatten/linear boundary.
func TestLinear_FeatureMismatchPanics(t *testing.T) {
	backend := cpu.New()
	layer := NewLinear(1600, 8, backend, seeded(1))

	assert.PanicsWithValue(t, "Linear.Forward: expected input with 1600 features, got 2500", func() {
		layer.Forward(tensor.Zeros[float32](tensor.Shape{1, 2500}, backend))
	})
	assert.Panics(t, func() {
		layer.Forward(tensor.Zeros[float32](tensor.Shape{1600}, backend))
	})
}

func TestInit_DefaultBounds(t *testing.T) {
	backend := cpu.New()

	layer := NewLinear(1600, 64, backend, seeded(3))
	bound := float32(1 / math.Sqrt(1600))
	for _, p := range layer.Parameters() {
		for _, v := range p.Tensor().Data() {
			require.LessOrEqual(t, v, bound, p.Name())
			require.GreaterOrEqual(t, v, -bound, p.Name())
		}
	}

	conv := NewConv2D(5, 15, 2, 2, 1, 0, true, backend, seeded(3))
	bound = float32(1 / math.Sqrt(5*2*2))
	for _, v := range conv.Weight().Tensor().Data() {
		require.LessOrEqual(t, v, bound)
		require.GreaterOrEqual(t, v, -bound)
	}
}

func TestInit_SeedIsReproducible(t *testing.T) {
	backend := cpu.New()

	a := NewLinear(16, 4, backend, seeded(42))
	b := NewLinear(16, 4, backend, seeded(42))
	c := NewLinear(16, 4, backend, seeded(43))

	assert.Equal(t, a.Weight().Tensor().Data(), b.Weight().Tensor().Data())
	assert.Equal(t, a.Bias().Tensor().Data(), b.Bias().Tensor().Data())
	assert.NotEqual(t, a.Weight().Tensor().Data(), c.Weight().Tensor().Data())
}

func TestConv2D_Creation(t *testing.T) {
	backend := cpu.New()
	conv := NewConv2D(5, 15, 2, 2, 1, 0, true, backend, seeded(1))

	if conv.InChannels() != 5 {
		t.Errorf("Expected in_channels=5, got %d", conv.InChannels())
	}
	if conv.OutChannels() != 15 {
		t.Errorf("Expected out_channels=15, got %d", conv.OutChannels())
	}
	if ks := conv.KernelSize(); ks != [2]int{2, 2} {
		t.Errorf("Expected kernel_size=[2,2], got %v", ks)
	}

	assert.Equal(t, tensor.Shape{15, 5, 2, 2}, conv.Weight().Tensor().Shape())
	assert.Equal(t, tensor.Shape{15}, conv.Bias().Tensor().Shape())
	assert.Len(t, conv.Parameters(), 2)
	assert.Equal(t, [2]int{9, 9}, conv.ComputeOutputSize(10, 10))
	assert.Equal(t, "Conv2D(in_channels=5, out_channels=15, kernel_size=(2, 2), stride=1, padding=0, bias=true)", conv.String())

	noBias := NewConv2D(5, 15, 2, 2, 1, 0, false, backend, seeded(1))
	assert.Len(t, noBias.Parameters(), 1)
	assert.Nil(t, noBias.Bias())
}

func TestConv2D_ForwardShape(t *testing.T) {
	backend := cpu.New()
	conv := NewConv2D(15, 25, 2, 2, 1, 0, true, backend, seeded(1))

	output := conv.Forward(tensor.Zeros[float32](tensor.Shape{2, 15, 9, 9}, backend))
	assert.Equal(t, tensor.Shape{2, 25, 8, 8}, output.Shape())

	// A zero input leaves only the bias.
	bias := conv.Bias().Tensor().Data()
	for c := 0; c < 25; c++ {
		assert.Equal(t, bias[c], output.At(1, c, 7, 7))
	}

	assert.Panics(t, func() {
		conv.Forward(tensor.Zeros[float32](tensor.Shape{2, 5, 9, 9}, backend))
	})
}

func TestReLUAndFlatten(t *testing.T) {
	backend := cpu.New()

	x, err := tensor.FromSlice([]float32{-1, 2, -3, 4}, tensor.Shape{1, 1, 2, 2}, backend)
	require.NoError(t, err)

	y := NewReLU[*cpu.CPUBackend]().Forward(x)
	assert.Equal(t, []float32{0, 2, 0, 4}, y.Data())

	flat := NewFlatten[*cpu.CPUBackend]().Forward(y)
	assert.Equal(t, tensor.Shape{1, 4}, flat.Shape())

	assert.Nil(t, NewReLU[*cpu.CPUBackend]().Parameters())
	assert.Empty(t, NewFlatten[*cpu.CPUBackend]().StateDict())
}

func TestStateDictHelpers(t *testing.T) {
	backend := cpu.New()
	layer := NewLinear(4, 2, backend, seeded(1))

	prefixed := PrefixStateDict("policy_0", layer.StateDict())
	assert.Contains(t, prefixed, "policy_0.weight")
	assert.Contains(t, prefixed, "policy_0.bias")

	sub := SubStateDict("policy_0", prefixed)
	assert.Len(t, sub, 2)
	assert.Empty(t, SubStateDict("policy_1", prefixed))
}

func TestLinear_LoadStateDictErrors(t *testing.T) {
	backend := cpu.New()
	layer := NewLinear(4, 2, backend, seeded(1))

	err := layer.LoadStateDict(map[string]*tensor.RawTensor{})
	assert.ErrorContains(t, err, "missing weight")

	wrong := NewLinear(4, 3, backend, seeded(1)).StateDict()
	err = layer.LoadStateDict(wrong)
	assert.ErrorContains(t, err, "shape mismatch")
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	backend := cpu.New()
	path := filepath.Join(t.TempDir(), "linear.born")

	src := NewLinear(8, 3, backend, seeded(7))
	require.NoError(t, Save[*cpu.CPUBackend](src, path, serialization.Header{
		ModelType: "Linear",
		CreatedAt: time.Unix(0, 0).UTC(),
		Metadata:  map[string]string{"k": "v"},
	}))

	dst := NewLinear(8, 3, backend, seeded(8))
	header, err := Load[*cpu.CPUBackend](path, dst)
	require.NoError(t, err)

	assert.Equal(t, "Linear", header.ModelType)
	assert.Equal(t, "v", header.Metadata["k"])
	assert.Equal(t, src.Weight().Tensor().Data(), dst.Weight().Tensor().Data())
	assert.Equal(t, src.Bias().Tensor().Data(), dst.Bias().Tensor().Data())

	_, err = Load[*cpu.CPUBackend](path, NewLinear(8, 4, backend, seeded(1)))
	assert.Error(t, err)
}
