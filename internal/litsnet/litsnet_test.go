package litsnet

import (
	"bytes"
	"context"
	"errors"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/litsnet/internal/backend/cpu"
	"github.com/born-ml/litsnet/internal/lits"
	"github.com/born-ml/litsnet/internal/serialization"
	"github.com/born-ml/litsnet/internal/tensor"
)

var epoch = time.Unix(0, 0).UTC()

func newBackend() tensor.Backend {
	return cpu.New()
}

func randomInput(t *testing.T, batch int, seed int64, backend tensor.Backend) *Tensor {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	return tensor.Uniform[float32](tensor.Shape{batch, Channels, BoardSize, BoardSize}, 0, 1, rng, backend)
}

func TestForwardShapes(t *testing.T) {
	backend := newBackend()
	m := New(backend, WithSeed(1)).Eval()

	for _, batch := range []int{1, 3} {
		out := m.Forward(randomInput(t, batch, 2, backend))
		assert.Equal(t, tensor.Shape{batch, PolicySize}, out.Policy.Shape())
		assert.Equal(t, tensor.Shape{batch, ValueSize}, out.Value.Shape())

		for i, v := range out.Policy.Data() {
			if v < 0 {
				t.Fatalf("policy[%d] = %v, want >= 0", i, v)
			}
		}
		for i, v := range out.Value.Data() {
			if v < 0 {
				t.Fatalf("value[%d] = %v, want >= 0", i, v)
			}
		}
	}
}

func TestForwardZeroInput(t *testing.T) {
	backend := newBackend()
	m := New(backend, WithSeed(3)).Eval()
	zero := tensor.Zeros[float32](ExampleShape, backend)

	trace, err := m.Trace(zero)
	require.NoError(t, err)
	assert.Equal(t, []int{1, Features}, trace.Ops[4].Shape)

	first := m.Forward(zero)
	second := m.Forward(zero)
	require.Len(t, first.Policy.Data(), PolicySize)
	require.Len(t, first.Value.Data(), 1)
	assert.Equal(t, first.Policy.Data(), second.Policy.Data())
	assert.Equal(t, first.Value.Data(), second.Value.Data())
}

func TestForwardWrongBoardSize(t *testing.T) {
	backend := newBackend()
	m := New(backend, WithSeed(1)).Eval()
	input := tensor.Zeros[float32](tensor.Shape{1, Channels, 12, 12}, backend)

	assert.PanicsWithValue(t, "Linear.Forward: expected input with 1600 features, got 2500", func() {
		m.Forward(input)
	})

	_, err := m.Evaluate(input)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrShapeMismatch))

	var shapeErr *ShapeError
	require.True(t, errors.As(err, &shapeErr))
	assert.Equal(t, Features, shapeErr.Want)
	assert.Equal(t, 2500, shapeErr.Got)
}

func TestEvaluateRejectsBadInputs(t *testing.T) {
	backend := newBackend()
	m := New(backend, WithSeed(1)).Eval()

	tests := []struct {
		name  string
		shape tensor.Shape
	}{
		{"rank", tensor.Shape{Channels, BoardSize, BoardSize}},
		{"channels", tensor.Shape{1, 4, BoardSize, BoardSize}},
		{"too small", tensor.Shape{1, Channels, 2, 2}},
		{"not square", tensor.Shape{1, Channels, BoardSize, 9}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Evaluate(tensor.Zeros[float32](tt.shape, backend))
			assert.ErrorIs(t, err, ErrShapeMismatch)
		})
	}

	out, err := m.Evaluate(randomInput(t, 2, 9, backend))
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2, PolicySize}, out.Policy.Shape())
}

func TestParameters(t *testing.T) {
	m := New(newBackend(), WithSeed(1))

	assert.Equal(t, 5_043_646, m.NumParameters())
	assert.Len(t, m.Parameters(), 12)

	sd := m.StateDict()
	assert.Len(t, sd, 12)
	assert.Equal(t, tensor.Shape{15, 5, 2, 2}, sd["convol_0.weight"].Shape())
	assert.Equal(t, tensor.Shape{25, 15, 2, 2}, sd["convol_1.weight"].Shape())
	assert.Equal(t, tensor.Shape{1600, 1600}, sd["policy_0.weight"].Shape())
	assert.Equal(t, tensor.Shape{1293, 1600}, sd["policy_1.weight"].Shape())
	assert.Equal(t, tensor.Shape{256, 1600}, sd["values_0.weight"].Shape())
	assert.Equal(t, tensor.Shape{1, 256}, sd["values_1.weight"].Shape())
	assert.Equal(t, tensor.Shape{1}, sd["values_1.bias"].Shape())

	bound := float32(1 / math.Sqrt(1600))
	for _, v := range sd["policy_0.weight"].AsFloat32() {
		if v < -bound || v > bound {
			t.Fatalf("policy_0 weight %v outside ±%v", v, bound)
		}
	}
}

func TestSeedDeterminism(t *testing.T) {
	backend := newBackend()
	a := New(backend, WithSeed(42)).StateDict()
	b := New(backend, WithSeed(42)).StateDict()
	c := New(backend, WithSeed(43)).StateDict()

	for name, raw := range a {
		assert.Equal(t, raw.AsFloat32(), b[name].AsFloat32(), name)
	}
	assert.NotEqual(t, a["convol_0.weight"].AsFloat32(), c["convol_0.weight"].AsFloat32())
}

func TestModes(t *testing.T) {
	m := New(newBackend(), WithSeed(1))
	assert.True(t, m.Training())
	assert.False(t, m.Eval().Training())
	assert.True(t, m.Train().Training())

	_, err := m.Trace(tensor.Zeros[float32](ExampleShape, m.Backend()))
	assert.ErrorIs(t, err, ErrNotEval)
}

func TestLoadStateDict(t *testing.T) {
	backend := newBackend()
	src := New(backend, WithSeed(1))
	dst := New(backend, WithSeed(2))

	require.NoError(t, dst.LoadStateDict(src.StateDict()))
	assert.Equal(t, src.StateDict()["policy_1.bias"].AsFloat32(), dst.StateDict()["policy_1.bias"].AsFloat32())

	sd := src.StateDict()
	delete(sd, "values_0.bias")
	assert.Error(t, dst.LoadStateDict(sd))

	sd = src.StateDict()
	sd["extra.weight"] = sd["values_1.bias"]
	err := dst.LoadStateDict(sd)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "extra.weight")
}

func TestString(t *testing.T) {
	s := New(newBackend(), WithSeed(1)).String()
	assert.True(t, strings.HasPrefix(s, "LITSNet(\n"))
	assert.Contains(t, s, "(convol_0): Conv2D(in_channels=5, out_channels=15, kernel_size=(2, 2)")
	assert.Contains(t, s, "(policy_1): Linear(in_features=1600, out_features=1293, bias=true)")
	assert.Contains(t, s, "(values_1): Linear(in_features=256, out_features=1, bias=true)")
}

func TestTrace(t *testing.T) {
	backend := newBackend()
	m := New(backend, WithSeed(1)).Eval()

	trace, err := m.Trace(randomInput(t, 2, 1, backend))
	require.NoError(t, err)

	wantOps := []string{
		"conv2d", "relu", "conv2d", "relu", "flatten",
		"linear", "relu", "linear", "relu",
		"linear", "relu", "linear", "relu",
	}
	require.Len(t, trace.Ops, len(wantOps))
	for i, op := range trace.Ops {
		assert.Equal(t, wantOps[i], op.Op, "op %d", i)
	}

	assert.Equal(t, "input", trace.Input)
	assert.Equal(t, []int{2, 5, 10, 10}, trace.InputShape)
	assert.Equal(t, []string{"relu_8", "relu_12"}, trace.Outputs)

	assert.Equal(t, "convol_0", trace.Ops[0].Layer)
	assert.Equal(t, []int{2, 15, 9, 9}, trace.Ops[0].Shape)
	assert.Equal(t, []int{2, 25, 8, 8}, trace.Ops[2].Shape)
	assert.Equal(t, 2, trace.Ops[2].Attrs["kernel_h"])
	assert.Equal(t, 1, trace.Ops[4].Attrs["start_dim"])

	// The value head branches off the flattened features.
	assert.Equal(t, "values_0", trace.Ops[9].Layer)
	assert.Equal(t, "flatten_4", trace.Ops[9].Input)
	assert.Equal(t, []string{"values_0.weight", "values_0.bias"}, trace.Ops[9].Params())

	// Batch size does not change the graph.
	other, err := m.Trace(tensor.Zeros[float32](ExampleShape, backend))
	require.NoError(t, err)
	assert.True(t, trace.Equal(other))

	other.Ops[5].Attrs["out_features"] = 10
	assert.False(t, trace.Equal(other))
}

func TestExportBornReproducible(t *testing.T) {
	ctx := context.Background()
	backend := newBackend()
	dir := t.TempDir()

	a, err := Export(ctx, New(backend, WithSeed(5)), filepath.Join(dir, "a.born"), ExportOptions{CreatedAt: epoch})
	require.NoError(t, err)
	b, err := Export(ctx, New(backend, WithSeed(5)), filepath.Join(dir, "nested", "b.born"), ExportOptions{CreatedAt: epoch})
	require.NoError(t, err)

	assert.Equal(t, FormatBorn, a.Format)
	assert.Equal(t, a.SHA256, b.SHA256)
	assert.Equal(t, a.Size, b.Size)

	dataA, err := os.ReadFile(a.Path)
	require.NoError(t, err)
	dataB, err := os.ReadFile(b.Path)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(dataA, dataB))
	assert.Equal(t, int64(len(dataA)), a.Size)

	r, err := serialization.Open(a.Path)
	require.NoError(t, err)
	defer func() { _ = r.Close() }()
	meta := r.Metadata()
	assert.Equal(t, "eval", meta[MetaMode])
	assert.Equal(t, "1,5,10,10", meta[MetaInputShape])
	assert.Equal(t, "5043646", meta[MetaParameters])
	assert.Equal(t, ModelType, r.Header().ModelType)
	assert.True(t, r.Header().CreatedAt.Equal(epoch))
	assert.Len(t, r.TensorNames(), 12)
}

func TestExportSameModelTwice(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	m := New(newBackend(), WithSeed(6))

	for _, ext := range []string{".born", ".onnx"} {
		first, err := Export(ctx, m, filepath.Join(dir, "first"+ext), ExportOptions{CreatedAt: epoch})
		require.NoError(t, err)
		second, err := Export(ctx, m, filepath.Join(dir, "second"+ext), ExportOptions{CreatedAt: epoch})
		require.NoError(t, err)

		assert.Equal(t, first.SHA256, second.SHA256, ext)
		assert.True(t, first.Trace.Equal(second.Trace), ext)
	}
}

func TestExportLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	backend := newBackend()
	path := filepath.Join(t.TempDir(), "template.born")

	m := New(backend, WithSeed(11))
	art, err := Export(ctx, m, path, ExportOptions{Metadata: map[string]string{"run": "test"}})
	require.NoError(t, err)
	assert.False(t, m.Training())

	loaded, trace, err := Load(path, backend)
	require.NoError(t, err)
	assert.False(t, loaded.Training())
	assert.True(t, trace.Equal(art.Trace))

	input := randomInput(t, 2, 12, backend)
	want := m.Forward(input)
	got1 := loaded.Forward(input)
	got2 := loaded.Forward(input)
	assert.Equal(t, want.Policy.Data(), got1.Policy.Data())
	assert.Equal(t, want.Value.Data(), got1.Value.Data())
	assert.Equal(t, got1.Policy.Data(), got2.Policy.Data())
}

func TestLoadRejectsForeignArtifacts(t *testing.T) {
	backend := newBackend()
	dir := t.TempDir()
	sd := New(backend, WithSeed(1)).StateDict()

	other := filepath.Join(dir, "other.born")
	require.NoError(t, serialization.WriteFile(other, sd, serialization.Header{ModelType: "MNIST"}))
	_, _, err := Load(other, backend)
	assert.ErrorIs(t, err, ErrNotLITSNet)

	arch := filepath.Join(dir, "arch.born")
	require.NoError(t, serialization.WriteFile(arch, sd, serialization.Header{
		ModelType: ModelType,
		Metadata:  map[string]string{MetaArchitecture: "LITSNet()"},
	}))
	_, _, err = Load(arch, backend)
	assert.ErrorIs(t, err, ErrArchitectureMismatch)

	trace := filepath.Join(dir, "trace.born")
	require.NoError(t, serialization.WriteFile(trace, sd, serialization.Header{
		ModelType: ModelType,
		Metadata: map[string]string{
			MetaArchitecture: New(backend, WithSeed(1)).String(),
			MetaTrace:        `{"input":"input","ops":[]}`,
		},
	}))
	_, _, err = Load(trace, backend)
	assert.ErrorIs(t, err, ErrTraceMismatch)
}

func TestExportONNXMatchesNative(t *testing.T) {
	ctx := context.Background()
	backend := newBackend()
	path := filepath.Join(t.TempDir(), "template.onnx")

	m := New(backend, WithSeed(21))
	art, err := Export(ctx, m, path, ExportOptions{CreatedAt: epoch})
	require.NoError(t, err)
	assert.Equal(t, FormatONNX, art.Format)

	rt, err := LoadONNX(path, backend)
	require.NoError(t, err)
	assert.Equal(t, []string{"input"}, rt.Model().InputNames())
	assert.EqualValues(t, 13, rt.Model().OpsetVersion())
	assert.Equal(t, "eval", rt.Model().Metadata()[MetaMode])
	assert.Equal(t, "1970-01-01T00:00:00Z", rt.Model().Metadata()[MetaCreatedAt])

	input := randomInput(t, 3, 22, backend)
	want := m.Forward(input)
	got, err := rt.Evaluate(input)
	require.NoError(t, err)
	require.Equal(t, want.Policy.Shape(), got.Policy.Shape())
	assert.InDeltaSlice(t, want.Policy.Data(), got.Policy.Data(), 1e-5)
	assert.InDeltaSlice(t, want.Value.Data(), got.Value.Data(), 1e-5)

	_, err = rt.Evaluate(tensor.Zeros[float32](tensor.Shape{1, Channels, 12, 12}, backend))
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestExportFormats(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	m := New(newBackend(), WithSeed(1))

	_, err := Export(ctx, m, filepath.Join(dir, "model.pt"), ExportOptions{})
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	art, err := Export(ctx, m, filepath.Join(dir, "model.bin"), ExportOptions{Format: FormatONNX, CreatedAt: epoch})
	require.NoError(t, err)
	assert.Equal(t, FormatONNX, art.Format)

	f, err := ParseFormat("ONNX")
	require.NoError(t, err)
	assert.Equal(t, FormatONNX, f)
	_, err = FormatOf("model")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = Export(cancelled, m, filepath.Join(dir, "late.born"), ExportOptions{})
	assert.ErrorIs(t, err, context.Canceled)
	_, statErr := os.Stat(filepath.Join(dir, "late.born"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestEncodeBoard(t *testing.T) {
	b := lits.NewBoard()
	piece, err := lits.ParseTetromino("L[00,01,02,12]")
	require.NoError(t, err)
	require.NoError(t, b.Place(piece))
	b.SetPlayer(lits.Point{X: 0, Y: 0}, lits.X)
	b.SetPlayer(lits.Point{X: 5, Y: 5}, lits.X)
	b.SetPlayer(lits.Point{X: 6, Y: 6}, lits.O)

	x := EncodeBoard(b, lits.X)
	require.Len(t, x, InputSize)

	var planeSums [Channels]float32
	for i, v := range x {
		planeSums[i/100] += v
	}
	assert.Equal(t, [Channels]float32{4, 0, 0, 0, 0}, planeSums)

	assert.Equal(t, float32(1), x[0])   // L at (0,0)
	assert.Equal(t, float32(1), x[12])  // L at (1,2)
	assert.Equal(t, float32(0), x[400]) // covered score tile
	assert.Equal(t, float32(1), x[455])
	assert.Equal(t, float32(-1), x[466])

	o := EncodeBoard(b, lits.O)
	assert.Equal(t, float32(-1), o[455])
	assert.Equal(t, float32(1), o[466])
}

func TestEncodeBatch(t *testing.T) {
	ctx := context.Background()
	backend := newBackend()

	a := lits.NewBoard()
	a.SetPlayer(lits.Point{X: 1, Y: 1}, lits.O)
	b := lits.NewBoard()
	piece, err := lits.ParseTetromino("I[50,51,52,53]")
	require.NoError(t, err)
	require.NoError(t, b.Place(piece))

	batch, err := EncodeBatch(ctx, []*lits.Board{a, b}, lits.X, backend)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2, Channels, BoardSize, BoardSize}, batch.Shape())
	assert.Equal(t, EncodeBoard(a, lits.X), batch.Data()[:InputSize])
	assert.Equal(t, EncodeBoard(b, lits.X), batch.Data()[InputSize:])

	_, err = EncodeBatch(ctx, nil, lits.X, backend)
	assert.Error(t, err)
	_, err = EncodeBatch(ctx, []*lits.Board{a, nil}, lits.X, backend)
	assert.Error(t, err)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = EncodeBatch(cancelled, []*lits.Board{a, b}, lits.X, backend)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEncodeBatchBuiltBoards(t *testing.T) {
	backend := newBackend()
	boards := make([]*lits.Board, 3)
	for i := range boards {
		boards[i] = lits.NewBoard()
		boards[i].SetPlayer(lits.Point{X: i, Y: 9 - i}, lits.X)
		boards[i].SetPlayer(lits.Point{X: 9, Y: i}, lits.O)
	}

	batch, err := EncodeBatch(context.Background(), boards, lits.O, backend)
	require.NoError(t, err)
	require.Equal(t, tensor.Shape{3, Channels, BoardSize, BoardSize}, batch.Shape())

	data := batch.Data()
	for i := range boards {
		x := data[i*InputSize : (i+1)*InputSize]
		assert.Equal(t, float32(-1), x[400+i*BoardSize+9-i], "board %d X tile", i)
		assert.Equal(t, float32(1), x[400+9*BoardSize+i], "board %d O tile", i)
		var sum float32
		for _, v := range x[:400] {
			sum += v
		}
		if sum != 0 {
			t.Errorf("board %d: colour planes sum to %v, want 0", i, sum)
		}
	}
}

// fixedPolicy evaluates every board to the same policy and value.
type fixedPolicy struct {
	policy []float32
	value  float32
}

func (f fixedPolicy) Evaluate(input *Tensor) (Output, error) {
	backend := input.Backend()
	p, err := tensor.FromSlice(f.policy, tensor.Shape{1, PolicySize}, backend)
	if err != nil {
		return Output{}, err
	}
	v, err := tensor.FromSlice([]float32{f.value}, tensor.Shape{1, 1}, backend)
	if err != nil {
		return Output{}, err
	}
	return Output{Policy: p, Value: v}, nil
}

func policyWith(scores map[int]float32) []float32 {
	p := make([]float32, PolicySize)
	for i, s := range scores {
		p[i] = s
	}
	return p
}

func TestPredictMasksIllegalMoves(t *testing.T) {
	backend := newBackend()
	policy := make([]float32, PolicySize)
	for i := range policy {
		policy[i] = 1
	}
	pred, err := NewPredictor(fixedPolicy{policy: policy, value: 0.25}, backend).Predict(lits.NewBoard(), lits.X)
	require.NoError(t, err)

	assert.Equal(t, float32(0.25), pred.Value)
	assert.Len(t, pred.Legal, 1292)
	assert.Equal(t, float32(0), pred.Policy[0]) // null move
	assert.Equal(t, float32(1), pred.Policy[1])

	b := lits.NewBoard()
	piece, err := lits.ParseTetromino("L[00,01,02,12]")
	require.NoError(t, err)
	require.NoError(t, b.Place(piece))
	pred, err = NewPredictor(fixedPolicy{policy: policy}, backend).Predict(b, lits.X)
	require.NoError(t, err)
	assert.Equal(t, float32(0), pred.Policy[piece.Index()])
	for _, idx := range pred.Legal {
		assert.Equal(t, float32(1), pred.Policy[idx])
	}
}

func TestBest(t *testing.T) {
	backend := newBackend()
	board := lits.NewBoard()

	tests := []struct {
		name   string
		scores map[int]float32
		want   int
	}{
		{"argmax", map[int]float32{3: 0.2, 700: 0.9, 900: 0.5}, 700},
		{"illegal null ignored", map[int]float32{0: 5, 10: 0.1}, 10},
		{"ties take lowest index", map[int]float32{20: 0.4, 8: 0.4, 30: 0.1}, 8},
		{"all zero takes first legal", nil, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPredictor(fixedPolicy{policy: policyWith(tt.scores)}, backend)
			got, err := p.Best(board, lits.X)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Index())
		})
	}
}

func TestTop(t *testing.T) {
	p := NewPredictor(fixedPolicy{policy: policyWith(map[int]float32{5: 0.3, 2: 0.3, 9: 0.8})}, newBackend())
	pred, err := p.Predict(lits.NewBoard(), lits.O)
	require.NoError(t, err)

	top := pred.Top(3)
	require.Len(t, top, 3)
	assert.Equal(t, []int{9, 2, 5}, []int{top[0].Index, top[1].Index, top[2].Index})
	assert.Equal(t, float32(0.8), top[0].Score)
	assert.Equal(t, 9, top[0].Move.Index())

	assert.Len(t, pred.Top(5000), 1292)
	assert.Empty(t, pred.Top(0))
}

func TestSample(t *testing.T) {
	backend := newBackend()
	board := lits.NewBoard()
	p := NewPredictor(fixedPolicy{policy: policyWith(map[int]float32{40: 0.5, 41: 0.5, 42: 0.9})}, backend)

	greedy, err := p.Sample(board, lits.X, SamplerConfig{Temperature: 0, Seed: 1})
	require.NoError(t, err)
	assert.Equal(t, 42, greedy.Index())

	first, err := p.Sample(board, lits.X, SamplerConfig{Temperature: 1, Seed: 7})
	require.NoError(t, err)
	for range 5 {
		again, err := p.Sample(board, lits.X, SamplerConfig{Temperature: 1, Seed: 7})
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}

	seen := map[int]bool{}
	for seed := range int64(200) {
		move, err := p.Sample(board, lits.X, SamplerConfig{Temperature: 1, Seed: seed})
		require.NoError(t, err)
		seen[move.Index()] = true
	}
	assert.Equal(t, map[int]bool{40: true, 41: true, 42: true}, seen)

	single := NewPredictor(fixedPolicy{policy: policyWith(map[int]float32{600: 1})}, backend)
	for seed := range int64(20) {
		move, err := single.Sample(board, lits.X, SamplerConfig{Temperature: 2, Seed: seed})
		require.NoError(t, err)
		assert.Equal(t, 600, move.Index())
	}

	_, err = p.Sample(board, lits.X, SamplerConfig{Temperature: -1})
	assert.Error(t, err)
}

func TestNoLegalMoves(t *testing.T) {
	board, err := lits.ParseBoard(strings.Repeat("_-", 100) + ",0000")
	require.NoError(t, err)

	p := NewPredictor(fixedPolicy{policy: make([]float32, PolicySize)}, newBackend())
	_, err = p.Predict(board, lits.X)
	assert.ErrorIs(t, err, ErrNoLegalMoves)
	_, err = p.Best(board, lits.X)
	assert.ErrorIs(t, err, ErrNoLegalMoves)
	_, err = p.Sample(board, lits.X, SamplerConfig{Temperature: 1, Seed: 1})
	assert.ErrorIs(t, err, ErrNoLegalMoves)
}

func TestPredictWithNetwork(t *testing.T) {
	backend := newBackend()
	m := New(backend, WithSeed(8)).Eval()
	pred, err := NewPredictor(m, backend).Predict(lits.NewBoard(), lits.X)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, pred.Value, float32(0))
	assert.Len(t, pred.Policy, PolicySize)
	best, err := pred.Best()
	require.NoError(t, err)
	assert.False(t, best.IsNull())
}
