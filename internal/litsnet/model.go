package litsnet

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/born-ml/litsnet/internal/lits"
	"github.com/born-ml/litsnet/internal/nn"
	"github.com/born-ml/litsnet/internal/tensor"
)

// Version is recorded as the producer version of exported artifacts.
const Version = "0.3.0"

// ModelType identifies LITSNet artifacts.
const ModelType = "LITSNet"

// Network dimensions.
const (
	Channels   = 5
	BoardSize  = lits.BoardSize
	Features   = 25 * 8 * 8
	PolicySize = lits.MoveRange
	ValueSize  = 1
)

// ErrShapeMismatch is wrapped by every *ShapeError.
var ErrShapeMismatch = errors.New("litsnet: input shape mismatch")

// ShapeError reports an input the network cannot consume.
type ShapeError struct {
	Layer string       // layer that rejects the input
	Shape tensor.Shape // offending input shape
	Want  int          // expected size of the checked dimension
	Got   int          // actual size
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("litsnet: %s expected %d, got %d (input shape %v)", e.Layer, e.Want, e.Got, e.Shape)
}

func (e *ShapeError) Unwrap() error { return ErrShapeMismatch }

// Tensor is the float32 tensor type LITSNet runs on.
type Tensor = tensor.Tensor[float32, tensor.Backend]

// Output holds both heads of a forward pass.
type Output struct {
	Policy *Tensor // [batch, 1293]
	Value  *Tensor // [batch, 1]
}

// Option configures New.
type Option func(*options)

type options struct {
	rng *rand.Rand
}

// WithSeed initializes the parameters from a source seeded with seed.
func WithSeed(seed int64) Option {
	return func(o *options) {
		o.rng = rand.New(rand.NewSource(seed)) //nolint:gosec // deterministic initialization
	}
}

// WithRNG initializes the parameters from rng.
func WithRNG(rng *rand.Rand) Option {
	return func(o *options) {
		o.rng = rng
	}
}

// LITSNet is the policy/value network for The Battle of LITS.
//
// Layers are created in declaration order from a single random source, so
// two networks built with the same seed hold the same parameters.
type LITSNet struct {
	convol0 *nn.Conv2D[tensor.Backend]
	convol1 *nn.Conv2D[tensor.Backend]
	policy0 *nn.Linear[tensor.Backend]
	policy1 *nn.Linear[tensor.Backend]
	values0 *nn.Linear[tensor.Backend]
	values1 *nn.Linear[tensor.Backend]

	relu    *nn.ReLU[tensor.Backend]
	flatten *nn.Flatten[tensor.Backend]

	backend  tensor.Backend
	rng      *rand.Rand
	training bool
}

// New builds a LITSNet in training mode.
func New(backend tensor.Backend, opts ...Option) *LITSNet {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.rng == nil {
		o.rng = rand.New(rand.NewSource(time.Now().UnixNano())) //nolint:gosec // non-reproducible by request
	}
	initOpt := nn.WithRNG(o.rng)

	return &LITSNet{
		convol0:  nn.NewConv2D(Channels, 15, 2, 2, 1, 0, true, backend, initOpt),
		convol1:  nn.NewConv2D(15, 25, 2, 2, 1, 0, true, backend, initOpt),
		policy0:  nn.NewLinear(Features, Features, backend, initOpt),
		policy1:  nn.NewLinear(Features, PolicySize, backend, initOpt),
		values0:  nn.NewLinear(Features, 256, backend, initOpt),
		values1:  nn.NewLinear(256, ValueSize, backend, initOpt),
		relu:     nn.NewReLU[tensor.Backend](),
		flatten:  nn.NewFlatten[tensor.Backend](),
		backend:  backend,
		rng:      o.rng,
		training: true,
	}
}

// Backend returns the backend the parameters live on.
func (m *LITSNet) Backend() tensor.Backend {
	return m.backend
}

// Eval switches to evaluation mode and returns m.
func (m *LITSNet) Eval() *LITSNet {
	m.training = false
	return m
}

// Train switches to training mode and returns m.
func (m *LITSNet) Train() *LITSNet {
	m.training = true
	return m
}

// Training reports whether m is in training mode.
func (m *LITSNet) Training() bool {
	return m.training
}

// Forward runs the network on a [batch, 5, 10, 10] input.
//
// Panics on any other shape; a wrong board size surfaces in policy_0 as
// "Linear.Forward: expected input with 1600 features, got N".
func (m *LITSNet) Forward(input *Tensor) Output {
	return m.forward(input, nil)
}

// Evaluate is Forward with shape problems returned as *ShapeError.
func (m *LITSNet) Evaluate(input *Tensor) (Output, error) {
	if err := m.checkInput(input.Shape()); err != nil {
		return Output{}, err
	}
	return m.forward(input, nil), nil
}

func (m *LITSNet) checkInput(shape tensor.Shape) error {
	if len(shape) != 4 {
		return &ShapeError{Layer: "input rank", Shape: shape, Want: 4, Got: len(shape)}
	}
	if shape[0] < 1 {
		return &ShapeError{Layer: "batch", Shape: shape, Want: 1, Got: shape[0]}
	}
	if shape[1] != Channels {
		return &ShapeError{Layer: "convol_0 channels", Shape: shape, Want: Channels, Got: shape[1]}
	}

	h, w := shape[2], shape[3]
	for _, l := range m.layers()[:2] {
		conv := l.module.(*nn.Conv2D[tensor.Backend])
		k := conv.KernelSize()
		if h < k[0] || w < k[1] {
			return &ShapeError{Layer: l.name + " spatial", Shape: shape, Want: k[0], Got: min(h, w)}
		}
		out := conv.ComputeOutputSize(h, w)
		h, w = out[0], out[1]
	}
	if got := m.convol1.OutChannels() * h * w; got != Features {
		return &ShapeError{Layer: "policy_0 features", Shape: shape, Want: Features, Got: got}
	}
	return nil
}

// step is one traced value: a tensor and its name in the trace.
type step struct {
	t    *Tensor
	name string
}

type forwarder interface {
	Forward(input *Tensor) *Tensor
}

func (m *LITSNet) forward(input *Tensor, rec *recorder) Output {
	x := rec.input(input)
	x = rec.apply(opConv2D, "convol_0", m.convol0, x)
	x = rec.apply(opReLU, "", m.relu, x)
	x = rec.apply(opConv2D, "convol_1", m.convol1, x)
	x = rec.apply(opReLU, "", m.relu, x)
	x = rec.apply(opFlatten, "", m.flatten, x)

	p := rec.apply(opLinear, "policy_0", m.policy0, x)
	p = rec.apply(opReLU, "", m.relu, p)
	p = rec.apply(opLinear, "policy_1", m.policy1, p)
	p = rec.apply(opReLU, "", m.relu, p)

	v := rec.apply(opLinear, "values_0", m.values0, x)
	v = rec.apply(opReLU, "", m.relu, v)
	v = rec.apply(opLinear, "values_1", m.values1, v)
	v = rec.apply(opReLU, "", m.relu, v)

	rec.output(p, v)
	return Output{Policy: p.t, Value: v.t}
}

// namedLayer pairs a parameterized layer with its state-dict prefix.
type namedLayer struct {
	name   string
	module nn.Module[tensor.Backend]
}

func (m *LITSNet) layers() []namedLayer {
	return []namedLayer{
		{"convol_0", m.convol0},
		{"convol_1", m.convol1},
		{"policy_0", m.policy0},
		{"policy_1", m.policy1},
		{"values_0", m.values0},
		{"values_1", m.values1},
	}
}

// Parameters returns every parameter in layer order, weight before bias.
func (m *LITSNet) Parameters() []*nn.Parameter[tensor.Backend] {
	var params []*nn.Parameter[tensor.Backend]
	for _, l := range m.layers() {
		params = append(params, l.module.Parameters()...)
	}
	return params
}

// NumParameters counts scalar parameters (5,043,646).
func (m *LITSNet) NumParameters() int {
	n := 0
	for _, l := range m.layers() {
		n += nn.NumParameters(l.module)
	}
	return n
}

// StateDict returns all parameters keyed "<layer>.<param>", e.g. "policy_0.weight".
func (m *LITSNet) StateDict() map[string]*tensor.RawTensor {
	sd := make(map[string]*tensor.RawTensor, 12)
	for _, l := range m.layers() {
		for name, raw := range nn.PrefixStateDict(l.name, l.module.StateDict()) {
			sd[name] = raw
		}
	}
	return sd
}

// LoadStateDict copies parameters from stateDict. Missing or unexpected
// keys and shape mismatches are errors.
func (m *LITSNet) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	known := 0
	for _, l := range m.layers() {
		sub := nn.SubStateDict(l.name, stateDict)
		if err := l.module.LoadStateDict(sub); err != nil {
			return fmt.Errorf("%s: %w", l.name, err)
		}
		known += len(sub)
	}
	if known != len(stateDict) {
		var unexpected []string
		for name := range stateDict {
			layer, _, _ := strings.Cut(name, ".")
			if !m.hasLayer(layer) {
				unexpected = append(unexpected, name)
			}
		}
		return fmt.Errorf("unexpected keys in state dict: %v", unexpected)
	}
	return nil
}

func (m *LITSNet) hasLayer(name string) bool {
	for _, l := range m.layers() {
		if l.name == name {
			return true
		}
	}
	return false
}

// String renders the architecture. It depends only on layer
// hyperparameters, so artifacts record it to detect mismatches.
func (m *LITSNet) String() string {
	var sb strings.Builder
	sb.WriteString("LITSNet(\n")
	for _, l := range m.layers() {
		fmt.Fprintf(&sb, "  (%s): %v\n", l.name, l.module)
	}
	sb.WriteString(")")
	return sb.String()
}
