package litsnet

import (
	"errors"
	"fmt"
	"slices"

	"github.com/born-ml/litsnet/internal/nn"
	"github.com/born-ml/litsnet/internal/tensor"
)

// Traced operation kinds.
const (
	opConv2D  = "conv2d"
	opReLU    = "relu"
	opFlatten = "flatten"
	opLinear  = "linear"
)

// ErrNotEval is returned when tracing a model in training mode.
var ErrNotEval = errors.New("litsnet: model must be in eval mode to trace")

// Trace is the recorded computation of one forward pass. It carries no
// parameter values, only the graph: which operation ran on which value,
// with which hyperparameters, producing which shape.
type Trace struct {
	Input      string    `json:"input"`
	InputShape []int     `json:"input_shape"`
	Outputs    []string  `json:"outputs"` // policy, value
	Ops        []TraceOp `json:"ops"`
}

// TraceOp is one executed operation.
type TraceOp struct {
	Op     string         `json:"op"`
	Layer  string         `json:"layer,omitempty"` // state-dict prefix of parameterized ops
	Input  string         `json:"input"`
	Output string         `json:"output"`
	Shape  []int          `json:"shape"` // output shape
	Attrs  map[string]int `json:"attrs,omitempty"`
}

// Params returns the state-dict keys the op reads.
func (op TraceOp) Params() []string {
	if op.Layer == "" {
		return nil
	}
	return []string{op.Layer + ".weight", op.Layer + ".bias"}
}

// Equal reports whether two traces describe the same graph. The batch
// dimension of the recorded shapes is ignored.
func (t *Trace) Equal(other *Trace) bool {
	if t == nil || other == nil {
		return t == other
	}
	if t.Input != other.Input || !slices.Equal(t.Outputs, other.Outputs) ||
		!sameIgnoringBatch(t.InputShape, other.InputShape) || len(t.Ops) != len(other.Ops) {
		return false
	}
	for i := range t.Ops {
		a, b := &t.Ops[i], &other.Ops[i]
		if a.Op != b.Op || a.Layer != b.Layer || a.Input != b.Input || a.Output != b.Output ||
			!sameIgnoringBatch(a.Shape, b.Shape) || len(a.Attrs) != len(b.Attrs) {
			return false
		}
		for k, v := range a.Attrs {
			if w, ok := b.Attrs[k]; !ok || w != v {
				return false
			}
		}
	}
	return true
}

func sameIgnoringBatch(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	return len(a) == 0 || slices.Equal(a[1:], b[1:])
}

// Trace runs example through the network and records every operation.
func (m *LITSNet) Trace(example *Tensor) (*Trace, error) {
	if m.training {
		return nil, ErrNotEval
	}
	if err := m.checkInput(example.Shape()); err != nil {
		return nil, err
	}
	rec := &recorder{}
	m.forward(example, rec)
	return &rec.trace, nil
}

// recorder builds a Trace during forward. A nil recorder only runs the ops.
type recorder struct {
	trace Trace
	next  int
}

func (r *recorder) input(t *Tensor) step {
	if r == nil {
		return step{t: t}
	}
	r.trace.Input = "input"
	r.trace.InputShape = shapeOf(t)
	return step{t: t, name: r.trace.Input}
}

func (r *recorder) apply(op, layer string, f forwarder, x step) step {
	out := f.Forward(x.t)
	if r == nil {
		return step{t: out}
	}

	name := fmt.Sprintf("%s_%d", op, r.next)
	r.next++
	r.trace.Ops = append(r.trace.Ops, TraceOp{
		Op:     op,
		Layer:  layer,
		Input:  x.name,
		Output: name,
		Shape:  shapeOf(out),
		Attrs:  attrsOf(f),
	})
	return step{t: out, name: name}
}

func (r *recorder) output(steps ...step) {
	if r == nil {
		return
	}
	for _, s := range steps {
		r.trace.Outputs = append(r.trace.Outputs, s.name)
	}
}

func shapeOf(t *Tensor) []int {
	return slices.Clone([]int(t.Shape()))
}

func attrsOf(f forwarder) map[string]int {
	switch l := f.(type) {
	case *nn.Conv2D[tensor.Backend]:
		k := l.KernelSize()
		return map[string]int{
			"in_channels":  l.InChannels(),
			"out_channels": l.OutChannels(),
			"kernel_h":     k[0],
			"kernel_w":     k[1],
			"stride":       l.Stride(),
			"padding":      l.Padding(),
		}
	case *nn.Linear[tensor.Backend]:
		return map[string]int{
			"in_features":  l.InFeatures(),
			"out_features": l.OutFeatures(),
		}
	case *nn.Flatten[tensor.Backend]:
		return map[string]int{"start_dim": l.StartDim}
	default:
		return nil
	}
}
