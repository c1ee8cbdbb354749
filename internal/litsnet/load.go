package litsnet

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/born-ml/litsnet/internal/serialization"
	"github.com/born-ml/litsnet/internal/tensor"
)

// Errors returned by Load.
var (
	ErrNotLITSNet           = errors.New("litsnet: artifact is not a LITSNet model")
	ErrArchitectureMismatch = errors.New("litsnet: architecture mismatch")
	ErrTraceMismatch        = errors.New("litsnet: trace mismatch")
)

// Load reads a .born artifact written by Export. The stored architecture
// and trace must match this build of the network. The model is returned in
// eval mode together with the stored trace.
func Load(path string, backend tensor.Backend) (*LITSNet, *Trace, error) {
	r, err := serialization.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = r.Close() }()

	header := r.Header()
	if header.ModelType != ModelType {
		return nil, nil, fmt.Errorf("%w: model type %q", ErrNotLITSNet, header.ModelType)
	}

	m := New(backend, WithSeed(0)).Eval()
	meta := r.Metadata()
	if got := meta[MetaArchitecture]; got != m.String() {
		return nil, nil, fmt.Errorf("%w:\n%s", ErrArchitectureMismatch, got)
	}

	var stored Trace
	if err := json.Unmarshal([]byte(meta[MetaTrace]), &stored); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrTraceMismatch, err)
	}
	want, err := m.Trace(tensor.Zeros[float32](ExampleShape, backend))
	if err != nil {
		return nil, nil, err
	}
	if !want.Equal(&stored) {
		return nil, nil, ErrTraceMismatch
	}

	stateDict, err := r.ReadStateDict()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read state dict: %w", err)
	}
	if err := m.LoadStateDict(stateDict); err != nil {
		return nil, nil, fmt.Errorf("failed to load state dict: %w", err)
	}
	return m, &stored, nil
}
