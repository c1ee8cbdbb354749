package nn

import (
	"fmt"

	"github.com/born-ml/litsnet/internal/serialization"
	"github.com/born-ml/litsnet/internal/tensor"
)

// Save writes the module's state dict to a .born file. header.Tensors is
// filled in by the writer; the remaining fields are written as given.
func Save[B tensor.Backend](m Module[B], path string, header serialization.Header) error {
	if err := serialization.WriteFile(path, m.StateDict(), header); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}

// Load reads a .born file into m and returns its header.
// Extra tensors in the file are ignored; missing ones are an error.
func Load[B tensor.Backend](path string, m Module[B]) (serialization.Header, error) {
	r, err := serialization.Open(path)
	if err != nil {
		return serialization.Header{}, err
	}
	defer func() { _ = r.Close() }()

	stateDict, err := r.ReadStateDict()
	if err != nil {
		return serialization.Header{}, fmt.Errorf("failed to read state dict: %w", err)
	}
	if err := m.LoadStateDict(stateDict); err != nil {
		return serialization.Header{}, fmt.Errorf("failed to load state dict: %w", err)
	}
	return r.Header(), nil
}
