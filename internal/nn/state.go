package nn

import (
	"fmt"
	"strings"

	"github.com/born-ml/litsnet/internal/tensor"
)

// loadParameter copies stateDict[p.Name()] into p after checking shape and dtype.
func loadParameter[B tensor.Backend](p *Parameter[B], stateDict map[string]*tensor.RawTensor) error {
	raw, ok := stateDict[p.Name()]
	if !ok {
		return fmt.Errorf("missing %s in state dict", p.Name())
	}

	want := p.Tensor().Shape()
	if !raw.Shape().Equal(want) {
		return fmt.Errorf("%s shape mismatch: expected %v, got %v", p.Name(), want, raw.Shape())
	}
	if raw.DType() != tensor.Float32 {
		return fmt.Errorf("%s dtype mismatch: expected float32, got %v", p.Name(), raw.DType())
	}

	copy(p.Tensor().Data(), raw.AsFloat32())
	return nil
}

// PrefixStateDict namespaces a child module's state dict, e.g. "weight" -> "policy_0.weight".
func PrefixStateDict(prefix string, stateDict map[string]*tensor.RawTensor) map[string]*tensor.RawTensor {
	out := make(map[string]*tensor.RawTensor, len(stateDict))
	for name, raw := range stateDict {
		out[prefix+"."+name] = raw
	}
	return out
}

// SubStateDict extracts the entries under prefix with the prefix removed.
func SubStateDict(prefix string, stateDict map[string]*tensor.RawTensor) map[string]*tensor.RawTensor {
	out := make(map[string]*tensor.RawTensor)
	for name, raw := range stateDict {
		if rest, ok := strings.CutPrefix(name, prefix+"."); ok {
			out[rest] = raw
		}
	}
	return out
}
