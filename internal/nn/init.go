package nn

import (
	"math"
	"math/rand"
	"time"

	"github.com/born-ml/litsnet/internal/tensor"
)

// Option configures layer construction.
type Option func(*layerOptions)

type layerOptions struct {
	rng *rand.Rand
}

// WithRNG draws initial parameter values from rng. Layers built in the same
// order from identically seeded sources have identical parameters.
func WithRNG(rng *rand.Rand) Option {
	return func(o *layerOptions) {
		o.rng = rng
	}
}

func buildOptions(opts []Option) layerOptions {
	var o layerOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.rng == nil {
		//nolint:gosec // G404: weight initialization is not security sensitive
		o.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return o
}

// KaimingUniform is the default weight initialization for Linear and Conv2D:
// U(-b, b) with b = gain*sqrt(3/fan_in) and gain = sqrt(2/(1+a²)), a = √5,
// which reduces to b = 1/sqrt(fan_in).
func KaimingUniform[B tensor.Backend](fanIn int, shape tensor.Shape, rng *rand.Rand, backend B) *tensor.Tensor[float32, B] {
	a := math.Sqrt(5)
	gain := math.Sqrt(2.0 / (1 + a*a))
	bound := gain * math.Sqrt(3.0/float64(fanIn))
	return tensor.Uniform[float32](shape, -bound, bound, rng, backend)
}

// BiasUniform is the default bias initialization: U(-1/sqrt(fan_in), 1/sqrt(fan_in)).
func BiasUniform[B tensor.Backend](fanIn int, shape tensor.Shape, rng *rand.Rand, backend B) *tensor.Tensor[float32, B] {
	bound := 1 / math.Sqrt(float64(fanIn))
	return tensor.Uniform[float32](shape, -bound, bound, rng, backend)
}
