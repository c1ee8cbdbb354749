package tensor

import "math/rand"

// Zeros creates a tensor filled with zeros.
func Zeros[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	raw, err := NewRaw(shape, inferDataType[T](), b.Device())
	if err != nil {
		panic(err)
	}
	return New[T, B](raw, b)
}

// Full creates a tensor filled with a specific value.
func Full[T DType, B Backend](shape Shape, value T, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	data := t.Data()
	for i := range data {
		data[i] = value
	}
	return t
}

// Uniform creates a float tensor with values drawn uniformly from [low, high)
// using rng. The same rng state always yields the same tensor.
func Uniform[T DType, B Backend](shape Shape, low, high float64, rng *rand.Rand, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	span := high - low

	switch data := any(t.Data()).(type) {
	case []float32:
		for i := range data {
			data[i] = float32(low + span*rng.Float64())
		}
	case []float64:
		for i := range data {
			data[i] = low + span*rng.Float64()
		}
	default:
		panic("Uniform only supports float32 and float64 types")
	}
	return t
}
