package tensor

import "fmt"

// Add performs element-wise addition with broadcasting.
//
//	a := tensor.Zeros[float32](Shape{3, 1}, backend)
//	b := tensor.Zeros[float32](Shape{3, 5}, backend)
//	c := a.Add(b) // Shape: [3, 5]
func (t *Tensor[T, B]) Add(other *Tensor[T, B]) *Tensor[T, B] {
	return New[T, B](t.backend.Add(t.raw, other.raw), t.backend)
}

// ReLU applies max(0, x) element-wise.
func (t *Tensor[T, B]) ReLU() *Tensor[T, B] {
	return New[T, B](t.backend.ReLU(t.raw), t.backend)
}

// MatMul performs 2-D matrix multiplication: (M, K) @ (K, N) → (M, N).
func (t *Tensor[T, B]) MatMul(other *Tensor[T, B]) *Tensor[T, B] {
	return New[T, B](t.backend.MatMul(t.raw, other.raw), t.backend)
}

// Reshape returns a tensor with the same data but different shape.
// The new shape must have the same number of elements.
func (t *Tensor[T, B]) Reshape(newShape ...int) *Tensor[T, B] {
	return New[T, B](t.backend.Reshape(t.raw, Shape(newShape)), t.backend)
}

// Transpose permutes the tensor's dimensions.
// With no axes, all dimensions are reversed.
func (t *Tensor[T, B]) Transpose(axes ...int) *Tensor[T, B] {
	return New[T, B](t.backend.Transpose(t.raw, axes...), t.backend)
}

// T is a shortcut for 2D transpose.
// Panics if the tensor is not 2D.
func (t *Tensor[T, B]) T() *Tensor[T, B] {
	if len(t.Shape()) != 2 {
		panic("T() only works for 2D tensors")
	}
	return t.Transpose(1, 0)
}

// Flatten collapses dimensions startDim..end into one.
//
//	x := tensor.Zeros[float32](Shape{2, 25, 8, 8}, backend)
//	y := x.Flatten(1) // Shape: [2, 1600]
func (t *Tensor[T, B]) Flatten(startDim int) *Tensor[T, B] {
	shape := t.Shape()
	if startDim < 0 {
		startDim += len(shape)
	}
	if startDim < 0 || startDim >= len(shape) {
		panic(fmt.Sprintf("Flatten: start dim %d out of range for shape %v", startDim, shape))
	}

	newShape := make([]int, 0, startDim+1)
	newShape = append(newShape, shape[:startDim]...)
	newShape = append(newShape, Shape(shape[startDim:]).NumElements())
	return t.Reshape(newShape...)
}

// Argmax returns the int32 indices of the maximum values along dim.
// Ties resolve to the lowest index.
func (t *Tensor[T, B]) Argmax(dim int) *Tensor[int32, B] {
	return New[int32, B](t.backend.Argmax(t.raw, dim), t.backend)
}
