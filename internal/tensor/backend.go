package tensor

// Backend defines the operations a compute backend must provide for
// inference. Implementations return fresh tensors and panic on invalid
// shapes; callers that need an error validate shapes first.
type Backend interface {
	// Element-wise
	Add(a, b *RawTensor) *RawTensor
	ReLU(x *RawTensor) *RawTensor

	// Matrix operations
	MatMul(a, b *RawTensor) *RawTensor

	// Convolution (NCHW input, [C_out, C_in, KH, KW] kernel)
	Conv2D(input, kernel *RawTensor, stride, padding int) *RawTensor

	// Shape operations
	Reshape(t *RawTensor, newShape Shape) *RawTensor
	Transpose(t *RawTensor, axes ...int) *RawTensor

	// Reduction
	Argmax(x *RawTensor, dim int) *RawTensor

	// Metadata
	Name() string
	Device() Device
}
