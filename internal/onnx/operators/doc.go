// Package operators maps ONNX nodes onto tensor backend operations.
//
// Only the operators a traced LITSNet graph produces are registered: Conv,
// Relu, Flatten and Gemm, plus Add and MatMul for graphs that split Gemm
// into its parts. Handlers check shapes and attributes and return errors
// instead of letting the backend panic.
package operators
