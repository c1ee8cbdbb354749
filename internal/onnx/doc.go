// Package onnx reads, writes, and runs ONNX models.
//
// The codec is hand-written on top of protowire and covers the subset of
// the ONNX schema that LITSNet needs: a graph of Conv, Relu, Flatten, Gemm
// (plus Add and MatMul) nodes with float32 initializers. Both packed and
// unpacked encodings of repeated scalars are accepted on input; Marshal
// always writes fields in schema order, so the same model gives the same
// bytes.
//
// Example usage:
//
//	model, err := onnx.Load("template.onnx", cpu.New())
//	if err != nil {
//	    return err
//	}
//	outputs, err := model.ForwardNamed(map[string]*tensor.RawTensor{"input": x})
//	policy, value := outputs["policy"], outputs["value"]
package onnx
