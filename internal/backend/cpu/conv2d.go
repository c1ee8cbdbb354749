package cpu

import (
	"fmt"

	"github.com/born-ml/litsnet/internal/parallel"
	"github.com/born-ml/litsnet/internal/tensor"
)

// Conv2D performs 2D convolution using the im2col algorithm.
//
// Input shape: [N, C_in, H, W]
// Kernel shape: [C_out, C_in, K_h, K_w]
// Output shape: [N, C_out, H_out, W_out]
//
// with H_out = (H + 2*padding - K_h)/stride + 1 (same for W).
//
// Algorithm:
//  1. Im2col: [N, C, H, W] -> [N*H_out*W_out, C*K_h*K_w]
//  2. The kernel is already [C_out, C*K_h*K_w] in row-major order
//  3. Dot every kernel row with every column row, writing straight into NCHW
//
// Output channels are computed in parallel.
func (cpu *CPUBackend) Conv2D(input, kernel *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	inputShape := input.Shape()
	kernelShape := kernel.Shape()

	if len(inputShape) != 4 {
		panic(fmt.Sprintf("conv2d: input must be 4D [N,C,H,W], got %dD", len(inputShape)))
	}
	if len(kernelShape) != 4 {
		panic(fmt.Sprintf("conv2d: kernel must be 4D [C_out,C_in,K_h,K_w], got %dD", len(kernelShape)))
	}
	if stride <= 0 || padding < 0 {
		panic(fmt.Sprintf("conv2d: invalid stride %d or padding %d", stride, padding))
	}
	if input.DType() != kernel.DType() {
		panic(fmt.Sprintf("conv2d: dtype mismatch %s vs %s", input.DType(), kernel.DType()))
	}

	g := convGeometry{
		N: inputShape[0], CIn: inputShape[1], H: inputShape[2], W: inputShape[3],
		COut: kernelShape[0], KH: kernelShape[2], KW: kernelShape[3],
		Stride: stride, Padding: padding,
	}
	if g.CIn != kernelShape[1] {
		panic(fmt.Sprintf("conv2d: input channels %d != kernel channels %d", g.CIn, kernelShape[1]))
	}

	g.HOut = (g.H+2*padding-g.KH)/stride + 1
	g.WOut = (g.W+2*padding-g.KW)/stride + 1
	if g.HOut <= 0 || g.WOut <= 0 {
		panic(fmt.Sprintf("conv2d: invalid output dimensions: out_h=%d, out_w=%d (check stride/padding)", g.HOut, g.WOut))
	}

	output, err := tensor.NewRaw(tensor.Shape{g.N, g.COut, g.HOut, g.WOut}, input.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("conv2d: failed to create output tensor: %v", err))
	}

	cfg := cpu.blocks()
	switch input.DType() {
	case tensor.Float32:
		conv2dTyped(output.AsFloat32(), input.AsFloat32(), kernel.AsFloat32(), g, cfg)
	case tensor.Float64:
		conv2dTyped(output.AsFloat64(), input.AsFloat64(), kernel.AsFloat64(), g, cfg)
	default:
		panic(fmt.Sprintf("conv2d: unsupported dtype %s", input.DType()))
	}

	return output
}

type convGeometry struct {
	N, CIn, H, W    int
	COut, KH, KW    int
	HOut, WOut      int
	Stride, Padding int
}

func conv2dTyped[T float32 | float64](out, in, kernel []T, g convGeometry, cfg parallel.Config) {
	colWidth := g.CIn * g.KH * g.KW
	plane := g.HOut * g.WOut
	colHeight := g.N * plane

	cols := make([]T, colHeight*colWidth)
	im2col(cols, in, g)

	parallel.ForBatch(g.N, g.COut, func(n, c int) {
		w := kernel[c*colWidth : (c+1)*colWidth]
		dst := out[(n*g.COut+c)*plane : (n*g.COut+c+1)*plane]
		for p := range dst {
			j := n*plane + p
			patch := cols[j*colWidth : (j+1)*colWidth]
			var sum T
			for k, v := range patch {
				sum += w[k] * v
			}
			dst[p] = sum
		}
	}, cfg)
}

// im2col lays out every receptive field as one row of cols.
// Positions that fall into the padding are left at zero.
func im2col[T float32 | float64](cols, in []T, g convGeometry) {
	colWidth := g.CIn * g.KH * g.KW
	row := 0

	for n := 0; n < g.N; n++ {
		for oh := 0; oh < g.HOut; oh++ {
			for ow := 0; ow < g.WOut; ow++ {
				hStart := oh*g.Stride - g.Padding
				wStart := ow*g.Stride - g.Padding
				dst := cols[row*colWidth : (row+1)*colWidth]
				i := 0

				for c := 0; c < g.CIn; c++ {
					for kh := 0; kh < g.KH; kh++ {
						h := hStart + kh
						for kw := 0; kw < g.KW; kw++ {
							w := wStart + kw
							if h >= 0 && h < g.H && w >= 0 && w < g.W {
								dst[i] = in[((n*g.CIn+c)*g.H+h)*g.W+w]
							}
							i++
						}
					}
				}
				row++
			}
		}
	}
}
