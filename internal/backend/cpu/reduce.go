package cpu

import (
	"fmt"

	"github.com/born-ml/graphgrad/internal/parallel"
	"github.com/born-ml/graphgrad/internal/tensor"
)

// Sum adds every element of x into a 0-d tensor, in index order.
func (cpu *CPUBackend) Sum(x *tensor.RawTensor) (*tensor.RawTensor, error) {
	result, err := tensor.NewRaw(tensor.Shape{}, x.DType(), cpu.device)
	if err != nil {
		return nil, fmt.Errorf("sum: %w", err)
	}
	switch x.DType() {
	case tensor.Float32:
		result.AsFloat32()[0] = sumKernel(x.AsFloat32())
	case tensor.Float64:
		result.AsFloat64()[0] = sumKernel(x.AsFloat64())
	case tensor.Int32:
		result.AsInt32()[0] = sumKernel(x.AsInt32())
	case tensor.Int64:
		result.AsInt64()[0] = sumKernel(x.AsInt64())
	default:
		return nil, fmt.Errorf("sum: unsupported dtype %s", x.DType())
	}
	return result, nil
}

func sumKernel[T number](src []T) T {
	var acc T
	for _, v := range src {
		acc += v
	}
	return acc
}

// SumTo reduces x to shape by summing over the broadcast dimensions.
// shape must broadcast to x's shape.
//
//	x: (3, 4), shape: (3, 1) -> sum along dim 1
//	x: (2, 3), shape: (3)    -> sum along dim 0
func (cpu *CPUBackend) SumTo(x *tensor.RawTensor, shape tensor.Shape) (*tensor.RawTensor, error) {
	if !shape.CanBroadcastTo(x.Shape()) {
		return nil, fmt.Errorf("sum_to: %v does not broadcast to %v", shape, x.Shape())
	}
	if shape.Equal(x.Shape()) {
		return x.Clone(), nil
	}

	result, err := tensor.NewRaw(shape, x.DType(), cpu.device)
	if err != nil {
		return nil, fmt.Errorf("sum_to: %w", err)
	}
	srcStrides := x.Shape().ComputeStrides()
	dstStrides := shape.BroadcastStrides(x.Shape())

	switch x.DType() {
	case tensor.Float32:
		sumToKernel(result.AsFloat32(), x.AsFloat32(), srcStrides, dstStrides)
	case tensor.Float64:
		sumToKernel(result.AsFloat64(), x.AsFloat64(), srcStrides, dstStrides)
	case tensor.Int32:
		sumToKernel(result.AsInt32(), x.AsInt32(), srcStrides, dstStrides)
	case tensor.Int64:
		sumToKernel(result.AsInt64(), x.AsInt64(), srcStrides, dstStrides)
	default:
		return nil, fmt.Errorf("sum_to: unsupported dtype %s", x.DType())
	}
	return result, nil
}

func sumToKernel[T number](dst, src []T, srcStrides, dstStrides []int) {
	for i, v := range src {
		dst[sourceIndex(i, srcStrides, dstStrides)] += v
	}
}

// BroadcastTo expands x to shape. x's shape must broadcast to shape.
func (cpu *CPUBackend) BroadcastTo(x *tensor.RawTensor, shape tensor.Shape) (*tensor.RawTensor, error) {
	if !x.Shape().CanBroadcastTo(shape) {
		return nil, fmt.Errorf("broadcast_to: %v does not broadcast to %v", x.Shape(), shape)
	}
	if shape.Equal(x.Shape()) {
		return x.Clone(), nil
	}

	result, err := tensor.NewRaw(shape, x.DType(), cpu.device)
	if err != nil {
		return nil, fmt.Errorf("broadcast_to: %w", err)
	}
	outStrides := shape.ComputeStrides()
	srcStrides := x.Shape().BroadcastStrides(shape)

	switch x.DType() {
	case tensor.Float32:
		broadcastKernel(cpu.par, result.AsFloat32(), x.AsFloat32(), outStrides, srcStrides)
	case tensor.Float64:
		broadcastKernel(cpu.par, result.AsFloat64(), x.AsFloat64(), outStrides, srcStrides)
	case tensor.Int32:
		broadcastKernel(cpu.par, result.AsInt32(), x.AsInt32(), outStrides, srcStrides)
	case tensor.Int64:
		broadcastKernel(cpu.par, result.AsInt64(), x.AsInt64(), outStrides, srcStrides)
	default:
		return nil, fmt.Errorf("broadcast_to: unsupported dtype %s", x.DType())
	}
	return result, nil
}

func broadcastKernel[T number](cfg parallel.Config, dst, src []T, outStrides, srcStrides []int) {
	parallel.For(len(dst), cfg, func(start, end int) {
		for i := start; i < end; i++ {
			dst[i] = src[sourceIndex(i, outStrides, srcStrides)]
		}
	})
}
