package cpu

import (
	"fmt"

	"golang.org/x/exp/constraints"

	"github.com/born-ml/graphgrad/internal/parallel"
	"github.com/born-ml/graphgrad/internal/tensor"
)

type number interface {
	constraints.Integer | constraints.Float
}

type binaryOp int

const (
	opAdd binaryOp = iota
	opSub
	opMul
	opDiv
)

func binaryFunc[T number](op binaryOp) func(a, b T) T {
	switch op {
	case opAdd:
		return func(a, b T) T { return a + b }
	case opSub:
		return func(a, b T) T { return a - b }
	case opMul:
		return func(a, b T) T { return a * b }
	default:
		return func(a, b T) T { return a / b }
	}
}

func (cpu *CPUBackend) binary(name string, op binaryOp, a, b *tensor.RawTensor) (*tensor.RawTensor, error) {
	if a.DType() != b.DType() {
		return nil, fmt.Errorf("%s: dtype mismatch %s vs %s", name, a.DType(), b.DType())
	}
	outShape, broadcast, err := tensor.BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	result, err := tensor.NewRaw(outShape, a.DType(), cpu.device)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create result tensor: %w", name, err)
	}

	switch a.DType() {
	case tensor.Float32:
		binaryKernel(cpu.par, result.AsFloat32(), a.AsFloat32(), b.AsFloat32(),
			a.Shape(), b.Shape(), outShape, broadcast, binaryFunc[float32](op))
	case tensor.Float64:
		binaryKernel(cpu.par, result.AsFloat64(), a.AsFloat64(), b.AsFloat64(),
			a.Shape(), b.Shape(), outShape, broadcast, binaryFunc[float64](op))
	case tensor.Int32:
		binaryKernel(cpu.par, result.AsInt32(), a.AsInt32(), b.AsInt32(),
			a.Shape(), b.Shape(), outShape, broadcast, binaryFunc[int32](op))
	case tensor.Int64:
		binaryKernel(cpu.par, result.AsInt64(), a.AsInt64(), b.AsInt64(),
			a.Shape(), b.Shape(), outShape, broadcast, binaryFunc[int64](op))
	default:
		return nil, fmt.Errorf("%s: unsupported dtype %s", name, a.DType())
	}
	return result, nil
}

func binaryKernel[T number](cfg parallel.Config, dst, a, b []T, aShape, bShape, outShape tensor.Shape, broadcast bool, f func(x, y T) T) {
	if !broadcast {
		parallel.For(len(dst), cfg, func(start, end int) {
			for i := start; i < end; i++ {
				dst[i] = f(a[i], b[i])
			}
		})
		return
	}

	outStrides := outShape.ComputeStrides()
	aStrides := aShape.BroadcastStrides(outShape)
	bStrides := bShape.BroadcastStrides(outShape)
	parallel.For(len(dst), cfg, func(start, end int) {
		for i := start; i < end; i++ {
			dst[i] = f(a[sourceIndex(i, outStrides, aStrides)], b[sourceIndex(i, outStrides, bStrides)])
		}
	})
}

// sourceIndex maps flat index i of the output onto a broadcast source.
func sourceIndex(i int, outStrides, srcStrides []int) int {
	idx := 0
	for d, stride := range outStrides {
		coord := i / stride
		i %= stride
		idx += coord * srcStrides[d]
	}
	return idx
}

// mapElements applies f to every element. Integer inputs are rejected when
// floatOnly is set.
func (cpu *CPUBackend) mapElements(name string, x *tensor.RawTensor, floatOnly bool, f func(float64) float64) (*tensor.RawTensor, error) {
	if floatOnly && !x.DType().IsFloat() {
		return nil, fmt.Errorf("%s: requires a floating point tensor, got %s", name, x.DType())
	}
	result, err := tensor.NewRaw(x.Shape(), x.DType(), cpu.device)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create result tensor: %w", name, err)
	}

	switch x.DType() {
	case tensor.Float32:
		mapKernel(cpu.par, result.AsFloat32(), x.AsFloat32(), f)
	case tensor.Float64:
		mapKernel(cpu.par, result.AsFloat64(), x.AsFloat64(), f)
	case tensor.Int32:
		mapKernel(cpu.par, result.AsInt32(), x.AsInt32(), f)
	case tensor.Int64:
		mapKernel(cpu.par, result.AsInt64(), x.AsInt64(), f)
	default:
		return nil, fmt.Errorf("%s: unsupported dtype %s", name, x.DType())
	}
	return result, nil
}

func mapKernel[T number](cfg parallel.Config, dst, src []T, f func(float64) float64) {
	parallel.For(len(dst), cfg, func(start, end int) {
		for i := start; i < end; i++ {
			dst[i] = T(f(float64(src[i])))
		}
	})
}
