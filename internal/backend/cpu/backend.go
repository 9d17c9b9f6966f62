// Package cpu implements tensor.Backend in pure Go.
//
// Every operation allocates its result; inputs are never modified. Large
// elementwise kernels are split across goroutines with internal/parallel.
// Reductions always run sequentially so floating point sums are reproducible.
package cpu

import (
	"fmt"
	"math"

	"github.com/born-ml/graphgrad/internal/parallel"
	"github.com/born-ml/graphgrad/internal/tensor"
)

// CPUBackend implements tensor operations on the host.
type CPUBackend struct {
	device tensor.Device
	par    parallel.Config
}

// Option configures a CPUBackend.
type Option func(*CPUBackend)

// WithParallel overrides the parallel loop configuration.
func WithParallel(cfg parallel.Config) Option {
	return func(b *CPUBackend) {
		b.par = cfg
	}
}

// New creates a new CPU backend.
func New(opts ...Option) *CPUBackend {
	b := &CPUBackend{
		device: tensor.CPU,
		par:    parallel.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

var _ tensor.Backend = (*CPUBackend)(nil)

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return "CPU"
}

// Device returns the compute device.
func (cpu *CPUBackend) Device() tensor.Device {
	return cpu.device
}

// Add performs element-wise addition with NumPy-style broadcasting.
func (cpu *CPUBackend) Add(a, b *tensor.RawTensor) (*tensor.RawTensor, error) {
	return cpu.binary("add", opAdd, a, b)
}

// Sub performs element-wise subtraction with broadcasting.
func (cpu *CPUBackend) Sub(a, b *tensor.RawTensor) (*tensor.RawTensor, error) {
	return cpu.binary("sub", opSub, a, b)
}

// Mul performs element-wise multiplication with broadcasting.
func (cpu *CPUBackend) Mul(a, b *tensor.RawTensor) (*tensor.RawTensor, error) {
	return cpu.binary("mul", opMul, a, b)
}

// Div performs element-wise division with broadcasting.
// Integer division by zero is reported as an error.
func (cpu *CPUBackend) Div(a, b *tensor.RawTensor) (*tensor.RawTensor, error) {
	if !b.DType().IsFloat() {
		for _, v := range b.Float64s() {
			if v == 0 {
				return nil, fmt.Errorf("div: integer division by zero")
			}
		}
	}
	return cpu.binary("div", opDiv, a, b)
}

// Neg negates every element.
func (cpu *CPUBackend) Neg(x *tensor.RawTensor) (*tensor.RawTensor, error) {
	return cpu.mapElements("neg", x, false, func(v float64) float64 { return -v })
}

// Exp computes e^x element-wise.
func (cpu *CPUBackend) Exp(x *tensor.RawTensor) (*tensor.RawTensor, error) {
	return cpu.mapElements("exp", x, true, math.Exp)
}

// Log computes the natural logarithm element-wise.
func (cpu *CPUBackend) Log(x *tensor.RawTensor) (*tensor.RawTensor, error) {
	return cpu.mapElements("log", x, true, math.Log)
}

// AddScalar adds s to every element.
func (cpu *CPUBackend) AddScalar(x *tensor.RawTensor, s float64) (*tensor.RawTensor, error) {
	return cpu.mapElements("add_scalar", x, false, func(v float64) float64 { return v + s })
}

// MulScalar multiplies every element by s.
func (cpu *CPUBackend) MulScalar(x *tensor.RawTensor, s float64) (*tensor.RawTensor, error) {
	return cpu.mapElements("mul_scalar", x, false, func(v float64) float64 { return v * s })
}

// PowScalar raises every element to the power p.
func (cpu *CPUBackend) PowScalar(x *tensor.RawTensor, p float64) (*tensor.RawTensor, error) {
	return cpu.mapElements("pow_scalar", x, true, func(v float64) float64 { return math.Pow(v, p) })
}

// Reshape returns a view of x with a new shape.
func (cpu *CPUBackend) Reshape(x *tensor.RawTensor, shape tensor.Shape) (*tensor.RawTensor, error) {
	out, err := x.WithShape(shape)
	if err != nil {
		return nil, fmt.Errorf("reshape: %w", err)
	}
	return out, nil
}

// Zeros allocates a zero-filled tensor on this backend's device.
func (cpu *CPUBackend) Zeros(shape tensor.Shape, dtype tensor.DataType) (*tensor.RawTensor, error) {
	return tensor.Zeros(shape, dtype, cpu.device)
}

// Ones allocates a one-filled tensor on this backend's device.
func (cpu *CPUBackend) Ones(shape tensor.Shape, dtype tensor.DataType) (*tensor.RawTensor, error) {
	return tensor.Ones(shape, dtype, cpu.device)
}

// HasNaN reports whether a floating point tensor contains NaN.
func (cpu *CPUBackend) HasNaN(x *tensor.RawTensor) bool {
	switch x.DType() {
	case tensor.Float32:
		for _, v := range x.AsFloat32() {
			if v != v {
				return true
			}
		}
	case tensor.Float64:
		for _, v := range x.AsFloat64() {
			if math.IsNaN(v) {
				return true
			}
		}
	}
	return false
}
