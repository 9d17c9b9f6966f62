package cpu_test

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/graphgrad/internal/backend/cpu"
	"github.com/born-ml/graphgrad/internal/parallel"
	"github.com/born-ml/graphgrad/internal/tensor"
)

func f64(t *testing.T, data []float64, shape ...int) *tensor.RawTensor {
	t.Helper()
	x, err := tensor.FromFloat64s(data, tensor.Shape(shape))
	require.NoError(t, err)
	return x
}

func TestCPUBackend_Binary(t *testing.T) {
	b := cpu.New()
	a := f64(t, []float64{1, 2, 3, 4}, 2, 2)
	c := f64(t, []float64{5, 6, 7, 8}, 2, 2)

	tests := []struct {
		name string
		op   func(x, y *tensor.RawTensor) (*tensor.RawTensor, error)
		want []float64
	}{
		{"add", b.Add, []float64{6, 8, 10, 12}},
		{"sub", b.Sub, []float64{-4, -4, -4, -4}},
		{"mul", b.Mul, []float64{5, 12, 21, 32}},
		{"div", b.Div, []float64{0.2, 2.0 / 6, 3.0 / 7, 0.5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.op(a, c)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got.AsFloat64(), cmpopts.EquateApprox(0, 1e-12)); diff != "" {
				t.Errorf("%s mismatch (-want +got):\n%s", tt.name, diff)
			}
		})
	}
}

func TestCPUBackend_Broadcast(t *testing.T) {
	b := cpu.New()
	a := f64(t, []float64{1, 2, 3}, 3, 1)
	c := f64(t, []float64{10, 20}, 2)

	got, err := b.Add(a, c)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{3, 2}, got.Shape())
	assert.Equal(t, []float64{11, 21, 12, 22, 13, 23}, got.AsFloat64())
}

func TestCPUBackend_BroadcastParallelMatchesSequential(t *testing.T) {
	n := 64 * 64
	data := make([]float64, n)
	for i := range data {
		data[i] = float64(i)
	}
	x := f64(t, data, 64, 64)
	row := f64(t, data[:64], 1, 64)

	seq, err := cpu.New(cpu.WithParallel(parallel.Sequential())).Mul(x, row)
	require.NoError(t, err)
	par, err := cpu.New(cpu.WithParallel(parallel.Config{Enabled: true, NumWorkers: 4, MinChunkSize: 16})).Mul(x, row)
	require.NoError(t, err)

	assert.Equal(t, seq.AsFloat64(), par.AsFloat64())
}

func TestCPUBackend_Errors(t *testing.T) {
	b := cpu.New()
	a := f64(t, []float64{1, 2, 3}, 3)
	c := f64(t, []float64{1, 2}, 2)

	_, err := b.Add(a, c)
	assert.Error(t, err, "incompatible shapes")

	i, err := tensor.FromInt32s([]int32{1, 2}, tensor.Shape{2})
	require.NoError(t, err)
	_, err = b.Add(c, i)
	assert.Error(t, err, "dtype mismatch")

	_, err = b.Exp(i)
	assert.Error(t, err, "exp of int tensor")

	zero, err := tensor.FromInt32s([]int32{0, 1}, tensor.Shape{2})
	require.NoError(t, err)
	_, err = b.Div(i, zero)
	assert.Error(t, err, "integer division by zero")
}

func TestCPUBackend_Unary(t *testing.T) {
	b := cpu.New()
	x := f64(t, []float64{0, 1, 2}, 3)

	neg, err := b.Neg(x)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, -1, -2}, neg.AsFloat64())

	exp, err := b.Exp(x)
	require.NoError(t, err)
	assert.InDelta(t, math.E, exp.AsFloat64()[1], 1e-12)

	pow, err := b.PowScalar(x, 2)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1, 4}, pow.AsFloat64())

	scaled, err := b.MulScalar(x, 3)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 3, 6}, scaled.AsFloat64())

	shifted, err := b.AddScalar(x, -1)
	require.NoError(t, err)
	assert.Equal(t, []float64{-1, 0, 1}, shifted.AsFloat64())
}

func TestCPUBackend_Float32(t *testing.T) {
	b := cpu.New()
	x, err := tensor.FromFloat32s([]float32{1, 2}, tensor.Shape{2})
	require.NoError(t, err)

	got, err := b.MulScalar(x, 0.5)
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 1}, got.AsFloat32())
}

func TestCPUBackend_InputsUntouched(t *testing.T) {
	b := cpu.New()
	a := f64(t, []float64{1, 2}, 2)
	c := f64(t, []float64{3, 4}, 2)

	_, err := b.Add(a, c)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, a.AsFloat64())
	assert.Equal(t, 1, a.RefCount())
}
