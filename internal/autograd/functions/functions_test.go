package functions_test

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/graphgrad/internal/autograd"
	"github.com/born-ml/graphgrad/internal/autograd/functions"
	"github.com/born-ml/graphgrad/internal/backend/cpu"
	"github.com/born-ml/graphgrad/internal/config"
	"github.com/born-ml/graphgrad/internal/gradcheck"
	"github.com/born-ml/graphgrad/internal/tensor"
)

func newEngine() *autograd.Engine {
	return autograd.NewEngine(cpu.New(), autograd.WithGlobal(config.NewGlobal(config.Builtin())))
}

type input struct {
	data  []float64
	shape tensor.Shape
}

func in(shape tensor.Shape, data ...float64) input {
	return input{data: data, shape: shape}
}

func variables(t *testing.T, inputs []input) []*autograd.Variable {
	t.Helper()
	vars := make([]*autograd.Variable, len(inputs))
	for i, x := range inputs {
		raw, err := tensor.FromFloat64s(x.data, x.shape)
		require.NoError(t, err)
		vars[i] = autograd.NewVariable(raw)
	}
	return vars
}

// checkGradients compares the gradient of sum(f(xs)) against central
// finite differences at every input element.
func checkGradients(t *testing.T, f gradcheck.Func, inputs ...input) {
	t.Helper()
	raws := make([]*tensor.RawTensor, len(inputs))
	for i, x := range inputs {
		raw, err := tensor.FromFloat64s(x.data, x.shape)
		require.NoError(t, err)
		raws[i] = raw
	}

	res, err := gradcheck.Check(newEngine(), f, raws, gradcheck.DefaultOptions())
	require.NoError(t, err)
	assert.True(t, res.OK(), "mismatches: %v", res.Mismatches)
}

func binary(op func(*autograd.Engine, *autograd.Variable, *autograd.Variable) (*autograd.Variable, error)) gradcheck.Func {
	return func(e *autograd.Engine, xs []*autograd.Variable) (*autograd.Variable, error) {
		return op(e, xs[0], xs[1])
	}
}

func unary(op func(*autograd.Engine, *autograd.Variable) (*autograd.Variable, error)) gradcheck.Func {
	return func(e *autograd.Engine, xs []*autograd.Variable) (*autograd.Variable, error) {
		return op(e, xs[0])
	}
}

func TestGradients(t *testing.T) {
	matrix := in(tensor.Shape{2, 3}, 0.5, -1.2, 2.0, 0.3, 1.1, -0.7)
	row := in(tensor.Shape{3}, 1.5, 0.8, -2.5)
	column := in(tensor.Shape{2, 1}, 0.9, 1.7)
	positive := in(tensor.Shape{4}, 0.5, 1.0, 2.5, 4.0)

	tests := []struct {
		name   string
		f      gradcheck.Func
		inputs []input
	}{
		{"Add", binary(functions.Add), []input{matrix, matrix}},
		{"AddBroadcast", binary(functions.Add), []input{matrix, row}},
		{"SubBroadcast", binary(functions.Sub), []input{column, row}},
		{"Mul", binary(functions.Mul), []input{matrix, matrix}},
		{"MulBroadcastScalar", binary(functions.Mul), []input{matrix, in(tensor.Shape{}, 1.3)}},
		{"Div", binary(functions.Div), []input{matrix, in(tensor.Shape{2, 3}, 1.5, 2.0, -0.5, 3.0, 0.8, 1.2)}},
		{"DivBroadcast", binary(functions.Div), []input{column, row}},
		{"Neg", unary(functions.Neg), []input{matrix}},
		{"Exp", unary(functions.Exp), []input{matrix}},
		{"Log", unary(functions.Log), []input{positive}},
		{"Sum", unary(functions.Sum), []input{matrix}},
		{"AddConst", func(e *autograd.Engine, xs []*autograd.Variable) (*autograd.Variable, error) {
			return functions.AddConst(e, xs[0], 2.5)
		}, []input{matrix}},
		{"MulConst", func(e *autograd.Engine, xs []*autograd.Variable) (*autograd.Variable, error) {
			return functions.MulConst(e, xs[0], -3)
		}, []input{matrix}},
		{"PowConst", func(e *autograd.Engine, xs []*autograd.Variable) (*autograd.Variable, error) {
			return functions.PowConst(e, xs[0], 2.5)
		}, []input{positive}},
		{"SumTo", func(e *autograd.Engine, xs []*autograd.Variable) (*autograd.Variable, error) {
			s, err := functions.SumTo(e, xs[0], tensor.Shape{2, 1})
			if err != nil {
				return nil, err
			}
			return functions.Mul(e, s, s)
		}, []input{matrix}},
		{"BroadcastTo", func(e *autograd.Engine, xs []*autograd.Variable) (*autograd.Variable, error) {
			b, err := functions.BroadcastTo(e, xs[0], tensor.Shape{4, 3})
			if err != nil {
				return nil, err
			}
			return functions.Mul(e, b, b)
		}, []input{row}},
		{"Reshape", func(e *autograd.Engine, xs []*autograd.Variable) (*autograd.Variable, error) {
			r, err := functions.Reshape(e, xs[0], tensor.Shape{3, 2})
			if err != nil {
				return nil, err
			}
			return functions.Mul(e, r, xs[1])
		}, []input{matrix, in(tensor.Shape{3, 2}, 1, 2, 3, 4, 5, 6)}},
		{"Chain", func(e *autograd.Engine, xs []*autograd.Variable) (*autograd.Variable, error) {
			// exp(a*b) / (a + 2) - log(b²)
			ab, err := functions.Mul(e, xs[0], xs[1])
			if err != nil {
				return nil, err
			}
			num, err := functions.Exp(e, ab)
			if err != nil {
				return nil, err
			}
			den, err := functions.AddConst(e, xs[0], 2)
			if err != nil {
				return nil, err
			}
			q, err := functions.Div(e, num, den)
			if err != nil {
				return nil, err
			}
			b2, err := functions.PowConst(e, xs[1], 2)
			if err != nil {
				return nil, err
			}
			lb, err := functions.Log(e, b2)
			if err != nil {
				return nil, err
			}
			return functions.Sub(e, q, lb)
		}, []input{in(tensor.Shape{3}, 0.1, 0.4, -0.3), in(tensor.Shape{3}, 0.7, -1.1, 0.5)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkGradients(t, tt.f, tt.inputs...)
		})
	}
}

func TestForwardValues(t *testing.T) {
	e := newEngine()
	xs := variables(t, []input{in(tensor.Shape{2, 2}, 1, 2, 3, 4), in(tensor.Shape{2}, 10, 20)})

	sum, err := functions.Add(e, xs[0], xs[1])
	require.NoError(t, err)
	to, err := functions.SumTo(e, xs[0], tensor.Shape{1, 2})
	require.NoError(t, err)
	total, err := functions.Sum(e, xs[0])
	require.NoError(t, err)

	approx := cmpopts.EquateApprox(0, 1e-12)
	if diff := cmp.Diff([]float64{11, 22, 13, 24}, sum.Data().Float64s(), approx); diff != "" {
		t.Errorf("Add mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{4, 6}, to.Data().Float64s(), approx); diff != "" {
		t.Errorf("SumTo mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(tensor.Shape{}, total.Shape()); diff != "" {
		t.Errorf("Sum shape mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []float64{10}, total.Data().Float64s())
}

func TestIdentity_PassesGradientsThrough(t *testing.T) {
	e := newEngine()
	xs := variables(t, []input{in(tensor.Shape{}, 2), in(tensor.Shape{2}, 1, 1)})

	outs, err := functions.Identity(e, xs...)
	require.NoError(t, err)
	y, err := functions.MulConst(e, outs[1], 3)
	require.NoError(t, err)
	s, err := functions.Sum(e, y)
	require.NoError(t, err)

	require.NoError(t, s.Backward())
	assert.Nil(t, xs[0].Grad())
	assert.Equal(t, []float64{3, 3}, xs[1].Grad().Data().Float64s())
	assert.NotSame(t, xs[0].Data(), outs[0].Data())
}

func TestSumTo_RejectsIncompatibleShape(t *testing.T) {
	e := newEngine()
	xs := variables(t, []input{in(tensor.Shape{2, 3}, 1, 2, 3, 4, 5, 6)})

	_, err := functions.SumTo(e, xs[0], tensor.Shape{4})
	assert.ErrorIs(t, err, autograd.ErrTypeCheck)
	_, err = functions.BroadcastTo(e, xs[0], tensor.Shape{3, 3})
	assert.ErrorIs(t, err, autograd.ErrTypeCheck)
	_, err = functions.Reshape(e, xs[0], tensor.Shape{4})
	assert.Error(t, err)
}

func TestDoubleBackprop_Exp(t *testing.T) {
	e := newEngine()
	xs := variables(t, []input{in(tensor.Shape{}, 0.5)})

	y, err := functions.Exp(e, xs[0])
	require.NoError(t, err)
	g, err := e.Grad([]*autograd.Variable{y}, xs, autograd.EnableDoubleBackprop(true))
	require.NoError(t, err)
	gg, err := e.Grad(g, xs)
	require.NoError(t, err)

	assert.InDelta(t, math.Exp(0.5), gg[0].Data().Float64s()[0], 1e-12)
}

func TestMixedPrecision_Float32(t *testing.T) {
	e := newEngine()
	a, err := tensor.FromFloat32s([]float32{1, 2}, tensor.Shape{2})
	require.NoError(t, err)
	b, err := tensor.FromFloat32s([]float32{3, 4}, tensor.Shape{2})
	require.NoError(t, err)
	x, y := autograd.NewVariable(a), autograd.NewVariable(b)

	p, err := functions.Mul(e, x, y)
	require.NoError(t, err)
	s, err := functions.Sum(e, p)
	require.NoError(t, err)
	require.NoError(t, s.Backward())

	assert.Equal(t, tensor.Float32, x.Grad().DType())
	assert.Equal(t, []float32{3, 4}, x.Grad().Data().AsFloat32())
	assert.Equal(t, []float32{1, 2}, y.Grad().Data().AsFloat32())
}
