package autograd_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/born-ml/graphgrad/internal/autograd"
	"github.com/born-ml/graphgrad/internal/autograd/functions"
	"github.com/born-ml/graphgrad/internal/backend/cpu"
	"github.com/born-ml/graphgrad/internal/config"
	"github.com/born-ml/graphgrad/internal/tensor"
)

func TestApply_NoBackprop(t *testing.T) {
	e := newEngine(t)
	x, y := scalar(t, 2), scalar(t, 3)

	var z *autograd.Variable
	err := e.NoBackprop(func() error {
		assert.False(t, e.BackpropEnabled())
		xy, err := functions.Mul(e, x, y)
		if err != nil {
			return err
		}
		z, err = functions.Add(e, xy, x)
		return err
	})
	require.NoError(t, err)
	assert.True(t, e.BackpropEnabled())

	assert.Equal(t, 8.0, item(t, z))
	assert.Nil(t, z.Creator())
	assert.Equal(t, 0, z.Rank())
	assert.ErrorIs(t, z.Backward(), autograd.ErrNoGraph)
}

func TestApply_ForceBackpropInsideNoBackprop(t *testing.T) {
	e := newEngine(t)
	x := scalar(t, 2)

	err := e.NoBackprop(func() error {
		return e.ForceBackprop(func() error {
			y, err := functions.Exp(e, x)
			require.NoError(t, err)
			assert.NotNil(t, y.Creator())
			return nil
		})
	})
	require.NoError(t, err)
}

func TestApply_TypeCheck(t *testing.T) {
	e := newEngine(t)
	f := scalar(t, 1)
	raw, err := tensor.FromInt32s([]int32{1}, tensor.Shape{})
	require.NoError(t, err)
	i := autograd.NewVariable(raw)

	_, err = functions.Add(e, f, i)
	require.ErrorIs(t, err, autograd.ErrTypeCheck)
	var tce *autograd.TypeCheckError
	require.True(t, errors.As(err, &tce))
	assert.Equal(t, "Add", tce.Function)
	assert.Equal(t, "in[*].dtype == in[0].dtype", tce.Constraint)
	assert.Contains(t, tce.Detail, "int32")

	_, err = functions.Add(e, vector(t, 1, 2, 3), vector(t, 1, 2))
	require.ErrorIs(t, err, autograd.ErrTypeCheck)
	require.True(t, errors.As(err, &tce))
	assert.Equal(t, "broadcastable(in0, in1)", tce.Constraint)

	_, err = functions.Exp(e, i)
	assert.ErrorIs(t, err, autograd.ErrTypeCheck)
}

func TestApply_TypeCheckDisabled(t *testing.T) {
	e := newEngine(t)
	raw, err := tensor.FromInt32s([]int32{1}, tensor.Shape{})
	require.NoError(t, err)
	i := autograd.NewVariable(raw)

	err = e.Using(map[string]any{config.KeyTypeCheck: false}, func() error {
		_, err := functions.Add(e, scalar(t, 1), i)
		return err
	})
	require.Error(t, err, "the backend still rejects mixed dtypes")
	assert.NotErrorIs(t, err, autograd.ErrTypeCheck)
}

func TestApply_Arity(t *testing.T) {
	e := newEngine(t)
	_, err := e.Apply(functions.AddOp{}, scalar(t, 1), scalar(t, 2), scalar(t, 3))
	require.ErrorIs(t, err, autograd.ErrShapeOrArity)
	var ae *autograd.ArityError
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, 2, ae.Expected)
	assert.Equal(t, 3, ae.Got)

	_, err = e.Apply(functions.AddOp{}, scalar(t, 1), nil)
	assert.ErrorIs(t, err, autograd.ErrShapeOrArity)

	_, err = e.Apply1(&passThrough{label: "Pair"}, scalar(t, 1), scalar(t, 2))
	assert.ErrorIs(t, err, autograd.ErrShapeOrArity, "Apply1 needs a single output")
}

type badRetain struct{ passThrough }

func (f *badRetain) Forward(ctx *autograd.ForwardContext, in []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	ctx.RetainInputs(3)
	return f.passThrough.Forward(ctx, in)
}

type aliasing struct{ passThrough }

func (*aliasing) Forward(_ *autograd.ForwardContext, in []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	return in, nil
}

func TestApply_InvalidForward(t *testing.T) {
	e := newEngine(t)
	x := scalar(t, 1)

	_, err := e.Apply(&badRetain{passThrough{label: "BadRetain"}}, x)
	assert.ErrorIs(t, err, autograd.ErrShapeOrArity)

	_, err = e.Apply(&aliasing{passThrough{label: "Alias"}}, x)
	require.Error(t, err)
	assert.False(t, x.Data().Released(), "a rejected output must not release the input")
}

func TestApply_ForwardErrorIsWrapped(t *testing.T) {
	e := newEngine(t)
	zero, err := tensor.FromInt32s([]int32{0}, tensor.Shape{})
	require.NoError(t, err)
	one, err := tensor.FromInt32s([]int32{1}, tensor.Shape{})
	require.NoError(t, err)

	_, err = functions.Div(e, autograd.NewVariable(one), autograd.NewVariable(zero))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Div forward")
}

func TestApply_RetainedInputsAndOutputs(t *testing.T) {
	e := newEngine(t)
	x, y := scalar(t, 2), scalar(t, 3)

	xy, err := functions.Mul(e, x, y)
	require.NoError(t, err)
	assert.Equal(t, 2, xy.Creator().RetainedInputCount())
	assert.Equal(t, 0, xy.Creator().RetainedOutputCount())
	assert.Equal(t, 2, x.Data().RefCount())

	ex, err := functions.Exp(e, x)
	require.NoError(t, err)
	assert.Equal(t, 0, ex.Creator().RetainedInputCount())
	assert.Equal(t, 1, ex.Creator().RetainedOutputCount())

	sum, err := functions.Add(e, x, y)
	require.NoError(t, err)
	assert.Equal(t, 0, sum.Creator().RetainedInputCount())
}

func TestApply_Identity(t *testing.T) {
	e := newEngine(t)
	a, b := scalar(t, 1), vector(t, 1, 2)

	outs, err := functions.Identity(e, a, b)
	require.NoError(t, err)
	require.Len(t, outs, 2)
	node := outs[0].Creator()
	assert.Same(t, node, outs[1].Creator())
	assert.Equal(t, 1, outs[1].CreatorIndex())
	assert.Equal(t, []*autograd.Variable{outs[0], outs[1]}, node.Outputs())
	assert.Equal(t, 2, node.NumOutputs())
}

func TestApply_DebugNaN(t *testing.T) {
	e := newEngine(t)
	x := scalar(t, -1)

	_, err := functions.Log(e, x)
	require.NoError(t, err, "NaN is only checked in debug mode")

	config.SetDebug(e.Config(), true)
	_, err = functions.Log(e, x)
	assert.ErrorIs(t, err, autograd.ErrNaN)
}

type wrongShapeGrad struct{ passThrough }

func (*wrongShapeGrad) Backward(ctx *autograd.BackwardContext, _ []*autograd.Variable) ([]*autograd.Variable, error) {
	a, err := tensor.FromFloat64s([]float64{1, 2}, tensor.Shape{2})
	if err != nil {
		return nil, err
	}
	b, err := tensor.FromFloat32s([]float32{1}, tensor.Shape{})
	if err != nil {
		return nil, err
	}
	return []*autograd.Variable{autograd.NewVariable(a), autograd.NewVariable(b)}, nil
}

func TestBackward_DebugValidatesGradients(t *testing.T) {
	e := newEngine(t)
	scope := e.Config().Push(map[string]any{config.KeyDebug: true})
	defer scope.Release()

	outs, err := e.Apply(&wrongShapeGrad{passThrough{label: "Wrong"}}, scalar(t, 1), scalar(t, 2))
	require.NoError(t, err)
	require.NotEmpty(t, outs[0].Creator().Stack())
	assert.Contains(t, outs[0].Creator().Stack(), "apply_test.go")

	err = outs[0].Backward()
	require.ErrorIs(t, err, autograd.ErrPartialBackward)
	require.ErrorIs(t, err, autograd.ErrGradMismatch)

	var be *autograd.BackwardError
	require.True(t, errors.As(err, &be))
	assert.Len(t, multierr.Errors(be.Err), 2)
	assert.Contains(t, err.Error(), "apply_test.go")
}

func TestEngine_IndependentGoroutines(t *testing.T) {
	g := config.NewGlobal(config.Builtin())

	var wg sync.WaitGroup
	results := make([]float64, 8)
	errs := make([]error, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			e := autograd.NewEngine(cpu.New(), autograd.WithGlobal(g))
			raw, err := tensor.Scalar(float64(i), tensor.Float64)
			if err != nil {
				errs[i] = err
				return
			}
			x := autograd.NewVariable(raw)
			run := func() error {
				y, err := functions.PowConst(e, x, 2)
				if err != nil {
					return err
				}
				if i%2 == 1 {
					if y.Creator() != nil {
						return errors.New("graph recorded under NoBackprop")
					}
					results[i] = y.Data().Float64s()[0]
					return nil
				}
				if err := y.Backward(); err != nil {
					return err
				}
				results[i] = x.Grad().Data().Float64s()[0]
				return nil
			}
			if i%2 == 1 {
				errs[i] = e.NoBackprop(run)
			} else {
				errs[i] = run()
			}
		}(i)
	}
	wg.Wait()

	for i := range results {
		require.NoError(t, errs[i])
		if i%2 == 1 {
			assert.Equal(t, float64(i*i), results[i])
		} else {
			assert.Equal(t, float64(2*i), results[i])
		}
	}
}

func TestEngine_WithConfig(t *testing.T) {
	l := config.NewLocal(config.NewGlobal(config.Builtin()))
	e := autograd.NewEngine(cpu.New(), autograd.WithConfig(l))
	assert.Same(t, l, e.Config())
	assert.Equal(t, "CPU", e.Backend().Name())

	defer l.Push(map[string]any{config.KeyEnableBackprop: false}).Release()
	assert.False(t, e.BackpropEnabled())
}
