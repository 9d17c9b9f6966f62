// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package autograd_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/graphgrad/autograd"
	"github.com/born-ml/graphgrad/backend/cpu"
	"github.com/born-ml/graphgrad/config"
	"github.com/born-ml/graphgrad/functions"
	"github.com/born-ml/graphgrad/tensor"
)

func newEngine(opts ...autograd.EngineOption) *autograd.Engine {
	base := []autograd.EngineOption{autograd.WithGlobal(config.NewGlobal(config.Builtin()))}
	return autograd.NewEngine(cpu.New(cpu.WithParallel(cpu.Sequential())), append(base, opts...)...)
}

func scalar(t *testing.T, v float64, opts ...autograd.VariableOption) *autograd.Variable {
	t.Helper()
	raw, err := tensor.Scalar(v, tensor.Float64)
	require.NoError(t, err)
	return autograd.NewVariable(raw, opts...)
}

func TestPublicAPI_Backward(t *testing.T) {
	e := newEngine()
	x := scalar(t, 3, autograd.WithName("x"))
	y := scalar(t, 4, autograd.WithName("y"))

	// z = x² + x*y
	x2, err := functions.PowConst(e, x, 2)
	require.NoError(t, err)
	xy, err := functions.Mul(e, x, y)
	require.NoError(t, err)
	z, err := functions.Add(e, x2, xy)
	require.NoError(t, err)

	require.NoError(t, z.Backward())
	assert.Equal(t, []float64{10}, x.Grad().Data().Float64s())
	assert.Equal(t, []float64{3}, y.Grad().Data().Float64s())
	assert.Equal(t, "x", x.Name())
}

func TestPublicAPI_GradWithHooks(t *testing.T) {
	counts := autograd.NewCountHook()
	e := newEngine(autograd.WithHooks(counts))
	x := scalar(t, 0)

	y, err := functions.Exp(e, x)
	require.NoError(t, err)
	grads, err := e.Grad([]*autograd.Variable{y}, []*autograd.Variable{x}, autograd.RetainGraph(true))
	require.NoError(t, err)

	assert.Equal(t, []float64{1}, grads[0].Data().Float64s())
	assert.Equal(t, 1, counts.Backward("Exp"))
	assert.Nil(t, x.Grad(), "Grad leaves Variable.Grad alone unless SetGrad is given")
}

func TestPublicAPI_Errors(t *testing.T) {
	e := newEngine()
	x := scalar(t, 1)
	assert.ErrorIs(t, x.Backward(), autograd.ErrNoGraph)

	_, err := functions.SumTo(e, x, tensor.Shape{2})
	assert.ErrorIs(t, err, autograd.ErrTypeCheck)
	var typeErr *autograd.TypeCheckError
	require.ErrorAs(t, err, &typeErr)
	assert.Equal(t, "SumTo(2)", typeErr.Function)
}

func TestPublicAPI_NoBackprop(t *testing.T) {
	e := newEngine()
	x := scalar(t, 2)

	var y *autograd.Variable
	require.NoError(t, e.NoBackprop(func() error {
		var err error
		y, err = functions.MulConst(e, x, 3)
		return err
	}))
	assert.True(t, y.IsLeaf())
	assert.False(t, config.IsDebug(e.Config()))
}
