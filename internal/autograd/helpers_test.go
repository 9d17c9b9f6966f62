package autograd_test

import (
	"errors"
	"testing"

	"github.com/go-logr/logr/testr"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/graphgrad/internal/autograd"
	"github.com/born-ml/graphgrad/internal/backend/cpu"
	"github.com/born-ml/graphgrad/internal/config"
	"github.com/born-ml/graphgrad/internal/tensor"
)

// newEngine returns an engine over a private Global so tests never see the
// process environment.
func newEngine(t *testing.T, opts ...autograd.EngineOption) *autograd.Engine {
	t.Helper()
	base := []autograd.EngineOption{
		autograd.WithGlobal(config.NewGlobal(config.Builtin())),
		autograd.WithLogger(testr.NewWithOptions(t, testr.Options{Verbosity: 2})),
	}
	return autograd.NewEngine(cpu.New(), append(base, opts...)...)
}

func scalar(t *testing.T, v float64, opts ...autograd.VariableOption) *autograd.Variable {
	t.Helper()
	raw, err := tensor.Scalar(v, tensor.Float64)
	require.NoError(t, err)
	return autograd.NewVariable(raw, opts...)
}

func vector(t *testing.T, data ...float64) *autograd.Variable {
	t.Helper()
	raw, err := tensor.FromFloat64s(data, tensor.Shape{len(data)})
	require.NoError(t, err)
	return autograd.NewVariable(raw)
}

func values(v *autograd.Variable) []float64 {
	return v.Data().Float64s()
}

func item(t *testing.T, v *autograd.Variable) float64 {
	t.Helper()
	require.NotNil(t, v)
	data := values(v)
	require.Len(t, data, 1)
	return data[0]
}

// passThrough is a one-input, one-output function with a configurable backward.
type passThrough struct {
	label    string
	backward func(ctx *autograd.BackwardContext, gys []*autograd.Variable) ([]*autograd.Variable, error)
}

func (f *passThrough) Label() string { return f.label }

func (f *passThrough) Forward(_ *autograd.ForwardContext, in []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	outs := make([]*tensor.RawTensor, len(in))
	for i, x := range in {
		outs[i] = x.Clone()
	}
	return outs, nil
}

func (f *passThrough) Backward(ctx *autograd.BackwardContext, gys []*autograd.Variable) ([]*autograd.Variable, error) {
	if f.backward != nil {
		return f.backward(ctx, gys)
	}
	gxs := make([]*autograd.Variable, len(gys))
	copy(gxs, gys)
	return gxs, nil
}

var errBoom = errors.New("boom")

// recordingHook appends the label of every backward step.
type recordingHook struct {
	name   string
	labels *[]string
}

func (h recordingHook) Name() string { return h.name }

func (h recordingHook) BackwardPreprocess(node *autograd.FunctionNode, _ []*autograd.Variable) {
	*h.labels = append(*h.labels, h.name+":"+node.Label())
}
