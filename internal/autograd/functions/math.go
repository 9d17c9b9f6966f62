package functions

import (
	"github.com/born-ml/graphgrad/internal/autograd"
	"github.com/born-ml/graphgrad/internal/tensor"
)

// ExpOp computes e^x. The derivative is the output itself.
type ExpOp struct{}

func (ExpOp) Label() string  { return "Exp" }
func (ExpOp) NumInputs() int { return 1 }

func (ExpOp) TypeConstraints() []autograd.Constraint {
	return []autograd.Constraint{autograd.ExpectFloat(0)}
}

func (ExpOp) Forward(ctx *autograd.ForwardContext, in []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	ctx.RetainOutputs(0)
	return one(ctx.Backend().Exp(in[0]))
}

func (ExpOp) Backward(ctx *autograd.BackwardContext, gys []*autograd.Variable) ([]*autograd.Variable, error) {
	y := ctx.RetainedOutputs()[0]
	g, err := Mul(ctx.Engine(), gys[0], y)
	if err != nil {
		return nil, err
	}
	return []*autograd.Variable{g}, nil
}

// Exp returns e^x.
func Exp(e *autograd.Engine, x *autograd.Variable) (*autograd.Variable, error) {
	return e.Apply1(ExpOp{}, x)
}

// LogOp computes the natural logarithm. d(ln x)/dx = 1/x.
type LogOp struct{}

func (LogOp) Label() string  { return "Log" }
func (LogOp) NumInputs() int { return 1 }

func (LogOp) TypeConstraints() []autograd.Constraint {
	return []autograd.Constraint{autograd.ExpectFloat(0)}
}

func (LogOp) Forward(ctx *autograd.ForwardContext, in []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	ctx.RetainInputs(0)
	return one(ctx.Backend().Log(in[0]))
}

func (LogOp) Backward(ctx *autograd.BackwardContext, gys []*autograd.Variable) ([]*autograd.Variable, error) {
	x := ctx.RetainedInputs()[0]
	g, err := Div(ctx.Engine(), gys[0], x)
	if err != nil {
		return nil, err
	}
	return []*autograd.Variable{g}, nil
}

// Log returns ln(x).
func Log(e *autograd.Engine, x *autograd.Variable) (*autograd.Variable, error) {
	return e.Apply1(LogOp{}, x)
}
