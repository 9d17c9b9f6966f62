package functions

import (
	"github.com/born-ml/graphgrad/internal/autograd"
	"github.com/born-ml/graphgrad/internal/tensor"
)

var binaryConstraints = []autograd.Constraint{
	autograd.ExpectNumInputs(2),
	autograd.ExpectSameDType(),
	autograd.ExpectBroadcastable(0, 1),
}

// AddOp computes a + b. d(a+b)/da = 1, d(a+b)/db = 1.
type AddOp struct{}

func (AddOp) Label() string                          { return "Add" }
func (AddOp) NumInputs() int                         { return 2 }
func (AddOp) TypeConstraints() []autograd.Constraint { return binaryConstraints }

func (AddOp) Forward(ctx *autograd.ForwardContext, in []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	return one(ctx.Backend().Add(in[0], in[1]))
}

func (AddOp) Backward(ctx *autograd.BackwardContext, gys []*autograd.Variable) ([]*autograd.Variable, error) {
	e, gy := ctx.Engine(), gys[0]
	gxs := make([]*autograd.Variable, 2)
	for i := range gxs {
		if !ctx.Requires(i) {
			continue
		}
		g, err := sumTo(e, gy, ctx.InputShape(i))
		if err != nil {
			return nil, err
		}
		gxs[i] = g
	}
	return gxs, nil
}

// Add returns a + b.
func Add(e *autograd.Engine, a, b *autograd.Variable) (*autograd.Variable, error) {
	return e.Apply1(AddOp{}, a, b)
}

// SubOp computes a - b.
type SubOp struct{}

func (SubOp) Label() string                          { return "Sub" }
func (SubOp) NumInputs() int                         { return 2 }
func (SubOp) TypeConstraints() []autograd.Constraint { return binaryConstraints }

func (SubOp) Forward(ctx *autograd.ForwardContext, in []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	return one(ctx.Backend().Sub(in[0], in[1]))
}

func (SubOp) Backward(ctx *autograd.BackwardContext, gys []*autograd.Variable) ([]*autograd.Variable, error) {
	e, gy := ctx.Engine(), gys[0]
	gxs := make([]*autograd.Variable, 2)
	if ctx.Requires(0) {
		g, err := sumTo(e, gy, ctx.InputShape(0))
		if err != nil {
			return nil, err
		}
		gxs[0] = g
	}
	if ctx.Requires(1) {
		neg, err := Neg(e, gy)
		if err != nil {
			return nil, err
		}
		if gxs[1], err = sumTo(e, neg, ctx.InputShape(1)); err != nil {
			return nil, err
		}
	}
	return gxs, nil
}

// Sub returns a - b.
func Sub(e *autograd.Engine, a, b *autograd.Variable) (*autograd.Variable, error) {
	return e.Apply1(SubOp{}, a, b)
}

// MulOp computes a * b. d(a*b)/da = b, d(a*b)/db = a.
type MulOp struct{}

func (MulOp) Label() string                          { return "Mul" }
func (MulOp) NumInputs() int                         { return 2 }
func (MulOp) TypeConstraints() []autograd.Constraint { return binaryConstraints }

func (MulOp) Forward(ctx *autograd.ForwardContext, in []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	ctx.RetainInputs(0, 1)
	return one(ctx.Backend().Mul(in[0], in[1]))
}

func (MulOp) Backward(ctx *autograd.BackwardContext, gys []*autograd.Variable) ([]*autograd.Variable, error) {
	e, gy := ctx.Engine(), gys[0]
	xs := ctx.RetainedInputs()
	gxs := make([]*autograd.Variable, 2)
	for i := range gxs {
		if !ctx.Requires(i) {
			continue
		}
		g, err := Mul(e, gy, xs[1-i])
		if err != nil {
			return nil, err
		}
		if gxs[i], err = sumTo(e, g, ctx.InputShape(i)); err != nil {
			return nil, err
		}
	}
	return gxs, nil
}

// Mul returns a * b.
func Mul(e *autograd.Engine, a, b *autograd.Variable) (*autograd.Variable, error) {
	return e.Apply1(MulOp{}, a, b)
}

// DivOp computes a / b. d(a/b)/da = 1/b, d(a/b)/db = -a/b².
type DivOp struct{}

func (DivOp) Label() string                          { return "Div" }
func (DivOp) NumInputs() int                         { return 2 }
func (DivOp) TypeConstraints() []autograd.Constraint { return binaryConstraints }

func (DivOp) Forward(ctx *autograd.ForwardContext, in []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	ctx.RetainInputs(0, 1)
	return one(ctx.Backend().Div(in[0], in[1]))
}

func (DivOp) Backward(ctx *autograd.BackwardContext, gys []*autograd.Variable) ([]*autograd.Variable, error) {
	e, gy := ctx.Engine(), gys[0]
	xs := ctx.RetainedInputs()
	a, b := xs[0], xs[1]
	gxs := make([]*autograd.Variable, 2)

	gyb, err := Div(e, gy, b)
	if err != nil {
		return nil, err
	}
	if ctx.Requires(0) {
		if gxs[0], err = sumTo(e, gyb, ctx.InputShape(0)); err != nil {
			return nil, err
		}
	}
	if ctx.Requires(1) {
		ab, err := Div(e, a, b)
		if err != nil {
			return nil, err
		}
		g, err := Mul(e, gyb, ab)
		if err != nil {
			return nil, err
		}
		if g, err = Neg(e, g); err != nil {
			return nil, err
		}
		if gxs[1], err = sumTo(e, g, ctx.InputShape(1)); err != nil {
			return nil, err
		}
	}
	return gxs, nil
}

// Div returns a / b.
func Div(e *autograd.Engine, a, b *autograd.Variable) (*autograd.Variable, error) {
	return e.Apply1(DivOp{}, a, b)
}

// NegOp computes -x.
type NegOp struct{}

func (NegOp) Label() string  { return "Neg" }
func (NegOp) NumInputs() int { return 1 }

func (NegOp) Forward(ctx *autograd.ForwardContext, in []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	return one(ctx.Backend().Neg(in[0]))
}

func (NegOp) Backward(ctx *autograd.BackwardContext, gys []*autograd.Variable) ([]*autograd.Variable, error) {
	g, err := Neg(ctx.Engine(), gys[0])
	if err != nil {
		return nil, err
	}
	return []*autograd.Variable{g}, nil
}

// Neg returns -x.
func Neg(e *autograd.Engine, x *autograd.Variable) (*autograd.Variable, error) {
	return e.Apply1(NegOp{}, x)
}
