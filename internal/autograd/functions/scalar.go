package functions

import (
	"fmt"

	"github.com/born-ml/graphgrad/internal/autograd"
	"github.com/born-ml/graphgrad/internal/tensor"
)

// AddConstOp computes x + C.
type AddConstOp struct {
	C float64
}

func (f AddConstOp) Label() string { return fmt.Sprintf("AddConst(%g)", f.C) }
func (AddConstOp) NumInputs() int  { return 1 }

func (f AddConstOp) Forward(ctx *autograd.ForwardContext, in []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	return one(ctx.Backend().AddScalar(in[0], f.C))
}

func (AddConstOp) Backward(_ *autograd.BackwardContext, gys []*autograd.Variable) ([]*autograd.Variable, error) {
	return []*autograd.Variable{gys[0]}, nil
}

// AddConst returns x + c.
func AddConst(e *autograd.Engine, x *autograd.Variable, c float64) (*autograd.Variable, error) {
	return e.Apply1(AddConstOp{C: c}, x)
}

// MulConstOp computes x * C.
type MulConstOp struct {
	C float64
}

func (f MulConstOp) Label() string { return fmt.Sprintf("MulConst(%g)", f.C) }
func (MulConstOp) NumInputs() int  { return 1 }

func (f MulConstOp) Forward(ctx *autograd.ForwardContext, in []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	return one(ctx.Backend().MulScalar(in[0], f.C))
}

func (f MulConstOp) Backward(ctx *autograd.BackwardContext, gys []*autograd.Variable) ([]*autograd.Variable, error) {
	g, err := MulConst(ctx.Engine(), gys[0], f.C)
	if err != nil {
		return nil, err
	}
	return []*autograd.Variable{g}, nil
}

// MulConst returns x * c.
func MulConst(e *autograd.Engine, x *autograd.Variable, c float64) (*autograd.Variable, error) {
	return e.Apply1(MulConstOp{C: c}, x)
}

// PowConstOp computes x^P for floating point x. d(x^p)/dx = p * x^(p-1).
type PowConstOp struct {
	P float64
}

func (f PowConstOp) Label() string { return fmt.Sprintf("PowConst(%g)", f.P) }
func (PowConstOp) NumInputs() int  { return 1 }

func (PowConstOp) TypeConstraints() []autograd.Constraint {
	return []autograd.Constraint{autograd.ExpectFloat(0)}
}

func (f PowConstOp) Forward(ctx *autograd.ForwardContext, in []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	ctx.RetainInputs(0)
	return one(ctx.Backend().PowScalar(in[0], f.P))
}

func (f PowConstOp) Backward(ctx *autograd.BackwardContext, gys []*autograd.Variable) ([]*autograd.Variable, error) {
	e := ctx.Engine()
	x := ctx.RetainedInputs()[0]
	d, err := PowConst(e, x, f.P-1)
	if err != nil {
		return nil, err
	}
	if d, err = MulConst(e, d, f.P); err != nil {
		return nil, err
	}
	g, err := Mul(e, gys[0], d)
	if err != nil {
		return nil, err
	}
	return []*autograd.Variable{g}, nil
}

// PowConst returns x^p.
func PowConst(e *autograd.Engine, x *autograd.Variable, p float64) (*autograd.Variable, error) {
	return e.Apply1(PowConstOp{P: p}, x)
}
