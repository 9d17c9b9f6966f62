package functions

import (
	"fmt"

	"github.com/born-ml/graphgrad/internal/autograd"
	"github.com/born-ml/graphgrad/internal/tensor"
)

// SumOp reduces every element to a 0-d tensor.
type SumOp struct{}

func (SumOp) Label() string  { return "Sum" }
func (SumOp) NumInputs() int { return 1 }

func (SumOp) Forward(ctx *autograd.ForwardContext, in []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	return one(ctx.Backend().Sum(in[0]))
}

func (SumOp) Backward(ctx *autograd.BackwardContext, gys []*autograd.Variable) ([]*autograd.Variable, error) {
	g, err := BroadcastTo(ctx.Engine(), gys[0], ctx.InputShape(0))
	if err != nil {
		return nil, err
	}
	return []*autograd.Variable{g}, nil
}

// Sum returns the sum of every element of x.
func Sum(e *autograd.Engine, x *autograd.Variable) (*autograd.Variable, error) {
	return e.Apply1(SumOp{}, x)
}

// SumToOp sums x down to Shape, undoing a broadcast.
type SumToOp struct {
	Shape tensor.Shape
}

func (f SumToOp) Label() string { return fmt.Sprintf("SumTo%v", f.Shape) }
func (SumToOp) NumInputs() int  { return 1 }

func (f SumToOp) TypeConstraints() []autograd.Constraint {
	return []autograd.Constraint{sumToConstraint(f.Shape)}
}

func (f SumToOp) Forward(ctx *autograd.ForwardContext, in []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	return one(ctx.Backend().SumTo(in[0], f.Shape))
}

func (SumToOp) Backward(ctx *autograd.BackwardContext, gys []*autograd.Variable) ([]*autograd.Variable, error) {
	g, err := BroadcastTo(ctx.Engine(), gys[0], ctx.InputShape(0))
	if err != nil {
		return nil, err
	}
	return []*autograd.Variable{g}, nil
}

// SumTo sums x down to shape.
func SumTo(e *autograd.Engine, x *autograd.Variable, shape tensor.Shape) (*autograd.Variable, error) {
	return e.Apply1(SumToOp{Shape: shape.Clone()}, x)
}

func sumToConstraint(shape tensor.Shape) autograd.Constraint {
	return autograd.Constraint{
		Name: fmt.Sprintf("%v broadcastable to in0.shape", shape),
		Check: func(inputs []*tensor.RawTensor) error {
			if !shape.CanBroadcastTo(inputs[0].Shape()) {
				return fmt.Errorf("input 0 has shape %v", inputs[0].Shape())
			}
			return nil
		},
	}
}

// BroadcastToOp broadcasts x to Shape.
type BroadcastToOp struct {
	Shape tensor.Shape
}

func (f BroadcastToOp) Label() string { return fmt.Sprintf("BroadcastTo%v", f.Shape) }
func (BroadcastToOp) NumInputs() int  { return 1 }

func (f BroadcastToOp) TypeConstraints() []autograd.Constraint {
	return []autograd.Constraint{autograd.ExpectBroadcastableTo(0, f.Shape)}
}

func (f BroadcastToOp) Forward(ctx *autograd.ForwardContext, in []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	return one(ctx.Backend().BroadcastTo(in[0], f.Shape))
}

func (BroadcastToOp) Backward(ctx *autograd.BackwardContext, gys []*autograd.Variable) ([]*autograd.Variable, error) {
	g, err := sumTo(ctx.Engine(), gys[0], ctx.InputShape(0))
	if err != nil {
		return nil, err
	}
	return []*autograd.Variable{g}, nil
}

// BroadcastTo broadcasts x to shape.
func BroadcastTo(e *autograd.Engine, x *autograd.Variable, shape tensor.Shape) (*autograd.Variable, error) {
	return e.Apply1(BroadcastToOp{Shape: shape.Clone()}, x)
}

// ReshapeOp views x with another shape holding the same number of elements.
type ReshapeOp struct {
	Shape tensor.Shape
}

func (f ReshapeOp) Label() string { return fmt.Sprintf("Reshape%v", f.Shape) }
func (ReshapeOp) NumInputs() int  { return 1 }

func (f ReshapeOp) Forward(ctx *autograd.ForwardContext, in []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	return one(ctx.Backend().Reshape(in[0], f.Shape))
}

func (ReshapeOp) Backward(ctx *autograd.BackwardContext, gys []*autograd.Variable) ([]*autograd.Variable, error) {
	g, err := Reshape(ctx.Engine(), gys[0], ctx.InputShape(0))
	if err != nil {
		return nil, err
	}
	return []*autograd.Variable{g}, nil
}

// Reshape returns x viewed with shape.
func Reshape(e *autograd.Engine, x *autograd.Variable, shape tensor.Shape) (*autograd.Variable, error) {
	return e.Apply1(ReshapeOp{Shape: shape.Clone()}, x)
}
