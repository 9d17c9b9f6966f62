// Package functions provides differentiable functions for the autograd engine.
//
// Each function is a type implementing autograd.Function (AddOp, MulOp, ...)
// plus a helper that applies it through an engine:
//
//	z, err := functions.Mul(e, x, y)
//
// Backward passes are written with Variables and applied through the
// engine, so every function here supports double backprop.
//
// Supported operations:
//   - AddOp, SubOp, MulOp, DivOp: element-wise with broadcasting
//   - NegOp, ExpOp, LogOp: element-wise unary
//   - AddConstOp, MulConstOp, PowConstOp: scalar operand
//   - SumOp, SumToOp, BroadcastToOp, ReshapeOp: shape manipulation
//   - IdentityOp: passes any number of inputs through unchanged
package functions

import (
	"github.com/born-ml/graphgrad/internal/autograd"
	"github.com/born-ml/graphgrad/internal/tensor"
)

// sumTo reduces a broadcast gradient back to shape.
func sumTo(e *autograd.Engine, g *autograd.Variable, shape tensor.Shape) (*autograd.Variable, error) {
	if g.Shape().Equal(shape) {
		return g, nil
	}
	return SumTo(e, g, shape)
}

func one(raw *tensor.RawTensor, err error) ([]*tensor.RawTensor, error) {
	if err != nil {
		return nil, err
	}
	return []*tensor.RawTensor{raw}, nil
}
