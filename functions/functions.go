// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package functions is a small catalog of differentiable functions.
//
// Every backward is written with Variables through the engine, so gradients
// can be differentiated again under autograd.EnableDoubleBackprop.
//
//	y, err := functions.Exp(e, x)
//	if err != nil {
//	    return err
//	}
//	loss, err := functions.Sum(e, y)
package functions

import (
	"github.com/born-ml/graphgrad/internal/autograd"
	"github.com/born-ml/graphgrad/internal/autograd/functions"
	"github.com/born-ml/graphgrad/internal/tensor"
)

// Function implementations, usable directly with Engine.Apply.
type (
	AddOp         = functions.AddOp
	SubOp         = functions.SubOp
	MulOp         = functions.MulOp
	DivOp         = functions.DivOp
	NegOp         = functions.NegOp
	AddConstOp    = functions.AddConstOp
	MulConstOp    = functions.MulConstOp
	PowConstOp    = functions.PowConstOp
	ExpOp         = functions.ExpOp
	LogOp         = functions.LogOp
	SumOp         = functions.SumOp
	SumToOp       = functions.SumToOp
	BroadcastToOp = functions.BroadcastToOp
	ReshapeOp     = functions.ReshapeOp
	IdentityOp    = functions.IdentityOp
)

// Add returns a + b with broadcasting.
func Add(e *autograd.Engine, a, b *autograd.Variable) (*autograd.Variable, error) {
	return functions.Add(e, a, b)
}

// Sub returns a - b with broadcasting.
func Sub(e *autograd.Engine, a, b *autograd.Variable) (*autograd.Variable, error) {
	return functions.Sub(e, a, b)
}

// Mul returns a * b with broadcasting.
func Mul(e *autograd.Engine, a, b *autograd.Variable) (*autograd.Variable, error) {
	return functions.Mul(e, a, b)
}

// Div returns a / b with broadcasting.
func Div(e *autograd.Engine, a, b *autograd.Variable) (*autograd.Variable, error) {
	return functions.Div(e, a, b)
}

// Neg returns -x.
func Neg(e *autograd.Engine, x *autograd.Variable) (*autograd.Variable, error) {
	return functions.Neg(e, x)
}

// AddConst returns x + c.
func AddConst(e *autograd.Engine, x *autograd.Variable, c float64) (*autograd.Variable, error) {
	return functions.AddConst(e, x, c)
}

// MulConst returns x * c.
func MulConst(e *autograd.Engine, x *autograd.Variable, c float64) (*autograd.Variable, error) {
	return functions.MulConst(e, x, c)
}

// PowConst returns x raised to p.
func PowConst(e *autograd.Engine, x *autograd.Variable, p float64) (*autograd.Variable, error) {
	return functions.PowConst(e, x, p)
}

// Exp returns e raised to x.
func Exp(e *autograd.Engine, x *autograd.Variable) (*autograd.Variable, error) {
	return functions.Exp(e, x)
}

// Log returns the natural logarithm of x.
func Log(e *autograd.Engine, x *autograd.Variable) (*autograd.Variable, error) {
	return functions.Log(e, x)
}

// Sum returns the 0-d sum of every element of x.
func Sum(e *autograd.Engine, x *autograd.Variable) (*autograd.Variable, error) {
	return functions.Sum(e, x)
}

// SumTo sums x down to shape.
func SumTo(e *autograd.Engine, x *autograd.Variable, shape tensor.Shape) (*autograd.Variable, error) {
	return functions.SumTo(e, x, shape)
}

// BroadcastTo expands x to shape.
func BroadcastTo(e *autograd.Engine, x *autograd.Variable, shape tensor.Shape) (*autograd.Variable, error) {
	return functions.BroadcastTo(e, x, shape)
}

// Reshape returns x viewed with a new shape of the same size.
func Reshape(e *autograd.Engine, x *autograd.Variable, shape tensor.Shape) (*autograd.Variable, error) {
	return functions.Reshape(e, x, shape)
}

// Identity passes xs through a single node.
func Identity(e *autograd.Engine, xs ...*autograd.Variable) ([]*autograd.Variable, error) {
	return functions.Identity(e, xs...)
}
