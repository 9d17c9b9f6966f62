// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package autograd

import (
	"github.com/go-logr/logr"

	"github.com/born-ml/graphgrad/internal/autograd"
	"github.com/born-ml/graphgrad/internal/config"
	"github.com/born-ml/graphgrad/internal/tensor"
)

// Type aliases for public API

// Variable is a differentiable value in the graph.
type Variable = autograd.Variable

// FunctionNode records one application of a Function.
type FunctionNode = autograd.FunctionNode

// Function is the contract every differentiable operation implements.
type Function = autograd.Function

// Arity is implemented by functions with a fixed number of inputs.
type Arity = autograd.Arity

// TypeChecker is implemented by functions that declare input constraints.
type TypeChecker = autograd.TypeChecker

// Constraint is a named predicate over a function's inputs.
type Constraint = autograd.Constraint

// ForwardContext is handed to Function.Forward.
type ForwardContext = autograd.ForwardContext

// BackwardContext is handed to Function.Backward.
type BackwardContext = autograd.BackwardContext

// Engine builds graphs and runs backward passes for one goroutine.
type Engine = autograd.Engine

// Options.
type (
	EngineOption   = autograd.EngineOption
	VariableOption = autograd.VariableOption
	GradOption     = autograd.GradOption
)

// Hooks.
type (
	Hook                  = autograd.Hook
	ForwardPreprocessor   = autograd.ForwardPreprocessor
	ForwardPostprocessor  = autograd.ForwardPostprocessor
	BackwardPreprocessor  = autograd.BackwardPreprocessor
	BackwardPostprocessor = autograd.BackwardPostprocessor
	LogHook               = autograd.LogHook
	CountHook             = autograd.CountHook
)

// Typed errors.
type (
	TypeCheckError    = autograd.TypeCheckError
	ArityError        = autograd.ArityError
	GradMismatchError = autograd.GradMismatchError
	BackwardError     = autograd.BackwardError
)

// Sentinel errors.
var (
	ErrInvalidGraphMutation = autograd.ErrInvalidGraphMutation
	ErrTypeCheck            = autograd.ErrTypeCheck
	ErrShapeOrArity         = autograd.ErrShapeOrArity
	ErrGradMismatch         = autograd.ErrGradMismatch
	ErrNotFloat             = autograd.ErrNotFloat
	ErrPartialBackward      = autograd.ErrPartialBackward
	ErrNoGraph              = autograd.ErrNoGraph
	ErrGraphReleased        = autograd.ErrGraphReleased
	ErrDuplicateHook        = autograd.ErrDuplicateHook
	ErrNaN                  = autograd.ErrNaN
)

// NewEngine creates an Engine over backend. Without WithConfig or WithGlobal
// it layers a fresh override stack on config.Default().
func NewEngine(backend tensor.Backend, opts ...EngineOption) *Engine {
	return autograd.NewEngine(backend, opts...)
}

// WithConfig makes the engine use l as its override stack.
func WithConfig(l *config.Local) EngineOption { return autograd.WithConfig(l) }

// WithGlobal layers the engine's override stack on g.
func WithGlobal(g *config.Global) EngineOption { return autograd.WithGlobal(g) }

// WithLogger sets the engine's logger.
func WithLogger(logger logr.Logger) EngineOption { return autograd.WithLogger(logger) }

// WithHooks registers hooks in order.
func WithHooks(hooks ...Hook) EngineOption { return autograd.WithHooks(hooks...) }

// NewVariable wraps data in a leaf variable.
func NewVariable(data *tensor.RawTensor, opts ...VariableOption) *Variable {
	return autograd.NewVariable(data, opts...)
}

// NewParameter returns a named leaf that requires a gradient.
func NewParameter(name string, data *tensor.RawTensor) *Variable {
	return autograd.NewParameter(name, data)
}

// WithName names a variable.
func WithName(name string) VariableOption { return autograd.WithName(name) }

// WithRequiresGrad sets whether a leaf takes part in gradient computation.
func WithRequiresGrad(requires bool) VariableOption { return autograd.WithRequiresGrad(requires) }

// WithGradOutputs sets the seed gradient of each output.
func WithGradOutputs(seeds ...*Variable) GradOption { return autograd.WithGradOutputs(seeds...) }

// StopAt treats vars as leaves of the traversal.
func StopAt(vars ...*Variable) GradOption { return autograd.StopAt(vars...) }

// RetainGraph keeps nodes and intermediate data after the pass.
func RetainGraph(retain bool) GradOption { return autograd.RetainGraph(retain) }

// EnableDoubleBackprop records the backward computation itself.
func EnableDoubleBackprop(enable bool) GradOption { return autograd.EnableDoubleBackprop(enable) }

// SetGrad also accumulates into the Grad of every leaf reached.
func SetGrad(set bool) GradOption { return autograd.SetGrad(set) }

// NewLogHook returns a hook that logs every forward and backward call.
func NewLogHook(logger logr.Logger) *LogHook { return autograd.NewLogHook(logger) }

// NewCountHook returns a hook that counts calls per function label.
func NewCountHook() *CountHook { return autograd.NewCountHook() }

// Type constraints.

// ExpectNumInputs requires exactly n inputs.
func ExpectNumInputs(n int) Constraint { return autograd.ExpectNumInputs(n) }

// ExpectMinInputs requires at least n inputs.
func ExpectMinInputs(n int) Constraint { return autograd.ExpectMinInputs(n) }

// ExpectFloat requires the listed inputs to have a floating point dtype.
func ExpectFloat(indexes ...int) Constraint { return autograd.ExpectFloat(indexes...) }

// ExpectSameDType requires every input to share the first input's dtype.
func ExpectSameDType() Constraint { return autograd.ExpectSameDType() }

// ExpectSameShape requires every input to share the first input's shape.
func ExpectSameShape() Constraint { return autograd.ExpectSameShape() }

// ExpectNDim requires input i to have ndim dimensions.
func ExpectNDim(i, ndim int) Constraint { return autograd.ExpectNDim(i, ndim) }

// ExpectBroadcastable requires inputs i and j to broadcast together.
func ExpectBroadcastable(i, j int) Constraint { return autograd.ExpectBroadcastable(i, j) }

// ExpectBroadcastableTo requires input i to broadcast to shape.
func ExpectBroadcastableTo(i int, shape tensor.Shape) Constraint {
	return autograd.ExpectBroadcastableTo(i, shape)
}
