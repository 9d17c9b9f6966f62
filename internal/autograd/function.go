package autograd

import (
	"fmt"
	"slices"

	"github.com/born-ml/graphgrad/internal/config"
	"github.com/born-ml/graphgrad/internal/tensor"
)

// Function is a differentiable operation.
//
// Forward computes output arrays from input arrays. The returned tensors are
// owned by the engine: to pass an input through unchanged, return a Clone of
// it. Forward declares which inputs and outputs its backward needs through
// the ForwardContext; nothing else is kept once the forward call returns.
//
// Backward maps output gradients to input gradients. gradOutputs has one
// entry per output; a nil entry means no gradient reached that output. The
// result must have one entry per input; a nil entry means no gradient for
// that input. Backward should compute with Variables through ctx.Engine() so
// that double backprop can trace it.
type Function interface {
	Label() string
	Forward(ctx *ForwardContext, inputs []*tensor.RawTensor) ([]*tensor.RawTensor, error)
	Backward(ctx *BackwardContext, gradOutputs []*Variable) ([]*Variable, error)
}

// Arity is implemented by functions with a fixed number of inputs.
type Arity interface {
	NumInputs() int
}

// TypeChecker is implemented by functions that declare input constraints.
// They are evaluated before Forward when the type_check option is on.
type TypeChecker interface {
	TypeConstraints() []Constraint
}

// ForwardContext is passed to Function.Forward.
type ForwardContext struct {
	engine        *Engine
	numInputs     int
	retainInputs  []int
	retainOutputs []int
}

// Backend returns the numeric backend to compute with.
func (c *ForwardContext) Backend() tensor.Backend {
	return c.engine.backend
}

// Config returns the configuration of the applying engine.
func (c *ForwardContext) Config() *config.Local {
	return c.engine.local
}

// RetainInputs keeps the listed inputs for Backward.
func (c *ForwardContext) RetainInputs(indexes ...int) {
	c.retainInputs = append(c.retainInputs, indexes...)
}

// RetainOutputs keeps the listed outputs for Backward.
func (c *ForwardContext) RetainOutputs(indexes ...int) {
	c.retainOutputs = append(c.retainOutputs, indexes...)
}

func (c *ForwardContext) validate(numOutputs int) error {
	for _, i := range c.retainInputs {
		if i < 0 || i >= c.numInputs {
			return fmt.Errorf("%w: retained input index %d out of range [0, %d)", ErrShapeOrArity, i, c.numInputs)
		}
	}
	for _, i := range c.retainOutputs {
		if i < 0 || i >= numOutputs {
			return fmt.Errorf("%w: retained output index %d out of range [0, %d)", ErrShapeOrArity, i, numOutputs)
		}
	}
	return nil
}

// BackwardContext is passed to Function.Backward.
type BackwardContext struct {
	engine  *Engine
	node    *FunctionNode
	targets []int
}

// Engine returns the engine to apply gradient computations with. Its
// enable_backprop option is on only under double backprop.
func (c *BackwardContext) Engine() *Engine {
	return c.engine
}

// Backend returns the numeric backend.
func (c *BackwardContext) Backend() tensor.Backend {
	return c.engine.backend
}

// Node returns the node being differentiated.
func (c *BackwardContext) Node() *FunctionNode {
	return c.node
}

// NumInputs returns the number of forward inputs.
func (c *BackwardContext) NumInputs() int {
	return len(c.node.inputShapes)
}

// RetainedInputs returns the forward inputs kept by RetainInputs, indexed by
// input position. Entries that were not retained are nil.
func (c *BackwardContext) RetainedInputs() []*Variable {
	out := make([]*Variable, len(c.node.retainedInputs))
	for i, raw := range c.node.retainedInputs {
		if raw == nil {
			continue
		}
		in := c.node.inputs[i]
		if !in.released {
			out[i] = in
			continue
		}
		v := newVariable(raw.Clone(), in.requiresGrad)
		v.name = in.name
		v.creator, v.creatorIndex, v.rank = in.creator, in.creatorIndex, in.rank
		out[i] = v
	}
	return out
}

// RetainedOutputs returns the forward outputs kept by RetainOutputs, indexed
// by output position. Entries that were not retained are nil. An output that
// has been garbage collected is rebuilt from the retained data.
func (c *BackwardContext) RetainedOutputs() []*Variable {
	out := make([]*Variable, len(c.node.retainedOutputs))
	for j, raw := range c.node.retainedOutputs {
		if raw == nil {
			continue
		}
		if v := c.node.outputs[j].Value(); v != nil && !v.released {
			out[j] = v
			continue
		}
		v := newVariable(raw.Clone(), c.node.requiresGrad)
		v.creator, v.creatorIndex, v.rank = c.node, j, c.node.rank+1
		out[j] = v
	}
	return out
}

// Requires reports whether input i needs a gradient.
func (c *BackwardContext) Requires(i int) bool {
	return slices.Contains(c.targets, i)
}

// TargetInputIndexes returns the positions of the inputs that need a gradient.
func (c *BackwardContext) TargetInputIndexes() []int {
	return slices.Clone(c.targets)
}

// InputShape returns the shape input i had in the forward pass.
func (c *BackwardContext) InputShape(i int) tensor.Shape {
	return c.node.inputShapes[i]
}

// InputDType returns the dtype input i had in the forward pass.
func (c *BackwardContext) InputDType(i int) tensor.DataType {
	return c.node.inputDTypes[i]
}

// OutputShape returns the shape of output j.
func (c *BackwardContext) OutputShape(j int) tensor.Shape {
	return c.node.outputShapes[j]
}
