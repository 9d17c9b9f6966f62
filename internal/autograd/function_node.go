package autograd

import (
	"weak"

	"github.com/born-ml/graphgrad/internal/tensor"
)

// FunctionNode records one application of a Function.
//
// Inputs are back-references used to route gradients. Outputs are weak: a
// node never keeps its outputs alive. Retained forward data is held through
// separate tensor handles so that it is freed exactly when the node is
// released and no other handle remains.
type FunctionNode struct {
	fn     Function
	engine *Engine

	inputs       []*Variable
	inputShapes  []tensor.Shape
	inputDTypes  []tensor.DataType
	outputs      []weak.Pointer[Variable]
	outputShapes []tensor.Shape
	outputDTypes []tensor.DataType

	retainedInputs  []*tensor.RawTensor
	retainedOutputs []*tensor.RawTensor

	rank         int
	requiresGrad bool
	stack        string
	released     bool
}

func newFunctionNode(e *Engine, fn Function, inputs []*Variable, stack string) *FunctionNode {
	n := &FunctionNode{
		fn:             fn,
		engine:         e,
		inputs:         inputs,
		inputShapes:    make([]tensor.Shape, len(inputs)),
		inputDTypes:    make([]tensor.DataType, len(inputs)),
		retainedInputs: make([]*tensor.RawTensor, len(inputs)),
		stack:          stack,
	}
	for i, in := range inputs {
		n.inputShapes[i] = in.Shape()
		n.inputDTypes[i] = in.DType()
		n.rank = max(n.rank, in.rank)
		n.requiresGrad = n.requiresGrad || in.requiresGrad
	}
	return n
}

// Function returns the applied function.
func (n *FunctionNode) Function() Function {
	return n.fn
}

// Label returns the function label.
func (n *FunctionNode) Label() string {
	return n.fn.Label()
}

// Rank returns the maximum rank of the inputs.
func (n *FunctionNode) Rank() int {
	return n.rank
}

// Inputs returns the input variables. It is empty once the node is released.
func (n *FunctionNode) Inputs() []*Variable {
	out := make([]*Variable, len(n.inputs))
	copy(out, n.inputs)
	return out
}

// Outputs returns the output variables still alive; collected ones are nil.
func (n *FunctionNode) Outputs() []*Variable {
	out := make([]*Variable, len(n.outputs))
	for j, w := range n.outputs {
		out[j] = w.Value()
	}
	return out
}

// NumOutputs returns the number of outputs.
func (n *FunctionNode) NumOutputs() int {
	return len(n.outputs)
}

// Released reports whether a backward pass has released the node.
func (n *FunctionNode) Released() bool {
	return n.released
}

// Stack returns where the node was created. It is recorded in debug mode only.
func (n *FunctionNode) Stack() string {
	return n.stack
}

// RetainedInputCount reports how many input arrays the node holds.
func (n *FunctionNode) RetainedInputCount() int {
	return countNonNil(n.retainedInputs)
}

// RetainedOutputCount reports how many output arrays the node holds.
func (n *FunctionNode) RetainedOutputCount() int {
	return countNonNil(n.retainedOutputs)
}

func (n *FunctionNode) release() {
	for i, raw := range n.retainedInputs {
		if raw != nil {
			raw.Release()
			n.retainedInputs[i] = nil
		}
	}
	for j, raw := range n.retainedOutputs {
		if raw != nil {
			raw.Release()
			n.retainedOutputs[j] = nil
		}
	}
	n.inputs = nil
	n.released = true
}

func countNonNil(raws []*tensor.RawTensor) int {
	n := 0
	for _, r := range raws {
		if r != nil {
			n++
		}
	}
	return n
}
