package autograd

import (
	"fmt"
	"runtime"

	"github.com/born-ml/graphgrad/internal/tensor"
)

// Variable is a differentiable value: an array, an optional gradient and an
// optional link to the FunctionNode that produced it.
//
// A Variable without a creator is a leaf. Leaves created by NewVariable
// require a gradient unless told otherwise; function outputs require one when
// any of their inputs does.
type Variable struct {
	data *tensor.RawTensor
	grad *Variable

	creator      *FunctionNode
	creatorIndex int
	rank         int

	name         string
	requiresGrad bool
	retainData   bool
	released     bool
}

// VariableOption configures a new Variable.
type VariableOption func(*Variable)

// WithName sets a diagnostic name.
func WithName(name string) VariableOption {
	return func(v *Variable) {
		v.name = name
	}
}

// WithRequiresGrad sets whether gradients are accumulated for the variable.
func WithRequiresGrad(requires bool) VariableOption {
	return func(v *Variable) {
		v.requiresGrad = requires
	}
}

// NewVariable wraps data in a leaf Variable. The Variable takes ownership of
// the handle and releases it when the Variable is garbage collected.
func NewVariable(data *tensor.RawTensor, opts ...VariableOption) *Variable {
	v := newVariable(data, true)
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// NewParameter creates a named leaf that requires a gradient.
func NewParameter(name string, data *tensor.RawTensor) *Variable {
	return NewVariable(data, WithName(name), WithRequiresGrad(true))
}

func newVariable(data *tensor.RawTensor, requiresGrad bool) *Variable {
	if data == nil {
		panic("autograd: nil variable data")
	}
	v := &Variable{data: data, requiresGrad: requiresGrad}
	runtime.AddCleanup(v, (*tensor.RawTensor).Release, data)
	return v
}

// Data returns the array held by the variable.
func (v *Variable) Data() *tensor.RawTensor {
	return v.data
}

// Shape returns the shape of the data.
func (v *Variable) Shape() tensor.Shape {
	return v.data.Shape()
}

// DType returns the data type of the data.
func (v *Variable) DType() tensor.DataType {
	return v.data.DType()
}

// Name returns the diagnostic name, possibly empty.
func (v *Variable) Name() string {
	return v.name
}

// SetName sets the diagnostic name.
func (v *Variable) SetName(name string) {
	v.name = name
}

// Rank returns the topological depth: creator rank + 1, or 0 for a leaf.
func (v *Variable) Rank() int {
	return v.rank
}

// Creator returns the node that produced the variable, or nil for a leaf.
func (v *Variable) Creator() *FunctionNode {
	return v.creator
}

// CreatorIndex returns the position of the variable among its creator's outputs.
func (v *Variable) CreatorIndex() int {
	return v.creatorIndex
}

// IsLeaf reports whether the variable has no creator.
func (v *Variable) IsLeaf() bool {
	return v.creator == nil
}

// RequiresGrad reports whether gradients flow into the variable.
func (v *Variable) RequiresGrad() bool {
	return v.requiresGrad
}

// Released reports whether a backward pass has dropped the variable's data.
func (v *Variable) Released() bool {
	return v.released
}

// RetainData keeps the data of an intermediate variable alive through
// backward passes that do not retain the graph.
func (v *Variable) RetainData() {
	v.retainData = true
}

// SetCreator links the variable to node as its index-th output.
// A variable that already has a creator must be unchained first.
func (v *Variable) SetCreator(node *FunctionNode, index int) error {
	if v.creator != nil {
		return fmt.Errorf("%w: %s already created by %s", ErrInvalidGraphMutation, v.describe(), v.creator.Label())
	}
	if node == nil {
		return fmt.Errorf("%w: nil creator for %s", ErrInvalidGraphMutation, v.describe())
	}
	if index < 0 || index >= node.NumOutputs() {
		return fmt.Errorf("%w: output index %d out of range for %s with %d outputs",
			ErrInvalidGraphMutation, index, node.Label(), node.NumOutputs())
	}
	v.creator = node
	v.creatorIndex = index
	v.rank = node.rank + 1
	return nil
}

// Unchain detaches the variable from its creator, turning it into a root.
// Backward passes through the variable stop here.
func (v *Variable) Unchain() {
	v.creator = nil
	v.creatorIndex = 0
	v.rank = 0
}

// UnchainBackward unchains the variable and every variable reachable from it
// through creators, and drops the inputs of the nodes in between.
func (v *Variable) UnchainBackward() {
	if v.creator == nil {
		return
	}
	seen := map[*FunctionNode]bool{v.creator: true}
	pending := []*FunctionNode{v.creator}
	for len(pending) > 0 {
		node := pending[len(pending)-1]
		pending = pending[:len(pending)-1]
		for _, in := range node.inputs {
			if c := in.creator; c != nil && !seen[c] {
				seen[c] = true
				pending = append(pending, c)
			}
		}
		for _, out := range node.Outputs() {
			if out != nil && out.creator == node {
				out.Unchain()
			}
		}
		node.release()
	}
	v.Unchain()
}

// Grad returns the accumulated gradient, or nil.
func (v *Variable) Grad() *Variable {
	return v.grad
}

// SetGrad replaces the gradient. g must match the variable's shape and dtype;
// nil clears it.
func (v *Variable) SetGrad(g *Variable) error {
	if g != nil {
		if err := checkGradFor(v, g); err != nil {
			return err
		}
	}
	v.grad = g
	return nil
}

// ClearGrad drops the gradient.
func (v *Variable) ClearGrad() {
	v.grad = nil
}

// Backward computes the gradients of every leaf that contributes to v and
// accumulates them into their Grad. The seed is v's current gradient, or ones
// when none is set.
//
// Unless RetainGraph(true) or EnableDoubleBackprop(true) is given, the graph
// is released as it is walked and cannot be walked again.
func (v *Variable) Backward(opts ...GradOption) error {
	if v.creator == nil {
		return fmt.Errorf("%w: %s is a leaf", ErrNoGraph, v.describe())
	}
	e := v.creator.engine
	if v.grad == nil {
		seed, err := e.onesLike(v)
		if err != nil {
			return err
		}
		v.grad = seed
	}

	cfg := newGradConfig(opts)
	cfg.seeds = []*Variable{v.grad}
	cfg.setGrad = true
	_, err := e.backward(cfg, []*Variable{v}, nil, true)
	return err
}

// release drops the data handle and gradient of an intermediate variable.
func (v *Variable) release() {
	v.data.Release()
	v.grad = nil
	v.released = true
}

func (v *Variable) describe() string {
	if v.name != "" {
		return fmt.Sprintf("variable %q", v.name)
	}
	return fmt.Sprintf("variable %s%v", v.DType(), v.Shape())
}

// String implements fmt.Stringer.
func (v *Variable) String() string {
	if v.creator == nil {
		return v.describe()
	}
	return fmt.Sprintf("%s (from %s, rank %d)", v.describe(), v.creator.Label(), v.rank)
}
