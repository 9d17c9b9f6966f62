package autograd

import (
	"fmt"
	"weak"

	"github.com/born-ml/graphgrad/internal/config"
	"github.com/born-ml/graphgrad/internal/tensor"
)

// Apply runs fn on inputs and returns its outputs.
//
// When backprop is enabled the outputs are linked to a new FunctionNode whose
// rank is the maximum rank of the inputs. Otherwise the outputs are leaves
// and no node is allocated.
func (e *Engine) Apply(fn Function, inputs ...*Variable) ([]*Variable, error) {
	label := fn.Label()
	raws := make([]*tensor.RawTensor, len(inputs))
	for i, in := range inputs {
		if in == nil {
			return nil, fmt.Errorf("%w: %s input %d is nil", ErrShapeOrArity, label, i)
		}
		if in.released {
			return nil, fmt.Errorf("%w: %s input %d (%s)", ErrGraphReleased, label, i, in.describe())
		}
		raws[i] = in.data
	}
	if a, ok := fn.(Arity); ok && a.NumInputs() != len(inputs) {
		return nil, &ArityError{Function: label, Expected: a.NumInputs(), Got: len(inputs)}
	}

	debug := config.IsDebug(e.local)
	var stack string
	if debug {
		stack = callSite()
	}
	if e.local.Bool(config.KeyTypeCheck) {
		if err := e.checkTypes(fn, raws, stack); err != nil {
			return nil, err
		}
	}

	e.forwardPreprocess(fn, raws)
	ctx := &ForwardContext{engine: e, numInputs: len(inputs)}
	outs, err := fn.Forward(ctx, raws)
	if err != nil {
		return nil, fmt.Errorf("autograd: %s forward: %w", label, err)
	}
	if err := checkOutputs(label, raws, outs); err != nil {
		return nil, err
	}
	if err := ctx.validate(len(outs)); err != nil {
		releaseAll(outs)
		return nil, fmt.Errorf("autograd: %s: %w", label, err)
	}
	if debug {
		if err := e.checkNaN(label, outs); err != nil {
			releaseAll(outs)
			return nil, err
		}
	}
	e.forwardPostprocess(fn, raws, outs)

	requiresGrad := false
	for _, in := range inputs {
		requiresGrad = requiresGrad || in.requiresGrad
	}

	outputs := make([]*Variable, len(outs))
	if !e.BackpropEnabled() {
		for j, raw := range outs {
			outputs[j] = newVariable(raw, requiresGrad)
		}
		return outputs, nil
	}

	node := newFunctionNode(e, fn, append([]*Variable(nil), inputs...), stack)
	node.outputs = make([]weak.Pointer[Variable], len(outs))
	node.outputShapes = make([]tensor.Shape, len(outs))
	node.outputDTypes = make([]tensor.DataType, len(outs))
	node.retainedOutputs = make([]*tensor.RawTensor, len(outs))
	for j, raw := range outs {
		v := newVariable(raw, requiresGrad)
		v.creator = node
		v.creatorIndex = j
		v.rank = node.rank + 1
		node.outputs[j] = weak.Make(v)
		node.outputShapes[j] = raw.Shape()
		node.outputDTypes[j] = raw.DType()
		outputs[j] = v
	}
	for _, i := range ctx.retainInputs {
		if node.retainedInputs[i] == nil {
			node.retainedInputs[i] = raws[i].Clone()
		}
	}
	for _, j := range ctx.retainOutputs {
		if node.retainedOutputs[j] == nil {
			node.retainedOutputs[j] = outs[j].Clone()
		}
	}

	if log := e.logger.V(2); log.Enabled() {
		log.Info("apply", "function", label, "rank", node.rank, "inputs", len(inputs), "outputs", len(outs))
	}
	return outputs, nil
}

// Apply1 applies a single-output function.
func (e *Engine) Apply1(fn Function, inputs ...*Variable) (*Variable, error) {
	outs, err := e.Apply(fn, inputs...)
	if err != nil {
		return nil, err
	}
	if len(outs) != 1 {
		return nil, fmt.Errorf("%w: %s returned %d outputs, expected 1", ErrShapeOrArity, fn.Label(), len(outs))
	}
	return outs[0], nil
}

func checkOutputs(label string, inputs, outputs []*tensor.RawTensor) error {
	if len(outputs) == 0 {
		return fmt.Errorf("%w: %s returned no outputs", ErrShapeOrArity, label)
	}
	for j, out := range outputs {
		if out == nil {
			return fmt.Errorf("%w: %s output %d is nil", ErrShapeOrArity, label, j)
		}
		for i, in := range inputs {
			if out == in {
				return fmt.Errorf("autograd: %s output %d is input %d; return a clone instead", label, j, i)
			}
		}
	}
	return nil
}

func releaseAll(raws []*tensor.RawTensor) {
	for _, r := range raws {
		if r != nil {
			r.Release()
		}
	}
}
