package autograd

import (
	"fmt"

	"github.com/born-ml/graphgrad/internal/tensor"
)

// accumulate sums gradients of the same variable. It is applied through the
// engine so that accumulation is traced under double backprop.
type accumulate struct {
	n int
}

func (f *accumulate) Label() string { return "_accumulate" }

func (f *accumulate) NumInputs() int { return f.n }

func (f *accumulate) TypeConstraints() []Constraint {
	return []Constraint{ExpectSameShape(), ExpectSameDType()}
}

func (f *accumulate) Forward(ctx *ForwardContext, inputs []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	b := ctx.Backend()
	acc, err := b.Add(inputs[0], inputs[1])
	if err != nil {
		return nil, err
	}
	for _, x := range inputs[2:] {
		next, err := b.Add(acc, x)
		acc.Release()
		if err != nil {
			return nil, err
		}
		acc = next
	}
	return []*tensor.RawTensor{acc}, nil
}

func (f *accumulate) Backward(_ *BackwardContext, gys []*Variable) ([]*Variable, error) {
	gxs := make([]*Variable, f.n)
	for i := range gxs {
		gxs[i] = gys[0]
	}
	return gxs, nil
}

// sum adds gradients in the given order.
func (e *Engine) sum(grads []*Variable) (*Variable, error) {
	switch len(grads) {
	case 0:
		return nil, nil
	case 1:
		return grads[0], nil
	}
	g, err := e.Apply1(&accumulate{n: len(grads)}, grads...)
	if err != nil {
		return nil, fmt.Errorf("accumulate gradients: %w", err)
	}
	return g, nil
}
