package functions

import (
	"github.com/born-ml/graphgrad/internal/autograd"
	"github.com/born-ml/graphgrad/internal/tensor"
)

// IdentityOp returns its inputs unchanged, one output per input. Output
// gradients pass straight through; an absent one stays absent.
type IdentityOp struct{}

func (IdentityOp) Label() string { return "Identity" }

func (IdentityOp) Forward(_ *autograd.ForwardContext, in []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	outs := make([]*tensor.RawTensor, len(in))
	for i, x := range in {
		outs[i] = x.Clone()
	}
	return outs, nil
}

func (IdentityOp) Backward(_ *autograd.BackwardContext, gys []*autograd.Variable) ([]*autograd.Variable, error) {
	gxs := make([]*autograd.Variable, len(gys))
	copy(gxs, gys)
	return gxs, nil
}

// Identity passes xs through a single node.
func Identity(e *autograd.Engine, xs ...*autograd.Variable) ([]*autograd.Variable, error) {
	return e.Apply(IdentityOp{}, xs...)
}
