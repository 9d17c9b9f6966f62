// Package gradcheck compares the gradients produced by the autograd engine
// with central finite differences.
package gradcheck

import (
	"fmt"
	"math"

	"github.com/born-ml/graphgrad/internal/autograd"
	"github.com/born-ml/graphgrad/internal/autograd/functions"
	"github.com/born-ml/graphgrad/internal/tensor"
)

// Func builds the checked computation from its inputs.
type Func func(e *autograd.Engine, xs []*autograd.Variable) (*autograd.Variable, error)

// Options controls the perturbation size and the accepted error.
// An element passes when |analytic - numeric| <= Atol + Rtol*|numeric|.
type Options struct {
	Eps  float64
	Atol float64
	Rtol float64
}

// DefaultOptions suits float64 computations of moderate magnitude.
func DefaultOptions() Options {
	return Options{Eps: 1e-6, Atol: 1e-5, Rtol: 1e-5}
}

// Mismatch is one element whose gradients disagree.
type Mismatch struct {
	Input    int
	Element  int
	Analytic float64
	Numeric  float64
}

func (m Mismatch) String() string {
	return fmt.Sprintf("input %d element %d: analytic %g, numeric %g", m.Input, m.Element, m.Analytic, m.Numeric)
}

// Result summarizes a check.
type Result struct {
	MaxError   float64
	Mismatches []Mismatch
}

// OK reports whether every element passed.
func (r Result) OK() bool {
	return len(r.Mismatches) == 0
}

// Check differentiates sum(f(xs)) with respect to every input and compares
// each element against a central difference. Inputs must be float64; they
// are copied and never modified.
func Check(e *autograd.Engine, f Func, inputs []*tensor.RawTensor, opts Options) (Result, error) {
	for i, x := range inputs {
		if x.DType() != tensor.Float64 {
			return Result{}, fmt.Errorf("gradcheck: input %d has dtype %s, want float64", i, x.DType())
		}
	}

	xs := leaves(inputs, -1, 0, 0)
	loss, err := sumOf(e, f, xs)
	if err != nil {
		return Result{}, err
	}
	grads, err := e.Grad([]*autograd.Variable{loss}, xs)
	if err != nil {
		return Result{}, fmt.Errorf("gradcheck: backward: %w", err)
	}

	var res Result
	for i, x := range inputs {
		analytic := make([]float64, x.NumElements())
		if grads[i] != nil {
			analytic = grads[i].Data().Float64s()
		}
		for k := range analytic {
			numeric, err := centralDifference(e, f, inputs, i, k, opts.Eps)
			if err != nil {
				return Result{}, err
			}
			diff := math.Abs(analytic[k] - numeric)
			res.MaxError = max(res.MaxError, diff)
			if diff > opts.Atol+opts.Rtol*math.Abs(numeric) || math.IsNaN(diff) {
				res.Mismatches = append(res.Mismatches, Mismatch{Input: i, Element: k, Analytic: analytic[k], Numeric: numeric})
			}
		}
	}
	return res, nil
}

func centralDifference(e *autograd.Engine, f Func, inputs []*tensor.RawTensor, i, k int, eps float64) (float64, error) {
	var plus, minus float64
	err := e.NoBackprop(func() error {
		var err error
		if plus, err = scalarOf(e, f, leaves(inputs, i, k, eps)); err != nil {
			return err
		}
		minus, err = scalarOf(e, f, leaves(inputs, i, k, -eps))
		return err
	})
	if err != nil {
		return 0, err
	}
	return (plus - minus) / (2 * eps), nil
}

// leaves copies inputs into fresh leaf variables, shifting element k of
// input i by delta. Pass i < 0 for an unperturbed copy.
func leaves(inputs []*tensor.RawTensor, i, k int, delta float64) []*autograd.Variable {
	xs := make([]*autograd.Variable, len(inputs))
	for j, x := range inputs {
		c := x.Copy()
		if j == i {
			c.AsFloat64()[k] += delta
		}
		xs[j] = autograd.NewVariable(c)
	}
	return xs
}

func sumOf(e *autograd.Engine, f Func, xs []*autograd.Variable) (*autograd.Variable, error) {
	y, err := f(e, xs)
	if err != nil {
		return nil, fmt.Errorf("gradcheck: forward: %w", err)
	}
	return functions.Sum(e, y)
}

func scalarOf(e *autograd.Engine, f Func, xs []*autograd.Variable) (float64, error) {
	s, err := sumOf(e, f, xs)
	if err != nil {
		return 0, err
	}
	return s.Data().Float64s()[0], nil
}
