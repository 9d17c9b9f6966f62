package autograd

import (
	"errors"
	"fmt"

	"github.com/born-ml/graphgrad/internal/tensor"
)

// Constraint is a named predicate over the input arrays of a function.
// Check returns a descriptive error when the inputs violate it.
type Constraint struct {
	Name  string
	Check func(inputs []*tensor.RawTensor) error
}

var errMissingInput = errors.New("missing input")

func inputAt(inputs []*tensor.RawTensor, i int) (*tensor.RawTensor, error) {
	if i < 0 || i >= len(inputs) {
		return nil, fmt.Errorf("%w %d (have %d)", errMissingInput, i, len(inputs))
	}
	return inputs[i], nil
}

// ExpectNumInputs requires exactly n inputs.
func ExpectNumInputs(n int) Constraint {
	return Constraint{
		Name: fmt.Sprintf("len(in) == %d", n),
		Check: func(inputs []*tensor.RawTensor) error {
			if len(inputs) != n {
				return fmt.Errorf("expected %d inputs, got %d", n, len(inputs))
			}
			return nil
		},
	}
}

// ExpectMinInputs requires at least n inputs.
func ExpectMinInputs(n int) Constraint {
	return Constraint{
		Name: fmt.Sprintf("len(in) >= %d", n),
		Check: func(inputs []*tensor.RawTensor) error {
			if len(inputs) < n {
				return fmt.Errorf("expected at least %d inputs, got %d", n, len(inputs))
			}
			return nil
		},
	}
}

// ExpectFloat requires the listed inputs to have a floating point dtype.
func ExpectFloat(indexes ...int) Constraint {
	return Constraint{
		Name: fmt.Sprintf("in%v.dtype.kind == float", indexes),
		Check: func(inputs []*tensor.RawTensor) error {
			for _, i := range indexes {
				x, err := inputAt(inputs, i)
				if err != nil {
					return err
				}
				if !x.DType().IsFloat() {
					return fmt.Errorf("input %d has dtype %s", i, x.DType())
				}
			}
			return nil
		},
	}
}

// ExpectSameDType requires every input to share the dtype of the first one.
func ExpectSameDType() Constraint {
	return Constraint{
		Name: "in[*].dtype == in[0].dtype",
		Check: func(inputs []*tensor.RawTensor) error {
			for i := 1; i < len(inputs); i++ {
				if inputs[i].DType() != inputs[0].DType() {
					return fmt.Errorf("input %d has dtype %s, input 0 has %s", i, inputs[i].DType(), inputs[0].DType())
				}
			}
			return nil
		},
	}
}

// ExpectSameShape requires every input to share the shape of the first one.
func ExpectSameShape() Constraint {
	return Constraint{
		Name: "in[*].shape == in[0].shape",
		Check: func(inputs []*tensor.RawTensor) error {
			for i := 1; i < len(inputs); i++ {
				if !inputs[i].Shape().Equal(inputs[0].Shape()) {
					return fmt.Errorf("input %d has shape %v, input 0 has %v", i, inputs[i].Shape(), inputs[0].Shape())
				}
			}
			return nil
		},
	}
}

// ExpectNDim requires input i to have exactly ndim dimensions.
func ExpectNDim(i, ndim int) Constraint {
	return Constraint{
		Name: fmt.Sprintf("in%d.ndim == %d", i, ndim),
		Check: func(inputs []*tensor.RawTensor) error {
			x, err := inputAt(inputs, i)
			if err != nil {
				return err
			}
			if x.Shape().NDim() != ndim {
				return fmt.Errorf("input %d has shape %v", i, x.Shape())
			}
			return nil
		},
	}
}

// ExpectBroadcastable requires inputs i and j to broadcast together.
func ExpectBroadcastable(i, j int) Constraint {
	return Constraint{
		Name: fmt.Sprintf("broadcastable(in%d, in%d)", i, j),
		Check: func(inputs []*tensor.RawTensor) error {
			a, err := inputAt(inputs, i)
			if err != nil {
				return err
			}
			b, err := inputAt(inputs, j)
			if err != nil {
				return err
			}
			if _, _, err := tensor.BroadcastShapes(a.Shape(), b.Shape()); err != nil {
				return err
			}
			return nil
		},
	}
}

// ExpectBroadcastableTo requires input i to broadcast to shape.
func ExpectBroadcastableTo(i int, shape tensor.Shape) Constraint {
	return Constraint{
		Name: fmt.Sprintf("in%d.shape broadcastable to %v", i, shape),
		Check: func(inputs []*tensor.RawTensor) error {
			x, err := inputAt(inputs, i)
			if err != nil {
				return err
			}
			if !x.Shape().CanBroadcastTo(shape) {
				return fmt.Errorf("input %d has shape %v", i, x.Shape())
			}
			return nil
		},
	}
}

func (e *Engine) checkTypes(fn Function, inputs []*tensor.RawTensor, stack string) error {
	tc, ok := fn.(TypeChecker)
	if !ok {
		return nil
	}
	for _, c := range tc.TypeConstraints() {
		if err := c.Check(inputs); err != nil {
			return &TypeCheckError{
				Function:   fn.Label(),
				Constraint: c.Name,
				Detail:     err.Error(),
				Stack:      stack,
			}
		}
	}
	return nil
}
