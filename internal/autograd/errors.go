package autograd

import (
	"errors"
	"fmt"

	"github.com/born-ml/graphgrad/internal/tensor"
)

// Sentinel errors. Typed errors below match them with errors.Is.
var (
	// ErrInvalidGraphMutation is returned when a creator is set on a variable that already has one.
	ErrInvalidGraphMutation = errors.New("invalid graph mutation")
	// ErrTypeCheck is returned when a declared function constraint does not hold.
	ErrTypeCheck = errors.New("type check failed")
	// ErrShapeOrArity is returned on input or output count mismatches.
	ErrShapeOrArity = errors.New("shape or arity mismatch")
	// ErrGradMismatch is returned when a gradient does not match its variable's shape or dtype.
	ErrGradMismatch = errors.New("gradient mismatch")
	// ErrNotFloat is returned when a gradient would have to be seeded for a non floating type.
	ErrNotFloat = errors.New("dtype is not floating point")
	// ErrPartialBackward is returned when a backward pass aborts midway.
	ErrPartialBackward = errors.New("backward pass failed")
	// ErrNoGraph is returned by Backward on a variable without a creator.
	ErrNoGraph = errors.New("variable has no graph")
	// ErrGraphReleased is returned when a released node or variable is used.
	ErrGraphReleased = errors.New("graph has been released")
	// ErrDuplicateHook is returned when a hook name is registered twice.
	ErrDuplicateHook = errors.New("duplicate hook")
	// ErrNaN is returned in debug mode when a computation produces NaN.
	ErrNaN = errors.New("NaN detected")
)

// TypeCheckError describes the first violated constraint of a function.
type TypeCheckError struct {
	Function   string
	Constraint string
	Detail     string
	Stack      string
}

func (e *TypeCheckError) Error() string {
	msg := fmt.Sprintf("autograd: %s: invalid type (constraint %s): %s", e.Function, e.Constraint, e.Detail)
	if e.Stack != "" {
		msg += "\ncalled from " + e.Stack
	}
	return msg
}

// Is reports whether target is ErrTypeCheck.
func (e *TypeCheckError) Is(target error) bool {
	return target == ErrTypeCheck
}

// ArityError reports a wrong number of inputs.
type ArityError struct {
	Function string
	Expected int
	Got      int
}

func (e *ArityError) Error() string {
	return fmt.Sprintf("autograd: %s expects %d inputs, got %d", e.Function, e.Expected, e.Got)
}

// Is reports whether target is ErrShapeOrArity.
func (e *ArityError) Is(target error) bool {
	return target == ErrShapeOrArity
}

// GradMismatchError reports a gradient whose shape or dtype differs from its variable.
type GradMismatchError struct {
	Name          string
	ExpectedShape tensor.Shape
	ActualShape   tensor.Shape
	ExpectedDType tensor.DataType
	ActualDType   tensor.DataType
}

func (e *GradMismatchError) Error() string {
	name := e.Name
	if name == "" {
		name = "<unnamed>"
	}
	return fmt.Sprintf("autograd: gradient of %s: expected %s%v, got %s%v",
		name, e.ExpectedDType, e.ExpectedShape, e.ActualDType, e.ActualShape)
}

// Is reports whether target is ErrGradMismatch.
func (e *GradMismatchError) Is(target error) bool {
	return target == ErrGradMismatch
}

// BackwardError wraps the failure that aborted a backward pass.
type BackwardError struct {
	Function string
	Rank     int
	Stack    string
	Err      error
}

func (e *BackwardError) Error() string {
	msg := fmt.Sprintf("autograd: backward of %s (rank %d): %v", e.Function, e.Rank, e.Err)
	if e.Stack != "" {
		msg += "\ncreated at " + e.Stack
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *BackwardError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrPartialBackward.
func (e *BackwardError) Is(target error) bool {
	return target == ErrPartialBackward
}

func checkGradFor(v *Variable, g *Variable) error {
	if g.Shape().Equal(v.Shape()) && g.DType() == v.DType() {
		return nil
	}
	return &GradMismatchError{
		Name:          v.name,
		ExpectedShape: v.Shape(),
		ActualShape:   g.Shape(),
		ExpectedDType: v.DType(),
		ActualDType:   g.DType(),
	}
}
