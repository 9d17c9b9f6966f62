package autograd

import (
	"fmt"
	"runtime"
	"strings"

	"go.uber.org/multierr"

	"github.com/born-ml/graphgrad/internal/tensor"
)

// Frames from these packages are skipped when recording where a node was built.
var internalPrefixes = []string{
	"github.com/born-ml/graphgrad/internal/autograd.",
	"github.com/born-ml/graphgrad/internal/autograd/functions.",
	"github.com/born-ml/graphgrad/autograd.",
	"github.com/born-ml/graphgrad/functions.",
}

func callSite() string {
	pcs := make([]uintptr, 32)
	n := runtime.Callers(2, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()
		if !isInternalFrame(frame.Function) {
			return fmt.Sprintf("%s:%d %s", frame.File, frame.Line, frame.Function)
		}
		if !more {
			return ""
		}
	}
}

func isInternalFrame(function string) bool {
	for _, p := range internalPrefixes {
		if strings.HasPrefix(function, p) {
			return true
		}
	}
	return false
}

func (e *Engine) checkNaN(label string, outputs []*tensor.RawTensor) error {
	for j, out := range outputs {
		if out.DType().IsFloat() && e.backend.HasNaN(out) {
			return fmt.Errorf("%w: %s output %d", ErrNaN, label, j)
		}
	}
	return nil
}

// validateGrads checks gradients returned by a backward step against the
// node's inputs. Every problem is reported.
func (e *Engine) validateGrads(n *FunctionNode, gxs []*Variable) error {
	var errs error
	for i, gx := range gxs {
		if gx == nil {
			continue
		}
		in := n.inputs[i]
		if err := checkGradFor(in, gx); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("input %d: %w", i, err))
			continue
		}
		if gx.DType().IsFloat() && e.backend.HasNaN(gx.data) {
			errs = multierr.Append(errs, fmt.Errorf("%w: gradient of input %d", ErrNaN, i))
		}
	}
	return errs
}
