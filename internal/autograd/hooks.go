package autograd

import (
	"fmt"
	"sync"

	"github.com/go-logr/logr"

	"github.com/born-ml/graphgrad/internal/tensor"
)

// Hook observes function applications and backward steps. A hook implements
// any subset of the processor interfaces below. Hooks run in the order they
// were added to the engine.
type Hook interface {
	Name() string
}

// ForwardPreprocessor runs before Function.Forward.
type ForwardPreprocessor interface {
	ForwardPreprocess(fn Function, inputs []*tensor.RawTensor)
}

// ForwardPostprocessor runs after Function.Forward succeeds.
type ForwardPostprocessor interface {
	ForwardPostprocess(fn Function, inputs, outputs []*tensor.RawTensor)
}

// BackwardPreprocessor runs before Function.Backward.
type BackwardPreprocessor interface {
	BackwardPreprocess(node *FunctionNode, gradOutputs []*Variable)
}

// BackwardPostprocessor runs after Function.Backward succeeds.
type BackwardPostprocessor interface {
	BackwardPostprocess(node *FunctionNode, gradOutputs, gradInputs []*Variable)
}

// AddHook registers h after the hooks already present.
func (e *Engine) AddHook(h Hook) error {
	for _, existing := range e.hooks {
		if existing.Name() == h.Name() {
			return fmt.Errorf("%w: %q", ErrDuplicateHook, h.Name())
		}
	}
	e.hooks = append(e.hooks, h)
	return nil
}

// RemoveHook unregisters the hook with the given name and reports whether it was present.
func (e *Engine) RemoveHook(name string) bool {
	for i, h := range e.hooks {
		if h.Name() == name {
			e.hooks = append(e.hooks[:i:i], e.hooks[i+1:]...)
			return true
		}
	}
	return false
}

// Hooks returns the registered hooks in order.
func (e *Engine) Hooks() []Hook {
	out := make([]Hook, len(e.hooks))
	copy(out, e.hooks)
	return out
}

func (e *Engine) forwardPreprocess(fn Function, inputs []*tensor.RawTensor) {
	for _, h := range e.hooks {
		if p, ok := h.(ForwardPreprocessor); ok {
			p.ForwardPreprocess(fn, inputs)
		}
	}
}

func (e *Engine) forwardPostprocess(fn Function, inputs, outputs []*tensor.RawTensor) {
	for _, h := range e.hooks {
		if p, ok := h.(ForwardPostprocessor); ok {
			p.ForwardPostprocess(fn, inputs, outputs)
		}
	}
}

func (e *Engine) backwardPreprocess(node *FunctionNode, gys []*Variable) {
	for _, h := range e.hooks {
		if p, ok := h.(BackwardPreprocessor); ok {
			p.BackwardPreprocess(node, gys)
		}
	}
}

func (e *Engine) backwardPostprocess(node *FunctionNode, gys, gxs []*Variable) {
	for _, h := range e.hooks {
		if p, ok := h.(BackwardPostprocessor); ok {
			p.BackwardPostprocess(node, gys, gxs)
		}
	}
}

// LogHook logs every forward and backward call.
type LogHook struct {
	logger logr.Logger
}

// NewLogHook creates a LogHook writing to logger.
func NewLogHook(logger logr.Logger) *LogHook {
	return &LogHook{logger: logger}
}

// Name implements Hook.
func (h *LogHook) Name() string { return "log" }

// ForwardPostprocess implements ForwardPostprocessor.
func (h *LogHook) ForwardPostprocess(fn Function, inputs, outputs []*tensor.RawTensor) {
	h.logger.Info("forward", "function", fn.Label(), "inputs", shapesOf(inputs), "outputs", shapesOf(outputs))
}

// BackwardPostprocess implements BackwardPostprocessor.
func (h *LogHook) BackwardPostprocess(node *FunctionNode, _, gradInputs []*Variable) {
	computed := 0
	for _, g := range gradInputs {
		if g != nil {
			computed++
		}
	}
	h.logger.Info("backward", "function", node.Label(), "rank", node.Rank(), "gradients", computed)
}

func shapesOf(raws []*tensor.RawTensor) []string {
	out := make([]string, len(raws))
	for i, r := range raws {
		out[i] = r.DType().String() + r.Shape().String()
	}
	return out
}

// CountHook counts forward and backward calls per function label.
// It may be shared by engines on different goroutines.
type CountHook struct {
	mu       sync.Mutex
	forward  map[string]int
	backward map[string]int
}

// NewCountHook creates an empty CountHook.
func NewCountHook() *CountHook {
	return &CountHook{
		forward:  map[string]int{},
		backward: map[string]int{},
	}
}

// Name implements Hook.
func (h *CountHook) Name() string { return "count" }

// ForwardPreprocess implements ForwardPreprocessor.
func (h *CountHook) ForwardPreprocess(fn Function, _ []*tensor.RawTensor) {
	h.mu.Lock()
	h.forward[fn.Label()]++
	h.mu.Unlock()
}

// BackwardPreprocess implements BackwardPreprocessor.
func (h *CountHook) BackwardPreprocess(node *FunctionNode, _ []*Variable) {
	h.mu.Lock()
	h.backward[node.Label()]++
	h.mu.Unlock()
}

// Forward returns the number of forward calls of label.
func (h *CountHook) Forward(label string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.forward[label]
}

// Backward returns the number of backward calls of label.
func (h *CountHook) Backward(label string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.backward[label]
}
