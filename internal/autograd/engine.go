package autograd

import (
	"fmt"

	"github.com/go-logr/logr"

	"github.com/born-ml/graphgrad/internal/config"
	"github.com/born-ml/graphgrad/internal/tensor"
)

// Engine builds graphs and runs backward passes on one goroutine.
//
// It owns a config.Local: scoped overrides pushed on an Engine affect only the
// functions it applies. Engines must not be shared between goroutines; create
// one per goroutine, optionally over a shared config.Global.
type Engine struct {
	backend tensor.Backend
	local   *config.Local
	logger  logr.Logger
	hooks   []Hook
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	local  *config.Local
	global *config.Global
	logger logr.Logger
	hooks  []Hook
}

// WithConfig makes the engine use an existing override stack.
func WithConfig(l *config.Local) EngineOption {
	return func(o *engineOptions) {
		o.local = l
	}
}

// WithGlobal layers the engine's override stack on g instead of config.Default().
func WithGlobal(g *config.Global) EngineOption {
	return func(o *engineOptions) {
		o.global = g
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger logr.Logger) EngineOption {
	return func(o *engineOptions) {
		o.logger = logger
	}
}

// WithHooks registers hooks in order. Later hooks with a name already
// registered are ignored.
func WithHooks(hooks ...Hook) EngineOption {
	return func(o *engineOptions) {
		o.hooks = append(o.hooks, hooks...)
	}
}

// NewEngine creates an engine computing with backend.
func NewEngine(backend tensor.Backend, opts ...EngineOption) *Engine {
	o := engineOptions{logger: logr.Discard()}
	for _, opt := range opts {
		opt(&o)
	}
	local := o.local
	if local == nil {
		local = config.NewLocal(o.global)
	}
	e := &Engine{
		backend: backend,
		local:   local,
		logger:  o.logger,
	}
	for _, h := range o.hooks {
		_ = e.AddHook(h)
	}
	return e
}

// Backend returns the numeric backend.
func (e *Engine) Backend() tensor.Backend {
	return e.backend
}

// Config returns the engine's override stack.
func (e *Engine) Config() *config.Local {
	return e.local
}

// Logger returns the engine's logger.
func (e *Engine) Logger() logr.Logger {
	return e.logger
}

// BackpropEnabled reports whether Apply currently records graphs.
func (e *Engine) BackpropEnabled() bool {
	return e.local.Bool(config.KeyEnableBackprop)
}

// Using runs fn with overrides pushed on the engine's configuration.
func (e *Engine) Using(overrides map[string]any, fn func() error) error {
	return config.Using(e.local, overrides, fn)
}

// NoBackprop runs fn without graph recording.
func (e *Engine) NoBackprop(fn func() error) error {
	return e.Using(map[string]any{config.KeyEnableBackprop: false}, fn)
}

// ForceBackprop runs fn with graph recording, even inside NoBackprop.
func (e *Engine) ForceBackprop(fn func() error) error {
	return e.Using(map[string]any{config.KeyEnableBackprop: true}, fn)
}

// Variable wraps data in a leaf Variable. It is a shorthand for NewVariable.
func (e *Engine) Variable(data *tensor.RawTensor, opts ...VariableOption) *Variable {
	return NewVariable(data, opts...)
}

func (e *Engine) onesLike(v *Variable) (*Variable, error) {
	if !v.DType().IsFloat() {
		return nil, fmt.Errorf("%w: cannot seed gradient of %s", ErrNotFloat, v.describe())
	}
	raw, err := e.backend.Ones(v.Shape(), v.DType())
	if err != nil {
		return nil, fmt.Errorf("autograd: seed gradient: %w", err)
	}
	return newVariable(raw, false), nil
}
