// Package config holds the settings that change how graphs are built and
// differentiated.
//
// Settings live in two layers. A Global holds process-wide defaults shared by
// every goroutine. A Local is owned by a single goroutine and stacks scoped
// overrides on top of one Global; reads see the innermost override, then the
// global default.
//
//	l := config.NewLocal(nil)
//	scope := l.Push(map[string]any{config.KeyEnableBackprop: false})
//	defer scope.Release()
//
// Unknown names are allowed: a slot holds any value.
package config

import (
	"maps"
	"sync"
	"sync/atomic"
)

// Well-known option names.
const (
	// KeyDebug enables extra validation, NaN checks and call-site capture.
	KeyDebug = "debug"
	// KeyEnableBackprop gates graph construction.
	KeyEnableBackprop = "enable_backprop"
	// KeyTypeCheck gates validation of function type constraints.
	KeyTypeCheck = "type_check"
	// KeyTrain is consulted by stochastic functions; the core ignores it.
	KeyTrain = "train"
	// KeyKeepGraphOnReport decides whether diagnostic snapshots keep the graph.
	KeyKeepGraphOnReport = "keep_graph_on_report"
	// KeyUseAccelerator is one of "always", "auto" or "never".
	KeyUseAccelerator = "use_accelerator"
	// KeyAcceleratorDeterministic asks accelerated kernels for reproducible results.
	KeyAcceleratorDeterministic = "accelerator_deterministic"
)

// Builtin returns the default value of every well-known option.
func Builtin() map[string]any {
	return map[string]any{
		KeyDebug:                    false,
		KeyEnableBackprop:           true,
		KeyTypeCheck:                true,
		KeyTrain:                    true,
		KeyKeepGraphOnReport:        false,
		KeyUseAccelerator:           "auto",
		KeyAcceleratorDeterministic: false,
	}
}

// Global is the process-wide default layer.
//
// Reads never block. Set replaces the whole snapshot; it is meant for process
// start-up, and ordering it against concurrent readers is up to the caller.
type Global struct {
	values atomic.Pointer[map[string]any]
}

// NewGlobal creates a default layer holding a copy of values.
func NewGlobal(values map[string]any) *Global {
	g := &Global{}
	snapshot := maps.Clone(values)
	if snapshot == nil {
		snapshot = map[string]any{}
	}
	g.values.Store(&snapshot)
	return g
}

// Get returns the default value of name.
func (g *Global) Get(name string) (any, bool) {
	v, ok := (*g.values.Load())[name]
	return v, ok
}

// Set replaces the default value of name.
func (g *Global) Set(name string, value any) {
	for {
		old := g.values.Load()
		next := maps.Clone(*old)
		next[name] = value
		if g.values.CompareAndSwap(old, &next) {
			return
		}
	}
}

// Snapshot returns a copy of every default value.
func (g *Global) Snapshot() map[string]any {
	return maps.Clone(*g.values.Load())
}

var (
	defaultOnce   sync.Once
	defaultGlobal *Global
)

// Default returns the process Global. It is built on first use from Builtin
// overlaid with the environment (see FromEnv); malformed variables are ignored.
func Default() *Global {
	defaultOnce.Do(func() {
		values := Builtin()
		env, _ := FromEnv(lookupEnv)
		maps.Copy(values, env)
		defaultGlobal = NewGlobal(values)
	})
	return defaultGlobal
}

// Local is a goroutine-owned override stack layered on a Global.
// It must not be used from more than one goroutine at a time.
type Local struct {
	global *Global
	frames []map[string]any
}

// NewLocal creates an override stack on g, or on Default() when g is nil.
func NewLocal(g *Global) *Local {
	if g == nil {
		g = Default()
	}
	return &Local{
		global: g,
		frames: []map[string]any{{}},
	}
}

// Global returns the default layer this Local reads through to.
func (l *Local) Global() *Global {
	return l.global
}

// Get returns the effective value of name.
func (l *Local) Get(name string) (any, bool) {
	for i := len(l.frames) - 1; i >= 0; i-- {
		if v, ok := l.frames[i][name]; ok {
			return v, true
		}
	}
	return l.global.Get(name)
}

// Bool returns the effective value of name as a bool (false if unset or not a bool).
func (l *Local) Bool(name string) bool {
	v, _ := l.Get(name)
	b, _ := v.(bool)
	return b
}

// String returns the effective value of name as a string ("" if unset or not a string).
func (l *Local) String(name string) string {
	v, _ := l.Get(name)
	s, _ := v.(string)
	return s
}

// Set overrides name in the innermost scope. The value is discarded when that
// scope is released.
func (l *Local) Set(name string, value any) {
	l.frames[len(l.frames)-1][name] = value
}

// Depth returns the number of open scopes.
func (l *Local) Depth() int {
	return len(l.frames) - 1
}

// Push opens a scope with the given overrides. The returned Scope must be
// released, normally with defer.
func (l *Local) Push(overrides map[string]any) *Scope {
	depth := len(l.frames)
	frame := maps.Clone(overrides)
	if frame == nil {
		frame = map[string]any{}
	}
	l.frames = append(l.frames, frame)
	return &Scope{local: l, depth: depth}
}

// Scope restores a Local to its state before Push.
type Scope struct {
	local    *Local
	depth    int
	released bool
}

// Release pops the scope. Scopes opened after it and still open are popped
// too. Calling Release more than once is a no-op.
func (s *Scope) Release() {
	if s.released {
		return
	}
	s.released = true
	if len(s.local.frames) > s.depth {
		clear(s.local.frames[s.depth:])
		s.local.frames = s.local.frames[:s.depth]
	}
}

// Using runs fn with overrides applied, restoring the previous values on
// every exit path.
func Using(l *Local, overrides map[string]any, fn func() error) error {
	defer l.Push(overrides).Release()
	return fn()
}

// IsDebug reports whether debug mode is on for l.
func IsDebug(l *Local) bool {
	return l.Bool(KeyDebug)
}

// SetDebug sets debug mode in l's innermost scope.
func SetDebug(l *Local, debug bool) {
	l.Set(KeyDebug, debug)
}
