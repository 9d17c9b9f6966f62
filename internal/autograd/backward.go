package autograd

import (
	"fmt"

	"github.com/born-ml/graphgrad/internal/config"
)

// GradOption configures Engine.Grad and Variable.Backward.
type GradOption func(*gradConfig)

type gradConfig struct {
	seeds          []*Variable
	stop           []*Variable
	retainGraph    bool
	doubleBackprop bool
	setGrad        bool
}

func newGradConfig(opts []GradOption) gradConfig {
	var cfg gradConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithGradOutputs sets the seed gradient of each output. A nil seed means
// ones. Only Engine.Grad honors it.
func WithGradOutputs(seeds ...*Variable) GradOption {
	return func(c *gradConfig) {
		c.seeds = seeds
	}
}

// StopAt stops propagation at the given variables. Their gradient is still
// computed and reported.
func StopAt(vars ...*Variable) GradOption {
	return func(c *gradConfig) {
		c.stop = append(c.stop, vars...)
	}
}

// RetainGraph keeps the graph and its data after the pass so it can be
// walked again.
func RetainGraph(retain bool) GradOption {
	return func(c *gradConfig) {
		c.retainGraph = retain
	}
}

// EnableDoubleBackprop records the gradient computation itself as a graph,
// allowing higher order derivatives. It implies keeping the graph.
func EnableDoubleBackprop(enable bool) GradOption {
	return func(c *gradConfig) {
		c.doubleBackprop = enable
	}
}

// SetGrad makes Engine.Grad also accumulate the results into the inputs' Grad.
func SetGrad(set bool) GradOption {
	return func(c *gradConfig) {
		c.setGrad = set
	}
}

// Grad computes the gradients of outputs with respect to inputs.
//
// It returns one gradient per input; an input that is not reached gets nil.
// Seeds default to ones. Grad does not touch Variable.Grad unless SetGrad(true)
// is given.
func (e *Engine) Grad(outputs, inputs []*Variable, opts ...GradOption) ([]*Variable, error) {
	cfg := newGradConfig(opts)
	if len(outputs) == 0 {
		return nil, fmt.Errorf("%w: no outputs to differentiate", ErrShapeOrArity)
	}
	if cfg.seeds != nil && len(cfg.seeds) != len(outputs) {
		return nil, fmt.Errorf("%w: %d seeds for %d outputs", ErrShapeOrArity, len(cfg.seeds), len(outputs))
	}
	seeds := make([]*Variable, len(outputs))
	for i, y := range outputs {
		if y == nil {
			return nil, fmt.Errorf("%w: output %d is nil", ErrShapeOrArity, i)
		}
		var gy *Variable
		if cfg.seeds != nil {
			gy = cfg.seeds[i]
		}
		if gy == nil {
			var err error
			if gy, err = e.onesLike(y); err != nil {
				return nil, err
			}
		} else if err := checkGradFor(y, gy); err != nil {
			return nil, err
		}
		seeds[i] = gy
	}
	cfg.seeds = seeds
	for i, x := range inputs {
		if x == nil {
			return nil, fmt.Errorf("%w: input %d is nil", ErrShapeOrArity, i)
		}
	}
	return e.backward(cfg, outputs, inputs, false)
}

type slotKey struct {
	node  *FunctionNode
	index int
}

// traversal holds the state of one backward pass.
type traversal struct {
	e       *Engine
	cfg     gradConfig
	debug   bool
	release bool

	roots     map[*Variable]bool
	stop      map[*Variable]bool
	requested map[*Variable]bool

	// Pending output gradients per node, in arrival order.
	slots map[*FunctionNode][][]*Variable
	queue rankQueue

	// Gradients reaching leaves and stop variables, in arrival order.
	terminal      map[*Variable][]*Variable
	terminalOrder []*Variable

	inputs      []*Variable
	results     []*Variable
	targetSlots map[slotKey][]int

	processed int
}

func (e *Engine) backward(cfg gradConfig, outputs, inputs []*Variable, allLeaves bool) ([]*Variable, error) {
	defer e.local.Push(map[string]any{config.KeyEnableBackprop: cfg.doubleBackprop}).Release()

	t := &traversal{
		e:           e,
		cfg:         cfg,
		debug:       config.IsDebug(e.local),
		release:     !cfg.retainGraph && !cfg.doubleBackprop,
		roots:       make(map[*Variable]bool, len(outputs)),
		stop:        make(map[*Variable]bool, len(cfg.stop)),
		requested:   make(map[*Variable]bool, len(inputs)),
		slots:       map[*FunctionNode][][]*Variable{},
		terminal:    map[*Variable][]*Variable{},
		inputs:      inputs,
		results:     make([]*Variable, len(inputs)),
		targetSlots: map[slotKey][]int{},
	}
	for _, v := range cfg.stop {
		t.stop[v] = true
	}
	for pos, x := range inputs {
		t.requested[x] = true
		if !t.isTerminal(x) {
			key := slotKey{node: x.creator, index: x.creatorIndex}
			t.targetSlots[key] = append(t.targetSlots[key], pos)
		}
	}

	for i, y := range outputs {
		if y.released {
			return nil, fmt.Errorf("%w: output %s", ErrGraphReleased, y.describe())
		}
		t.roots[y] = true
		if err := t.deliver(y, cfg.seeds[i]); err != nil {
			return nil, err
		}
	}

	for t.queue.len() > 0 {
		if err := t.step(t.queue.pop()); err != nil {
			return nil, err
		}
	}

	results, err := t.finish(allLeaves)
	if err != nil {
		return nil, err
	}
	if log := e.logger.V(1); log.Enabled() {
		log.Info("backward finished",
			"nodes", t.processed,
			"retainGraph", cfg.retainGraph,
			"doubleBackprop", cfg.doubleBackprop)
	}
	return results, nil
}

func (t *traversal) isTerminal(v *Variable) bool {
	return v.creator == nil || t.stop[v]
}

// deliver routes one gradient contribution for v.
func (t *traversal) deliver(v, g *Variable) error {
	if t.isTerminal(v) {
		if _, seen := t.terminal[v]; !seen {
			t.terminalOrder = append(t.terminalOrder, v)
		}
		t.terminal[v] = append(t.terminal[v], g)
		return nil
	}
	n := v.creator
	if n.released {
		return t.fail(n, ErrGraphReleased)
	}
	slots, queued := t.slots[n]
	if !queued {
		slots = make([][]*Variable, len(n.outputs))
		t.slots[n] = slots
		t.queue.push(n)
	}
	slots[v.creatorIndex] = append(slots[v.creatorIndex], g)
	return nil
}

// step runs the backward of one node and routes its input gradients.
func (t *traversal) step(n *FunctionNode) error {
	gys := make([]*Variable, len(n.outputs))
	for j, contribs := range t.slots[n] {
		g, err := t.e.sum(contribs)
		if err != nil {
			return t.fail(n, err)
		}
		gys[j] = g
		if g != nil {
			for _, pos := range t.targetSlots[slotKey{node: n, index: j}] {
				t.results[pos] = g
			}
		}
	}
	delete(t.slots, n)

	var targets []int
	for i, in := range n.inputs {
		if in.requiresGrad {
			targets = append(targets, i)
		}
	}
	if len(targets) > 0 {
		ctx := &BackwardContext{engine: t.e, node: n, targets: targets}
		t.e.backwardPreprocess(n, gys)
		gxs, err := n.fn.Backward(ctx, gys)
		if err != nil {
			return t.fail(n, err)
		}
		if len(gxs) != len(n.inputs) {
			return t.fail(n, fmt.Errorf("%w: returned %d gradients for %d inputs", ErrShapeOrArity, len(gxs), len(n.inputs)))
		}
		if t.debug {
			if err := t.e.validateGrads(n, gxs); err != nil {
				return t.fail(n, err)
			}
		}
		t.e.backwardPostprocess(n, gys, gxs)

		for i, gx := range gxs {
			if gx == nil || !n.inputs[i].requiresGrad {
				continue
			}
			if err := t.deliver(n.inputs[i], gx); err != nil {
				return err
			}
		}
	}

	t.processed++
	if log := t.e.logger.V(2); log.Enabled() {
		log.Info("backward step", "function", n.Label(), "rank", n.rank, "targets", len(targets))
	}
	if t.release {
		t.releaseNode(n)
	}
	return nil
}

// releaseNode frees a processed node and the data of its intermediate outputs.
func (t *traversal) releaseNode(n *FunctionNode) {
	for _, o := range n.Outputs() {
		if o == nil || o.released || o.retainData || o.creator != n || t.roots[o] || t.requested[o] {
			continue
		}
		o.release()
	}
	n.release()
}

// finish sums the gradients of terminal variables and fills in results.
func (t *traversal) finish(allLeaves bool) ([]*Variable, error) {
	totals := make(map[*Variable]*Variable, len(t.terminalOrder))
	for _, v := range t.terminalOrder {
		g, err := t.e.sum(t.terminal[v])
		if err != nil {
			return nil, fmt.Errorf("autograd: %s: %w", v.describe(), err)
		}
		totals[v] = g
	}
	for pos, x := range t.inputs {
		if t.isTerminal(x) {
			t.results[pos] = totals[x]
		}
	}

	switch {
	case allLeaves:
		for _, v := range t.terminalOrder {
			if t.roots[v] {
				continue
			}
			if err := t.accumulateGrad(v, totals[v]); err != nil {
				return nil, err
			}
		}
	case t.cfg.setGrad:
		done := make(map[*Variable]bool, len(t.inputs))
		for pos, x := range t.inputs {
			if done[x] || t.results[pos] == nil {
				continue
			}
			done[x] = true
			if err := t.accumulateGrad(x, t.results[pos]); err != nil {
				return nil, err
			}
		}
	}
	return t.results, nil
}

func (t *traversal) accumulateGrad(v, g *Variable) error {
	if g == nil {
		return nil
	}
	if v.grad != nil {
		sum, err := t.e.sum([]*Variable{v.grad, g})
		if err != nil {
			return fmt.Errorf("autograd: %s: %w", v.describe(), err)
		}
		g = sum
	}
	v.grad = g
	return nil
}

func (t *traversal) fail(n *FunctionNode, err error) error {
	return &BackwardError{
		Function: n.Label(),
		Rank:     n.rank,
		Stack:    n.stack,
		Err:      err,
	}
}
