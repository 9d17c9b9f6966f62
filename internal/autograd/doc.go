// Package autograd implements define-by-run reverse-mode automatic
// differentiation.
//
// A graph is recorded while code runs. Every Engine.Apply of a Function
// computes its outputs eagerly and, when backprop is enabled, links them to a
// FunctionNode that remembers the inputs and whatever forward data the
// function asked to retain. Engine.Grad and Variable.Backward later walk the
// nodes from the outputs back to the leaves in decreasing rank order.
//
// Ownership is asymmetric: a Variable strongly references its creator node,
// while a node refers to its outputs only through weak pointers. Dropping the
// roots therefore drops the whole graph. During a backward pass that does not
// retain the graph, nodes and intermediate data are released as soon as they
// have been processed.
//
// Usage:
//
//	e := autograd.NewEngine(cpu.New())
//	x := autograd.NewVariable(xData)
//	y := autograd.NewVariable(yData)
//	xy, _ := functions.Mul(e, x, y)
//	z, _ := functions.Add(e, xy, x)
//	if err := z.Backward(); err != nil {
//		return err
//	}
//	// x.Grad() holds dz/dx, y.Grad() holds dz/dy.
//
// An Engine belongs to one goroutine. Independent goroutines create their own
// Engines, optionally sharing one config.Global.
package autograd
