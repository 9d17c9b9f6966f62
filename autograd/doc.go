// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package autograd provides define-by-run reverse-mode automatic
// differentiation.
//
// # Overview
//
// Computation is recorded as it runs. Applying a Function through an Engine
// computes its outputs immediately and, while backprop is enabled, links
// them to a FunctionNode. Backward passes walk those nodes from the outputs
// to the leaves, highest rank first.
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/graphgrad/autograd"
//	    "github.com/born-ml/graphgrad/backend/cpu"
//	    "github.com/born-ml/graphgrad/functions"
//	    "github.com/born-ml/graphgrad/tensor"
//	)
//
//	func main() {
//	    e := autograd.NewEngine(cpu.New())
//
//	    xData, _ := tensor.Scalar(3, tensor.Float64)
//	    x := autograd.NewVariable(xData, autograd.WithName("x"))
//
//	    y, _ := functions.Mul(e, x, x)
//	    if err := y.Backward(); err != nil {
//	        panic(err)
//	    }
//	    fmt.Println(x.Grad().Data().Float64s()) // [6]
//	}
//
// # Gradients of Selected Inputs
//
//	grads, err := e.Grad([]*autograd.Variable{loss}, []*autograd.Variable{h},
//	    autograd.RetainGraph(true))
//
// # Goroutines
//
// An Engine and its configuration stack belong to one goroutine. Give every
// goroutine its own Engine; engines may share a config.Global.
package autograd
