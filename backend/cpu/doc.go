// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides a pure Go CPU backend for tensor operations.
//
// # Overview
//
// This package implements a CPU backend with:
//   - Pure Go implementation (no CGO)
//   - Float32 and Float64 kernels, integer arithmetic
//   - NumPy-compatible broadcasting
//   - Parallel kernels over large tensors
//
// # Basic Usage
//
//	backend := cpu.New()
//	engine := autograd.NewEngine(backend)
package cpu
