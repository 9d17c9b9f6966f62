// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor exposes the numeric values the autograd engine differentiates.
//
// A RawTensor is a handle onto a reference counted buffer. Cloning a handle
// shares the buffer; releasing every handle frees it. Backends implement the
// elementwise, reduction and broadcasting capability the engine needs.
//
// # Basic Usage
//
//	x, err := tensor.FromFloat64s([]float64{1, 2, 3, 4}, tensor.Shape{2, 2})
//	if err != nil {
//	    return err
//	}
//	defer x.Release()
//
//	fmt.Println(x.Shape(), x.DType()) // (2, 2) float64
package tensor
