// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/born-ml/graphgrad/internal/tensor"
)

// Type aliases for public API

// RawTensor is a reference counted handle onto tensor storage.
type RawTensor = tensor.RawTensor

// Shape is a tensor's dimensions. The empty shape is a 0-d scalar.
type Shape = tensor.Shape

// DataType identifies a tensor's element type.
type DataType = tensor.DataType

// Device identifies where a tensor's storage lives.
type Device = tensor.Device

// Backend is the numeric capability consumed by the autograd engine.
type Backend = tensor.Backend

// Data types.
const (
	Float32 = tensor.Float32
	Float64 = tensor.Float64
	Int32   = tensor.Int32
	Int64   = tensor.Int64
)

// Devices.
const (
	CPU         = tensor.CPU
	Accelerator = tensor.Accelerator
)

// NewRaw allocates a zero-filled tensor.
func NewRaw(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	return tensor.NewRaw(shape, dtype, device)
}

// Zeros returns a tensor filled with zeros.
func Zeros(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	return tensor.Zeros(shape, dtype, device)
}

// Ones returns a tensor filled with ones.
func Ones(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	return tensor.Ones(shape, dtype, device)
}

// Full returns a tensor with every element set to value.
func Full(shape Shape, value float64, dtype DataType, device Device) (*RawTensor, error) {
	return tensor.Full(shape, value, dtype, device)
}

// FromFloat64s copies data into a new float64 CPU tensor.
func FromFloat64s(data []float64, shape Shape) (*RawTensor, error) {
	return tensor.FromFloat64s(data, shape)
}

// FromFloat32s copies data into a new float32 CPU tensor.
func FromFloat32s(data []float32, shape Shape) (*RawTensor, error) {
	return tensor.FromFloat32s(data, shape)
}

// FromInt32s copies data into a new int32 CPU tensor.
func FromInt32s(data []int32, shape Shape) (*RawTensor, error) {
	return tensor.FromInt32s(data, shape)
}

// Scalar returns a 0-d tensor holding value.
func Scalar(value float64, dtype DataType) (*RawTensor, error) {
	return tensor.Scalar(value, dtype)
}

// BroadcastShapes returns the NumPy style broadcast of a and b and whether
// either side had to be expanded.
func BroadcastShapes(a, b Shape) (Shape, bool, error) {
	return tensor.BroadcastShapes(a, b)
}
