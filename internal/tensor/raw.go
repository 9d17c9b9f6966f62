package tensor

import (
	"fmt"
	"sync/atomic"
	"unsafe"
)

// Device represents the compute device for tensor operations.
type Device int

// Supported compute devices.
const (
	CPU Device = iota
	Accelerator
)

// String returns a human-readable device name.
func (d Device) String() string {
	switch d {
	case CPU:
		return "CPU"
	case Accelerator:
		return "Accelerator"
	default:
		return "Unknown"
	}
}

// tensorBuffer is the storage shared by every handle cloned from the same tensor.
type tensorBuffer struct {
	data []byte
	refs atomic.Int32
}

func newTensorBuffer(size int) *tensorBuffer {
	buf := &tensorBuffer{data: make([]byte, size)}
	buf.refs.Store(1)
	return buf
}

// RawTensor is a handle onto a reference-counted buffer.
//
// Each handle owns exactly one reference. Release drops it; once every handle
// sharing the buffer is released the memory is dropped.
type RawTensor struct {
	buffer   *tensorBuffer
	shape    Shape
	dtype    DataType
	device   Device
	released atomic.Bool
}

// NewRaw allocates a zero-filled tensor with the given shape and type.
func NewRaw(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}
	if dtype < Float32 || dtype > Int64 {
		return nil, fmt.Errorf("invalid dtype %d", int(dtype))
	}

	return &RawTensor{
		buffer: newTensorBuffer(shape.NumElements() * dtype.Size()),
		shape:  shape.Clone(),
		dtype:  dtype,
		device: device,
	}, nil
}

// Shape returns the tensor's shape.
func (r *RawTensor) Shape() Shape {
	return r.shape
}

// DType returns the tensor's data type.
func (r *RawTensor) DType() DataType {
	return r.dtype
}

// Device returns the tensor's compute device.
func (r *RawTensor) Device() Device {
	return r.device
}

// NumElements returns the total number of elements.
func (r *RawTensor) NumElements() int {
	return r.shape.NumElements()
}

// RefCount returns the number of live handles sharing this tensor's buffer.
func (r *RawTensor) RefCount() int {
	return int(r.buffer.refs.Load())
}

// Released reports whether this handle has been released.
func (r *RawTensor) Released() bool {
	return r.released.Load()
}

func (r *RawTensor) bytes() []byte {
	if r.released.Load() {
		panic(fmt.Sprintf("tensor %s %v: use after release", r.dtype, r.shape))
	}
	return r.buffer.data
}

// AsFloat32 interprets the data as []float32.
// Panics if the tensor's dtype is not Float32 or the handle was released.
func (r *RawTensor) AsFloat32() []float32 {
	if r.dtype != Float32 {
		panic(fmt.Sprintf("tensor dtype is %s, not float32", r.dtype))
	}
	data := r.bytes()
	//nolint:gosec // unsafe.Slice for zero-copy access, length bounded by NumElements()
	return unsafe.Slice((*float32)(unsafe.Pointer(&data[0])), r.NumElements())
}

// AsFloat64 interprets the data as []float64.
func (r *RawTensor) AsFloat64() []float64 {
	if r.dtype != Float64 {
		panic(fmt.Sprintf("tensor dtype is %s, not float64", r.dtype))
	}
	data := r.bytes()
	//nolint:gosec // unsafe.Slice for zero-copy access, length bounded by NumElements()
	return unsafe.Slice((*float64)(unsafe.Pointer(&data[0])), r.NumElements())
}

// AsInt32 interprets the data as []int32.
func (r *RawTensor) AsInt32() []int32 {
	if r.dtype != Int32 {
		panic(fmt.Sprintf("tensor dtype is %s, not int32", r.dtype))
	}
	data := r.bytes()
	//nolint:gosec // unsafe.Slice for zero-copy access, length bounded by NumElements()
	return unsafe.Slice((*int32)(unsafe.Pointer(&data[0])), r.NumElements())
}

// AsInt64 interprets the data as []int64.
func (r *RawTensor) AsInt64() []int64 {
	if r.dtype != Int64 {
		panic(fmt.Sprintf("tensor dtype is %s, not int64", r.dtype))
	}
	data := r.bytes()
	//nolint:gosec // unsafe.Slice for zero-copy access, length bounded by NumElements()
	return unsafe.Slice((*int64)(unsafe.Pointer(&data[0])), r.NumElements())
}

// Float64s returns a copy of the elements converted to float64.
func (r *RawTensor) Float64s() []float64 {
	out := make([]float64, r.NumElements())
	switch r.dtype {
	case Float32:
		for i, v := range r.AsFloat32() {
			out[i] = float64(v)
		}
	case Float64:
		copy(out, r.AsFloat64())
	case Int32:
		for i, v := range r.AsInt32() {
			out[i] = float64(v)
		}
	case Int64:
		for i, v := range r.AsInt64() {
			out[i] = float64(v)
		}
	}
	return out
}

// Clone returns a new handle sharing this tensor's buffer.
// The buffer stays alive until both handles are released.
func (r *RawTensor) Clone() *RawTensor {
	if r.released.Load() {
		panic(fmt.Sprintf("tensor %s %v: clone after release", r.dtype, r.shape))
	}
	r.buffer.refs.Add(1)
	return &RawTensor{
		buffer: r.buffer,
		shape:  r.shape.Clone(),
		dtype:  r.dtype,
		device: r.device,
	}
}

// Copy returns a tensor with its own buffer holding the same values.
func (r *RawTensor) Copy() *RawTensor {
	src := r.bytes()
	out := &RawTensor{
		buffer: newTensorBuffer(len(src)),
		shape:  r.shape.Clone(),
		dtype:  r.dtype,
		device: r.device,
	}
	copy(out.buffer.data, src)
	return out
}

// WithShape returns a new handle sharing the buffer but viewed with another
// shape. The element count must match.
func (r *RawTensor) WithShape(shape Shape) (*RawTensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}
	if shape.NumElements() != r.NumElements() {
		return nil, fmt.Errorf("cannot view %v as %v: element count %d != %d",
			r.shape, shape, r.NumElements(), shape.NumElements())
	}
	view := r.Clone()
	view.shape = shape.Clone()
	return view, nil
}

// Release drops this handle's reference. It is idempotent per handle.
func (r *RawTensor) Release() {
	if !r.released.CompareAndSwap(false, true) {
		return
	}
	if r.buffer.refs.Add(-1) == 0 {
		r.buffer.data = nil
	}
}
