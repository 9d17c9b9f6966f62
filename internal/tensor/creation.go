package tensor

import "fmt"

// Zeros allocates a zero-filled tensor.
func Zeros(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	return NewRaw(shape, dtype, device)
}

// Ones allocates a tensor filled with ones.
func Ones(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	return Full(shape, 1, dtype, device)
}

// Full allocates a tensor with every element set to value (converted to dtype).
func Full(shape Shape, value float64, dtype DataType, device Device) (*RawTensor, error) {
	t, err := NewRaw(shape, dtype, device)
	if err != nil {
		return nil, err
	}
	switch dtype {
	case Float32:
		fill(t.AsFloat32(), float32(value))
	case Float64:
		fill(t.AsFloat64(), value)
	case Int32:
		fill(t.AsInt32(), int32(value))
	case Int64:
		fill(t.AsInt64(), int64(value))
	}
	return t, nil
}

func fill[T any](data []T, v T) {
	for i := range data {
		data[i] = v
	}
}

// FromFloat64s builds a Float64 tensor from data. The slice is copied.
func FromFloat64s(data []float64, shape Shape) (*RawTensor, error) {
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("shape %v requires %d elements, but got %d", shape, shape.NumElements(), len(data))
	}
	t, err := NewRaw(shape, Float64, CPU)
	if err != nil {
		return nil, err
	}
	copy(t.AsFloat64(), data)
	return t, nil
}

// FromFloat32s builds a Float32 tensor from data. The slice is copied.
func FromFloat32s(data []float32, shape Shape) (*RawTensor, error) {
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("shape %v requires %d elements, but got %d", shape, shape.NumElements(), len(data))
	}
	t, err := NewRaw(shape, Float32, CPU)
	if err != nil {
		return nil, err
	}
	copy(t.AsFloat32(), data)
	return t, nil
}

// FromInt32s builds an Int32 tensor from data. The slice is copied.
func FromInt32s(data []int32, shape Shape) (*RawTensor, error) {
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("shape %v requires %d elements, but got %d", shape, shape.NumElements(), len(data))
	}
	t, err := NewRaw(shape, Int32, CPU)
	if err != nil {
		return nil, err
	}
	copy(t.AsInt32(), data)
	return t, nil
}

// Scalar builds a 0-d tensor.
func Scalar(value float64, dtype DataType) (*RawTensor, error) {
	return Full(Shape{}, value, dtype, CPU)
}
