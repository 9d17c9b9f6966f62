package tensor

// Backend is the numeric capability the autograd core consumes. Elementwise
// binary operations broadcast NumPy style. Implementations return a fresh
// tensor and never modify their inputs.
type Backend interface {
	// Element-wise binary operations
	Add(a, b *RawTensor) (*RawTensor, error)
	Sub(a, b *RawTensor) (*RawTensor, error)
	Mul(a, b *RawTensor) (*RawTensor, error)
	Div(a, b *RawTensor) (*RawTensor, error)

	// Element-wise unary operations
	Neg(x *RawTensor) (*RawTensor, error)
	Exp(x *RawTensor) (*RawTensor, error) // floating types only
	Log(x *RawTensor) (*RawTensor, error) // floating types only

	// Scalar operations
	AddScalar(x *RawTensor, s float64) (*RawTensor, error)
	MulScalar(x *RawTensor, s float64) (*RawTensor, error)
	PowScalar(x *RawTensor, p float64) (*RawTensor, error) // floating types only

	// Reductions and broadcasting
	Sum(x *RawTensor) (*RawTensor, error)                    // total sum (0-d result)
	SumTo(x *RawTensor, shape Shape) (*RawTensor, error)     // inverse of BroadcastTo
	BroadcastTo(x *RawTensor, shape Shape) (*RawTensor, error)
	Reshape(x *RawTensor, shape Shape) (*RawTensor, error)

	// Allocation
	Zeros(shape Shape, dtype DataType) (*RawTensor, error)
	Ones(shape Shape, dtype DataType) (*RawTensor, error)

	// Inspection
	HasNaN(x *RawTensor) bool

	// Metadata
	Name() string
	Device() Device
}
