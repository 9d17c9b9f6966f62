// Package tensor provides the array capability the autograd core computes with.
//
// A RawTensor is a handle to a reference-counted buffer plus shape and dtype
// metadata. Handles created by Clone share the buffer; the buffer is dropped
// when the last handle is released. The autograd engine relies on this to
// free forward-pass memory deterministically during backward.
//
// Numeric kernels live behind the Backend interface (see internal/backend/cpu).
package tensor
