package alf

import (
	"errors"
	"fmt"
)

// DType is a NumPy array-protocol type string.
type DType string

const (
	Float32 DType = "<f4"
	Float64 DType = "<f8"
	Int16   DType = "<i2"
	Int32   DType = "<i4"
	Int64   DType = "<i8"
	Int8    DType = "|i1"
	Uint8   DType = "|u1"
	Uint16  DType = "<u2"
	Uint32  DType = "<u4"
	Uint64  DType = "<u8"
	Bool    DType = "|b1"
)

var (
	// ErrFormat reports a malformed or unsupported .npy/.npz payload.
	ErrFormat = errors.New("alf: unsupported array format")
	// ErrNotFound reports an object with no attribute files.
	ErrNotFound = errors.New("alf: object not found")
)

// itemSize returns the byte width of one element, or 0 if unsupported.
func (d DType) itemSize() int {
	switch d {
	case Int8, Uint8, Bool:
		return 1
	case Int16, Uint16:
		return 2
	case Float32, Int32, Uint32:
		return 4
	case Float64, Int64, Uint64:
		return 8
	}
	return 0
}

// Array is an n-dimensional row-major array. DType selects the on-disk
// element type when written; the zero value means Float32.
type Array struct {
	Shape []int
	Data  []float64
	DType DType
}

// Vector wraps a 1-D slice without copying.
func Vector(data []float64) Array {
	return Array{Shape: []int{len(data)}, Data: data}
}

// Matrix flattens equal-length rows into a 2-D array.
func Matrix(rows [][]float64) (Array, error) {
	ncol := 0
	if len(rows) > 0 {
		ncol = len(rows[0])
	}
	data := make([]float64, 0, len(rows)*ncol)
	for i, r := range rows {
		if len(r) != ncol {
			return Array{}, fmt.Errorf("alf: row %d has %d columns, want %d", i, len(r), ncol)
		}
		data = append(data, r...)
	}
	return Array{Shape: []int{len(rows), ncol}, Data: data}, nil
}

// As returns a shallow copy of a with a different on-disk dtype.
func (a Array) As(d DType) Array {
	a.DType = d
	return a
}

// Size returns the element count implied by Shape.
func (a Array) Size() int {
	n := 1
	for _, s := range a.Shape {
		n *= s
	}
	return n
}

// Rows splits a 2-D array into row slices sharing the underlying data.
func (a Array) Rows() ([][]float64, error) {
	if len(a.Shape) != 2 {
		return nil, fmt.Errorf("alf: Rows needs a 2-D array, got shape %v", a.Shape)
	}
	nr, nc := a.Shape[0], a.Shape[1]
	out := make([][]float64, nr)
	for i := range out {
		out[i] = a.Data[i*nc : (i+1)*nc : (i+1)*nc]
	}
	return out, nil
}

func (a Array) validate() error {
	for _, s := range a.Shape {
		if s < 0 {
			return fmt.Errorf("alf: negative dimension in shape %v", a.Shape)
		}
	}
	if a.Size() != len(a.Data) {
		return fmt.Errorf("alf: shape %v holds %d elements, data has %d", a.Shape, a.Size(), len(a.Data))
	}
	return nil
}
