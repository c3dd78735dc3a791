package alf

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"strings"
	"testing"
)

func TestWriteNPYHeader(t *testing.T) {
	var buf bytes.Buffer
	arr := Array{Shape: []int{2, 3}, Data: []float64{1, 2, 3, 4, 5, 6}}
	if err := WriteNPY(&buf, arr); err != nil {
		t.Fatalf("WriteNPY: %v", err)
	}
	b := buf.Bytes()
	if string(b[:6]) != "\x93NUMPY" || b[6] != 1 || b[7] != 0 {
		t.Fatalf("bad prefix % x", b[:8])
	}
	hlen := int(binary.LittleEndian.Uint16(b[8:10]))
	if (10+hlen)%64 != 0 {
		t.Fatalf("data offset %d not aligned to 64", 10+hlen)
	}
	header := string(b[10 : 10+hlen])
	if !strings.Contains(header, "'descr': '<f4'") || !strings.Contains(header, "'shape': (2, 3)") {
		t.Fatalf("header %q", header)
	}
	if !strings.HasSuffix(header, "\n") {
		t.Fatal("header must end with newline")
	}
	if got := len(b) - 10 - hlen; got != 6*4 {
		t.Fatalf("payload %d bytes, want 24", got)
	}
}

func TestNPYRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		arr  Array
	}{
		{"float32 matrix", Array{Shape: []int{2, 2}, Data: []float64{0.5, -1.25, 3, 1e-3}}},
		{"float64 vector", Vector([]float64{math.Pi, -math.E, 1e-300}).As(Float64)},
		{"int64 vector", Vector([]float64{-3, 0, 1 << 40}).As(Int64)},
		{"int16 vector", Vector([]float64{-32768, 32767}).As(Int16)},
		{"uint8 vector", Vector([]float64{0, 255}).As(Uint8)},
		{"empty", Vector(nil)},
		{"scalar", Array{Shape: []int{}, Data: []float64{7}, DType: Float64}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := WriteNPY(&buf, tt.arr); err != nil {
				t.Fatalf("WriteNPY: %v", err)
			}
			got, err := ReadNPY(&buf)
			if err != nil {
				t.Fatalf("ReadNPY: %v", err)
			}
			if len(got.Shape) != len(tt.arr.Shape) {
				t.Fatalf("shape %v want %v", got.Shape, tt.arr.Shape)
			}
			for i := range got.Shape {
				if got.Shape[i] != tt.arr.Shape[i] {
					t.Fatalf("shape %v want %v", got.Shape, tt.arr.Shape)
				}
			}
			for i, v := range tt.arr.Data {
				want := v
				if tt.arr.DType == "" {
					want = float64(float32(v))
				}
				if got.Data[i] != want {
					t.Fatalf("data[%d]=%v want %v", i, got.Data[i], want)
				}
			}
		})
	}
}

func TestWriteNPYShapeMismatch(t *testing.T) {
	var buf bytes.Buffer
	err := WriteNPY(&buf, Array{Shape: []int{3}, Data: []float64{1, 2}})
	if err == nil {
		t.Fatal("expected shape mismatch error")
	}
}

func TestReadNPYNumpyHeader(t *testing.T) {
	// Header as numpy.save writes it for np.arange(3, dtype='<i4').
	header := "{'descr': '<i4', 'fortran_order': False, 'shape': (3,), }"
	header = padHeader(header, 10)
	var buf bytes.Buffer
	buf.WriteString("\x93NUMPY\x01\x00")
	binary.Write(&buf, binary.LittleEndian, uint16(len(header)))
	buf.WriteString(header)
	binary.Write(&buf, binary.LittleEndian, []int32{0, 1, 2})

	arr, err := ReadNPY(&buf)
	if err != nil {
		t.Fatalf("ReadNPY: %v", err)
	}
	if arr.DType != Int32 || len(arr.Data) != 3 || arr.Data[2] != 2 {
		t.Fatalf("got %+v", arr)
	}
}

func TestReadNPYRejects(t *testing.T) {
	tests := map[string]string{
		"bad magic":     "NOTNUMPY",
		"fortran order": "{'descr': '<f8', 'fortran_order': True, 'shape': (1,), }",
		"big endian":    "{'descr': '>f8', 'fortran_order': False, 'shape': (1,), }",
		"object dtype":  "{'descr': '|O', 'fortran_order': False, 'shape': (1,), }",
	}
	for name, header := range tests {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			if name == "bad magic" {
				buf.WriteString(header + "\x00\x00")
			} else {
				buf.WriteString("\x93NUMPY\x01\x00")
				binary.Write(&buf, binary.LittleEndian, uint16(len(header)))
				buf.WriteString(header)
				buf.Write(make([]byte, 8))
			}
			if _, err := ReadNPY(&buf); !errors.Is(err, ErrFormat) {
				t.Fatalf("err=%v, want ErrFormat", err)
			}
		})
	}
}

func TestMatrixRows(t *testing.T) {
	arr, err := Matrix([][]float64{{1, 2}, {3, 4}, {5, 6}})
	if err != nil {
		t.Fatalf("Matrix: %v", err)
	}
	rows, err := arr.Rows()
	if err != nil {
		t.Fatalf("Rows: %v", err)
	}
	if len(rows) != 3 || rows[2][1] != 6 {
		t.Fatalf("rows=%v", rows)
	}
	if _, err := Matrix([][]float64{{1}, {2, 3}}); err == nil {
		t.Fatal("expected ragged error")
	}
}
