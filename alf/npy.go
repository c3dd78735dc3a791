package alf

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

const (
	npyMagic     = "\x93NUMPY"
	headerAlign  = 64
	maxV1Header  = math.MaxUint16
	npyPrefixLen = len(npyMagic) + 2
)

// WriteNPY writes arr in NumPy .npy format (version 1.0, or 2.0 when the
// header does not fit a 16-bit length).
func WriteNPY(w io.Writer, arr Array) error {
	if err := arr.validate(); err != nil {
		return err
	}
	dtype := arr.DType
	if dtype == "" {
		dtype = Float32
	}
	size := dtype.itemSize()
	if size == 0 || dtype == Bool {
		return fmt.Errorf("%w: cannot write dtype %q", ErrFormat, dtype)
	}

	header := npyHeader(dtype, arr.Shape)
	version, lenBytes := byte(1), 2
	padded := padHeader(header, npyPrefixLen+lenBytes)
	if len(padded) > maxV1Header {
		version, lenBytes = 2, 4
		padded = padHeader(header, npyPrefixLen+lenBytes)
	}

	bw := bufio.NewWriter(w)
	bw.WriteString(npyMagic)
	bw.Write([]byte{version, 0})
	var lenBuf [4]byte
	if lenBytes == 2 {
		binary.LittleEndian.PutUint16(lenBuf[:], uint16(len(padded)))
	} else {
		binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(padded)))
	}
	bw.Write(lenBuf[:lenBytes])
	bw.WriteString(padded)

	buf := make([]byte, size)
	for _, v := range arr.Data {
		encodeElement(buf, dtype, v)
		if _, err := bw.Write(buf); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func npyHeader(dtype DType, shape []int) string {
	dims := make([]string, len(shape))
	for i, s := range shape {
		dims[i] = strconv.Itoa(s)
	}
	shapeStr := "(" + strings.Join(dims, ", ")
	if len(shape) == 1 {
		shapeStr += ","
	}
	shapeStr += ")"
	return fmt.Sprintf("{'descr': '%s', 'fortran_order': False, 'shape': %s, }", dtype, shapeStr)
}

// padHeader pads with spaces and a trailing newline so data starts on a
// 64-byte boundary.
func padHeader(header string, prefix int) string {
	total := prefix + len(header) + 1
	pad := (headerAlign - total%headerAlign) % headerAlign
	return header + strings.Repeat(" ", pad) + "\n"
}

func encodeElement(buf []byte, dtype DType, v float64) {
	switch dtype {
	case Float32:
		binary.LittleEndian.PutUint32(buf, math.Float32bits(float32(v)))
	case Float64:
		binary.LittleEndian.PutUint64(buf, math.Float64bits(v))
	case Int8:
		buf[0] = byte(int8(v))
	case Uint8:
		buf[0] = uint8(v)
	case Int16:
		binary.LittleEndian.PutUint16(buf, uint16(int16(v)))
	case Uint16:
		binary.LittleEndian.PutUint16(buf, uint16(v))
	case Int32:
		binary.LittleEndian.PutUint32(buf, uint32(int32(v)))
	case Uint32:
		binary.LittleEndian.PutUint32(buf, uint32(v))
	case Int64:
		binary.LittleEndian.PutUint64(buf, uint64(int64(v)))
	case Uint64:
		binary.LittleEndian.PutUint64(buf, uint64(v))
	}
}

func decodeElement(buf []byte, dtype DType) float64 {
	switch dtype {
	case Float32:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(buf)))
	case Float64:
		return math.Float64frombits(binary.LittleEndian.Uint64(buf))
	case Int8:
		return float64(int8(buf[0]))
	case Uint8, Bool:
		return float64(buf[0])
	case Int16:
		return float64(int16(binary.LittleEndian.Uint16(buf)))
	case Uint16:
		return float64(binary.LittleEndian.Uint16(buf))
	case Int32:
		return float64(int32(binary.LittleEndian.Uint32(buf)))
	case Uint32:
		return float64(binary.LittleEndian.Uint32(buf))
	case Int64:
		return float64(int64(binary.LittleEndian.Uint64(buf)))
	case Uint64:
		return float64(binary.LittleEndian.Uint64(buf))
	}
	return math.NaN()
}

// ReadNPY decodes a C-ordered little-endian .npy stream. Elements are
// converted to float64; DType records the on-disk type.
func ReadNPY(r io.Reader) (Array, error) {
	br := bufio.NewReader(r)
	prefix := make([]byte, npyPrefixLen)
	if _, err := io.ReadFull(br, prefix); err != nil {
		return Array{}, fmt.Errorf("%w: read magic: %w", ErrFormat, err)
	}
	if string(prefix[:len(npyMagic)]) != npyMagic {
		return Array{}, fmt.Errorf("%w: bad magic", ErrFormat)
	}

	var hlen int
	switch major := prefix[len(npyMagic)]; major {
	case 1:
		var b [2]byte
		if _, err := io.ReadFull(br, b[:]); err != nil {
			return Array{}, fmt.Errorf("%w: header length: %w", ErrFormat, err)
		}
		hlen = int(binary.LittleEndian.Uint16(b[:]))
	case 2, 3:
		var b [4]byte
		if _, err := io.ReadFull(br, b[:]); err != nil {
			return Array{}, fmt.Errorf("%w: header length: %w", ErrFormat, err)
		}
		hlen = int(binary.LittleEndian.Uint32(b[:]))
	default:
		return Array{}, fmt.Errorf("%w: version %d", ErrFormat, major)
	}

	hdr := make([]byte, hlen)
	if _, err := io.ReadFull(br, hdr); err != nil {
		return Array{}, fmt.Errorf("%w: header: %w", ErrFormat, err)
	}
	dtype, shape, err := parseHeader(string(hdr))
	if err != nil {
		return Array{}, err
	}

	arr := Array{Shape: shape, DType: dtype}
	n := arr.Size()
	size := dtype.itemSize()
	raw := make([]byte, n*size)
	if _, err := io.ReadFull(br, raw); err != nil {
		return Array{}, fmt.Errorf("%w: data: %w", ErrFormat, err)
	}
	arr.Data = make([]float64, n)
	for i := range arr.Data {
		arr.Data[i] = decodeElement(raw[i*size:], dtype)
	}
	return arr, nil
}

func parseHeader(h string) (DType, []int, error) {
	descr, ok := headerValue(h, "descr")
	if !ok {
		return "", nil, fmt.Errorf("%w: header has no descr: %q", ErrFormat, h)
	}
	dtype := DType(strings.Trim(descr, `'"`))
	if dtype == "<b1" || dtype == "<u1" || dtype == "<i1" {
		dtype = DType("|" + string(dtype[1:]))
	}
	if dtype.itemSize() == 0 {
		return "", nil, fmt.Errorf("%w: dtype %q", ErrFormat, dtype)
	}

	order, ok := headerValue(h, "fortran_order")
	if !ok || order != "False" {
		return "", nil, fmt.Errorf("%w: only C-ordered arrays are supported", ErrFormat)
	}

	shapeStr, ok := headerValue(h, "shape")
	if !ok {
		return "", nil, fmt.Errorf("%w: header has no shape: %q", ErrFormat, h)
	}
	shape := []int{}
	for _, p := range strings.Split(strings.Trim(shapeStr, "()"), ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		d, err := strconv.Atoi(strings.TrimSuffix(p, "L"))
		if err != nil || d < 0 {
			return "", nil, fmt.Errorf("%w: shape %q", ErrFormat, shapeStr)
		}
		shape = append(shape, d)
	}
	return dtype, shape, nil
}

// headerValue extracts the literal following 'key': in a header dict.
// Tuple values run to the closing parenthesis.
func headerValue(h, key string) (string, bool) {
	_, rest, ok := strings.Cut(h, "'"+key+"':")
	if !ok {
		return "", false
	}
	rest = strings.TrimSpace(rest)
	if strings.HasPrefix(rest, "(") {
		end := strings.IndexByte(rest, ')')
		if end < 0 {
			return "", false
		}
		return rest[:end+1], true
	}
	end := strings.IndexAny(rest, ",}")
	if end < 0 {
		return "", false
	}
	return strings.TrimSpace(rest[:end]), true
}
