// Package field packs and unpacks fixed-width integer and hash fields in
// either byte order.
package field

import (
	"errors"
	"fmt"
	"strings"
)

// Order selects the byte order of a multi-byte field.
type Order uint8

const (
	BigEndian Order = iota
	LittleEndian
)

func (o Order) String() string {
	switch o {
	case BigEndian:
		return "big-endian"
	case LittleEndian:
		return "little-endian"
	default:
		return fmt.Sprintf("order(%d)", uint8(o))
	}
}

// ParseOrder accepts "big", "little" and their "-endian" forms.
func ParseOrder(s string) (Order, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "big", "be", "big-endian":
		return BigEndian, nil
	case "little", "le", "little-endian":
		return LittleEndian, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidOrder, s)
	}
}

var (
	ErrLengthMismatch   = errors.New("field: length mismatch")
	ErrUnsupportedWidth = errors.New("field: unsupported width")
	ErrOverflow         = errors.New("field: value overflows width")
	ErrInvalidOrder     = errors.New("field: invalid byte order")
)

// LengthError reports a slice whose length differs from the declared width.
type LengthError struct {
	Want int
	Got  int
}

func (e *LengthError) Error() string {
	return fmt.Sprintf("field: length mismatch: want %d bytes, got %d", e.Want, e.Got)
}

func (e *LengthError) Is(target error) bool {
	return target == ErrLengthMismatch
}

// Supported reports whether width is one of the field widths the codec handles.
func Supported(width int) bool {
	switch width {
	case 2, 3, 4, 8, 16, 32:
		return true
	default:
		return false
	}
}

func checkWidth(width int, o Order) error {
	if !Supported(width) {
		return fmt.Errorf("%w: %d", ErrUnsupportedWidth, width)
	}
	if o != BigEndian && o != LittleEndian {
		return ErrInvalidOrder
	}
	return nil
}

// Pack writes v as an unsigned integer of width bytes. Widths above 8 are
// zero padded on the most significant side.
func Pack(v uint64, width int, o Order) ([]byte, error) {
	if err := checkWidth(width, o); err != nil {
		return nil, err
	}
	if width < 8 && v>>(uint(width)*8) != 0 {
		return nil, fmt.Errorf("%w: %d does not fit in %d bytes", ErrOverflow, v, width)
	}
	buf := make([]byte, width)
	for i := 0; i < width && i < 8; i++ {
		buf[width-1-i] = byte(v >> (uint(i) * 8))
	}
	if o == LittleEndian {
		reverse(buf)
	}
	return buf, nil
}

// Unpack reads an unsigned integer of width bytes from b.
func Unpack(b []byte, width int, o Order) (uint64, error) {
	if err := checkWidth(width, o); err != nil {
		return 0, err
	}
	if len(b) != width {
		return 0, &LengthError{Want: width, Got: len(b)}
	}
	be := make([]byte, width)
	copy(be, b)
	if o == LittleEndian {
		reverse(be)
	}
	for _, c := range be[:max(width-8, 0)] {
		if c != 0 {
			return 0, fmt.Errorf("%w: %d-byte value exceeds 64 bits", ErrOverflow, width)
		}
	}
	var v uint64
	for _, c := range be[max(width-8, 0):] {
		v = v<<8 | uint64(c)
	}
	return v, nil
}

// PackBytes copies a fixed-width opaque field, reversing it for little-endian.
func PackBytes(v []byte, width int, o Order) ([]byte, error) {
	if err := checkWidth(width, o); err != nil {
		return nil, err
	}
	if len(v) != width {
		return nil, &LengthError{Want: width, Got: len(v)}
	}
	buf := make([]byte, width)
	copy(buf, v)
	if o == LittleEndian {
		reverse(buf)
	}
	return buf, nil
}

// UnpackBytes is the inverse of PackBytes.
func UnpackBytes(b []byte, width int, o Order) ([]byte, error) {
	return PackBytes(b, width, o)
}

// PutUint16 encodes v in two bytes.
func PutUint16(v uint16, o Order) []byte {
	return mustPack(uint64(v), 2, o)
}

// PutUint32 encodes v in four bytes.
func PutUint32(v uint32, o Order) []byte {
	return mustPack(uint64(v), 4, o)
}

// PutUint64 encodes v in eight bytes.
func PutUint64(v uint64, o Order) []byte {
	return mustPack(v, 8, o)
}

// Uint16 decodes a two-byte field.
func Uint16(b []byte, o Order) (uint16, error) {
	v, err := Unpack(b, 2, o)
	return uint16(v), err
}

// Uint32 decodes a four-byte field.
func Uint32(b []byte, o Order) (uint32, error) {
	v, err := Unpack(b, 4, o)
	return uint32(v), err
}

// Uint64 decodes an eight-byte field.
func Uint64(b []byte, o Order) (uint64, error) {
	return Unpack(b, 8, o)
}

// mustPack is only reached with widths that hold the value's type.
func mustPack(v uint64, width int, o Order) []byte {
	buf, err := Pack(v, width, o)
	if err != nil {
		panic(err)
	}
	return buf
}

func reverse(b []byte) {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
}
