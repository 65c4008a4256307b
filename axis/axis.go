// Package axis maps magnetometer axis names and indexes to register bit masks
// and addresses, and decodes raw measurement bytes.
package axis

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalid is returned when an axis name or index does not describe X, Y or
// Z.
var ErrInvalid = errors.New("axis: invalid axis")

// Axis is the index of a single axis.
type Axis int

// Axis indexes. All is the sentinel used to request every axis at once.
const (
	X Axis = iota
	Y
	Z

	All Axis = -1
)

var names = [...]string{"x", "y", "z"}

// Valid reports whether a is X, Y or Z.
func (a Axis) Valid() bool {
	return a >= X && a <= Z
}

func (a Axis) String() string {
	if a == All {
		return "all"
	}
	if !a.Valid() {
		return fmt.Sprintf("Axis(%d)", int(a))
	}
	return names[a]
}

// Mask returns the 3-bit mask of the axes present in names: bit 0 is X, bit 1
// is Y and bit 2 is Z. Every character of every name is a token, so
// Mask("XYZ") and Mask("x", "y", "z") are both 7. Letters other than x, y and
// z are ignored.
func Mask(names ...string) uint8 {
	var m uint8
	for _, n := range names {
		for _, c := range n {
			switch c {
			case 'x', 'X':
				m |= 1 << X
			case 'y', 'Y':
				m |= 1 << Y
			case 'z', 'Z':
				m |= 1 << Z
			}
		}
	}
	return m
}

// Index returns the axis named by the first character of name.
func Index(name string) (Axis, error) {
	if name == "" {
		return 0, fmt.Errorf("%w: empty name", ErrInvalid)
	}
	switch name[0] {
	case 'x', 'X':
		return X, nil
	case 'y', 'Y':
		return Y, nil
	case 'z', 'Z':
		return Z, nil
	}
	return 0, fmt.Errorf("%w: name %q", ErrInvalid, name)
}

// Name returns the lowercase name of a.
func Name(a Axis) (string, error) {
	if !a.Valid() {
		return "", fmt.Errorf("%w: index %d", ErrInvalid, int(a))
	}
	return names[a], nil
}

// Addr returns the register address of a in a family of per-axis registers
// starting at base and spaced stride bytes apart.
func Addr(a Axis, base, stride uint8) uint8 {
	return base + stride*uint8(a)
}

// DecodeSigned interprets b as a big-endian two's complement integer. The
// sign is taken from the most significant bit of b[0]. Sequences longer than
// eight bytes keep only their trailing eight bytes.
func DecodeSigned(b []byte) int64 {
	var n uint64
	for _, v := range b {
		n = n<<8 | uint64(v)
	}
	if len(b) == 0 || len(b) >= 8 {
		return int64(n)
	}
	if b[0]&0x80 != 0 {
		n -= 1 << (8 * uint(len(b)))
	}
	return int64(n)
}

// Vector holds one measurement per axis, indexed by Axis.
type Vector [3]int32

// Norm returns the Euclidean length of v in raw counts.
func (v Vector) Norm() float64 {
	x, y, z := float64(v[X]), float64(v[Y]), float64(v[Z])
	return math.Sqrt(x*x + y*y + z*z)
}
