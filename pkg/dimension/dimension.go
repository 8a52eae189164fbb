// Package dimension translates between linear plane indices and (Z, C, T)
// coordinates for a given axis order.
//
// An axis order is a five symbol code such as "XYZCT". X and Y always occupy
// the first two positions. The remaining three symbols name the non-spatial
// axes from fastest varying to slowest varying, so in "XYZCT" consecutive
// plane indices step through Z first, then C, then T.
package dimension

import (
	"errors"
	"fmt"
	"strings"
)

// Common errors
var (
	ErrInvalidCoordinate = errors.New("invalid coordinate")
	ErrUnsupportedSwap   = errors.New("unsupported axis swap")
	ErrInvalidOrder      = errors.New("invalid dimension order")
	ErrInvalidSizes      = errors.New("invalid axis sizes")
)

// DefaultOrder is used whenever no trustworthy order is available.
const DefaultOrder Order = "XYZCT"

// Order is a five symbol axis order code over {X, Y, Z, C, T}.
type Order string

// ParseOrder validates s as an axis order. Lower case symbols are accepted.
func ParseOrder(s string) (Order, error) {
	o := Order(strings.ToUpper(strings.TrimSpace(s)))
	if err := o.Validate(); err != nil {
		return "", err
	}
	return o, nil
}

// Validate reports whether o is a well-formed axis order.
func (o Order) Validate() error {
	if len(o) != 5 {
		return fmt.Errorf("%w: %q must have 5 symbols", ErrInvalidOrder, string(o))
	}
	if !((o[0] == 'X' && o[1] == 'Y') || (o[0] == 'Y' && o[1] == 'X')) {
		return fmt.Errorf("%w: %q must start with X and Y", ErrInvalidOrder, string(o))
	}
	seen := map[byte]bool{}
	for i := 2; i < 5; i++ {
		a := o[i]
		if a != 'Z' && a != 'C' && a != 'T' {
			return fmt.Errorf("%w: %q has unknown axis %q", ErrInvalidOrder, string(o), a)
		}
		if seen[a] {
			return fmt.Errorf("%w: %q repeats axis %q", ErrInvalidOrder, string(o), a)
		}
		seen[a] = true
	}
	return nil
}

// Suffix returns the three non-spatial symbols, fastest first.
func (o Order) Suffix() string {
	if len(o) < 5 {
		return ""
	}
	return string(o[2:5])
}

// Position returns the index of axis in o, or -1.
func (o Order) Position(axis byte) int {
	return strings.IndexByte(string(o), axis)
}

// Fastest returns the fastest varying non-spatial axis.
func (o Order) Fastest() byte {
	return o[2]
}

func (o Order) String() string {
	return string(o)
}

// Sizes holds the extent of every axis. Only Z, C and T take part in plane
// addressing; C is the number of planes along the channel axis, not the
// number of samples stored per pixel.
type Sizes struct {
	X, Y, Z, C, T int
}

// Of returns the size of the named axis.
func (s Sizes) Of(axis byte) int {
	switch axis {
	case 'X':
		return s.X
	case 'Y':
		return s.Y
	case 'Z':
		return s.Z
	case 'C':
		return s.C
	case 'T':
		return s.T
	}
	return 0
}

// With returns a copy of s with the named axis set to n.
func (s Sizes) With(axis byte, n int) Sizes {
	switch axis {
	case 'X':
		s.X = n
	case 'Y':
		s.Y = n
	case 'Z':
		s.Z = n
	case 'C':
		s.C = n
	case 'T':
		s.T = n
	}
	return s
}

// PlaneCount is Z*C*T.
func (s Sizes) PlaneCount() int {
	return s.Z * s.C * s.T
}

// Validate checks that all non-spatial sizes are positive.
func (s Sizes) Validate() error {
	if s.Z < 1 || s.C < 1 || s.T < 1 {
		return fmt.Errorf("%w: Z=%d C=%d T=%d", ErrInvalidSizes, s.Z, s.C, s.T)
	}
	return nil
}

// Index computes the plane index of (z, c, t). The first non-spatial axis in
// order varies fastest.
func Index(z, c, t int, order Order, sizes Sizes) (int, error) {
	if err := order.Validate(); err != nil {
		return 0, err
	}
	if err := sizes.Validate(); err != nil {
		return 0, err
	}
	if z < 0 || z >= sizes.Z {
		return 0, fmt.Errorf("%w: Z=%d outside [0, %d)", ErrInvalidCoordinate, z, sizes.Z)
	}
	if c < 0 || c >= sizes.C {
		return 0, fmt.Errorf("%w: C=%d outside [0, %d)", ErrInvalidCoordinate, c, sizes.C)
	}
	if t < 0 || t >= sizes.T {
		return 0, fmt.Errorf("%w: T=%d outside [0, %d)", ErrInvalidCoordinate, t, sizes.T)
	}

	lengths, pos := axisVectors(order, sizes, z, c, t)
	return PositionToRaster(lengths, pos), nil
}

// Coords computes the (z, c, t) coordinate of a plane index.
func Coords(index int, order Order, sizes Sizes) (z, c, t int, err error) {
	if err = order.Validate(); err != nil {
		return 0, 0, 0, err
	}
	if err = sizes.Validate(); err != nil {
		return 0, 0, 0, err
	}
	n := sizes.PlaneCount()
	if index < 0 || index >= n {
		return 0, 0, 0, fmt.Errorf("%w: index %d outside [0, %d)", ErrInvalidCoordinate, index, n)
	}

	lengths, _ := axisVectors(order, sizes, 0, 0, 0)
	pos := RasterToPosition(lengths, index)
	for i, a := range []byte(order.Suffix()) {
		switch a {
		case 'Z':
			z = pos[i]
		case 'C':
			c = pos[i]
		case 'T':
			t = pos[i]
		}
	}
	return z, c, t, nil
}

// axisVectors lays out sizes and coordinates in order, fastest first.
func axisVectors(order Order, sizes Sizes, z, c, t int) (lengths, pos []int) {
	lengths = make([]int, 3)
	pos = make([]int, 3)
	for i, a := range []byte(order.Suffix()) {
		lengths[i] = sizes.Of(a)
		switch a {
		case 'Z':
			pos[i] = z
		case 'C':
			pos[i] = c
		case 'T':
			pos[i] = t
		}
	}
	return lengths, pos
}

// PositionToRaster converts an N-dimensional position to a raster offset,
// with the first dimension varying fastest.
func PositionToRaster(lengths, pos []int) int {
	offset := 0
	for i := len(pos) - 1; i >= 0; i-- {
		offset = offset*lengths[i] + pos[i]
	}
	return offset
}

// RasterToPosition is the inverse of PositionToRaster.
func RasterToPosition(lengths []int, raster int) []int {
	pos := make([]int, len(lengths))
	for i, l := range lengths {
		pos[i] = raster % l
		raster /= l
	}
	return pos
}

// Swap exchanges two non-spatial axis symbols in order, together with their
// sizes. Stored planes are not touched: only the labelling changes, so the
// codec interprets every index under the new order afterwards.
func Swap(order Order, sizes Sizes, a, b byte) (Order, Sizes, error) {
	a, b = upper(a), upper(b)
	if a == 'X' || a == 'Y' || b == 'X' || b == 'Y' {
		return order, sizes, fmt.Errorf("%w: %c and %c, X and Y must stay in front", ErrUnsupportedSwap, a, b)
	}
	if err := order.Validate(); err != nil {
		return order, sizes, err
	}
	ia, ib := order.Position(a), order.Position(b)
	if ia < 0 || ib < 0 {
		return order, sizes, fmt.Errorf("%w: %c and %c are not both in %s", ErrUnsupportedSwap, a, b, order)
	}
	if a == b {
		return order, sizes, nil
	}

	ch := []byte(order)
	ch[ia], ch[ib] = b, a
	sa, sb := sizes.Of(a), sizes.Of(b)
	sizes = sizes.With(a, sb).With(b, sa)
	return Order(ch), sizes, nil
}

func upper(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - 'a' + 'A'
	}
	return b
}
