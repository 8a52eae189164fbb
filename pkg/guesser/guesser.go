// Package guesser decides which dimensional axis each varying block of a
// file name template represents.
package guesser

import (
	"strings"

	"bioplanes/pkg/dimension"
	"bioplanes/pkg/pattern"
)

// Axis is the axis assigned to a template block.
type Axis int

const (
	Unknown Axis = iota
	ZAxis
	TAxis
	CAxis
)

func (a Axis) String() string {
	switch a {
	case ZAxis:
		return "Z"
	case TAxis:
		return "T"
	case CAxis:
		return "C"
	}
	return "?"
}

// Symbol returns the axis order symbol, or 0 for Unknown.
func (a Axis) Symbol() byte {
	switch a {
	case ZAxis:
		return 'Z'
	case TAxis:
		return 'T'
	case CAxis:
		return 'C'
	}
	return 0
}

// Prefix vocabularies. They must stay disjoint.
var (
	zPrefixes = []string{"fp", "sec", "z", "zs", "focal", "focalplane"}
	tPrefixes = []string{"t", "tl", "tp"}
	cPrefixes = []string{"c", "ch", "w"}
)

// Result holds the outcome of one guess. It is not modified afterwards.
type Result struct {
	// Axes has one entry per template block, left to right.
	Axes []Axis

	// Order is the per-file dimension order, possibly with Z and T swapped.
	Order dimension.Order

	// SizeZ, SizeT and SizeC are the per-file sizes matching Order.
	SizeZ, SizeT, SizeC int

	// Swapped reports whether the per-file Z and T axes were exchanged.
	Swapped bool

	counts []int
}

// AxisCount returns how many blocks were assigned to axis.
func (r *Result) AxisCount(axis Axis) int {
	n := 0
	for _, a := range r.Axes {
		if a == axis {
			n++
		}
	}
	return n
}

// SeriesSize returns the extent of axis across the whole file series: the
// per-file size times the value count of every block assigned to it.
func (r *Result) SeriesSize(axis Axis) int {
	n := 1
	switch axis {
	case ZAxis:
		n = r.SizeZ
	case TAxis:
		n = r.SizeT
	case CAxis:
		n = r.SizeC
	}
	for i, a := range r.Axes {
		if a == axis {
			n *= r.counts[i]
		}
	}
	return n
}

// Guess assigns an axis to every block of p.
//
// Known prefixes are matched first, Z before T before C, and only the first
// block with a Z or T prefix claims that axis. A <2-3> range is a
// two channel series whatever its prefix. When the per-file order is not
// certain, a lone Z block combined with a multi-plane per-file Z (or the
// same for T) swaps Z and T in the per-file order. Remaining blocks become Z
// or T while those axes are still free and of size one, and C otherwise.
//
// Guess never fails: an invalid order is replaced by the default order and
// sizes below one are treated as one.
func Guess(p *pattern.Pattern, order dimension.Order, sizeZ, sizeT, sizeC int, certain bool) *Result {
	if order.Validate() != nil {
		order = dimension.DefaultOrder
	}
	r := &Result{
		Order: order,
		SizeZ: max(sizeZ, 1),
		SizeT: max(sizeT, 1),
		SizeC: max(sizeC, 1),
	}
	blocks := p.Blocks()
	r.Axes = make([]Axis, len(blocks))
	r.counts = make([]int, len(blocks))

	foundZ, foundT := false, false
	for i, b := range blocks {
		r.counts[i] = b.Count
		switch prefix := NormalizePrefix(b.Prefix); {
		case contains(zPrefixes, prefix) && !foundZ:
			r.Axes[i] = ZAxis
			foundZ = true
		case contains(tPrefixes, prefix) && !foundT:
			r.Axes[i] = TAxis
			foundT = true
		case contains(cPrefixes, prefix):
			r.Axes[i] = CAxis
		case b.Numeric && b.First == 2 && b.Last == 3 && b.Step == 1:
			r.Axes[i] = CAxis
		}
	}

	if !certain {
		if (foundZ && !foundT && r.SizeZ > 1 && r.SizeT == 1) ||
			(foundT && !foundZ && r.SizeT > 1 && r.SizeZ == 1) {
			sizes := dimension.Sizes{Z: r.SizeZ, C: r.SizeC, T: r.SizeT}
			if o, s, err := dimension.Swap(r.Order, sizes, 'Z', 'T'); err == nil {
				r.Order = o
				r.SizeZ, r.SizeT = s.Z, s.T
				r.Swapped = true
			}
		}
	}

	canBeZ := !foundZ && r.SizeZ == 1
	canBeT := !foundT && r.SizeT == 1
	for i, a := range r.Axes {
		if a != Unknown {
			continue
		}
		switch {
		case canBeZ:
			r.Axes[i] = ZAxis
			canBeZ = false
		case canBeT:
			r.Axes[i] = TAxis
			canBeT = false
		default:
			r.Axes[i] = CAxis
		}
	}
	return r
}

// NormalizePrefix reduces a block prefix to the trailing run of letters
// that names it: trailing digits and separators are dropped, then everything
// before the last letter run.
func NormalizePrefix(prefix string) string {
	p := strings.ToLower(prefix)
	l := len(p) - 1
	for l >= 0 && isDivider(p[l]) {
		l--
	}
	f := l
	for f >= 0 && p[f] >= 'a' && p[f] <= 'z' {
		f--
	}
	return p[f+1 : l+1]
}

func isDivider(c byte) bool {
	return (c >= '0' && c <= '9') || c == ' ' || c == '-' || c == '_' || c == '.'
}

func contains(list []string, s string) bool {
	if s == "" {
		return false
	}
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
