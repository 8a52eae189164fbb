// Package stamps infers an axis order from coordinate stamps embedded in
// individual planes.
//
// Some acquisition software writes, for every plane, its position along each
// acquisition axis. Watching how those positions change from one plane to
// the next gives an empirical idea of which axis varies at which rate. The
// inference is a heuristic over a small sample and is only a fallback for
// when no stronger declaration exists.
package stamps

import (
	"math"
	"strings"

	"gonum.org/v1/gonum/stat"

	"bioplanes/pkg/dimension"
)

// MaxPlanes is the number of leading planes inspected.
const MaxPlanes = 10

// Entry is the position of one plane along one named axis.
type Entry struct {
	Axis  string
	Value float64
}

// Vector lists a plane's positions along axes 3 and above.
type Vector []Entry

// Source supplies the stamp of a plane.
type Source interface {
	PlaneStamps(no int) (Vector, error)
}

// Collect reads the stamps of the first min(MaxPlanes, planeCount) planes.
func Collect(src Source, planeCount int) ([]Vector, error) {
	n := min(planeCount, MaxPlanes)
	out := make([]Vector, 0, n)
	for i := 0; i < n; i++ {
		v, err := src.PlaneStamps(i)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// MeanDifferences returns, for every stamp position, the mean change of its
// value between consecutive planes, along with the axis name at that
// position. A difference is only taken between adjacent planes whose
// vectors both reach the position, so a short plane breaks the run.
func MeanDifferences(vectors []Vector) (names []string, means []float64) {
	if len(vectors) > MaxPlanes {
		vectors = vectors[:MaxPlanes]
	}
	width := 0
	for _, v := range vectors {
		width = max(width, len(v))
	}
	names = make([]string, width)
	means = make([]float64, width)

	for i := 0; i < width; i++ {
		var diffs []float64
		for j, v := range vectors {
			if len(v) <= i {
				continue
			}
			if names[i] == "" {
				names[i] = v[i].Axis
			}
			if j > 0 && len(vectors[j-1]) > i {
				diffs = append(diffs, v[i].Value-vectors[j-1][i].Value)
			}
		}
		if len(diffs) > 0 {
			means[i] = stat.Mean(diffs, nil)
		}
	}
	return names, means
}

// Rank orders stamp positions by the magnitude of their mean difference,
// smallest first. Positions whose mean is zero never vary and are left out.
// Equal magnitudes keep their original relative order.
func Rank(means []float64) []int {
	used := make([]bool, len(means))
	var ranked []int
	for {
		best := -1
		for i, m := range means {
			if used[i] || m == 0 {
				continue
			}
			if best < 0 || math.Abs(m) < math.Abs(means[best]) {
				best = i
			}
		}
		if best < 0 {
			return ranked
		}
		used[best] = true
		ranked = append(ranked, best)
	}
}

// InferOrder derives a complete axis order from plane stamps. A stamp axis
// named "Z" becomes Z, one named "Time" becomes T and any other named axis
// apart from x and y becomes C, each symbol being used once. Missing
// symbols are then appended in the order Z, T, C.
func InferOrder(vectors []Vector) dimension.Order {
	names, means := MeanDifferences(vectors)

	order := "XY"
	for _, i := range Rank(means) {
		name := strings.ToLower(strings.TrimSpace(names[i]))
		var symbol byte
		switch name {
		case "", "x", "y":
			continue
		case "z":
			symbol = 'Z'
		case "time":
			symbol = 'T'
		default:
			symbol = 'C'
		}
		if strings.IndexByte(order, symbol) < 0 {
			order += string(symbol)
		}
	}

	for _, symbol := range "ZTC" {
		if len(order) >= 5 {
			break
		}
		if !strings.ContainsRune(order, symbol) {
			order += string(symbol)
		}
	}
	return dimension.Order(order)
}
