package guesser

import (
	"reflect"
	"testing"

	"bioplanes/pkg/dimension"
	"bioplanes/pkg/pattern"
)

func mustParse(t *testing.T, s string) *pattern.Pattern {
	t.Helper()
	p, err := pattern.Parse(s)
	if err != nil {
		t.Fatalf("Failed to parse %q: %v", s, err)
	}
	return p
}

func TestKnownPrefixes(t *testing.T) {
	p := mustParse(t, "img_t<1-3>_z<1-2>.tif")
	r := Guess(p, "XYZCT", 2, 1, 1, true)

	want := []Axis{TAxis, ZAxis}
	if !reflect.DeepEqual(r.Axes, want) {
		t.Errorf("Expected %v, got %v", want, r.Axes)
	}
	if r.Swapped || r.Order != "XYZCT" {
		t.Errorf("Certain order must not be swapped, got %s swapped=%v", r.Order, r.Swapped)
	}
}

func TestNormalizePrefix(t *testing.T) {
	tests := map[string]string{
		"img_t":         "t",
		"_z":            "z",
		"Focalplane-01": "focalplane",
		"stack_ch2_":    "ch",
		"a.b.W 3":       "w",
		"123_":          "",
		"":              "",
	}
	for in, want := range tests {
		if got := NormalizePrefix(in); got != want {
			t.Errorf("NormalizePrefix(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestVocabulariesDisjoint(t *testing.T) {
	seen := map[string]string{}
	for name, list := range map[string][]string{"Z": zPrefixes, "T": tPrefixes, "C": cPrefixes} {
		for _, p := range list {
			if other, ok := seen[p]; ok {
				t.Errorf("Prefix %q is in both %s and %s", p, other, name)
			}
			seen[p] = name
		}
	}
}

func TestZAndCNeverShareAxis(t *testing.T) {
	p := mustParse(t, "z<1-4>_c<1-2>.tif")
	r := Guess(p, "XYZCT", 1, 1, 1, false)
	if r.Axes[0] != ZAxis || r.Axes[1] != CAxis {
		t.Errorf("Expected [Z C], got %v", r.Axes)
	}
}

func TestTwoChannelConvention(t *testing.T) {
	p := mustParse(t, "scan<2-3>.pic")
	r := Guess(p, "XYZCT", 1, 1, 1, true)
	if r.Axes[0] != CAxis {
		t.Errorf("Expected <2-3> to be C, got %v", r.Axes[0])
	}
}

func TestUncertainSwap(t *testing.T) {
	p := mustParse(t, "focal<1-3>.tif")
	r := Guess(p, "XYZCT", 4, 1, 1, false)
	if !r.Swapped {
		t.Fatal("Expected Z and T to be swapped")
	}
	if r.Order != "XYTCZ" || r.SizeZ != 1 || r.SizeT != 4 {
		t.Errorf("Unexpected swap result %s Z=%d T=%d", r.Order, r.SizeZ, r.SizeT)
	}
	if r.Axes[0] != ZAxis {
		t.Errorf("Expected Z block, got %v", r.Axes[0])
	}

	p = mustParse(t, "tp<1-3>.tif")
	r = Guess(p, "XYZCT", 1, 5, 1, false)
	if !r.Swapped || r.SizeZ != 5 || r.SizeT != 1 {
		t.Errorf("Expected symmetric swap, got swapped=%v Z=%d T=%d", r.Swapped, r.SizeZ, r.SizeT)
	}

	// certain orders are left alone
	r = Guess(mustParse(t, "focal<1-3>.tif"), "XYZCT", 4, 1, 1, true)
	if r.Swapped {
		t.Error("Certain order must not be swapped")
	}
}

func TestUnknownFill(t *testing.T) {
	p := mustParse(t, "a<1-3>_b<1-2>_d<1-4>_e<1-5>.tif")
	r := Guess(p, "XYZCT", 1, 1, 1, true)
	want := []Axis{ZAxis, TAxis, CAxis, CAxis}
	if !reflect.DeepEqual(r.Axes, want) {
		t.Errorf("Expected %v, got %v", want, r.Axes)
	}

	// a multi-plane per-file Z leaves only T free
	r = Guess(p, "XYZCT", 3, 1, 1, true)
	want = []Axis{TAxis, CAxis, CAxis, CAxis}
	if !reflect.DeepEqual(r.Axes, want) {
		t.Errorf("Expected %v, got %v", want, r.Axes)
	}
	if r.AxisCount(CAxis) != 3 {
		t.Errorf("Expected 3 C blocks, got %d", r.AxisCount(CAxis))
	}
}

func TestDuplicateKnownPrefix(t *testing.T) {
	p := mustParse(t, "z<1-2>_z<1-3>.tif")
	r := Guess(p, "XYZCT", 1, 1, 1, true)
	if r.AxisCount(ZAxis) != 1 {
		t.Errorf("Expected one Z block, got %v", r.Axes)
	}
	if r.Axes[1] != TAxis {
		t.Errorf("Expected second z block to fill T, got %v", r.Axes[1])
	}
}

func TestSeriesSize(t *testing.T) {
	p := mustParse(t, "t<1-3>_z<1-2>_w<1-2>.tif")
	r := Guess(p, "XYCZT", 1, 1, 3, true)
	if got := r.SeriesSize(TAxis); got != 3 {
		t.Errorf("Expected T=3, got %d", got)
	}
	if got := r.SeriesSize(ZAxis); got != 2 {
		t.Errorf("Expected Z=2, got %d", got)
	}
	if got := r.SeriesSize(CAxis); got != 6 {
		t.Errorf("Expected C=6, got %d", got)
	}
}

func TestDeterministic(t *testing.T) {
	p := mustParse(t, "x<1-3>_sec<1-2>_q<1-4>.tif")
	first := Guess(p, "XYZCT", 1, 2, 1, false)
	for i := 0; i < 10; i++ {
		r := Guess(p, "XYZCT", 1, 2, 1, false)
		if !reflect.DeepEqual(r, first) {
			t.Fatalf("Guess is not deterministic: %+v != %+v", r, first)
		}
	}
}

func TestInvalidOrderFallsBack(t *testing.T) {
	p := mustParse(t, "img<1-3>.tif")
	r := Guess(p, dimension.Order("bogus"), 0, 0, 0, false)
	if r.Order != dimension.DefaultOrder {
		t.Errorf("Expected default order, got %s", r.Order)
	}
	if r.SizeZ != 1 || r.SizeT != 1 || r.SizeC != 1 {
		t.Errorf("Expected sizes clamped to 1, got %d %d %d", r.SizeZ, r.SizeT, r.SizeC)
	}
}
