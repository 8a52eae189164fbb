package stamps

import (
	"errors"
	"math"
	"reflect"
	"testing"
)

func series(n int, entries func(i int) Vector) []Vector {
	out := make([]Vector, n)
	for i := range out {
		out[i] = entries(i)
	}
	return out
}

// TestTimeBeforeZ checks that the axis with the smaller mean step is placed first
func TestTimeBeforeZ(t *testing.T) {
	vectors := series(6, func(i int) Vector {
		return Vector{
			{Axis: "Z", Value: float64(i) * 1.0},
			{Axis: "Time", Value: float64(i) * 0.1},
		}
	})
	if got := InferOrder(vectors); got != "XYTZC" {
		t.Errorf("Expected XYTZC, got %s", got)
	}
}

func TestMeanDifferences(t *testing.T) {
	vectors := []Vector{
		{{Axis: "Z", Value: 0}, {Axis: "Time", Value: 0}},
		{{Axis: "Z", Value: 2}, {Axis: "Time", Value: 1}},
		{{Axis: "Z", Value: 4}},
		{},
	}
	names, means := MeanDifferences(vectors)
	if !reflect.DeepEqual(names, []string{"Z", "Time"}) {
		t.Errorf("Unexpected names %v", names)
	}
	if math.Abs(means[0]-2) > 1e-9 {
		t.Errorf("Expected mean Z difference 2, got %f", means[0])
	}
	if math.Abs(means[1]-1) > 1e-9 {
		t.Errorf("Expected mean Time difference 1, got %f", means[1])
	}
}

func TestMeanDifferencesAcrossShortPlane(t *testing.T) {
	vectors := []Vector{
		{{Axis: "Time", Value: 0}},
		{},
		{{Axis: "Time", Value: 5}},
		{{Axis: "Time", Value: 6}},
		{{Axis: "Time", Value: 7}},
	}
	_, means := MeanDifferences(vectors)
	if math.Abs(means[0]-1) > 1e-9 {
		t.Errorf("Expected mean Time difference 1 with the gap ignored, got %f", means[0])
	}

	isolated := []Vector{{{Axis: "Z", Value: 1}}, {}, {{Axis: "Z", Value: 9}}}
	if _, means := MeanDifferences(isolated); means[0] != 0 {
		t.Errorf("Expected no difference between non-adjacent planes, got %f", means[0])
	}
}

func TestRank(t *testing.T) {
	got := Rank([]float64{0.5, 0, -0.1, 0.5, 2})
	want := []int{2, 0, 3, 4}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
	if len(Rank(nil)) != 0 {
		t.Error("Expected empty ranking for no stamps")
	}
}

func TestOtherAxesBecomeChannel(t *testing.T) {
	vectors := series(4, func(i int) Vector {
		return Vector{
			{Axis: "Lambda", Value: float64(i) * 5},
			{Axis: "x", Value: float64(i) * 0.01},
			{Axis: "Z", Value: float64(i) * 10},
			{Axis: "Wavelength", Value: float64(i) * 0.5},
		}
	})
	// ranking: x (skipped), Wavelength -> C, Lambda (C used), Z
	if got := InferOrder(vectors); got != "XYCZT" {
		t.Errorf("Expected XYCZT, got %s", got)
	}
}

func TestNoEvidence(t *testing.T) {
	if got := InferOrder(nil); got != "XYZTC" {
		t.Errorf("Expected default completion XYZTC, got %s", got)
	}
	constant := series(5, func(i int) Vector { return Vector{{Axis: "Time", Value: 3}} })
	if got := InferOrder(constant); got != "XYZTC" {
		t.Errorf("Expected XYZTC for constant stamps, got %s", got)
	}
}

func TestOnlyFirstPlanesUsed(t *testing.T) {
	vectors := series(20, func(i int) Vector {
		v := float64(i)
		if i >= MaxPlanes {
			v = 1000 * float64(i)
		}
		return Vector{{Axis: "Z", Value: v}}
	})
	_, means := MeanDifferences(vectors)
	if math.Abs(means[0]-1) > 1e-9 {
		t.Errorf("Expected mean 1 over the first %d planes, got %f", MaxPlanes, means[0])
	}
}

type fakeSource struct {
	calls int
	fail  int
}

func (f *fakeSource) PlaneStamps(no int) (Vector, error) {
	f.calls++
	if no == f.fail {
		return nil, errors.New("read failed")
	}
	return Vector{{Axis: "Z", Value: float64(no)}}, nil
}

func TestCollect(t *testing.T) {
	src := &fakeSource{fail: -1}
	vectors, err := Collect(src, 25)
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if len(vectors) != MaxPlanes || src.calls != MaxPlanes {
		t.Errorf("Expected %d planes read, got %d (%d calls)", MaxPlanes, len(vectors), src.calls)
	}

	if _, err := Collect(&fakeSource{fail: 2}, 5); err == nil {
		t.Error("Expected source error to propagate")
	}
}
