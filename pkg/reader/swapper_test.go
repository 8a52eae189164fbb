package reader_test

import (
	"bytes"
	"errors"
	"testing"

	"bioplanes/pkg/dimension"
	"bioplanes/pkg/reader"
)

func TestSwapperSwap(t *testing.T) {
	f := openFake(t, "w&sizeZ=5&sizeC=2.fake")
	d, err := reader.NewDimensionSwapper(f, nil)
	if err != nil {
		t.Fatal(err)
	}

	if err := d.Swap('Z', 'T'); err != nil {
		t.Fatalf("Swap failed: %v", err)
	}
	if d.DimensionOrder() != "XYTCZ" || d.SizeZ() != 1 || d.SizeT() != 5 || d.SizeC() != 2 {
		t.Errorf("after swap: order %s Z=%d C=%d T=%d", d.DimensionOrder(), d.SizeZ(), d.SizeC(), d.SizeT())
	}
	if !d.Swapped() {
		t.Errorf("Swapped() = false after a swap")
	}
	if d.ImageCount() != 10 {
		t.Errorf("ImageCount() = %d, want 10", d.ImageCount())
	}
	// plane 3 was z=3; it is now t=3
	z, c, tt, err := reader.ZCTCoords(d, 3)
	if err != nil || z != 0 || c != 0 || tt != 3 {
		t.Errorf("ZCTCoords(3) = (%d, %d, %d), %v", z, c, tt, err)
	}
	if !bytes.Equal(mustOpen(t, d, 3), mustOpen(t, f, 3)) {
		t.Errorf("swapping changed the stored plane")
	}

	if err := d.Swap('t', 'z'); err != nil {
		t.Fatalf("Swap failed: %v", err)
	}
	if d.DimensionOrder() != "XYZCT" || d.SizeZ() != 5 || d.SizeT() != 1 || d.Swapped() {
		t.Errorf("swapping twice did not restore: order %s Z=%d T=%d", d.DimensionOrder(), d.SizeZ(), d.SizeT())
	}
}

func TestSwapperSwapDimensions(t *testing.T) {
	f := openFake(t, "w&sizeZ=5&sizeC=2&sizeT=3.fake")
	d, _ := reader.NewDimensionSwapper(f, nil)

	if err := d.SwapDimensions("XYCTZ"); err != nil {
		t.Fatalf("SwapDimensions failed: %v", err)
	}
	if d.DimensionOrder() != "XYCTZ" || d.SizeC() != 5 || d.SizeT() != 2 || d.SizeZ() != 3 {
		t.Errorf("order %s Z=%d C=%d T=%d", d.DimensionOrder(), d.SizeZ(), d.SizeC(), d.SizeT())
	}
	if reader.Sizes(d).PlaneCount() != d.ImageCount() {
		t.Errorf("relabelled sizes do not cover %d planes", d.ImageCount())
	}
}

func TestSwapperRejectsSpatialAxes(t *testing.T) {
	f := openFake(t, "w&sizeZ=2.fake")
	d, _ := reader.NewDimensionSwapper(f, nil)

	if err := d.Swap('X', 'Z'); !errors.Is(err, dimension.ErrUnsupportedSwap) {
		t.Errorf("Swap(X, Z) = %v, want ErrUnsupportedSwap", err)
	}
	if err := d.SwapDimensions("YXZCT"); !errors.Is(err, dimension.ErrUnsupportedSwap) {
		t.Errorf("SwapDimensions(YXZCT) = %v, want ErrUnsupportedSwap", err)
	}
	if err := d.SwapDimensions("XYZZT"); !errors.Is(err, dimension.ErrInvalidOrder) {
		t.Errorf("SwapDimensions(XYZZT) = %v, want ErrInvalidOrder", err)
	}
	if d.DimensionOrder() != "XYZCT" || d.Swapped() {
		t.Errorf("a rejected swap changed the order to %s", d.DimensionOrder())
	}
}

func TestSwapperCompositeChannels(t *testing.T) {
	f := openFake(t, "w&sizeZ=2&sizeC=6&rgb=3.fake")
	d, _ := reader.NewDimensionSwapper(f, nil)

	if err := d.Swap('C', 'T'); err != nil {
		t.Fatal(err)
	}
	if d.EffectiveSizeC() != 1 || d.SizeC() != 3 || d.SizeT() != 2 {
		t.Errorf("EffectiveSizeC=%d SizeC=%d SizeT=%d", d.EffectiveSizeC(), d.SizeC(), d.SizeT())
	}
}

func TestSwapperResetsOnFileChange(t *testing.T) {
	f := openFake(t, "a&sizeZ=2.fake")
	d, _ := reader.NewDimensionSwapper(f, nil)
	if err := d.Swap('Z', 'C'); err != nil {
		t.Fatal(err)
	}

	if err := d.SetID("b&sizeT=4&dimOrder=XYCTZ.fake"); err != nil {
		t.Fatal(err)
	}
	if d.Swapped() || d.DimensionOrder() != "XYCTZ" || d.SizeT() != 4 {
		t.Errorf("swap survived the file change: order %s T=%d", d.DimensionOrder(), d.SizeT())
	}
}

func TestSwapThenMerge(t *testing.T) {
	// planes are stored C fastest but declared XYZCT; relabelling fixes the merge
	f := openFake(t, "w&sizeZ=3&sizeC=2.fake")
	d, _ := reader.NewDimensionSwapper(f, nil)
	if err := d.SwapDimensions("XYCZT"); err != nil {
		t.Fatal(err)
	}
	m, _ := reader.NewChannelMerger(d, nil)

	if m.ImageCount() != 2 {
		t.Fatalf("ImageCount() = %d, want 2", m.ImageCount())
	}
	indices, _ := m.RealIndices(1)
	if !equalInts(indices, []int{3, 4, 5}) {
		t.Errorf("RealIndices(1) = %v, want [3 4 5]", indices)
	}
}
