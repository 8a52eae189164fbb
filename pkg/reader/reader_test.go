package reader_test

import (
	"bytes"
	"errors"
	"testing"

	"bioplanes/internal/logger"
	"bioplanes/pkg/dimension"
	"bioplanes/pkg/fake"
	"bioplanes/pkg/reader"
)

func openFake(t *testing.T, id string) *fake.Reader {
	t.Helper()
	f := fake.New(nil)
	if err := f.SetID(id); err != nil {
		t.Fatalf("SetID(%q) failed: %v", id, err)
	}
	return f
}

func mustOpen(t *testing.T, r reader.Reader, no int) []byte {
	t.Helper()
	plane, err := r.OpenBytes(no)
	if err != nil {
		t.Fatalf("OpenBytes(%d) failed: %v", no, err)
	}
	return plane
}

// countingReader counts the SetID calls reaching the concrete reader
type countingReader struct {
	*fake.Reader
	calls int
}

func (c *countingReader) SetID(id string) error {
	c.calls++
	return c.Reader.SetID(id)
}

// failingReader fails every plane read
type failingReader struct {
	*fake.Reader
}

var errRead = errors.New("read failure")

func (f failingReader) OpenBytes(no int) ([]byte, error) { return nil, errRead }

func TestNilReaderRejected(t *testing.T) {
	if _, err := reader.NewWrapper(nil); !errors.Is(err, reader.ErrNilReader) {
		t.Errorf("NewWrapper(nil) = %v, want ErrNilReader", err)
	}
	if _, err := reader.NewChannelSeparator(nil, nil); !errors.Is(err, reader.ErrNilReader) {
		t.Errorf("NewChannelSeparator(nil) = %v, want ErrNilReader", err)
	}
	if _, err := reader.NewChannelMerger(nil, nil); !errors.Is(err, reader.ErrNilReader) {
		t.Errorf("NewChannelMerger(nil) = %v, want ErrNilReader", err)
	}
	if _, err := reader.NewDimensionSwapper(nil, nil); !errors.Is(err, reader.ErrNilReader) {
		t.Errorf("NewDimensionSwapper(nil) = %v, want ErrNilReader", err)
	}
}

func TestWrapperDelegates(t *testing.T) {
	f := openFake(t, "w&sizeZ=2&sizeC=6&rgb=3&dimOrder=XYCZT&certain=false.fake")
	w, err := reader.NewWrapper(f)
	if err != nil {
		t.Fatal(err)
	}
	if reader.CoreMetadata(w) != reader.CoreMetadata(f) {
		t.Errorf("wrapper metadata %+v differs from %+v", reader.CoreMetadata(w), reader.CoreMetadata(f))
	}
	if !bytes.Equal(mustOpen(t, w, 1), mustOpen(t, f, 1)) {
		t.Errorf("wrapper plane differs from the wrapped reader's")
	}
	if w.Reader() != reader.Reader(f) {
		t.Errorf("Reader() does not return the wrapped reader")
	}
}

func TestSetIDSameFileIsNoop(t *testing.T) {
	c := &countingReader{Reader: fake.New(nil)}
	m, err := reader.NewChannelMerger(c, nil)
	if err != nil {
		t.Fatal(err)
	}
	id := "n&sizeC=3.fake"
	for i := 0; i < 3; i++ {
		if err := m.SetID(id); err != nil {
			t.Fatalf("SetID failed: %v", err)
		}
	}
	if c.calls != 1 {
		t.Errorf("concrete SetID called %d times, want 1", c.calls)
	}
}

func TestUnwrap(t *testing.T) {
	f := openFake(t, "u&sizeC=3&rgb=3.fake")
	sep, _ := reader.NewChannelSeparator(f, nil)
	merged, _ := reader.NewChannelMerger(sep, nil)
	swapped, _ := reader.NewDimensionSwapper(merged, nil)

	if reader.Unwrap(swapped) != reader.Reader(f) {
		t.Errorf("Unwrap did not reach the concrete reader")
	}
	if reader.Unwrap(f) != reader.Reader(f) {
		t.Errorf("Unwrap of a concrete reader should return it")
	}
}

func TestIndexAndCoords(t *testing.T) {
	f := openFake(t, "i&sizeZ=3&sizeC=2&sizeT=4&dimOrder=XYCZT.fake")

	no, err := reader.Index(f, 1, 0, 2)
	if err != nil || no != 14 {
		t.Errorf("Index(1, 0, 2) = %d, %v; want 14", no, err)
	}
	z, c, tt, err := reader.ZCTCoords(f, 14)
	if err != nil || z != 1 || c != 0 || tt != 2 {
		t.Errorf("ZCTCoords(14) = (%d, %d, %d), %v", z, c, tt, err)
	}
	if _, _, _, err := reader.ZCTCoords(f, 24); !errors.Is(err, dimension.ErrInvalidCoordinate) {
		t.Errorf("ZCTCoords(24) = %v, want ErrInvalidCoordinate", err)
	}
}

func TestResolveDimensions(t *testing.T) {
	tests := []struct {
		id           string
		order        dimension.Order
		incompatible bool
	}{
		{"r&sizeC=3&dimOrder=XYTCZ.fake", "XYTCZ", false},
		{"r&sizeC=3&dimOrder=XYTCZ&declare=false.fake", "XYTCZ", false},
		{"r&sizeC=3&dimOrder=XYTCZ&declare=false&store=none.fake", "XYZCT", true},
		{"r&sizeC=3&dimOrder=XYTCZ&declare=false&store=error.fake", "XYZCT", true},
	}
	for _, tt := range tests {
		order, sizes, err := reader.ResolveDimensions(openFake(t, tt.id))
		if order != tt.order {
			t.Errorf("%s: order %s, want %s", tt.id, order, tt.order)
		}
		if sizes.C != 3 || sizes.Z != 1 || sizes.T != 1 {
			t.Errorf("%s: sizes %+v", tt.id, sizes)
		}
		if got := errors.Is(err, reader.ErrIncompatibleReader); got != tt.incompatible {
			t.Errorf("%s: incompatible=%v, want %v (err %v)", tt.id, got, tt.incompatible, err)
		}
	}
}

func TestIncompatibleReaderIsLogged(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&buf, logger.LogInfo, nil)

	f := openFake(t, "l&sizeC=3&declare=false&store=none.fake")
	m, err := reader.NewChannelMerger(f, log)
	if err != nil {
		t.Fatal(err)
	}
	if m.DimensionOrder() != "XYZCT" {
		t.Errorf("DimensionOrder() = %s, want XYZCT", m.DimensionOrder())
	}
	if !bytes.Contains(buf.Bytes(), []byte("incompatible reader")) {
		t.Errorf("expected the fallback to be logged, got %q", buf.String())
	}
}
