// Package reader defines the capability surface shared by every plane
// reader, concrete decoders and decorators alike, together with the
// decorators that reshape how planes are counted and addressed.
//
// A decorator wraps another Reader, delegates every operation it does not
// change and may itself be wrapped, so
//
//	sep, _ := reader.NewChannelSeparator(decoder, log)
//	merged, _ := reader.NewChannelMerger(sep, log)
//
// is a valid chain. A Reader instance is meant to be used from one goroutine
// at a time; open separate instances for concurrent access to a dataset.
package reader

import (
	"errors"
	"fmt"

	"bioplanes/internal/models"
	"bioplanes/pkg/dimension"
)

// Common errors
var (
	ErrInvalidPlane       = errors.New("invalid plane index")
	ErrIncompatibleReader = errors.New("incompatible reader")
	ErrNilReader          = errors.New("nil inner reader")
	ErrNotInitialized     = errors.New("no file open")
	ErrUnknownFormat      = errors.New("unknown file format")
)

// Reader gives access to the planes of one open dataset.
type Reader interface {
	// IsThisType reports whether the reader can open id.
	IsThisType(id string) bool

	// SetID opens the dataset named id. Opening the already open id again
	// does nothing.
	SetID(id string) error

	// CurrentFile returns the id of the open dataset, or "".
	CurrentFile() string

	Close() error

	ImageCount() int
	IsRGB() bool
	RGBChannelCount() int
	IsInterleaved() bool
	IsLittleEndian() bool
	PixelType() models.PixelType

	SizeX() int
	SizeY() int
	SizeZ() int
	SizeC() int
	SizeT() int

	// EffectiveSizeC is the number of planes along C, which differs from
	// SizeC when several channels share one composite plane.
	EffectiveSizeC() int

	DimensionOrder() string
	IsOrderCertain() bool

	// OpenBytes returns a copy of plane no.
	OpenBytes(no int) ([]byte, error)

	// MetadataStore returns the metadata sink of the open dataset, or nil.
	MetadataStore() MetadataStore
}

// MetadataStore is the query side of a metadata sink populated while a
// dataset is opened. Any method may fail, in which case the value is
// unknown.
type MetadataStore interface {
	DimensionOrder() (string, error)
	SizeZ() (int, error)
	SizeC() (int, error)
	SizeT() (int, error)
}

// CoreMetadata snapshots the dimensions of r.
func CoreMetadata(r Reader) models.CoreMetadata {
	return models.CoreMetadata{
		SizeX:           r.SizeX(),
		SizeY:           r.SizeY(),
		SizeZ:           r.SizeZ(),
		SizeC:           r.SizeC(),
		SizeT:           r.SizeT(),
		ImageCount:      r.ImageCount(),
		RGBChannelCount: r.RGBChannelCount(),
		Interleaved:     r.IsInterleaved(),
		LittleEndian:    r.IsLittleEndian(),
		PixelType:       r.PixelType(),
		DimensionOrder:  r.DimensionOrder(),
		OrderCertain:    r.IsOrderCertain(),
	}
}

// Sizes returns the plane addressing sizes of r, with C counted in planes.
func Sizes(r Reader) dimension.Sizes {
	return dimension.Sizes{
		X: r.SizeX(),
		Y: r.SizeY(),
		Z: r.SizeZ(),
		C: r.EffectiveSizeC(),
		T: r.SizeT(),
	}
}

// Index returns the plane index of (z, c, t) in r.
func Index(r Reader, z, c, t int) (int, error) {
	return dimension.Index(z, c, t, dimension.Order(r.DimensionOrder()), Sizes(r))
}

// ZCTCoords returns the (z, c, t) coordinate of plane no in r.
func ZCTCoords(r Reader, no int) (z, c, t int, err error) {
	return dimension.Coords(no, dimension.Order(r.DimensionOrder()), Sizes(r))
}

// ResolveDimensions returns the order and sizes of r, preferring what r
// declares itself, then its metadata store. Whatever is still unknown is
// replaced by the default order and sizes of one; in that case the returned
// error wraps ErrIncompatibleReader and describes what was substituted. The
// returned order and sizes are always usable.
func ResolveDimensions(r Reader) (dimension.Order, dimension.Sizes, error) {
	sizes := Sizes(r)
	var problems []error

	order, err := dimension.ParseOrder(r.DimensionOrder())
	if err != nil {
		order, err = storeOrder(r.MetadataStore())
		if err != nil {
			problems = append(problems, fmt.Errorf("dimension order: %w", err))
			order = dimension.DefaultOrder
		}
	}

	store := r.MetadataStore()
	fill := func(axis byte, get func(MetadataStore) (int, error)) {
		if sizes.Of(axis) >= 1 {
			return
		}
		n := 0
		if store != nil {
			n, err = get(store)
		} else {
			err = errors.New("no metadata store")
		}
		if err != nil || n < 1 {
			problems = append(problems, fmt.Errorf("size %c unknown", axis))
			n = 1
		}
		sizes = sizes.With(axis, n)
	}
	fill('Z', MetadataStore.SizeZ)
	fill('C', MetadataStore.SizeC)
	fill('T', MetadataStore.SizeT)

	if len(problems) > 0 {
		return order, sizes, fmt.Errorf("%w: %v", ErrIncompatibleReader, errors.Join(problems...))
	}
	return order, sizes, nil
}

func storeOrder(store MetadataStore) (dimension.Order, error) {
	if store == nil {
		return "", errors.New("no metadata store")
	}
	s, err := store.DimensionOrder()
	if err != nil {
		return "", err
	}
	return dimension.ParseOrder(s)
}

// CheckPlane returns ErrInvalidPlane when no is outside [0, count).
func CheckPlane(no, count int) error {
	if no < 0 || no >= count {
		return fmt.Errorf("%w: %d outside [0, %d)", ErrInvalidPlane, no, count)
	}
	return nil
}
