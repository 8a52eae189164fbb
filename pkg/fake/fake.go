// Package fake is a synthetic plane decoder configured entirely by its id.
//
// An id has the form
//
//	name&key=value&key=value.fake
//
// with the keys
//
//	sizeX, sizeY        plane size (default 8x8)
//	sizeZ, sizeC, sizeT axis sizes (default 1); sizeC counts channels
//	rgb                 samples per plane (default 1), must divide sizeC
//	interleaved         samples stored per pixel rather than per sub-plane
//	pixelType           uint8 or uint16
//	littleEndian        byte order of uint16 samples (default true)
//	dimOrder            axis order the planes are laid out in (default XYZCT)
//	certain             whether the order is declared as certain (default true)
//	declare             whether the reader reports its order at all (default true)
//	stamps              derive the reported order from per-plane stamps
//	store               metadata store: true (default), none or error
//
// Every sample value is computed by SampleValue, so callers can tell which
// plane, channel and column any byte came from.
package fake

import (
	"encoding/binary"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"bioplanes/internal/logger"
	"bioplanes/internal/models"
	"bioplanes/pkg/dimension"
	"bioplanes/pkg/reader"
	"bioplanes/pkg/stamps"
)

// Suffix identifies fake ids
const Suffix = ".fake"

// ErrMalformedID is returned for ids that cannot be parsed
var ErrMalformedID = errors.New("malformed fake id")

// Stamp axis steps, in stamp units per plane coordinate
const (
	ZStep    = 1.0
	TimeStep = 0.1
	CStep    = 10.0
)

// SampleValue is the value stored for plane no, channel (sample) ch and
// column x of a reader with the given samples per plane. Values wrap at the
// pixel type's range.
func SampleValue(no, ch, x, samples int) int {
	return (no*samples+ch)*4 + x%4
}

// Reader implements reader.Reader for fake ids
type Reader struct {
	log logger.ILogger

	id      string
	name    string
	meta    models.CoreMetadata
	order   dimension.Order
	declare bool
	stamped bool
	store   string
}

// New creates an unopened fake reader
func New(log logger.ILogger) *Reader {
	return &Reader{log: logger.OrNull(log)}
}

func (r *Reader) IsThisType(id string) bool {
	return strings.HasSuffix(strings.ToLower(id), Suffix)
}

// SetID parses id and opens the synthetic dataset it describes
func (r *Reader) SetID(id string) error {
	if id != "" && id == r.id {
		return nil
	}
	if !r.IsThisType(id) {
		return fmt.Errorf("%w: %q does not end in %s", ErrMalformedID, id, Suffix)
	}

	next := &Reader{log: r.log, id: id, declare: true, store: "true"}
	if err := next.parse(id); err != nil {
		return err
	}
	*r = *next
	r.log.Debugf("fake: opened %q (%dx%d Z=%d C=%d T=%d order=%s)", r.name,
		r.meta.SizeX, r.meta.SizeY, r.meta.SizeZ, r.meta.SizeC, r.meta.SizeT, r.meta.DimensionOrder)
	return nil
}

func (r *Reader) parse(id string) error {
	base := filepath.Base(id)
	base = base[:len(base)-len(Suffix)]
	tokens := strings.Split(base, "&")
	r.name = tokens[0]

	r.meta = models.CoreMetadata{
		SizeX: 8, SizeY: 8, SizeZ: 1, SizeC: 1, SizeT: 1,
		RGBChannelCount: 1,
		LittleEndian:    true,
		PixelType:       models.Uint8,
		OrderCertain:    true,
	}
	r.order = dimension.DefaultOrder

	for _, token := range tokens[1:] {
		key, value, ok := strings.Cut(token, "=")
		if !ok {
			return fmt.Errorf("%w: %q is not key=value", ErrMalformedID, token)
		}
		var err error
		switch key {
		case "sizeX":
			r.meta.SizeX, err = positive(value)
		case "sizeY":
			r.meta.SizeY, err = positive(value)
		case "sizeZ":
			r.meta.SizeZ, err = positive(value)
		case "sizeC":
			r.meta.SizeC, err = positive(value)
		case "sizeT":
			r.meta.SizeT, err = positive(value)
		case "rgb":
			r.meta.RGBChannelCount, err = positive(value)
		case "interleaved":
			r.meta.Interleaved, err = strconv.ParseBool(value)
		case "littleEndian":
			r.meta.LittleEndian, err = strconv.ParseBool(value)
		case "pixelType":
			r.meta.PixelType, err = models.ParsePixelType(value)
		case "dimOrder":
			r.order, err = dimension.ParseOrder(value)
		case "certain":
			r.meta.OrderCertain, err = strconv.ParseBool(value)
		case "declare":
			r.declare, err = strconv.ParseBool(value)
		case "stamps":
			r.stamped, err = strconv.ParseBool(value)
		case "store":
			if value != "true" && value != "none" && value != "error" {
				err = fmt.Errorf("unknown store mode %q", value)
			}
			r.store = value
		default:
			r.log.Infof("fake: ignoring unknown key %q in %q", key, id)
		}
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrMalformedID, key, err)
		}
	}

	if r.meta.SizeC%r.meta.RGBChannelCount != 0 {
		return fmt.Errorf("%w: sizeC=%d is not a multiple of rgb=%d", ErrMalformedID, r.meta.SizeC, r.meta.RGBChannelCount)
	}
	r.meta.ImageCount = r.meta.SizeZ * r.meta.EffectiveSizeC() * r.meta.SizeT
	r.meta.DimensionOrder = r.order.String()

	if r.stamped {
		vectors, err := stamps.Collect(r, r.meta.ImageCount)
		if err != nil {
			return err
		}
		inferred := stamps.InferOrder(vectors)
		r.log.Infof("fake: stamps suggest order %s (planes laid out as %s)", inferred, r.order)
		r.meta.DimensionOrder = inferred.String()
		r.meta.OrderCertain = false
	}
	return nil
}

func positive(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n < 1 {
		return 0, fmt.Errorf("%d must be at least 1", n)
	}
	return n, nil
}

// Name returns the name part of the open id
func (r *Reader) Name() string { return r.name }

func (r *Reader) CurrentFile() string { return r.id }

// Close forgets the open dataset
func (r *Reader) Close() error {
	*r = Reader{log: r.log}
	return nil
}

func (r *Reader) ImageCount() int             { return r.meta.ImageCount }
func (r *Reader) IsRGB() bool                 { return r.meta.IsRGB() }
func (r *Reader) RGBChannelCount() int        { return r.meta.RGBChannelCount }
func (r *Reader) IsInterleaved() bool         { return r.meta.Interleaved }
func (r *Reader) IsLittleEndian() bool        { return r.meta.LittleEndian }
func (r *Reader) PixelType() models.PixelType { return r.meta.PixelType }
func (r *Reader) SizeX() int                  { return r.meta.SizeX }
func (r *Reader) SizeY() int                  { return r.meta.SizeY }
func (r *Reader) SizeZ() int                  { return r.meta.SizeZ }
func (r *Reader) SizeC() int                  { return r.meta.SizeC }
func (r *Reader) SizeT() int                  { return r.meta.SizeT }
func (r *Reader) EffectiveSizeC() int         { return r.meta.EffectiveSizeC() }
func (r *Reader) IsOrderCertain() bool        { return r.meta.OrderCertain }

// DimensionOrder is empty when the id says the order is not declared
func (r *Reader) DimensionOrder() string {
	if !r.declare {
		return ""
	}
	return r.meta.DimensionOrder
}

// OpenBytes generates plane no
func (r *Reader) OpenBytes(no int) ([]byte, error) {
	if r.id == "" {
		return nil, reader.ErrNotInitialized
	}
	if err := reader.CheckPlane(no, r.meta.ImageCount); err != nil {
		return nil, err
	}

	m := r.meta
	bpp := m.PixelType.BytesPerPixel()
	samples := m.RGBChannelCount
	plane := make([]byte, m.PlaneBytes())
	for ch := 0; ch < samples; ch++ {
		for y := 0; y < m.SizeY; y++ {
			for x := 0; x < m.SizeX; x++ {
				pixel := y*m.SizeX + x
				offset := (ch*m.SizeX*m.SizeY + pixel) * bpp
				if m.Interleaved {
					offset = (pixel*samples + ch) * bpp
				}
				v := SampleValue(no, ch, x, samples)
				switch {
				case bpp == 1:
					plane[offset] = byte(v)
				case m.LittleEndian:
					binary.LittleEndian.PutUint16(plane[offset:], uint16(v))
				default:
					binary.BigEndian.PutUint16(plane[offset:], uint16(v))
				}
			}
		}
	}
	return plane, nil
}

// PlaneStamps returns the synthetic stamp of plane no: its Z, channel and
// time positions under the layout order.
func (r *Reader) PlaneStamps(no int) (stamps.Vector, error) {
	sizes := dimension.Sizes{Z: r.meta.SizeZ, C: r.meta.EffectiveSizeC(), T: r.meta.SizeT}
	z, c, t, err := dimension.Coords(no, r.order, sizes)
	if err != nil {
		return nil, err
	}
	return stamps.Vector{
		{Axis: "Z", Value: float64(z) * ZStep},
		{Axis: "Time", Value: float64(t) * TimeStep},
		{Axis: "Wavelength", Value: float64(c) * CStep},
	}, nil
}

// MetadataStore returns the dataset's metadata store, nil when the id asks
// for none
func (r *Reader) MetadataStore() reader.MetadataStore {
	if r.id == "" || r.store == "none" {
		return nil
	}
	return &store{meta: r.meta, order: r.order, fail: r.store == "error"}
}

var errStore = errors.New("fake metadata store failure")

type store struct {
	meta  models.CoreMetadata
	order dimension.Order
	fail  bool
}

func (s *store) DimensionOrder() (string, error) {
	if s.fail {
		return "", errStore
	}
	return s.order.String(), nil
}

func (s *store) SizeZ() (int, error) {
	if s.fail {
		return 0, errStore
	}
	return s.meta.SizeZ, nil
}

func (s *store) SizeC() (int, error) {
	if s.fail {
		return 0, errStore
	}
	return s.meta.EffectiveSizeC(), nil
}

func (s *store) SizeT() (int, error) {
	if s.fail {
		return 0, errStore
	}
	return s.meta.SizeT, nil
}
