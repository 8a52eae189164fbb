package reader

import (
	"fmt"

	"bioplanes/internal/models"
	"bioplanes/pkg/dimension"
)

// Wrapper delegates every Reader operation to an inner reader. Decorators
// embed it and override only the operations whose meaning they change.
type Wrapper struct {
	reader Reader
}

// NewWrapper wraps r. A nil r is rejected rather than replaced by some
// default decoder.
func NewWrapper(r Reader) (*Wrapper, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: a decorator needs a reader to wrap", ErrNilReader)
	}
	return &Wrapper{reader: r}, nil
}

// Reader returns the wrapped reader.
func (w *Wrapper) Reader() Reader { return w.reader }

// Unwrap follows the chain of wrappers below r down to the concrete reader.
func Unwrap(r Reader) Reader {
	for {
		u, ok := r.(interface{ Reader() Reader })
		if !ok {
			return r
		}
		r = u.Reader()
	}
}

func (w *Wrapper) IsThisType(id string) bool { return w.reader.IsThisType(id) }

// SetID opens id in the wrapped reader unless it is already open.
func (w *Wrapper) SetID(id string) error {
	if id != "" && id == w.reader.CurrentFile() {
		return nil
	}
	return w.reader.SetID(id)
}

func (w *Wrapper) CurrentFile() string              { return w.reader.CurrentFile() }
func (w *Wrapper) Close() error                     { return w.reader.Close() }
func (w *Wrapper) ImageCount() int                  { return w.reader.ImageCount() }
func (w *Wrapper) IsRGB() bool                      { return w.reader.IsRGB() }
func (w *Wrapper) RGBChannelCount() int             { return w.reader.RGBChannelCount() }
func (w *Wrapper) IsInterleaved() bool              { return w.reader.IsInterleaved() }
func (w *Wrapper) IsLittleEndian() bool             { return w.reader.IsLittleEndian() }
func (w *Wrapper) PixelType() models.PixelType      { return w.reader.PixelType() }
func (w *Wrapper) SizeX() int                       { return w.reader.SizeX() }
func (w *Wrapper) SizeY() int                       { return w.reader.SizeY() }
func (w *Wrapper) SizeZ() int                       { return w.reader.SizeZ() }
func (w *Wrapper) SizeC() int                       { return w.reader.SizeC() }
func (w *Wrapper) SizeT() int                       { return w.reader.SizeT() }
func (w *Wrapper) EffectiveSizeC() int              { return w.reader.EffectiveSizeC() }
func (w *Wrapper) DimensionOrder() string           { return w.reader.DimensionOrder() }
func (w *Wrapper) IsOrderCertain() bool             { return w.reader.IsOrderCertain() }
func (w *Wrapper) OpenBytes(no int) ([]byte, error) { return w.reader.OpenBytes(no) }
func (w *Wrapper) MetadataStore() MetadataStore     { return w.reader.MetadataStore() }

// fileState remembers which file, and which shape of it, a decorator's
// cached values belong to. A decorator below may change the shape without
// changing the file.
type fileState struct {
	id    string
	shape shape
	valid bool
}

type shape struct {
	order   string
	sizes   dimension.Sizes
	count   int
	samples int
}

func shapeOf(r Reader) shape {
	return shape{
		order:   r.DimensionOrder(),
		sizes:   Sizes(r),
		count:   r.ImageCount(),
		samples: r.RGBChannelCount(),
	}
}

// stale reports whether the cache no longer matches what r has open.
func (f *fileState) stale(r Reader) bool {
	return !f.valid || f.id != r.CurrentFile() || f.shape != shapeOf(r)
}

func (f *fileState) mark(r Reader) {
	f.id = r.CurrentFile()
	f.shape = shapeOf(r)
	f.valid = true
}
