// Package formats picks the concrete reader able to open a given id.
package formats

import (
	"fmt"

	"bioplanes/internal/logger"
	"bioplanes/internal/models"
	"bioplanes/pkg/fake"
	"bioplanes/pkg/reader"
	"bioplanes/pkg/series"
)

// ImageReader delegates to whichever of its candidate readers claims the
// open id. The candidate that opened the last id is tried first next time.
type ImageReader struct {
	log        logger.ILogger
	candidates []reader.Reader
	current    int
}

// NewImageReader creates a selector over the built-in readers
func NewImageReader(log logger.ILogger) *ImageReader {
	r, _ := NewImageReaderWith(log, fake.New(log), series.New(log))
	return r
}

// NewImageReaderWith creates a selector over the given candidates, in order
// of preference
func NewImageReaderWith(log logger.ILogger, candidates ...reader.Reader) (*ImageReader, error) {
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: no candidate readers", reader.ErrNilReader)
	}
	for i, c := range candidates {
		if c == nil {
			return nil, fmt.Errorf("%w: candidate %d", reader.ErrNilReader, i)
		}
	}
	return &ImageReader{log: logger.OrNull(log), candidates: candidates}, nil
}

// Current returns the candidate last used
func (r *ImageReader) Current() reader.Reader { return r.candidates[r.current] }

// Reader returns the candidate last used, so decorator chains can be
// unwrapped down to the concrete reader
func (r *ImageReader) Reader() reader.Reader { return r.Current() }

func (r *ImageReader) find(id string) (int, error) {
	if r.candidates[r.current].IsThisType(id) {
		return r.current, nil
	}
	for i, c := range r.candidates {
		if i != r.current && c.IsThisType(id) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", reader.ErrUnknownFormat, id)
}

func (r *ImageReader) IsThisType(id string) bool {
	_, err := r.find(id)
	return err == nil
}

// SetID opens id with the first candidate claiming it. A reader left open
// by a previous id is closed when another candidate takes over.
func (r *ImageReader) SetID(id string) error {
	i, err := r.find(id)
	if err != nil {
		return err
	}
	if i != r.current {
		if err := r.candidates[r.current].Close(); err != nil {
			r.log.Errorf("formats: closing %T: %v", r.candidates[r.current], err)
		}
	}
	r.current = i
	r.log.Debugf("formats: opening %q with %T", id, r.candidates[i])
	return r.candidates[i].SetID(id)
}

// Close closes every candidate
func (r *ImageReader) Close() error {
	var first error
	for _, c := range r.candidates {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (r *ImageReader) CurrentFile() string                 { return r.Current().CurrentFile() }
func (r *ImageReader) ImageCount() int                     { return r.Current().ImageCount() }
func (r *ImageReader) IsRGB() bool                         { return r.Current().IsRGB() }
func (r *ImageReader) RGBChannelCount() int                { return r.Current().RGBChannelCount() }
func (r *ImageReader) IsInterleaved() bool                 { return r.Current().IsInterleaved() }
func (r *ImageReader) IsLittleEndian() bool                { return r.Current().IsLittleEndian() }
func (r *ImageReader) PixelType() models.PixelType         { return r.Current().PixelType() }
func (r *ImageReader) SizeX() int                          { return r.Current().SizeX() }
func (r *ImageReader) SizeY() int                          { return r.Current().SizeY() }
func (r *ImageReader) SizeZ() int                          { return r.Current().SizeZ() }
func (r *ImageReader) SizeC() int                          { return r.Current().SizeC() }
func (r *ImageReader) SizeT() int                          { return r.Current().SizeT() }
func (r *ImageReader) EffectiveSizeC() int                 { return r.Current().EffectiveSizeC() }
func (r *ImageReader) DimensionOrder() string              { return r.Current().DimensionOrder() }
func (r *ImageReader) IsOrderCertain() bool                { return r.Current().IsOrderCertain() }
func (r *ImageReader) OpenBytes(no int) ([]byte, error)    { return r.Current().OpenBytes(no) }
func (r *ImageReader) MetadataStore() reader.MetadataStore { return r.Current().MetadataStore() }
