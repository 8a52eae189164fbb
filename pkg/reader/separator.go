package reader

import (
	"bioplanes/internal/logger"
	"bioplanes/pkg/dimension"
	"bioplanes/pkg/imaging"
)

// ChannelSeparator splits composite planes into single-channel planes. A
// reader with N planes of S samples each appears as N*S planes of one
// sample.
type ChannelSeparator struct {
	*Wrapper
	log logger.ILogger

	file    fileState
	samples int

	// last composite plane read, reused while its channels are requested
	lastSource int
	lastPlane  []byte
}

// NewChannelSeparator wraps r, which must not be nil.
func NewChannelSeparator(r Reader, log logger.ILogger) (*ChannelSeparator, error) {
	w, err := NewWrapper(r)
	if err != nil {
		return nil, err
	}
	return &ChannelSeparator{Wrapper: w, log: logger.OrNull(log), lastSource: -1}, nil
}

func (s *ChannelSeparator) sync() {
	if !s.file.stale(s.Reader()) {
		return
	}
	s.file.mark(s.Reader())
	s.samples = 1
	if s.Reader().IsRGB() {
		s.samples = max(s.Reader().RGBChannelCount(), 1)
	}
	s.lastSource = -1
	s.lastPlane = nil
	s.log.Debugf("channel separator: %q has %d samples per plane", s.file.id, s.samples)
}

// SetID opens id in the wrapped reader and resets the per-file state when
// the file changes.
func (s *ChannelSeparator) SetID(id string) error {
	if err := s.Wrapper.SetID(id); err != nil {
		return err
	}
	s.sync()
	return nil
}

func (s *ChannelSeparator) ImageCount() int {
	s.sync()
	return s.Reader().ImageCount() * s.samples
}

// IsRGB is always false: every separated plane holds a single channel.
func (s *ChannelSeparator) IsRGB() bool { return false }

func (s *ChannelSeparator) RGBChannelCount() int { return 1 }

func (s *ChannelSeparator) IsInterleaved() bool { return false }

func (s *ChannelSeparator) EffectiveSizeC() int {
	s.sync()
	return s.Reader().EffectiveSizeC() * s.samples
}

// OriginalIndex returns the composite plane and the channel within it that
// make up separated plane no.
//
// When the wrapped reader's dimensions are consistent with its plane count
// the mapping goes through the coordinate codec, so the separated planes
// follow the declared dimension order. Otherwise plane no is channel
// no % samples of composite plane no / samples.
func (s *ChannelSeparator) OriginalIndex(no int) (source, channel int, err error) {
	s.sync()
	if err := CheckPlane(no, s.ImageCount()); err != nil {
		return 0, 0, err
	}
	if s.samples == 1 {
		return no, 0, nil
	}

	inner := s.Reader()
	order, err := dimension.ParseOrder(inner.DimensionOrder())
	sizes := Sizes(inner)
	if err == nil && sizes.Validate() == nil && sizes.PlaneCount() == inner.ImageCount() {
		split := sizes.With('C', sizes.C*s.samples)
		z, c, t, err := dimension.Coords(no, order, split)
		if err == nil {
			source, err = dimension.Index(z, c/s.samples, t, order, sizes)
			if err == nil {
				return source, c % s.samples, nil
			}
		}
	}
	return no / s.samples, no % s.samples, nil
}

// OpenBytes returns the single-channel plane no.
func (s *ChannelSeparator) OpenBytes(no int) ([]byte, error) {
	s.sync()
	if s.samples == 1 {
		if err := CheckPlane(no, s.ImageCount()); err != nil {
			return nil, err
		}
		return s.Reader().OpenBytes(no)
	}

	source, channel, err := s.OriginalIndex(no)
	if err != nil {
		return nil, err
	}
	if source != s.lastSource || s.lastPlane == nil {
		plane, err := s.Reader().OpenBytes(source)
		if err != nil {
			return nil, err
		}
		s.lastSource = source
		s.lastPlane = plane
	}

	inner := s.Reader()
	return imaging.ExtractChannel(s.lastPlane, channel, imaging.Layout{
		Width:          inner.SizeX(),
		Height:         inner.SizeY(),
		Samples:        s.samples,
		BytesPerSample: inner.PixelType().BytesPerPixel(),
		Interleaved:    inner.IsInterleaved(),
		LittleEndian:   inner.IsLittleEndian(),
	})
}
