package reader

import (
	"strings"

	"bioplanes/internal/logger"
	"bioplanes/pkg/dimension"
	"bioplanes/pkg/imaging"
)

// ChannelMerger combines the single-channel planes of every (Z, T) position
// into one composite plane. Merged planes are planar: channel i occupies the
// i'th sub-plane. Two channels are padded with a blank third, and channels
// beyond the fourth are dropped.
type ChannelMerger struct {
	*Wrapper
	log logger.ILogger

	file      fileState
	order     dimension.Order
	sizes     dimension.Sizes
	mergeable bool
}

// NewChannelMerger wraps r, which must not be nil.
func NewChannelMerger(r Reader, log logger.ILogger) (*ChannelMerger, error) {
	w, err := NewWrapper(r)
	if err != nil {
		return nil, err
	}
	return &ChannelMerger{Wrapper: w, log: logger.OrNull(log)}, nil
}

func (m *ChannelMerger) sync() {
	inner := m.Reader()
	if !m.file.stale(inner) {
		return
	}
	m.file.mark(inner)

	order, sizes, err := ResolveDimensions(inner)
	if err != nil {
		m.log.Infof("channel merger: %v, using order %s", err, order)
	}
	m.order = order
	m.sizes = sizes

	c := sizes.C
	m.mergeable = !inner.IsRGB() && c > 1 && inner.ImageCount()%c == 0
	m.log.Debugf("channel merger: %q order=%s channels=%d mergeable=%v", m.file.id, order, c, m.mergeable)
}

// SetID opens id in the wrapped reader and resets the per-file state when
// the file changes.
func (m *ChannelMerger) SetID(id string) error {
	if err := m.Wrapper.SetID(id); err != nil {
		return err
	}
	m.sync()
	return nil
}

// CanMerge reports whether the wrapped reader has single-channel planes
// along a C axis longer than one.
func (m *ChannelMerger) CanMerge() bool {
	m.sync()
	return m.mergeable
}

// channels is the number of source channels per merged plane.
func (m *ChannelMerger) channels() int {
	return m.sizes.C
}

// samples is the number of samples in a merged plane.
func (m *ChannelMerger) samples() int {
	c := m.channels()
	switch {
	case c < 3:
		return 3
	case c > 4:
		return 4
	}
	return c
}

func (m *ChannelMerger) ImageCount() int {
	m.sync()
	if !m.mergeable {
		return m.Reader().ImageCount()
	}
	return m.Reader().ImageCount() / m.channels()
}

func (m *ChannelMerger) IsRGB() bool {
	m.sync()
	return m.mergeable || m.Reader().IsRGB()
}

func (m *ChannelMerger) RGBChannelCount() int {
	m.sync()
	if !m.mergeable {
		return m.Reader().RGBChannelCount()
	}
	return m.samples()
}

func (m *ChannelMerger) IsInterleaved() bool {
	m.sync()
	if !m.mergeable {
		return m.Reader().IsInterleaved()
	}
	return false
}

func (m *ChannelMerger) EffectiveSizeC() int {
	m.sync()
	if !m.mergeable {
		return m.Reader().EffectiveSizeC()
	}
	return 1
}

func (m *ChannelMerger) DimensionOrder() string {
	m.sync()
	if !m.mergeable {
		return m.Reader().DimensionOrder()
	}
	return m.order.String()
}

func (m *ChannelMerger) SizeZ() int {
	m.sync()
	if !m.mergeable {
		return m.Reader().SizeZ()
	}
	return m.sizes.Z
}

func (m *ChannelMerger) SizeT() int {
	m.sync()
	if !m.mergeable {
		return m.Reader().SizeT()
	}
	return m.sizes.T
}

// RealIndices returns the wrapped reader's plane indices, one per channel,
// that make up merged plane no.
//
// If C is the fastest axis they are no*channels+i. Otherwise merged plane no
// is decoded to its (Z, T) position and every channel at that position is
// looked up through the coordinate codec. If the wrapped reader's sizes do
// not account for its plane count, the channels are assumed to be spaced by
// the product of the sizes of the axes varying faster than C, starting at
// no.
func (m *ChannelMerger) RealIndices(no int) ([]int, error) {
	m.sync()
	if err := CheckPlane(no, m.ImageCount()); err != nil {
		return nil, err
	}
	if !m.mergeable {
		return []int{no}, nil
	}

	channels := m.channels()
	indices := make([]int, channels)
	suffix := m.order.Suffix()
	if suffix[0] == 'C' {
		for i := range indices {
			indices[i] = no*channels + i
		}
		return indices, nil
	}

	if m.sizes.PlaneCount() == m.Reader().ImageCount() {
		merged := m.sizes.With('C', 1)
		z, _, t, err := dimension.Coords(no, m.order, merged)
		if err == nil {
			for i := range indices {
				if indices[i], err = dimension.Index(z, i, t, m.order, m.sizes); err != nil {
					break
				}
			}
			if err == nil {
				return indices, nil
			}
		}
	}

	between := 1
	for _, a := range []byte(suffix[:strings.IndexByte(suffix, 'C')]) {
		between *= m.sizes.Of(a)
	}
	for i := range indices {
		indices[i] = no + between*i
	}
	return indices, nil
}

// OpenBytes returns merged plane no.
func (m *ChannelMerger) OpenBytes(no int) ([]byte, error) {
	m.sync()
	if !m.mergeable {
		if err := CheckPlane(no, m.ImageCount()); err != nil {
			return nil, err
		}
		return m.Reader().OpenBytes(no)
	}

	indices, err := m.RealIndices(no)
	if err != nil {
		return nil, err
	}
	samples := m.samples()
	planes := make([][]byte, 0, samples)
	for i := 0; i < len(indices) && i < samples; i++ {
		plane, err := m.Reader().OpenBytes(indices[i])
		if err != nil {
			return nil, err
		}
		planes = append(planes, plane)
	}

	inner := m.Reader()
	channelBytes := inner.SizeX() * inner.SizeY() * inner.PixelType().BytesPerPixel()
	return imaging.AssembleChannels(planes, samples, channelBytes), nil
}
