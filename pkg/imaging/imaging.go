// Package imaging handles the byte layout of pixel planes: splitting
// composite planes into channels, assembling channels into composite planes
// and converting planes to and from image.Image values.
package imaging

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/color"

	"gonum.org/v1/gonum/stat"
)

// Layout describes how the samples of a plane are stored.
type Layout struct {
	// Width and Height of the plane in pixels
	Width, Height int

	// Samples is the number of samples per pixel
	Samples int

	// BytesPerSample is 1 or 2
	BytesPerSample int

	// Interleaved stores all samples of a pixel together (RGBRGB...);
	// otherwise each sample forms its own consecutive sub-plane (RR..GG..BB..)
	Interleaved bool

	LittleEndian bool
}

// ChannelBytes is the size of one single-sample plane.
func (l Layout) ChannelBytes() int {
	return l.Width * l.Height * l.BytesPerSample
}

// PlaneBytes is the size of the full plane.
func (l Layout) PlaneBytes() int {
	return l.ChannelBytes() * max(l.Samples, 1)
}

// ExtractChannel copies one sample plane out of a composite plane.
func ExtractChannel(plane []byte, channel int, l Layout) ([]byte, error) {
	if channel < 0 || channel >= l.Samples {
		return nil, fmt.Errorf("channel %d outside [0, %d)", channel, l.Samples)
	}
	size := l.ChannelBytes()
	if len(plane) < size*l.Samples {
		return nil, fmt.Errorf("plane holds %d bytes, expected %d", len(plane), size*l.Samples)
	}

	out := make([]byte, size)
	if !l.Interleaved {
		copy(out, plane[channel*size:(channel+1)*size])
		return out, nil
	}

	bps := l.BytesPerSample
	stride := bps * l.Samples
	for i := 0; i < l.Width*l.Height; i++ {
		copy(out[i*bps:(i+1)*bps], plane[i*stride+channel*bps:i*stride+(channel+1)*bps])
	}
	return out, nil
}

// AssembleChannels builds a planar composite plane of the given number of
// samples from single-sample planes of channelBytes each. Missing or nil
// channels are left zero-filled and surplus channels are dropped.
func AssembleChannels(channels [][]byte, samples, channelBytes int) []byte {
	out := make([]byte, samples*channelBytes)
	for i := 0; i < samples && i < len(channels); i++ {
		if channels[i] == nil {
			continue
		}
		copy(out[i*channelBytes:(i+1)*channelBytes], channels[i])
	}
	return out
}

// Deinterleave converts an interleaved plane to planar layout.
func Deinterleave(plane []byte, l Layout) ([]byte, error) {
	if !l.Interleaved || l.Samples <= 1 {
		out := make([]byte, len(plane))
		copy(out, plane)
		return out, nil
	}
	channels := make([][]byte, l.Samples)
	for c := range channels {
		ch, err := ExtractChannel(plane, c, l)
		if err != nil {
			return nil, err
		}
		channels[c] = ch
	}
	return AssembleChannels(channels, l.Samples, l.ChannelBytes()), nil
}

func (l Layout) sample(plane []byte, x, y, c int) uint16 {
	var offset int
	pixel := y*l.Width + x
	if l.Interleaved {
		offset = (pixel*l.Samples + c) * l.BytesPerSample
	} else {
		offset = (c*l.Width*l.Height + pixel) * l.BytesPerSample
	}
	if l.BytesPerSample == 1 {
		return uint16(plane[offset])
	}
	if l.LittleEndian {
		return binary.LittleEndian.Uint16(plane[offset:])
	}
	return binary.BigEndian.Uint16(plane[offset:])
}

// ToImage converts a plane to an image: grayscale for one sample, RGB for
// three or more (extra samples are ignored), and grayscale of the first
// sample for two.
func ToImage(plane []byte, l Layout) (image.Image, error) {
	if len(plane) < l.PlaneBytes() {
		return nil, fmt.Errorf("plane holds %d bytes, expected %d", len(plane), l.PlaneBytes())
	}
	rect := image.Rect(0, 0, l.Width, l.Height)
	rgb := l.Samples >= 3

	switch {
	case l.BytesPerSample == 1 && !rgb:
		img := image.NewGray(rect)
		for y := 0; y < l.Height; y++ {
			for x := 0; x < l.Width; x++ {
				img.SetGray(x, y, color.Gray{Y: uint8(l.sample(plane, x, y, 0))})
			}
		}
		return img, nil
	case !rgb:
		img := image.NewGray16(rect)
		for y := 0; y < l.Height; y++ {
			for x := 0; x < l.Width; x++ {
				img.SetGray16(x, y, color.Gray16{Y: l.sample(plane, x, y, 0)})
			}
		}
		return img, nil
	case l.BytesPerSample == 1:
		img := image.NewRGBA(rect)
		for y := 0; y < l.Height; y++ {
			for x := 0; x < l.Width; x++ {
				img.SetRGBA(x, y, color.RGBA{
					R: uint8(l.sample(plane, x, y, 0)),
					G: uint8(l.sample(plane, x, y, 1)),
					B: uint8(l.sample(plane, x, y, 2)),
					A: 0xff,
				})
			}
		}
		return img, nil
	default:
		img := image.NewRGBA64(rect)
		for y := 0; y < l.Height; y++ {
			for x := 0; x < l.Width; x++ {
				img.SetRGBA64(x, y, color.RGBA64{
					R: l.sample(plane, x, y, 0),
					G: l.sample(plane, x, y, 1),
					B: l.sample(plane, x, y, 2),
					A: 0xffff,
				})
			}
		}
		return img, nil
	}
}

// FromImage converts a decoded image to an interleaved, big-endian plane.
// Grayscale images give one sample per pixel, everything else three.
// 16-bit sources keep two bytes per sample.
func FromImage(img image.Image) ([]byte, Layout) {
	b := img.Bounds()
	l := Layout{
		Width:          b.Dx(),
		Height:         b.Dy(),
		Samples:        3,
		BytesPerSample: 1,
		Interleaved:    true,
	}
	switch img.(type) {
	case *image.Gray:
		l.Samples = 1
	case *image.Gray16:
		l.Samples = 1
		l.BytesPerSample = 2
	case *image.RGBA64, *image.NRGBA64:
		l.BytesPerSample = 2
	}

	data := make([]byte, l.PlaneBytes())
	i := 0
	put := func(v uint32) {
		if l.BytesPerSample == 1 {
			data[i] = uint8(v >> 8)
			i++
			return
		}
		binary.BigEndian.PutUint16(data[i:], uint16(v))
		i += 2
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := img.At(x, y)
			if l.Samples == 1 {
				g := color.Gray16Model.Convert(c).(color.Gray16)
				put(uint32(g.Y))
				continue
			}
			r, g, bl, _ := c.RGBA()
			put(r)
			put(g)
			put(bl)
		}
	}
	return data, l
}

// Stats returns the mean and standard deviation of every sample in a plane.
func Stats(plane []byte, l Layout) (mean, std float64) {
	n := len(plane) / max(l.BytesPerSample, 1)
	if n == 0 {
		return 0, 0
	}
	values := make([]float64, n)
	for i := range values {
		if l.BytesPerSample == 2 {
			if l.LittleEndian {
				values[i] = float64(binary.LittleEndian.Uint16(plane[2*i:]))
			} else {
				values[i] = float64(binary.BigEndian.Uint16(plane[2*i:]))
			}
			continue
		}
		values[i] = float64(plane[i])
	}
	return stat.MeanStdDev(values, nil)
}
