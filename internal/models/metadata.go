package models

import (
	"fmt"
	"strings"
)

// PixelType identifies the storage type of one sample
type PixelType int

const (
	Uint8 PixelType = iota
	Uint16
)

// BytesPerPixel returns the number of bytes used by one sample
func (p PixelType) BytesPerPixel() int {
	if p == Uint16 {
		return 2
	}
	return 1
}

func (p PixelType) String() string {
	if p == Uint16 {
		return "uint16"
	}
	return "uint8"
}

// ParsePixelType converts a name such as "uint16" to a PixelType
func ParsePixelType(s string) (PixelType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "uint8", "u8", "byte":
		return Uint8, nil
	case "uint16", "u16":
		return Uint16, nil
	}
	return Uint8, fmt.Errorf("unsupported pixel type %q", s)
}

// CoreMetadata describes the dimensions and storage layout of an open dataset
type CoreMetadata struct {
	// SizeX and SizeY are the plane width and height in pixels
	SizeX, SizeY int

	// SizeZ, SizeC and SizeT are the extents of the focal, channel and time
	// axes. SizeC counts every channel including those packed into one
	// composite plane.
	SizeZ, SizeC, SizeT int

	// ImageCount is the number of planes a reader hands out
	ImageCount int

	// RGBChannelCount is the number of samples stored per pixel in a plane
	RGBChannelCount int

	// Interleaved is true when the samples of a pixel are stored together
	// rather than as consecutive sample planes
	Interleaved bool

	// LittleEndian applies to multi-byte pixel types
	LittleEndian bool

	PixelType PixelType

	// DimensionOrder is the five symbol axis order, e.g. "XYZCT"
	DimensionOrder string

	// OrderCertain is false when DimensionOrder is only a best guess
	OrderCertain bool
}

// IsRGB reports whether planes carry more than one sample per pixel
func (m CoreMetadata) IsRGB() bool {
	return m.RGBChannelCount > 1
}

// EffectiveSizeC is the number of planes along the channel axis
func (m CoreMetadata) EffectiveSizeC() int {
	if m.RGBChannelCount > 1 {
		return max(m.SizeC/m.RGBChannelCount, 1)
	}
	return max(m.SizeC, 1)
}

// PlaneBytes is the size of one plane as returned by a reader
func (m CoreMetadata) PlaneBytes() int {
	return m.SizeX * m.SizeY * max(m.RGBChannelCount, 1) * m.PixelType.BytesPerPixel()
}
