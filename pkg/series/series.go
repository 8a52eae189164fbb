// Package series reads a dataset stored as one single-image file per plane,
// with the files named by a template such as "cells_z<1-10>_c<1-3>.tif".
//
// The axis of every template block is guessed from its prefix. Planes are
// numbered so that the last block of the template varies fastest, which
// keeps plane numbers in the same order as the expanded file list whenever
// each axis has a single block.
package series

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"bioplanes/internal/logger"
	"bioplanes/internal/models"
	"bioplanes/pkg/dimension"
	"bioplanes/pkg/guesser"
	"bioplanes/pkg/imaging"
	"bioplanes/pkg/pattern"
	"bioplanes/pkg/reader"
)

// ErrDimensionMismatch is returned when a file of the series does not match
// the first one
var ErrDimensionMismatch = errors.New("file does not match the series dimensions")

// Extensions lists the file types the series reader decodes
var Extensions = []string{".tif", ".tiff", ".png", ".jpg", ".jpeg", ".bmp"}

// Reader implements reader.Reader over a file series
type Reader struct {
	log logger.ILogger

	id      string
	pattern *pattern.Pattern
	files   []string
	guess   *guesser.Result
	order   dimension.Order
	sizes   dimension.Sizes
	layout  imaging.Layout
	meta    models.CoreMetadata
}

// New creates an unopened series reader
func New(log logger.ILogger) *Reader {
	return &Reader{log: logger.OrNull(log)}
}

// IsThisType reports whether id is a template, or a single file name, with
// a supported extension
func (r *Reader) IsThisType(id string) bool {
	ext := strings.ToLower(filepath.Ext(id))
	supported := false
	for _, e := range Extensions {
		if ext == e {
			supported = true
			break
		}
	}
	if !supported {
		return false
	}
	_, err := pattern.Parse(id)
	return err == nil
}

// SetID parses the template id, guesses the block axes and reads the first
// file to learn the plane layout
func (r *Reader) SetID(id string) error {
	if id != "" && id == r.id {
		return nil
	}
	p, err := pattern.Parse(id)
	if err != nil {
		return err
	}
	files := p.Files()
	if len(files) == 0 {
		return fmt.Errorf("%w: %q names no files", pattern.ErrMalformedPattern, id)
	}

	_, layout, err := decode(files[0])
	if err != nil {
		return err
	}

	// every file holds a single plane in an unknown order
	guess := guesser.Guess(p, "XYCZT", 1, 1, 1, false)
	order := seriesOrder(guess)
	sizes := dimension.Sizes{
		X: layout.Width,
		Y: layout.Height,
		Z: guess.SeriesSize(guesser.ZAxis),
		C: guess.SeriesSize(guesser.CAxis),
		T: guess.SeriesSize(guesser.TAxis),
	}
	if sizes.PlaneCount() != len(files) {
		return fmt.Errorf("%w: %d files but Z=%d C=%d T=%d", pattern.ErrMalformedPattern, len(files), sizes.Z, sizes.C, sizes.T)
	}

	pixelType := models.Uint8
	if layout.BytesPerSample == 2 {
		pixelType = models.Uint16
	}

	*r = Reader{
		log:     r.log,
		id:      id,
		pattern: p,
		files:   files,
		guess:   guess,
		order:   order,
		sizes:   sizes,
		layout:  layout,
		meta: models.CoreMetadata{
			SizeX:           layout.Width,
			SizeY:           layout.Height,
			SizeZ:           sizes.Z,
			SizeC:           sizes.C * layout.Samples,
			SizeT:           sizes.T,
			ImageCount:      len(files),
			RGBChannelCount: layout.Samples,
			Interleaved:     layout.Interleaved,
			LittleEndian:    layout.LittleEndian,
			PixelType:       pixelType,
			DimensionOrder:  order.String(),
			OrderCertain:    false,
		},
	}
	r.log.Infof("series: %q is %d files, axes %v, order %s (Z=%d C=%d T=%d)",
		id, len(files), guess.Axes, order, sizes.Z, sizes.C, sizes.T)
	return nil
}

// seriesOrder puts the axis of the last block first, then the axes of the
// blocks before it, then whatever the per-file order has left.
func seriesOrder(g *guesser.Result) dimension.Order {
	order := []byte("XY")
	add := func(symbol byte) {
		for _, s := range order {
			if s == symbol {
				return
			}
		}
		order = append(order, symbol)
	}
	for i := len(g.Axes) - 1; i >= 0; i-- {
		add(g.Axes[i].Symbol())
	}
	for _, s := range []byte(g.Order.Suffix()) {
		add(s)
	}
	return dimension.Order(order)
}

func decode(name string) ([]byte, imaging.Layout, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, imaging.Layout{}, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, imaging.Layout{}, fmt.Errorf("decoding %s: %w", name, err)
	}
	plane, layout := imaging.FromImage(img)
	return plane, layout, nil
}

// Files returns the expanded file list, in template order
func (r *Reader) Files() []string {
	out := make([]string, len(r.files))
	copy(out, r.files)
	return out
}

// Guess returns the block axis assignment of the open series
func (r *Reader) Guess() *guesser.Result { return r.guess }

// FileFor returns the file holding plane no
func (r *Reader) FileFor(no int) (string, error) {
	if r.id == "" {
		return "", reader.ErrNotInitialized
	}
	if err := reader.CheckPlane(no, len(r.files)); err != nil {
		return "", err
	}
	z, c, t, err := dimension.Coords(no, r.order, r.sizes)
	if err != nil {
		return "", err
	}
	return r.files[r.fileIndex(z, c, t)], nil
}

// fileIndex splits every axis position over the blocks assigned to that
// axis, the rightmost block fastest, and locates the file with those block
// values.
func (r *Reader) fileIndex(z, c, t int) int {
	pos := map[guesser.Axis]int{guesser.ZAxis: z, guesser.CAxis: c, guesser.TAxis: t}
	blocks := r.pattern.Blocks()
	values := make([]int, len(blocks))
	for i := len(blocks) - 1; i >= 0; i-- {
		a := r.guess.Axes[i]
		values[i] = pos[a] % blocks[i].Count
		pos[a] /= blocks[i].Count
	}
	index := 0
	for i, b := range blocks {
		index = index*b.Count + values[i]
	}
	return index
}

// Planes lists every plane with its coordinates and file
func (r *Reader) Planes() ([]models.Plane, error) {
	planes := make([]models.Plane, 0, len(r.files))
	for no := range r.files {
		z, c, t, err := dimension.Coords(no, r.order, r.sizes)
		if err != nil {
			return nil, err
		}
		planes = append(planes, models.Plane{
			Index:    no,
			Z:        z,
			C:        c,
			T:        t,
			Filename: r.files[r.fileIndex(z, c, t)],
		})
	}
	return planes, nil
}

func (r *Reader) CurrentFile() string { return r.id }

// Close forgets the open series
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
func (r *Reader) DimensionOrder() string      { return r.meta.DimensionOrder }
func (r *Reader) IsOrderCertain() bool        { return r.meta.OrderCertain }

// MetadataStore is nil: a series carries no metadata besides its names
func (r *Reader) MetadataStore() reader.MetadataStore { return nil }

// OpenBytes decodes the file holding plane no
func (r *Reader) OpenBytes(no int) ([]byte, error) {
	name, err := r.FileFor(no)
	if err != nil {
		return nil, err
	}
	plane, layout, err := decode(name)
	if err != nil {
		return nil, err
	}
	if layout != r.layout {
		return nil, fmt.Errorf("%w: %s is %dx%d with %d samples of %d bytes, want %dx%d with %d of %d",
			ErrDimensionMismatch, name, layout.Width, layout.Height, layout.Samples, layout.BytesPerSample,
			r.layout.Width, r.layout.Height, r.layout.Samples, r.layout.BytesPerSample)
	}
	return plane, nil
}
