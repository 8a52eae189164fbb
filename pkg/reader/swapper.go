package reader

import (
	"fmt"

	"bioplanes/internal/logger"
	"bioplanes/pkg/dimension"
)

// DimensionSwapper relabels the non-spatial axes of the wrapped reader.
// Planes are returned exactly as the wrapped reader stores them; only the
// reported order and sizes change, and with them the (Z, C, T) coordinate
// every plane index decodes to.
type DimensionSwapper struct {
	*Wrapper
	log logger.ILogger

	file    fileState
	order   dimension.Order
	sizes   dimension.Sizes
	swapped bool
}

// NewDimensionSwapper wraps r, which must not be nil.
func NewDimensionSwapper(r Reader, log logger.ILogger) (*DimensionSwapper, error) {
	w, err := NewWrapper(r)
	if err != nil {
		return nil, err
	}
	return &DimensionSwapper{Wrapper: w, log: logger.OrNull(log)}, nil
}

func (d *DimensionSwapper) sync() {
	inner := d.Reader()
	if !d.file.stale(inner) {
		return
	}
	d.file.mark(inner)
	order, sizes, err := ResolveDimensions(inner)
	if err != nil {
		d.log.Infof("dimension swapper: %v, using order %s", err, order)
	}
	d.order = order
	d.sizes = sizes
	d.swapped = false
}

// SetID opens id in the wrapped reader. Swaps made for a previous file are
// discarded when the file changes.
func (d *DimensionSwapper) SetID(id string) error {
	if err := d.Wrapper.SetID(id); err != nil {
		return err
	}
	d.sync()
	return nil
}

// Swap exchanges two of the Z, C and T axes, sizes included.
func (d *DimensionSwapper) Swap(a, b byte) error {
	d.sync()
	order, sizes, err := dimension.Swap(d.order, d.sizes, a, b)
	if err != nil {
		return err
	}
	d.order, d.sizes = order, sizes
	d.swapped = d.order.String() != d.Reader().DimensionOrder()
	return nil
}

// SwapDimensions relabels the axes so that the order reads as order. The
// size found at each position of the current order moves with the position.
func (d *DimensionSwapper) SwapDimensions(order string) error {
	d.sync()
	o, err := dimension.ParseOrder(order)
	if err != nil {
		return err
	}
	if o[0] != d.order[0] || o[1] != d.order[1] {
		return fmt.Errorf("%w: X and Y cannot be reordered (%s to %s)", dimension.ErrUnsupportedSwap, d.order, o)
	}
	sizes := d.sizes
	for i := 2; i < 5; i++ {
		sizes = sizes.With(o[i], d.sizes.Of(d.order[i]))
	}
	d.order, d.sizes = o, sizes
	d.swapped = d.order.String() != d.Reader().DimensionOrder()
	return nil
}

// Swapped reports whether the labelling differs from the wrapped reader's.
func (d *DimensionSwapper) Swapped() bool {
	d.sync()
	return d.swapped
}

func (d *DimensionSwapper) DimensionOrder() string {
	d.sync()
	return d.order.String()
}

func (d *DimensionSwapper) SizeZ() int {
	d.sync()
	return d.sizes.Z
}

// SizeC counts channels, so composite planes multiply the relabelled C.
func (d *DimensionSwapper) SizeC() int {
	d.sync()
	if d.Reader().IsRGB() {
		return d.sizes.C * d.Reader().RGBChannelCount()
	}
	return d.sizes.C
}

func (d *DimensionSwapper) SizeT() int {
	d.sync()
	return d.sizes.T
}

func (d *DimensionSwapper) EffectiveSizeC() int {
	d.sync()
	return d.sizes.C
}
