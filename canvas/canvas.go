package canvas

import (
	"image"
	"image/color"
	"image/draw"
	"maps"

	"github.com/gogpu/ggshot"
)

// Canvas is a mutable raster surface with a deferred draw queue.
//
// A Canvas is owned by one capture and is not safe for concurrent use.
type Canvas struct {
	img        *image.NRGBA
	background color.NRGBA

	// rightBottom is the furthest point written to; it defines the crop.
	rightBottom image.Point

	base    []Command
	overlay []Command

	// empty holds the unclaimed grid points that show background after
	// the base commands ran. Computed at flush when labels are queued.
	empty      []image.Point
	emptyValid bool

	meta     map[string]string
	released bool
}

// New creates a transparent canvas. Nothing is drawn yet, so its cropped
// size is 0x0 until the first draw call.
func New(width, height int) *Canvas {
	return &Canvas{img: image.NewNRGBA(image.Rect(0, 0, max(width, 0), max(height, 0)))}
}

// NewFilled creates a canvas filled with c. The whole surface counts as
// written, so the cropped size equals the full size.
func NewFilled(width, height int, c color.Color) *Canvas {
	cv := New(width, height)
	cv.background = color.NRGBAModel.Convert(c).(color.NRGBA)
	draw.Draw(cv.img, cv.img.Rect, image.NewUniform(cv.background), image.Point{}, draw.Src)
	cv.rightBottom = cv.img.Rect.Max
	return cv
}

// FromImage creates a canvas holding a copy of img. The full image counts
// as written.
func FromImage(img image.Image) *Canvas {
	b := img.Bounds()
	cv := New(b.Dx(), b.Dy())
	draw.Draw(cv.img, cv.img.Rect, img, b.Min, draw.Src)
	cv.rightBottom = cv.img.Rect.Max
	return cv
}

// Width returns the width of the pixel buffer.
func (c *Canvas) Width() int {
	if c.img == nil {
		return 0
	}
	return c.img.Rect.Dx()
}

// Height returns the height of the pixel buffer.
func (c *Canvas) Height() int {
	if c.img == nil {
		return 0
	}
	return c.img.Rect.Dy()
}

// CroppedWidth returns the width of the written area.
func (c *Canvas) CroppedWidth() int { return min(c.rightBottom.X, c.Width()) }

// CroppedHeight returns the height of the written area.
func (c *Canvas) CroppedHeight() int { return min(c.rightBottom.Y, c.Height()) }

// CroppedBounds returns the written area.
func (c *Canvas) CroppedBounds() image.Rectangle {
	return image.Rect(0, 0, c.CroppedWidth(), c.CroppedHeight())
}

// Background returns the color of unwritten pixels.
func (c *Canvas) Background() color.NRGBA { return c.background }

// Metadata returns a copy of the metadata attached to the canvas.
func (c *Canvas) Metadata() map[string]string { return maps.Clone(c.meta) }

// SetMetadata attaches a key/value pair that is embedded on Save.
func (c *Canvas) SetMetadata(key, value string) {
	if c.meta == nil {
		c.meta = make(map[string]string)
	}
	c.meta[key] = value
}

// Pending returns the number of queued, not yet executed commands.
func (c *Canvas) Pending() int { return len(c.base) + len(c.overlay) }

// Released reports whether Release has been called.
func (c *Canvas) Released() bool { return c.released }

// Flush executes all queued commands: base commands in order, then the
// overlay labels against the free space the base content left.
func (c *Canvas) Flush() {
	if c.released || c.Pending() == 0 {
		return
	}
	base, overlay := len(c.base), len(c.overlay)
	for _, cmd := range c.base {
		cmd.apply(c)
	}
	c.base = c.base[:0]

	if len(c.overlay) > 0 {
		c.computeEmptyPoints()
		for _, cmd := range c.overlay {
			cmd.apply(c)
		}
		c.overlay = c.overlay[:0]
	}
	ggshot.Logger().Debug("canvas: flush", "base", base, "overlay", overlay)
}

// Image flushes the queue and returns the cropped pixels. The result
// aliases the canvas buffer and is valid until the next draw or Release.
// It returns nil after Release.
func (c *Canvas) Image() *image.NRGBA {
	if c.released {
		return nil
	}
	c.Flush()
	return c.img.SubImage(c.CroppedBounds()).(*image.NRGBA)
}

// At returns the pixel at (x, y) after flushing. Points outside the buffer
// return the zero color.
func (c *Canvas) At(x, y int) color.NRGBA {
	if c.released {
		return color.NRGBA{}
	}
	c.Flush()
	if !image.Pt(x, y).In(c.img.Rect) {
		return color.NRGBA{}
	}
	return c.img.NRGBAAt(x, y)
}

// Release frees the pixel buffer, queues and caches. Draw calls on a
// released canvas are ignored and reads fail with ggshot.ErrInvalidState.
func (c *Canvas) Release() {
	c.img = nil
	c.base = nil
	c.overlay = nil
	c.empty = nil
	c.emptyValid = false
	c.meta = nil
	c.rightBottom = image.Point{}
	c.released = true
}

// extend grows the written area to cover r, clipped to the buffer.
func (c *Canvas) extend(r image.Rectangle) {
	r = r.Intersect(c.img.Rect)
	if r.Empty() {
		return
	}
	c.rightBottom.X = max(c.rightBottom.X, r.Max.X)
	c.rightBottom.Y = max(c.rightBottom.Y, r.Max.Y)
}
