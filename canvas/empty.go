package canvas

import "image"

// EmptyGridSpacing is the distance in pixels between sampled grid points
// when looking for free space for labels.
const EmptyGridSpacing = 50

// computeEmptyPoints samples the cropped area on the grid and keeps the
// points still showing the background color.
func (c *Canvas) computeEmptyPoints() {
	c.empty = c.empty[:0]
	c.emptyValid = true
	b := c.CroppedBounds()
	for y := 0; y < b.Max.Y; y += EmptyGridSpacing {
		for x := 0; x < b.Max.X; x += EmptyGridSpacing {
			if c.img.NRGBAAt(x, y) == c.background {
				c.empty = append(c.empty, image.Pt(x, y))
			}
		}
	}
}

// EmptyPoints returns the free grid points after flushing. Points claimed
// by placed labels are not included.
func (c *Canvas) EmptyPoints() []image.Point {
	if c.released {
		return nil
	}
	c.Flush()
	if !c.emptyValid {
		c.computeEmptyPoints()
	}
	return append([]image.Point(nil), c.empty...)
}

// placeLabel picks the free grid point nearest to anchor whose box of the
// given size fits inside the cropped area, and claims the grid points the
// box covers. Without a candidate the anchor is clamped into the crop.
func (c *Canvas) placeLabel(anchor image.Point, size image.Point) image.Point {
	crop := c.CroppedBounds()
	best, bestDist := -1, 0
	for i, p := range c.empty {
		if !(image.Rectangle{Min: p, Max: p.Add(size)}).In(crop) {
			continue
		}
		d := p.Sub(anchor)
		dist := d.X*d.X + d.Y*d.Y
		if best < 0 || dist < bestDist {
			best, bestDist = i, dist
		}
	}

	if best < 0 {
		at := anchor
		at.X = max(min(at.X, crop.Max.X-size.X), 0)
		at.Y = max(min(at.Y, crop.Max.Y-size.Y), 0)
		return at
	}

	at := c.empty[best]
	box := image.Rectangle{Min: at, Max: at.Add(size)}
	kept := c.empty[:0]
	for _, p := range c.empty {
		if !p.In(box) {
			kept = append(kept, p)
		}
	}
	c.empty = kept
	return at
}
