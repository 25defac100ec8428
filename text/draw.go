package text

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/vector"
)

// Draw renders l onto dst with the top-left of the layout box at at.
// Glyphs falling outside dst are clipped.
func (f *Face) Draw(dst draw.Image, l *Layout, at image.Point, c color.Color) {
	mask := f.Mask(l)
	if mask == nil {
		return
	}
	r := mask.Bounds().Add(at)
	draw.DrawMask(dst, r, image.NewUniform(c), image.Point{}, mask, image.Point{}, draw.Over)
}

// Mask rasterizes l into an alpha mask the size of the layout box.
// It returns nil for an empty layout.
func (f *Face) Mask(l *Layout) *image.Alpha {
	size := l.Size()
	if size.X <= 0 || size.Y <= 0 {
		return nil
	}

	z := vector.NewRasterizer(size.X, size.Y)
	var buf sfnt.Buffer
	ppem := toFixed(f.size)
	drawn := false
	for _, line := range l.Lines {
		for _, g := range line.Glyphs {
			segs, err := f.outline.LoadGlyph(&buf, sfnt.GlyphIndex(g.ID), ppem, nil)
			if err != nil {
				continue
			}
			ox := float32(g.X)
			oy := float32(line.Baseline + g.Y)
			for _, s := range segs {
				p := s.Args
				switch s.Op {
				case sfnt.SegmentOpMoveTo:
					z.MoveTo(ox+fx(p[0].X), oy+fx(p[0].Y))
				case sfnt.SegmentOpLineTo:
					z.LineTo(ox+fx(p[0].X), oy+fx(p[0].Y))
				case sfnt.SegmentOpQuadTo:
					z.QuadTo(ox+fx(p[0].X), oy+fx(p[0].Y), ox+fx(p[1].X), oy+fx(p[1].Y))
				case sfnt.SegmentOpCubeTo:
					z.CubeTo(ox+fx(p[0].X), oy+fx(p[0].Y), ox+fx(p[1].X), oy+fx(p[1].Y), ox+fx(p[2].X), oy+fx(p[2].Y))
				}
				drawn = true
			}
		}
	}

	mask := image.NewAlpha(image.Rect(0, 0, size.X, size.Y))
	if drawn {
		z.ClosePath()
		z.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})
	}
	return mask
}

func fx[T ~int32](v T) float32 { return float32(v) / 64 }
