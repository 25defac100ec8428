package compare

import (
	"image"
	"image/color"

	"github.com/gogpu/ggshot/canvas"
	"github.com/gogpu/ggshot/internal/parallel"
)

// HighlightColor marks differing pixels in the diff section.
var HighlightColor = color.NRGBA{R: 0xff, A: 0xff}

// fadeOpacity is how much of the golden image shows through in the diff
// section where pixels match.
const fadeOpacity = 0.25

// Composite renders the golden | diff | actual triptych with the default
// comparator. See Comparator.Composite.
func Composite(golden, actual *canvas.Canvas, scale float64) (*canvas.Canvas, error) {
	return Comparator{}.Composite(golden, actual, scale)
}

// Composite scales actual by scale and renders three sections side by
// side: golden on the left, the diff in the middle and actual on the
// right. The diff section has the golden size; pixels that differ, or
// have no counterpart in actual, are painted HighlightColor, the rest show
// the golden image faded on white. The result is flushed.
func (c Comparator) Composite(golden, actual *canvas.Canvas, scale float64) (*canvas.Canvas, error) {
	sa, err := actual.Scaled(scale)
	if err != nil {
		return nil, err
	}
	defer sa.Release()

	g, a := golden.Image(), sa.Image()
	gw, gh := g.Rect.Dx(), g.Rect.Dy()
	aw, ah := a.Rect.Dx(), a.Rect.Dy()

	diff := image.NewNRGBA(image.Rect(0, 0, gw, gh))
	parallel.Rows(parallel.Shared(), gh, parallel.MinBandRows, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			for x := 0; x < gw; x++ {
				gp := nrgbaAt(g, x, y)
				if x < aw && y < ah && c.Equal(gp, nrgbaAt(a, x, y)) {
					diff.SetNRGBA(x, y, fade(gp))
				} else {
					diff.SetNRGBA(x, y, HighlightColor)
				}
			}
		}
	})

	out := canvas.New(2*gw+aw, max(gh, ah))
	out.DrawImage(image.Rect(0, 0, gw, gh), g)
	out.DrawImage(image.Rect(gw, 0, 2*gw, gh), diff)
	out.DrawImage(image.Rect(2*gw, 0, 2*gw+aw, ah), a)
	out.Flush()
	return out, nil
}

func fade(c color.NRGBA) color.NRGBA {
	w := onWhite(c)
	mix := func(v float64) uint8 {
		return uint8(255*(1-(1-v)*fadeOpacity) + 0.5)
	}
	return color.NRGBA{R: mix(w.R), G: mix(w.G), B: mix(w.B), A: 0xff}
}
