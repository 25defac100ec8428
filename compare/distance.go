package compare

import (
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// DefaultTolerance is the distance up to which two pixels count as equal.
// It absorbs PNG re-encoding and resampling noise of about one 8-bit level
// per channel.
const DefaultTolerance = 0.007

var maxRGBDistance = math.Sqrt(3)

// Distance returns the distance between two colors in [0, 1]. Colors are
// composited on white before the RGB distance is measured, and the result
// is at least the alpha difference, so a transparent pixel never equals an
// opaque white one.
func Distance(a, b color.NRGBA) float64 {
	if a == b {
		return 0
	}
	d := onWhite(a).DistanceRgb(onWhite(b)) / maxRGBDistance
	alpha := math.Abs(float64(a.A)-float64(b.A)) / 255
	return math.Min(math.Max(d, alpha), 1)
}

func onWhite(c color.NRGBA) colorful.Color {
	a := float64(c.A) / 255
	return colorful.Color{
		R: float64(c.R)/255*a + 1 - a,
		G: float64(c.G)/255*a + 1 - a,
		B: float64(c.B)/255*a + 1 - a,
	}
}
