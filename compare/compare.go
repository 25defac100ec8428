package compare

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"sync/atomic"

	"github.com/gogpu/ggshot/canvas"
	"github.com/gogpu/ggshot/internal/parallel"
)

// Result is the outcome of a pixel comparison.
type Result struct {
	// PixelDifferences is the number of pixels farther apart than the
	// comparator tolerance.
	PixelDifferences int

	// PixelCount is the number of pixels compared.
	PixelCount int

	// Comparable is false when the images differ in size. No pixels are
	// compared then and the images count as changed.
	Comparable bool
}

// DiffPercentage returns PixelDifferences / PixelCount. It is NaN when the
// images were not comparable and 0 for two empty images.
func (r Result) DiffPercentage() float64 {
	if !r.Comparable {
		return math.NaN()
	}
	if r.PixelCount == 0 {
		return 0
	}
	return float64(r.PixelDifferences) / float64(r.PixelCount)
}

// Comparator compares images pixel by pixel.
// The zero value uses DefaultTolerance.
type Comparator struct {
	// Tolerance is the largest Distance at which pixels count as equal.
	// Zero means DefaultTolerance; use a negative value for exact matching.
	Tolerance float64
}

func (c Comparator) tolerance() float64 {
	switch {
	case c.Tolerance < 0:
		return 0
	case c.Tolerance == 0:
		return DefaultTolerance
	default:
		return c.Tolerance
	}
}

// Equal reports whether two pixels are within tolerance.
func (c Comparator) Equal(a, b color.NRGBA) bool {
	return Distance(a, b) <= c.tolerance()
}

// Compare scales a by scale and compares it with b. Both canvases are
// flushed. When the sizes differ the result is not comparable.
func (c Comparator) Compare(a, b *canvas.Canvas, scale float64) (Result, error) {
	sa, err := a.Scaled(scale)
	if err != nil {
		return Result{}, err
	}
	defer sa.Release()
	return c.CompareImages(sa.Image(), b.Image()), nil
}

// CompareImages compares two images of any type.
func (c Comparator) CompareImages(a, b image.Image) Result {
	ab, bb := a.Bounds(), b.Bounds()
	if ab.Size() != bb.Size() {
		return Result{}
	}
	na, nb := toNRGBA(a), toNRGBA(b)
	w, h := ab.Dx(), ab.Dy()

	var diffs atomic.Int64
	parallel.Rows(parallel.Shared(), h, parallel.MinBandRows, func(y0, y1 int) {
		n := 0
		for y := y0; y < y1; y++ {
			for x := 0; x < w; x++ {
				if !c.Equal(nrgbaAt(na, x, y), nrgbaAt(nb, x, y)) {
					n++
				}
			}
		}
		diffs.Add(int64(n))
	})
	return Result{PixelDifferences: int(diffs.Load()), PixelCount: w * h, Comparable: true}
}

// nrgbaAt reads the pixel at offset (x, y) from the image origin.
func nrgbaAt(img *image.NRGBA, x, y int) color.NRGBA {
	return img.NRGBAAt(img.Rect.Min.X+x, img.Rect.Min.Y+y)
}

func toNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok {
		return n
	}
	b := img.Bounds()
	n := image.NewNRGBA(b)
	draw.Draw(n, b, img, b.Min, draw.Src)
	return n
}
