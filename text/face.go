package text

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/shaping"
	xfont "golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"

	"github.com/gogpu/ggshot/cache"
)

// ErrEmptyFontData is returned when font data is empty.
var ErrEmptyFontData = errors.New("text: empty font data")

// Face is a font at a fixed pixel size.
//
// Face is safe for concurrent use. Outlines come from an sfnt.Font, shaping
// uses a go-text font.Font parsed from the same data; both are read-only
// once parsed.
type Face struct {
	size    float64
	outline *sfnt.Font
	shaper  *font.Font
	metrics xfont.Metrics

	// shaperPool pools HarfbuzzShaper instances, which carry mutable
	// buffers and are not safe for concurrent use.
	shaperPool sync.Pool

	layouts *cache.Cache[string, *Layout]
}

// NewFace parses TrueType/OpenType data and returns a face of the given
// pixel size.
func NewFace(data []byte, size float64) (*Face, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFontData
	}
	if size <= 0 || math.IsNaN(size) || math.IsInf(size, 0) {
		return nil, fmt.Errorf("text: invalid size %v", size)
	}
	outline, err := sfnt.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("text: parse outlines: %w", err)
	}
	gt, err := font.ParseTTF(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("text: parse font: %w", err)
	}
	return newFace(outline, gt.Font, size)
}

func newFace(outline *sfnt.Font, gt *font.Font, size float64) (*Face, error) {
	var buf sfnt.Buffer
	m, err := outline.Metrics(&buf, toFixed(size), xfont.HintingNone)
	if err != nil {
		return nil, fmt.Errorf("text: metrics: %w", err)
	}
	f := &Face{
		size:    size,
		outline: outline,
		shaper:  gt,
		metrics: m,
		layouts: cache.New[string, *Layout](0, cache.StringHasher),
	}
	f.shaperPool.New = func() any { return &shaping.HarfbuzzShaper{} }
	return f, nil
}

var (
	defaultOnce    sync.Once
	defaultOutline *sfnt.Font
	defaultShaper  *font.Font
	defaultErr     error

	defaultMu    sync.Mutex
	defaultFaces = map[float64]*Face{}
)

// DefaultFace returns the Go Regular face at the given size. Faces are
// shared per size so their layout caches are reused across canvases.
// It panics if size is not positive; the embedded font always parses.
func DefaultFace(size float64) *Face {
	defaultOnce.Do(func() {
		defaultOutline, defaultErr = sfnt.Parse(goregular.TTF)
		if defaultErr != nil {
			return
		}
		var gt *font.Face
		gt, defaultErr = font.ParseTTF(bytes.NewReader(goregular.TTF))
		if defaultErr == nil {
			defaultShaper = gt.Font
		}
	})
	if defaultErr != nil {
		panic(fmt.Sprintf("text: embedded font: %v", defaultErr))
	}

	defaultMu.Lock()
	defer defaultMu.Unlock()
	if f, ok := defaultFaces[size]; ok {
		return f
	}
	f, err := newFace(defaultOutline, defaultShaper, size)
	if err != nil {
		panic(err)
	}
	defaultFaces[size] = f
	return f
}

// Size returns the face size in pixels.
func (f *Face) Size() float64 { return f.size }

// Ascent returns the distance from the baseline to the top of a line.
func (f *Face) Ascent() float64 { return fromFixed(f.metrics.Ascent) }

// Descent returns the distance from the baseline to the bottom of a line.
func (f *Face) Descent() float64 { return fromFixed(f.metrics.Descent) }

// LineHeight returns the distance between consecutive baselines.
func (f *Face) LineHeight() float64 {
	h := fromFixed(f.metrics.Height)
	if h <= 0 {
		h = f.Ascent() + f.Descent()
	}
	return h
}

// CacheStats returns statistics of the face's layout cache.
func (f *Face) CacheStats() cache.Stats { return f.layouts.Stats() }

func toFixed(v float64) fixed.Int26_6 { return fixed.Int26_6(math.Round(v * 64)) }

func fromFixed(v fixed.Int26_6) float64 { return float64(v) / 64 }
