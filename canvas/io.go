package canvas

import (
	"fmt"
	"image"
	"image/draw"
	"io"
	"maps"
	"math"
	"os"
	"path/filepath"

	xdraw "golang.org/x/image/draw"

	"github.com/gogpu/ggshot"
	"github.com/gogpu/ggshot/internal/fsutil"
	"github.com/gogpu/ggshot/internal/pngmeta"
)

// Load reads a PNG file, including its text metadata, into a new canvas.
func Load(path string) (*Canvas, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("canvas: open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	c, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("canvas: load %s: %w", path, err)
	}
	return c, nil
}

// Decode reads a PNG stream, including its text metadata, into a new
// canvas.
func Decode(r io.Reader) (*Canvas, error) {
	img, meta, err := pngmeta.Decode(r)
	if err != nil {
		return nil, err
	}
	c := FromImage(img)
	if len(meta) > 0 {
		c.meta = meta
	}
	return c, nil
}

// Save flushes the canvas and writes it as PNG to path, cropped and scaled
// by scale. metadata is embedded as text chunks on top of the canvas'
// own metadata. The file is replaced only after encoding succeeded.
func (c *Canvas) Save(path string, scale float64, metadata map[string]string) error {
	if c.released {
		return fmt.Errorf("%w: canvas: save after release", ggshot.ErrInvalidState)
	}
	err := fsutil.WriteAtomic(path, func(w io.Writer) error {
		return c.Encode(w, scale, metadata)
	})
	if err != nil {
		return err
	}
	ggshot.Logger().Info("canvas: saved", "path", path, "scale", scale)
	return nil
}

// Encode flushes the canvas and writes it as PNG to w, cropped and scaled
// by scale, with metadata embedded as text chunks.
func (c *Canvas) Encode(w io.Writer, scale float64, metadata map[string]string) error {
	if c.released {
		return fmt.Errorf("%w: canvas: encode after release", ggshot.ErrInvalidState)
	}
	img, err := c.scaledImage(scale)
	if err != nil {
		return err
	}
	if img.Rect.Empty() {
		return fmt.Errorf("%w: canvas: nothing drawn", ggshot.ErrInvalidState)
	}
	meta := maps.Clone(c.meta)
	if meta == nil {
		meta = make(map[string]string, len(metadata))
	}
	maps.Copy(meta, metadata)
	return pngmeta.Encode(w, img, meta)
}

// Scaled returns a new canvas holding the cropped content resized by scale
// with bilinear resampling. Scale 1 returns an unscaled copy.
func (c *Canvas) Scaled(scale float64) (*Canvas, error) {
	if c.released {
		return nil, fmt.Errorf("%w: canvas: scale after release", ggshot.ErrInvalidState)
	}
	img, err := c.scaledImage(scale)
	if err != nil {
		return nil, err
	}
	out := FromImage(img)
	out.background = c.background
	out.meta = maps.Clone(c.meta)
	return out, nil
}

// ScaledSize returns the size of the cropped content after scaling.
func (c *Canvas) ScaledSize(scale float64) image.Point {
	return scaledSize(c.CroppedWidth(), c.CroppedHeight(), scale)
}

func (c *Canvas) scaledImage(scale float64) (*image.NRGBA, error) {
	if scale <= 0 || math.IsNaN(scale) || math.IsInf(scale, 0) {
		return nil, fmt.Errorf("%w: canvas: scale %v", ggshot.ErrInvalidArgument, scale)
	}
	src := c.Image()
	if scale == 1 || src.Rect.Empty() {
		return src, nil
	}
	size := scaledSize(src.Rect.Dx(), src.Rect.Dy(), scale)
	dst := image.NewNRGBA(image.Rectangle{Max: size})
	xdraw.BiLinear.Scale(dst, dst.Rect, src, src.Rect, draw.Src, nil)
	return dst, nil
}

func scaledSize(w, h int, scale float64) image.Point {
	if w == 0 || h == 0 {
		return image.Point{}
	}
	if scale == 1 {
		return image.Pt(w, h)
	}
	return image.Pt(
		max(int(math.Round(float64(w)*scale)), 1),
		max(int(math.Round(float64(h)*scale)), 1),
	)
}
