package capture

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	stdgif "image/gif"
	"io"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/gogpu/ggshot"
	"github.com/gogpu/ggshot/canvas"
	"github.com/gogpu/ggshot/compare"
	"github.com/gogpu/ggshot/gif"
	"github.com/gogpu/ggshot/internal/fsutil"
)

// CaptureAnimation encodes frames as an animated GIF and handles it like
// Capture handles a single image. Frames are compared after quantization:
// the new animation is decoded again and compared frame by frame with
// the golden one. The compare image shows the first differing frame.
//
// Animations with a different frame count or size are Changed with an
// undefined diff percentage. All frames are released.
func (p *Pipeline) CaptureAnimation(frames []*canvas.Canvas, goldenPath string, opts ...gif.Option) (Result, error) {
	defer func() {
		for _, f := range frames {
			if f != nil {
				f.Release()
			}
		}
	}()
	if len(frames) == 0 {
		return Result{}, fmt.Errorf("%w: capture: no frames", ggshot.ErrInvalidArgument)
	}
	if err := checkGoldenPath(goldenPath); err != nil {
		return Result{}, err
	}
	if !p.task.Enabled() {
		return Result{}, ErrDisabled
	}

	start := time.Now()
	data, err := p.encodeAnimation(frames, opts)
	since(&p.stats.encode, start)
	if err != nil {
		return Result{}, err
	}

	var res Result
	if p.task.Comparing() || p.task.Verifying() {
		res, err = p.compareAnimation(data, goldenPath)
	} else {
		err = writeFile(goldenPath, data)
		res = Recorded(goldenPath, p.now())
	}
	if err != nil {
		return Result{}, err
	}
	return p.finish(res)
}

func (p *Pipeline) encodeAnimation(frames []*canvas.Canvas, opts []gif.Option) ([]byte, error) {
	var buf bytes.Buffer
	enc := gif.NewEncoder(opts...)
	if err := enc.Start(&buf); err != nil {
		return nil, err
	}
	for i, f := range frames {
		if f == nil {
			return nil, fmt.Errorf("%w: capture: frame %d is nil", ggshot.ErrInvalidArgument, i)
		}
		img, err := f.Scaled(p.scale)
		if err != nil {
			return nil, err
		}
		err = enc.AddFrame(img)
		img.Release()
		if err != nil {
			return nil, fmt.Errorf("capture: frame %d: %w", i, err)
		}
	}
	if err := enc.Finish(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (p *Pipeline) compareAnimation(data []byte, goldenPath string) (Result, error) {
	actual, err := decodeFrames(bytes.NewReader(data))
	if err != nil {
		return Result{}, err
	}
	defer releaseAll(actual)

	var golden []*canvas.Canvas
	exists := fsutil.Exists(goldenPath)
	if exists {
		f, err := os.Open(filepath.Clean(goldenPath))
		if err != nil {
			return Result{}, fmt.Errorf("capture: open golden: %w", err)
		}
		golden, err = decodeFrames(f)
		_ = f.Close()
		if err != nil {
			return Result{}, fmt.Errorf("capture: load golden %s: %w", goldenPath, err)
		}
		defer releaseAll(golden)
	}

	diff := math.NaN()
	shown := 0
	if exists {
		start := time.Now()
		r, first := p.compareFrames(golden, actual)
		since(&p.stats.compare, start)
		if p.validator.Accept(r) {
			return Unchanged(goldenPath, p.now()), nil
		}
		diff, shown = r.DiffPercentage(), first
	}

	var reference *canvas.Canvas
	if shown < len(golden) {
		reference = golden[shown]
	} else {
		size := image.Pt(actual[0].Width(), actual[0].Height())
		reference = canvas.NewFilled(size.X, size.Y, whiteColor)
		defer reference.Release()
	}
	comparePath, actualPath := p.artifactPaths(goldenPath, ".gif")

	start := time.Now()
	composite, err := p.comparator.Composite(reference, actual[min(shown, len(actual)-1)], 1)
	if err != nil {
		return Result{}, err
	}
	defer composite.Release()
	if err := composite.Save(comparePath, 1, p.contextData); err != nil {
		return Result{}, err
	}
	if err := writeFile(actualPath, data); err != nil {
		return Result{}, err
	}
	since(&p.stats.encode, start)

	if !exists {
		return Added(comparePath, actualPath, goldenPath, p.now()), nil
	}
	return Changed(comparePath, actualPath, goldenPath, p.now(), diff), nil
}

// compareFrames sums the comparison over all frame pairs and returns the
// index of the first differing frame. Animations of different length are
// not comparable.
func (p *Pipeline) compareFrames(golden, actual []*canvas.Canvas) (compare.Result, int) {
	if len(golden) != len(actual) {
		return compare.Result{}, 0
	}
	total := compare.Result{Comparable: true}
	first := -1
	for i := range golden {
		r := p.comparator.CompareImages(actual[i].Image(), golden[i].Image())
		if !r.Comparable {
			return compare.Result{}, i
		}
		if first < 0 && r.PixelDifferences > 0 {
			first = i
		}
		total.PixelDifferences += r.PixelDifferences
		total.PixelCount += r.PixelCount
	}
	return total, max(first, 0)
}

// decodeFrames decodes a GIF into one full canvas per frame, drawing each
// frame over the previous one.
func decodeFrames(r io.Reader) ([]*canvas.Canvas, error) {
	g, err := stdgif.DecodeAll(r)
	if err != nil {
		return nil, fmt.Errorf("capture: decode gif: %w", err)
	}
	screen := image.NewNRGBA(image.Rect(0, 0, g.Config.Width, g.Config.Height))
	frames := make([]*canvas.Canvas, 0, len(g.Image))
	for _, m := range g.Image {
		draw.Draw(screen, m.Bounds(), m, m.Bounds().Min, draw.Over)
		frames = append(frames, canvas.FromImage(screen))
	}
	return frames, nil
}

func releaseAll(cs []*canvas.Canvas) {
	for _, c := range cs {
		c.Release()
	}
}

func writeFile(path string, data []byte) error {
	err := fsutil.WriteAtomic(path, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
	if err == nil {
		ggshot.Logger().Info("capture: saved", "path", path)
	}
	return err
}
