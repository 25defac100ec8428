package capture

import (
	"encoding/json"
	"fmt"
	"image/color"
	"io"
	"maps"
	"math"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gogpu/ggshot"
	"github.com/gogpu/ggshot/canvas"
	"github.com/gogpu/ggshot/compare"
	"github.com/gogpu/ggshot/internal/fsutil"
	"github.com/gogpu/ggshot/naming"
)

// Suffixes of the artifacts written next to a golden image. Golden paths
// ending in one of them are rejected.
const (
	CompareSuffix = "_compare"
	ActualSuffix  = "_actual"
)

var whiteColor = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}

// Pipeline runs captures with one configuration. It is safe for
// concurrent use; each capture runs sequentially on the calling goroutine.
type Pipeline struct {
	task        TaskType
	validator   Validator
	comparator  compare.Comparator
	scale       float64
	outputDir   string
	resultDir   string
	goldenDir   string
	contextData map[string]string
	policy      FailurePolicy
	namer       *naming.Namer
	strategy    naming.Strategy
	recorder    Recorder
	now         func() time.Time

	// resultNames keeps per-capture JSON files apart when one golden image
	// is captured more than once.
	resultNames *naming.Namer
	stats       counters

	mu       sync.Mutex
	failures []*VerificationError
}

// New returns a pipeline. Without options it verifies against golden
// images in the exact-match mode and fails immediately.
func New(opts ...Option) *Pipeline {
	exact, _ := compare.NewThresholdValidator(0)
	p := &Pipeline{
		task:        Verify,
		validator:   exact,
		scale:       1,
		goldenDir:   DefaultGoldenDir,
		namer:       naming.Default(),
		now:         time.Now,
		resultNames: naming.NewNamer(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// TaskType returns the configured task type.
func (p *Pipeline) TaskType() TaskType { return p.task }

// GoldenPath returns the golden path CaptureTest would use for id. Every
// call consumes a name, so repeated calls for one id give distinct paths.
func (p *Pipeline) GoldenPath(id naming.Identity) string {
	return filepath.Join(p.goldenDir, p.namer.NameFor(p.strategy, id)+".png")
}

// CaptureTest captures c under a golden path derived from the test
// identity.
func (p *Pipeline) CaptureTest(c *canvas.Canvas, id naming.Identity) (Result, error) {
	return p.Capture(c, p.GoldenPath(id))
}

// Capture flushes c, saves or compares it according to the task type and
// releases it. Compare and actual images are written for Added and
// Changed results only.
//
// Under a verifying task type an Added or Changed result is a failure:
// with FailImmediately Capture returns the result together with a
// *VerificationError, with FailAtEnd the failure is kept for Err.
func (p *Pipeline) Capture(c *canvas.Canvas, goldenPath string) (Result, error) {
	if c == nil {
		return Result{}, fmt.Errorf("%w: capture: nil canvas", ggshot.ErrInvalidArgument)
	}
	if err := checkGoldenPath(goldenPath); err != nil {
		return Result{}, err
	}
	if !p.task.Enabled() {
		return Result{}, ErrDisabled
	}
	if c.Released() {
		return Result{}, fmt.Errorf("%w: capture: canvas released", ggshot.ErrInvalidState)
	}
	defer c.Release()

	start := time.Now()
	c.Flush()
	since(&p.stats.flush, start)

	var (
		res Result
		err error
	)
	if p.task.Comparing() || p.task.Verifying() {
		res, err = p.compare(c, goldenPath)
	} else {
		res, err = p.record(c, goldenPath)
	}
	if err != nil {
		return Result{}, err
	}
	return p.finish(res)
}

func (p *Pipeline) record(c *canvas.Canvas, goldenPath string) (Result, error) {
	start := time.Now()
	err := c.Save(goldenPath, p.scale, p.contextData)
	since(&p.stats.encode, start)
	if err != nil {
		return Result{}, err
	}
	return Recorded(goldenPath, p.now()), nil
}

func (p *Pipeline) compare(c *canvas.Canvas, goldenPath string) (Result, error) {
	exists := fsutil.Exists(goldenPath)
	var golden *canvas.Canvas
	if exists {
		g, err := canvas.Load(goldenPath)
		if err != nil {
			return Result{}, fmt.Errorf("capture: load golden: %w", err)
		}
		golden = g
	} else {
		// Without a golden image the new one is diffed against white.
		size := c.ScaledSize(p.scale)
		golden = canvas.NewFilled(size.X, size.Y, whiteColor)
	}
	defer golden.Release()

	diff := math.NaN()
	if exists {
		start := time.Now()
		r, err := p.comparator.Compare(c, golden, p.scale)
		since(&p.stats.compare, start)
		if err != nil {
			return Result{}, err
		}
		if p.validator.Accept(r) {
			return Unchanged(goldenPath, p.now()), nil
		}
		diff = r.DiffPercentage()
		ggshot.Logger().Debug("capture: changed", "golden", goldenPath,
			"differences", r.PixelDifferences, "pixels", r.PixelCount, "comparable", r.Comparable)
	}

	comparePath, actualPath := p.artifactPaths(goldenPath, ".png")
	start := time.Now()
	composite, err := p.comparator.Composite(golden, c, p.scale)
	if err != nil {
		return Result{}, err
	}
	defer composite.Release()
	if err := composite.Save(comparePath, 1, p.contextData); err != nil {
		return Result{}, err
	}
	if err := c.Save(actualPath, p.scale, p.contextData); err != nil {
		return Result{}, err
	}
	since(&p.stats.encode, start)

	if !exists {
		return Added(comparePath, actualPath, goldenPath, p.now()), nil
	}
	return Changed(comparePath, actualPath, goldenPath, p.now(), diff), nil
}

// finish records the result and applies the failure policy.
func (p *Pipeline) finish(res Result) (Result, error) {
	if len(p.contextData) > 0 {
		res.ContextData = maps.Clone(p.contextData)
	}
	p.stats.record(res.Kind)
	if p.recorder != nil {
		p.recorder.Add(res)
	}
	if err := p.writeResult(res); err != nil {
		return res, err
	}

	log := ggshot.Logger()
	log.Info("capture: done", "type", res.Kind, "golden", res.GoldenPath, "task", p.task)
	s := p.stats.snapshot()
	log.Debug("capture: stats", "captures", s.Captures, "flush", s.Flush, "compare", s.Compare, "encode", s.Encode)

	if !p.task.Verifying() || !res.Failed() {
		return res, nil
	}
	verr := &VerificationError{
		Kind:           res.Kind,
		GoldenPath:     res.GoldenPath,
		ComparePath:    res.ComparePath,
		ActualPath:     res.ActualPath,
		DiffPercentage: res.DiffPercentage,
	}
	if p.policy == FailAtEnd {
		p.mu.Lock()
		p.failures = append(p.failures, verr)
		p.mu.Unlock()
		log.Debug("capture: verification failure deferred", "golden", res.GoldenPath)
		return res, nil
	}
	return res, verr
}

func (p *Pipeline) writeResult(res Result) error {
	if p.resultDir == "" {
		return nil
	}
	// Result files of earlier runs are kept, so names already on disk
	// are skipped as well.
	var path string
	for {
		path = filepath.Join(p.resultDir, p.resultNames.Name(baseName(res.GoldenPath))+".json")
		if !fsutil.Exists(path) {
			break
		}
	}
	return fsutil.WriteAtomic(path, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	})
}

// Err returns the verification failures collected under FailAtEnd: nil,
// the single *VerificationError, or a *FailuresError.
func (p *Pipeline) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch len(p.failures) {
	case 0:
		return nil
	case 1:
		return p.failures[0]
	default:
		return &FailuresError{Failures: append([]*VerificationError(nil), p.failures...)}
	}
}

// Failures returns the number of deferred verification failures.
func (p *Pipeline) Failures() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.failures)
}

// Stats returns a snapshot of the pipeline counters.
func (p *Pipeline) Stats() Stats { return p.stats.snapshot() }

// Reset clears deferred failures, counters and result file names.
func (p *Pipeline) Reset() {
	p.mu.Lock()
	p.failures = nil
	p.mu.Unlock()
	p.stats.reset()
	p.resultNames.Reset()
}

// artifactPaths returns the compare and actual paths for a golden path.
// When recording, the actual image replaces the golden image.
func (p *Pipeline) artifactPaths(goldenPath, ext string) (comparePath, actualPath string) {
	dir := p.outputDir
	if dir == "" {
		dir = filepath.Dir(goldenPath)
	}
	base := baseName(goldenPath)
	comparePath = filepath.Join(dir, base+CompareSuffix+".png")
	actualPath = filepath.Join(dir, base+ActualSuffix+ext)
	if p.task.Recording() {
		actualPath = goldenPath
	}
	return comparePath, actualPath
}

func baseName(path string) string {
	b := filepath.Base(path)
	return strings.TrimSuffix(b, filepath.Ext(b))
}

func checkGoldenPath(path string) error {
	if path == "" {
		return fmt.Errorf("%w: capture: empty golden path", ggshot.ErrInvalidArgument)
	}
	base := baseName(path)
	for _, suffix := range []string{CompareSuffix, ActualSuffix} {
		if strings.HasSuffix(base, suffix) {
			return fmt.Errorf("%w: capture: golden path %s must not end with %q", ggshot.ErrInvalidArgument, path, suffix)
		}
	}
	return nil
}
