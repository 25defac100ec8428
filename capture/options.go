package capture

import (
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/gogpu/ggshot"
	"github.com/gogpu/ggshot/compare"
	"github.com/gogpu/ggshot/naming"
)

// DefaultGoldenDir is where CaptureTest places golden images unless
// WithGoldenDir is given.
const DefaultGoldenDir = "testdata/screenshots"

// Validator decides whether a comparison is close enough to count as
// unchanged. compare.ThresholdValidator implements it.
type Validator interface {
	Accept(r compare.Result) bool
}

// Recorder collects capture results. report.Aggregator implements it.
type Recorder interface {
	Add(r Result)
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithTaskType sets the task type. The default is Verify.
func WithTaskType(t TaskType) Option {
	return func(p *Pipeline) {
		p.task = t
	}
}

// WithValidator sets the validator. The default accepts only identical
// images.
func WithValidator(v Validator) Option {
	return func(p *Pipeline) {
		if v != nil {
			p.validator = v
		}
	}
}

// WithComparator sets the pixel comparator used for comparison and the
// diff image.
func WithComparator(c compare.Comparator) Option {
	return func(p *Pipeline) {
		p.comparator = c
	}
}

// WithResizeScale scales new images before they are saved or compared.
// The default is 1.
func WithResizeScale(scale float64) Option {
	return func(p *Pipeline) {
		p.scale = scale
	}
}

// WithOutputDir sets the directory for compare and actual images. By
// default they are written next to the golden image.
func WithOutputDir(dir string) Option {
	return func(p *Pipeline) {
		p.outputDir = dir
	}
}

// WithResultDir makes the pipeline write every result as JSON into dir.
func WithResultDir(dir string) Option {
	return func(p *Pipeline) {
		p.resultDir = dir
	}
}

// WithGoldenDir sets the directory CaptureTest derives golden paths in.
func WithGoldenDir(dir string) Option {
	return func(p *Pipeline) {
		p.goldenDir = dir
	}
}

// WithContextData attaches metadata to every result and embeds it into
// the written images.
func WithContextData(data map[string]string) Option {
	return func(p *Pipeline) {
		p.contextData = maps.Clone(data)
	}
}

// WithFailurePolicy sets when verification failures are reported.
func WithFailurePolicy(policy FailurePolicy) Option {
	return func(p *Pipeline) {
		p.policy = policy
	}
}

// WithNamer sets the namer CaptureTest uses. The default is
// naming.Default().
func WithNamer(n *naming.Namer) Option {
	return func(p *Pipeline) {
		if n != nil {
			p.namer = n
		}
	}
}

// WithNamingStrategy sets how CaptureTest turns a test identity into a
// file name.
func WithNamingStrategy(s naming.Strategy) Option {
	return func(p *Pipeline) {
		p.strategy = s
	}
}

// WithAggregator passes every result to r.
func WithAggregator(r Recorder) Option {
	return func(p *Pipeline) {
		p.recorder = r
	}
}

// WithClock sets the time source for result timestamps.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

// ParseFailurePolicy parses "immediate" or "deferred".
func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "immediate", "":
		return FailImmediately, nil
	case "deferred", "at_end":
		return FailAtEnd, nil
	default:
		return FailImmediately, fmt.Errorf("%w: capture: unknown failure policy %q", ggshot.ErrInvalidArgument, s)
	}
}
