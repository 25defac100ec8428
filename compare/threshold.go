package compare

import (
	"fmt"
	"math"

	"github.com/gogpu/ggshot"
)

// ThresholdValidator accepts a comparison when at most a fraction of the
// pixels changed.
type ThresholdValidator struct {
	threshold float64
}

// NewThresholdValidator returns a validator accepting up to
// round(PixelCount * threshold) differing pixels. threshold must lie in
// [0, 1].
func NewThresholdValidator(threshold float64) (ThresholdValidator, error) {
	if math.IsNaN(threshold) || threshold < 0 || threshold > 1 {
		return ThresholdValidator{}, fmt.Errorf("%w: threshold %v not in [0, 1]", ggshot.ErrInvalidArgument, threshold)
	}
	return ThresholdValidator{threshold: threshold}, nil
}

// Threshold returns the accepted fraction of differing pixels.
func (v ThresholdValidator) Threshold() float64 { return v.threshold }

// Accept reports whether r stays within the threshold. Results of images
// with different sizes are never accepted.
func (v ThresholdValidator) Accept(r Result) bool {
	if !r.Comparable {
		return false
	}
	return float64(r.PixelDifferences) <= math.Round(float64(r.PixelCount)*v.threshold)
}

// Changed is the negation of Accept.
func (v ThresholdValidator) Changed(r Result) bool { return !v.Accept(r) }
