package capture

import (
	"encoding/json"
	"fmt"
	"maps"
	"math"
	"strconv"
	"time"

	"github.com/gogpu/ggshot"
)

// Kind is the outcome of a capture.
type Kind int

const (
	// KindRecorded means the golden image was written.
	KindRecorded Kind = iota

	// KindAdded means no golden image existed.
	KindAdded

	// KindChanged means the new image differs beyond the threshold.
	KindChanged

	// KindUnchanged means the new image matches the golden image.
	KindUnchanged
)

var kindNames = [...]string{
	KindRecorded:  "recorded",
	KindAdded:     "added",
	KindChanged:   "changed",
	KindUnchanged: "unchanged",
}

// String returns the JSON type discriminator of the kind.
func (k Kind) String() string {
	if k < KindRecorded || k > KindUnchanged {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return Kind(k), nil
		}
	}
	return 0, fmt.Errorf("%w: capture: unknown result type %q", ggshot.ErrInvalidArgument, s)
}

// Result is the outcome of one capture. Use the constructors to build
// one; they set exactly the fields that belong to the kind. Added and
// Changed results carry compare and actual image paths, Recorded and
// Unchanged never do.
type Result struct {
	Kind        Kind
	GoldenPath  string
	ComparePath string
	ActualPath  string
	Timestamp   time.Time

	// DiffPercentage is the fraction of differing pixels of a Changed
	// result. It is NaN for every other kind and for Changed results of
	// images that could not be compared.
	DiffPercentage float64

	// ContextData is free-form metadata about the capture.
	ContextData map[string]string
}

// Recorded returns a result for a written golden image.
func Recorded(goldenPath string, ts time.Time) Result {
	return Result{Kind: KindRecorded, GoldenPath: goldenPath, Timestamp: ts, DiffPercentage: math.NaN()}
}

// Added returns a result for a capture without a golden image.
func Added(comparePath, actualPath, goldenPath string, ts time.Time) Result {
	return Result{
		Kind:           KindAdded,
		GoldenPath:     goldenPath,
		ComparePath:    comparePath,
		ActualPath:     actualPath,
		Timestamp:      ts,
		DiffPercentage: math.NaN(),
	}
}

// Changed returns a result for a capture that differs from its golden
// image. diff may be NaN.
func Changed(comparePath, actualPath, goldenPath string, ts time.Time, diff float64) Result {
	return Result{
		Kind:           KindChanged,
		GoldenPath:     goldenPath,
		ComparePath:    comparePath,
		ActualPath:     actualPath,
		Timestamp:      ts,
		DiffPercentage: diff,
	}
}

// Unchanged returns a result for a capture that matches its golden image.
func Unchanged(goldenPath string, ts time.Time) Result {
	return Result{Kind: KindUnchanged, GoldenPath: goldenPath, Timestamp: ts, DiffPercentage: math.NaN()}
}

// Failed reports whether the result fails a verifying capture.
func (r Result) Failed() bool {
	return r.Kind == KindAdded || r.Kind == KindChanged
}

// Equal reports whether r and o describe the same outcome. Timestamps
// are compared as instants, NaN diff percentages are equal and a nil
// ContextData equals an empty one.
func (r Result) Equal(o Result) bool {
	return r.Kind == o.Kind &&
		r.GoldenPath == o.GoldenPath &&
		r.ComparePath == o.ComparePath &&
		r.ActualPath == o.ActualPath &&
		r.Timestamp.Equal(o.Timestamp) &&
		sameFloat(r.DiffPercentage, o.DiffPercentage) &&
		maps.Equal(r.ContextData, o.ContextData)
}

func sameFloat(a, b float64) bool {
	return a == b || (math.IsNaN(a) && math.IsNaN(b))
}

func formatPercentage(f float64) string {
	if math.IsNaN(f) {
		return "undefined"
	}
	return strconv.FormatFloat(f*100, 'f', 2, 64) + "%"
}

// resultJSON is the wire form of a Result.
type resultJSON struct {
	Type           string            `json:"type"`
	GoldenPath     string            `json:"golden_file_path"`
	ComparePath    string            `json:"compare_file_path,omitempty"`
	ActualPath     string            `json:"actual_file_path,omitempty"`
	Timestamp      int64             `json:"timestamp"`
	DiffPercentage *float64          `json:"diff_percentage,omitempty"`
	ContextData    map[string]string `json:"context_data,omitempty"`
}

// MarshalJSON encodes the result with a "type" discriminator. The
// timestamp is written as Unix nanoseconds; an undefined diff percentage
// is omitted.
func (r Result) MarshalJSON() ([]byte, error) {
	if r.Kind < KindRecorded || r.Kind > KindUnchanged {
		return nil, fmt.Errorf("%w: capture: marshal result of %v", ggshot.ErrInvalidArgument, r.Kind)
	}
	out := resultJSON{
		Type:        r.Kind.String(),
		GoldenPath:  r.GoldenPath,
		ComparePath: r.ComparePath,
		ActualPath:  r.ActualPath,
		Timestamp:   r.Timestamp.UnixNano(),
		ContextData: r.ContextData,
	}
	if r.Kind == KindChanged && !math.IsNaN(r.DiffPercentage) {
		d := r.DiffPercentage
		out.DiffPercentage = &d
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the form written by MarshalJSON. Unknown types
// and Added or Changed results without both image paths are rejected
// with ggshot.ErrInvalidArgument.
func (r *Result) UnmarshalJSON(data []byte) error {
	var in resultJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("capture: decode result: %w", err)
	}
	kind, err := ParseKind(in.Type)
	if err != nil {
		return err
	}
	if in.GoldenPath == "" {
		return fmt.Errorf("%w: capture: %s result without golden_file_path", ggshot.ErrInvalidArgument, kind)
	}
	ts := time.Unix(0, in.Timestamp)

	var res Result
	switch kind {
	case KindRecorded:
		res = Recorded(in.GoldenPath, ts)
	case KindUnchanged:
		res = Unchanged(in.GoldenPath, ts)
	case KindAdded, KindChanged:
		if in.ComparePath == "" || in.ActualPath == "" {
			return fmt.Errorf("%w: capture: %s result without compare_file_path or actual_file_path",
				ggshot.ErrInvalidArgument, kind)
		}
		if kind == KindAdded {
			res = Added(in.ComparePath, in.ActualPath, in.GoldenPath, ts)
		} else {
			diff := math.NaN()
			if in.DiffPercentage != nil {
				diff = *in.DiffPercentage
			}
			res = Changed(in.ComparePath, in.ActualPath, in.GoldenPath, ts, diff)
		}
	}
	res.ContextData = in.ContextData
	*r = res
	return nil
}
