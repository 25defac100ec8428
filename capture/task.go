package capture

import (
	"fmt"
	"strings"

	"github.com/gogpu/ggshot"
)

// TaskType selects what a capture does with the golden image.
type TaskType int

const (
	// None disables capturing. Capture returns ErrDisabled.
	None TaskType = iota

	// Record writes the golden image.
	Record

	// Compare reports differences without failing.
	Compare

	// Verify fails on Added and Changed results.
	Verify

	// VerifyAndRecord fails on differences and replaces the golden image
	// with the new one.
	VerifyAndRecord

	// CompareAndRecord reports differences and replaces the golden image
	// with the new one.
	CompareAndRecord
)

// facets holds the recording, comparing and verifying flags per task type.
var facets = [...][3]bool{
	None:             {false, false, false},
	Record:           {true, false, false},
	Compare:          {false, true, false},
	Verify:           {false, false, true},
	VerifyAndRecord:  {true, false, true},
	CompareAndRecord: {true, true, false},
}

var taskNames = [...]string{
	None:             "none",
	Record:           "record",
	Compare:          "compare",
	Verify:           "verify",
	VerifyAndRecord:  "verify_and_record",
	CompareAndRecord: "compare_and_record",
}

func (t TaskType) valid() bool { return t >= None && t <= CompareAndRecord }

// Recording reports whether the golden image is overwritten.
func (t TaskType) Recording() bool { return t.valid() && facets[t][0] }

// Comparing reports whether differences are reported without failing.
func (t TaskType) Comparing() bool { return t.valid() && facets[t][1] }

// Verifying reports whether Added and Changed results fail the capture.
func (t TaskType) Verifying() bool { return t.valid() && facets[t][2] }

// Enabled reports whether the task type does anything.
func (t TaskType) Enabled() bool { return t.Recording() || t.Comparing() || t.Verifying() }

// String returns the configuration name, e.g. "verify_and_record".
func (t TaskType) String() string {
	if !t.valid() {
		return fmt.Sprintf("TaskType(%d)", int(t))
	}
	return taskNames[t]
}

// ParseTaskType parses the names returned by String. Dashes are accepted
// in place of underscores and case is ignored.
func ParseTaskType(s string) (TaskType, error) {
	norm := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	for t, name := range taskNames {
		if name == norm {
			return TaskType(t), nil
		}
	}
	return None, fmt.Errorf("%w: capture: unknown task type %q", ggshot.ErrInvalidArgument, s)
}

// TaskTypeFrom returns the task type with the given facets. Verify takes
// precedence over compare, so all three flags give VerifyAndRecord and
// compare plus verify give Verify.
func TaskTypeFrom(record, compare, verify bool) TaskType {
	switch {
	case verify && record:
		return VerifyAndRecord
	case verify:
		return Verify
	case compare && record:
		return CompareAndRecord
	case compare:
		return Compare
	case record:
		return Record
	default:
		return None
	}
}
