package capture

import (
	"errors"
	"testing"

	"github.com/gogpu/ggshot"
)

func TestTaskType_Facets(t *testing.T) {
	tests := []struct {
		task                            TaskType
		recording, comparing, verifying bool
	}{
		{None, false, false, false},
		{Record, true, false, false},
		{Compare, false, true, false},
		{Verify, false, false, true},
		{VerifyAndRecord, true, false, true},
		{CompareAndRecord, true, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.task.String(), func(t *testing.T) {
			if tt.task.Recording() != tt.recording {
				t.Errorf("Recording = %v", tt.task.Recording())
			}
			if tt.task.Comparing() != tt.comparing {
				t.Errorf("Comparing = %v", tt.task.Comparing())
			}
			if tt.task.Verifying() != tt.verifying {
				t.Errorf("Verifying = %v", tt.task.Verifying())
			}
			if tt.task.Enabled() != (tt.task != None) {
				t.Errorf("Enabled = %v", tt.task.Enabled())
			}
			if got := TaskTypeFrom(tt.recording, tt.comparing, tt.verifying); got != tt.task {
				t.Errorf("TaskTypeFrom = %v", got)
			}
		})
	}
}

func TestTaskTypeFrom_VerifyWins(t *testing.T) {
	if got := TaskTypeFrom(true, true, true); got != VerifyAndRecord {
		t.Errorf("all flags = %v, want VerifyAndRecord", got)
	}
	if got := TaskTypeFrom(false, true, true); got != Verify {
		t.Errorf("compare+verify = %v, want Verify", got)
	}
}

func TestTaskType_Invalid(t *testing.T) {
	bad := TaskType(42)
	if bad.Recording() || bad.Comparing() || bad.Verifying() {
		t.Error("unknown task type must have no facets")
	}
	if bad.String() != "TaskType(42)" {
		t.Errorf("String = %q", bad.String())
	}
}

func TestParseTaskType(t *testing.T) {
	for _, task := range []TaskType{None, Record, Compare, Verify, VerifyAndRecord, CompareAndRecord} {
		got, err := ParseTaskType(task.String())
		if err != nil || got != task {
			t.Errorf("ParseTaskType(%q) = %v, %v", task.String(), got, err)
		}
	}
	if got, err := ParseTaskType(" Compare-And-Record "); err != nil || got != CompareAndRecord {
		t.Errorf("lenient parse = %v, %v", got, err)
	}
	if _, err := ParseTaskType("snapshot"); !errors.Is(err, ggshot.ErrInvalidArgument) {
		t.Errorf("unknown name: err = %v", err)
	}
}

func TestParseFailurePolicy(t *testing.T) {
	tests := map[string]FailurePolicy{
		"":          FailImmediately,
		"immediate": FailImmediately,
		"deferred":  FailAtEnd,
		"at_end":    FailAtEnd,
	}
	for in, want := range tests {
		got, err := ParseFailurePolicy(in)
		if err != nil || got != want {
			t.Errorf("ParseFailurePolicy(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseFailurePolicy("later"); !errors.Is(err, ggshot.ErrInvalidArgument) {
		t.Errorf("unknown policy: err = %v", err)
	}
}
