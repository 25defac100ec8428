package capture

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/gogpu/ggshot"
	"github.com/gogpu/ggshot/canvas"
	"github.com/gogpu/ggshot/gif"
)

func frames(colors ...string) []*canvas.Canvas {
	out := make([]*canvas.Canvas, 0, len(colors))
	for _, c := range colors {
		switch c {
		case "red":
			out = append(out, screen(red))
		case "blue":
			out = append(out, screen(blue))
		}
	}
	return out
}

func TestCaptureAnimation_Record(t *testing.T) {
	golden := filepath.Join(t.TempDir(), "spinner.gif")
	res, err := New(WithTaskType(Record)).CaptureAnimation(frames("red", "blue", "red"), golden, gif.WithRepeat(0))
	if err != nil {
		t.Fatalf("CaptureAnimation: %v", err)
	}
	if res.Kind != KindRecorded {
		t.Errorf("Kind = %v", res.Kind)
	}
	data, err := os.ReadFile(golden)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte("GIF89a")) || data[len(data)-1] != 0x3B {
		t.Error("golden is not a complete GIF")
	}
}

func TestCaptureAnimation_Compare(t *testing.T) {
	dir := t.TempDir()
	golden := filepath.Join(dir, "blink.gif")

	res, err := New(WithTaskType(Compare)).CaptureAnimation(frames("red", "blue"), golden)
	if err != nil || res.Kind != KindAdded {
		t.Fatalf("missing golden: %v, %v", res.Kind, err)
	}
	if res.ActualPath != filepath.Join(dir, "blink_actual.gif") || res.ComparePath != filepath.Join(dir, "blink_compare.png") {
		t.Errorf("paths = %q, %q", res.ActualPath, res.ComparePath)
	}

	if _, err := New(WithTaskType(Record)).CaptureAnimation(frames("red", "blue"), golden); err != nil {
		t.Fatal(err)
	}

	res, err = New(WithTaskType(Verify)).CaptureAnimation(frames("red", "blue"), golden)
	if err != nil || res.Kind != KindUnchanged {
		t.Errorf("same frames: %v, %v", res.Kind, err)
	}

	res, err = New(WithTaskType(Compare)).CaptureAnimation(frames("red", "red"), golden)
	if err != nil || res.Kind != KindChanged {
		t.Fatalf("changed frame: %v, %v", res.Kind, err)
	}
	// One of two frames differs in a 15x15 block.
	if want := 225.0 / 2400.0; math.Abs(res.DiffPercentage-want) > 1e-9 {
		t.Errorf("DiffPercentage = %v, want %v", res.DiffPercentage, want)
	}

	res, err = New(WithTaskType(Compare)).CaptureAnimation(frames("red"), golden)
	if err != nil || res.Kind != KindChanged || !math.IsNaN(res.DiffPercentage) {
		t.Errorf("frame count mismatch: %v diff %v, %v", res.Kind, res.DiffPercentage, err)
	}
}

func TestCaptureAnimation_Errors(t *testing.T) {
	p := New(WithTaskType(Record))
	dir := t.TempDir()
	if _, err := p.CaptureAnimation(nil, filepath.Join(dir, "a.gif")); !errors.Is(err, ggshot.ErrInvalidArgument) {
		t.Errorf("no frames: err = %v", err)
	}
	if _, err := p.CaptureAnimation(frames("red"), filepath.Join(dir, "a_actual.gif")); !errors.Is(err, ggshot.ErrInvalidArgument) {
		t.Errorf("reserved suffix: err = %v", err)
	}
	if _, err := New(WithTaskType(None)).CaptureAnimation(frames("red"), filepath.Join(dir, "b.gif")); !errors.Is(err, ErrDisabled) {
		t.Errorf("disabled: err = %v", err)
	}
}
