package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/gogpu/ggshot/capture"
	"github.com/gogpu/ggshot/report"
)

func TestCommands(t *testing.T) {
	dir := t.TempDir()
	golden := filepath.Join(dir, "settings.png")
	blue := filepath.Join(dir, "blue.png")
	green := filepath.Join(dir, "green.png")

	if err := runDemo([]string{"-o", blue}); err != nil {
		t.Fatalf("demo: %v", err)
	}
	if err := runDemo([]string{"-o", green, "-accent", "green"}); err != nil {
		t.Fatalf("demo: %v", err)
	}

	if err := runCapture([]string{"-golden", golden, "-actual", blue, "-mode", "record"}); err != nil {
		t.Fatalf("capture record: %v", err)
	}
	if err := runCapture([]string{"-golden", golden, "-actual", blue}); err != nil {
		t.Errorf("capture verify of identical image: %v", err)
	}

	results := filepath.Join(dir, "results")
	t.Setenv("GGSHOT_RESULT_DIR", results)
	err := runCapture([]string{"-golden", golden, "-actual", green, "-mode", "compare"})
	if err != nil {
		t.Fatalf("capture compare: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "settings_compare.png")); err != nil {
		t.Errorf("compare image missing: %v", err)
	}
	err = runCapture([]string{"-golden", golden, "-actual", green, "-mode", "verify"})
	if !errors.Is(err, capture.ErrVerification) {
		t.Errorf("capture verify of changed image: err = %v", err)
	}

	out := filepath.Join(dir, "report.json")
	if err := runReport([]string{"-dir", results, "-o", out}); err != nil {
		t.Fatalf("report: %v", err)
	}
	rep, err := report.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if rep.Summary.Changed != 2 {
		t.Errorf("summary = %+v, want 2 changed", rep.Summary)
	}
	if err := runReport([]string{"-dir", results, "-o", out, "-fail"}); !errors.Is(err, capture.ErrVerification) {
		t.Errorf("report -fail: err = %v", err)
	}

	anim := filepath.Join(dir, "toggle.gif")
	if err := runGIF([]string{"-o", anim, "-delay", "50ms", blue, green}); err != nil {
		t.Fatalf("gif: %v", err)
	}
	if data, err := os.ReadFile(anim); err != nil || len(data) < 6 || string(data[:6]) != "GIF89a" {
		t.Errorf("gif output invalid: %v", err)
	}
}

func TestCommandErrors(t *testing.T) {
	if err := runCapture(nil); err == nil {
		t.Error("capture without flags succeeded")
	}
	if err := runGIF(nil); err == nil {
		t.Error("gif without frames succeeded")
	}
	if err := runReport(nil); err == nil {
		t.Error("report without -dir succeeded")
	}
}
