package capture

import (
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gogpu/ggshot"
	"github.com/gogpu/ggshot/canvas"
	"github.com/gogpu/ggshot/compare"
	"github.com/gogpu/ggshot/internal/fsutil"
	"github.com/gogpu/ggshot/naming"
)

var (
	red   = color.NRGBA{R: 255, A: 255}
	blue  = color.NRGBA{B: 255, A: 255}
	white = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
)

func fixedClock() time.Time { return ts }

// screen renders a small UI: white background with a colored block.
func screen(c color.Color) *canvas.Canvas {
	cv := canvas.NewFilled(40, 30, white)
	cv.DrawRect(image.Rect(5, 5, 20, 20), c)
	return cv
}

// recorder collects results like report.Aggregator does.
type recorder struct {
	mu      sync.Mutex
	results []Result
}

func (r *recorder) Add(res Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, res)
}

func record(t *testing.T, golden string, c *canvas.Canvas) {
	t.Helper()
	res, err := New(WithTaskType(Record)).Capture(c, golden)
	if err != nil || res.Kind != KindRecorded {
		t.Fatalf("record golden: %v, %v", res.Kind, err)
	}
}

func TestCapture_Record(t *testing.T) {
	golden := filepath.Join(t.TempDir(), "shots", "header.png")
	p := New(WithTaskType(Record), WithClock(fixedClock), WithContextData(map[string]string{"class": "HeaderTest"}))

	res, err := p.Capture(screen(red), golden)
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	want := Recorded(golden, ts)
	want.ContextData = map[string]string{"class": "HeaderTest"}
	if !res.Equal(want) {
		t.Errorf("result = %+v, want %+v", res, want)
	}

	saved, err := canvas.Load(golden)
	if err != nil {
		t.Fatalf("load golden: %v", err)
	}
	if got := saved.At(10, 10); got != red {
		t.Errorf("golden pixel = %v, want red", got)
	}
	if saved.Metadata()["class"] != "HeaderTest" {
		t.Errorf("golden metadata = %v", saved.Metadata())
	}
}

func TestCapture_ReleasesCanvas(t *testing.T) {
	c := screen(red)
	if _, err := New(WithTaskType(Record)).Capture(c, filepath.Join(t.TempDir(), "a.png")); err != nil {
		t.Fatal(err)
	}
	if !c.Released() {
		t.Error("canvas not released after capture")
	}
	if _, err := New(WithTaskType(Record)).Capture(c, filepath.Join(t.TempDir(), "b.png")); !errors.Is(err, ggshot.ErrInvalidState) {
		t.Errorf("capture of released canvas: err = %v", err)
	}
}

func TestCapture_GoldenMissing(t *testing.T) {
	dir := t.TempDir()
	golden := filepath.Join(dir, "missing.png")
	p := New(WithTaskType(Compare), WithClock(fixedClock))

	res, err := p.Capture(screen(red), golden)
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	want := Added(filepath.Join(dir, "missing_compare.png"), filepath.Join(dir, "missing_actual.png"), golden, ts)
	if !res.Equal(want) {
		t.Errorf("result = %+v, want %+v", res, want)
	}
	if fsutil.Exists(golden) {
		t.Error("compare mode wrote the golden image")
	}

	cmp, err := canvas.Load(res.ComparePath)
	if err != nil {
		t.Fatalf("load compare image: %v", err)
	}
	// golden (white) | diff | actual, all 40 wide.
	if cmp.Width() != 120 || cmp.Height() != 30 {
		t.Errorf("compare image = %dx%d, want 120x30", cmp.Width(), cmp.Height())
	}
	if got := cmp.At(40+10, 10); got != compare.HighlightColor {
		t.Errorf("diff pixel over the block = %v, want highlight", got)
	}
	actual, err := canvas.Load(res.ActualPath)
	if err != nil {
		t.Fatalf("load actual image: %v", err)
	}
	if actual.At(10, 10) != red {
		t.Errorf("actual pixel = %v", actual.At(10, 10))
	}
}

func TestCapture_VerifyUnchanged(t *testing.T) {
	dir := t.TempDir()
	golden := filepath.Join(dir, "same.png")
	record(t, golden, screen(red))

	res, err := New(WithTaskType(Verify), WithClock(fixedClock)).Capture(screen(red), golden)
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if !res.Equal(Unchanged(golden, ts)) {
		t.Errorf("result = %+v, want Unchanged", res)
	}
	if fsutil.Exists(filepath.Join(dir, "same_compare.png")) || fsutil.Exists(filepath.Join(dir, "same_actual.png")) {
		t.Error("unchanged capture wrote artifacts")
	}
}

func TestCapture_VerifyChanged(t *testing.T) {
	dir := t.TempDir()
	golden := filepath.Join(dir, "button.png")
	record(t, golden, screen(red))

	out := filepath.Join(dir, "out")
	res, err := New(WithTaskType(Verify), WithOutputDir(out)).Capture(screen(blue), golden)

	var verr *VerificationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want *VerificationError", err)
	}
	if !errors.Is(err, ErrVerification) {
		t.Error("err does not match ErrVerification")
	}
	wantCompare := filepath.Join(out, "button_compare.png")
	if verr.ComparePath != wantCompare || verr.GoldenPath != golden || verr.ActualPath != filepath.Join(out, "button_actual.png") {
		t.Errorf("error paths = %+v", verr)
	}
	if res.Kind != KindChanged {
		t.Fatalf("Kind = %v, want changed", res.Kind)
	}
	// 15x15 block out of 40x30 pixels.
	if want := 225.0 / 1200.0; math.Abs(res.DiffPercentage-want) > 1e-9 {
		t.Errorf("DiffPercentage = %v, want %v", res.DiffPercentage, want)
	}
	if !fsutil.Exists(wantCompare) {
		t.Error("compare image not written")
	}

	g, err := canvas.Load(golden)
	if err != nil {
		t.Fatal(err)
	}
	if g.At(10, 10) != red {
		t.Error("verify mode modified the golden image")
	}
}

func TestCapture_Threshold(t *testing.T) {
	dir := t.TempDir()
	golden := filepath.Join(dir, "tolerant.png")
	record(t, golden, screen(red))

	// A single changed pixel out of 1200 stays below 1%.
	c := screen(red)
	c.DrawRect(image.Rect(0, 0, 1, 1), blue)
	v, err := compare.NewThresholdValidator(0.01)
	if err != nil {
		t.Fatal(err)
	}
	res, err := New(WithTaskType(Verify), WithValidator(v)).Capture(c, golden)
	if err != nil || res.Kind != KindUnchanged {
		t.Errorf("result = %v, %v; want unchanged", res.Kind, err)
	}
}

func TestCapture_SizeMismatch(t *testing.T) {
	dir := t.TempDir()
	golden := filepath.Join(dir, "resized.png")
	record(t, golden, screen(red))

	bigger := canvas.NewFilled(50, 30, white)
	res, err := New(WithTaskType(Compare)).Capture(bigger, golden)
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if res.Kind != KindChanged || !math.IsNaN(res.DiffPercentage) {
		t.Errorf("result = %v diff %v, want changed with NaN", res.Kind, res.DiffPercentage)
	}
}

func TestCapture_VerifyAndRecord(t *testing.T) {
	dir := t.TempDir()
	golden := filepath.Join(dir, "card.png")
	record(t, golden, screen(red))

	res, err := New(WithTaskType(VerifyAndRecord)).Capture(screen(blue), golden)
	var verr *VerificationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want *VerificationError", err)
	}
	if res.ActualPath != golden {
		t.Errorf("ActualPath = %q, want golden path", res.ActualPath)
	}
	g, err := canvas.Load(golden)
	if err != nil {
		t.Fatal(err)
	}
	if g.At(10, 10) != blue {
		t.Error("golden image not replaced")
	}
	if fsutil.Exists(filepath.Join(dir, "card_actual.png")) {
		t.Error("actual image written although recording")
	}
}

func TestCapture_CompareAndRecordUnchanged(t *testing.T) {
	dir := t.TempDir()
	golden := filepath.Join(dir, "stable.png")
	record(t, golden, screen(red))
	before, err := os.Stat(golden)
	if err != nil {
		t.Fatal(err)
	}

	res, err := New(WithTaskType(CompareAndRecord)).Capture(screen(red), golden)
	if err != nil || res.Kind != KindUnchanged {
		t.Fatalf("result = %v, %v", res.Kind, err)
	}
	after, err := os.Stat(golden)
	if err != nil {
		t.Fatal(err)
	}
	if !after.ModTime().Equal(before.ModTime()) {
		t.Error("unchanged golden image rewritten")
	}
}

func TestCapture_ReservedSuffix(t *testing.T) {
	p := New(WithTaskType(Record))
	for _, path := range []string{"x_compare.png", "dir/y_actual.png", ""} {
		if _, err := p.Capture(screen(red), path); !errors.Is(err, ggshot.ErrInvalidArgument) {
			t.Errorf("Capture(%q): err = %v, want ErrInvalidArgument", path, err)
		}
	}
	if _, err := p.Capture(nil, "ok.png"); !errors.Is(err, ggshot.ErrInvalidArgument) {
		t.Errorf("nil canvas: err = %v", err)
	}
}

func TestCapture_Disabled(t *testing.T) {
	golden := filepath.Join(t.TempDir(), "off.png")
	c := screen(red)
	if _, err := New(WithTaskType(None)).Capture(c, golden); !errors.Is(err, ErrDisabled) {
		t.Errorf("err = %v, want ErrDisabled", err)
	}
	if fsutil.Exists(golden) {
		t.Error("disabled capture wrote a file")
	}
	if c.Released() {
		t.Error("disabled capture released the canvas")
	}
}

func TestCapture_FailAtEnd(t *testing.T) {
	dir := t.TempDir()
	p := New(WithTaskType(Verify), WithFailurePolicy(FailAtEnd))

	for _, name := range []string{"first.png", "second.png"} {
		res, err := p.Capture(screen(red), filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("Capture(%s): %v", name, err)
		}
		if res.Kind != KindAdded {
			t.Errorf("Kind = %v, want added", res.Kind)
		}
	}
	if p.Failures() != 2 {
		t.Errorf("Failures = %d, want 2", p.Failures())
	}

	err := p.Err()
	var ferr *FailuresError
	if !errors.As(err, &ferr) || len(ferr.Failures) != 2 {
		t.Fatalf("Err = %v, want two failures", err)
	}
	var verr *VerificationError
	if !errors.As(err, &verr) || verr.GoldenPath != filepath.Join(dir, "first.png") {
		t.Errorf("first failure = %+v", verr)
	}

	p.Reset()
	if p.Err() != nil || p.Stats().Captures != 0 {
		t.Error("Reset kept failures or counters")
	}
}

func TestCapture_ResultFiles(t *testing.T) {
	dir := t.TempDir()
	results := filepath.Join(dir, "results")
	rec := &recorder{}
	p := New(WithTaskType(Record), WithResultDir(results), WithAggregator(rec), WithClock(fixedClock))

	golden := filepath.Join(dir, "list.png")
	for i := 0; i < 2; i++ {
		if _, err := p.Capture(screen(red), golden); err != nil {
			t.Fatal(err)
		}
	}

	for _, name := range []string{"list.json", "list_2.json"} {
		data, err := os.ReadFile(filepath.Join(results, name))
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		var got Result
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("decode %s: %v", name, err)
		}
		if !got.Equal(Recorded(golden, ts)) {
			t.Errorf("%s = %+v", name, got)
		}
	}
	if len(rec.results) != 2 {
		t.Errorf("aggregator got %d results, want 2", len(rec.results))
	}
}

func TestCapture_Stats(t *testing.T) {
	dir := t.TempDir()
	p := New(WithTaskType(Compare))
	golden := filepath.Join(dir, "s.png")
	if _, err := p.Capture(screen(red), golden); err != nil {
		t.Fatal(err)
	}
	record(t, golden, screen(red))
	if _, err := p.Capture(screen(red), golden); err != nil {
		t.Fatal(err)
	}
	if _, err := p.Capture(screen(blue), golden); err != nil {
		t.Fatal(err)
	}

	s := p.Stats()
	if s.Captures != 3 || s.Added != 1 || s.Unchanged != 1 || s.Changed != 1 || s.Recorded != 0 {
		t.Errorf("stats = %+v", s)
	}
	if s.Compare <= 0 || s.Encode <= 0 {
		t.Errorf("timings not collected: %+v", s)
	}
}

func TestCapture_Concurrent(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}
	p := New(WithTaskType(Record), WithAggregator(rec), WithNamer(naming.NewNamer()), WithGoldenDir(dir))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := p.CaptureTest(screen(red), naming.Identity{Class: "ListTest", Method: "scroll"}); err != nil {
				t.Errorf("CaptureTest: %v", err)
			}
		}()
	}
	wg.Wait()

	if p.Stats().Recorded != 8 || len(rec.results) != 8 {
		t.Errorf("recorded %d, aggregated %d", p.Stats().Recorded, len(rec.results))
	}
	seen := make(map[string]bool)
	for _, r := range rec.results {
		if seen[r.GoldenPath] {
			t.Errorf("golden path %s used twice", r.GoldenPath)
		}
		seen[r.GoldenPath] = true
	}
	if !seen[filepath.Join(dir, "ListTest.scroll.png")] || !seen[filepath.Join(dir, "ListTest.scroll_8.png")] {
		t.Errorf("unexpected names: %v", seen)
	}
}

func TestCapture_ResizeScale(t *testing.T) {
	golden := filepath.Join(t.TempDir(), "half.png")
	if _, err := New(WithTaskType(Record), WithResizeScale(0.5)).Capture(screen(red), golden); err != nil {
		t.Fatal(err)
	}
	g, err := canvas.Load(golden)
	if err != nil {
		t.Fatal(err)
	}
	if g.Width() != 20 || g.Height() != 15 {
		t.Errorf("golden size = %dx%d, want 20x15", g.Width(), g.Height())
	}

	res, err := New(WithTaskType(Verify), WithResizeScale(0.5)).Capture(screen(red), golden)
	if err != nil || res.Kind != KindUnchanged {
		t.Errorf("scaled verify = %v, %v", res.Kind, err)
	}
}
