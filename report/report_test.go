package report

import (
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gogpu/ggshot"
	"github.com/gogpu/ggshot/capture"
)

var ts = time.Date(2026, 1, 2, 3, 4, 5, 6, time.UTC)

func sample() []capture.Result {
	changed := capture.Changed("b_compare.png", "b_actual.png", "b.png", ts, 0.02)
	changed.ContextData = map[string]string{"theme": "dark"}
	return []capture.Result{
		capture.Recorded("a.png", ts),
		capture.Added("n_compare.png", "n_actual.png", "n.png", ts),
		changed,
		capture.Changed("s_compare.png", "s_actual.png", "s.png", ts, math.NaN()),
		capture.Unchanged("u.png", ts),
	}
}

func TestSummarize(t *testing.T) {
	got := Summarize(sample())
	want := Summary{Total: 5, Recorded: 1, Added: 1, Changed: 2, Unchanged: 1}
	if got != want {
		t.Errorf("Summarize = %+v, want %+v", got, want)
	}
	if !got.Failed() {
		t.Error("Failed = false with added and changed results")
	}
	if (Summary{Total: 1, Unchanged: 1}).Failed() {
		t.Error("Failed = true for unchanged only")
	}
}

func TestReport_RoundTrip(t *testing.T) {
	r := New(sample())
	data, err := r.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	got, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got.Summary != r.Summary || len(got.Results) != len(r.Results) {
		t.Fatalf("got %+v", got.Summary)
	}
	for i := range r.Results {
		if !got.Results[i].Equal(r.Results[i]) {
			t.Errorf("result %d = %+v, want %+v", i, got.Results[i], r.Results[i])
		}
	}
}

func TestReport_JSONShape(t *testing.T) {
	data, err := New(sample()[:1]).Marshal()
	if err != nil {
		t.Fatal(err)
	}
	var m struct {
		Summary map[string]int   `json:"summary"`
		Results []map[string]any `json:"results"`
	}
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"total", "recorded", "added", "changed", "unchanged"} {
		if _, ok := m.Summary[key]; !ok {
			t.Errorf("summary lacks %q: %s", key, data)
		}
	}
	if len(m.Results) != 1 || m.Results[0]["type"] != "recorded" {
		t.Errorf("results = %v", m.Results)
	}

	empty, err := Report{}.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	var e map[string]json.RawMessage
	_ = json.Unmarshal(empty, &e)
	if string(e["results"]) != "[]" {
		t.Errorf("empty report results = %s, want []", e["results"])
	}
}

func TestUnmarshal_Errors(t *testing.T) {
	mismatch := `{"summary":{"total":2,"recorded":2,"added":0,"changed":0,"unchanged":0},
		"results":[{"type":"recorded","golden_file_path":"a.png","timestamp":0}]}`
	if _, err := Unmarshal([]byte(mismatch)); !errors.Is(err, ggshot.ErrInvalidArgument) {
		t.Errorf("summary mismatch: err = %v", err)
	}
	unknown := `{"summary":{"total":1,"recorded":0,"added":0,"changed":0,"unchanged":0},
		"results":[{"type":"flaky","golden_file_path":"a.png","timestamp":0}]}`
	if _, err := Unmarshal([]byte(unknown)); !errors.Is(err, ggshot.ErrInvalidArgument) {
		t.Errorf("unknown type: err = %v", err)
	}
}

func TestAggregator_Concurrent(t *testing.T) {
	var a Aggregator
	results := sample()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, r := range results {
				a.Add(r)
			}
		}()
	}
	wg.Wait()

	s := a.Summary()
	want := Summary{Total: 100, Recorded: 20, Added: 20, Changed: 40, Unchanged: 20}
	if s != want {
		t.Errorf("Summary = %+v, want %+v", s, want)
	}
	rep := a.Report()
	if len(rep.Results) != 100 || Summarize(rep.Results) != rep.Summary {
		t.Error("report summary does not match its results")
	}

	a.Reset()
	if a.Summary() != (Summary{}) || len(a.Report().Results) != 0 {
		t.Error("Reset kept results")
	}
}

func TestWriteReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "report.json")
	r := New(sample())
	if err := r.WriteFile(path); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if got.Summary != r.Summary {
		t.Errorf("Summary = %+v, want %+v", got.Summary, r.Summary)
	}
	if _, err := ReadFile(filepath.Join(t.TempDir(), "none.json")); err == nil {
		t.Error("reading a missing file succeeded")
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	results := sample()
	names := []string{"e.json", "d.json", "c.json", "b.json", "a.json"}
	for i, r := range results {
		data, err := json.Marshal(r)
		if err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(dir, names[i]), data, 0o600); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := New(results[:1]).WriteFile(filepath.Join(dir, "report.json")); err != nil {
		t.Fatal(err)
	}

	rep, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if rep.Summary != Summarize(results) {
		t.Errorf("Summary = %+v", rep.Summary)
	}
	// Name order: a.json holds the last sample result.
	if !rep.Results[0].Equal(results[4]) {
		t.Errorf("first result = %+v, want %+v", rep.Results[0], results[4])
	}

	if err := os.WriteFile(filepath.Join(dir, "z.json"), []byte(`{"type":"bogus","golden_file_path":"x"}`), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadDir(dir); !errors.Is(err, ggshot.ErrInvalidArgument) {
		t.Errorf("bad result file: err = %v", err)
	}
}

func TestLoadDir_FromPipeline(t *testing.T) {
	dir := t.TempDir()
	results := filepath.Join(dir, "results")
	agg := &Aggregator{}
	p := capture.New(capture.WithTaskType(capture.Compare), capture.WithResultDir(results), capture.WithAggregator(agg))

	c := newScreen()
	if _, err := p.Capture(c, filepath.Join(dir, "home.png")); err != nil {
		t.Fatal(err)
	}

	rep, err := LoadDir(results)
	if err != nil {
		t.Fatal(err)
	}
	if rep.Summary != agg.Summary() || rep.Summary.Added != 1 {
		t.Errorf("loaded %+v, aggregated %+v", rep.Summary, agg.Summary())
	}
}
