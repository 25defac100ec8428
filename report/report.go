// Package report aggregates capture results into a run summary and the
// JSON report format.
//
//	{
//	  "summary": {"total": 3, "recorded": 0, "added": 1, "changed": 1, "unchanged": 1},
//	  "results": [{"type": "added", "golden_file_path": "...", ...}, ...]
//	}
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/gogpu/ggshot"
	"github.com/gogpu/ggshot/capture"
	"github.com/gogpu/ggshot/internal/fsutil"
)

// Summary counts results per kind.
type Summary struct {
	Total     int `json:"total"`
	Recorded  int `json:"recorded"`
	Added     int `json:"added"`
	Changed   int `json:"changed"`
	Unchanged int `json:"unchanged"`
}

func (s *Summary) add(k capture.Kind) {
	s.Total++
	switch k {
	case capture.KindRecorded:
		s.Recorded++
	case capture.KindAdded:
		s.Added++
	case capture.KindChanged:
		s.Changed++
	case capture.KindUnchanged:
		s.Unchanged++
	}
}

// Failed reports whether any result was Added or Changed.
func (s Summary) Failed() bool { return s.Added+s.Changed > 0 }

// Summarize counts the results.
func Summarize(results []capture.Result) Summary {
	var s Summary
	for _, r := range results {
		s.add(r.Kind)
	}
	return s
}

// Report is a summary together with the results it counts.
type Report struct {
	Summary Summary          `json:"summary"`
	Results []capture.Result `json:"results"`
}

// New returns a report over results with a matching summary.
func New(results []capture.Result) Report {
	return Report{Summary: Summarize(results), Results: slices.Clone(results)}
}

// Marshal encodes r as indented JSON.
func (r Report) Marshal() ([]byte, error) {
	if r.Results == nil {
		r.Results = []capture.Result{}
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("report: encode: %w", err)
	}
	return data, nil
}

// Unmarshal decodes a report. The stored summary must match the
// results; a mismatch is rejected with ggshot.ErrInvalidArgument.
func Unmarshal(data []byte) (Report, error) {
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return Report{}, fmt.Errorf("report: decode: %w", err)
	}
	if got := Summarize(r.Results); got != r.Summary {
		return Report{}, fmt.Errorf("%w: report: summary %+v does not match results %+v",
			ggshot.ErrInvalidArgument, r.Summary, got)
	}
	return r, nil
}

// WriteFile writes r to path atomically.
func (r Report) WriteFile(path string) error {
	data, err := r.Marshal()
	if err != nil {
		return err
	}
	err = fsutil.WriteAtomic(path, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
	if err != nil {
		return err
	}
	ggshot.Logger().Info("report: written", "path", path, "total", r.Summary.Total)
	return nil
}

// ReadFile reads a report written by WriteFile.
func ReadFile(path string) (Report, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Report{}, fmt.Errorf("report: read: %w", err)
	}
	return Unmarshal(data)
}

var _ capture.Recorder = (*Aggregator)(nil)

// Aggregator collects results of concurrent captures. It implements
// capture.Recorder. The zero value is ready to use.
type Aggregator struct {
	mu      sync.Mutex
	results []capture.Result
	summary Summary
}

// Add appends a result.
func (a *Aggregator) Add(r capture.Result) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.results = append(a.results, r)
	a.summary.add(r.Kind)
}

// Summary returns the counts so far.
func (a *Aggregator) Summary() Summary {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.summary
}

// Report returns a snapshot of the collected results.
func (a *Aggregator) Report() Report {
	a.mu.Lock()
	defer a.mu.Unlock()
	return Report{Summary: a.summary, Results: slices.Clone(a.results)}
}

// Reset drops all results.
func (a *Aggregator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.results = nil
	a.summary = Summary{}
}

// LoadDir reads every per-capture result file (*.json) in dir, in name
// order, into a report. Files that hold a full report are skipped.
func LoadDir(dir string) (Report, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Report{}, fmt.Errorf("report: read dir: %w", err)
	}
	var results []capture.Result
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".json") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path) //nolint:gosec // path from ReadDir of the caller's directory
		if err != nil {
			return Report{}, fmt.Errorf("report: read: %w", err)
		}
		if isReport(data) {
			ggshot.Logger().Debug("report: skip report file", "path", path)
			continue
		}
		var r capture.Result
		if err := json.Unmarshal(data, &r); err != nil {
			return Report{}, fmt.Errorf("report: %s: %w", e.Name(), err)
		}
		results = append(results, r)
	}
	ggshot.Logger().Debug("report: loaded", "dir", dir, "results", len(results))
	return New(results), nil
}

// isReport reports whether data is a JSON object with a "summary" key.
func isReport(data []byte) bool {
	var probe map[string]json.RawMessage
	if err := json.NewDecoder(bytes.NewReader(data)).Decode(&probe); err != nil {
		return false
	}
	_, ok := probe["summary"]
	return ok
}
