package parallel

import "sync"

// MinBandRows is the smallest number of rows worth handing to a worker.
const MinBandRows = 32

var (
	sharedOnce sync.Once
	shared     *WorkerPool
)

// Shared returns the process-wide pool used for image work. It is never
// closed.
func Shared() *WorkerPool {
	sharedOnce.Do(func() {
		shared = NewWorkerPool(0)
	})
	return shared
}

// Rows splits [0, height) into bands of at least minRows rows, one per
// worker at most, and calls fn for each band. Small images run on the
// calling goroutine. fn must only touch its own rows.
func Rows(p *WorkerPool, height, minRows int, fn func(y0, y1 int)) {
	if height <= 0 {
		return
	}
	minRows = max(minRows, 1)
	bands := 1
	if p != nil {
		bands = min(p.Workers(), (height+minRows-1)/minRows)
	}
	if bands <= 1 {
		fn(0, height)
		return
	}

	step := (height + bands - 1) / bands
	work := make([]func(), 0, bands)
	for y0 := 0; y0 < height; y0 += step {
		y1 := min(y0+step, height)
		work = append(work, func() { fn(y0, y1) })
	}
	p.ExecuteAll(work)
}
