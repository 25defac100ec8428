package capture

import (
	"sync/atomic"
	"time"
)

// Stats are cumulative counters of a pipeline.
type Stats struct {
	Captures  int64
	Recorded  int64
	Added     int64
	Changed   int64
	Unchanged int64

	// Time spent flushing draw queues, comparing and encoding images.
	Flush   time.Duration
	Compare time.Duration
	Encode  time.Duration
}

// counters is the lock-free backing store of Stats, shared by concurrent
// captures on one pipeline.
type counters struct {
	captures atomic.Int64
	kinds    [KindUnchanged + 1]atomic.Int64
	flush    atomic.Int64
	compare  atomic.Int64
	encode   atomic.Int64
}

func (c *counters) record(k Kind) {
	c.captures.Add(1)
	if k >= KindRecorded && k <= KindUnchanged {
		c.kinds[k].Add(1)
	}
}

// since adds the time elapsed since start to d.
func since(d *atomic.Int64, start time.Time) {
	d.Add(int64(time.Since(start)))
}

func (c *counters) snapshot() Stats {
	return Stats{
		Captures:  c.captures.Load(),
		Recorded:  c.kinds[KindRecorded].Load(),
		Added:     c.kinds[KindAdded].Load(),
		Changed:   c.kinds[KindChanged].Load(),
		Unchanged: c.kinds[KindUnchanged].Load(),
		Flush:     time.Duration(c.flush.Load()),
		Compare:   time.Duration(c.compare.Load()),
		Encode:    time.Duration(c.encode.Load()),
	}
}

func (c *counters) reset() {
	c.captures.Store(0)
	for i := range c.kinds {
		c.kinds[i].Store(0)
	}
	c.flush.Store(0)
	c.compare.Store(0)
	c.encode.Store(0)
}
