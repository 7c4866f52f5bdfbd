package logging

import (
	"fmt"
	"strings"
	"sync"
)

// Queue is a bounded FIFO log sink with drop accounting. It implements
// io.Writer so it can be installed directly as a Logger sink. Grounded on the
// original Python's ListLogHandler (a queue.Queue-backed logging.Handler that
// drops the oldest record on overflow and reports a drop count on drain).
type Queue struct {
	mu       sync.Mutex
	capacity int
	records  []string
	dropped  int
}

// NewQueue creates a Queue with the given capacity. Per spec.md §4.8 the
// default production capacity is ~1000.
func NewQueue(capacity int) *Queue {
	if capacity < 1 {
		capacity = 1
	}
	return &Queue{
		capacity: capacity,
		records:  make([]string, 0, capacity),
	}
}

// Write implements io.Writer. Each call is treated as one formatted log
// record; a trailing newline (added by Logger) is trimmed.
func (q *Queue) Write(p []byte) (int, error) {
	line := strings.TrimRight(string(p), "\n")

	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.records) >= q.capacity {
		// drop the oldest entry in favor of the newest
		q.records = q.records[1:]
		q.dropped++
	}
	q.records = append(q.records, line)

	return len(p), nil
}

// Drain returns every currently queued record, oldest first, and empties the
// queue. If records were dropped since the last Drain, a synthetic record
// reporting the drop count is appended and the counter is reset to zero.
func (q *Queue) Drain() []string {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := q.records
	q.records = make([]string, 0, q.capacity)

	if q.dropped > 0 {
		out = append(out, fmt.Sprintf("... %d log messages dropped due to queue overflow ...", q.dropped))
		q.dropped = 0
	}
	return out
}
