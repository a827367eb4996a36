package viewer

import "sync"

// ModelQueue is the ordered list of model files to load. It is consumed one entry
// at a time by the sequencer while the UI reads its progress.
type ModelQueue struct {
	mu    sync.Mutex
	paths []string
	next  int
}

// NewModelQueue copies paths into a new queue.
func NewModelQueue(paths []string) *ModelQueue {
	return &ModelQueue{paths: append([]string(nil), paths...)}
}

// Next pops the next path.
func (q *ModelQueue) Next() (string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.next >= len(q.paths) {
		return "", false
	}
	p := q.paths[q.next]
	q.next++
	return p, true
}

// Remaining returns how many paths have not been popped.
func (q *ModelQueue) Remaining() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.paths) - q.next
}

// Len returns the total number of paths.
func (q *ModelQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.paths)
}

// Paths returns a copy of every path in load order.
func (q *ModelQueue) Paths() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]string(nil), q.paths...)
}
