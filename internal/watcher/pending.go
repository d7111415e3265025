package watcher

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"videodrome/internal/catalog"
	"videodrome/internal/mediaparse"
	"videodrome/internal/services"
)

// ErrPendingNotFound is returned when approve or reject names a path that is
// not in the queue.
var ErrPendingNotFound = fmt.Errorf("%w: pending item not found", services.ErrNotFound)

// PendingItem is a matched file awaiting an operator decision.
type PendingItem struct {
	SourcePath    string            `json:"source_path"`
	Candidate     catalog.Candidate `json:"candidate"`
	Confidence    float64           `json:"confidence"`
	Guess         mediaparse.Guess  `json:"guess"`
	CanonicalPath string            `json:"canonical_path,omitempty"`
	TorrentHash   string            `json:"torrent_hash,omitempty"`
	TorrentName   string            `json:"torrent_name,omitempty"`
	QueuedAt      time.Time         `json:"queued_at"`
}

// PendingQueue holds at most one item per source path.
type PendingQueue struct {
	mu    sync.Mutex
	items map[string]PendingItem
}

// NewPendingQueue returns an empty queue.
func NewPendingQueue() *PendingQueue {
	return &PendingQueue{items: make(map[string]PendingItem)}
}

// Put stores item, replacing any existing item for the same path.
func (q *PendingQueue) Put(item PendingItem) {
	q.mu.Lock()
	q.items[item.SourcePath] = item
	q.mu.Unlock()
}

// Get returns the item for path.
func (q *PendingQueue) Get(path string) (PendingItem, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	item, ok := q.items[path]
	if !ok {
		return PendingItem{}, fmt.Errorf("%w: %s", ErrPendingNotFound, path)
	}
	return item, nil
}

// Remove deletes the item for path.
func (q *PendingQueue) Remove(path string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, ok := q.items[path]; !ok {
		return fmt.Errorf("%w: %s", ErrPendingNotFound, path)
	}
	delete(q.items, path)
	return nil
}

// Take removes and returns the item for path so only one caller can act on it.
func (q *PendingQueue) Take(path string) (PendingItem, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	item, ok := q.items[path]
	if !ok {
		return PendingItem{}, fmt.Errorf("%w: %s", ErrPendingNotFound, path)
	}
	delete(q.items, path)
	return item, nil
}

// Restore puts a taken item back unless the path was re-queued meanwhile.
func (q *PendingQueue) Restore(item PendingItem) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, ok := q.items[item.SourcePath]; !ok {
		q.items[item.SourcePath] = item
	}
}

// Len returns the queue size.
func (q *PendingQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Snapshot returns a copy of the queue ordered by queue time, then path.
func (q *PendingQueue) Snapshot() []PendingItem {
	q.mu.Lock()
	out := make([]PendingItem, 0, len(q.items))
	for _, item := range q.items {
		out = append(out, item)
	}
	q.mu.Unlock()
	sort.Slice(out, func(i, j int) bool {
		if !out[i].QueuedAt.Equal(out[j].QueuedAt) {
			return out[i].QueuedAt.Before(out[j].QueuedAt)
		}
		return out[i].SourcePath < out[j].SourcePath
	})
	return out
}

// IsPendingNotFound reports whether err is a missing queue key.
func IsPendingNotFound(err error) bool {
	return errors.Is(err, ErrPendingNotFound)
}
