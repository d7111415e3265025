package watcher

import (
	"os"
	"sync"
	"time"
)

type stabilityState struct {
	size       int64
	lastChange time.Time
	stable     bool
}

// StabilityDetector reports when a file's size has stopped changing for the
// configured window. The window is read on every check so configuration
// changes apply to files already being tracked.
type StabilityDetector struct {
	mu     sync.Mutex
	window func() time.Duration
	now    func() time.Time
	stat   func(string) (os.FileInfo, error)
	states map[string]*stabilityState
}

// NewStabilityDetector returns a detector that reads its window from window.
// A nil now uses time.Now.
func NewStabilityDetector(window func() time.Duration, now func() time.Time) *StabilityDetector {
	if now == nil {
		now = time.Now
	}
	return &StabilityDetector{
		window: window,
		now:    now,
		stat:   os.Stat,
		states: make(map[string]*stabilityState),
	}
}

// Check records an observation of path and reports whether it is stable.
// The first observation never is. A missing file returns false and leaves
// recorded state alone.
func (d *StabilityDetector) Check(path string) bool {
	info, err := d.stat(path)
	if err != nil {
		return false
	}
	size := info.Size()

	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	state, ok := d.states[path]
	if !ok {
		d.states[path] = &stabilityState{size: size, lastChange: now}
		return false
	}
	if state.stable {
		return true
	}
	if size != state.size {
		state.size = size
		state.lastChange = now
		return false
	}
	if now.Sub(state.lastChange) >= d.window() {
		state.stable = true
		return true
	}
	return false
}

// Forget drops any state held for path.
func (d *StabilityDetector) Forget(path string) {
	d.mu.Lock()
	delete(d.states, path)
	d.mu.Unlock()
}

// Len returns the number of tracked paths.
func (d *StabilityDetector) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.states)
}
