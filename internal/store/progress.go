package store

import (
	"sync"
	"time"
)

// UploadStatus of one tracked file.
type UploadStatus string

const (
	UploadStatusUploading UploadStatus = "uploading"
	UploadStatusDone      UploadStatus = "done"
	UploadStatusError     UploadStatus = "error"
)

// UploadProgress is the per-file progress record shown while uploads run.
type UploadProgress struct {
	FileName string
	Percent  int
	Status   UploadStatus
	Err      string
}

// defaultRetain keeps finished entries visible briefly before pruning.
const defaultRetain = 2 * time.Second

// progressTracker is a keyed, insertion-ordered association from filename to
// progress record. Finished entries are pruned on a cancellable timer tied
// to the store lifetime.
type progressTracker struct {
	mu      sync.Mutex
	order   []string
	entries map[string]*UploadProgress
	timers  map[string]*time.Timer
	retain  time.Duration
	closed  bool
}

func newProgressTracker(retain time.Duration) *progressTracker {
	if retain <= 0 {
		retain = defaultRetain
	}

	return &progressTracker{
		entries: make(map[string]*UploadProgress),
		timers:  make(map[string]*time.Timer),
		retain:  retain,
	}
}

// set records the current state of a file, preserving insertion order for
// new names.
func (p *progressTracker) set(name string, percent int, status UploadStatus, errMsg string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}

	if _, ok := p.entries[name]; !ok {
		p.order = append(p.order, name)
	}

	p.entries[name] = &UploadProgress{
		FileName: name,
		Percent:  percent,
		Status:   status,
		Err:      errMsg,
	}

	if status == UploadStatusDone || status == UploadStatusError {
		p.scheduleLocked(name)
	}
}

// scheduleLocked arms the prune timer for a finished entry. Callers hold p.mu.
func (p *progressTracker) scheduleLocked(name string) {
	if timer, ok := p.timers[name]; ok {
		timer.Stop()
	}

	p.timers[name] = time.AfterFunc(p.retain, func() {
		p.remove(name)
	})
}

func (p *progressTracker) remove(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.entries[name]; !ok {
		return
	}

	delete(p.entries, name)
	delete(p.timers, name)
	for i, n := range p.order {
		if n == name {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
}

// snapshot returns the tracked records in insertion order.
func (p *progressTracker) snapshot() []UploadProgress {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]UploadProgress, 0, len(p.order))
	for _, name := range p.order {
		if entry, ok := p.entries[name]; ok {
			out = append(out, *entry)
		}
	}

	return out
}

// close cancels all pending prune timers.
func (p *progressTracker) close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.closed = true
	for name, timer := range p.timers {
		timer.Stop()
		delete(p.timers, name)
	}
}
