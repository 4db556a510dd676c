package embed

import (
	"math"
	"sync"
)

// downloadTracker accumulates per-file loaded/total byte counters while a
// model load is in flight and reports an aggregate percentage. The
// percentage is capped at 99 until Complete is called, which reports 100
// exactly once. Files with unknown content length contribute no
// percentage; when no file has a known total, the reported percentage is
// nil (indeterminate).
type downloadTracker struct {
	mu        sync.Mutex
	files     map[string]*fileProgress
	emit      func(label string, percent *float64)
	completed bool
}

type fileProgress struct {
	loaded int64
	total  int64
}

func newDownloadTracker(emit func(label string, percent *float64)) *downloadTracker {
	return &downloadTracker{
		files: make(map[string]*fileProgress),
		emit:  emit,
	}
}

// Update records progress for one file and emits the aggregate state.
// Safe for concurrent use; updates after Complete are dropped.
func (t *downloadTracker) Update(file string, loaded, total int64) {
	t.mu.Lock()
	if t.completed {
		t.mu.Unlock()
		return
	}
	fp, ok := t.files[file]
	if !ok {
		fp = &fileProgress{}
		t.files[file] = fp
	}
	fp.loaded = loaded
	if total > 0 {
		fp.total = total
	}
	percent := t.percentLocked()
	t.mu.Unlock()

	t.emit(file, percent)
}

// percentLocked computes min(99, round(100 * Σloaded / Σtotal)) over all
// files with a known total. Returns nil when no totals are known.
func (t *downloadTracker) percentLocked() *float64 {
	var sumLoaded, sumTotal int64
	for _, fp := range t.files {
		if fp.total <= 0 {
			continue
		}
		sumLoaded += fp.loaded
		sumTotal += fp.total
	}
	if sumTotal == 0 {
		return nil
	}
	p := math.Round(100 * float64(sumLoaded) / float64(sumTotal))
	if p > 99 {
		p = 99
	}
	return &p
}

// Complete declares the load finished and emits 100 exactly once.
// Further Update or Complete calls are no-ops.
func (t *downloadTracker) Complete() {
	t.mu.Lock()
	if t.completed {
		t.mu.Unlock()
		return
	}
	t.completed = true
	t.mu.Unlock()

	done := 100.0
	t.emit("", &done)
}
