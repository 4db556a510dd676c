package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/inkwell-dev/inkwell/pkg/blog"
	"github.com/inkwell-dev/inkwell/pkg/debug"
	"github.com/inkwell-dev/inkwell/pkg/storage"
)

// DefaultDebounce is how long the watcher waits after the last write
// event before re-ingesting a file. Editors tend to fire several events
// per save.
const DefaultDebounce = 2 * time.Second

// Watcher re-ingests markdown files in a directory as they change.
type Watcher struct {
	svc      *Service
	debounce time.Duration
	logger   *slog.Logger

	mu     sync.Mutex
	timers map[string]*time.Timer
	bySlug map[string]string
}

// NewWatcher creates a watcher over the given ingestion service. A
// debounce <= 0 selects DefaultDebounce.
func NewWatcher(svc *Service, debounce time.Duration, logger *slog.Logger) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		svc:      svc,
		debounce: debounce,
		logger:   logger,
		timers:   make(map[string]*time.Timer),
		bySlug:   make(map[string]string),
	}
}

// Watch ingests every markdown file in dir, then blocks processing
// filesystem events until ctx is cancelled. Created and modified files
// are re-ingested after a debounce window; removed files have their
// documents deleted.
func (w *Watcher) Watch(ctx context.Context, dir string) error {
	entries, err := filepath.Glob(filepath.Join(dir, "*.md"))
	if err != nil {
		return fmt.Errorf("scanning %s: %w", dir, err)
	}
	for _, path := range entries {
		w.ingest(ctx, path)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}
	w.logger.Info("watching for content changes", "dir", dir, "debounce", w.debounce)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isMarkdown(event.Name) {
				continue
			}
			debug.Log("watch", "fs event", "op", event.Op.String(), "path", event.Name)
			switch {
			case event.Op.Has(fsnotify.Create), event.Op.Has(fsnotify.Write):
				w.schedule(ctx, event.Name)
			case event.Op.Has(fsnotify.Remove), event.Op.Has(fsnotify.Rename):
				w.remove(ctx, event.Name)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watch error", "error", err)
		}
	}
}

// schedule arms (or re-arms) the per-file debounce timer.
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.timers[path]; ok {
		timer.Reset(w.debounce)
		return
	}
	w.timers[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.timers, path)
		w.mu.Unlock()
		w.ingest(ctx, path)
	})
}

func (w *Watcher) ingest(ctx context.Context, path string) {
	report, err := w.svc.IngestFile(ctx, path, nil)
	if err != nil {
		w.logger.Error("ingesting file failed", "path", path, "error", err)
		return
	}

	// Remember which document this path produced so a later removal of
	// the file can delete it.
	w.mu.Lock()
	w.bySlug[path] = report.Slug
	w.mu.Unlock()

	w.logger.Info("file ingested", "path", path, "chunks", report.Chunks)
}

func (w *Watcher) remove(ctx context.Context, path string) {
	w.mu.Lock()
	slug, ok := w.bySlug[path]
	delete(w.bySlug, path)
	if timer, armed := w.timers[path]; armed {
		timer.Stop()
		delete(w.timers, path)
	}
	w.mu.Unlock()

	if !ok {
		slug = w.slugForPath(path)
	}

	doc, err := w.svc.store.GetDocumentBySlug(ctx, slug)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			w.logger.Error("looking up removed file failed", "path", path, "error", err)
		}
		return
	}
	if err := w.svc.DeleteDocument(ctx, doc.ID); err != nil {
		w.logger.Error("deleting removed document failed", "path", path, "error", err)
		return
	}
	w.logger.Info("document removed with file", "path", path, "slug", slug)
}

// slugForPath derives the slug a file would ingest under when its title
// falls back to the file name.
func (w *Watcher) slugForPath(path string) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return blog.Slugify(base)
}

func isMarkdown(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".md")
}
