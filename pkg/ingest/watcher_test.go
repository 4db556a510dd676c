package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/inkwell-dev/inkwell/pkg/storage"
)

func TestWatcherIngestsExistingAndNewFiles(t *testing.T) {
	svc, store := newTestService(t)
	dir := t.TempDir()

	existing := filepath.Join(dir, "existing.md")
	if err := os.WriteFile(existing, []byte("# Existing Post\n\nAlready here."), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	watcher := NewWatcher(svc, 50*time.Millisecond, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	watchDone := make(chan error, 1)
	go func() {
		watchDone <- watcher.Watch(ctx, dir)
	}()

	// The pre-existing file is ingested during startup.
	waitForSlug(t, store, "existing-post")

	created := filepath.Join(dir, "created.md")
	if err := os.WriteFile(created, []byte("# Created Post\n\nWritten while watching."), 0o644); err != nil {
		t.Fatalf("writing new file: %v", err)
	}
	waitForSlug(t, store, "created-post")

	// Removing a file deletes its document.
	if err := os.Remove(created); err != nil {
		t.Fatalf("removing file: %v", err)
	}
	waitForGone(t, store, "created-post")

	cancel()
	select {
	case err := <-watchDone:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Watch returned %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not return after cancellation")
	}
}

func waitForSlug(t *testing.T, store storage.DocumentStore, slug string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := store.GetDocumentBySlug(context.Background(), slug); err == nil {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("document %q never appeared", slug)
}

func waitForGone(t *testing.T, store storage.DocumentStore, slug string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := store.GetDocumentBySlug(context.Background(), slug); errors.Is(err, storage.ErrNotFound) {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("document %q was never removed", slug)
}
