package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

var watchDebounce time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Publish markdown files in a directory as they change",
	Long: `Publishes every markdown file in the directory, then keeps watching:
changed or new files are republished, removed files are deleted from
the server. Runs until interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 2*time.Second,
		"wait this long after the last write before republishing")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	dir := args[0]
	client := newAPIClient()

	// Track which slug each path published so removals can be mapped
	// back to documents.
	var mu sync.Mutex
	slugs := map[string]string{}
	timers := map[string]*time.Timer{}

	publishPath := func(path string) {
		resp, err := publishFile(client, path)
		if err != nil {
			cmd.PrintErrf("publishing %s: %v\n", path, err)
			return
		}
		mu.Lock()
		slugs[path] = resp.Slug
		mu.Unlock()
		cmd.Printf("published %s as %q (%d chunks)\n", path, resp.Slug, resp.Written)
	}

	entries, err := filepath.Glob(filepath.Join(dir, "*.md"))
	if err != nil {
		return err
	}
	for _, path := range entries {
		publishPath(path)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}
	cmd.Printf("watching %s (debounce %s)\n", dir, watchDebounce)

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !strings.EqualFold(filepath.Ext(event.Name), ".md") {
				continue
			}
			switch {
			case event.Op.Has(fsnotify.Create), event.Op.Has(fsnotify.Write):
				path := event.Name
				mu.Lock()
				if timer, armed := timers[path]; armed {
					timer.Reset(watchDebounce)
				} else {
					timers[path] = time.AfterFunc(watchDebounce, func() {
						mu.Lock()
						delete(timers, path)
						mu.Unlock()
						publishPath(path)
					})
				}
				mu.Unlock()
			case event.Op.Has(fsnotify.Remove), event.Op.Has(fsnotify.Rename):
				mu.Lock()
				slug, known := slugs[event.Name]
				delete(slugs, event.Name)
				if timer, armed := timers[event.Name]; armed {
					timer.Stop()
					delete(timers, event.Name)
				}
				mu.Unlock()
				if !known {
					continue
				}
				if err := deleteBySlug(client, slug); err != nil {
					cmd.PrintErrf("deleting %q: %v\n", slug, err)
					continue
				}
				cmd.Printf("deleted %q with %s\n", slug, event.Name)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			cmd.PrintErrf("watch error: %v\n", err)
		}
	}
}

// deleteBySlug resolves a slug to its document ID and deletes it.
func deleteBySlug(client *apiClient, slug string) error {
	var doc struct {
		ID string `json:"id"`
	}
	if err := client.do("GET", "/v1/documents/"+slug, nil, &doc); err != nil {
		return err
	}
	return client.do("DELETE", "/v1/documents/"+doc.ID, nil, nil)
}
