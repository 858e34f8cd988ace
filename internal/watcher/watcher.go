package watcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"photo-catalog/internal/catalog"
	"photo-catalog/internal/logging"
	"photo-catalog/internal/metrics"
	"photo-catalog/internal/scanner"
	"photo-catalog/internal/thumbs"

	"github.com/fsnotify/fsnotify"
)

// eventBuffer is the capacity of the internal event queue. Filesystem
// bursts (bulk copies, camera imports) are absorbed here instead of
// backing up the fsnotify delivery goroutine.
const eventBuffer = 256

// watchableExtensions is the subset of supported formats the live
// watcher reacts to. Rarely-changing formats are left to full syncs.
var watchableExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// ErrNotWatched is returned when unwatching a folder that was never
// registered.
var ErrNotWatched = errors.New("folder is not being watched")

// Watcher keeps registered folders under live observation and applies
// single-file catalog updates as files appear, change or vanish.
type Watcher struct {
	fs        *fsnotify.Watcher
	store     *catalog.Store
	scan      *scanner.Scanner
	cache     *thumbs.Cache
	thumbSize int

	mu        sync.Mutex
	watched   map[string]struct{}
	listeners []func(folder string)

	events chan fsnotify.Event
	done   chan struct{}
	wg     sync.WaitGroup
}

// New creates a watcher and starts its event loop. Callers must Close
// it to release the underlying OS watches.
func New(store *catalog.Store, scan *scanner.Scanner, cache *thumbs.Cache, thumbSize int) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	w := &Watcher{
		fs:        fs,
		store:     store,
		scan:      scan,
		cache:     cache,
		thumbSize: thumbSize,
		watched:   make(map[string]struct{}),
		events:    make(chan fsnotify.Event, eventBuffer),
		done:      make(chan struct{}),
	}

	w.wg.Add(2)
	go w.forward()
	go w.work()
	return w, nil
}

// forward moves raw fsnotify deliveries onto the buffered queue so the
// OS-level channel never blocks behind catalog work.
func (w *Watcher) forward() {
	defer w.wg.Done()
	for {
		select {
		case event, ok := <-w.fs.Events:
			if !ok {
				close(w.events)
				return
			}
			select {
			case w.events <- event:
			default:
				logging.Warn("watcher queue full, dropping event for %s", event.Name)
				metrics.WatcherErrors.Inc()
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				close(w.events)
				return
			}
			logging.Error("watcher error: %v", err)
			metrics.WatcherErrors.Inc()
		case <-w.done:
			close(w.events)
			return
		}
	}
}

func (w *Watcher) work() {
	defer w.wg.Done()
	for event := range w.events {
		w.handleEvent(event)
	}
}

// Watch registers folder for live observation. Watching an already
// watched folder is a no-op.
func (w *Watcher) Watch(folder string) error {
	norm := w.scan.Normalizer().Normalize(folder)
	info, err := os.Stat(norm)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("cannot watch %s: not a directory", folder)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.watched[norm]; ok {
		logging.Debug("already watching %s", norm)
		return nil
	}
	if err := w.fs.Add(norm); err != nil {
		metrics.WatcherErrors.Inc()
		return fmt.Errorf("failed to watch %s: %w", norm, err)
	}
	w.watched[norm] = struct{}{}
	metrics.WatcherFoldersWatched.Set(float64(len(w.watched)))
	logging.Info("watching folder %s", norm)
	return nil
}

// Unwatch stops observing folder.
func (w *Watcher) Unwatch(folder string) error {
	norm := w.scan.Normalizer().Normalize(folder)

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.watched[norm]; !ok {
		return fmt.Errorf("%w: %s", ErrNotWatched, folder)
	}
	if err := w.fs.Remove(norm); err != nil {
		logging.Warn("failed to remove watch on %s: %v", norm, err)
	}
	delete(w.watched, norm)
	metrics.WatcherFoldersWatched.Set(float64(len(w.watched)))
	return nil
}

// Watched returns the currently observed folders.
func (w *Watcher) Watched() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	folders := make([]string, 0, len(w.watched))
	for f := range w.watched {
		folders = append(folders, f)
	}
	return folders
}

// OnChange registers a listener invoked with the affected folder after
// the catalog has been updated for an event.
func (w *Watcher) OnChange(fn func(folder string)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.listeners = append(w.listeners, fn)
}

func (w *Watcher) notify(folder string) {
	w.mu.Lock()
	listeners := make([]func(string), len(w.listeners))
	copy(listeners, w.listeners)
	w.mu.Unlock()
	for _, fn := range listeners {
		fn(folder)
	}
}

// handleEvent applies one filesystem event to the catalog.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	// Hidden files and editors' dotfile temp names are noise.
	if strings.Contains(event.Name, string(filepath.Separator)+".") {
		return
	}
	if event.Op == fsnotify.Chmod {
		return
	}
	if !watchableExtensions[strings.ToLower(filepath.Ext(event.Name))] {
		return
	}

	metrics.WatcherEventsTotal.WithLabelValues(eventKind(event.Op)).Inc()

	norm := w.scan.Normalizer().Normalize(event.Name)
	folder := filepath.Dir(norm)
	ctx := context.Background()

	switch {
	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		if err := w.store.RemoveByPath(ctx, norm); err != nil {
			if !errors.Is(err, catalog.ErrNotFound) {
				logging.Error("watcher: failed to remove %s from catalog: %v", norm, err)
				metrics.WatcherErrors.Inc()
			}
			return
		}
		w.cache.Invalidate([]string{norm}, w.thumbSize)
		logging.Debug("watcher: removed %s from catalog", norm)
		w.notify(folder)

	case event.Op&(fsnotify.Create|fsnotify.Write) != 0:
		info, err := os.Stat(norm)
		if err != nil || info.IsDir() {
			return
		}
		rec, err := w.scan.ProcessFile(norm)
		if err != nil || rec == nil {
			if err != nil {
				logging.Warn("watcher: failed to process %s: %v", norm, err)
			}
			return
		}
		if thumbPath, err := w.cache.Ensure(norm, w.thumbSize); err != nil {
			logging.Warn("watcher: thumbnail failed for %s: %v", norm, err)
		} else {
			rec.ThumbnailPath = thumbPath
		}
		if err := w.store.Upsert(ctx, rec, folder); err != nil {
			logging.Error("watcher: failed to upsert %s: %v", norm, err)
			metrics.WatcherErrors.Inc()
			return
		}
		logging.Debug("watcher: upserted %s", norm)
		w.notify(folder)
	}
}

func eventKind(op fsnotify.Op) string {
	switch {
	case op&fsnotify.Create != 0:
		return "create"
	case op&fsnotify.Write != 0:
		return "write"
	case op&fsnotify.Remove != 0:
		return "remove"
	case op&fsnotify.Rename != 0:
		return "rename"
	default:
		return "unknown"
	}
}

// Close stops the event loop and releases all OS watches.
func (w *Watcher) Close() error {
	close(w.done)
	err := w.fs.Close()
	w.wg.Wait()
	return err
}
