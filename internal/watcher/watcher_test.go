package watcher

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"photo-catalog/internal/catalog"
	"photo-catalog/internal/scanner"
	"photo-catalog/internal/thumbs"

	"github.com/fsnotify/fsnotify"
)

func newTestWatcher(t *testing.T) (*Watcher, *catalog.Store) {
	t.Helper()

	dir := t.TempDir()
	store, err := catalog.New(context.Background(), filepath.Join(dir, "catalog.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	cache, err := thumbs.New(filepath.Join(dir, "thumbs"))
	if err != nil {
		t.Fatalf("failed to create thumbnail cache: %v", err)
	}

	w, err := New(store, scanner.New(scanner.NewPathNormalizer(false)), cache, 64)
	if err != nil {
		t.Fatalf("failed to create watcher: %v", err)
	}
	t.Cleanup(func() { w.Close() })
	return w, store
}

func writePNG(t *testing.T, path string) {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 16, 12))
	for y := 0; y < 12; y++ {
		for x := 0; x < 16; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 10), G: uint8(y * 10), B: 60, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func TestWatchIsIdempotent(t *testing.T) {
	w, _ := newTestWatcher(t)
	folder := t.TempDir()

	if err := w.Watch(folder); err != nil {
		t.Fatalf("first watch failed: %v", err)
	}
	if err := w.Watch(folder); err != nil {
		t.Fatalf("second watch failed: %v", err)
	}
	if got := len(w.Watched()); got != 1 {
		t.Errorf("expected 1 watched folder, got %d", got)
	}
}

func TestWatchRejectsMissingFolder(t *testing.T) {
	w, _ := newTestWatcher(t)

	if err := w.Watch(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("expected an error watching a missing folder")
	}
}

func TestUnwatch(t *testing.T) {
	w, _ := newTestWatcher(t)
	folder := t.TempDir()

	if err := w.Watch(folder); err != nil {
		t.Fatalf("watch failed: %v", err)
	}
	if err := w.Unwatch(folder); err != nil {
		t.Fatalf("unwatch failed: %v", err)
	}
	if got := len(w.Watched()); got != 0 {
		t.Errorf("expected 0 watched folders, got %d", got)
	}
	if err := w.Unwatch(folder); !errors.Is(err, ErrNotWatched) {
		t.Errorf("expected ErrNotWatched, got %v", err)
	}
}

func TestHandleEventCreateCatalogsFile(t *testing.T) {
	w, store := newTestWatcher(t)
	ctx := context.Background()

	folder := t.TempDir()
	path := filepath.Join(folder, "new.png")
	writePNG(t, path)

	var notified []string
	w.OnChange(func(folder string) { notified = append(notified, folder) })

	w.handleEvent(fsnotify.Event{Name: path, Op: fsnotify.Create})

	norm := w.scan.Normalizer().Normalize(path)
	records, err := store.ListFolder(ctx, filepath.Dir(norm), 0, 0)
	if err != nil {
		t.Fatalf("failed to list folder: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].Width != 16 || records[0].Height != 12 {
		t.Errorf("expected 16x12, got %dx%d", records[0].Width, records[0].Height)
	}
	if records[0].ThumbnailPath == "" {
		t.Error("expected a thumbnail path")
	}
	if len(notified) != 1 {
		t.Errorf("expected 1 change notification, got %d", len(notified))
	}
}

func TestHandleEventWriteRefreshesRecord(t *testing.T) {
	w, store := newTestWatcher(t)
	ctx := context.Background()

	folder := t.TempDir()
	path := filepath.Join(folder, "pic.png")
	writePNG(t, path)

	w.handleEvent(fsnotify.Event{Name: path, Op: fsnotify.Create})
	w.handleEvent(fsnotify.Event{Name: path, Op: fsnotify.Write})

	norm := w.scan.Normalizer().Normalize(path)
	records, err := store.ListFolder(ctx, filepath.Dir(norm), 0, 0)
	if err != nil {
		t.Fatalf("failed to list folder: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("expected 1 record after create then write, got %d", len(records))
	}
}

func TestHandleEventRemoveDropsRecord(t *testing.T) {
	w, store := newTestWatcher(t)
	ctx := context.Background()

	folder := t.TempDir()
	path := filepath.Join(folder, "pic.png")
	writePNG(t, path)
	w.handleEvent(fsnotify.Event{Name: path, Op: fsnotify.Create})

	norm := w.scan.Normalizer().Normalize(path)
	thumb := w.cache.EntryPath(norm, w.thumbSize)
	if _, err := os.Stat(thumb); err != nil {
		t.Fatalf("expected thumbnail before removal: %v", err)
	}

	if err := os.Remove(path); err != nil {
		t.Fatalf("failed to remove file: %v", err)
	}
	w.handleEvent(fsnotify.Event{Name: path, Op: fsnotify.Remove})

	records, err := store.ListFolder(ctx, filepath.Dir(norm), 0, 0)
	if err != nil {
		t.Fatalf("failed to list folder: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected empty catalog after removal, got %d records", len(records))
	}
	if _, err := os.Stat(thumb); !os.IsNotExist(err) {
		t.Error("expected thumbnail to be invalidated")
	}
}

func TestHandleEventIgnoresNoise(t *testing.T) {
	w, store := newTestWatcher(t)
	ctx := context.Background()

	folder := t.TempDir()
	pic := filepath.Join(folder, "pic.png")
	writePNG(t, pic)

	tests := []struct {
		name  string
		event fsnotify.Event
	}{
		{"chmod only", fsnotify.Event{Name: pic, Op: fsnotify.Chmod}},
		{"unsupported extension", fsnotify.Event{Name: filepath.Join(folder, "notes.txt"), Op: fsnotify.Create}},
		{"hidden file", fsnotify.Event{Name: filepath.Join(folder, ".hidden.png"), Op: fsnotify.Create}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w.handleEvent(tt.event)

			records, err := store.List(ctx, 0, 0)
			if err != nil {
				t.Fatalf("failed to list catalog: %v", err)
			}
			if len(records) != 0 {
				t.Errorf("event %q changed the catalog", tt.name)
			}
		})
	}
}

func TestHandleEventRemoveUnknownPath(t *testing.T) {
	w, _ := newTestWatcher(t)

	var notified int
	w.OnChange(func(string) { notified++ })

	// Removing a path the catalog never saw must be silent.
	w.handleEvent(fsnotify.Event{Name: filepath.Join(t.TempDir(), "ghost.png"), Op: fsnotify.Remove})
	if notified != 0 {
		t.Errorf("expected no notification for an unknown path, got %d", notified)
	}
}
