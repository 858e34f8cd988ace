package thumbs

import (
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := New(filepath.Join(t.TempDir(), "thumbnails"))
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	return c
}

func writeSourcePNG(t *testing.T, width, height int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "source.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, image.NewRGBA(image.Rect(0, 0, width, height))); err != nil {
		t.Fatal(err)
	}
	return path
}

func decodeJPEG(t *testing.T, path string) image.Image {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("failed to open thumbnail: %v", err)
	}
	defer f.Close()
	img, err := jpeg.Decode(f)
	if err != nil {
		t.Fatalf("thumbnail is not a decodable JPEG: %v", err)
	}
	return img
}

func TestEnsureGeneratesFittedJPEG(t *testing.T) {
	c := newTestCache(t)
	source := writeSourcePNG(t, 64, 48)

	thumbPath, err := c.Ensure(source, 32)
	if err != nil {
		t.Fatalf("Ensure() failed: %v", err)
	}
	if thumbPath != c.EntryPath(source, 32) {
		t.Errorf("Ensure() = %q, want deterministic %q", thumbPath, c.EntryPath(source, 32))
	}

	img := decodeJPEG(t, thumbPath)
	b := img.Bounds()
	// Aspect ratio preserved within the 32x32 box: 64x48 -> 32x24.
	if b.Dx() != 32 || b.Dy() != 24 {
		t.Errorf("thumbnail bounds = %dx%d, want 32x24", b.Dx(), b.Dy())
	}
}

func TestEnsureSecondCallIsCacheHit(t *testing.T) {
	c := newTestCache(t)
	source := writeSourcePNG(t, 16, 16)

	first, err := c.Ensure(source, 8)
	if err != nil {
		t.Fatalf("first Ensure() failed: %v", err)
	}
	firstInfo, err := os.Stat(first)
	if err != nil {
		t.Fatal(err)
	}

	time.Sleep(20 * time.Millisecond)

	second, err := c.Ensure(source, 8)
	if err != nil {
		t.Fatalf("second Ensure() failed: %v", err)
	}
	if second != first {
		t.Errorf("second Ensure() = %q, want same path %q", second, first)
	}

	secondInfo, err := os.Stat(second)
	if err != nil {
		t.Fatal(err)
	}
	if !secondInfo.ModTime().Equal(firstInfo.ModTime()) {
		t.Error("second Ensure() rewrote the thumbnail; want cache hit with unchanged mtime")
	}
}

func TestEnsureRegeneratesStaleEntry(t *testing.T) {
	c := newTestCache(t)
	source := writeSourcePNG(t, 16, 16)

	thumbPath, err := c.Ensure(source, 8)
	if err != nil {
		t.Fatal(err)
	}

	// Age the cache entry behind the source.
	past := time.Now().Add(-time.Hour)
	if err := os.Chtimes(thumbPath, past, past); err != nil {
		t.Fatal(err)
	}

	if _, err := c.Ensure(source, 8); err != nil {
		t.Fatalf("Ensure() on stale entry failed: %v", err)
	}
	info, err := os.Stat(thumbPath)
	if err != nil {
		t.Fatal(err)
	}
	if !info.ModTime().After(past) {
		t.Error("stale thumbnail was not regenerated")
	}
}

func TestEntryPathKeying(t *testing.T) {
	c := newTestCache(t)

	a1 := c.EntryPath("/photos/a.jpg", 300)
	a2 := c.EntryPath("/photos/a.jpg", 300)
	if a1 != a2 {
		t.Errorf("EntryPath not deterministic: %q vs %q", a1, a2)
	}

	if c.EntryPath("/photos/a.jpg", 300) == c.EntryPath("/photos/a.jpg", 150) {
		t.Error("EntryPath ignores size")
	}
	if c.EntryPath("/photos/a.jpg", 300) == c.EntryPath("/photos/b.jpg", 300) {
		t.Error("EntryPath ignores source path")
	}
}

func TestEnsureMissingSource(t *testing.T) {
	c := newTestCache(t)
	if _, err := c.Ensure(filepath.Join(t.TempDir(), "gone.jpg"), 32); err == nil {
		t.Error("Ensure() on a missing source succeeded, want error")
	}
}

func TestEnsureCorruptSource(t *testing.T) {
	c := newTestCache(t)
	source := filepath.Join(t.TempDir(), "broken.jpg")
	if err := os.WriteFile(source, []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := c.Ensure(source, 32); err == nil {
		t.Error("Ensure() on a corrupt source succeeded, want error")
	}
	if _, err := os.Stat(c.EntryPath(source, 32)); !os.IsNotExist(err) {
		t.Error("corrupt source left a cache entry behind")
	}
}

func TestInvalidate(t *testing.T) {
	c := newTestCache(t)
	source := writeSourcePNG(t, 16, 16)

	thumbPath, err := c.Ensure(source, 8)
	if err != nil {
		t.Fatal(err)
	}

	// Unknown paths are ignored; known ones removed.
	c.Invalidate([]string{source, "/never/indexed.jpg"}, 8)

	if _, err := os.Stat(thumbPath); !os.IsNotExist(err) {
		t.Error("Invalidate() did not remove the cache entry")
	}
}

func TestInvalidateAll(t *testing.T) {
	c := newTestCache(t)
	source := writeSourcePNG(t, 16, 16)
	if _, err := c.Ensure(source, 8); err != nil {
		t.Fatal(err)
	}

	c.InvalidateAll()

	entries, err := os.ReadDir(c.Dir())
	if err != nil {
		t.Fatalf("cache dir missing after InvalidateAll(): %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("cache dir not empty after InvalidateAll(): %v", entries)
	}
}
