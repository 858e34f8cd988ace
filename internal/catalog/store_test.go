package catalog

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "catalog.db")
	s, err := New(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("Close() failed: %v", err)
		}
	})
	return s
}

func testRecord(path string, modTime time.Time) *FileRecord {
	return &FileRecord{
		ID:          uuid.NewString(),
		Name:        filepath.Base(path),
		Path:        path,
		FileType:    "jpg",
		Size:        100,
		ModTime:     modTime,
		CreatedTime: modTime,
		Width:       640,
		Height:      480,
	}
}

func TestUpsertInsertAndList(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	now := time.Now().Truncate(time.Second)
	rec := testRecord("/photos/a.jpg", now)
	if err := s.Upsert(ctx, rec, "/photos"); err != nil {
		t.Fatalf("Upsert() failed: %v", err)
	}

	got, err := s.List(ctx, 0, 10)
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("List() returned %d records, want 1", len(got))
	}
	if got[0].ID != rec.ID {
		t.Errorf("ID = %q, want %q", got[0].ID, rec.ID)
	}
	if got[0].FolderPath != "/photos" {
		t.Errorf("FolderPath = %q, want /photos", got[0].FolderPath)
	}
	if !got[0].ModTime.Equal(now) {
		t.Errorf("ModTime = %v, want %v", got[0].ModTime, now)
	}
	if got[0].Width != 640 || got[0].Height != 480 {
		t.Errorf("dimensions = %dx%d, want 640x480", got[0].Width, got[0].Height)
	}
}

func TestUpsertPreservesIdentifier(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	now := time.Now().Truncate(time.Second)
	rec := testRecord("/photos/a.jpg", now)
	if err := s.Upsert(ctx, rec, "/photos"); err != nil {
		t.Fatalf("Upsert() failed: %v", err)
	}

	// Same path, fresh identifier and changed attributes.
	updated := testRecord("/photos/a.jpg", now.Add(time.Hour))
	updated.Size = 250
	if err := s.Upsert(ctx, updated, "/photos"); err != nil {
		t.Fatalf("second Upsert() failed: %v", err)
	}

	got, err := s.List(ctx, 0, 10)
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Upsert duplicated a path: %d records, want 1", len(got))
	}
	if got[0].ID != rec.ID {
		t.Errorf("upsert replaced identifier: got %q, want original %q", got[0].ID, rec.ID)
	}
	if got[0].Size != 250 {
		t.Errorf("Size = %d, want refreshed 250", got[0].Size)
	}
	if !got[0].ModTime.Equal(now.Add(time.Hour)) {
		t.Errorf("ModTime = %v, want refreshed %v", got[0].ModTime, now.Add(time.Hour))
	}
}

func TestRemove(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec := testRecord("/photos/a.jpg", time.Now())
	if err := s.Upsert(ctx, rec, "/photos"); err != nil {
		t.Fatalf("Upsert() failed: %v", err)
	}

	if err := s.Remove(ctx, rec.ID); err != nil {
		t.Fatalf("Remove() failed: %v", err)
	}
	if err := s.Remove(ctx, rec.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Remove() on missing id = %v, want ErrNotFound", err)
	}
	if _, err := s.File(ctx, rec.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("File() after remove = %v, want ErrNotFound", err)
	}
}

func TestRemoveByPath(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec := testRecord("/photos/a.jpg", time.Now())
	if err := s.Upsert(ctx, rec, "/photos"); err != nil {
		t.Fatalf("Upsert() failed: %v", err)
	}

	if err := s.RemoveByPath(ctx, "/photos/a.jpg"); err != nil {
		t.Fatalf("RemoveByPath() failed: %v", err)
	}
	if err := s.RemoveByPath(ctx, "/photos/a.jpg"); !errors.Is(err, ErrNotFound) {
		t.Errorf("RemoveByPath() on missing path = %v, want ErrNotFound", err)
	}
}

func TestListOrderingAndPagination(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Now().Truncate(time.Second)
	paths := []string{"/photos/a.jpg", "/photos/b.jpg", "/photos/c.jpg"}
	for i, p := range paths {
		rec := testRecord(p, base.Add(time.Duration(i)*time.Minute))
		if err := s.Upsert(ctx, rec, "/photos"); err != nil {
			t.Fatalf("Upsert(%s) failed: %v", p, err)
		}
	}

	got, err := s.List(ctx, 0, 2)
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("List() returned %d records, want 2", len(got))
	}
	// Most recently modified first.
	if got[0].Path != "/photos/c.jpg" || got[1].Path != "/photos/b.jpg" {
		t.Errorf("ordering = [%s, %s], want [c.jpg, b.jpg]", got[0].Path, got[1].Path)
	}

	rest, err := s.List(ctx, 2, 2)
	if err != nil {
		t.Fatalf("List() with offset failed: %v", err)
	}
	if len(rest) != 1 || rest[0].Path != "/photos/a.jpg" {
		t.Errorf("offset page = %v, want just a.jpg", rest)
	}
}

func TestListFolderScoping(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	now := time.Now()
	if err := s.Upsert(ctx, testRecord("/one/a.jpg", now), "/one"); err != nil {
		t.Fatal(err)
	}
	if err := s.Upsert(ctx, testRecord("/two/b.jpg", now), "/two"); err != nil {
		t.Fatal(err)
	}

	got, err := s.ListFolder(ctx, "/one", 0, 10)
	if err != nil {
		t.Fatalf("ListFolder() failed: %v", err)
	}
	if len(got) != 1 || got[0].Path != "/one/a.jpg" {
		t.Errorf("ListFolder(/one) = %v, want only /one/a.jpg", got)
	}
}

func TestPathsInFolder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec := testRecord("/photos/a.jpg", time.Now())
	if err := s.Upsert(ctx, rec, "/photos"); err != nil {
		t.Fatal(err)
	}

	pairs, err := s.PathsInFolder(ctx, "/photos")
	if err != nil {
		t.Fatalf("PathsInFolder() failed: %v", err)
	}
	if len(pairs) != 1 || pairs[0].ID != rec.ID || pairs[0].Path != rec.Path {
		t.Errorf("PathsInFolder() = %v, want [{%s %s}]", pairs, rec.ID, rec.Path)
	}
	if pairs[0].Size != rec.Size || pairs[0].ModTime != rec.ModTime.Unix() {
		t.Errorf("PathsInFolder() facts = (%d, %d), want (%d, %d)",
			pairs[0].Size, pairs[0].ModTime, rec.Size, rec.ModTime.Unix())
	}

	empty, err := s.PathsInFolder(ctx, "/elsewhere")
	if err != nil {
		t.Fatalf("PathsInFolder() on unknown folder failed: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("PathsInFolder(unknown) = %v, want empty", empty)
	}
}

func TestFoldersNaturalOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	now := time.Now()
	for _, folder := range []string{"/pics/img10", "/pics/img2", "/pics/album"} {
		rec := testRecord(folder+"/x.jpg", now)
		if err := s.Upsert(ctx, rec, folder); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.Folders(ctx)
	if err != nil {
		t.Fatalf("Folders() failed: %v", err)
	}
	want := []string{"/pics/album", "/pics/img2", "/pics/img10"}
	if len(got) != len(want) {
		t.Fatalf("Folders() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Folders()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSearch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	now := time.Now()
	if err := s.Upsert(ctx, testRecord("/photos/Sunset_Beach.jpg", now), "/photos"); err != nil {
		t.Fatal(err)
	}
	if err := s.Upsert(ctx, testRecord("/photos/forest.png", now), "/photos"); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		query string
		want  int
	}{
		{"case-insensitive name match", "sunset", 1},
		{"path match", "photos", 2},
		{"no match", "nothing-here", 0},
		{"empty query", "", 0},
		{"wildcard is literal", "%", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Search(ctx, tt.query)
			if err != nil {
				t.Fatalf("Search(%q) failed: %v", tt.query, err)
			}
			if len(got) != tt.want {
				t.Errorf("Search(%q) returned %d records, want %d", tt.query, len(got), tt.want)
			}
		})
	}
}

func TestSettings(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	got, err := s.Setting(ctx, "last_selected_folder")
	if err != nil {
		t.Fatalf("Setting() on missing key failed: %v", err)
	}
	if got != "" {
		t.Errorf("Setting(missing) = %q, want empty", got)
	}

	if err := s.SetSetting(ctx, "last_selected_folder", "/photos"); err != nil {
		t.Fatalf("SetSetting() failed: %v", err)
	}
	if err := s.SetSetting(ctx, "last_selected_folder", "/other"); err != nil {
		t.Fatalf("SetSetting() overwrite failed: %v", err)
	}

	got, err = s.Setting(ctx, "last_selected_folder")
	if err != nil {
		t.Fatalf("Setting() failed: %v", err)
	}
	if got != "/other" {
		t.Errorf("Setting() = %q, want /other", got)
	}
}

func TestSnapshots(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, _, ok, err := s.Snapshot(ctx, "/photos")
	if err != nil {
		t.Fatalf("Snapshot() on missing folder failed: %v", err)
	}
	if ok {
		t.Error("Snapshot() reported ok for a folder never snapshotted")
	}

	if err := s.SaveSnapshot(ctx, "/photos", 2, 300); err != nil {
		t.Fatalf("SaveSnapshot() failed: %v", err)
	}
	count, agg, ok, err := s.Snapshot(ctx, "/photos")
	if err != nil {
		t.Fatalf("Snapshot() failed: %v", err)
	}
	if !ok || count != 2 || agg != 300 {
		t.Errorf("Snapshot() = (%d, %d, %v), want (2, 300, true)", count, agg, ok)
	}

	// Replacement overwrites.
	if err := s.SaveSnapshot(ctx, "/photos", 5, 999); err != nil {
		t.Fatalf("SaveSnapshot() overwrite failed: %v", err)
	}
	count, agg, _, err = s.Snapshot(ctx, "/photos")
	if err != nil {
		t.Fatal(err)
	}
	if count != 5 || agg != 999 {
		t.Errorf("Snapshot() after overwrite = (%d, %d), want (5, 999)", count, agg)
	}
}

func TestClearFolder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	now := time.Now()
	if err := s.Upsert(ctx, testRecord("/one/a.jpg", now), "/one"); err != nil {
		t.Fatal(err)
	}
	if err := s.Upsert(ctx, testRecord("/two/b.jpg", now), "/two"); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveSnapshot(ctx, "/one", 1, 1); err != nil {
		t.Fatal(err)
	}

	paths, err := s.ClearFolder(ctx, "/one")
	if err != nil {
		t.Fatalf("ClearFolder() failed: %v", err)
	}
	if len(paths) != 1 || paths[0] != "/one/a.jpg" {
		t.Errorf("ClearFolder() paths = %v, want [/one/a.jpg]", paths)
	}

	if _, _, ok, _ := s.Snapshot(ctx, "/one"); ok {
		t.Error("folder snapshot survived ClearFolder()")
	}

	remaining, err := s.List(ctx, 0, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(remaining) != 1 || remaining[0].Path != "/two/b.jpg" {
		t.Errorf("other folders affected by ClearFolder(): %v", remaining)
	}
}

func TestClearLibrary(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Upsert(ctx, testRecord("/photos/a.jpg", time.Now()), "/photos"); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveSnapshot(ctx, "/photos", 1, 1); err != nil {
		t.Fatal(err)
	}
	if err := s.SetSetting(ctx, "theme", "dark"); err != nil {
		t.Fatal(err)
	}

	if err := s.ClearLibrary(ctx); err != nil {
		t.Fatalf("ClearLibrary() failed: %v", err)
	}

	if recs, _ := s.List(ctx, 0, 10); len(recs) != 0 {
		t.Errorf("files survived ClearLibrary(): %v", recs)
	}
	if _, _, ok, _ := s.Snapshot(ctx, "/photos"); ok {
		t.Error("snapshot survived ClearLibrary()")
	}
	if v, _ := s.Setting(ctx, "theme"); v != "" {
		t.Errorf("setting survived ClearLibrary(): %q", v)
	}
}
