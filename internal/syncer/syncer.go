package syncer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"photo-catalog/internal/catalog"
	"photo-catalog/internal/logging"
	"photo-catalog/internal/metrics"
	"photo-catalog/internal/scanner"
	"photo-catalog/internal/thumbs"
	"photo-catalog/internal/workers"
)

const (
	// progressEvery bounds progress event volume on large folders.
	progressEvery = 50
	// emitBatchSize is how many changed records are grouped per event.
	emitBatchSize = 10
)

var (
	// ErrSyncInProgress is returned when a synchronization run is
	// requested for a folder that is already synchronizing.
	ErrSyncInProgress = errors.New("folder synchronization already in progress")

	// ErrFolderNotFound is returned when the requested root does not
	// exist or is not a directory.
	ErrFolderNotFound = errors.New("folder does not exist")
)

// Result summarizes one synchronization run.
type Result struct {
	Total     int `json:"total"`
	Upserted  int `json:"upserted"`
	Deleted   int `json:"deleted"`
	Unchanged int `json:"unchanged"`
}

// Emitter receives progress notifications from a streaming run. All
// methods are called from the run's own goroutine; implementations
// must not block for long (a slow UI stream must not stall indexing).
type Emitter interface {
	// Started signals the beginning of a run for folder.
	Started(folder string)
	// Progress carries a human-readable status line.
	Progress(message string)
	// FilesIndexed delivers a batch of changed records.
	FilesIndexed(batch []catalog.FileRecord)
	// Completed signals the end of the run for folder.
	Completed(folder string)
	// Summary delivers the run's final counts.
	Summary(result Result)
}

// NopEmitter discards all notifications.
type NopEmitter struct{}

func (NopEmitter) Started(string)                    {}
func (NopEmitter) Progress(string)                   {}
func (NopEmitter) FilesIndexed([]catalog.FileRecord) {}
func (NopEmitter) Completed(string)                  {}
func (NopEmitter) Summary(Result)                    {}

// Engine reconciles watched folders against the catalog: it detects
// unchanged folders via snapshots, diffs shallow scans against stored
// records, deletes vanished files, deep-processes new or modified
// ones and keeps the thumbnail cache in step.
type Engine struct {
	store     *catalog.Store
	scan      *scanner.Scanner
	cache     *thumbs.Cache
	thumbSize int

	// Folders with a run in flight. Concurrent runs on the same folder
	// are rejected, not queued.
	mu       sync.Mutex
	inFlight map[string]struct{}
}

// New creates a synchronization engine. thumbSize is the pixel size
// used for catalog-attached thumbnails.
func New(store *catalog.Store, scan *scanner.Scanner, cache *thumbs.Cache, thumbSize int) *Engine {
	return &Engine{
		store:     store,
		scan:      scan,
		cache:     cache,
		thumbSize: thumbSize,
		inFlight:  make(map[string]struct{}),
	}
}

// ThumbnailSize returns the default thumbnail size used by runs.
func (e *Engine) ThumbnailSize() int {
	return e.thumbSize
}

func (e *Engine) acquire(folder string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, busy := e.inFlight[folder]; busy {
		return fmt.Errorf("%w: %s", ErrSyncInProgress, folder)
	}
	e.inFlight[folder] = struct{}{}
	return nil
}

func (e *Engine) release(folder string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.inFlight, folder)
}

func (e *Engine) validateRoot(folder string) (string, error) {
	norm := e.scan.Normalizer().Normalize(folder)
	info, err := os.Stat(norm)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrFolderNotFound, folder)
	}
	return norm, nil
}

// Sync runs the full state machine for folder: snapshot check, diff,
// reconcile, thumbnail pass, persist. An unchanged snapshot
// short-circuits the run with zero reported changes.
//
// Failures of the scanner or the store abort the run; a single file
// that cannot be deep-processed or thumbnailed is logged and skipped.
func (e *Engine) Sync(ctx context.Context, folder string, emit Emitter) (*Result, error) {
	if emit == nil {
		emit = NopEmitter{}
	}

	norm, err := e.validateRoot(folder)
	if err != nil {
		return nil, err
	}
	if err := e.acquire(norm); err != nil {
		return nil, err
	}
	defer e.release(norm)

	start := time.Now()
	result, err := e.run(ctx, norm, emit)
	if err != nil {
		metrics.SyncRunsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.SyncRunDuration.Observe(time.Since(start).Seconds())
	return result, nil
}

func (e *Engine) run(ctx context.Context, folder string, emit Emitter) (*Result, error) {
	emit.Started(folder)
	emit.Progress("Checking folder snapshot...")

	snap, err := e.scan.ComputeSnapshot(folder)
	if err != nil {
		return nil, err
	}

	lastCount, lastAgg, haveLast, err := e.store.Snapshot(ctx, folder)
	if err != nil {
		return nil, err
	}
	if haveLast && snap.Equal(scanner.Snapshot{FileCount: lastCount, AggModTime: lastAgg}) {
		logging.Debug("snapshot unchanged for %s, skipping sync", folder)
		metrics.SyncRunsTotal.WithLabelValues("short_circuit").Inc()
		emit.Completed(folder)
		result := &Result{Total: snap.FileCount, Unchanged: snap.FileCount}
		emit.Summary(*result)
		return result, nil
	}

	emit.Progress("Scanning for image files...")
	shallow, err := e.scan.ScanShallow(folder)
	if err != nil {
		return nil, err
	}

	shallowByPath := make(map[string]scanner.ShallowInfo, len(shallow))
	for _, f := range shallow {
		shallowByPath[f.Path] = f
	}

	existing, err := e.store.PathsInFolder(ctx, folder)
	if err != nil {
		return nil, err
	}
	existingByPath := make(map[string]catalog.PathID, len(existing))
	for _, p := range existing {
		existingByPath[p.Path] = p
	}

	// Deletions first: any stored path absent from the fresh scan.
	var deletedPaths []string
	for _, p := range existing {
		if _, stillThere := shallowByPath[p.Path]; stillThere {
			continue
		}
		if err := e.store.Remove(ctx, p.ID); err != nil && !errors.Is(err, catalog.ErrNotFound) {
			return nil, err
		}
		deletedPaths = append(deletedPaths, p.Path)
	}
	if len(deletedPaths) > 0 {
		e.cache.Invalidate(deletedPaths, e.thumbSize)
		logging.Info("sync %s: removed %d vanished files", folder, len(deletedPaths))
	}

	// Upserts: new paths, or stored size/mtime that no longer match.
	// Unchanged files are never deep-processed again.
	var (
		upserted  []catalog.FileRecord
		unchanged int
		processed int
	)
	for _, f := range shallow {
		processed++
		if processed%progressEvery == 0 {
			emit.Progress(fmt.Sprintf("Checked %d files...", processed))
		}

		if prev, known := existingByPath[f.Path]; known &&
			prev.Size == f.Size && prev.ModTime == f.ModTime.Unix() {
			unchanged++
			continue
		}

		rec, err := e.scan.ProcessFile(f.Path)
		if err != nil {
			logging.Warn("sync %s: failed to process %s: %v", folder, f.Path, err)
			continue
		}
		if rec == nil {
			continue
		}
		if err := e.store.Upsert(ctx, rec, folder); err != nil {
			return nil, err
		}
		upserted = append(upserted, *rec)
	}

	if err := e.thumbnailPass(ctx, folder, upserted, emit); err != nil {
		return nil, err
	}

	// Persist the new fingerprint and remember the folder.
	if err := e.store.SaveSnapshot(ctx, folder, snap.FileCount, snap.AggModTime); err != nil {
		return nil, err
	}
	if err := e.store.SetSetting(ctx, "last_selected_folder", folder); err != nil {
		return nil, err
	}

	emit.Completed(folder)
	result := &Result{
		Total:     len(shallow),
		Upserted:  len(upserted),
		Deleted:   len(deletedPaths),
		Unchanged: unchanged,
	}
	emit.Summary(*result)

	metrics.SyncRunsTotal.WithLabelValues("completed").Inc()
	metrics.SyncFilesUpserted.Add(float64(result.Upserted))
	metrics.SyncFilesDeleted.Add(float64(result.Deleted))
	metrics.SyncFilesUnchanged.Add(float64(result.Unchanged))

	logging.Info("sync %s: %d total, %d upserted, %d deleted, %d unchanged",
		folder, result.Total, result.Upserted, result.Deleted, result.Unchanged)
	return result, nil
}

// thumbnailPass generates missing thumbnails for the upserted records
// on a CPU-sized worker pool and attaches the resulting paths. Records
// are emitted to the caller in batches as they are finalized. A failed
// thumbnail degrades to "no thumbnail" and never aborts the run.
func (e *Engine) thumbnailPass(ctx context.Context, folder string, records []catalog.FileRecord, emit Emitter) error {
	if len(records) == 0 {
		return nil
	}

	numWorkers := workers.ForCPU(len(records))
	jobs := make(chan int, len(records))
	done := make(chan int, len(records))

	// Workers only do the CPU-bound decode/resize/encode; the catalog
	// write stays on this goroutine so the store sees one writer and
	// events keep a stable cadence.
	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				rec := &records[i]
				if rec.ThumbnailPath == "" {
					thumbPath, err := e.cache.Ensure(rec.Path, e.thumbSize)
					if err != nil {
						logging.Warn("sync %s: thumbnail failed for %s: %v", folder, rec.Path, err)
					} else {
						rec.ThumbnailPath = thumbPath
					}
				}
				done <- i
			}
		}()
	}

	for i := range records {
		jobs <- i
	}
	close(jobs)
	go func() {
		wg.Wait()
		close(done)
	}()

	var batch []catalog.FileRecord
	finished := 0
	for i := range done {
		rec := records[i]
		if rec.ThumbnailPath != "" {
			if err := e.store.Upsert(ctx, &rec, folder); err != nil {
				// Drain remaining completions before surfacing the
				// storage failure.
				for range done {
				}
				return err
			}
		}

		batch = append(batch, rec)
		if len(batch) >= emitBatchSize {
			emit.FilesIndexed(batch)
			batch = nil
		}

		finished++
		if finished%progressEvery == 0 {
			emit.Progress(fmt.Sprintf("Generated thumbnails for %d of %d files...", finished, len(records)))
		}
	}
	if len(batch) > 0 {
		emit.FilesIndexed(batch)
	}
	return nil
}

// IndexFolder performs a full, non-incremental index of folder: the
// folder's catalog entries are cleared and every eligible file is
// deep-processed, thumbnailed and upserted.
func (e *Engine) IndexFolder(ctx context.Context, folder string) (*Result, error) {
	norm, err := e.validateRoot(folder)
	if err != nil {
		return nil, err
	}
	if err := e.acquire(norm); err != nil {
		return nil, err
	}
	defer e.release(norm)

	clearedPaths, err := e.store.ClearFolder(ctx, norm)
	if err != nil {
		return nil, err
	}
	e.cache.Invalidate(clearedPaths, e.thumbSize)

	shallow, err := e.scan.ScanShallow(norm)
	if err != nil {
		return nil, err
	}

	indexed := 0
	for _, f := range shallow {
		rec, err := e.scan.ProcessFile(f.Path)
		if err != nil {
			logging.Warn("index %s: failed to process %s: %v", norm, f.Path, err)
			continue
		}
		if rec == nil {
			continue
		}
		if thumbPath, err := e.cache.Ensure(rec.Path, e.thumbSize); err != nil {
			logging.Warn("index %s: thumbnail failed for %s: %v", norm, rec.Path, err)
		} else {
			rec.ThumbnailPath = thumbPath
		}
		if err := e.store.Upsert(ctx, rec, norm); err != nil {
			return nil, err
		}
		indexed++
	}

	snap, err := e.scan.ComputeSnapshot(norm)
	if err != nil {
		return nil, err
	}
	if err := e.store.SaveSnapshot(ctx, norm, snap.FileCount, snap.AggModTime); err != nil {
		return nil, err
	}
	if err := e.store.SetSetting(ctx, "last_selected_folder", norm); err != nil {
		return nil, err
	}

	return &Result{Total: len(shallow), Upserted: indexed}, nil
}
