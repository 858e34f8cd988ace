package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"photo-catalog/internal/catalog"
	"photo-catalog/internal/scanner"
	"photo-catalog/internal/syncer"
	"photo-catalog/internal/thumbs"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr *os.File) int {
	fs := flag.NewFlagSet("reindex", flag.ContinueOnError)
	fs.SetOutput(stderr)

	dbPath := fs.String("db", "catalog.db", "path to the catalog database")
	cacheDir := fs.String("cache", "thumbnails", "thumbnail cache directory")
	size := fs.Int("size", 300, "thumbnail size in pixels")
	full := fs.Bool("full", false, "clear the folder and re-process every file")
	foldCase := fs.Bool("fold-case", scanner.DefaultFoldCase(), "treat paths case-insensitively")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: reindex [flags] <folder>\n\nRuns a one-shot catalog synchronization of a folder.\n\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}
	folder := fs.Arg(0)

	ctx := context.Background()
	store, err := catalog.New(ctx, *dbPath)
	if err != nil {
		fmt.Fprintf(stderr, "failed to open catalog: %v\n", err)
		return 1
	}
	defer store.Close()

	cache, err := thumbs.New(*cacheDir)
	if err != nil {
		fmt.Fprintf(stderr, "failed to open thumbnail cache: %v\n", err)
		return 1
	}

	scan := scanner.New(scanner.NewPathNormalizer(*foldCase))
	engine := syncer.New(store, scan, cache, *size)

	var result *syncer.Result
	if *full {
		result, err = engine.IndexFolder(ctx, folder)
	} else {
		result, err = engine.Sync(ctx, folder, consoleEmitter{out: stdout})
	}
	if err != nil {
		fmt.Fprintf(stderr, "indexing failed: %v\n", err)
		return 1
	}

	fmt.Fprintf(stdout, "%d total, %d upserted, %d deleted, %d unchanged\n",
		result.Total, result.Upserted, result.Deleted, result.Unchanged)
	return 0
}

// consoleEmitter prints run progress to the terminal.
type consoleEmitter struct {
	out *os.File
}

func (c consoleEmitter) Started(folder string) {
	fmt.Fprintf(c.out, "indexing %s\n", folder)
}

func (c consoleEmitter) Progress(message string) {
	fmt.Fprintf(c.out, "  %s\n", message)
}

func (c consoleEmitter) FilesIndexed([]catalog.FileRecord) {}

func (c consoleEmitter) Completed(string) {}

func (c consoleEmitter) Summary(syncer.Result) {}
