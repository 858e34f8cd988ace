package startup

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"photo-catalog/internal/logging"
	"photo-catalog/internal/scanner"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// Config holds all application configuration.
type Config struct {
	DatabaseDir    string
	CacheDir       string
	Port           string
	MetricsEnabled bool
	ThumbnailSize  int
	FoldCasePaths  bool

	// Derived paths
	DatabasePath string
	ThumbnailDir string
}

const defaultThumbnailSize = 300

// LoadConfig loads and validates configuration from environment
// variables, logging the effective values as it goes.
func LoadConfig() (*Config, error) {
	printBanner()

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	databaseDir := getEnv("DATABASE_DIR", "/data")
	cacheDir := getEnv("CACHE_DIR", "/cache")
	port := getEnv("PORT", "8080")
	metricsEnabled := getEnvBool("METRICS_ENABLED", true)
	thumbnailSize := getEnvInt("THUMBNAIL_SIZE", defaultThumbnailSize)
	foldCase := getEnvBool("CASE_INSENSITIVE_PATHS", scanner.DefaultFoldCase())

	logging.Info("  DATABASE_DIR:           %s", databaseDir)
	logging.Info("  CACHE_DIR:              %s", cacheDir)
	logging.Info("  PORT:                   %s", port)
	logging.Info("  METRICS_ENABLED:        %v", metricsEnabled)
	logging.Info("  THUMBNAIL_SIZE:         %d", thumbnailSize)
	logging.Info("  CASE_INSENSITIVE_PATHS: %v", foldCase)
	logging.Info("  LOG_LEVEL:              %s", logging.GetLevel())

	if thumbnailSize <= 0 {
		logging.Warn("  Invalid THUMBNAIL_SIZE, using default: %d", defaultThumbnailSize)
		thumbnailSize = defaultThumbnailSize
	}

	databaseDir, err := filepath.Abs(databaseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve database directory path: %w", err)
	}
	cacheDir, err = filepath.Abs(cacheDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve cache directory path: %w", err)
	}

	if err := ensureDirectory(databaseDir); err != nil {
		return nil, fmt.Errorf("database directory error: %w", err)
	}
	if err := testWriteAccess(databaseDir); err != nil {
		return nil, fmt.Errorf("database directory is not writable: %w", err)
	}
	if err := ensureDirectory(cacheDir); err != nil {
		return nil, fmt.Errorf("cache directory error: %w", err)
	}
	if err := testWriteAccess(cacheDir); err != nil {
		return nil, fmt.Errorf("cache directory is not writable: %w", err)
	}

	return &Config{
		DatabaseDir:    databaseDir,
		CacheDir:       cacheDir,
		Port:           port,
		MetricsEnabled: metricsEnabled,
		ThumbnailSize:  thumbnailSize,
		FoldCasePaths:  foldCase,
		DatabasePath:   filepath.Join(databaseDir, "catalog.db"),
		ThumbnailDir:   filepath.Join(cacheDir, "thumbnails"),
	}, nil
}

func printBanner() {
	logging.Info("Photo Catalog starting")
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Go version: %s", runtime.Version())
	logging.Info("  OS/Arch:    %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  GOMAXPROCS: %d", runtime.GOMAXPROCS(0))
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
}

func ensureDirectory(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return os.MkdirAll(path, 0o755)
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s exists but is not a directory", path)
	}
	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write-test file %s: %v", testFile, err)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("invalid boolean for %s: %q, using %v", key, value, fallback)
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		logging.Warn("invalid integer for %s: %q, using %d", key, value, fallback)
		return fallback
	}
	return parsed
}
