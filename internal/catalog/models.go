package catalog

import "time"

// FileRecord is one indexed image file in the catalog.
//
// The ID is assigned once when a path is first observed and survives
// upserts of the same path. Width and Height are zero when the image
// dimensions could not be decoded.
type FileRecord struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Path          string    `json:"path"`
	FolderPath    string    `json:"folderPath"`
	FileType      string    `json:"fileType"`
	Size          int64     `json:"size"`
	ModTime       time.Time `json:"modTime"`
	CreatedTime   time.Time `json:"createdTime"`
	Width         int       `json:"width,omitempty"`
	Height        int       `json:"height,omitempty"`
	ThumbnailPath string    `json:"thumbnailPath,omitempty"`
	Rating        int       `json:"rating,omitempty"`
	Tags          []string  `json:"tags,omitempty"`
}

// PathID pairs a record identifier with its stored path and the cheap
// facts a shallow scan also produces. The sync engine diffs these
// against a fresh scan without loading full records: equal size and
// mod time mean the file is unchanged and is never re-processed.
type PathID struct {
	ID      string
	Path    string
	Size    int64
	ModTime int64 // unix seconds
}

// LibraryState summarizes the persisted library for the UI.
type LibraryState struct {
	LastSelectedFolder string   `json:"lastSelectedFolder,omitempty"`
	IndexedFolders     []string `json:"indexedFolders"`
}
