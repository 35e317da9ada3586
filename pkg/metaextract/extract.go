// Package metaextract derives file-record metadata (attributes, folder
// path, MIME type) from a filesystem path.
package metaextract

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Attributes is the unstructured fs_attributes map for a file record.
type Attributes struct {
	Size      uint64 `json:"size"`
	UID       uint32 `json:"uid"`
	GID       uint32 `json:"gid"`
	Mode      uint32 `json:"mode"`
	IsSymlink bool   `json:"symlink"`
}

// AutoMetadata is the auto_metadata map: inferred MIME, extension, and the
// source base the path was observed under.
type AutoMetadata struct {
	MimeType   string `json:"mime_type"`
	Extension  string `json:"extension"`
	SourceBase string `json:"source_base"`
}

// Record bundles every filesystem-derived attribute a Registrar needs to
// build or update a file record, short of the content hash.
type Record struct {
	Filename     string
	FolderPath   string
	Attributes   Attributes
	AutoMetadata AutoMetadata
	FSCreatedAt  time.Time
	FSModifiedAt time.Time
	Inode        uint64
}

// StatError wraps a failure to non-following-stat a path. Per-file, never
// fatal.
type StatError struct {
	Path string
	Err  error
}

func (e *StatError) Error() string { return fmt.Sprintf("stat %s: %v", e.Path, e.Err) }
func (e *StatError) Unwrap() error { return e.Err }

// Extract populates a Record for path, whose directory tree is rooted at
// sourceBase. It uses Lstat so a dangling symlink never faults the pipeline.
func Extract(path, sourceBase string) (*Record, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return nil, &StatError{Path: path, Err: err}
	}

	folder, err := folderPath(path, sourceBase)
	if err != nil {
		return nil, err
	}

	ext := filepath.Ext(path)

	rec := &Record{
		Filename:   filepath.Base(path),
		FolderPath: folder,
		Attributes: Attributes{
			Size:      uint64(info.Size()),
			IsSymlink: info.Mode()&os.ModeSymlink != 0,
			Mode:      uint32(info.Mode().Perm()),
		},
		AutoMetadata: AutoMetadata{
			MimeType:   inferMimeType(ext),
			Extension:  ext,
			SourceBase: filepath.Base(filepath.Clean(sourceBase)),
		},
		FSModifiedAt: info.ModTime(),
	}

	populatePlatformAttrs(info, rec)

	return rec, nil
}

// folderPath makes dir(path) relative to sourceBase and prefixes it with
// sourceBase's final name component. When path's parent is sourceBase
// itself, folderPath equals that name.
func folderPath(path, sourceBase string) (string, error) {
	base := filepath.Clean(sourceBase)
	baseName := filepath.Base(base)
	dir := filepath.Dir(filepath.Clean(path))

	if dir == base {
		return baseName, nil
	}

	rel, err := filepath.Rel(base, dir)
	if err != nil {
		return "", fmt.Errorf("folder path for %s under %s: %w", path, sourceBase, err)
	}

	return filepath.ToSlash(filepath.Join(baseName, rel)), nil
}

// inferMimeType infers a MIME type from the filename extension only
// (no magic-byte sniffing).
func inferMimeType(ext string) string {
	if ext == "" {
		return ""
	}
	if t := mime.TypeByExtension(ext); t != "" {
		// Strip charset parameters ("text/plain; charset=utf-8") so the
		// stored mime_type is a bare media type.
		if idx := strings.IndexByte(t, ';'); idx >= 0 {
			return strings.TrimSpace(t[:idx])
		}
		return t
	}
	return ""
}
