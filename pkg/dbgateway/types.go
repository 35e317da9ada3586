// Package dbgateway is a typed client for the remote metadata store
// of the metadata service: the files and file_contents tables, exposed
// as a narrow set of REST/RPC operations.
package dbgateway

import "time"

// UploadStatus is the lifecycle state of a ContentRecord.
type UploadStatus string

const (
	StatusPending   UploadStatus = "pending"
	StatusUploading UploadStatus = "uploading"
	StatusUploaded  UploadStatus = "uploaded"
	StatusFailed    UploadStatus = "failed"
	StatusSkipped   UploadStatus = "skipped"
)

// FileRecord is one row of the files table: the durable identity of a
// single live (or soft-deleted) path.
type FileRecord struct {
	FullPath     string            `json:"full_path"`
	ContentHash  string            `json:"content_hash,omitempty"`
	Filename     string            `json:"filename"`
	FolderPath   string            `json:"folder_path"`
	FSCreatedAt  time.Time         `json:"fs_created_at"`
	FSModifiedAt time.Time         `json:"fs_modified_at"`
	FSInode      uint64            `json:"fs_inode"`
	FSAttributes map[string]any    `json:"fs_attributes"`
	AutoMetadata map[string]string `json:"auto_metadata"`
	LastSeenAt   time.Time         `json:"last_seen_at"`
	DeletedAt    *time.Time        `json:"deleted_at,omitempty"`
	DBUpdatedAt  time.Time         `json:"db_updated_at,omitempty"`
}

// ContentRecord is one row of the file_contents table: the digest-keyed
// upload lifecycle shared by every file record referencing it.
type ContentRecord struct {
	ContentHash  string       `json:"content_hash"`
	SizeBytes    uint64       `json:"size_bytes"`
	MimeType     string       `json:"mime_type"`
	UploadStatus UploadStatus `json:"upload_status"`
	StoragePath  string       `json:"storage_path,omitempty"`
	LastError    string       `json:"last_error,omitempty"`
	RetryCount   int          `json:"retry_count"`
	CreatedAt    time.Time    `json:"created_at,omitempty"`
	UpdatedAt    time.Time    `json:"updated_at,omitempty"`
}

// ContentRef identifies one dequeued upload job: the content digest plus
// one live path that references it, so the Uploader can locate the bytes
// on disk without a second round trip.
type ContentRef struct {
	ContentHash string `json:"content_hash"`
	FullPath    string `json:"full_path"`
	SizeBytes   uint64 `json:"size_bytes"`
	MimeType    string `json:"mime_type"`
}
