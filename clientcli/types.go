package clientcli

import (
	"time"
)

// DefaultContentType asks the provider to pick the content type from the
// file name extension.
const DefaultContentType = "b2/x-auto"

// UploadOptions configures an upload operation.
type UploadOptions struct {
	LocalPath   string
	RemotePath  string            // defaults to the normalized local path
	ContentType string            // optional, DefaultContentType if empty
	Info        map[string]string // sent as X-Bz-Info-* headers
	Recursive   bool
}

// UploadResult represents the result of uploading a single file.
type UploadResult struct {
	LocalPath   string    `json:"local_path"`
	RemotePath  string    `json:"remote_path"`
	FileID      string    `json:"file_id"`
	BucketID    string    `json:"bucket_id"`
	ContentType string    `json:"content_type"`
	ContentSHA1 string    `json:"content_sha1"`
	Size        int64     `json:"size_bytes"`
	UploadedAt  time.Time `json:"uploaded_at"`
	Err         error     `json:"-"` // nil on success
}

// uploadFileResponse mirrors the provider's JSON answer to an upload.
type uploadFileResponse struct {
	FileID          string `json:"fileId"`
	FileName        string `json:"fileName"`
	BucketID        string `json:"bucketId"`
	ContentLength   int64  `json:"contentLength"`
	ContentSHA1     string `json:"contentSha1"`
	ContentType     string `json:"contentType"`
	UploadTimestamp int64  `json:"uploadTimestamp"` // milliseconds since epoch
}

func (r uploadFileResponse) toResult(localPath string) UploadResult {
	result := UploadResult{
		LocalPath:   localPath,
		RemotePath:  r.FileName,
		FileID:      r.FileID,
		BucketID:    r.BucketID,
		ContentType: r.ContentType,
		ContentSHA1: r.ContentSHA1,
		Size:        r.ContentLength,
	}
	if r.UploadTimestamp > 0 {
		result.UploadedAt = time.UnixMilli(r.UploadTimestamp).UTC()
	}
	return result
}
