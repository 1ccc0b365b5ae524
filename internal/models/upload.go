package models

import "time"

// UploadStatus represents the state of the upload session.
type UploadStatus string

const (
	UploadIdle      UploadStatus = "idle"
	UploadUploading UploadStatus = "uploading"
	UploadSucceeded UploadStatus = "succeeded"
	UploadFailed    UploadStatus = "failed"
)

// Terminal reports whether the status is a display-only end state.
func (s UploadStatus) Terminal() bool {
	return s == UploadSucceeded || s == UploadFailed
}

// UploadSnapshot is a copy of the upload session as seen by a renderer.
type UploadSnapshot struct {
	ID          string       `json:"id,omitempty"`
	FileName    string       `json:"fileName,omitempty"`
	MediaType   string       `json:"mediaType,omitempty"`
	Status      UploadStatus `json:"status"`
	Progress    int          `json:"progress"` // 0-100, cosmetic until the transfer resolves
	Document    string       `json:"document,omitempty"` // server-assigned name on success
	Error       string       `json:"error,omitempty"`
	StartedAt   time.Time    `json:"startedAt,omitempty"`
	CompletedAt *time.Time   `json:"completedAt,omitempty"`
}

// StatusText mirrors the label shown under the progress bar.
func (u UploadSnapshot) StatusText() string {
	switch u.Status {
	case UploadUploading:
		return "Uploading..."
	case UploadSucceeded:
		return "Upload complete!"
	case UploadFailed:
		return "Upload failed"
	default:
		return ""
	}
}
