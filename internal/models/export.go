package models

import "time"

// ExportStatus tracks an asynchronous schedule export.
type ExportStatus string

const (
	ExportQueued    ExportStatus = "QUEUED"
	ExportCompleted ExportStatus = "COMPLETED"
	ExportFailed    ExportStatus = "FAILED"
)

// ScheduleExport is a generated schedule file owned by a tutor.
type ScheduleExport struct {
	ID          string       `json:"id"`
	TutorEmail  string       `json:"tutor_email"`
	Format      string       `json:"format"`
	Status      ExportStatus `json:"status"`
	FilePath    string       `json:"-"`
	DownloadURL string       `json:"download_url,omitempty"`
	ExpiresAt   *time.Time   `json:"expires_at,omitempty"`
	Error       string       `json:"error,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	CompletedAt *time.Time   `json:"completed_at,omitempty"`
}
