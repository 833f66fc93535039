package model

import "time"

// ImportSource identifies where a job's candidate records came from.
type ImportSource string

const (
	// SourceManualUpload is a file or text submitted by a user.
	SourceManualUpload ImportSource = "manual_upload"
	// SourceWatchedDir is a file picked up from a watched directory.
	SourceWatchedDir ImportSource = "watched_dir"
	// SourceAIChat is free text parsed by an LLM.
	SourceAIChat ImportSource = "ai_chat"
	// SourceAPISync is data pulled from an external API.
	SourceAPISync ImportSource = "api_sync"
)

// Valid reports whether s is a known source.
func (s ImportSource) Valid() bool {
	switch s {
	case SourceManualUpload, SourceWatchedDir, SourceAIChat, SourceAPISync:
		return true
	}
	return false
}

// ImportStatus is the lifecycle state of an import job.
type ImportStatus string

const (
	// StatusPendingReview means the preview is awaiting confirmation.
	StatusPendingReview ImportStatus = "pending_review"
	// StatusApproved means at least one record was committed.
	StatusApproved ImportStatus = "approved"
	// StatusRejected means every record was rejected.
	StatusRejected ImportStatus = "rejected"
	// StatusFailed means extraction failed before a preview existed.
	StatusFailed ImportStatus = "failed"
)

// IsTerminal returns true once the job can no longer be confirmed.
func (s ImportStatus) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected || s == StatusFailed
}

// ImportJob is one batch of candidate records awaiting or past review.
type ImportJob struct {
	StartedAt       time.Time
	CompletedAt     *time.Time
	ConfidenceScore *float64
	ID              string
	SourceType      ImportSource
	Status          ImportStatus
	InitiatorID     string
	InitiatorRole   string
	LLMModel        string
	RawPayloadRef   string
	ErrorLog        string
}

// Attachment is a source file stored alongside a job.
type Attachment struct {
	CreatedAt    time.Time
	ID           string
	ImportJobID  string
	FileType     string
	StoragePath  string
	TextSnapshot string
	Checksum     string
}
