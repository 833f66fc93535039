package model

import "time"

// ConfirmationLog is one append-only audit entry for a reviewer decision.
// RecordID is nil for rejections. DiffSnapshot is the payload as submitted.
type ConfirmationLog struct {
	CreatedAt    time.Time
	RecordID     *string
	DiffSnapshot map[string]any
	ID           string
	ImportJobID  string
	RecordType   RecordType
	ActorID      string
	ActorRole    string
	Action       ConfirmationOperation
	Comment      string
}
