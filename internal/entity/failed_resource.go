package entity

import "time"

// Kinds of failed sub-operations.
const (
	FailureKindDownload = "download"
	FailureKindFrame    = "frame"
)

// FailedResource mirrors the `failed_resources` PostgreSQL table schema.
type FailedResource struct {
	ID            int64     `json:"id"`
	SessionID     string    `json:"session_id"`
	URL           string    `json:"url"`
	Kind          string    `json:"kind"`
	FailureReason string    `json:"failure_reason"`
	Fallback      string    `json:"fallback"`
	Attempts      int       `json:"attempts"`
	LastAttemptAt time.Time `json:"last_attempt_at"`
}
