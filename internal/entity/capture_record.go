package entity

import "time"

// Capture statuses stored in capture records.
const (
	CaptureStatusQueued    = "queued"
	CaptureStatusCapturing = "capturing"
	CaptureStatusCompleted = "completed"
	CaptureStatusFailed    = "failed"
)

// CaptureRecord mirrors the `capture_records` PostgreSQL table schema.
type CaptureRecord struct {
	ID           int64     `json:"id"`
	SessionID    string    `json:"session_id"`
	URL          string    `json:"url"`
	DocumentName string    `json:"document_name"`
	Reference    string    `json:"reference"`
	Mime         string    `json:"mime"`
	Bytes        int       `json:"bytes"`
	Status       string    `json:"status"`
	FailReason   string    `json:"fail_reason,omitempty"`
	CapturedAt   time.Time `json:"captured_at"`
}

// CaptureRequest is a capture job as it travels through the API and queue.
type CaptureRequest struct {
	SessionID string         `json:"session_id"`
	URL       string         `json:"url"`
	Options   CaptureOptions `json:"options"`
	Selectors []string       `json:"selectors,omitempty"`
}

// SessionStatus summarizes everything stored for one session.
type SessionStatus struct {
	SessionID string            `json:"session_id"`
	Record    *CaptureRecord    `json:"record"`
	Failures  []*FailedResource `json:"failures"`
}
