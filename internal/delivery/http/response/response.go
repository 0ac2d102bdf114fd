package response

import "github.com/jack23912/webscrapbook/internal/entity"

type SubmitCaptureResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

// CaptureResultResponse describes a finished synchronous capture.
type CaptureResultResponse struct {
	SessionID    string `json:"session_id"`
	DocumentName string `json:"document_name"`
	Reference    string `json:"reference"`
	Mime         string `json:"mime"`
	ArtifactURL  string `json:"artifact_url"`
}

// SessionStatusResponse is a DTO for a capture session, mirroring entity.SessionStatus
type SessionStatusResponse struct {
	SessionID     string                   `json:"session_id"`
	CurrentStatus string                   `json:"current_status"` // "queued", "capturing", "completed", "failed"
	Record        *entity.CaptureRecord    `json:"record"`
	Failures      []*entity.FailedResource `json:"failures"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
