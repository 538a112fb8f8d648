package types

import "encoding/json"

// JobStatus is the tracking state attached to a job record
type JobStatus string

const (
	JobStatusSaved   JobStatus = "saved"
	JobStatusApplied JobStatus = "applied"
)

// AuditEvent reports which fields a form fill touched on a job page
type AuditEvent struct {
	Site          string                     `json:"site"`
	JobURL        string                     `json:"job_url"`
	FilledFields  []string                   `json:"filled_fields"`
	SkippedFields []string                   `json:"skipped_fields"`
	Metadata      map[string]json.RawMessage `json:"metadata"`
}

// JobEvent describes a job posting being saved or applied to
type JobEvent struct {
	Site          string                     `json:"site"`
	JobURL        string                     `json:"job_url"`
	Title         string                     `json:"title"`
	Company       string                     `json:"company"`
	ExternalJobID string                     `json:"external_job_id"`
	Metadata      map[string]json.RawMessage `json:"metadata"`
}

// AuditRecord is a stored AuditEvent. The event fields are flattened into
// the record when serialized.
type AuditRecord struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	AuditEvent
}

// JobRecord is a stored JobEvent with its status
type JobRecord struct {
	ID        string    `json:"id"`
	Timestamp string    `json:"timestamp"`
	Status    JobStatus `json:"status"`
	JobEvent
}

// Normalized returns a copy with nil collections replaced by empty ones
func (e AuditEvent) Normalized() AuditEvent {
	if e.FilledFields == nil {
		e.FilledFields = []string{}
	}
	if e.SkippedFields == nil {
		e.SkippedFields = []string{}
	}
	if e.Metadata == nil {
		e.Metadata = map[string]json.RawMessage{}
	}
	return e
}

// Normalized returns a copy with a non-nil metadata map
func (e JobEvent) Normalized() JobEvent {
	if e.Metadata == nil {
		e.Metadata = map[string]json.RawMessage{}
	}
	return e
}

// LoginRequest is the stub login body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the issued access token
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// ResumeUploadRequest names the file the client intends to upload
type ResumeUploadRequest struct {
	Filename string `json:"filename"`
}

// ResumeUpload is the fabricated upload target for a resume
type ResumeUpload struct {
	FileID    string `json:"file_id"`
	SignedURL string `json:"signed_url"`
}
