package models

import "encoding/json"

const (
	ParseStatusPending    = "pending"
	ParseStatusDispatched = "dispatched"
	ParseStatusCompleted  = "completed"
	ParseStatusFailed     = "failed"
)

// ParseJob tracks one resume sent to the external parsing service.
type ParseJob struct {
	ID        string          `json:"id"`
	ResumeID  string          `json:"resume_id"`
	UserID    string          `json:"user_id"`
	ResumeURL string          `json:"resume_url"`
	Status    string          `json:"status"`
	Attempts  int             `json:"attempts"`
	LastError string          `json:"last_error,omitempty"`
	Result    json.RawMessage `json:"result,omitempty"`
	CreatedAt int64           `json:"created_at"`
	UpdatedAt int64           `json:"updated_at"`
}

