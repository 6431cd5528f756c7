package models

import (
	"time"
)

// TaskStatus is the lifecycle state of a summarization task.
type TaskStatus string

const (
	StatusProcessing TaskStatus = "processing"
	StatusCompleted  TaskStatus = "completed"
	StatusError      TaskStatus = "error"
)

// Terminal reports whether no further transition is allowed.
func (s TaskStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

// TaskRecord represents the observable state of one summarization task.
// Result is set iff Status is completed, Error iff Status is error.
type TaskRecord struct {
	ID        string     `json:"task_id"`
	Progress  int        `json:"progress"`
	Status    TaskStatus `json:"status"`
	Result    string     `json:"result,omitempty"`
	Error     string     `json:"error,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"` // set when a terminal record is first observed
}

// FileMetadata describes an uploaded file. Kind specific fields are left empty
// when they do not apply.
type FileMetadata struct {
	Filename      string            `json:"filename"`
	Extension     string            `json:"extension"`
	MIMEType      string            `json:"mime_type"`
	SizeBytes     int64             `json:"size_bytes"`
	Size          string            `json:"size"`
	ModifiedAt    time.Time         `json:"modified_at"`
	PageCount     int               `json:"page_count,omitempty"`
	Width         int               `json:"width,omitempty"`
	Height        int               `json:"height,omitempty"`
	LineCount     int               `json:"line_count,omitempty"`
	WordCount     int               `json:"word_count,omitempty"`
	Properties    map[string]string `json:"properties,omitempty"` // PDF info or DOCX core properties
	MetadataError string            `json:"metadata_error,omitempty"`
}

// UploadResponse is returned by POST /upload.
type UploadResponse struct {
	Message       string       `json:"message"`
	Filename      string       `json:"filename"`
	Path          string       `json:"path"`
	ExtractedText string       `json:"extracted_text"`
	TaskID        string       `json:"task_id"`
	FileID        string       `json:"file_id"`
	Metadata      FileMetadata `json:"metadata"`
}

// RegenerateRequest is the body of POST /regenerate.
type RegenerateRequest struct {
	FileID    string `json:"file_id"`
	MaxLength *int   `json:"max_length,omitempty"`
	MinLength *int   `json:"min_length,omitempty"`
}

// RegenerateResponse is returned by POST /regenerate.
type RegenerateResponse struct {
	Message string `json:"message"`
	TaskID  string `json:"task_id"`
}

// ProgressResponse is returned by GET /progress/{task_id}.
type ProgressResponse struct {
	Progress int        `json:"progress"`
	Status   TaskStatus `json:"status"`
	Result   string     `json:"result,omitempty"`
	Error    string     `json:"error,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type HealthResponse struct {
	Status string `json:"status"`
	Tasks  int    `json:"tasks"`
}
