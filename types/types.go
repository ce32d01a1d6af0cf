// Package types contains the wire types of the local SmartEdu server
package types

import (
	"time"

	"github.com/Nexora-Open-Source/smartedu/outline"
)

// GenerateRequest starts generation for one or more entities
type GenerateRequest struct {
	IDs   []string `json:"ids"`
	Model string   `json:"model"`
}

// JobRef points at a watched job
type JobRef struct {
	Key       string `json:"key"`
	Kind      string `json:"kind"`
	ID        string `json:"id"`
	StatusURL string `json:"status_url"`
}

// GenerateResponse acknowledges a generation request
type GenerateResponse struct {
	Message     string    `json:"message"`
	Model       string    `json:"model"`
	Jobs        []JobRef  `json:"jobs"`
	RequestedAt time.Time `json:"requested_at"`
}

// JobStatus is the state of a watched job and what to render for it
type JobStatus struct {
	Key         string      `json:"key"`
	Kind        string      `json:"kind"`
	ID          string      `json:"id"`
	Model       string      `json:"model,omitempty"`
	State       string      `json:"state"` // idle, polling, ready, not_ready, timed_out, failed
	Attempt     int         `json:"attempt"`
	MaxAttempts int         `json:"max_attempts"`
	StartedAt   *time.Time  `json:"started_at,omitempty"`
	UpdatedAt   *time.Time  `json:"updated_at,omitempty"`
	ElapsedMs   int64       `json:"elapsed_ms,omitempty"`
	View        interface{} `json:"view"`
}

// JobList lists every job the server is watching
type JobList struct {
	Jobs   []JobStatus `json:"jobs"`
	Active int         `json:"active"`
}

// OutlineEditRequest applies path-addressed edits to a module outline
type OutlineEditRequest struct {
	Ops []outline.Op `json:"ops"`
}

// EbookSaveRequest replaces the content of a generated ebook. An empty
// title keeps the current one.
type EbookSaveRequest struct {
	Title string `json:"title,omitempty"`
	HTML  string `json:"html"`
}
