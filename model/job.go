package model

import (
	"time"

	"github.com/google/uuid"
)

// JobStatus is the lifecycle state of a background ingestion job.
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// Active reports whether the job still counts against the active job limit.
func (s JobStatus) Active() bool {
	return s == JobStatusQueued || s == JobStatusRunning
}

// Progress stages.
const (
	StageQueued      = "queued"
	StageDiscovering = "discovering"
	StageIngesting   = "ingesting"
	StageDone        = "done"
)

// RangeRequest asks for all meetings between two YYYY-MM-DD dates.
type RangeRequest struct {
	FromDate  string        `json:"from_date"`
	ToDate    string        `json:"to_date"`
	Limit     int           `json:"limit"`
	Crawl     bool          `json:"crawl"`
	ChunkDays int           `json:"chunk_days"`
	CacheTTL  time.Duration `json:"cache_ttl"`
}

// JobProgress is readable while the job runs.
type JobProgress struct {
	Stage            string `json:"stage"`
	Discovered       int    `json:"discovered"`
	Processed        int    `json:"processed"`
	CurrentMeetingID *int64 `json:"current_meeting_id,omitempty"`
	Succeeded        int    `json:"succeeded"`
	Failed           int    `json:"failed"`
}

// Job is a background range ingestion.
type Job struct {
	ID         uuid.UUID    `json:"id"`
	Status     JobStatus    `json:"status"`
	Request    RangeRequest `json:"request"`
	Progress   JobProgress  `json:"progress"`
	Result     *RangeResult `json:"result,omitempty"`
	Error      string       `json:"error,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
	StartedAt  *time.Time   `json:"started_at,omitempty"`
	FinishedAt *time.Time   `json:"finished_at,omitempty"`
}

// DiscoveryKey identifies one cached meeting discovery.
type DiscoveryKey struct {
	FromDate  string `json:"from_date"`
	ToDate    string `json:"to_date"`
	Crawl     bool   `json:"crawl"`
	ChunkDays int    `json:"chunk_days"`
}
