package models

import (
	"strings"
	"time"
)

// JobStatus is the backend scheduler's status for an asynchronous job.
type JobStatus string

const (
	JobStatusQueued     JobStatus = "queued"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Terminal reports whether no further progress is expected for the job.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// Known job types dispatched by the backend workers. The set is open:
// the backend may add types, so consumers match by substring, not equality.
const (
	JobTypeScrape     = "scrape"
	JobTypeEnrich     = "enrich"
	JobTypeImport     = "import"
	JobTypeExport     = "export"
	JobTypeValidate   = "validate"
	JobTypeEnroll     = "campaign_enroll"
	JobTypeCRMSync    = "crm_sync"
	JobTypeReplyCheck = "reply_check"
)

// Job is a backend-side asynchronous unit of work (scrape, import, ...).
type Job struct {
	ID          string     `json:"id"`
	Type        string     `json:"type"`
	Status      JobStatus  `json:"status"`
	Progress    int        `json:"progress"` // 0-100
	Error       string     `json:"error,omitempty"`
	Result      any        `json:"result,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// IsLeadProducing reports whether a job of the given type can create or
// mutate contacts (and therefore stales the contact resource group).
func IsLeadProducing(jobType string) bool {
	for _, t := range []string{JobTypeScrape, JobTypeEnrich, JobTypeImport, JobTypeValidate} {
		if strings.Contains(jobType, t) {
			return true
		}
	}
	return false
}

// IsCampaignJob reports whether a job of the given type touches campaigns
// or enrollments.
func IsCampaignJob(jobType string) bool {
	return strings.Contains(jobType, "campaign") || strings.Contains(jobType, "enroll")
}
