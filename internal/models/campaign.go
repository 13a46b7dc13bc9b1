package models

import "time"

// CampaignStatus is the lifecycle state of an outreach campaign.
type CampaignStatus string

const (
	CampaignStatusDraft     CampaignStatus = "draft"
	CampaignStatusActive    CampaignStatus = "active"
	CampaignStatusPaused    CampaignStatus = "paused"
	CampaignStatusCompleted CampaignStatus = "completed"
)

// Campaign is a multi-step outreach sequence across one or more channels.
type Campaign struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Status      CampaignStatus `json:"status"`
	Channels    []Channel      `json:"channels"`
	StepCount   int            `json:"step_count"`
	Enrolled    int            `json:"enrolled"`
	Replied     int            `json:"replied"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// Enrollment ties a contact to a campaign with its per-contact progress.
type Enrollment struct {
	ID         string     `json:"id"`
	CampaignID string     `json:"campaign_id"`
	ContactID  string     `json:"contact_id"`
	Step       int        `json:"step"`
	Status     string     `json:"status"` // active | paused | stopped | finished
	EnrolledAt time.Time  `json:"enrolled_at"`
	StoppedAt  *time.Time `json:"stopped_at,omitempty"`
}

// Template is a reusable message body for a campaign step.
type Template struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Channel   Channel   `json:"channel"`
	Subject   string    `json:"subject,omitempty"` // email only
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
