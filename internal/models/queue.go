package models

import "time"

// QueueSnapshot is one backend worker queue's live counters. Snapshots are
// telemetry: each update replaces the previous one wholesale.
type QueueSnapshot struct {
	Name      string `json:"name"`
	Pending   int    `json:"pending"`
	Active    int    `json:"active"`
	Completed int    `json:"completed"`
	Failed    int    `json:"failed"`
	Paused    bool   `json:"paused"`
}

// DashboardStats is the top-level metrics card payload.
type DashboardStats struct {
	ContactsTotal    int       `json:"contacts_total"`
	CampaignsActive  int       `json:"campaigns_active"`
	MessagesSent     int       `json:"messages_sent"`
	RepliesReceived  int       `json:"replies_received"`
	ReplyRatePercent float64   `json:"reply_rate_percent"`
	GeneratedAt      time.Time `json:"generated_at"`
}

// Settings is the account-level configuration exposed by the backend.
type Settings struct {
	SendingWindowStart string `json:"sending_window_start"` // "09:00"
	SendingWindowEnd   string `json:"sending_window_end"`   // "17:00"
	Timezone           string `json:"timezone"`
	DailySendLimit     int    `json:"daily_send_limit"`
	CRMProvider        string `json:"crm_provider,omitempty"`
	CRMSyncEnabled     bool   `json:"crm_sync_enabled"`
}

// Pagination is the list-endpoint paging metadata.
type Pagination struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}
