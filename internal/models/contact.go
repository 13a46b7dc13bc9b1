package models

import "time"

// ContactStatus is the validation/outreach lifecycle state of a contact.
type ContactStatus string

const (
	ContactStatusNew       ContactStatus = "new"
	ContactStatusValidated ContactStatus = "validated"
	ContactStatusEnriched  ContactStatus = "enriched"
	ContactStatusEnrolled  ContactStatus = "enrolled"
	ContactStatusReplied   ContactStatus = "replied"
	ContactStatusBounced   ContactStatus = "bounced"
	ContactStatusOptedOut  ContactStatus = "opted_out"
)

// Channel identifies an outreach channel.
type Channel string

const (
	ChannelEmail    Channel = "email"
	ChannelSMS      Channel = "sms"
	ChannelLinkedIn Channel = "linkedin"
)

// Contact is a lead record as returned by the backend API.
type Contact struct {
	ID          string        `json:"id"`
	Email       string        `json:"email"`
	Phone       string        `json:"phone,omitempty"`
	LinkedInURL string        `json:"linkedin_url,omitempty"`
	FirstName   string        `json:"first_name,omitempty"`
	LastName    string        `json:"last_name,omitempty"`
	Company     string        `json:"company,omitempty"`
	Title       string        `json:"title,omitempty"`
	Status      ContactStatus `json:"status"`
	Source      string        `json:"source,omitempty"`
	Tags        []string      `json:"tags,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// DisplayName returns the best human-readable label for a contact:
// full name, else email, else a generic placeholder.
func (c *Contact) DisplayName() string {
	switch {
	case c.FirstName != "" && c.LastName != "":
		return c.FirstName + " " + c.LastName
	case c.FirstName != "":
		return c.FirstName
	case c.Email != "":
		return c.Email
	default:
		return "Contact"
	}
}

// ContactStats is the aggregate card data for the contacts dashboard.
type ContactStats struct {
	Total     int `json:"total"`
	New       int `json:"new"`
	Validated int `json:"validated"`
	Enriched  int `json:"enriched"`
	Enrolled  int `json:"enrolled"`
	Replied   int `json:"replied"`
	Bounced   int `json:"bounced"`
	OptedOut  int `json:"opted_out"`
}
