package api

import (
	"context"
	"fmt"

	"github.com/reachforge/reachforge-console/internal/models"
	"github.com/reachforge/reachforge-console/internal/pkg/validate"
)

// ContactInput is the create/update payload for a contact.
type ContactInput struct {
	Email       string   `json:"email"`
	Phone       string   `json:"phone,omitempty"`
	LinkedInURL string   `json:"linkedin_url,omitempty"`
	FirstName   string   `json:"first_name,omitempty"`
	LastName    string   `json:"last_name,omitempty"`
	Company     string   `json:"company,omitempty"`
	Title       string   `json:"title,omitempty"`
	Source      string   `json:"source,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

func (in ContactInput) check() error {
	if !validate.Email(in.Email) {
		return fmt.Errorf("%w: email %q", ErrInvalidInput, in.Email)
	}
	if !validate.LinkedInURL(in.LinkedInURL) {
		return fmt.Errorf("%w: linkedin_url %q", ErrInvalidInput, in.LinkedInURL)
	}
	return nil
}

// ListContacts returns one page of contacts.
func (c *Client) ListContacts(ctx context.Context, opts ListOptions) ([]models.Contact, *models.Pagination, error) {
	var contacts []models.Contact
	page, err := c.get(ctx, "/contacts", opts.query(), &contacts)
	if err != nil {
		return nil, nil, err
	}
	return contacts, page, nil
}

// GetContact returns a single contact by ID.
func (c *Client) GetContact(ctx context.Context, id string) (*models.Contact, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	var contact models.Contact
	if _, err := c.get(ctx, "/contacts/"+id, nil, &contact); err != nil {
		return nil, err
	}
	return &contact, nil
}

// CreateContact creates a contact and returns the stored resource.
func (c *Client) CreateContact(ctx context.Context, in ContactInput) (*models.Contact, error) {
	if err := in.check(); err != nil {
		return nil, err
	}
	var contact models.Contact
	if err := c.post(ctx, "/contacts", in, &contact); err != nil {
		return nil, err
	}
	return &contact, nil
}

// UpdateContact updates a contact and returns the stored resource.
func (c *Client) UpdateContact(ctx context.Context, id string, in ContactInput) (*models.Contact, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	if err := in.check(); err != nil {
		return nil, err
	}
	var contact models.Contact
	if err := c.put(ctx, "/contacts/"+id, in, &contact); err != nil {
		return nil, err
	}
	return &contact, nil
}

// DeleteContact removes a contact.
func (c *Client) DeleteContact(ctx context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	return c.delete(ctx, "/contacts/"+id)
}

// ValidateContact queues revalidation of a contact's email and phone.
// Validation runs asynchronously; the returned job is polled for completion.
func (c *Client) ValidateContact(ctx context.Context, id string) (*models.Job, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	var job models.Job
	if err := c.post(ctx, "/contacts/"+id+"/validate", nil, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// EnrichContact queues enrichment of a contact from the data providers.
// Enrichment runs asynchronously; the returned job is polled for completion.
func (c *Client) EnrichContact(ctx context.Context, id string) (*models.Job, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	var job models.Job
	if err := c.post(ctx, "/contacts/"+id+"/enrich", nil, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// ContactStats returns the aggregate counters for the contacts dashboard.
func (c *Client) ContactStats(ctx context.Context) (*models.ContactStats, error) {
	var stats models.ContactStats
	if _, err := c.get(ctx, "/contacts/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// ImportContacts uploads rows in bulk. The import runs asynchronously; the
// returned job is polled for completion.
func (c *Client) ImportContacts(ctx context.Context, rows []ContactInput) (*models.Job, error) {
	for i, row := range rows {
		if err := row.check(); err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
	}
	var job models.Job
	payload := map[string]any{"contacts": rows}
	if err := c.post(ctx, "/contacts/import", payload, &job); err != nil {
		return nil, err
	}
	return &job, nil
}
