package api

import (
	"context"

	"github.com/reachforge/reachforge-console/internal/models"
)

// CampaignInput is the create/update payload for a campaign.
type CampaignInput struct {
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Channels    []models.Channel `json:"channels,omitempty"`
}

// ListCampaigns returns one page of campaigns.
func (c *Client) ListCampaigns(ctx context.Context, opts ListOptions) ([]models.Campaign, *models.Pagination, error) {
	var campaigns []models.Campaign
	page, err := c.get(ctx, "/campaigns", opts.query(), &campaigns)
	if err != nil {
		return nil, nil, err
	}
	return campaigns, page, nil
}

// GetCampaign returns a single campaign by ID.
func (c *Client) GetCampaign(ctx context.Context, id string) (*models.Campaign, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	var campaign models.Campaign
	if _, err := c.get(ctx, "/campaigns/"+id, nil, &campaign); err != nil {
		return nil, err
	}
	return &campaign, nil
}

// CreateCampaign creates a campaign and returns the stored resource.
func (c *Client) CreateCampaign(ctx context.Context, in CampaignInput) (*models.Campaign, error) {
	var campaign models.Campaign
	if err := c.post(ctx, "/campaigns", in, &campaign); err != nil {
		return nil, err
	}
	return &campaign, nil
}

// UpdateCampaign updates a campaign and returns the stored resource.
func (c *Client) UpdateCampaign(ctx context.Context, id string, in CampaignInput) (*models.Campaign, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	var campaign models.Campaign
	if err := c.put(ctx, "/campaigns/"+id, in, &campaign); err != nil {
		return nil, err
	}
	return &campaign, nil
}

// StartCampaign activates a campaign.
func (c *Client) StartCampaign(ctx context.Context, id string) (*models.Campaign, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	var campaign models.Campaign
	if err := c.post(ctx, "/campaigns/"+id+"/start", nil, &campaign); err != nil {
		return nil, err
	}
	return &campaign, nil
}

// PauseCampaign pauses an active campaign.
func (c *Client) PauseCampaign(ctx context.Context, id string) (*models.Campaign, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	var campaign models.Campaign
	if err := c.post(ctx, "/campaigns/"+id+"/pause", nil, &campaign); err != nil {
		return nil, err
	}
	return &campaign, nil
}

// ListEnrollments returns one page of a campaign's enrollments.
func (c *Client) ListEnrollments(ctx context.Context, campaignID string, opts ListOptions) ([]models.Enrollment, *models.Pagination, error) {
	if err := checkID(campaignID); err != nil {
		return nil, nil, err
	}
	var enrollments []models.Enrollment
	page, err := c.get(ctx, "/campaigns/"+campaignID+"/enrollments", opts.query(), &enrollments)
	if err != nil {
		return nil, nil, err
	}
	return enrollments, page, nil
}

// EnrollContacts enrolls contacts into a campaign. Enrollment runs
// asynchronously; the returned job is polled for completion.
func (c *Client) EnrollContacts(ctx context.Context, campaignID string, contactIDs []string) (*models.Job, error) {
	if err := checkID(campaignID); err != nil {
		return nil, err
	}
	for _, id := range contactIDs {
		if err := checkID(id); err != nil {
			return nil, err
		}
	}
	var job models.Job
	payload := map[string]any{"contact_ids": contactIDs}
	if err := c.post(ctx, "/campaigns/"+campaignID+"/enroll", payload, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// ListTemplates returns one page of message templates.
func (c *Client) ListTemplates(ctx context.Context, opts ListOptions) ([]models.Template, *models.Pagination, error) {
	var templates []models.Template
	page, err := c.get(ctx, "/templates", opts.query(), &templates)
	if err != nil {
		return nil, nil, err
	}
	return templates, page, nil
}
