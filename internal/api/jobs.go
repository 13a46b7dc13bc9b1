package api

import (
	"context"
	"fmt"

	"github.com/Masterminds/semver/v3"

	"github.com/reachforge/reachforge-console/internal/models"
)

// SupportedBackendVersions is the semver range of backend releases this
// console is known to speak with.
const SupportedBackendVersions = ">= 1.2.0, < 3.0.0"

// TriggerJob asks the backend scheduler to start a job of the given type
// (scrape, enrich, export, ...). params are job-type specific.
func (c *Client) TriggerJob(ctx context.Context, jobType string, params map[string]any) (*models.Job, error) {
	var job models.Job
	payload := map[string]any{"type": jobType}
	if len(params) > 0 {
		payload["params"] = params
	}
	if err := c.post(ctx, "/jobs", payload, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// JobStatus returns the current status of an asynchronous job.
func (c *Client) JobStatus(ctx context.Context, id string) (*models.Job, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	var job models.Job
	if _, err := c.get(ctx, "/jobs/"+id, nil, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// GetSettings returns the account-level settings.
func (c *Client) GetSettings(ctx context.Context) (*models.Settings, error) {
	var settings models.Settings
	if _, err := c.get(ctx, "/settings", nil, &settings); err != nil {
		return nil, err
	}
	return &settings, nil
}

// UpdateSettings stores the account-level settings and returns them.
func (c *Client) UpdateSettings(ctx context.Context, in models.Settings) (*models.Settings, error) {
	var settings models.Settings
	if err := c.put(ctx, "/settings", in, &settings); err != nil {
		return nil, err
	}
	return &settings, nil
}

// DashboardStats returns the top-level metrics card payload.
func (c *Client) DashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	var stats models.DashboardStats
	if _, err := c.get(ctx, "/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// HealthInfo is the backend's health endpoint payload.
type HealthInfo struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}

// Health returns the backend service identity and version.
func (c *Client) Health(ctx context.Context) (*HealthInfo, error) {
	var info HealthInfo
	if _, err := c.get(ctx, "/health", nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// CheckCompatibility validates a backend version against the supported
// range. It returns false (with a nil error) for versions outside the
// range: an incompatible backend degrades the dashboard, it never aborts
// startup.
func CheckCompatibility(version string) (bool, error) {
	v, err := semver.NewVersion(version)
	if err != nil {
		return false, fmt.Errorf("unparseable backend version %q: %w", version, err)
	}
	constraint, err := semver.NewConstraint(SupportedBackendVersions)
	if err != nil {
		return false, err
	}
	return constraint.Check(v), nil
}
