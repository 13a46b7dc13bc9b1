// Package events defines the wire contract for the backend event stream and
// decodes raw frames into typed events exactly once, at the transport
// boundary. Everything past this package works with the closed set of
// variants below; unknown or malformed frames never escape Decode.
package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/reachforge/reachforge-console/internal/models"
)

// Name is a backend event identifier. The string values are a stable wire
// contract with the backend and must not be renamed.
type Name string

const (
	NameJobStarted         Name = "job:started"
	NameJobProgress        Name = "job:progress"
	NameJobCompleted       Name = "job:completed"
	NameJobFailed          Name = "job:failed"
	NameContactCreated     Name = "contact:created"
	NameContactUpdated     Name = "contact:updated"
	NameContactValidated   Name = "contact:validated"
	NameContactEnriched    Name = "contact:enriched"
	NameContactEnrolled    Name = "contact:enrolled"
	NameReplyReceived      Name = "reply:received"
	NameCampaignUpdated    Name = "campaign:updated"
	NameCampaignEnrollment Name = "campaign:enrollment"
	NamePipelineStatus     Name = "pipeline:status"
	NameQueueStatus        Name = "queue:status"
	NameMetricsUpdate      Name = "metrics:update"
	NameSystemAlert        Name = "system:alert"
)

// Names lists every event the console subscribes to.
func Names() []Name {
	return []Name{
		NameJobStarted, NameJobProgress, NameJobCompleted, NameJobFailed,
		NameContactCreated, NameContactUpdated, NameContactValidated,
		NameContactEnriched, NameContactEnrolled,
		NameReplyReceived,
		NameCampaignUpdated, NameCampaignEnrollment,
		NamePipelineStatus, NameQueueStatus, NameMetricsUpdate,
		NameSystemAlert,
	}
}

// Envelope is the raw frame as received from the socket.
type Envelope struct {
	Event     Name            `json:"event"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// DecodeError reports a frame that failed validation. The frame is logged
// and dropped by the caller; it is never delivered to handlers.
type DecodeError struct {
	Event  Name
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("event %q: %s", e.Event, e.Reason)
}

// ErrUnknownEvent marks a frame whose name is outside the known set.
var ErrUnknownEvent = errors.New("unknown event name")

// Event is the decoded, validated form of a frame. The set of
// implementations is closed; handlers switch over all of them.
type Event interface {
	EventName() Name
}

// JobPhase is the lifecycle phase carried by a job event name.
type JobPhase string

const (
	JobPhaseStarted   JobPhase = "started"
	JobPhaseProgress  JobPhase = "progress"
	JobPhaseCompleted JobPhase = "completed"
	JobPhaseFailed    JobPhase = "failed"
)

// JobLifecycle covers job:started, job:progress, job:completed, job:failed.
type JobLifecycle struct {
	Phase      JobPhase
	JobID      string `json:"job_id"`
	JobType    string `json:"job_type"`
	Progress   *int   `json:"progress,omitempty"`
	Result     any    `json:"result,omitempty"`
	Error      string `json:"error,omitempty"`
	DurationMs int64  `json:"duration_ms,omitempty"`
}

func (j JobLifecycle) EventName() Name { return Name("job:" + string(j.Phase)) }

// ReplyReceived covers reply:received.
type ReplyReceived struct {
	ReplyID              string         `json:"reply_id"`
	ContactID            string         `json:"contact_id"`
	Channel              models.Channel `json:"channel"`
	ContactDisplayName   string         `json:"contact_display_name,omitempty"`
	ContactEmail         string         `json:"contact_email,omitempty"`
	StoppedCampaignCount int            `json:"stopped_campaign_count,omitempty"`
}

func (ReplyReceived) EventName() Name { return NameReplyReceived }

// MutationKind is the flavor of a contact mutation event.
type MutationKind string

const (
	MutationCreated   MutationKind = "created"
	MutationUpdated   MutationKind = "updated"
	MutationValidated MutationKind = "validated"
	MutationEnriched  MutationKind = "enriched"
	MutationEnrolled  MutationKind = "enrolled"
)

// ContactMutated covers the contact:* family.
type ContactMutated struct {
	Kind      MutationKind
	ContactID string `json:"contact_id"`
}

func (c ContactMutated) EventName() Name { return Name("contact:" + string(c.Kind)) }

// CampaignChanged covers campaign:updated and campaign:enrollment.
type CampaignChanged struct {
	Enrollment bool
	CampaignID string `json:"campaign_id"`
	ContactID  string `json:"contact_id,omitempty"` // enrollment only
}

func (c CampaignChanged) EventName() Name {
	if c.Enrollment {
		return NameCampaignEnrollment
	}
	return NameCampaignUpdated
}

// PipelineStage is one stage of the static pipeline diagram with its live
// counters.
type PipelineStage struct {
	Name      string `json:"name"`
	State     string `json:"state"` // idle | running | degraded
	Processed int    `json:"processed"`
	Errors    int    `json:"errors"`
}

// PipelineStatus covers pipeline:status.
type PipelineStatus struct {
	Stages []PipelineStage `json:"stages"`
}

func (PipelineStatus) EventName() Name { return NamePipelineStatus }

// QueueStatus covers queue:status. Queues arrive in display order.
type QueueStatus struct {
	Queues []models.QueueSnapshot `json:"queues"`
}

func (QueueStatus) EventName() Name { return NameQueueStatus }

// MetricsUpdate covers metrics:update.
type MetricsUpdate struct {
	Stats models.DashboardStats `json:"stats"`
}

func (MetricsUpdate) EventName() Name { return NameMetricsUpdate }

// AlertLevel is the backend's severity for a system alert.
type AlertLevel string

const (
	AlertInfo     AlertLevel = "info"
	AlertWarning  AlertLevel = "warning"
	AlertError    AlertLevel = "error"
	AlertCritical AlertLevel = "critical"
)

// SystemAlert covers system:alert.
type SystemAlert struct {
	Level      AlertLevel `json:"level"`
	Title      string     `json:"title"`
	Message    string     `json:"message"`
	ActionHint string     `json:"action_hint,omitempty"`
}

func (SystemAlert) EventName() Name { return NameSystemAlert }

// Decode validates an envelope and returns its typed event. A nil error
// means every required field for the declared name is present.
func Decode(env Envelope) (Event, error) {
	switch env.Event {
	case NameJobStarted, NameJobProgress, NameJobCompleted, NameJobFailed:
		var ev JobLifecycle
		if err := unmarshalPayload(env, &ev); err != nil {
			return nil, err
		}
		ev.Phase = JobPhase(env.Event[len("job:"):])
		if ev.JobID == "" || ev.JobType == "" {
			return nil, &DecodeError{Event: env.Event, Reason: "job_id and job_type are required"}
		}
		return ev, nil

	case NameReplyReceived:
		var ev ReplyReceived
		if err := unmarshalPayload(env, &ev); err != nil {
			return nil, err
		}
		if ev.ReplyID == "" || ev.ContactID == "" {
			return nil, &DecodeError{Event: env.Event, Reason: "reply_id and contact_id are required"}
		}
		if ev.Channel == "" {
			return nil, &DecodeError{Event: env.Event, Reason: "channel is required"}
		}
		return ev, nil

	case NameContactCreated, NameContactUpdated, NameContactValidated,
		NameContactEnriched, NameContactEnrolled:
		var ev ContactMutated
		if err := unmarshalPayload(env, &ev); err != nil {
			return nil, err
		}
		ev.Kind = MutationKind(env.Event[len("contact:"):])
		if ev.ContactID == "" {
			return nil, &DecodeError{Event: env.Event, Reason: "contact_id is required"}
		}
		return ev, nil

	case NameCampaignUpdated, NameCampaignEnrollment:
		var ev CampaignChanged
		if err := unmarshalPayload(env, &ev); err != nil {
			return nil, err
		}
		ev.Enrollment = env.Event == NameCampaignEnrollment
		if ev.CampaignID == "" {
			return nil, &DecodeError{Event: env.Event, Reason: "campaign_id is required"}
		}
		return ev, nil

	case NamePipelineStatus:
		var ev PipelineStatus
		if err := unmarshalPayload(env, &ev); err != nil {
			return nil, err
		}
		return ev, nil

	case NameQueueStatus:
		var ev QueueStatus
		if err := unmarshalPayload(env, &ev); err != nil {
			return nil, err
		}
		if ev.Queues == nil {
			return nil, &DecodeError{Event: env.Event, Reason: "queues is required"}
		}
		return ev, nil

	case NameMetricsUpdate:
		var ev MetricsUpdate
		if err := unmarshalPayload(env, &ev); err != nil {
			return nil, err
		}
		return ev, nil

	case NameSystemAlert:
		var ev SystemAlert
		if err := unmarshalPayload(env, &ev); err != nil {
			return nil, err
		}
		switch ev.Level {
		case AlertInfo, AlertWarning, AlertError, AlertCritical:
		default:
			return nil, &DecodeError{Event: env.Event, Reason: fmt.Sprintf("invalid level %q", ev.Level)}
		}
		if ev.Title == "" || ev.Message == "" {
			return nil, &DecodeError{Event: env.Event, Reason: "title and message are required"}
		}
		return ev, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, env.Event)
	}
}

func unmarshalPayload(env Envelope, dst any) error {
	if len(env.Payload) == 0 {
		return &DecodeError{Event: env.Event, Reason: "empty payload"}
	}
	if err := json.Unmarshal(env.Payload, dst); err != nil {
		return &DecodeError{Event: env.Event, Reason: "invalid payload: " + err.Error()}
	}
	return nil
}
