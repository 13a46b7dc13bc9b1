// Package service contains the sync engine: the domain event handlers that
// translate decoded stream events into cache invalidations, notification
// requests, and live telemetry snapshots.
package service

import (
	"log/slog"
	"sync"
	"time"

	"github.com/reachforge/reachforge-console/internal/events"
	"github.com/reachforge/reachforge-console/internal/models"
	"github.com/reachforge/reachforge-console/internal/notify"
	"github.com/reachforge/reachforge-console/internal/realtime"
)

// Cache keys and group patterns shared by the REST boundary and the
// handlers. Components building list keys append a filter hash to the
// list prefix.
const (
	KeyContactsList  = "contacts:list:"
	KeyContactsStats = "contacts:stats"
	GroupContacts    = "contacts:*"
	GroupCampaigns   = "campaigns:*"
)

const (
	toastDuration      = 5 * time.Second
	replyToastDuration = 10 * time.Second
)

// Invalidator is the slice of the query cache the engine needs.
type Invalidator interface {
	Invalidate(pattern string) int
}

// Presenter consumes notification decisions.
type Presenter interface {
	Present(notify.Request) string
}

// Options tunes the engine for its observing surface.
type Options struct {
	// ShowReplyToasts suppresses the celebratory reply toast when false.
	ShowReplyToasts bool
	// OnEvent, when set, receives every decoded event after the engine's
	// own handling. Used by the UI layer for live widgets.
	OnEvent func(events.Event)
}

// SyncService subscribes to the full event set and owns the in-memory
// telemetry snapshots (queues, pipeline, dashboard stats). Subscriptions
// are acquired in Start and released, exactly once each, in Stop.
type SyncService struct {
	registry *realtime.Registry
	cache    Invalidator
	toasts   Presenter
	log      *slog.Logger
	opts     Options

	mu       sync.RWMutex
	queues   []models.QueueSnapshot
	pipeline []events.PipelineStage
	stats    *models.DashboardStats
	unsubs   []func()
	started  bool
}

// NewSyncService wires the engine; Start attaches it to the registry.
func NewSyncService(registry *realtime.Registry, cache Invalidator, toasts Presenter, log *slog.Logger, opts Options) *SyncService {
	if log == nil {
		log = slog.Default()
	}
	return &SyncService{
		registry: registry,
		cache:    cache,
		toasts:   toasts,
		log:      log,
		opts:     opts,
	}
}

// Start registers one handler per subscribed event name. Calling Start on
// a started engine is a no-op.
func (s *SyncService) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true

	for _, name := range events.Names() {
		s.unsubs = append(s.unsubs, s.registry.Subscribe(name, s.handle))
	}
}

// Stop releases every subscription acquired by Start. Safe to call more
// than once; after Stop returns the engine receives no further events.
func (s *SyncService) Stop() {
	s.mu.Lock()
	unsubs := s.unsubs
	s.unsubs = nil
	s.started = false
	s.mu.Unlock()

	for _, unsub := range unsubs {
		unsub()
	}
}

// Queues returns the latest queue snapshot in arrival order.
func (s *SyncService) Queues() []models.QueueSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.QueueSnapshot, len(s.queues))
	copy(out, s.queues)
	return out
}

// Pipeline returns the latest pipeline stage counters.
func (s *SyncService) Pipeline() []events.PipelineStage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]events.PipelineStage, len(s.pipeline))
	copy(out, s.pipeline)
	return out
}

// Stats returns the latest pushed dashboard stats, if any arrived yet.
func (s *SyncService) Stats() (models.DashboardStats, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.stats == nil {
		return models.DashboardStats{}, false
	}
	return *s.stats, true
}

func (s *SyncService) handle(ev events.Event) {
	switch e := ev.(type) {
	case events.JobLifecycle:
		s.handleJob(e)
	case events.ReplyReceived:
		s.handleReply(e)
	case events.ContactMutated:
		s.handleContact(e)
	case events.CampaignChanged:
		s.handleCampaign(e)
	case events.QueueStatus:
		s.handleQueues(e)
	case events.PipelineStatus:
		s.handlePipeline(e)
	case events.MetricsUpdate:
		s.handleMetrics(e)
	case events.SystemAlert:
		s.handleAlert(e)
	}

	if s.opts.OnEvent != nil {
		s.opts.OnEvent(ev)
	}
}

// handleJob notifies on terminal phases and stales the resource groups a
// finished job may have changed. Started/progress phases surface only via
// direct state, never as toasts.
func (s *SyncService) handleJob(e events.JobLifecycle) {
	switch e.Phase {
	case events.JobPhaseCompleted:
		s.toasts.Present(notify.Request{
			Title:    "Job Completed",
			Body:     e.JobType,
			Severity: notify.SeverityInfo,
			Duration: toastDuration,
		})
	case events.JobPhaseFailed:
		body := e.Error
		if body == "" {
			body = "The job did not finish"
		}
		s.toasts.Present(notify.Request{
			Title:    "Job Failed",
			Body:     body,
			Severity: notify.SeverityError,
			Duration: toastDuration,
		})
	default:
		return
	}

	if models.IsLeadProducing(e.JobType) {
		s.cache.Invalidate(GroupContacts)
	}
	if models.IsCampaignJob(e.JobType) {
		s.cache.Invalidate(GroupCampaigns)
	}
}

// handleReply always stales contacts and campaigns: a reply can flip a
// contact's status and pause its enrollments.
func (s *SyncService) handleReply(e events.ReplyReceived) {
	s.cache.Invalidate(GroupContacts)
	s.cache.Invalidate(GroupCampaigns)

	if !s.opts.ShowReplyToasts {
		return
	}
	name := e.ContactDisplayName
	if name == "" {
		name = e.ContactEmail
	}
	if name == "" {
		name = "Contact"
	}
	s.toasts.Present(notify.Request{
		Title:    "🎉 New Reply",
		Body:     name + " replied via " + string(e.Channel),
		Severity: notify.SeverityInfo,
		Duration: replyToastDuration,
	})
}

func (s *SyncService) handleContact(e events.ContactMutated) {
	s.cache.Invalidate(KeyContactsList + "*")
	s.cache.Invalidate(KeyContactsStats)
}

func (s *SyncService) handleCampaign(e events.CampaignChanged) {
	s.cache.Invalidate(GroupCampaigns)
}

// handleQueues replaces the latest snapshot wholesale; queue counters are
// live telemetry, not a cached resource.
func (s *SyncService) handleQueues(e events.QueueStatus) {
	s.mu.Lock()
	s.queues = e.Queues
	s.mu.Unlock()
}

func (s *SyncService) handlePipeline(e events.PipelineStatus) {
	s.mu.Lock()
	s.pipeline = e.Stages
	s.mu.Unlock()
}

func (s *SyncService) handleMetrics(e events.MetricsUpdate) {
	s.mu.Lock()
	stats := e.Stats
	s.stats = &stats
	s.mu.Unlock()
}

// handleAlert maps backend severity 1:1 onto toast severity. Critical
// alerts are sticky until the user dismisses them.
func (s *SyncService) handleAlert(e events.SystemAlert) {
	duration := toastDuration
	if e.Level == events.AlertCritical {
		duration = 0
	}
	body := e.Message
	if e.ActionHint != "" {
		body += ". " + e.ActionHint
	}
	s.toasts.Present(notify.Request{
		Title:    e.Title,
		Body:     body,
		Severity: notify.Severity(e.Level),
		Duration: duration,
	})
}
