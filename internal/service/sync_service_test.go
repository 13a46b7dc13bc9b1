package service

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reachforge/reachforge-console/internal/events"
	"github.com/reachforge/reachforge-console/internal/models"
	"github.com/reachforge/reachforge-console/internal/notify"
	"github.com/reachforge/reachforge-console/internal/realtime"
)

// recordingCache captures invalidation patterns in call order.
type recordingCache struct {
	mu       sync.Mutex
	patterns []string
}

func (r *recordingCache) Invalidate(pattern string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.patterns = append(r.patterns, pattern)
	return 1
}

func (r *recordingCache) calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.patterns))
	copy(out, r.patterns)
	return out
}

// recordingPresenter captures every toast request.
type recordingPresenter struct {
	mu     sync.Mutex
	toasts []notify.Request
}

func (r *recordingPresenter) Present(req notify.Request) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.toasts = append(r.toasts, req)
	return "toast-id"
}

func (r *recordingPresenter) calls() []notify.Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]notify.Request, len(r.toasts))
	copy(out, r.toasts)
	return out
}

type engineFixture struct {
	registry *realtime.Registry
	cache    *recordingCache
	toasts   *recordingPresenter
	engine   *SyncService
}

func newEngineFixture(t *testing.T, opts Options) *engineFixture {
	t.Helper()
	f := &engineFixture{
		registry: realtime.NewRegistry(nil),
		cache:    &recordingCache{},
		toasts:   &recordingPresenter{},
	}
	f.engine = NewSyncService(f.registry, f.cache, f.toasts, nil, opts)
	f.engine.Start()
	t.Cleanup(f.engine.Stop)
	return f
}

func TestCompletedLeadJobInvalidatesContacts(t *testing.T) {
	f := newEngineFixture(t, Options{ShowReplyToasts: true})

	f.registry.Dispatch(events.JobLifecycle{
		Phase:   events.JobPhaseCompleted,
		JobID:   "job-1",
		JobType: "scrape_leads",
	})

	assert.Equal(t, []string{GroupContacts}, f.cache.calls())
	toasts := f.toasts.calls()
	require.Len(t, toasts, 1)
	assert.Equal(t, "Job Completed", toasts[0].Title)
	assert.Equal(t, "scrape_leads", toasts[0].Body)
	assert.Equal(t, notify.SeverityInfo, toasts[0].Severity)
	assert.Equal(t, toastDuration, toasts[0].Duration)
}

func TestCompletedCampaignJobInvalidatesCampaigns(t *testing.T) {
	f := newEngineFixture(t, Options{})

	f.registry.Dispatch(events.JobLifecycle{
		Phase:   events.JobPhaseCompleted,
		JobID:   "job-2",
		JobType: "campaign_enroll",
	})

	assert.Equal(t, []string{GroupCampaigns}, f.cache.calls())
}

func TestFailedJobToastCarriesErrorDetail(t *testing.T) {
	f := newEngineFixture(t, Options{})

	f.registry.Dispatch(events.JobLifecycle{
		Phase:   events.JobPhaseFailed,
		JobID:   "job-3",
		JobType: "enrich_leads",
		Error:   "provider quota exceeded",
	})
	f.registry.Dispatch(events.JobLifecycle{
		Phase:   events.JobPhaseFailed,
		JobID:   "job-4",
		JobType: "enrich_leads",
	})

	toasts := f.toasts.calls()
	require.Len(t, toasts, 2)
	assert.Equal(t, "Job Failed", toasts[0].Title)
	assert.Equal(t, "provider quota exceeded", toasts[0].Body)
	assert.Equal(t, notify.SeverityError, toasts[0].Severity)
	assert.Equal(t, "The job did not finish", toasts[1].Body)
}

func TestNonTerminalJobPhasesAreSilent(t *testing.T) {
	f := newEngineFixture(t, Options{ShowReplyToasts: true})

	progress := 40
	f.registry.Dispatch(events.JobLifecycle{Phase: events.JobPhaseStarted, JobID: "j", JobType: "scrape_leads"})
	f.registry.Dispatch(events.JobLifecycle{Phase: events.JobPhaseProgress, JobID: "j", JobType: "scrape_leads", Progress: &progress})

	assert.Empty(t, f.cache.calls(), "running jobs must not stale caches")
	assert.Empty(t, f.toasts.calls(), "running jobs must not toast")
}

func TestReplyInvalidatesBothGroupsAndToasts(t *testing.T) {
	f := newEngineFixture(t, Options{ShowReplyToasts: true})

	f.registry.Dispatch(events.ReplyReceived{
		ReplyID:            "r-1",
		ContactID:          "c-1",
		Channel:            models.ChannelLinkedIn,
		ContactDisplayName: "Dana Okafor",
	})

	assert.Equal(t, []string{GroupContacts, GroupCampaigns}, f.cache.calls())
	toasts := f.toasts.calls()
	require.Len(t, toasts, 1)
	assert.Equal(t, "🎉 New Reply", toasts[0].Title)
	assert.Equal(t, "Dana Okafor replied via linkedin", toasts[0].Body)
	assert.Equal(t, replyToastDuration, toasts[0].Duration)
}

func TestReplyToastNameFallsBackToEmailThenGeneric(t *testing.T) {
	f := newEngineFixture(t, Options{ShowReplyToasts: true})

	f.registry.Dispatch(events.ReplyReceived{
		ReplyID: "r-2", ContactID: "c-2", Channel: models.ChannelEmail,
		ContactEmail: "dana@example.com",
	})
	f.registry.Dispatch(events.ReplyReceived{
		ReplyID: "r-3", ContactID: "c-3", Channel: models.ChannelEmail,
	})

	toasts := f.toasts.calls()
	require.Len(t, toasts, 2)
	assert.Equal(t, "dana@example.com replied via email", toasts[0].Body)
	assert.Equal(t, "Contact replied via email", toasts[1].Body)
}

func TestReplyToastSuppressionStillInvalidates(t *testing.T) {
	f := newEngineFixture(t, Options{ShowReplyToasts: false})

	f.registry.Dispatch(events.ReplyReceived{
		ReplyID: "r-4", ContactID: "c-4", Channel: models.ChannelEmail,
	})

	assert.Equal(t, []string{GroupContacts, GroupCampaigns}, f.cache.calls())
	assert.Empty(t, f.toasts.calls(), "suppressed surfaces still keep their caches honest")
}

func TestContactMutationInvalidatesListsAndStats(t *testing.T) {
	f := newEngineFixture(t, Options{})

	f.registry.Dispatch(events.ContactMutated{Kind: events.MutationUpdated, ContactID: "c-5"})

	assert.Equal(t, []string{KeyContactsList + "*", KeyContactsStats}, f.cache.calls())
	assert.Empty(t, f.toasts.calls())
}

func TestCampaignChangeInvalidatesCampaigns(t *testing.T) {
	f := newEngineFixture(t, Options{})

	f.registry.Dispatch(events.CampaignChanged{CampaignID: "cp-1"})
	f.registry.Dispatch(events.CampaignChanged{CampaignID: "cp-1", ContactID: "c-6", Enrollment: true})

	assert.Equal(t, []string{GroupCampaigns, GroupCampaigns}, f.cache.calls())
}

func TestTelemetrySnapshotsReplaceWholesale(t *testing.T) {
	f := newEngineFixture(t, Options{})

	f.registry.Dispatch(events.QueueStatus{Queues: []models.QueueSnapshot{
		{Name: "email", Pending: 12, Active: 3},
		{Name: "linkedin", Pending: 4, Active: 1},
	}})
	f.registry.Dispatch(events.QueueStatus{Queues: []models.QueueSnapshot{
		{Name: "email", Pending: 2, Active: 1},
	}})

	queues := f.engine.Queues()
	require.Len(t, queues, 1, "a snapshot replaces, never merges")
	assert.Equal(t, "email", queues[0].Name)
	assert.Equal(t, 2, queues[0].Pending)

	f.registry.Dispatch(events.PipelineStatus{Stages: []events.PipelineStage{
		{Name: "scrape", State: "running", Processed: 120},
	}})
	pipeline := f.engine.Pipeline()
	require.Len(t, pipeline, 1)
	assert.Equal(t, "scrape", pipeline[0].Name)

	_, ok := f.engine.Stats()
	assert.False(t, ok, "no stats until the first metrics push")
	f.registry.Dispatch(events.MetricsUpdate{Stats: models.DashboardStats{ContactsTotal: 512}})
	stats, ok := f.engine.Stats()
	require.True(t, ok)
	assert.Equal(t, 512, stats.ContactsTotal)
}

func TestSystemAlertSeverityMapping(t *testing.T) {
	f := newEngineFixture(t, Options{})

	f.registry.Dispatch(events.SystemAlert{
		Level: events.AlertWarning, Title: "Queue backlog",
		Message: "Email queue is growing", ActionHint: "Pause low-priority campaigns",
	})
	f.registry.Dispatch(events.SystemAlert{
		Level: events.AlertCritical, Title: "Backend degraded",
		Message: "Worker pool is down",
	})

	toasts := f.toasts.calls()
	require.Len(t, toasts, 2)
	assert.Equal(t, notify.SeverityWarning, toasts[0].Severity)
	assert.Equal(t, "Email queue is growing. Pause low-priority campaigns", toasts[0].Body)
	assert.Equal(t, toastDuration, toasts[0].Duration)

	assert.Equal(t, notify.SeverityCritical, toasts[1].Severity)
	assert.Zero(t, toasts[1].Duration, "critical alerts stay until dismissed")
}

func TestStopReleasesEverySubscription(t *testing.T) {
	f := newEngineFixture(t, Options{ShowReplyToasts: true})
	for _, name := range events.Names() {
		require.Equal(t, 1, f.registry.Count(name), name)
	}

	f.engine.Stop()
	f.engine.Stop() // idempotent
	for _, name := range events.Names() {
		assert.Zero(t, f.registry.Count(name), name)
	}

	f.registry.Dispatch(events.ReplyReceived{ReplyID: "r-9", ContactID: "c-9", Channel: models.ChannelEmail})
	assert.Empty(t, f.cache.calls())
	assert.Empty(t, f.toasts.calls())
}

func TestOnEventForwardsAfterHandling(t *testing.T) {
	var forwarded []events.Event
	var mu sync.Mutex
	f := newEngineFixture(t, Options{OnEvent: func(ev events.Event) {
		mu.Lock()
		forwarded = append(forwarded, ev)
		mu.Unlock()
	}})

	f.registry.Dispatch(events.ContactMutated{Kind: events.MutationCreated, ContactID: "c-10"})

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, forwarded, 1)
	assert.Equal(t, events.Name("contact:created"), forwarded[0].EventName())
	// The engine's own invalidation ran before the forward.
	assert.NotEmpty(t, f.cache.calls())
}

func TestStartIsIdempotent(t *testing.T) {
	f := newEngineFixture(t, Options{})
	f.engine.Start()

	for _, name := range events.Names() {
		assert.Equal(t, 1, f.registry.Count(name), "double Start must not double-subscribe")
	}

	f.registry.Dispatch(events.CampaignChanged{CampaignID: "cp-2"})
	assert.Equal(t, []string{GroupCampaigns}, f.cache.calls())
}

func TestHandlersRunQuickly(t *testing.T) {
	// Dispatch is synchronous; handlers must not sleep or block.
	f := newEngineFixture(t, Options{ShowReplyToasts: true})

	start := time.Now()
	for i := 0; i < 1000; i++ {
		f.registry.Dispatch(events.ContactMutated{Kind: events.MutationUpdated, ContactID: "c"})
	}
	assert.Less(t, time.Since(start), time.Second)
}
