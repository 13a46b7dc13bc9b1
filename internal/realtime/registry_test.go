package realtime

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reachforge/reachforge-console/internal/events"
)

func alertEvent(t *testing.T, title string) events.Event {
	t.Helper()
	ev, err := events.Decode(events.Envelope{
		Event:   events.NameSystemAlert,
		Payload: json.RawMessage(`{"level":"info","title":"` + title + `","message":"m"}`),
	})
	require.NoError(t, err)
	return ev
}

func TestSubscribeUnsubscribePairsLeaveNothing(t *testing.T) {
	r := NewRegistry(nil)

	var unsubs []func()
	for i := 0; i < 10; i++ {
		unsubs = append(unsubs, r.Subscribe(events.NameSystemAlert, func(events.Event) {}))
	}
	assert.Equal(t, 10, r.Count(events.NameSystemAlert))

	for _, unsub := range unsubs {
		unsub()
	}
	assert.Equal(t, 0, r.Count(events.NameSystemAlert))
}

func TestUnsubscribeRemovesExactlyOne(t *testing.T) {
	r := NewRegistry(nil)

	var got []string
	unsubA := r.Subscribe(events.NameSystemAlert, func(events.Event) { got = append(got, "a") })
	r.Subscribe(events.NameSystemAlert, func(events.Event) { got = append(got, "b") })

	unsubA()
	r.Dispatch(alertEvent(t, "t"))
	assert.Equal(t, []string{"b"}, got)
}

func TestUnsubscribeIsIdempotent(t *testing.T) {
	r := NewRegistry(nil)
	unsub := r.Subscribe(events.NameSystemAlert, func(events.Event) {})
	unsub()
	unsub() // second call must not remove someone else's registration

	r.Subscribe(events.NameSystemAlert, func(events.Event) {})
	assert.Equal(t, 1, r.Count(events.NameSystemAlert))
}

func TestDispatchInsertionOrder(t *testing.T) {
	r := NewRegistry(nil)

	var got []int
	for i := 0; i < 5; i++ {
		i := i
		r.Subscribe(events.NameSystemAlert, func(events.Event) { got = append(got, i) })
	}
	r.Dispatch(alertEvent(t, "order"))
	assert.Equal(t, []int{0, 1, 2, 3, 4}, got)
}

func TestPanickingHandlerDoesNotBlockOthers(t *testing.T) {
	r := NewRegistry(nil)

	var delivered bool
	r.Subscribe(events.NameSystemAlert, func(events.Event) { panic("boom") })
	r.Subscribe(events.NameSystemAlert, func(events.Event) { delivered = true })

	require.NotPanics(t, func() { r.Dispatch(alertEvent(t, "t")) })
	assert.True(t, delivered)
}

func TestDispatchOnlyMatchingName(t *testing.T) {
	r := NewRegistry(nil)

	var alerts, replies int
	r.Subscribe(events.NameSystemAlert, func(events.Event) { alerts++ })
	r.Subscribe(events.NameReplyReceived, func(events.Event) { replies++ })

	r.Dispatch(alertEvent(t, "t"))
	assert.Equal(t, 1, alerts)
	assert.Equal(t, 0, replies)
}

func TestSubscribeBeforeAnyConnectionIsHeld(t *testing.T) {
	// The registry exists independently of the socket: a subscription made
	// before any connection is serviced by the first dispatch.
	r := NewRegistry(nil)

	var got int
	r.Subscribe(events.NameSystemAlert, func(events.Event) { got++ })
	r.Dispatch(alertEvent(t, "first"))
	assert.Equal(t, 1, got)
}
