package notify

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresentStacksInInsertionOrder(t *testing.T) {
	c := NewCenter()
	t.Cleanup(c.Close)

	first := c.Present(Request{Title: "Job Completed", Severity: SeverityInfo, Duration: time.Minute})
	second := c.Present(Request{Title: "Job Failed", Severity: SeverityError, Duration: time.Minute})

	active := c.Active()
	require.Len(t, active, 2)
	assert.Equal(t, first, active[0].ID)
	assert.Equal(t, second, active[1].ID)
	assert.Equal(t, "Job Completed", active[0].Title)
	assert.NotEqual(t, first, second)
}

func TestZeroDurationMeansSticky(t *testing.T) {
	c := NewCenter()
	t.Cleanup(c.Close)

	id := c.Present(Request{Title: "Backend degraded", Severity: SeverityCritical})

	active := c.Active()
	require.Len(t, active, 1)
	assert.True(t, active[0].Sticky)

	// Sticky toasts outlive any auto-dismiss horizon; only Dismiss removes them.
	time.Sleep(50 * time.Millisecond)
	assert.Len(t, c.Active(), 1)
	assert.True(t, c.Dismiss(id))
	assert.Empty(t, c.Active())
}

func TestTimedToastAutoDismisses(t *testing.T) {
	c := NewCenter()
	t.Cleanup(c.Close)

	c.Present(Request{Title: "Saved", Severity: SeverityInfo, Duration: 20 * time.Millisecond})

	require.Len(t, c.Active(), 1)
	assert.False(t, c.Active()[0].Sticky)
	assert.Eventually(t, func() bool {
		return len(c.Active()) == 0
	}, time.Second, 5*time.Millisecond)
}

func TestDismissUnknownID(t *testing.T) {
	c := NewCenter()
	t.Cleanup(c.Close)

	assert.False(t, c.Dismiss("no-such-toast"))

	id := c.Present(Request{Title: "once", Severity: SeverityInfo, Duration: time.Minute})
	assert.True(t, c.Dismiss(id))
	assert.False(t, c.Dismiss(id), "a dismissed toast stays gone")
}

func TestOnChangeFiresForPresentAndDismiss(t *testing.T) {
	c := NewCenter()
	t.Cleanup(c.Close)

	var changes atomic.Int64
	remove := c.OnChange(func() { changes.Add(1) })

	id := c.Present(Request{Title: "a", Severity: SeverityInfo, Duration: time.Minute})
	c.Dismiss(id)
	assert.EqualValues(t, 2, changes.Load())

	remove()
	c.Present(Request{Title: "b", Severity: SeverityInfo, Duration: time.Minute})
	assert.EqualValues(t, 2, changes.Load(), "removed listeners stay silent")
}

func TestCloseDropsStackAndIgnoresLatePresents(t *testing.T) {
	c := NewCenter()

	c.Present(Request{Title: "pending", Severity: SeverityWarning, Duration: time.Minute})
	c.Close()

	assert.Empty(t, c.Active())
	assert.Empty(t, c.Present(Request{Title: "late", Severity: SeverityInfo}))
	assert.Empty(t, c.Active())
}

func TestSeverityDestructive(t *testing.T) {
	assert.False(t, SeverityInfo.Destructive())
	assert.False(t, SeverityWarning.Destructive())
	assert.True(t, SeverityError.Destructive())
	assert.True(t, SeverityCritical.Destructive())
}
