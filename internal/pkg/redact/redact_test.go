package redact

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKey(t *testing.T) {
	assert.Empty(t, Key(""))
	assert.Equal(t, "***REDACTED***", Key("short"))
	assert.Equal(t, "...3xyz", Key("rf_live_abc123xyz"))
	assert.NotContains(t, Key("rf_live_abc123xyz"), "abc")
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "plain error", Message("plain error"))
	assert.Equal(t,
		`401 unauthorized: Bearer ***REDACTED*** rejected`,
		Message(`401 unauthorized: Bearer rf_live_secret rejected`))
	assert.NotContains(t, Message(`token "Bearer rf_live_secret" expired`), "rf_live_secret")
}
