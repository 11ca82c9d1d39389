package errors

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"nil", nil, ""},
		{"plain", fmt.Errorf("boom"), KindUnknown},
		{"transport", Transport("sessions", "sessions.list", fmt.Errorf("refused")), KindTransport},
		{"wrapped malformed", fmt.Errorf("outer: %w", Malformed("cost", "usage.cost", fmt.Errorf("bad json"))), KindMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestFetchError_MessageAndUnwrap(t *testing.T) {
	err := Transport("agents", "agents.list", context.DeadlineExceeded)

	assert.Equal(t, "agents.list: context deadline exceeded", err.Error())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, err.Retryable())
	assert.False(t, Malformed("agents", "agents.list", nil).Retryable())
}

func TestCapturePanic(t *testing.T) {
	assert.Nil(t, CapturePanic("poller", nil))

	pe := CapturePanic("poller", "kaboom")
	require.NotNil(t, pe)
	assert.Equal(t, "panic in poller: kaboom", pe.Error())
	assert.NotEmpty(t, pe.Stack)
}

func TestErrorCollector(t *testing.T) {
	ec := NewErrorCollector()
	assert.NoError(t, ec.Err())

	ec.Collect(nil)
	ec.Collect(Transport("agents", "agents.list", fmt.Errorf("refused")))
	ec.Collect(Transport("cron", "cron.list", fmt.Errorf("timeout")))

	assert.Equal(t, 2, ec.Len())
	err := ec.Err()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "agents.list: refused")
	assert.Contains(t, err.Error(), "cron.list: timeout")
	assert.Equal(t, KindTransport, KindOf(err))

	ec.Clear()
	assert.Equal(t, 0, ec.Len())
}
