package honcloud

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestTokenRefreshSchedulerLifetime(t *testing.T) {

	s := NewSession(Config{}, zap.NewNop())

	assert.NoError(t, s.startTokenRefresh())

	// the scheduler runs on its own context, not the Open caller's, so it
	// must still be up well after Open has returned
	time.Sleep(100 * time.Millisecond)
	assert.True(t, s.scheduler.IsStarted(), "refresh job runs for the session lifetime")

	assert.NoError(t, s.Close())
	assert.False(t, s.scheduler.IsStarted(), "close stops the refresh job")
}
