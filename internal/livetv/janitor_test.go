package livetv

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hertelukas/jellyfin/internal/models"
)

func TestJanitor_InvalidSchedule(t *testing.T) {
	manager := NewSessionManager(&stubProvider{}, time.Second)
	janitor := NewJanitor(manager, time.Minute, "not a cron expression")

	assert.Error(t, janitor.Start())
}

func TestJanitor_SweepsIdleSessions(t *testing.T) {
	provider := &stubProvider{}
	manager := NewSessionManager(provider, time.Second)

	resp, err := manager.OpenLiveStream(context.Background(), &models.LiveStreamRequest{OpenToken: "tok-1"})
	require.NoError(t, err)
	id := resp.MediaSource.LiveStreamID
	require.NoError(t, manager.CloseLiveStream(context.Background(), id))

	janitor := NewJanitor(manager, 0, "* * * * * *")
	require.NoError(t, janitor.Start())
	defer janitor.Stop()

	require.Eventually(t, func() bool {
		_, ok := manager.Session(id)
		return !ok
	}, 3*time.Second, 50*time.Millisecond)
}
