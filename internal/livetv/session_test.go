package livetv

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hertelukas/jellyfin/internal/models"
)

type stubStream struct {
	io.Reader
	closed atomic.Bool
}

func newStubStream() *stubStream {
	return &stubStream{Reader: strings.NewReader("stream-bytes")}
}

func (s *stubStream) Close() error {
	s.closed.Store(true)
	return nil
}

type stubProvider struct {
	mu        sync.Mutex
	openCalls int
	delay     time.Duration
	err       error
	streams   []*stubStream
}

func (p *stubProvider) Open(ctx context.Context, openToken string) (*models.MediaSource, io.ReadCloser, error) {
	p.mu.Lock()
	p.openCalls++
	p.mu.Unlock()

	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		}
	}
	if p.err != nil {
		return nil, nil, p.err
	}

	stream := newStubStream()
	p.mu.Lock()
	p.streams = append(p.streams, stream)
	p.mu.Unlock()

	return &models.MediaSource{
		ID:              "src-" + openToken,
		Protocol:        models.ProtocolLive,
		Container:       "ts",
		RequiresOpening: true,
		OpenToken:       openToken,
	}, stream, nil
}

func (p *stubProvider) calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.openCalls
}

func TestSessionManager_OpenLiveStream(t *testing.T) {
	provider := &stubProvider{}
	manager := NewSessionManager(provider, time.Second)

	resp, err := manager.OpenLiveStream(context.Background(), &models.LiveStreamRequest{
		OpenToken:     "tok-1",
		PlaySessionID: "ps-1",
	})

	require.NoError(t, err)
	assert.Equal(t, "ps-1", resp.PlaySessionID)
	assert.True(t, resp.MediaSource.IsAttached())
	assert.False(t, resp.MediaSource.RequiresOpening)
	assert.NotEmpty(t, resp.MediaSource.LiveStreamID)

	session, ok := manager.Session(resp.MediaSource.LiveStreamID)
	require.True(t, ok)
	assert.Equal(t, 1, session.ConsumerCount())
}

func TestSessionManager_OpenLiveStream_EmptyToken(t *testing.T) {
	manager := NewSessionManager(&stubProvider{}, time.Second)

	_, err := manager.OpenLiveStream(context.Background(), &models.LiveStreamRequest{})

	assert.ErrorIs(t, err, models.ErrInvalidOpenToken)
}

func TestSessionManager_OpenLiveStream_Timeout(t *testing.T) {
	provider := &stubProvider{delay: 500 * time.Millisecond}
	manager := NewSessionManager(provider, 50*time.Millisecond)

	_, err := manager.OpenLiveStream(context.Background(), &models.LiveStreamRequest{OpenToken: "tok-1"})

	assert.ErrorIs(t, err, models.ErrOpenTimeout)
}

func TestSessionManager_OpenLiveStream_ProviderRefusal(t *testing.T) {
	provider := &stubProvider{err: errors.New("tuner busy")}
	manager := NewSessionManager(provider, time.Second)

	_, err := manager.OpenLiveStream(context.Background(), &models.LiveStreamRequest{OpenToken: "tok-1"})

	assert.ErrorIs(t, err, models.ErrSourceUnavailable)
}

// Concurrent opens for the same source must share one provider attach: the
// race losers receive the winner's session instead of opening their own.
func TestSessionManager_OpenLiveStream_SerializesPerSource(t *testing.T) {
	provider := &stubProvider{delay: 50 * time.Millisecond}
	manager := NewSessionManager(provider, time.Second)

	const callers = 8
	ids := make([]string, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			resp, err := manager.OpenLiveStream(context.Background(), &models.LiveStreamRequest{OpenToken: "tok-1"})
			if assert.NoError(t, err) {
				ids[slot] = resp.MediaSource.LiveStreamID
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, provider.calls())
	for _, id := range ids[1:] {
		assert.Equal(t, ids[0], id)
	}

	session, ok := manager.Session(ids[0])
	require.True(t, ok)
	assert.Equal(t, callers, session.ConsumerCount())
}

func TestSessionManager_OpenLiveStream_DistinctSourcesOpenIndependently(t *testing.T) {
	provider := &stubProvider{}
	manager := NewSessionManager(provider, time.Second)

	first, err := manager.OpenLiveStream(context.Background(), &models.LiveStreamRequest{OpenToken: "tok-1"})
	require.NoError(t, err)
	second, err := manager.OpenLiveStream(context.Background(), &models.LiveStreamRequest{OpenToken: "tok-2"})
	require.NoError(t, err)

	assert.Equal(t, 2, provider.calls())
	assert.NotEqual(t, first.MediaSource.LiveStreamID, second.MediaSource.LiveStreamID)
}

func TestSessionManager_CloseLiveStream_Idempotent(t *testing.T) {
	provider := &stubProvider{}
	manager := NewSessionManager(provider, time.Second)

	resp, err := manager.OpenLiveStream(context.Background(), &models.LiveStreamRequest{OpenToken: "tok-1"})
	require.NoError(t, err)
	id := resp.MediaSource.LiveStreamID

	require.NoError(t, manager.CloseLiveStream(context.Background(), id))
	require.NoError(t, manager.CloseLiveStream(context.Background(), id))
	require.NoError(t, manager.CloseLiveStream(context.Background(), "never-opened"))
}

func TestSessionManager_CloseIdle(t *testing.T) {
	provider := &stubProvider{}
	manager := NewSessionManager(provider, time.Second)

	resp, err := manager.OpenLiveStream(context.Background(), &models.LiveStreamRequest{OpenToken: "tok-1"})
	require.NoError(t, err)
	id := resp.MediaSource.LiveStreamID

	// Still consumed: the sweep must not touch it.
	assert.Zero(t, manager.CloseIdle(0))

	require.NoError(t, manager.CloseLiveStream(context.Background(), id))
	assert.Equal(t, 1, manager.CloseIdle(0))

	_, ok := manager.Session(id)
	assert.False(t, ok)
	assert.True(t, provider.streams[0].closed.Load())

	// A fresh open for the same source attaches anew.
	_, err = manager.OpenLiveStream(context.Background(), &models.LiveStreamRequest{OpenToken: "tok-1"})
	require.NoError(t, err)
	assert.Equal(t, 2, provider.calls())
}

func TestSessionManager_CloseIdle_HonorsTTL(t *testing.T) {
	provider := &stubProvider{}
	manager := NewSessionManager(provider, time.Second)

	resp, err := manager.OpenLiveStream(context.Background(), &models.LiveStreamRequest{OpenToken: "tok-1"})
	require.NoError(t, err)
	require.NoError(t, manager.CloseLiveStream(context.Background(), resp.MediaSource.LiveStreamID))

	// Just became idle: a long TTL keeps it alive for a retune.
	assert.Zero(t, manager.CloseIdle(time.Hour))

	joined, err := manager.OpenLiveStream(context.Background(), &models.LiveStreamRequest{OpenToken: "tok-1"})
	require.NoError(t, err)
	assert.Equal(t, resp.MediaSource.LiveStreamID, joined.MediaSource.LiveStreamID)
	assert.Equal(t, 1, provider.calls())
}

// A join racing the idle sweep must never be handed a torn-down session:
// either it lands before the sweep and keeps the session alive, or it
// falls through to a fresh provider attach.
func TestSessionManager_JoinRacingIdleSweepGetsLiveSession(t *testing.T) {
	provider := &stubProvider{}
	manager := NewSessionManager(provider, time.Second)
	ctx := context.Background()

	for i := 0; i < 500; i++ {
		resp, err := manager.OpenLiveStream(ctx, &models.LiveStreamRequest{OpenToken: "tok-1"})
		require.NoError(t, err)
		require.NoError(t, manager.CloseLiveStream(ctx, resp.MediaSource.LiveStreamID))

		var joined *models.LiveStreamResponse
		var joinErr error
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			manager.CloseIdle(0)
		}()
		go func() {
			defer wg.Done()
			joined, joinErr = manager.OpenLiveStream(ctx, &models.LiveStreamRequest{OpenToken: "tok-1"})
		}()
		wg.Wait()

		require.NoError(t, joinErr)
		id := joined.MediaSource.LiveStreamID
		session, ok := manager.Session(id)
		require.True(t, ok, "open returned an untracked live stream id")
		require.NotNil(t, session.Stream(), "open returned a session with a closed stream")

		require.NoError(t, manager.CloseLiveStream(ctx, id))
		manager.CloseIdle(0)
	}
}

func TestSessionManager_AttachedSource(t *testing.T) {
	manager := NewSessionManager(&stubProvider{}, time.Second)

	resp, err := manager.OpenLiveStream(context.Background(), &models.LiveStreamRequest{OpenToken: "tok-1"})
	require.NoError(t, err)

	src, err := manager.AttachedSource(context.Background(), resp.MediaSource.LiveStreamID)
	require.NoError(t, err)
	assert.Equal(t, resp.MediaSource.LiveStreamID, src.LiveStreamID)

	_, err = manager.AttachedSource(context.Background(), "missing")
	assert.ErrorIs(t, err, models.ErrLiveStreamNotFound)
}

func TestSessionManager_Shutdown(t *testing.T) {
	provider := &stubProvider{}
	manager := NewSessionManager(provider, time.Second)

	_, err := manager.OpenLiveStream(context.Background(), &models.LiveStreamRequest{OpenToken: "tok-1"})
	require.NoError(t, err)
	_, err = manager.OpenLiveStream(context.Background(), &models.LiveStreamRequest{OpenToken: "tok-2"})
	require.NoError(t, err)

	manager.Shutdown()

	for _, stream := range provider.streams {
		assert.True(t, stream.closed.Load())
	}
}

func TestInMemoryRegistry(t *testing.T) {
	registry := NewInMemoryRegistry()
	registry.Register("item-1",
		&models.MediaSource{ID: "a"},
		&models.MediaSource{ID: "b"},
	)

	sources, err := registry.MediaSources(context.Background(), "item-1")
	require.NoError(t, err)
	require.Len(t, sources, 2)
	assert.Equal(t, "a", sources[0].ID)

	// Mutating a returned source must not leak into the registry.
	sources[0].Container = "mutated"
	again, err := registry.MediaSources(context.Background(), "item-1")
	require.NoError(t, err)
	assert.Empty(t, again[0].Container)

	_, err = registry.MediaSources(context.Background(), "missing")
	assert.ErrorIs(t, err, models.ErrItemNotFound)

	registry.Remove("item-1")
	_, err = registry.MediaSources(context.Background(), "item-1")
	assert.ErrorIs(t, err, models.ErrItemNotFound)
}
