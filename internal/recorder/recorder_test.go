package recorder

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hertelukas/jellyfin/internal/models"
)

// endlessStream produces data forever with a short pause per chunk, like a
// live source that never ends.
type endlessStream struct {
	chunk []byte
	delay time.Duration
}

func (s *endlessStream) Read(p []byte) (int, error) {
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	return copy(p, s.chunk), nil
}

func TestRecorder_RecordFromStream_StopsAtDuration(t *testing.T) {
	target := filepath.Join(t.TempDir(), "capture.ts")
	stream := &endlessStream{chunk: bytes.Repeat([]byte{0x47}, 188), delay: 5 * time.Millisecond}

	start := time.Now()
	err := New().RecordFromStream(context.Background(), stream, target, 200*time.Millisecond, nil)
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.GreaterOrEqual(t, elapsed, 150*time.Millisecond)
	assert.Less(t, elapsed, time.Second)

	info, statErr := os.Stat(target)
	require.NoError(t, statErr)
	assert.Positive(t, info.Size())
}

func TestRecorder_RecordFromStream_ExternalCancel(t *testing.T) {
	target := filepath.Join(t.TempDir(), "capture.ts")
	stream := &endlessStream{chunk: bytes.Repeat([]byte{0x47}, 188), delay: 5 * time.Millisecond}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(80 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	err := New().RecordFromStream(ctx, stream, target, time.Hour, nil)

	require.NoError(t, err)
	assert.Less(t, time.Since(start), time.Second)

	// The partial capture survives the cancel.
	info, statErr := os.Stat(target)
	require.NoError(t, statErr)
	assert.Positive(t, info.Size())
}

func TestRecorder_RecordFromStream_SourceEndIsClean(t *testing.T) {
	target := filepath.Join(t.TempDir(), "capture.ts")

	err := New().RecordFromStream(context.Background(), strings.NewReader("finite payload"), target, time.Hour, nil)

	require.NoError(t, err)
	data, readErr := os.ReadFile(target)
	require.NoError(t, readErr)
	assert.Equal(t, "finite payload", string(data))
}

func TestRecorder_RecordFromStream_OnStartedFiresBeforeFirstByte(t *testing.T) {
	target := filepath.Join(t.TempDir(), "capture.ts")

	var calls atomic.Int32
	var sizeAtStart int64 = -1
	onStarted := func() {
		calls.Add(1)
		if info, err := os.Stat(target); err == nil {
			sizeAtStart = info.Size()
		}
	}

	err := New().RecordFromStream(context.Background(), strings.NewReader("payload"), target, time.Hour, onStarted)

	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())
	// The file existed but was still empty when the signal fired.
	assert.Zero(t, sizeAtStart)
}

func TestRecorder_RecordFromStream_InvalidTarget(t *testing.T) {
	err := New().RecordFromStream(context.Background(), strings.NewReader("x"), "/", time.Second, nil)

	assert.ErrorIs(t, err, models.ErrInvalidTarget)
}

func TestRecorder_RecordFromURL(t *testing.T) {
	payload := bytes.Repeat([]byte{0x47}, 4096)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "video/mp2t")
		_, _ = w.Write(payload)
	}))
	defer server.Close()

	target := filepath.Join(t.TempDir(), "capture.ts")
	err := New().RecordFromURL(context.Background(), server.URL, target, time.Hour, nil)

	require.NoError(t, err)
	data, readErr := os.ReadFile(target)
	require.NoError(t, readErr)
	assert.Equal(t, payload, data)
}

func TestRecorder_RecordFromURL_BoundedOnEndlessBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher := w.(http.Flusher)
		chunk := bytes.Repeat([]byte{0x47}, 188)
		for {
			if _, err := w.Write(chunk); err != nil {
				return
			}
			flusher.Flush()
			select {
			case <-r.Context().Done():
				return
			case <-time.After(5 * time.Millisecond):
			}
		}
	}))
	defer server.Close()

	target := filepath.Join(t.TempDir(), "capture.ts")
	start := time.Now()
	err := New().RecordFromURL(context.Background(), server.URL, target, 200*time.Millisecond, nil)

	require.NoError(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)

	info, statErr := os.Stat(target)
	require.NoError(t, statErr)
	assert.Positive(t, info.Size())
}

func TestRecorder_RecordFromURL_UpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	target := filepath.Join(t.TempDir(), "capture.ts")
	err := New().RecordFromURL(context.Background(), server.URL, target, time.Second, nil)

	var statusErr *models.UpstreamStatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)

	// Acquisition failed, so no file was created.
	_, statErr := os.Stat(target)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRecorder_RecordFromURL_NoRetryOnRefusedConnection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	target := filepath.Join(t.TempDir(), "capture.ts")
	err := New().RecordFromURL(context.Background(), server.URL, target, time.Second, nil)

	assert.Error(t, err)
}

func TestRecorder_CreatesParentDirectories(t *testing.T) {
	target := filepath.Join(t.TempDir(), "nested", "deeper", "capture.ts")

	err := New().RecordFromStream(context.Background(), strings.NewReader("data"), target, time.Second, nil)

	require.NoError(t, err)
	assert.FileExists(t, target)
}
