// Package service contains the application services gluing transport to
// the playback, live tv, and recording internals.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hertelukas/jellyfin/internal/livetv"
	"github.com/hertelukas/jellyfin/internal/models"
	"github.com/hertelukas/jellyfin/internal/recorder"
)

// ErrRecordingSourceRequired indicates a start request naming neither a
// live stream nor a URL, or both.
var ErrRecordingSourceRequired = errors.New("exactly one of live_stream_id or url is required")

// StartRecordingOptions describes one capture to start.
type StartRecordingOptions struct {
	// LiveStreamID records from an already-open live session.
	LiveStreamID string

	// URL records from a direct stream URL instead.
	URL string

	// FileName inside the recording directory, "<id>.ts" when empty.
	FileName string

	// Duration bounds the capture, the configured default when zero.
	Duration time.Duration
}

// RecordingInfo is the externally visible state of one recording.
type RecordingInfo struct {
	ID           string        `json:"id"`
	LiveStreamID string        `json:"live_stream_id,omitempty"`
	URL          string        `json:"url,omitempty"`
	Path         string        `json:"path"`
	StartedAt    time.Time     `json:"started_at"`
	Duration     time.Duration `json:"duration"`
}

type activeRecording struct {
	info   RecordingInfo
	cancel context.CancelFunc
	done   chan struct{}
	runErr error
}

// RecordingService starts, stops, and lists bounded stream recordings.
// Each recording runs in its own goroutine, detached from the request
// that started it, and is stoppable from outside via Stop.
type RecordingService struct {
	recorder        *recorder.Recorder
	sessions        *livetv.SessionManager
	directory       string
	defaultDuration time.Duration
	logger          *slog.Logger

	mu     sync.Mutex
	active map[string]*activeRecording
}

// NewRecordingService creates the service. sessions may be nil when only
// URL recordings are served.
func NewRecordingService(rec *recorder.Recorder, sessions *livetv.SessionManager, directory string, defaultDuration time.Duration) *RecordingService {
	return &RecordingService{
		recorder:        rec,
		sessions:        sessions,
		directory:       directory,
		defaultDuration: defaultDuration,
		logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
		active:          make(map[string]*activeRecording),
	}
}

// WithLogger sets the logger for recording lifecycle events.
func (s *RecordingService) WithLogger(logger *slog.Logger) *RecordingService {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// Start launches a recording and returns once it is actually producing
// output (or has failed to start). The recording keeps running after the
// caller's request ends; only Stop or the bound terminates it.
func (s *RecordingService) Start(ctx context.Context, opts StartRecordingOptions) (*RecordingInfo, error) {
	if (opts.LiveStreamID == "") == (opts.URL == "") {
		return nil, ErrRecordingSourceRequired
	}

	var stream io.Reader
	if opts.LiveStreamID != "" {
		if s.sessions == nil {
			return nil, models.ErrLiveStreamNotFound
		}
		session, ok := s.sessions.Session(opts.LiveStreamID)
		if !ok {
			return nil, models.ErrLiveStreamNotFound
		}
		stream = session.Stream()
	}

	duration := opts.Duration
	if duration <= 0 {
		duration = s.defaultDuration
	}

	id := uuid.NewString()
	fileName := opts.FileName
	if fileName == "" {
		fileName = id + ".ts"
	}

	rec := &activeRecording{
		info: RecordingInfo{
			ID:           id,
			LiveStreamID: opts.LiveStreamID,
			URL:          opts.URL,
			Path:         filepath.Join(s.directory, fileName),
			Duration:     duration,
		},
		done: make(chan struct{}),
	}

	// The recording outlives the starting request.
	recCtx, cancel := context.WithCancel(context.Background())
	rec.cancel = cancel

	started := make(chan struct{})
	onStarted := func() {
		// List copies rec.info under s.mu, so the stamp must take the
		// same lock.
		s.mu.Lock()
		rec.info.StartedAt = time.Now()
		s.mu.Unlock()
		close(started)
	}

	s.mu.Lock()
	s.active[id] = rec
	s.mu.Unlock()

	go func() {
		defer close(rec.done)
		if opts.URL != "" {
			rec.runErr = s.recorder.RecordFromURL(recCtx, opts.URL, rec.info.Path, duration, onStarted)
		} else {
			rec.runErr = s.recorder.RecordFromStream(recCtx, stream, rec.info.Path, duration, onStarted)
		}

		s.mu.Lock()
		delete(s.active, id)
		s.mu.Unlock()

		if rec.runErr != nil {
			s.logger.Error("recording failed",
				slog.String("recording_id", id),
				slog.String("error", rec.runErr.Error()))
			return
		}
		s.logger.Info("recording finished", slog.String("recording_id", id))
	}()

	select {
	case <-started:
		info := rec.info
		return &info, nil
	case <-rec.done:
		select {
		case <-started:
			// A short source can finish before the select observed the
			// start signal; that is still a successful start.
			info := rec.info
			return &info, nil
		default:
		}
		if rec.runErr != nil {
			return nil, fmt.Errorf("recording did not start: %w", rec.runErr)
		}
		return nil, models.ErrSourceUnavailable
	case <-ctx.Done():
		cancel()
		return nil, ctx.Err()
	}
}

// Stop cancels a running recording and waits for its file to be closed.
func (s *RecordingService) Stop(id string) error {
	s.mu.Lock()
	rec, ok := s.active[id]
	s.mu.Unlock()
	if !ok {
		return models.ErrRecordingNotFound
	}

	rec.cancel()
	<-rec.done
	s.logger.Info("recording stopped", slog.String("recording_id", id))
	return nil
}

// List returns the running recordings, oldest first.
func (s *RecordingService) List() []RecordingInfo {
	s.mu.Lock()
	infos := make([]RecordingInfo, 0, len(s.active))
	for _, rec := range s.active {
		infos = append(infos, rec.info)
	}
	s.mu.Unlock()

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].StartedAt.Before(infos[j].StartedAt)
	})
	return infos
}

// StopAll cancels every running recording, used during shutdown.
func (s *RecordingService) StopAll() {
	s.mu.Lock()
	recs := make([]*activeRecording, 0, len(s.active))
	for _, rec := range s.active {
		recs = append(recs, rec)
	}
	s.mu.Unlock()

	for _, rec := range recs {
		rec.cancel()
		<-rec.done
	}
}
