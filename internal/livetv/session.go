package livetv

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hertelukas/jellyfin/internal/models"
)

// Session is one open live stream. The manager owns the underlying byte
// stream; consumers borrow it via Stream.
type Session struct {
	// ID is the live stream id handed to clients.
	ID string

	// OpenToken identifies the source the session was opened from.
	OpenToken string

	mu        sync.Mutex
	source    *models.MediaSource
	stream    io.ReadCloser
	consumers int
	openedAt  time.Time
	idleSince time.Time
	closed    bool
}

// Source returns a clone of the attached source description.
func (s *Session) Source() *models.MediaSource {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.source.Clone()
}

// Stream returns the live byte stream. The caller must not close it; the
// session owns the stream for its whole lifetime.
func (s *Session) Stream() io.Reader {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stream
}

// ConsumerCount returns the number of attached consumers.
func (s *Session) ConsumerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.consumers
}

// tryJoin adds a consumer unless the session is already marked closed.
// A false return means the caller raced the idle sweep and must open a
// fresh session instead.
func (s *Session) tryJoin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.consumers++
	s.idleSince = time.Time{}
	return true
}

// release drops one consumer and reports whether the session just became
// idle.
func (s *Session) release() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.consumers > 0 {
		s.consumers--
	}
	if s.consumers == 0 && s.idleSince.IsZero() {
		s.idleSince = time.Now()
		return true
	}
	return false
}

// reap marks the session closed when it has had no consumers for at
// least ttl. Marking happens under the session lock, so it is atomic
// with respect to tryJoin: a join either lands first and keeps the
// session alive, or observes closed and fails. The caller owns the
// stream teardown after a true return.
func (s *Session) reap(ttl time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.consumers > 0 || s.idleSince.IsZero() || time.Since(s.idleSince) < ttl {
		return false
	}
	s.closed = true
	return true
}

func (s *Session) teardown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.stream != nil {
		_ = s.stream.Close()
		s.stream = nil
	}
}

// SessionManager opens, tracks, and closes live stream sessions. Opens for
// the same source are serialized so concurrent callers share a single
// provider attach; the losers of the race receive the winner's session.
type SessionManager struct {
	provider    Provider
	openTimeout time.Duration
	logger      *slog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
	byToken  map[string]*Session
	tokenMu  map[string]*sync.Mutex
}

// NewSessionManager creates a session manager. openTimeout bounds how long
// a single provider attach may take.
func NewSessionManager(provider Provider, openTimeout time.Duration) *SessionManager {
	return &SessionManager{
		provider:    provider,
		openTimeout: openTimeout,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		sessions:    make(map[string]*Session),
		byToken:     make(map[string]*Session),
		tokenMu:     make(map[string]*sync.Mutex),
	}
}

// WithLogger sets the logger for session lifecycle events.
func (m *SessionManager) WithLogger(logger *slog.Logger) *SessionManager {
	if logger != nil {
		m.logger = logger
	}
	return m
}

// OpenLiveStream opens (or joins) the session for the requested source and
// returns the attached source description. The wait for the provider is
// bounded by the configured open timeout.
func (m *SessionManager) OpenLiveStream(ctx context.Context, req *models.LiveStreamRequest) (*models.LiveStreamResponse, error) {
	if req == nil || req.OpenToken == "" {
		return nil, models.ErrInvalidOpenToken
	}

	// Serialize per source so only one provider attach is in flight.
	lock := m.tokenLock(req.OpenToken)
	lock.Lock()
	defer lock.Unlock()

	m.mu.Lock()
	existing := m.byToken[req.OpenToken]
	m.mu.Unlock()
	// A failed join means the idle sweep reaped the session between the
	// map read and here; the sweep has already removed the map entries,
	// so fall through to a fresh provider open.
	if existing != nil && existing.tryJoin() {
		m.logger.Debug("joined existing live session",
			slog.String("live_stream_id", existing.ID),
			slog.Int("consumers", existing.ConsumerCount()))
		return &models.LiveStreamResponse{
			MediaSource:   existing.Source(),
			PlaySessionID: req.PlaySessionID,
		}, nil
	}

	openCtx, cancel := context.WithTimeout(ctx, m.openTimeout)
	defer cancel()

	source, stream, err := m.provider.Open(openCtx, req.OpenToken)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || openCtx.Err() == context.DeadlineExceeded {
			return nil, models.ErrOpenTimeout
		}
		return nil, fmt.Errorf("%w: %v", models.ErrSourceUnavailable, err)
	}

	session := &Session{
		ID:        uuid.NewString(),
		OpenToken: req.OpenToken,
		source:    source.Clone(),
		stream:    stream,
		consumers: 1,
		openedAt:  time.Now(),
	}
	session.source.MarkOpened(session.ID)

	m.mu.Lock()
	m.sessions[session.ID] = session
	m.byToken[req.OpenToken] = session
	m.mu.Unlock()

	m.logger.Info("live session opened",
		slog.String("live_stream_id", session.ID),
		slog.String("source_id", session.source.ID))

	return &models.LiveStreamResponse{
		MediaSource:   session.Source(),
		PlaySessionID: req.PlaySessionID,
	}, nil
}

// AttachedSource returns the source of an open session.
func (m *SessionManager) AttachedSource(_ context.Context, liveStreamID string) (*models.MediaSource, error) {
	session, ok := m.Session(liveStreamID)
	if !ok {
		return nil, models.ErrLiveStreamNotFound
	}
	return session.Source(), nil
}

// Session returns the live session for an id.
func (m *SessionManager) Session(liveStreamID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[liveStreamID]
	return session, ok
}

// CloseLiveStream releases one consumer of the session. Unknown ids are a
// no-op, so repeated closes are safe. The session's resources are not torn
// down immediately when the last consumer leaves; the idle sweep reclaims
// them after the configured grace period, which keeps retunes cheap.
func (m *SessionManager) CloseLiveStream(_ context.Context, liveStreamID string) error {
	session, ok := m.Session(liveStreamID)
	if !ok {
		return nil
	}
	if session.release() {
		m.logger.Debug("live session idle",
			slog.String("live_stream_id", liveStreamID))
	}
	return nil
}

// CloseIdle tears down every session that has been without consumers for
// at least ttl. It returns the number of sessions closed.
func (m *SessionManager) CloseIdle(ttl time.Duration) int {
	m.mu.Lock()
	idle := make([]*Session, 0)
	for _, session := range m.sessions {
		if session.reap(ttl) {
			idle = append(idle, session)
			delete(m.sessions, session.ID)
			delete(m.byToken, session.OpenToken)
		}
	}
	m.mu.Unlock()

	for _, session := range idle {
		session.teardown()
		m.logger.Info("idle live session closed",
			slog.String("live_stream_id", session.ID))
	}
	return len(idle)
}

// Shutdown tears down every session regardless of consumers.
func (m *SessionManager) Shutdown() {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		sessions = append(sessions, session)
	}
	m.sessions = make(map[string]*Session)
	m.byToken = make(map[string]*Session)
	m.mu.Unlock()

	for _, session := range sessions {
		session.teardown()
	}
	if len(sessions) > 0 {
		m.logger.Info("all live sessions closed", slog.Int("count", len(sessions)))
	}
}

func (m *SessionManager) tokenLock(token string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	lock, ok := m.tokenMu[token]
	if !ok {
		lock = &sync.Mutex{}
		m.tokenMu[token] = lock
	}
	return lock
}
