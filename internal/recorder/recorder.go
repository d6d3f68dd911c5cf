// Package recorder copies live streams to files for a bounded duration.
package recorder

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/hertelukas/jellyfin/internal/models"
	"github.com/hertelukas/jellyfin/internal/version"
)

// DefaultBufferSize is the copy chunk size when none is configured.
const DefaultBufferSize = 256 * 1024

// Recorder writes bounded captures of live streams. A recording stops when
// the source ends, the duration elapses, or the caller cancels; all three
// are clean stops and the partial file is kept. The recorder never retries
// a failed acquisition.
type Recorder struct {
	client     *http.Client
	bufferSize int
	logger     *slog.Logger
}

// New creates a recorder with default buffer size and HTTP client. The
// client carries no overall request timeout; recordings are long-lived and
// bounded by duration instead.
func New() *Recorder {
	return &Recorder{
		client: &http.Client{
			Transport: &http.Transport{
				ResponseHeaderTimeout: 30 * time.Second,
				IdleConnTimeout:       90 * time.Second,
			},
		},
		bufferSize: DefaultBufferSize,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// WithLogger sets the logger for recording lifecycle events.
func (r *Recorder) WithLogger(logger *slog.Logger) *Recorder {
	if logger != nil {
		r.logger = logger
	}
	return r
}

// WithBufferSize sets the copy chunk size.
func (r *Recorder) WithBufferSize(size int) *Recorder {
	if size > 0 {
		r.bufferSize = size
	}
	return r
}

// WithHTTPClient replaces the HTTP client used for URL acquisition.
func (r *Recorder) WithHTTPClient(client *http.Client) *Recorder {
	if client != nil {
		r.client = client
	}
	return r
}

// RecordFromStream copies from an already-open stream, such as a live
// session's byte stream, into targetPath for at most duration. onStarted
// fires once, after the target file is open and before the first byte is
// written; it may be nil.
//
// Cancellation is cooperative: the copy loop observes the merged signal
// between chunks, so a stream whose reads return promptly stops promptly.
func (r *Recorder) RecordFromStream(ctx context.Context, stream io.Reader, targetPath string, duration time.Duration, onStarted func()) error {
	return r.record(ctx, stream, nil, targetPath, duration, onStarted)
}

// RecordFromURL acquires the stream with a single GET and records the
// response body. A non-2xx status fails the recording with
// *models.UpstreamStatusError before any file is written. There is no
// retry; a failed acquisition is reported to the caller as-is.
func (r *Recorder) RecordFromURL(ctx context.Context, url, targetPath string, duration time.Duration, onStarted func()) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("building stream request: %w", err)
	}
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("acquiring stream: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_ = resp.Body.Close()
		return &models.UpstreamStatusError{URL: url, StatusCode: resp.StatusCode}
	}

	return r.record(ctx, resp.Body, resp.Body, targetPath, duration, onStarted)
}

// record drives the bounded copy. closer, when non-nil, is closed as soon
// as the merged signal fires so a read blocked on the network unblocks;
// a stream owned by someone else passes nil and relies on the per-chunk
// checks instead.
func (r *Recorder) record(ctx context.Context, stream io.Reader, closer io.Closer, targetPath string, duration time.Duration, onStarted func()) error {
	defer func() {
		if closer != nil {
			_ = closer.Close()
		}
	}()

	cleaned := filepath.Clean(targetPath)
	dir := filepath.Dir(cleaned)
	if dir == cleaned {
		return fmt.Errorf("%w: %q", models.ErrInvalidTarget, targetPath)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating recording directory: %w", err)
	}

	file, err := os.OpenFile(cleaned, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("creating recording file: %w", err)
	}

	// The duration window opens at recording start, not at acquisition.
	recCtx, cancel := context.WithTimeout(ctx, duration)
	defer cancel()

	if closer != nil {
		unblocked := make(chan struct{})
		defer close(unblocked)
		go func() {
			select {
			case <-recCtx.Done():
				_ = closer.Close()
			case <-unblocked:
			}
		}()
	}

	started := time.Now()
	r.logger.Info("recording started",
		slog.String("path", cleaned),
		slog.Duration("duration", duration))

	if onStarted != nil {
		onStarted()
	}

	written, copyErr := r.copyBounded(recCtx, file, stream)

	closeErr := file.Close()
	r.logger.Info("recording stopped",
		slog.String("path", cleaned),
		slog.Int64("bytes", written),
		slog.Duration("elapsed", time.Since(started)),
		slog.String("cause", stopCause(recCtx, copyErr)))

	if copyErr != nil {
		return copyErr
	}
	if closeErr != nil {
		return fmt.Errorf("closing recording file: %w", closeErr)
	}
	return nil
}

// copyBounded copies until the source ends or ctx fires. Hitting the bound
// is a clean stop, not an error. Read errors caused by the bound firing
// (e.g. the response body being closed under the read) are swallowed.
func (r *Recorder) copyBounded(ctx context.Context, dst io.Writer, src io.Reader) (int64, error) {
	buf := make([]byte, r.bufferSize)
	var written int64
	for {
		select {
		case <-ctx.Done():
			return written, nil
		default:
		}

		n, readErr := src.Read(buf)
		if n > 0 {
			wn, writeErr := dst.Write(buf[:n])
			written += int64(wn)
			if writeErr != nil {
				return written, fmt.Errorf("writing recording: %w", writeErr)
			}
		}
		if readErr == io.EOF {
			return written, nil
		}
		if readErr != nil {
			if ctx.Err() != nil {
				return written, nil
			}
			return written, fmt.Errorf("reading stream: %w", readErr)
		}
	}
}

func stopCause(ctx context.Context, copyErr error) string {
	switch {
	case copyErr != nil:
		return "error"
	case ctx.Err() == context.DeadlineExceeded:
		return "duration elapsed"
	case ctx.Err() != nil:
		return "cancelled"
	default:
		return "source ended"
	}
}
