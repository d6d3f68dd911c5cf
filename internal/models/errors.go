package models

import (
	"errors"
	"fmt"
)

// Sentinel errors for negotiation and live stream handling.
var (
	// ErrItemNotFound indicates the media catalog has no such item.
	ErrItemNotFound = errors.New("item not found")

	// ErrMediaSourceNotFound indicates no source matched the requested identifier.
	ErrMediaSourceNotFound = errors.New("media source not found")

	// ErrLiveStreamNotFound indicates an unknown live stream identifier.
	ErrLiveStreamNotFound = errors.New("live stream not found")

	// ErrSourceUnavailable indicates the provider refused to open a live source.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrOpenTimeout indicates the provider did not confirm readiness in time.
	ErrOpenTimeout = errors.New("live stream open timed out")

	// ErrInvalidOpenToken indicates an empty or malformed open token.
	ErrInvalidOpenToken = errors.New("invalid open token")

	// ErrInvalidTarget indicates a recording destination with no parent directory.
	ErrInvalidTarget = errors.New("invalid recording target path")

	// ErrRecordingNotFound indicates an unknown recording identifier.
	ErrRecordingNotFound = errors.New("recording not found")

	// ErrDeviceProfileNotFound indicates no profile is stored for a device.
	ErrDeviceProfileNotFound = errors.New("device profile not found")

	// ErrProfileNameRequired indicates a device profile with an empty name.
	ErrProfileNameRequired = errors.New("profile name is required")

	// ErrDeviceIDRequired indicates a device profile with an empty device id.
	ErrDeviceIDRequired = errors.New("device_id is required")
)

// UpstreamStatusError reports a non-success HTTP status from a stream source.
type UpstreamStatusError struct {
	URL        string
	StatusCode int
}

// Error implements the error interface.
func (e *UpstreamStatusError) Error() string {
	return fmt.Sprintf("upstream returned status %d for %s", e.StatusCode, e.URL)
}

// PlaybackErrorCode is the in-band error code carried on a PlaybackResponse.
// A response with a non-nil code carries no media sources.
type PlaybackErrorCode string

const (
	// PlaybackErrorNotFound indicates the item or requested source is unknown.
	PlaybackErrorNotFound PlaybackErrorCode = "NotFound"
	// PlaybackErrorSourceUnavailable indicates a live open failed at the provider.
	PlaybackErrorSourceUnavailable PlaybackErrorCode = "SourceUnavailable"
	// PlaybackErrorTimeout indicates a live open exceeded the allowed wait.
	PlaybackErrorTimeout PlaybackErrorCode = "Timeout"
)

// ErrorCodeForErr maps a negotiation error to its in-band playback error code.
func ErrorCodeForErr(err error) PlaybackErrorCode {
	switch {
	case errors.Is(err, ErrOpenTimeout):
		return PlaybackErrorTimeout
	case errors.Is(err, ErrSourceUnavailable), errors.Is(err, ErrInvalidOpenToken):
		return PlaybackErrorSourceUnavailable
	default:
		return PlaybackErrorNotFound
	}
}
