package models

import "strings"

// MediaProtocol represents the transport kind of a media source.
type MediaProtocol string

const (
	// ProtocolFile is a local file source.
	ProtocolFile MediaProtocol = "file"
	// ProtocolHTTP is a direct remote URL source.
	ProtocolHTTP MediaProtocol = "http"
	// ProtocolLive is a pluggable live provider source that must be opened
	// before it can be read.
	ProtocolLive MediaProtocol = "live"
)

// MediaSource describes one playable representation of an item.
// The registry owns these; negotiation reads and annotates copies.
type MediaSource struct {
	// ID is unique within an item.
	ID string `json:"id"`

	// Name is a human-readable label for the source.
	Name string `json:"name,omitempty"`

	// Protocol is the transport kind.
	Protocol MediaProtocol `json:"protocol"`

	// Path is the local path or remote URL of the source.
	Path string `json:"path"`

	// Container is the declared container format (e.g. "ts", "mp4", "mkv").
	Container string `json:"container"`

	// VideoCodec and AudioCodec are the declared stream codecs.
	VideoCodec string `json:"video_codec,omitempty"`
	AudioCodec string `json:"audio_codec,omitempty"`

	// Bitrate is the declared total bitrate in bits per second, 0 if unknown.
	Bitrate int64 `json:"bitrate,omitempty"`

	// AudioStreamCount and SubtitleStreamCount bound the selectable indices.
	AudioStreamCount    int `json:"audio_stream_count,omitempty"`
	SubtitleStreamCount int `json:"subtitle_stream_count,omitempty"`

	// DefaultAudioStreamIndex and DefaultSubtitleStreamIndex are the
	// server-declared defaults, nil when the source has none.
	DefaultAudioStreamIndex    *int `json:"default_audio_stream_index,omitempty"`
	DefaultSubtitleStreamIndex *int `json:"default_subtitle_stream_index,omitempty"`

	// RequiresOpening is true for live sources not yet attached to a decoder.
	RequiresOpening bool `json:"requires_opening"`

	// OpenToken is the opaque credential needed to open a live source.
	OpenToken string `json:"open_token,omitempty"`

	// LiveStreamID is empty until the source is opened.
	LiveStreamID string `json:"live_stream_id,omitempty"`
}

// IsLive returns true if this source uses a pluggable live provider.
func (s *MediaSource) IsLive() bool {
	return s.Protocol == ProtocolLive
}

// IsAttached returns true once the source has an open live stream.
func (s *MediaSource) IsAttached() bool {
	return s.LiveStreamID != ""
}

// Clone returns a copy of the source. Negotiation annotates clones so the
// registry-owned value is never mutated.
func (s *MediaSource) Clone() *MediaSource {
	clone := *s
	if s.DefaultAudioStreamIndex != nil {
		idx := *s.DefaultAudioStreamIndex
		clone.DefaultAudioStreamIndex = &idx
	}
	if s.DefaultSubtitleStreamIndex != nil {
		idx := *s.DefaultSubtitleStreamIndex
		clone.DefaultSubtitleStreamIndex = &idx
	}
	return &clone
}

// MarkOpened attaches the source to an open live stream.
func (s *MediaSource) MarkOpened(liveStreamID string) {
	s.LiveStreamID = liveStreamID
	s.RequiresOpening = false
}

// NormalizeContainer lowercases and trims the container declaration.
func (s *MediaSource) NormalizeContainer() {
	s.Container = strings.ToLower(strings.TrimSpace(s.Container))
}
