package models

// PlayMethod represents the chosen delivery path for a media source.
type PlayMethod int

const (
	// PlayMethodDirectPlay - byte-identical delivery of the source.
	// Used when: the device declares full container and codec support and
	// no bitrate reduction is required.
	PlayMethodDirectPlay PlayMethod = iota

	// PlayMethodDirectStream - container remux with stream copy (no
	// re-encode). Used when: codecs are playable but the container is not,
	// and the required stream copies are permitted.
	PlayMethodDirectStream

	// PlayMethodTranscode - full re-encode. Always a valid fallback, and a
	// hard requirement when nothing else can satisfy the device.
	PlayMethodTranscode
)

// String returns the string representation of the play method.
func (m PlayMethod) String() string {
	switch m {
	case PlayMethodDirectPlay:
		return "directplay"
	case PlayMethodDirectStream:
		return "directstream"
	case PlayMethodTranscode:
		return "transcode"
	default:
		return "unknown"
	}
}

// MarshalJSON implements json.Marshaler so PlayMethod serializes as a string.
func (m PlayMethod) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *PlayMethod) UnmarshalJSON(data []byte) error {
	str := string(data)
	if len(str) >= 2 && str[0] == '"' && str[len(str)-1] == '"' {
		str = str[1 : len(str)-1]
	}
	switch str {
	case "directplay":
		*m = PlayMethodDirectPlay
	case "directstream":
		*m = PlayMethodDirectStream
	case "transcode":
		*m = PlayMethodTranscode
	default:
		// Unknown values degrade to the always-valid fallback.
		*m = PlayMethodTranscode
	}
	return nil
}

// PlaybackRequest is the single typed negotiation request, produced once at
// the boundary by merging the two legacy input channels.
type PlaybackRequest struct {
	// ItemID identifies the catalog item. Required.
	ItemID string `json:"item_id"`

	// UserID identifies the requesting user, optional.
	UserID string `json:"user_id,omitempty"`

	// MediaSourceID restricts negotiation to a single source when set.
	MediaSourceID string `json:"media_source_id,omitempty"`

	// LiveStreamID references an already-open live stream when set.
	LiveStreamID string `json:"live_stream_id,omitempty"`

	// DeviceID keys the capability profile lookup when no profile is inlined.
	DeviceID string `json:"device_id,omitempty"`

	// DeviceProfile is the inlined capability profile, nil to resolve by
	// DeviceID (and fall back to no device-specific annotation).
	DeviceProfile *DeviceProfile `json:"device_profile,omitempty"`

	// MaxStreamingBitrate is the requested bitrate ceiling in bits per
	// second, 0 for no ceiling.
	MaxStreamingBitrate int64 `json:"max_streaming_bitrate,omitempty"`

	// StartTimeTicks is the playback start offset in ticks (100ns units).
	StartTimeTicks int64 `json:"start_time_ticks,omitempty"`

	// Stream selections, nil to use the source defaults.
	AudioStreamIndex    *int `json:"audio_stream_index,omitempty"`
	SubtitleStreamIndex *int `json:"subtitle_stream_index,omitempty"`
	MaxAudioChannels    *int `json:"max_audio_channels,omitempty"`

	// Policy flags. All default to true except AutoOpenLiveStream.
	EnableDirectPlay     bool `json:"enable_direct_play"`
	EnableDirectStream   bool `json:"enable_direct_stream"`
	EnableTranscoding    bool `json:"enable_transcoding"`
	AllowVideoStreamCopy bool `json:"allow_video_stream_copy"`
	AllowAudioStreamCopy bool `json:"allow_audio_stream_copy"`
	AutoOpenLiveStream   bool `json:"auto_open_live_stream"`
}

// NewPlaybackRequest returns a request with the declared field defaults.
func NewPlaybackRequest(itemID string) *PlaybackRequest {
	return &PlaybackRequest{
		ItemID:               itemID,
		EnableDirectPlay:     true,
		EnableDirectStream:   true,
		EnableTranscoding:    true,
		AllowVideoStreamCopy: true,
		AllowAudioStreamCopy: true,
	}
}

// AnnotatedSource is a media source copy enriched with the negotiated
// delivery parameters for one device.
type AnnotatedSource struct {
	MediaSource

	// Method is the chosen play method.
	Method PlayMethod `json:"play_method"`

	// EffectiveBitrate is the lowest of the requested ceiling, the
	// profile ceiling, and the source's own bitrate. 0 means unbounded.
	EffectiveBitrate int64 `json:"effective_bitrate,omitempty"`

	// Selected stream indices after bounds-checking the caller's choices
	// against the source.
	SelectedAudioStreamIndex    *int `json:"selected_audio_stream_index,omitempty"`
	SelectedSubtitleStreamIndex *int `json:"selected_subtitle_stream_index,omitempty"`

	// MaxAudioChannels is the negotiated channel cap, nil for no cap.
	MaxAudioChannels *int `json:"max_audio_channels,omitempty"`

	// Reasons explains why the method was chosen, for diagnostics.
	Reasons []string `json:"reasons,omitempty"`
}

// PlaybackResponse is the negotiation result.
// A non-nil ErrorCode short-circuits annotation: the source list is empty
// and the code is returned verbatim to the caller.
type PlaybackResponse struct {
	// MediaSources is ordered most-desirable first.
	MediaSources []*AnnotatedSource `json:"media_sources"`

	// PlaySessionID is generated once per negotiation and threaded through
	// every follow-up call for correlation.
	PlaySessionID string `json:"play_session_id"`

	// ErrorCode is the in-band failure code, nil on success.
	ErrorCode *PlaybackErrorCode `json:"error_code,omitempty"`
}

// NewErrorResponse builds an error-coded response with no sources.
func NewErrorResponse(playSessionID string, code PlaybackErrorCode) *PlaybackResponse {
	return &PlaybackResponse{
		PlaySessionID: playSessionID,
		ErrorCode:     &code,
	}
}

// LiveStreamRequest asks the session manager to open a live source.
type LiveStreamRequest struct {
	// OpenToken is the opaque credential identifying the source to attach.
	OpenToken string `json:"open_token"`

	// ItemID is the owning catalog item.
	ItemID string `json:"item_id,omitempty"`

	// UserID identifies the requesting user, optional.
	UserID string `json:"user_id,omitempty"`

	// PlaySessionID correlates the open with its negotiation.
	PlaySessionID string `json:"play_session_id,omitempty"`
}

// LiveStreamResponse carries the attached source back to the caller.
type LiveStreamResponse struct {
	// MediaSource is the now-attached source with LiveStreamID populated.
	MediaSource *MediaSource `json:"media_source"`

	// PlaySessionID echoes the correlation id.
	PlaySessionID string `json:"play_session_id,omitempty"`
}
