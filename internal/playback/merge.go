package playback

import "github.com/hertelukas/jellyfin/internal/models"

// PlaybackParams carries the per-field overrides supplied as request
// parameters. Every field is optional; nil (or empty for strings) means
// "not supplied on this channel".
type PlaybackParams struct {
	UserID              string
	MediaSourceID       string
	LiveStreamID        string
	DeviceID            string
	MaxStreamingBitrate *int64
	StartTimeTicks      *int64
	AudioStreamIndex    *int
	SubtitleStreamIndex *int
	MaxAudioChannels    *int

	EnableDirectPlay     *bool
	EnableDirectStream   *bool
	EnableTranscoding    *bool
	AllowVideoStreamCopy *bool
	AllowAudioStreamCopy *bool
	AutoOpenLiveStream   *bool
}

// PlaybackBody is the structured request body. It mirrors PlaybackParams
// and additionally may inline a device profile.
type PlaybackBody struct {
	UserID              string                `json:"UserId,omitempty"`
	MediaSourceID       string                `json:"MediaSourceId,omitempty"`
	LiveStreamID        string                `json:"LiveStreamId,omitempty"`
	DeviceID            string                `json:"DeviceId,omitempty"`
	DeviceProfile       *models.DeviceProfile `json:"DeviceProfile,omitempty"`
	MaxStreamingBitrate *int64                `json:"MaxStreamingBitrate,omitempty"`
	StartTimeTicks      *int64                `json:"StartTimeTicks,omitempty"`
	AudioStreamIndex    *int                  `json:"AudioStreamIndex,omitempty"`
	SubtitleStreamIndex *int                  `json:"SubtitleStreamIndex,omitempty"`
	MaxAudioChannels    *int                  `json:"MaxAudioChannels,omitempty"`

	EnableDirectPlay     *bool `json:"EnableDirectPlay,omitempty"`
	EnableDirectStream   *bool `json:"EnableDirectStream,omitempty"`
	EnableTranscoding    *bool `json:"EnableTranscoding,omitempty"`
	AllowVideoStreamCopy *bool `json:"AllowVideoStreamCopy,omitempty"`
	AllowAudioStreamCopy *bool `json:"AllowAudioStreamCopy,omitempty"`
	AutoOpenLiveStream   *bool `json:"AutoOpenLiveStream,omitempty"`
}

// ResolveRequest merges the two legacy input channels into the single typed
// request the negotiator consumes. Resolution is per-field: a value present
// in params wins over the body, and fields absent from both take the
// declared defaults. The body is optional.
func ResolveRequest(itemID string, params PlaybackParams, body *PlaybackBody) *models.PlaybackRequest {
	req := models.NewPlaybackRequest(itemID)
	if body == nil {
		body = &PlaybackBody{}
	}

	req.UserID = firstString(params.UserID, body.UserID)
	req.MediaSourceID = firstString(params.MediaSourceID, body.MediaSourceID)
	req.LiveStreamID = firstString(params.LiveStreamID, body.LiveStreamID)
	req.DeviceID = firstString(params.DeviceID, body.DeviceID)
	req.DeviceProfile = body.DeviceProfile

	if v := firstInt64(params.MaxStreamingBitrate, body.MaxStreamingBitrate); v != nil {
		req.MaxStreamingBitrate = *v
	}
	if v := firstInt64(params.StartTimeTicks, body.StartTimeTicks); v != nil {
		req.StartTimeTicks = *v
	}
	req.AudioStreamIndex = firstInt(params.AudioStreamIndex, body.AudioStreamIndex)
	req.SubtitleStreamIndex = firstInt(params.SubtitleStreamIndex, body.SubtitleStreamIndex)
	req.MaxAudioChannels = firstInt(params.MaxAudioChannels, body.MaxAudioChannels)

	req.EnableDirectPlay = resolveBool(params.EnableDirectPlay, body.EnableDirectPlay, req.EnableDirectPlay)
	req.EnableDirectStream = resolveBool(params.EnableDirectStream, body.EnableDirectStream, req.EnableDirectStream)
	req.EnableTranscoding = resolveBool(params.EnableTranscoding, body.EnableTranscoding, req.EnableTranscoding)
	req.AllowVideoStreamCopy = resolveBool(params.AllowVideoStreamCopy, body.AllowVideoStreamCopy, req.AllowVideoStreamCopy)
	req.AllowAudioStreamCopy = resolveBool(params.AllowAudioStreamCopy, body.AllowAudioStreamCopy, req.AllowAudioStreamCopy)
	req.AutoOpenLiveStream = resolveBool(params.AutoOpenLiveStream, body.AutoOpenLiveStream, req.AutoOpenLiveStream)

	return req
}

func firstString(primary, secondary string) string {
	if primary != "" {
		return primary
	}
	return secondary
}

func firstInt(primary, secondary *int) *int {
	if primary != nil {
		return primary
	}
	return secondary
}

func firstInt64(primary, secondary *int64) *int64 {
	if primary != nil {
		return primary
	}
	return secondary
}

func resolveBool(primary, secondary *bool, fallback bool) bool {
	if primary != nil {
		return *primary
	}
	if secondary != nil {
		return *secondary
	}
	return fallback
}
