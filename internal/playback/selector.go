// Package playback implements playback negotiation: play-method selection,
// source ranking, and request merging for the two legacy input channels.
package playback

import (
	"io"
	"log/slog"

	"github.com/hertelukas/jellyfin/internal/models"
)

// Selector decides the play method and delivery parameters for one media
// source against one device profile. Annotate is a pure function and never
// fails: unsupportable combinations degrade to transcoding instead of
// erroring.
type Selector struct {
	logger *slog.Logger
}

// NewSelector creates a new selector with an optional logger.
func NewSelector(logger *slog.Logger) *Selector {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Selector{logger: logger}
}

// Annotate produces an annotated copy of the source for the given profile
// and request. A nil profile means the device declared no capabilities;
// only the request's policy flags and bitrate ceiling apply.
//
// The decision flow is:
//  1. Direct play when the flag permits it, the profile declares full
//     container and codec support, and no bitrate reduction is required.
//  2. Direct stream (remux, stream copy) when its flag permits and each
//     required stream copy is individually permitted.
//  3. Transcode otherwise - even when its flag is disabled, because a
//     source that cannot satisfy the device any other way is still served
//     (see forceTranscode).
func (s *Selector) Annotate(src *models.MediaSource, profile *models.DeviceProfile, req *models.PlaybackRequest) *models.AnnotatedSource {
	annotated := &models.AnnotatedSource{
		MediaSource: *src.Clone(),
		Reasons:     make([]string, 0),
	}

	annotated.EffectiveBitrate = effectiveBitrate(req, profile, src)
	annotated.SelectedAudioStreamIndex = selectStreamIndex(req.AudioStreamIndex, src.DefaultAudioStreamIndex, src.AudioStreamCount)
	annotated.SelectedSubtitleStreamIndex = selectStreamIndex(req.SubtitleStreamIndex, src.DefaultSubtitleStreamIndex, src.SubtitleStreamCount)
	if req.MaxAudioChannels != nil && *req.MaxAudioChannels > 0 {
		channels := *req.MaxAudioChannels
		annotated.MaxAudioChannels = &channels
	}

	containerOK := profile == nil || profile.SupportsContainer(src.Container)
	videoOK := profile == nil || profile.SupportsVideoCodec(src.VideoCodec)
	audioOK := profile == nil || profile.SupportsAudioCodec(src.AudioCodec)
	bitrateReduction := requiresBitrateReduction(req, profile, src)

	switch {
	case req.EnableDirectPlay && containerOK && videoOK && audioOK && !bitrateReduction:
		annotated.Method = models.PlayMethodDirectPlay
		annotated.Reasons = append(annotated.Reasons, "device supports source verbatim")

	case req.EnableDirectStream && videoOK && audioOK && streamCopiesAllowed(req, src):
		annotated.Method = models.PlayMethodDirectStream
		annotated.Reasons = append(annotated.Reasons, directStreamReason(containerOK, bitrateReduction))

	default:
		annotated.Method = models.PlayMethodTranscode
		annotated.Reasons = append(annotated.Reasons,
			transcodeReasons(req, containerOK, videoOK, audioOK, bitrateReduction)...)
	}

	s.logger.Debug("play method selected",
		slog.String("source_id", src.ID),
		slog.String("method", annotated.Method.String()),
		slog.Int64("effective_bitrate", annotated.EffectiveBitrate),
		slog.Any("reasons", annotated.Reasons),
	)

	return annotated
}

// effectiveBitrate returns the lowest of the requested ceiling, the profile
// ceiling, and the source's own bitrate. 0 means all three are unbounded.
func effectiveBitrate(req *models.PlaybackRequest, profile *models.DeviceProfile, src *models.MediaSource) int64 {
	result := int64(0)
	candidates := []int64{req.MaxStreamingBitrate, src.Bitrate}
	if profile != nil {
		candidates = append(candidates, profile.MaxStreamingBitrate)
	}
	for _, c := range candidates {
		if c > 0 && (result == 0 || c < result) {
			result = c
		}
	}
	return result
}

// requiresBitrateReduction reports whether a ceiling forces the source's
// declared bitrate down. A source with unknown bitrate never requires
// reduction.
func requiresBitrateReduction(req *models.PlaybackRequest, profile *models.DeviceProfile, src *models.MediaSource) bool {
	if src.Bitrate <= 0 {
		return false
	}
	if req.MaxStreamingBitrate > 0 && src.Bitrate > req.MaxStreamingBitrate {
		return true
	}
	if profile != nil && profile.MaxStreamingBitrate > 0 && src.Bitrate > profile.MaxStreamingBitrate {
		return true
	}
	return false
}

// selectStreamIndex applies the caller's explicit selection when within
// bounds, falling back to the source default.
func selectStreamIndex(requested, fallback *int, count int) *int {
	if requested != nil && *requested >= 0 && *requested < count {
		idx := *requested
		return &idx
	}
	if fallback == nil {
		return nil
	}
	idx := *fallback
	return &idx
}

// streamCopiesAllowed reports whether every stream copy a remux would need
// is individually permitted by the request.
func streamCopiesAllowed(req *models.PlaybackRequest, src *models.MediaSource) bool {
	if src.VideoCodec != "" && !req.AllowVideoStreamCopy {
		return false
	}
	if src.AudioCodec != "" && !req.AllowAudioStreamCopy {
		return false
	}
	return true
}

func directStreamReason(containerOK, bitrateReduction bool) string {
	switch {
	case !containerOK:
		return "container not supported by device - remuxing with stream copy"
	case bitrateReduction:
		return "bitrate ceiling prevents verbatim delivery - remuxing with stream copy"
	default:
		return "direct play disabled by policy - remuxing with stream copy"
	}
}

// transcodeReasons explains a transcode decision, including the forced
// override when transcoding is disabled but nothing else can serve the
// source. Returning nothing playable is treated as a worse outcome than
// ignoring the disabled flag.
func transcodeReasons(req *models.PlaybackRequest, containerOK, videoOK, audioOK, bitrateReduction bool) []string {
	reasons := make([]string, 0, 2)
	if !videoOK {
		reasons = append(reasons, "video codec not supported by device")
	}
	if !audioOK {
		reasons = append(reasons, "audio codec not supported by device")
	}
	if !containerOK {
		reasons = append(reasons, "container not supported by device")
	}
	if bitrateReduction {
		reasons = append(reasons, "bitrate reduction required")
	}
	if len(reasons) == 0 {
		reasons = append(reasons, "direct delivery disabled by policy")
	}
	if !req.EnableTranscoding {
		reasons = append(reasons, forceTranscodeReason)
	}
	return reasons
}

// forceTranscodeReason marks the forced-transcode override: transcoding was
// disabled by the request but no other method can satisfy the device.
const forceTranscodeReason = "transcoding disabled by policy but required - override applied"
