// Package handlers provides HTTP API handlers for jellyfin.
package handlers

import (
	"context"
	"crypto/rand"
	"strconv"

	"github.com/danielgtaylor/huma/v2"

	"github.com/hertelukas/jellyfin/internal/models"
	"github.com/hertelukas/jellyfin/internal/playback"
)

// maxBitrateTestSize caps the diagnostic payload at 100 MB.
const maxBitrateTestSize = 100_000_000

// PlaybackHandler handles playback negotiation endpoints.
type PlaybackHandler struct {
	negotiator *playback.Negotiator
}

// NewPlaybackHandler creates a new playback handler.
func NewPlaybackHandler(negotiator *playback.Negotiator) *PlaybackHandler {
	return &PlaybackHandler{negotiator: negotiator}
}

// Register registers the playback routes with the API.
func (h *PlaybackHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "getPlaybackInfo",
		Method:      "POST",
		Path:        "/api/v1/playback/info",
		Summary:     "Negotiate playback",
		Description: "Returns the item's media sources annotated with play method and delivery parameters. Request parameters override matching body fields.",
		Tags:        []string{"Playback"},
	}, h.PlaybackInfo)

	huma.Register(api, huma.Operation{
		OperationID: "bitrateTest",
		Method:      "GET",
		Path:        "/api/v1/playback/bitratetest",
		Summary:     "Bitrate test payload",
		Description: "Streams random bytes of the requested size so clients can measure their connection bitrate.",
		Tags:        []string{"Playback"},
	}, h.BitrateTest)
}

// PlaybackInfoInput carries both legacy input channels: the query string
// and the optional structured body. Query parameters win per field.
type PlaybackInfoInput struct {
	ItemID              string `query:"itemId" required:"true" doc:"Catalog item id"`
	UserID              string `query:"userId" required:"false" doc:"Requesting user id"`
	MediaSourceID       string `query:"mediaSourceId" required:"false" doc:"Restrict negotiation to one source"`
	LiveStreamID        string `query:"liveStreamId" required:"false" doc:"Reference an already-open live stream"`
	DeviceID            string `query:"deviceId" required:"false" doc:"Device id for stored profile lookup"`
	MaxStreamingBitrate string `query:"maxStreamingBitrate" required:"false" doc:"Bitrate ceiling in bits per second"`
	StartTimeTicks      string `query:"startTimeTicks" required:"false" doc:"Start offset in ticks"`
	AudioStreamIndex    string `query:"audioStreamIndex" required:"false" doc:"Audio stream selection"`
	SubtitleStreamIndex string `query:"subtitleStreamIndex" required:"false" doc:"Subtitle stream selection"`
	MaxAudioChannels    string `query:"maxAudioChannels" required:"false" doc:"Audio channel cap"`

	EnableDirectPlay     string `query:"enableDirectPlay" required:"false" enum:"true,false," doc:"Permit direct play"`
	EnableDirectStream   string `query:"enableDirectStream" required:"false" enum:"true,false," doc:"Permit direct stream"`
	EnableTranscoding    string `query:"enableTranscoding" required:"false" enum:"true,false," doc:"Permit transcoding"`
	AllowVideoStreamCopy string `query:"allowVideoStreamCopy" required:"false" enum:"true,false," doc:"Permit video stream copy"`
	AllowAudioStreamCopy string `query:"allowAudioStreamCopy" required:"false" enum:"true,false," doc:"Permit audio stream copy"`
	AutoOpenLiveStream   string `query:"autoOpenLiveStream" required:"false" enum:"true,false," doc:"Open the chosen live source in-line"`

	Body *playback.PlaybackBody
}

// PlaybackInfoOutput is the negotiation response.
type PlaybackInfoOutput struct {
	Body models.PlaybackResponse
}

// PlaybackInfo negotiates playback for an item. Failures are reported
// in-band via the response's error code, so this operation returns 200
// even when negotiation fails.
func (h *PlaybackHandler) PlaybackInfo(ctx context.Context, input *PlaybackInfoInput) (*PlaybackInfoOutput, error) {
	params, err := input.params()
	if err != nil {
		return nil, err
	}

	req := playback.ResolveRequest(input.ItemID, params, input.Body)
	resp := h.negotiator.Negotiate(ctx, req)

	return &PlaybackInfoOutput{Body: *resp}, nil
}

// params converts the raw query strings into the typed parameter channel.
func (input *PlaybackInfoInput) params() (playback.PlaybackParams, error) {
	params := playback.PlaybackParams{
		UserID:        input.UserID,
		MediaSourceID: input.MediaSourceID,
		LiveStreamID:  input.LiveStreamID,
		DeviceID:      input.DeviceID,
	}

	var err error
	if params.MaxStreamingBitrate, err = parseInt64Param("maxStreamingBitrate", input.MaxStreamingBitrate); err != nil {
		return params, err
	}
	if params.StartTimeTicks, err = parseInt64Param("startTimeTicks", input.StartTimeTicks); err != nil {
		return params, err
	}
	if params.AudioStreamIndex, err = parseIntParam("audioStreamIndex", input.AudioStreamIndex); err != nil {
		return params, err
	}
	if params.SubtitleStreamIndex, err = parseIntParam("subtitleStreamIndex", input.SubtitleStreamIndex); err != nil {
		return params, err
	}
	if params.MaxAudioChannels, err = parseIntParam("maxAudioChannels", input.MaxAudioChannels); err != nil {
		return params, err
	}

	params.EnableDirectPlay = parseBoolParam(input.EnableDirectPlay)
	params.EnableDirectStream = parseBoolParam(input.EnableDirectStream)
	params.EnableTranscoding = parseBoolParam(input.EnableTranscoding)
	params.AllowVideoStreamCopy = parseBoolParam(input.AllowVideoStreamCopy)
	params.AllowAudioStreamCopy = parseBoolParam(input.AllowAudioStreamCopy)
	params.AutoOpenLiveStream = parseBoolParam(input.AutoOpenLiveStream)

	return params, nil
}

func parseBoolParam(raw string) *bool {
	switch raw {
	case "true":
		v := true
		return &v
	case "false":
		v := false
		return &v
	default:
		return nil
	}
}

func parseIntParam(name, raw string) (*int, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, huma.Error400BadRequest("invalid integer parameter: " + name)
	}
	return &v, nil
}

func parseInt64Param(name, raw string) (*int64, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, huma.Error400BadRequest("invalid integer parameter: " + name)
	}
	return &v, nil
}

// BitrateTestInput selects the diagnostic payload size in bytes.
type BitrateTestInput struct {
	Size int `query:"size" required:"true" minimum:"1" maximum:"100000000" doc:"Payload size in bytes (1 to 100000000)"`
}

// BitrateTest streams a random payload of the requested size.
func (h *PlaybackHandler) BitrateTest(_ context.Context, input *BitrateTestInput) (*huma.StreamResponse, error) {
	if input.Size < 1 || input.Size > maxBitrateTestSize {
		return nil, huma.Error400BadRequest("size must be between 1 and 100000000")
	}

	size := input.Size
	return &huma.StreamResponse{
		Body: func(ctx huma.Context) {
			ctx.SetHeader("Content-Type", "application/octet-stream")
			ctx.SetHeader("Content-Length", strconv.Itoa(size))

			writer := ctx.BodyWriter()
			buf := make([]byte, 64*1024)
			remaining := size
			for remaining > 0 {
				chunk := buf
				if remaining < len(buf) {
					chunk = buf[:remaining]
				}
				// rand.Read never fails.
				_, _ = rand.Read(chunk)
				n, err := writer.Write(chunk)
				remaining -= n
				if err != nil {
					return
				}
			}
		},
	}, nil
}
