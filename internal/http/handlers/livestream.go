package handlers

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"

	"github.com/hertelukas/jellyfin/internal/livetv"
	"github.com/hertelukas/jellyfin/internal/models"
)

// LiveStreamHandler handles live stream session endpoints.
type LiveStreamHandler struct {
	sessions *livetv.SessionManager
}

// NewLiveStreamHandler creates a new live stream handler.
func NewLiveStreamHandler(sessions *livetv.SessionManager) *LiveStreamHandler {
	return &LiveStreamHandler{sessions: sessions}
}

// Register registers the live stream routes with the API.
func (h *LiveStreamHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "openLiveStream",
		Method:      "POST",
		Path:        "/api/v1/livestreams/open",
		Summary:     "Open live stream",
		Description: "Opens (or joins) the live session for a source and returns the attached media source.",
		Tags:        []string{"Live Streams"},
	}, h.Open)

	huma.Register(api, huma.Operation{
		OperationID: "closeLiveStream",
		Method:      "POST",
		Path:        "/api/v1/livestreams/{liveStreamId}/close",
		Summary:     "Close live stream",
		Description: "Releases one consumer of a live session. Closing an unknown session is a no-op.",
		Tags:        []string{"Live Streams"},
	}, h.Close)
}

// OpenLiveStreamInput is the open request.
type OpenLiveStreamInput struct {
	Body models.LiveStreamRequest
}

// OpenLiveStreamOutput carries the attached source.
type OpenLiveStreamOutput struct {
	Body models.LiveStreamResponse
}

// Open opens or joins a live session.
func (h *LiveStreamHandler) Open(ctx context.Context, input *OpenLiveStreamInput) (*OpenLiveStreamOutput, error) {
	resp, err := h.sessions.OpenLiveStream(ctx, &input.Body)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrInvalidOpenToken):
			return nil, huma.Error400BadRequest("open token is required")
		case errors.Is(err, models.ErrOpenTimeout):
			return nil, huma.Error504GatewayTimeout("live source did not become ready in time")
		case errors.Is(err, models.ErrSourceUnavailable):
			return nil, huma.Error502BadGateway("live source is unavailable", err)
		default:
			return nil, huma.Error500InternalServerError("failed to open live stream", err)
		}
	}
	return &OpenLiveStreamOutput{Body: *resp}, nil
}

// CloseLiveStreamInput identifies the session to close.
type CloseLiveStreamInput struct {
	LiveStreamID string `path:"liveStreamId" doc:"Live stream id"`
}

// CloseLiveStreamOutput is the (empty) close response.
type CloseLiveStreamOutput struct {
	Status int
}

// Close releases one consumer of the session. Always succeeds.
func (h *LiveStreamHandler) Close(ctx context.Context, input *CloseLiveStreamInput) (*CloseLiveStreamOutput, error) {
	_ = h.sessions.CloseLiveStream(ctx, input.LiveStreamID)
	return &CloseLiveStreamOutput{Status: 204}, nil
}
