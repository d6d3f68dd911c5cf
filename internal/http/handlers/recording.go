package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/hertelukas/jellyfin/internal/models"
	"github.com/hertelukas/jellyfin/internal/service"
)

// RecordingHandler handles stream recording endpoints.
type RecordingHandler struct {
	recordings *service.RecordingService
}

// NewRecordingHandler creates a new recording handler.
func NewRecordingHandler(recordings *service.RecordingService) *RecordingHandler {
	return &RecordingHandler{recordings: recordings}
}

// Register registers the recording routes with the API.
func (h *RecordingHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "startRecording",
		Method:      "POST",
		Path:        "/api/v1/recordings",
		Summary:     "Start recording",
		Description: "Starts a bounded capture of a live session or stream URL. Returns once the recording is producing output.",
		Tags:        []string{"Recordings"},
	}, h.Start)

	huma.Register(api, huma.Operation{
		OperationID: "stopRecording",
		Method:      "DELETE",
		Path:        "/api/v1/recordings/{recordingId}",
		Summary:     "Stop recording",
		Description: "Cancels a running recording; the partial file is kept.",
		Tags:        []string{"Recordings"},
	}, h.Stop)

	huma.Register(api, huma.Operation{
		OperationID: "listRecordings",
		Method:      "GET",
		Path:        "/api/v1/recordings",
		Summary:     "List recordings",
		Description: "Returns the currently running recordings.",
		Tags:        []string{"Recordings"},
	}, h.List)
}

// StartRecordingInput is the start request.
type StartRecordingInput struct {
	Body struct {
		LiveStreamID    string `json:"live_stream_id,omitempty" doc:"Record from an open live session"`
		URL             string `json:"url,omitempty" doc:"Record from a direct stream URL"`
		FileName        string `json:"file_name,omitempty" doc:"File name inside the recording directory"`
		DurationSeconds int64  `json:"duration_seconds,omitempty" minimum:"0" doc:"Capture bound in seconds, server default when omitted"`
	}
}

// StartRecordingOutput describes the started recording.
type StartRecordingOutput struct {
	Body service.RecordingInfo
}

// Start launches a recording.
func (h *RecordingHandler) Start(ctx context.Context, input *StartRecordingInput) (*StartRecordingOutput, error) {
	info, err := h.recordings.Start(ctx, service.StartRecordingOptions{
		LiveStreamID: input.Body.LiveStreamID,
		URL:          input.Body.URL,
		FileName:     input.Body.FileName,
		Duration:     time.Duration(input.Body.DurationSeconds) * time.Second,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRecordingSourceRequired):
			return nil, huma.Error400BadRequest(err.Error())
		case errors.Is(err, models.ErrLiveStreamNotFound):
			return nil, huma.Error404NotFound("live stream not found")
		case errors.Is(err, models.ErrInvalidTarget):
			return nil, huma.Error400BadRequest("invalid recording target")
		default:
			var statusErr *models.UpstreamStatusError
			if errors.As(err, &statusErr) {
				return nil, huma.Error502BadGateway("stream source refused the recording", err)
			}
			return nil, huma.Error500InternalServerError("failed to start recording", err)
		}
	}
	return &StartRecordingOutput{Body: *info}, nil
}

// StopRecordingInput identifies the recording to stop.
type StopRecordingInput struct {
	RecordingID string `path:"recordingId" doc:"Recording id"`
}

// StopRecordingOutput is the (empty) stop response.
type StopRecordingOutput struct {
	Status int
}

// Stop cancels a running recording.
func (h *RecordingHandler) Stop(_ context.Context, input *StopRecordingInput) (*StopRecordingOutput, error) {
	if err := h.recordings.Stop(input.RecordingID); err != nil {
		if errors.Is(err, models.ErrRecordingNotFound) {
			return nil, huma.Error404NotFound("recording not found")
		}
		return nil, huma.Error500InternalServerError("failed to stop recording", err)
	}
	return &StopRecordingOutput{Status: 204}, nil
}

// ListRecordingsOutput lists running recordings.
type ListRecordingsOutput struct {
	Body struct {
		Recordings []service.RecordingInfo `json:"recordings"`
	}
}

// List returns the running recordings.
func (h *RecordingHandler) List(_ context.Context, _ *struct{}) (*ListRecordingsOutput, error) {
	resp := &ListRecordingsOutput{}
	resp.Body.Recordings = h.recordings.List()
	return resp, nil
}
