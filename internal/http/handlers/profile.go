package handlers

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"

	"github.com/hertelukas/jellyfin/internal/models"
	"github.com/hertelukas/jellyfin/internal/service"
)

// DeviceProfileHandler handles device profile API endpoints.
type DeviceProfileHandler struct {
	profiles *service.ProfileService
}

// NewDeviceProfileHandler creates a new device profile handler.
func NewDeviceProfileHandler(profiles *service.ProfileService) *DeviceProfileHandler {
	return &DeviceProfileHandler{profiles: profiles}
}

// Register registers the device profile routes with the API.
func (h *DeviceProfileHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "listDeviceProfiles",
		Method:      "GET",
		Path:        "/api/v1/device-profiles",
		Summary:     "List device profiles",
		Tags:        []string{"Device Profiles"},
	}, h.List)

	huma.Register(api, huma.Operation{
		OperationID: "getDeviceProfile",
		Method:      "GET",
		Path:        "/api/v1/device-profiles/{id}",
		Summary:     "Get device profile",
		Tags:        []string{"Device Profiles"},
	}, h.Get)

	huma.Register(api, huma.Operation{
		OperationID: "createDeviceProfile",
		Method:      "POST",
		Path:        "/api/v1/device-profiles",
		Summary:     "Create device profile",
		Tags:        []string{"Device Profiles"},
	}, h.Create)

	huma.Register(api, huma.Operation{
		OperationID: "updateDeviceProfile",
		Method:      "PUT",
		Path:        "/api/v1/device-profiles/{id}",
		Summary:     "Update device profile",
		Tags:        []string{"Device Profiles"},
	}, h.Update)

	huma.Register(api, huma.Operation{
		OperationID: "deleteDeviceProfile",
		Method:      "DELETE",
		Path:        "/api/v1/device-profiles/{id}",
		Summary:     "Delete device profile",
		Tags:        []string{"Device Profiles"},
	}, h.Delete)
}

// DeviceProfileBody is the create/update payload.
type DeviceProfileBody struct {
	Name                 string   `json:"name" doc:"Profile name"`
	DeviceID             string   `json:"device_id" doc:"Device the profile belongs to"`
	SupportedContainers  []string `json:"supported_containers,omitempty" doc:"Containers the device plays, empty for no restriction"`
	SupportedVideoCodecs []string `json:"supported_video_codecs,omitempty" doc:"Video codecs the device decodes"`
	SupportedAudioCodecs []string `json:"supported_audio_codecs,omitempty" doc:"Audio codecs the device decodes"`
	MaxStreamingBitrate  int64    `json:"max_streaming_bitrate,omitempty" minimum:"0" doc:"Device bitrate ceiling in bits per second, 0 for none"`
}

// DeviceProfileResponse represents a device profile in API responses.
type DeviceProfileResponse struct {
	ID                   string   `json:"id" doc:"Profile ID (ULID)"`
	Name                 string   `json:"name"`
	DeviceID             string   `json:"device_id"`
	SupportedContainers  []string `json:"supported_containers,omitempty"`
	SupportedVideoCodecs []string `json:"supported_video_codecs,omitempty"`
	SupportedAudioCodecs []string `json:"supported_audio_codecs,omitempty"`
	MaxStreamingBitrate  int64    `json:"max_streaming_bitrate,omitempty"`
	CreatedAt            string   `json:"created_at"`
	UpdatedAt            string   `json:"updated_at"`
}

func deviceProfileFromModel(p *models.DeviceProfile) DeviceProfileResponse {
	return DeviceProfileResponse{
		ID:                   p.ID.String(),
		Name:                 p.Name,
		DeviceID:             p.DeviceID,
		SupportedContainers:  p.SupportedContainers,
		SupportedVideoCodecs: p.SupportedVideoCodecs,
		SupportedAudioCodecs: p.SupportedAudioCodecs,
		MaxStreamingBitrate:  p.MaxStreamingBitrate,
		CreatedAt:            p.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:            p.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

func (b *DeviceProfileBody) toModel() *models.DeviceProfile {
	return &models.DeviceProfile{
		Name:                 b.Name,
		DeviceID:             b.DeviceID,
		SupportedContainers:  b.SupportedContainers,
		SupportedVideoCodecs: b.SupportedVideoCodecs,
		SupportedAudioCodecs: b.SupportedAudioCodecs,
		MaxStreamingBitrate:  b.MaxStreamingBitrate,
	}
}

// ListDeviceProfilesOutput lists all profiles.
type ListDeviceProfilesOutput struct {
	Body struct {
		Profiles []DeviceProfileResponse `json:"profiles"`
	}
}

// List returns all device profiles.
func (h *DeviceProfileHandler) List(ctx context.Context, _ *struct{}) (*ListDeviceProfilesOutput, error) {
	profiles, err := h.profiles.List(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to list device profiles", err)
	}

	resp := &ListDeviceProfilesOutput{}
	resp.Body.Profiles = make([]DeviceProfileResponse, len(profiles))
	for i, p := range profiles {
		resp.Body.Profiles[i] = deviceProfileFromModel(p)
	}
	return resp, nil
}

// GetDeviceProfileInput identifies one profile.
type GetDeviceProfileInput struct {
	ID string `path:"id" doc:"Profile ID (ULID)"`
}

// GetDeviceProfileOutput carries one profile.
type GetDeviceProfileOutput struct {
	Body DeviceProfileResponse
}

// Get returns a device profile by ID.
func (h *DeviceProfileHandler) Get(ctx context.Context, input *GetDeviceProfileInput) (*GetDeviceProfileOutput, error) {
	id, err := models.ParseULID(input.ID)
	if err != nil {
		return nil, huma.Error400BadRequest("invalid profile ID")
	}

	profile, err := h.profiles.Get(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrDeviceProfileNotFound) {
			return nil, huma.Error404NotFound("device profile not found")
		}
		return nil, huma.Error500InternalServerError("failed to get device profile", err)
	}
	return &GetDeviceProfileOutput{Body: deviceProfileFromModel(profile)}, nil
}

// CreateDeviceProfileInput is the create request.
type CreateDeviceProfileInput struct {
	Body DeviceProfileBody
}

// Create stores a new device profile.
func (h *DeviceProfileHandler) Create(ctx context.Context, input *CreateDeviceProfileInput) (*GetDeviceProfileOutput, error) {
	profile := input.Body.toModel()
	if err := h.profiles.Create(ctx, profile); err != nil {
		if errors.Is(err, models.ErrProfileNameRequired) || errors.Is(err, models.ErrDeviceIDRequired) {
			return nil, huma.Error422UnprocessableEntity(err.Error())
		}
		return nil, huma.Error500InternalServerError("failed to create device profile", err)
	}
	return &GetDeviceProfileOutput{Body: deviceProfileFromModel(profile)}, nil
}

// UpdateDeviceProfileInput is the update request.
type UpdateDeviceProfileInput struct {
	ID   string `path:"id" doc:"Profile ID (ULID)"`
	Body DeviceProfileBody
}

// Update replaces a stored device profile.
func (h *DeviceProfileHandler) Update(ctx context.Context, input *UpdateDeviceProfileInput) (*GetDeviceProfileOutput, error) {
	id, err := models.ParseULID(input.ID)
	if err != nil {
		return nil, huma.Error400BadRequest("invalid profile ID")
	}

	existing, err := h.profiles.Get(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrDeviceProfileNotFound) {
			return nil, huma.Error404NotFound("device profile not found")
		}
		return nil, huma.Error500InternalServerError("failed to get device profile", err)
	}

	updated := input.Body.toModel()
	updated.BaseModel = existing.BaseModel
	if err := h.profiles.Update(ctx, updated); err != nil {
		if errors.Is(err, models.ErrProfileNameRequired) || errors.Is(err, models.ErrDeviceIDRequired) {
			return nil, huma.Error422UnprocessableEntity(err.Error())
		}
		return nil, huma.Error500InternalServerError("failed to update device profile", err)
	}
	return &GetDeviceProfileOutput{Body: deviceProfileFromModel(updated)}, nil
}

// DeleteDeviceProfileInput identifies the profile to delete.
type DeleteDeviceProfileInput struct {
	ID string `path:"id" doc:"Profile ID (ULID)"`
}

// DeleteDeviceProfileOutput is the (empty) delete response.
type DeleteDeviceProfileOutput struct {
	Status int
}

// Delete removes a device profile.
func (h *DeviceProfileHandler) Delete(ctx context.Context, input *DeleteDeviceProfileInput) (*DeleteDeviceProfileOutput, error) {
	id, err := models.ParseULID(input.ID)
	if err != nil {
		return nil, huma.Error400BadRequest("invalid profile ID")
	}
	if err := h.profiles.Delete(ctx, id); err != nil {
		return nil, huma.Error500InternalServerError("failed to delete device profile", err)
	}
	return &DeleteDeviceProfileOutput{Status: 204}, nil
}
