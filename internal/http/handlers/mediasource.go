package handlers

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"

	"github.com/hertelukas/jellyfin/internal/livetv"
	"github.com/hertelukas/jellyfin/internal/models"
)

// MediaSourceHandler manages the media source registry.
type MediaSourceHandler struct {
	registry *livetv.InMemoryRegistry
}

// NewMediaSourceHandler creates a new media source handler.
func NewMediaSourceHandler(registry *livetv.InMemoryRegistry) *MediaSourceHandler {
	return &MediaSourceHandler{registry: registry}
}

// Register registers the media source routes with the API.
func (h *MediaSourceHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "registerMediaSources",
		Method:      "POST",
		Path:        "/api/v1/items/{itemId}/mediasources",
		Summary:     "Register media sources",
		Description: "Appends media sources to an item's registry entry, preserving order.",
		Tags:        []string{"Media Sources"},
	}, h.RegisterSources)

	huma.Register(api, huma.Operation{
		OperationID: "listMediaSources",
		Method:      "GET",
		Path:        "/api/v1/items/{itemId}/mediasources",
		Summary:     "List media sources",
		Tags:        []string{"Media Sources"},
	}, h.List)

	huma.Register(api, huma.Operation{
		OperationID: "removeMediaSources",
		Method:      "DELETE",
		Path:        "/api/v1/items/{itemId}/mediasources",
		Summary:     "Remove media sources",
		Description: "Drops all registered sources for an item.",
		Tags:        []string{"Media Sources"},
	}, h.Remove)
}

// RegisterMediaSourcesInput carries the sources to register.
type RegisterMediaSourcesInput struct {
	ItemID string `path:"itemId" doc:"Catalog item id"`
	Body   struct {
		Sources []models.MediaSource `json:"sources" minItems:"1" doc:"Sources in preference order"`
	}
}

// RegisterMediaSourcesOutput is the (empty) registration response.
type RegisterMediaSourcesOutput struct {
	Status int
}

// RegisterSources appends sources to an item.
func (h *MediaSourceHandler) RegisterSources(_ context.Context, input *RegisterMediaSourcesInput) (*RegisterMediaSourcesOutput, error) {
	sources := make([]*models.MediaSource, 0, len(input.Body.Sources))
	for i := range input.Body.Sources {
		src := input.Body.Sources[i]
		if src.ID == "" {
			return nil, huma.Error422UnprocessableEntity("every source needs an id")
		}
		sources = append(sources, &src)
	}

	h.registry.Register(input.ItemID, sources...)
	return &RegisterMediaSourcesOutput{Status: 204}, nil
}

// ListMediaSourcesInput identifies the item.
type ListMediaSourcesInput struct {
	ItemID string `path:"itemId" doc:"Catalog item id"`
}

// ListMediaSourcesOutput lists the item's sources.
type ListMediaSourcesOutput struct {
	Body struct {
		Sources []*models.MediaSource `json:"sources"`
	}
}

// List returns the item's registered sources.
func (h *MediaSourceHandler) List(ctx context.Context, input *ListMediaSourcesInput) (*ListMediaSourcesOutput, error) {
	sources, err := h.registry.MediaSources(ctx, input.ItemID)
	if err != nil {
		if errors.Is(err, models.ErrItemNotFound) {
			return nil, huma.Error404NotFound("item not found")
		}
		return nil, huma.Error500InternalServerError("failed to list media sources", err)
	}

	resp := &ListMediaSourcesOutput{}
	resp.Body.Sources = sources
	return resp, nil
}

// RemoveMediaSourcesInput identifies the item to clear.
type RemoveMediaSourcesInput struct {
	ItemID string `path:"itemId" doc:"Catalog item id"`
}

// RemoveMediaSourcesOutput is the (empty) removal response.
type RemoveMediaSourcesOutput struct {
	Status int
}

// Remove drops all sources for an item.
func (h *MediaSourceHandler) Remove(_ context.Context, input *RemoveMediaSourcesInput) (*RemoveMediaSourcesOutput, error) {
	h.registry.Remove(input.ItemID)
	return &RemoveMediaSourcesOutput{Status: 204}, nil
}
