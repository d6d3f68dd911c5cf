package service

import (
	"context"

	"github.com/hertelukas/jellyfin/internal/models"
	"github.com/hertelukas/jellyfin/internal/repository"
)

// ProfileService manages stored device capability profiles and resolves
// them for playback negotiation.
type ProfileService struct {
	repo repository.DeviceProfileRepository
}

// NewProfileService creates a profile service.
func NewProfileService(repo repository.DeviceProfileRepository) *ProfileService {
	return &ProfileService{repo: repo}
}

// ResolveProfile returns the profile stored for a device. It satisfies
// playback.DeviceProfileResolver.
func (s *ProfileService) ResolveProfile(ctx context.Context, deviceID string) (*models.DeviceProfile, error) {
	return s.repo.GetByDeviceID(ctx, deviceID)
}

// Create stores a new profile after sanitizing its declarations.
func (s *ProfileService) Create(ctx context.Context, profile *models.DeviceProfile) error {
	profile.Sanitize()
	return s.repo.Create(ctx, profile)
}

// Get returns a profile by its id.
func (s *ProfileService) Get(ctx context.Context, id models.ULID) (*models.DeviceProfile, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns all stored profiles.
func (s *ProfileService) List(ctx context.Context) ([]*models.DeviceProfile, error) {
	return s.repo.GetAll(ctx)
}

// Update replaces a stored profile.
func (s *ProfileService) Update(ctx context.Context, profile *models.DeviceProfile) error {
	profile.Sanitize()
	return s.repo.Update(ctx, profile)
}

// Delete removes a profile by its id.
func (s *ProfileService) Delete(ctx context.Context, id models.ULID) error {
	return s.repo.Delete(ctx, id)
}
