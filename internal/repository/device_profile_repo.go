package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/hertelukas/jellyfin/internal/models"
)

// deviceProfileRepository implements DeviceProfileRepository using GORM.
type deviceProfileRepository struct {
	db *gorm.DB
}

// NewDeviceProfileRepository creates a new DeviceProfileRepository.
func NewDeviceProfileRepository(db *gorm.DB) DeviceProfileRepository {
	return &deviceProfileRepository{db: db}
}

// Create creates a new device profile.
func (r *deviceProfileRepository) Create(ctx context.Context, profile *models.DeviceProfile) error {
	if err := profile.Validate(); err != nil {
		return fmt.Errorf("validating device profile: %w", err)
	}
	return r.db.WithContext(ctx).Create(profile).Error
}

// GetByID retrieves a device profile by ID.
func (r *deviceProfileRepository) GetByID(ctx context.Context, id models.ULID) (*models.DeviceProfile, error) {
	var profile models.DeviceProfile
	if err := r.db.WithContext(ctx).First(&profile, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrDeviceProfileNotFound
		}
		return nil, err
	}
	return &profile, nil
}

// GetByDeviceID retrieves the profile stored for a device.
func (r *deviceProfileRepository) GetByDeviceID(ctx context.Context, deviceID string) (*models.DeviceProfile, error) {
	var profile models.DeviceProfile
	if err := r.db.WithContext(ctx).First(&profile, "device_id = ?", deviceID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrDeviceProfileNotFound
		}
		return nil, err
	}
	return &profile, nil
}

// GetAll retrieves all device profiles ordered by name.
func (r *deviceProfileRepository) GetAll(ctx context.Context) ([]*models.DeviceProfile, error) {
	var profiles []*models.DeviceProfile
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&profiles).Error; err != nil {
		return nil, err
	}
	return profiles, nil
}

// Update updates an existing device profile.
func (r *deviceProfileRepository) Update(ctx context.Context, profile *models.DeviceProfile) error {
	if err := profile.Validate(); err != nil {
		return fmt.Errorf("validating device profile: %w", err)
	}
	return r.db.WithContext(ctx).Save(profile).Error
}

// Delete hard-deletes a device profile by ID.
func (r *deviceProfileRepository) Delete(ctx context.Context, id models.ULID) error {
	return r.db.WithContext(ctx).Unscoped().Delete(&models.DeviceProfile{}, "id = ?", id).Error
}
