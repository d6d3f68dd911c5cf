// Package repository provides data access implementations.
package repository

import (
	"context"

	"github.com/hertelukas/jellyfin/internal/models"
)

// DeviceProfileRepository defines data access for stored device profiles.
type DeviceProfileRepository interface {
	Create(ctx context.Context, profile *models.DeviceProfile) error
	GetByID(ctx context.Context, id models.ULID) (*models.DeviceProfile, error)
	GetByDeviceID(ctx context.Context, deviceID string) (*models.DeviceProfile, error)
	GetAll(ctx context.Context) ([]*models.DeviceProfile, error)
	Update(ctx context.Context, profile *models.DeviceProfile) error
	Delete(ctx context.Context, id models.ULID) error
}
