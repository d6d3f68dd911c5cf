package repository

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/hertelukas/jellyfin/internal/models"
)

func setupDeviceProfileTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&models.DeviceProfile{}))

	return db
}

func testProfile(deviceID string) *models.DeviceProfile {
	return &models.DeviceProfile{
		Name:                 "Living Room TV",
		DeviceID:             deviceID,
		SupportedContainers:  models.StringList{"ts", "mp4"},
		SupportedVideoCodecs: models.StringList{"h264"},
		SupportedAudioCodecs: models.StringList{"aac"},
		MaxStreamingBitrate:  20_000_000,
	}
}

func TestDeviceProfileRepo_CreateAndGet(t *testing.T) {
	repo := NewDeviceProfileRepository(setupDeviceProfileTestDB(t))
	ctx := context.Background()

	profile := testProfile("dev-1")
	require.NoError(t, repo.Create(ctx, profile))
	assert.False(t, profile.ID.IsZero())

	found, err := repo.GetByID(ctx, profile.ID)
	require.NoError(t, err)
	assert.Equal(t, "Living Room TV", found.Name)
	assert.Equal(t, models.StringList{"h264"}, found.SupportedVideoCodecs)
}

func TestDeviceProfileRepo_Create_Validation(t *testing.T) {
	repo := NewDeviceProfileRepository(setupDeviceProfileTestDB(t))

	err := repo.Create(context.Background(), &models.DeviceProfile{DeviceID: "dev-1"})
	assert.ErrorIs(t, err, models.ErrProfileNameRequired)
}

func TestDeviceProfileRepo_GetByDeviceID(t *testing.T) {
	repo := NewDeviceProfileRepository(setupDeviceProfileTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, testProfile("dev-1")))

	found, err := repo.GetByDeviceID(ctx, "dev-1")
	require.NoError(t, err)
	assert.Equal(t, "dev-1", found.DeviceID)

	_, err = repo.GetByDeviceID(ctx, "missing")
	assert.ErrorIs(t, err, models.ErrDeviceProfileNotFound)
}

func TestDeviceProfileRepo_Update(t *testing.T) {
	repo := NewDeviceProfileRepository(setupDeviceProfileTestDB(t))
	ctx := context.Background()

	profile := testProfile("dev-1")
	require.NoError(t, repo.Create(ctx, profile))

	profile.MaxStreamingBitrate = 4_000_000
	require.NoError(t, repo.Update(ctx, profile))

	found, err := repo.GetByID(ctx, profile.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(4_000_000), found.MaxStreamingBitrate)
}

func TestDeviceProfileRepo_Delete(t *testing.T) {
	repo := NewDeviceProfileRepository(setupDeviceProfileTestDB(t))
	ctx := context.Background()

	profile := testProfile("dev-1")
	require.NoError(t, repo.Create(ctx, profile))
	require.NoError(t, repo.Delete(ctx, profile.ID))

	_, err := repo.GetByID(ctx, profile.ID)
	assert.ErrorIs(t, err, models.ErrDeviceProfileNotFound)
}

func TestDeviceProfileRepo_GetAll_Ordering(t *testing.T) {
	repo := NewDeviceProfileRepository(setupDeviceProfileTestDB(t))
	ctx := context.Background()

	b := testProfile("dev-b")
	b.Name = "Bedroom"
	a := testProfile("dev-a")
	a.Name = "Attic"
	require.NoError(t, repo.Create(ctx, b))
	require.NoError(t, repo.Create(ctx, a))

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Attic", all[0].Name)
	assert.Equal(t, "Bedroom", all[1].Name)
}
