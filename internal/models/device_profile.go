package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// StringList is a []string stored as a JSON column.
type StringList []string

// Value implements driver.Valuer for database storage.
func (l StringList) Value() (driver.Value, error) {
	if len(l) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("marshaling string list: %w", err)
	}
	return string(b), nil
}

// Scan implements sql.Scanner for database retrieval.
func (l *StringList) Scan(value any) error {
	if value == nil {
		*l = nil
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return fmt.Errorf("unsupported type for StringList: %T", value)
	}
	if len(data) == 0 {
		*l = nil
		return nil
	}
	return json.Unmarshal(data, l)
}

// GormDataType returns the GORM data type for StringList.
func (StringList) GormDataType() string {
	return "text"
}

// contains performs a case-insensitive membership test.
func (l StringList) contains(v string) bool {
	for _, item := range l {
		if strings.EqualFold(item, v) {
			return true
		}
	}
	return false
}

// DeviceProfile describes the playback capabilities a device declared.
// A profile is immutable once resolved for a negotiation request.
type DeviceProfile struct {
	BaseModel

	// Name is a user-friendly profile name.
	Name string `gorm:"not null;size:255" json:"name"`

	// DeviceID keys the profile in the device-capability registry.
	DeviceID string `gorm:"uniqueIndex;not null;size:255" json:"device_id"`

	// SupportedContainers lists containers the device plays natively.
	// Empty means the device declares no container restrictions.
	SupportedContainers StringList `json:"supported_containers"`

	// SupportedVideoCodecs and SupportedAudioCodecs list playable codecs.
	// Empty means no restriction.
	SupportedVideoCodecs StringList `json:"supported_video_codecs"`
	SupportedAudioCodecs StringList `json:"supported_audio_codecs"`

	// MaxStreamingBitrate is the device's bitrate ceiling in bits per
	// second, 0 for unlimited.
	MaxStreamingBitrate int64 `json:"max_streaming_bitrate"`
}

// TableName returns the table name for DeviceProfile.
func (DeviceProfile) TableName() string {
	return "device_profiles"
}

// SupportsContainer returns true if the device plays the container natively.
func (p *DeviceProfile) SupportsContainer(container string) bool {
	if len(p.SupportedContainers) == 0 {
		return true
	}
	return p.SupportedContainers.contains(container)
}

// SupportsVideoCodec returns true if the device decodes the video codec.
// An empty codec declaration is treated as compatible.
func (p *DeviceProfile) SupportsVideoCodec(codec string) bool {
	if codec == "" || len(p.SupportedVideoCodecs) == 0 {
		return true
	}
	return p.SupportedVideoCodecs.contains(codec)
}

// SupportsAudioCodec returns true if the device decodes the audio codec.
func (p *DeviceProfile) SupportsAudioCodec(codec string) bool {
	if codec == "" || len(p.SupportedAudioCodecs) == 0 {
		return true
	}
	return p.SupportedAudioCodecs.contains(codec)
}

// Sanitize trims whitespace from user-provided fields.
func (p *DeviceProfile) Sanitize() {
	p.Name = strings.TrimSpace(p.Name)
	p.DeviceID = strings.TrimSpace(p.DeviceID)
}

// Validate performs basic validation on the profile.
func (p *DeviceProfile) Validate() error {
	p.Sanitize()

	if p.Name == "" {
		return ErrProfileNameRequired
	}
	if p.DeviceID == "" {
		return ErrDeviceIDRequired
	}
	return nil
}

// BeforeCreate is a GORM hook that validates the profile and generates a ULID.
func (p *DeviceProfile) BeforeCreate(tx *gorm.DB) error {
	if err := p.BaseModel.BeforeCreate(tx); err != nil {
		return err
	}
	return p.Validate()
}

// BeforeUpdate is a GORM hook that validates the profile before update.
func (p *DeviceProfile) BeforeUpdate(tx *gorm.DB) error {
	return p.Validate()
}
