package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type ExternalAppSession struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	AppName         string         `gorm:"column:app_name;not null" json:"app_name"`
	LaunchedAt      time.Time      `gorm:"column:launched_at;not null" json:"launched_at"`
	ReturnedAt      *time.Time     `gorm:"column:returned_at" json:"returned_at,omitempty"`
	DurationMinutes *int           `gorm:"column:duration_minutes" json:"duration_minutes,omitempty"`
	Notes           *string        `gorm:"column:notes" json:"notes,omitempty"`
	RecordingPath   *string        `gorm:"column:recording_path" json:"recording_path,omitempty"`
	Metadata        datatypes.JSON `gorm:"column:metadata" json:"metadata,omitempty"`
	CreatedAt       time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"not null" json:"updated_at"`
}

func (ExternalAppSession) TableName() string { return "external_app_session" }
