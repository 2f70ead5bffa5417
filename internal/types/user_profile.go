package types

import (
	"time"

	"github.com/google/uuid"
)

// ProfileID is the fixed primary key of the singleton profile row.
var ProfileID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

const (
	EngineAudio    = "audio"
	EnginePipeline = "pipeline"
)

type UserProfile struct {
	ID                      uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TotalXP                 int       `gorm:"column:total_xp;not null;default:0" json:"total_xp"`
	Level                   int       `gorm:"column:level;not null;default:0" json:"level"`
	Streak                  int       `gorm:"column:streak;not null;default:0" json:"streak"`
	BestStreak              int       `gorm:"column:best_streak;not null;default:0" json:"best_streak"`
	LastActiveOn            string    `gorm:"column:last_active_on" json:"last_active_on"`
	DailyGoalMinutes        int       `gorm:"column:daily_goal_minutes;not null;default:120" json:"daily_goal_minutes"`
	ExternalTrackingEnabled bool      `gorm:"column:external_tracking_enabled;not null;default:true" json:"external_tracking_enabled"`
	AutoTranscribe          bool      `gorm:"column:auto_transcribe;not null;default:false" json:"auto_transcribe"`
	OpenAIAPIKey            string    `gorm:"column:openai_api_key" json:"-"`
	GCPCredentialsJSON      string    `gorm:"column:gcp_credentials_json" json:"-"`
	PreferredEngine         string    `gorm:"column:preferred_engine;not null;default:'audio'" json:"preferred_engine"`
	CreatedAt               time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt               time.Time `gorm:"not null" json:"updated_at"`
}

func (UserProfile) TableName() string { return "user_profile" }
