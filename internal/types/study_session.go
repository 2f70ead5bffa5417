package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	StudyKindStudy  = "study"
	StudyKindReview = "review"
	StudyKindQuiz   = "quiz"
)

// StudySession is a structured in-app session, the counterpart of the
// passively tracked ExternalAppSession.
type StudySession struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	TopicID         uint           `gorm:"column:topic_id;not null;index" json:"topic_id"`
	Topic           *Topic         `gorm:"constraint:OnDelete:CASCADE;foreignKey:TopicID;references:ID" json:"topic,omitempty"`
	StartedAt       time.Time      `gorm:"column:started_at;not null" json:"started_at"`
	EndedAt         *time.Time     `gorm:"column:ended_at" json:"ended_at,omitempty"`
	DurationMinutes int            `gorm:"column:duration_minutes;not null;default:0" json:"duration_minutes"`
	XPEarned        int            `gorm:"column:xp_earned;not null;default:0" json:"xp_earned"`
	Kind            string         `gorm:"column:kind;not null;default:'study'" json:"kind"`
	Metadata        datatypes.JSON `gorm:"column:metadata" json:"metadata,omitempty"`
	CreatedAt       time.Time      `gorm:"not null" json:"created_at"`
}

func (StudySession) TableName() string { return "study_session" }
