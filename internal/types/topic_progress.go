package types

import (
	"time"
)

const (
	StatusUnseen   = "unseen"
	StatusSeen     = "seen"
	StatusReviewed = "reviewed"
	StatusMastered = "mastered"
)

// StatusRank orders statuses by engagement. Unknown values rank below
// unseen so they never block an upgrade.
func StatusRank(status string) int {
	switch status {
	case StatusUnseen:
		return 0
	case StatusSeen:
		return 1
	case StatusReviewed:
		return 2
	case StatusMastered:
		return 3
	default:
		return -1
	}
}

type TopicProgress struct {
	TopicID       uint       `gorm:"primaryKey;autoIncrement:false;column:topic_id" json:"topic_id"`
	Topic         *Topic     `gorm:"constraint:OnDelete:CASCADE;foreignKey:TopicID;references:ID" json:"topic,omitempty"`
	Status        string     `gorm:"column:status;not null;default:'unseen'" json:"status"`
	Confidence    int        `gorm:"column:confidence;not null;default:0" json:"confidence"`
	LastStudiedAt *time.Time `gorm:"column:last_studied_at" json:"last_studied_at,omitempty"`
	TimesStudied  int        `gorm:"column:times_studied;not null;default:0" json:"times_studied"`
	XPEarned      int        `gorm:"column:xp_earned;not null;default:0" json:"xp_earned"`
	NextReviewOn  *string    `gorm:"column:next_review_on" json:"next_review_on,omitempty"`
	Notes         string     `gorm:"column:notes" json:"notes"`
	WrongCount    int        `gorm:"column:wrong_count;not null;default:0" json:"wrong_count"`
	Nemesis       bool       `gorm:"column:nemesis;not null;default:false" json:"nemesis"`
}

func (TopicProgress) TableName() string { return "topic_progress" }
