package types

type Topic struct {
	ID         uint     `gorm:"primaryKey" json:"id"`
	SubjectID  int      `gorm:"not null;index:idx_subject_topic_name,unique" json:"subject_id"`
	Subject    *Subject `gorm:"constraint:OnDelete:CASCADE;foreignKey:SubjectID;references:ID" json:"subject,omitempty"`
	ParentID   *uint    `gorm:"column:parent_id" json:"parent_id,omitempty"`
	Name       string   `gorm:"not null;index:idx_subject_topic_name,unique" json:"name"`
	EstMinutes int      `gorm:"column:est_minutes;not null;default:0" json:"est_minutes"`
	Priority   int      `gorm:"column:priority;not null;default:0" json:"priority"`
}

func (Topic) TableName() string { return "topic" }
