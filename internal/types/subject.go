package types

type Subject struct {
	ID           int     `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Name         string  `gorm:"not null;column:name" json:"name"`
	Code         string  `gorm:"not null;column:code" json:"code"`
	Color        string  `gorm:"column:color" json:"color"`
	ExamWeight   float64 `gorm:"column:exam_weight;not null;default:0" json:"exam_weight"`
	YieldWeight  float64 `gorm:"column:yield_weight;not null;default:0" json:"yield_weight"`
	DisplayOrder int     `gorm:"column:display_order;not null;default:0" json:"display_order"`
}

func (Subject) TableName() string { return "subject" }
