package types

// DailyLog aggregates one calendar day of activity across in-app and
// external sessions. Day is an ISO YYYY-MM-DD string.
type DailyLog struct {
	Day          string `gorm:"primaryKey;column:day" json:"day"`
	CheckedIn    bool   `gorm:"column:checked_in;not null;default:false" json:"checked_in"`
	Mood         string `gorm:"column:mood" json:"mood"`
	TotalMinutes int    `gorm:"column:total_minutes;not null;default:0" json:"total_minutes"`
	XPEarned     int    `gorm:"column:xp_earned;not null;default:0" json:"xp_earned"`
	SessionCount int    `gorm:"column:session_count;not null;default:0" json:"session_count"`
}

func (DailyLog) TableName() string { return "daily_log" }
