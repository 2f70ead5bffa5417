package services

import "time"

// reviewLeadDays is how far ahead the first review of a freshly touched
// topic is scheduled.
const reviewLeadDays = 3

func isoDay(t time.Time) string {
	return t.Format("2006-01-02")
}

func nextReviewDay(now time.Time) string {
	return isoDay(now.AddDate(0, 0, reviewLeadDays))
}
