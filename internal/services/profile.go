package services

import (
	"context"
	"fmt"
	"time"

	"github.com/yungbote/studytrack-backend/internal/logger"
	"github.com/yungbote/studytrack-backend/internal/repos"
	"github.com/yungbote/studytrack-backend/internal/types"
)

// ProfileService owns the singleton profile: XP totals, level, streak, and
// the daily log aggregation both session sources write into.
type ProfileService interface {
	Get(ctx context.Context) (*types.UserProfile, error)
	// AwardXP credits points and minutes. XP is append-only; a crash
	// between this and a session-row close is repaired by re-derivation
	// from the session row, never by correcting XP.
	AwardXP(ctx context.Context, points, minutes int) error
	CheckIn(ctx context.Context, mood string) error
	RecordStudySession(ctx context.Context, topicID uint, minutes int, kind string) (*types.StudySession, error)
	RecentStudySessions(ctx context.Context, limit int) ([]*types.StudySession, error)
	RecentDailyLogs(ctx context.Context, limit int) ([]*types.DailyLog, error)
}

type profileService struct {
	log      *logger.Logger
	profile  repos.UserProfileRepo
	daily    repos.DailyLogRepo
	sessions repos.StudySessionRepo
	progress repos.TopicProgressRepo
	now      func() time.Time
}

func NewProfileService(baseLog *logger.Logger, profile repos.UserProfileRepo, daily repos.DailyLogRepo, sessions repos.StudySessionRepo, progress repos.TopicProgressRepo) ProfileService {
	return &profileService{
		log:      baseLog.With("service", "ProfileService"),
		profile:  profile,
		daily:    daily,
		sessions: sessions,
		progress: progress,
		now:      time.Now,
	}
}

func (s *profileService) Get(ctx context.Context) (*types.UserProfile, error) {
	return s.profile.Ensure(ctx, nil)
}

func (s *profileService) AwardXP(ctx context.Context, points, minutes int) error {
	if points < 0 || minutes < 0 {
		return fmt.Errorf("negative xp award (points=%d minutes=%d)", points, minutes)
	}

	now := s.now()
	today := isoDay(now)

	profile, err := s.profile.Ensure(ctx, nil)
	if err != nil {
		return fmt.Errorf("ensure profile: %w", err)
	}

	profile.TotalXP += points
	profile.Level = LevelForTotalXP(profile.TotalXP)

	switch profile.LastActiveOn {
	case today:
		// already counted today
	case isoDay(now.AddDate(0, 0, -1)):
		profile.Streak++
	default:
		profile.Streak = 1
	}
	if profile.Streak > profile.BestStreak {
		profile.BestStreak = profile.Streak
	}
	profile.LastActiveOn = today

	if err := s.profile.Save(ctx, nil, profile); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}

	daily, err := s.daily.Ensure(ctx, nil, today)
	if err != nil {
		return fmt.Errorf("ensure daily log: %w", err)
	}
	daily.TotalMinutes += minutes
	daily.XPEarned += points
	if minutes > 0 {
		daily.SessionCount++
	}
	if err := s.daily.Save(ctx, nil, daily); err != nil {
		return fmt.Errorf("save daily log: %w", err)
	}

	s.log.Debug("XP awarded", "points", points, "minutes", minutes, "total_xp", profile.TotalXP, "level", profile.Level)
	return nil
}

func (s *profileService) CheckIn(ctx context.Context, mood string) error {
	today := isoDay(s.now())
	daily, err := s.daily.Ensure(ctx, nil, today)
	if err != nil {
		return fmt.Errorf("ensure daily log: %w", err)
	}
	daily.CheckedIn = true
	if mood != "" {
		daily.Mood = mood
	}
	return s.daily.Save(ctx, nil, daily)
}

// RecordStudySession logs a structured in-app session against one topic
// and applies the same progress touch a single attributed node gets.
func (s *profileService) RecordStudySession(ctx context.Context, topicID uint, minutes int, kind string) (*types.StudySession, error) {
	if topicID == 0 {
		return nil, fmt.Errorf("topic id required")
	}
	if minutes <= 0 {
		return nil, fmt.Errorf("session minutes must be positive")
	}
	switch kind {
	case types.StudyKindStudy, types.StudyKindReview, types.StudyKindQuiz:
	case "":
		kind = types.StudyKindStudy
	default:
		return nil, fmt.Errorf("unknown session kind %q", kind)
	}

	now := s.now()
	points := minutes * XPPerMinute
	ended := now

	row := &types.StudySession{
		TopicID:         topicID,
		StartedAt:       now.Add(-time.Duration(minutes) * time.Minute),
		EndedAt:         &ended,
		DurationMinutes: minutes,
		XPEarned:        points,
		Kind:            kind,
	}
	if err := s.sessions.Create(ctx, nil, row); err != nil {
		return nil, fmt.Errorf("create study session: %w", err)
	}

	if _, err := s.progress.Ensure(ctx, nil, topicID); err != nil {
		return nil, fmt.Errorf("ensure progress %d: %w", topicID, err)
	}
	prog, err := s.progress.GetByTopicID(ctx, nil, topicID)
	if err != nil {
		return nil, fmt.Errorf("get progress %d: %w", topicID, err)
	}
	if prog.Status == types.StatusUnseen {
		prog.Status = types.StatusSeen
	}
	prog.TimesStudied++
	prog.XPEarned += points
	t := now
	prog.LastStudiedAt = &t
	if prog.NextReviewOn == nil {
		d := nextReviewDay(now)
		prog.NextReviewOn = &d
	}
	if err := s.progress.Save(ctx, nil, prog); err != nil {
		return nil, fmt.Errorf("save progress %d: %w", topicID, err)
	}

	if err := s.AwardXP(ctx, points, minutes); err != nil {
		return nil, err
	}
	return row, nil
}

func (s *profileService) RecentStudySessions(ctx context.Context, limit int) ([]*types.StudySession, error) {
	return s.sessions.ListRecent(ctx, nil, limit)
}

func (s *profileService) RecentDailyLogs(ctx context.Context, limit int) ([]*types.DailyLog, error) {
	return s.daily.ListRecent(ctx, nil, limit)
}
