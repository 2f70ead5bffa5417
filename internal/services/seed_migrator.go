package services

import (
	"context"
	"fmt"
	"time"

	"github.com/yungbote/studytrack-backend/internal/db"
	"github.com/yungbote/studytrack-backend/internal/logger"
	"github.com/yungbote/studytrack-backend/internal/repos"
	"github.com/yungbote/studytrack-backend/internal/seed"
	"github.com/yungbote/studytrack-backend/internal/types"
)

// SeedMigrator boots the taxonomy from the static catalogs. Initialize is
// called on every process start; every step is insert-or-ignore or
// fires-only-at-default, so repeated runs (including runs interrupted
// mid-way on a previous boot) converge to the same state. No rollback is
// needed: a partial seed is repaired by the next boot's pass.
type SeedMigrator interface {
	Initialize(ctx context.Context, forceReset bool) error
}

type seedMigrator struct {
	store    *db.StoreService
	log      *logger.Logger
	subjects repos.SubjectRepo
	topics   repos.TopicRepo
	progress repos.TopicProgressRepo
	profile  repos.UserProfileRepo
	catalogs []seed.Catalog
	now      func() time.Time
}

func NewSeedMigrator(store *db.StoreService, baseLog *logger.Logger, subjects repos.SubjectRepo, topics repos.TopicRepo, progress repos.TopicProgressRepo, profile repos.UserProfileRepo, catalogs []seed.Catalog) SeedMigrator {
	return &seedMigrator{
		store:    store,
		log:      baseLog.With("service", "SeedMigrator"),
		subjects: subjects,
		topics:   topics,
		progress: progress,
		profile:  profile,
		catalogs: catalogs,
		now:      time.Now,
	}
}

func (s *seedMigrator) Initialize(ctx context.Context, forceReset bool) error {
	if err := s.store.AutoMigrateAll(); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	s.store.ApplyAdditiveMigrations()

	if forceReset {
		s.log.Warn("Force reset requested, clearing taxonomy tables")
		if err := s.progress.DeleteAll(ctx, nil); err != nil {
			return fmt.Errorf("reset topic_progress: %w", err)
		}
		if err := s.topics.DeleteAll(ctx, nil); err != nil {
			return fmt.Errorf("reset topic: %w", err)
		}
		if err := s.subjects.DeleteAll(ctx, nil); err != nil {
			return fmt.Errorf("reset subject: %w", err)
		}
	}

	if err := s.seedSubjects(ctx); err != nil {
		return err
	}
	if err := s.seedTopics(ctx); err != nil {
		return err
	}
	if err := s.resolveParents(ctx); err != nil {
		return err
	}
	if err := s.applyBaselineUpgrades(ctx); err != nil {
		return err
	}
	if err := s.backfillProgress(ctx); err != nil {
		return err
	}

	if _, err := s.profile.Ensure(ctx, nil); err != nil {
		return fmt.Errorf("ensure profile: %w", err)
	}

	s.log.Info("Seed/migration pass complete", "catalogs", len(s.catalogs))
	return nil
}

// seedSubjects runs unconditionally on every boot so subjects added by a
// software update appear without a destructive reseed.
func (s *seedMigrator) seedSubjects(ctx context.Context) error {
	for _, cat := range s.catalogs {
		for i := range cat.Subjects {
			subject := cat.Subjects[i]
			created, err := s.subjects.Ensure(ctx, nil, &subject)
			if err != nil {
				return fmt.Errorf("seed subject %q: %w", subject.Name, err)
			}
			if created {
				s.log.Debug("Subject seeded", "subject", subject.Name, "catalog", cat.Name)
			}
		}
	}
	return nil
}

// seedTopics is pass 1: insert every topic from every catalog in priority
// order, creating the 1:1 progress row immediately for fresh inserts.
// Parent references are deliberately left for pass 2.
func (s *seedMigrator) seedTopics(ctx context.Context) error {
	for _, cat := range s.catalogs {
		for _, st := range cat.Topics {
			row := types.Topic{
				SubjectID:  st.SubjectID,
				Name:       st.Name,
				Priority:   st.Priority,
				EstMinutes: st.EstMinutes,
			}
			created, err := s.topics.Ensure(ctx, nil, &row)
			if err != nil {
				return fmt.Errorf("seed topic (%d, %q): %w", st.SubjectID, st.Name, err)
			}
			if created {
				if _, err := s.progress.Ensure(ctx, nil, row.ID); err != nil {
					return fmt.Errorf("seed progress for topic %d: %w", row.ID, err)
				}
			}
		}
	}
	return nil
}

// resolveParents is pass 2: look up each named parent's already-inserted
// row and write its id onto the child. A parent name that resolves to no
// row is a data-consistency gap and is skipped, not raised.
func (s *seedMigrator) resolveParents(ctx context.Context) error {
	for _, cat := range s.catalogs {
		for _, st := range cat.Topics {
			if st.ParentName == "" {
				continue
			}
			child, err := s.topics.GetBySubjectAndName(ctx, nil, st.SubjectID, st.Name)
			if err != nil {
				return fmt.Errorf("resolve child (%d, %q): %w", st.SubjectID, st.Name, err)
			}
			parent, err := s.topics.GetBySubjectAndName(ctx, nil, st.SubjectID, st.ParentName)
			if err != nil {
				return fmt.Errorf("resolve parent (%d, %q): %w", st.SubjectID, st.ParentName, err)
			}
			if child == nil || parent == nil {
				s.log.Debug("Parent reference skipped", "topic", st.Name, "parent", st.ParentName)
				continue
			}
			if err := s.topics.SetParent(ctx, nil, child.ID, parent.ID); err != nil {
				return fmt.Errorf("set parent for topic %d: %w", child.ID, err)
			}
		}
	}
	return nil
}

// applyBaselineUpgrades elevates the default progress fields of every
// topic named by a baseline catalog. Each field only moves when still at
// its default, so an already-progressed topic is never re-bumped.
func (s *seedMigrator) applyBaselineUpgrades(ctx context.Context) error {
	now := s.now()
	for _, cat := range s.catalogs {
		if !cat.Baseline {
			continue
		}
		for _, st := range cat.Topics {
			topic, err := s.topics.GetBySubjectAndName(ctx, nil, st.SubjectID, st.Name)
			if err != nil {
				return fmt.Errorf("baseline lookup (%d, %q): %w", st.SubjectID, st.Name, err)
			}
			if topic == nil {
				continue
			}
			if _, err := s.progress.Ensure(ctx, nil, topic.ID); err != nil {
				return fmt.Errorf("baseline ensure progress %d: %w", topic.ID, err)
			}
			prog, err := s.progress.GetByTopicID(ctx, nil, topic.ID)
			if err != nil {
				return fmt.Errorf("baseline get progress %d: %w", topic.ID, err)
			}

			changed := false
			if prog.Status == types.StatusUnseen {
				prog.Status = types.StatusSeen
				changed = true
			}
			if prog.Confidence == 0 {
				prog.Confidence = 1
				changed = true
			}
			if prog.TimesStudied == 0 {
				prog.TimesStudied = 1
				changed = true
			}
			if prog.NextReviewOn == nil {
				d := nextReviewDay(now)
				prog.NextReviewOn = &d
				changed = true
			}
			if prog.LastStudiedAt == nil {
				t := now
				prog.LastStudiedAt = &t
				changed = true
			}
			if changed {
				if err := s.progress.Save(ctx, nil, prog); err != nil {
					return fmt.Errorf("baseline save progress %d: %w", topic.ID, err)
				}
			}
		}
	}
	return nil
}

// backfillProgress guards the progress-row-completeness invariant against
// any insertion path that created a topic without its progress row.
func (s *seedMigrator) backfillProgress(ctx context.Context) error {
	ids, err := s.topics.ListIDsMissingProgress(ctx, nil)
	if err != nil {
		return fmt.Errorf("list topics missing progress: %w", err)
	}
	for _, id := range ids {
		if _, err := s.progress.Ensure(ctx, nil, id); err != nil {
			return fmt.Errorf("backfill progress %d: %w", id, err)
		}
	}
	if len(ids) > 0 {
		s.log.Info("Backfilled missing progress rows", "count", len(ids))
	}
	return nil
}
