package services

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/studytrack-backend/internal/logger"
	"github.com/yungbote/studytrack-backend/internal/repos"
	"github.com/yungbote/studytrack-backend/internal/types"
)

type SubjectProgress struct {
	Subject      *types.Subject `json:"subject"`
	TopicCount   int            `json:"topic_count"`
	StatusCounts map[string]int `json:"status_counts"`
}

type TopicWithProgress struct {
	Topic    *types.Topic         `json:"topic"`
	Progress *types.TopicProgress `json:"progress,omitempty"`
}

// TaxonomyService is the read side of the taxonomy store.
type TaxonomyService interface {
	ListSubjects(ctx context.Context) ([]*types.Subject, error)
	ListTopics(ctx context.Context, subjectID int) ([]*TopicWithProgress, error)
	ProgressSummary(ctx context.Context) ([]*SubjectProgress, error)
}

type taxonomyService struct {
	log      *logger.Logger
	subjects repos.SubjectRepo
	topics   repos.TopicRepo
	progress repos.TopicProgressRepo
}

func NewTaxonomyService(baseLog *logger.Logger, subjects repos.SubjectRepo, topics repos.TopicRepo, progress repos.TopicProgressRepo) TaxonomyService {
	return &taxonomyService{
		log:      baseLog.With("service", "TaxonomyService"),
		subjects: subjects,
		topics:   topics,
		progress: progress,
	}
}

func (s *taxonomyService) ListSubjects(ctx context.Context) ([]*types.Subject, error) {
	return s.subjects.GetAll(ctx, nil)
}

func (s *taxonomyService) ListTopics(ctx context.Context, subjectID int) ([]*TopicWithProgress, error) {
	subject, err := s.subjects.GetByID(ctx, nil, subjectID)
	if err != nil {
		return nil, fmt.Errorf("get subject: %w", err)
	}
	if subject == nil {
		return nil, fmt.Errorf("subject %d not found", subjectID)
	}

	topics, err := s.topics.GetBySubjectID(ctx, nil, subjectID)
	if err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}

	ids := make([]uint, 0, len(topics))
	for _, t := range topics {
		ids = append(ids, t.ID)
	}
	progressRows, err := s.progress.GetByTopicIDs(ctx, nil, ids)
	if err != nil {
		return nil, fmt.Errorf("load progress: %w", err)
	}
	byTopic := make(map[uint]*types.TopicProgress, len(progressRows))
	for _, p := range progressRows {
		byTopic[p.TopicID] = p
	}

	out := make([]*TopicWithProgress, 0, len(topics))
	for _, t := range topics {
		out = append(out, &TopicWithProgress{Topic: t, Progress: byTopic[t.ID]})
	}
	return out, nil
}

func (s *taxonomyService) ProgressSummary(ctx context.Context) ([]*SubjectProgress, error) {
	subjects, err := s.subjects.GetAll(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}

	var mu sync.Mutex
	out := make([]*SubjectProgress, 0, len(subjects))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, subject := range subjects {
		subject := subject
		g.Go(func() error {
			counts, err := s.progress.StatusCounts(gctx, nil, subject.ID)
			if err != nil {
				return fmt.Errorf("status counts for subject %d: %w", subject.ID, err)
			}
			total := 0
			for _, n := range counts {
				total += n
			}
			mu.Lock()
			out = append(out, &SubjectProgress{
				Subject:      subject,
				TopicCount:   total,
				StatusCounts: counts,
			})
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Subject.DisplayOrder < out[j].Subject.DisplayOrder
	})
	return out, nil
}
