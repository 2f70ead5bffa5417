package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/yungbote/studytrack-backend/internal/logger"
	"github.com/yungbote/studytrack-backend/internal/repos"
	"github.com/yungbote/studytrack-backend/internal/types"
)

// TopicAttributor maps free-text, AI-derived topic names onto the canonical
// taxonomy and credits the matched nodes' progress.
type TopicAttributor interface {
	// Attribute resolves each name to at most one taxonomy node and updates
	// its progress. A node matched once in a call is consumed for the rest
	// of that call, so one analysis never credits the same node twice. The
	// result is therefore sensitive to the order of the incoming names;
	// providers decide that order, not this code.
	Attribute(ctx context.Context, topicNames []string, confidence int, subjectHint string) error
}

type topicAttributor struct {
	log      *logger.Logger
	subjects repos.SubjectRepo
	topics   repos.TopicRepo
	progress repos.TopicProgressRepo
	now      func() time.Time
}

func NewTopicAttributor(baseLog *logger.Logger, subjects repos.SubjectRepo, topics repos.TopicRepo, progress repos.TopicProgressRepo) TopicAttributor {
	return &topicAttributor{
		log:      baseLog.With("service", "TopicAttributor"),
		subjects: subjects,
		topics:   topics,
		progress: progress,
		now:      time.Now,
	}
}

func (s *topicAttributor) Attribute(ctx context.Context, topicNames []string, confidence int, subjectHint string) error {
	if len(topicNames) == 0 {
		return nil
	}

	all, err := s.topics.GetAll(ctx, nil)
	if err != nil {
		return fmt.Errorf("load taxonomy: %w", err)
	}

	hintSubjectID := 0
	if strings.TrimSpace(subjectHint) != "" {
		subject, err := s.subjects.GetByNameOrCode(ctx, nil, subjectHint)
		if err != nil {
			return fmt.Errorf("resolve subject hint: %w", err)
		}
		if subject != nil {
			hintSubjectID = subject.ID
		}
	}

	consumed := make(map[uint]bool)
	var matched []*types.Topic

	for _, raw := range topicNames {
		name := strings.TrimSpace(raw)
		if name == "" {
			continue
		}
		node := matchTopic(name, hintSubjectID, all, consumed)
		if node == nil {
			s.log.Debug("Topic name dropped, no taxonomy match", "name", name)
			continue
		}
		consumed[node.ID] = true
		matched = append(matched, node)
	}

	now := s.now()
	for _, node := range matched {
		if err := s.creditNode(ctx, node.ID, confidence, now, true); err != nil {
			return err
		}
	}

	// Demonstrating a subtopic implies exposure to the umbrella topic:
	// unmatched parents of matched nodes get the status/confidence touch
	// but no times-studied increment and no review date.
	parentSeen := make(map[uint]bool)
	for _, node := range matched {
		if node.ParentID == nil {
			continue
		}
		pid := *node.ParentID
		if consumed[pid] || parentSeen[pid] {
			continue
		}
		parentSeen[pid] = true
		if err := s.creditNode(ctx, pid, confidence, now, false); err != nil {
			return err
		}
	}

	s.log.Info("Attribution complete", "input_names", len(topicNames), "matched", len(matched), "parents", len(parentSeen))
	return nil
}

// matchTopic applies the layered strategies in strict precedence order and
// stops at the first hit. Consumed nodes are invisible to every strategy.
func matchTopic(name string, hintSubjectID int, all []*types.Topic, consumed map[uint]bool) *types.Topic {
	needle := strings.ToLower(name)

	scan := func(pred func(*types.Topic) bool) *types.Topic {
		for _, t := range all {
			if consumed[t.ID] {
				continue
			}
			if pred(t) {
				return t
			}
		}
		return nil
	}

	if hintSubjectID != 0 {
		// 1. Exact match scoped to the hinted subject.
		if t := scan(func(t *types.Topic) bool {
			return t.SubjectID == hintSubjectID && strings.EqualFold(t.Name, name)
		}); t != nil {
			return t
		}
		// 2. Node name contains the given text, scoped.
		if t := scan(func(t *types.Topic) bool {
			return t.SubjectID == hintSubjectID && strings.Contains(strings.ToLower(t.Name), needle)
		}); t != nil {
			return t
		}
		// 3. Given text contains the node name, scoped.
		if t := scan(func(t *types.Topic) bool {
			return t.SubjectID == hintSubjectID && strings.Contains(needle, strings.ToLower(t.Name))
		}); t != nil {
			return t
		}
	}

	// 4. Exact match across all subjects.
	if t := scan(func(t *types.Topic) bool {
		return strings.EqualFold(t.Name, name)
	}); t != nil {
		return t
	}
	// 5. Substring match across all subjects.
	return scan(func(t *types.Topic) bool {
		return strings.Contains(strings.ToLower(t.Name), needle)
	})
}

// creditNode applies the progress upgrade for one node. full=false is the
// parent-propagation variant: status/confidence/last-studied only.
func (s *topicAttributor) creditNode(ctx context.Context, topicID uint, confidence int, now time.Time, full bool) error {
	if _, err := s.progress.Ensure(ctx, nil, topicID); err != nil {
		return fmt.Errorf("ensure progress %d: %w", topicID, err)
	}
	prog, err := s.progress.GetByTopicID(ctx, nil, topicID)
	if err != nil {
		return fmt.Errorf("get progress %d: %w", topicID, err)
	}

	// Status only ever moves unseen -> seen here; reviewed/mastered are
	// player-driven states that attribution must not disturb.
	if prog.Status == types.StatusUnseen {
		prog.Status = types.StatusSeen
	}
	if confidence > prog.Confidence {
		prog.Confidence = confidence
	}
	t := now
	prog.LastStudiedAt = &t

	if full {
		prog.TimesStudied++
		// First touch wins; later calls never push the review date out.
		if prog.NextReviewOn == nil {
			d := nextReviewDay(now)
			prog.NextReviewOn = &d
		}
	}

	if err := s.progress.Save(ctx, nil, prog); err != nil {
		return fmt.Errorf("save progress %d: %w", topicID, err)
	}
	return nil
}
