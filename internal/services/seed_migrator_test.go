package services

import (
	"context"
	"testing"
	"time"

	"github.com/yungbote/studytrack-backend/internal/types"
)

func TestInitializeIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	migrator := env.newSeedMigrator()

	if err := migrator.Initialize(ctx, false); err != nil {
		t.Fatalf("first initialize: %v", err)
	}
	topicsAfterFirst, err := env.topics.Count(ctx, nil)
	if err != nil {
		t.Fatalf("count topics: %v", err)
	}
	if topicsAfterFirst == 0 {
		t.Fatal("no topics seeded")
	}

	if err := migrator.Initialize(ctx, false); err != nil {
		t.Fatalf("second initialize: %v", err)
	}
	topicsAfterSecond, err := env.topics.Count(ctx, nil)
	if err != nil {
		t.Fatalf("count topics: %v", err)
	}
	if topicsAfterFirst != topicsAfterSecond {
		t.Fatalf("re-run changed topic count: want=%d got=%d", topicsAfterFirst, topicsAfterSecond)
	}

	// Every topic gets exactly one progress row.
	progressCount, err := env.progress.Count(ctx, nil)
	if err != nil {
		t.Fatalf("count progress: %v", err)
	}
	if progressCount != topicsAfterSecond {
		t.Fatalf("progress rows incomplete: topics=%d progress=%d", topicsAfterSecond, progressCount)
	}

	subjects, err := env.subjects.GetAll(ctx, nil)
	if err != nil {
		t.Fatalf("get subjects: %v", err)
	}
	if len(subjects) != 6 {
		t.Fatalf("subject count: want=6 got=%d", len(subjects))
	}

	// The singleton profile row exists after the pass.
	profile, err := env.profile.Get(ctx, nil)
	if err != nil {
		t.Fatalf("get profile: %v", err)
	}
	if profile == nil {
		t.Fatal("profile row not created")
	}
}

func TestInitializeMergesDuplicateCatalogTopics(t *testing.T) {
	env := newTestEnv(t)
	env.seedTaxonomy(t)
	ctx := context.Background()

	// "Neuroanatomy" appears in both catalogs; one row must win.
	all, err := env.topics.GetBySubjectID(ctx, nil, 1)
	if err != nil {
		t.Fatalf("get anatomy topics: %v", err)
	}
	seen := 0
	for _, topic := range all {
		if topic.Name == "Neuroanatomy" {
			seen++
		}
	}
	if seen != 1 {
		t.Fatalf("duplicate catalog topic rows: want=1 got=%d", seen)
	}
}

func TestInitializeResolvesParentsInSecondPass(t *testing.T) {
	env := newTestEnv(t)
	env.seedTaxonomy(t)
	ctx := context.Background()

	// "Upper Limb" is listed after its child, so only a second pass can
	// resolve the reference.
	child, err := env.topics.GetBySubjectAndName(ctx, nil, 1, "Brachial Plexus")
	if err != nil || child == nil {
		t.Fatalf("get child: %v (row=%v)", err, child)
	}
	parent, err := env.topics.GetBySubjectAndName(ctx, nil, 1, "Upper Limb")
	if err != nil || parent == nil {
		t.Fatalf("get parent: %v (row=%v)", err, parent)
	}
	if child.ParentID == nil || *child.ParentID != parent.ID {
		t.Fatalf("parent not resolved: want=%d got=%v", parent.ID, child.ParentID)
	}

	// Cross-catalog reference: vault topic pointing at a primary parent.
	vaultChild, err := env.topics.GetBySubjectAndName(ctx, nil, 2, "Acid Base Balance")
	if err != nil || vaultChild == nil {
		t.Fatalf("get vault child: %v (row=%v)", err, vaultChild)
	}
	if vaultChild.ParentID == nil {
		t.Fatal("cross-catalog parent not resolved")
	}
}

func TestInitializeAppliesBaselineOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	migrator := env.newSeedMigrator()
	seedTime := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	migrator.now = func() time.Time { return seedTime }
	if err := migrator.Initialize(ctx, false); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	// "Neuroanatomy" was inserted by the primary catalog but is also named
	// by the baseline vault, so its defaults get the one-time upgrade.
	id := env.topicByName(t, 1, "Neuroanatomy")
	prog, err := env.progress.GetByTopicID(ctx, nil, id)
	if err != nil {
		t.Fatalf("get progress: %v", err)
	}
	if prog.Status != types.StatusSeen {
		t.Fatalf("baseline status: want=%q got=%q", types.StatusSeen, prog.Status)
	}
	if prog.Confidence != 1 {
		t.Fatalf("baseline confidence: want=1 got=%d", prog.Confidence)
	}
	if prog.TimesStudied != 1 {
		t.Fatalf("baseline times studied: want=1 got=%d", prog.TimesStudied)
	}
	if prog.NextReviewOn == nil || *prog.NextReviewOn != "2025-03-13" {
		t.Fatalf("baseline next review: want=2025-03-13 got=%v", prog.NextReviewOn)
	}
	if prog.LastStudiedAt == nil {
		t.Fatal("baseline last studied not set")
	}

	// A topic that is not named by the vault keeps its defaults.
	unTouched := env.topicByName(t, 1, "Thorax")
	untouchedProg, err := env.progress.GetByTopicID(ctx, nil, unTouched)
	if err != nil {
		t.Fatalf("get untouched progress: %v", err)
	}
	if untouchedProg.Status != types.StatusUnseen || untouchedProg.TimesStudied != 0 {
		t.Fatalf("non-baseline topic upgraded: status=%q times=%d", untouchedProg.Status, untouchedProg.TimesStudied)
	}

	// Real progress made afterwards must never be re-bumped by a later boot.
	prog.Status = types.StatusMastered
	prog.Confidence = 3
	prog.TimesStudied = 9
	if err := env.progress.Save(ctx, nil, prog); err != nil {
		t.Fatalf("save progressed row: %v", err)
	}
	if err := migrator.Initialize(ctx, false); err != nil {
		t.Fatalf("re-initialize: %v", err)
	}
	after, err := env.progress.GetByTopicID(ctx, nil, id)
	if err != nil {
		t.Fatalf("get progress after reboot: %v", err)
	}
	if after.Status != types.StatusMastered || after.Confidence != 3 || after.TimesStudied != 9 {
		t.Fatalf("baseline re-bumped progressed row: status=%q confidence=%d times=%d", after.Status, after.Confidence, after.TimesStudied)
	}
}

func TestInitializeBackfillsMissingProgress(t *testing.T) {
	env := newTestEnv(t)
	env.seedTaxonomy(t)
	ctx := context.Background()

	// Simulate a crash window where a topic landed without its progress row.
	id := env.topicByName(t, 4, "Neoplasia")
	if err := env.store.DB().Exec("DELETE FROM topic_progress WHERE topic_id = ?", id).Error; err != nil {
		t.Fatalf("drop progress row: %v", err)
	}

	env.seedTaxonomy(t)

	prog, err := env.progress.GetByTopicID(ctx, nil, id)
	if err != nil {
		t.Fatalf("get backfilled progress: %v", err)
	}
	if prog == nil {
		t.Fatal("progress row not backfilled")
	}
	if prog.Status != types.StatusUnseen {
		t.Fatalf("backfilled row not default: status=%q", prog.Status)
	}
}

func TestInitializeForceReset(t *testing.T) {
	env := newTestEnv(t)
	env.seedTaxonomy(t)
	ctx := context.Background()

	id := env.topicByName(t, 2, "Cardiac Cycle")
	prog, err := env.progress.GetByTopicID(ctx, nil, id)
	if err != nil {
		t.Fatalf("get progress: %v", err)
	}
	prog.Status = types.StatusMastered
	prog.TimesStudied = 12
	if err := env.progress.Save(ctx, nil, prog); err != nil {
		t.Fatalf("save progress: %v", err)
	}

	if err := env.newSeedMigrator().Initialize(ctx, true); err != nil {
		t.Fatalf("force reset initialize: %v", err)
	}

	topicCount, err := env.topics.Count(ctx, nil)
	if err != nil {
		t.Fatalf("count topics: %v", err)
	}
	progressCount, err := env.progress.Count(ctx, nil)
	if err != nil {
		t.Fatalf("count progress: %v", err)
	}
	if topicCount == 0 || topicCount != progressCount {
		t.Fatalf("reset left incomplete taxonomy: topics=%d progress=%d", topicCount, progressCount)
	}

	resetID := env.topicByName(t, 2, "Cardiac Cycle")
	resetProg, err := env.progress.GetByTopicID(ctx, nil, resetID)
	if err != nil {
		t.Fatalf("get reset progress: %v", err)
	}
	if resetProg.Status != types.StatusUnseen || resetProg.TimesStudied != 0 {
		t.Fatalf("progress survived force reset: status=%q times=%d", resetProg.Status, resetProg.TimesStudied)
	}
}
