package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/yungbote/studytrack-backend/internal/types"
)

type fakeRecorder struct {
	startPath string
	startErr  error
	stopErr   error
	stopped   []string
	deleted   []string
}

func (f *fakeRecorder) Start(ctx context.Context) (string, error) {
	if f.startErr != nil {
		return "", f.startErr
	}
	return f.startPath, nil
}

func (f *fakeRecorder) Stop(ctx context.Context) (string, error) {
	if f.stopErr != nil {
		return "", f.stopErr
	}
	f.stopped = append(f.stopped, f.startPath)
	return f.startPath, nil
}

func (f *fakeRecorder) Delete(ctx context.Context, path string) error {
	f.deleted = append(f.deleted, path)
	return nil
}

type fakeGateway struct {
	apps      map[string]TrackedApp
	installed map[string]bool
	launchOK  bool
	launched  []string
}

func newFakeGateway() *fakeGateway {
	marrow := TrackedApp{ID: "com.marrow", Name: "Marrow", StoreURL: "https://store.example/marrow"}
	return &fakeGateway{
		apps:      map[string]TrackedApp{marrow.ID: marrow},
		installed: map[string]bool{},
		launchOK:  true,
	}
}

func (f *fakeGateway) IsInstalled(appID string) bool { return f.installed[appID] }

func (f *fakeGateway) Launch(appID string) bool {
	if !f.launchOK {
		return false
	}
	f.launched = append(f.launched, appID)
	return true
}

func (f *fakeGateway) App(appID string) (TrackedApp, bool) {
	a, ok := f.apps[appID]
	return a, ok
}

func (f *fakeGateway) ReportInstalled(appID string, installed bool) { f.installed[appID] = installed }

type fakeTranscriber struct {
	analysis *types.LectureAnalysis
	err      error
	calls    int
	lastPath string
	lastKeys ProviderKeys
}

func (f *fakeTranscriber) Analyze(ctx context.Context, recordingPath string, keys ProviderKeys) (*types.LectureAnalysis, error) {
	f.calls++
	f.lastPath = recordingPath
	f.lastKeys = keys
	if f.err != nil {
		return nil, f.err
	}
	return f.analysis, nil
}

type trackerFixture struct {
	env      *testEnv
	tracker  *sessionTracker
	recorder *fakeRecorder
	gateway  *fakeGateway
	audio    *fakeTranscriber
	pipeline *fakeTranscriber
	current  time.Time
}

func newTrackerFixture(t *testing.T) *trackerFixture {
	t.Helper()
	env := newTestEnv(t)
	env.seedTaxonomy(t)

	f := &trackerFixture{
		env:      env,
		recorder: &fakeRecorder{startPath: "/tmp/lecture_test.m4a"},
		gateway:  newFakeGateway(),
		audio:    &fakeTranscriber{analysis: &types.LectureAnalysis{Subject: "Physiology", Topics: []string{"Cardiac Cycle"}, Confidence: 2}},
		pipeline: &fakeTranscriber{analysis: &types.LectureAnalysis{Subject: "Physiology", Topics: []string{"Cardiac Cycle"}, Confidence: 2}},
		current:  time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC),
	}
	f.gateway.installed["com.marrow"] = true

	profileSvc := NewProfileService(env.log, env.profile, env.daily, env.study, env.progress).(*profileService)
	profileSvc.now = func() time.Time { return f.current }
	attributor := NewTopicAttributor(env.log, env.subjects, env.topics, env.progress).(*topicAttributor)
	attributor.now = func() time.Time { return f.current }

	engines := map[string]Transcriber{
		types.EngineAudio:    f.audio,
		types.EnginePipeline: f.pipeline,
	}
	tracker := NewSessionTracker(env.log, env.sessions, env.profile, profileSvc, attributor, f.recorder, f.gateway, engines).(*sessionTracker)
	tracker.now = func() time.Time { return f.current }
	f.tracker = tracker
	return f
}

func (f *trackerFixture) advance(d time.Duration) { f.current = f.current.Add(d) }

func TestRequestLaunchRedirectsWhenNotInstalled(t *testing.T) {
	f := newTrackerFixture(t)
	ctx := context.Background()
	f.gateway.installed["com.marrow"] = false

	result, err := f.tracker.RequestLaunch(ctx, "com.marrow")
	if err != nil {
		t.Fatalf("request launch: %v", err)
	}
	if result.Launched {
		t.Fatal("launched an uninstalled app")
	}
	if result.StoreURL != "https://store.example/marrow" {
		t.Fatalf("store url: got=%q", result.StoreURL)
	}

	// A store redirect must not leave a session row behind.
	open, err := f.env.sessions.CountOpen(ctx, nil)
	if err != nil {
		t.Fatalf("count open: %v", err)
	}
	if open != 0 {
		t.Fatalf("open sessions after redirect: want=0 got=%d", open)
	}
}

func TestRequestLaunchUnknownApp(t *testing.T) {
	f := newTrackerFixture(t)
	if _, err := f.tracker.RequestLaunch(context.Background(), "com.unknown"); err == nil {
		t.Fatal("unknown app accepted")
	}
}

func TestRequestLaunchRespectsTrackingToggle(t *testing.T) {
	f := newTrackerFixture(t)
	ctx := context.Background()

	profile, err := f.env.profile.Ensure(ctx, nil)
	if err != nil {
		t.Fatalf("ensure profile: %v", err)
	}
	profile.ExternalTrackingEnabled = false
	if err := f.env.profile.Save(ctx, nil, profile); err != nil {
		t.Fatalf("save profile: %v", err)
	}

	if _, err := f.tracker.RequestLaunch(ctx, "com.marrow"); err == nil {
		t.Fatal("launch allowed with tracking disabled")
	}
}

func TestRequestLaunchDegradesWithoutRecorder(t *testing.T) {
	f := newTrackerFixture(t)
	ctx := context.Background()
	f.recorder.startErr = fmt.Errorf("microphone busy")

	result, err := f.tracker.RequestLaunch(ctx, "com.marrow")
	if err != nil {
		t.Fatalf("request launch: %v", err)
	}
	if !result.Launched || !result.Degraded {
		t.Fatalf("degraded launch: launched=%v degraded=%v", result.Launched, result.Degraded)
	}
	if result.Session == nil || result.Session.RecordingPath != nil {
		t.Fatalf("degraded session must have no recording path: %+v", result.Session)
	}
}

func TestRequestLaunchFallsBackToStoreOnLaunchFailure(t *testing.T) {
	f := newTrackerFixture(t)
	ctx := context.Background()
	f.gateway.launchOK = false

	result, err := f.tracker.RequestLaunch(ctx, "com.marrow")
	if err != nil {
		t.Fatalf("request launch: %v", err)
	}
	if result.Launched {
		t.Fatal("failed launch reported as launched")
	}
	if result.StoreURL == "" {
		t.Fatal("no store fallback on failed launch")
	}
	if len(f.recorder.deleted) != 1 {
		t.Fatalf("orphaned recording not discarded: deleted=%v", f.recorder.deleted)
	}
	open, _ := f.env.sessions.CountOpen(ctx, nil)
	if open != 0 {
		t.Fatalf("open sessions after failed launch: want=0 got=%d", open)
	}
}

func TestSessionLifecycleCreditsTime(t *testing.T) {
	f := newTrackerFixture(t)
	ctx := context.Background()

	launch, err := f.tracker.RequestLaunch(ctx, "com.marrow")
	if err != nil {
		t.Fatalf("request launch: %v", err)
	}
	if !launch.Launched || launch.Session == nil {
		t.Fatalf("launch result: %+v", launch)
	}
	open, _ := f.env.sessions.CountOpen(ctx, nil)
	if open != 1 {
		t.Fatalf("open sessions after launch: want=1 got=%d", open)
	}

	// Backgrounding while in the external app is a no-op.
	if result, err := f.tracker.HandleEvent(ctx, EventBackgrounded); err != nil || result != nil {
		t.Fatalf("backgrounded: result=%v err=%v", result, err)
	}

	f.advance(47*time.Minute + 30*time.Second)
	result, err := f.tracker.HandleEvent(ctx, EventForegrounded)
	if err != nil {
		t.Fatalf("foregrounded: %v", err)
	}
	if result == nil || result.Session == nil {
		t.Fatal("no return result for open session")
	}
	if result.Session.DurationMinutes == nil || *result.Session.DurationMinutes != 47 {
		t.Fatalf("duration: want=47 got=%v", result.Session.DurationMinutes)
	}
	if result.CreditedXP != 235 {
		t.Fatalf("credited xp: want=235 got=%d", result.CreditedXP)
	}
	if !result.OfferReview {
		t.Fatal("review not offered despite recording")
	}

	profile, err := f.env.profile.Get(ctx, nil)
	if err != nil {
		t.Fatalf("get profile: %v", err)
	}
	if profile.TotalXP != 235 {
		t.Fatalf("profile xp: want=235 got=%d", profile.TotalXP)
	}
	daily, err := f.env.daily.Get(ctx, nil, "2025-03-10")
	if err != nil || daily == nil {
		t.Fatalf("daily log: %v (row=%v)", err, daily)
	}
	if daily.TotalMinutes != 47 {
		t.Fatalf("daily minutes: want=47 got=%d", daily.TotalMinutes)
	}

	open, _ = f.env.sessions.CountOpen(ctx, nil)
	if open != 0 {
		t.Fatalf("open sessions after close: want=0 got=%d", open)
	}
}

func TestTooShortSessionIsCancelled(t *testing.T) {
	f := newTrackerFixture(t)
	ctx := context.Background()

	if _, err := f.tracker.RequestLaunch(ctx, "com.marrow"); err != nil {
		t.Fatalf("request launch: %v", err)
	}

	f.advance(30 * time.Second)
	result, err := f.tracker.HandleEvent(ctx, EventForegrounded)
	if err != nil {
		t.Fatalf("foregrounded: %v", err)
	}
	if result.CreditedXP != 0 {
		t.Fatalf("too-short session credited: xp=%d", result.CreditedXP)
	}
	if result.OfferReview {
		t.Fatal("review offered for discarded recording")
	}
	if result.Session.DurationMinutes == nil || *result.Session.DurationMinutes != 0 {
		t.Fatalf("duration: want=0 got=%v", result.Session.DurationMinutes)
	}
	if result.Session.Notes == nil || *result.Session.Notes != "Cancelled - duration too short" {
		t.Fatalf("cancellation note: got=%v", result.Session.Notes)
	}
	if result.Session.RecordingPath != nil {
		t.Fatalf("recording path kept on cancelled session: %v", *result.Session.RecordingPath)
	}
	if len(f.recorder.deleted) != 1 {
		t.Fatalf("recording not discarded: deleted=%v", f.recorder.deleted)
	}

	profile, _ := f.env.profile.Get(ctx, nil)
	if profile != nil && profile.TotalXP != 0 {
		t.Fatalf("xp credited for cancelled session: %d", profile.TotalXP)
	}
}

func TestForegroundWithoutOpenSessionIsNoOp(t *testing.T) {
	f := newTrackerFixture(t)
	result, err := f.tracker.HandleEvent(context.Background(), EventForegrounded)
	if err != nil {
		t.Fatalf("foregrounded: %v", err)
	}
	if result != nil {
		t.Fatalf("result without open session: %+v", result)
	}
}

func TestCrashRecoveryClosesFromPersistedRow(t *testing.T) {
	f := newTrackerFixture(t)
	ctx := context.Background()

	// An open row from a previous process; the recorder has no in-memory
	// handle anymore, so Stop fails and the launch-time path is used.
	path := "/tmp/lecture_old.m4a"
	launched := f.current.Add(-90 * time.Minute)
	row := &types.ExternalAppSession{AppName: "Marrow", LaunchedAt: launched, RecordingPath: &path}
	if err := f.env.sessions.Create(ctx, nil, row); err != nil {
		t.Fatalf("insert open row: %v", err)
	}
	f.recorder.stopErr = fmt.Errorf("no active recording")

	result, err := f.tracker.HandleEvent(ctx, EventForegrounded)
	if err != nil {
		t.Fatalf("foregrounded: %v", err)
	}
	if result == nil || result.Session == nil {
		t.Fatal("persisted open row not recovered")
	}
	if result.Session.DurationMinutes == nil || *result.Session.DurationMinutes != 90 {
		t.Fatalf("recovered duration: want=90 got=%v", result.Session.DurationMinutes)
	}
	if !result.OfferReview {
		t.Fatal("launch-time recording path lost in recovery")
	}
	if result.Session.RecordingPath == nil || *result.Session.RecordingPath != path {
		t.Fatalf("recording path: want=%q got=%v", path, result.Session.RecordingPath)
	}
}

func TestTranscribeSelectsPreferredEngine(t *testing.T) {
	f := newTrackerFixture(t)
	ctx := context.Background()

	launch, err := f.tracker.RequestLaunch(ctx, "com.marrow")
	if err != nil {
		t.Fatalf("request launch: %v", err)
	}
	f.advance(10 * time.Minute)
	if _, err := f.tracker.HandleEvent(ctx, EventForegrounded); err != nil {
		t.Fatalf("foregrounded: %v", err)
	}

	profile, err := f.env.profile.Ensure(ctx, nil)
	if err != nil {
		t.Fatalf("ensure profile: %v", err)
	}
	profile.PreferredEngine = types.EnginePipeline
	profile.GCPCredentialsJSON = `{"type":"service_account"}`
	if err := f.env.profile.Save(ctx, nil, profile); err != nil {
		t.Fatalf("save profile: %v", err)
	}

	analysis, err := f.tracker.Transcribe(ctx, launch.Session.ID)
	if err != nil {
		t.Fatalf("transcribe: %v", err)
	}
	if analysis == nil || analysis.Subject != "Physiology" {
		t.Fatalf("analysis: %+v", analysis)
	}
	if f.pipeline.calls != 1 || f.audio.calls != 0 {
		t.Fatalf("wrong engine: pipeline=%d audio=%d", f.pipeline.calls, f.audio.calls)
	}
	if f.pipeline.lastKeys.GCPCredentialsJSON == "" {
		t.Fatal("profile credentials not forwarded")
	}
	if f.pipeline.lastPath != f.recorder.startPath {
		t.Fatalf("recording path: want=%q got=%q", f.recorder.startPath, f.pipeline.lastPath)
	}
}

func TestTranscribeFallsBackToAudioEngine(t *testing.T) {
	f := newTrackerFixture(t)
	ctx := context.Background()

	launch, _ := f.tracker.RequestLaunch(ctx, "com.marrow")
	f.advance(10 * time.Minute)
	if _, err := f.tracker.HandleEvent(ctx, EventForegrounded); err != nil {
		t.Fatalf("foregrounded: %v", err)
	}

	profile, _ := f.env.profile.Ensure(ctx, nil)
	profile.PreferredEngine = "holographic"
	if err := f.env.profile.Save(ctx, nil, profile); err != nil {
		t.Fatalf("save profile: %v", err)
	}

	if _, err := f.tracker.Transcribe(ctx, launch.Session.ID); err != nil {
		t.Fatalf("transcribe: %v", err)
	}
	if f.audio.calls != 1 {
		t.Fatalf("audio fallback not used: calls=%d", f.audio.calls)
	}
}

func TestTranscribeWithoutRecordingFails(t *testing.T) {
	f := newTrackerFixture(t)
	ctx := context.Background()
	f.recorder.startErr = fmt.Errorf("microphone busy")

	launch, err := f.tracker.RequestLaunch(ctx, "com.marrow")
	if err != nil {
		t.Fatalf("request launch: %v", err)
	}
	if _, err := f.tracker.Transcribe(ctx, launch.Session.ID); err == nil {
		t.Fatal("transcribe succeeded without a recording")
	}
}

func TestAcceptAnalysisCreditsTopicsAndBonus(t *testing.T) {
	f := newTrackerFixture(t)
	ctx := context.Background()

	launch, _ := f.tracker.RequestLaunch(ctx, "com.marrow")
	f.advance(40 * time.Minute)
	if _, err := f.tracker.HandleEvent(ctx, EventForegrounded); err != nil {
		t.Fatalf("foregrounded: %v", err)
	}
	baseXP := 40 * XPPerMinute

	analysis := &types.LectureAnalysis{
		Subject:    "Physiology",
		Topics:     []string{"Cardiac Cycle", "Respiratory Physiology"},
		Summary:    "Covered the cardiac cycle and ventilation basics.",
		Confidence: 3,
	}
	if err := f.tracker.AcceptAnalysis(ctx, launch.Session.ID, analysis); err != nil {
		t.Fatalf("accept: %v", err)
	}

	// Bonus counts the analysis topics, on top of the time credit.
	profile, err := f.env.profile.Get(ctx, nil)
	if err != nil {
		t.Fatalf("get profile: %v", err)
	}
	want := baseXP + 2*XPPerAnalysisTopic
	if profile.TotalXP != want {
		t.Fatalf("total xp: want=%d got=%d", want, profile.TotalXP)
	}

	id := f.env.topicByName(t, 2, "Cardiac Cycle")
	prog, err := f.env.progress.GetByTopicID(ctx, nil, id)
	if err != nil {
		t.Fatalf("get progress: %v", err)
	}
	if prog.TimesStudied != 1 || prog.Confidence != 3 {
		t.Fatalf("attributed progress: times=%d confidence=%d", prog.TimesStudied, prog.Confidence)
	}

	row, err := f.env.sessions.GetByID(ctx, nil, launch.Session.ID)
	if err != nil {
		t.Fatalf("reload session: %v", err)
	}
	if row.RecordingPath != nil {
		t.Fatal("recording path kept after accept")
	}
	if len(row.Metadata) == 0 {
		t.Fatal("analysis metadata not stored on session")
	}
	if len(f.recorder.deleted) == 0 {
		t.Fatal("recording file not deleted after accept")
	}
}

func TestDeclineAnalysisDiscardsRecording(t *testing.T) {
	f := newTrackerFixture(t)
	ctx := context.Background()

	launch, _ := f.tracker.RequestLaunch(ctx, "com.marrow")
	f.advance(20 * time.Minute)
	if _, err := f.tracker.HandleEvent(ctx, EventForegrounded); err != nil {
		t.Fatalf("foregrounded: %v", err)
	}
	xpBefore := 20 * XPPerMinute

	if err := f.tracker.DeclineAnalysis(ctx, launch.Session.ID); err != nil {
		t.Fatalf("decline: %v", err)
	}

	row, err := f.env.sessions.GetByID(ctx, nil, launch.Session.ID)
	if err != nil {
		t.Fatalf("reload session: %v", err)
	}
	if row.RecordingPath != nil {
		t.Fatal("recording path kept after decline")
	}
	if len(f.recorder.deleted) == 0 {
		t.Fatal("recording file not deleted after decline")
	}

	// Declining never claws back the time credit.
	profile, _ := f.env.profile.Get(ctx, nil)
	if profile.TotalXP != xpBefore {
		t.Fatalf("time credit changed by decline: want=%d got=%d", xpBefore, profile.TotalXP)
	}
}

func TestParseLifecycleEvent(t *testing.T) {
	if _, err := ParseLifecycleEvent("rebooted"); err == nil {
		t.Fatal("unknown event accepted")
	}
	event, err := ParseLifecycleEvent("  Foregrounded ")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if event != EventForegrounded {
		t.Fatalf("event: want=%q got=%q", EventForegrounded, event)
	}
}
