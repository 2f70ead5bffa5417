package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/studytrack-backend/internal/logger"
	"github.com/yungbote/studytrack-backend/internal/repos"
	"github.com/yungbote/studytrack-backend/internal/types"
)

// LifecycleEvent is the explicit form of the host process's
// foreground/background signals, so the state machine can be driven by
// synthetic events in tests.
type LifecycleEvent string

const (
	EventForegrounded LifecycleEvent = "foregrounded"
	EventBackgrounded LifecycleEvent = "backgrounded"
)

func ParseLifecycleEvent(s string) (LifecycleEvent, error) {
	switch LifecycleEvent(strings.ToLower(strings.TrimSpace(s))) {
	case EventForegrounded:
		return EventForegrounded, nil
	case EventBackgrounded:
		return EventBackgrounded, nil
	default:
		return "", fmt.Errorf("unknown lifecycle event %q", s)
	}
}

// tooShortNote marks sessions closed with zero whole minutes.
const tooShortNote = "Cancelled - duration too short"

type LaunchResult struct {
	Launched bool                      `json:"launched"`
	StoreURL string                    `json:"store_url,omitempty"`
	Degraded bool                      `json:"degraded"`
	Session  *types.ExternalAppSession `json:"session,omitempty"`
}

type ReturnResult struct {
	Session     *types.ExternalAppSession `json:"session,omitempty"`
	CreditedXP  int                       `json:"credited_xp"`
	OfferReview bool                      `json:"offer_review"`
}

// SessionTracker coordinates the external-session lifecycle. All of its
// state lives in the external_app_session table, so a process restart
// re-derives the pending session from the most recent open row and the
// next foreground event closes it; nothing is lost to a crash except the
// in-memory recording handle, which Stop already tolerates.
type SessionTracker interface {
	RequestLaunch(ctx context.Context, appID string) (*LaunchResult, error)
	HandleEvent(ctx context.Context, event LifecycleEvent) (*ReturnResult, error)
	Transcribe(ctx context.Context, sessionID uuid.UUID) (*types.LectureAnalysis, error)
	AcceptAnalysis(ctx context.Context, sessionID uuid.UUID, analysis *types.LectureAnalysis) error
	DeclineAnalysis(ctx context.Context, sessionID uuid.UUID) error
	ListRecent(ctx context.Context, limit int) ([]*types.ExternalAppSession, error)
}

type sessionTracker struct {
	log         *logger.Logger
	sessions    repos.ExternalSessionRepo
	profileRepo repos.UserProfileRepo
	profileSvc  ProfileService
	attributor  TopicAttributor
	recorder    Recorder
	gateway     DeviceGateway
	engines     map[string]Transcriber
	now         func() time.Time
}

func NewSessionTracker(baseLog *logger.Logger, sessions repos.ExternalSessionRepo, profileRepo repos.UserProfileRepo, profileSvc ProfileService, attributor TopicAttributor, recorder Recorder, gateway DeviceGateway, engines map[string]Transcriber) SessionTracker {
	return &sessionTracker{
		log:         baseLog.With("service", "SessionTracker"),
		sessions:    sessions,
		profileRepo: profileRepo,
		profileSvc:  profileSvc,
		attributor:  attributor,
		recorder:    recorder,
		gateway:     gateway,
		engines:     engines,
		now:         time.Now,
	}
}

func (s *sessionTracker) RequestLaunch(ctx context.Context, appID string) (*LaunchResult, error) {
	profile, err := s.profileRepo.Ensure(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("ensure profile: %w", err)
	}
	if !profile.ExternalTrackingEnabled {
		return nil, fmt.Errorf("external tracking is disabled")
	}

	app, ok := s.gateway.App(appID)
	if !ok {
		return nil, fmt.Errorf("unknown app %q", appID)
	}

	if !s.gateway.IsInstalled(appID) {
		s.log.Info("App not installed, redirecting to store", "app_id", appID)
		return &LaunchResult{Launched: false, StoreURL: app.StoreURL}, nil
	}

	// Microphone/recorder failure is a degraded launch, never a blocked
	// one: time is still tracked, only the transcription step is skipped
	// later.
	recordingPath := ""
	if path, err := s.recorder.Start(ctx); err != nil {
		s.log.Warn("Recording unavailable, continuing without audio", "app_id", appID, "error", err)
	} else {
		recordingPath = path
	}

	if !s.gateway.Launch(appID) {
		if recordingPath != "" {
			if _, err := s.recorder.Stop(ctx); err != nil {
				s.log.Debug("Recorder stop after failed launch", "error", err)
			}
			if err := s.recorder.Delete(ctx, recordingPath); err != nil {
				s.log.Warn("Failed to discard recording", "error", err)
			}
		}
		s.log.Warn("Launch failed, falling back to store", "app_id", appID)
		return &LaunchResult{Launched: false, StoreURL: app.StoreURL}, nil
	}

	row := &types.ExternalAppSession{
		AppName:    app.Name,
		LaunchedAt: s.now(),
	}
	if recordingPath != "" {
		row.RecordingPath = &recordingPath
	}
	if err := s.sessions.Create(ctx, nil, row); err != nil {
		return nil, fmt.Errorf("create session row: %w", err)
	}

	s.log.Info("External session started", "app", app.Name, "session_id", row.ID, "degraded", recordingPath == "")
	return &LaunchResult{Launched: true, Degraded: recordingPath == "", Session: row}, nil
}

func (s *sessionTracker) HandleEvent(ctx context.Context, event LifecycleEvent) (*ReturnResult, error) {
	if event != EventForegrounded {
		// Backgrounding carries no transition of its own; the session row
		// was already written at launch.
		return nil, nil
	}

	open, err := s.sessions.GetOpenLatest(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("find open session: %w", err)
	}
	if open == nil {
		return nil, nil
	}

	// Stop may fail after a process restart (stale handle); fall back to
	// the path captured at launch time.
	recordingPath := open.RecordingPath
	if stopped, err := s.recorder.Stop(ctx); err != nil {
		s.log.Debug("Recorder stop failed, keeping launch-time path", "error", err)
	} else if stopped != "" {
		recordingPath = &stopped
	}

	now := s.now()
	minutes := int(now.Sub(open.LaunchedAt).Minutes())
	if minutes < 0 {
		minutes = 0
	}

	if minutes == 0 {
		updates := map[string]any{
			"returned_at":      now,
			"duration_minutes": 0,
			"notes":            tooShortNote,
			"recording_path":   nil,
		}
		if err := s.sessions.UpdateFields(ctx, nil, open.ID, updates); err != nil {
			return nil, fmt.Errorf("close session: %w", err)
		}
		if recordingPath != nil {
			if err := s.recorder.Delete(ctx, *recordingPath); err != nil {
				s.log.Warn("Failed to discard too-short recording", "error", err)
			}
		}
		closed, err := s.sessions.GetByID(ctx, nil, open.ID)
		if err != nil {
			return nil, err
		}
		s.log.Info("External session too short, not credited", "session_id", open.ID)
		return &ReturnResult{Session: closed}, nil
	}

	updates := map[string]any{
		"returned_at":      now,
		"duration_minutes": minutes,
	}
	if recordingPath != nil {
		updates["recording_path"] = *recordingPath
	}
	if err := s.sessions.UpdateFields(ctx, nil, open.ID, updates); err != nil {
		return nil, fmt.Errorf("close session: %w", err)
	}

	// Base time credit lands regardless of whether a recording exists.
	// XP crediting is not atomic with the row close above; a crash between
	// the two is repaired by the next foreground pass re-deriving from the
	// persisted row.
	points := minutes * XPPerMinute
	if err := s.profileSvc.AwardXP(ctx, points, minutes); err != nil {
		return nil, fmt.Errorf("credit time xp: %w", err)
	}

	closed, err := s.sessions.GetByID(ctx, nil, open.ID)
	if err != nil {
		return nil, err
	}

	offerReview := recordingPath != nil
	s.log.Info("External session closed", "session_id", open.ID, "minutes", minutes, "xp", points, "offer_review", offerReview)
	return &ReturnResult{Session: closed, CreditedXP: points, OfferReview: offerReview}, nil
}

// Transcribe runs the configured engine against the session's recording.
// A failure is returned as-is so the same request can be retried by the
// user; the recording is preserved until an explicit accept or decline.
func (s *sessionTracker) Transcribe(ctx context.Context, sessionID uuid.UUID) (*types.LectureAnalysis, error) {
	row, err := s.sessions.GetByID(ctx, nil, sessionID)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, fmt.Errorf("session %s not found", sessionID)
	}
	if row.RecordingPath == nil || *row.RecordingPath == "" {
		return nil, fmt.Errorf("session %s has no recording", sessionID)
	}

	profile, err := s.profileRepo.Ensure(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("ensure profile: %w", err)
	}

	engineName := profile.PreferredEngine
	engine, ok := s.engines[engineName]
	if !ok {
		engineName = types.EngineAudio
		engine, ok = s.engines[engineName]
		if !ok {
			return nil, fmt.Errorf("no transcription engine configured")
		}
	}

	keys := ProviderKeys{
		OpenAIAPIKey:       profile.OpenAIAPIKey,
		GCPCredentialsJSON: profile.GCPCredentialsJSON,
	}

	s.log.Info("Transcribing recording", "session_id", sessionID, "engine", engineName)
	analysis, err := engine.Analyze(ctx, *row.RecordingPath, keys)
	if err != nil {
		return nil, fmt.Errorf("engine %s: %w", engineName, err)
	}
	return analysis, nil
}

// AcceptAnalysis is the user's approval of a lecture analysis: topics are
// attributed, the bonus is counted on the topics the analysis returned
// (not on the nodes that actually matched), and the recording is deleted.
func (s *sessionTracker) AcceptAnalysis(ctx context.Context, sessionID uuid.UUID, analysis *types.LectureAnalysis) error {
	if analysis == nil {
		return fmt.Errorf("analysis required")
	}
	row, err := s.sessions.GetByID(ctx, nil, sessionID)
	if err != nil {
		return err
	}
	if row == nil {
		return fmt.Errorf("session %s not found", sessionID)
	}

	analysis.Clamp()
	if err := s.attributor.Attribute(ctx, analysis.Topics, analysis.Confidence, analysis.Subject); err != nil {
		return fmt.Errorf("attribute topics: %w", err)
	}

	bonus := XPPerAnalysisTopic * len(analysis.Topics)
	if bonus > 0 {
		if err := s.profileSvc.AwardXP(ctx, bonus, 0); err != nil {
			return fmt.Errorf("credit bonus xp: %w", err)
		}
	}

	updates := map[string]any{"recording_path": nil}
	if meta, err := json.Marshal(map[string]any{
		"subject":      analysis.Subject,
		"topics":       analysis.Topics,
		"key_concepts": analysis.KeyConcepts,
		"summary":      analysis.Summary,
		"confidence":   analysis.Confidence,
	}); err == nil {
		updates["metadata"] = datatypes.JSON(meta)
	}
	if err := s.sessions.UpdateFields(ctx, nil, sessionID, updates); err != nil {
		return fmt.Errorf("annotate session: %w", err)
	}

	if row.RecordingPath != nil {
		if err := s.recorder.Delete(ctx, *row.RecordingPath); err != nil {
			s.log.Warn("Failed to delete accepted recording", "error", err)
		}
	}

	s.log.Info("Analysis accepted", "session_id", sessionID, "topics", len(analysis.Topics), "bonus_xp", bonus)
	return nil
}

func (s *sessionTracker) DeclineAnalysis(ctx context.Context, sessionID uuid.UUID) error {
	row, err := s.sessions.GetByID(ctx, nil, sessionID)
	if err != nil {
		return err
	}
	if row == nil {
		return fmt.Errorf("session %s not found", sessionID)
	}

	if err := s.sessions.UpdateFields(ctx, nil, sessionID, map[string]any{"recording_path": nil}); err != nil {
		return fmt.Errorf("annotate session: %w", err)
	}
	if row.RecordingPath != nil {
		if err := s.recorder.Delete(ctx, *row.RecordingPath); err != nil {
			s.log.Warn("Failed to delete declined recording", "error", err)
		}
	}

	s.log.Info("Analysis declined", "session_id", sessionID)
	return nil
}

func (s *sessionTracker) ListRecent(ctx context.Context, limit int) ([]*types.ExternalAppSession, error) {
	return s.sessions.ListClosed(ctx, nil, limit)
}
