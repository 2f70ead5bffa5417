package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/studytrack-backend/internal/logger"
	"github.com/yungbote/studytrack-backend/internal/types"
)

// ProviderKeys carries the profile-stored provider credentials into a
// transcription call. Empty fields fall back to ambient configuration.
type ProviderKeys struct {
	OpenAIAPIKey       string
	GCPCredentialsJSON string
}

// Transcriber is the engine-agnostic lecture-analysis contract. Both
// engines return the same shape so attribution never cares which ran.
type Transcriber interface {
	Analyze(ctx context.Context, recordingPath string, keys ProviderKeys) (*types.LectureAnalysis, error)
}

const analysisSystemPrompt = `You analyze a recorded medical lecture for a study tracker.
Identify the single best-fitting subject, up to 5 specific topic names, up to 8 key concepts,
a 2-3 sentence summary, and your confidence (1=low, 2=medium, 3=high) that the topics are correct.
Topic names should match standard curriculum phrasing, not sentence fragments.`

func analysisSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []string{"subject", "topics", "key_concepts", "summary", "confidence"},
		"properties": map[string]any{
			"subject":      map[string]any{"type": "string"},
			"topics":       map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "maxItems": types.MaxAnalysisTopics},
			"key_concepts": map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "maxItems": types.MaxAnalysisKeyConcepts},
			"summary":      map[string]any{"type": "string"},
			"confidence":   map[string]any{"type": "integer", "minimum": 1, "maximum": 3},
		},
	}
}

func analysisFromJSON(obj map[string]any) *types.LectureAnalysis {
	out := &types.LectureAnalysis{}
	if v, ok := obj["subject"].(string); ok {
		out.Subject = strings.TrimSpace(v)
	}
	if v, ok := obj["summary"].(string); ok {
		out.Summary = strings.TrimSpace(v)
	}
	if v, ok := obj["confidence"].(float64); ok {
		out.Confidence = int(v)
	}
	out.Topics = stringSlice(obj["topics"])
	out.KeyConcepts = stringSlice(obj["key_concepts"])
	out.Clamp()
	return out
}

func stringSlice(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out
}

// ---- Direct audio-understanding engine ----

type audioEngine struct {
	log    *logger.Logger
	client OpenAIClient
}

func NewAudioEngine(baseLog *logger.Logger, client OpenAIClient) Transcriber {
	return &audioEngine{log: baseLog.With("service", "AudioEngine"), client: client}
}

func (e *audioEngine) Analyze(ctx context.Context, recordingPath string, keys ProviderKeys) (*types.LectureAnalysis, error) {
	obj, err := e.client.AnalyzeAudioJSON(ctx, analysisSystemPrompt, recordingPath, "lecture_analysis", analysisSchema(), keys.OpenAIAPIKey)
	if err != nil {
		return nil, fmt.Errorf("audio analysis: %w", err)
	}
	return analysisFromJSON(obj), nil
}

// ---- Speech-to-text then topic-extraction engine ----

type pipelineEngine struct {
	log    *logger.Logger
	speech SpeechProvider
	client OpenAIClient
}

func NewPipelineEngine(baseLog *logger.Logger, speech SpeechProvider, client OpenAIClient) Transcriber {
	return &pipelineEngine{
		log:    baseLog.With("service", "PipelineEngine"),
		speech: speech,
		client: client,
	}
}

func (e *pipelineEngine) Analyze(ctx context.Context, recordingPath string, keys ProviderKeys) (*types.LectureAnalysis, error) {
	transcript, err := e.speech.TranscribeFile(ctx, recordingPath, keys.GCPCredentialsJSON)
	if err != nil {
		return nil, fmt.Errorf("speech to text: %w", err)
	}
	if strings.TrimSpace(transcript) == "" {
		return nil, fmt.Errorf("empty transcript for %q", recordingPath)
	}

	user := "Lecture transcript:\n\n" + transcript
	obj, err := e.client.GenerateJSON(ctx, analysisSystemPrompt, user, "lecture_analysis", analysisSchema(), keys.OpenAIAPIKey)
	if err != nil {
		return nil, fmt.Errorf("topic extraction: %w", err)
	}
	return analysisFromJSON(obj), nil
}
