package types

const (
	MaxAnalysisTopics      = 5
	MaxAnalysisKeyConcepts = 8
)

// LectureAnalysis is the transcription collaborators' output contract. It
// is transient: consumed by attribution, never persisted as its own row.
type LectureAnalysis struct {
	Subject     string   `json:"subject"`
	Topics      []string `json:"topics"`
	KeyConcepts []string `json:"key_concepts"`
	Summary     string   `json:"summary"`
	Confidence  int      `json:"confidence"`
}

// Clamp trims the analysis to the contract limits and forces confidence
// into 1..3.
func (a *LectureAnalysis) Clamp() {
	if a == nil {
		return
	}
	if len(a.Topics) > MaxAnalysisTopics {
		a.Topics = a.Topics[:MaxAnalysisTopics]
	}
	if len(a.KeyConcepts) > MaxAnalysisKeyConcepts {
		a.KeyConcepts = a.KeyConcepts[:MaxAnalysisKeyConcepts]
	}
	if a.Confidence < 1 {
		a.Confidence = 1
	}
	if a.Confidence > 3 {
		a.Confidence = 3
	}
}
