package feedback

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kalambet/intervue/internal/engine"
	"github.com/kalambet/intervue/internal/interview"
	"github.com/kalambet/intervue/internal/stage"
)

type mockChatter struct {
	response string
	err      error
	messages []engine.Message
}

func (m *mockChatter) Chat(ctx context.Context, model string, messages []engine.Message, schema *engine.Schema) (string, error) {
	m.messages = messages
	return m.response, m.err
}

func answered(n int, scores interview.Scores) *interview.State {
	s := interview.NewState("s1", interview.RoleBackend, interview.SeniorityMid, interview.ModeText, time.Now())
	for i := 0; i < n; i++ {
		s.AskQuestion(interview.Question{Message: "q", QuestionType: interview.IntentAskBehavioral}, time.Now())
		s.RecordAnswer("an answer", time.Now())
		s.Analytics.Merge(interview.Analysis{Scores: scores, Note: "note"}, 2)
	}
	return s
}

func uniform(v float64) interview.Scores {
	return interview.Scores{Communication: v, Technical: v, Behavioral: v, Confidence: v, Engagement: v}
}

func TestEvaluate_NoResponses(t *testing.T) {
	s := interview.NewState("s1", interview.RoleBackend, interview.SeniorityMid, interview.ModeText, time.Now())
	s.AskQuestion(interview.Question{Message: "hello", QuestionType: interview.IntentAskBehavioral}, time.Now())

	mock := &mockChatter{response: `{}`}
	_, err := New(mock, "llama3.1", time.Second).Evaluate(context.Background(), s)
	if !errors.Is(err, interview.ErrNoResponses) {
		t.Errorf("err = %v, want ErrNoResponses", err)
	}
	if mock.messages != nil {
		t.Error("model was called without any answers")
	}
}

func TestEvaluate_FallbackAlwaysProducesResult(t *testing.T) {
	r, err := New(&mockChatter{err: errors.New("down")}, "llama3.1", time.Second).Evaluate(context.Background(), answered(1, uniform(5)))
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !r.Fallback {
		t.Error("Fallback = false, want true")
	}
	if !r.Value.Recommendation.Valid() {
		t.Errorf("Recommendation = %q, want a valid value", r.Value.Recommendation)
	}
	if r.Value.Summary == "" {
		t.Error("Summary is empty")
	}
}

func TestFallback_OverallIsRoundedMean(t *testing.T) {
	tests := []struct {
		scores  interview.Scores
		overall int
		rec     interview.Recommendation
	}{
		{uniform(9), 9, interview.StrongHire},
		{interview.Scores{Communication: 8, Technical: 7, Behavioral: 7, Confidence: 8, Engagement: 8}, 8, interview.StrongHire},
		{interview.Scores{Communication: 6, Technical: 6, Behavioral: 5, Confidence: 6, Engagement: 6}, 6, interview.Hire},
		{uniform(5), 5, interview.Maybe},
		{uniform(2), 2, interview.NoHire},
		{uniform(0), 1, interview.NoHire},
	}
	for _, tt := range tests {
		ev := Fallback(answered(2, tt.scores))
		if ev.OverallScore != tt.overall {
			t.Errorf("scores %+v: OverallScore = %d, want %d", tt.scores, ev.OverallScore, tt.overall)
		}
		if ev.Recommendation != tt.rec {
			t.Errorf("scores %+v: Recommendation = %q, want %q", tt.scores, ev.Recommendation, tt.rec)
		}
	}
}

func TestFallback_Thresholds(t *testing.T) {
	s := answered(7, uniform(5))
	s.Analytics.IsChatty = true
	ev := Fallback(s)
	if !contains(ev.Strengths, StrengthCompleted) {
		t.Errorf("Strengths = %v, want %q", ev.Strengths, StrengthCompleted)
	}
	if !contains(ev.Improvements, ImproveVerbose) {
		t.Errorf("Improvements = %v, want %q", ev.Improvements, ImproveVerbose)
	}

	ev = Fallback(answered(3, uniform(5)))
	if contains(ev.Strengths, StrengthCompleted) {
		t.Error("short interview credited as complete")
	}
	if contains(ev.Improvements, ImproveVerbose) {
		t.Error("verbose improvement added without chatty flag")
	}
}

func TestEvaluate_PartialReplyFallsBack(t *testing.T) {
	mock := &mockChatter{response: `{"summary":"ok"}`}
	r, err := New(mock, "llama3.1", time.Second).Evaluate(context.Background(), answered(3, uniform(9)))
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !r.Fallback {
		t.Fatalf("Fallback = false for a partial reply, value %+v", r.Value)
	}
	if !errors.Is(r.Err, stage.ErrMissingField) {
		t.Errorf("Err = %v, want ErrMissingField", r.Err)
	}
	if r.Value.OverallScore != 9 || r.Value.Recommendation != interview.StrongHire {
		t.Errorf("got overall %d %q, want 9 STRONG_HIRE", r.Value.OverallScore, r.Value.Recommendation)
	}
}

func TestEvaluate_ModelRecommendationRecomputed(t *testing.T) {
	mock := &mockChatter{response: `{"overall_score": 12,
		"scores": {"communication": 9, "technical": 9, "behavioral": 9, "confidence": 9, "engagement": 9},
		"strengths": ["depth"], "improvements": [], "highlights": [], "red_flags": [],
		"summary": "Strong candidate.", "recommendation": "NO_HIRE"}`}
	r, err := New(mock, "llama3.1", time.Second).Evaluate(context.Background(), answered(3, uniform(8)))
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if r.Fallback {
		t.Fatalf("unexpected fallback: %v", r.Err)
	}
	if r.Value.OverallScore != 10 {
		t.Errorf("OverallScore = %d, want clamped 10", r.Value.OverallScore)
	}
	if r.Value.Recommendation != interview.StrongHire {
		t.Errorf("Recommendation = %q, want STRONG_HIRE", r.Value.Recommendation)
	}
}

func TestBuildPrompt_IncludesTranscript(t *testing.T) {
	s := answered(2, uniform(6))
	msgs := BuildPrompt(s)
	if !strings.Contains(msgs[1].Content, "Candidate: an answer") {
		t.Errorf("transcript missing candidate answers: %q", msgs[1].Content)
	}
	if !strings.Contains(msgs[0].Content, "Answers: 2") {
		t.Error("system prompt missing analytics")
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
