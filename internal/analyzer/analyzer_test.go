package analyzer

import (
	"context"
	"errors"
	"reflect"
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
	delay    time.Duration
	messages []engine.Message
	schema   *engine.Schema
}

func (m *mockChatter) Chat(ctx context.Context, model string, messages []engine.Message, schema *engine.Schema) (string, error) {
	m.messages = messages
	m.schema = schema
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return m.response, m.err
}

func words(n int) string {
	return strings.TrimSpace(strings.Repeat("word ", n))
}

func newState() *interview.State {
	s := interview.NewState("s1", interview.RoleBackend, interview.SeniorityMid, interview.ModeText, time.Now())
	s.AskQuestion(interview.Question{Message: "Tell me about yourself.", QuestionType: interview.IntentAskBehavioral}, time.Now())
	return s
}

func TestAnalyze_ModelOutput(t *testing.T) {
	mock := &mockChatter{response: `{
		"is_chatty": false, "is_too_short": false, "is_off_topic": true,
		"scores": {"communication": 7, "technical": 12, "behavioral": 6, "confidence": -1, "engagement": 3},
		"note": "Talked about the weather.",
		"strengths": ["friendly"], "weaknesses": ["off topic"], "suggestions": []
	}`}
	a := New(mock, "phi3.5", time.Second)

	r := a.Analyze(context.Background(), newState(), words(80))
	if r.Fallback {
		t.Fatalf("unexpected fallback: %v", r.Err)
	}
	got := r.Value
	if !got.IsOffTopic {
		t.Error("IsOffTopic = false, want true")
	}
	wantScores := interview.Scores{Communication: 7, Technical: 10, Behavioral: 6, Confidence: 0, Engagement: 3}
	if got.Scores != wantScores {
		t.Errorf("Scores = %+v, want clamped %+v", got.Scores, wantScores)
	}
	if mock.schema == nil || mock.schema.Properties["scores"] == nil {
		t.Error("schema was not forwarded to the model")
	}
}

func TestAnalyze_FallbackOnError(t *testing.T) {
	a := New(&mockChatter{err: errors.New("connection refused")}, "phi3.5", time.Second)

	r := a.Analyze(context.Background(), newState(), words(10))
	if !r.Fallback {
		t.Fatal("Fallback = false, want true")
	}
	if !reflect.DeepEqual(r.Value, Fallback(words(10))) {
		t.Errorf("Value = %+v, want Fallback()", r.Value)
	}
}

func TestAnalyze_FallbackOnTimeout(t *testing.T) {
	a := New(&mockChatter{response: `{}`, delay: 5 * time.Second}, "phi3.5", 50*time.Millisecond)

	start := time.Now()
	r := a.Analyze(context.Background(), newState(), words(10))
	if time.Since(start) > 2*time.Second {
		t.Error("Analyze did not respect its timeout")
	}
	if !r.Fallback {
		t.Error("Fallback = false, want true")
	}
}

func TestAnalyze_FallbackOnEmptyNote(t *testing.T) {
	mock := &mockChatter{response: `{"is_chatty":false,"is_too_short":true,"is_off_topic":false,
		"scores":{"communication":1,"technical":1,"behavioral":1,"confidence":1,"engagement":1},
		"note":"  ","strengths":[],"weaknesses":[],"suggestions":[]}`}
	r := New(mock, "phi3.5", time.Second).Analyze(context.Background(), newState(), words(10))
	if !r.Fallback {
		t.Error("Fallback = false, want true for an empty note")
	}
}

func TestAnalyze_PartialReplyFallsBack(t *testing.T) {
	mock := &mockChatter{response: `{"note":"fine"}`}
	r := New(mock, "phi3.5", time.Second).Analyze(context.Background(), newState(), "yes")
	if !r.Fallback {
		t.Fatalf("Fallback = false for a partial reply, value %+v", r.Value)
	}
	if !errors.Is(r.Err, stage.ErrMissingField) {
		t.Errorf("Err = %v, want ErrMissingField", r.Err)
	}
	if !r.Value.IsTooShort {
		t.Error("IsTooShort = false, want true for a one-word answer")
	}
	if r.Value.Scores != neutralScores() {
		t.Errorf("Scores = %+v, want neutral", r.Value.Scores)
	}
}

func TestFallback(t *testing.T) {
	tests := []struct {
		name      string
		words     int
		wantShort bool
		wantChat  bool
		wantNote  string
	}{
		{"empty", 0, true, false, NoteBrief},
		{"49 words", 49, true, false, NoteBrief},
		{"50 words", 50, false, false, NoteNeutral},
		{"250 words", 250, false, false, NoteNeutral},
		{"251 words", 251, false, true, NoteVerbose},
		{"500 words", 500, false, true, NoteVerbose},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Fallback(words(tt.words))
			if got.IsTooShort != tt.wantShort {
				t.Errorf("IsTooShort = %v, want %v", got.IsTooShort, tt.wantShort)
			}
			if got.IsChatty != tt.wantChat {
				t.Errorf("IsChatty = %v, want %v", got.IsChatty, tt.wantChat)
			}
			if got.IsOffTopic {
				t.Error("IsOffTopic = true, want false")
			}
			if got.Note != tt.wantNote {
				t.Errorf("Note = %q, want %q", got.Note, tt.wantNote)
			}
			for _, v := range got.Scores.Values() {
				if v != NeutralScore {
					t.Errorf("score = %v, want %v", v, NeutralScore)
				}
			}
		})
	}
}

func TestBuildPrompt(t *testing.T) {
	s := newState()
	s.Resume = "Eight years of Go."
	msgs := BuildPrompt(s, "I build APIs.")

	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2", len(msgs))
	}
	system := msgs[0].Content
	for _, want := range []string{"response analyst", "backend engineer", "Eight years of Go.", "Tell me about yourself."} {
		if !strings.Contains(system, want) {
			t.Errorf("system prompt missing %q", want)
		}
	}
	if !strings.Contains(msgs[1].Content, "I build APIs.") {
		t.Error("user message does not contain the answer")
	}
	if !strings.Contains(msgs[1].Content, "(3 words)") {
		t.Errorf("user message = %q, want word count", msgs[1].Content)
	}
}
