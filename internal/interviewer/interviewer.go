// Package interviewer produces the interviewer's next question.
package interviewer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kalambet/intervue/internal/engine"
	"github.com/kalambet/intervue/internal/interview"
	"github.com/kalambet/intervue/internal/stage"
)

// HintSentence is appended to fallback questions when the decision asks for
// a hint.
const HintSentence = "Take your time; a specific example from a past project is a good place to start."

const (
	defaultTimeout = 15 * time.Second
	historyWindow  = 6
)

// Interviewer writes questions with a model and falls back to a Bank.
type Interviewer struct {
	client  stage.Chatter
	model   string
	timeout time.Duration
	bank    *Bank
}

// New creates an Interviewer. A nil bank uses DefaultBank.
func New(client stage.Chatter, model string, timeout time.Duration, bank *Bank) *Interviewer {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if bank == nil {
		bank = DefaultBank()
	}
	return &Interviewer{client: client, model: model, timeout: timeout, bank: bank}
}

// Generate writes the next question for s following d.
func (iv *Interviewer) Generate(ctx context.Context, s *interview.State, d interview.Decision) stage.Result[interview.Question] {
	spec := iv.spec(d.NextIntent)
	return stage.Invoke(ctx, iv.client, spec, BuildPrompt(s, d), func() interview.Question {
		return iv.Fallback(s, d)
	})
}

// Opening writes the first question of a session.
func (iv *Interviewer) Opening(ctx context.Context, s *interview.State) stage.Result[interview.Question] {
	d := OpeningDecision()
	spec := iv.spec(d.NextIntent)
	return stage.Invoke(ctx, iv.client, spec, BuildOpeningPrompt(s), func() interview.Question {
		return iv.OpeningFallback(s)
	})
}

// Fallback selects a question from the bank. The result depends only on the
// role, the decision and the question count.
func (iv *Interviewer) Fallback(s *interview.State, d interview.Decision) interview.Question {
	msg := iv.bank.Lookup(s.Role, d.NextIntent, s.QuestionCount)
	if d.Metadata.ProvideHint {
		msg += " " + HintSentence
	}
	return interview.Question{
		Message:      msg,
		QuestionType: d.NextIntent,
		Metadata: interview.QuestionMetadata{
			ExpectedLength: expectedLength(s.Mode),
			KeyPoints:      append([]string{}, d.Metadata.FocusAreas...),
		},
	}
}

// OpeningFallback returns the bank's opening question.
func (iv *Interviewer) OpeningFallback(s *interview.State) interview.Question {
	return interview.Question{
		Message:      iv.bank.OpeningQuestion(s.Role, s.QuestionCount),
		QuestionType: interview.IntentAskBehavioral,
		Metadata: interview.QuestionMetadata{
			ExpectedLength: expectedLength(s.Mode),
			KeyPoints:      []string{"background", "current work"},
		},
	}
}

// OpeningDecision is the implicit decision behind the first question.
func OpeningDecision() interview.Decision {
	return interview.Decision{
		NextAgent:  interview.AgentInterviewer,
		NextIntent: interview.IntentAskBehavioral,
		Metadata: interview.DecisionMetadata{
			Difficulty: interview.DifficultyEasy,
			FocusAreas: []string{},
		},
	}
}

func (iv *Interviewer) spec(intent interview.NextIntent) stage.Spec[interview.Question] {
	return stage.Spec[interview.Question]{
		Name:    "interviewer",
		Model:   iv.model,
		Timeout: iv.timeout,
		Schema:  schema(),
		Validate: func(q *interview.Question) error {
			q.Message = strings.TrimSpace(q.Message)
			if q.Message == "" {
				return errors.New("empty message")
			}
			q.QuestionType = intent
			if q.Metadata.KeyPoints == nil {
				q.Metadata.KeyPoints = []string{}
			}
			return nil
		},
	}
}

func expectedLength(m interview.InteractionMode) string {
	if m == interview.ModeVoice {
		return "1-2 minutes spoken"
	}
	return "100-200 words"
}

func schema() *engine.Schema {
	intents := make([]string, 0, len(interview.AllIntents()))
	for _, i := range interview.AllIntents() {
		intents = append(intents, string(i))
	}
	metadata := engine.Object(map[string]*engine.Schema{
		"expected_length": engine.String("Expected answer length, e.g. \"100-200 words\""),
		"key_points":      engine.StringList("Points a strong answer would cover"),
	})
	return engine.Object(map[string]*engine.Schema{
		"message":       engine.String("The exact text the interviewer says next"),
		"question_type": engine.String("Echo of the requested intent", intents...),
		"metadata":      metadata,
	})
}

var intentGuidance = map[interview.NextIntent]string{
	interview.IntentAskBehavioral:        "Ask a behavioral question about past experience.",
	interview.IntentAskTechnical:         "Ask a technical question appropriate for the role.",
	interview.IntentAskRoleSpecific:      "Ask a question specific to the day-to-day work of the role.",
	interview.IntentProbeAnswer:          "Ask a follow-up that digs into the candidate's last answer.",
	interview.IntentAskClosing:           "Ask a closing question about motivation, growth or anything left uncovered.",
	interview.IntentEndInterview:         "Thank the candidate and close the interview. Do not ask a question.",
	interview.IntentContinueConversation: "Acknowledge the answer briefly and steer the candidate back to the question that was asked.",
}

const systemPrompt = `You are a professional technical interviewer. Write the interviewer's next message. Your output must be ONLY a single valid JSON object that conforms to the provided schema. Do not include any other text, prose, or markdown.

Rules:
- Ask exactly one question.
- Do not repeat a question already asked.
- %s`

// BuildPrompt constructs the chat messages for the next question.
func BuildPrompt(s *interview.State, d interview.Decision) []engine.Message {
	var sb strings.Builder
	fmt.Fprintf(&sb, systemPrompt, lengthRule(s.Mode))
	sb.WriteString("\n\n")
	sb.WriteString(stage.Context(s))
	if recent := s.Recent(historyWindow); len(recent) > 0 {
		fmt.Fprintf(&sb, "\n\n[Recent Conversation]\n%s", stage.Transcript(recent))
	}

	var user strings.Builder
	fmt.Fprintf(&user, "Intent: %s\n%s\nDifficulty: %s", d.NextIntent, intentGuidance[d.NextIntent], d.Metadata.Difficulty)
	if len(d.Metadata.FocusAreas) > 0 {
		fmt.Fprintf(&user, "\nFocus: %s", strings.Join(d.Metadata.FocusAreas, "; "))
	}
	if d.Metadata.ProvideHint {
		user.WriteString("\nInclude a short hint that helps the candidate get started.")
	}

	return []engine.Message{
		{Role: "system", Content: sb.String()},
		{Role: "user", Content: user.String()},
	}
}

// BuildOpeningPrompt constructs the chat messages for the first question.
func BuildOpeningPrompt(s *interview.State) []engine.Message {
	var sb strings.Builder
	fmt.Fprintf(&sb, systemPrompt, lengthRule(s.Mode))
	sb.WriteString("\n\n")
	sb.WriteString(stage.Context(s))

	return []engine.Message{
		{Role: "system", Content: sb.String()},
		{Role: "user", Content: "Intent: ask_behavioral\nGreet the candidate, name the role, and ask them to introduce themselves. Difficulty: easy"},
	}
}

func lengthRule(m interview.InteractionMode) string {
	if m == interview.ModeVoice {
		return "The message will be spoken aloud: keep it under 40 words and avoid lists or markup."
	}
	return "Keep the message under 80 words."
}
