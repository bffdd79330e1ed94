package decision

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kalambet/intervue/internal/engine"
	"github.com/kalambet/intervue/internal/interview"
	"github.com/kalambet/intervue/internal/stage"
)

const (
	defaultTimeout = 10 * time.Second
	historyWindow  = 6
)

// Decider asks a model for the next move and conforms the answer to Policy.
type Decider struct {
	client  stage.Chatter
	model   string
	timeout time.Duration
	policy  Policy
}

// New creates a Decider. A nil client always uses Rules.
func New(client stage.Chatter, model string, timeout time.Duration, policy Policy) *Decider {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Decider{client: client, model: model, timeout: timeout, policy: policy.withDefaults()}
}

// Policy returns the thresholds in use.
func (d *Decider) Policy() Policy { return d.policy }

// Decide returns the next move for s given the latest analysis.
func (d *Decider) Decide(ctx context.Context, s *interview.State, an interview.Analysis) stage.Result[interview.Decision] {
	// At the cap there is nothing for the model to decide.
	if s.QuestionCount >= d.policy.MaxQuestions {
		return stage.Result[interview.Decision]{Value: Rules(d.policy, s, an)}
	}

	spec := stage.Spec[interview.Decision]{
		Name:     "decision",
		Model:    d.model,
		Timeout:  d.timeout,
		Schema:   schema(),
		Validate: func(v *interview.Decision) error { return v.Validate() },
	}
	r := stage.Invoke(ctx, d.client, spec, BuildPrompt(d.policy, s, an), func() interview.Decision {
		return Rules(d.policy, s, an)
	})
	r.Value = Enforce(d.policy, s, an, r.Value)
	return r
}

func schema() *engine.Schema {
	intents := make([]string, 0, len(interview.AllIntents()))
	for _, i := range interview.AllIntents() {
		intents = append(intents, string(i))
	}
	agents := []string{string(interview.AgentInterviewer), string(interview.AgentFeedback)}
	levels := []string{string(interview.DifficultyEasy), string(interview.DifficultyMedium), string(interview.DifficultyHard)}

	metadata := engine.Object(map[string]*engine.Schema{
		"difficulty":   engine.String("Difficulty of the next question", levels...),
		"focus_areas":  engine.StringList("Short hints that shape the next question"),
		"provide_hint": engine.Bool("Whether the next question should include a hint"),
		"reasoning":    engine.String("One sentence explaining the choice"),
	})
	return engine.Object(map[string]*engine.Schema{
		"next_agent":  engine.String("Who acts next", agents...),
		"next_intent": engine.String("Category of the next move", intents...),
		"should_end":  engine.Bool("True only when the interview should end now"),
		"metadata":    metadata,
	})
}

const systemPrompt = `You are the flow controller of a job interview. Decide the interviewer's next move. Your output must be ONLY a single valid JSON object that conforms to the provided schema. Do not include any other text, prose, or markdown.

Policy:
- The interview ends after %d questions. Before the closing phase, do not end the interview.
- If the latest answer is off topic, never end; choose "continue_conversation" and steer back.
- With at most 2 questions asked, prefer "ask_behavioral" at "easy" difficulty.
- With 3 to 5 questions asked, prefer "ask_technical" or "ask_role_specific"; use "hard" only when the technical score is above %.0f, otherwise "medium".
- After 5 questions, prefer "ask_closing".
- Use "probe_answer" to dig into an interesting but incomplete answer.
- If the answer was too short, add a focus area asking for elaboration. If it was too long, add a focus area asking for a focused question.
- Set provide_hint when any score is below %.0f.`

// BuildPrompt constructs the chat messages for the decision stage.
func BuildPrompt(p Policy, s *interview.State, an interview.Analysis) []engine.Message {
	p = p.withDefaults()

	var sb strings.Builder
	fmt.Fprintf(&sb, systemPrompt, p.MaxQuestions, p.HardThreshold, p.HintThreshold)
	sb.WriteString("\n\n")
	sb.WriteString(stage.Context(s))
	if recent := s.Recent(historyWindow); len(recent) > 0 {
		fmt.Fprintf(&sb, "\n\n[Recent Conversation]\n%s", stage.Transcript(recent))
	}

	sc := an.Scores
	user := fmt.Sprintf(
		"Latest answer analysis:\n- too short: %t\n- chatty: %t\n- off topic: %t\n- scores: communication %.1f, technical %.1f, behavioral %.1f, confidence %.1f, engagement %.1f\n- note: %s",
		an.IsTooShort, an.IsChatty, an.IsOffTopic,
		sc.Communication, sc.Technical, sc.Behavioral, sc.Confidence, sc.Engagement, an.Note)

	return []engine.Message{
		{Role: "system", Content: sb.String()},
		{Role: "user", Content: user},
	}
}
