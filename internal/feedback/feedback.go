// Package feedback produces the final evaluation of an interview.
package feedback

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/kalambet/intervue/internal/engine"
	"github.com/kalambet/intervue/internal/interview"
	"github.com/kalambet/intervue/internal/stage"
)

const (
	defaultTimeout = 30 * time.Second

	// FullInterviewQuestions is the question count at which the fallback
	// credits the candidate with completing the interview.
	FullInterviewQuestions = 7
)

// Fixed fallback list entries.
const (
	StrengthCompleted = "Completed the full interview"
	StrengthClear     = "Communicated clearly"
	StrengthTechnical = "Showed solid technical depth"
	ImproveVerbose    = "Too verbose; answers could be more focused"
	ImproveBrief      = "Answers were brief; add concrete detail and examples"
	ImproveTechnical  = "Deepen technical explanations"
	RedFlagOffTopic   = "Final answer did not address the question"
)

const (
	strongScore        = 7.0
	weakTechnicalScore = 5.0
	maxHighlights      = 3
)

// Evaluator writes the final report with a deep model.
type Evaluator struct {
	client  stage.Chatter
	model   string
	timeout time.Duration
}

// New creates an Evaluator. A nil client always uses the fallback.
func New(client stage.Chatter, model string, timeout time.Duration) *Evaluator {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Evaluator{client: client, model: model, timeout: timeout}
}

// Evaluate produces the evaluation for s. It fails only with
// interview.ErrNoResponses when the candidate has not answered anything;
// model problems are absorbed by Fallback.
func (e *Evaluator) Evaluate(ctx context.Context, s *interview.State) (stage.Result[interview.Evaluation], error) {
	if s.AnswerCount() == 0 {
		return stage.Result[interview.Evaluation]{}, interview.ErrNoResponses
	}

	spec := stage.Spec[interview.Evaluation]{
		Name:     "feedback",
		Model:    e.model,
		Timeout:  e.timeout,
		Schema:   schema(),
		Validate: validate,
	}
	return stage.Invoke(ctx, e.client, spec, BuildPrompt(s), func() interview.Evaluation {
		return Fallback(s)
	}), nil
}

// Fallback derives an evaluation from the analytics alone.
func Fallback(s *interview.State) interview.Evaluation {
	a := s.Analytics
	overall := clampOverall(int(math.Round(a.Scores.Mean())))

	ev := interview.Evaluation{
		OverallScore: overall,
		Scores:       a.Scores,
		Strengths:    []string{},
		Improvements: []string{},
		Highlights:   []string{},
		RedFlags:     []string{},
	}

	if s.QuestionCount >= FullInterviewQuestions {
		ev.Strengths = append(ev.Strengths, StrengthCompleted)
	}
	if a.Scores.Communication >= strongScore {
		ev.Strengths = append(ev.Strengths, StrengthClear)
	}
	if a.Scores.Technical >= strongScore {
		ev.Strengths = append(ev.Strengths, StrengthTechnical)
	}

	if a.IsChatty {
		ev.Improvements = append(ev.Improvements, ImproveVerbose)
	}
	if a.IsTooShort {
		ev.Improvements = append(ev.Improvements, ImproveBrief)
	}
	if a.Scores.Technical < weakTechnicalScore {
		ev.Improvements = append(ev.Improvements, ImproveTechnical)
	}

	if a.IsOffTopic {
		ev.RedFlags = append(ev.RedFlags, RedFlagOffTopic)
	}

	notes := a.Notes
	if len(notes) > maxHighlights {
		notes = notes[len(notes)-maxHighlights:]
	}
	ev.Highlights = append(ev.Highlights, notes...)

	ev.Recommendation = interview.RecommendationFor(overall)
	ev.Summary = fmt.Sprintf("The %s %s candidate answered %d of %d questions with an average answer length of %.0f words and an overall score of %d/10.",
		s.Seniority, s.Role.Title(), s.AnswerCount(), s.QuestionCount, a.AvgAnswerLength, overall)
	return ev
}

func clampOverall(v int) int {
	return max(1, min(10, v))
}

func validate(ev *interview.Evaluation) error {
	ev.Summary = strings.TrimSpace(ev.Summary)
	if ev.Summary == "" {
		return errors.New("empty summary")
	}
	ev.OverallScore = clampOverall(ev.OverallScore)
	ev.Scores = ev.Scores.Clamp(0, 10)
	ev.Recommendation = interview.RecommendationFor(ev.OverallScore)
	for _, l := range []*[]string{&ev.Strengths, &ev.Improvements, &ev.Highlights, &ev.RedFlags} {
		if *l == nil {
			*l = []string{}
		}
	}
	return nil
}

func schema() *engine.Schema {
	recs := []string{string(interview.StrongHire), string(interview.Hire), string(interview.Maybe), string(interview.NoHire)}
	return engine.Object(map[string]*engine.Schema{
		"overall_score":  engine.Integer("Overall score", 1, 10),
		"scores":         stage.ScoresSchema("Scores for the whole interview"),
		"strengths":      engine.StringList("Key strengths"),
		"improvements":   engine.StringList("Areas to improve"),
		"highlights":     engine.StringList("Memorable moments from the answers"),
		"red_flags":      engine.StringList("Serious concerns, empty if none"),
		"summary":        engine.String("Narrative summary in three to five sentences"),
		"recommendation": engine.String("Hiring recommendation", recs...),
	})
}

const systemPrompt = `You are a senior hiring manager writing the final evaluation of a job interview. Your output must be ONLY a single valid JSON object that conforms to the provided schema. Do not include any other text, prose, or markdown.

Rules:
- Base the evaluation only on the transcript and the analytics.
- overall_score is an integer from 1 to 10 calibrated to the candidate's seniority.
- recommendation follows overall_score: 8 or more STRONG_HIRE, 6 or more HIRE, 4 or more MAYBE, otherwise NO_HIRE.
- Keep each list to at most five short items.`

// BuildPrompt constructs the chat messages for the evaluation.
func BuildPrompt(s *interview.State) []engine.Message {
	var sb strings.Builder
	sb.WriteString(systemPrompt)
	sb.WriteString("\n\n")
	sb.WriteString(stage.Context(s))

	a := s.Analytics
	fmt.Fprintf(&sb, "\n\n[Analytics]\nAnswers: %d\nAverage answer length: %.0f words\nLatest scores: communication %.1f, technical %.1f, behavioral %.1f, confidence %.1f, engagement %.1f",
		a.AnswerCount, a.AvgAnswerLength,
		a.Scores.Communication, a.Scores.Technical, a.Scores.Behavioral, a.Scores.Confidence, a.Scores.Engagement)
	if len(a.Notes) > 0 {
		fmt.Fprintf(&sb, "\nNotes:\n- %s", strings.Join(a.Notes, "\n- "))
	}

	return []engine.Message{
		{Role: "system", Content: sb.String()},
		{Role: "user", Content: "[Transcript]\n" + stage.Transcript(s.History)},
	}
}
