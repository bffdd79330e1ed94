// Package analyzer assesses a single candidate answer.
package analyzer

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
	// ShortWords is the length below which an answer is too short.
	ShortWords = 50
	// ChattyWords is the length above which an answer is chatty.
	ChattyWords = 250
	// NeutralScore is used for every category when the model is unavailable.
	NeutralScore = 5

	defaultTimeout = 10 * time.Second
)

// Fixed notes recorded by the fallback.
const (
	NoteBrief   = "Brief response; assessed without model."
	NoteVerbose = "Verbose response; assessed without model."
	NoteNeutral = "Response assessed without model."
)

// Analyzer scores one answer with a fast model.
type Analyzer struct {
	client  stage.Chatter
	model   string
	timeout time.Duration
}

// New creates an Analyzer. A nil client always uses the fallback.
func New(client stage.Chatter, model string, timeout time.Duration) *Analyzer {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Analyzer{client: client, model: model, timeout: timeout}
}

// Analyze assesses answer in the context of s. It never fails: on any model
// problem the heuristic Fallback is returned and Result.Fallback is set.
func (a *Analyzer) Analyze(ctx context.Context, s *interview.State, answer string) stage.Result[interview.Analysis] {
	spec := stage.Spec[interview.Analysis]{
		Name:     "analyzer",
		Model:    a.model,
		Timeout:  a.timeout,
		Schema:   schema(),
		Validate: validate,
	}
	return stage.Invoke(ctx, a.client, spec, BuildPrompt(s, answer), func() interview.Analysis {
		return Fallback(answer)
	})
}

// Fallback is the deterministic length heuristic used when the model call
// fails.
func Fallback(answer string) interview.Analysis {
	words := interview.WordCount(answer)
	an := interview.Analysis{
		IsTooShort:  words < ShortWords,
		IsChatty:    words > ChattyWords,
		Scores:      neutralScores(),
		Strengths:   []string{},
		Weaknesses:  []string{},
		Suggestions: []string{},
	}
	switch {
	case an.IsTooShort:
		an.Note = NoteBrief
		an.Suggestions = append(an.Suggestions, "Expand with a concrete example.")
	case an.IsChatty:
		an.Note = NoteVerbose
		an.Suggestions = append(an.Suggestions, "Lead with the key point and trim detail.")
	default:
		an.Note = NoteNeutral
	}
	return an
}

func neutralScores() interview.Scores {
	return interview.Scores{
		Communication: NeutralScore,
		Technical:     NeutralScore,
		Behavioral:    NeutralScore,
		Confidence:    NeutralScore,
		Engagement:    NeutralScore,
	}
}

func validate(an *interview.Analysis) error {
	an.Scores = an.Scores.Clamp(0, 10)
	an.Note = strings.TrimSpace(an.Note)
	if an.Note == "" {
		return fmt.Errorf("empty note")
	}
	if an.Strengths == nil {
		an.Strengths = []string{}
	}
	if an.Weaknesses == nil {
		an.Weaknesses = []string{}
	}
	if an.Suggestions == nil {
		an.Suggestions = []string{}
	}
	return nil
}

func schema() *engine.Schema {
	return engine.Object(map[string]*engine.Schema{
		"is_chatty":    engine.Bool(fmt.Sprintf("True when the answer is longer than %d words", ChattyWords)),
		"is_too_short": engine.Bool(fmt.Sprintf("True when the answer is shorter than %d words", ShortWords)),
		"is_off_topic": engine.Bool("True when the answer does not address the question asked"),
		"scores":       stage.ScoresSchema("Scores for this answer only"),
		"note":         engine.String("One-line summary of the answer"),
		"strengths":    engine.StringList("Short strengths shown in this answer"),
		"weaknesses":   engine.StringList("Short weaknesses shown in this answer"),
		"suggestions":  engine.StringList("Short suggestions for the candidate"),
	})
}
