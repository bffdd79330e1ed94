// Package decision chooses the next interview move after each answer.
//
// The same policy governs both paths: Rules computes a decision from the
// deterministic signals alone, and Enforce applies the non-negotiable parts
// of it (question cap, off-topic steering, early-end gating and the
// analysis overlays) to whatever the model proposed.
package decision

import (
	"github.com/kalambet/intervue/internal/interview"
)

// Focus areas added by the policy.
const (
	FocusSteerBack = "steer back to the question that was asked"
	FocusElaborate = "ask the candidate to elaborate with a concrete example"
	FocusConcise   = "ask a focused, specific question that invites a concise answer"
)

// Policy holds the tunable thresholds.
type Policy struct {
	// MaxQuestions ends the interview once this many questions were delivered.
	MaxQuestions int
	// HardThreshold is the technical score above which main-phase questions
	// become hard.
	HardThreshold float64
	// HintThreshold is the score below which the next question carries a hint.
	HintThreshold float64
}

// DefaultPolicy returns the standard thresholds.
func DefaultPolicy() Policy {
	return Policy{MaxQuestions: 8, HardThreshold: 7, HintThreshold: 4}
}

func (p Policy) withDefaults() Policy {
	d := DefaultPolicy()
	if p.MaxQuestions <= 0 {
		p.MaxQuestions = d.MaxQuestions
	}
	if p.HardThreshold <= 0 {
		p.HardThreshold = d.HardThreshold
	}
	if p.HintThreshold <= 0 {
		p.HintThreshold = d.HintThreshold
	}
	return p
}

// Rules computes the decision for the current state and latest analysis
// without consulting a model.
func Rules(p Policy, s *interview.State, an interview.Analysis) interview.Decision {
	p = p.withDefaults()
	qc := s.QuestionCount

	if qc >= p.MaxQuestions {
		return endDecision("question limit reached")
	}

	var d interview.Decision
	d.NextAgent = interview.AgentInterviewer
	d.Metadata.FocusAreas = []string{}

	switch {
	case an.IsOffTopic:
		d.NextIntent = interview.IntentContinueConversation
		d.Metadata.Difficulty = bandDifficulty(p, qc, an)
		d.Metadata.Reasoning = "latest answer was off topic"
	case qc <= 2:
		d.NextIntent = interview.IntentAskBehavioral
		d.Metadata.Difficulty = interview.DifficultyEasy
		d.Metadata.Reasoning = "opening questions are behavioral"
	case qc <= 5:
		d.NextIntent = mainIntent(qc)
		d.Metadata.Difficulty = bandDifficulty(p, qc, an)
		d.Metadata.Reasoning = "main phase alternates technical and role-specific questions"
	default:
		d.NextIntent = interview.IntentAskClosing
		d.Metadata.Difficulty = interview.DifficultyMedium
		d.Metadata.Reasoning = "interview is wrapping up"
	}

	return overlay(p, d, an)
}

// Enforce conforms a model decision to the policy. The result always
// satisfies the question cap and never ends the interview on an off-topic
// answer; a model may only end early once the closing phase is reached.
func Enforce(p Policy, s *interview.State, an interview.Analysis, d interview.Decision) interview.Decision {
	p = p.withDefaults()
	qc := s.QuestionCount

	if qc >= p.MaxQuestions {
		return endDecision("question limit reached")
	}
	if d.Metadata.FocusAreas == nil {
		d.Metadata.FocusAreas = []string{}
	} else {
		d.Metadata.FocusAreas = append([]string(nil), d.Metadata.FocusAreas...)
	}

	wantsEnd := d.ShouldEnd || d.NextAgent == interview.AgentFeedback || d.NextIntent == interview.IntentEndInterview

	switch {
	case an.IsOffTopic:
		d.NextAgent = interview.AgentInterviewer
		d.NextIntent = interview.IntentContinueConversation
		d.ShouldEnd = false
	case wantsEnd && interview.PhaseFor(qc) == interview.PhaseClosing:
		end := endDecision(d.Metadata.Reasoning)
		if end.Metadata.Reasoning == "" {
			end.Metadata.Reasoning = "model ended the interview"
		}
		return end
	case wantsEnd:
		r := Rules(p, s, an)
		d.NextAgent = r.NextAgent
		d.NextIntent = r.NextIntent
		d.ShouldEnd = false
	}

	return overlay(p, d, an)
}

func endDecision(reason string) interview.Decision {
	return interview.Decision{
		NextAgent:  interview.AgentFeedback,
		NextIntent: interview.IntentEndInterview,
		ShouldEnd:  true,
		Metadata: interview.DecisionMetadata{
			Difficulty: interview.DifficultyMedium,
			FocusAreas: []string{},
			Reasoning:  reason,
		},
	}
}

func mainIntent(qc int) interview.NextIntent {
	if qc%2 == 1 {
		return interview.IntentAskTechnical
	}
	return interview.IntentAskRoleSpecific
}

func bandDifficulty(p Policy, qc int, an interview.Analysis) interview.Difficulty {
	switch {
	case qc <= 2:
		return interview.DifficultyEasy
	case qc <= 5 && an.Scores.Technical > p.HardThreshold:
		return interview.DifficultyHard
	default:
		return interview.DifficultyMedium
	}
}

func overlay(p Policy, d interview.Decision, an interview.Analysis) interview.Decision {
	add := func(area string) {
		if !d.Metadata.HasFocus(area) {
			d.Metadata.FocusAreas = append(d.Metadata.FocusAreas, area)
		}
	}
	if an.IsOffTopic {
		add(FocusSteerBack)
	}
	if an.IsTooShort {
		add(FocusElaborate)
	}
	if an.IsChatty {
		add(FocusConcise)
	}
	if an.Scores.Min() < p.HintThreshold {
		d.Metadata.ProvideHint = true
	}
	return d
}
