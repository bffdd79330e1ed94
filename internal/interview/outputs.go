package interview

import (
	"fmt"
	"time"
)

// Analysis is the assessment of a single answer.
type Analysis struct {
	IsChatty    bool     `json:"is_chatty"`
	IsTooShort  bool     `json:"is_too_short"`
	IsOffTopic  bool     `json:"is_off_topic"`
	Scores      Scores   `json:"scores"`
	Note        string   `json:"note"`
	Strengths   []string `json:"strengths"`
	Weaknesses  []string `json:"weaknesses"`
	Suggestions []string `json:"suggestions"`
}

// DecisionMetadata shapes the next question.
type DecisionMetadata struct {
	Difficulty  Difficulty `json:"difficulty"`
	FocusAreas  []string   `json:"focus_areas"`
	ProvideHint bool       `json:"provide_hint"`
	Reasoning   string     `json:"reasoning,omitempty"`
}

// HasFocus reports whether area is already among the focus areas.
func (m DecisionMetadata) HasFocus(area string) bool {
	for _, f := range m.FocusAreas {
		if f == area {
			return true
		}
	}
	return false
}

// Decision is the flow decision taken after each answer.
type Decision struct {
	NextAgent  NextAgent        `json:"next_agent"`
	NextIntent NextIntent       `json:"next_intent"`
	Metadata   DecisionMetadata `json:"metadata"`
	ShouldEnd  bool             `json:"should_end"`
}

// Validate checks enum fields and the consistency of the end signal.
func (d Decision) Validate() error {
	if !d.NextAgent.Valid() {
		return fmt.Errorf("invalid next_agent %q", d.NextAgent)
	}
	if !d.NextIntent.Valid() {
		return fmt.Errorf("invalid next_intent %q", d.NextIntent)
	}
	if !d.Metadata.Difficulty.Valid() {
		return fmt.Errorf("invalid difficulty %q", d.Metadata.Difficulty)
	}
	return nil
}

// QuestionMetadata carries soft guidance for the answer.
type QuestionMetadata struct {
	ExpectedLength string   `json:"expected_length"`
	KeyPoints      []string `json:"key_points"`
}

// Question is the next interviewer message.
type Question struct {
	Message      string           `json:"message"`
	QuestionType NextIntent       `json:"question_type"`
	Metadata     QuestionMetadata `json:"metadata"`
}

// Evaluation is the final structured report for an interview.
type Evaluation struct {
	OverallScore   int            `json:"overall_score"`
	Scores         Scores         `json:"scores"`
	Strengths      []string       `json:"strengths"`
	Improvements   []string       `json:"improvements"`
	Highlights     []string       `json:"highlights"`
	RedFlags       []string       `json:"red_flags,omitempty"`
	Summary        string         `json:"summary"`
	Recommendation Recommendation `json:"recommendation"`
}

// Report is an Evaluation with the session facts it was produced from. It is
// what gets archived once the session is gone.
type Report struct {
	ID            string          `json:"id"`
	SessionID     string          `json:"session_id"`
	Role          Role            `json:"role"`
	Seniority     Seniority       `json:"seniority"`
	Mode          InteractionMode `json:"interaction_mode"`
	QuestionCount int             `json:"question_count"`
	AnswerCount   int             `json:"answer_count"`
	StartedAt     time.Time       `json:"started_at"`
	EndedAt       time.Time       `json:"ended_at"`
	Degraded      bool            `json:"degraded"`
	Evaluation    Evaluation      `json:"evaluation"`
}
