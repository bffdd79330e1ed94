package interview

import (
	"math"
	"strings"
	"time"
)

// Message is one entry of the conversation history.
type Message struct {
	Sender  Sender      `json:"sender"`
	Kind    MessageKind `json:"kind"`
	Content string      `json:"content"`
	Intent  NextIntent  `json:"intent,omitempty"`
	At      time.Time   `json:"at"`
}

// Scores holds the five per-category scores, each in [0,10].
type Scores struct {
	Communication float64 `json:"communication"`
	Technical     float64 `json:"technical"`
	Behavioral    float64 `json:"behavioral"`
	Confidence    float64 `json:"confidence"`
	Engagement    float64 `json:"engagement"`
}

// Values returns the scores in a fixed order.
func (s Scores) Values() []float64 {
	return []float64{s.Communication, s.Technical, s.Behavioral, s.Confidence, s.Engagement}
}

// Mean returns the arithmetic mean of the five scores.
func (s Scores) Mean() float64 {
	var sum float64
	for _, v := range s.Values() {
		sum += v
	}
	return sum / 5
}

// Min returns the lowest of the five scores.
func (s Scores) Min() float64 {
	vals := s.Values()
	m := vals[0]
	for _, v := range vals[1:] {
		m = math.Min(m, v)
	}
	return m
}

// Clamp limits every score to [lo,hi].
func (s Scores) Clamp(lo, hi float64) Scores {
	c := func(v float64) float64 { return math.Max(lo, math.Min(hi, v)) }
	return Scores{
		Communication: c(s.Communication),
		Technical:     c(s.Technical),
		Behavioral:    c(s.Behavioral),
		Confidence:    c(s.Confidence),
		Engagement:    c(s.Engagement),
	}
}

// Analytics is the running aggregate over a session's answers. Flags and
// scores describe the latest answer only; AvgAnswerLength and Notes cover
// every answer seen so far.
type Analytics struct {
	IsChatty        bool     `json:"is_chatty"`
	IsTooShort      bool     `json:"is_too_short"`
	IsOffTopic      bool     `json:"is_off_topic"`
	Scores          Scores   `json:"scores"`
	AvgAnswerLength float64  `json:"avg_answer_length"`
	AnswerCount     int      `json:"answer_count"`
	Notes           []string `json:"notes,omitempty"`
}

// Merge folds one answer's analysis into the aggregate. words is the answer
// length used for the running average.
func (a *Analytics) Merge(an Analysis, words int) {
	a.AnswerCount++
	n := float64(a.AnswerCount)
	a.AvgAnswerLength = (a.AvgAnswerLength*(n-1) + float64(words)) / n

	a.IsChatty = an.IsChatty
	a.IsTooShort = an.IsTooShort
	a.IsOffTopic = an.IsOffTopic
	a.Scores = an.Scores
	if note := strings.TrimSpace(an.Note); note != "" {
		a.Notes = append(a.Notes, note)
	}
}

// State is the complete conversational state of one interview session.
type State struct {
	SessionID     string          `json:"session_id"`
	Role          Role            `json:"role"`
	Seniority     Seniority       `json:"seniority"`
	Mode          InteractionMode `json:"interaction_mode"`
	Resume        string          `json:"resume,omitempty"`
	History       []Message       `json:"history"`
	Analytics     Analytics       `json:"analytics"`
	Phase         Phase           `json:"phase"`
	QuestionCount int             `json:"question_count"`
	StartTime     time.Time       `json:"start_time"`
	EndTime       *time.Time      `json:"end_time,omitempty"`
	// Degraded is set once any stage answered with its fallback.
	Degraded bool  `json:"degraded,omitempty"`
	Version  int64 `json:"version"`
}

// NewState returns the initial state for a session: opening phase, no
// questions yet asked, empty analytics.
func NewState(id string, role Role, seniority Seniority, mode InteractionMode, now time.Time) *State {
	return &State{
		SessionID: id,
		Role:      role,
		Seniority: seniority,
		Mode:      mode,
		History:   []Message{},
		Phase:     PhaseOpening,
		StartTime: now,
	}
}

// Clone returns a deep copy of s.
func (s *State) Clone() *State {
	c := *s
	c.History = append([]Message(nil), s.History...)
	c.Analytics.Notes = append([]string(nil), s.Analytics.Notes...)
	if s.EndTime != nil {
		t := *s.EndTime
		c.EndTime = &t
	}
	return &c
}

// Ended reports whether the session reached its terminal phase.
func (s *State) Ended() bool {
	return s.Phase == PhaseEnded
}

// AnswerCount returns the number of candidate-authored answers in the history.
func (s *State) AnswerCount() int {
	n := 0
	for _, m := range s.History {
		if m.Sender == SenderCandidate {
			n++
		}
	}
	return n
}

// LastQuestion returns the most recent interviewer question, or "".
func (s *State) LastQuestion() string {
	for i := len(s.History) - 1; i >= 0; i-- {
		m := s.History[i]
		if m.Sender == SenderInterviewer && m.Kind == KindQuestion {
			return m.Content
		}
	}
	return ""
}

// Recent returns the last n history entries.
func (s *State) Recent(n int) []Message {
	if n <= 0 || len(s.History) <= n {
		return s.History
	}
	return s.History[len(s.History)-n:]
}

// AskQuestion appends an interviewer question and advances the question
// count and phase.
func (s *State) AskQuestion(q Question, at time.Time) {
	s.History = append(s.History, Message{
		Sender:  SenderInterviewer,
		Kind:    KindQuestion,
		Content: q.Message,
		Intent:  q.QuestionType,
		At:      at,
	})
	s.QuestionCount++
	s.Phase = PhaseFor(s.QuestionCount)
}

// RecordAnswer appends a candidate answer.
func (s *State) RecordAnswer(text string, at time.Time) {
	s.History = append(s.History, Message{
		Sender:  SenderCandidate,
		Kind:    KindAnswer,
		Content: text,
		At:      at,
	})
}

// AddNote appends an interviewer note that is not a question. The question
// count is unchanged.
func (s *State) AddNote(text string, at time.Time) {
	s.History = append(s.History, Message{
		Sender:  SenderInterviewer,
		Kind:    KindNote,
		Content: text,
		At:      at,
	})
}

// End moves the session to PhaseEnded. EndTime is set only the first time.
func (s *State) End(at time.Time) {
	s.Phase = PhaseEnded
	if s.EndTime == nil {
		t := at
		s.EndTime = &t
	}
}

// WordCount returns the number of whitespace-separated words in text.
func WordCount(text string) int {
	return len(strings.Fields(text))
}
