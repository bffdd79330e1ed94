// Package coordinator runs interview sessions: it owns the phase state
// machine and sequences the analyzer, decision, interviewer and feedback
// stages for every turn.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kalambet/intervue/internal/interview"
	"github.com/kalambet/intervue/internal/session"
	"github.com/kalambet/intervue/internal/stage"
)

// ClosingNote is appended to the history when a turn ends the interview.
const ClosingNote = "That concludes our interview. Thank you for your time; your evaluation will be ready shortly."

// Analyzer assesses a single answer.
type Analyzer interface {
	Analyze(ctx context.Context, s *interview.State, answer string) stage.Result[interview.Analysis]
}

// Decider chooses the next move after an answer.
type Decider interface {
	Decide(ctx context.Context, s *interview.State, an interview.Analysis) stage.Result[interview.Decision]
}

// QuestionGenerator writes interviewer questions.
type QuestionGenerator interface {
	Opening(ctx context.Context, s *interview.State) stage.Result[interview.Question]
	Generate(ctx context.Context, s *interview.State, d interview.Decision) stage.Result[interview.Question]
}

// Evaluator writes the final evaluation.
type Evaluator interface {
	Evaluate(ctx context.Context, s *interview.State) (stage.Result[interview.Evaluation], error)
}

// ReportSink archives finished reports.
type ReportSink interface {
	SaveReport(ctx context.Context, r interview.Report) error
}

// Recorder receives workflow counters. *metrics.Metrics satisfies it.
type Recorder interface {
	SessionStarted()
	SessionEnded()
	Turn()
	QuestionAsked()
	Evaluation(degraded bool)
	StageCall(stage string, fallback bool)
}

// Deps are the collaborators of a Coordinator. Store and the four stages are
// required.
type Deps struct {
	Store       session.Store
	Locker      *session.Locker
	Analyzer    Analyzer
	Decider     Decider
	Interviewer QuestionGenerator
	Evaluator   Evaluator
	Sink        ReportSink
	Metrics     Recorder
	Clock       func() time.Time
	NewID       func() string
}

// Coordinator is safe for concurrent use. Work on one session is serialised;
// distinct sessions proceed in parallel.
type Coordinator struct {
	store       session.Store
	locks       *session.Locker
	analyzer    Analyzer
	decider     Decider
	interviewer QuestionGenerator
	evaluator   Evaluator
	sink        ReportSink
	metrics     Recorder
	now         func() time.Time
	newID       func() string
}

// New validates deps and returns a Coordinator.
func New(d Deps) (*Coordinator, error) {
	switch {
	case d.Store == nil:
		return nil, errors.New("coordinator: session store is required")
	case d.Analyzer == nil, d.Decider == nil, d.Interviewer == nil, d.Evaluator == nil:
		return nil, errors.New("coordinator: all four stages are required")
	}
	c := &Coordinator{
		store:       d.Store,
		locks:       d.Locker,
		analyzer:    d.Analyzer,
		decider:     d.Decider,
		interviewer: d.Interviewer,
		evaluator:   d.Evaluator,
		sink:        d.Sink,
		metrics:     d.Metrics,
		now:         d.Clock,
		newID:       d.NewID,
	}
	if c.locks == nil {
		c.locks = session.NewLocker()
	}
	if c.metrics == nil {
		c.metrics = nopRecorder{}
	}
	if c.now == nil {
		c.now = func() time.Time { return time.Now().UTC() }
	}
	if c.newID == nil {
		c.newID = uuid.NewString
	}
	return c, nil
}

// StartRequest describes a new session.
type StartRequest struct {
	Role      interview.Role            `json:"role"`
	Seniority interview.Seniority       `json:"seniority"`
	Mode      interview.InteractionMode `json:"interaction_mode"`
	Resume    string                    `json:"resume,omitempty"`
}

// StartResult is returned by StartSession.
type StartResult struct {
	SessionID     string          `json:"session_id"`
	Message       string          `json:"message"`
	Phase         interview.Phase `json:"phase"`
	QuestionCount int             `json:"question_count"`
}

// TurnResult is returned by SubmitAnswer.
type TurnResult struct {
	Message       string               `json:"message"`
	QuestionType  interview.NextIntent `json:"question_type,omitempty"`
	Phase         interview.Phase      `json:"phase"`
	QuestionCount int                  `json:"question_count"`
	ShouldEnd     bool                 `json:"should_end"`
	Analysis      interview.Analysis   `json:"analysis"`
	Decision      interview.Decision   `json:"decision"`
	Analytics     interview.Analytics  `json:"analytics"`
}

// StartSession creates a session and delivers the opening question.
func (c *Coordinator) StartSession(ctx context.Context, req StartRequest) (StartResult, error) {
	if req.Mode == "" {
		req.Mode = interview.ModeText
	}
	if err := req.validate(); err != nil {
		return StartResult{}, err
	}

	now := c.now()
	st := interview.NewState(c.newID(), req.Role, req.Seniority, req.Mode, now)
	st.Resume = strings.TrimSpace(req.Resume)

	var stages stageCalls
	q := c.interviewer.Opening(ctx, st)
	stages.add(st, "interviewer", q.Fallback)
	st.AskQuestion(q.Value, now)

	if err := ctx.Err(); err != nil {
		return StartResult{}, err
	}
	if err := c.store.Create(ctx, st); err != nil {
		return StartResult{}, fmt.Errorf("creating session: %w", err)
	}
	c.commit(stages)
	c.metrics.SessionStarted()
	c.metrics.QuestionAsked()

	slog.Info("session started", "session_id", st.SessionID, "role", st.Role, "seniority", st.Seniority, "mode", st.Mode)
	return StartResult{
		SessionID:     st.SessionID,
		Message:       q.Value.Message,
		Phase:         st.Phase,
		QuestionCount: st.QuestionCount,
	}, nil
}

func (r StartRequest) validate() error {
	if !r.Role.Valid() {
		return fmt.Errorf("%w: unknown role %q", interview.ErrInvalidInput, r.Role)
	}
	if !r.Seniority.Valid() {
		return fmt.Errorf("%w: unknown seniority %q", interview.ErrInvalidInput, r.Seniority)
	}
	if !r.Mode.Valid() {
		return fmt.Errorf("%w: unknown interaction mode %q", interview.ErrInvalidInput, r.Mode)
	}
	return nil
}

// SubmitAnswer runs one turn: analyze the answer, decide, then either ask the
// next question or close the interview. The stored session changes only if
// the whole turn completes while ctx is live.
func (c *Coordinator) SubmitAnswer(ctx context.Context, id, text string) (TurnResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return TurnResult{}, fmt.Errorf("%w: answer is empty", interview.ErrInvalidInput)
	}

	unlock, err := c.locks.Lock(ctx, id)
	if err != nil {
		return TurnResult{}, err
	}
	defer unlock()

	cur, err := c.store.Get(ctx, id)
	if err != nil {
		return TurnResult{}, err
	}
	if cur.Ended() {
		return TurnResult{}, fmt.Errorf("%w: session %s has ended", interview.ErrInvariantViolation, id)
	}

	st := cur.Clone()
	now := c.now()
	st.RecordAnswer(text, now)

	var stages stageCalls
	ar := c.analyzer.Analyze(ctx, st, text)
	stages.add(st, "analyzer", ar.Fallback)
	st.Analytics.Merge(ar.Value, interview.WordCount(text))

	dr := c.decider.Decide(ctx, st, ar.Value)
	stages.add(st, "decision", dr.Fallback)
	d := dr.Value

	res := TurnResult{Analysis: ar.Value, Decision: d}
	if d.ShouldEnd {
		st.AddNote(ClosingNote, now)
		st.End(now)
		res.Message = ClosingNote
	} else {
		q := c.interviewer.Generate(ctx, st, d)
		stages.add(st, "interviewer", q.Fallback)
		st.AskQuestion(q.Value, now)
		res.Message = q.Value.Message
		res.QuestionType = q.Value.QuestionType
	}

	if err := ctx.Err(); err != nil {
		return TurnResult{}, err
	}
	if err := c.store.Put(ctx, st); err != nil {
		return TurnResult{}, fmt.Errorf("saving session %s: %w", id, err)
	}

	c.commit(stages)
	c.metrics.Turn()
	if d.ShouldEnd {
		c.metrics.SessionEnded()
		slog.Info("session ended", "session_id", id, "question_count", st.QuestionCount)
	} else {
		c.metrics.QuestionAsked()
	}
	slog.Debug("turn complete", "session_id", id, "phase", st.Phase, "question_count", st.QuestionCount,
		"intent", d.NextIntent, "should_end", d.ShouldEnd)

	res.Phase = st.Phase
	res.QuestionCount = st.QuestionCount
	res.ShouldEnd = d.ShouldEnd
	res.Analytics = st.Analytics
	res.Analytics.Notes = append([]string{}, st.Analytics.Notes...)
	return res, nil
}

// EndSession moves the session to the ended phase without consulting the
// decision stage. Ending an ended session is a no-op.
func (c *Coordinator) EndSession(ctx context.Context, id string) (*interview.State, error) {
	unlock, err := c.locks.Lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	st, err := c.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if st.Ended() {
		return st, nil
	}

	st.End(c.now())
	if err := c.store.Put(ctx, st); err != nil {
		return nil, fmt.Errorf("saving session %s: %w", id, err)
	}
	c.metrics.SessionEnded()
	slog.Info("session ended", "session_id", id, "question_count", st.QuestionCount, "forced", true)
	return st, nil
}

// GenerateEvaluation produces the final report for a session, removes the
// session and archives the report. It fails with interview.ErrNoResponses,
// leaving the session untouched, when no answer was recorded. If the session
// cannot be removed the error is returned and nothing is archived.
func (c *Coordinator) GenerateEvaluation(ctx context.Context, id string) (interview.Report, error) {
	unlock, err := c.locks.Lock(ctx, id)
	if err != nil {
		return interview.Report{}, err
	}
	defer unlock()

	cur, err := c.store.Get(ctx, id)
	if err != nil {
		return interview.Report{}, err
	}
	if cur.AnswerCount() == 0 {
		return interview.Report{}, interview.ErrNoResponses
	}

	st := cur.Clone()
	endedHere := !st.Ended()
	if endedHere {
		st.End(c.now())
	}

	er, err := c.evaluator.Evaluate(ctx, st)
	if err != nil {
		return interview.Report{}, err
	}
	var stages stageCalls
	stages.add(st, "feedback", er.Fallback)

	if err := ctx.Err(); err != nil {
		return interview.Report{}, err
	}

	report := interview.Report{
		ID:            c.newID(),
		SessionID:     st.SessionID,
		Role:          st.Role,
		Seniority:     st.Seniority,
		Mode:          st.Mode,
		QuestionCount: st.QuestionCount,
		AnswerCount:   st.AnswerCount(),
		StartedAt:     st.StartTime,
		EndedAt:       *st.EndTime,
		Degraded:      st.Degraded,
		Evaluation:    er.Value,
	}

	// Delete before archiving: a failed delete leaves the session live and
	// nothing archived.
	if err := c.store.Delete(ctx, id); err != nil && !errors.Is(err, session.ErrNotFound) {
		return interview.Report{}, fmt.Errorf("deleting evaluated session %s: %w", id, err)
	}
	if c.sink != nil {
		if err := c.sink.SaveReport(ctx, report); err != nil {
			slog.Warn("archiving report failed", "session_id", id, "report_id", report.ID, "error", err)
		}
	}

	c.commit(stages)
	if endedHere {
		c.metrics.SessionEnded()
	}
	c.metrics.Evaluation(report.Degraded)
	slog.Info("evaluation generated", "session_id", id, "report_id", report.ID,
		"overall_score", report.Evaluation.OverallScore, "recommendation", report.Evaluation.Recommendation,
		"degraded", report.Degraded)
	return report, nil
}

// AbortSession discards a session without evaluating it.
func (c *Coordinator) AbortSession(ctx context.Context, id string) error {
	unlock, err := c.locks.Lock(ctx, id)
	if err != nil {
		return err
	}
	defer unlock()

	st, err := c.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := c.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting session %s: %w", id, err)
	}
	if !st.Ended() {
		c.metrics.SessionEnded()
	}
	slog.Info("session aborted", "session_id", id, "question_count", st.QuestionCount)
	return nil
}

// Session returns a copy of the session's current state.
func (c *Coordinator) Session(ctx context.Context, id string) (*interview.State, error) {
	return c.store.Get(ctx, id)
}

type stageCall struct {
	name     string
	fallback bool
}

// stageCalls collects a turn's stage outcomes. A fallback marks the working
// state degraded at once; the counters wait for commit.
type stageCalls []stageCall

func (sc *stageCalls) add(st *interview.State, name string, fallback bool) {
	if fallback {
		st.Degraded = true
	}
	*sc = append(*sc, stageCall{name: name, fallback: fallback})
}

// commit reports stage outcomes once the turn they belong to is stored.
func (c *Coordinator) commit(stages stageCalls) {
	for _, s := range stages {
		c.metrics.StageCall(s.name, s.fallback)
	}
}

type nopRecorder struct{}

func (nopRecorder) SessionStarted()        {}
func (nopRecorder) SessionEnded()          {}
func (nopRecorder) Turn()                  {}
func (nopRecorder) QuestionAsked()         {}
func (nopRecorder) Evaluation(bool)        {}
func (nopRecorder) StageCall(string, bool) {}
