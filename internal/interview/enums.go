package interview

import "fmt"

// Role is the job family the interview is conducted for.
type Role string

const (
	RoleBackend   Role = "backend"
	RoleFrontend  Role = "frontend"
	RoleFullstack Role = "fullstack"
	RoleDevOps    Role = "devops"
	RoleData      Role = "data"
	RoleMobile    Role = "mobile"
)

// AllRoles lists every supported role.
func AllRoles() []Role {
	return []Role{RoleBackend, RoleFrontend, RoleFullstack, RoleDevOps, RoleData, RoleMobile}
}

func (r Role) Valid() bool {
	switch r {
	case RoleBackend, RoleFrontend, RoleFullstack, RoleDevOps, RoleData, RoleMobile:
		return true
	}
	return false
}

// Title returns a human-readable label used in generated text.
func (r Role) Title() string {
	switch r {
	case RoleBackend:
		return "backend engineer"
	case RoleFrontend:
		return "frontend engineer"
	case RoleFullstack:
		return "full-stack engineer"
	case RoleDevOps:
		return "DevOps engineer"
	case RoleData:
		return "data engineer"
	case RoleMobile:
		return "mobile engineer"
	}
	return string(r)
}

// ParseRole converts s into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("%w: unknown role %q", ErrInvalidInput, s)
	}
	return r, nil
}

// Seniority is the expected experience level of the candidate.
type Seniority string

const (
	SeniorityJunior Seniority = "junior"
	SeniorityMid    Seniority = "mid"
	SenioritySenior Seniority = "senior"
	SeniorityLead   Seniority = "lead"
)

func AllSeniorities() []Seniority {
	return []Seniority{SeniorityJunior, SeniorityMid, SenioritySenior, SeniorityLead}
}

func (s Seniority) Valid() bool {
	switch s {
	case SeniorityJunior, SeniorityMid, SenioritySenior, SeniorityLead:
		return true
	}
	return false
}

func ParseSeniority(s string) (Seniority, error) {
	v := Seniority(s)
	if !v.Valid() {
		return "", fmt.Errorf("%w: unknown seniority %q", ErrInvalidInput, s)
	}
	return v, nil
}

// InteractionMode is how questions are presented to the candidate. Voice
// sessions get shorter generated text.
type InteractionMode string

const (
	ModeText  InteractionMode = "text"
	ModeVoice InteractionMode = "voice"
)

func (m InteractionMode) Valid() bool {
	return m == ModeText || m == ModeVoice
}

// ParseMode converts s into an InteractionMode. An empty string means text.
func ParseMode(s string) (InteractionMode, error) {
	if s == "" {
		return ModeText, nil
	}
	m := InteractionMode(s)
	if !m.Valid() {
		return "", fmt.Errorf("%w: unknown interaction mode %q", ErrInvalidInput, s)
	}
	return m, nil
}

// Phase is the coarse stage of the interview. It is derived from the question
// count except for PhaseEnded, which is only entered on an explicit end signal.
type Phase string

const (
	PhaseOpening Phase = "opening"
	PhaseMain    Phase = "main"
	PhaseClosing Phase = "closing"
	PhaseEnded   Phase = "ended"
)

// PhaseFor maps a question count to its phase: 1-2 opening, 3-6 main,
// 7 and above closing.
func PhaseFor(questionCount int) Phase {
	switch {
	case questionCount <= 2:
		return PhaseOpening
	case questionCount <= 6:
		return PhaseMain
	default:
		return PhaseClosing
	}
}

// NextAgent names the stage that acts after the decision.
type NextAgent string

const (
	AgentInterviewer NextAgent = "interviewer"
	AgentFeedback    NextAgent = "feedback"
)

func (a NextAgent) Valid() bool {
	return a == AgentInterviewer || a == AgentFeedback
}

// NextIntent is the category of the next interviewer move.
type NextIntent string

const (
	IntentAskBehavioral        NextIntent = "ask_behavioral"
	IntentAskTechnical         NextIntent = "ask_technical"
	IntentAskRoleSpecific      NextIntent = "ask_role_specific"
	IntentProbeAnswer          NextIntent = "probe_answer"
	IntentAskClosing           NextIntent = "ask_closing"
	IntentEndInterview         NextIntent = "end_interview"
	IntentContinueConversation NextIntent = "continue_conversation"
)

// AllIntents lists every intent. Tables keyed by intent are tested against it.
func AllIntents() []NextIntent {
	return []NextIntent{
		IntentAskBehavioral,
		IntentAskTechnical,
		IntentAskRoleSpecific,
		IntentProbeAnswer,
		IntentAskClosing,
		IntentEndInterview,
		IntentContinueConversation,
	}
}

func (i NextIntent) Valid() bool {
	switch i {
	case IntentAskBehavioral, IntentAskTechnical, IntentAskRoleSpecific, IntentProbeAnswer,
		IntentAskClosing, IntentEndInterview, IntentContinueConversation:
		return true
	}
	return false
}

// Difficulty of the next question.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

func (d Difficulty) Valid() bool {
	return d == DifficultyEasy || d == DifficultyMedium || d == DifficultyHard
}

// Recommendation is the final hiring signal.
type Recommendation string

const (
	StrongHire Recommendation = "STRONG_HIRE"
	Hire       Recommendation = "HIRE"
	Maybe      Recommendation = "MAYBE"
	NoHire     Recommendation = "NO_HIRE"
)

func (r Recommendation) Valid() bool {
	switch r {
	case StrongHire, Hire, Maybe, NoHire:
		return true
	}
	return false
}

// RecommendationFor maps an overall score to a recommendation:
// >=8 STRONG_HIRE, >=6 HIRE, >=4 MAYBE, otherwise NO_HIRE.
func RecommendationFor(overall int) Recommendation {
	switch {
	case overall >= 8:
		return StrongHire
	case overall >= 6:
		return Hire
	case overall >= 4:
		return Maybe
	default:
		return NoHire
	}
}

// Sender tags the author of a history entry.
type Sender string

const (
	SenderInterviewer Sender = "interviewer"
	SenderCandidate   Sender = "candidate"
	SenderSystem      Sender = "system"
)

// MessageKind distinguishes questions, answers and notes in the history.
type MessageKind string

const (
	KindQuestion MessageKind = "question"
	KindAnswer   MessageKind = "answer"
	KindNote     MessageKind = "note"
)
