package stage

import (
	"fmt"
	"strings"

	"github.com/kalambet/intervue/internal/interview"
)

// Transcript renders messages as labelled lines for inclusion in a prompt.
func Transcript(msgs []interview.Message) string {
	var sb strings.Builder
	for _, m := range msgs {
		label := "Interviewer"
		switch m.Sender {
		case interview.SenderCandidate:
			label = "Candidate"
		case interview.SenderSystem:
			label = "System"
		}
		fmt.Fprintf(&sb, "%s: %s\n", label, strings.TrimSpace(m.Content))
	}
	return strings.TrimRight(sb.String(), "\n")
}

// Context renders the fixed interview facts shared by every stage prompt.
func Context(s *interview.State) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[Interview]\nRole: %s\nSeniority: %s\nMode: %s\nPhase: %s\nQuestions asked: %d",
		s.Role.Title(), s.Seniority, s.Mode, s.Phase, s.QuestionCount)
	if s.Resume != "" {
		fmt.Fprintf(&sb, "\n\n[Candidate Background]\n%s", s.Resume)
	}
	return sb.String()
}
