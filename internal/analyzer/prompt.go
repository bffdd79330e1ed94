package analyzer

import (
	"fmt"
	"strings"

	"github.com/kalambet/intervue/internal/engine"
	"github.com/kalambet/intervue/internal/interview"
	"github.com/kalambet/intervue/internal/stage"
)

const historyWindow = 6

const systemPrompt = `You are an interview response analyst. Assess ONLY the candidate's latest answer to the latest question. Your output must be ONLY a single valid JSON object that conforms to the provided schema. Do not include any other text, prose, or markdown.

Rules:
- is_too_short: the answer has fewer than %d words.
- is_chatty: the answer has more than %d words.
- is_off_topic: the answer does not address the question that was asked.
- Score each category from 0 to 10 for this answer alone, calibrated to the candidate's seniority.
- note is a single line summarising the answer.
- Keep strengths, weaknesses and suggestions to at most three short items each.`

// BuildPrompt constructs the chat messages for analysing answer.
func BuildPrompt(s *interview.State, answer string) []engine.Message {
	var sb strings.Builder
	fmt.Fprintf(&sb, systemPrompt, ShortWords, ChattyWords)
	sb.WriteString("\n\n")
	sb.WriteString(stage.Context(s))

	if recent := s.Recent(historyWindow); len(recent) > 0 {
		fmt.Fprintf(&sb, "\n\n[Recent Conversation]\n%s", stage.Transcript(recent))
	}

	user := fmt.Sprintf("Question: %s\n\nAnswer (%d words): %s",
		s.LastQuestion(), interview.WordCount(answer), answer)

	return []engine.Message{
		{Role: "system", Content: sb.String()},
		{Role: "user", Content: user},
	}
}
