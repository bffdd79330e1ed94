package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/kalambet/intervue/internal/interview"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorBold   = "\033[1m"
)

func colorize(color, text string) string {
	if noColor {
		return text
	}
	return color + text + colorReset
}

func printSuccess(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, colorize(colorGreen, "✓ "+msg))
}

func printError(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, colorize(colorRed, "✗ "+msg))
}

func printWarning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, colorize(colorYellow, "⚠ "+msg))
}

func printStatus(label string, format string, args ...any) {
	val := fmt.Sprintf(format, args...)
	l := colorize(colorBold, label+":")
	fmt.Fprintf(os.Stderr, "  %s %s\n", l, val)
}

func printStep(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, colorize(colorCyan, "→ "+msg))
}

// printQuestion writes an interviewer message with its progress marker.
func printQuestion(w io.Writer, phase interview.Phase, count int, msg string) {
	tag := fmt.Sprintf("[%s %d]", phase, count)
	fmt.Fprintf(w, "\n%s %s\n", colorize(colorCyan, tag), msg)
}

// printReport renders an evaluation report for a terminal.
func printReport(w io.Writer, r interview.Report) {
	ev := r.Evaluation
	fmt.Fprintf(w, "\n%s  %s %s, %d questions, %d answers\n",
		colorize(colorBold, "Evaluation "+r.ID), r.Seniority, r.Role, r.QuestionCount, r.AnswerCount)
	fmt.Fprintf(w, "  Overall: %d/10  Recommendation: %s\n", ev.OverallScore, colorize(recommendationColor(ev.Recommendation), string(ev.Recommendation)))
	sc := ev.Scores
	fmt.Fprintf(w, "  Scores: communication %.1f, technical %.1f, behavioral %.1f, confidence %.1f, engagement %.1f\n",
		sc.Communication, sc.Technical, sc.Behavioral, sc.Confidence, sc.Engagement)
	if r.Degraded {
		fmt.Fprintln(w, colorize(colorYellow, "  (some stages used fallback output)"))
	}
	printList(w, "Strengths", ev.Strengths)
	printList(w, "Improvements", ev.Improvements)
	printList(w, "Highlights", ev.Highlights)
	printList(w, "Red flags", ev.RedFlags)
	fmt.Fprintf(w, "\n  %s\n", ev.Summary)
}

func printList(w io.Writer, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(w, "  %s:\n", title)
	for _, it := range items {
		fmt.Fprintf(w, "    - %s\n", it)
	}
}

func recommendationColor(r interview.Recommendation) string {
	switch r {
	case interview.StrongHire, interview.Hire:
		return colorGreen
	case interview.Maybe:
		return colorYellow
	default:
		return colorRed
	}
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
