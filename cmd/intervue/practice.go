package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/kalambet/intervue/internal/api"
)

var practiceCmd = &cobra.Command{
	Use:   "practice",
	Short: "Run an interactive interview in the terminal",
	Long: `Run an interactive interview in the terminal.

Type your answer and finish it with an empty line. Type /end to stop early
and get the evaluation, or /quit to discard the session.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := startRequestFromFlags(cmd)
		if err != nil {
			return err
		}
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		prompt := term.IsTerminal(int(os.Stdin.Fd()))
		return practice(cmd.Context(), client, req, cmd.InOrStdin(), os.Stdout, prompt)
	},
}

func init() {
	practiceCmd.Flags().String("role", "", "role: backend, frontend, fullstack, devops, data or mobile")
	practiceCmd.Flags().String("seniority", "", "seniority: junior, mid, senior or lead")
	practiceCmd.Flags().String("mode", "text", "interaction mode: text or voice")
	practiceCmd.Flags().String("resume", "", "path to a PDF or text résumé")
}

const (
	cmdEnd  = "/end"
	cmdQuit = "/quit"
)

// practice drives one session from in until the interview ends, then prints
// the evaluation. prompt controls the "> " marker for interactive input.
func practice(ctx context.Context, c *apiClient, req api.StartSessionRequest, in io.Reader, out io.Writer, prompt bool) error {
	start, err := startSession(ctx, c, req)
	if err != nil {
		return err
	}
	id := start.SessionID
	printQuestion(out, start.Phase, start.QuestionCount, start.Message)

	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 64*1024), 1<<20)
	for {
		answer, command, ok := readAnswer(sc, out, prompt)
		if !ok || command == cmdEnd {
			break
		}
		if command == cmdQuit {
			resp, err := c.delete(ctx, "/v1/sessions/"+id)
			if err != nil {
				return err
			}
			if err := decodeJSON(resp, nil); err != nil {
				return err
			}
			printWarning("Session discarded")
			return nil
		}
		if answer == "" {
			continue
		}

		turn, err := submitAnswer(ctx, c, id, answer)
		if err != nil {
			return err
		}
		printTurn(out, turn)
		if turn.ShouldEnd {
			break
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	printStep("Generating evaluation...")
	report, err := generateEvaluation(ctx, c, id)
	if err != nil {
		return err
	}
	printReport(out, report)
	return nil
}

// readAnswer collects lines up to an empty line. A line holding only /end or
// /quit is returned as command. ok is false once input is exhausted with
// nothing collected.
func readAnswer(sc *bufio.Scanner, out io.Writer, prompt bool) (answer, command string, ok bool) {
	if prompt {
		fmt.Fprint(out, colorize(colorBold, "> "))
	}
	var lines []string
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		trimmed := strings.TrimSpace(line)
		if len(lines) == 0 && (trimmed == cmdEnd || trimmed == cmdQuit) {
			return "", trimmed, true
		}
		if trimmed == "" {
			if len(lines) > 0 {
				break
			}
			continue
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return "", "", false
	}
	return strings.Join(lines, "\n"), "", true
}
