package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/kalambet/intervue/internal/api"
	"github.com/kalambet/intervue/internal/config"
	"github.com/kalambet/intervue/internal/coordinator"
	"github.com/kalambet/intervue/internal/interview"
	"github.com/kalambet/intervue/internal/reports"
)

// --- session commands ---

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start an interview session and print the opening question",
	Long: `Start an interview session and print the opening question.

Examples:
  intervue start --role backend --seniority senior
  intervue start --role data --seniority mid --mode voice --resume ./cv.pdf`,
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := startRequestFromFlags(cmd)
		if err != nil {
			return err
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		res, err := startSession(cmd.Context(), client, req)
		if err != nil {
			return err
		}

		printSuccess("Session %s started", res.SessionID)
		printQuestion(os.Stdout, res.Phase, res.QuestionCount, res.Message)
		return nil
	},
}

func init() {
	startCmd.Flags().String("role", "", "role: backend, frontend, fullstack, devops, data or mobile")
	startCmd.Flags().String("seniority", "", "seniority: junior, mid, senior or lead")
	startCmd.Flags().String("mode", "text", "interaction mode: text or voice")
	startCmd.Flags().String("resume", "", "path to a PDF or text résumé")
}

func startRequestFromFlags(cmd *cobra.Command) (api.StartSessionRequest, error) {
	role, _ := cmd.Flags().GetString("role")
	seniority, _ := cmd.Flags().GetString("seniority")
	mode, _ := cmd.Flags().GetString("mode")
	resumePath, _ := cmd.Flags().GetString("resume")

	if role == "" || seniority == "" {
		return api.StartSessionRequest{}, fmt.Errorf("--role and --seniority are required")
	}

	req := api.StartSessionRequest{
		Role:      interview.Role(role),
		Seniority: interview.Seniority(seniority),
		Mode:      interview.InteractionMode(mode),
	}
	if resumePath != "" {
		data, err := os.ReadFile(resumePath)
		if err != nil {
			return api.StartSessionRequest{}, fmt.Errorf("reading resume: %w", err)
		}
		req.ResumeFile = base64.StdEncoding.EncodeToString(data)
		req.ResumeFilename = filepath.Base(resumePath)
	}
	return req, nil
}

func startSession(ctx context.Context, c *apiClient, req api.StartSessionRequest) (coordinator.StartResult, error) {
	var res coordinator.StartResult
	resp, err := c.post(ctx, "/v1/sessions", req)
	if err != nil {
		return res, err
	}
	err = decodeJSON(resp, &res)
	return res, err
}

var answerCmd = &cobra.Command{
	Use:   "answer <session-id> [text...]",
	Short: "Submit an answer; reads stdin when no text is given",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text := strings.Join(args[1:], " ")
		if text == "" {
			data, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("reading answer: %w", err)
			}
			text = string(data)
		}
		if strings.TrimSpace(text) == "" {
			return fmt.Errorf("answer text is required")
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		turn, err := submitAnswer(cmd.Context(), client, args[0], text)
		if err != nil {
			return err
		}
		printTurn(os.Stdout, turn)
		if turn.ShouldEnd {
			printStep("Interview complete. Run: intervue evaluate %s", args[0])
		}
		return nil
	},
}

func submitAnswer(ctx context.Context, c *apiClient, id, text string) (coordinator.TurnResult, error) {
	var turn coordinator.TurnResult
	resp, err := c.post(ctx, "/v1/sessions/"+id+"/answers", api.AnswerRequest{Text: text})
	if err != nil {
		return turn, err
	}
	err = decodeJSON(resp, &turn)
	return turn, err
}

func printTurn(w io.Writer, turn coordinator.TurnResult) {
	if turn.ShouldEnd {
		fmt.Fprintf(w, "\n%s %s\n", colorize(colorCyan, "[ended]"), turn.Message)
		return
	}
	printQuestion(w, turn.Phase, turn.QuestionCount, turn.Message)
}

var endCmd = &cobra.Command{
	Use:   "end <session-id>",
	Short: "End an interview early",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.post(cmd.Context(), "/v1/sessions/"+args[0]+"/end", nil)
		if err != nil {
			return err
		}
		var res struct {
			QuestionCount int `json:"question_count"`
		}
		if err := decodeJSON(resp, &res); err != nil {
			return err
		}
		printSuccess("Session %s ended after %d questions", args[0], res.QuestionCount)
		return nil
	},
}

var evaluateCmd = &cobra.Command{
	Use:   "evaluate <session-id>",
	Short: "Generate the final evaluation and close the session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		report, err := generateEvaluation(cmd.Context(), client, args[0])
		if err != nil {
			return err
		}
		if asJSON {
			return writeIndented(os.Stdout, report)
		}
		printReport(os.Stdout, report)
		return nil
	},
}

func init() {
	evaluateCmd.Flags().Bool("json", false, "print the report as JSON")
}

func generateEvaluation(ctx context.Context, c *apiClient, id string) (interview.Report, error) {
	var report interview.Report
	resp, err := c.post(ctx, "/v1/sessions/"+id+"/evaluation", nil)
	if err != nil {
		return report, err
	}
	err = decodeJSON(resp, &report)
	return report, err
}

var abortCmd = &cobra.Command{
	Use:   "abort <session-id>",
	Short: "Discard a session without evaluating it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.delete(cmd.Context(), "/v1/sessions/"+args[0])
		if err != nil {
			return err
		}
		if err := decodeJSON(resp, nil); err != nil {
			return err
		}
		printSuccess("Session %s discarded", args[0])
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Show a session's transcript and analytics as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.get(cmd.Context(), "/v1/sessions/"+args[0])
		if err != nil {
			return err
		}
		var st interview.State
		if err := decodeJSON(resp, &st); err != nil {
			return err
		}
		return writeIndented(os.Stdout, st)
	},
}

// --- evaluations ---

var evaluationsCmd = &cobra.Command{
	Use:   "evaluations",
	Short: "Browse archived evaluations",
}

var evaluationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent evaluations",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.get(cmd.Context(), fmt.Sprintf("/v1/evaluations?limit=%d", limit))
		if err != nil {
			return err
		}
		var list []reports.Summary
		if err := decodeJSON(resp, &list); err != nil {
			return err
		}

		if len(list) == 0 {
			fmt.Println("No evaluations found.")
			return nil
		}
		for _, s := range list {
			id := s.ID
			if len(id) > 8 {
				id = id[:8]
			}
			fmt.Printf("%s  %s  %-9s %-6s %2d/10  %s\n",
				colorize(colorCyan, id),
				s.CreatedAt.Format("2006-01-02 15:04"),
				s.Role, s.Seniority, s.OverallScore,
				colorize(recommendationColor(s.Recommendation), string(s.Recommendation)),
			)
		}
		return nil
	},
}

var evaluationsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a single evaluation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.get(cmd.Context(), "/v1/evaluations/"+args[0])
		if err != nil {
			return err
		}
		var report interview.Report
		if err := decodeJSON(resp, &report); err != nil {
			return err
		}
		if asJSON {
			return writeIndented(os.Stdout, report)
		}
		printReport(os.Stdout, report)
		return nil
	},
}

func init() {
	evaluationsListCmd.Flags().Int("limit", 20, "maximum number of evaluations to list")
	evaluationsShowCmd.Flags().Bool("json", false, "print the report as JSON")
	evaluationsCmd.AddCommand(evaluationsListCmd)
	evaluationsCmd.AddCommand(evaluationsShowCmd)
}

func writeIndented(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		for _, k := range config.ShowAll(cfg) {
			fmt.Printf("  %s = %s\n", colorize(colorBold, k.Key), k.Value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long:  "Set a configuration value.\n\nValid keys:\n  " + strings.Join(config.ValidKeys(), "\n  "),
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

var configSetKeyCmd = &cobra.Command{
	Use:   "set-openrouter-key",
	Short: "Store the OpenRouter API key in the secrets file",
	RunE: func(cmd *cobra.Command, args []string) error {
		var key string
		if fd := int(os.Stdin.Fd()); term.IsTerminal(fd) {
			fmt.Fprint(os.Stderr, "OpenRouter API key: ")
			raw, err := term.ReadPassword(fd)
			fmt.Fprintln(os.Stderr)
			if err != nil {
				return fmt.Errorf("reading key: %w", err)
			}
			key = string(raw)
		} else {
			raw, err := io.ReadAll(os.Stdin)
			if err != nil {
				return fmt.Errorf("reading key: %w", err)
			}
			key = string(raw)
		}

		key = strings.TrimSpace(key)
		if key == "" {
			return fmt.Errorf("empty key")
		}
		if err := config.SetOpenRouterKey(config.NewKeychain(), key); err != nil {
			return err
		}
		printSuccess("OpenRouter API key stored")
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configSetKeyCmd)
}
