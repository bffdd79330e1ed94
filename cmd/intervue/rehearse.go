package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/kalambet/intervue/internal/api"
	"github.com/kalambet/intervue/internal/interview"
)

const defaultRehearsalConcurrency = 4

// rehearsalScript is the YAML file read by rehearse. Candidate fields
// override the script defaults.
type rehearsalScript struct {
	Role        interview.Role            `yaml:"role"`
	Seniority   interview.Seniority       `yaml:"seniority"`
	Mode        interview.InteractionMode `yaml:"interaction_mode"`
	Concurrency int                       `yaml:"concurrency"`
	Candidates  []rehearsalCandidate      `yaml:"candidates"`
}

type rehearsalCandidate struct {
	Name      string                    `yaml:"name"`
	Role      interview.Role            `yaml:"role"`
	Seniority interview.Seniority       `yaml:"seniority"`
	Mode      interview.InteractionMode `yaml:"interaction_mode"`
	Resume    string                    `yaml:"resume"`
	Answers   []string                  `yaml:"answers"`
}

type rehearsalResult struct {
	Name      string
	SessionID string
	Questions int
	Report    interview.Report
}

var rehearseCmd = &cobra.Command{
	Use:   "rehearse <script.yaml>",
	Short: "Run scripted candidates through interviews concurrently",
	Long: `Run scripted candidates through interviews concurrently and print a
summary of their evaluations.

Example script:
  role: backend
  seniority: mid
  concurrency: 2
  candidates:
    - name: concise
      answers:
        - "I build payment APIs in Go."
        - "We shard by merchant id."
    - name: senior-data
      role: data
      seniority: senior
      answers: ["..."]`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		script, err := loadRehearsalScript(args[0])
		if err != nil {
			return err
		}
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		results, err := rehearse(cmd.Context(), client, script)
		if err != nil {
			return err
		}
		printRehearsal(os.Stdout, results)
		return nil
	},
}

func loadRehearsalScript(path string) (rehearsalScript, error) {
	var s rehearsalScript
	data, err := os.ReadFile(path)
	if err != nil {
		return s, fmt.Errorf("reading script: %w", err)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("parsing script %s: %w", path, err)
	}
	if len(s.Candidates) == 0 {
		return s, fmt.Errorf("script %s has no candidates", path)
	}
	for i, c := range s.Candidates {
		if len(c.Answers) == 0 {
			return s, fmt.Errorf("candidate %d (%s) has no answers", i+1, c.Name)
		}
	}
	return s, nil
}

// rehearse runs every candidate of s and returns results in script order.
// The first failing candidate cancels the rest.
func rehearse(ctx context.Context, c *apiClient, s rehearsalScript) ([]rehearsalResult, error) {
	limit := s.Concurrency
	if limit <= 0 {
		limit = defaultRehearsalConcurrency
	}

	results := make([]rehearsalResult, len(s.Candidates))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, cand := range s.Candidates {
		g.Go(func() error {
			res, err := rehearseOne(gctx, c, s, cand)
			if err != nil {
				return fmt.Errorf("candidate %q: %w", candidateName(cand, i), err)
			}
			res.Name = candidateName(cand, i)
			mu.Lock()
			results[i] = res
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func rehearseOne(ctx context.Context, c *apiClient, s rehearsalScript, cand rehearsalCandidate) (rehearsalResult, error) {
	req := api.StartSessionRequest{
		Role:      firstNonEmpty(cand.Role, s.Role),
		Seniority: firstNonEmpty(cand.Seniority, s.Seniority),
		Mode:      firstNonEmpty(cand.Mode, s.Mode),
		Resume:    cand.Resume,
	}
	start, err := startSession(ctx, c, req)
	if err != nil {
		return rehearsalResult{}, err
	}

	res := rehearsalResult{SessionID: start.SessionID, Questions: start.QuestionCount}
	for _, answer := range cand.Answers {
		turn, err := submitAnswer(ctx, c, start.SessionID, answer)
		if err != nil {
			return res, err
		}
		res.Questions = turn.QuestionCount
		if turn.ShouldEnd {
			break
		}
	}

	if res.Report, err = generateEvaluation(ctx, c, start.SessionID); err != nil {
		return res, err
	}
	return res, nil
}

func printRehearsal(w io.Writer, results []rehearsalResult) {
	for _, r := range results {
		ev := r.Report.Evaluation
		fmt.Fprintf(w, "%-20s %2d questions  %2d/10  %-11s  %s\n",
			r.Name, r.Questions, ev.OverallScore,
			colorize(recommendationColor(ev.Recommendation), string(ev.Recommendation)),
			truncate(ev.Summary, 80))
	}
}

func candidateName(c rehearsalCandidate, i int) string {
	if c.Name != "" {
		return c.Name
	}
	return fmt.Sprintf("candidate-%d", i+1)
}

func firstNonEmpty[T ~string](vals ...T) T {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
