package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/kalambet/intervue/internal/analyzer"
	"github.com/kalambet/intervue/internal/api"
	"github.com/kalambet/intervue/internal/config"
	"github.com/kalambet/intervue/internal/coordinator"
	"github.com/kalambet/intervue/internal/decision"
	"github.com/kalambet/intervue/internal/feedback"
	"github.com/kalambet/intervue/internal/interview"
	"github.com/kalambet/intervue/internal/interviewer"
	"github.com/kalambet/intervue/internal/metrics"
	"github.com/kalambet/intervue/internal/reports"
	"github.com/kalambet/intervue/internal/session"
	"github.com/kalambet/intervue/internal/storage"
)

type recordedRequest struct {
	Method string
	Path   string
	Body   string
	Auth   string
}

type testServer struct {
	server   *httptest.Server
	requests []recordedRequest
}

func newTestServer(t *testing.T, responses map[string]string) *testServer {
	t.Helper()
	ts := &testServer{}

	ts.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body bytes.Buffer
		body.ReadFrom(r.Body)

		ts.requests = append(ts.requests, recordedRequest{
			Method: r.Method,
			Path:   r.URL.RequestURI(),
			Body:   body.String(),
			Auth:   r.Header.Get("Authorization"),
		})

		key := r.Method + " " + r.URL.Path
		if resp, ok := responses[key]; ok {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(resp))
			return
		}

		w.WriteHeader(404)
		w.Write([]byte(`{"error":{"message":"session not found","type":"not_found"}}`))
	}))

	t.Cleanup(ts.server.Close)
	return ts
}

func (ts *testServer) client() *apiClient {
	return &apiClient{
		baseURL:    ts.server.URL,
		token:      "test-token",
		httpClient: ts.server.Client(),
	}
}

// newLocalServer serves the real API over a coordinator without a model
// backend, so every stage answers with its fallback.
func newLocalServer(t *testing.T) *apiClient {
	t.Helper()
	db, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	sessions, err := session.NewStore(session.KindMemory)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	archive := reports.NewArchive(db, "")
	m := metrics.New()
	coord, err := coordinator.New(coordinator.Deps{
		Store:       sessions,
		Analyzer:    analyzer.New(nil, "", time.Second),
		Decider:     decision.New(nil, "", time.Second, decision.DefaultPolicy()),
		Interviewer: interviewer.New(nil, "", time.Second, nil),
		Evaluator:   feedback.New(nil, "", time.Second),
		Sink:        archive,
		Metrics:     m,
	})
	if err != nil {
		t.Fatalf("coordinator.New: %v", err)
	}

	srv := httptest.NewServer(api.NewHandler(api.Deps{
		Interviews: coord,
		Reports:    archive,
		Metrics:    m,
		Token:      "test-token",
	}))
	t.Cleanup(srv.Close)
	return &apiClient{baseURL: srv.URL, token: "test-token", httpClient: srv.Client()}
}

var ctx = context.Background()

func TestStartSession_Request(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"POST /v1/sessions": `{"session_id":"s-1","message":"Tell me about yourself.","phase":"opening","question_count":1}`,
	})

	res, err := startSession(ctx, ts.client(), api.StartSessionRequest{
		Role:      interview.RoleBackend,
		Seniority: interview.SeniorityMid,
		Mode:      interview.ModeText,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.SessionID != "s-1" || res.QuestionCount != 1 {
		t.Errorf("result = %+v", res)
	}

	if len(ts.requests) != 1 {
		t.Fatalf("expected 1 request, got %d", len(ts.requests))
	}
	r := ts.requests[0]
	if r.Auth != "Bearer test-token" {
		t.Errorf("auth = %q, want Bearer test-token", r.Auth)
	}
	var body map[string]any
	if err := json.Unmarshal([]byte(r.Body), &body); err != nil {
		t.Fatalf("body parse error: %v", err)
	}
	if body["role"] != "backend" || body["interaction_mode"] != "text" {
		t.Errorf("body = %v", body)
	}
}

func TestStartRequestFromFlags(t *testing.T) {
	dir := t.TempDir()
	cv := filepath.Join(dir, "cv.txt")
	if err := os.WriteFile(cv, []byte("Ten years of Go."), 0o644); err != nil {
		t.Fatal(err)
	}

	cmd := &cobra.Command{}
	cmd.Flags().String("role", "", "")
	cmd.Flags().String("seniority", "", "")
	cmd.Flags().String("mode", "text", "")
	cmd.Flags().String("resume", "", "")

	if _, err := startRequestFromFlags(cmd); err == nil || !strings.Contains(err.Error(), "required") {
		t.Fatalf("error = %v, want it to mention 'required'", err)
	}

	cmd.Flags().Set("role", "devops")
	cmd.Flags().Set("seniority", "lead")
	cmd.Flags().Set("resume", cv)
	req, err := startRequestFromFlags(cmd)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.ResumeFilename != "cv.txt" {
		t.Errorf("ResumeFilename = %q, want cv.txt", req.ResumeFilename)
	}
	raw, _ := base64.StdEncoding.DecodeString(req.ResumeFile)
	if string(raw) != "Ten years of Go." {
		t.Errorf("decoded resume = %q", raw)
	}
}

func TestDecodeJSON_ServerError(t *testing.T) {
	ts := newTestServer(t, nil)

	_, err := submitAnswer(ctx, ts.client(), "missing", "hello")
	if err == nil {
		t.Fatal("expected error for unknown session")
	}
	if !strings.Contains(err.Error(), "404") || !strings.Contains(err.Error(), "session not found") {
		t.Errorf("error = %q", err.Error())
	}
}

func TestServerNotRunning(t *testing.T) {
	c := &apiClient{baseURL: "http://127.0.0.1:1", token: "x", httpClient: &http.Client{Timeout: time.Second}}

	_, err := c.get(ctx, "/health")
	if err == nil {
		t.Fatal("expected error for stopped server")
	}
	if !strings.Contains(err.Error(), "not reachable") {
		t.Errorf("error = %q, want it to mention 'not reachable'", err.Error())
	}
}

func TestNoColorFlag(t *testing.T) {
	old := noColor
	defer func() { noColor = old }()

	noColor = true
	result := colorize(colorGreen, "test message")
	if strings.Contains(result, "\033[") {
		t.Errorf("colorize with noColor=true should not contain ANSI codes, got %q", result)
	}
	if result != "test message" {
		t.Errorf("result = %q, want %q", result, "test message")
	}

	noColor = false
	result = colorize(colorGreen, "test message")
	if !strings.Contains(result, "\033[") {
		t.Errorf("colorize with noColor=false should contain ANSI codes, got %q", result)
	}
}

func TestAnswerCommand_MissingArgs(t *testing.T) {
	defer rootCmd.SetArgs(nil)

	rootCmd.SetArgs([]string{"answer"})
	if err := rootCmd.Execute(); err == nil {
		t.Fatal("expected error for missing session id")
	}
}

func TestConfigSetCommand_UnknownKey(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	defer rootCmd.SetArgs(nil)

	rootCmd.SetArgs([]string{"config", "set", "no.such.key", "1"})
	err := rootCmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "unknown config key") {
		t.Errorf("error = %v, want unknown config key", err)
	}
}

func TestPractice(t *testing.T) {
	c := newLocalServer(t)
	input := strings.NewReader("I have built payment services in Go.\nMostly the ledger.\n\nWe used Postgres.\n\n/end\n")
	var out bytes.Buffer

	req := api.StartSessionRequest{Role: interview.RoleBackend, Seniority: interview.SeniorityMid}
	if err := practice(ctx, c, req, input, &out, false); err != nil {
		t.Fatalf("practice: %v", err)
	}

	text := out.String()
	if !strings.Contains(text, "[opening 1]") || !strings.Contains(text, "[main 3]") {
		t.Errorf("output missing question markers:\n%s", text)
	}
	if !strings.Contains(text, "Recommendation:") {
		t.Errorf("output missing evaluation:\n%s", text)
	}

	resp, err := c.get(ctx, "/v1/evaluations")
	if err != nil {
		t.Fatal(err)
	}
	var list []reports.Summary
	if err := decodeJSON(resp, &list); err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Errorf("archived evaluations = %d, want 1", len(list))
	}
}

func TestPractice_Quit(t *testing.T) {
	c := newLocalServer(t)
	var out bytes.Buffer

	req := api.StartSessionRequest{Role: interview.RoleFrontend, Seniority: interview.SeniorityJunior}
	if err := practice(ctx, c, req, strings.NewReader("/quit\n"), &out, false); err != nil {
		t.Fatalf("practice: %v", err)
	}
	if strings.Contains(out.String(), "Recommendation:") {
		t.Error("quit should not produce an evaluation")
	}
}

func TestReadAnswer(t *testing.T) {
	sc := bufio.NewScanner(strings.NewReader("\n\nfirst line\nsecond line\n\n/end\n"))
	var out bytes.Buffer

	answer, command, ok := readAnswer(sc, &out, false)
	if !ok || command != "" || answer != "first line\nsecond line" {
		t.Errorf("readAnswer = (%q, %q, %v)", answer, command, ok)
	}
	_, command, ok = readAnswer(sc, &out, false)
	if !ok || command != cmdEnd {
		t.Errorf("command = %q, ok = %v, want /end", command, ok)
	}
	if _, _, ok = readAnswer(sc, &out, false); ok {
		t.Error("expected ok = false at end of input")
	}
}

func TestRehearse(t *testing.T) {
	c := newLocalServer(t)

	path := filepath.Join(t.TempDir(), "script.yaml")
	script := `role: backend
seniority: mid
concurrency: 2
candidates:
  - name: brief
    answers: ["Go.", "Postgres.", "Kafka."]
  - name: full
    role: data
    seniority: senior
    answers: ["a1", "a2", "a3", "a4", "a5", "a6", "a7", "a8", "a9"]
  - answers: ["only one"]
`
	if err := os.WriteFile(path, []byte(script), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := loadRehearsalScript(path)
	if err != nil {
		t.Fatalf("loadRehearsalScript: %v", err)
	}
	results, err := rehearse(ctx, c, s)
	if err != nil {
		t.Fatalf("rehearse: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("results = %d, want 3", len(results))
	}

	tests := []struct {
		name      string
		questions int
		role      interview.Role
	}{
		{"brief", 4, interview.RoleBackend},
		{"full", 8, interview.RoleData},
		{"candidate-3", 2, interview.RoleBackend},
	}
	for i, tt := range tests {
		r := results[i]
		if r.Name != tt.name {
			t.Errorf("results[%d].Name = %q, want %q", i, r.Name, tt.name)
		}
		if r.Questions != tt.questions {
			t.Errorf("%s: questions = %d, want %d", tt.name, r.Questions, tt.questions)
		}
		if r.Report.Role != tt.role {
			t.Errorf("%s: role = %q, want %q", tt.name, r.Report.Role, tt.role)
		}
	}
}

func TestLoadRehearsalScript_Invalid(t *testing.T) {
	dir := t.TempDir()
	tests := map[string]string{
		"empty":      "role: backend\n",
		"no answers": "candidates:\n  - name: x\n",
		"bad yaml":   "candidates: [\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, strings.ReplaceAll(name, " ", "_")+".yaml")
			if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, err := loadRehearsalScript(path); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestSetupLogging(t *testing.T) {
	var buf bytes.Buffer
	setupLogging(config.LogConfig{Level: "debug", Format: "json"}, &buf)
	t.Cleanup(func() { setupLogging(config.LogConfig{Level: "info", Format: "text"}, os.Stderr) })

	slog.Debug("probe")
	if !strings.Contains(buf.String(), `"msg":"probe"`) {
		t.Errorf("log output = %q, want JSON debug record", buf.String())
	}
}
