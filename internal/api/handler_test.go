package api

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kalambet/intervue/internal/coordinator"
	"github.com/kalambet/intervue/internal/interview"
	"github.com/kalambet/intervue/internal/reports"
)

func do(t *testing.T, h http.Handler, method, url, body string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, authReq(method, url, body, testToken))
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decoding response %q: %v", rec.Body.String(), err)
	}
	return v
}

func errorType(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	body := decode[map[string]map[string]string](t, rec)
	return body["error"]["type"]
}

func startSession(t *testing.T, h http.Handler) coordinator.StartResult {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/v1/sessions", `{"role":"backend","seniority":"mid","interaction_mode":"text"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("start: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	return decode[coordinator.StartResult](t, rec)
}

func TestHealth(t *testing.T) {
	h := newTestEnv(t).handler()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := rec.Body.String(); got != `{"status":"ok"}` {
		t.Errorf("body = %q", got)
	}
}

func TestAuth(t *testing.T) {
	h := newTestEnv(t).handler()
	for _, token := range []string{"", "wrong-token"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, authReq(http.MethodGet, "/v1/evaluations", "", token))
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("token %q: status = %d, want 401", token, rec.Code)
		}
	}
}

func TestInterviewFlow(t *testing.T) {
	env := newTestEnv(t)
	h := env.handler()

	start := startSession(t, h)
	if start.QuestionCount != 1 || start.Message == "" {
		t.Fatalf("start = %+v", start)
	}

	rec := do(t, h, http.MethodPost, "/v1/sessions/"+start.SessionID+"/answers", `{"text":"I build payment APIs in Go."}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("answer: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	turn := decode[coordinator.TurnResult](t, rec)
	if turn.QuestionCount != 2 || turn.ShouldEnd || !turn.Analysis.IsTooShort {
		t.Errorf("turn = %+v", turn)
	}

	rec = do(t, h, http.MethodGet, "/v1/sessions/"+start.SessionID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get: status = %d", rec.Code)
	}
	st := decode[interview.State](t, rec)
	if len(st.History) != 3 {
		t.Errorf("history length = %d, want 3", len(st.History))
	}

	rec = do(t, h, http.MethodPost, "/v1/sessions/"+start.SessionID+"/end", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("end: status = %d", rec.Code)
	}

	rec = do(t, h, http.MethodPost, "/v1/sessions/"+start.SessionID+"/answers", `{"text":"late answer"}`)
	if rec.Code != http.StatusConflict {
		t.Errorf("answer after end: status = %d, want 409", rec.Code)
	}

	rec = do(t, h, http.MethodPost, "/v1/sessions/"+start.SessionID+"/evaluation", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("evaluation: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	report := decode[interview.Report](t, rec)
	if !report.Evaluation.Recommendation.Valid() {
		t.Errorf("recommendation = %q", report.Evaluation.Recommendation)
	}

	rec = do(t, h, http.MethodGet, "/v1/sessions/"+start.SessionID, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("session after evaluation: status = %d, want 404", rec.Code)
	}

	rec = do(t, h, http.MethodGet, "/v1/evaluations/"+report.ID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get evaluation: status = %d", rec.Code)
	}
	if got := decode[interview.Report](t, rec); got.SessionID != start.SessionID {
		t.Errorf("archived SessionID = %q, want %q", got.SessionID, start.SessionID)
	}

	rec = do(t, h, http.MethodGet, "/v1/evaluations?limit=5", "")
	list := decode[[]reports.Summary](t, rec)
	if len(list) != 1 || list[0].ID != report.ID {
		t.Errorf("list = %+v", list)
	}

	rec = do(t, h, http.MethodGet, "/v1/stats", "")
	stats := decode[StatsResponse](t, rec)
	if stats.Runtime == nil || stats.Runtime.Evaluations != 1 {
		t.Errorf("runtime stats = %+v", stats.Runtime)
	}
	if stats.Archive == nil || stats.Archive.Total != 1 {
		t.Errorf("archive stats = %+v", stats.Archive)
	}
}

func TestStartSession_Invalid(t *testing.T) {
	h := newTestEnv(t).handler()
	tests := map[string]string{
		"bad json":    `{"role":`,
		"bad role":    `{"role":"chef","seniority":"mid"}`,
		"bad base64":  `{"role":"backend","seniority":"mid","resume_file":"%%%"}`,
		"binary file": `{"role":"backend","seniority":"mid","resume_file":"` + base64.StdEncoding.EncodeToString([]byte{0, 1, 2, 0xff}) + `"}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/v1/sessions", body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400 (body %s)", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestStartSession_ResumeFile(t *testing.T) {
	env := newTestEnv(t)
	h := env.handler()

	file := base64.StdEncoding.EncodeToString([]byte("Jane Doe\n\n  Payments   team lead "))
	rec := do(t, h, http.MethodPost, "/v1/sessions",
		`{"role":"backend","seniority":"lead","resume_filename":"cv.txt","resume_file":"`+file+`"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	start := decode[coordinator.StartResult](t, rec)

	rec = do(t, h, http.MethodGet, "/v1/sessions/"+start.SessionID, "")
	st := decode[interview.State](t, rec)
	if st.Resume != "Jane Doe\nPayments team lead" {
		t.Errorf("Resume = %q", st.Resume)
	}
	if st.Mode != interview.ModeText {
		t.Errorf("Mode = %q, want default text", st.Mode)
	}
}

func TestErrors(t *testing.T) {
	h := newTestEnv(t).handler()
	start := startSession(t, h)

	tests := []struct {
		name     string
		method   string
		url      string
		body     string
		wantCode int
		wantType string
	}{
		{"unknown session", http.MethodPost, "/v1/sessions/nope/answers", `{"text":"hi"}`, http.StatusNotFound, "not_found"},
		{"empty answer", http.MethodPost, "/v1/sessions/" + start.SessionID + "/answers", `{"text":"  "}`, http.StatusBadRequest, "invalid_request_error"},
		{"no responses", http.MethodPost, "/v1/sessions/" + start.SessionID + "/evaluation", "", http.StatusUnprocessableEntity, "no_responses"},
		{"unknown evaluation", http.MethodGet, "/v1/evaluations/nope", "", http.StatusNotFound, "not_found"},
		{"oversized body", http.MethodPost, "/v1/sessions/" + start.SessionID + "/answers", `{"text":"` + strings.Repeat("a", maxBodySize) + `"}`, http.StatusBadRequest, "invalid_request_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, tt.method, tt.url, tt.body)
			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantCode, rec.Body.String())
			}
			if got := errorType(t, rec); got != tt.wantType {
				t.Errorf("error type = %q, want %q", got, tt.wantType)
			}
		})
	}
}

func TestAbortSession(t *testing.T) {
	h := newTestEnv(t).handler()
	start := startSession(t, h)

	if rec := do(t, h, http.MethodDelete, "/v1/sessions/"+start.SessionID, ""); rec.Code != http.StatusOK {
		t.Fatalf("delete: status = %d", rec.Code)
	}
	if rec := do(t, h, http.MethodDelete, "/v1/sessions/"+start.SessionID, ""); rec.Code != http.StatusNotFound {
		t.Errorf("second delete: status = %d, want 404", rec.Code)
	}
}

func TestArchiveDisabled(t *testing.T) {
	env := newTestEnv(t)
	h := NewHandler(Deps{Interviews: env.coord, Token: testToken})

	rec := do(t, h, http.MethodGet, "/v1/evaluations", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
	rec = do(t, h, http.MethodGet, "/v1/stats", "")
	if rec.Code != http.StatusOK {
		t.Errorf("stats status = %d, want 200", rec.Code)
	}
}
