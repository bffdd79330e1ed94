// Package api exposes the interview coordinator over HTTP and MCP.
package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kalambet/intervue/internal/coordinator"
	"github.com/kalambet/intervue/internal/interview"
	"github.com/kalambet/intervue/internal/metrics"
	"github.com/kalambet/intervue/internal/reports"
	"github.com/kalambet/intervue/internal/resume"
	"github.com/kalambet/intervue/internal/storage"
)

const maxBodySize = 1 << 20 // 1MB

// Interviews is the coordinator surface the API needs.
type Interviews interface {
	StartSession(ctx context.Context, req coordinator.StartRequest) (coordinator.StartResult, error)
	SubmitAnswer(ctx context.Context, id, text string) (coordinator.TurnResult, error)
	EndSession(ctx context.Context, id string) (*interview.State, error)
	GenerateEvaluation(ctx context.Context, id string) (interview.Report, error)
	AbortSession(ctx context.Context, id string) error
	Session(ctx context.Context, id string) (*interview.State, error)
}

// Reports reads the evaluation archive.
type Reports interface {
	List(ctx context.Context, limit int) ([]reports.Summary, error)
	Get(ctx context.Context, id string) (interview.Report, error)
	Stats(ctx context.Context) (storage.EvaluationStats, error)
}

// Counters exposes the in-process metrics.
type Counters interface {
	Snapshot() metrics.Snapshot
}

type Deps struct {
	Interviews Interviews
	Reports    Reports  // optional; evaluation endpoints answer 503 without it
	Metrics    Counters // optional
	Token      string
}

// StartSessionRequest is the body of POST /v1/sessions. A résumé may be sent
// as text or as a base64 encoded PDF or text file.
type StartSessionRequest struct {
	Role           interview.Role            `json:"role"`
	Seniority      interview.Seniority       `json:"seniority"`
	Mode           interview.InteractionMode `json:"interaction_mode"`
	Resume         string                    `json:"resume,omitempty"`
	ResumeFile     string                    `json:"resume_file,omitempty"`
	ResumeFilename string                    `json:"resume_filename,omitempty"`
}

// AnswerRequest is the body of POST /v1/sessions/{id}/answers.
type AnswerRequest struct {
	Text string `json:"text"`
}

// StatsResponse is the body of GET /v1/stats.
type StatsResponse struct {
	Runtime *metrics.Snapshot        `json:"runtime,omitempty"`
	Archive *storage.EvaluationStats `json:"archive,omitempty"`
}

// NewHandler returns the HTTP API. /health is public; everything under /v1
// requires the bearer token.
func NewHandler(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Get("/health", handleHealth)

	r.Route("/v1", func(r chi.Router) {
		r.Use(BearerAuth(deps.Token))
		r.Use(limitBody)

		r.Post("/sessions", handleStartSession(deps))
		r.Get("/sessions/{id}", handleGetSession(deps))
		r.Delete("/sessions/{id}", handleAbortSession(deps))
		r.Post("/sessions/{id}/answers", handleSubmitAnswer(deps))
		r.Post("/sessions/{id}/end", handleEndSession(deps))
		r.Post("/sessions/{id}/evaluation", handleGenerateEvaluation(deps))

		r.Get("/evaluations", handleListEvaluations(deps))
		r.Get("/evaluations/{id}", handleGetEvaluation(deps))
		r.Get("/stats", handleStats(deps))
	})
	return r
}

func limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
		}
		next.ServeHTTP(w, r)
	})
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func handleStartSession(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req StartSessionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}

		text := req.Resume
		if req.ResumeFile != "" {
			raw, err := base64.StdEncoding.DecodeString(req.ResumeFile)
			if err != nil {
				httpError(w, http.StatusBadRequest, "invalid_request_error", "resume_file is not valid base64: %v", err)
				return
			}
			if text, err = resume.Extract(req.ResumeFilename, raw); err != nil {
				httpError(w, http.StatusBadRequest, "invalid_request_error", "reading resume: %v", err)
				return
			}
		} else if text != "" {
			text = resume.Clean(text)
		}

		res, err := deps.Interviews.StartSession(r.Context(), coordinator.StartRequest{
			Role:      req.Role,
			Seniority: req.Seniority,
			Mode:      req.Mode,
			Resume:    text,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, res)
	}
}

func handleGetSession(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := deps.Interviews.Session(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, st)
	}
}

func handleAbortSession(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := deps.Interviews.AbortSession(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}

func handleSubmitAnswer(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AnswerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}

		res, err := deps.Interviews.SubmitAnswer(r.Context(), chi.URLParam(r, "id"), req.Text)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func handleEndSession(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := deps.Interviews.EndSession(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, struct {
			SessionID     string          `json:"session_id"`
			Phase         interview.Phase `json:"phase"`
			QuestionCount int             `json:"question_count"`
			EndTime       *time.Time      `json:"end_time"`
		}{st.SessionID, st.Phase, st.QuestionCount, st.EndTime})
	}
}

func handleGenerateEvaluation(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, err := deps.Interviews.GenerateEvaluation(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}

func handleListEvaluations(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.Reports == nil {
			httpError(w, http.StatusServiceUnavailable, "unavailable", "evaluation archive is disabled")
			return
		}
		limit := parseIntParam(r, "limit", 20, 100)
		list, err := deps.Reports.List(r.Context(), limit)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func handleGetEvaluation(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.Reports == nil {
			httpError(w, http.StatusServiceUnavailable, "unavailable", "evaluation archive is disabled")
			return
		}
		report, err := deps.Reports.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}

func handleStats(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var resp StatsResponse
		if deps.Metrics != nil {
			snap := deps.Metrics.Snapshot()
			resp.Runtime = &snap
		}
		if deps.Reports != nil {
			st, err := deps.Reports.Stats(r.Context())
			if err != nil {
				writeError(w, err)
				return
			}
			resp.Archive = &st
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
