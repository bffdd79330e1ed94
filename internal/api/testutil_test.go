package api

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kalambet/intervue/internal/analyzer"
	"github.com/kalambet/intervue/internal/coordinator"
	"github.com/kalambet/intervue/internal/decision"
	"github.com/kalambet/intervue/internal/feedback"
	"github.com/kalambet/intervue/internal/interviewer"
	"github.com/kalambet/intervue/internal/metrics"
	"github.com/kalambet/intervue/internal/reports"
	"github.com/kalambet/intervue/internal/session"
	"github.com/kalambet/intervue/internal/storage"
)

const testToken = "test-token-12345"

type testEnv struct {
	coord   *coordinator.Coordinator
	archive *reports.Archive
	metrics *metrics.Metrics
	store   *storage.Store
}

// newTestEnv wires a coordinator with no model backend, so every stage uses
// its deterministic fallback.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	sessions, err := session.NewStore(session.KindSQLite, session.WithSQLite(db))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	m := metrics.New()
	archive := reports.NewArchive(db, "")
	c, err := coordinator.New(coordinator.Deps{
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
	return &testEnv{coord: c, archive: archive, metrics: m, store: db}
}

func (e *testEnv) handler() http.Handler {
	return NewHandler(Deps{
		Interviews: e.coord,
		Reports:    e.archive,
		Metrics:    e.metrics,
		Token:      testToken,
	})
}

func (e *testEnv) mcpDeps() MCPDeps {
	return MCPDeps{Interviews: e.coord, Reports: e.archive, Metrics: e.metrics}
}

func authReq(method, url, body, token string) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, url, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}
