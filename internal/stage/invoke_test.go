package stage

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kalambet/intervue/internal/engine"
	"github.com/kalambet/intervue/internal/interview"
)

type mockChatter struct {
	response string
	err      error
	delay    time.Duration
	calls    int
	model    string
}

func (m *mockChatter) Chat(ctx context.Context, model string, _ []engine.Message, _ *engine.Schema) (string, error) {
	m.calls++
	m.model = model
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return m.response, m.err
}

type greeting struct {
	Text  string `json:"text"`
	Count int    `json:"count"`
}

func greetingSpec() Spec[greeting] {
	return Spec[greeting]{
		Name:    "greeting",
		Model:   "llama3.1",
		Timeout: time.Second,
		Schema: engine.Object(map[string]*engine.Schema{
			"text":  engine.String("greeting text"),
			"count": engine.Integer("how many", 0, 100),
		}),
		Validate: func(g *greeting) error {
			if g.Text == "" {
				return errors.New("empty text")
			}
			return nil
		},
	}
}

func fallbackGreeting() greeting { return greeting{Text: "fallback", Count: -1} }

func TestInvoke_Success(t *testing.T) {
	m := &mockChatter{response: `{"text":"hi","count":2}`}
	r := Invoke(context.Background(), m, greetingSpec(), nil, fallbackGreeting)

	if r.Fallback || r.Err != nil {
		t.Fatalf("unexpected fallback: %v", r.Err)
	}
	if r.Value != (greeting{Text: "hi", Count: 2}) {
		t.Errorf("Value = %+v", r.Value)
	}
	if m.model != "llama3.1" {
		t.Errorf("model = %q, want llama3.1", m.model)
	}
}

func TestInvoke_FallbackCases(t *testing.T) {
	tests := []struct {
		name string
		chat Chatter
	}{
		{"no backend", nil},
		{"call error", &mockChatter{err: errors.New("connection refused")}},
		{"malformed json", &mockChatter{response: "not json {{{"}},
		{"unknown field", &mockChatter{response: `{"text":"hi","count":1,"extra":true}`}},
		{"wrong type", &mockChatter{response: `{"text":"hi","count":"two"}`}},
		{"validation", &mockChatter{response: `{"text":"","count":1}`}},
		{"missing field", &mockChatter{response: `{"text":"hi"}`}},
		{"null field", &mockChatter{response: `{"text":"hi","count":null}`}},
		{"timeout", &mockChatter{response: `{"text":"late","count":1}`, delay: 5 * time.Second}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start := time.Now()
			r := Invoke(context.Background(), tt.chat, greetingSpec(), nil, fallbackGreeting)
			if !r.Fallback {
				t.Fatalf("Fallback = false, value %+v", r.Value)
			}
			if r.Value != fallbackGreeting() {
				t.Errorf("Value = %+v, want fallback", r.Value)
			}
			if !errors.Is(r.Err, interview.ErrStageCall) {
				t.Errorf("Err = %v, want ErrStageCall", r.Err)
			}
			if time.Since(start) > 3*time.Second {
				t.Error("Invoke did not respect the stage timeout")
			}
		})
	}
}

func TestInvoke_NoBackendUnwraps(t *testing.T) {
	r := Invoke(context.Background(), nil, greetingSpec(), nil, fallbackGreeting)
	if !errors.Is(r.Err, ErrNoBackend) {
		t.Errorf("Err = %v, want ErrNoBackend", r.Err)
	}
	var ce *CallError
	if !errors.As(r.Err, &ce) || ce.Stage != "greeting" {
		t.Errorf("Err = %v, want *CallError for greeting", r.Err)
	}
}

func TestInvoke_ValidateMayNormalise(t *testing.T) {
	spec := greetingSpec()
	spec.Validate = func(g *greeting) error {
		if g.Count > 10 {
			g.Count = 10
		}
		return nil
	}
	r := Invoke(context.Background(), &mockChatter{response: `{"text":"x","count":99}`}, spec, nil, fallbackGreeting)
	if r.Value.Count != 10 {
		t.Errorf("Count = %d, want 10", r.Value.Count)
	}
}

func TestInvoke_MissingFieldFallsBack(t *testing.T) {
	r := Invoke(context.Background(), &mockChatter{response: `{"text":"hi"}`}, greetingSpec(), nil, fallbackGreeting)
	if !r.Fallback {
		t.Fatalf("Fallback = false, value %+v", r.Value)
	}
	if !errors.Is(r.Err, ErrMissingField) {
		t.Errorf("Err = %v, want ErrMissingField", r.Err)
	}
	if !strings.Contains(r.Err.Error(), "count") {
		t.Errorf("Err = %v, want the missing key named", r.Err)
	}
}

type report struct {
	Title string  `json:"title"`
	Meta  meta    `json:"meta"`
	Items []entry `json:"items"`
}

type meta struct {
	Level string   `json:"level"`
	Tags  []string `json:"tags"`
}

type entry struct {
	Name string `json:"name"`
}

func reportSchema() *engine.Schema {
	return engine.Object(map[string]*engine.Schema{
		"title": engine.String("title"),
		"meta": engine.Object(map[string]*engine.Schema{
			"level": engine.String("level"),
			"tags":  engine.StringList("tags"),
		}),
		"items": {Type: "array", Items: engine.Object(map[string]*engine.Schema{
			"name": engine.String("name"),
		})},
	})
}

func TestDecode_RequiredFields(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantErr bool
		path    string
	}{
		{"complete", `{"title":"t","meta":{"level":"a","tags":[]},"items":[{"name":"x"}]}`, false, ""},
		{"empty arrays allowed", `{"title":"","meta":{"level":"","tags":[]},"items":[]}`, false, ""},
		{"empty object", `{}`, true, "items"},
		{"nested key missing", `{"title":"t","meta":{"tags":[]},"items":[]}`, true, "meta.level"},
		{"nested object null", `{"title":"t","meta":null,"items":[]}`, true, "meta"},
		{"array element missing key", `{"title":"t","meta":{"level":"a","tags":[]},"items":[{"name":"x"},{}]}`, true, "items[1].name"},
		{"list null", `{"title":"t","meta":{"level":"a","tags":null},"items":[]}`, true, "meta.tags"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var r report
			err := Decode(tt.in, reportSchema(), &r)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Decode error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr {
				return
			}
			if !errors.Is(err, ErrMissingField) {
				t.Errorf("error = %v, want ErrMissingField", err)
			}
			if !strings.HasSuffix(err.Error(), tt.path) {
				t.Errorf("error = %v, want path %q", err, tt.path)
			}
		})
	}
}

func TestDecode_NilSchemaSkipsCheck(t *testing.T) {
	var g greeting
	if err := Decode(`{"text":"hi"}`, nil, &g); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if g.Text != "hi" {
		t.Errorf("Text = %q", g.Text)
	}
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"fenced", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"fence without language", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"prose around", `Sure! Here you go: {"a":{"b":2}} Hope that helps.`, `{"a":{"b":2}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.in)
			if err != nil {
				t.Fatalf("ExtractJSON: %v", err)
			}
			if got != tt.want {
				t.Errorf("ExtractJSON() = %q, want %q", got, tt.want)
			}
		})
	}

	if _, err := ExtractJSON("no braces here"); !errors.Is(err, ErrNoJSON) {
		t.Errorf("err = %v, want ErrNoJSON", err)
	}
}
