package engine

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOllamaEngine_ChatForwardsSchema(t *testing.T) {
	var body map[string]json.RawMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			http.NotFound(w, r)
			return
		}
		json.NewDecoder(r.Body).Decode(&body)
		json.NewEncoder(w).Encode(map[string]any{
			"message": map[string]string{"role": "assistant", "content": "hello from ollama"},
		})
	}))
	defer srv.Close()

	e := NewOllamaEngine(srv.URL)
	schema := Object(map[string]*Schema{"message": String("text")})
	got, err := e.Chat(context.Background(), "llama3.1", []Message{{Role: "user", Content: "hi"}}, schema)
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if got != "hello from ollama" {
		t.Errorf("got %q, want %q", got, "hello from ollama")
	}

	var format Schema
	if err := json.Unmarshal(body["format"], &format); err != nil {
		t.Fatalf("format not a schema: %v (%s)", err, body["format"])
	}
	if format.Type != "object" || len(format.Required) != 1 || format.Required[0] != "message" {
		t.Errorf("format = %+v", format)
	}
}

func TestOllamaEngine_ChatWithoutSchemaOmitsFormat(t *testing.T) {
	var body map[string]json.RawMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&body)
		json.NewEncoder(w).Encode(map[string]any{"message": map[string]string{"content": "ok"}})
	}))
	defer srv.Close()

	if _, err := NewOllamaEngine(srv.URL).Chat(context.Background(), "m", nil, nil); err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if _, ok := body["format"]; ok {
		t.Errorf("format sent for unstructured call: %s", body["format"])
	}
}

func TestOpenRouterEngine_ChatRequestsJSONSchema(t *testing.T) {
	var body struct {
		ResponseFormat struct {
			Type       string `json:"type"`
			JSONSchema struct {
				Name   string          `json:"name"`
				Schema json.RawMessage `json:"schema"`
			} `json:"json_schema"`
		} `json:"response_format"`
		Temperature *float64 `json:"temperature"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&body)
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]string{"role": "assistant", "content": "{}"}}},
		})
	}))
	defer srv.Close()

	e := NewOpenRouterEngine("k", srv.URL)
	out, err := e.Chat(context.Background(), "openai/gpt-4o-mini", []Message{{Role: "user", Content: "hi"}}, Object(map[string]*Schema{"a": Bool("")}))
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if out != "{}" {
		t.Errorf("Chat() = %q, want {}", out)
	}
	if body.ResponseFormat.Type != "json_schema" || len(body.ResponseFormat.JSONSchema.Schema) == 0 {
		t.Errorf("response_format = %+v", body.ResponseFormat)
	}
	if body.Temperature == nil || *body.Temperature != 0 {
		t.Errorf("temperature = %v, want 0", body.Temperature)
	}
}
