package llm_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"docket/internal/services"
	"docket/internal/services/llm"
)

func completionBody(content string) string {
	payload := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]string{"content": content}, "finish_reason": "stop"},
		},
	}
	data, _ := json.Marshal(payload)
	return string(data)
}

func TestCompleteJSONSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer key" {
			t.Errorf("unexpected authorization %q", got)
		}
		var req struct {
			Model          string            `json:"model"`
			Temperature    float64           `json:"temperature"`
			ResponseFormat map[string]string `json:"response_format"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Model != "extract-1" || req.Temperature != 0 || req.ResponseFormat["type"] != "json_object" {
			t.Errorf("unexpected request: %+v", req)
		}
		w.Write([]byte(completionBody(`{"excerpts":[]}`)))
	}))
	defer server.Close()

	client := llm.NewClient(llm.Config{APIKey: "key", BaseURL: server.URL, Model: "extract-1"})
	content, err := client.CompleteJSON(t.Context(), "system", "user")
	if err != nil {
		t.Fatalf("CompleteJSON: %v", err)
	}
	if content != `{"excerpts":[]}` {
		t.Fatalf("unexpected content %q", content)
	}
}

func TestCompleteJSONValidatesInput(t *testing.T) {
	client := llm.NewClient(llm.Config{APIKey: "key", BaseURL: "http://127.0.0.1:0", Model: "m"})
	if _, err := client.CompleteJSON(t.Context(), "", "user"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for empty system prompt, got %v", err)
	}
	if _, err := client.CompleteJSON(t.Context(), "system", " "); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for empty user prompt, got %v", err)
	}

	keyless := llm.NewClient(llm.Config{BaseURL: "http://127.0.0.1:0", Model: "m"})
	if _, err := keyless.CompleteJSON(t.Context(), "system", "user"); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error without api key, got %v", err)
	}
}

func TestCompleteJSONClassifiesStatusCodes(t *testing.T) {
	cases := []struct {
		name   string
		status int
		marker error
	}{
		{"unauthorized", http.StatusUnauthorized, services.ErrAuth},
		{"rate limited", http.StatusTooManyRequests, services.ErrTransient},
		{"server error", http.StatusBadGateway, services.ErrTransient},
		{"bad request", http.StatusUnprocessableEntity, services.ErrValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "nope", tc.status)
			}))
			defer server.Close()

			client := llm.NewClient(llm.Config{APIKey: "key", BaseURL: server.URL, Model: "m"})
			_, err := client.CompleteJSON(t.Context(), "system", "user")
			if !errors.Is(err, tc.marker) {
				t.Fatalf("expected marker %v, got %v", tc.marker, err)
			}
		})
	}
}

func TestCompleteJSONRejectsEmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	client := llm.NewClient(llm.Config{APIKey: "key", BaseURL: server.URL, Model: "m"})
	if _, err := client.CompleteJSON(t.Context(), "system", "user"); !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient error for empty choices, got %v", err)
	}
}

func TestDecodeJSONToleratesCodeFences(t *testing.T) {
	var target struct {
		OK bool `json:"ok"`
	}
	for _, content := range []string{
		`{"ok":true}`,
		"```json\n{\"ok\":true}\n```",
		"```\n{\"ok\":true}\n```",
	} {
		target.OK = false
		if err := llm.DecodeJSON(content, &target); err != nil {
			t.Fatalf("DecodeJSON(%q): %v", content, err)
		}
		if !target.OK {
			t.Fatalf("DecodeJSON(%q) lost payload", content)
		}
	}
}
