package ocr_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"docket/internal/services"
	"docket/internal/services/ocr"
)

func TestRecognizeSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/recognize" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected authorization header %q", got)
		}
		if got := r.Header.Get("Content-Type"); got != "application/octet-stream" {
			t.Errorf("unexpected content type %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"pages":[{"number":1,"text":"IN THE DISTRICT COURT","confidence":0.98},{"number":2,"text":"COMES NOW the Plaintiff","confidence":0.95}]}`))
	}))
	defer server.Close()

	client := ocr.NewClient(ocr.Config{Endpoint: server.URL, APIKey: "test-key"})
	doc, err := client.Recognize(t.Context(), []byte("%PDF-1.4"))
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	if len(doc.Pages) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(doc.Pages))
	}
	if text := doc.Text(); text != "IN THE DISTRICT COURT\n\nCOMES NOW the Plaintiff" {
		t.Fatalf("unexpected joined text %q", text)
	}
}

func TestRecognizeClassifiesStatusCodes(t *testing.T) {
	cases := []struct {
		name      string
		status    int
		marker    error
		retryable bool
	}{
		{"unauthorized", http.StatusUnauthorized, services.ErrAuth, false},
		{"forbidden", http.StatusForbidden, services.ErrAuth, false},
		{"rate limited", http.StatusTooManyRequests, services.ErrTransient, true},
		{"server error", http.StatusServiceUnavailable, services.ErrTransient, true},
		{"bad request", http.StatusBadRequest, services.ErrValidation, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "nope", tc.status)
			}))
			defer server.Close()

			client := ocr.NewClient(ocr.Config{Endpoint: server.URL, APIKey: "k"})
			_, err := client.Recognize(t.Context(), []byte("doc"))
			if !errors.Is(err, tc.marker) {
				t.Fatalf("expected marker %v, got %v", tc.marker, err)
			}
			if services.Retryable(err) != tc.retryable {
				t.Fatalf("retryable mismatch for %v", err)
			}
		})
	}
}

func TestRecognizeRejectsEmptyInput(t *testing.T) {
	client := ocr.NewClient(ocr.Config{Endpoint: "http://127.0.0.1:0"})
	if _, err := client.Recognize(t.Context(), nil); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	unconfigured := ocr.NewClient(ocr.Config{})
	if _, err := unconfigured.Recognize(t.Context(), []byte("x")); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestHealthCheck(t *testing.T) {
	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/healthz" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer healthy.Close()

	client := ocr.NewClient(ocr.Config{Endpoint: healthy.URL})
	if err := client.HealthCheck(t.Context()); err != nil {
		t.Fatalf("HealthCheck: %v", err)
	}

	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer broken.Close()

	client = ocr.NewClient(ocr.Config{Endpoint: broken.URL})
	if err := client.HealthCheck(t.Context()); err == nil {
		t.Fatal("expected health check failure")
	}
}
