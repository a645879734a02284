package recognition_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"docket/internal/logging"
	"docket/internal/pipeline"
	"docket/internal/recognition"
	"docket/internal/services"
	"docket/internal/services/ocr"
	"docket/internal/stage"
)

type fakeOCR struct {
	doc       *ocr.Document
	err       error
	healthErr error
}

func (f *fakeOCR) Recognize(context.Context, []byte) (*ocr.Document, error) {
	return f.doc, f.err
}

func (f *fakeOCR) HealthCheck(context.Context) error {
	return f.healthErr
}

func TestExecuteEmitsRecognizedText(t *testing.T) {
	service := &fakeOCR{doc: &ocr.Document{Pages: []ocr.Page{
		{Number: 1, Text: "Page one.", Confidence: 0.97},
		{Number: 2, Text: "Page two.", Confidence: 0.92},
	}}}
	recognizer := recognition.NewRecognizer(service, logging.NewNop())

	result, err := recognizer.Execute(t.Context(), stage.Request{
		DocumentID: "doc-1",
		Stage:      pipeline.StageOCR,
		Content:    []byte("%PDF-1.4"),
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	var recognized recognition.Result
	if err := json.Unmarshal(result.Payload, &recognized); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if recognized.Text != "Page one.\n\nPage two." {
		t.Fatalf("unexpected text %q", recognized.Text)
	}
	if len(recognized.Pages) != 2 {
		t.Fatalf("expected pages preserved, got %d", len(recognized.Pages))
	}
}

func TestExecuteRejectsTextlessDocuments(t *testing.T) {
	service := &fakeOCR{doc: &ocr.Document{Pages: []ocr.Page{{Number: 1, Text: "   "}}}}
	recognizer := recognition.NewRecognizer(service, logging.NewNop())

	_, err := recognizer.Execute(t.Context(), stage.Request{Content: []byte("doc")})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for textless document, got %v", err)
	}
	if recognizer.Retryable(err) {
		t.Fatal("textless documents must not retry")
	}
}

func TestExecutePropagatesServiceErrors(t *testing.T) {
	boom := services.Wrap(services.ErrTransient, "ocr", "recognize", "http 503", nil)
	recognizer := recognition.NewRecognizer(&fakeOCR{err: boom}, logging.NewNop())

	_, err := recognizer.Execute(t.Context(), stage.Request{Content: []byte("doc")})
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected service error surfaced, got %v", err)
	}
	if !recognizer.Retryable(err) {
		t.Fatal("transient service errors should retry")
	}
}

func TestHealthCheck(t *testing.T) {
	healthy := recognition.NewRecognizer(&fakeOCR{}, logging.NewNop())
	if health := healthy.HealthCheck(t.Context()); !health.Ready {
		t.Fatalf("expected ready, got %+v", health)
	}

	broken := recognition.NewRecognizer(&fakeOCR{healthErr: errors.New("down")}, logging.NewNop())
	if health := broken.HealthCheck(t.Context()); health.Ready {
		t.Fatal("expected not ready when service is down")
	}
}
