package recognition

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"docket/internal/logging"
	"docket/internal/pipeline"
	"docket/internal/services"
	"docket/internal/services/ocr"
	"docket/internal/stage"
)

// Service is the OCR collaborator this stage consumes.
type Service interface {
	Recognize(ctx context.Context, content []byte) (*ocr.Document, error)
	HealthCheck(ctx context.Context) error
}

// Result is the payload this stage emits.
type Result struct {
	Pages []ocr.Page `json:"pages"`
	Text  string     `json:"text"`
}

// Recognizer is the OCR stage executor.
type Recognizer struct {
	service Service
	logger  *slog.Logger
}

// NewRecognizer constructs the OCR stage executor.
func NewRecognizer(service Service, logger *slog.Logger) *Recognizer {
	return &Recognizer{
		service: service,
		logger:  logging.NewComponentLogger(logger, "recognition"),
	}
}

func (r *Recognizer) Stage() pipeline.Stage {
	return pipeline.StageOCR
}

// Execute submits the raw document and returns recognized text.
func (r *Recognizer) Execute(ctx context.Context, req stage.Request) (*stage.Result, error) {
	logger := logging.WithContext(ctx, r.logger)

	doc, err := r.service.Recognize(ctx, req.Content)
	if err != nil {
		return nil, err
	}

	text := doc.Text()
	if strings.TrimSpace(text) == "" {
		return nil, services.Wrap(services.ErrValidation, "ocr", "recognize",
			"document produced no recognizable text", nil)
	}

	payload, err := json.Marshal(Result{Pages: doc.Pages, Text: text})
	if err != nil {
		return nil, fmt.Errorf("marshal recognition result: %w", err)
	}

	logger.Info("document recognized",
		logging.Int("pages", len(doc.Pages)),
		logging.Int("text_chars", len(text)))

	return &stage.Result{
		Payload: payload,
		Summary: fmt.Sprintf("%d pages, %d chars", len(doc.Pages), len(text)),
	}, nil
}

func (r *Recognizer) Retryable(err error) bool {
	return services.Retryable(err)
}

func (r *Recognizer) HealthCheck(ctx context.Context) stage.Health {
	if r.service == nil {
		return stage.Unhealthy("recognition", "ocr service not configured")
	}
	if err := r.service.HealthCheck(ctx); err != nil {
		return stage.Unhealthy("recognition", err.Error())
	}
	return stage.Healthy("recognition")
}
