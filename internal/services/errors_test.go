package services_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"docket/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrTransient, "ocr", "recognize", "request failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"ocr", "recognize", "request failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "chunk", "split", "failed", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected nil marker to default to transient, got %v", err)
	}
}

func TestRetryableClassification(t *testing.T) {
	retryable := []error{
		services.Wrap(services.ErrTransient, "llm", "complete", "http 503", nil),
		services.Wrap(services.ErrTimeout, "ocr", "recognize", "timed out", nil),
		services.Wrap(services.ErrUnavailable, "state", "update", "redis down", nil),
		context.DeadlineExceeded,
		errors.New("http 429: rate limit exceeded"),
		errors.New("connection refused"),
	}
	for _, err := range retryable {
		if !services.Retryable(err) {
			t.Fatalf("expected %v to be retryable", err)
		}
	}

	terminal := []error{
		nil,
		services.Wrap(services.ErrValidation, "chunk", "parse", "bad payload", nil),
		services.Wrap(services.ErrConfiguration, "llm", "complete", "api key required", nil),
		services.Wrap(services.ErrAuth, "ocr", "recognize", "http 401", nil),
		services.Wrap(services.ErrNotFound, "", "status", "document missing", nil),
	}
	for _, err := range terminal {
		if services.Retryable(err) {
			t.Fatalf("expected %v to be terminal", err)
		}
	}
}

func TestDetailsExtractsKind(t *testing.T) {
	err := services.Wrap(services.ErrValidation, "resolve_entities", "parse input", "payload invalid", nil)
	details := services.Details(err)
	if details.Kind != "validation_error" {
		t.Fatalf("unexpected kind %q", details.Kind)
	}
	if strings.HasPrefix(details.Message, services.ErrValidation.Error()) {
		t.Fatalf("expected marker prefix stripped from message, got %q", details.Message)
	}
	if !strings.Contains(details.Message, "resolve_entities") {
		t.Fatalf("expected stage context in message, got %q", details.Message)
	}

	plain := services.Details(errors.New("disk full"))
	if plain.Kind != "unknown" || plain.Message != "disk full" {
		t.Fatalf("unexpected details for plain error: %+v", plain)
	}
	if empty := services.Details(nil); empty.Kind != "" || empty.Message != "" {
		t.Fatalf("expected zero details for nil error, got %+v", empty)
	}
}
