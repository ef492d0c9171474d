// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pdiddy/tablerank/pkg/types"
)

// mockBackend returns canned responses and records prompts.
type mockBackend struct {
	response string
	err      error
	calls    int
	lastUser string
}

func (m *mockBackend) Complete(ctx context.Context, system, user string) (string, error) {
	m.calls++
	m.lastUser = user
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

const validResponse = `{
	"scores": {"taste": 85, "price": 60, "atmosphere": 70, "service": 45, "quantity": 55, "accessibility": 50},
	"summary": "Reviewers praise the broth and noodles. Service draws mixed comments.",
	"positiveKeywords": ["rich broth"],
	"negativeKeywords": ["slow weekend service"],
	"confidence": 72
}`

func TestAnalyzeProducesReport(t *testing.T) {
	backend := &mockBackend{response: validResponse}
	a := New(backend, types.AnalysisConfig{})

	r := types.Restaurant{ID: "r1", Name: "Ramen Ichiban"}
	report, err := a.Analyze(context.Background(), r, []string{"Rich broth, great noodles.", "Slow service on weekends."})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}

	if report.RestaurantID != "r1" {
		t.Errorf("restaurant id = %q", report.RestaurantID)
	}
	if report.TasteScore == nil || *report.TasteScore != 85 {
		t.Errorf("taste score = %v", report.TasteScore)
	}
	if report.AISummary == nil || !strings.Contains(*report.AISummary, "broth") {
		t.Errorf("summary = %v", report.AISummary)
	}
	if !strings.Contains(backend.lastUser, "Ramen Ichiban") {
		t.Error("prompt missing restaurant name")
	}
	if !strings.Contains(backend.lastUser, "1. Rich broth, great noodles.") {
		t.Errorf("prompt missing numbered review:\n%s", backend.lastUser)
	}
}

func TestAnalyzeRejectsEmptyReviews(t *testing.T) {
	backend := &mockBackend{response: validResponse}
	a := New(backend, types.AnalysisConfig{})

	if _, err := a.Analyze(context.Background(), types.Restaurant{ID: "r1"}, nil); err == nil {
		t.Fatal("expected error for empty reviews")
	}
	if backend.calls != 0 {
		t.Errorf("backend must not be called without reviews, got %d calls", backend.calls)
	}
}

func TestAnalyzeRetriesBackendFailures(t *testing.T) {
	old := backoffBase
	backoffBase = time.Millisecond
	defer func() { backoffBase = old }()

	backend := &mockBackend{err: fmt.Errorf("upstream hiccup")}
	a := New(backend, types.AnalysisConfig{AIConfig: types.AIConfig{MaxRetries: 2}})

	_, err := a.Analyze(context.Background(), types.Restaurant{ID: "r1", Name: "X"}, []string{"a review"})
	if err == nil {
		t.Fatal("expected error after retries exhausted")
	}
	if backend.calls != 3 {
		t.Errorf("expected 3 attempts, got %d", backend.calls)
	}
}

func TestAnalyzeHonorsDeadline(t *testing.T) {
	slow := backendFunc(func(ctx context.Context, system, user string) (string, error) {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(time.Second):
			return validResponse, nil
		}
	})
	a := New(slow, types.AnalysisConfig{Timeout: 20 * time.Millisecond})

	start := time.Now()
	_, err := a.Analyze(context.Background(), types.Restaurant{ID: "r1", Name: "X"}, []string{"a review"})
	if err == nil {
		t.Fatal("expected deadline error")
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("analysis overran its deadline: %v", elapsed)
	}
}

type backendFunc func(ctx context.Context, system, user string) (string, error)

func (f backendFunc) Complete(ctx context.Context, system, user string) (string, error) {
	return f(ctx, system, user)
}

func TestParseReportStripsCodeFences(t *testing.T) {
	fenced := "```json\n" + validResponse + "\n```"
	report, err := ParseReport(fenced)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if report.PriceScore == nil || *report.PriceScore != 60 {
		t.Errorf("price score = %v", report.PriceScore)
	}
}

func TestParseReportClampsScores(t *testing.T) {
	raw := `{
		"scores": {"taste": 140, "price": -10, "atmosphere": 70, "service": 45, "quantity": 55, "accessibility": 50},
		"summary": "Fine.",
		"confidence": 300
	}`
	report, err := ParseReport(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if *report.TasteScore != 100 {
		t.Errorf("taste not clamped: %v", *report.TasteScore)
	}
	if *report.PriceScore != 0 {
		t.Errorf("price not clamped: %v", *report.PriceScore)
	}
	if *report.Confidence != 100 {
		t.Errorf("confidence not clamped: %v", *report.Confidence)
	}
}

func TestParseReportRejectsPartialScores(t *testing.T) {
	raw := `{"scores": {"taste": 80}, "summary": "Short."}`
	if _, err := ParseReport(raw); err == nil {
		t.Fatal("expected error for missing score fields")
	}
}

func TestParseReportRejectsMissingSummary(t *testing.T) {
	raw := `{"scores": {"taste": 80, "price": 60, "atmosphere": 70, "service": 45, "quantity": 55, "accessibility": 50}}`
	if _, err := ParseReport(raw); err == nil {
		t.Fatal("expected error for missing summary")
	}
}

func TestParseReportToleratesAbsentKeywords(t *testing.T) {
	raw := `{
		"scores": {"taste": 80, "price": 60, "atmosphere": 70, "service": 45, "quantity": 55, "accessibility": 50},
		"summary": "Fine."
	}`
	report, err := ParseReport(raw)
	if err != nil {
		t.Fatalf("absent keyword arrays must not be an error: %v", err)
	}
	if report.PositiveKeywords != nil || report.NegativeKeywords != nil {
		t.Errorf("keywords should stay nil when absent: %+v", report)
	}
	if report.Confidence != nil {
		t.Errorf("confidence should stay nil when absent: %v", *report.Confidence)
	}
}

func TestParseReportRejectsNonJSON(t *testing.T) {
	if _, err := ParseReport("I could not analyze these reviews."); err == nil {
		t.Fatal("expected error for prose response")
	}
}

func TestOpenAIBackendComplete(t *testing.T) {
	var gotAuth string
	var gotReq chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"hello"}}]}`))
	}))
	defer server.Close()

	backend := &OpenAIBackend{APIKey: "sk-test", Model: "gpt-4o-mini", BaseURL: server.URL}
	got, err := backend.Complete(context.Background(), "sys", "user")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}

	if got != "hello" {
		t.Errorf("response = %q", got)
	}
	if gotAuth != "Bearer sk-test" {
		t.Errorf("authorization = %q", gotAuth)
	}
	if gotReq.Model != "gpt-4o-mini" || gotReq.Temperature != 0.1 {
		t.Errorf("request = %+v", gotReq)
	}
	if len(gotReq.Messages) != 2 || gotReq.Messages[0].Role != "system" || gotReq.Messages[1].Role != "user" {
		t.Errorf("messages = %+v", gotReq.Messages)
	}
}

func TestOpenAIBackendErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"bad key"}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	backend := &OpenAIBackend{APIKey: "bad", BaseURL: server.URL}
	if _, err := backend.Complete(context.Background(), "sys", "user"); err == nil {
		t.Fatal("expected error for 401 response")
	}
}
