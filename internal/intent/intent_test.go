package intent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type stubGenerator struct {
	response   string
	err        error
	lastPrompt string
}

func (s *stubGenerator) GenerateContent(_ context.Context, prompt string) (string, error) {
	s.lastPrompt = prompt
	return s.response, s.err
}

func TestClassifyRecognizedLabels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		response string
		expect   Intent
	}{
		{response: "job_search", expect: JobSearch},
		{response: "SALARY_SEARCH", expect: SalarySearch},
		{response: "  career_advice\n", expect: CareerAdvice},
		{response: "```\ncareer_advice\n```", expect: CareerAdvice},
	}

	for _, tt := range tests {
		t.Run(tt.response, func(t *testing.T) {
			t.Parallel()
			stub := &stubGenerator{response: tt.response}
			got := NewClassifier(stub, zap.NewNop()).Classify(context.Background(), "query")
			if got.Intent != tt.expect {
				t.Fatalf("expected %s, got %s", tt.expect, got.Intent)
			}
			if got.Fallback {
				t.Fatalf("did not expect fallback for %q", tt.response)
			}
		})
	}
}

func TestClassifyFallsBackToJobSearch(t *testing.T) {
	tests := []struct {
		name string
		stub *stubGenerator
	}{
		{name: "unknown label", stub: &stubGenerator{response: "networking"}},
		{name: "sentence", stub: &stubGenerator{response: "This looks like a job search to me"}},
		{name: "empty", stub: &stubGenerator{response: ""}},
		{name: "spaced label", stub: &stubGenerator{response: "salary search"}},
		{name: "hyphenated label", stub: &stubGenerator{response: "Salary-Search"}},
		{name: "punctuated label", stub: &stubGenerator{response: "Salary Search."}},
		{name: "bold label", stub: &stubGenerator{response: "**career advice**"}},
		{name: "inline code label", stub: &stubGenerator{response: "`career_advice`"}},
		{name: "fenced hyphenated label", stub: &stubGenerator{response: "```\ncareer-advice\n```"}},
		{name: "upstream failure", stub: &stubGenerator{err: errors.New("deadline exceeded")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, observed := observer.New(zapcore.WarnLevel)

			got := NewClassifier(tt.stub, zap.New(core)).Classify(context.Background(), "anything")

			if got.Intent != JobSearch {
				t.Fatalf("expected job search fallback, got %s", got.Intent)
			}
			if !got.Fallback {
				t.Fatalf("expected fallback to be signalled")
			}
			if got.Reason == "" {
				t.Fatalf("expected fallback reason")
			}

			entries := observed.All()
			if len(entries) != 1 {
				t.Fatalf("expected one warning, got %d", len(entries))
			}
			if entries[0].ContextMap()["fallback_reason"] == "" {
				t.Fatalf("expected fallback_reason field")
			}
		})
	}
}

func TestClassifyPromptCarriesQuery(t *testing.T) {
	stub := &stubGenerator{response: "job_search"}
	NewClassifier(stub, nil).Classify(context.Background(), `Software "Developer" jobs in Kochi`)

	if !strings.Contains(stub.lastPrompt, `Query: "Software 'Developer' jobs in Kochi"`) {
		t.Fatalf("query not embedded in prompt: %s", stub.lastPrompt)
	}
}

func TestIntentString(t *testing.T) {
	if SalarySearch.String() != "salary_search" {
		t.Fatalf("unexpected label: %s", SalarySearch)
	}
	if Intent(42).String() != "job_search" {
		t.Fatalf("unknown intent should render as job_search")
	}
}
