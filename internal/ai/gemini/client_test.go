package gemini

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

type callRecord struct {
	model    string
	contents []*genai.Content
	deadline time.Time
}

type fakeModels struct {
	mu    sync.Mutex
	calls []callRecord
	resp  *genai.GenerateContentResponse
	err   error
}

func (f *fakeModels) GenerateContent(ctx context.Context, model string, contents []*genai.Content, _ *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	deadline, _ := ctx.Deadline()
	f.calls = append(f.calls, callRecord{model: model, contents: contents, deadline: deadline})
	return f.resp, f.err
}

func textResponse(texts ...string) *genai.GenerateContentResponse {
	parts := make([]*genai.Part, 0, len(texts))
	for _, text := range texts {
		parts = append(parts, &genai.Part{Text: text})
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: parts}}},
	}
}

func TestGeneratorGenerateContent(t *testing.T) {
	models := &fakeModels{resp: textResponse("  first ", "", "second")}
	g := newGenerator(models, Config{Model: "gemini-pro", Timeout: time.Minute}, zap.NewNop())

	output, err := g.GenerateContent(context.Background(), "  classify this  ")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if output != "first\nsecond" {
		t.Fatalf("unexpected output: %q", output)
	}

	if len(models.calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(models.calls))
	}

	call := models.calls[0]
	if call.model != "gemini-pro" {
		t.Fatalf("unexpected model: %s", call.model)
	}
	if call.deadline.IsZero() {
		t.Fatalf("expected request deadline to be set")
	}
	if len(call.contents) != 1 || len(call.contents[0].Parts) != 1 {
		t.Fatalf("unexpected contents: %+v", call.contents)
	}
	if got := call.contents[0].Parts[0].Text; got != "classify this" {
		t.Fatalf("unexpected prompt: %q", got)
	}
}

func TestGeneratorGenerateWithDocument(t *testing.T) {
	models := &fakeModels{resp: textResponse(`{"summary": "ok"}`)}
	g := newGenerator(models, Config{}, zap.NewNop())

	if g.Model() != defaultModel {
		t.Fatalf("expected default model, got %s", g.Model())
	}

	_, err := g.GenerateWithDocument(context.Background(), "extract", []byte("%PDF-1.4"), "application/pdf")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	parts := models.calls[0].contents[0].Parts
	if len(parts) != 2 {
		t.Fatalf("expected document and prompt parts, got %d", len(parts))
	}
	if parts[0].InlineData == nil || parts[0].InlineData.MIMEType != "application/pdf" {
		t.Fatalf("expected inline pdf document first, got %+v", parts[0])
	}
	if parts[1].Text != "extract" {
		t.Fatalf("unexpected prompt part: %q", parts[1].Text)
	}
}

func TestGeneratorErrors(t *testing.T) {
	apiErr := genai.APIError{Code: http.StatusInternalServerError, Status: "INTERNAL"}

	cases := []struct {
		name string
		run  func(g *Generator) error
		fake *fakeModels
	}{
		{
			name: "empty prompt",
			fake: &fakeModels{resp: textResponse("x")},
			run: func(g *Generator) error {
				_, err := g.GenerateContent(context.Background(), "   ")
				return err
			},
		},
		{
			name: "api error",
			fake: &fakeModels{err: apiErr},
			run: func(g *Generator) error {
				_, err := g.GenerateContent(context.Background(), "prompt")
				return err
			},
		},
		{
			name: "empty response",
			fake: &fakeModels{resp: &genai.GenerateContentResponse{}},
			run: func(g *Generator) error {
				_, err := g.GenerateContent(context.Background(), "prompt")
				return err
			},
		},
		{
			name: "empty document",
			fake: &fakeModels{resp: textResponse("x")},
			run: func(g *Generator) error {
				_, err := g.GenerateWithDocument(context.Background(), "prompt", nil, "application/pdf")
				return err
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g := newGenerator(tc.fake, Config{}, zap.NewNop())
			if err := tc.run(g); err == nil {
				t.Fatal("expected error")
			}
		})
	}

	g := newGenerator(&fakeModels{err: apiErr}, Config{}, zap.NewNop())
	_, err := g.GenerateContent(context.Background(), "prompt")
	var target genai.APIError
	if !errors.As(err, &target) {
		t.Fatalf("expected api error to be wrapped, got %v", err)
	}
}
