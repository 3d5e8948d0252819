package assistant

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	_ "embed"

	"github.com/spigell/career-pilot/internal/ai"
	"github.com/spigell/career-pilot/internal/document"
	"github.com/spigell/career-pilot/internal/failure"
	"github.com/spigell/career-pilot/internal/profile"
	"github.com/spigell/career-pilot/internal/session"

	"go.uber.org/zap"
)

var (
	//go:embed advice.md
	advicePrompt string
	//go:embed followup.md
	followupPrompt string
	//go:embed export.md
	exportPrompt string
)

// ExportPattern names the files written by ExportFile.
const ExportPattern = "career-pilot-*.pdf"

// CareerAdvice answers the raw query in the light of the resume summary.
func (a *Assistant) CareerAdvice(ctx context.Context, sc session.Context, candidate *profile.Candidate) (string, error) {
	query := strings.TrimSpace(candidate.RawQuery)
	if query == "" {
		return "", failure.New(failure.MissingQuery, "no query provided for career advice")
	}
	if strings.TrimSpace(sc.ResumeSummary) == "" {
		return "", failure.New(failure.MissingSummary, "")
	}

	prompt := strings.NewReplacer(
		"{{SUMMARY}}", sc.ResumeSummary,
		"{{QUERY}}", quote(query),
	).Replace(advicePrompt)

	return a.ask(ctx, "career advice", prompt)
}

// FollowUp answers a new query using all three layers of the session context and
// records the answer as the follow-up layer. Empty layers are allowed.
func (a *Assistant) FollowUp(ctx context.Context, sc *session.Context, query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", failure.New(failure.MissingQuery, "please enter a question")
	}

	prompt := strings.NewReplacer(
		"{{SUMMARY}}", sc.ResumeSummary,
		"{{PRIMARY}}", sc.PrimaryResult,
		"{{FOLLOWUP}}", sc.FollowupResult,
		"{{QUERY}}", quote(query),
	).Replace(followupPrompt)

	answer, err := a.ask(ctx, "follow-up", prompt)
	if err != nil {
		return "", err
	}

	sc.SetFollowupResult(answer)
	return answer, nil
}

// ExportDocument renders the primary and follow-up layers into a PDF. The
// resume summary is not part of the document.
func (a *Assistant) ExportDocument(ctx context.Context, sc session.Context) ([]byte, error) {
	if strings.TrimSpace(sc.PrimaryResult) == "" && strings.TrimSpace(sc.FollowupResult) == "" {
		return nil, failure.New(failure.NoData, "nothing to export yet, submit a query first")
	}

	prompt := strings.NewReplacer(
		"{{PRIMARY}}", sc.PrimaryResult,
		"{{FOLLOWUP}}", sc.FollowupResult,
	).Replace(exportPrompt)

	content, err := a.ask(ctx, "document content", prompt)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := a.renderer.Render(&buf, document.ASCII(content)); err != nil {
		return nil, failure.Wrap(failure.RenderError, "", err)
	}

	return buf.Bytes(), nil
}

// ExportFile writes the exported document to a new file in the export directory
// and returns its path.
func (a *Assistant) ExportFile(ctx context.Context, sc session.Context) (string, error) {
	data, err := a.ExportDocument(ctx, sc)
	if err != nil {
		return "", err
	}

	f, err := os.CreateTemp(a.exportDir, ExportPattern)
	if err != nil {
		return "", failure.Wrap(failure.RenderError, "create document file", err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", failure.Wrap(failure.RenderError, "write document file", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", failure.Wrap(failure.RenderError, "write document file", err)
	}

	a.logger.Info("document exported", zap.String("path", f.Name()), zap.Int("bytes", len(data)))

	return f.Name(), nil
}

// ask sends a free-text prompt to the advisor and returns the unfenced answer.
func (a *Assistant) ask(ctx context.Context, what, prompt string) (string, error) {
	raw, err := a.advisor.GenerateContent(ctx, prompt)
	if err != nil {
		return "", failure.Wrap(failure.UpstreamError, what, err)
	}

	answer := ai.Unfence(raw)
	if answer == "" {
		return "", failure.New(failure.UpstreamError, fmt.Sprintf("%s: empty response", what))
	}
	return answer, nil
}

func quote(s string) string {
	return strings.ReplaceAll(s, `"`, "'")
}
