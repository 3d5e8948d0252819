package intent

import (
	"context"
	"strings"

	_ "embed"

	"github.com/spigell/career-pilot/internal/ai"
	"github.com/spigell/career-pilot/internal/logger"

	"go.uber.org/zap"
)

// Intent is the classified purpose of a user query.
type Intent int

const (
	JobSearch Intent = iota
	SalarySearch
	CareerAdvice
)

var labels = map[Intent]string{
	JobSearch:    "job_search",
	SalarySearch: "salary_search",
	CareerAdvice: "career_advice",
}

func (i Intent) String() string {
	if label, ok := labels[i]; ok {
		return label
	}
	return labels[JobSearch]
}

// Parse matches a label case-insensitively against the closed label set.
// Anything else, including near misses like "salary search", does not match.
func Parse(label string) (Intent, bool) {
	label = strings.ToLower(strings.TrimSpace(label))

	for intent, l := range labels {
		if l == label {
			return intent, true
		}
	}
	return JobSearch, false
}

// Classification is the outcome of a classification. Fallback marks a default
// that was not produced by the collaborator.
type Classification struct {
	Intent   Intent
	Fallback bool
	Reason   string
	Raw      string
}

//go:embed classify.md
var promptTemplate string

// Classifier maps query text to an Intent. It never fails: unrecognized output
// and upstream errors resolve to JobSearch with Fallback set.
type Classifier struct {
	generator ai.Generator
	logger    *zap.Logger
}

func NewClassifier(generator ai.Generator, log *zap.Logger) *Classifier {
	return &Classifier{
		generator: generator,
		logger:    logger.WithFields(log),
	}
}

func (c *Classifier) Classify(ctx context.Context, query string) Classification {
	prompt := strings.ReplaceAll(promptTemplate, "{{QUERY}}", strings.ReplaceAll(strings.TrimSpace(query), `"`, "'"))

	raw, err := c.generator.GenerateContent(ctx, prompt)
	if err != nil {
		return c.fallback(Classification{Intent: JobSearch, Fallback: true, Reason: err.Error()})
	}

	intent, ok := Parse(ai.Unfence(raw))
	if !ok {
		return c.fallback(Classification{Intent: JobSearch, Fallback: true, Reason: "unrecognized label", Raw: raw})
	}

	c.logger.Debug("query classified", zap.String(logger.FieldIntent, intent.String()))

	return Classification{Intent: intent, Raw: raw}
}

func (c *Classifier) fallback(result Classification) Classification {
	c.logger.Warn("query classification fell back to default intent",
		zap.String(logger.FieldIntent, result.Intent.String()),
		zap.String("fallback_reason", result.Reason),
		zap.String("raw_label", result.Raw),
	)
	return result
}
