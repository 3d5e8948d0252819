package assistant

import (
	"context"
	"strings"

	"github.com/spigell/career-pilot/internal/ai"
	"github.com/spigell/career-pilot/internal/document"
	"github.com/spigell/career-pilot/internal/failure"
	"github.com/spigell/career-pilot/internal/intent"
	"github.com/spigell/career-pilot/internal/jobsalary"
	"github.com/spigell/career-pilot/internal/logger"
	"github.com/spigell/career-pilot/internal/profile"
	"github.com/spigell/career-pilot/internal/serpapi"
	"github.com/spigell/career-pilot/internal/session"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Extractor produces a validated candidate from a resume and a query.
type Extractor interface {
	Extract(ctx context.Context, resume []byte, query string) (*profile.Candidate, error)
}

// Classifier resolves a query to an intent. It never fails.
type Classifier interface {
	Classify(ctx context.Context, query string) intent.Classification
}

// JobSearcher returns job listings in provider order.
type JobSearcher interface {
	Search(ctx context.Context, q serpapi.Query) ([]serpapi.Job, error)
}

// SalaryLookup returns salary entries for a company, title and location.
type SalaryLookup interface {
	Lookup(ctx context.Context, q jobsalary.Query) ([]jobsalary.Salary, error)
}

// Deps are the collaborators of an Assistant.
type Deps struct {
	Extractor  Extractor
	Classifier Classifier
	Jobs       JobSearcher
	Salaries   SalaryLookup
	Advisor    ai.Generator
	Renderer   document.Renderer
	ExportDir  string
}

// Assistant runs the query pipeline against a session context.
type Assistant struct {
	extractor  Extractor
	classifier Classifier
	jobs       JobSearcher
	salaries   SalaryLookup
	advisor    ai.Generator
	renderer   document.Renderer
	exportDir  string
	validate   *validator.Validate
	logger     *zap.Logger
}

func New(deps Deps, log *zap.Logger) *Assistant {
	renderer := deps.Renderer
	if renderer == nil {
		renderer = document.NewPDFRenderer()
	}

	return &Assistant{
		extractor:  deps.Extractor,
		classifier: deps.Classifier,
		jobs:       deps.Jobs,
		salaries:   deps.Salaries,
		advisor:    deps.Advisor,
		renderer:   renderer,
		exportDir:  deps.ExportDir,
		validate:   profile.NewValidator(),
		logger:     logger.WithFields(log),
	}
}

// Result is the outcome of a dispatch. Profile is nil when extraction did not succeed.
type Result struct {
	Text           string
	Classification intent.Classification
	Profile        *profile.Candidate
}

// Handler produces the primary result for one intent. Handlers read the session
// context but never write it; the dispatcher records their output.
type Handler func(ctx context.Context, sc session.Context, candidate *profile.Candidate) (string, error)

// Dispatch runs extraction, classification and exactly one handler, in that order.
// Errors are *failure.Error values meant to be shown to the user. The resume
// summary is recorded as soon as extraction succeeds; the primary result only
// when the handler succeeds.
func (a *Assistant) Dispatch(ctx context.Context, sc *session.Context, resume []byte, query string) (Result, error) {
	if strings.TrimSpace(query) == "" {
		return Result{}, failure.New(failure.MissingQuery, "please enter a job query")
	}

	candidate, err := a.extractor.Extract(ctx, resume, query)
	if err != nil {
		a.logger.Info("extraction failed", zap.String("kind", string(failure.KindOf(err))), zap.Error(err))
		return Result{}, err
	}
	sc.SetResumeSummary(candidate.Summary)

	classification := a.classifier.Classify(ctx, query)
	result := Result{Classification: classification, Profile: candidate}

	log := a.logger.With(
		zap.String(logger.FieldIntent, classification.Intent.String()),
		zap.Bool("fallback", classification.Fallback),
	)

	text, err := a.HandlerFor(classification.Intent)(ctx, *sc, candidate)
	if err != nil {
		log.Info("handler failed", zap.String("kind", string(failure.KindOf(err))), zap.Error(err))
		return result, err
	}

	sc.SetPrimaryResult(text)
	result.Text = text

	log.Debug("query dispatched", zap.Int("result_length", len(text)))

	return result, nil
}

// HandlerFor selects the handler of an intent.
func (a *Assistant) HandlerFor(i intent.Intent) Handler {
	switch i {
	case intent.SalarySearch:
		return a.SalarySearch
	case intent.CareerAdvice:
		return a.CareerAdvice
	case intent.JobSearch:
		return a.JobSearch
	default:
		return a.JobSearch
	}
}
