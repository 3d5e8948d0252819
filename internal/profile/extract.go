package profile

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	_ "embed"

	"github.com/spigell/career-pilot/internal/ai"
	"github.com/spigell/career-pilot/internal/failure"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"
)

//go:embed extract.md
var promptTemplate string

//go:embed profile.schema.json
var schemaSource string

var schema = ai.MustSchema(schemaSource)

// Gemini accepts these resume formats inline; anything else is sent as plain text.
var supportedMIMETypes = []string{"application/pdf", "text/plain", "text/html", "text/markdown"}

// Extractor turns a resume and a query into a Candidate using the generative collaborator.
type Extractor struct {
	generator ai.DocumentGenerator
	validate  *validator.Validate
	logger    *zap.Logger
}

func NewExtractor(generator ai.DocumentGenerator, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Extractor{
		generator: generator,
		validate:  NewValidator(),
		logger:    logger,
	}
}

// NewValidator returns a validator reporting fields by their json names.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Extract returns a fully validated candidate or a *failure.Error of kind
// NoFile, UpstreamError or MalformedOutput.
func (e *Extractor) Extract(ctx context.Context, resume []byte, query string) (*Candidate, error) {
	if len(resume) == 0 {
		return nil, failure.New(failure.NoFile, "please upload a resume")
	}

	mimeType := detectMIMEType(resume)
	prompt := strings.ReplaceAll(promptTemplate, "{{QUERY}}", sanitizeQuery(query))

	e.logger.Debug("extracting candidate profile",
		zap.String("mime_type", mimeType),
		zap.Int("resume_bytes", len(resume)),
	)

	raw, err := e.generator.GenerateWithDocument(ctx, prompt, resume, mimeType)
	if err != nil {
		return nil, failure.Wrap(failure.UpstreamError, "resume extraction", err)
	}

	candidate, err := e.parse(raw, query)
	if err != nil {
		return nil, failure.Wrap(failure.MalformedOutput, "resume extraction", err)
	}

	return candidate, nil
}

func (e *Extractor) parse(raw, query string) (*Candidate, error) {
	data, err := ai.DecodeStructured(raw, schema)
	if err != nil {
		return nil, err
	}

	return e.decode(data, query)
}

func (e *Extractor) decode(data map[string]any, query string) (*Candidate, error) {
	var fields struct {
		Email           string `mapstructure:"email"`
		JobRole         string `mapstructure:"job_role"`
		ExperienceLevel string `mapstructure:"experience_level"`
		Location        string `mapstructure:"location"`
		Summary         string `mapstructure:"summary"`
		Company         string `mapstructure:"company"`
		ExperienceYears string `mapstructure:"experience_years"`
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:     &fields,
		DecodeHook: trimStrings,
	})
	if err != nil {
		return nil, err
	}

	if err := decoder.Decode(data); err != nil {
		return nil, fmt.Errorf("%w: %v", ai.ErrMalformedOutput, err)
	}

	level, err := ParseExperienceLevel(clean(fields.ExperienceLevel))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ai.ErrMalformedOutput, err)
	}

	years, err := ParseExperienceYears(clean(fields.ExperienceYears))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ai.ErrMalformedOutput, err)
	}

	candidate := &Candidate{
		Email:           clean(fields.Email),
		JobRole:         clean(fields.JobRole),
		ExperienceLevel: level,
		Location:        clean(fields.Location),
		Summary:         strings.TrimSpace(fields.Summary),
		Company:         clean(fields.Company),
		ExperienceYears: years,
		RawQuery:        query,
	}

	ResolveLocation(candidate, query)

	if err := e.validate.Struct(candidate); err != nil {
		var invalid validator.ValidationErrors
		if errors.As(err, &invalid) {
			return nil, fmt.Errorf("%w: %s", ai.ErrMalformedOutput, describe(invalid))
		}
		return nil, err
	}

	return candidate, nil
}

// ResolveLocation applies the query-first policy to a candidate's location.
// The collaborator already prefers the query; this covers a silent collaborator.
func ResolveLocation(candidate *Candidate, query string) {
	if candidate.Location != "" {
		return
	}
	if loc := LocationFromQuery(query); loc != "" {
		candidate.Location = loc
		return
	}
	candidate.Location = DefaultLocation
}

func describe(errs validator.ValidationErrors) string {
	problems := make([]string, 0, len(errs))
	for _, fe := range errs {
		problems = append(problems, fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag()))
	}
	return strings.Join(problems, ", ")
}

func trimStrings(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if s, ok := data.(string); ok && to.Kind() == reflect.String {
		return strings.TrimSpace(s), nil
	}
	return data, nil
}

func detectMIMEType(resume []byte) string {
	mtype := mimetype.Detect(resume)
	for _, supported := range supportedMIMETypes {
		if mtype.Is(supported) {
			return supported
		}
	}
	return "text/plain"
}

// sanitizeQuery keeps the query on one line and stops it from closing the quoted prompt field.
func sanitizeQuery(query string) string {
	query = strings.Join(strings.Fields(query), " ")
	return strings.ReplaceAll(query, `"`, "'")
}
