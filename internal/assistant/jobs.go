package assistant

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/spigell/career-pilot/internal/failure"
	"github.com/spigell/career-pilot/internal/profile"
	"github.com/spigell/career-pilot/internal/secrets"
	"github.com/spigell/career-pilot/internal/serpapi"
	"github.com/spigell/career-pilot/internal/session"
	"github.com/spigell/career-pilot/internal/utils"

	"github.com/go-playground/validator/v10"
)

const (
	maxJobs         = 10
	defaultCountry  = "India"
	notAvailable    = "N/A"
	searchURLPrefix = "https://www.google.com/search?q="
)

var entryRule = strings.Repeat("-", 60)

type jobSearchFields struct {
	JobRole         string                  `json:"job_role" validate:"required"`
	ExperienceLevel profile.ExperienceLevel `json:"experience_level" validate:"required"`
}

// JobSearch lists up to ten openings matching the candidate's level, role and location.
func (a *Assistant) JobSearch(ctx context.Context, _ session.Context, candidate *profile.Candidate) (string, error) {
	if err := a.require(jobSearchFields{JobRole: candidate.JobRole, ExperienceLevel: candidate.ExperienceLevel}); err != nil {
		return "", err
	}

	q := serpapi.Query{
		Keywords: fmt.Sprintf("%s %s", candidate.ExperienceLevel, candidate.JobRole),
		Location: utils.FirstNonEmpty(candidate.Location, defaultCountry),
	}

	jobs, err := a.jobs.Search(ctx, q)
	if err != nil {
		return "", providerFailure("job search", err)
	}

	if len(jobs) == 0 {
		return fmt.Sprintf("No job results found for '%s' in %s.", q.Keywords, q.Location), nil
	}

	return formatJobs(q, jobs), nil
}

func formatJobs(q serpapi.Query, jobs []serpapi.Job) string {
	if len(jobs) > maxJobs {
		jobs = jobs[:maxJobs]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Top %d jobs for: '%s' in %s\n\n", len(jobs), q.Keywords, q.Location)

	for i, job := range jobs {
		title := utils.FirstNonEmpty(job.Title, "No title")
		company := utils.FirstNonEmpty(job.CompanyName, "No company")
		location := utils.FirstNonEmpty(job.Location, "No location")

		fmt.Fprintf(&b, "%d. %s at %s\n", i+1, title, company)
		fmt.Fprintf(&b, "   Location: %s\n", location)
		fmt.Fprintf(&b, "   Posted: %s\n", utils.FirstNonEmpty(job.DetectedExtensions.PostedAt, notAvailable))

		for _, section := range job.Highlights {
			if len(section.Items) == 0 {
				continue
			}
			fmt.Fprintf(&b, "   %s:\n", section.Title)
			for _, item := range section.Items {
				fmt.Fprintf(&b, "      - %s\n", item)
			}
		}

		fmt.Fprintf(&b, "   Search Link: %s\n", SearchLink(title, company, location))
		b.WriteString(entryRule + "\n")
	}

	return b.String()
}

// SearchLink builds a web search URL for "{title} at {company} {location}".
func SearchLink(title, company, location string) string {
	phrase := fmt.Sprintf("%s at %s %s", title, company, location)
	return searchURLPrefix + strings.ReplaceAll(url.QueryEscape(phrase), "+", "%20")
}

// require validates fields a handler needs and reports the missing ones as InvalidProfile.
func (a *Assistant) require(fields any) error {
	err := a.validate.Struct(fields)
	if err == nil {
		return nil
	}

	var invalid validator.ValidationErrors
	if !errors.As(err, &invalid) {
		return failure.Wrap(failure.InvalidProfile, "", err)
	}

	missing := make([]string, 0, len(invalid))
	for _, fe := range invalid {
		missing = append(missing, fe.Field())
	}
	return failure.Newf(failure.InvalidProfile, "missing %s", strings.Join(missing, ", "))
}

// providerFailure maps a data provider error onto the failure taxonomy.
func providerFailure(what string, err error) error {
	if errors.Is(err, secrets.ErrNotConfigured) {
		return failure.Wrap(failure.ConfigurationError, "", err)
	}
	return failure.Wrap(failure.UpstreamError, what, err)
}
