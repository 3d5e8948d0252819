package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spigell/career-pilot/internal/failure"
	"github.com/spigell/career-pilot/internal/jobsalary"
	"github.com/spigell/career-pilot/internal/profile"
	"github.com/spigell/career-pilot/internal/session"

	"github.com/dustin/go-humanize"
)

type salarySearchFields struct {
	Company         string                  `json:"company" validate:"required"`
	JobRole         string                  `json:"job_role" validate:"required"`
	Location        string                  `json:"location" validate:"required"`
	ExperienceYears profile.ExperienceYears `json:"experience_years" validate:"required"`
}

var currencySymbols = map[string]string{
	"INR": "₹",
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
}

// SalarySearch reports salary figures for the candidate's role at the named company.
func (a *Assistant) SalarySearch(ctx context.Context, _ session.Context, candidate *profile.Candidate) (string, error) {
	fields := salarySearchFields{
		Company:         candidate.Company,
		JobRole:         candidate.JobRole,
		Location:        candidate.Location,
		ExperienceYears: candidate.ExperienceYears,
	}
	if err := a.require(fields); err != nil {
		return "", err
	}

	salaries, err := a.salaries.Lookup(ctx, jobsalary.Query{
		Company:           fields.Company,
		JobTitle:          fields.JobRole,
		Location:          fields.Location,
		YearsOfExperience: string(fields.ExperienceYears),
	})
	if err != nil {
		var statusErr *jobsalary.StatusError
		if errors.As(err, &statusErr) {
			return "", failure.Wrap(failure.UpstreamError, "salary provider", err)
		}
		return "", providerFailure("salary search", err)
	}

	if len(salaries) == 0 {
		return "", failure.New(failure.NoData, "no salary data found for the given criteria")
	}

	return formatSalary(salaries[0]), nil
}

func formatSalary(s jobsalary.Salary) string {
	symbol, ok := currencySymbols[strings.ToUpper(s.Currency)]
	if !ok {
		symbol = s.Currency + " "
	}
	money := func(v float64) string {
		return symbol + humanize.Commaf(v)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Location: %s\n", s.Location)
	fmt.Fprintf(&b, "Company: %s\n", s.Company)
	fmt.Fprintf(&b, "Job Title: %s\n", s.JobTitle)
	fmt.Fprintf(&b, "Currency: %s\n", s.Currency)
	b.WriteString("Salary Breakdown\n")
	fmt.Fprintf(&b, "  Median Salary: %s per year\n", money(s.MedianSalary))
	fmt.Fprintf(&b, "  Salary Range: %s - %s\n", money(s.MinSalary), money(s.MaxSalary))
	fmt.Fprintf(&b, "  Median Base Salary: %s\n", money(s.MedianBaseSalary))
	fmt.Fprintf(&b, "  Median Additional Pay: %s\n", money(s.MedianAdditionalPay))
	fmt.Fprintf(&b, "Confidence Level: %s\n", s.Confidence)
	fmt.Fprintf(&b, "Based on %d reported salaries.", s.SalaryCount)

	return b.String()
}
