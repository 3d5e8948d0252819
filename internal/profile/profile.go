package profile

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// DefaultLocation is used when neither the query nor the resume names a location.
const DefaultLocation = "anywhere in India"

// ExperienceLevel is the seniority of the candidate.
type ExperienceLevel string

const (
	Fresher      ExperienceLevel = "fresher"
	Intermediate ExperienceLevel = "intermediate"
	Senior       ExperienceLevel = "senior"
)

// ParseExperienceLevel matches s case-insensitively. Blank input yields the zero value.
func ParseExperienceLevel(s string) (ExperienceLevel, error) {
	switch level := ExperienceLevel(strings.ToLower(strings.TrimSpace(s))); level {
	case "", Fresher, Intermediate, Senior:
		return level, nil
	default:
		return "", fmt.Errorf("unknown experience level %q", s)
	}
}

// ExperienceYears is a years-of-experience bucket as understood by the salary provider.
type ExperienceYears string

const (
	YearsLessThanOne   ExperienceYears = "LESS_THAN_ONE"
	YearsOneToThree    ExperienceYears = "ONE_TO_THREE"
	YearsFourToSix     ExperienceYears = "FOUR_TO_SIX"
	YearsSevenToNine   ExperienceYears = "SEVEN_TO_NINE"
	YearsTenToFourteen ExperienceYears = "TEN_TO_FOURTEEN"
	YearsAboveFifteen  ExperienceYears = "ABOVE_FIFTEEN"
)

var yearBuckets = []struct {
	value ExperienceYears
	label string
}{
	{YearsLessThanOne, "<1"},
	{YearsOneToThree, "1-3"},
	{YearsFourToSix, "4-6"},
	{YearsSevenToNine, "7-9"},
	{YearsTenToFourteen, "10-14"},
	{YearsAboveFifteen, "15+"},
}

// Label returns the human readable bucket, e.g. "4-6".
func (y ExperienceYears) Label() string {
	for _, b := range yearBuckets {
		if b.value == y {
			return b.label
		}
	}
	return string(y)
}

// ParseExperienceYears accepts either the provider value or the label of a bucket.
// Blank input yields the zero value.
func ParseExperienceYears(s string) (ExperienceYears, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}

	normalized := strings.ToUpper(strings.ReplaceAll(s, " ", "_"))
	for _, b := range yearBuckets {
		if string(b.value) == normalized || b.label == s {
			return b.value, nil
		}
	}

	return "", fmt.Errorf("unknown experience years bucket %q", s)
}

// Candidate is the structured set of facts extracted from a resume and the active query.
type Candidate struct {
	Email           string          `json:"email,omitempty" mapstructure:"email"`
	JobRole         string          `json:"job_role" mapstructure:"job_role"`
	ExperienceLevel ExperienceLevel `json:"experience_level" mapstructure:"experience_level" validate:"omitempty,oneof=fresher intermediate senior"`
	Location        string          `json:"location" mapstructure:"location" validate:"required"`
	Summary         string          `json:"summary" mapstructure:"summary" validate:"required"`
	Company         string          `json:"company,omitempty" mapstructure:"company"`
	ExperienceYears ExperienceYears `json:"experience_years,omitempty" mapstructure:"experience_years" validate:"omitempty,oneof=LESS_THAN_ONE ONE_TO_THREE FOUR_TO_SIX SEVEN_TO_NINE TEN_TO_FOURTEEN ABOVE_FIFTEEN"`
	RawQuery        string          `json:"query" mapstructure:"-"`
}

// knownPlaces are the locations a query may name directly. Free text after "in"
// is only taken as a location when it is one of these, so phrases like
// "grow in marketing" leave the decision to the collaborator.
var knownPlaces = []string{
	"India", "Remote",
	"Ahmedabad", "Bangalore", "Bengaluru", "Bhopal", "Bhubaneswar", "Chandigarh",
	"Chennai", "Cochin", "Coimbatore", "Delhi", "New Delhi", "Gurgaon", "Gurugram",
	"Guwahati", "Hyderabad", "Indore", "Jaipur", "Kochi", "Kolkata", "Lucknow",
	"Madurai", "Mangalore", "Mumbai", "Mysore", "Nagpur", "Noida", "Pune",
	"Thiruvananthapuram", "Trivandrum", "Vadodara", "Visakhapatnam",
	"Goa", "Gujarat", "Karnataka", "Kerala", "Maharashtra", "Tamil Nadu", "Telangana",
	"Amsterdam", "Berlin", "Dubai", "London", "New York", "San Francisco", "Singapore",
	"Sydney", "Toronto",
}

var queryLocation = compilePlaces(knownPlaces)

func compilePlaces(places []string) *regexp.Regexp {
	sorted := append([]string(nil), places...)
	// Longest first so "New Delhi" wins over "Delhi".
	sort.Slice(sorted, func(i, j int) bool { return len(sorted[i]) > len(sorted[j]) })

	quoted := make([]string, len(sorted))
	for i, place := range sorted {
		quoted[i] = regexp.QuoteMeta(place)
	}
	return regexp.MustCompile(`(?i)\bin\s+(` + strings.Join(quoted, "|") + `)\b`)
}

// LocationFromQuery returns the known place named by an "in <Place>" phrase of the query,
// spelled the canonical way.
func LocationFromQuery(query string) string {
	match := queryLocation.FindStringSubmatch(query)
	if match == nil {
		return ""
	}
	for _, place := range knownPlaces {
		if strings.EqualFold(place, match[1]) {
			return place
		}
	}
	return match[1]
}

// placeholders are values the collaborator uses when it has nothing to report.
var placeholders = map[string]struct{}{
	"...":           {},
	"n/a":           {},
	"na":            {},
	"none":          {},
	"null":          {},
	"unknown":       {},
	"not found":     {},
	"not specified": {},
}

func clean(s string) string {
	s = strings.TrimSpace(s)
	if _, ok := placeholders[strings.ToLower(s)]; ok {
		return ""
	}
	return s
}
