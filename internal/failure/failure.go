package failure

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a failure that is shown to the user instead of aborting the session.
type Kind string

const (
	NoFile             Kind = "no_file"
	InvalidProfile     Kind = "invalid_profile"
	UpstreamError      Kind = "upstream_error"
	MalformedOutput    Kind = "malformed_output"
	ConfigurationError Kind = "configuration_error"
	NoData             Kind = "no_data"
	MissingQuery       Kind = "missing_query"
	MissingSummary     Kind = "missing_summary"
	RenderError        Kind = "render_error"
)

var titles = map[Kind]string{
	NoFile:             "no resume supplied",
	InvalidProfile:     "insufficient profile information",
	UpstreamError:      "upstream service error",
	MalformedOutput:    "malformed collaborator output",
	ConfigurationError: "configuration error",
	NoData:             "no data",
	MissingQuery:       "missing query",
	MissingSummary:     "resume summary is empty",
	RenderError:        "document rendering failed",
}

// Error is a recoverable failure carrying its kind and optional upstream detail.
type Error struct {
	Kind   Kind
	Detail string
	Err    error
}

func New(kind Kind, detail string) *Error {
	return &Error{Kind: kind, Detail: strings.TrimSpace(detail)}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return New(kind, fmt.Sprintf(format, args...))
}

// Wrap attaches an underlying cause. The cause text is used as detail when detail is empty.
func Wrap(kind Kind, detail string, err error) *Error {
	e := New(kind, detail)
	e.Err = err
	return e
}

func (e *Error) Error() string {
	title := titles[e.Kind]
	if title == "" {
		title = string(e.Kind)
	}

	detail := e.Detail
	if e.Err != nil {
		if detail == "" {
			detail = e.Err.Error()
		} else {
			detail = fmt.Sprintf("%s: %v", detail, e.Err)
		}
	}

	if detail == "" {
		return title
	}
	return fmt.Sprintf("%s: %s", title, detail)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error by kind so errors.Is(err, failure.New(kind, "")) works.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return other.Kind == e.Kind
}

// KindOf returns the kind of the first *Error in the chain, or "" when there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Message renders any error as text that can be shown to the user.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Error()
	}
	return titles[UpstreamError] + ": " + err.Error()
}
