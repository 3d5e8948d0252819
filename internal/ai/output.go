package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ErrMalformedOutput is returned when a collaborator response is not the expected structured document.
var ErrMalformedOutput = errors.New("malformed structured output")

const fence = "```"

// Unfence strips a markdown code fence (with an optional language tag) around raw.
// Text without a fence is returned trimmed.
func Unfence(raw string) string {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, fence) {
		return raw
	}

	raw = strings.TrimPrefix(raw, fence)
	if idx := strings.Index(raw, "\n"); idx != -1 {
		tag := strings.TrimSpace(raw[:idx])
		if !strings.ContainsAny(tag, " {[") {
			raw = raw[idx+1:]
		}
	}

	raw = strings.TrimSpace(raw)
	raw = strings.TrimSuffix(raw, fence)
	return strings.TrimSpace(raw)
}

// DecodeStructured unfences raw, parses it as a JSON object and validates it against
// schema when one is given. Every failure wraps ErrMalformedOutput.
func DecodeStructured(raw string, schema *gojsonschema.Schema) (map[string]any, error) {
	cleaned := Unfence(raw)
	if cleaned == "" {
		return nil, fmt.Errorf("%w: empty response", ErrMalformedOutput)
	}

	if !strings.HasPrefix(cleaned, "{") {
		start := strings.Index(cleaned, "{")
		end := strings.LastIndex(cleaned, "}")
		if start == -1 || end <= start {
			return nil, fmt.Errorf("%w: no json object in response", ErrMalformedOutput)
		}
		cleaned = cleaned[start : end+1]
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}

	if schema == nil {
		return data, nil
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: validate: %v", ErrMalformedOutput, err)
	}

	if !result.Valid() {
		problems := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			problems = append(problems, desc.String())
		}
		return nil, fmt.Errorf("%w: %s", ErrMalformedOutput, strings.Join(problems, "; "))
	}

	return data, nil
}

// MustSchema compiles an embedded JSON schema and panics when it is invalid.
func MustSchema(source string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(source))
	if err != nil {
		panic(fmt.Sprintf("compile schema: %v", err))
	}
	return schema
}
