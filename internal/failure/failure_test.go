package failure

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		err    *Error
		expect string
	}{
		{
			name:   "kind only",
			err:    New(NoFile, ""),
			expect: "no resume supplied",
		},
		{
			name:   "with detail",
			err:    New(InvalidProfile, "job role is required"),
			expect: "insufficient profile information: job role is required",
		},
		{
			name:   "cause used as detail",
			err:    Wrap(UpstreamError, "", errors.New("connection refused")),
			expect: "upstream service error: connection refused",
		},
		{
			name:   "detail and cause",
			err:    Wrap(UpstreamError, "fetch jobs", errors.New("bad status: 500")),
			expect: "upstream service error: fetch jobs: bad status: 500",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expect, tt.err.Error())
		})
	}
}

func TestKindOfWrapped(t *testing.T) {
	err := fmt.Errorf("dispatch: %w", New(NoData, "empty"))

	assert.Equal(t, NoData, KindOf(err))
	assert.True(t, errors.Is(err, New(NoData, "")))
	assert.False(t, errors.Is(err, New(NoFile, "")))
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
}

func TestMessageForPlainError(t *testing.T) {
	assert.Equal(t, "", Message(nil))
	assert.Equal(t, "upstream service error: boom", Message(errors.New("boom")))
	assert.Equal(t, "missing query", Message(New(MissingQuery, "")))
}
