package ai

import (
	"context"
)

// Generator is the generative text collaborator. Implementations return the
// textual answer to a free-text prompt.
type Generator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// DocumentGenerator additionally accepts an inline document (for example a resume)
// that is sent alongside the prompt.
type DocumentGenerator interface {
	Generator
	GenerateWithDocument(ctx context.Context, prompt string, document []byte, mimeType string) (string, error)
}
