package ai

import "context"

// Generator produces free text from a prompt. The interview engine, question
// loader and evaluation aggregator all talk to the generation service through
// this interface; the output is plain text with no schema guarantees.
type Generator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
	Model() string
}
