package image

import "context"

type Params struct {
	Model  string
	Prompt string
}

// Generator produces a single image for a prompt, returned as a data URI.
// key is the provider credential, resolved per invocation.
type Generator interface {
	Generate(ctx context.Context, key string, params Params) (string, error)
}
