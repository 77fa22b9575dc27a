package driven

import "context"

// LLMService turns a system context and a question into prose. It is an
// external collaborator of the retrieval pipeline.
type LLMService interface {
	// Generate produces a completion for the question, grounded in the
	// given system prompt.
	Generate(ctx context.Context, system, question string, opts GenerateOptions) (string, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Ping validates the service is reachable with a lightweight request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// GenerateOptions configures text generation behaviour.
type GenerateOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic).
	Temperature float64
}
