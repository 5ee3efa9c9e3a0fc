package repositories

import "context"

// Embedder abstracts the text-embedding provider.
type Embedder interface {
	// Embed converts text into a fixed-dimension similarity vector.
	Embed(ctx context.Context, text string) ([]float32, error)
}
