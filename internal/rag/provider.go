package rag

import "context"

// Embedder converts text into a fixed-dimension vector. Chunk indexing and
// question embedding must go through the same implementation; mixing embedding
// spaces breaks retrieval.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Completer runs a completion for the given prompt and returns the model text.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}
