package rag

import (
	"context"
	"fmt"
)

// embeddingBatchSize limits how many chunks go to the provider per request;
// DashScope and similar APIs often cap batch size.
const embeddingBatchSize = 10

// BuildIndex embeds every chunk and assembles the in-memory index. The build
// is all-or-nothing: any provider failure aborts it and nothing is returned,
// so a partially embedded document can never be published to the cache.
func BuildIndex(ctx context.Context, embedder Embedder, chunks []Chunk) (*Index, error) {
	if len(chunks) == 0 {
		return newIndex(nil, nil)
	}

	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = chunks[i].Content
	}

	var vectors [][]float32
	for i := 0; i < len(texts); i += embeddingBatchSize {
		end := i + embeddingBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch, err := embedder.EmbedBatch(ctx, texts[i:end])
		if err != nil {
			return nil, &ProviderError{Stage: StageEmbed, Err: err}
		}
		vectors = append(vectors, batch...)
	}
	if len(vectors) != len(chunks) {
		return nil, &ProviderError{
			Stage: StageEmbed,
			Err:   fmt.Errorf("embedding count mismatch: got %d for %d chunks", len(vectors), len(chunks)),
		}
	}

	idx, err := newIndex(chunks, vectors)
	if err != nil {
		return nil, &ProviderError{Stage: StageEmbed, Err: err}
	}
	return idx, nil
}
