package rag

import "context"

// DefaultTopK is how many chunks a question retrieves when no override is set.
const DefaultTopK = 3

// Retriever embeds a question and looks up its nearest chunks in an index.
// No relevance floor is applied here: groundedness is judged downstream by
// the synthesizer's sentinel instruction, not by raw similarity score.
type Retriever struct {
	embedder Embedder
	topK     int
}

func NewRetriever(embedder Embedder, topK int) *Retriever {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Retriever{embedder: embedder, topK: topK}
}

// Retrieve returns the top-k most similar chunks for the question,
// descending by score. Returns ErrEmptyIndex if the document produced no
// chunks (empty or unextractable content).
func (r *Retriever) Retrieve(ctx context.Context, index *Index, question string) ([]ScoredChunk, error) {
	if index == nil || index.Len() == 0 {
		return nil, ErrEmptyIndex
	}
	vec, err := r.embedder.Embed(ctx, question)
	if err != nil {
		return nil, &ProviderError{Stage: StageRetrieve, Err: err}
	}
	return index.Nearest(vec, r.topK), nil
}
