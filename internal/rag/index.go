package rag

import (
	"fmt"
	"math"
	"sort"
)

// ScoredChunk is one retrieval hit: a chunk and its similarity to the query.
type ScoredChunk struct {
	Chunk Chunk
	Score float32
}

// Index holds the (chunk, embedding) pairs for one document and answers
// brute-force cosine nearest-neighbor queries over them. An Index is
// immutable after construction and safe for concurrent readers.
type Index struct {
	dimension int
	chunks    []Chunk
	vectors   [][]float32
}

func newIndex(chunks []Chunk, vectors [][]float32) (*Index, error) {
	if len(chunks) != len(vectors) {
		return nil, fmt.Errorf("chunks and vectors length mismatch: %d != %d", len(chunks), len(vectors))
	}
	dim := 0
	for i, v := range vectors {
		if len(v) == 0 {
			return nil, fmt.Errorf("empty embedding for chunk %d", i)
		}
		if dim == 0 {
			dim = len(v)
		} else if len(v) != dim {
			return nil, fmt.Errorf("embedding dimension mismatch: got %d, expected %d", len(v), dim)
		}
	}
	return &Index{dimension: dim, chunks: chunks, vectors: vectors}, nil
}

// Len returns the number of indexed chunks.
func (idx *Index) Len() int { return len(idx.chunks) }

// Nearest returns the top-k chunks by cosine similarity, descending.
// Equal scores are ordered by original chunk position ascending so results
// are deterministic.
func (idx *Index) Nearest(query []float32, k int) []ScoredChunk {
	if k <= 0 || len(idx.chunks) == 0 {
		return nil
	}
	scored := make([]ScoredChunk, len(idx.chunks))
	for i := range idx.chunks {
		scored[i] = ScoredChunk{
			Chunk: idx.chunks[i],
			Score: cosineSimilarity(query, idx.vectors[i]),
		}
	}
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Chunk.Position < scored[j].Chunk.Position
	})
	if k > len(scored) {
		k = len(scored)
	}
	return scored[:k]
}

func cosineSimilarity(a, b []float32) float32 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA <= 0 || normB <= 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
