package rag

import "fmt"

// Chunk is a contiguous piece of document text. Position is the chunk's
// index in the original split order and is used as the retrieval tie-break.
type Chunk struct {
	Position int
	Content  string
}

// SplitText splits text into overlapping chunks by rune count, scanning
// forward in windows of size runes and advancing by size-overlap each step.
// The final window is the tail of the text. Identical input always yields
// identical boundaries; the index cache depends on that.
func SplitText(text string, size, overlap int) ([]Chunk, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: text is empty", ErrInvalidInput)
	}
	if size <= 0 {
		return nil, fmt.Errorf("%w: chunk size %d", ErrInvalidInput, size)
	}
	if overlap <= 0 || overlap >= size {
		return nil, fmt.Errorf("%w: overlap %d must be in (0, %d)", ErrInvalidInput, overlap, size)
	}

	runes := []rune(text)
	var chunks []Chunk
	for i := 0; i < len(runes); {
		end := i + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, Chunk{
			Position: len(chunks),
			Content:  string(runes[i:end]),
		})
		if end == len(runes) {
			break
		}
		i += size - overlap
	}
	return chunks, nil
}
