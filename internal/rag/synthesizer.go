package rag

import (
	"context"
	"errors"
	"strings"
)

// DefaultSentinel is the phrase the model is instructed to emit when the
// answer is not derivable from the retrieved context.
const DefaultSentinel = "I cannot find the answer in the provided context."

var ErrSynthesis = errors.New("answer synthesis failed")

// Answer is the synthesized response. Found is false when the model reported
// the answer absent from context; that outcome is expected, not an error.
type Answer struct {
	Text  string `json:"answer"`
	Found bool   `json:"found"`
}

// Synthesizer assembles a grounding prompt from retrieved chunks and invokes
// the completion provider with deterministic sampling.
type Synthesizer struct {
	completer Completer
	sentinel  string
}

func NewSynthesizer(completer Completer, sentinel string) *Synthesizer {
	if sentinel == "" {
		sentinel = DefaultSentinel
	}
	return &Synthesizer{completer: completer, sentinel: sentinel}
}

// Sentinel returns the configured not-found phrase.
func (s *Synthesizer) Sentinel() string { return s.sentinel }

// Synthesize builds the prompt, calls the model, and classifies the reply.
// Provider failures and empty replies surface as ErrSynthesis; retrying is
// the caller's decision, not this layer's.
func (s *Synthesizer) Synthesize(ctx context.Context, retrieved []ScoredChunk, question string) (*Answer, error) {
	system := "You are a helpful assistant. Answer the question based only on the provided context. " +
		"If the answer cannot be found in the context, reply with exactly: " + s.sentinel +
		" Do not make up facts."

	var b strings.Builder
	b.WriteString("Context:")
	for _, sc := range retrieved {
		b.WriteString("\n---\n")
		b.WriteString(sc.Chunk.Content)
	}
	b.WriteString("\n---\n\nQuestion: ")
	b.WriteString(question)
	b.WriteString("\n\nAnswer in a clear and concise manner.")

	reply, err := s.completer.Complete(ctx, system, b.String())
	if err != nil {
		return nil, &ProviderError{Stage: StageSynthesis, Err: err}
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return nil, ErrSynthesis
	}

	if strings.Contains(reply, s.sentinel) {
		return &Answer{Text: s.sentinel, Found: false}, nil
	}
	return &Answer{Text: reply, Found: true}, nil
}
