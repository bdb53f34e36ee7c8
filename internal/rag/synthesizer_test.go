package rag

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestSynthesizeFoundAnswer(t *testing.T) {
	completer := &stubCompleter{reply: "Paris is the capital."}
	s := NewSynthesizer(completer, "")

	retrieved := []ScoredChunk{{Chunk: Chunk{Position: 0, Content: "Paris is the capital of France."}, Score: 0.9}}
	answer, err := s.Synthesize(context.Background(), retrieved, "What is the capital of France?")
	if err != nil {
		t.Fatalf("synthesize failed: %v", err)
	}
	if !answer.Found {
		t.Error("expected Found=true")
	}
	if answer.Text != "Paris is the capital." {
		t.Errorf("unexpected answer text %q", answer.Text)
	}
}

func TestSynthesizePromptContainsContextAndQuestion(t *testing.T) {
	completer := &stubCompleter{reply: "ok"}
	s := NewSynthesizer(completer, "")

	retrieved := []ScoredChunk{
		{Chunk: Chunk{Position: 0, Content: "first chunk text"}},
		{Chunk: Chunk{Position: 1, Content: "second chunk text"}},
	}
	if _, err := s.Synthesize(context.Background(), retrieved, "the exact question?"); err != nil {
		t.Fatalf("synthesize failed: %v", err)
	}

	for _, want := range []string{"first chunk text", "second chunk text", "the exact question?"} {
		if !strings.Contains(completer.lastUser, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestSynthesizeSentinelMeansNotFound(t *testing.T) {
	completer := &stubCompleter{reply: DefaultSentinel}
	s := NewSynthesizer(completer, "")

	answer, err := s.Synthesize(context.Background(), nil, "unknowable?")
	if err != nil {
		t.Fatalf("synthesize failed: %v", err)
	}
	if answer.Found {
		t.Error("sentinel reply must set Found=false")
	}
	if answer.Text != DefaultSentinel {
		t.Errorf("expected sentinel text, got %q", answer.Text)
	}
}

func TestSynthesizeCustomSentinel(t *testing.T) {
	const custom = "No idea, not in the document."
	completer := &stubCompleter{reply: "prefix " + custom + " suffix"}
	s := NewSynthesizer(completer, custom)

	answer, err := s.Synthesize(context.Background(), nil, "q")
	if err != nil {
		t.Fatalf("synthesize failed: %v", err)
	}
	if answer.Found || answer.Text != custom {
		t.Errorf("expected not-found custom sentinel, got %+v", answer)
	}
}

func TestSynthesizeProviderFailure(t *testing.T) {
	completer := &stubCompleter{fail: errProviderDown}
	s := NewSynthesizer(completer, "")

	_, err := s.Synthesize(context.Background(), nil, "q")
	var provErr *ProviderError
	if !errors.As(err, &provErr) || provErr.Stage != StageSynthesis {
		t.Fatalf("expected synthesis-stage provider error, got %v", err)
	}
}

func TestSynthesizeEmptyReply(t *testing.T) {
	completer := &stubCompleter{reply: "   "}
	s := NewSynthesizer(completer, "")

	if _, err := s.Synthesize(context.Background(), nil, "q"); !errors.Is(err, ErrSynthesis) {
		t.Fatalf("expected ErrSynthesis, got %v", err)
	}
}
