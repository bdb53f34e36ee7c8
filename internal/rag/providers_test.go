package rag

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
)

// stubEmbedder maps text to a small deterministic vector: texts sharing the
// configured keyword land close together, everything else is orthogonal.
type stubEmbedder struct {
	keyword    string
	batchCalls int64
	embedCalls int64
	failBatch  error
	failEmbed  error
}

func (e *stubEmbedder) vector(text string) []float32 {
	if e.keyword != "" && strings.Contains(strings.ToLower(text), strings.ToLower(e.keyword)) {
		return []float32{1, 0.1}
	}
	return []float32{0.1, 1}
}

func (e *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	atomic.AddInt64(&e.embedCalls, 1)
	if e.failEmbed != nil {
		return nil, e.failEmbed
	}
	return e.vector(text), nil
}

func (e *stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	atomic.AddInt64(&e.batchCalls, 1)
	if e.failBatch != nil {
		return nil, e.failBatch
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = e.vector(t)
	}
	return out, nil
}

// stubCompleter replies with a canned answer, or the sentinel when the
// prompt's context block lacks the configured evidence string. Only the
// context half of the prompt is inspected, mimicking a model that answers
// strictly from context.
type stubCompleter struct {
	reply    string
	evidence string
	sentinel string
	calls    int64
	fail     error
	lastUser string
}

func (c *stubCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	atomic.AddInt64(&c.calls, 1)
	c.lastUser = user
	if c.fail != nil {
		return "", c.fail
	}
	if c.evidence != "" {
		contextBlock, _, _ := strings.Cut(user, "\n\nQuestion:")
		if !strings.Contains(contextBlock, c.evidence) {
			if c.sentinel != "" {
				return c.sentinel, nil
			}
			return DefaultSentinel, nil
		}
	}
	return c.reply, nil
}

var errProviderDown = errors.New("provider unavailable")
