package rag

import (
	"context"
	"errors"
	"sync"
)

// PipelineConfig carries the chunking and retrieval parameters.
type PipelineConfig struct {
	ChunkSize    int
	ChunkOverlap int
	TopK         int
	Sentinel     string
}

func (c PipelineConfig) withDefaults() PipelineConfig {
	if c.ChunkSize <= 0 {
		c.ChunkSize = 512
	}
	if c.ChunkOverlap <= 0 || c.ChunkOverlap >= c.ChunkSize {
		c.ChunkOverlap = c.ChunkSize / 8
	}
	if c.TopK <= 0 {
		c.TopK = DefaultTopK
	}
	if c.Sentinel == "" {
		c.Sentinel = DefaultSentinel
	}
	return c
}

// indexEntry is one cache slot. ready is closed when the build finishes;
// waiters then read idx/err. A failed build leaves err set and is evicted so
// a later question can rebuild.
type indexEntry struct {
	ready chan struct{}
	idx   *Index
	err   error
}

// Pipeline coordinates chunking, indexing, retrieval and synthesis for one
// document+question pair, and owns the per-document index cache. Document
// text is immutable after ingestion, so an index, once built, is reused for
// the document's lifetime in process memory.
type Pipeline struct {
	embedder    Embedder
	retriever   *Retriever
	synthesizer *Synthesizer
	cfg         PipelineConfig

	mu      sync.Mutex
	indexes map[string]*indexEntry
}

func NewPipeline(embedder Embedder, completer Completer, cfg PipelineConfig) *Pipeline {
	cfg = cfg.withDefaults()
	return &Pipeline{
		embedder:    embedder,
		retriever:   NewRetriever(embedder, cfg.TopK),
		synthesizer: NewSynthesizer(completer, cfg.Sentinel),
		cfg:         cfg,
		indexes:     make(map[string]*indexEntry),
	}
}

// Answer runs the full pipeline. The first call for a documentID builds and
// caches its index; later calls reuse it without re-chunking or re-embedding.
// Concurrent first calls for the same documentID collapse into a single
// build: one caller runs it, the rest wait on its result. Failures come back
// as *PipelineError tagged with the originating stage.
func (p *Pipeline) Answer(ctx context.Context, documentID, documentText, question string) (*Answer, error) {
	idx, err := p.indexFor(ctx, documentID, documentText)
	if err != nil {
		stage := StageEmbed
		if errors.Is(err, ErrInvalidInput) {
			stage = StageChunk
		}
		return nil, wrapPipeline(stage, err)
	}

	retrieved, err := p.retriever.Retrieve(ctx, idx, question)
	if err != nil {
		return nil, wrapPipeline(StageRetrieve, err)
	}

	answer, err := p.synthesizer.Synthesize(ctx, retrieved, question)
	if err != nil {
		return nil, wrapPipeline(StageSynthesis, err)
	}
	return answer, nil
}

// Sentinel returns the configured not-found phrase.
func (p *Pipeline) Sentinel() string { return p.synthesizer.Sentinel() }

// Invalidate drops the cached index for a document, if any. Used when a
// document is deleted.
func (p *Pipeline) Invalidate(documentID string) {
	p.mu.Lock()
	delete(p.indexes, documentID)
	p.mu.Unlock()
}

// indexFor returns the cached index for documentID, building it on first
// use. The lock protects only the build-or-fetch decision; chunking and the
// embedding calls run outside it so an in-flight build never blocks
// questions about other documents.
func (p *Pipeline) indexFor(ctx context.Context, documentID, documentText string) (*Index, error) {
	p.mu.Lock()
	if entry, ok := p.indexes[documentID]; ok {
		p.mu.Unlock()
		select {
		case <-entry.ready:
			return entry.idx, entry.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	entry := &indexEntry{ready: make(chan struct{})}
	p.indexes[documentID] = entry
	p.mu.Unlock()

	// The build is shared: other callers may already be parked on ready, so
	// it must not die with the caller that happened to arrive first.
	entry.idx, entry.err = p.build(context.WithoutCancel(ctx), documentText)
	close(entry.ready)

	if entry.err != nil {
		// Do not cache a failed build; the next question retries it.
		p.mu.Lock()
		if p.indexes[documentID] == entry {
			delete(p.indexes, documentID)
		}
		p.mu.Unlock()
	}
	return entry.idx, entry.err
}

func (p *Pipeline) build(ctx context.Context, documentText string) (*Index, error) {
	chunks, err := SplitText(documentText, p.cfg.ChunkSize, p.cfg.ChunkOverlap)
	if err != nil {
		return nil, err
	}
	return BuildIndex(ctx, p.embedder, chunks)
}

// wrapPipeline tags err with stage unless it already carries one.
func wrapPipeline(stage Stage, err error) error {
	if pe, ok := err.(*ProviderError); ok {
		return &PipelineError{Stage: pe.Stage, Err: err}
	}
	return &PipelineError{Stage: stage, Err: err}
}
