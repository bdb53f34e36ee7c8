package app

import (
	"context"
	"errors"
	"sync"
	"testing"

	"pdfqa/internal/model"
	"pdfqa/internal/rag"
)

type memoryStore struct {
	mu       sync.Mutex
	docs     map[string]*model.Document
	getCalls int
}

func newMemoryStore(docs ...*model.Document) *memoryStore {
	s := &memoryStore{docs: make(map[string]*model.Document)}
	for _, d := range docs {
		s.docs[d.ID] = d
	}
	return s
}

func (s *memoryStore) GetByID(id string) (*model.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getCalls++
	return s.docs[id], nil
}

type memoryCache struct {
	mu    sync.Mutex
	texts map[string]string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{texts: make(map[string]string)}
}

func (c *memoryCache) GetContent(ctx context.Context, id string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	text, ok := c.texts[id]
	return text, ok, nil
}

func (c *memoryCache) SetContent(ctx context.Context, id, content string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.texts[id] = content
	return nil
}

func (c *memoryCache) DeleteContent(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.texts, id)
	return nil
}

type capturePublisher struct {
	mu       sync.Mutex
	messages []model.QAMessage
}

func (p *capturePublisher) Publish(ctx context.Context, msg model.QAMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, msg)
	return nil
}

type fixedEmbedder struct{}

func (fixedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{1, 0}, nil
}

func (fixedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = []float32{1, 0}
	}
	return out, nil
}

type fixedCompleter struct{ reply string }

func (c fixedCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	return c.reply, nil
}

func newTestQAService(store *memoryStore, cache *memoryCache, pub *capturePublisher) *QAService {
	pipeline := rag.NewPipeline(fixedEmbedder{}, fixedCompleter{reply: "the answer"}, rag.PipelineConfig{
		ChunkSize:    64,
		ChunkOverlap: 16,
	})
	return NewQAService(store, cache, pub, pipeline, nil)
}

func TestAskAnswersAndRecordsTranscript(t *testing.T) {
	store := newMemoryStore(&model.Document{ID: "doc-1", Content: "The sky is blue and vast."})
	pub := &capturePublisher{}
	svc := newTestQAService(store, newMemoryCache(), pub)

	answer, err := svc.Ask(context.Background(), "client-7", "doc-1", "What color is the sky?")
	if err != nil {
		t.Fatalf("ask failed: %v", err)
	}
	if answer.Text != "the answer" || !answer.Found {
		t.Errorf("unexpected answer %+v", answer)
	}

	pub.mu.Lock()
	defer pub.mu.Unlock()
	if len(pub.messages) != 2 {
		t.Fatalf("expected question+answer transcript pair, got %d messages", len(pub.messages))
	}
	if pub.messages[0].Role != "question" || pub.messages[1].Role != "answer" {
		t.Errorf("unexpected roles %q, %q", pub.messages[0].Role, pub.messages[1].Role)
	}
	for _, msg := range pub.messages {
		if msg.ClientID != "client-7" || msg.DocumentID != "doc-1" {
			t.Errorf("transcript attribution wrong: %+v", msg)
		}
	}
}

func TestAskUnknownDocument(t *testing.T) {
	svc := newTestQAService(newMemoryStore(), newMemoryCache(), &capturePublisher{})

	if _, err := svc.Ask(context.Background(), "", "missing", "q"); !errors.Is(err, ErrDocumentNotFound) {
		t.Errorf("expected ErrDocumentNotFound, got %v", err)
	}
}

func TestAskValidatesInput(t *testing.T) {
	svc := newTestQAService(newMemoryStore(), newMemoryCache(), &capturePublisher{})

	if _, err := svc.Ask(context.Background(), "", "", "q"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("empty document id: expected ErrInvalidInput, got %v", err)
	}
	if _, err := svc.Ask(context.Background(), "", "doc", "  "); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("blank question: expected ErrInvalidInput, got %v", err)
	}
}

func TestAskReadsThroughCache(t *testing.T) {
	store := newMemoryStore(&model.Document{ID: "doc-1", Content: "Cached content about gophers."})
	cache := newMemoryCache()
	svc := newTestQAService(store, cache, &capturePublisher{})

	if _, err := svc.Ask(context.Background(), "", "doc-1", "first?"); err != nil {
		t.Fatalf("first ask failed: %v", err)
	}
	if store.getCalls != 1 {
		t.Fatalf("expected one store read, got %d", store.getCalls)
	}

	// Second ask hits the cache that the first one warmed.
	if _, err := svc.Ask(context.Background(), "", "doc-1", "second?"); err != nil {
		t.Fatalf("second ask failed: %v", err)
	}
	if store.getCalls != 1 {
		t.Errorf("expected cache hit, store reads went to %d", store.getCalls)
	}
}

type transcriptEraser struct {
	mu      sync.Mutex
	deleted []string
}

func (e *transcriptEraser) DeleteByDocumentID(documentID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.deleted = append(e.deleted, documentID)
	return nil
}

func TestDocumentServiceIngestAndDelete(t *testing.T) {
	repo := &memoryDocWriter{store: newMemoryStore()}
	cache := newMemoryCache()
	transcripts := &transcriptEraser{}
	pipeline := rag.NewPipeline(fixedEmbedder{}, fixedCompleter{reply: "x"}, rag.PipelineConfig{})
	svc := NewDocumentService(repo, cache, transcripts, pipeline, nil)

	doc, err := svc.Ingest(context.Background(), "report.pdf", "Extracted report text.")
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}
	if doc.ID == "" {
		t.Fatal("expected an assigned document id")
	}
	if text, hit, _ := cache.GetContent(context.Background(), doc.ID); !hit || text != "Extracted report text." {
		t.Error("ingest should warm the content cache")
	}

	if err := svc.Delete(context.Background(), doc.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, hit, _ := cache.GetContent(context.Background(), doc.ID); hit {
		t.Error("delete should evict the cached text")
	}
	transcripts.mu.Lock()
	erased := append([]string(nil), transcripts.deleted...)
	transcripts.mu.Unlock()
	if len(erased) != 1 || erased[0] != doc.ID {
		t.Errorf("delete should remove the document's transcript, got %v", erased)
	}
	if err := svc.Delete(context.Background(), doc.ID); !errors.Is(err, ErrDocumentNotFound) {
		t.Errorf("double delete: expected ErrDocumentNotFound, got %v", err)
	}
}

func TestIngestRejectsEmptyContent(t *testing.T) {
	repo := &memoryDocWriter{store: newMemoryStore()}
	svc := NewDocumentService(repo, newMemoryCache(), &transcriptEraser{}, nil, nil)
	if _, err := svc.Ingest(context.Background(), "empty.pdf", "   "); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

type memoryDocWriter struct {
	store *memoryStore
}

func (w *memoryDocWriter) Create(doc *model.Document) error {
	w.store.mu.Lock()
	defer w.store.mu.Unlock()
	w.store.docs[doc.ID] = doc
	return nil
}

func (w *memoryDocWriter) GetByID(id string) (*model.Document, error) {
	return w.store.GetByID(id)
}

func (w *memoryDocWriter) List() ([]model.Document, error) {
	w.store.mu.Lock()
	defer w.store.mu.Unlock()
	out := make([]model.Document, 0, len(w.store.docs))
	for _, d := range w.store.docs {
		out = append(out, *d)
	}
	return out, nil
}

func (w *memoryDocWriter) DeleteByID(id string) error {
	w.store.mu.Lock()
	defer w.store.mu.Unlock()
	delete(w.store.docs, id)
	return nil
}
