package app

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"pdfqa/internal/model"
	"pdfqa/internal/rag"
)

// DocumentStore looks up persisted documents. GetByID returns (nil, nil)
// for unknown ids.
type DocumentStore interface {
	GetByID(id string) (*model.Document, error)
}

// ContentCache fronts the store with a text cache keyed by document id.
type ContentCache interface {
	GetContent(ctx context.Context, documentID string) (string, bool, error)
	SetContent(ctx context.Context, documentID, content string) error
	DeleteContent(ctx context.Context, documentID string) error
}

// TranscriptPublisher enqueues QA exchanges for asynchronous persistence.
type TranscriptPublisher interface {
	Publish(ctx context.Context, msg model.QAMessage) error
}

// QAService resolves a document's text and runs the QA pipeline over it.
// It backs both the synchronous ask endpoint and the session channel.
type QAService struct {
	docs      DocumentStore
	cache     ContentCache
	publisher TranscriptPublisher
	pipeline  *rag.Pipeline
	log       *zap.Logger
}

func NewQAService(
	docs DocumentStore,
	cache ContentCache,
	publisher TranscriptPublisher,
	pipeline *rag.Pipeline,
	log *zap.Logger,
) *QAService {
	if log == nil {
		log = zap.NewNop()
	}
	return &QAService{
		docs:      docs,
		cache:     cache,
		publisher: publisher,
		pipeline:  pipeline,
		log:       log,
	}
}

// Ask answers a question about one document. clientID is empty for the
// synchronous endpoint; the session layer passes its connection id.
func (s *QAService) Ask(ctx context.Context, clientID, documentID, question string) (*rag.Answer, error) {
	documentID = strings.TrimSpace(documentID)
	question = strings.TrimSpace(question)
	if documentID == "" || question == "" {
		return nil, ErrInvalidInput
	}

	text, err := s.lookupContent(ctx, documentID)
	if err != nil {
		return nil, err
	}

	answer, err := s.pipeline.Answer(ctx, documentID, text, question)
	if err != nil {
		return nil, err
	}

	s.recordExchange(ctx, clientID, documentID, question, answer)
	return answer, nil
}

// lookupContent reads through the cache to the store.
func (s *QAService) lookupContent(ctx context.Context, documentID string) (string, error) {
	if s.cache != nil {
		if text, hit, err := s.cache.GetContent(ctx, documentID); err == nil && hit {
			return text, nil
		}
	}

	doc, err := s.docs.GetByID(documentID)
	if err != nil {
		return "", err
	}
	if doc == nil {
		return "", ErrDocumentNotFound
	}

	if s.cache != nil {
		if err := s.cache.SetContent(ctx, documentID, doc.Content); err != nil {
			s.log.Warn("cache document content failed", zap.String("document_id", documentID), zap.Error(err))
		}
	}
	return doc.Content, nil
}

// recordExchange publishes both sides of the exchange to the transcript
// queue. Best effort: a broker hiccup must not fail an already computed
// answer.
func (s *QAService) recordExchange(ctx context.Context, clientID, documentID, question string, answer *rag.Answer) {
	if s.publisher == nil {
		return
	}
	now := time.Now()
	pair := []model.QAMessage{
		{DocumentID: documentID, ClientID: clientID, Role: "question", Content: question, Found: true, CreatedAt: now},
		{DocumentID: documentID, ClientID: clientID, Role: "answer", Content: answer.Text, Found: answer.Found, CreatedAt: now},
	}
	for _, msg := range pair {
		if err := s.publisher.Publish(ctx, msg); err != nil {
			s.log.Warn("publish transcript failed", zap.String("document_id", documentID), zap.Error(err))
			return
		}
	}
}
