package app

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"pdfqa/internal/model"
	"pdfqa/internal/rag"
)

// DocumentWriter is the persistence surface for ingestion.
type DocumentWriter interface {
	Create(doc *model.Document) error
	GetByID(id string) (*model.Document, error)
	List() ([]model.Document, error)
	DeleteByID(id string) error
}

// TranscriptStore removes a document's persisted QA history.
type TranscriptStore interface {
	DeleteByDocumentID(documentID string) error
}

// DocumentService handles ingestion and management of uploaded documents.
// Extraction happens at the transport boundary; by the time text reaches
// Ingest it is guaranteed non-empty.
type DocumentService struct {
	docs        DocumentWriter
	cache       ContentCache
	transcripts TranscriptStore
	pipeline    *rag.Pipeline
	log         *zap.Logger
}

func NewDocumentService(docs DocumentWriter, cache ContentCache, transcripts TranscriptStore, pipeline *rag.Pipeline, log *zap.Logger) *DocumentService {
	if log == nil {
		log = zap.NewNop()
	}
	return &DocumentService{docs: docs, cache: cache, transcripts: transcripts, pipeline: pipeline, log: log}
}

// Ingest assigns an opaque id, persists the document, and warms the content
// cache so the first question avoids a database read.
func (s *DocumentService) Ingest(ctx context.Context, filename, content string) (*model.Document, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrInvalidInput
	}
	filename = strings.TrimSpace(filename)
	if filename == "" {
		filename = "untitled.pdf"
	}

	doc := &model.Document{
		ID:       uuid.NewString(),
		Filename: filename,
		Content:  content,
	}
	if err := s.docs.Create(doc); err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetContent(ctx, doc.ID, content); err != nil {
			s.log.Warn("warm document cache failed", zap.String("document_id", doc.ID), zap.Error(err))
		}
	}
	return doc, nil
}

func (s *DocumentService) List() ([]model.Document, error) {
	return s.docs.List()
}

// Delete removes the document row, its transcript, its cached text, and its
// in-memory index. Transcript rows go first so a failed delete can be retried
// while the document still exists.
func (s *DocumentService) Delete(ctx context.Context, documentID string) error {
	documentID = strings.TrimSpace(documentID)
	if documentID == "" {
		return ErrInvalidInput
	}
	doc, err := s.docs.GetByID(documentID)
	if err != nil {
		return err
	}
	if doc == nil {
		return ErrDocumentNotFound
	}
	if s.transcripts != nil {
		if err := s.transcripts.DeleteByDocumentID(documentID); err != nil {
			return err
		}
	}
	if err := s.docs.DeleteByID(documentID); err != nil {
		return err
	}
	if s.cache != nil {
		_ = s.cache.DeleteContent(ctx, documentID)
	}
	if s.pipeline != nil {
		s.pipeline.Invalidate(documentID)
	}
	return nil
}
