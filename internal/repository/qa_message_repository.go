package repository

import (
	"fmt"

	"gorm.io/gorm"

	"pdfqa/internal/model"
)

type QAMessageRepository struct {
	db *gorm.DB
}

func NewQAMessageRepository(db *gorm.DB) *QAMessageRepository {
	return &QAMessageRepository{db: db}
}

func (r *QAMessageRepository) Create(msg *model.QAMessage) error {
	if err := r.db.Create(msg).Error; err != nil {
		return fmt.Errorf("create qa message failed: %w", err)
	}
	return nil
}

// ListByDocumentID returns the transcript for a document, oldest first.
func (r *QAMessageRepository) ListByDocumentID(documentID string, limit int) ([]model.QAMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var messages []model.QAMessage
	if err := r.db.Where("document_id = ?", documentID).
		Order("id ASC").
		Limit(limit).
		Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("list qa messages failed: %w", err)
	}
	return messages, nil
}

func (r *QAMessageRepository) DeleteByDocumentID(documentID string) error {
	if err := r.db.Where("document_id = ?", documentID).Delete(&model.QAMessage{}).Error; err != nil {
		return fmt.Errorf("delete qa messages failed: %w", err)
	}
	return nil
}
