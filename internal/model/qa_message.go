package model

import "time"

// QAMessage is one side of a question/answer exchange, persisted
// asynchronously for the transcript. Role is "question" or "answer".
type QAMessage struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	DocumentID string    `gorm:"size:36;not null;index" json:"document_id"`
	ClientID   string    `gorm:"size:36;index" json:"client_id"` // empty for the synchronous endpoint
	Role       string    `gorm:"size:16;not null" json:"role"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	Found      bool      `json:"found"`
	CreatedAt  time.Time `json:"created_at"`
}
