package model

import "time"

// Document is one uploaded PDF: the opaque identifier handed back to the
// client at upload time plus the extracted text. Content is immutable after
// ingestion; the per-process retrieval index relies on that.
type Document struct {
	ID        string    `gorm:"primaryKey;size:36" json:"document_id"`
	Filename  string    `gorm:"size:256;not null" json:"filename"`
	Content   string    `gorm:"type:longtext;not null" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}
