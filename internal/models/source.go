package models

import (
	"time"

	"gorm.io/datatypes"
)

type SourceType string

const (
	SourceFile SourceType = "file"
	SourceURL  SourceType = "url"
	SourceText SourceType = "text"
)

type ProcessingStatus string

const (
	ProcessingPending    ProcessingStatus = "pending"
	ProcessingInProgress ProcessingStatus = "processing"
	ProcessingCompleted  ProcessingStatus = "completed"
	ProcessingFailed     ProcessingStatus = "failed"
)

// Source is study material owned by one user within one banca
type Source struct {
	ID      uint       `json:"id" gorm:"primaryKey"`
	UserID  string     `json:"user_id" gorm:"not null;index;size:255"`
	BancaID string     `json:"banca_id" gorm:"not null;index;size:50"`
	Type    SourceType `json:"type" gorm:"not null;size:10;index"`

	Title   string  `json:"title" gorm:"not null;size:500"`
	Content *string `json:"content,omitempty" gorm:"type:text"`
	URL     *string `json:"url,omitempty" gorm:"type:text"`

	// File uploads
	BlobURL  *string `json:"blob_url,omitempty" gorm:"type:text"`
	BlobKey  *string `json:"blob_key,omitempty" gorm:"type:text"`
	FileName *string `json:"file_name,omitempty" gorm:"size:500"`
	FileSize *int64  `json:"file_size,omitempty"`
	MimeType *string `json:"mime_type,omitempty" gorm:"size:100"`

	ProcessingStatus ProcessingStatus `json:"processing_status" gorm:"not null;size:20;index"`
	ProcessingError  *string          `json:"processing_error,omitempty" gorm:"type:text"`
	ProcessedAt      *time.Time       `json:"processed_at,omitempty"`
	ExtractedText    *string          `json:"extracted_text,omitempty" gorm:"type:text"`
	Metadata         datatypes.JSON   `json:"metadata,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Text returns the material fed to question generation
func (s *Source) Text() string {
	if s.ExtractedText != nil {
		return *s.ExtractedText
	}
	if s.Content != nil {
		return *s.Content
	}
	return ""
}
