package domain

import "time"

type DocumentStatus string

const (
	StatusUploaded   DocumentStatus = "uploaded"
	StatusProcessing DocumentStatus = "processing"
	StatusReady      DocumentStatus = "ready"
	StatusFailed     DocumentStatus = "failed"
)

// Document is an uploaded corpus file and its indexing state.
type Document struct {
	ID          string         `json:"id"`
	Filename    string         `json:"filename"`
	MimeType    string         `json:"mime_type"`
	StoragePath string         `json:"storage_path"`
	Title       string         `json:"title,omitempty"`
	Status      DocumentStatus `json:"status"`
	Error       string         `json:"error,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// ExtractedText is the indexable content of a document.
type ExtractedText struct {
	Title       string
	OpeningText string
	Body        string
}

// IndexedDocument is the shape stored in the search index.
type IndexedDocument struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	OpeningText string `json:"opening_text"`
	Text        string `json:"text"`
}
