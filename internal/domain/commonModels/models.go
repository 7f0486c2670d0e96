package commonModels

import (
	"context"
	"time"
)

type DocType string

var PDF DocType = "pdf"
var DOCX DocType = "docx"
var TXT DocType = "txt"
var ERR DocType = "error"

// Extension of the stored artifact for this type.
func (d DocType) Extension() string {
	return "." + string(d)
}

// MIMEType is used when the artifact is sent to a provider as an attachment.
func (d DocType) MIMEType() string {
	switch d {
	case PDF:
		return "application/pdf"
	case TXT:
		return "text/plain"
	case DOCX:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	default:
		return "application/octet-stream"
	}
}

// Upload is a file received at the boundary and not yet normalized.
type Upload struct {
	TempPath     string
	OriginalName string
}

// Document is the canonical artifact the pipeline operates on.
type Document struct {
	Id                  string    `json:"document_id"`
	Path                string    `json:"path"`
	Format              DocType   `json:"format"`
	OriginalName        string    `json:"original_name"`
	PageCount           int       `json:"page_count,omitempty"`
	LastIngestTimestamp time.Time `json:"ingested_at"`
}

// FileName is the artifact name under the storage root.
func (d Document) FileName() string {
	return d.Id + d.Format.Extension()
}

type ExtractionResult struct {
	Pages       []string  `json:"pages"`
	Source      string    `json:"source"`
	ExtractedAt time.Time `json:"extracted_at"`
}

type QueryRequest struct {
	DocumentRef string `json:"filePath" validate:"required"`
	Question    string `json:"question" validate:"required"`
}

type DocumentRepository interface {
	SaveDocument(ctx context.Context, doc Document) error
	GetDocument(ctx context.Context, id string) (Document, bool, error)
	DeleteDocument(ctx context.Context, id string) error
}
