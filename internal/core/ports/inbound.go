package ports

import (
	"context"
	"io"

	"github.com/kirillkom/dialogue-qa/internal/core/domain"
)

// DialogueService is the inbound contract for one conversational turn.
type DialogueService interface {
	Respond(ctx context.Context, sessionID, query string) (*domain.TurnResult, error)
	History(ctx context.Context, sessionID string) ([]domain.Turn, error)
}

// DocumentIngestor is the inbound contract for corpus uploads.
type DocumentIngestor interface {
	Upload(ctx context.Context, filename, mimeType string, body io.Reader) (*domain.Document, error)
}

// DocumentReader is the inbound read model for document metadata/state.
type DocumentReader interface {
	GetByID(ctx context.Context, id string) (*domain.Document, error)
}

// DocumentProcessor is the inbound contract for asynchronous indexing.
type DocumentProcessor interface {
	ProcessByID(ctx context.Context, documentID string) error
}
