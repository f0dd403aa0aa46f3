package ports

import (
	"context"
	"io"

	"github.com/kirillkom/dialogue-qa/internal/core/domain"
)

// CoreferenceResolver rewrites text with pronouns replaced by their referents.
type CoreferenceResolver interface {
	ResolveCoreference(ctx context.Context, text string) (string, error)
}

// SentenceSegmenter splits text into ordered sentences.
type SentenceSegmenter interface {
	Sentences(ctx context.Context, text string) ([]string, error)
}

// TokenTagger tags pre-tokenized text with part of speech and entity IOB tags.
type TokenTagger interface {
	Tag(ctx context.Context, tokens []string) ([]domain.TaggedToken, error)
}

// Lemmatizer returns one lemma per token, order preserving.
type Lemmatizer interface {
	Lemmatize(ctx context.Context, text string) ([]string, error)
}

// DocumentSearcher runs a weighted multi-field query against the corpus index.
type DocumentSearcher interface {
	Search(ctx context.Context, query domain.WeightedQuery, boosts domain.FieldBoosts, topK int) ([]domain.SearchDocument, error)
}

// DocumentIndexer writes extracted documents to the corpus index.
type DocumentIndexer interface {
	IndexDocument(ctx context.Context, doc domain.IndexedDocument) error
}

// AnswerExtractor returns a substring answer of passage, or "" when none.
type AnswerExtractor interface {
	ExtractAnswer(ctx context.Context, question, passage string) (string, error)
}

// IntentClassifier labels a query as retrieval or chat.
type IntentClassifier interface {
	ClassifyIntent(ctx context.Context, text string) (domain.Intent, error)
}

// ChatResponder produces a free-text generative reply.
type ChatResponder interface {
	GenerateChatReply(ctx context.Context, text string) (string, error)
}

// SessionStore is the append-only turn log keyed by session id.
type SessionStore interface {
	AppendTurn(ctx context.Context, sessionID string, turn domain.Turn) error
	// RecentTurns returns up to limit most recent turns in chronological
	// order; limit <= 0 returns the whole log. Unknown ids yield no turns.
	RecentTurns(ctx context.Context, sessionID string, limit int) ([]domain.Turn, error)
}

// DocumentRepository persists and reads document state.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error
	SaveTitle(ctx context.Context, id, title string) error
}

// ObjectStorage stores source documents.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// MessageQueue publishes/consumes ingestion events.
type MessageQueue interface {
	PublishDocumentIngested(ctx context.Context, documentID string) error
	SubscribeDocumentIngested(ctx context.Context, handler func(context.Context, string) error) error
}

// TextExtractor extracts indexable text from a stored document.
type TextExtractor interface {
	Extract(ctx context.Context, doc *domain.Document) (domain.ExtractedText, error)
}
