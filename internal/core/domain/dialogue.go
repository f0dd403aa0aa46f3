package domain

import "time"

// Route labels which branch produced a turn's answer.
type Route string

const (
	RouteQA   Route = "QA"
	RouteChat Route = "Chat"
)

// Intent is the classifier's label for an incoming query.
type Intent string

const (
	IntentRetrieval Intent = "retrieval"
	IntentChat      Intent = "chat"
)

// Turn is one query/answer exchange. Immutable once appended to a session.
type Turn struct {
	ID            string    `json:"id"`
	Query         string    `json:"query"`
	ResolvedQuery string    `json:"resolved_query"`
	Answer        string    `json:"answer"`
	Route         Route     `json:"route"`
	SourceTitle   string    `json:"source_title,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

type Session struct {
	ID    string `json:"id"`
	Turns []Turn `json:"turns"`
}

// Resolution is the output of pronoun resolution for the current query.
type Resolution struct {
	Query        string `json:"query"`
	Conversation string `json:"conversation,omitempty"`
	Resolved     bool   `json:"resolved"`
}

// TurnResult is what the dialogue orchestrator returns for one request.
type TurnResult struct {
	SessionID    string          `json:"session_id"`
	Turn         Turn            `json:"turn"`
	Conversation string          `json:"conversation,omitempty"`
	Intent       Intent          `json:"intent"`
	QA           AnswerSelection `json:"qa"`
	ChatAnswer   string          `json:"chat_answer,omitempty"`
}
