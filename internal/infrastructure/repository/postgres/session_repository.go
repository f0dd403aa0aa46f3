package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kirillkom/dialogue-qa/internal/core/domain"
)

// SessionRepository is the durable Session Store. Turns are ordered by a
// per-table sequence, so insertion order is chronological order.
type SessionRepository struct {
	db *sql.DB
}

func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) AppendTurn(ctx context.Context, sessionID string, turn domain.Turn) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO session_turns (
	session_id, turn_id, query, resolved_query, answer, route, source_title, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
`,
		sessionID, turn.ID, turn.Query, turn.ResolvedQuery, turn.Answer,
		string(turn.Route), turn.SourceTitle, turn.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert session turn: %w", err)
	}
	return nil
}

func (r *SessionRepository) RecentTurns(ctx context.Context, sessionID string, limit int) ([]domain.Turn, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if limit > 0 {
		rows, err = r.db.QueryContext(ctx, `
SELECT turn_id, query, resolved_query, answer, route, source_title, created_at
FROM (
	SELECT seq, turn_id, query, resolved_query, answer, route, source_title, created_at
	FROM session_turns
	WHERE session_id = $1
	ORDER BY seq DESC
	LIMIT $2
) recent
ORDER BY seq ASC
`, sessionID, limit)
	} else {
		rows, err = r.db.QueryContext(ctx, `
SELECT turn_id, query, resolved_query, answer, route, source_title, created_at
FROM session_turns
WHERE session_id = $1
ORDER BY seq ASC
`, sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("query session turns: %w", err)
	}
	defer rows.Close()

	turns := make([]domain.Turn, 0)
	for rows.Next() {
		var turn domain.Turn
		var route string
		if err := rows.Scan(
			&turn.ID,
			&turn.Query,
			&turn.ResolvedQuery,
			&turn.Answer,
			&route,
			&turn.SourceTitle,
			&turn.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan session turn: %w", err)
		}
		turn.Route = domain.Route(route)
		turns = append(turns, turn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate session turns: %w", err)
	}
	return turns, nil
}
