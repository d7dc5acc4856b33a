package memory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists conversational memory in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := initSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

func initSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS chat_sessions (
			session_token TEXT PRIMARY KEY,
			identity TEXT NOT NULL DEFAULT '',
			started_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE INDEX IF NOT EXISTS idx_chat_sessions_identity ON chat_sessions (identity);`,
		`CREATE TABLE IF NOT EXISTS chat_turns (
			id BIGSERIAL PRIMARY KEY,
			session_token TEXT NOT NULL REFERENCES chat_sessions(session_token),
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE INDEX IF NOT EXISTS idx_chat_turns_token_created ON chat_turns (session_token, created_at, id);`,
		`CREATE TABLE IF NOT EXISTS chat_summaries (
			session_token TEXT PRIMARY KEY REFERENCES chat_sessions(session_token),
			summary TEXT NOT NULL,
			last_updated TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

func (s *PostgresStore) EnsureSession(ctx context.Context, token, identity string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO chat_sessions (session_token, identity) VALUES ($1, $2)
		 ON CONFLICT (session_token) DO NOTHING`,
		token, identity,
	)
	if err != nil {
		return fmt.Errorf("ensure session: %w", err)
	}
	return nil
}

func (s *PostgresStore) AssociateIdentity(ctx context.Context, token, identity string) error {
	if identity == "" {
		return nil
	}
	_, err := s.pool.Exec(ctx,
		`UPDATE chat_sessions SET identity=$2 WHERE session_token=$1`,
		token, identity,
	)
	if err != nil {
		return fmt.Errorf("associate identity: %w", err)
	}
	return nil
}

func (s *PostgresStore) LookupIdentity(ctx context.Context, token string) (string, error) {
	var identity string
	err := s.pool.QueryRow(ctx,
		`SELECT identity FROM chat_sessions WHERE session_token=$1`,
		token,
	).Scan(&identity)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("lookup identity: %w", err)
	}
	return identity, nil
}

func (s *PostgresStore) AppendTurn(ctx context.Context, token, role, content string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO chat_turns (session_token, role, content) VALUES ($1, $2, $3)`,
		token, role, content,
	)
	if err != nil {
		return fmt.Errorf("append turn: %w", err)
	}
	return nil
}

func (s *PostgresStore) RecentTail(ctx context.Context, token string, limit int) ([]Turn, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, session_token, role, content, created_at
		 FROM chat_turns WHERE session_token=$1
		 ORDER BY created_at DESC, id DESC LIMIT $2`,
		token, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query recent tail: %w", err)
	}
	defer rows.Close()

	items, err := scanTurns(rows, limit)
	if err != nil {
		return nil, err
	}

	// Reverse into chronological order for prompt coherence.
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
	return items, nil
}

func (s *PostgresStore) FullHistory(ctx context.Context, token string) ([]Turn, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, session_token, role, content, created_at
		 FROM chat_turns WHERE session_token=$1
		 ORDER BY created_at ASC, id ASC`,
		token,
	)
	if err != nil {
		return nil, fmt.Errorf("query full history: %w", err)
	}
	defer rows.Close()

	return scanTurns(rows, 0)
}

func (s *PostgresStore) CountTurns(ctx context.Context, token string) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM chat_turns WHERE session_token=$1`,
		token,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count turns: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) OldestTurns(ctx context.Context, token string, count int) ([]Turn, error) {
	if count <= 0 {
		return nil, nil
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, session_token, role, content, created_at
		 FROM chat_turns WHERE session_token=$1
		 ORDER BY created_at ASC, id ASC LIMIT $2`,
		token, count,
	)
	if err != nil {
		return nil, fmt.Errorf("query oldest turns: %w", err)
	}
	defer rows.Close()

	return scanTurns(rows, count)
}

func (s *PostgresStore) ReadSummary(ctx context.Context, token string) (string, error) {
	var summary string
	err := s.pool.QueryRow(ctx,
		`SELECT summary FROM chat_summaries WHERE session_token=$1`,
		token,
	).Scan(&summary)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read summary: %w", err)
	}
	return summary, nil
}

func (s *PostgresStore) ReadSummaryForIdentity(ctx context.Context, identity string) (string, error) {
	if identity == "" {
		return "", nil
	}
	var summary string
	err := s.pool.QueryRow(ctx,
		`SELECT cs.summary FROM chat_summaries cs
		 JOIN chat_sessions s ON cs.session_token = s.session_token
		 WHERE s.identity=$1
		 ORDER BY cs.last_updated DESC
		 LIMIT 1`,
		identity,
	).Scan(&summary)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read summary for identity: %w", err)
	}
	return summary, nil
}

func (s *PostgresStore) UpsertSummary(ctx context.Context, token, text string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO chat_summaries (session_token, summary, last_updated)
		 VALUES ($1, $2, now())
		 ON CONFLICT (session_token) DO UPDATE SET
			summary = EXCLUDED.summary,
			last_updated = GREATEST(chat_summaries.last_updated, now())`,
		token, text,
	)
	if err != nil {
		return fmt.Errorf("upsert summary: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func scanTurns(rows pgx.Rows, sizeHint int) ([]Turn, error) {
	items := make([]Turn, 0, sizeHint)
	for rows.Next() {
		var t Turn
		if err := rows.Scan(&t.ID, &t.SessionToken, &t.Role, &t.Content, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan turn row: %w", err)
		}
		items = append(items, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate turn rows: %w", err)
	}
	return items, nil
}
