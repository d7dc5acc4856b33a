package memory

import (
	"context"
	"time"
)

// Conversation roles. The generation backend speaks a different vocabulary:
// its own turns are tagged "model", everything else "user".
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleModel     = "model"
)

// Turn is a single persisted user or assistant message. Turns are immutable
// once written; the log is append-only and never rewritten.
type Turn struct {
	ID           int64     `json:"id"`
	SessionToken string    `json:"session_token"`
	Role         string    `json:"role"`
	Content      string    `json:"content"`
	CreatedAt    time.Time `json:"created_at"`
}

// ContextEntry is one element of the context window handed to the generation
// backend, already mapped to the external role vocabulary.
type ContextEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// SessionRegistry maps opaque session tokens to an optional durable identity
// (a verified phone number, learned at order confirmation).
type SessionRegistry interface {
	// EnsureSession inserts a session row if absent. It never overwrites an
	// existing identity and is safe to call on every request.
	EnsureSession(ctx context.Context, token, identity string) error
	// AssociateIdentity sets or overwrites the session identity. Empty
	// identity is a no-op.
	AssociateIdentity(ctx context.Context, token, identity string) error
	// LookupIdentity returns the identity for token, or "" when unknown.
	LookupIdentity(ctx context.Context, token string) (string, error)
}

// MessageLog is the append-only store of turns keyed by session.
type MessageLog interface {
	AppendTurn(ctx context.Context, token, role, content string) error
	// RecentTail returns at most limit most recent turns, oldest first.
	RecentTail(ctx context.Context, token string, limit int) ([]Turn, error)
	// FullHistory returns every turn for token, oldest first. UI replay only.
	FullHistory(ctx context.Context, token string) ([]Turn, error)
	CountTurns(ctx context.Context, token string) (int, error)
	// OldestTurns returns the earliest count turns, oldest first. This is the
	// candidate compaction input.
	OldestTurns(ctx context.Context, token string, count int) ([]Turn, error)
}

// SummaryStore holds at most one compacted summary per session.
type SummaryStore interface {
	// ReadSummary returns the session-local summary, or "" when absent.
	ReadSummary(ctx context.Context, token string) (string, error)
	// ReadSummaryForIdentity returns the freshest summary across every
	// session sharing identity, or "" when the group has none.
	ReadSummaryForIdentity(ctx context.Context, identity string) (string, error)
	// UpsertSummary atomically creates or replaces the summary for token and
	// bumps last_updated. Last write wins under concurrent callers.
	UpsertSummary(ctx context.Context, token, text string) error
}

// Store persists and retrieves conversational memory.
type Store interface {
	SessionRegistry
	MessageLog
	SummaryStore
	Close() error
}
