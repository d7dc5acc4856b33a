package memory

import (
	"context"
	"fmt"
	"log"

	"github.com/prontoville/crust/internal/reliability"
)

// noPriorSummary is handed to the summarizer when a session has never been
// compacted, so the prompt always carries an explicit prior-summary slot.
const noPriorSummary = "No previous summary."

const (
	longTermMemoryHeader = "LONG TERM MEMORY (PREVIOUS CONVERSATIONS):\n%s\n\n(Use this to remember user context, orders, and name)"
	longTermMemoryAck    = "Understood. I have the context."
)

// Summarizer merges a prior summary and a batch of old turns into a single
// replacement summary. Merging happens in the backend, not in storage.
type Summarizer interface {
	Summarize(ctx context.Context, priorSummary string, turns []Turn) (string, error)
}

// Settings carries the memory tuning knobs. Injected at construction, never
// read from globals.
type Settings struct {
	// BufferSize is the number of most recent turns always kept verbatim.
	BufferSize int
	// SummaryThreshold is the turn count that triggers compaction.
	// Must be greater than BufferSize.
	SummaryThreshold int
}

// Manager orchestrates the session registry, message log and summary store:
// it records turns, decides when to compact, and assembles the context window
// handed to the generation backend.
type Manager struct {
	store      Store
	summarizer Summarizer
	settings   Settings
	retry      reliability.Policy
}

func NewManager(store Store, summarizer Summarizer, settings Settings, retry reliability.Policy) *Manager {
	return &Manager{
		store:      store,
		summarizer: summarizer,
		settings:   settings,
		retry:      retry,
	}
}

// EnsureSession registers token if it is not known yet. Idempotent.
func (m *Manager) EnsureSession(ctx context.Context, token string) error {
	return m.store.EnsureSession(ctx, token, "")
}

// SaveTurn appends one turn to the session log. A failed append fails the
// enclosing chat turn; the conversation must never proceed with an unsaved
// user-visible message.
func (m *Manager) SaveTurn(ctx context.Context, token, role, content string) error {
	return m.store.AppendTurn(ctx, token, role, content)
}

// FullHistory returns the whole session transcript for UI replay.
func (m *Manager) FullHistory(ctx context.Context, token string) ([]Turn, error) {
	return m.store.FullHistory(ctx, token)
}

// State computes the compaction state for token from its turn count.
func (m *Manager) State(ctx context.Context, token string) (State, error) {
	count, err := m.store.CountTurns(ctx, token)
	if err != nil {
		return StateCold, err
	}
	return StateFor(count, m.settings.BufferSize, m.settings.SummaryThreshold), nil
}

// Compact folds the turns that have scrolled out of the raw buffer into the
// session summary, when the session is due. It is evaluated once per turn
// cycle; there is no background schedule. The returned error is informational:
// compaction is best-effort and the caller is expected to log and move on.
func (m *Manager) Compact(ctx context.Context, token string) error {
	count, err := m.store.CountTurns(ctx, token)
	if err != nil {
		return fmt.Errorf("count turns: %w", err)
	}
	if StateFor(count, m.settings.BufferSize, m.settings.SummaryThreshold) != StateDue {
		return nil
	}

	cutoff := count - m.settings.BufferSize
	if cutoff <= 0 {
		return nil
	}

	oldest, err := m.store.OldestTurns(ctx, token, cutoff)
	if err != nil {
		return fmt.Errorf("fetch oldest turns: %w", err)
	}
	if len(oldest) == 0 {
		return nil
	}

	prior, err := m.store.ReadSummary(ctx, token)
	if err != nil {
		return fmt.Errorf("read prior summary: %w", err)
	}
	if prior == "" {
		prior = noPriorSummary
	}

	var merged string
	err = m.retry.Do(ctx, func() error {
		var callErr error
		merged, callErr = m.summarizer.Summarize(ctx, prior, oldest)
		return callErr
	})
	if err != nil {
		// The session stays due and compaction will be retried on the next
		// qualifying turn.
		return fmt.Errorf("summarize %d turns: %w", len(oldest), err)
	}

	if err := m.store.UpsertSummary(ctx, token, merged); err != nil {
		return fmt.Errorf("store summary: %w", err)
	}
	log.Printf("memory: compacted %d turns for session %s", len(oldest), token)
	return nil
}

// BuildContextWindow assembles the exact ordered payload handed to the
// generation backend: an optional synthetic long-term-memory pair followed by
// the raw buffer of recent turns. Built fresh on every request, never cached.
func (m *Manager) BuildContextWindow(ctx context.Context, token string) ([]ContextEntry, error) {
	identity, err := m.store.LookupIdentity(ctx, token)
	if err != nil {
		return nil, err
	}

	summary, err := m.resolveSummary(ctx, token, identity)
	if err != nil {
		return nil, err
	}

	var entries []ContextEntry
	if summary != "" {
		entries = append(entries,
			ContextEntry{Role: RoleUser, Content: fmt.Sprintf(longTermMemoryHeader, summary)},
			ContextEntry{Role: RoleModel, Content: longTermMemoryAck},
		)
	}

	recent, err := m.store.RecentTail(ctx, token, m.settings.BufferSize)
	if err != nil {
		return nil, err
	}
	for _, turn := range recent {
		role := RoleUser
		if turn.Role == RoleAssistant {
			role = RoleModel
		}
		entries = append(entries, ContextEntry{Role: role, Content: turn.Content})
	}
	return entries, nil
}

// resolveSummary prefers the freshest summary across the identity group and
// falls back to the session's own row. Raw turn buffers stay session-local;
// only the compacted summary is shared across sessions.
func (m *Manager) resolveSummary(ctx context.Context, token, identity string) (string, error) {
	if identity != "" {
		summary, err := m.store.ReadSummaryForIdentity(ctx, identity)
		if err != nil {
			return "", err
		}
		if summary != "" {
			return summary, nil
		}
	}
	return m.store.ReadSummary(ctx, token)
}

// AssociateAndMerge links token to a durable identity. The next
// BuildContextWindow call transparently resolves the group-wide summary; past
// turns are never rewritten. Re-association overwrites the previous link.
func (m *Manager) AssociateAndMerge(ctx context.Context, token, identity string) error {
	return m.store.AssociateIdentity(ctx, token, identity)
}
