package memory

import (
	"context"
	"sync"
	"time"
)

// InMemoryStore is a simple in-process memory store for local/dev use.
type InMemoryStore struct {
	mu        sync.RWMutex
	sessions  map[string]*sessionRow
	turns     map[string][]Turn
	summaries map[string]*summaryRow
	nextTurn  int64
	upsertSeq int64
}

type sessionRow struct {
	identity  string
	startedAt time.Time
}

type summaryRow struct {
	text        string
	lastUpdated time.Time
	// seq breaks last_updated ties so freshest-wins stays deterministic even
	// when two upserts land within clock resolution.
	seq int64
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		sessions:  make(map[string]*sessionRow),
		turns:     make(map[string][]Turn),
		summaries: make(map[string]*summaryRow),
	}
}

func (s *InMemoryStore) EnsureSession(_ context.Context, token, identity string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[token]; ok {
		return nil
	}
	s.sessions[token] = &sessionRow{identity: identity, startedAt: time.Now().UTC()}
	return nil
}

func (s *InMemoryStore) AssociateIdentity(_ context.Context, token, identity string) error {
	if identity == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.sessions[token]
	if !ok {
		row = &sessionRow{startedAt: time.Now().UTC()}
		s.sessions[token] = row
	}
	row.identity = identity
	return nil
}

func (s *InMemoryStore) LookupIdentity(_ context.Context, token string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.sessions[token]
	if !ok {
		return "", nil
	}
	return row.identity, nil
}

func (s *InMemoryStore) AppendTurn(_ context.Context, token, role, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextTurn++
	s.turns[token] = append(s.turns[token], Turn{
		ID:           s.nextTurn,
		SessionToken: token,
		Role:         role,
		Content:      content,
		CreatedAt:    time.Now().UTC(),
	})
	return nil
}

func (s *InMemoryStore) RecentTail(_ context.Context, token string, limit int) ([]Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	arr := s.turns[token]
	if len(arr) == 0 {
		return nil, nil
	}
	if limit <= 0 || limit > len(arr) {
		limit = len(arr)
	}
	out := make([]Turn, limit)
	copy(out, arr[len(arr)-limit:])
	return out, nil
}

func (s *InMemoryStore) FullHistory(_ context.Context, token string) ([]Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	arr := s.turns[token]
	out := make([]Turn, len(arr))
	copy(out, arr)
	return out, nil
}

func (s *InMemoryStore) CountTurns(_ context.Context, token string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.turns[token]), nil
}

func (s *InMemoryStore) OldestTurns(_ context.Context, token string, count int) ([]Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	arr := s.turns[token]
	if count <= 0 || len(arr) == 0 {
		return nil, nil
	}
	if count > len(arr) {
		count = len(arr)
	}
	out := make([]Turn, count)
	copy(out, arr[:count])
	return out, nil
}

func (s *InMemoryStore) ReadSummary(_ context.Context, token string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.summaries[token]
	if !ok {
		return "", nil
	}
	return row.text, nil
}

func (s *InMemoryStore) ReadSummaryForIdentity(_ context.Context, identity string) (string, error) {
	if identity == "" {
		return "", nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var freshest *summaryRow
	for token, sess := range s.sessions {
		if sess.identity != identity {
			continue
		}
		row, ok := s.summaries[token]
		if !ok {
			continue
		}
		if freshest == nil || row.lastUpdated.After(freshest.lastUpdated) ||
			(row.lastUpdated.Equal(freshest.lastUpdated) && row.seq > freshest.seq) {
			freshest = row
		}
	}
	if freshest == nil {
		return "", nil
	}
	return freshest.text, nil
}

func (s *InMemoryStore) UpsertSummary(_ context.Context, token, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upsertSeq++
	now := time.Now().UTC()
	if row, ok := s.summaries[token]; ok {
		row.text = text
		if now.After(row.lastUpdated) {
			row.lastUpdated = now
		}
		row.seq = s.upsertSeq
		return nil
	}
	s.summaries[token] = &summaryRow{text: text, lastUpdated: now, seq: s.upsertSeq}
	return nil
}

func (s *InMemoryStore) Close() error { return nil }
