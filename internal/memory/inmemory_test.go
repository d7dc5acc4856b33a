package memory

import (
	"context"
	"fmt"
	"testing"
)

func TestInMemoryAppendCountTail(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	if err := s.EnsureSession(ctx, "tok", ""); err != nil {
		t.Fatalf("EnsureSession() error = %v", err)
	}

	for i := 1; i <= 5; i++ {
		if err := s.AppendTurn(ctx, "tok", RoleUser, fmt.Sprintf("m%d", i)); err != nil {
			t.Fatalf("AppendTurn() error = %v", err)
		}
	}

	count, err := s.CountTurns(ctx, "tok")
	if err != nil {
		t.Fatalf("CountTurns() error = %v", err)
	}
	if count != 5 {
		t.Fatalf("CountTurns() = %d, want 5", count)
	}

	tail, err := s.RecentTail(ctx, "tok", 3)
	if err != nil {
		t.Fatalf("RecentTail() error = %v", err)
	}
	if len(tail) != 3 {
		t.Fatalf("RecentTail() len = %d, want 3", len(tail))
	}
	for i, want := range []string{"m3", "m4", "m5"} {
		if tail[i].Content != want {
			t.Fatalf("tail[%d] = %q, want %q", i, tail[i].Content, want)
		}
	}

	tail, err = s.RecentTail(ctx, "tok", 99)
	if err != nil {
		t.Fatalf("RecentTail() error = %v", err)
	}
	if len(tail) != 5 {
		t.Fatalf("RecentTail(99) len = %d, want 5", len(tail))
	}
}

func TestInMemoryOldestTurns(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	for i := 1; i <= 4; i++ {
		if err := s.AppendTurn(ctx, "tok", RoleUser, fmt.Sprintf("m%d", i)); err != nil {
			t.Fatalf("AppendTurn() error = %v", err)
		}
	}

	oldest, err := s.OldestTurns(ctx, "tok", 2)
	if err != nil {
		t.Fatalf("OldestTurns() error = %v", err)
	}
	if len(oldest) != 2 || oldest[0].Content != "m1" || oldest[1].Content != "m2" {
		t.Fatalf("OldestTurns() = %+v, want m1,m2", oldest)
	}

	none, err := s.OldestTurns(ctx, "tok", 0)
	if err != nil {
		t.Fatalf("OldestTurns(0) error = %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("OldestTurns(0) len = %d, want 0", len(none))
	}
}

func TestInMemorySummaryRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()

	if err := s.UpsertSummary(ctx, "tok", "S1"); err != nil {
		t.Fatalf("UpsertSummary() error = %v", err)
	}
	got, err := s.ReadSummary(ctx, "tok")
	if err != nil {
		t.Fatalf("ReadSummary() error = %v", err)
	}
	if got != "S1" {
		t.Fatalf("ReadSummary() = %q, want %q", got, "S1")
	}

	// A second upsert replaces wholesale, never appends.
	if err := s.UpsertSummary(ctx, "tok", "S2"); err != nil {
		t.Fatalf("UpsertSummary() error = %v", err)
	}
	got, err = s.ReadSummary(ctx, "tok")
	if err != nil {
		t.Fatalf("ReadSummary() error = %v", err)
	}
	if got != "S2" {
		t.Fatalf("ReadSummary() = %q, want %q", got, "S2")
	}
}

func TestInMemoryIdentityGroupPicksFreshest(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()

	if err := s.EnsureSession(ctx, "a", ""); err != nil {
		t.Fatalf("EnsureSession() error = %v", err)
	}
	if err := s.EnsureSession(ctx, "b", ""); err != nil {
		t.Fatalf("EnsureSession() error = %v", err)
	}
	if err := s.AssociateIdentity(ctx, "a", "03001234567"); err != nil {
		t.Fatalf("AssociateIdentity() error = %v", err)
	}
	if err := s.AssociateIdentity(ctx, "b", "03001234567"); err != nil {
		t.Fatalf("AssociateIdentity() error = %v", err)
	}

	if err := s.UpsertSummary(ctx, "a", "older"); err != nil {
		t.Fatalf("UpsertSummary(a) error = %v", err)
	}
	if err := s.UpsertSummary(ctx, "b", "newer"); err != nil {
		t.Fatalf("UpsertSummary(b) error = %v", err)
	}

	got, err := s.ReadSummaryForIdentity(ctx, "03001234567")
	if err != nil {
		t.Fatalf("ReadSummaryForIdentity() error = %v", err)
	}
	if got != "newer" {
		t.Fatalf("ReadSummaryForIdentity() = %q, want %q", got, "newer")
	}
}

func TestInMemoryEnsureSessionNeverOverwritesIdentity(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()

	if err := s.AssociateIdentity(ctx, "tok", "03001234567"); err != nil {
		t.Fatalf("AssociateIdentity() error = %v", err)
	}
	if err := s.EnsureSession(ctx, "tok", ""); err != nil {
		t.Fatalf("EnsureSession() error = %v", err)
	}

	identity, err := s.LookupIdentity(ctx, "tok")
	if err != nil {
		t.Fatalf("LookupIdentity() error = %v", err)
	}
	if identity != "03001234567" {
		t.Fatalf("LookupIdentity() = %q, want preserved identity", identity)
	}
}

func TestInMemoryAssociateEmptyIdentityIsNoop(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	if err := s.AssociateIdentity(ctx, "tok", ""); err != nil {
		t.Fatalf("AssociateIdentity() error = %v", err)
	}
	identity, err := s.LookupIdentity(ctx, "tok")
	if err != nil {
		t.Fatalf("LookupIdentity() error = %v", err)
	}
	if identity != "" {
		t.Fatalf("LookupIdentity() = %q, want empty", identity)
	}
}
