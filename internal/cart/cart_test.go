package cart

import (
	"strings"
	"testing"
)

func TestManagerAddLinesClear(t *testing.T) {
	m := NewManager()
	m.Add("tok", Line{Name: "Chicken Tikka", Price: 1050})
	m.Add("tok", Line{Name: "Flaming Wings", Price: 550, Quantity: 2})

	lines := m.Lines("tok")
	if len(lines) != 2 {
		t.Fatalf("Lines() = %d entries, want 2", len(lines))
	}
	if lines[0].Quantity != 1 {
		t.Fatalf("zero quantity should default to 1, got %d", lines[0].Quantity)
	}
	if got := Total(lines); got != 1050+2*550 {
		t.Fatalf("Total() = %v, want 2150", got)
	}

	// Carts are isolated per token.
	if other := m.Lines("other"); other != nil {
		t.Fatalf("Lines(other) = %v, want nil", other)
	}

	m.Clear("tok")
	if lines := m.Lines("tok"); lines != nil {
		t.Fatalf("Lines() after Clear = %v, want nil", lines)
	}
}

func TestManagerAwaitingInfo(t *testing.T) {
	m := NewManager()
	if m.AwaitingInfo("tok") {
		t.Fatalf("AwaitingInfo() = true for fresh session")
	}
	m.SetAwaitingInfo("tok", true)
	if !m.AwaitingInfo("tok") {
		t.Fatalf("AwaitingInfo() = false after set")
	}
	m.Clear("tok")
	if m.AwaitingInfo("tok") {
		t.Fatalf("Clear() should reset checkout state")
	}
}

func TestFormat(t *testing.T) {
	if got := Format(nil); got != "🛒 Your cart is empty." {
		t.Fatalf("Format(nil) = %q", got)
	}
	got := Format([]Line{{Name: "Chicken Tikka", Size: "Large", Price: 1680, Quantity: 1}})
	if !strings.Contains(got, "Chicken Tikka (Large) x1 - Rs. 1680") {
		t.Fatalf("Format() = %q, missing line", got)
	}
	if !strings.Contains(got, "**Total: Rs. 1680**") {
		t.Fatalf("Format() = %q, missing total", got)
	}
}
