package cart

import (
	"fmt"
	"strings"
	"sync"
)

// Line is one cart entry.
type Line struct {
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Size     string  `json:"size,omitempty"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

type cartState struct {
	lines        []Line
	awaitingInfo bool
}

// Manager keeps one live cart per session token. Carts are in-process state,
// scoped to the running conversation; only confirmed orders are persisted.
type Manager struct {
	mu    sync.RWMutex
	carts map[string]*cartState
}

func NewManager() *Manager {
	return &Manager{carts: make(map[string]*cartState)}
}

func (m *Manager) Add(token string, line Line) {
	if line.Quantity <= 0 {
		line.Quantity = 1
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state(token).lines = append(m.state(token).lines, line)
}

// Lines returns a copy of the cart contents.
func (m *Manager) Lines(token string) []Line {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, ok := m.carts[token]
	if !ok || len(st.lines) == 0 {
		return nil
	}
	out := make([]Line, len(st.lines))
	copy(out, st.lines)
	return out
}

func (m *Manager) Clear(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if st, ok := m.carts[token]; ok {
		st.lines = nil
		st.awaitingInfo = false
	}
}

func (m *Manager) SetAwaitingInfo(token string, awaiting bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state(token).awaitingInfo = awaiting
}

// AwaitingInfo reports whether the session is mid-checkout, waiting for the
// customer's name and phone number.
func (m *Manager) AwaitingInfo(token string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, ok := m.carts[token]
	return ok && st.awaitingInfo
}

// state must be called with the write lock held.
func (m *Manager) state(token string) *cartState {
	st, ok := m.carts[token]
	if !ok {
		st = &cartState{}
		m.carts[token] = st
	}
	return st
}

// Total computes the cart total in rupees.
func Total(lines []Line) float64 {
	var total float64
	for _, l := range lines {
		total += l.Price * float64(l.Quantity)
	}
	return total
}

// Format renders the cart for display and for prompt context.
func Format(lines []Line) string {
	if len(lines) == 0 {
		return "🛒 Your cart is empty."
	}
	var b strings.Builder
	b.WriteString("🛒 **Your Cart:**\n\n")
	for i, l := range lines {
		sizeInfo := ""
		if l.Size != "" {
			sizeInfo = fmt.Sprintf(" (%s)", l.Size)
		}
		fmt.Fprintf(&b, "%d. %s%s x%d - Rs. %d\n", i+1, l.Name, sizeInfo, l.Quantity, int(l.Price*float64(l.Quantity)))
	}
	fmt.Fprintf(&b, "\n**Total: Rs. %d**", int(Total(lines)))
	return b.String()
}
