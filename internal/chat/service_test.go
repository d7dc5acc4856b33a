package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/prontoville/crust/internal/cart"
	"github.com/prontoville/crust/internal/catalog"
	"github.com/prontoville/crust/internal/memory"
	"github.com/prontoville/crust/internal/observability"
	"github.com/prontoville/crust/internal/orders"
	"github.com/prontoville/crust/internal/reliability"
)

type scriptedGenerator struct {
	failures   int
	calls      int
	lastWindow []memory.ContextEntry
	lastPrompt string
	reply      string
}

func (g *scriptedGenerator) Generate(_ context.Context, window []memory.ContextEntry, prompt string) (string, error) {
	g.calls++
	g.lastWindow = window
	g.lastPrompt = prompt
	if g.calls <= g.failures {
		return "", errors.New("backend unavailable")
	}
	return g.reply, nil
}

type staticSummarizer struct {
	calls int
}

func (s *staticSummarizer) Summarize(_ context.Context, prior string, turns []memory.Turn) (string, error) {
	s.calls++
	return fmt.Sprintf("summary of %d turns", len(turns)), nil
}

type failingAppendStore struct {
	memory.Store
}

func (s *failingAppendStore) AppendTurn(context.Context, string, string, string) error {
	return errors.New("connection refused")
}

type fixture struct {
	service    *Service
	store      memory.Store
	carts      *cart.Manager
	orders     *orders.InMemoryStore
	generator  *scriptedGenerator
	summarizer *staticSummarizer
}

func newFixture(t *testing.T, store memory.Store) *fixture {
	t.Helper()
	instant := reliability.NewPolicy(3, time.Second, time.Minute).
		WithSleep(func(context.Context, time.Duration) error { return nil })

	summarizer := &staticSummarizer{}
	mem := memory.NewManager(store, summarizer, memory.Settings{BufferSize: 6, SummaryThreshold: 10}, instant)
	carts := cart.NewManager()
	orderStore := orders.NewInMemoryStore()
	generator := &scriptedGenerator{reply: "Sure! What size would you like?"}
	metrics := observability.NewMetrics(fmt.Sprintf("crust_test_chat_%d", time.Now().UnixNano()))

	menu := catalog.NewStaticStore(catalog.Data{
		Items: []catalog.Item{
			{Name: "Chicken Tikka", Category: "Pizza", Description: "Tikka chunks", Sizes: "Small,Medium,Large", Price: 1050},
		},
		Deals: []catalog.Deal{
			{Name: "Midweek Deal", Description: "Pizza plus wings", ItemsIncluded: "1 Pizza, 6 Wings", Availability: "Mon-Thu", Price: 1899},
		},
	})

	return &fixture{
		service:    NewService(mem, menu, carts, orderStore, generator, instant, metrics),
		store:      store,
		carts:      carts,
		orders:     orderStore,
		generator:  generator,
		summarizer: summarizer,
	}
}

func TestHandleTurnGeneratesAndPersistsBothTurns(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, memory.NewInMemoryStore())

	reply, err := f.service.HandleTurn(ctx, "tok", "what deals do you have?")
	if err != nil {
		t.Fatalf("HandleTurn() error = %v", err)
	}
	if reply != "Sure! What size would you like?" {
		t.Fatalf("reply = %q, want generator reply", reply)
	}
	if !strings.Contains(f.generator.lastPrompt, "Midweek Deal") {
		t.Fatalf("prompt missing grounding fragment:\n%s", f.generator.lastPrompt)
	}

	history, err := f.service.History(ctx, "tok")
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("history = %d turns, want 2", len(history))
	}
	if history[0].Role != memory.RoleUser || history[1].Role != memory.RoleAssistant {
		t.Fatalf("history roles = %q %q, want user assistant", history[0].Role, history[1].Role)
	}
}

func TestHandleTurnAddToCartSkipsGenerator(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, memory.NewInMemoryStore())

	reply, err := f.service.HandleTurn(ctx, "tok", "please add a chicken tikka")
	if err != nil {
		t.Fatalf("HandleTurn() error = %v", err)
	}
	if !strings.Contains(reply, "Added to cart") || !strings.Contains(reply, "Chicken Tikka") {
		t.Fatalf("reply = %q, want add-to-cart confirmation", reply)
	}
	if f.generator.calls != 0 {
		t.Fatalf("generator calls = %d, want 0 for intent turns", f.generator.calls)
	}
	if lines := f.carts.Lines("tok"); len(lines) != 1 || lines[0].Price != 1050 {
		t.Fatalf("cart = %+v, want one Chicken Tikka", lines)
	}
}

func TestCheckoutFlowPlacesOrderAndAssociatesIdentity(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, memory.NewInMemoryStore())

	if _, err := f.service.HandleTurn(ctx, "tok", "add chicken tikka"); err != nil {
		t.Fatalf("HandleTurn(add) error = %v", err)
	}
	reply, err := f.service.HandleTurn(ctx, "tok", "checkout please")
	if err != nil {
		t.Fatalf("HandleTurn(checkout) error = %v", err)
	}
	if !strings.Contains(reply, "Your Name") {
		t.Fatalf("reply = %q, want info request", reply)
	}
	if !f.carts.AwaitingInfo("tok") {
		t.Fatalf("session should be awaiting customer info")
	}

	reply, err = f.service.HandleTurn(ctx, "tok", "My name is Ali and phone is 0300-1234567")
	if err != nil {
		t.Fatalf("HandleTurn(info) error = %v", err)
	}
	if !strings.Contains(reply, "Order Confirmed") {
		t.Fatalf("reply = %q, want confirmation", reply)
	}

	saved := f.orders.Orders()
	if len(saved) != 1 || saved[0].CustomerName != "Ali" {
		t.Fatalf("orders = %+v, want one order for Ali", saved)
	}

	identity, err := f.store.LookupIdentity(ctx, "tok")
	if err != nil {
		t.Fatalf("LookupIdentity() error = %v", err)
	}
	if identity != "03001234567" {
		t.Fatalf("identity = %q, want normalized phone", identity)
	}

	if lines := f.carts.Lines("tok"); lines != nil {
		t.Fatalf("cart should be cleared after confirmation, got %+v", lines)
	}
}

func TestCheckoutWithEmptyCart(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, memory.NewInMemoryStore())

	reply, err := f.service.HandleTurn(ctx, "tok", "checkout")
	if err != nil {
		t.Fatalf("HandleTurn() error = %v", err)
	}
	if !strings.Contains(reply, "cart is empty") {
		t.Fatalf("reply = %q, want empty-cart message", reply)
	}
	if f.carts.AwaitingInfo("tok") {
		t.Fatalf("empty cart must not enter checkout")
	}
}

func TestGenerationExhaustionYieldsApology(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, memory.NewInMemoryStore())
	f.generator.failures = 99

	reply, err := f.service.HandleTurn(ctx, "tok", "tell me about your pizzas")
	if err != nil {
		t.Fatalf("HandleTurn() error = %v", err)
	}
	if reply != apologyMessage {
		t.Fatalf("reply = %q, want apology", reply)
	}
	if f.generator.calls != 3 {
		t.Fatalf("generator calls = %d, want 3 attempts", f.generator.calls)
	}

	// The apology is still a persisted assistant turn.
	history, err := f.service.History(ctx, "tok")
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != 2 || history[1].Content != apologyMessage {
		t.Fatalf("history = %+v, want apology persisted", history)
	}
}

func TestStorageFailureFailsTheTurn(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, &failingAppendStore{Store: memory.NewInMemoryStore()})

	if _, err := f.service.HandleTurn(ctx, "tok", "hello"); err == nil {
		t.Fatalf("HandleTurn() expected error when the user turn cannot be appended")
	}
	if f.generator.calls != 0 {
		t.Fatalf("generator calls = %d, want 0 after storage failure", f.generator.calls)
	}
}

func TestCompactionTriggersAtThreshold(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, memory.NewInMemoryStore())

	// Each handled turn appends two rows; the tenth row crosses the
	// threshold on the fifth call.
	for i := 0; i < 5; i++ {
		if _, err := f.service.HandleTurn(ctx, "tok", fmt.Sprintf("message %d", i)); err != nil {
			t.Fatalf("HandleTurn(%d) error = %v", i, err)
		}
	}
	if f.summarizer.calls == 0 {
		t.Fatalf("summarizer never invoked after crossing threshold")
	}

	summary, err := f.store.ReadSummary(ctx, "tok")
	if err != nil {
		t.Fatalf("ReadSummary() error = %v", err)
	}
	if !strings.Contains(summary, "summary of 4 turns") {
		t.Fatalf("summary = %q, want compaction of the oldest 4 turns", summary)
	}
}
